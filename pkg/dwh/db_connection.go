package dwh

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Conn abstracts the single warehouse connection a runner sequence holds.
// Statements executed through Exec outside an explicit transaction are
// committed individually by the server.
//
// Thread-Safety: NOT safe for concurrent use; one sequence owns one Conn.
type Conn interface {
	// Exec executes a statement without returning any rows.
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)

	// QueryRow executes a query that is expected to return at most one row.
	// Errors are deferred until Row's Scan method is called.
	QueryRow(ctx context.Context, sql string, args ...any) Row

	// CopyFrom streams rows into a table using the COPY protocol.
	CopyFrom(ctx context.Context, table pgx.Identifier, columns []string, src pgx.CopyFromSource) (int64, error)

	// Close terminates the connection.
	Close(ctx context.Context) error
}

// Row represents a single row returned by QueryRow.
type Row interface {
	// Scan reads the values from the row into dest values.
	Scan(dest ...any) error
}

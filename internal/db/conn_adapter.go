package db

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/vvka-141/sparkify-dwh/pkg/dwh"
)

// ConnAdapter adapts *pgx.Conn to the dwh.Conn interface so services do
// not depend on the concrete driver type.
//
// Thread-Safety: NOT safe for concurrent use, like the wrapped *pgx.Conn.
type ConnAdapter struct {
	conn *pgx.Conn
}

// NewConnAdapter wraps conn.
func NewConnAdapter(conn *pgx.Conn) dwh.Conn {
	return &ConnAdapter{conn: conn}
}

func (a *ConnAdapter) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	return a.conn.Exec(ctx, sql, args...)
}

func (a *ConnAdapter) QueryRow(ctx context.Context, sql string, args ...any) dwh.Row {
	return a.conn.QueryRow(ctx, sql, args...)
}

func (a *ConnAdapter) CopyFrom(ctx context.Context, table pgx.Identifier, columns []string, src pgx.CopyFromSource) (int64, error) {
	return a.conn.CopyFrom(ctx, table, columns, src)
}

func (a *ConnAdapter) Close(ctx context.Context) error {
	return a.conn.Close(ctx)
}

var _ dwh.Conn = (*ConnAdapter)(nil)

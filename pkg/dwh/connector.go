package dwh

import (
	"context"

	"github.com/jackc/pgx/v5"
)

// Connector is a unified interface for establishing warehouse connections.
// Different implementations handle various authentication methods
// (static password, temporary Redshift credentials, RDS IAM tokens).
type Connector interface {
	// Connect establishes one dedicated connection to the warehouse.
	// The caller owns the connection and must close it when done.
	Connect(ctx context.Context) (*pgx.Conn, error)
}

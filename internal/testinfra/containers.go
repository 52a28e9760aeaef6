package testinfra

import (
	"context"
	"fmt"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// The container mirrors the CLUSTER section of the sample dwh.cfg.
const (
	PostgresImage     = "postgres:17-alpine"
	WarehouseDB       = "dwh"
	WarehouseUser     = "dwhuser"
	WarehousePassword = "Passw0rd"
)

// Warehouse is a disposable PostgreSQL server standing in for Redshift
// when the pipeline runs in the postgres dialect.
type Warehouse struct {
	*postgres.PostgresContainer
	ConnString string
}

// StartWarehouse starts PostgreSQL in UTC with the dwh database and
// dwhuser role. TLS is off; the connection string carries sslmode=disable.
func StartWarehouse(ctx context.Context) (*Warehouse, error) {
	ctr, err := postgres.Run(ctx,
		PostgresImage,
		postgres.WithDatabase(WarehouseDB),
		postgres.WithUsername(WarehouseUser),
		postgres.WithPassword(WarehousePassword),
		testcontainers.WithEnv(map[string]string{"TZ": "UTC", "PGTZ": "UTC"}),
		testcontainers.WithWaitStrategy(
			wait.ForAll(
				wait.ForLog("database system is ready to accept connections").WithOccurrence(2),
				wait.ForListeningPort("5432/tcp"),
			).WithStartupTimeoutDefault(60*time.Second),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("start warehouse container: %w", err)
	}

	connStr, err := ctr.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		ctr.Terminate(ctx) //nolint:errcheck
		return nil, fmt.Errorf("warehouse connection string: %w", err)
	}

	return &Warehouse{PostgresContainer: ctr, ConnString: connStr}, nil
}

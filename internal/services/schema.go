package services

import (
	"context"

	"github.com/vvka-141/sparkify-dwh/internal/statements"
	"github.com/vvka-141/sparkify-dwh/pkg/dwh"
)

// SchemaManager drops and creates the seven warehouse tables.
type SchemaManager struct {
	runner  *Runner
	dialect dwh.Dialect
}

// NewSchemaManager creates a SchemaManager. Panics if runner is nil.
func NewSchemaManager(runner *Runner, dialect dwh.Dialect) *SchemaManager {
	if runner == nil {
		panic("runner cannot be nil")
	}
	return &SchemaManager{runner: runner, dialect: dialect}
}

// DropAll drops every table that exists. Dropping absent tables is not an error.
func (m *SchemaManager) DropAll(ctx context.Context) error {
	return runAll(ctx, m.runner, statements.DropTables())
}

// CreateAll creates the staging tables first and songplays last.
// It fails with dwh.ErrSchema if any table already exists.
func (m *SchemaManager) CreateAll(ctx context.Context) error {
	return runAll(ctx, m.runner, statements.CreateTables(m.dialect))
}

func runAll(ctx context.Context, runner *Runner, stmts []dwh.Statement) error {
	for _, stmt := range stmts {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := runner.Exec(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

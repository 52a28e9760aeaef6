package services

import (
	"context"

	"github.com/vvka-141/sparkify-dwh/internal/statements"
	"github.com/vvka-141/sparkify-dwh/pkg/dwh"
)

// Transformer populates the star schema from the staging tables.
type Transformer struct {
	runner  *Runner
	dialect dwh.Dialect
}

// NewTransformer creates a Transformer. Panics if runner is nil.
func NewTransformer(runner *Runner, dialect dwh.Dialect) *Transformer {
	if runner == nil {
		panic("runner cannot be nil")
	}
	return &Transformer{runner: runner, dialect: dialect}
}

// TransformAll runs the five inserts: songplays, users, songs, artists, time.
// The time insert reads songplays, so the order is fixed.
func (t *Transformer) TransformAll(ctx context.Context) error {
	return runAll(ctx, t.runner, statements.InsertTables(t.dialect))
}

package services

import (
	"context"

	"github.com/vvka-141/sparkify-dwh/internal/statements"
	"github.com/vvka-141/sparkify-dwh/pkg/dwh"
)

// Loader bulk-loads the raw JSON datasets into the staging tables.
// Loads append: loading twice without a reset doubles the staging rows.
type Loader struct {
	runner  *Runner
	dialect dwh.Dialect
}

// NewLoader creates a Loader. Panics if runner is nil.
func NewLoader(runner *Runner, dialect dwh.Dialect) *Loader {
	if runner == nil {
		panic("runner cannot be nil")
	}
	return &Loader{runner: runner, dialect: dialect}
}

// LoadEvents copies the event log into staging_events.
func (l *Loader) LoadEvents(ctx context.Context, src dwh.CopySource) error {
	stmt, err := statements.CopyEvents(src, l.dialect)
	if err != nil {
		return err
	}
	return l.runner.Exec(ctx, stmt)
}

// LoadSongs copies the song metadata into staging_songs.
func (l *Loader) LoadSongs(ctx context.Context, src dwh.CopySource) error {
	stmt, err := statements.CopySongs(src, l.dialect)
	if err != nil {
		return err
	}
	return l.runner.Exec(ctx, stmt)
}

package statements

import (
	"errors"

	"github.com/vvka-141/sparkify-dwh/pkg/dwh"
)

// Sequence names, used in logs, errors and metric labels.
const (
	SequenceResetAndCreate   = "create-tables"
	SequenceLoadAndTransform = "etl"
	SequenceAnalyze          = "analyze"
)

// ResetAndCreate is the drop-then-create sequence.
func ResetAndCreate(d dwh.Dialect) dwh.Sequence {
	stmts := append(DropTables(), CreateTables(d)...)
	return dwh.Sequence{Name: SequenceResetAndCreate, Statements: stmts}
}

// LoadAndTransform is the two staging copies followed by the five inserts.
func LoadAndTransform(cfg *dwh.Config) (dwh.Sequence, error) {
	d := cfg.Warehouse.Dialect
	events, errEvents := CopyEvents(cfg.EventsSource(), d)
	songs, errSongs := CopySongs(cfg.SongsSource(), d)
	if err := errors.Join(errEvents, errSongs); err != nil {
		return dwh.Sequence{}, err
	}

	stmts := append([]dwh.Statement{events, songs}, InsertTables(d)...)
	return dwh.Sequence{Name: SequenceLoadAndTransform, Statements: stmts}, nil
}

// Analyze is the row-count sequence.
func Analyze() dwh.Sequence {
	return dwh.Sequence{Name: SequenceAnalyze, Statements: CountRows()}
}

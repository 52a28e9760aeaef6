package dwh

import (
	"context"
	"time"
)

// MetricsRecorder receives execution measurements from the runner.
// Implementations must be safe for concurrent use.
type MetricsRecorder interface {
	// ObserveStatement records one executed statement and its outcome.
	ObserveStatement(sequence string, stmt Statement, elapsed time.Duration, err error)

	// SetTableRows records a table's row count as reported by analytics.
	SetTableRows(table string, rows int64)

	// Flush exports collected metrics, if the recorder has a destination.
	Flush(ctx context.Context) error
}

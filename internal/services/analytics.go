package services

import (
	"context"
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/vvka-141/sparkify-dwh/internal/statements"
	"github.com/vvka-141/sparkify-dwh/pkg/dwh"
)

// Reporter counts the rows of every warehouse table. It only reads.
type Reporter struct {
	runner  *Runner
	metrics dwh.MetricsRecorder
	out     io.Writer
}

// NewReporter creates a Reporter writing to out. Panics if any dependency is nil.
func NewReporter(runner *Runner, metrics dwh.MetricsRecorder, out io.Writer) *Reporter {
	if runner == nil {
		panic("runner cannot be nil")
	}
	if metrics == nil {
		panic("metrics cannot be nil")
	}
	if out == nil {
		panic("out cannot be nil")
	}
	return &Reporter{runner: runner, metrics: metrics, out: out}
}

// Report prints each count query followed by its result, then a summary
// table. Counts are returned in table order: staging_events, staging_songs,
// songplays, users, songs, artists, time.
func (r *Reporter) Report(ctx context.Context) ([]dwh.TableCount, error) {
	stmts := statements.CountRows()
	counts := make([]dwh.TableCount, 0, len(stmts))

	for _, stmt := range stmts {
		if err := ctx.Err(); err != nil {
			return counts, err
		}
		_, _ = fmt.Fprintf(r.out, "\nRunning:\n%s\n", stmt.SQL)

		n, err := r.runner.QueryCount(ctx, stmt)
		if err != nil {
			return counts, err
		}
		_, _ = fmt.Fprintln(r.out, n)

		r.metrics.SetTableRows(stmt.Table, n)
		counts = append(counts, dwh.TableCount{Table: stmt.Table, Rows: n})
	}

	renderCounts(r.out, counts)
	return counts, nil
}

func renderCounts(w io.Writer, counts []dwh.TableCount) {
	_, _ = fmt.Fprintln(w)

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Table", "Rows"})
	for _, c := range counts {
		t.AppendRow(table.Row{c.Table, c.Rows})
	}
	t.Render()
}

package services

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/vvka-141/sparkify-dwh/internal/sources"
	"github.com/vvka-141/sparkify-dwh/internal/statements"
	"github.com/vvka-141/sparkify-dwh/pkg/dwh"
)

// Pipeline runs the three independent sequences: reset-and-create,
// load-and-transform and analyze. Each sequence opens its own session and
// closes it when done, on success or failure.
//
// Thread-Safety: NOT safe for concurrent calls on the same instance.
type Pipeline struct {
	cfg      *dwh.Config
	sessions SessionOpener
	copier   Copier
	metrics  dwh.MetricsRecorder
	logger   dwh.Logger
	out      io.Writer
}

// NewPipeline creates a Pipeline with all dependencies injected.
//
// Panics if any dependency other than copier is nil. copier is only
// used by the postgres dialect.
func NewPipeline(
	cfg *dwh.Config,
	sessions SessionOpener,
	copier Copier,
	metrics dwh.MetricsRecorder,
	logger dwh.Logger,
	out io.Writer,
) *Pipeline {
	if cfg == nil {
		panic("cfg cannot be nil")
	}
	if sessions == nil {
		panic("sessions cannot be nil")
	}
	if metrics == nil {
		panic("metrics cannot be nil")
	}
	if logger == nil {
		panic("logger cannot be nil")
	}
	if out == nil {
		panic("out cannot be nil")
	}
	return &Pipeline{
		cfg:      cfg,
		sessions: sessions,
		copier:   copier,
		metrics:  metrics,
		logger:   logger,
		out:      out,
	}
}

// ResetAndCreate drops all seven tables, then creates them empty.
func (p *Pipeline) ResetAndCreate(ctx context.Context) error {
	return p.run(ctx, statements.SequenceResetAndCreate, func(r *Runner) error {
		schema := NewSchemaManager(r, p.cfg.Warehouse.Dialect)
		if err := schema.DropAll(ctx); err != nil {
			return err
		}
		return schema.CreateAll(ctx)
	})
}

// LoadAndTransform copies both datasets into staging and populates the
// star schema. Copy literals are validated before connecting.
func (p *Pipeline) LoadAndTransform(ctx context.Context) error {
	if _, err := statements.LoadAndTransform(p.cfg); err != nil {
		return err
	}

	return p.run(ctx, statements.SequenceLoadAndTransform, func(r *Runner) error {
		loader := NewLoader(r, p.cfg.Warehouse.Dialect)
		if err := loader.LoadEvents(ctx, p.cfg.EventsSource()); err != nil {
			return err
		}
		if err := loader.LoadSongs(ctx, p.cfg.SongsSource()); err != nil {
			return err
		}
		return NewTransformer(r, p.cfg.Warehouse.Dialect).TransformAll(ctx)
	})
}

// Analyze reports the row count of every table.
func (p *Pipeline) Analyze(ctx context.Context) ([]dwh.TableCount, error) {
	var counts []dwh.TableCount
	err := p.run(ctx, statements.SequenceAnalyze, func(r *Runner) error {
		var err error
		counts, err = NewReporter(r, p.metrics, p.out).Report(ctx)
		return err
	})
	return counts, err
}

// Preflight checks that the configured source data is readable from store
// before a load is attempted.
func (p *Pipeline) Preflight(ctx context.Context, store sources.Store) (*sources.Report, error) {
	report, err := sources.Verify(ctx, store, p.cfg.S3)
	if err != nil {
		return nil, err
	}
	p.logger.Info("Preflight: %d event files (%d bytes), %d song files (%d bytes), JSONPaths %s",
		report.EventFiles, report.EventBytes, report.SongFiles, report.SongBytes, report.JSONPaths)
	return report, nil
}

// Plan returns the statements a sequence would execute, without connecting.
func (p *Pipeline) Plan(sequence string) (dwh.Sequence, error) {
	switch sequence {
	case statements.SequenceResetAndCreate:
		return statements.ResetAndCreate(p.cfg.Warehouse.Dialect), nil
	case statements.SequenceLoadAndTransform:
		return statements.LoadAndTransform(p.cfg)
	case statements.SequenceAnalyze:
		return statements.Analyze(), nil
	default:
		return dwh.Sequence{}, fmt.Errorf("unknown sequence %q", sequence)
	}
}

// WritePlan prints a sequence's statements in execution order.
func WritePlan(w io.Writer, seq dwh.Sequence) {
	for i, stmt := range seq.Statements {
		_, _ = fmt.Fprintf(w, "-- %d. [%s] %s\n%s;\n\n", i+1, stmt.Kind, stmt.Name, stmt.SQL)
	}
}

func (p *Pipeline) run(ctx context.Context, sequence string, fn func(*Runner) error) error {
	session, err := p.sessions.Open(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := session.Close(context.WithoutCancel(ctx)); cerr != nil {
			p.logger.Verbose("Closing connection: %v", cerr)
		}
	}()

	start := time.Now()
	runner := NewRunner(session, sequence, p.cfg.Warehouse.Dialect, p.copier, p.metrics, p.logger)
	if err := fn(runner); err != nil {
		return err
	}
	p.logger.Verbose("%s completed in %s (run %s)", sequence, time.Since(start).Round(time.Millisecond), session.RunID())
	return nil
}

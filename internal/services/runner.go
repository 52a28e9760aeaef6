package services

import (
	"context"
	"errors"
	"time"

	"github.com/vvka-141/sparkify-dwh/pkg/dwh"
)

// Copier executes a KindCopy statement without server-side object storage
// access. The postgres dialect uses it in place of Exec.
type Copier interface {
	Copy(ctx context.Context, conn dwh.Conn, stmt dwh.Statement) (int64, error)
}

// Runner executes statements on one session, strictly in the order given.
// Each statement runs outside an explicit transaction and is committed on
// its own; a failure leaves earlier statements committed.
//
// Thread-Safety: NOT safe for concurrent use (the session connection isn't).
type Runner struct {
	session  *dwh.Session
	sequence string
	dialect  dwh.Dialect
	copier   Copier
	metrics  dwh.MetricsRecorder
	logger   dwh.Logger
}

// NewRunner creates a Runner for the named sequence.
//
// Panics if session, metrics or logger is nil. copier may be nil for the
// redshift dialect, where COPY runs on the server.
func NewRunner(session *dwh.Session, sequence string, dialect dwh.Dialect, copier Copier, metrics dwh.MetricsRecorder, logger dwh.Logger) *Runner {
	if session == nil {
		panic("session cannot be nil")
	}
	if metrics == nil {
		panic("metrics cannot be nil")
	}
	if logger == nil {
		panic("logger cannot be nil")
	}
	return &Runner{
		session:  session,
		sequence: sequence,
		dialect:  dialect,
		copier:   copier,
		metrics:  metrics,
		logger:   logger,
	}
}

// Exec runs one DDL, COPY or INSERT statement.
// Errors are returned as *dwh.StatementError.
func (r *Runner) Exec(ctx context.Context, stmt dwh.Statement) error {
	r.logger.Info("\n%s", header(stmt))
	r.logger.Info("%s", stmt.SQL)

	start := time.Now()
	err := r.exec(ctx, stmt)
	r.metrics.ObserveStatement(r.sequence, stmt, time.Since(start), err)
	if err != nil {
		return &dwh.StatementError{Sequence: r.sequence, Statement: stmt, Err: err}
	}
	return nil
}

func (r *Runner) exec(ctx context.Context, stmt dwh.Statement) error {
	if stmt.Kind == dwh.KindCopy && r.dialect == dwh.DialectPostgres {
		if r.copier == nil {
			return errors.New("no client-side copier configured")
		}
		n, err := r.copier.Copy(ctx, r.session.Conn(), stmt)
		if err != nil {
			return err
		}
		r.logger.Verbose("%s: COPY %d", stmt.Name, n)
		return nil
	}

	tag, err := r.session.Conn().Exec(ctx, stmt.SQL, stmt.Args...)
	if err != nil {
		return err
	}
	r.logger.Verbose("%s: %s", stmt.Name, tag.String())
	return nil
}

// QueryCount runs a KindSelect statement returning a single integer.
func (r *Runner) QueryCount(ctx context.Context, stmt dwh.Statement) (int64, error) {
	start := time.Now()
	var n int64
	err := r.session.Conn().QueryRow(ctx, stmt.SQL, stmt.Args...).Scan(&n)
	r.metrics.ObserveStatement(r.sequence, stmt, time.Since(start), err)
	if err != nil {
		return 0, &dwh.StatementError{Sequence: r.sequence, Statement: stmt, Err: err}
	}
	r.logger.Verbose("%s: %d", stmt.Name, n)
	return n, nil
}

func header(stmt dwh.Statement) string {
	switch stmt.Kind {
	case dwh.KindDDL:
		if stmt.Action == dwh.SchemaDrop {
			return "Executing DROP:"
		}
		return "Executing CREATE:"
	case dwh.KindCopy:
		return "Loading STAGING DATA:"
	case dwh.KindInsert:
		return "Inserting into STAR SCHEMA:"
	default:
		return "Running:"
	}
}

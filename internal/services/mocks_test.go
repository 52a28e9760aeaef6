package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/vvka-141/sparkify-dwh/pkg/dwh"
)

type fakeConn struct {
	executed []string
	failOn   string // substring of the SQL that fails
	failErr  error
	counts   map[string]int64 // table -> COUNT(*) result
	closed   int
}

func (c *fakeConn) Exec(_ context.Context, sql string, _ ...any) (pgconn.CommandTag, error) {
	c.executed = append(c.executed, sql)
	if c.failOn != "" && strings.Contains(sql, c.failOn) {
		return pgconn.CommandTag{}, c.failErr
	}
	return pgconn.NewCommandTag("OK"), nil
}

func (c *fakeConn) QueryRow(_ context.Context, sql string, _ ...any) dwh.Row {
	c.executed = append(c.executed, sql)
	if c.failOn != "" && strings.Contains(sql, c.failOn) {
		return fakeRow{err: c.failErr}
	}
	table := sql[strings.LastIndex(sql, " ")+1:]
	return fakeRow{n: c.counts[table]}
}

func (c *fakeConn) CopyFrom(_ context.Context, table pgx.Identifier, _ []string, _ pgx.CopyFromSource) (int64, error) {
	c.executed = append(c.executed, "COPY FROM STDIN "+table.Sanitize())
	return 0, nil
}

func (c *fakeConn) Close(_ context.Context) error {
	c.closed++
	return nil
}

type fakeRow struct {
	n   int64
	err error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	p, ok := dest[0].(*int64)
	if !ok {
		return fmt.Errorf("unexpected scan target %T", dest[0])
	}
	*p = r.n
	return nil
}

type fakeSessionOpener struct {
	conn   *fakeConn
	err    error
	opened int
}

func (o *fakeSessionOpener) Open(_ context.Context) (*dwh.Session, error) {
	if o.err != nil {
		return nil, o.err
	}
	o.opened++
	return dwh.NewSession(o.conn, uuid.New()), nil
}

type fakeCopier struct {
	copied []string
	rows   int64
	err    error
}

func (c *fakeCopier) Copy(_ context.Context, _ dwh.Conn, stmt dwh.Statement) (int64, error) {
	c.copied = append(c.copied, stmt.Table)
	return c.rows, c.err
}

type observation struct {
	sequence string
	name     string
	kind     dwh.StatementKind
	failed   bool
}

type fakeRecorder struct {
	mu           sync.Mutex
	observations []observation
	rows         map[string]int64
}

func newFakeRecorder() *fakeRecorder {
	return &fakeRecorder{rows: make(map[string]int64)}
}

func (r *fakeRecorder) ObserveStatement(sequence string, stmt dwh.Statement, _ time.Duration, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.observations = append(r.observations, observation{sequence: sequence, name: stmt.Name, kind: stmt.Kind, failed: err != nil})
}

func (r *fakeRecorder) SetTableRows(table string, rows int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rows[table] = rows
}

func (r *fakeRecorder) Flush(context.Context) error { return nil }

type mockLogger struct {
	mu    sync.Mutex
	infos []string
}

func (m *mockLogger) Verbose(_ string, _ ...interface{}) {}

func (m *mockLogger) Info(format string, args ...interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.infos = append(m.infos, fmt.Sprintf(format, args...))
}

func (m *mockLogger) Error(_ string, _ ...interface{}) {}

type mockConnector struct {
	conn *pgx.Conn
	err  error
}

func (m *mockConnector) Connect(_ context.Context) (*pgx.Conn, error) {
	return m.conn, m.err
}

package staging

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/vvka-141/sparkify-dwh/internal/sources"
	"github.com/vvka-141/sparkify-dwh/internal/statements"
	"github.com/vvka-141/sparkify-dwh/pkg/dwh"
)

// StoreOpener returns the store that serves location.
type StoreOpener func(ctx context.Context, location, region string) (sources.Store, error)

// Loader executes KindCopy statements client-side.
type Loader struct {
	open   StoreOpener
	logger dwh.Logger
}

// NewLoader creates a Loader. Panics if open or logger is nil.
func NewLoader(open StoreOpener, logger dwh.Logger) *Loader {
	if open == nil {
		panic("open cannot be nil")
	}
	if logger == nil {
		panic("logger cannot be nil")
	}
	return &Loader{open: open, logger: logger}
}

// Copy streams every JSON record under stmt.Copy.URI into stmt.Table and
// returns the number of rows copied. Any malformed record aborts the whole
// copy; COPY is atomic, so nothing from a failed copy is committed.
func (l *Loader) Copy(ctx context.Context, conn dwh.Conn, stmt dwh.Statement) (int64, error) {
	if stmt.Kind != dwh.KindCopy || stmt.Copy == nil {
		return 0, fmt.Errorf("%w: statement %q is not a copy", dwh.ErrCopy, stmt.Name)
	}
	table, ok := statements.TableByName(stmt.Table)
	if !ok {
		return 0, fmt.Errorf("%w: unknown staging table %q", dwh.ErrCopy, stmt.Table)
	}
	src := *stmt.Copy

	store, err := l.open(ctx, src.URI, src.Region)
	if err != nil {
		return 0, err
	}
	objects, err := store.List(ctx, src.URI)
	if err != nil {
		return 0, err
	}
	objects = sources.JSONObjects(objects)
	if len(objects) == 0 {
		return 0, fmt.Errorf("%w: no .json files under %s", dwh.ErrCopy, src.URI)
	}

	mapper, err := l.mapper(ctx, table, src)
	if err != nil {
		return 0, err
	}

	l.logger.Verbose("Copying %d files from %s into %s", len(objects), src.URI, table.Name)

	records := &recordSource{ctx: ctx, store: store, objects: objects, mapper: mapper}
	defer records.close()

	n, err := conn.CopyFrom(ctx, pgx.Identifier{table.Name}, table.ColumnNames(), records)
	if err != nil {
		if records.err != nil {
			return 0, records.err
		}
		return 0, err
	}
	return n, nil
}

// rowMapper turns one decoded record into column values in table order.
type rowMapper func(record map[string]any) ([]any, error)

func (l *Loader) mapper(ctx context.Context, table statements.Table, src dwh.CopySource) (rowMapper, error) {
	if src.IsAuto() {
		return autoMapper(table, src.EpochMillis), nil
	}

	store, err := l.open(ctx, src.JSONShape, src.Region)
	if err != nil {
		return nil, err
	}
	rc, err := store.Open(ctx, src.JSONShape)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	paths, err := ParseJSONPaths(rc)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", dwh.ErrCopy, src.JSONShape, err)
	}
	if len(paths) != len(table.Columns) {
		return nil, fmt.Errorf("%w: %s has %d jsonpaths but %s has %d columns",
			dwh.ErrCopy, src.JSONShape, len(paths), table.Name, len(table.Columns))
	}
	return pathMapper(table, paths, src.EpochMillis), nil
}

// pathMapper assigns the i-th JSONPath to the i-th column.
func pathMapper(table statements.Table, paths []Path, epochMillis bool) rowMapper {
	return func(record map[string]any) ([]any, error) {
		values := make([]any, len(table.Columns))
		for i, col := range table.Columns {
			v, err := convert(paths[i].Lookup(record), col, epochMillis)
			if err != nil {
				return nil, fmt.Errorf("%s (%s): %w", col.Name, paths[i], err)
			}
			values[i] = v
		}
		return values, nil
	}
}

// autoMapper matches top-level keys to column names, ignoring case.
// Keys without a column are skipped; columns without a key load NULL.
func autoMapper(table statements.Table, epochMillis bool) rowMapper {
	return func(record map[string]any) ([]any, error) {
		lowered := make(map[string]any, len(record))
		for k, v := range record {
			lowered[strings.ToLower(k)] = v
		}

		values := make([]any, len(table.Columns))
		for i, col := range table.Columns {
			v, err := convert(lowered[col.Name], col, epochMillis)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", col.Name, err)
			}
			values[i] = v
		}
		return values, nil
	}
}

// recordSource implements pgx.CopyFromSource over a sequence of objects,
// each holding one or more concatenated JSON objects.
type recordSource struct {
	ctx     context.Context
	store   sources.Store
	objects []sources.Object
	mapper  rowMapper

	next   int
	rc     io.ReadCloser
	dec    *json.Decoder
	key    string
	record int

	values []any
	err    error
}

func (s *recordSource) Next() bool {
	for s.err == nil {
		if s.dec == nil {
			if s.next >= len(s.objects) {
				return false
			}
			s.key = s.objects[s.next].Key
			s.next++
			rc, err := s.store.Open(s.ctx, s.key)
			if err != nil {
				s.err = err
				return false
			}
			s.rc = rc
			s.dec = json.NewDecoder(rc)
			s.dec.UseNumber()
			s.record = 0
		}

		var record map[string]any
		err := s.dec.Decode(&record)
		if errors.Is(err, io.EOF) {
			s.close()
			continue
		}
		s.record++
		if err != nil {
			s.err = fmt.Errorf("%w: %s: record %d: %w", dwh.ErrCopy, s.key, s.record, err)
			return false
		}

		values, err := s.mapper(record)
		if err != nil {
			s.err = fmt.Errorf("%w: %s: record %d: %w", dwh.ErrCopy, s.key, s.record, err)
			return false
		}
		s.values = values
		return true
	}
	return false
}

func (s *recordSource) Values() ([]any, error) {
	return s.values, nil
}

func (s *recordSource) Err() error {
	return s.err
}

func (s *recordSource) close() {
	if s.rc != nil {
		s.rc.Close() //nolint:errcheck
	}
	s.rc = nil
	s.dec = nil
}

var _ pgx.CopyFromSource = (*recordSource)(nil)

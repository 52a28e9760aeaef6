package staging

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vvka-141/sparkify-dwh/internal/logging"
	"github.com/vvka-141/sparkify-dwh/internal/sources"
	"github.com/vvka-141/sparkify-dwh/internal/statements"
	"github.com/vvka-141/sparkify-dwh/pkg/dwh"
)

const eventJSONPaths = `{
  "jsonpaths": [
    "$['artist']", "$['auth']", "$['firstName']", "$['gender']", "$['itemInSession']",
    "$['lastName']", "$['length']", "$['level']", "$['location']", "$['method']",
    "$['page']", "$['registration']", "$['sessionId']", "$['song']", "$['status']",
    "$['ts']", "$['userAgent']", "$['userId']"
  ]
}`

const eventLines = `{"artist":"Des'ree","auth":"Logged In","firstName":"Kaylee","gender":"F","itemInSession":1,"lastName":"Summers","length":246.30812,"level":"free","location":"Phoenix-Mesa-Scottsdale, AZ","method":"PUT","page":"NextSong","registration":1540344794796.0,"sessionId":139,"song":"You Gotta Be","status":200,"ts":1541106106796,"userAgent":"Mozilla/5.0","userId":"8"}
{"artist":null,"auth":"Logged Out","firstName":null,"gender":null,"itemInSession":0,"lastName":null,"length":null,"level":"free","location":null,"method":"GET","page":"Home","registration":null,"sessionId":52,"song":null,"status":200,"ts":1541207073796,"userAgent":null,"userId":""}
`

const songObject = `{"num_songs": 1, "artist_id": "ARJIE2Y1187B994AB7", "artist_latitude": null, "artist_longitude": null, "artist_location": "", "artist_name": "Line Renaud", "song_id": "SOUPIRU12A6D4FA1E1", "title": "Der Kleine Dompfaff", "duration": 152.92036, "year": 0}`

type copyCall struct {
	table   pgx.Identifier
	columns []string
	rows    [][]any
}

type fakeConn struct {
	copies []copyCall
}

func (f *fakeConn) Exec(context.Context, string, ...any) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, nil
}

func (f *fakeConn) QueryRow(context.Context, string, ...any) dwh.Row { return nil }

func (f *fakeConn) CopyFrom(_ context.Context, table pgx.Identifier, columns []string, src pgx.CopyFromSource) (int64, error) {
	call := copyCall{table: table, columns: columns}
	for src.Next() {
		values, err := src.Values()
		if err != nil {
			return 0, err
		}
		call.rows = append(call.rows, values)
	}
	if err := src.Err(); err != nil {
		return 0, err
	}
	f.copies = append(f.copies, call)
	return int64(len(call.rows)), nil
}

func (f *fakeConn) Close(context.Context) error { return nil }

func writeTree(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for name, content := range files {
		path := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	}
	return root
}

func localOpener(context.Context, string, string) (sources.Store, error) {
	return sources.NewLocalStore(), nil
}

func copyStatement(t *testing.T, build func(dwh.CopySource, dwh.Dialect) (dwh.Statement, error), src dwh.CopySource) dwh.Statement {
	t.Helper()
	src.CredentialRole = "arn:aws:iam::123456789012:role/dwhRole"
	src.Region = "us-west-2"
	stmt, err := build(src, dwh.DialectPostgres)
	require.NoError(t, err)
	return stmt
}

func TestLoader_CopyEvents(t *testing.T) {
	root := writeTree(t, map[string]string{
		"log_data/2018/11/2018-11-01-events.json": eventLines,
		"log_json_path.json":                      eventJSONPaths,
	})
	stmt := copyStatement(t, statements.CopyEvents, dwh.CopySource{
		URI:         filepath.Join(root, "log_data"),
		JSONShape:   filepath.Join(root, "log_json_path.json"),
		EpochMillis: true,
	})
	conn := &fakeConn{}

	n, err := NewLoader(localOpener, logging.NewNullLogger()).Copy(context.Background(), conn, stmt)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	require.Len(t, conn.copies, 1)
	call := conn.copies[0]
	assert.Equal(t, pgx.Identifier{"staging_events"}, call.table)
	assert.Equal(t, statements.StagingEvents.ColumnNames(), call.columns)

	first := call.rows[0]
	assert.Equal(t, "Des'ree", first[0])
	assert.Equal(t, "Kaylee", first[2])
	assert.Equal(t, int64(1), first[4])
	assert.Equal(t, 246.30812, first[6])
	assert.Equal(t, "NextSong", first[10])
	assert.Equal(t, time.Date(2018, 11, 1, 21, 1, 46, 796000000, time.UTC), first[15])
	assert.Equal(t, int64(8), first[17], "string user ids load as integers")

	second := call.rows[1]
	assert.Nil(t, second[0])
	assert.Nil(t, second[17], "empty user id loads as NULL")
}

func TestLoader_CopySongs(t *testing.T) {
	root := writeTree(t, map[string]string{
		"song_data/A/A/A/TRAAAAK128F9318786.json": songObject,
		"song_data/A/A/B/TRAAABD128F429CF47.json": strings.Replace(songObject, "SOUPIRU12A6D4FA1E1", "SOCIWDW12A8C13D406", 1),
	})
	stmt := copyStatement(t, statements.CopySongs, dwh.CopySource{URI: filepath.Join(root, "song_data")})
	conn := &fakeConn{}

	n, err := NewLoader(localOpener, logging.NewNullLogger()).Copy(context.Background(), conn, stmt)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	row := conn.copies[0].rows[0]
	assert.Equal(t, "ARJIE2Y1187B994AB7", row[0])
	assert.Nil(t, row[1], "null latitude")
	assert.Equal(t, "", row[2], "empty location stays an empty string in a text column")
	assert.Equal(t, "Line Renaud", row[4])
	assert.Equal(t, 152.92036, row[5])
	assert.Equal(t, int64(1), row[6])
	assert.Equal(t, "SOUPIRU12A6D4FA1E1", row[7])
	assert.Equal(t, int64(0), row[9])
}

func TestLoader_MalformedRecord(t *testing.T) {
	root := writeTree(t, map[string]string{
		"log_data/bad.json":  `{"artist": "x", "itemInSession": "one"}`,
		"log_json_path.json": eventJSONPaths,
	})
	stmt := copyStatement(t, statements.CopyEvents, dwh.CopySource{
		URI:         filepath.Join(root, "log_data"),
		JSONShape:   filepath.Join(root, "log_json_path.json"),
		EpochMillis: true,
	})

	_, err := NewLoader(localOpener, logging.NewNullLogger()).Copy(context.Background(), &fakeConn{}, stmt)
	require.Error(t, err)
	assert.ErrorIs(t, err, dwh.ErrCopy)
	assert.Contains(t, err.Error(), "record 1")
	assert.Contains(t, err.Error(), "iteminsession")
}

func TestLoader_InvalidJSON(t *testing.T) {
	root := writeTree(t, map[string]string{"song_data/a.json": `{"song_id": `})
	stmt := copyStatement(t, statements.CopySongs, dwh.CopySource{URI: filepath.Join(root, "song_data")})

	_, err := NewLoader(localOpener, logging.NewNullLogger()).Copy(context.Background(), &fakeConn{}, stmt)
	assert.ErrorIs(t, err, dwh.ErrCopy)
}

func TestLoader_NoFiles(t *testing.T) {
	root := writeTree(t, map[string]string{"song_data/README": "nothing here"})
	stmt := copyStatement(t, statements.CopySongs, dwh.CopySource{URI: filepath.Join(root, "song_data")})

	_, err := NewLoader(localOpener, logging.NewNullLogger()).Copy(context.Background(), &fakeConn{}, stmt)
	assert.ErrorIs(t, err, dwh.ErrCopy)
	assert.Contains(t, err.Error(), "no .json files")
}

func TestLoader_JSONPathsColumnMismatch(t *testing.T) {
	root := writeTree(t, map[string]string{
		"log_data/a.json":    eventLines,
		"log_json_path.json": `{"jsonpaths": ["$.artist"]}`,
	})
	stmt := copyStatement(t, statements.CopyEvents, dwh.CopySource{
		URI:       filepath.Join(root, "log_data"),
		JSONShape: filepath.Join(root, "log_json_path.json"),
	})

	_, err := NewLoader(localOpener, logging.NewNullLogger()).Copy(context.Background(), &fakeConn{}, stmt)
	assert.ErrorIs(t, err, dwh.ErrCopy)
	assert.Contains(t, err.Error(), "1 jsonpaths but staging_events has 18 columns")
}

func TestParsePath(t *testing.T) {
	record := map[string]any{
		"artist": "A",
		"a]b":    "bracket",
		"song":   map[string]any{"title": "T", "tags": []any{"x", "y"}},
	}

	tests := []struct {
		expr string
		want any
	}{
		{"$['artist']", "A"},
		{`$["artist"]`, "A"},
		{"$.artist", "A"},
		{"$.song.title", "T"},
		{"$['song']['tags'][1]", "y"},
		{"$.song.tags[5]", nil},
		{"$.missing.deeper", nil},
		{"$['a]b']", "bracket"},
		{`$["a]b"]`, "bracket"},
	}
	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			p, err := ParsePath(tt.expr)
			require.NoError(t, err)
			assert.Equal(t, tt.want, p.Lookup(record))
		})
	}

	for _, bad := range []string{"artist", "$", "$.", "$['artist'", "$['artist", "$['a']x", "$[x]", "$..a"} {
		_, err := ParsePath(bad)
		assert.Error(t, err, bad)
	}
}

func TestParseJSONPaths(t *testing.T) {
	paths, err := ParseJSONPaths(strings.NewReader(eventJSONPaths))
	require.NoError(t, err)
	require.Len(t, paths, 18)
	assert.Equal(t, "$['userId']", paths[17].String())

	_, err = ParseJSONPaths(strings.NewReader(`{"paths": []}`))
	assert.Error(t, err)
}

func TestConvert(t *testing.T) {
	intCol := statements.Column{Name: "n", Type: "int"}
	tsCol := statements.Column{Name: "ts", Type: "timestamp"}

	v, err := convert(" 42 ", intCol, false)
	require.NoError(t, err)
	assert.Equal(t, int64(42), v)

	_, err = convert("4.5", intCol, false)
	assert.Error(t, err)

	_, err = convert(true, intCol, false)
	assert.Error(t, err)

	v, err = convert("2018-11-01 21:01:46", tsCol, false)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2018, 11, 1, 21, 1, 46, 0, time.UTC), v)

	v, err = convert(map[string]any{"k": "v"}, statements.Column{Name: "s", Type: "varchar(max)"}, false)
	require.NoError(t, err)
	assert.Equal(t, `{"k":"v"}`, v)
}

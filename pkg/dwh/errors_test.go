package dwh_test

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/vvka-141/sparkify-dwh/pkg/dwh"
)

func TestExitCodeForError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil error", nil, dwh.ExitSuccess},
		{"configuration", fmt.Errorf("CLUSTER.HOST is required: %w", dwh.ErrConfiguration), dwh.ExitConfigError},
		{"connection", fmt.Errorf("connect: %w", dwh.ErrConnection), dwh.ExitConnectionError},
		{"schema", dwh.ErrSchema, dwh.ExitSchemaError},
		{"copy", dwh.ErrCopy, dwh.ExitCopyError},
		{"query", dwh.ErrQuery, dwh.ExitQueryError},
		{"unknown command", errors.New(`unknown command "foo" for "sparkify"`), dwh.ExitUsageError},
		{"unknown flag", errors.New("unknown flag: --foo"), dwh.ExitUsageError},
		{"invalid argument", errors.New(`invalid argument "x" for "--timeout"`), dwh.ExitUsageError},
		{"general error", errors.New("something went wrong"), dwh.ExitGeneralError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := dwh.ExitCodeForError(tt.err); got != tt.want {
				t.Errorf("ExitCodeForError(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}

func TestStatementError_UnwrapsKindAndCause(t *testing.T) {
	pgErr := &pgconn.PgError{Code: "42P07", Message: `relation "users" already exists`}
	err := fmt.Errorf("reset-and-create: %w", &dwh.StatementError{
		Sequence:  "reset-and-create",
		Statement: dwh.Statement{Kind: dwh.KindDDL, Name: "create users", SQL: "CREATE TABLE users ()"},
		Err:       pgErr,
	})

	if !errors.Is(err, dwh.ErrSchema) {
		t.Errorf("expected errors.Is(err, ErrSchema)")
	}
	if errors.Is(err, dwh.ErrQuery) {
		t.Errorf("DDL failure must not classify as ErrQuery")
	}

	var got *pgconn.PgError
	if !errors.As(err, &got) || got.Code != "42P07" {
		t.Errorf("expected the driver error to stay reachable, got %v", got)
	}
	if code := dwh.ExitCodeForError(err); code != dwh.ExitSchemaError {
		t.Errorf("exit code = %d, want %d", code, dwh.ExitSchemaError)
	}
}

func TestStatementError_KindSentinels(t *testing.T) {
	cases := map[dwh.StatementKind]error{
		dwh.KindDDL:    dwh.ErrSchema,
		dwh.KindCopy:   dwh.ErrCopy,
		dwh.KindInsert: dwh.ErrQuery,
		dwh.KindSelect: dwh.ErrQuery,
	}
	for kind, sentinel := range cases {
		err := &dwh.StatementError{Statement: dwh.Statement{Kind: kind}, Err: errors.New("boom")}
		if !errors.Is(err, sentinel) {
			t.Errorf("%s failure should be %v", kind, sentinel)
		}
	}
}

func TestStatementError_PreviewTruncates(t *testing.T) {
	long := "INSERT INTO songplays\n    SELECT " + strings.Repeat("x, ", 200)
	err := &dwh.StatementError{Statement: dwh.Statement{Kind: dwh.KindInsert, SQL: long}}

	preview := err.Preview()
	if len(preview) != dwh.MaxErrorPreviewLength+3 {
		t.Errorf("preview length = %d", len(preview))
	}
	if strings.Contains(preview, "\n") {
		t.Errorf("preview should collapse whitespace: %q", preview)
	}
}

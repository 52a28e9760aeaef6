package dwh

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for the failure kinds a runner sequence can hit.
// These enable callers to distinguish error types using errors.Is().
//
// Example usage:
//
//	err := pipeline.LoadAndTransform(ctx)
//	if errors.Is(err, dwh.ErrCopy) {
//	    // staging data, bucket or IAM role rejected
//	}
var (
	// ErrConfiguration indicates missing or malformed configuration.
	ErrConfiguration = errors.New("configuration error")

	// ErrConnection indicates the warehouse is unreachable or rejected authentication.
	ErrConnection = errors.New("connection error")

	// ErrSchema indicates a DDL statement was rejected (e.g. create on an existing table).
	ErrSchema = errors.New("schema error")

	// ErrCopy indicates a bulk copy failed: malformed records, unreachable storage
	// or a rejected credential role.
	ErrCopy = errors.New("copy error")

	// ErrQuery indicates an INSERT or SELECT failed.
	ErrQuery = errors.New("query error")
)

// StatementError reports the statement that aborted a sequence.
// It unwraps to both the kind sentinel and the driver error, so
// errors.Is(err, dwh.ErrCopy) and errors.As(err, &pgErr) both work.
type StatementError struct {
	Sequence  string
	Statement Statement
	Err       error
}

func (e *StatementError) Error() string {
	return fmt.Sprintf("%s: %s %q failed: %v", e.Sequence, e.Statement.Kind, e.Statement.Name, e.Err)
}

func (e *StatementError) Unwrap() []error {
	return []error{e.Statement.Kind.Sentinel(), e.Err}
}

// Preview returns the statement SQL shortened to MaxErrorPreviewLength characters.
func (e *StatementError) Preview() string {
	sql := strings.Join(strings.Fields(e.Statement.SQL), " ")
	if len(sql) > MaxErrorPreviewLength {
		return sql[:MaxErrorPreviewLength] + "..."
	}
	return sql
}

// usagePatterns are the cobra error messages that indicate CLI misuse.
var usagePatterns = []string{
	"unknown command",
	"unknown flag",
	"unknown shorthand flag",
	"accepts ",
	"requires at least",
	"invalid argument",
	"flag needs an argument",
}

// ExitCodeForError returns the appropriate exit code for an error.
// Returns ExitSuccess (0) for nil errors, semantic codes for known errors,
// and ExitGeneralError (1) for unclassified errors.
func ExitCodeForError(err error) int {
	if err == nil {
		return ExitSuccess
	}

	switch {
	case errors.Is(err, ErrConfiguration):
		return ExitConfigError
	case errors.Is(err, ErrConnection):
		return ExitConnectionError
	case errors.Is(err, ErrSchema):
		return ExitSchemaError
	case errors.Is(err, ErrCopy):
		return ExitCopyError
	case errors.Is(err, ErrQuery):
		return ExitQueryError
	}

	errStr := err.Error()
	for _, pattern := range usagePatterns {
		if strings.Contains(errStr, pattern) {
			return ExitUsageError
		}
	}

	return ExitGeneralError
}

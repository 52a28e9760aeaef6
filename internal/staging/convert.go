package staging

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/vvka-141/sparkify-dwh/internal/statements"
)

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// baseType strips any length modifier: varchar(max) -> varchar.
func baseType(col statements.Column) string {
	t := strings.ToLower(col.Type)
	if i := strings.IndexByte(t, '('); i >= 0 {
		t = t[:i]
	}
	return t
}

// convert maps a decoded JSON value onto the Go value pgx encodes for the
// column. Empty strings load as NULL into non-text columns.
func convert(v any, col statements.Column, epochMillis bool) (any, error) {
	if v == nil {
		return nil, nil
	}

	switch baseType(col) {
	case "text", "varchar", "char":
		return toText(v)
	case "int", "integer", "int4", "bigint", "int8", "smallint":
		return toInt(v)
	case "float", "float8", "double precision", "real", "numeric", "decimal":
		return toFloat(v)
	case "timestamp":
		return toTimestamp(v, epochMillis)
	default:
		return nil, fmt.Errorf("unsupported column type %s", col.Type)
	}
}

func toText(v any) (any, error) {
	switch x := v.(type) {
	case string:
		return x, nil
	case json.Number:
		return x.String(), nil
	case bool:
		return strconv.FormatBool(x), nil
	default:
		b, err := json.Marshal(x)
		if err != nil {
			return nil, err
		}
		return string(b), nil
	}
}

func toInt(v any) (any, error) {
	var s string
	switch x := v.(type) {
	case json.Number:
		s = x.String()
	case string:
		s = strings.TrimSpace(x)
		if s == "" {
			return nil, nil
		}
	default:
		return nil, fmt.Errorf("cannot load %T as an integer", v)
	}

	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f != float64(int64(f)) {
		return nil, fmt.Errorf("%q is not an integer", s)
	}
	return int64(f), nil
}

func toFloat(v any) (any, error) {
	var s string
	switch x := v.(type) {
	case json.Number:
		s = x.String()
	case string:
		s = strings.TrimSpace(x)
		if s == "" {
			return nil, nil
		}
	default:
		return nil, fmt.Errorf("cannot load %T as a number", v)
	}

	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, fmt.Errorf("%q is not a number", s)
	}
	return f, nil
}

func toTimestamp(v any, epochMillis bool) (any, error) {
	switch x := v.(type) {
	case json.Number:
		n, err := x.Int64()
		if err != nil {
			return nil, fmt.Errorf("%q is not an epoch timestamp", x.String())
		}
		if epochMillis {
			return time.UnixMilli(n).UTC(), nil
		}
		return time.Unix(n, 0).UTC(), nil
	case string:
		s := strings.TrimSpace(x)
		if s == "" {
			return nil, nil
		}
		for _, layout := range timestampLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return t.UTC(), nil
			}
		}
		return nil, fmt.Errorf("%q is not a timestamp", s)
	default:
		return nil, fmt.Errorf("cannot load %T as a timestamp", v)
	}
}

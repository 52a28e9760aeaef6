package staging

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// segment is one step of a JSONPath: an object member or an array index.
type segment struct {
	key     string
	index   int
	isIndex bool
}

// Path is a parsed JSONPath expression such as $['artist'] or $.song.title.
type Path struct {
	expr     string
	segments []segment
}

func (p Path) String() string { return p.expr }

// ParsePath parses the JSONPath subset accepted by COPY ... JSON: a root
// "$" followed by dot members, bracketed quoted members and array indexes.
func ParsePath(expr string) (Path, error) {
	p := Path{expr: expr}
	if !strings.HasPrefix(expr, "$") {
		return p, fmt.Errorf("jsonpath %q must start with $", expr)
	}

	rest := expr[1:]
	for rest != "" {
		switch rest[0] {
		case '.':
			rest = rest[1:]
			end := strings.IndexAny(rest, ".[")
			if end < 0 {
				end = len(rest)
			}
			if end == 0 {
				return p, fmt.Errorf("jsonpath %q has an empty member name", expr)
			}
			p.segments = append(p.segments, segment{key: rest[:end]})
			rest = rest[end:]

		case '[':
			if len(rest) > 1 && (rest[1] == '\'' || rest[1] == '"') {
				quote := rest[1]
				closing := strings.IndexByte(rest[2:], quote)
				if closing < 0 {
					return p, fmt.Errorf("jsonpath %q has an unterminated member name", expr)
				}
				key := rest[2 : 2+closing]
				rest = rest[3+closing:]
				if !strings.HasPrefix(rest, "]") {
					return p, fmt.Errorf("jsonpath %q has an unclosed bracket after member %q", expr, key)
				}
				rest = rest[1:]
				p.segments = append(p.segments, segment{key: key})
				continue
			}

			end := strings.IndexByte(rest, ']')
			if end < 0 {
				return p, fmt.Errorf("jsonpath %q has an unclosed bracket", expr)
			}
			inner := strings.TrimSpace(rest[1:end])
			rest = rest[end+1:]

			idx, err := strconv.Atoi(inner)
			if err != nil || idx < 0 {
				return p, fmt.Errorf("jsonpath %q has an invalid index %q", expr, inner)
			}
			p.segments = append(p.segments, segment{index: idx, isIndex: true})

		default:
			return p, fmt.Errorf("jsonpath %q: unexpected %q", expr, rest[0])
		}
	}

	if len(p.segments) == 0 {
		return p, fmt.Errorf("jsonpath %q selects the whole record", expr)
	}
	return p, nil
}

// Lookup returns the value at p in a decoded record, or nil when any step
// is missing.
func (p Path) Lookup(record any) any {
	current := record
	for _, s := range p.segments {
		if s.isIndex {
			arr, ok := current.([]any)
			if !ok || s.index >= len(arr) {
				return nil
			}
			current = arr[s.index]
			continue
		}
		obj, ok := current.(map[string]any)
		if !ok {
			return nil
		}
		current = obj[s.key]
	}
	return current
}

// ParseJSONPaths reads a JSONPaths document:
//
//	{"jsonpaths": ["$['artist']", "$['auth']", ...]}
func ParseJSONPaths(r io.Reader) ([]Path, error) {
	var doc struct {
		JSONPaths []string `json:"jsonpaths"`
	}
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("invalid JSONPaths document: %w", err)
	}
	if len(doc.JSONPaths) == 0 {
		return nil, fmt.Errorf("JSONPaths document has no \"jsonpaths\" entries")
	}

	paths := make([]Path, 0, len(doc.JSONPaths))
	for _, expr := range doc.JSONPaths {
		p, err := ParsePath(expr)
		if err != nil {
			return nil, err
		}
		paths = append(paths, p)
	}
	return paths, nil
}

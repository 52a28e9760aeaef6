// Package sources reads the raw JSON inputs of a bulk copy from S3 or
// from a local directory.
package sources

import (
	"context"
	"io"
	"strings"
)

// Object is one stored file.
type Object struct {
	Key  string // full location, e.g. s3://bucket/log_data/2018/11/a.json
	Size int64
}

// Store lists and reads objects under a location.
type Store interface {
	// List returns the objects under prefix, sorted by key.
	List(ctx context.Context, prefix string) ([]Object, error)

	// Open opens one object for reading.
	Open(ctx context.Context, key string) (io.ReadCloser, error)

	// Exists reports whether key names an existing object.
	Exists(ctx context.Context, key string) (bool, error)
}

// ForLocation returns the S3 store for s3:// locations and the local
// store for everything else.
func ForLocation(ctx context.Context, location, region string) (Store, error) {
	if strings.HasPrefix(location, "s3://") {
		return NewS3Store(ctx, region)
	}
	return NewLocalStore(), nil
}

// JSONObjects filters objects down to JSON record files.
func JSONObjects(objects []Object) []Object {
	out := make([]Object, 0, len(objects))
	for _, o := range objects {
		if strings.HasSuffix(strings.ToLower(o.Key), ".json") {
			out = append(out, o)
		}
	}
	return out
}

package sources

import (
	"context"
	"fmt"

	"github.com/vvka-141/sparkify-dwh/pkg/dwh"
)

// Report summarises what a bulk copy would read.
type Report struct {
	EventFiles int
	EventBytes int64
	SongFiles  int
	SongBytes  int64
	JSONPaths  string
}

// Verify checks that both source prefixes hold JSON files and that the
// JSONPaths document exists. It reads no record contents.
func Verify(ctx context.Context, store Store, s3cfg dwh.S3Config) (*Report, error) {
	report := &Report{JSONPaths: s3cfg.LogJSONPath}

	events, err := store.List(ctx, s3cfg.LogData)
	if err != nil {
		return nil, err
	}
	events = JSONObjects(events)
	if len(events) == 0 {
		return nil, fmt.Errorf("%w: no .json files under %s", dwh.ErrCopy, s3cfg.LogData)
	}
	report.EventFiles, report.EventBytes = len(events), totalSize(events)

	songs, err := store.List(ctx, s3cfg.SongData)
	if err != nil {
		return nil, err
	}
	songs = JSONObjects(songs)
	if len(songs) == 0 {
		return nil, fmt.Errorf("%w: no .json files under %s", dwh.ErrCopy, s3cfg.SongData)
	}
	report.SongFiles, report.SongBytes = len(songs), totalSize(songs)

	ok, err := store.Exists(ctx, s3cfg.LogJSONPath)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: JSONPaths document %s not found", dwh.ErrCopy, s3cfg.LogJSONPath)
	}

	return report, nil
}

func totalSize(objects []Object) int64 {
	var n int64
	for _, o := range objects {
		n += o.Size
	}
	return n
}

package sources

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/vvka-141/sparkify-dwh/pkg/dwh"
)

// LocalStore reads objects from the local filesystem. It backs the
// postgres dialect when LOG_DATA and SONG_DATA point at directories.
type LocalStore struct{}

// NewLocalStore creates a LocalStore.
func NewLocalStore() *LocalStore {
	return &LocalStore{}
}

// List walks prefix recursively. A prefix naming a single file lists
// just that file.
func (s *LocalStore) List(ctx context.Context, prefix string) ([]Object, error) {
	var objects []Object
	err := filepath.WalkDir(prefix, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if d.IsDir() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		objects = append(objects, Object{Key: path, Size: info.Size()})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: list %s: %w", dwh.ErrCopy, prefix, err)
	}

	sort.Slice(objects, func(i, j int) bool { return objects[i].Key < objects[j].Key })
	return objects, nil
}

// Open opens key for reading.
func (s *LocalStore) Open(_ context.Context, key string) (io.ReadCloser, error) {
	f, err := os.Open(key)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %w", dwh.ErrCopy, key, err)
	}
	return f, nil
}

// Exists reports whether key is an existing regular file.
func (s *LocalStore) Exists(_ context.Context, key string) (bool, error) {
	info, err := os.Stat(key)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("%w: stat %s: %w", dwh.ErrCopy, key, err)
	}
	return info.Mode().IsRegular(), nil
}

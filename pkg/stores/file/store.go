package file

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/theapemachine/ukg/pkg/errors"
)

/*
Store keeps each snapshot as <key>.json inside a directory. Writes go to a
temporary file that is renamed into place, so a crash never leaves a
truncated snapshot behind.
*/
type Store struct {
	dir string
}

/*
New creates the directory if needed and returns a store rooted at it.
*/
func New(dir string) (*Store, error) {
	if dir == "" {
		return nil, fmt.Errorf("file store requires a directory")
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create snapshot directory: %w", err)
	}

	return &Store{dir: dir}, nil
}

func (store *Store) path(key string) string {
	return filepath.Join(store.dir, strings.ReplaceAll(key, "/", "_")+".json")
}

/*
Put writes data under key.
*/
func (store *Store) Put(ctx context.Context, key string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(store.dir, ".snapshot-*")
	if err != nil {
		return errors.ErrSnapshot.WithMessagef("failed to create snapshot file").Wrap(err)
	}

	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return errors.ErrSnapshot.WithMessagef("failed to write snapshot %s", key).Wrap(err)
	}

	if err := tmp.Close(); err != nil {
		return errors.ErrSnapshot.WithMessagef("failed to close snapshot %s", key).Wrap(err)
	}

	if err := os.Rename(tmp.Name(), store.path(key)); err != nil {
		return errors.ErrSnapshot.WithMessagef("failed to move snapshot %s into place", key).Wrap(err)
	}

	log.Debug("snapshot written", "key", key, "bytes", len(data), "path", store.path(key))
	return nil
}

/*
Get reads the data stored under key.
*/
func (store *Store) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(store.path(key))

	if os.IsNotExist(err) {
		return nil, errors.ErrNotFound.WithMessagef("snapshot %s not found", key)
	}

	if err != nil {
		return nil, errors.ErrSnapshot.WithMessagef("failed to read snapshot %s", key).Wrap(err)
	}

	return data, nil
}

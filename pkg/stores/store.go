package stores

import (
	"context"
	"sync"

	"github.com/theapemachine/ukg/pkg/errors"
)

/*
SnapshotStore persists opaque snapshot documents under a key. Get returns an
error matching errors.ErrNotFound when the key has never been written.
*/
type SnapshotStore interface {
	Put(ctx context.Context, key string, data []byte) error
	Get(ctx context.Context, key string) ([]byte, error)
}

/*
Memory is a process-local SnapshotStore, used when persistence is disabled
and in tests.
*/
type Memory struct {
	mu   sync.RWMutex
	data map[string][]byte
}

/*
NewMemory returns an empty in-process store.
*/
func NewMemory() *Memory {
	return &Memory{data: map[string][]byte{}}
}

func (store *Memory) Put(ctx context.Context, key string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	store.mu.Lock()
	defer store.mu.Unlock()

	store.data[key] = append([]byte(nil), data...)
	return nil
}

func (store *Memory) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	store.mu.RLock()
	defer store.mu.RUnlock()

	data, ok := store.data[key]
	if !ok {
		return nil, errors.ErrNotFound.WithMessagef("snapshot %s not found", key)
	}

	return append([]byte(nil), data...), nil
}

package memory

import (
	"context"
	"encoding/json"
	"maps"
	"time"

	"github.com/charmbracelet/log"
	"github.com/theapemachine/ukg/pkg/errors"
	"github.com/theapemachine/ukg/pkg/stores"
)

// Snapshot is the durable form of a Store. Working memory is not persisted.
type Snapshot struct {
	Streams map[string]StreamSnapshot `json:"streams"`
}

type StreamSnapshot struct {
	ID          string           `json:"id"`
	Name        string           `json:"name"`
	Type        string           `json:"type"`
	Metadata    map[string]any   `json:"metadata,omitempty"`
	CreatedAt   time.Time        `json:"createdAt"`
	LastUpdated time.Time        `json:"lastUpdated"`
	Entries     map[string]Entry `json:"entries"`
}

func (store *Store) Export() Snapshot {
	store.mu.RLock()
	streams := make([]*Stream, 0, len(store.order))
	for _, id := range store.order {
		streams = append(streams, store.streams[id])
	}
	store.mu.RUnlock()

	snapshot := Snapshot{Streams: make(map[string]StreamSnapshot, len(streams))}

	for _, stream := range streams {
		stream.mu.Lock()

		out := StreamSnapshot{
			ID:          stream.id,
			Name:        stream.name,
			Type:        stream.kind,
			Metadata:    maps.Clone(stream.metadata),
			CreatedAt:   stream.createdAt,
			LastUpdated: stream.lastUpdated,
			Entries:     make(map[string]Entry, len(stream.entries)),
		}

		for id, entry := range stream.entries {
			out.Entries[id] = entry.copy()
		}

		stream.mu.Unlock()
		snapshot.Streams[out.ID] = out
	}

	return snapshot
}

// Load replaces every stream with the contents of snapshot. Streams and
// entries are ordered by creation time.
func (store *Store) Load(snapshot Snapshot) error {
	streams := make(map[string]*Stream, len(snapshot.Streams))
	infos := make([]StreamSnapshot, 0, len(snapshot.Streams))

	for id, s := range snapshot.Streams {
		if s.ID != id {
			return errors.ErrSnapshot.WithMessagef("stream key %s does not match id %s", id, s.ID)
		}

		infos = append(infos, s)
	}

	sortStreams(infos)
	order := make([]string, 0, len(infos))

	for _, s := range infos {
		stream := newStream(s.ID, s.Name, s.Type, s.Metadata, s.CreatedAt)

		entries := make([]Entry, 0, len(s.Entries))
		for id, entry := range s.Entries {
			if entry.ID != id {
				return errors.ErrSnapshot.WithMessagef("entry key %s does not match id %s", id, entry.ID)
			}

			entries = append(entries, entry)
		}

		sortEntries(entries)

		for i := range entries {
			entry := entries[i].copy()
			stream.put(&entry, s.LastUpdated)
		}

		stream.lastUpdated = s.LastUpdated
		streams[s.ID] = stream
		order = append(order, s.ID)
	}

	store.mu.Lock()
	store.streams = streams
	store.order = order
	store.mu.Unlock()

	log.Info("memory loaded", "streams", len(streams))
	return nil
}

func (store *Store) Save(ctx context.Context, backend stores.SnapshotStore, key string) error {
	data, err := json.Marshal(store.Export())
	if err != nil {
		return errors.ErrSnapshot.WithMessagef("failed to encode memory").Wrap(err)
	}

	return backend.Put(ctx, key, data)
}

func (store *Store) Restore(ctx context.Context, backend stores.SnapshotStore, key string) error {
	data, err := backend.Get(ctx, key)
	if err != nil {
		return err
	}

	var snapshot Snapshot

	if err := json.Unmarshal(data, &snapshot); err != nil {
		return errors.ErrSnapshot.WithMessagef("failed to decode memory %s", key).Wrap(err)
	}

	return store.Load(snapshot)
}

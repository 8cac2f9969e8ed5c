package memory

import (
	"maps"
	"sync"
	"time"
)

// Stream is a named, independently locked collection of entries.
type Stream struct {
	mu          sync.Mutex
	id          string
	name        string
	kind        string
	metadata    map[string]any
	createdAt   time.Time
	lastUpdated time.Time
	entries     map[string]*Entry
	order       []string
}

// StreamInfo is a read-only view of a stream.
type StreamInfo struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Type        string         `json:"type"`
	Metadata    map[string]any `json:"metadata,omitempty"`
	CreatedAt   time.Time      `json:"createdAt"`
	LastUpdated time.Time      `json:"lastUpdated"`
	Entries     int            `json:"entries"`
}

func newStream(id, name, kind string, metadata map[string]any, now time.Time) *Stream {
	if name == "" {
		name = id
	}

	if kind == "" {
		kind = "general"
	}

	return &Stream{
		id:          id,
		name:        name,
		kind:        kind,
		metadata:    maps.Clone(metadata),
		createdAt:   now,
		lastUpdated: now,
		entries:     map[string]*Entry{},
	}
}

func (stream *Stream) info() StreamInfo {
	stream.mu.Lock()
	defer stream.mu.Unlock()

	return StreamInfo{
		ID:          stream.id,
		Name:        stream.name,
		Type:        stream.kind,
		Metadata:    maps.Clone(stream.metadata),
		CreatedAt:   stream.createdAt,
		LastUpdated: stream.lastUpdated,
		Entries:     len(stream.entries),
	}
}

// put inserts or replaces an entry; callers hold the lock.
func (stream *Stream) put(entry *Entry, now time.Time) {
	if _, ok := stream.entries[entry.ID]; !ok {
		stream.order = append(stream.order, entry.ID)
	}

	stream.entries[entry.ID] = entry
	stream.lastUpdated = now
}

func (stream *Stream) list() []Entry {
	stream.mu.Lock()
	defer stream.mu.Unlock()

	out := make([]Entry, 0, len(stream.order))
	for _, id := range stream.order {
		out = append(out, stream.entries[id].copy())
	}

	return out
}

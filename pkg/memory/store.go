package memory

import (
	"maps"
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/theapemachine/ukg/pkg/errors"
	"github.com/theapemachine/ukg/pkg/utils"
)

// Config tunes a Store.
type Config struct {
	WorkingCapacity int
	DefaultStream   string
	RetrievalLimit  int
	Clock           func() time.Time
}

func DefaultConfig() Config {
	return Config{
		WorkingCapacity: DefaultWorkingCapacity,
		DefaultStream:   "default",
		RetrievalLimit:  5,
	}
}

// Store owns every memory stream and the working memory buffer. The stream
// map has its own lock; each stream serialises mutations of its entries.
type Store struct {
	mu      sync.RWMutex
	cfg     Config
	streams map[string]*Stream
	order   []string
	working *Working
}

func New(cfg Config) *Store {
	defaults := DefaultConfig()

	if cfg.DefaultStream == "" {
		cfg.DefaultStream = defaults.DefaultStream
	}

	if cfg.RetrievalLimit < 1 {
		cfg.RetrievalLimit = defaults.RetrievalLimit
	}

	if cfg.Clock == nil {
		cfg.Clock = func() time.Time { return time.Now().UTC() }
	}

	return &Store{
		cfg:     cfg,
		streams: map[string]*Stream{},
		working: NewWorking(cfg.WorkingCapacity),
	}
}

// DefaultStream is the id of the stream used when a caller names none.
func (store *Store) DefaultStream() string {
	return store.cfg.DefaultStream
}

// Working returns the working memory buffer.
func (store *Store) Working() *Working {
	return store.working
}

// Stream returns the stream with the given id, creating it if needed.
func (store *Store) Stream(id string) StreamInfo {
	return store.stream(id).info()
}

// CreateStream creates a stream, or updates the name, type and metadata of
// an existing one.
func (store *Store) CreateStream(id, name, kind string, metadata map[string]any) StreamInfo {
	stream := store.stream(id)

	stream.mu.Lock()
	if name != "" {
		stream.name = name
	}

	if kind != "" {
		stream.kind = kind
	}

	if metadata != nil {
		stream.metadata = maps.Clone(metadata)
	}
	stream.mu.Unlock()

	return stream.info()
}

// Streams lists every stream in creation order.
func (store *Store) Streams() []StreamInfo {
	store.mu.RLock()
	streams := make([]*Stream, 0, len(store.order))
	for _, id := range store.order {
		streams = append(streams, store.streams[id])
	}
	store.mu.RUnlock()

	out := make([]StreamInfo, 0, len(streams))
	for _, stream := range streams {
		out = append(out, stream.info())
	}

	return out
}

func (store *Store) stream(id string) *Stream {
	if id = strings.TrimSpace(id); id == "" {
		id = store.cfg.DefaultStream
	}

	store.mu.RLock()
	stream, ok := store.streams[id]
	store.mu.RUnlock()

	if ok {
		return stream
	}

	store.mu.Lock()
	defer store.mu.Unlock()

	if stream, ok = store.streams[id]; ok {
		return stream
	}

	stream = newStream(id, "", "", nil, store.cfg.Clock())
	store.streams[id] = stream
	store.order = append(store.order, id)

	log.Debug("memory stream created", "stream", id)
	return stream
}

func (store *Store) lookup(id string) (*Stream, error) {
	store.mu.RLock()
	defer store.mu.RUnlock()

	stream, ok := store.streams[id]
	if !ok {
		return nil, errors.ErrUnknownStream.WithMessagef("memory stream %s does not exist", id)
	}

	return stream, nil
}

// Add stores entry in the stream, replacing any entry with the same id. An
// empty id is generated, and salience and confidence are clamped to [0,1].
func (store *Store) Add(streamID string, entry Entry) (Entry, error) {
	if strings.TrimSpace(entry.Content) == "" {
		return Entry{}, errors.ErrInvalidQuery.WithMessagef("memory entry content is empty")
	}

	stream := store.stream(streamID)

	stream.mu.Lock()
	defer stream.mu.Unlock()

	return store.insert(stream, entry), nil
}

// insert stores a fresh copy of entry; callers hold the stream lock.
func (store *Store) insert(stream *Stream, entry Entry) Entry {
	now := store.cfg.Clock()

	stored := entry.copy()
	if stored.ID == "" {
		stored.ID = uuid.NewString()
	}

	stored.Salience = clamp(stored.Salience)
	stored.Confidence = clamp(stored.Confidence)
	stored.CreatedAt = now
	stored.LastAccess = now

	stream.put(&stored, now)
	return stored.copy()
}

// Observe records entry in the stream. When an entry with the same id is
// already present its confidence becomes old*0.7 + incoming*0.3, its
// salience the larger of the two, and content and metadata are refreshed.
// Otherwise the entry is added as new. An empty id is derived from the
// content with FactID.
func (store *Store) Observe(streamID string, entry Entry) (Entry, error) {
	if entry.ID == "" {
		entry.ID = FactID(entry.Content)
	}

	stream := store.stream(streamID)

	stream.mu.Lock()
	defer stream.mu.Unlock()

	existing, ok := stream.entries[entry.ID]

	if !ok {
		if strings.TrimSpace(entry.Content) == "" {
			return Entry{}, errors.ErrInvalidQuery.WithMessagef("memory entry content is empty")
		}

		return store.insert(stream, entry), nil
	}

	now := store.cfg.Clock()
	existing.Confidence = clamp(Blend(existing.Confidence, clamp(entry.Confidence)))
	existing.Salience = math.Max(existing.Salience, clamp(entry.Salience))

	if strings.TrimSpace(entry.Content) != "" {
		existing.Content = entry.Content
	}

	if entry.Type != "" {
		existing.Type = entry.Type
	}

	if entry.Source != "" {
		existing.Source = entry.Source
	}

	if existing.Metadata == nil && len(entry.Metadata) > 0 {
		existing.Metadata = map[string]any{}
	}

	for k, v := range entry.Metadata {
		existing.Metadata[k] = v
	}

	existing.AccessCount++
	existing.LastAccess = now
	stream.lastUpdated = now

	return existing.copy(), nil
}

// Get returns an entry and marks it as accessed.
func (store *Store) Get(streamID, entryID string) (Entry, error) {
	stream, err := store.lookup(streamID)
	if err != nil {
		return Entry{}, err
	}

	stream.mu.Lock()
	defer stream.mu.Unlock()

	entry, ok := stream.entries[entryID]
	if !ok {
		return Entry{}, errors.ErrUnknownEntry.WithMessagef("entry %s does not exist in stream %s", entryID, streamID)
	}

	entry.touch(store.cfg.Clock())
	return entry.copy(), nil
}

// Entries lists a stream's entries in insertion order without touching them.
func (store *Store) Entries(streamID string) ([]Entry, error) {
	stream, err := store.lookup(streamID)
	if err != nil {
		return nil, err
	}

	return stream.list(), nil
}

// RetrieveOptions narrows a Retrieve call. Empty Streams means all streams;
// a Limit below one falls back to the configured retrieval limit.
type RetrieveOptions struct {
	Streams  []string
	Limit    int
	MinScore float64
}

// Recall is an entry matched by Retrieve.
type Recall struct {
	StreamID string  `json:"stream_id"`
	Entry    Entry   `json:"entry"`
	Score    float64 `json:"score"`
}

// Retrieve scores entries by the fraction of query keywords they contain,
// weighted by salience: overlap * (0.5 + 0.5*salience). The best matches are
// returned highest score first, newest access first on ties, and each is
// marked as accessed.
func (store *Store) Retrieve(query string, opts RetrieveOptions) []Recall {
	keywords := utils.Keywords(query, 3)
	out := make([]Recall, 0)

	if len(keywords) == 0 {
		return out
	}

	ids := opts.Streams
	if len(ids) == 0 {
		store.mu.RLock()
		ids = append([]string(nil), store.order...)
		store.mu.RUnlock()
	}

	for _, id := range ids {
		stream, err := store.lookup(id)
		if err != nil {
			continue
		}

		for _, entry := range stream.list() {
			overlap := utils.Overlap(keywords, entry.Content)
			if overlap == 0 {
				continue
			}

			score := overlap * (0.5 + 0.5*entry.Salience)
			if score < opts.MinScore {
				continue
			}

			out = append(out, Recall{StreamID: id, Entry: entry, Score: score})
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}

		return out[i].Entry.LastAccess.After(out[j].Entry.LastAccess)
	})

	limit := opts.Limit
	if limit < 1 {
		limit = store.cfg.RetrievalLimit
	}

	if len(out) > limit {
		out = out[:limit]
	}

	for i, recall := range out {
		if entry, err := store.Get(recall.StreamID, recall.Entry.ID); err == nil {
			out[i].Entry = entry
		}
	}

	return out
}

// Decay lowers the salience of every entry by 0.5^(idle/halfLife), where
// idle is the time since the entry was last accessed or decayed. Salience
// never drops below floor through decay. It returns the number of entries
// that changed.
func (store *Store) Decay(now time.Time, halfLife time.Duration, floor float64) int {
	if halfLife <= 0 {
		return 0
	}

	store.mu.RLock()
	streams := make([]*Stream, 0, len(store.streams))
	for _, stream := range store.streams {
		streams = append(streams, stream)
	}
	store.mu.RUnlock()

	changed := 0

	for _, stream := range streams {
		stream.mu.Lock()

		for _, entry := range stream.entries {
			since := entry.LastAccess
			if entry.DecayedAt.After(since) {
				since = entry.DecayedAt
			}

			idle := now.Sub(since)
			if idle <= 0 || entry.Salience <= floor {
				continue
			}

			decayed := entry.Salience * math.Pow(0.5, float64(idle)/float64(halfLife))
			entry.Salience = math.Max(floor, decayed)
			entry.DecayedAt = now
			changed++
		}

		stream.mu.Unlock()
	}

	log.Debug("memory decayed", "entries", changed, "halfLife", halfLife)
	return changed
}

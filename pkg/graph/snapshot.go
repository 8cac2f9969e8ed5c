package graph

import (
	"context"
	"encoding/json"
	"io"
	"time"

	"github.com/charmbracelet/log"
	"github.com/theapemachine/ukg/pkg/catalog"
	"github.com/theapemachine/ukg/pkg/errors"
	"github.com/theapemachine/ukg/pkg/stores"
)

/*
Snapshot is the durable form of a graph.
*/
type Snapshot struct {
	Nodes         map[string]Node         `json:"nodes"`
	Relationships map[string]Relationship `json:"relationships"`
	Metadata      SnapshotMetadata        `json:"metadata"`
}

/*
SnapshotMetadata describes when and how much was exported.
*/
type SnapshotMetadata struct {
	ExportedAt        time.Time `json:"exportedAt"`
	NodeCount         int       `json:"nodeCount"`
	RelationshipCount int       `json:"relationshipCount"`
}

/*
Export copies every node and relationship into a snapshot.
*/
func (store *Store) Export() Snapshot {
	store.mu.RLock()
	defer store.mu.RUnlock()

	snapshot := Snapshot{
		Nodes:         make(map[string]Node, len(store.nodes)),
		Relationships: make(map[string]Relationship, len(store.rels)),
		Metadata: SnapshotMetadata{
			ExportedAt:        time.Now().UTC(),
			NodeCount:         len(store.nodes),
			RelationshipCount: len(store.rels),
		},
	}

	for id, node := range store.nodes {
		snapshot.Nodes[id] = node.copy()
	}

	for id, rel := range store.rels {
		snapshot.Relationships[id] = rel.copy()
	}

	return snapshot
}

/*
Load replaces the contents of the store with snapshot and rebuilds every
index. The snapshot is validated in full before anything is replaced, so a
bad snapshot leaves the store untouched.
*/
func (store *Store) Load(snapshot Snapshot) error {
	nodes := make(map[string]*Node, len(snapshot.Nodes))
	rels := make(map[string]*Relationship, len(snapshot.Relationships))
	var last time.Time

	for id, node := range snapshot.Nodes {
		if node.ID != id {
			return errors.ErrSnapshot.WithMessagef("node key %s does not match id %s", id, node.ID)
		}

		if !catalog.ValidAxis(node.Axis) {
			return errors.ErrInvalidAxis.WithMessagef("node %s is on axis %d", id, node.Axis)
		}

		if node.Level < 1 {
			return errors.ErrInvalidLevel.WithMessagef("node %s has level %d", id, node.Level)
		}

		n := node.copy()
		nodes[id] = &n

		if n.CreatedAt.After(last) {
			last = n.CreatedAt
		}
	}

	for id, rel := range snapshot.Relationships {
		if rel.ID != id {
			return errors.ErrSnapshot.WithMessagef("relationship key %s does not match id %s", id, rel.ID)
		}

		if _, ok := nodes[rel.SourceID]; !ok {
			return errors.ErrUnknownNode.WithMessagef("relationship %s starts at unknown node %s", id, rel.SourceID)
		}

		if _, ok := nodes[rel.TargetID]; !ok {
			return errors.ErrUnknownNode.WithMessagef("relationship %s ends at unknown node %s", id, rel.TargetID)
		}

		if rel.Weight < 0 || rel.Weight > 1 {
			return errors.ErrInvalidWeight.WithMessagef("relationship %s has weight %v", id, rel.Weight)
		}

		r := rel.copy()
		rels[id] = &r

		if r.CreatedAt.After(last) {
			last = r.CreatedAt
		}
	}

	index := rebuild(nodes, rels)

	store.mu.Lock()
	store.nodes = nodes
	store.rels = rels
	store.index = index
	store.last = last
	store.mu.Unlock()

	log.Info("graph loaded", "nodes", len(nodes), "relationships", len(rels))
	return nil
}

/*
WriteTo encodes a snapshot of the store as JSON.
*/
func (store *Store) WriteTo(w io.Writer) (int64, error) {
	data, err := json.MarshalIndent(store.Export(), "", "  ")
	if err != nil {
		return 0, errors.ErrSnapshot.WithMessagef("failed to encode graph").Wrap(err)
	}

	n, err := w.Write(data)
	return int64(n), err
}

/*
ReadFrom decodes a JSON snapshot and loads it.
*/
func (store *Store) ReadFrom(r io.Reader) (int64, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return int64(len(data)), err
	}

	var snapshot Snapshot

	if err := json.Unmarshal(data, &snapshot); err != nil {
		return int64(len(data)), errors.ErrSnapshot.WithMessagef("failed to decode graph").Wrap(err)
	}

	return int64(len(data)), store.Load(snapshot)
}

/*
Save writes a snapshot to a snapshot store under key.
*/
func (store *Store) Save(ctx context.Context, backend stores.SnapshotStore, key string) error {
	data, err := json.Marshal(store.Export())
	if err != nil {
		return errors.ErrSnapshot.WithMessagef("failed to encode graph").Wrap(err)
	}

	if err := backend.Put(ctx, key, data); err != nil {
		return err
	}

	log.Info("graph saved", "key", key, "nodes", store.Len())
	return nil
}

/*
Restore loads the snapshot stored under key. It returns an error matching
errors.ErrNotFound when no snapshot exists yet.
*/
func (store *Store) Restore(ctx context.Context, backend stores.SnapshotStore, key string) error {
	data, err := backend.Get(ctx, key)
	if err != nil {
		return err
	}

	var snapshot Snapshot

	if err := json.Unmarshal(data, &snapshot); err != nil {
		return errors.ErrSnapshot.WithMessagef("failed to decode graph %s", key).Wrap(err)
	}

	return store.Load(snapshot)
}

package graph

import (
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/theapemachine/ukg/pkg/catalog"
	"github.com/theapemachine/ukg/pkg/errors"
)

/*
AxisNamer resolves an axis number to its display name.
*/
type AxisNamer interface {
	AxisName(n int) string
}

/*
Store is the in-memory knowledge graph. All maps and indexes are private;
every mutation is validated up front and applied in full or not at all.
*/
type Store struct {
	mu    sync.RWMutex
	axes  AxisNamer
	nodes map[string]*Node
	rels  map[string]*Relationship
	index *indexes
	last  time.Time
}

/*
New returns an empty store. axes may be nil, in which case hits carry no axis
name.
*/
func New(axes AxisNamer) *Store {
	return &Store{
		axes:  axes,
		nodes: map[string]*Node{},
		rels:  map[string]*Relationship{},
		index: newIndexes(),
	}
}

/*
AddNode creates a node and returns its id.
*/
func (store *Store) AddNode(axis, level int, label, description string, attrs map[string]any) (string, error) {
	if !catalog.ValidAxis(axis) {
		return "", errors.ErrInvalidAxis.WithMessagef("axis %d is outside [1,%d]", axis, catalog.AxisCount)
	}

	if level < 1 {
		return "", errors.ErrInvalidLevel.WithMessagef("level %d is not a positive integer", level)
	}

	store.mu.Lock()
	defer store.mu.Unlock()

	node := &Node{
		ID:          uuid.NewString(),
		Axis:        axis,
		Level:       level,
		Label:       label,
		Description: description,
		Attributes:  copyAttributes(attrs),
		CreatedAt:   store.stamp(),
	}

	store.nodes[node.ID] = node
	store.index.addNode(node)

	return node.ID, nil
}

/*
AddRelationship connects two existing nodes and returns the relationship id.
*/
func (store *Store) AddRelationship(sourceID, targetID, relType string, weight float64, attrs map[string]any) (string, error) {
	if math.IsNaN(weight) || weight < 0 || weight > 1 {
		return "", errors.ErrInvalidWeight.WithMessagef("weight %v is outside [0,1]", weight)
	}

	if relType = strings.TrimSpace(relType); relType == "" {
		relType = DefaultRelationshipType
	}

	store.mu.Lock()
	defer store.mu.Unlock()

	for _, id := range []string{sourceID, targetID} {
		if _, ok := store.nodes[id]; !ok {
			return "", errors.ErrUnknownNode.WithMessagef("node %s does not exist", id)
		}
	}

	rel := &Relationship{
		ID:         uuid.NewString(),
		SourceID:   sourceID,
		TargetID:   targetID,
		Type:       relType,
		Weight:     weight,
		Attributes: copyAttributes(attrs),
		CreatedAt:  store.stamp(),
	}

	store.rels[rel.ID] = rel
	store.index.addRelationship(rel)

	return rel.ID, nil
}

/*
Node returns the node with the given id.
*/
func (store *Store) Node(id string) (Node, error) {
	store.mu.RLock()
	defer store.mu.RUnlock()

	node, ok := store.nodes[id]
	if !ok {
		return Node{}, errors.ErrUnknownNode.WithMessagef("node %s does not exist", id)
	}

	return node.copy(), nil
}

/*
HasNode reports whether id exists.
*/
func (store *Store) HasNode(id string) bool {
	store.mu.RLock()
	defer store.mu.RUnlock()

	_, ok := store.nodes[id]
	return ok
}

/*
Relationship returns the relationship with the given id.
*/
func (store *Store) Relationship(id string) (Relationship, error) {
	store.mu.RLock()
	defer store.mu.RUnlock()

	rel, ok := store.rels[id]
	if !ok {
		return Relationship{}, errors.ErrNotFound.WithMessagef("relationship %s does not exist", id)
	}

	return rel.copy(), nil
}

/*
Nodes returns every node in insertion order.
*/
func (store *Store) Nodes() []Node {
	store.mu.RLock()
	defer store.mu.RUnlock()

	return store.nodeList(store.index.order)
}

/*
Relationships returns every relationship in insertion order.
*/
func (store *Store) Relationships() []Relationship {
	store.mu.RLock()
	defer store.mu.RUnlock()

	return store.relList(store.index.relOrder)
}

/*
Len returns the number of nodes.
*/
func (store *Store) Len() int {
	store.mu.RLock()
	defer store.mu.RUnlock()

	return len(store.nodes)
}

/*
Stats counts nodes per axis and relationships per type.
*/
func (store *Store) Stats() Stats {
	store.mu.RLock()
	defer store.mu.RUnlock()

	stats := Stats{
		Nodes:         len(store.nodes),
		Relationships: len(store.rels),
		ByAxis:        map[int]int{},
		ByType:        map[string]int{},
	}

	for axis, ids := range store.index.byAxis {
		stats.ByAxis[axis] = len(ids)
	}

	for relType, ids := range store.index.byType {
		stats.ByType[relType] = len(ids)
	}

	return stats
}

/*
NodesByAxis returns the nodes on axis in insertion order.
*/
func (store *Store) NodesByAxis(axis int) []Node {
	store.mu.RLock()
	defer store.mu.RUnlock()

	return store.nodeList(store.index.byAxis[axis])
}

/*
NodesByAxisAndLevel returns the nodes on axis at level in insertion order.
*/
func (store *Store) NodesByAxisAndLevel(axis, level int) []Node {
	store.mu.RLock()
	defer store.mu.RUnlock()

	return store.nodeList(store.index.byAxisLevel[axisLevel{axis, level}])
}

/*
NodesByLabel returns the nodes whose label equals label, ignoring case.
*/
func (store *Store) NodesByLabel(label string) []Node {
	store.mu.RLock()
	defer store.mu.RUnlock()

	return store.nodeList(store.index.byLabel[strings.ToLower(strings.TrimSpace(label))])
}

/*
OutgoingOf returns the relationships leaving nodeID, optionally restricted to
the given types.
*/
func (store *Store) OutgoingOf(nodeID string, types ...string) []Relationship {
	store.mu.RLock()
	defer store.mu.RUnlock()

	return filterTypes(store.relList(store.index.outgoing[nodeID]), types)
}

/*
IncomingOf returns the relationships arriving at nodeID, optionally
restricted to the given types.
*/
func (store *Store) IncomingOf(nodeID string, types ...string) []Relationship {
	store.mu.RLock()
	defer store.mu.RUnlock()

	return filterTypes(store.relList(store.index.incoming[nodeID]), types)
}

/*
stamp returns a creation time strictly after every earlier one, so ordering
by creation time reproduces insertion order.
*/
func (store *Store) stamp() time.Time {
	now := time.Now().UTC()

	if !now.After(store.last) {
		now = store.last.Add(time.Nanosecond)
	}

	store.last = now
	return now
}

func (store *Store) nodeList(ids []string) []Node {
	out := make([]Node, 0, len(ids))

	for _, id := range ids {
		out = append(out, store.nodes[id].copy())
	}

	return out
}

func (store *Store) relList(ids []string) []Relationship {
	out := make([]Relationship, 0, len(ids))

	for _, id := range ids {
		out = append(out, store.rels[id].copy())
	}

	return out
}

func (store *Store) axisName(axis int) string {
	if store.axes == nil {
		return ""
	}

	return store.axes.AxisName(axis)
}

func filterTypes(rels []Relationship, types []string) []Relationship {
	if len(types) == 0 {
		return rels
	}

	out := rels[:0]

	for _, rel := range rels {
		for _, t := range types {
			if rel.Type == t {
				out = append(out, rel)
				break
			}
		}
	}

	return out
}

type axisLevel struct {
	axis  int
	level int
}

type indexes struct {
	order       []string
	relOrder    []string
	byAxis      map[int][]string
	byAxisLevel map[axisLevel][]string
	byLabel     map[string][]string
	byType      map[string][]string
	outgoing    map[string][]string
	incoming    map[string][]string
}

func newIndexes() *indexes {
	return &indexes{
		byAxis:      map[int][]string{},
		byAxisLevel: map[axisLevel][]string{},
		byLabel:     map[string][]string{},
		byType:      map[string][]string{},
		outgoing:    map[string][]string{},
		incoming:    map[string][]string{},
	}
}

func (idx *indexes) addNode(node *Node) {
	idx.order = append(idx.order, node.ID)
	idx.byAxis[node.Axis] = append(idx.byAxis[node.Axis], node.ID)

	key := axisLevel{node.Axis, node.Level}
	idx.byAxisLevel[key] = append(idx.byAxisLevel[key], node.ID)

	label := strings.ToLower(strings.TrimSpace(node.Label))
	idx.byLabel[label] = append(idx.byLabel[label], node.ID)
}

func (idx *indexes) addRelationship(rel *Relationship) {
	idx.relOrder = append(idx.relOrder, rel.ID)
	idx.byType[rel.Type] = append(idx.byType[rel.Type], rel.ID)
	idx.outgoing[rel.SourceID] = append(idx.outgoing[rel.SourceID], rel.ID)
	idx.incoming[rel.TargetID] = append(idx.incoming[rel.TargetID], rel.ID)
}

/*
rebuild indexes nodes and relationships ordered by creation time, with the id
breaking ties, so a loaded snapshot answers index queries deterministically.
*/
func rebuild(nodes map[string]*Node, rels map[string]*Relationship) *indexes {
	idx := newIndexes()

	nodeList := make([]*Node, 0, len(nodes))
	for _, node := range nodes {
		nodeList = append(nodeList, node)
	}

	sort.Slice(nodeList, func(i, j int) bool {
		if !nodeList[i].CreatedAt.Equal(nodeList[j].CreatedAt) {
			return nodeList[i].CreatedAt.Before(nodeList[j].CreatedAt)
		}

		return nodeList[i].ID < nodeList[j].ID
	})

	for _, node := range nodeList {
		idx.addNode(node)
	}

	relList := make([]*Relationship, 0, len(rels))
	for _, rel := range rels {
		relList = append(relList, rel)
	}

	sort.Slice(relList, func(i, j int) bool {
		if !relList[i].CreatedAt.Equal(relList[j].CreatedAt) {
			return relList[i].CreatedAt.Before(relList[j].CreatedAt)
		}

		return relList[i].ID < relList[j].ID
	})

	for _, rel := range relList {
		idx.addRelationship(rel)
	}

	log.Debug("graph indexes rebuilt", "nodes", len(idx.order), "relationships", len(idx.relOrder))
	return idx
}

package graph

import (
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/theapemachine/ukg/pkg/catalog"
)

// Attribute keys written by Seed.
const (
	AttrKind    = "kind"
	AttrCode    = "code"
	AttrSeedKey = "seed_key"
)

/*
Seed populates the store from the catalog: one level-1 node per axis, an
"influences" relationship for every edge of the axis graph weighted by its
relevance, and the catalog seed nodes and relationships. It returns the ids
of the seed nodes keyed by their catalog key.
*/
func Seed(store *Store, registry *catalog.Registry) (map[string]string, error) {
	axisNodes := make(map[int]string, catalog.AxisCount)

	for _, axis := range registry.Axes() {
		id, err := store.AddNode(axis.Number, 1, axis.Name, axis.Description, map[string]any{
			AttrKind: "axis",
			AttrCode: axis.Code,
		})

		if err != nil {
			return nil, fmt.Errorf("failed to seed axis %d: %w", axis.Number, err)
		}

		axisNodes[axis.Number] = id
	}

	graph := registry.AxisGraph()

	for _, edge := range graph.Edges() {
		if _, err := store.AddRelationship(
			axisNodes[edge[0]], axisNodes[edge[1]], "influences", graph.Relevance(edge[0], edge[1]), nil,
		); err != nil {
			return nil, fmt.Errorf("failed to seed axis edge %v: %w", edge, err)
		}
	}

	seed := registry.Seed()
	keys := make(map[string]string, len(seed.Nodes))

	for _, node := range seed.Nodes {
		attrs := map[string]any{AttrKind: "seed", AttrSeedKey: node.Key}
		for k, v := range node.Attributes {
			attrs[k] = v
		}

		id, err := store.AddNode(node.Axis, node.Level, node.Label, node.Description, attrs)
		if err != nil {
			return nil, fmt.Errorf("failed to seed node %s: %w", node.Key, err)
		}

		keys[node.Key] = id
	}

	for _, rel := range seed.Relationships {
		weight := rel.Weight
		if weight == 0 {
			weight = DefaultWeight
		}

		if _, err := store.AddRelationship(keys[rel.Source], keys[rel.Target], rel.Type, weight, nil); err != nil {
			return nil, fmt.Errorf("failed to seed relationship %s -> %s: %w", rel.Source, rel.Target, err)
		}
	}

	stats := store.Stats()
	log.Info("graph seeded", "nodes", stats.Nodes, "relationships", stats.Relationships)

	return keys, nil
}

package graph

import (
	"sort"

	"github.com/theapemachine/ukg/pkg/errors"
)

/*
Neighbors returns the distinct nodes at the other end of the relationships of
nodeID in the given direction.
*/
func (store *Store) Neighbors(nodeID string, direction Direction) ([]Node, error) {
	store.mu.RLock()
	defer store.mu.RUnlock()

	if _, ok := store.nodes[nodeID]; !ok {
		return nil, errors.ErrUnknownNode.WithMessagef("node %s does not exist", nodeID)
	}

	ids := store.adjacent(nodeID, direction)
	return store.nodeList(ids), nil
}

/*
adjacent lists neighbour ids in relationship order, without duplicates.
Callers must hold the read lock.
*/
func (store *Store) adjacent(nodeID string, direction Direction) []string {
	seen := map[string]bool{}
	out := make([]string, 0)

	add := func(id string) {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}

	if direction == Both || direction == Outgoing {
		for _, relID := range store.index.outgoing[nodeID] {
			add(store.rels[relID].TargetID)
		}
	}

	if direction == Both || direction == Incoming {
		for _, relID := range store.index.incoming[nodeID] {
			add(store.rels[relID].SourceID)
		}
	}

	return out
}

/*
Neighborhood expands breadth first from nodeID for up to depth hops in both
directions. It returns the visited nodes, origin first, and every
relationship whose endpoints were both visited. Depth zero yields the origin
alone.
*/
func (store *Store) Neighborhood(nodeID string, depth int) (Subgraph, error) {
	store.mu.RLock()
	defer store.mu.RUnlock()

	if _, ok := store.nodes[nodeID]; !ok {
		return Subgraph{}, errors.ErrUnknownNode.WithMessagef("node %s does not exist", nodeID)
	}

	visited := map[string]bool{nodeID: true}
	order := []string{nodeID}
	frontier := []string{nodeID}

	for hop := 0; hop < depth && len(frontier) > 0; hop++ {
		next := make([]string, 0)

		for _, id := range frontier {
			for _, neighbor := range store.adjacent(id, Both) {
				if visited[neighbor] {
					continue
				}

				visited[neighbor] = true
				order = append(order, neighbor)
				next = append(next, neighbor)
			}
		}

		frontier = next
	}

	relIDs := make([]string, 0)

	if len(order) > 1 {
		for _, relID := range store.index.relOrder {
			rel := store.rels[relID]

			if visited[rel.SourceID] && visited[rel.TargetID] {
				relIDs = append(relIDs, relID)
			}
		}
	}

	return Subgraph{
		Nodes:         store.nodeList(order),
		Relationships: store.relList(relIDs),
	}, nil
}

/*
FindPaths enumerates every simple chain of outgoing relationships from
sourceID to targetID with at most maxDepth hops. Paths are ordered by hop
count; paths of equal length keep discovery order.
*/
func (store *Store) FindPaths(sourceID, targetID string, maxDepth int) ([]Path, error) {
	store.mu.RLock()
	defer store.mu.RUnlock()

	for _, id := range []string{sourceID, targetID} {
		if _, ok := store.nodes[id]; !ok {
			return nil, errors.ErrUnknownNode.WithMessagef("node %s does not exist", id)
		}
	}

	paths := make([]Path, 0)

	if maxDepth < 1 || sourceID == targetID {
		return paths, nil
	}

	onPath := map[string]bool{sourceID: true}
	chain := make([]string, 0, maxDepth)

	var walk func(current string)

	walk = func(current string) {
		if len(chain) >= maxDepth {
			return
		}

		for _, relID := range store.index.outgoing[current] {
			rel := store.rels[relID]

			if onPath[rel.TargetID] {
				continue
			}

			chain = append(chain, relID)

			if rel.TargetID == targetID {
				paths = append(paths, Path(store.relList(chain)))
			} else {
				onPath[rel.TargetID] = true
				walk(rel.TargetID)
				delete(onPath, rel.TargetID)
			}

			chain = chain[:len(chain)-1]
		}
	}

	walk(sourceID)

	sort.SliceStable(paths, func(i, j int) bool {
		return len(paths[i]) < len(paths[j])
	})

	return paths, nil
}

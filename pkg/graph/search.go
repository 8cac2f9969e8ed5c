package graph

import (
	"strings"

	"github.com/theapemachine/ukg/pkg/utils"
)

// minTermLength is the shortest query word SearchTerms looks up on its own.
const minTermLength = 4

/*
Search returns the nodes whose label or description contains text, ignoring
case. When axes are given only nodes on those axes are considered. Hits come
back in insertion order.
*/
func (store *Store) Search(text string, axes ...int) []Hit {
	needle := strings.ToLower(strings.TrimSpace(text))

	if needle == "" {
		return []Hit{}
	}

	allowed := map[int]bool{}
	for _, axis := range axes {
		allowed[axis] = true
	}

	store.mu.RLock()
	defer store.mu.RUnlock()

	hits := make([]Hit, 0)

	for _, id := range store.index.order {
		node := store.nodes[id]

		if len(allowed) > 0 && !allowed[node.Axis] {
			continue
		}

		if strings.Contains(strings.ToLower(node.Label), needle) ||
			strings.Contains(strings.ToLower(node.Description), needle) {
			hits = append(hits, Hit{Node: node.copy(), AxisName: store.axisName(node.Axis)})
		}
	}

	return hits
}

/*
SearchTerms searches for the whole text first and then for each significant
word in it, returning distinct hits in discovery order. A limit of zero or
less means no limit.
*/
func (store *Store) SearchTerms(text string, limit int, axes ...int) []Hit {
	seen := map[string]bool{}
	out := make([]Hit, 0)

	queries := append([]string{text}, utils.Keywords(text, minTermLength)...)

	for _, query := range queries {
		for _, hit := range store.Search(query, axes...) {
			if seen[hit.Node.ID] {
				continue
			}

			seen[hit.Node.ID] = true
			out = append(out, hit)

			if limit > 0 && len(out) >= limit {
				return out
			}
		}
	}

	return out
}

package catalog

import "sort"

// Relevance weights returned by AxisGraph.Relevance.
const (
	RelevanceSame     = 1.0
	RelevanceDirect   = 0.8
	RelevanceReverse  = 0.5
	RelevanceDistance = 0.2
)

/*
AxisGraph is the immutable directed graph of axis-to-axis influence.
*/
type AxisGraph struct {
	out map[int]map[int]bool
	in  map[int]map[int]bool
}

/*
NewAxisGraph builds the influence graph. Axis 1 always influences every other
axis and the persona axes 8 to 11 always form a cycle; extra holds any
additional edges.
*/
func NewAxisGraph(extra [][]int) *AxisGraph {
	graph := &AxisGraph{
		out: make(map[int]map[int]bool, AxisCount),
		in:  make(map[int]map[int]bool, AxisCount),
	}

	for axis := 2; axis <= AxisCount; axis++ {
		graph.add(1, axis)
	}

	graph.add(8, 9)
	graph.add(9, 10)
	graph.add(10, 11)
	graph.add(11, 8)

	for _, edge := range extra {
		if len(edge) == 2 {
			graph.add(edge[0], edge[1])
		}
	}

	return graph
}

func (graph *AxisGraph) add(from, to int) {
	if !ValidAxis(from) || !ValidAxis(to) || from == to {
		return
	}

	if graph.out[from] == nil {
		graph.out[from] = map[int]bool{}
	}

	if graph.in[to] == nil {
		graph.in[to] = map[int]bool{}
	}

	graph.out[from][to] = true
	graph.in[to][from] = true
}

/*
Influences returns the axes directly influenced by axis, ascending.
*/
func (graph *AxisGraph) Influences(axis int) []int {
	return sortedSet(graph.out[axis])
}

/*
InfluencedBy returns the axes that directly influence axis, ascending.
*/
func (graph *AxisGraph) InfluencedBy(axis int) []int {
	return sortedSet(graph.in[axis])
}

/*
Relevance scores how much axis b matters from the point of view of axis a.
*/
func (graph *AxisGraph) Relevance(a, b int) float64 {
	switch {
	case a == b:
		return RelevanceSame
	case graph.out[a][b]:
		return RelevanceDirect
	case graph.out[b][a]:
		return RelevanceReverse
	default:
		return RelevanceDistance
	}
}

/*
Edges returns every edge as a [from, to] pair, ordered by from then to.
*/
func (graph *AxisGraph) Edges() [][2]int {
	edges := make([][2]int, 0)

	for from := 1; from <= AxisCount; from++ {
		for _, to := range graph.Influences(from) {
			edges = append(edges, [2]int{from, to})
		}
	}

	return edges
}

func sortedSet(set map[int]bool) []int {
	out := make([]int, 0, len(set))

	for n := range set {
		out = append(out, n)
	}

	sort.Ints(out)
	return out
}

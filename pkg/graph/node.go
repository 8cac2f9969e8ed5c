package graph

import "time"

// DefaultWeight is the weight of a relationship whose caller has no opinion.
const DefaultWeight = 1.0

// DefaultRelationshipType is used when a relationship is added without a type.
const DefaultRelationshipType = "related_to"

/*
Node is a point in the knowledge graph, classified by axis and level.
*/
type Node struct {
	ID          string         `json:"id"`
	Axis        int            `json:"axis"`
	Level       int            `json:"level"`
	Label       string         `json:"label"`
	Description string         `json:"description"`
	Attributes  map[string]any `json:"attributes"`
	CreatedAt   time.Time      `json:"created_at"`
}

/*
Relationship is a directed, weighted edge between two nodes.
*/
type Relationship struct {
	ID         string         `json:"id"`
	SourceID   string         `json:"source_id"`
	TargetID   string         `json:"target_id"`
	Type       string         `json:"type"`
	Weight     float64        `json:"weight"`
	Attributes map[string]any `json:"attributes"`
	CreatedAt  time.Time      `json:"created_at"`
}

/*
Hit is a search match tagged with the name of its axis.
*/
type Hit struct {
	Node     Node   `json:"node"`
	AxisName string `json:"axis_name"`
}

/*
Direction selects which relationships Neighbors follows.
*/
type Direction string

const (
	Both     Direction = "both"
	Outgoing Direction = "out"
	Incoming Direction = "in"
)

/*
Subgraph is a set of nodes and the relationships among them.
*/
type Subgraph struct {
	Nodes         []Node         `json:"nodes"`
	Relationships []Relationship `json:"relationships"`
}

/*
Path is an ordered chain of relationships, each starting where the previous
one ended.
*/
type Path []Relationship

/*
Hops returns the number of relationships in the path.
*/
func (path Path) Hops() int {
	return len(path)
}

/*
Stats summarises the contents of a store.
*/
type Stats struct {
	Nodes         int            `json:"nodes"`
	Relationships int            `json:"relationships"`
	ByAxis        map[int]int    `json:"by_axis"`
	ByType        map[string]int `json:"by_type"`
}

func (node *Node) copy() Node {
	out := *node
	out.Attributes = copyAttributes(node.Attributes)
	return out
}

func (rel *Relationship) copy() Relationship {
	out := *rel
	out.Attributes = copyAttributes(rel.Attributes)
	return out
}

func copyAttributes(attrs map[string]any) map[string]any {
	out := make(map[string]any, len(attrs))

	for k, v := range attrs {
		out[k] = v
	}

	return out
}

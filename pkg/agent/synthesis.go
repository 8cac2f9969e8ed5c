package agent

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/theapemachine/ukg/pkg/catalog"
	"github.com/theapemachine/ukg/pkg/graph"
)

// Confidence model of the synthesis agent.
const (
	SynthesisAxisBonus = 0.02
	SynthesisCeiling   = 0.99
	maxConnections     = 5
)

/*
CrossDomainSynthesis widens the Layer-2 answer across every axis its graph
hits touch, following each hit's neighbourhood.
*/
type CrossDomainSynthesis struct {
	graph    *graph.Store
	registry *catalog.Registry
}

func NewCrossDomainSynthesis(store *graph.Store, registry *catalog.Registry) *CrossDomainSynthesis {
	return &CrossDomainSynthesis{graph: store, registry: registry}
}

func (agent *CrossDomainSynthesis) ID() string {
	return CrossDomainSynthesisID
}

func (agent *CrossDomainSynthesis) Name() string {
	return "Cross-Domain Synthesis Agent"
}

/*
Run collects the axes reached from the graph hits within in.Depth hops and
reports confidence min(0.99, layer2 + 0.02 * distinct axes).
*/
func (agent *CrossDomainSynthesis) Run(ctx context.Context, in Input) (Result, error) {
	axes := map[int]bool{}
	connections := make([]string, 0)
	seen := map[string]bool{}

	for _, hit := range in.State.GraphHits {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}

		axes[hit.Axis] = true

		sub, err := agent.graph.Neighborhood(hit.NodeID, in.Depth)
		if err != nil {
			continue
		}

		labels := make(map[string]string, len(sub.Nodes))
		for _, node := range sub.Nodes {
			axes[node.Axis] = true
			labels[node.ID] = node.Label
		}

		for _, rel := range sub.Relationships {
			if seen[rel.ID] || rel.Type == "influences" {
				continue
			}

			seen[rel.ID] = true
			connections = append(connections, fmt.Sprintf("%s %s %s", labels[rel.SourceID], strings.ReplaceAll(rel.Type, "_", " "), labels[rel.TargetID]))
		}
	}

	numbers := make([]int, 0, len(axes))
	for n := range axes {
		numbers = append(numbers, n)
	}

	sort.Ints(numbers)

	names := make([]string, 0, len(numbers))
	for _, n := range numbers {
		names = append(names, agent.registry.AxisName(n))
	}

	var sb strings.Builder

	if len(names) == 0 {
		sb.WriteString("No graph knowledge was available to connect across domains; the simulated answer stands on its own.")
	} else {
		fmt.Fprintf(&sb, "The answer spans %d axes of the knowledge graph: %s.", len(names), strings.Join(names, ", "))
	}

	if len(connections) > maxConnections {
		connections = connections[:maxConnections]
	}

	for _, connection := range connections {
		sb.WriteString("\n- " + connection)
	}

	return Result{
		AgentID:    agent.ID(),
		Name:       agent.Name(),
		Response:   sb.String(),
		Confidence: math.Min(SynthesisCeiling, in.Layer2.Confidence+SynthesisAxisBonus*float64(len(numbers))),
		Details:    map[string]any{"axes": numbers, "connections": len(seen)},
	}, nil
}

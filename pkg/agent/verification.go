package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/theapemachine/ukg/pkg/graph"
	"github.com/theapemachine/ukg/pkg/utils"
)

// Confidence model of the verification agent.
const (
	VerificationBase  = 0.85
	VerificationRange = 0.14
)

/*
FactVerification checks that every graph reference of the Layer-2 answer
still resolves and that every persona recommendation is grounded in the
query or in the referenced knowledge.
*/
type FactVerification struct {
	graph *graph.Store
}

func NewFactVerification(store *graph.Store) *FactVerification {
	return &FactVerification{graph: store}
}

func (agent *FactVerification) ID() string {
	return FactVerificationID
}

func (agent *FactVerification) Name() string {
	return "Fact Verification Agent"
}

/*
Run reports confidence 0.85 + 0.14 * the fraction of checks that passed.
*/
func (agent *FactVerification) Run(ctx context.Context, in Input) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	state := in.State
	resolved, unresolved := 0, make([]string, 0)
	grounding := utils.Keywords(state.Text, 4)

	for _, hit := range state.GraphHits {
		if agent.graph.HasNode(hit.NodeID) {
			resolved++
			grounding = append(grounding, utils.Keywords(hit.Label+" "+hit.Description, 4)...)
			continue
		}

		unresolved = append(unresolved, hit.Label)
	}

	grounded, total := 0, 0
	ungrounded := make([]string, 0)

	for _, result := range state.PresentResults() {
		for _, rec := range result.Recommendations {
			total++

			if len(utils.Matches(grounding, rec)) > 0 {
				grounded++
				continue
			}

			ungrounded = append(ungrounded, rec)
		}
	}

	checks := len(state.GraphHits) + total
	ratio := 0.0

	if checks > 0 {
		ratio = float64(resolved+grounded) / float64(checks)
	}

	var sb strings.Builder

	if state.RequireVerification() {
		fmt.Fprintf(&sb, "Verification was required. %d of %d graph references resolved and %d of %d recommendations are grounded in the query or the graph.",
			resolved, len(state.GraphHits), grounded, total)

		for _, label := range unresolved {
			sb.WriteString("\n- Unresolved reference: " + label)
		}

		for _, rec := range ungrounded {
			sb.WriteString("\n- Ungrounded recommendation: " + rec)
		}
	} else {
		fmt.Fprintf(&sb, "Verified %d of %d graph references and %d of %d recommendations.", resolved, len(state.GraphHits), grounded, total)
	}

	return Result{
		AgentID:    agent.ID(),
		Name:       agent.Name(),
		Response:   sb.String(),
		Confidence: VerificationBase + VerificationRange*ratio,
		Details:    map[string]any{"ratio": ratio, "checks": checks},
	}, nil
}

var _ Agent = (*FactVerification)(nil)
var _ Agent = (*CrossDomainSynthesis)(nil)

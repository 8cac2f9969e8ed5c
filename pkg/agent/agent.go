package agent

import (
	"context"

	"github.com/theapemachine/ukg/pkg/types"
)

// Ids of the built-in agents.
const (
	CrossDomainSynthesisID = "cross_domain_synthesis"
	FactVerificationID     = "fact_verification"
)

/*
Input is the finalised Layer-2 context handed to every agent. Agents read it
and must not modify the state.
*/
type Input struct {
	State  *types.QueryState
	Layer2 types.LayerResult
	Depth  int
}

/*
Result is what one agent contributes.
*/
type Result struct {
	AgentID    string         `json:"agent_id"`
	Name       string         `json:"name"`
	Response   string         `json:"response"`
	Confidence float64        `json:"confidence"`
	Details    map[string]any `json:"details,omitempty"`
}

/*
Agent is a named Layer-3 escalation handler.
*/
type Agent interface {
	ID() string
	Name() string
	Run(ctx context.Context, in Input) (Result, error)
}

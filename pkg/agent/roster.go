package agent

import (
	"context"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/theapemachine/ukg/pkg/errors"
	"golang.org/x/sync/errgroup"
)

/*
Aggregate is the combined outcome of an agent fan-out.
*/
type Aggregate struct {
	Results    []Result `json:"results"`
	Response   string   `json:"response"`
	Confidence float64  `json:"confidence"`
}

/*
AgentIDs lists the ids of the results in order.
*/
func (aggregate Aggregate) AgentIDs() []string {
	out := make([]string, 0, len(aggregate.Results))
	for _, result := range aggregate.Results {
		out = append(out, result.AgentID)
	}

	return out
}

/*
Roster maps agent ids to agents.
*/
type Roster struct {
	agents map[string]Agent
	order  []string
}

func NewRoster(agents ...Agent) *Roster {
	roster := &Roster{agents: make(map[string]Agent, len(agents))}

	for _, agent := range agents {
		if _, ok := roster.agents[agent.ID()]; !ok {
			roster.order = append(roster.order, agent.ID())
		}

		roster.agents[agent.ID()] = agent
	}

	return roster
}

/*
Get returns the agent registered under id.
*/
func (roster *Roster) Get(id string) (Agent, error) {
	agent, ok := roster.agents[id]
	if !ok {
		return nil, errors.ErrAlgorithmNotFound.WithMessagef("agent %s is not registered", id)
	}

	return agent, nil
}

/*
IDs lists the registered agents in registration order.
*/
func (roster *Roster) IDs() []string {
	return append([]string(nil), roster.order...)
}

/*
Run resolves every id before starting any agent, then runs them
concurrently. Results keep the requested order; the response joins them
under per-agent headings and the confidence is their mean.
*/
func (roster *Roster) Run(ctx context.Context, ids []string, in Input) (Aggregate, error) {
	agents := make([]Agent, 0, len(ids))

	for _, id := range ids {
		agent, err := roster.Get(id)
		if err != nil {
			return Aggregate{}, err
		}

		agents = append(agents, agent)
	}

	results := make([]Result, len(agents))
	eg, egCtx := errgroup.WithContext(ctx)

	for i, agent := range agents {
		i, agent := i, agent

		eg.Go(func() (err error) {
			defer func() {
				if r := recover(); r != nil {
					err = errors.ErrStageFailure.WithMessagef("agent %s panicked: %v", agent.ID(), r)
				}
			}()

			result, err := agent.Run(egCtx, in)
			if err != nil {
				return errors.ErrStageFailure.WithMessagef("agent %s failed: %v", agent.ID(), err).Wrap(err)
			}

			if result.AgentID == "" {
				result.AgentID = agent.ID()
			}

			if result.Name == "" {
				result.Name = agent.Name()
			}

			results[i] = result
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return Aggregate{}, err
	}

	aggregate := Aggregate{Results: results}
	sections := make([]string, 0, len(results))
	sum := 0.0

	for _, result := range results {
		sections = append(sections, "### "+result.Name+"\n\n"+strings.TrimSpace(result.Response))
		sum += result.Confidence
	}

	if len(results) > 0 {
		aggregate.Confidence = sum / float64(len(results))
	}

	aggregate.Response = strings.Join(sections, "\n\n")

	log.Debug("agents complete", "agents", len(results), "confidence", aggregate.Confidence)
	return aggregate, nil
}

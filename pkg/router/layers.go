package router

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/cohesivestack/valgo"
	"github.com/theapemachine/ukg/pkg/agent"
	"github.com/theapemachine/ukg/pkg/errors"
	"github.com/theapemachine/ukg/pkg/memory"
	"github.com/theapemachine/ukg/pkg/types"
	"github.com/theapemachine/ukg/pkg/utils"
)

// EntryConfidence is reported for queries answered without simulation.
const EntryConfidence = 0.3

func (router *Router) validate(text string) error {
	val := valgo.Is(
		valgo.String(text, "query").Not().Blank().MaxLength(router.cfg.MaxQueryLength),
	)

	if !val.Valid() {
		return errors.ErrInvalidQuery.WithMessagef("invalid query: %v", val.Error())
	}

	return nil
}

/*
RequiresSimulation reports whether text is worth a persona simulation: more
words than the configured limit, or any of the simulation keywords.
*/
func (router *Router) RequiresSimulation(text string) bool {
	if len(strings.Fields(text)) > router.cfg.SimulationWordLimit {
		return true
	}

	lower := strings.ToLower(text)

	for _, keyword := range router.cfg.SimulationKeywords {
		if keyword != "" && strings.Contains(lower, strings.ToLower(keyword)) {
			return true
		}
	}

	return false
}

func (router *Router) entryResult(queryID, text string) types.QueryResult {
	start := time.Now()
	response := "This query is short enough to answer without consulting the expert panel. " +
		"Add detail, a domain, or a regulatory or compliance angle for a full analysis."

	if hits := router.graph.SearchTerms(text, 3); len(hits) > 0 {
		labels := make([]string, 0, len(hits))
		for _, hit := range hits {
			labels = append(labels, fmt.Sprintf("%s (%s)", hit.Node.Label, hit.AxisName))
		}

		response += "\n\nRelated knowledge: " + strings.Join(labels, ", ") + "."
	}

	layer := types.LayerResult{
		Level:      types.LevelEntry,
		Response:   response,
		Confidence: EntryConfidence,
		Duration:   time.Since(start),
	}

	return types.QueryResult{
		QueryID:         queryID,
		Response:        response,
		Confidence:      EntryConfidence,
		ActivePersonas:  []string{},
		ProcessingLevel: types.LevelEntry,
		Success:         true,
		Status:          types.StatusCompleted,
		Layers:          []types.LayerResult{layer},
	}
}

/*
simulate is Layer 2: graph lookup and memory recall into the state, the
persona passes, then the refinement pipeline.
*/
func (router *Router) simulate(ctx context.Context, state *types.QueryState) (types.LayerResult, error) {
	start := time.Now()

	router.enrich(state, router.cfg.ExpansionDepth)
	router.recall(state)

	outcome, err := router.panel.RunPasses(ctx, state, router.cfg.MaxPasses, router.cfg.MinAvgConfidence)
	if err != nil {
		return types.LayerResult{}, err
	}

	log.Debug("panel complete", "query", state.ID, "passes", outcome.Passes, "confidence", outcome.Confidence)

	state.Confidence = outcome.Confidence

	if err := router.pipeline.Run(ctx, state); err != nil {
		return types.LayerResult{}, err
	}

	response := state.Refinement.FinalResponse
	if strings.TrimSpace(response) == "" {
		response = outcome.Response
	}

	participants := make([]string, 0, len(state.Refinement.ActivePersonas))
	for _, role := range state.Refinement.ActivePersonas {
		participants = append(participants, string(role))
	}

	return types.LayerResult{
		Level:        types.LevelSimulation,
		Response:     response,
		Confidence:   utils.Clamp01(state.Confidence),
		Participants: participants,
		Duration:     time.Since(start),
	}, nil
}

/*
enrich merges graph knowledge into the state: the search hits for the query
text, then the nodes and relationships within depth hops of each hit.
Repeated calls only add what is new.
*/
func (router *Router) enrich(state *types.QueryState, depth int) {
	seenNodes := make(map[string]bool, len(state.GraphHits))
	for _, hit := range state.GraphHits {
		seenNodes[hit.NodeID] = true
	}

	seenLinks := make(map[string]bool, len(state.GraphLinks))
	for _, link := range state.GraphLinks {
		seenLinks[link.ID] = true
	}

	limit := router.cfg.SearchHits * (depth + 2)
	hits := router.graph.SearchTerms(state.Text, router.cfg.SearchHits)

	for _, hit := range hits {
		if !seenNodes[hit.Node.ID] {
			seenNodes[hit.Node.ID] = true
			state.GraphHits = append(state.GraphHits, types.GraphHit{
				NodeID:      hit.Node.ID,
				Label:       hit.Node.Label,
				Description: hit.Node.Description,
				Axis:        hit.Node.Axis,
				AxisName:    hit.AxisName,
				Level:       hit.Node.Level,
			})
		}

		if depth < 1 {
			continue
		}

		sub, err := router.graph.Neighborhood(hit.Node.ID, depth)
		if err != nil {
			continue
		}

		for _, node := range sub.Nodes {
			if seenNodes[node.ID] || len(state.GraphHits) >= limit {
				continue
			}

			seenNodes[node.ID] = true
			state.GraphHits = append(state.GraphHits, types.GraphHit{
				NodeID:      node.ID,
				Label:       node.Label,
				Description: node.Description,
				Axis:        node.Axis,
				AxisName:    router.registry.AxisName(node.Axis),
				Level:       node.Level,
			})
		}

		for _, rel := range sub.Relationships {
			if seenLinks[rel.ID] || !seenNodes[rel.SourceID] || !seenNodes[rel.TargetID] {
				continue
			}

			seenLinks[rel.ID] = true
			state.GraphLinks = append(state.GraphLinks, types.GraphLink{
				ID:       rel.ID,
				SourceID: rel.SourceID,
				TargetID: rel.TargetID,
				Type:     rel.Type,
				Weight:   rel.Weight,
			})
		}
	}

	state.Log("graph", "enriched", fmt.Sprintf("%d hits, %d links at depth %d", len(state.GraphHits), len(state.GraphLinks), depth))
}

func (router *Router) recall(state *types.QueryState) {
	if router.memory == nil {
		return
	}

	router.memory.Working().Push(memory.Item{At: state.CreatedAt, Kind: "query", Content: state.Text, Ref: state.ID})

	if router.cfg.MemoryRecall < 1 {
		return
	}

	for _, recall := range router.memory.Retrieve(state.Text, memory.RetrieveOptions{Limit: router.cfg.MemoryRecall}) {
		state.Memories = append(state.Memories, types.MemoryHit{
			EntryID:  recall.Entry.ID,
			StreamID: recall.StreamID,
			Content:  recall.Entry.Content,
			Score:    recall.Score,
		})
	}

	if len(state.Memories) > 0 {
		state.Log("memory", "recalled", fmt.Sprintf("%d entries", len(state.Memories)))
	}
}

func (router *Router) escalates(confidence float64) bool {
	return router.cfg.Layer3.Enabled &&
		router.roster != nil &&
		len(router.cfg.Layer3.Agents) > 0 &&
		confidence < router.cfg.ConfidenceThreshold
}

/*
escalate is Layer 3. The agents see the finalised Layer-2 state. While the
aggregate stays below the monitor threshold and reruns remain, the graph
context is widened by one hop and the agents run again. A result still below
the monitor threshold afterwards is flagged as eligible for a rerun.
*/
func (router *Router) escalate(ctx context.Context, state *types.QueryState, layer2 types.LayerResult, result *types.QueryResult) error {
	start := time.Now()

	depth := router.cfg.ExpansionDepth
	if depth < 1 {
		depth = 1
	}

	aggregate, err := router.roster.Run(ctx, router.cfg.Layer3.Agents, agent.Input{State: state, Layer2: layer2, Depth: depth})
	if err != nil {
		return err
	}

	reruns := 0

	for aggregate.Confidence < router.cfg.MonitorThreshold && reruns < router.cfg.Layer3.MaxReruns {
		if err := ctx.Err(); err != nil {
			return err
		}

		reruns++
		depth++

		log.Info("rerunning agents", "query", state.ID, "rerun", reruns, "depth", depth, "confidence", aggregate.Confidence)
		router.enrich(state, depth)

		if aggregate, err = router.roster.Run(ctx, router.cfg.Layer3.Agents, agent.Input{State: state, Layer2: layer2, Depth: depth}); err != nil {
			return err
		}
	}

	confidence := utils.Clamp01(aggregate.Confidence)

	result.Layers = append(result.Layers, types.LayerResult{
		Level:        types.LevelEscalation,
		Response:     aggregate.Response,
		Confidence:   confidence,
		Participants: aggregate.AgentIDs(),
		Duration:     time.Since(start),
	})

	result.Response = strings.TrimSpace(layer2.Response) + "\n\n## Agent Escalation\n\n" + aggregate.Response
	result.Confidence = confidence
	result.AgentsInvolved = aggregate.AgentIDs()
	result.ProcessingLevel = types.LevelEscalation
	result.Reruns = reruns
	result.RerunEligible = confidence < router.cfg.MonitorThreshold

	state.Log("escalation", "complete", fmt.Sprintf("%d agents, confidence %.3f, reruns %d", len(aggregate.Results), confidence, reruns))
	return nil
}

/*
remember writes a successful simulated answer back into memory, under the
caller's session stream when one is named. Asking the same question again
merges into the same entry.
*/
func (router *Router) remember(state *types.QueryState, result types.QueryResult) {
	if router.memory == nil {
		return
	}

	stream := state.ContextString("session_id")
	if stream == "" {
		stream = state.ContextString("conversation_id")
	}

	if stream == "" {
		stream = router.memory.DefaultStream()
	}

	entry, err := router.memory.Observe(stream, memory.Entry{
		ID:         memory.FactID(state.Text),
		Content:    state.Text + "\n\n" + summary(result.Response),
		Type:       "query_result",
		Source:     string(result.ProcessingLevel),
		Salience:   result.Confidence,
		Confidence: result.Confidence,
		Metadata: map[string]any{
			"query_id":   result.QueryID,
			"confidence": result.Confidence,
			"domain":     state.Domain(),
		},
	})

	if err != nil {
		log.Warn("memory write-back failed", "query", result.QueryID, "error", err)
		return
	}

	router.memory.Working().Push(memory.Item{At: entry.LastAccess, Kind: "answer", Content: summary(result.Response), Ref: entry.ID})
}

// summary keeps the first paragraph of a response, capped in length.
func summary(response string) string {
	response = strings.TrimSpace(response)

	if idx := strings.Index(response, "\n\n"); idx > 0 {
		response = response[:idx]
	}

	const limit = 280

	if runes := []rune(response); len(runes) > limit {
		return string(runes[:limit])
	}

	return response
}

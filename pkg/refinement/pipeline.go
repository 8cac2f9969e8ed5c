package refinement

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/theapemachine/ukg/pkg/types"
)

// Step names in execution order.
const (
	InitialAnalysis         = "initial_analysis"
	KnowledgeProcessing     = "knowledge_processing"
	SectorProcessing        = "sector_processing"
	RegulatoryProcessing    = "regulatory_processing"
	ComplianceProcessing    = "compliance_processing"
	CrossPersonaIntegration = "cross_persona_integration"
	ConflictResolution      = "conflict_resolution"
	ConfidenceAssessment    = "confidence_assessment"
	RefinementPass          = "refinement_pass"
	FactVerification        = "fact_verification"
	CoherenceCheck          = "coherence_check"
	FinalSynthesis          = "final_synthesis"
)

/*
Step is one stage of the pipeline. A step whose Gate exceeds the current
confidence of the query is skipped, not failed.
*/
type Step struct {
	Name string
	Gate float64
	run  func(ctx context.Context, state *types.QueryState) error
}

/*
Pipeline is the fixed, ordered refinement state machine that turns the
persona panel's results into a final response.
*/
type Pipeline struct {
	steps []Step
}

/*
New returns the twelve-step pipeline.
*/
func New() *Pipeline {
	return &Pipeline{
		steps: []Step{
			{Name: InitialAnalysis, run: analyze},
			{Name: KnowledgeProcessing, run: process(types.RoleKnowledge)},
			{Name: SectorProcessing, run: process(types.RoleSector)},
			{Name: RegulatoryProcessing, run: process(types.RoleRegulatory)},
			{Name: ComplianceProcessing, run: process(types.RoleCompliance)},
			{Name: CrossPersonaIntegration, run: integrate},
			{Name: ConflictResolution, Gate: 0.3, run: resolveConflicts},
			{Name: ConfidenceAssessment, run: assessStep},
			{Name: RefinementPass, Gate: 0.5, run: refine},
			{Name: FactVerification, Gate: 0.6, run: verify},
			{Name: CoherenceCheck, run: checkCoherence},
			{Name: FinalSynthesis, run: synthesize},
		},
	}
}

/*
Steps lists the steps in execution order.
*/
func (pipeline *Pipeline) Steps() []Step {
	return append([]Step(nil), pipeline.steps...)
}

/*
Run executes every step in order. state.Confidence should hold the panel
confidence on entry; gates are compared against it as it evolves.
*/
func (pipeline *Pipeline) Run(ctx context.Context, state *types.QueryState) error {
	if state.Refinement.PersonaSummaries == nil {
		state.Refinement.PersonaSummaries = map[types.Role]string{}
	}

	for _, step := range pipeline.steps {
		if err := ctx.Err(); err != nil {
			return err
		}

		if state.Confidence < step.Gate {
			state.Refinement.Skipped = append(state.Refinement.Skipped, step.Name)
			state.Log("refinement", "skipped", fmt.Sprintf("%s: confidence %.3f below %.2f", step.Name, state.Confidence, step.Gate))
			log.Debug("refinement step skipped", "query", state.ID, "step", step.Name, "confidence", state.Confidence)
			continue
		}

		if err := step.run(ctx, state); err != nil {
			return fmt.Errorf("refinement step %s: %w", step.Name, err)
		}

		state.Log("refinement", step.Name, "")
	}

	log.Debug("refinement complete", "query", state.ID, "confidence", state.Confidence, "active", len(state.Refinement.ActivePersonas))
	return nil
}

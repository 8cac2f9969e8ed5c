package refinement

import (
	"context"
	"strings"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
	"github.com/theapemachine/ukg/pkg/types"
)

func stateWith(text string, results ...types.PersonaResult) *types.QueryState {
	state := types.NewQueryState(text, nil, 1)

	for _, result := range results {
		state.SetPersonaResult(result)
	}

	state.Confidence = 0
	for _, result := range state.PresentResults() {
		state.Confidence += result.Confidence / float64(len(state.PresentResults()))
	}

	return state
}

func TestSteps(t *testing.T) {
	Convey("Given the pipeline", t, func() {
		steps := New().Steps()

		Convey("It should have twelve steps in a fixed order", func() {
			So(len(steps), ShouldEqual, 12)
			So(steps[0].Name, ShouldEqual, InitialAnalysis)
			So(steps[6].Name, ShouldEqual, ConflictResolution)
			So(steps[6].Gate, ShouldEqual, 0.3)
			So(steps[11].Name, ShouldEqual, FinalSynthesis)
		})
	})
}

func TestRun(t *testing.T) {
	Convey("Given two on-topic persona results", t, func() {
		state := stateWith("How should data governance handle privacy?",
			types.PersonaResult{Role: types.RoleKnowledge, Name: "Knowledge Expert", Narrative: "Data governance needs owners. More detail.", Confidence: 0.8},
			types.PersonaResult{Role: types.RoleRegulatory, Name: "Regulatory Expert", Narrative: "Privacy law shapes governance.", Confidence: 0.9},
		)

		So(New().Run(context.Background(), state), ShouldBeNil)
		refinement := state.Refinement

		Convey("It should analyse the query", func() {
			So(refinement.QueryType, ShouldEqual, "procedural")
			So(refinement.Concepts, ShouldResemble, []string{"data", "governance", "handle", "privacy"})
		})

		Convey("It should only activate personas with results", func() {
			So(refinement.ActivePersonas, ShouldResemble, []types.Role{types.RoleKnowledge, types.RoleRegulatory})
			So(refinement.PersonaSummaries[types.RoleKnowledge], ShouldEqual, "Data governance needs owners.")
		})

		Convey("It should find the shared concepts", func() {
			So(refinement.SharedConcepts, ShouldResemble, []string{"governance"})
		})

		Convey("It should boost confidence for multiple personas", func() {
			So(refinement.CoherenceScore, ShouldEqual, 1)
			So(state.Confidence, ShouldAlmostEqual, 0.9, 1e-9)
		})

		Convey("It should synthesize an intro, sections and an integration paragraph", func() {
			response := refinement.FinalResponse
			So(response, ShouldStartWith, "This response draws on the Knowledge Expert and Regulatory Expert perspectives.")
			So(strings.Index(response, "### Knowledge Expert"), ShouldBeLessThan, strings.Index(response, "### Regulatory Expert"))
			So(response, ShouldContainSubstring, "### Integrated View")
			So(refinement.Skipped, ShouldBeEmpty)
		})
	})

	Convey("Given a single low confidence persona", t, func() {
		state := stateWith("Tell me about quarterly revenue",
			types.PersonaResult{Role: types.RoleSector, Name: "Sector Expert", Narrative: "Markets move.", Confidence: 0.2},
		)

		So(New().Run(context.Background(), state), ShouldBeNil)

		Convey("Gated steps should be skipped, not failed", func() {
			So(state.Refinement.Skipped, ShouldResemble, []string{ConflictResolution, RefinementPass, FactVerification})
		})

		Convey("The coherence penalty should apply", func() {
			So(state.Refinement.CoherenceScore, ShouldEqual, 0.5)
			So(state.Confidence, ShouldAlmostEqual, 0.2*0.5/0.7, 1e-9)
		})

		Convey("There should be no integration paragraph", func() {
			So(state.Refinement.FinalResponse, ShouldNotContainSubstring, "Integrated View")
		})
	})

	Convey("Given no persona results", t, func() {
		state := stateWith("anything")
		So(New().Run(context.Background(), state), ShouldBeNil)

		Convey("It should produce an empty response with zero confidence", func() {
			So(state.Refinement.ActivePersonas, ShouldBeEmpty)
			So(state.Refinement.FinalResponse, ShouldBeEmpty)
			So(state.Confidence, ShouldEqual, 0)
		})
	})

	Convey("Given a persona disabled by weight", t, func() {
		state := types.NewQueryState("data", map[string]any{"persona_weights": map[string]any{"sector": 0.0}}, 1)
		state.SetPersonaResult(types.PersonaResult{Role: types.RoleSector, Name: "Sector Expert", Narrative: "data", Confidence: 0.9})
		state.SetPersonaResult(types.PersonaResult{Role: types.RoleKnowledge, Name: "Knowledge Expert", Narrative: "data", Confidence: 0.9})
		state.Confidence = 0.9

		So(New().Run(context.Background(), state), ShouldBeNil)

		Convey("Active personas should never exceed the present, enabled results", func() {
			So(state.Refinement.ActivePersonas, ShouldResemble, []types.Role{types.RoleKnowledge})
		})
	})

	Convey("Given graph hits named in a narrative", t, func() {
		state := stateWith("What does GDPR require?",
			types.PersonaResult{Role: types.RoleRegulatory, Name: "Regulatory Expert", Narrative: "Relevant knowledge: GDPR (Octopus).", Confidence: 0.9},
		)
		state.GraphHits = []types.GraphHit{{Label: "GDPR", AxisName: "Octopus"}, {Label: "HIPAA", AxisName: "Octopus"}}

		So(New().Run(context.Background(), state), ShouldBeNil)

		Convey("Fact verification should count them", func() {
			So(state.Refinement.VerifiedFacts, ShouldEqual, 1)
		})
	})

	Convey("Given a cancelled context", t, func() {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		So(New().Run(ctx, stateWith("q")), ShouldEqual, context.Canceled)
	})
}

func TestClassify(t *testing.T) {
	Convey("It should classify queries by their form", t, func() {
		So(classify("Compare ISO 27001 and SOC 2"), ShouldEqual, "comparative")
		So(classify("What is GDPR?"), ShouldEqual, "informational")
		So(classify("Why audit?"), ShouldEqual, "explanatory")
		So(classify("Is this needed?"), ShouldEqual, "question")
		So(classify("Data retention"), ShouldEqual, "statement")
	})
}

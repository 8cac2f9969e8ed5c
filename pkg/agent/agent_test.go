package agent

import (
	"context"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
	"github.com/theapemachine/ukg/pkg/catalog"
	"github.com/theapemachine/ukg/pkg/errors"
	"github.com/theapemachine/ukg/pkg/graph"
	"github.com/theapemachine/ukg/pkg/types"
)

func fixture() (*graph.Store, *catalog.Registry, *types.QueryState) {
	registry := catalog.New()
	store := graph.New(registry)

	pillar, _ := store.AddNode(1, 2, "Data Governance", "Policies and ownership of data", nil)
	gdpr, _ := store.AddNode(6, 1, "GDPR", "EU privacy regulation", nil)
	store.AddRelationship(gdpr, pillar, "requires", 0.9, nil)

	state := types.NewQueryState("How does GDPR affect data governance?", nil, 1)
	state.GraphHits = []types.GraphHit{
		{NodeID: pillar, Label: "Data Governance", Axis: 1, AxisName: "Pillar Level"},
		{NodeID: gdpr, Label: "GDPR", Axis: 6, AxisName: "Octopus"},
	}
	state.SetPersonaResult(types.PersonaResult{
		Role:            types.RoleRegulatory,
		Name:            "Regulatory Expert",
		Narrative:       "GDPR applies.",
		Confidence:      0.8,
		Recommendations: []string{"Document the lawful basis for governance decisions.", "Hire more staff."},
	})

	return store, registry, state
}

func TestCrossDomainSynthesis(t *testing.T) {
	Convey("Given hits on two axes", t, func() {
		store, registry, state := fixture()
		agent := NewCrossDomainSynthesis(store, registry)

		result, err := agent.Run(context.Background(), Input{
			State:  state,
			Layer2: types.LayerResult{Confidence: 0.8},
			Depth:  1,
		})

		So(err, ShouldBeNil)

		Convey("It should add 0.02 per distinct axis", func() {
			So(result.Confidence, ShouldAlmostEqual, 0.84, 1e-9)
			So(result.Response, ShouldContainSubstring, "Pillar Level, Octopus")
			So(result.Response, ShouldContainSubstring, "GDPR requires Data Governance")
		})

		Convey("It should cap the confidence", func() {
			capped, _ := agent.Run(context.Background(), Input{State: state, Layer2: types.LayerResult{Confidence: 0.98}})
			So(capped.Confidence, ShouldEqual, SynthesisCeiling)
		})
	})
}

func TestFactVerification(t *testing.T) {
	Convey("Given resolvable hits and one ungrounded recommendation", t, func() {
		store, _, state := fixture()
		agent := NewFactVerification(store)

		result, err := agent.Run(context.Background(), Input{State: state})
		So(err, ShouldBeNil)

		Convey("Confidence should follow the verified ratio", func() {
			So(result.Confidence, ShouldAlmostEqual, 0.85+0.14*0.75, 1e-9)
			So(result.Response, ShouldStartWith, "Verified 2 of 2 graph references and 1 of 2 recommendations.")
		})

		Convey("When verification is required the gaps should be listed", func() {
			state.Context["require_verification"] = true
			strict, _ := agent.Run(context.Background(), Input{State: state})
			So(strict.Response, ShouldContainSubstring, "Ungrounded recommendation: Hire more staff.")
		})
	})
}

func TestRoster(t *testing.T) {
	Convey("Given a roster with both agents", t, func() {
		store, registry, state := fixture()
		roster := NewRoster(NewCrossDomainSynthesis(store, registry), NewFactVerification(store))

		Convey("Unknown ids should be rejected before anything runs", func() {
			_, err := roster.Get("oracle")
			So(errors.Is(err, errors.ErrAlgorithmNotFound), ShouldBeTrue)

			_, err = roster.Run(context.Background(), []string{CrossDomainSynthesisID, "oracle"}, Input{State: state})
			So(errors.Is(err, errors.ErrAlgorithmNotFound), ShouldBeTrue)
		})

		Convey("Running both should aggregate in requested order", func() {
			aggregate, err := roster.Run(context.Background(), []string{FactVerificationID, CrossDomainSynthesisID}, Input{
				State:  state,
				Layer2: types.LayerResult{Confidence: 0.8},
				Depth:  1,
			})

			So(err, ShouldBeNil)
			So(aggregate.AgentIDs(), ShouldResemble, []string{FactVerificationID, CrossDomainSynthesisID})
			So(aggregate.Response, ShouldStartWith, "### Fact Verification Agent")
			So(aggregate.Confidence, ShouldAlmostEqual, (0.85+0.14*0.75+0.84)/2, 1e-9)
		})
	})
}

package persona

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/theapemachine/ukg/pkg/catalog"
	"github.com/theapemachine/ukg/pkg/errors"
	"github.com/theapemachine/ukg/pkg/types"
	"golang.org/x/sync/errgroup"
)

/*
Outcome is what the panel reports after running its passes.
*/
type Outcome struct {
	Passes     int                   `json:"passes"`
	Averages   []float64             `json:"averages"`
	Confidence float64               `json:"confidence"`
	Response   string                `json:"response"`
	Results    []types.PersonaResult `json:"results"`
}

/*
Panel runs the four expert roles over a query. Personas come from the
registry profiles, resolved per query domain; overrides replace the persona
of their role.
*/
type Panel struct {
	registry  *catalog.Registry
	overrides map[types.Role]Persona
}

/*
NewPanel returns a panel backed by registry. registry may be nil when every
role is supplied as an override.
*/
func NewPanel(registry *catalog.Registry, overrides ...Persona) *Panel {
	panel := &Panel{
		registry:  registry,
		overrides: make(map[types.Role]Persona, len(overrides)),
	}

	for _, persona := range overrides {
		panel.overrides[persona.Role()] = persona
	}

	return panel
}

/*
Personas returns the personas that take part in state, in role order. Roles
disabled by the caller's persona weights are left out.
*/
func (panel *Panel) Personas(state *types.QueryState) ([]Persona, error) {
	out := make([]Persona, 0, len(types.Roles))

	for _, role := range types.Roles {
		if !state.RoleActive(role) {
			continue
		}

		if persona, ok := panel.overrides[role]; ok {
			out = append(out, persona)
			continue
		}

		if panel.registry == nil {
			continue
		}

		profile, err := panel.registry.ProfileForDomain(role, state.Domain())
		if err != nil {
			return nil, err
		}

		out = append(out, NewProfilePersona(profile, panel.registry.AxisGraph()))
	}

	return out, nil
}

/*
RunPasses evaluates every persona once per pass until the mean confidence of
the present results reaches minAvgConfidence or maxPasses passes have run.
The personas of a pass run concurrently; each sees the other roles'
narratives from the previous pass and writes only its own slot of state.
With no personas available the outcome is empty with zero confidence.
*/
func (panel *Panel) RunPasses(ctx context.Context, state *types.QueryState, maxPasses int, minAvgConfidence float64) (Outcome, error) {
	personas, err := panel.Personas(state)
	if err != nil {
		return Outcome{}, err
	}

	if len(personas) == 0 {
		log.Warn("no personas available", "query", state.ID)
		state.Log("panel", "empty", "no personas available")
		return Outcome{Results: []types.PersonaResult{}}, nil
	}

	if maxPasses < 1 {
		maxPasses = 1
	}

	outcome := Outcome{}

	for pass := 1; pass <= maxPasses; pass++ {
		if err := ctx.Err(); err != nil {
			return outcome, err
		}

		state.CurrentPass = pass
		prior := priorNarratives(state)

		eg, egCtx := errgroup.WithContext(ctx)

		for _, persona := range personas {
			persona := persona

			eg.Go(func() (err error) {
				defer func() {
					if r := recover(); r != nil {
						err = errors.ErrStageFailure.WithMessagef("persona %s panicked on pass %d: %v", persona.Role(), pass, r)
					}
				}()

				result, err := persona.Evaluate(egCtx, state, PassContext{
					Pass:  pass,
					Prior: without(prior, persona.Role()),
				})

				if err != nil {
					return errors.ErrStageFailure.WithMessagef("persona %s failed on pass %d: %v", persona.Role(), pass, err).Wrap(err)
				}

				result.Role = persona.Role()
				result.Pass = pass

				if result.Name == "" {
					result.Name = persona.Name()
				}

				state.SetPersonaResult(result)
				return nil
			})
		}

		if err := eg.Wait(); err != nil {
			return outcome, err
		}

		average := Weighted(state.PresentResults(), state.PersonaWeights)
		outcome.Passes = pass
		outcome.Averages = append(outcome.Averages, average)

		log.Debug("persona pass complete", "query", state.ID, "pass", pass, "average", average)
		state.Log("panel", "pass", fmt.Sprintf("pass %d average %.3f", pass, average))

		if average >= minAvgConfidence {
			break
		}
	}

	outcome.Results = state.PresentResults()
	outcome.Confidence = Weighted(outcome.Results, state.PersonaWeights)
	outcome.Response = Synthesize(outcome.Results)

	return outcome, nil
}

/*
Average is the unweighted mean confidence of results, zero when empty.
*/
func Average(results []types.PersonaResult) float64 {
	if len(results) == 0 {
		return 0
	}

	sum := 0.0
	for _, result := range results {
		sum += result.Confidence
	}

	return sum / float64(len(results))
}

/*
Weighted is the mean confidence of results weighted by the caller's persona
weights. Without weights, or when the present roles weigh nothing, it falls
back to Average.
*/
func Weighted(results []types.PersonaResult, weights map[types.Role]float64) float64 {
	if len(weights) == 0 {
		return Average(results)
	}

	sum, total := 0.0, 0.0
	for _, result := range results {
		w := weights[result.Role]
		sum += w * result.Confidence
		total += w
	}

	if total == 0 {
		return Average(results)
	}

	return sum / total
}

/*
Section renders one persona result under its own heading.
*/
func Section(result types.PersonaResult) string {
	var sb strings.Builder

	sb.WriteString("### " + result.Name + "\n\n")
	sb.WriteString(strings.TrimSpace(result.Narrative))

	if len(result.Recommendations) > 0 {
		sb.WriteString("\n\nRecommendations:")

		for _, rec := range result.Recommendations {
			sb.WriteString("\n- " + rec)
		}
	}

	return sb.String()
}

/*
Synthesize joins the sections of the non-empty results in role order.
*/
func Synthesize(results []types.PersonaResult) string {
	ordered := make([]types.PersonaResult, 0, len(results))

	for _, role := range types.Roles {
		for _, result := range results {
			if result.Role == role && !result.Empty() {
				ordered = append(ordered, result)
			}
		}
	}

	sections := make([]string, 0, len(ordered))
	for _, result := range ordered {
		sections = append(sections, Section(result))
	}

	return strings.Join(sections, "\n\n")
}

func priorNarratives(state *types.QueryState) map[types.Role]string {
	prior := map[types.Role]string{}

	for _, result := range state.PresentResults() {
		prior[result.Role] = result.Narrative
	}

	return prior
}

func without(prior map[types.Role]string, role types.Role) map[types.Role]string {
	out := make(map[types.Role]string, len(prior))

	for r, narrative := range prior {
		if r != role {
			out[r] = narrative
		}
	}

	return out
}

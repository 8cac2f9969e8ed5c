package refinement

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/theapemachine/ukg/pkg/persona"
	"github.com/theapemachine/ukg/pkg/types"
	"github.com/theapemachine/ukg/pkg/utils"
)

// Tuning constants of the assessment and integration steps.
const (
	BoostPerPersona    = 0.05
	MaxBoost           = 0.1
	CoherenceThreshold = 0.7
	DivergenceSpread   = 0.15
	maxConcepts        = 8
)

func analyze(ctx context.Context, state *types.QueryState) error {
	concepts := utils.Keywords(state.Text, 4)
	if len(concepts) > maxConcepts {
		concepts = concepts[:maxConcepts]
	}

	state.Refinement.Concepts = concepts
	state.Refinement.QueryType = classify(state.Text)
	return nil
}

func classify(text string) string {
	lower := strings.ToLower(strings.TrimSpace(text))
	tokens := utils.Tokens(lower)

	for _, token := range tokens {
		switch token {
		case "compare", "versus", "vs", "difference", "differences":
			return "comparative"
		}
	}

	if len(tokens) > 0 {
		switch tokens[0] {
		case "what", "which", "who", "when", "where":
			return "informational"
		case "how":
			return "procedural"
		case "why":
			return "explanatory"
		}
	}

	if strings.HasSuffix(lower, "?") {
		return "question"
	}

	return "statement"
}

/*
process records the summary of one role when its result is present and the
role is enabled.
*/
func process(role types.Role) func(context.Context, *types.QueryState) error {
	return func(ctx context.Context, state *types.QueryState) error {
		result := state.PersonaResult(role)

		if result.Empty() || !state.RoleActive(role) {
			return nil
		}

		state.Refinement.PersonaSummaries[role] = firstSentence(result.Narrative)
		state.Refinement.ActivePersonas = append(state.Refinement.ActivePersonas, role)
		return nil
	}
}

func integrate(ctx context.Context, state *types.QueryState) error {
	active := activeResults(state)

	switch len(active) {
	case 0:
		return nil
	case 1:
		state.Refinement.Integration = fmt.Sprintf("Only the %s perspective contributed to this answer.", strings.ToLower(active[0].Name))
		return nil
	}

	shared := make([]string, 0)

	for _, concept := range state.Refinement.Concepts {
		mentions := 0

		for _, result := range active {
			if mentionsAny(result.Narrative, concept) {
				mentions++
			}
		}

		if mentions >= 2 {
			shared = append(shared, concept)
		}
	}

	names := make([]string, 0, len(active))
	for _, result := range active {
		names = append(names, strings.ToLower(result.Name))
	}

	integration := fmt.Sprintf("Taken together, the %s perspectives", joinList(names))

	if len(shared) > 0 {
		integration += fmt.Sprintf(" converge on %s", joinList(shared))
	} else {
		integration += " address complementary parts of the question"
	}

	state.Refinement.SharedConcepts = shared
	state.Refinement.Integration = integration + "."
	return nil
}

func resolveConflicts(ctx context.Context, state *types.QueryState) error {
	active := activeResults(state)

	if len(active) < 2 {
		return nil
	}

	resolved := make([]string, 0)

	high, low := active[0], active[0]
	for _, result := range active[1:] {
		if result.Confidence > high.Confidence {
			high = result
		}

		if result.Confidence < low.Confidence {
			low = result
		}
	}

	if high.Confidence-low.Confidence > DivergenceSpread {
		resolved = append(resolved, fmt.Sprintf(
			"Weighted the %s view (%.2f) over the %s view (%.2f) where they diverge.",
			strings.ToLower(high.Name), high.Confidence, strings.ToLower(low.Name), low.Confidence,
		))
	}

	seen := map[string]types.Role{}

	for _, result := range active {
		for _, rec := range result.Recommendations {
			if first, ok := seen[rec]; ok && first != result.Role {
				resolved = append(resolved, fmt.Sprintf("Merged a recommendation shared by the %s and %s personas.", first, result.Role))
				continue
			}

			seen[rec] = result.Role
		}
	}

	state.Refinement.ConflictsResolved = resolved
	return nil
}

func assessStep(ctx context.Context, state *types.QueryState) error {
	state.Confidence = Assess(state)
	return nil
}

/*
Assess computes the overall confidence of state: the weighted mean confidence
of the active personas, plus 0.05 per additional active persona up to 0.1, scaled
down by coherence/0.7 once a coherence score below 0.7 has been recorded.
*/
func Assess(state *types.QueryState) float64 {
	active := activeResults(state)

	if len(active) == 0 {
		return 0
	}

	confidence := persona.Weighted(active, state.PersonaWeights)
	confidence += math.Min(MaxBoost, BoostPerPersona*float64(len(active)-1))

	if state.Refinement.CoherenceChecked && state.Refinement.CoherenceScore < CoherenceThreshold {
		confidence *= state.Refinement.CoherenceScore / CoherenceThreshold
	}

	return utils.Clamp01(confidence)
}

func refine(ctx context.Context, state *types.QueryState) error {
	active := activeResults(state)
	notes := make([]string, 0)

	for _, concept := range state.Refinement.Concepts {
		covered := false

		for _, result := range active {
			if mentionsAny(result.Narrative, concept) {
				covered = true
				break
			}
		}

		if !covered {
			notes = append(notes, fmt.Sprintf("No persona addressed %q directly.", concept))
		}
	}

	if domain := state.Domain(); domain != "" {
		notes = append(notes, fmt.Sprintf("Answer framed for the %s domain.", domain))
	}

	state.Refinement.RefinementNotes = notes
	return nil
}

func verify(ctx context.Context, state *types.QueryState) error {
	active := activeResults(state)
	notes := make([]string, 0)
	verified := 0

	for _, hit := range state.GraphHits {
		for _, result := range active {
			if strings.Contains(strings.ToLower(result.Narrative), strings.ToLower(hit.Label)) {
				verified++
				notes = append(notes, fmt.Sprintf("%s is backed by the knowledge graph (%s).", hit.Label, hit.AxisName))
				break
			}
		}
	}

	if verified == 0 && state.RequireVerification() {
		notes = append(notes, "No statement could be verified against the knowledge graph.")
	}

	state.Refinement.VerifiedFacts = verified
	state.Refinement.VerificationNotes = notes
	return nil
}

/*
checkCoherence scores how many active personas stayed on topic and then
reassesses confidence so a low score takes effect.
*/
func checkCoherence(ctx context.Context, state *types.QueryState) error {
	active := activeResults(state)
	concepts := state.Refinement.Concepts
	score := 1.0

	if len(active) > 0 && len(concepts) > 0 {
		onTopic := 0

		for _, result := range active {
			if mentionsAny(result.Narrative, concepts...) {
				onTopic++
			}
		}

		score = 0.5 + 0.5*float64(onTopic)/float64(len(active))
	}

	state.Refinement.CoherenceScore = score
	state.Refinement.CoherenceChecked = true

	return assessStep(ctx, state)
}

func synthesize(ctx context.Context, state *types.QueryState) error {
	active := activeResults(state)

	if len(active) == 0 {
		state.Refinement.FinalResponse = ""
		return nil
	}

	names := make([]string, 0, len(active))
	for _, result := range active {
		names = append(names, result.Name)
	}

	parts := []string{fmt.Sprintf("This response draws on the %s perspectives.", joinList(names))}

	for _, result := range active {
		parts = append(parts, persona.Section(result))
	}

	if len(active) > 1 && state.Refinement.Integration != "" {
		parts = append(parts, "### Integrated View\n\n"+state.Refinement.Integration)
	}

	state.Refinement.FinalResponse = strings.Join(parts, "\n\n")
	return nil
}

/*
activeResults returns the results of the roles recorded as active, in role
order.
*/
func activeResults(state *types.QueryState) []types.PersonaResult {
	out := make([]types.PersonaResult, 0, len(state.Refinement.ActivePersonas))
	roles := append([]types.Role(nil), state.Refinement.ActivePersonas...)

	sort.SliceStable(roles, func(i, j int) bool {
		return roles[i].Index() < roles[j].Index()
	})

	for _, role := range roles {
		if result := state.PersonaResult(role); !result.Empty() {
			out = append(out, *result)
		}
	}

	return out
}

func mentionsAny(text string, words ...string) bool {
	return len(utils.Matches(words, text)) > 0
}

func firstSentence(text string) string {
	text = strings.TrimSpace(text)

	if i := strings.Index(text, ". "); i >= 0 {
		return text[:i+1]
	}

	return text
}

func joinList(items []string) string {
	switch len(items) {
	case 0:
		return ""
	case 1:
		return items[0]
	}

	return strings.Join(items[:len(items)-1], ", ") + " and " + items[len(items)-1]
}

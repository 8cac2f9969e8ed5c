package persona

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/theapemachine/ukg/pkg/catalog"
	"github.com/theapemachine/ukg/pkg/types"
	"github.com/theapemachine/ukg/pkg/utils"
)

// Scoring constants for profile personas.
const (
	BaseConfidence = 0.7
	PassBonus      = 0.1
	KeywordMatch   = 0.05
	KeywordCap     = 0.15
	DomainMatch    = 0.05
	maxHits        = 3
	maxAdvice      = 3
)

/*
PassContext is what a persona knows about the panel when it is evaluated:
the pass number and the narratives the other roles produced in the previous
pass. Prior is empty on the first pass.
*/
type PassContext struct {
	Pass  int
	Prior map[types.Role]string
}

/*
Persona is one expert role of the panel.
*/
type Persona interface {
	Role() types.Role
	Name() string
	Evaluate(ctx context.Context, state *types.QueryState, pass PassContext) (types.PersonaResult, error)
}

/*
ProfilePersona scores and narrates a query from a catalog profile.
*/
type ProfilePersona struct {
	profile catalog.Profile
	axes    *catalog.AxisGraph
}

/*
NewProfilePersona binds a profile to the axis graph used to rank graph hits.
*/
func NewProfilePersona(profile catalog.Profile, axes *catalog.AxisGraph) *ProfilePersona {
	return &ProfilePersona{profile: profile, axes: axes}
}

func (persona *ProfilePersona) Role() types.Role {
	return persona.profile.Role
}

func (persona *ProfilePersona) Name() string {
	return persona.profile.Name
}

/*
Profile returns the profile the persona was built from.
*/
func (persona *ProfilePersona) Profile() catalog.Profile {
	return persona.profile
}

/*
Score returns the confidence of the persona for a pass together with the
profile keywords found in the query: min(ceiling, 0.7 + 0.1*(pass-1) + match)
where match is 0.05 per keyword (at most 0.15) plus 0.05 for a domain match.
*/
func (persona *ProfilePersona) Score(text, domain string, pass int) (float64, []string) {
	matched := utils.Matches(persona.profile.Keywords, text)
	match := math.Min(KeywordCap, KeywordMatch*float64(len(matched)))

	if domain != "" && persona.profile.HasDomain(domain) {
		match += DomainMatch
	}

	if pass < 1 {
		pass = 1
	}

	confidence := BaseConfidence + PassBonus*float64(pass-1) + match
	return math.Min(persona.profile.Ceiling, confidence), matched
}

/*
Evaluate produces the persona's result for one pass.
*/
func (persona *ProfilePersona) Evaluate(ctx context.Context, state *types.QueryState, pass PassContext) (types.PersonaResult, error) {
	if err := ctx.Err(); err != nil {
		return types.PersonaResult{}, err
	}

	confidence, matched := persona.Score(state.Text, state.Domain(), pass.Pass)

	return types.PersonaResult{
		Role:            persona.profile.Role,
		Name:            persona.profile.Name,
		Narrative:       persona.narrate(state, pass, matched),
		Confidence:      confidence,
		Recommendations: persona.recommend(state.Text),
		MatchedKeywords: matched,
		Pass:            pass.Pass,
	}, nil
}

func (persona *ProfilePersona) narrate(state *types.QueryState, pass PassContext, matched []string) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "From the %s perspective, this question turns on %s.", strings.ToLower(persona.profile.Name), persona.profile.Focus)

	if len(matched) > 0 {
		fmt.Fprintf(&sb, " The query raises %s.", joinList(matched))
	}

	if domain := state.Domain(); domain != "" {
		if persona.profile.HasDomain(domain) {
			fmt.Fprintf(&sb, " This falls squarely within %s practice.", domain)
		} else {
			fmt.Fprintf(&sb, " Lessons from other industries carry over to %s with adjustment.", domain)
		}
	}

	if hits := persona.relevantHits(state.GraphHits); len(hits) > 0 {
		labels := make([]string, 0, len(hits))
		for _, hit := range hits {
			labels = append(labels, fmt.Sprintf("%s (%s)", hit.Label, hit.AxisName))
		}

		fmt.Fprintf(&sb, " Relevant knowledge: %s.", strings.Join(labels, ", "))
	}

	if len(state.Memories) > 0 {
		fmt.Fprintf(&sb, " An earlier finding applies: %s.", strings.TrimSuffix(state.Memories[0].Content, "."))
	}

	if others := priorRoles(pass.Prior, persona.profile.Role); len(others) > 0 {
		fmt.Fprintf(&sb, " Pass %d refines this against the %s views.", pass.Pass, joinList(others))
	}

	return sb.String()
}

/*
relevantHits ranks graph hits by how relevant their axis is to the persona's
focus axes and keeps the best few that are at least reverse-linked.
*/
func (persona *ProfilePersona) relevantHits(hits []types.GraphHit) []types.GraphHit {
	type scored struct {
		hit   types.GraphHit
		score float64
	}

	ranked := make([]scored, 0, len(hits))

	for _, hit := range hits {
		best := 0.0

		for _, axis := range persona.profile.FocusAxes {
			if persona.axes != nil {
				best = math.Max(best, persona.axes.Relevance(axis, hit.Axis))
			} else if axis == hit.Axis {
				best = catalog.RelevanceSame
			}
		}

		if best >= catalog.RelevanceReverse {
			ranked = append(ranked, scored{hit: hit, score: best})
		}
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].score > ranked[j].score
	})

	out := make([]types.GraphHit, 0, maxHits)
	for i := 0; i < len(ranked) && i < maxHits; i++ {
		out = append(out, ranked[i].hit)
	}

	return out
}

/*
recommend returns the keyword-triggered recommendations first, topped up with
the unconditional ones.
*/
func (persona *ProfilePersona) recommend(text string) []string {
	out := make([]string, 0, maxAdvice)

	for _, rec := range persona.profile.Recommendations {
		if len(rec.Keywords) > 0 && len(utils.Matches(rec.Keywords, text)) > 0 {
			out = append(out, rec.Text)
		}
	}

	for _, rec := range persona.profile.Recommendations {
		if len(rec.Keywords) == 0 {
			out = append(out, rec.Text)
		}
	}

	if len(out) > maxAdvice {
		out = out[:maxAdvice]
	}

	return out
}

func priorRoles(prior map[types.Role]string, self types.Role) []string {
	out := make([]string, 0, len(prior))

	for _, role := range types.Roles {
		if role == self {
			continue
		}

		if narrative, ok := prior[role]; ok && strings.TrimSpace(narrative) != "" {
			out = append(out, string(role))
		}
	}

	return out
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

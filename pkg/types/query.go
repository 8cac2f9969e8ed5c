package types

import (
	"math"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/theapemachine/ukg/pkg/errors"
)

/*
Role identifies one of the four expert personas. Each role is bound to one of
the persona axes (8 through 11) of the catalog.
*/
type Role string

const (
	RoleKnowledge  Role = "knowledge"
	RoleSector     Role = "sector"
	RoleRegulatory Role = "regulatory"
	RoleCompliance Role = "compliance"
)

// Roles is the fixed evaluation and synthesis order.
var Roles = []Role{RoleKnowledge, RoleSector, RoleRegulatory, RoleCompliance}

/*
Valid reports whether r is one of the four persona roles.
*/
func (r Role) Valid() bool {
	for _, role := range Roles {
		if role == r {
			return true
		}
	}

	return false
}

/*
Index returns the position of r in the fixed role order, or -1.
*/
func (r Role) Index() int {
	for i, role := range Roles {
		if role == r {
			return i
		}
	}

	return -1
}

/*
QueryStatus enumerates the lifecycle of a QueryState.
*/
type QueryStatus string

const (
	StatusInitialized QueryStatus = "initialized"
	StatusProcessing  QueryStatus = "processing"
	StatusCompleted   QueryStatus = "completed"
	StatusFailed      QueryStatus = "failed"
)

/*
PersonaResult is what a single persona produced for a single pass.
*/
type PersonaResult struct {
	Role            Role     `json:"role"`
	Name            string   `json:"name"`
	Narrative       string   `json:"narrative"`
	Confidence      float64  `json:"confidence"`
	Recommendations []string `json:"recommendations,omitempty"`
	MatchedKeywords []string `json:"matched_keywords,omitempty"`
	Pass            int      `json:"pass"`
}

/*
Empty reports whether the slot holds no usable result.
*/
func (result *PersonaResult) Empty() bool {
	return result == nil || strings.TrimSpace(result.Narrative) == ""
}

/*
Event is a single entry of the append-only processing log.
*/
type Event struct {
	At     time.Time `json:"at"`
	Stage  string    `json:"stage"`
	Kind   string    `json:"kind"`
	Detail string    `json:"detail,omitempty"`
}

/*
GraphHit is a graph node matched for a query, flattened so the pipeline does
not depend on the graph package.
*/
type GraphHit struct {
	NodeID      string `json:"node_id"`
	Label       string `json:"label"`
	Description string `json:"description,omitempty"`
	Axis        int    `json:"axis"`
	AxisName    string `json:"axis_name"`
	Level       int    `json:"level"`
}

/*
GraphLink is a relationship between two graph hits.
*/
type GraphLink struct {
	ID       string  `json:"id"`
	SourceID string  `json:"source_id"`
	TargetID string  `json:"target_id"`
	Type     string  `json:"type"`
	Weight   float64 `json:"weight"`
}

/*
MemoryHit is a memory entry recalled for a query.
*/
type MemoryHit struct {
	EntryID  string  `json:"entry_id"`
	StreamID string  `json:"stream_id"`
	Content  string  `json:"content"`
	Score    float64 `json:"score"`
}

/*
Refinement holds the outputs of the refinement steps. Every field is owned by
exactly one step.
*/
type Refinement struct {
	Concepts          []string        `json:"concepts,omitempty"`
	QueryType         string          `json:"query_type,omitempty"`
	PersonaSummaries  map[Role]string `json:"persona_summaries,omitempty"`
	ActivePersonas    []Role          `json:"active_personas,omitempty"`
	Integration       string          `json:"integration,omitempty"`
	SharedConcepts    []string        `json:"shared_concepts,omitempty"`
	ConflictsResolved []string        `json:"conflicts_resolved,omitempty"`
	RefinementNotes   []string        `json:"refinement_notes,omitempty"`
	VerifiedFacts     int             `json:"verified_facts"`
	VerificationNotes []string        `json:"verification_notes,omitempty"`
	CoherenceScore    float64         `json:"coherence_score"`
	CoherenceChecked  bool            `json:"coherence_checked"`
	FinalResponse     string          `json:"final_response,omitempty"`
	Skipped           []string        `json:"skipped,omitempty"`
}

/*
QueryState is the mutable aggregate a query carries through the simulation
layer. The persona panel writes PersonaResults, the refinement pipeline writes
Refinement and Confidence.
*/
type QueryState struct {
	mu sync.Mutex

	ID             string                  `json:"id"`
	Text           string                  `json:"text"`
	Context        map[string]any          `json:"context,omitempty"`
	CurrentPass    int                     `json:"current_pass"`
	MaxPasses      int                     `json:"max_passes"`
	PersonaResults map[Role]*PersonaResult `json:"persona_results"`
	PersonaWeights map[Role]float64        `json:"persona_weights,omitempty"`
	Status         QueryStatus             `json:"status"`
	Confidence     float64                 `json:"confidence"`
	GraphHits      []GraphHit              `json:"graph_hits,omitempty"`
	GraphLinks     []GraphLink             `json:"graph_links,omitempty"`
	Memories       []MemoryHit             `json:"memories,omitempty"`
	Refinement     Refinement              `json:"refinement"`
	Events         []Event                 `json:"events,omitempty"`
	CreatedAt      time.Time               `json:"created_at"`
	UpdatedAt      time.Time               `json:"updated_at"`
}

/*
NewQueryState creates a state with one empty slot per persona role.
*/
func NewQueryState(text string, ctx map[string]any, maxPasses int) *QueryState {
	if ctx == nil {
		ctx = map[string]any{}
	}

	now := time.Now().UTC()
	state := &QueryState{
		ID:             uuid.NewString(),
		Text:           text,
		Context:        ctx,
		MaxPasses:      maxPasses,
		PersonaResults: make(map[Role]*PersonaResult, len(Roles)),
		PersonaWeights: ParsePersonaWeights(ctx),
		Status:         StatusInitialized,
		Refinement:     Refinement{PersonaSummaries: map[Role]string{}},
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	for _, role := range Roles {
		state.PersonaResults[role] = nil
	}

	state.Log("state", "created", "")
	return state
}

/*
Transition moves the state along initialized → processing → completed|failed.
*/
func (state *QueryState) Transition(to QueryStatus) error {
	state.mu.Lock()
	defer state.mu.Unlock()

	from := state.Status

	switch from {
	case StatusInitialized:
		if to != StatusProcessing && to != StatusFailed {
			return errors.ErrInvalidState.WithMessagef("invalid state transition from %s to %s", from, to)
		}
	case StatusProcessing:
		if to != StatusCompleted && to != StatusFailed {
			return errors.ErrInvalidState.WithMessagef("invalid state transition from %s to %s", from, to)
		}
	case StatusCompleted, StatusFailed:
		return errors.ErrInvalidState.WithMessagef("cannot transition from final state %s", from)
	}

	state.Status = to
	state.touch()
	state.Events = append(state.Events, Event{At: state.UpdatedAt, Stage: "state", Kind: string(to)})
	return nil
}

/*
Log appends an event to the processing log.
*/
func (state *QueryState) Log(stage, kind, detail string) {
	state.mu.Lock()
	defer state.mu.Unlock()

	state.touch()
	state.Events = append(state.Events, Event{At: state.UpdatedAt, Stage: stage, Kind: kind, Detail: detail})
}

/*
SetPersonaResult fills the slot of a single role.
*/
func (state *QueryState) SetPersonaResult(result PersonaResult) {
	state.mu.Lock()
	defer state.mu.Unlock()

	r := result
	state.PersonaResults[result.Role] = &r
	state.touch()
}

/*
PersonaResult returns the current slot of a role, or nil when empty.
*/
func (state *QueryState) PersonaResult(role Role) *PersonaResult {
	state.mu.Lock()
	defer state.mu.Unlock()

	return state.PersonaResults[role]
}

/*
PresentResults returns the non-empty persona results in role order.
*/
func (state *QueryState) PresentResults() []PersonaResult {
	state.mu.Lock()
	defer state.mu.Unlock()

	out := make([]PersonaResult, 0, len(Roles))

	for _, role := range Roles {
		if result := state.PersonaResults[role]; !result.Empty() {
			out = append(out, *result)
		}
	}

	return out
}

func (state *QueryState) touch() {
	state.UpdatedAt = time.Now().UTC()
}

/*
Domain returns the context domain, falling back to the sector.
*/
func (state *QueryState) Domain() string {
	if domain := state.ContextString("domain"); domain != "" {
		return domain
	}

	return state.ContextString("sector")
}

/*
ContextString reads a string value from the query context.
*/
func (state *QueryState) ContextString(key string) string {
	if v, ok := state.Context[key].(string); ok {
		return strings.TrimSpace(v)
	}

	return ""
}

/*
RequireVerification reports whether the caller asked for fact verification.
*/
func (state *QueryState) RequireVerification() bool {
	switch v := state.Context["require_verification"].(type) {
	case bool:
		return v
	case string:
		return strings.EqualFold(v, "true")
	}

	return false
}

/*
RoleActive reports whether the caller's persona weights leave role enabled.
*/
func (state *QueryState) RoleActive(role Role) bool {
	if len(state.PersonaWeights) == 0 {
		return true
	}

	return state.PersonaWeights[role] > 0
}

/*
ParsePersonaWeights reads context["persona_weights"]. Missing roles weigh 1,
values are clamped to [0,1] and the result is normalised to sum to 1. A role
with a zero weight is disabled for the query. Returns nil when no weights were
supplied.
*/
func ParsePersonaWeights(ctx map[string]any) map[Role]float64 {
	raw := map[string]float64{}

	switch v := ctx["persona_weights"].(type) {
	case map[string]any:
		for key, value := range v {
			if f, ok := toFloat(value); ok {
				raw[key] = f
			}
		}
	case map[string]float64:
		raw = v
	default:
		return nil
	}

	weights := make(map[Role]float64, len(Roles))
	sum := 0.0

	for _, role := range Roles {
		w, ok := raw[string(role)]
		if !ok {
			w = 1
		}

		w = math.Max(0, math.Min(1, w))
		weights[role] = w
		sum += w
	}

	if sum == 0 {
		return weights
	}

	for role, w := range weights {
		weights[role] = w / sum
	}

	return weights
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}

	return 0, false
}

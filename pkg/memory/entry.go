package memory

import (
	"maps"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Blend factors applied when the same fact is observed again.
const (
	KeepFactor     = 0.7
	IncomingFactor = 0.3
)

// SalienceBoost is added to an entry's salience every time it is read.
const SalienceBoost = 0.05

var factNamespace = uuid.MustParse("6f1c2f1e-6a53-4c55-9d2a-8b8f8e3b7a11")

// Entry is a single remembered item. It belongs to exactly one stream.
type Entry struct {
	ID          string         `json:"id"`
	Content     string         `json:"content"`
	Type        string         `json:"type"`
	Source      string         `json:"source"`
	Metadata    map[string]any `json:"metadata,omitempty"`
	CreatedAt   time.Time      `json:"createdAt"`
	LastAccess  time.Time      `json:"lastAccess"`
	DecayedAt   time.Time      `json:"decayedAt,omitempty"`
	AccessCount int            `json:"accessCount"`
	Salience    float64        `json:"salience"`
	Confidence  float64        `json:"confidence"`
}

// FactID derives a stable entry id from text, so that observing the same
// fact twice (ignoring case and spacing) lands on the same entry.
func FactID(text string) string {
	normalized := strings.Join(strings.Fields(strings.ToLower(text)), " ")
	return uuid.NewSHA1(factNamespace, []byte(normalized)).String()
}

// Blend merges an incoming confidence into an existing one.
func Blend(old, incoming float64) float64 {
	return old*KeepFactor + incoming*IncomingFactor
}

func (entry *Entry) touch(now time.Time) {
	entry.AccessCount++
	entry.LastAccess = now
	entry.Salience = clamp(entry.Salience + SalienceBoost)
}

func (entry *Entry) copy() Entry {
	out := *entry
	out.Metadata = maps.Clone(entry.Metadata)

	return out
}

func clamp(v float64) float64 {
	if v < 0 {
		return 0
	}

	if v > 1 {
		return 1
	}

	return v
}

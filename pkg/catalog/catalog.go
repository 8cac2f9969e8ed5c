package catalog

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"
	"strings"

	"github.com/theapemachine/ukg/pkg/errors"
	"github.com/theapemachine/ukg/pkg/types"
	"gopkg.in/yaml.v3"
)

//go:embed catalog.yml
var embedded []byte

// AxisCount is the number of axes in the coordinate system.
const AxisCount = 13

/*
Axis is one of the thirteen fixed dimensions used to classify nodes.
*/
type Axis struct {
	Number      int    `yaml:"number" json:"number"`
	Code        string `yaml:"code" json:"code"`
	Name        string `yaml:"name" json:"name"`
	Description string `yaml:"description" json:"description"`
}

/*
Recommendation is a canned piece of advice. It is offered when any of its
keywords occur in the query, or unconditionally when it has none.
*/
type Recommendation struct {
	Keywords []string `yaml:"keywords,omitempty" json:"keywords,omitempty"`
	Text     string   `yaml:"text" json:"text"`
}

/*
Profile describes how a persona scores and narrates a query.
*/
type Profile struct {
	ID              string           `yaml:"id" json:"id"`
	Role            types.Role       `yaml:"role" json:"role"`
	Name            string           `yaml:"name" json:"name"`
	Axis            int              `yaml:"axis" json:"axis"`
	FocusAxes       []int            `yaml:"focusAxes" json:"focus_axes"`
	Ceiling         float64          `yaml:"ceiling" json:"ceiling"`
	Focus           string           `yaml:"focus" json:"focus"`
	Domains         []string         `yaml:"domains" json:"domains"`
	Keywords        []string         `yaml:"keywords" json:"keywords"`
	Recommendations []Recommendation `yaml:"recommendations" json:"recommendations"`
}

/*
HasDomain reports whether domain is one of the profile domains.
*/
func (profile Profile) HasDomain(domain string) bool {
	domain = strings.ToLower(strings.TrimSpace(domain))

	for _, d := range profile.Domains {
		if d == domain {
			return true
		}
	}

	return false
}

func (profile Profile) clone() Profile {
	out := profile
	out.FocusAxes = append([]int(nil), profile.FocusAxes...)
	out.Domains = append([]string(nil), profile.Domains...)
	out.Keywords = append([]string(nil), profile.Keywords...)
	out.Recommendations = append([]Recommendation(nil), profile.Recommendations...)
	return out
}

/*
SeedNode is a node created when an empty graph is seeded. Key is only used
to wire seed relationships; the graph assigns its own ids.
*/
type SeedNode struct {
	Key         string         `yaml:"key" json:"key"`
	Axis        int            `yaml:"axis" json:"axis"`
	Level       int            `yaml:"level" json:"level"`
	Label       string         `yaml:"label" json:"label"`
	Description string         `yaml:"description" json:"description"`
	Attributes  map[string]any `yaml:"attributes,omitempty" json:"attributes,omitempty"`
}

/*
SeedRelationship connects two seed nodes by key.
*/
type SeedRelationship struct {
	Source string  `yaml:"source" json:"source"`
	Target string  `yaml:"target" json:"target"`
	Type   string  `yaml:"type" json:"type"`
	Weight float64 `yaml:"weight" json:"weight"`
}

/*
Seed is the static data applied to an empty graph.
*/
type Seed struct {
	Nodes         []SeedNode         `yaml:"nodes" json:"nodes"`
	Relationships []SeedRelationship `yaml:"relationships" json:"relationships"`
}

type document struct {
	Axes      []Axis    `yaml:"axes"`
	AxisEdges [][]int   `yaml:"axisEdges"`
	Profiles  []Profile `yaml:"profiles"`
	Seed      Seed      `yaml:"seed"`
}

/*
New returns a Registry built from the embedded catalog.
*/
func New() *Registry {
	registry, err := Load(bytes.NewReader(embedded))

	if err != nil {
		panic(fmt.Sprintf("embedded catalog is invalid: %v", err))
	}

	return registry
}

/*
Load reads a catalog document from r and validates it.
*/
func Load(r io.Reader) (*Registry, error) {
	var doc document

	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, errors.ErrInvalidProfile.WithMessagef("failed to decode catalog: %v", err)
	}

	if err := doc.validate(); err != nil {
		return nil, err
	}

	return newRegistry(doc), nil
}

func (doc *document) validate() error {
	if len(doc.Axes) != AxisCount {
		return errors.ErrInvalidAxis.WithMessagef("catalog defines %d axes, want %d", len(doc.Axes), AxisCount)
	}

	seen := map[int]bool{}

	for _, axis := range doc.Axes {
		if axis.Number < 1 || axis.Number > AxisCount || seen[axis.Number] {
			return errors.ErrInvalidAxis.WithMessagef("invalid or duplicate axis number %d", axis.Number)
		}

		seen[axis.Number] = true
	}

	for _, edge := range doc.AxisEdges {
		if len(edge) != 2 || !ValidAxis(edge[0]) || !ValidAxis(edge[1]) {
			return errors.ErrInvalidAxis.WithMessagef("invalid axis edge %v", edge)
		}
	}

	defaults := map[types.Role]bool{}

	for _, profile := range doc.Profiles {
		if !profile.Role.Valid() {
			return errors.ErrInvalidProfile.WithMessagef("profile %s has unknown role %q", profile.ID, profile.Role)
		}

		if profile.Ceiling <= 0 || profile.Ceiling > 1 {
			return errors.ErrInvalidProfile.WithMessagef("profile %s has ceiling %v outside (0,1]", profile.ID, profile.Ceiling)
		}

		if !ValidAxis(profile.Axis) {
			return errors.ErrInvalidAxis.WithMessagef("profile %s is bound to axis %d", profile.ID, profile.Axis)
		}

		for _, axis := range profile.FocusAxes {
			if !ValidAxis(axis) {
				return errors.ErrInvalidAxis.WithMessagef("profile %s focuses on axis %d", profile.ID, axis)
			}
		}

		if profile.ID == string(profile.Role) {
			defaults[profile.Role] = true
		}
	}

	for _, role := range types.Roles {
		if !defaults[role] {
			return errors.ErrInvalidProfile.WithMessagef("no default profile for role %s", role)
		}
	}

	keys := map[string]bool{}

	for _, node := range doc.Seed.Nodes {
		if !ValidAxis(node.Axis) {
			return errors.ErrInvalidAxis.WithMessagef("seed node %s is on axis %d", node.Key, node.Axis)
		}

		keys[node.Key] = true
	}

	for _, rel := range doc.Seed.Relationships {
		if !keys[rel.Source] || !keys[rel.Target] {
			return errors.ErrUnknownNode.WithMessagef("seed relationship %s -> %s references an unknown key", rel.Source, rel.Target)
		}
	}

	return nil
}

/*
ValidAxis reports whether n is one of the thirteen axis numbers.
*/
func ValidAxis(n int) bool {
	return n >= 1 && n <= AxisCount
}

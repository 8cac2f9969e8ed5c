package catalog

import (
	"sort"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/theapemachine/ukg/pkg/errors"
	"github.com/theapemachine/ukg/pkg/types"
	"github.com/theapemachine/ukg/pkg/utils"
)

/*
Registry holds the axes, the axis influence graph, the persona profiles and
the seed data. It is built once at startup and handed to every component that
needs it; the only mutation after that is CreateDomainPersona.
*/
type Registry struct {
	axes     []Axis
	graph    *AxisGraph
	seed     Seed
	profiles *sync.Map
	domains  *sync.Map
	mu       sync.Mutex
	order    []string
}

func newRegistry(doc document) *Registry {
	axes := append([]Axis(nil), doc.Axes...)
	sort.Slice(axes, func(i, j int) bool { return axes[i].Number < axes[j].Number })

	registry := &Registry{
		axes:     axes,
		graph:    NewAxisGraph(doc.AxisEdges),
		seed:     doc.Seed,
		profiles: new(sync.Map),
		domains:  new(sync.Map),
	}

	for _, profile := range doc.Profiles {
		registry.addProfile(profile)
	}

	return registry
}

func (registry *Registry) addProfile(profile Profile) {
	registry.mu.Lock()
	defer registry.mu.Unlock()

	if _, loaded := registry.profiles.Swap(profile.ID, profile); !loaded {
		registry.order = append(registry.order, profile.ID)
	}
}

/*
Axis returns the axis with number n.
*/
func (registry *Registry) Axis(n int) (Axis, error) {
	if !ValidAxis(n) {
		return Axis{}, errors.ErrInvalidAxis.WithMessagef("axis %d is outside [1,%d]", n, AxisCount)
	}

	return registry.axes[n-1], nil
}

/*
AxisName returns the display name of axis n, or an empty string.
*/
func (registry *Registry) AxisName(n int) string {
	if !ValidAxis(n) {
		return ""
	}

	return registry.axes[n-1].Name
}

/*
Axes returns all thirteen axes in number order.
*/
func (registry *Registry) Axes() []Axis {
	return append([]Axis(nil), registry.axes...)
}

/*
AxisGraph returns the axis influence graph.
*/
func (registry *Registry) AxisGraph() *AxisGraph {
	return registry.graph
}

/*
Seed returns the static seed data.
*/
func (registry *Registry) Seed() Seed {
	return registry.seed
}

/*
Profile returns the profile with the given id.
*/
func (registry *Registry) Profile(id string) (Profile, error) {
	profile, ok := registry.profiles.Load(id)

	if !ok {
		return Profile{}, errors.ErrAlgorithmNotFound.WithMessagef("persona profile %s is not registered", id)
	}

	return profile.(Profile).clone(), nil
}

/*
Profiles returns every profile in registration order.
*/
func (registry *Registry) Profiles() []Profile {
	registry.mu.Lock()
	ids := append([]string(nil), registry.order...)
	registry.mu.Unlock()

	out := make([]Profile, 0, len(ids))

	for _, id := range ids {
		if profile, ok := registry.profiles.Load(id); ok {
			out = append(out, profile.(Profile).clone())
		}
	}

	return out
}

/*
DefaultProfile returns the built-in profile of a role.
*/
func (registry *Registry) DefaultProfile(role types.Role) (Profile, error) {
	if !role.Valid() {
		return Profile{}, errors.ErrAlgorithmNotFound.WithMessagef("unknown persona role %q", role)
	}

	return registry.Profile(string(role))
}

/*
ProfileForDomain returns the domain-specific profile of a role when one was
created for domain, otherwise the role default.
*/
func (registry *Registry) ProfileForDomain(role types.Role, domain string) (Profile, error) {
	if id, ok := registry.domains.Load(domainKey(role, domain)); ok {
		return registry.Profile(id.(string))
	}

	return registry.DefaultProfile(role)
}

/*
CreateDomainPersona registers a profile for role specialised to domain. The
new profile copies the role default, adds the domain and the extra keywords,
and becomes the profile ProfileForDomain returns for that domain. Calling it
again for the same domain merges the keywords.
*/
func (registry *Registry) CreateDomainPersona(domain string, role types.Role, keywords []string) (Profile, error) {
	domain = normalizeDomain(domain)

	if domain == "" {
		return Profile{}, errors.ErrInvalidProfile.WithMessagef("a domain is required")
	}

	def, err := registry.DefaultProfile(role)
	if err != nil {
		return Profile{}, err
	}

	base := def

	id := string(role) + "-" + strings.ReplaceAll(domain, " ", "-")

	if existing, err := registry.Profile(id); err == nil {
		base = existing
	}

	extra := make([]string, 0, len(keywords))
	for _, keyword := range keywords {
		if keyword = strings.ToLower(strings.TrimSpace(keyword)); keyword != "" {
			extra = append(extra, keyword)
		}
	}

	profile := base.clone()
	profile.ID = id
	profile.Name = def.Name + " (" + domain + ")"

	profile.Domains = utils.Dedupe(append([]string{domain}, base.Domains...))
	profile.Keywords = utils.Dedupe(append(profile.Keywords, extra...))

	registry.addProfile(profile)
	registry.domains.Store(domainKey(role, domain), id)

	log.Info("created domain persona", "id", id, "role", role, "domain", domain, "keywords", len(profile.Keywords))
	return profile.clone(), nil
}

/*
DomainPersonas returns the domain to profile id mapping of role.
*/
func (registry *Registry) DomainPersonas(role types.Role) map[string]string {
	out := map[string]string{}
	prefix := string(role) + "/"

	registry.domains.Range(func(key, value any) bool {
		if k := key.(string); strings.HasPrefix(k, prefix) {
			out[strings.TrimPrefix(k, prefix)] = value.(string)
		}

		return true
	})

	return out
}

func domainKey(role types.Role, domain string) string {
	return string(role) + "/" + normalizeDomain(domain)
}

func normalizeDomain(domain string) string {
	return strings.Join(strings.Fields(strings.ToLower(domain)), " ")
}

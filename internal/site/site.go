// Package site holds the per-site extraction adapters and their registry.
// Each adapter maps one site's HTML shape onto the common record shape;
// the harvesting core is agnostic to everything in here.
package site

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/inmodata/inmoharvest/internal/fetch"
	"github.com/inmodata/inmoharvest/internal/model"
)

// Site is one harvestable listing source.
type Site interface {
	// Name is the unique identifier used in config and CLI args.
	Name() string

	// DefaultStartURL is the listing URL harvested when config supplies none.
	DefaultStartURL() string

	// FetchOptions declares which fetch tiers this site needs.
	FetchOptions() fetch.Options

	// Extract parses one listing page into properties in document order.
	// An empty slice signals end of listing.
	Extract(pageHTML string) ([]model.Property, error)

	// DetailURL reports the detail page to enrich a property from, or
	// ok=false when the property has none.
	DetailURL(p model.Property) (string, bool)

	// MergeDetail merges detail-page fields into the property.
	MergeDetail(p model.Property, detailHTML string) (model.Property, error)
}

// Registry maps site names to their adapters, preserving registration order.
type Registry struct {
	sites map[string]Site
	order []string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{sites: make(map[string]Site)}
}

// DefaultRegistry returns a registry with all shipped site adapters.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(NewAssetplan())
	r.Register(NewBluehome())
	r.Register(NewSomma())
	return r
}

// Register adds a site adapter.
func (r *Registry) Register(s Site) {
	name := s.Name()
	r.sites[name] = s
	r.order = append(r.order, name)
}

// Get returns a site by name.
func (r *Registry) Get(name string) (Site, error) {
	s, ok := r.sites[name]
	if !ok {
		return nil, eris.Errorf("site: unknown site %q (known: %s)",
			name, strings.Join(r.order, ", "))
	}
	return s, nil
}

// All returns all sites in registration order.
func (r *Registry) All() []Site {
	out := make([]Site, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.sites[name])
	}
	return out
}

// Names returns all registered site names in registration order.
func (r *Registry) Names() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

var (
	intRe = regexp.MustCompile(`(\d+)`)
	numRe = regexp.MustCompile(`(\d+(?:[.,]\d+)?)`)
)

// firstInt returns the first integer found in s, or def.
func firstInt(s, def string) string {
	if m := intRe.FindString(s); m != "" {
		return m
	}
	return def
}

// firstNum returns the first number (decimal comma or point) found in s.
func firstNum(s string) string {
	return numRe.FindString(strings.ReplaceAll(s, ",", "."))
}

// absURL resolves href against base. Returns href unchanged when it is
// already absolute or base does not parse.
func absURL(base, href string) string {
	if href == "" {
		return ""
	}
	b, err := url.Parse(base)
	if err != nil {
		return href
	}
	h, err := url.Parse(href)
	if err != nil {
		return href
	}
	return b.ResolveReference(h).String()
}

// cleanText collapses runs of whitespace to single spaces.
func cleanText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

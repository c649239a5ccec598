// Package sources implements the interchangeable strategies that resolve an
// establishment identifier against one upstream representation each.
package sources

import (
	"context"
	"net/url"
	"strings"

	"github.com/ppiankov/estlookup/internal/model"
	"github.com/ppiankov/estlookup/internal/normalize"
)

// Fetcher performs a single upstream GET
type Fetcher interface {
	Fetch(ctx context.Context, req model.FetchRequest) (*model.FetchResponse, error)
}

// Source resolves a LookupRequest against one upstream representation.
// A returned error is an unexpected fault; not-found is a Result.
type Source interface {
	// Name returns the selector this source answers to
	Name() model.Source

	// Resolve runs the strategy for one request
	Resolve(ctx context.Context, req model.LookupRequest) (model.Result, error)
}

// Registry holds the closed set of sources keyed by selector
type Registry struct {
	sources map[model.Source]Source
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{sources: make(map[model.Source]Source)}
}

// Register adds or replaces the source for its selector
func (r *Registry) Register(s Source) {
	r.sources[s.Name()] = s
}

// Find returns the source registered for sel
func (r *Registry) Find(sel model.Source) (Source, bool) {
	s, ok := r.sources[sel]
	return s, ok
}

// Names lists registered selectors in canonical order
func (r *Registry) Names() []model.Source {
	var names []model.Source
	for _, s := range model.AllSources() {
		if _, ok := r.sources[s]; ok {
			names = append(names, s)
		}
	}
	return names
}

// expandTemplate fills {id}, {prefix}, {est} and {code} placeholders.
// {code} is path-escaped, the others query-escaped.
func expandTemplate(tmpl string, req model.LookupRequest, code string) string {
	r := strings.NewReplacer(
		"{id}", url.QueryEscape(normalize.Prefixed(req.Prefix, req.EstablishmentCode)),
		"{prefix}", url.QueryEscape(normalize.Code(req.Prefix)),
		"{est}", url.QueryEscape(normalize.Code(req.EstablishmentCode)),
		"{code}", url.PathEscape(code),
	)
	return r.Replace(tmpl)
}

// Dependencies are the shared collaborators handed to every source
type Dependencies struct {
	Fetcher Fetcher
	Tables  *TableStore
	Robots  RobotsPolicy // optional
}

// NewDefaultRegistry registers all seven sources from cfg
func NewDefaultRegistry(deps Dependencies, cfg *model.Config) *Registry {
	if deps.Tables == nil {
		deps.Tables = NewTableStore(cfg.Cache.LocalTable)
	}

	ua := cfg.HTTP.UserAgent
	src := cfg.Sources

	r := NewRegistry()
	r.Register(NewStructuredAPISource(deps.Fetcher, src.StructuredAPI.URLs, ua))
	r.Register(NewBulkTextSource(deps.Fetcher, src.BulkText.URL, ua, cfg.HTTP.BulkMaxBodyBytes))
	r.Register(NewMarkupScrapeSource(deps.Fetcher, src.MarkupScrape, cfg.HTTP.BrowserUserAgent, deps.Robots))
	r.Register(NewLocalTableSource(deps.Tables, src.LocalTable.Path))
	r.Register(NewRecallSource(deps.Fetcher, src.Recall.URL, ua))
	r.Register(NewRegistrationSource(deps.Fetcher, src.Registration.URL, ua))
	r.Register(NewPackagerCodeSource(deps.Fetcher, src.PackagerCode.URL, ua))
	return r
}

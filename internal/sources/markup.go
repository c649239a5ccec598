package sources

import (
	"context"
	"net/url"

	"github.com/rotisserie/eris"

	"github.com/ppiankov/estlookup/internal/model"
	"github.com/ppiankov/estlookup/internal/normalize"
)

const htmlAccept = "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8"

// RobotsPolicy decides whether a page may be fetched
type RobotsPolicy interface {
	Allowed(ctx context.Context, rawURL string) (bool, error)
}

// MarkupScrapeSource queries an HTML search page meant for people and reads
// the first result row out of the markup.
type MarkupScrapeSource struct {
	fetcher   Fetcher
	cfg       model.MarkupScrapeConfig
	userAgent string
	extractor *MarkupExtractor
	robots    RobotsPolicy
}

// NewMarkupScrapeSource creates the source. robots may be nil.
func NewMarkupScrapeSource(f Fetcher, cfg model.MarkupScrapeConfig, browserUA string, robots RobotsPolicy) *MarkupScrapeSource {
	return &MarkupScrapeSource{
		fetcher:   f,
		cfg:       cfg,
		userAgent: browserUA,
		extractor: NewMarkupExtractor(cfg.Markers),
		robots:    robots,
	}
}

// Name returns the selector
func (s *MarkupScrapeSource) Name() model.Source {
	return model.SourceMarkupScrape
}

// SearchURL embeds the prefixed code and sets every unused facet to All
func (s *MarkupScrapeSource) SearchURL(req model.LookupRequest) (string, error) {
	base, err := url.Parse(s.cfg.URL)
	if err != nil {
		return "", eris.Wrap(err, "markup-scrape: parse search URL")
	}

	param := s.cfg.QueryParam
	if param == "" {
		param = "keywords"
	}

	q := base.Query()
	q.Set(param, normalize.Prefixed(req.Prefix, req.EstablishmentCode))
	for _, facet := range s.cfg.Facets {
		q.Set(facet, "All")
	}
	base.RawQuery = q.Encode()
	return base.String(), nil
}

// Resolve fetches the search page and extracts the first result row
func (s *MarkupScrapeSource) Resolve(ctx context.Context, req model.LookupRequest) (model.Result, error) {
	u, err := s.SearchURL(req)
	if err != nil {
		return model.Result{}, err
	}

	if s.cfg.RespectRobots && s.robots != nil {
		allowed, err := s.robots.Allowed(ctx, u)
		if err != nil {
			return model.Result{}, eris.Wrap(err, "markup-scrape: robots check")
		}
		if !allowed {
			return model.NotFound(model.Diagnostics{"url": u, "robots": "disallowed"}), nil
		}
	}

	resp, err := s.fetcher.Fetch(ctx, model.FetchRequest{
		URL:       u,
		Accept:    htmlAccept,
		UserAgent: s.userAgent,
		Headers:   map[string]string{"Accept-Language": "en-US,en;q=0.9"},
	})
	if err != nil {
		return model.Result{}, eris.Wrap(err, "markup-scrape: fetch search page")
	}
	if !resp.OK() {
		return model.NotFound(model.Diagnostics{"url": u, "status": resp.Meta.StatusCode}), nil
	}

	markup := resp.Text()
	fields := s.extractor.Extract(markup)
	if fields.Name == nil {
		d := s.extractor.Diagnose(markup)
		diag := model.Diagnostics{
			"url":             u,
			"results_section": d.ResultsSection,
		}
		if d.Excerpt != "" {
			diag["excerpt"] = d.Excerpt
		}
		return model.NotFound(diag), nil
	}

	return model.Found(fields.Record()), nil
}

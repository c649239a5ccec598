package sources

import (
	"context"

	"github.com/tidwall/gjson"

	"github.com/ppiankov/estlookup/internal/model"
	"github.com/ppiankov/estlookup/internal/normalize"
)

// PackagerCodeSource resolves a country/number/suffix packager code against a
// public food-products database, trying the concatenated then hyphenated form.
type PackagerCodeSource struct {
	fetcher   Fetcher
	template  string
	userAgent string
}

// NewPackagerCodeSource creates the source from a {code} URL template
func NewPackagerCodeSource(f Fetcher, template, userAgent string) *PackagerCodeSource {
	return &PackagerCodeSource{fetcher: f, template: template, userAgent: userAgent}
}

// Name returns the selector
func (s *PackagerCodeSource) Name() model.Source {
	return model.SourcePackagerCode
}

// Resolve returns {found, name, city} for the first variant naming a packager
func (s *PackagerCodeSource) Resolve(ctx context.Context, req model.LookupRequest) (model.Result, error) {
	variants := normalize.PackagerVariants(req.CountryCode, req.SequenceNumber, req.Suffix)

	urls := make([]string, len(variants))
	for i, v := range variants {
		urls[i] = expandTemplate(s.template, req, v)
	}

	match, _, ok := FirstSuccess(ctx, string(s.Name()), urls, s.attempt)
	if !ok {
		return model.NotFound(nil), nil
	}
	return model.FoundPackager(match.Name, match.City), nil
}

func (s *PackagerCodeSource) attempt(ctx context.Context, u string) (model.PackagerMatch, bool, error) {
	resp, err := s.fetcher.Fetch(ctx, model.FetchRequest{
		URL:       u,
		Accept:    "application/json",
		UserAgent: s.userAgent,
	})
	if err != nil {
		return model.PackagerMatch{}, false, err
	}
	if !resp.OK() || !gjson.ValidBytes(resp.Body) {
		return model.PackagerMatch{}, false, nil
	}

	name := gjson.GetBytes(resp.Body, "packager_code.name")
	if name.Type != gjson.String || name.String() == "" {
		return model.PackagerMatch{}, false, nil
	}

	var city *string
	if c := gjson.GetBytes(resp.Body, "packager_code.city"); c.Type == gjson.String {
		city = model.NullString(c.String())
	}

	return model.PackagerMatch{Name: name.String(), City: city}, true, nil
}

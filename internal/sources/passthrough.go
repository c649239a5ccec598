package sources

import (
	"bytes"
	"context"
	"encoding/json"

	"github.com/rotisserie/eris"
	"github.com/tidwall/gjson"

	"github.com/ppiankov/estlookup/internal/model"
)

// PassthroughSource is a single-endpoint JSON lookup whose parsed body is
// handed back as-is. Used for recall and registration records.
type PassthroughSource struct {
	name      model.Source
	fetcher   Fetcher
	template  string
	userAgent string
}

// NewRecallSource queries recall records for the prefixed establishment id
func NewRecallSource(f Fetcher, template, userAgent string) *PassthroughSource {
	return &PassthroughSource{name: model.SourceRecall, fetcher: f, template: template, userAgent: userAgent}
}

// NewRegistrationSource queries registration-facility records by bare code
func NewRegistrationSource(f Fetcher, template, userAgent string) *PassthroughSource {
	return &PassthroughSource{name: model.SourceRegistration, fetcher: f, template: template, userAgent: userAgent}
}

// Name returns the selector
func (s *PassthroughSource) Name() model.Source {
	return s.name
}

// Resolve issues one GET. Non-2xx is not-found; an unparsable 2xx body is an error.
func (s *PassthroughSource) Resolve(ctx context.Context, req model.LookupRequest) (model.Result, error) {
	u := expandTemplate(s.template, req, "")

	resp, err := s.fetcher.Fetch(ctx, model.FetchRequest{
		URL:       u,
		Accept:    "application/json",
		UserAgent: s.userAgent,
	})
	if err != nil {
		return model.Result{}, eris.Wrapf(err, "%s: fetch", s.name)
	}

	if !resp.OK() {
		return model.NotFound(model.Diagnostics{"status": resp.Meta.StatusCode}), nil
	}

	if !gjson.ValidBytes(resp.Body) {
		return model.Result{}, eris.Errorf("%s: response is not valid JSON", s.name)
	}

	return model.Found(json.RawMessage(bytes.TrimSpace(resp.Body))), nil
}

package sources

import (
	"bytes"
	"context"
	"encoding/json"

	"github.com/rotisserie/eris"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"github.com/ppiankov/estlookup/internal/model"
)

// StructuredAPISource queries a JSON API that has exposed the same data under
// several query shapes over time, accepting the first that answers with JSON.
type StructuredAPISource struct {
	fetcher   Fetcher
	templates []string
	userAgent string
}

// NewStructuredAPISource creates the source from ordered URL templates
func NewStructuredAPISource(f Fetcher, templates []string, userAgent string) *StructuredAPISource {
	return &StructuredAPISource{fetcher: f, templates: templates, userAgent: userAgent}
}

// Name returns the selector
func (s *StructuredAPISource) Name() model.Source {
	return model.SourceStructuredAPI
}

// Resolve tries every candidate URL in order
func (s *StructuredAPISource) Resolve(ctx context.Context, req model.LookupRequest) (model.Result, error) {
	urls := make([]string, len(s.templates))
	for i, tmpl := range s.templates {
		urls[i] = expandTemplate(tmpl, req, "")
	}

	data, winner, ok := FirstSuccess(ctx, string(s.Name()), urls, s.attempt)
	if !ok {
		return model.NotFound(model.Diagnostics{"tried": urls}), nil
	}
	return model.FoundAt(data, winner), nil
}

func (s *StructuredAPISource) attempt(ctx context.Context, u string) (json.RawMessage, bool, error) {
	resp, err := s.fetcher.Fetch(ctx, model.FetchRequest{
		URL:       u,
		Accept:    "application/json",
		UserAgent: s.userAgent,
	})
	if err != nil {
		return nil, false, err
	}

	zap.L().Debug("structured-api candidate",
		zap.String("url", u),
		zap.Int("status", resp.Meta.StatusCode),
		zap.String("body", preview(resp.Body, 300)),
	)

	// HTML error pages arrive with 200; require an object delimiter
	if !resp.OK() || !bytes.Contains(resp.Body, []byte("{")) {
		return nil, false, nil
	}
	if !gjson.ValidBytes(resp.Body) {
		return nil, false, eris.Errorf("structured-api: invalid JSON from %s", u)
	}

	return json.RawMessage(bytes.TrimSpace(resp.Body)), true, nil
}

func preview(b []byte, n int) string {
	if len(b) > n {
		b = b[:n]
	}
	return string(b)
}

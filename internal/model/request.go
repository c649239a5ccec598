package model

import (
	"net/url"
	"strings"

	"github.com/rotisserie/eris"
)

// Source selects the strategy used to resolve an identifier
type Source string

const (
	SourceStructuredAPI Source = "structured-api" // JSON API with historical URL shapes
	SourceBulkText      Source = "bulk-text"      // weekly directory CSV, linear scan
	SourceMarkupScrape  Source = "markup-scrape"  // HTML search page
	SourceLocalTable    Source = "local-table"    // bundled key -> record mapping
	SourceRecall        Source = "recall"         // recall records, pass-through
	SourceRegistration  Source = "registration"   // registration-facility records, pass-through
	SourcePackagerCode  Source = "packager-code"  // country/number/suffix packager database
)

// DefaultPrefix is the facility-type prefix assumed when the caller sends none
const DefaultPrefix = "M"

// ErrUnknownSource is returned for a selector outside the recognized set
var ErrUnknownSource = eris.New("Unknown source")

// sourceAliases maps the selector values used by earlier deployments
var sourceAliases = map[string]Source{
	"fsis":        SourceBulkText,
	"fsis_api":    SourceStructuredAPI,
	"fsis_recall": SourceRecall,
	"fda":         SourceRegistration,
	"off":         SourcePackagerCode,
	"local":       SourceLocalTable,
	"scrape":      SourceMarkupScrape,
}

// AllSources lists the canonical selectors in a stable order
func AllSources() []Source {
	return []Source{
		SourceStructuredAPI,
		SourceBulkText,
		SourceMarkupScrape,
		SourceLocalTable,
		SourceRecall,
		SourceRegistration,
		SourcePackagerCode,
	}
}

// ParseSource resolves a canonical name or legacy alias into a Source
func ParseSource(raw string) (Source, error) {
	key := strings.ToLower(strings.TrimSpace(raw))
	for _, s := range AllSources() {
		if key == string(s) {
			return s, nil
		}
	}
	if s, ok := sourceAliases[key]; ok {
		return s, nil
	}
	return "", eris.Wrapf(ErrUnknownSource, "source %q", raw)
}

// LookupRequest is the normalized input handed to a strategy
type LookupRequest struct {
	Source            Source `json:"source"`
	EstablishmentCode string `json:"est,omitempty"`
	Prefix            string `json:"prefix,omitempty"`
	CountryCode       string `json:"cc,omitempty"`
	SequenceNumber    string `json:"num,omitempty"`
	Suffix            string `json:"sfx,omitempty"`
}

// RequestFromQuery builds a LookupRequest from the inbound query parameters
// source, est, prefix, cc, num and sfx. An empty prefix falls back to "M".
func RequestFromQuery(q url.Values) (LookupRequest, error) {
	src, err := ParseSource(q.Get("source"))
	if err != nil {
		return LookupRequest{}, err
	}

	prefix := q.Get("prefix")
	if prefix == "" {
		prefix = DefaultPrefix
	}

	return LookupRequest{
		Source:            src,
		EstablishmentCode: q.Get("est"),
		Prefix:            prefix,
		CountryCode:       q.Get("cc"),
		SequenceNumber:    q.Get("num"),
		Suffix:            q.Get("sfx"),
	}, nil
}

package sources

import (
	"context"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/ppiankov/estlookup/internal/model"
	"github.com/ppiankov/estlookup/internal/normalize"
)

// BulkTextSource downloads the full directory export on every call and scans
// it linearly. The upstream offers no filtering or pagination.
type BulkTextSource struct {
	fetcher   Fetcher
	url       string
	userAgent string
	maxBytes  int64
}

// NewBulkTextSource creates the source for the export at url
func NewBulkTextSource(f Fetcher, url, userAgent string, maxBytes int64) *BulkTextSource {
	return &BulkTextSource{fetcher: f, url: url, userAgent: userAgent, maxBytes: maxBytes}
}

// Name returns the selector
func (s *BulkTextSource) Name() model.Source {
	return model.SourceBulkText
}

// Resolve fetches the export and scans it for the request's code
func (s *BulkTextSource) Resolve(ctx context.Context, req model.LookupRequest) (model.Result, error) {
	resp, err := s.fetcher.Fetch(ctx, model.FetchRequest{
		URL:       s.url,
		UserAgent: s.userAgent,
		MaxBytes:  s.maxBytes,
	})
	if err != nil {
		return model.Result{}, eris.Wrap(err, "bulk-text: fetch export")
	}

	if !resp.OK() {
		res := model.NotFound(model.Diagnostics{"status": resp.Meta.StatusCode})
		res.Error = fmt.Sprintf("CSV fetch failed: %d", resp.Meta.StatusCode)
		return res, nil
	}

	record, diag, ok := ScanDirectory(resp.Text(), req.Prefix, req.EstablishmentCode)
	if !ok {
		zap.L().Info("bulk-text: no matching row",
			zap.Strings("searched", normalize.Candidates(req.Prefix, req.EstablishmentCode)),
			zap.Any("total_rows", diag["total_rows"]),
		)
		return model.NotFound(diag), nil
	}
	return model.Found(record), nil
}

// ScanDirectory finds the first row of text whose id column matches the
// candidates for prefix+code. A row matches when its id equals a candidate or
// ends with the bare code. The suffix rule tolerates zero padding, and it
// also matches any longer id that shares the suffix: "M1969" answers a
// lookup for "969" when it comes first.
func ScanDirectory(text, prefix, code string) (*model.EstablishmentRecord, model.Diagnostics, bool) {
	lines := strings.Split(text, "\n")
	header := NormalizeHeader(lines[0])
	cols := DiscoverColumns(header)

	candidates := normalize.Candidates(prefix, code)
	bare := normalize.Code(code)

	for _, line := range lines[1:] {
		if strings.TrimSpace(line) == "" {
			continue
		}

		cells := SplitCSVLine(line)
		rowID := strings.ToUpper(cols.Cell(cells, FieldID))
		if !idMatches(rowID, candidates, bare) {
			continue
		}

		return &model.EstablishmentRecord{
			EstablishmentName: model.NullString(cols.Cell(cells, FieldName)),
			Address:           model.NullString(cols.Cell(cells, FieldAddress)),
			City:              model.NullString(cols.Cell(cells, FieldCity)),
			State:             model.NullString(cols.Cell(cells, FieldState)),
			Activities:        model.NullString(cols.Cell(cells, FieldActivities)),
			EstablishmentID:   &rowID,
		}, nil, true
	}

	diag := model.Diagnostics{
		"searched":   candidates,
		"total_rows": len(lines),
		"headers":    header,
	}
	if len(lines) > 1 {
		diag["sample"] = lines[1]
	}
	if missing := cols.Missing(); len(missing) > 0 {
		diag["missing_columns"] = missing
	}
	return nil, diag, false
}

func idMatches(rowID string, candidates []string, bare string) bool {
	if rowID == "" {
		return false
	}
	for _, c := range candidates {
		if rowID == c {
			return true
		}
	}
	return bare != "" && strings.HasSuffix(rowID, bare)
}

package sources

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/ppiankov/estlookup/internal/model"
	"github.com/ppiankov/estlookup/internal/normalize"
)

// LocalTableSource resolves against a pre-built key -> record mapping with no
// network access
type LocalTableSource struct {
	store *TableStore
	path  string
}

// NewLocalTableSource creates the source for the table at path ("" = embedded)
func NewLocalTableSource(store *TableStore, path string) *LocalTableSource {
	return &LocalTableSource{store: store, path: path}
}

// Name returns the selector
func (s *LocalTableSource) Name() model.Source {
	return model.SourceLocalTable
}

// Resolve looks up the prefixed then bare key
func (s *LocalTableSource) Resolve(ctx context.Context, req model.LookupRequest) (model.Result, error) {
	table, err := s.store.Get(ctx, s.path)
	if err != nil {
		return model.Result{}, eris.Wrap(err, "local-table: load")
	}

	rec, _, ok := table.Lookup(normalize.Candidates(req.Prefix, req.EstablishmentCode))
	if !ok {
		return model.NotFound(nil), nil
	}
	return model.Found(rec.Expand()), nil
}

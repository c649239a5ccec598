package sources

import (
	"bytes"
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/ppiankov/estlookup/internal/cache"
	"github.com/ppiankov/estlookup/internal/model"
	"github.com/ppiankov/estlookup/internal/normalize"
)

//go:embed data/establishments.json
var embeddedTable []byte

// EmbeddedTableName is the cache key and display name of the bundled table
const EmbeddedTableName = "embedded"

// Table maps a normalized establishment key to its compact record.
// It is never mutated after load.
type Table map[string]model.CompactRecord

// Lookup returns the record for the first candidate present in the table
func (t Table) Lookup(candidates []string) (model.CompactRecord, string, bool) {
	for _, key := range candidates {
		if rec, ok := t[key]; ok {
			return rec, key, true
		}
	}
	return model.CompactRecord{}, "", false
}

// ParseTable decodes a JSON table and normalizes its keys
func ParseTable(data []byte) (Table, error) {
	var raw map[string]model.CompactRecord
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, eris.Wrap(err, "local-table: decode JSON")
	}

	table := make(Table, len(raw))
	for k, rec := range raw {
		table[normalize.Code(k)] = rec
	}
	return table, nil
}

// LoadTable reads the table at path. An empty path selects the embedded
// table; .db, .sqlite and .sqlite3 files are read as SQLite.
func LoadTable(ctx context.Context, path string) (Table, error) {
	if path == "" || path == EmbeddedTableName {
		return ParseTable(embeddedTable)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".db", ".sqlite", ".sqlite3":
		return loadSQLiteTable(ctx, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "local-table: read %s", path)
	}
	return ParseTable(data)
}

// loadSQLiteTable reads the establishments(key, name, address, city, state,
// activities) table of a read-only SQLite file.
func loadSQLiteTable(ctx context.Context, path string) (Table, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, eris.Wrapf(err, "local-table: stat %s", path)
	}

	db, err := sql.Open("sqlite", "file:"+path+"?mode=ro")
	if err != nil {
		return nil, eris.Wrap(err, "local-table: open sqlite")
	}
	defer func() { _ = db.Close() }()

	rows, err := db.QueryContext(ctx,
		`SELECT key, name, COALESCE(address, ''), COALESCE(city, ''), COALESCE(state, ''), COALESCE(activities, '')
		   FROM establishments`)
	if err != nil {
		return nil, eris.Wrap(err, "local-table: query establishments")
	}
	defer func() { _ = rows.Close() }()

	table := make(Table)
	for rows.Next() {
		var key string
		var rec model.CompactRecord
		if err := rows.Scan(&key, &rec.Name, &rec.Address, &rec.City, &rec.State, &rec.Activities); err != nil {
			return nil, eris.Wrap(err, "local-table: scan row")
		}
		table[normalize.Code(key)] = rec
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "local-table: iterate rows")
	}
	return table, nil
}

// TableStore loads tables on demand and optionally keeps them for the life
// of the process. Tables are read-only, so sharing needs no locking.
type TableStore struct {
	cache cache.Cache[Table]
}

// NewTableStore creates a store; cached=false re-reads the table every call
func NewTableStore(cached bool) *TableStore {
	s := &TableStore{}
	if cached {
		s.cache = cache.NewMemoryCache[Table](cache.NoExpiration, time.Hour)
	}
	return s
}

// Get returns the table at path, loading it when not cached
func (s *TableStore) Get(ctx context.Context, path string) (Table, error) {
	key := path
	if key == "" {
		key = EmbeddedTableName
	}

	if s.cache != nil {
		if t, ok := s.cache.Get(key); ok {
			return t, nil
		}
	}

	t, err := LoadTable(ctx, path)
	if err != nil {
		return nil, err
	}
	zap.L().Info("local table loaded", zap.String("table", key), zap.Int("entries", len(t)))

	if s.cache != nil {
		_ = s.cache.Set(key, t, 0)
	}
	return t, nil
}

// BuildTable converts a directory export into a table keyed by the
// normalized id column. Rows without an id or name are skipped; the first
// row wins on duplicate ids.
func BuildTable(text string) (Table, error) {
	lines := strings.Split(text, "\n")
	cols := DiscoverColumns(NormalizeHeader(lines[0]))
	if cols[FieldID] < 0 || cols[FieldName] < 0 {
		return nil, eris.Errorf("local-table: export is missing columns %v", cols.Missing())
	}

	table := make(Table)
	for _, line := range lines[1:] {
		if strings.TrimSpace(line) == "" {
			continue
		}
		cells := SplitCSVLine(line)
		key := normalize.Code(cols.Cell(cells, FieldID))
		name := cols.Cell(cells, FieldName)
		if key == "" || name == "" {
			continue
		}
		if _, dup := table[key]; dup {
			continue
		}
		table[key] = model.CompactRecord{
			Name:       name,
			Address:    cols.Cell(cells, FieldAddress),
			City:       cols.Cell(cells, FieldCity),
			State:      cols.Cell(cells, FieldState),
			Activities: cols.Cell(cells, FieldActivities),
		}
	}
	return table, nil
}

// MarshalTable encodes a table as indented JSON with sorted keys
func MarshalTable(t Table) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	if err := enc.Encode(t); err != nil {
		return nil, eris.Wrap(err, "local-table: encode JSON")
	}
	return buf.Bytes(), nil
}

// WriteSQLiteTable replaces path with a SQLite file holding t in the
// layout loadSQLiteTable reads.
func WriteSQLiteTable(ctx context.Context, path string, t Table) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return eris.Wrapf(err, "local-table: remove %s", path)
	}

	db, err := sql.Open("sqlite", "file:"+path)
	if err != nil {
		return eris.Wrap(err, "local-table: open sqlite")
	}
	defer func() { _ = db.Close() }()

	if _, err := db.ExecContext(ctx, `CREATE TABLE establishments (
		key TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		address TEXT,
		city TEXT,
		state TEXT,
		activities TEXT
	)`); err != nil {
		return eris.Wrap(err, "local-table: create table")
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "local-table: begin")
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO establishments (key, name, address, city, state, activities) VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return eris.Wrap(err, "local-table: prepare insert")
	}
	defer func() { _ = stmt.Close() }()

	for key, rec := range t {
		if _, err := stmt.ExecContext(ctx, key, rec.Name, rec.Address, rec.City, rec.State, rec.Activities); err != nil {
			return eris.Wrapf(err, "local-table: insert %s", key)
		}
	}

	if err := tx.Commit(); err != nil {
		return eris.Wrap(err, "local-table: commit")
	}
	return nil
}

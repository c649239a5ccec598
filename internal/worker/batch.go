package worker

import (
	"bufio"
	"context"
	"net/url"
	"os"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"

	"github.com/ppiankov/estlookup/internal/model"
)

// Resolver defines the interface for resolving one lookup
type Resolver interface {
	Resolve(ctx context.Context, req model.LookupRequest) model.Result
}

// Entry is one parsed line of a batch file
type Entry struct {
	Line    int
	Raw     string
	Request model.LookupRequest
	Err     error // set when the line names an unknown source
}

// LookupJob resolves one batch entry
type LookupJob struct {
	ID       string
	Index    int
	Entry    Entry
	Resolver Resolver
}

// Execute executes the lookup job
func (j *LookupJob) Execute(ctx context.Context) Result {
	out := &LookupResult{ID: j.ID, Index: j.Index, Entry: j.Entry}
	if j.Entry.Err != nil {
		out.Error = j.Entry.Err
		return out
	}
	out.Result = j.Resolver.Resolve(ctx, j.Entry.Request)
	return out
}

// LookupResult represents the result of a lookup job
type LookupResult struct {
	ID     string
	Index  int
	Entry  Entry
	Result model.Result
	Error  error
}

// GetError returns the input error, if any
func (r *LookupResult) GetError() error {
	return r.Error
}

// BatchProcessor resolves many lookups concurrently
type BatchProcessor struct {
	resolver    Resolver
	concurrency int
}

// NewBatchProcessor creates a new batch processor
func NewBatchProcessor(resolver Resolver, concurrency int) *BatchProcessor {
	return &BatchProcessor{
		resolver:    resolver,
		concurrency: concurrency,
	}
}

// Process resolves entries on the worker pool and returns results in input order
func (b *BatchProcessor) Process(ctx context.Context, entries []Entry) []*LookupResult {
	if len(entries) == 0 {
		return []*LookupResult{}
	}

	pool := NewPool(ctx, b.concurrency)
	pool.Start()

	for i, entry := range entries {
		pool.Submit(&LookupJob{
			ID:       uuid.NewString(),
			Index:    i,
			Entry:    entry,
			Resolver: b.resolver,
		})
	}

	results := pool.Wait()

	out := make([]*LookupResult, 0, len(results))
	for _, r := range results {
		out = append(out, r.(*LookupResult))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Index < out[j].Index })
	return out
}

// ProcessFile reads entries from a file and processes them concurrently
func (b *BatchProcessor) ProcessFile(ctx context.Context, filePath string) ([]*LookupResult, error) {
	entries, err := ReadEntriesFromFile(filePath)
	if err != nil {
		return nil, eris.Wrap(err, "batch: read entries")
	}
	return b.Process(ctx, entries), nil
}

// ReadEntriesFromFile reads one query string per line, e.g.
// "source=bulk-text&est=969&prefix=M". Blank lines and # comments are
// skipped and repeated lines are kept once.
func ReadEntriesFromFile(filePath string) ([]Entry, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, eris.Wrap(err, "batch: open file")
	}
	defer func() { _ = file.Close() }()

	var entries []Entry
	seen := make(map[string]bool)

	scanner := bufio.NewScanner(file)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())

		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if seen[line] {
			continue
		}
		seen[line] = true

		entries = append(entries, ParseEntry(lineNo, line))
	}

	if err := scanner.Err(); err != nil {
		return nil, eris.Wrap(err, "batch: scan file")
	}

	return entries, nil
}

// ParseEntry parses one batch line
func ParseEntry(lineNo int, line string) Entry {
	entry := Entry{Line: lineNo, Raw: line}

	q, err := url.ParseQuery(strings.TrimPrefix(line, "?"))
	if err != nil {
		entry.Err = eris.Wrap(err, "batch: parse query")
		return entry
	}

	entry.Request, entry.Err = model.RequestFromQuery(q)
	return entry
}

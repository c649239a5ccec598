package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/ppiankov/estlookup/internal/model"
	"github.com/ppiankov/estlookup/internal/pipeline"
	"github.com/ppiankov/estlookup/internal/worker"
)

var (
	concurrency  int
	batchOut     string
	batchTimeout time.Duration
	batchRPS     float64
	batchBurst   int
)

// batchCmd represents the batch command
var batchCmd = &cobra.Command{
	Use:   "batch <file>",
	Short: "Resolve many identifiers from a file in parallel",
	Long: `Batch resolves one lookup per line of the input file. Each line is a
query string with the same parameters the HTTP endpoint accepts; blank
lines and lines starting with # are ignored, repeated lines run once.

Results are written as JSON lines in input order. Upstream calls are
paced per host.

Example:
  estlookup batch lookups.txt
  estlookup batch lookups.txt --concurrency 8 --out results.jsonl
  estlookup batch lookups.txt --rps 1 --burst 1

Input:
  source=local-table&est=969
  source=structured-api&est=969&prefix=P
  source=packager-code&cc=fr&num=35.360.003&sfx=ce`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().IntVar(&concurrency, "concurrency", 0, "number of concurrent workers (default from config)")
	batchCmd.Flags().StringVarP(&batchOut, "out", "o", "", "output file (default stdout)")
	batchCmd.Flags().DurationVar(&batchTimeout, "timeout", 30*time.Minute, "total timeout for batch processing")
	batchCmd.Flags().Float64Var(&batchRPS, "rps", 0, "upstream requests per second per host (default from config)")
	batchCmd.Flags().IntVar(&batchBurst, "burst", 0, "upstream burst per host (default from config)")
}

// batchLine is one JSON line of batch output
type batchLine struct {
	Line   int           `json:"line"`
	Query  string        `json:"query"`
	Result *model.Result `json:"result,omitempty"`
	Error  string        `json:"error,omitempty"`
}

func runBatch(cmd *cobra.Command, args []string) error {
	file := args[0]
	ctx, cancel := context.WithTimeout(cmd.Context(), batchTimeout)
	defer cancel()

	cfg := *appCfg
	if concurrency > 0 {
		cfg.Concurrency.Workers = concurrency
	}
	if batchRPS > 0 {
		cfg.RateLimiting.RequestsPerSecond = batchRPS
	}
	if batchBurst > 0 {
		cfg.RateLimiting.BurstSize = batchBurst
	}

	entries, err := worker.ReadEntriesFromFile(file)
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "Input file:   %s\n", file)
	fmt.Fprintf(os.Stderr, "Lookups:      %d\n", len(entries))
	fmt.Fprintf(os.Stderr, "Workers:      %d\n", cfg.Concurrency.Workers)
	fmt.Fprintf(os.Stderr, "Rate:         %.2f req/s per host\n", cfg.RateLimiting.RequestsPerSecond)
	fmt.Fprintln(os.Stderr)

	fetcher := newFetcher(&cfg).WithLimiter(newLimiter(cfg.RateLimiting))
	resolver := pipeline.NewResolverFromConfig(&cfg, fetcher)
	processor := worker.NewBatchProcessor(resolver, cfg.Concurrency.Workers)

	started := time.Now()
	results := processor.Process(ctx, entries)

	var w io.Writer = os.Stdout
	if batchOut != "" {
		f, err := os.Create(batchOut)
		if err != nil {
			return eris.Wrap(err, "batch: create output")
		}
		defer func() { _ = f.Close() }()
		w = f
	}

	found, notFound, failed, err := writeBatchResults(w, results)
	if err != nil {
		return err
	}

	fmt.Fprintln(os.Stderr)
	fmt.Fprintf(os.Stderr, "Total:      %d\n", len(results))
	fmt.Fprintf(os.Stderr, "Found:      %d\n", found)
	fmt.Fprintf(os.Stderr, "Not found:  %d\n", notFound)
	fmt.Fprintf(os.Stderr, "Invalid:    %d\n", failed)
	fmt.Fprintf(os.Stderr, "Elapsed:    %v\n", time.Since(started).Round(time.Millisecond))
	if skipped := len(entries) - len(results); skipped > 0 {
		fmt.Fprintf(os.Stderr, "Skipped:    %d (timeout or cancelled)\n", skipped)
	}

	return nil
}

// writeBatchResults encodes one JSON line per result and counts outcomes
func writeBatchResults(w io.Writer, results []*worker.LookupResult) (found, notFound, failed int, err error) {
	enc := json.NewEncoder(w)
	for _, r := range results {
		line := batchLine{Line: r.Entry.Line, Query: r.Entry.Raw}
		switch {
		case r.Error != nil:
			failed++
			line.Error = errorMessage(r.Error)
		case r.Result.Found:
			found++
			res := r.Result
			line.Result = &res
		default:
			notFound++
			res := r.Result
			line.Result = &res
		}
		if err := enc.Encode(line); err != nil {
			return found, notFound, failed, eris.Wrap(err, "batch: write result")
		}
	}
	return found, notFound, failed, nil
}

// errorMessage keeps the short sentinel text for unknown selectors
func errorMessage(err error) string {
	if eris.Is(err, model.ErrUnknownSource) {
		return model.ErrUnknownSource.Error()
	}
	return err.Error()
}

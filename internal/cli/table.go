package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/ppiankov/estlookup/internal/model"
	"github.com/ppiankov/estlookup/internal/sources"
)

var (
	tableFrom    string
	tableOut     string
	tableTimeout time.Duration
)

// tableCmd groups local-table maintenance
var tableCmd = &cobra.Command{
	Use:   "table",
	Short: "Maintain the local-table mapping",
}

var tableBuildCmd = &cobra.Command{
	Use:   "build",
	Short: "Build a local table from the directory export",
	Long: `Build reads the bulk-text directory export (URL or local file) and
writes a local table keyed by normalized establishment number.

The output format follows the file extension: .db, .sqlite and .sqlite3
produce SQLite, anything else JSON.

Example:
  estlookup table build --out establishments.json
  estlookup table build --from ./MPI_Directory.csv --out table.db`,
	Args: cobra.NoArgs,
	RunE: runTableBuild,
}

func init() {
	rootCmd.AddCommand(tableCmd)
	tableCmd.AddCommand(tableBuildCmd)

	tableBuildCmd.Flags().StringVar(&tableFrom, "from", "", "export URL or file (default: configured bulk-text URL)")
	tableBuildCmd.Flags().StringVarP(&tableOut, "out", "o", "", "output path (required)")
	tableBuildCmd.Flags().DurationVar(&tableTimeout, "timeout", 5*time.Minute, "download timeout")
	_ = tableBuildCmd.MarkFlagRequired("out")
}

func runTableBuild(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), tableTimeout)
	defer cancel()

	from := tableFrom
	if from == "" {
		from = appCfg.Sources.BulkText.URL
	}

	text, err := readExport(ctx, appCfg, from)
	if err != nil {
		return err
	}

	table, err := sources.BuildTable(text)
	if err != nil {
		return err
	}

	switch strings.ToLower(filepath.Ext(tableOut)) {
	case ".db", ".sqlite", ".sqlite3":
		if err := sources.WriteSQLiteTable(ctx, tableOut, table); err != nil {
			return err
		}
	default:
		data, err := sources.MarshalTable(table)
		if err != nil {
			return err
		}
		if err := os.WriteFile(tableOut, data, 0o644); err != nil {
			return eris.Wrap(err, "table: write output")
		}
	}

	fmt.Fprintf(os.Stderr, "Wrote %d establishments to %s\n", len(table), tableOut)
	return nil
}

// readExport fetches from over HTTP(S) or reads it from disk
func readExport(ctx context.Context, cfg *model.Config, from string) (string, error) {
	if !strings.HasPrefix(from, "http://") && !strings.HasPrefix(from, "https://") {
		data, err := os.ReadFile(from)
		if err != nil {
			return "", eris.Wrap(err, "table: read export")
		}
		return string(data), nil
	}

	fmt.Fprintf(os.Stderr, "Downloading %s\n", from)
	resp, err := newFetcher(cfg).Fetch(ctx, model.FetchRequest{
		URL:      from,
		Accept:   "text/csv,text/plain,*/*",
		MaxBytes: cfg.HTTP.BulkMaxBodyBytes,
	})
	if err != nil {
		return "", err
	}
	if !resp.OK() {
		return "", eris.Errorf("table: export fetch failed: %d", resp.Meta.StatusCode)
	}
	return resp.Text(), nil
}

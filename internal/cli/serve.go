package cli

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ppiankov/estlookup/internal/pipeline"
	"github.com/ppiankov/estlookup/internal/server"
)

var (
	serveAddr string
	servePath string
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve lookups over HTTP",
	Long: `Serve exposes the lookup endpoint:

  GET <path>?source=&est=&prefix=&cc=&num=&sfx=

Responses are JSON with an open CORS policy. Status is 200 for every
resolved lookup (found or not) and 400 only for an unknown source.
/health lists the configured sources and /metrics exposes Prometheus
metrics.

Example:
  estlookup serve
  estlookup serve --addr :9000 --path /lookup`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default from config)")
	serveCmd.Flags().StringVar(&servePath, "path", "", "lookup path (default from config)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := appCfg.Server
	if serveAddr != "" {
		cfg.Addr = serveAddr
	}
	if servePath != "" {
		cfg.Path = servePath
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	metrics := server.NewMetrics()
	fetcher := newFetcher(appCfg).WithObserver(metrics.ObserveUpstream)
	resolver := pipeline.NewResolverFromConfig(appCfg, fetcher)

	return server.New(cfg, resolver, metrics).ListenAndServe(ctx)
}

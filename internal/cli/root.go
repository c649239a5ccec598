package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ppiankov/estlookup/internal/config"
	"github.com/ppiankov/estlookup/internal/model"
	"github.com/ppiankov/estlookup/internal/pipeline"
	"github.com/ppiankov/estlookup/internal/worker"
)

// Version is set at build time
var Version = "v0.1.0"

var (
	cfgFile string
	verbose bool

	// appCfg is the effective configuration, loaded before every command
	appCfg *model.Config
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "estlookup",
	Short: "estlookup - resolve food establishment numbers to facility records",
	Long: `estlookup resolves a food-establishment identifier (an inspection mark
such as M969 or a packager code such as FR 35.360.003 CE) into the
facility's name, address, city, state and activities.

Each lookup runs exactly one source, selected by name:
  structured-api  JSON API, historical URL shapes tried in order
  bulk-text       weekly directory export, linear scan
  markup-scrape   public HTML search page
  local-table     bundled or operator-built mapping
  recall          recall records (pass-through)
  registration    registration-facility records (pass-through)
  packager-code   country/number/suffix packager database

A source that cannot answer returns found=false with diagnostics.`,
	SilenceErrors:     true,
	SilenceUsage:      true,
	PersistentPreRunE: initConfig,
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("estlookup " + Version)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $HOME/.estlookup/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	rootCmd.AddCommand(versionCmd)
}

// initConfig layers .env, config file and ESTLOOKUP_* variables over the
// defaults and installs the logger
func initConfig(cmd *cobra.Command, args []string) error {
	config.LoadDotEnv()

	v, err := config.NewViper()
	if err != nil {
		return err
	}
	cfg, err := config.Load(v, cfgFile)
	if err != nil {
		return err
	}
	if verbose {
		cfg.Log.Level = "debug"
	}
	if err := config.InitLogger(cfg.Log); err != nil {
		return err
	}

	if used := v.ConfigFileUsed(); used != "" {
		zap.L().Debug("configuration loaded", zap.String("file", used))
	}
	appCfg = cfg
	return nil
}

// newFetcher builds the shared upstream fetcher from cfg
func newFetcher(cfg *model.Config) *pipeline.Fetcher {
	return pipeline.NewFetcher(cfg.HTTP)
}

// newLimiter paces upstream calls per host; nil when rate limiting is off
func newLimiter(cfg model.RateLimitingConfig) *worker.Limiter {
	if cfg.RequestsPerSecond <= 0 {
		return nil
	}
	limiter := worker.NewLimiter(cfg.RequestsPerSecond, cfg.BurstSize)
	for _, h := range cfg.Hosts {
		if h.Host != "" {
			limiter.SetHostRate(h.Host, h.RequestsPerSecond, h.BurstSize)
		}
	}
	return limiter
}

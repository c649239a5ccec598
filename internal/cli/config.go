package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/ppiankov/estlookup/internal/config"
	"github.com/ppiankov/estlookup/internal/model"
)

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage estlookup configuration",
	Long: `Manage estlookup configuration files and settings.

Configuration hierarchy (highest to lowest priority):
1. CLI flags
2. Environment variables (ESTLOOKUP_*, e.g. ESTLOOKUP_HTTP_TIMEOUT=30s)
3. Config file (~/.estlookup/config.yaml)
4. Defaults

A .env file in the working directory is loaded before the environment is read.`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		yamlData, err := yaml.Marshal(appCfg)
		if err != nil {
			return eris.Wrap(err, "config: marshal")
		}
		fmt.Print(string(yamlData))
		return nil
	},
}

var configInitForce bool

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the default configuration file",
	Long:  `Create ~/.estlookup/config.yaml (or the --config path) holding every option at its default value.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		configPath := cfgFile
		if configPath == "" {
			def, err := config.DefaultPath()
			if err != nil {
				return err
			}
			configPath = def
		}

		if _, err := os.Stat(configPath); err == nil && !configInitForce {
			return eris.Errorf("config file already exists: %s (use --force to overwrite)", configPath)
		}

		if err := os.MkdirAll(filepath.Dir(configPath), 0o755); err != nil {
			return eris.Wrap(err, "config: create directory")
		}

		data, err := renderDefaultConfig()
		if err != nil {
			return err
		}
		if err := os.WriteFile(configPath, data, 0o644); err != nil {
			return eris.Wrap(err, "config: write file")
		}

		fmt.Printf("Created default configuration: %s\n", configPath)
		return nil
	},
}

// configInitSkipsLoad keeps a broken config file from blocking init
func configInitSkipsLoad(cmd *cobra.Command, args []string) error {
	return config.InitLogger(model.LogConfig{Level: "info", Format: "console"})
}

func renderDefaultConfig() ([]byte, error) {
	body, err := yaml.Marshal(model.DefaultConfig())
	if err != nil {
		return nil, eris.Wrap(err, "config: marshal defaults")
	}

	header := "# estlookup configuration\n" +
		"#\n" +
		"# Every key can be overridden with ESTLOOKUP_<SECTION>_<KEY>,\n" +
		"# e.g. ESTLOOKUP_SOURCES_LOCAL_TABLE_PATH=/data/table.db\n" +
		"#\n" +
		"# URL templates: {id} is the prefixed code (M969), {prefix} and {est}\n" +
		"# the parts, {code} the packager code variant.\n" +
		"#\n" +
		"# rate_limiting.hosts takes per-host overrides:\n" +
		"#   - host: www.fsis.usda.gov\n" +
		"#     requests_per_second: 0.5\n\n"

	return append([]byte(header), body...), nil
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configInitCmd)

	configInitCmd.PersistentPreRunE = configInitSkipsLoad
	configInitCmd.Flags().BoolVar(&configInitForce, "force", false, "overwrite an existing file")
}

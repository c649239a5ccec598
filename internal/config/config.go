// Package config layers defaults, config file and environment into a model.Config.
package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	"github.com/ppiankov/estlookup/internal/model"
)

// EnvPrefix namespaces environment overrides, e.g. ESTLOOKUP_HTTP_TIMEOUT
const EnvPrefix = "ESTLOOKUP"

// DefaultDir is the per-user configuration directory under $HOME
const DefaultDir = ".estlookup"

// DefaultPath returns ~/.estlookup/config.yaml
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", eris.Wrap(err, "config: find home directory")
	}
	return filepath.Join(home, DefaultDir, "config.yaml"), nil
}

// LoadDotEnv loads a .env file from the working directory when one exists
func LoadDotEnv() {
	if _, err := os.Stat(".env"); err != nil {
		return
	}
	if err := godotenv.Load(".env"); err != nil {
		zap.L().Warn("config: load .env", zap.Error(err))
	}
}

// NewViper prepares v for ESTLOOKUP_* environment overrides and registers
// every default so that env-only keys are visible to Unmarshal.
func NewViper() (*viper.Viper, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := SetDefaults(v, model.DefaultConfig()); err != nil {
		return nil, err
	}
	// omitted from the marshalled defaults when empty
	for _, key := range []string{"http.http_proxy", "http.https_proxy", "http.no_proxy"} {
		v.SetDefault(key, "")
	}
	return v, nil
}

// SetDefaults registers cfg under its yaml keys
func SetDefaults(v *viper.Viper, cfg *model.Config) error {
	raw, err := yaml.Marshal(cfg)
	if err != nil {
		return eris.Wrap(err, "config: marshal defaults")
	}
	var tree map[string]interface{}
	if err := yaml.Unmarshal(raw, &tree); err != nil {
		return eris.Wrap(err, "config: decode defaults")
	}
	setNested(v, "", tree)
	return nil
}

func setNested(v *viper.Viper, prefix string, tree map[string]interface{}) {
	for k, val := range tree {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		if sub, ok := val.(map[string]interface{}); ok {
			setNested(v, key, sub)
			continue
		}
		v.SetDefault(key, val)
	}
}

// Load reads path (or the default location when empty) and the environment.
// Only a missing default file is tolerated.
func Load(v *viper.Viper, path string) (*model.Config, error) {
	explicit := path != ""
	if !explicit {
		def, err := DefaultPath()
		if err != nil {
			return nil, err
		}
		path = def
	}
	v.SetConfigFile(path)

	if err := v.ReadInConfig(); err != nil {
		if explicit || !os.IsNotExist(err) {
			return nil, eris.Wrapf(err, "config: read %s", path)
		}
	}

	cfg := model.DefaultConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}
	return cfg, nil
}

// InitLogger installs the global zap logger
func InitLogger(cfg model.LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}
	zapCfg.OutputPaths = []string{"stderr"}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}

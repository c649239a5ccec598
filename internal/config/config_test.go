package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/estlookup/internal/model"
)

func TestLoad_DefaultsWhenNoFile(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	v, err := NewViper()
	require.NoError(t, err)

	cfg, err := Load(v, "")
	require.NoError(t, err)

	def := model.DefaultConfig()
	assert.Equal(t, def.HTTP, cfg.HTTP)
	assert.Equal(t, def.Sources.StructuredAPI.URLs, cfg.Sources.StructuredAPI.URLs)
	assert.Equal(t, def.Sources.MarkupScrape, cfg.Sources.MarkupScrape)
	assert.Equal(t, def.Server, cfg.Server)
	assert.Equal(t, def.Log, cfg.Log)
}

func TestLoad_FileOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
http:
  timeout: 5s
  user_agent: Test/2.0
sources:
  structured_api:
    urls:
      - http://api.test/{id}
server:
  addr: ":9090"
rate_limiting:
  hosts:
    - host: www.fsis.usda.gov
      requests_per_second: 0.5
      burst_size: 1
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	v, err := NewViper()
	require.NoError(t, err)
	cfg, err := Load(v, path)
	require.NoError(t, err)

	assert.Equal(t, 5*time.Second, cfg.HTTP.Timeout)
	assert.Equal(t, "Test/2.0", cfg.HTTP.UserAgent)
	assert.Equal(t, []string{"http://api.test/{id}"}, cfg.Sources.StructuredAPI.URLs)
	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, []model.HostRate{{Host: "www.fsis.usda.gov", RequestsPerSecond: 0.5, BurstSize: 1}}, cfg.RateLimiting.Hosts)
	assert.Equal(t, model.DefaultConfig().RateLimiting.RequestsPerSecond, cfg.RateLimiting.RequestsPerSecond)
	// untouched keys keep defaults
	assert.Equal(t, model.DefaultConfig().Sources.BulkText.URL, cfg.Sources.BulkText.URL)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("ESTLOOKUP_LOG_LEVEL", "debug")
	t.Setenv("ESTLOOKUP_SOURCES_LOCAL_TABLE_PATH", "/data/table.db")
	t.Setenv("ESTLOOKUP_HTTP_HTTPS_PROXY", "http://proxy.test:3128")

	v, err := NewViper()
	require.NoError(t, err)
	cfg, err := Load(v, "")
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "/data/table.db", cfg.Sources.LocalTable.Path)
	assert.Equal(t, "http://proxy.test:3128", cfg.HTTP.HTTPSProxy)
}

func TestLoad_ExplicitMissingFile(t *testing.T) {
	v, err := NewViper()
	require.NoError(t, err)

	_, err = Load(v, filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestInitLogger(t *testing.T) {
	assert.NoError(t, InitLogger(model.LogConfig{Level: "warn", Format: "console"}))
	assert.Error(t, InitLogger(model.LogConfig{Level: "loud", Format: "json"}))
}

package cli

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/ppiankov/estlookup/internal/model"
	"github.com/ppiankov/estlookup/internal/worker"
)

func TestWriteBatchResults(t *testing.T) {
	name := "Acme Foods"
	results := []*worker.LookupResult{
		{Index: 0, Entry: worker.Entry{Line: 1, Raw: "source=local&est=969"},
			Result: model.Found(&model.EstablishmentRecord{EstablishmentName: &name})},
		{Index: 1, Entry: worker.Entry{Line: 2, Raw: "source=local&est=000"},
			Result: model.NotFound(nil)},
		{Index: 2, Entry: worker.Entry{Line: 4, Raw: "source=nope"},
			Error: eris.Wrapf(model.ErrUnknownSource, "source %q", "nope")},
	}

	var buf bytes.Buffer
	found, notFound, failed, err := writeBatchResults(&buf, results)
	require.NoError(t, err)
	assert.Equal(t, 1, found)
	assert.Equal(t, 1, notFound)
	assert.Equal(t, 1, failed)

	var lines []map[string]interface{}
	scanner := bufio.NewScanner(&buf)
	for scanner.Scan() {
		var m map[string]interface{}
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &m))
		lines = append(lines, m)
	}
	require.Len(t, lines, 3)

	first := lines[0]["result"].(map[string]interface{})
	assert.Equal(t, true, first["found"])
	assert.Equal(t, float64(1), lines[0]["line"])

	second := lines[1]["result"].(map[string]interface{})
	assert.Equal(t, false, second["found"])

	assert.Equal(t, "Unknown source", lines[2]["error"])
	assert.Nil(t, lines[2]["result"])
}

func TestRenderDefaultConfig(t *testing.T) {
	data, err := renderDefaultConfig()
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "# estlookup configuration"))

	var cfg model.Config
	require.NoError(t, yaml.Unmarshal(data, &cfg))
	assert.Equal(t, model.DefaultConfig().Sources.PackagerCode.URL, cfg.Sources.PackagerCode.URL)
	assert.Equal(t, model.DefaultConfig().HTTP.Timeout, cfg.HTTP.Timeout)
}

func TestReadExport_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "export.csv")
	require.NoError(t, os.WriteFile(path, []byte("establishment_id,establishment_name\nM1,A\n"), 0o644))

	text, err := readExport(t.Context(), model.DefaultConfig(), path)
	require.NoError(t, err)
	assert.Contains(t, text, "M1,A")
}

func TestNewLimiter_Disabled(t *testing.T) {
	assert.Nil(t, newLimiter(model.RateLimitingConfig{}))
	assert.NotNil(t, newLimiter(model.RateLimitingConfig{RequestsPerSecond: 1, BurstSize: 1}))
}

func TestNewLimiter_HostOverrides(t *testing.T) {
	limiter := newLimiter(model.RateLimitingConfig{
		RequestsPerSecond: 0.01,
		BurstSize:         1,
		Hosts: []model.HostRate{
			{Host: "world.openfoodfacts.org", RequestsPerSecond: 1000, BurstSize: 5},
			{Host: "", RequestsPerSecond: 1000},
		},
	})
	require.NotNil(t, limiter)

	wait := func(rawURL string) error {
		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()
		return limiter.Wait(ctx, rawURL)
	}

	for i := 0; i < 5; i++ {
		assert.NoError(t, wait("https://world.openfoodfacts.org/api/v2/packager-codes/x.json"))
	}
	assert.NoError(t, wait("https://www.fsis.usda.gov/a"))
	assert.Error(t, wait("https://www.fsis.usda.gov/b"), "hosts without an override keep the default pace")
}

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tools.json")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "db/database.txt", cfg.Extract.Dest)
	assert.Equal(t, '\t', cfg.Extract.DelimiterRune())
	assert.Equal(t, 100000, cfg.Extract.ChunkSize)
	assert.Equal(t, "db/database.bin", cfg.Pack.Dest)
	assert.Equal(t, 100000, cfg.Pack.ProgressEvery)
	assert.Equal(t, "plots", cfg.Plot.OutputDir)
	assert.Len(t, cfg.Network.Scenarios, 3)
}

func TestLoadOverridesAndDefaults(t *testing.T) {
	path := writeConfig(t, `{
		"extract": {"source": "in.tsv.gz", "chunk_size": 500},
		"pack": {"progress_every": 10},
		"plot": {"output_dir": "charts", "dpi": 96}
	}`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "in.tsv.gz", cfg.Extract.Source)
	assert.Equal(t, 500, cfg.Extract.ChunkSize)
	assert.Equal(t, "db/database.txt", cfg.Extract.Dest)
	assert.Equal(t, 10, cfg.Pack.ProgressEvery)
	assert.Equal(t, "charts", cfg.Plot.OutputDir)
	assert.Equal(t, 96, cfg.Plot.DPI)
	assert.Equal(t, "results", cfg.Plot.ResultsDir)
}

func TestLoadRejectsBadDelimiter(t *testing.T) {
	path := writeConfig(t, `{"extract": {"delimiter": "||"}}`)

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "delimiter")
}

func TestLoadRejectsBadScenario(t *testing.T) {
	path := writeConfig(t, `{"network": {"scenarios": [{"name": "x", "bandwidth_mbps": 0}]}}`)

	_, err := Load(path)
	require.Error(t, err)
}

func TestLoadFilters(t *testing.T) {
	path := writeConfig(t, `{"extract": {"filters": [{"field": "countries", "operator": "contains", "value": "France"}]}}`)
	cfg, err := Load(path)
	require.NoError(t, err)
	require.Len(t, cfg.Extract.Filters, 1)
	assert.Equal(t, "contains", cfg.Extract.Filters[0].Operator)

	path = writeConfig(t, `{"extract": {"filters": [{"field": "countries", "operator": "like"}]}}`)
	_, err = Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "like")
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	require.Error(t, err)
}

func TestLoadOrDefault(t *testing.T) {
	cfg, err := LoadOrDefault("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

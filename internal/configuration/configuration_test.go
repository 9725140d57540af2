package configuration

import (
	"coach/internal/diagnostic"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validConfig = `
logger:
  level: info
facts:
  file: testdata/dataset.yaml
rules:
  file: testdata/rules.yaml
engine:
  combine: weighted-average
  submetric_weights:
    profile: 2
    market: 1
  fallback_score: 1.5
  seed: 42
  scorers:
    - submetric: market
      model: diag-market-stress
      weight: 3
    - submetric: profile
      model: diag-profile-completeness
      weight: 1
audit:
  file: /var/log/coach/diagnostics.jsonl
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	file := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(file, []byte(content), 0o600))
	return file
}

func TestLoadConfig_Valid(t *testing.T) {
	config, err := LoadConfig(writeConfig(t, validConfig))
	require.NoError(t, err)

	assert.Equal(t, "info", config.Logger.Level)
	assert.Equal(t, "testdata/dataset.yaml", config.Facts.File)
	assert.Equal(t, "testdata/rules.yaml", config.Rules.File)
	assert.Equal(t, "weighted-average", config.Engine.Combine)
	assert.Equal(t, map[string]float64{"profile": 2, "market": 1}, config.Engine.SubmetricWeights)
	assert.Equal(t, 1.5, config.Engine.FallbackScore)
	assert.Equal(t, uint64(42), config.Engine.Seed)
	assert.Equal(t, []diagnostic.SubmetricScorer{
		{Submetric: "market", ModelID: "diag-market-stress", Weight: 3},
		{Submetric: "profile", ModelID: "diag-profile-completeness", Weight: 1},
	}, config.Engine.Scorers)
	assert.Equal(t, "/var/log/coach/diagnostics.jsonl", config.Audit.File)
}

func TestLoadConfig_Defaults(t *testing.T) {
	config, err := LoadConfig(writeConfig(t, "logger:\n  level: debug\nfacts:\n  file: dataset.yaml\n"))
	require.NoError(t, err)

	assert.Equal(t, 4096, config.Facts.CacheSize)
	assert.Equal(t, 3, config.Engine.ExampleCapacity)
	assert.Equal(t, 100, config.Audit.Size)
	assert.Equal(t, 20, config.Audit.Amount)
	assert.Equal(t, 100, config.Logger.Size)
	assert.Empty(t, config.Rules.File)
}

func TestLoadConfig_DefaultScorerWeight(t *testing.T) {
	content := "logger:\n  level: info\nfacts:\n  file: d.yaml\nengine:\n  scorers:\n    - submetric: market\n      model: diag-market-stress\n"
	config, err := LoadConfig(writeConfig(t, content))
	require.NoError(t, err)

	require.Len(t, config.Engine.Scorers, 1)
	assert.Equal(t, 1.0, config.Engine.Scorers[0].Weight)
}

func TestLoadConfig_EnvOverride(t *testing.T) {
	t.Setenv("LOGGER_LEVEL", "error")

	config, err := LoadConfig(writeConfig(t, validConfig))
	require.NoError(t, err)
	assert.Equal(t, "error", config.Logger.Level)
}

func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLoadConfig_Invalid(t *testing.T) {
	cases := []struct {
		name    string
		content string
	}{
		{name: "no level", content: "facts:\n  file: dataset.yaml\n"},
		{name: "bad level", content: "logger:\n  level: verbose\nfacts:\n  file: dataset.yaml\n"},
		{name: "no dataset", content: "logger:\n  level: info\n"},
		{name: "bad combine", content: "logger:\n  level: info\nfacts:\n  file: d.yaml\nengine:\n  combine: median\n"},
		{name: "bad fallback", content: "logger:\n  level: info\nfacts:\n  file: d.yaml\nengine:\n  fallback_score: 4\n"},
		{name: "bad scorer weight", content: "logger:\n  level: info\nfacts:\n  file: d.yaml\nengine:\n  scorers:\n    - submetric: market\n      model: diag-market-stress\n      weight: -1\n"},
		{name: "scorer without model", content: "logger:\n  level: info\nfacts:\n  file: d.yaml\nengine:\n  scorers:\n    - submetric: market\n"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := LoadConfig(writeConfig(t, tc.content))
			assert.Error(t, err)
		})
	}
}

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, 8080, cfg.HTTP.Port)
	assert.Equal(t, 30*time.Second, cfg.HTTP.ReadTimeout)
	assert.Equal(t, "genetic", cfg.Search.Engine)
	assert.Equal(t, 20, cfg.Search.PopulationSize)
	assert.Equal(t, 10000, cfg.Search.DefaultBudget)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("HTTP_PORT", "9000")
	t.Setenv("SEARCH_ENGINE", "random")
	t.Setenv("SEARCH_DEFAULT_BUDGET", "500")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.HTTP.Port)
	assert.Equal(t, "random", cfg.Search.Engine)
	assert.Equal(t, 500, cfg.Search.DefaultBudget)
}

func TestLoadYAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gmab.yaml")
	body := `
http:
  port: 7070
search:
  population_size: 40
  mutation_rate: 0.5
logging:
  level: debug
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	t.Setenv("GMAB_CONFIG", path)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 7070, cfg.HTTP.Port)
	assert.Equal(t, 40, cfg.Search.PopulationSize)
	assert.Equal(t, 0.5, cfg.Search.MutationRate)
	assert.Equal(t, "debug", cfg.Logging.Level)
	// Fields the file does not mention keep their defaults.
	assert.Equal(t, "genetic", cfg.Search.Engine)
}

func TestEnvBeatsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gmab.yaml")
	require.NoError(t, os.WriteFile(path, []byte("http:\n  port: 7070\n"), 0o600))
	t.Setenv("GMAB_CONFIG", path)
	t.Setenv("HTTP_PORT", "6060")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 6060, cfg.HTTP.Port)
}

func TestLoadBadFile(t *testing.T) {
	t.Setenv("GMAB_CONFIG", filepath.Join(t.TempDir(), "missing.yaml"))

	_, err := Load()
	assert.Error(t, err)
}

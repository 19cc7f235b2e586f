package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadFrom(t *testing.T, dir string) *Config {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	cfg, err := Load()
	require.NoError(t, err)
	return cfg
}

func TestLoad_Defaults(t *testing.T) {
	cfg := loadFrom(t, t.TempDir())

	assert.Equal(t, "https://nominatim.openstreetmap.org", cfg.Geocoder.BaseURL)
	assert.Equal(t, "Pergamino", cfg.Pipeline.Locality)
	assert.Equal(t, 1500*time.Millisecond, cfg.Pipeline.MinInterval)
	assert.InDelta(t, -33.9137, cfg.Pipeline.FallbackLat, 1e-9)
	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "lines.yaml", cfg.Routes.LinesFile)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	yaml := `
geocoder:
  base_url: http://localhost:9999
pipeline:
  locality: Junín
  min_interval: 2s
store:
  driver: postgres
  database_url: postgres://localhost/guide
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o644))

	cfg := loadFrom(t, dir)
	assert.Equal(t, "http://localhost:9999", cfg.Geocoder.BaseURL)
	assert.Equal(t, "Junín", cfg.Pipeline.Locality)
	assert.Equal(t, 2*time.Second, cfg.Pipeline.MinInterval)
	assert.Equal(t, "postgres", cfg.Store.Driver)
	// Untouched keys keep their defaults.
	assert.Equal(t, "Buenos Aires", cfg.Pipeline.Region)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("GEOCORE_SERVER_PORT", "9090")
	t.Setenv("GEOCORE_LOG_LEVEL", "debug")

	cfg := loadFrom(t, t.TempDir())
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestInitLogger_RejectsBadLevel(t *testing.T) {
	err := InitLogger(LogConfig{Level: "noisy", Format: "json"})
	require.Error(t, err)
}

func TestInitLogger_ConsoleFormat(t *testing.T) {
	require.NoError(t, InitLogger(LogConfig{Level: "warn", Format: "console"}))
}

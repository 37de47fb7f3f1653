package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	// Change to temp dir so no config.yaml is found
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 21, cfg.Remote.Port)
	assert.Equal(t, "CONTRATACION", cfg.Remote.MainFolder)
	assert.Equal(t, 30, cfg.Remote.TimeoutSecs)
	assert.Equal(t, 3, cfg.Remote.MaxRetries)
	assert.InDelta(t, 10.0, cfg.Remote.OpsPerSecond, 0.001)
	assert.Equal(t, 90, cfg.Processing.FileTimeoutSecs)
	assert.Equal(t, 20000, cfg.Processing.MaxRows)
	assert.Equal(t, 100, cfg.Processing.MaxSites)
	assert.Equal(t, 1, cfg.Processing.Workers)
	assert.Equal(t, "salida", cfg.Processing.OutputDir)
	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "consolidador.db", cfg.Store.DSN)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoadFromYAML(t *testing.T) {
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() {
		require.NoError(t, os.Chdir(origDir))
	})

	yaml := `
remote:
  host: ftp.example.gov.co
  username: consolidador
processing:
  file_timeout_secs: 120
  workers: 4
store:
  driver: postgres
  dsn: postgres://localhost/tarifas
log:
  level: debug
  format: console
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "ftp.example.gov.co", cfg.Remote.Host)
	assert.Equal(t, "consolidador", cfg.Remote.Username)
	assert.Equal(t, 120, cfg.Processing.FileTimeoutSecs)
	assert.Equal(t, 4, cfg.Processing.Workers)
	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "debug", cfg.Log.Level)
	// Defaults still apply for unset keys.
	assert.Equal(t, 21, cfg.Remote.Port)
	assert.Equal(t, 20000, cfg.Processing.MaxRows)
}

func TestInitLogger_BadLevel(t *testing.T) {
	err := InitLogger(LogConfig{Level: "shouting", Format: "json"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse log level")
}

func TestInitLogger_Console(t *testing.T) {
	require.NoError(t, InitLogger(LogConfig{Level: "debug", Format: "console"}))
}

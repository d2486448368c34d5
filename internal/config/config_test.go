package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeYAML(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "engines.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_DefaultsWithoutEngineConfigPath(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.NotEmpty(t, cfg.LedgerPath)
	assert.Equal(t, EngineConfig{}, cfg.Engines)
}

func TestLoad_ParsesRecognizedEngineThresholds(t *testing.T) {
	path := writeYAML(t, `
hedge:
  gamma_squeeze_threshold: 2000000
  pin_threshold: 100000
liquidity:
  lookback_bars: 45
  thin_threshold: 3.5
composer:
  weights:
    hedge: 0.5
    liquidity: 0.3
    sentiment: 0.2
  action_threshold: 0.25
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 2000000.0, cfg.Engines.Hedge.GammaSqueezeThreshold)
	assert.Equal(t, 100000.0, cfg.Engines.Hedge.PinThreshold)
	assert.Equal(t, 45, cfg.Engines.Liquidity.LookbackBars)
	assert.Equal(t, 3.5, cfg.Engines.Liquidity.ThinThreshold)
	assert.Equal(t, 0.5, cfg.Engines.Composer.Weights.Hedge)
	assert.Equal(t, 0.25, cfg.Engines.Composer.ActionThreshold)
}

func TestLoad_RejectsUnknownYAMLKey(t *testing.T) {
	path := writeYAML(t, `
hedge:
  gama_squeeze_threshold: 2000000
`)

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoad_ErrorsOnMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

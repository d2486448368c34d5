// Package config loads process-wide settings from the environment
// (via .env, following the teacher's pattern) plus a YAML file of
// per-engine numeric thresholds — the "engine factory input" table
// each engine constructor consumes.
package config

import (
	"bytes"
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/aristath/directive-engine/internal/domain"
)

// Config holds process-wide configuration.
type Config struct {
	LogLevel   string
	LogPretty  bool
	LedgerPath string
	Engines    EngineConfig
}

// HedgeConfig mirrors internal/engines/hedge.Config's recognized keys.
type HedgeConfig struct {
	GammaSqueezeThreshold float64 `yaml:"gamma_squeeze_threshold"`
	VannaFlowThreshold    float64 `yaml:"vanna_flow_threshold"`
	PinThreshold          float64 `yaml:"pin_threshold"`
	MaxChainSize          int     `yaml:"max_chain_size"`
}

// LiquidityConfig mirrors internal/engines/liquidity.Config's recognized keys.
type LiquidityConfig struct {
	LookbackBars      int     `yaml:"lookback_bars"`
	IntradayMinutes   int     `yaml:"intraday_minutes"`
	ThinThreshold     float64 `yaml:"thin_threshold"`
	HighThreshold     float64 `yaml:"high_threshold"`
	OneSidedThreshold float64 `yaml:"one_sided_threshold"`
}

// ElasticityConfig mirrors internal/engines/elasticity.Config's recognized keys.
type ElasticityConfig struct {
	LookbackBars     int     `yaml:"lookback_bars"`
	BaselineMoveCost float64 `yaml:"baseline_move_cost"`
}

// SentimentConfig carries the fusion-level thresholds; per-processor
// periods stay at their package defaults (sentiment.NewDefaultConfig)
// until a concrete need to override one arises from a YAML file.
type SentimentConfig struct {
	BiasThreshold   float64 `yaml:"bias_threshold"`
	RequiredMinimum int     `yaml:"required_minimum"`
}

// ComposerConfig mirrors internal/composer.Config's recognized keys.
// domain.ComposerWeights's exported fields already lower-case to
// "hedge"/"liquidity"/"sentiment" under yaml.v3's default field
// naming, so no tags are needed there.
type ComposerConfig struct {
	Weights             domain.ComposerWeights `yaml:"weights"`
	ActionThreshold     float64                `yaml:"action_threshold"`
	ConfidenceThreshold float64                `yaml:"confidence_threshold"`
}

// EngineConfig is the engine-factory input: one block per engine,
// keyed by engine name, carrying only the thresholds that engine
// recognizes.
type EngineConfig struct {
	Hedge      HedgeConfig      `yaml:"hedge"`
	Liquidity  LiquidityConfig  `yaml:"liquidity"`
	Elasticity ElasticityConfig `yaml:"elasticity"`
	Sentiment  SentimentConfig  `yaml:"sentiment"`
	Composer   ComposerConfig   `yaml:"composer"`
}

// Load reads environment variables (via .env if present) for process
// settings, then — if engineConfigPath is non-empty — decodes that
// path as the YAML engine-options file. An unrecognized key anywhere
// in the YAML file is a construction-time error: a typo'd threshold
// name should fail loudly, not silently fall back to a default.
func Load(engineConfigPath string) (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		LogLevel:   getEnv("LOG_LEVEL", "info"),
		LogPretty:  getEnvAsBool("LOG_PRETTY", false),
		LedgerPath: getEnv("LEDGER_PATH", "./data/ledger.bin"),
	}

	if engineConfigPath != "" {
		engines, err := loadEngineConfig(engineConfigPath)
		if err != nil {
			return nil, err
		}
		cfg.Engines = engines
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadEngineConfig(path string) (EngineConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return EngineConfig{}, fmt.Errorf("config: read %s: %w", path, err)
	}

	var engines EngineConfig
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&engines); err != nil {
		return EngineConfig{}, fmt.Errorf("config: decode %s: %w", path, err)
	}
	return engines, nil
}

// Validate checks required configuration is present.
func (c *Config) Validate() error {
	if c.LedgerPath == "" {
		return fmt.Errorf("LEDGER_PATH is required")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

// Package hedge computes dealer hedge-pressure features from an options
// chain snapshot: gamma, vanna, and charm pressure, and the regime they
// imply (gamma squeeze, vanna flow, pin, or neutral).
package hedge

import (
	"context"
	"time"

	"github.com/aristath/directive-engine/internal/adapters"
	"github.com/aristath/directive-engine/internal/domain"
	"github.com/aristath/directive-engine/internal/engines"
)

// Config holds the regime thresholds and chain-size normalizer used by
// Engine. Zero values fall back to the defaults below.
type Config struct {
	GammaSqueezeThreshold float64
	VannaFlowThreshold    float64
	PinThreshold          float64
	MaxChainSize          int
}

func (c Config) withDefaults() Config {
	if c.GammaSqueezeThreshold == 0 {
		c.GammaSqueezeThreshold = 1e6
	}
	if c.VannaFlowThreshold == 0 {
		c.VannaFlowThreshold = 1e6
	}
	if c.PinThreshold == 0 {
		c.PinThreshold = 1e5
	}
	if c.MaxChainSize == 0 {
		c.MaxChainSize = 5000
	}
	return c
}

// Engine computes hedge-pressure features from an options chain adapter.
type Engine struct {
	adapter adapters.ChainAdapter
	config  Config
}

// New constructs a hedge Engine.
func New(adapter adapters.ChainAdapter, config Config) *Engine {
	return &Engine{adapter: adapter, config: config.withDefaults()}
}

// Run computes this tick's hedge-pressure output for symbol.
func (e *Engine) Run(ctx context.Context, symbol string, now time.Time) domain.EngineOutput {
	chain := e.adapter.FetchChain(ctx, symbol, now)
	if chain.Empty() {
		return engines.Degraded(domain.KindHedge, symbol, now, "illiquid_gamma", "no_data")
	}

	features := e.computeFeatures(chain.Items)
	if len(features) == 0 {
		return engines.Degraded(domain.KindHedge, symbol, now, "illiquid_gamma", "no_data")
	}

	return domain.EngineOutput{
		Kind:       domain.KindHedge,
		Symbol:     symbol,
		Timestamp:  now,
		Features:   features,
		Confidence: e.computeConfidence(len(chain.Items)),
		Regime:     e.determineRegime(features),
	}
}

// asymmetryBaseline normalizes the calls-vs-puts gamma split into the
// single-digit-to-low-tens range the scanner's energy score expects
// (asymmetry > 10 reads as "very high"). A derived choice: the source
// doesn't publish energy_asymmetry/movement_energy from this chain math
// directly (see DESIGN.md), only the contract that higher means more
// lopsided.
const asymmetryBaseline = 1e4

func (e *Engine) computeFeatures(chain []domain.OptionContract) map[string]float64 {
	var gammaPressure, vannaPressure, charmPressure float64
	var spotSum float64
	var upEnergy, downEnergy float64
	for _, c := range chain {
		gammaPressure += c.Gamma * c.OpenInterest * c.UnderlyingSpot
		vannaPressure += c.Vanna * c.OpenInterest
		charmPressure += c.Charm * c.OpenInterest
		spotSum += c.UnderlyingSpot

		magnitude := abs(c.Gamma * c.OpenInterest * c.UnderlyingSpot)
		if c.Right == domain.Put {
			downEnergy += magnitude
		} else {
			upEnergy += magnitude
		}
	}

	gammaSign := -1.0
	if gammaPressure >= 0 {
		gammaSign = 1.0
	}
	vannaSign := -1.0
	if vannaPressure >= 0 {
		vannaSign = 1.0
	}

	spot := 0.0
	if len(chain) > 0 {
		spot = spotSum / float64(len(chain))
	}

	return map[string]float64{
		"gamma_pressure":       gammaPressure,
		"vanna_pressure":       vannaPressure,
		"charm_pressure":       charmPressure,
		"gamma_sign":           gammaSign,
		"vanna_sign":           vannaSign,
		"hedge_regime_energy":  abs(gammaPressure) + abs(vannaPressure),
		"vix_friction_factor":  0.0,
		"spot":                 spot,
		"dealer_gamma_sign":    gammaSign,
		"energy_asymmetry":     (upEnergy - downEnergy) / asymmetryBaseline,
		"movement_energy":      (upEnergy + downEnergy) / asymmetryBaseline,
	}
}

func (e *Engine) determineRegime(features map[string]float64) string {
	gammaPressure := features["gamma_pressure"]
	vannaPressure := features["vanna_pressure"]

	switch {
	case abs(gammaPressure) > e.config.GammaSqueezeThreshold:
		return "gamma_squeeze"
	case abs(vannaPressure) > e.config.VannaFlowThreshold:
		return "vanna_flow"
	case abs(gammaPressure) < e.config.PinThreshold:
		return "pin"
	default:
		return "neutral"
	}
}

func (e *Engine) computeConfidence(chainSize int) float64 {
	coverage := float64(chainSize) / float64(e.config.MaxChainSize)
	if coverage > 1 {
		return 1
	}
	return coverage
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

// Package elasticity estimates the energy required to move a symbol's
// price by a fixed amount, from recent bar history's realized volatility
// and average volume.
package elasticity

import (
	"context"
	"time"

	"github.com/aristath/directive-engine/internal/adapters"
	"github.com/aristath/directive-engine/internal/domain"
	"github.com/aristath/directive-engine/internal/engines"
	"github.com/aristath/directive-engine/pkg/formulas"
)

// Config holds the lookback window and baseline move cost Engine uses.
type Config struct {
	LookbackBars    int
	BaselineMoveCost float64
}

func (c Config) withDefaults() Config {
	if c.LookbackBars == 0 {
		c.LookbackBars = 30
	}
	if c.BaselineMoveCost == 0 {
		c.BaselineMoveCost = 1.0
	}
	return c
}

// Engine computes price-elasticity features from an OHLCV adapter.
type Engine struct {
	ohlcv  adapters.OHLCVAdapter
	config Config
}

// New constructs an elasticity Engine.
func New(ohlcv adapters.OHLCVAdapter, config Config) *Engine {
	return &Engine{ohlcv: ohlcv, config: config.withDefaults()}
}

// Run computes this tick's elasticity output for symbol.
func (e *Engine) Run(ctx context.Context, symbol string, now time.Time) domain.EngineOutput {
	bars := e.ohlcv.FetchOHLCV(ctx, symbol, e.config.LookbackBars, now)
	if bars.Empty() {
		return engines.Degraded(domain.KindElasticity, symbol, now, "low_resistance", "no_data")
	}

	closes := make([]float64, len(bars.Items))
	var volumeSum float64
	for i, b := range bars.Items {
		closes[i] = b.Close
		volumeSum += b.Volume
	}
	returns := formulas.CalculateReturns(closes)
	vol := formulas.StdDev(returns)
	if vol < 0 {
		vol = 0
	}
	avgVolume := 0.0
	if len(bars.Items) > 0 {
		avgVolume = volumeSum / float64(len(bars.Items))
	}

	baseline := e.config.BaselineMoveCost
	volumeDivisor := avgVolume
	if volumeDivisor < 1 {
		volumeDivisor = 1
	}
	energy := baseline * (1 + vol) * (1 + 1/volumeDivisor)

	elasticityFloor := energy
	if elasticityFloor < 1e-6 {
		elasticityFloor = 1e-6
	}
	elasticity := 1 / elasticityFloor
	expectedMoveCost := baseline * vol * 100

	features := map[string]float64{
		"energy_to_move_1pct_up":   energy,
		"energy_to_move_1pct_down": energy,
		"elasticity_up":            elasticity,
		"elasticity_down":          elasticity,
		"expected_move_cost_1d":    expectedMoveCost,
	}

	regime := "low_resistance"
	if energy > baseline {
		regime = "high_resistance"
	}

	confidence := avgVolume / 10000
	if confidence > 1 {
		confidence = 1
	}

	return domain.EngineOutput{
		Kind:       domain.KindElasticity,
		Symbol:     symbol,
		Timestamp:  now,
		Features:   features,
		Confidence: confidence,
		Regime:     regime,
	}
}

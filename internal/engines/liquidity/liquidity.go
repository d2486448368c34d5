// Package liquidity computes order-flow and depth diagnostics from bar
// history and recent intraday prints: Amihud illiquidity, Kyle's lambda,
// order flow imbalance, a VWAP-magnet score, a liquidity-void score, and
// average spread in basis points.
package liquidity

import (
	"context"
	"time"

	"github.com/aristath/directive-engine/internal/adapters"
	"github.com/aristath/directive-engine/internal/domain"
	"github.com/aristath/directive-engine/internal/engines"
	"github.com/aristath/directive-engine/pkg/formulas"
)

// Config holds the lookback windows and regime thresholds Engine uses.
type Config struct {
	LookbackBars      int
	IntradayMinutes   int
	ThinThreshold     float64
	HighThreshold     float64
	OneSidedThreshold float64
}

func (c Config) withDefaults() Config {
	if c.LookbackBars == 0 {
		c.LookbackBars = 30
	}
	if c.IntradayMinutes == 0 {
		c.IntradayMinutes = 60
	}
	if c.ThinThreshold == 0 {
		c.ThinThreshold = 0.001
	}
	if c.HighThreshold == 0 {
		c.HighThreshold = 0.0001
	}
	if c.OneSidedThreshold == 0 {
		c.OneSidedThreshold = 0.6
	}
	return c
}

// Engine computes liquidity features from OHLCV and trades adapters.
type Engine struct {
	ohlcv  adapters.OHLCVAdapter
	trades adapters.TradesAdapter
	config Config
}

// New constructs a liquidity Engine.
func New(ohlcv adapters.OHLCVAdapter, trades adapters.TradesAdapter, config Config) *Engine {
	return &Engine{ohlcv: ohlcv, trades: trades, config: config.withDefaults()}
}

// Run computes this tick's liquidity output for symbol.
func (e *Engine) Run(ctx context.Context, symbol string, now time.Time) domain.EngineOutput {
	bars := e.ohlcv.FetchOHLCV(ctx, symbol, e.config.LookbackBars, now)
	if bars.Empty() {
		return engines.Degraded(domain.KindLiquidity, symbol, now, domain.DegradedRegime, "no_ohlcv")
	}
	tradeFrame := e.trades.FetchTrades(ctx, symbol, e.config.IntradayMinutes, now)

	features := e.computeFeatures(bars.Items, tradeFrame.Items)
	confidence := 0.0
	if len(features) > 0 {
		confidence = 1.0
	}

	return domain.EngineOutput{
		Kind:       domain.KindLiquidity,
		Symbol:     symbol,
		Timestamp:  now,
		Features:   features,
		Confidence: confidence,
		Regime:     e.determineRegime(features),
	}
}

func (e *Engine) computeFeatures(bars []domain.Bar, trades []domain.Trade) map[string]float64 {
	closes := make([]float64, len(bars))
	volumes := make([]float64, len(bars))
	for i, b := range bars {
		closes[i] = b.Close
		volumes[i] = b.Volume
	}

	returns := percentChanges(closes)
	priceChanges := diffs(closes)

	var amihudSum float64
	var amihudCount int
	for i := range returns {
		if volumes[i+1] != 0 {
			amihudSum += abs(returns[i]) / volumes[i+1]
			amihudCount++
		}
	}
	amihud := 0.0
	if amihudCount > 0 {
		amihud = amihudSum / float64(amihudCount)
	}

	signedVolume := signedVolumes(trades)
	avgSignedVolume := formulas.Mean(absAll(signedVolume))
	if avgSignedVolume == 0 {
		avgSignedVolume = 1.0
	}
	kyleLambda := formulas.Mean(absAll(priceChanges)) / (avgSignedVolume + 1e-9)

	ofi := orderFlowImbalance(trades)

	var volumeWeightedSum, volumeSum float64
	for i, c := range closes {
		volumeWeightedSum += c * volumes[i]
		volumeSum += volumes[i]
	}
	if volumeSum < 1 {
		volumeSum = 1
	}
	vwap := volumeWeightedSum / volumeSum

	close := closes[len(closes)-1]
	closeFloor := close
	if closeFloor < 1e-6 {
		closeFloor = 1e-6
	}
	volumeProfileMagnet := abs(close-vwap) / closeFloor

	avgVolume := formulas.Mean(volumes)
	liquidityVoid := rollingStdAboveMeanRate(volumes, 5, avgVolume)

	avgSpreadBps := formulas.Mean(absAll(priceChanges)) / closeFloor * 10000

	// liquidity_score has no published formula in the source (§9 Open
	// Question) — only the contract that it's monotone decreasing in
	// Amihud illiquidity and spread, bounded to [0,1].
	liquidityScore := 1.0 / (1.0 + amihud*1000 + avgSpreadBps/100)

	return map[string]float64{
		"amihud_illiquidity":          amihud,
		"kyle_lambda":                 kyleLambda,
		"ofi":                         ofi,
		"volume_profile_magnet_score": volumeProfileMagnet,
		"liquidity_void_score":        liquidityVoid,
		"avg_spread_bps":              avgSpreadBps,
		"liquidity_score":             liquidityScore,
		"mid_price":                   vwap,
	}
}

func (e *Engine) determineRegime(features map[string]float64) string {
	if len(features) == 0 {
		return domain.DegradedRegime
	}
	switch {
	case features["ofi"] > e.config.OneSidedThreshold:
		return "one_sided_flow"
	case features["amihud_illiquidity"] > e.config.ThinThreshold:
		return "thin_liquidity"
	case features["amihud_illiquidity"] < e.config.HighThreshold:
		return "high_liquidity"
	default:
		return "normal"
	}
}

// percentChanges returns len(closes)-1 percentage changes; an empty or
// singleton input yields no changes.
func percentChanges(closes []float64) []float64 {
	if len(closes) < 2 {
		return nil
	}
	out := make([]float64, len(closes)-1)
	for i := 1; i < len(closes); i++ {
		if closes[i-1] != 0 {
			out[i-1] = (closes[i] - closes[i-1]) / closes[i-1]
		}
	}
	return out
}

func diffs(closes []float64) []float64 {
	if len(closes) < 2 {
		return nil
	}
	out := make([]float64, len(closes)-1)
	for i := 1; i < len(closes); i++ {
		out[i-1] = closes[i] - closes[i-1]
	}
	return out
}

func signedVolumes(trades []domain.Trade) []float64 {
	if len(trades) == 0 {
		return []float64{0.0}
	}
	out := make([]float64, len(trades))
	for i, t := range trades {
		sign := 1.0
		if t.Side == domain.Sell {
			sign = -1.0
		}
		out[i] = t.Size * sign
	}
	return out
}

func orderFlowImbalance(trades []domain.Trade) float64 {
	var buy, sell float64
	for _, t := range trades {
		if t.Side == domain.Buy {
			buy += t.Size
		} else if t.Side == domain.Sell {
			sell += t.Size
		}
	}
	denom := buy + sell
	if denom == 0 {
		return 0
	}
	return (buy - sell) / denom
}

// rollingStdAboveMeanRate returns the fraction of trailing windows (size
// window, clamped to the available history at the start) whose standard
// deviation exceeds avgVolume.
func rollingStdAboveMeanRate(volumes []float64, window int, avgVolume float64) float64 {
	if len(volumes) == 0 {
		return 0
	}
	var above int
	for i := range volumes {
		start := i - window + 1
		if start < 0 {
			start = 0
		}
		slice := volumes[start : i+1]
		std := 0.0
		if len(slice) >= 2 {
			std = formulas.StdDev(slice)
		}
		if std > avgVolume {
			above++
		}
	}
	return float64(above) / float64(len(volumes))
}

func absAll(values []float64) []float64 {
	out := make([]float64, len(values))
	for i, v := range values {
		out[i] = abs(v)
	}
	return out
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

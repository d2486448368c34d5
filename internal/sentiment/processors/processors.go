// Package processors implements the six sentiment sub-processors: Wyckoff
// phase structure, oscillators (RSI/MFI/Stochastic), volatility envelopes
// (Bollinger/Keltner), order-flow bias, breadth/regime, and market energy.
// Each is a pure function of bar/trade history to a (value, confidence)
// pair in [-1, 1] x [0, 1]; none holds state between calls.
package processors

import (
	"github.com/markcheno/go-talib"

	"github.com/aristath/directive-engine/internal/domain"
	"github.com/aristath/directive-engine/pkg/formulas"
)

func closesOf(bars []domain.Bar) []float64 {
	out := make([]float64, len(bars))
	for i, b := range bars {
		out[i] = b.Close
	}
	return out
}

func highsOf(bars []domain.Bar) []float64 {
	out := make([]float64, len(bars))
	for i, b := range bars {
		out[i] = b.High
	}
	return out
}

func lowsOf(bars []domain.Bar) []float64 {
	out := make([]float64, len(bars))
	for i, b := range bars {
		out[i] = b.Low
	}
	return out
}

func volumesOf(bars []domain.Bar) []float64 {
	out := make([]float64, len(bars))
	for i, b := range bars {
		out[i] = b.Volume
	}
	return out
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

func lastFinite(values []float64) (float64, bool) {
	for i := len(values) - 1; i >= 0; i-- {
		v := values[i]
		if v == v { // not NaN
			return v, true
		}
	}
	return 0, false
}

// WyckoffConfig tunes the Wyckoff phase processor.
type WyckoffConfig struct {
	LookbackPeriods int
}

// WyckoffProcessor reads a symbol's position within its recent trading
// range plus its trend to approximate Wyckoff phase: accumulation (near
// range low), markup (trending up), distribution (near range high),
// markdown (trending down).
type WyckoffProcessor struct {
	config WyckoffConfig
}

func NewWyckoffProcessor(config WyckoffConfig) *WyckoffProcessor {
	if config.LookbackPeriods == 0 {
		config.LookbackPeriods = 40
	}
	return &WyckoffProcessor{config: config}
}

// Compute returns a sentiment value/confidence pair and the detected phase
// label (accumulation, markup, distribution, markdown, or indeterminate).
func (p *WyckoffProcessor) Compute(bars []domain.Bar) (value, confidence float64, phase string) {
	n := p.config.LookbackPeriods
	if len(bars) < 5 {
		return 0, 0, "indeterminate"
	}
	if n > len(bars) {
		n = len(bars)
	}
	window := bars[len(bars)-n:]
	closes := closesOf(window)

	high, low := closes[0], closes[0]
	for _, c := range closes {
		if c > high {
			high = c
		}
		if c < low {
			low = c
		}
	}
	rng := high - low
	position := 0.5
	if rng > 1e-9 {
		position = (closes[len(closes)-1] - low) / rng
	}
	centered := (position - 0.5) * 2

	returns := formulas.CalculateReturns(closes)
	trend := formulas.Mean(returns)

	value = clamp(trend*50+centered*0.3, -1, 1)
	confidence = clamp(float64(n)/float64(p.config.LookbackPeriods), 0, 1)

	switch {
	case trend > 0.001 && centered > 0.2:
		phase = "markup"
	case trend < -0.001 && centered < -0.2:
		phase = "markdown"
	case position < 0.35:
		phase = "accumulation"
	case position > 0.65:
		phase = "distribution"
	default:
		phase = "indeterminate"
	}
	return value, confidence, phase
}

// OscillatorConfig tunes the RSI/MFI/Stochastic processor.
type OscillatorConfig struct {
	RSIPeriod           int
	MFIPeriod            int
	StochKPeriod         int
	StochDPeriod         int
	OverboughtThreshold  float64
	OversoldThreshold    float64
}

// OscillatorProcessor treats oscillator extremes as mean-reversion
// signals: an oversold reading contributes a bullish value, overbought
// contributes bearish, via github.com/markcheno/go-talib.
type OscillatorProcessor struct {
	config OscillatorConfig
}

func NewOscillatorProcessor(config OscillatorConfig) *OscillatorProcessor {
	if config.RSIPeriod == 0 {
		config.RSIPeriod = 14
	}
	if config.MFIPeriod == 0 {
		config.MFIPeriod = 14
	}
	if config.StochKPeriod == 0 {
		config.StochKPeriod = 14
	}
	if config.StochDPeriod == 0 {
		config.StochDPeriod = 3
	}
	if config.OverboughtThreshold == 0 {
		config.OverboughtThreshold = 70
	}
	if config.OversoldThreshold == 0 {
		config.OversoldThreshold = 30
	}
	return &OscillatorProcessor{config: config}
}

func (p *OscillatorProcessor) Compute(bars []domain.Bar) (value, confidence float64) {
	minBars := p.config.RSIPeriod + 1
	if len(bars) < minBars {
		return 0, 0
	}

	closes := closesOf(bars)
	highs := highsOf(bars)
	lows := lowsOf(bars)
	volumes := volumesOf(bars)

	var deviations []float64
	var hits int

	rsi := talib.Rsi(closes, p.config.RSIPeriod)
	if v, ok := lastFinite(rsi); ok {
		deviations = append(deviations, (v-50)/50)
		hits++
	}

	if len(bars) >= p.config.MFIPeriod+1 {
		mfi := talib.Mfi(highs, lows, closes, volumes, p.config.MFIPeriod)
		if v, ok := lastFinite(mfi); ok {
			deviations = append(deviations, (v-50)/50)
			hits++
		}
	}

	if len(bars) >= p.config.StochKPeriod+p.config.StochDPeriod {
		slowK, _ := talib.Stoch(highs, lows, closes, p.config.StochKPeriod, 3, talib.SMA, p.config.StochDPeriod, talib.SMA)
		if v, ok := lastFinite(slowK); ok {
			deviations = append(deviations, (v-50)/50)
			hits++
		}
	}

	if hits == 0 {
		return 0, 0
	}

	avgDeviation := formulas.Mean(deviations)
	// mean-reversion framing: an overbought reading (positive deviation)
	// implies downside sentiment, oversold implies upside.
	value = clamp(-avgDeviation, -1, 1)
	confidence = 0.4 + 0.2*float64(hits)
	if abs(avgDeviation) > (p.config.OverboughtThreshold-50)/50 {
		confidence = clamp(confidence+0.2, 0, 1)
	}
	return value, clamp(confidence, 0, 1)
}

// VolatilityConfig tunes the Bollinger/Keltner envelope processor.
type VolatilityConfig struct {
	BBPeriod  int
	BBStdDev  float64
	KCPeriod  int
	KCATRMult float64
}

// VolatilityProcessor compares Bollinger band width to a Keltner channel
// to flag squeeze/expansion/compression regimes, and scores sentiment
// from the close's position relative to the bands.
type VolatilityProcessor struct {
	config VolatilityConfig
}

func NewVolatilityProcessor(config VolatilityConfig) *VolatilityProcessor {
	if config.BBPeriod == 0 {
		config.BBPeriod = 20
	}
	if config.BBStdDev == 0 {
		config.BBStdDev = 2.0
	}
	if config.KCPeriod == 0 {
		config.KCPeriod = 20
	}
	if config.KCATRMult == 0 {
		config.KCATRMult = 1.5
	}
	return &VolatilityProcessor{config: config}
}

// Compute returns the sentiment pair plus a regime label (squeeze,
// expansion, compression, or normal).
func (p *VolatilityProcessor) Compute(bars []domain.Bar) (value, confidence float64, regime string) {
	if len(bars) < p.config.BBPeriod+1 {
		return 0, 0, "normal"
	}

	closes := closesOf(bars)
	highs := highsOf(bars)
	lows := lowsOf(bars)

	upperBB, midBB, lowerBB := talib.BBands(closes, p.config.BBPeriod, p.config.BBStdDev, p.config.BBStdDev, talib.SMA)
	atr := talib.Atr(highs, lows, closes, p.config.KCPeriod)

	upperVal, okU := lastFinite(upperBB)
	lowerVal, okL := lastFinite(lowerBB)
	midVal, okM := lastFinite(midBB)
	atrVal, okA := lastFinite(atr)
	if !okU || !okL || !okM || !okA {
		return 0, 0, "normal"
	}

	bbWidth := upperVal - lowerVal
	upperKC := midVal + atrVal*p.config.KCATRMult
	lowerKC := midVal - atrVal*p.config.KCATRMult
	kcWidth := upperKC - lowerKC

	squeeze := bbWidth < kcWidth
	close := closes[len(closes)-1]

	switch {
	case squeeze:
		regime = "squeeze"
	case bbWidth > kcWidth*1.2:
		regime = "expansion"
	case bbWidth < kcWidth*0.8:
		regime = "compression"
	default:
		regime = "normal"
	}

	bandRange := upperVal - lowerVal
	position := 0.5
	if bandRange > 1e-9 {
		position = (close - lowerVal) / bandRange
	}
	value = clamp((position-0.5)*2, -1, 1)

	confidence = 0.5
	if regime == "squeeze" || regime == "expansion" {
		confidence = 0.65
	}
	return value, confidence, regime
}

// FlowBiasConfig tunes the order-flow processor.
type FlowBiasConfig struct {
	OrderflowWindow int
}

// FlowBiasProcessor scores recent intraday order flow imbalance as a
// sentiment value.
type FlowBiasProcessor struct {
	config FlowBiasConfig
}

func NewFlowBiasProcessor(config FlowBiasConfig) *FlowBiasProcessor {
	if config.OrderflowWindow == 0 {
		config.OrderflowWindow = 50
	}
	return &FlowBiasProcessor{config: config}
}

func (p *FlowBiasProcessor) Compute(trades []domain.Trade) (value, confidence float64) {
	if len(trades) == 0 {
		return 0, 0
	}
	window := trades
	if len(window) > p.config.OrderflowWindow {
		window = window[len(window)-p.config.OrderflowWindow:]
	}

	var buy, sell float64
	for _, t := range window {
		if t.Side == domain.Buy {
			buy += t.Size
		} else {
			sell += t.Size
		}
	}
	denom := buy + sell
	if denom == 0 {
		return 0, 0
	}
	value = clamp((buy-sell)/denom, -1, 1)
	confidence = clamp(float64(len(window))/float64(p.config.OrderflowWindow), 0, 1) * 0.7
	return value, confidence
}

// BreadthRegimeConfig tunes the moving-average consensus processor.
type BreadthRegimeConfig struct {
	MAPeriods    []int
	RegimeWindow int
}

// BreadthRegimeProcessor checks whether price sits above or below a set
// of moving averages to classify a multi-period regime label used by the
// fusion step's regime-aware weighting.
type BreadthRegimeProcessor struct {
	config BreadthRegimeConfig
}

func NewBreadthRegimeProcessor(config BreadthRegimeConfig) *BreadthRegimeProcessor {
	if len(config.MAPeriods) == 0 {
		config.MAPeriods = []int{20, 50}
	}
	if config.RegimeWindow == 0 {
		config.RegimeWindow = 20
	}
	return &BreadthRegimeProcessor{config: config}
}

// Compute returns the sentiment pair plus a multi-period regime label:
// bullish_consensus, bearish_consensus, mixed, or choppy.
func (p *BreadthRegimeProcessor) Compute(bars []domain.Bar) (value, confidence float64, regime string) {
	maxPeriod := 0
	for _, period := range p.config.MAPeriods {
		if period > maxPeriod {
			maxPeriod = period
		}
	}
	if len(bars) < maxPeriod+1 {
		return 0, 0, "mixed"
	}

	closes := closesOf(bars)
	close := closes[len(closes)-1]

	var above, below int
	for _, period := range p.config.MAPeriods {
		ma := formulas.Mean(closes[len(closes)-period:])
		if close > ma {
			above++
		} else {
			below++
		}
	}

	switch {
	case above == len(p.config.MAPeriods):
		regime = "bullish_consensus"
		value = 1
	case below == len(p.config.MAPeriods):
		regime = "bearish_consensus"
		value = -1
	case above > below:
		regime = "mixed"
		value = 0.3
	case below > above:
		regime = "mixed"
		value = -0.3
	default:
		regime = "choppy"
		value = 0
	}

	confidence = 0.5
	if regime == "bullish_consensus" || regime == "bearish_consensus" {
		confidence = 0.75
	}
	return value, confidence, regime
}

// EnergyConfig tunes the market-energy processor.
type EnergyConfig struct {
	MomentumWindow   int
	CoherenceWindow  int
}

// EnergyProcessor estimates market energy (metabolic load) from momentum
// magnitude and the correlation between absolute returns and volume, and
// scores sentiment from momentum direction.
type EnergyProcessor struct {
	config EnergyConfig
}

func NewEnergyProcessor(config EnergyConfig) *EnergyProcessor {
	if config.MomentumWindow == 0 {
		config.MomentumWindow = 10
	}
	if config.CoherenceWindow == 0 {
		config.CoherenceWindow = 20
	}
	return &EnergyProcessor{config: config}
}

// Compute returns the sentiment pair plus the metabolic load (energy
// level) consumed by the fusion step's energy-aware rescaling.
func (p *EnergyProcessor) Compute(bars []domain.Bar) (value, confidence, metabolicLoad float64) {
	window := p.config.CoherenceWindow
	if len(bars) < window+1 {
		window = len(bars) - 1
	}
	if window < 2 {
		return 0, 0, 0
	}

	closes := closesOf(bars[len(bars)-window-1:])
	volumes := volumesOf(bars[len(bars)-window-1:])
	returns := formulas.CalculateReturns(closes)

	momentumWindow := p.config.MomentumWindow
	if momentumWindow > len(returns) {
		momentumWindow = len(returns)
	}
	momentum := formulas.Mean(returns[len(returns)-momentumWindow:])

	absReturns := make([]float64, len(returns))
	for i, r := range returns {
		absReturns[i] = abs(r)
	}
	coherence := formulas.Correlation(absReturns, volumes[1:])
	if coherence != coherence { // NaN guard: constant series
		coherence = 0
	}

	vol := formulas.StdDev(returns)
	metabolicLoad = abs(momentum)*10 + vol*20 + abs(coherence)
	value = clamp(momentum*50, -1, 1)
	confidence = clamp(float64(window)/float64(p.config.CoherenceWindow), 0, 1) * 0.6
	return value, confidence, metabolicLoad
}

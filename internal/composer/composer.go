// Package composer fuses the hedge, liquidity, and sentiment engines'
// directives into one CompositeMarketDirective per tick: a weighted
// directional bias, an agreement-calibrated confidence, and a
// probabilistic multi-timeframe price forecast. Elasticity doesn't vote
// on direction (it has no original composer weight) but still feeds the
// forecast's range-widening term, matching the source's two coexisting
// engine/agent sets.
package composer

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/aristath/directive-engine/internal/domain"
)

// Config tunes the composer's engine weights, action/confidence
// thresholds, and per-regime weight overrides.
type Config struct {
	Weights             domain.ComposerWeights
	RegimeWeightOverrides map[string]domain.ComposerWeights
	ActionThreshold     float64
	ConfidenceThreshold float64
}

func (c Config) withDefaults() Config {
	if c.Weights == (domain.ComposerWeights{}) {
		c.Weights = domain.ComposerWeights{Hedge: 0.40, Liquidity: 0.35, Sentiment: 0.25}
	}
	if c.ActionThreshold == 0 {
		c.ActionThreshold = 0.3
	}
	if c.ConfidenceThreshold == 0 {
		c.ConfidenceThreshold = 0.5
	}
	return c
}

func (c Config) weightsForRegime(regime string) domain.ComposerWeights {
	if override, ok := c.RegimeWeightOverrides[regime]; ok {
		return override
	}
	return c.Weights
}

// timeframeParams is one entry in the fixed per-timeframe base-range /
// multiplier table. Ordered, not a map, so forecast tests can rely on
// insertion order if they ever need to (the table itself never changes at
// runtime).
type timeframeParams struct {
	name       string
	base       float64
	multiplier float64
}

var timeframes = []timeframeParams{
	{"1m", 0.002, 1.5},
	{"5m", 0.005, 2.0},
	{"15m", 0.008, 2.5},
	{"1h", 0.015, 3.0},
	{"4h", 0.025, 3.5},
	{"1d", 0.035, 4.0},
}

// Composer fuses directives and suggestions into one composite directive.
type Composer struct {
	config Config
}

// New constructs a Composer.
func New(config Config) *Composer {
	return &Composer{config: config.withDefaults()}
}

// Compose fuses this tick's per-engine directives (for continuous
// direction/confidence/energy/volatility) and suggestions (for the
// categorical agreement-level classification and rationale) into one
// CompositeMarketDirective.
func (c *Composer) Compose(snapshot domain.StandardSnapshot, directives []domain.EngineDirective, suggestions []domain.Suggestion) domain.CompositeMarketDirective {
	weights := c.config.weightsForRegime(snapshot.Regime)

	hedgeDirective := findDirective(directives, "hedge")
	liquidityDirective := findDirective(directives, "liquidity")
	sentimentDirective := findDirective(directives, "sentiment")

	direction, rawConfidence, energyCost, volatility := c.weightedDirection(weights, hedgeDirective, liquidityDirective, sentimentDirective)

	hedgeSuggestion := findSuggestion(suggestions, "primary_hedge")
	liquiditySuggestion := findSuggestion(suggestions, "primary_liquidity")
	sentimentSuggestion := findSuggestion(suggestions, "primary_sentiment")

	agreement := agreementLevel(hedgeSuggestion, liquiditySuggestion, sentimentSuggestion)
	confidence := c.calibrateConfidence(rawConfidence, agreement, snapshot.Regime)

	currentPrice := referencePrice(snapshot)
	elasticity := snapshot.Elasticity["elasticity_up"]
	if elasticity == 0 {
		elasticity = 1.0
	}
	forecast := c.forecast(currentPrice, direction, confidence, elasticity)

	style := c.tradeStyle(direction, confidence, agreement)

	return domain.CompositeMarketDirective{
		Symbol:     snapshot.Symbol,
		Timestamp:  snapshot.Timestamp,
		Direction:  direction,
		Strength:   clamp(abs(direction), 0, 1),
		Confidence: confidence,
		Regime:     snapshot.Regime,
		EnergyCost: energyCost,
		TradeStyle: style,
		Volatility: volatility,
		Forecast:   forecast,
		Rationale:  c.reasoning(hedgeSuggestion, liquiditySuggestion, sentimentSuggestion, direction, agreement, confidence),
	}
}

// weightedDirection computes the confidence-weighted directional bias plus
// the weighted energy/volatility averages, all sharing the same
// weight×confidence denominator so a degraded engine (confidence 0)
// contributes nothing to any of the three.
func (c *Composer) weightedDirection(weights domain.ComposerWeights, hedge, liquidity, sentiment *domain.EngineDirective) (direction, confidence, energyCost, volatility float64) {
	var weightedBias, weightedEnergy, weightedVol, totalWeight float64

	accumulate := func(d *domain.EngineDirective, w float64) {
		if d == nil {
			return
		}
		weight := w * d.Confidence
		weightedBias += d.Direction * weight
		weightedEnergy += d.Energy * weight
		weightedVol += d.VolatilityProxy * weight
		totalWeight += weight
	}
	accumulate(hedge, weights.Hedge)
	accumulate(liquidity, weights.Liquidity)
	accumulate(sentiment, weights.Sentiment)

	if totalWeight <= 0 {
		return 0, 0, 0, 0
	}
	direction = weightedBias / totalWeight
	confidence = clamp(totalWeight, 0, 1)
	energyCost = weightedEnergy / totalWeight
	volatility = weightedVol / totalWeight
	return direction, confidence, energyCost, volatility
}

// agreementLevel classifies how many of the three primary suggestions
// point the same direction, among those with a strong-enough action.
func agreementLevel(hedge, liquidity, sentiment *domain.Suggestion) string {
	var actions []domain.Action
	for _, s := range []*domain.Suggestion{hedge, liquidity, sentiment} {
		if s != nil && (s.Action == domain.ActionLong || s.Action == domain.ActionShort) {
			actions = append(actions, s.Action)
		}
	}
	if len(actions) == 0 {
		return "neutral"
	}

	counts := map[domain.Action]int{}
	mostCommon := 0
	for _, a := range actions {
		counts[a]++
		if counts[a] > mostCommon {
			mostCommon = counts[a]
		}
	}

	switch {
	case mostCommon == len(actions):
		return "full"
	case mostCommon >= 2:
		return "majority"
	default:
		return "conflict"
	}
}

var agreementMultipliers = map[string]float64{
	"full":     1.2,
	"majority": 1.0,
	"conflict": 0.5,
	"neutral":  0.7,
}

func (c *Composer) calibrateConfidence(rawConfidence float64, agreement, regime string) float64 {
	confidence := rawConfidence * agreementMultipliers[agreement]

	lowered := strings.ToLower(regime)
	if strings.Contains(lowered, "volatile") || strings.Contains(lowered, "toxic") {
		confidence *= 0.8
	}
	if strings.Contains(lowered, "stable") || strings.Contains(lowered, "liquid") {
		confidence *= 1.1
	}

	return clamp(confidence, 0, 1)
}

func (c *Composer) forecast(currentPrice, direction, confidence, elasticity float64) map[string]domain.TimeframeRange {
	volMultiplier := 1.0 + 0.5*(elasticity-1.0)

	out := make(map[string]domain.TimeframeRange, len(timeframes))
	for _, tf := range timeframes {
		adjustedRange := tf.base * volMultiplier * tf.multiplier
		rangeSkew := direction * adjustedRange * 0.5

		mid := currentPrice * (1.0 + rangeSkew)
		low := mid * (1.0 - adjustedRange)
		high := mid * (1.0 + adjustedRange)
		prob := 0.5 + confidence*0.4

		out[tf.name] = domain.TimeframeRange{Low: low, Mid: mid, High: high, Prob: prob}
	}
	return out
}

func (c *Composer) tradeStyle(direction, confidence float64, agreement string) domain.TradeStyle {
	if confidence < c.config.ConfidenceThreshold {
		return domain.StyleFlat
	}
	if abs(direction) > c.config.ActionThreshold {
		return domain.StyleDirectional
	}
	if agreement == "neutral" {
		return domain.StyleNeutral
	}
	return domain.StyleSpread
}

func (c *Composer) reasoning(hedge, liquidity, sentiment *domain.Suggestion, direction float64, agreement string, confidence float64) string {
	var parts []string

	agreementDesc := map[string]string{
		"full":     "all engines agree",
		"majority": "majority agreement (2/3)",
		"conflict": "conflicting signals",
		"neutral":  "neutral positioning",
	}
	parts = append(parts, agreementDesc[agreement])

	if hedge != nil {
		parts = append(parts, fmt.Sprintf("Hedge: %s (%.2f)", hedge.Action, hedge.Confidence))
	}
	if liquidity != nil {
		parts = append(parts, fmt.Sprintf("Liquidity: %s (%.2f)", liquidity.Action, liquidity.Confidence))
	}
	if sentiment != nil {
		parts = append(parts, fmt.Sprintf("Sentiment: %s (%.2f)", sentiment.Action, sentiment.Confidence))
	}

	if abs(direction) > 0.3 {
		dir := "bearish"
		if direction > 0 {
			dir = "bullish"
		}
		strength := "moderate"
		if abs(direction) > 0.6 {
			strength = "strong"
		}
		parts = append(parts, fmt.Sprintf("consensus: %s %s bias (%+.2f)", strength, dir, direction))
	} else {
		parts = append(parts, fmt.Sprintf("consensus: neutral/rangebound (%+.2f)", direction))
	}

	confDesc := "low"
	switch {
	case confidence > 0.8:
		confDesc = "very high"
	case confidence > 0.6:
		confDesc = "high"
	case confidence > 0.4:
		confDesc = "moderate"
	}
	parts = append(parts, fmt.Sprintf("confidence: %s (%.2f)", confDesc, confidence))

	return strings.Join(parts, " | ")
}

// referencePrice extracts the current price from the snapshot's fallback
// chain: metadata current_price, then hedge spot, then liquidity mid
// price, else the documented placeholder.
func referencePrice(snapshot domain.StandardSnapshot) float64 {
	if raw, ok := snapshot.Metadata["current_price"]; ok {
		if price, err := strconv.ParseFloat(raw, 64); err == nil {
			return price
		}
	}
	if spot, ok := snapshot.Hedge["spot"]; ok && spot != 0 {
		return spot
	}
	if mid, ok := snapshot.Liquidity["mid_price"]; ok && mid != 0 {
		return mid
	}
	return 100.0
}

func findDirective(directives []domain.EngineDirective, name string) *domain.EngineDirective {
	for i := range directives {
		if directives[i].Name == name {
			return &directives[i]
		}
	}
	return nil
}

func findSuggestion(suggestions []domain.Suggestion, layer string) *domain.Suggestion {
	for i := range suggestions {
		if suggestions[i].Layer == layer {
			return &suggestions[i]
		}
	}
	return nil
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

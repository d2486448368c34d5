package agents

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/aristath/directive-engine/internal/domain"
)

// HedgeConfig tunes the hedge agent's short/long gamma thresholds.
type HedgeConfig struct {
	ShortGammaThreshold float64 // positive magnitude; compared against -threshold
	LongGammaThreshold  float64
}

func (c HedgeConfig) withDefaults() HedgeConfig {
	if c.ShortGammaThreshold == 0 {
		c.ShortGammaThreshold = 1e6
	}
	if c.LongGammaThreshold == 0 {
		c.LongGammaThreshold = 1e6
	}
	return c
}

// HedgeAgent interprets hedge-engine features into a Suggestion.
type HedgeAgent struct {
	config HedgeConfig
	last   *domain.EngineOutput
}

// NewHedgeAgent constructs a HedgeAgent.
func NewHedgeAgent(config HedgeConfig) *HedgeAgent {
	return &HedgeAgent{config: config.withDefaults()}
}

func (a *HedgeAgent) Step(snapshot domain.StandardSnapshot) domain.Suggestion {
	hedge := snapshot.Hedge
	action := domain.ActionFlat
	confidence := 0.5
	reasoning := "Neutral hedge field"
	var tags []string

	gammaPressure := hedge["gamma_pressure"]
	switch {
	case gammaPressure < -a.config.ShortGammaThreshold:
		action = domain.ActionLong
		confidence = 0.7
		tags = append(tags, "short_gamma")
		reasoning = "Short gamma regime"
	case gammaPressure > a.config.LongGammaThreshold:
		action = domain.ActionFlat
		confidence = 0.3
		tags = append(tags, "long_gamma")
		reasoning = "Long gamma dampens moves"
	}

	return domain.Suggestion{
		ID:         fmt.Sprintf("hedge-%s", uuid.NewString()),
		Layer:      "primary_hedge",
		Symbol:     snapshot.Symbol,
		Action:     action,
		Confidence: confidence,
		Forecast:   map[string]float64{},
		Reasoning:  reasoning,
		Tags:       tags,
	}
}

func (a *HedgeAgent) SetEngineOutput(output domain.EngineOutput) {
	a.last = &output
}

func (a *HedgeAgent) Output() (domain.EngineDirective, error) {
	if a.last == nil {
		return domain.EngineDirective{}, ErrOutputUnavailable
	}
	features := a.last.Features

	gammaSign := features["gamma_sign"]
	direction := clamp(gammaSign, -1, 1)
	strength := clamp(abs(features["gamma_pressure"])/a.config.LongGammaThreshold, 0, 1)
	energy := features["hedge_regime_energy"]

	return domain.EngineDirective{
		Name:            "hedge",
		Direction:       direction,
		Strength:        strength,
		Confidence:      a.last.Confidence,
		Regime:          a.last.Regime,
		Energy:          energy,
		VolatilityProxy: abs(features["vanna_pressure"]),
		Features:        namespaceFeatures("hedge", features),
		Notes:           fmt.Sprintf("HedgeAgent | regime=%s | gamma_sign=%.2f", a.last.Regime, gammaSign),
	}, nil
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

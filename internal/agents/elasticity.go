package agents

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/aristath/directive-engine/internal/domain"
)

// ElasticityConfig tunes the elasticity agent's resistance threshold.
type ElasticityConfig struct {
	HighResistanceThreshold float64
}

func (c ElasticityConfig) withDefaults() ElasticityConfig {
	if c.HighResistanceThreshold == 0 {
		c.HighResistanceThreshold = 1.0
	}
	return c
}

// ElasticityAgent interprets elasticity-engine features into a
// Suggestion: high energy-to-move implies a flat posture, low
// energy implies the market will move readily on incremental flow.
type ElasticityAgent struct {
	config ElasticityConfig
	last   *domain.EngineOutput
}

// NewElasticityAgent constructs an ElasticityAgent.
func NewElasticityAgent(config ElasticityConfig) *ElasticityAgent {
	return &ElasticityAgent{config: config.withDefaults()}
}

func (a *ElasticityAgent) Step(snapshot domain.StandardSnapshot) domain.Suggestion {
	elasticity := snapshot.Elasticity
	action := domain.ActionFlat
	confidence := 0.4
	reasoning := "Normal elasticity"
	var tags []string

	energyUp := elasticity["energy_to_move_1pct_up"]
	energyDown := elasticity["energy_to_move_1pct_down"]

	switch {
	case energyUp > a.config.HighResistanceThreshold && energyDown > a.config.HighResistanceThreshold:
		action = domain.ActionFlat
		confidence = 0.6
		tags = append(tags, "high_resistance")
		reasoning = "High energy required to move price either way"
	case energyUp < a.config.HighResistanceThreshold*0.5:
		action = domain.ActionLong
		confidence = 0.5
		tags = append(tags, "low_resistance_up")
		reasoning = "Low energy required to move price up"
	case energyDown < a.config.HighResistanceThreshold*0.5:
		action = domain.ActionShort
		confidence = 0.5
		tags = append(tags, "low_resistance_down")
		reasoning = "Low energy required to move price down"
	}

	return domain.Suggestion{
		ID:         fmt.Sprintf("elas-%s", uuid.NewString()),
		Layer:      "primary_elasticity",
		Symbol:     snapshot.Symbol,
		Action:     action,
		Confidence: confidence,
		Forecast:   map[string]float64{},
		Reasoning:  reasoning,
		Tags:       tags,
	}
}

func (a *ElasticityAgent) SetEngineOutput(output domain.EngineOutput) {
	a.last = &output
}

func (a *ElasticityAgent) Output() (domain.EngineDirective, error) {
	if a.last == nil {
		return domain.EngineDirective{}, ErrOutputUnavailable
	}
	features := a.last.Features

	elasticityUp := features["elasticity_up"]
	elasticityDown := features["elasticity_down"]
	direction := clamp(elasticityUp-elasticityDown, -1, 1)
	strength := clamp((elasticityUp+elasticityDown)/2, 0, 1)
	energy := (features["energy_to_move_1pct_up"] + features["energy_to_move_1pct_down"]) / 2

	return domain.EngineDirective{
		Name:            "elasticity",
		Direction:       direction,
		Strength:        strength,
		Confidence:      a.last.Confidence,
		Regime:          a.last.Regime,
		Energy:          energy,
		VolatilityProxy: features["expected_move_cost_1d"],
		Features:        namespaceFeatures("elasticity", features),
		Notes:           fmt.Sprintf("ElasticityAgent | regime=%s | energy=%.4f", a.last.Regime, energy),
	}, nil
}

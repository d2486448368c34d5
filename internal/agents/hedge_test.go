package agents

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/aristath/directive-engine/internal/domain"
)

func TestHedgeAgent_Step_ShortGammaGoesLong(t *testing.T) {
	agent := NewHedgeAgent(HedgeConfig{})
	snapshot := domain.StandardSnapshot{
		Symbol: "TEST",
		Hedge:  map[string]float64{"gamma_pressure": -2e6},
	}

	suggestion := agent.Step(snapshot)

	assert.Equal(t, domain.ActionLong, suggestion.Action)
	assert.Contains(t, suggestion.Tags, "short_gamma")
}

func TestHedgeAgent_Output_WithoutSetEngineOutputErrors(t *testing.T) {
	agent := NewHedgeAgent(HedgeConfig{})

	_, err := agent.Output()

	assert.ErrorIs(t, err, ErrOutputUnavailable)
}

func TestHedgeAgent_Output_TranslatesFeatures(t *testing.T) {
	agent := NewHedgeAgent(HedgeConfig{})
	agent.SetEngineOutput(domain.EngineOutput{
		Kind:       domain.KindHedge,
		Symbol:     "TEST",
		Timestamp:  time.Now(),
		Confidence: 0.8,
		Regime:     "gamma_squeeze",
		Features: map[string]float64{
			"gamma_sign":           1,
			"gamma_pressure":       5e5,
			"vanna_pressure":       -3e5,
			"hedge_regime_energy":  0.6,
		},
	})

	directive, err := agent.Output()

	assert.NoError(t, err)
	assert.Equal(t, "hedge", directive.Name)
	assert.InDelta(t, 1.0, directive.Direction, 1e-9)
	assert.InDelta(t, 0.6, directive.Energy, 1e-9)
	assert.InDelta(t, 3e5, directive.VolatilityProxy, 1e-9)
	assert.Equal(t, 5e5, directive.Features["hedge.gamma_pressure"])
}

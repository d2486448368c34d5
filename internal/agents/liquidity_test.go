package agents

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/aristath/directive-engine/internal/domain"
)

func TestLiquidityAgent_Step_ThinLiquidityRecommendsSpread(t *testing.T) {
	agent := NewLiquidityAgent(LiquidityConfig{})
	snapshot := domain.StandardSnapshot{
		Symbol:    "TEST",
		Liquidity: map[string]float64{"amihud_illiquidity": 0.01, "ofi": 0},
	}

	suggestion := agent.Step(snapshot)

	assert.Equal(t, domain.ActionSpread, suggestion.Action)
	assert.Contains(t, suggestion.Tags, "thin_liquidity")
}

func TestLiquidityAgent_Step_OneSidedFlowOverridesSpread(t *testing.T) {
	agent := NewLiquidityAgent(LiquidityConfig{})
	snapshot := domain.StandardSnapshot{
		Symbol:    "TEST",
		Liquidity: map[string]float64{"amihud_illiquidity": 0.01, "ofi": 0.9},
	}

	suggestion := agent.Step(snapshot)

	assert.Equal(t, domain.ActionLong, suggestion.Action)
	assert.Contains(t, suggestion.Tags, "one_sided_flow")
}

func TestLiquidityAgent_Output_WithoutSetEngineOutputErrors(t *testing.T) {
	agent := NewLiquidityAgent(LiquidityConfig{})

	_, err := agent.Output()

	assert.ErrorIs(t, err, ErrOutputUnavailable)
}

func TestLiquidityAgent_Output_TranslatesFeatures(t *testing.T) {
	agent := NewLiquidityAgent(LiquidityConfig{})
	agent.SetEngineOutput(domain.EngineOutput{
		Kind:       domain.KindLiquidity,
		Symbol:     "TEST",
		Timestamp:  time.Now(),
		Confidence: 0.7,
		Regime:     "one_sided_flow",
		Features: map[string]float64{
			"ofi":                         0.8,
			"volume_profile_magnet_score": 0.5,
			"amihud_illiquidity":          0.002,
			"liquidity_void_score":        0.1,
			"avg_spread_bps":              20,
		},
	})

	directive, err := agent.Output()

	assert.NoError(t, err)
	assert.Equal(t, "liquidity", directive.Name)
	assert.InDelta(t, 0.8, directive.Direction, 1e-9)
	assert.InDelta(t, 0.5, directive.Strength, 1e-9)
}

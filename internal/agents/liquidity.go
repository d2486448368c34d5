package agents

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/aristath/directive-engine/internal/domain"
)

// LiquidityConfig tunes the liquidity agent's regime thresholds.
type LiquidityConfig struct {
	ThinThreshold     float64
	OneSidedThreshold float64
}

func (c LiquidityConfig) withDefaults() LiquidityConfig {
	if c.ThinThreshold == 0 {
		c.ThinThreshold = 0.001
	}
	if c.OneSidedThreshold == 0 {
		c.OneSidedThreshold = 0.6
	}
	return c
}

// LiquidityAgent interprets liquidity-engine features into a Suggestion.
type LiquidityAgent struct {
	config LiquidityConfig
	last   *domain.EngineOutput
}

// NewLiquidityAgent constructs a LiquidityAgent.
func NewLiquidityAgent(config LiquidityConfig) *LiquidityAgent {
	return &LiquidityAgent{config: config.withDefaults()}
}

func (a *LiquidityAgent) Step(snapshot domain.StandardSnapshot) domain.Suggestion {
	liquidity := snapshot.Liquidity
	action := domain.ActionFlat
	confidence := 0.4
	reasoning := "Normal liquidity"
	var tags []string

	amihud := liquidity["amihud_illiquidity"]
	ofi := liquidity["ofi"]

	if amihud > a.config.ThinThreshold {
		action = domain.ActionSpread
		confidence = 0.6
		tags = append(tags, "thin_liquidity")
		reasoning = "Thin liquidity suggests spreads"
	}
	switch {
	case ofi > a.config.OneSidedThreshold:
		action = domain.ActionLong
		confidence = 0.7
		tags = append(tags, "one_sided_flow")
		reasoning = "Strong buy-side flow"
	case ofi < -a.config.OneSidedThreshold:
		action = domain.ActionShort
		confidence = 0.7
		tags = append(tags, "one_sided_flow")
		reasoning = "Strong sell-side flow"
	}

	return domain.Suggestion{
		ID:         fmt.Sprintf("liq-%s", uuid.NewString()),
		Layer:      "primary_liquidity",
		Symbol:     snapshot.Symbol,
		Action:     action,
		Confidence: confidence,
		Forecast:   map[string]float64{},
		Reasoning:  reasoning,
		Tags:       tags,
	}
}

func (a *LiquidityAgent) SetEngineOutput(output domain.EngineOutput) {
	a.last = &output
}

func (a *LiquidityAgent) Output() (domain.EngineDirective, error) {
	if a.last == nil {
		return domain.EngineDirective{}, ErrOutputUnavailable
	}
	features := a.last.Features

	ofi := features["ofi"]
	direction := clamp(ofi, -1, 1)

	magnet := features["volume_profile_magnet_score"]
	strength := clamp(magnet, 0, 1)

	amihud := features["amihud_illiquidity"]
	void := features["liquidity_void_score"]
	energy := features["avg_spread_bps"]/10000 + void

	return domain.EngineDirective{
		Name:            "liquidity",
		Direction:       direction,
		Strength:        strength,
		Confidence:      a.last.Confidence,
		Regime:          a.last.Regime,
		Energy:          energy,
		VolatilityProxy: amihud * 1e6,
		Features:        namespaceFeatures("liquidity", features),
		Notes:           fmt.Sprintf("LiquidityAgent | regime=%s | ofi=%.2f", a.last.Regime, ofi),
	}, nil
}

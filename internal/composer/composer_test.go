package composer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/directive-engine/internal/domain"
)

func directive(name string, direction, confidence, energy, vol float64) domain.EngineDirective {
	return domain.EngineDirective{Name: name, Direction: direction, Confidence: confidence, Energy: energy, VolatilityProxy: vol}
}

func suggestion(layer string, action domain.Action, confidence float64) domain.Suggestion {
	return domain.Suggestion{Layer: layer, Action: action, Confidence: confidence}
}

func TestCompose_FullAgreementProducesLongWithAmplifiedConfidence(t *testing.T) {
	now := time.Now()
	snapshot := domain.StandardSnapshot{
		Symbol:    "SPY",
		Timestamp: now,
		Hedge:     map[string]float64{"spot": 100},
		Liquidity: map[string]float64{},
		Elasticity: map[string]float64{"elasticity_up": 1.0},
		Regime:    "trending",
		Metadata:  map[string]string{},
	}
	directives := []domain.EngineDirective{
		directive("hedge", 0.8, 0.9, 1.0, 1.0),
		directive("liquidity", 0.6, 0.8, 1.0, 1.0),
		directive("sentiment", 0.7, 0.7, 1.0, 1.0),
	}
	suggestions := []domain.Suggestion{
		suggestion("primary_hedge", domain.ActionLong, 0.9),
		suggestion("primary_liquidity", domain.ActionLong, 0.8),
		suggestion("primary_sentiment", domain.ActionLong, 0.7),
	}

	c := New(Config{})
	out := c.Compose(snapshot, directives, suggestions)

	require.Greater(t, out.Direction, 0.7)
	assert.Equal(t, domain.StyleDirectional, out.TradeStyle)
	assert.Greater(t, out.Confidence, 0.5)
	assert.Greater(t, out.Forecast["1d"].Mid, 100.0)
}

func TestCompose_ForecastIsMonotoneWithinAndAcrossTimeframes(t *testing.T) {
	now := time.Now()
	snapshot := domain.StandardSnapshot{
		Symbol:    "SPY",
		Timestamp: now,
		Hedge:     map[string]float64{"spot": 100},
		Elasticity: map[string]float64{"elasticity_up": 1.0},
		Metadata:  map[string]string{"current_price": "100"},
	}
	directives := []domain.EngineDirective{
		directive("hedge", 0.5, 0.8, 1.0, 1.0),
		directive("liquidity", 0.5, 0.8, 1.0, 1.0),
		directive("sentiment", 0.5, 0.8, 1.0, 1.0),
	}
	suggestions := []domain.Suggestion{
		suggestion("primary_hedge", domain.ActionLong, 0.8),
		suggestion("primary_liquidity", domain.ActionLong, 0.8),
		suggestion("primary_sentiment", domain.ActionLong, 0.8),
	}

	c := New(Config{})
	out := c.Compose(snapshot, directives, suggestions)

	oneMinute := out.Forecast["1m"]
	oneDay := out.Forecast["1d"]

	assert.Less(t, oneMinute.Low, oneMinute.Mid)
	assert.Less(t, oneMinute.Mid, oneMinute.High)

	oneMinuteRange := oneMinute.High - oneMinute.Low
	oneDayRange := oneDay.High - oneDay.Low
	assert.Greater(t, oneDayRange, oneMinuteRange)

	assert.InDelta(t, 0.5+out.Confidence*0.4, oneMinute.Prob, 1e-9)
}

func TestCompose_ConflictingSignalsDampenConfidence(t *testing.T) {
	now := time.Now()
	snapshot := domain.StandardSnapshot{Symbol: "SPY", Timestamp: now, Metadata: map[string]string{"current_price": "100"}}
	directives := []domain.EngineDirective{
		directive("hedge", 0.8, 0.9, 1.0, 1.0),
		directive("liquidity", -0.8, 0.9, 1.0, 1.0),
		directive("sentiment", 0.1, 0.5, 1.0, 1.0),
	}
	suggestions := []domain.Suggestion{
		suggestion("primary_hedge", domain.ActionLong, 0.9),
		suggestion("primary_liquidity", domain.ActionShort, 0.9),
		suggestion("primary_sentiment", domain.ActionFlat, 0.5),
	}

	full := New(Config{}).Compose(snapshot, []domain.EngineDirective{
		directive("hedge", 0.8, 0.9, 1.0, 1.0),
		directive("liquidity", 0.8, 0.9, 1.0, 1.0),
		directive("sentiment", 0.8, 0.9, 1.0, 1.0),
	}, []domain.Suggestion{
		suggestion("primary_hedge", domain.ActionLong, 0.9),
		suggestion("primary_liquidity", domain.ActionLong, 0.9),
		suggestion("primary_sentiment", domain.ActionLong, 0.9),
	})

	conflict := New(Config{}).Compose(snapshot, directives, suggestions)

	assert.Less(t, conflict.Confidence, full.Confidence)
}

func TestCompose_NoDirectivesYieldsFlatZeroConfidence(t *testing.T) {
	snapshot := domain.StandardSnapshot{Symbol: "SPY", Timestamp: time.Now()}

	c := New(Config{})
	out := c.Compose(snapshot, nil, nil)

	assert.Equal(t, 0.0, out.Direction)
	assert.Equal(t, 0.0, out.Confidence)
	assert.Equal(t, domain.StyleFlat, out.TradeStyle)
}

func TestCompose_VolatileRegimeDampensConfidence(t *testing.T) {
	directives := []domain.EngineDirective{
		directive("hedge", 0.8, 0.9, 1.0, 1.0),
		directive("liquidity", 0.8, 0.9, 1.0, 1.0),
		directive("sentiment", 0.8, 0.9, 1.0, 1.0),
	}
	suggestions := []domain.Suggestion{
		suggestion("primary_hedge", domain.ActionLong, 0.9),
		suggestion("primary_liquidity", domain.ActionLong, 0.9),
		suggestion("primary_sentiment", domain.ActionLong, 0.9),
	}

	calm := New(Config{}).Compose(domain.StandardSnapshot{Regime: "stable", Metadata: map[string]string{"current_price": "100"}}, directives, suggestions)
	volatile := New(Config{}).Compose(domain.StandardSnapshot{Regime: "volatile_squeeze", Metadata: map[string]string{"current_price": "100"}}, directives, suggestions)

	assert.Greater(t, calm.Confidence, volatile.Confidence)
}

func TestCompose_ReferencePriceFallsBackThroughChain(t *testing.T) {
	c := New(Config{})

	withMetadata := c.Compose(domain.StandardSnapshot{Metadata: map[string]string{"current_price": "250"}}, nil, nil)
	assert.InDelta(t, 250.0, withMetadata.Forecast["1m"].Mid, 1e-9)

	withSpot := c.Compose(domain.StandardSnapshot{Hedge: map[string]float64{"spot": 300}}, nil, nil)
	assert.InDelta(t, 300.0, withSpot.Forecast["1m"].Mid, 1e-9)

	withMid := c.Compose(domain.StandardSnapshot{Liquidity: map[string]float64{"mid_price": 42}}, nil, nil)
	assert.InDelta(t, 42.0, withMid.Forecast["1m"].Mid, 1e-9)

	withNothing := c.Compose(domain.StandardSnapshot{}, nil, nil)
	assert.InDelta(t, 100.0, withNothing.Forecast["1m"].Mid, 1e-9)
}

func TestCompose_RegimeWeightOverrideChangesWeighting(t *testing.T) {
	directives := []domain.EngineDirective{
		directive("hedge", 1.0, 1.0, 1.0, 1.0),
		directive("liquidity", -1.0, 1.0, 1.0, 1.0),
	}

	defaultWeighted := New(Config{}).Compose(domain.StandardSnapshot{Regime: "squeeze"}, directives, nil)

	overridden := New(Config{
		RegimeWeightOverrides: map[string]domain.ComposerWeights{
			"squeeze": {Hedge: 1.0, Liquidity: 0.0, Sentiment: 0.0},
		},
	}).Compose(domain.StandardSnapshot{Regime: "squeeze"}, directives, nil)

	assert.Greater(t, overridden.Direction, defaultWeighted.Direction)
}

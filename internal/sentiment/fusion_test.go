package sentiment

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/aristath/directive-engine/internal/domain"
)

func TestFuseSignals_EmptyReturnsNeutral(t *testing.T) {
	envelope := FuseSignals(nil, 0, "", 0.15)

	assert.Equal(t, domain.Neutral, envelope.Bias)
	assert.Equal(t, 0.0, envelope.Strength)
	assert.Equal(t, 0.0, envelope.Confidence)
}

func TestFuseSignals_BullishConsensus(t *testing.T) {
	signals := []domain.SentimentSignal{
		{Value: 0.8, Confidence: 0.9, Weight: 1.0, Driver: "wyckoff"},
		{Value: 0.6, Confidence: 0.8, Weight: 1.0, Driver: "energy"},
	}

	envelope := FuseSignals(signals, 1.0, "bullish_consensus", 0.15)

	assert.Equal(t, domain.Bullish, envelope.Bias)
	assert.Greater(t, envelope.Strength, 0.0)
	assert.False(t, envelope.Conflict)
}

func TestFuseSignals_ConflictingSignalsSetConflict(t *testing.T) {
	signals := []domain.SentimentSignal{
		{Value: 0.9, Confidence: 0.8, Weight: 1.0, Driver: "wyckoff"},
		{Value: -0.9, Confidence: 0.8, Weight: 1.0, Driver: "oscillators"},
	}

	envelope := FuseSignals(signals, 1.0, "", 0.15)

	assert.True(t, envelope.Conflict)
}

func TestApplyGracefulDegradation_BoostsSurvivors(t *testing.T) {
	signals := []domain.SentimentSignal{
		{Value: 0.5, Confidence: 0.8, Weight: 1.0, Driver: "wyckoff"},
		{Value: 0.5, Confidence: 0.8, Weight: 1.0, Driver: "energy"},
	}

	boosted := ApplyGracefulDegradation(signals, 3)

	assert.Len(t, boosted, 2)
	for _, s := range boosted {
		assert.InDelta(t, 1.0, s.Confidence, 1e-9) // 0.8*1.5 = 1.2, capped at 1
		assert.InDelta(t, 1.0*1.5, s.Weight, 1e-9)
	}
}

func TestDetectConflictingSignals_NoConflictWhenOneSided(t *testing.T) {
	signals := []domain.SentimentSignal{
		{Value: 0.9, Confidence: 0.8, Weight: 1.0, Driver: "wyckoff"},
		{Value: 0.8, Confidence: 0.8, Weight: 1.0, Driver: "energy"},
	}

	assert.False(t, DetectConflictingSignals(signals, 0.7))
}

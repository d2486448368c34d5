package agents

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/aristath/directive-engine/internal/domain"
)

// SentimentConfig tunes the sentiment agent's bullish/bearish thresholds.
type SentimentConfig struct {
	BullishThreshold float64
	BearishThreshold float64
}

func (c SentimentConfig) withDefaults() SentimentConfig {
	if c.BullishThreshold == 0 {
		c.BullishThreshold = 0.3
	}
	if c.BearishThreshold == 0 {
		c.BearishThreshold = -0.3
	}
	return c
}

// SentimentAgent interprets the fused sentiment envelope's namespaced
// features into a Suggestion.
type SentimentAgent struct {
	config SentimentConfig
	last   *domain.EngineOutput
}

// NewSentimentAgent constructs a SentimentAgent.
func NewSentimentAgent(config SentimentConfig) *SentimentAgent {
	return &SentimentAgent{config: config.withDefaults()}
}

func (a *SentimentAgent) Step(snapshot domain.StandardSnapshot) domain.Suggestion {
	sentiment := snapshot.Sentiment
	action := domain.ActionFlat
	confidence := 0.4
	reasoning := "Neutral sentiment"
	var tags []string

	biasValue := sentiment["bias_value"]
	strength := sentiment["strength"]
	score := biasValue * strength

	switch {
	case score > a.config.BullishThreshold:
		action = domain.ActionLong
		confidence = clamp(0.5+strength*0.3, 0, 1)
		tags = append(tags, "bullish_sentiment")
		reasoning = "Fused sentiment favors upside"
	case score < a.config.BearishThreshold:
		action = domain.ActionShort
		confidence = clamp(0.5+strength*0.3, 0, 1)
		tags = append(tags, "bearish_sentiment")
		reasoning = "Fused sentiment favors downside"
	}

	return domain.Suggestion{
		ID:         fmt.Sprintf("sent-%s", uuid.NewString()),
		Layer:      "primary_sentiment",
		Symbol:     snapshot.Symbol,
		Action:     action,
		Confidence: confidence,
		Forecast:   map[string]float64{},
		Reasoning:  reasoning,
		Tags:       tags,
	}
}

func (a *SentimentAgent) SetEngineOutput(output domain.EngineOutput) {
	a.last = &output
}

func (a *SentimentAgent) Output() (domain.EngineDirective, error) {
	if a.last == nil {
		return domain.EngineDirective{}, ErrOutputUnavailable
	}
	features := a.last.Features

	biasValue := features["bias_value"]
	strength := features["strength"]
	direction := clamp(biasValue, -1, 1)
	energy := features["energy"]

	return domain.EngineDirective{
		Name:            "sentiment",
		Direction:       direction,
		Strength:        clamp(strength, 0, 1),
		Confidence:      a.last.Confidence,
		Regime:          a.last.Regime,
		Energy:          energy,
		VolatilityProxy: energy * 10,
		Features:        namespaceFeatures("sentiment", features),
		Notes:           fmt.Sprintf("SentimentAgent | bias=%s | strength=%.2f", a.last.Regime, strength),
	}, nil
}

// Package sentiment fuses the six processors' signals into one
// SentimentEnvelope per tick: energy-aware dynamic weighting, graceful
// degradation when processors are missing, nonlinear confidence scoring,
// and conflict detection.
package sentiment

import (
	"math"
	"sort"

	"github.com/aristath/directive-engine/internal/domain"
)

// FuseSignals combines processor signals into a unified envelope.
// energyLevel comes from the energy processor's metabolic load; regime
// comes from the breadth processor's multi-period classification.
func FuseSignals(signals []domain.SentimentSignal, energyLevel float64, regime string, biasThreshold float64) domain.SentimentEnvelope {
	if len(signals) == 0 {
		return emptyEnvelope()
	}

	weighted := applyRegimeWeights(signals, regime, energyLevel)
	rescaled := applyEnergyRescaling(weighted, energyLevel)

	var totalWeight float64
	for _, s := range rescaled {
		totalWeight += s.Weight * s.Confidence
	}
	if totalWeight == 0 {
		return emptyEnvelope()
	}

	var weightedSum float64
	for _, s := range rescaled {
		weightedSum += s.Value * s.Weight * s.Confidence
	}
	combined := weightedSum / totalWeight

	bias := determineBias(combined, biasThreshold)
	strength := math.Min(1.0, math.Abs(combined))
	confidence := calculateMetaConfidence(rescaled, combined)
	drivers := extractDrivers(rescaled)
	energy := calculateAggregateEnergy(rescaled, energyLevel)

	return domain.SentimentEnvelope{
		Bias:       bias,
		Strength:   strength,
		Energy:     energy,
		Confidence: confidence,
		Drivers:    drivers,
		Conflict:   DetectConflictingSignals(signals, 0.7),
	}
}

func applyRegimeWeights(signals []domain.SentimentSignal, regime string, energyLevel float64) []domain.SentimentSignal {
	out := make([]domain.SentimentSignal, len(signals))
	for i, s := range signals {
		weight := s.Weight

		switch regime {
		case "bullish_consensus", "bearish_consensus", "risk_on", "risk_off":
			switch s.Driver {
			case "wyckoff", "energy":
				weight *= 1.3
			case "oscillators":
				weight *= 0.8
			}
		case "mixed", "neutral", "choppy":
			switch s.Driver {
			case "oscillators", "volatility":
				weight *= 1.3
			case "wyckoff":
				weight *= 0.8
			}
		}

		switch {
		case energyLevel > 1.5:
			switch s.Driver {
			case "oscillators":
				weight *= 0.7
			case "flow":
				weight *= 1.2
			}
		case energyLevel < 0.5:
			switch s.Driver {
			case "oscillators":
				weight *= 1.2
			case "energy":
				weight *= 0.8
			}
		}

		out[i] = domain.SentimentSignal{Value: s.Value, Confidence: s.Confidence, Weight: weight, Driver: s.Driver}
	}
	return out
}

func applyEnergyRescaling(signals []domain.SentimentSignal, energyLevel float64) []domain.SentimentSignal {
	damping := (energyLevel - 0.5) / 7.5
	if damping < 0 {
		damping = 0
	}
	if damping > 0.2 {
		damping = 0.2
	}

	out := make([]domain.SentimentSignal, len(signals))
	for i, s := range signals {
		value := s.Value
		if math.Abs(s.Value) > 0.7 {
			sign := 1.0
			if s.Value < 0 {
				sign = -1.0
			}
			magnitude := math.Abs(s.Value)
			value = sign * magnitude * (1.0 - damping)
		}
		out[i] = domain.SentimentSignal{Value: value, Confidence: s.Confidence, Weight: s.Weight, Driver: s.Driver}
	}
	return out
}

func determineBias(combined, threshold float64) domain.SentimentBias {
	switch {
	case combined > threshold:
		return domain.Bullish
	case combined < -threshold:
		return domain.Bearish
	default:
		return domain.Neutral
	}
}

func calculateMetaConfidence(signals []domain.SentimentSignal, combined float64) float64 {
	if len(signals) == 0 {
		return 0
	}

	var confSum float64
	for _, s := range signals {
		confSum += s.Confidence
	}
	avgConfidence := confSum / float64(len(signals))

	combinedSign := sign(combined)
	var agreements int
	var valueSum, valueSqSum float64
	for _, s := range signals {
		if sign(s.Value) == combinedSign {
			agreements++
		}
		valueSum += s.Value
		valueSqSum += s.Value * s.Value
	}
	agreementRatio := float64(agreements) / float64(len(signals))

	mean := valueSum / float64(len(signals))
	variance := valueSqSum/float64(len(signals)) - mean*mean
	if variance < 0 {
		variance = 0
	}
	variancePenalty := math.Min(0.3, variance*0.5)

	completeness := math.Min(1.0, float64(len(signals))/6.0)

	meta := avgConfidence*0.4 + agreementRatio*0.3 + completeness*0.2 + (1.0-variancePenalty)*0.1
	return clamp01(meta)
}

func extractDrivers(signals []domain.SentimentSignal) []domain.DriverContribution {
	out := make([]domain.DriverContribution, 0, len(signals))
	for _, s := range signals {
		out = append(out, domain.DriverContribution{
			Driver:       s.Driver,
			Contribution: s.Value * s.Weight * s.Confidence,
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return math.Abs(out[i].Contribution) > math.Abs(out[j].Contribution)
	})
	return out
}

func calculateAggregateEnergy(signals []domain.SentimentSignal, energyLevel float64) float64 {
	if len(signals) == 0 {
		return 0
	}

	var absSum, valueSum, valueSqSum float64
	for _, s := range signals {
		absSum += math.Abs(s.Value)
		valueSum += s.Value
		valueSqSum += s.Value * s.Value
	}
	avgStrength := absSum / float64(len(signals))
	mean := valueSum / float64(len(signals))
	variance := valueSqSum/float64(len(signals)) - mean*mean
	if variance < 0 {
		variance = 0
	}

	aggregate := avgStrength*0.4 + energyLevel*0.4 + variance*0.2
	if aggregate < 0 {
		return 0
	}
	return aggregate
}

func emptyEnvelope() domain.SentimentEnvelope {
	return domain.SentimentEnvelope{Bias: domain.Neutral, Strength: 0, Energy: 0, Confidence: 0, Drivers: nil}
}

// ApplyGracefulDegradation redistributes weight and boosts confidence
// when fewer than requiredMinimum signals are available, so a few
// present processors can still stand in for the rest.
func ApplyGracefulDegradation(signals []domain.SentimentSignal, requiredMinimum int) []domain.SentimentSignal {
	if len(signals) >= requiredMinimum || len(signals) == 0 {
		return signals
	}

	denom := len(signals)
	if denom < 1 {
		denom = 1
	}
	boost := float64(requiredMinimum) / float64(denom)

	out := make([]domain.SentimentSignal, len(signals))
	for i, s := range signals {
		out[i] = domain.SentimentSignal{
			Value:      s.Value,
			Confidence: math.Min(1.0, s.Confidence*boost),
			Weight:     s.Weight * boost,
			Driver:     s.Driver,
		}
	}
	return out
}

// DetectConflictingSignals reports whether strong opposing signals of
// comparable weighted strength are both present.
func DetectConflictingSignals(signals []domain.SentimentSignal, conflictThreshold float64) bool {
	if len(signals) < 2 {
		return false
	}

	var posStrength, negStrength float64
	var hasPos, hasNeg bool
	for _, s := range signals {
		if s.Value > conflictThreshold {
			hasPos = true
			posStrength += s.Weight * s.Confidence
		}
		if s.Value < -conflictThreshold {
			hasNeg = true
			negStrength += s.Weight * s.Confidence
		}
	}
	if !hasPos || !hasNeg {
		return false
	}

	hi, lo := posStrength, negStrength
	if lo > hi {
		hi, lo = lo, hi
	}
	if hi == 0 {
		return false
	}
	return lo/hi > 0.7
}

func sign(v float64) float64 {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	default:
		return 0
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

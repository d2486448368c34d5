package backtest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/directive-engine/internal/composer"
	"github.com/aristath/directive-engine/internal/domain"
)

// fakeAgent ignores the tick's snapshot and always returns the same
// suggestion and directive, letting a test pin the composed direction
// without wiring real engines.
type fakeAgent struct {
	suggestion domain.Suggestion
	directive  domain.EngineDirective
}

func (f *fakeAgent) Step(domain.StandardSnapshot) domain.Suggestion { return f.suggestion }
func (f *fakeAgent) SetEngineOutput(domain.EngineOutput)            {}
func (f *fakeAgent) Output() (domain.EngineDirective, error)        { return f.directive, nil }

func bullishAgents() (hedge, liquidity, elasticity, sentiment *fakeAgent) {
	hedge = &fakeAgent{
		suggestion: domain.Suggestion{Layer: "primary_hedge", Action: domain.ActionLong, Confidence: 0.8},
		directive:  domain.EngineDirective{Name: "hedge", Direction: 0.6, Confidence: 0.8},
	}
	liquidity = &fakeAgent{
		suggestion: domain.Suggestion{Layer: "primary_liquidity", Action: domain.ActionLong, Confidence: 0.8},
		directive:  domain.EngineDirective{Name: "liquidity", Direction: 0.6, Confidence: 0.8},
	}
	elasticity = &fakeAgent{
		suggestion: domain.Suggestion{Layer: "primary_elasticity", Action: domain.ActionFlat, Confidence: 0.5},
		directive:  domain.EngineDirective{Name: "elasticity", Direction: 0, Confidence: 0.5},
	}
	sentiment = &fakeAgent{
		suggestion: domain.Suggestion{Layer: "primary_sentiment", Action: domain.ActionLong, Confidence: 0.8},
		directive:  domain.EngineDirective{Name: "sentiment", Direction: 0.6, Confidence: 0.8},
	}
	return
}

func TestRun_MonotonicallyRisingPricesWithBullishDirectiveScoresClean(t *testing.T) {
	const n = 20
	start := time.Date(2026, 1, 1, 9, 30, 0, 0, time.UTC)
	timestamps := make([]time.Time, n)
	prices := make(map[time.Time]float64, n)
	for i := 0; i < n; i++ {
		ts := start.Add(time.Duration(i) * time.Minute)
		timestamps[i] = ts
		prices[ts] = 100.0 + float64(i)
	}

	priceGetter := func(symbol string, t time.Time) (float64, error) {
		return prices[t], nil
	}

	hedgeAgent, liquidityAgent, elasticityAgent, sentimentAgent := bullishAgents()
	compose := composer.New(composer.Config{})

	result := Run(
		context.Background(),
		Config{HorizonSteps: 1, Notional: 1000},
		"TEST",
		timestamps,
		priceGetter,
		EngineRunners{},
		hedgeAgent, liquidityAgent, elasticityAgent, sentimentAgent,
		compose,
	)

	require.Len(t, result.Records, n-1)
	for _, r := range result.Records {
		assert.Greater(t, r.Direction, 0.0)
		assert.Greater(t, r.RealizedReturn, 0.0)
	}

	assert.Equal(t, 1.0, result.DirectionalAccuracy)
	assert.Greater(t, result.NaivePnL, 0.0)
	assert.Greater(t, result.Sharpe, 0.0)
	assert.Equal(t, 0.0, result.MaxDrawdown)
	assert.Equal(t, 1.0, result.WinRate)
	assert.Equal(t, n-1, result.TotalTrades)
	assert.Equal(t, 0, result.NeutralCount)
}

func TestRun_SkipsTicksOnPriceGetterError(t *testing.T) {
	start := time.Date(2026, 1, 1, 9, 30, 0, 0, time.UTC)
	timestamps := []time.Time{start, start.Add(time.Minute), start.Add(2 * time.Minute)}

	priceGetter := func(symbol string, t time.Time) (float64, error) {
		if t.Equal(timestamps[1]) {
			return 0, assert.AnError
		}
		return 100, nil
	}

	hedgeAgent, liquidityAgent, elasticityAgent, sentimentAgent := bullishAgents()
	compose := composer.New(composer.Config{})

	result := Run(
		context.Background(),
		Config{HorizonSteps: 1},
		"TEST",
		timestamps,
		priceGetter,
		EngineRunners{},
		hedgeAgent, liquidityAgent, elasticityAgent, sentimentAgent,
		compose,
	)

	assert.Empty(t, result.Records)
}

func TestRun_SkipsTicksOnNonPositivePrice(t *testing.T) {
	start := time.Date(2026, 1, 1, 9, 30, 0, 0, time.UTC)
	timestamps := []time.Time{start, start.Add(time.Minute), start.Add(2 * time.Minute)}

	priceGetter := func(symbol string, t time.Time) (float64, error) {
		if t.Equal(timestamps[0]) {
			return -5, nil
		}
		return 100, nil
	}

	hedgeAgent, liquidityAgent, elasticityAgent, sentimentAgent := bullishAgents()
	compose := composer.New(composer.Config{})

	result := Run(
		context.Background(),
		Config{HorizonSteps: 1},
		"TEST",
		timestamps,
		priceGetter,
		EngineRunners{},
		hedgeAgent, liquidityAgent, elasticityAgent, sentimentAgent,
		compose,
	)

	require.Len(t, result.Records, 1)
	assert.Equal(t, timestamps[1], result.Records[0].Timestamp)
}

func TestRun_FatalAgentOutputSkipsTickNotReplay(t *testing.T) {
	start := time.Date(2026, 1, 1, 9, 30, 0, 0, time.UTC)
	timestamps := []time.Time{start, start.Add(time.Minute), start.Add(2 * time.Minute)}
	priceGetter := func(symbol string, t time.Time) (float64, error) { return 100, nil }

	_, liquidityAgent, elasticityAgent, sentimentAgent := bullishAgents()
	broken := &brokenAgent{}
	compose := composer.New(composer.Config{})

	result := Run(
		context.Background(),
		Config{HorizonSteps: 1},
		"TEST",
		timestamps,
		priceGetter,
		EngineRunners{},
		broken, liquidityAgent, elasticityAgent, sentimentAgent,
		compose,
	)

	assert.Empty(t, result.Records)
}

// brokenAgent always reports that SetEngineOutput was never called,
// exercising the tick-skip path around Output's error.
type brokenAgent struct{}

func (b *brokenAgent) Step(domain.StandardSnapshot) domain.Suggestion { return domain.Suggestion{} }
func (b *brokenAgent) SetEngineOutput(domain.EngineOutput)            {}
func (b *brokenAgent) Output() (domain.EngineDirective, error) {
	return domain.EngineDirective{}, assert.AnError
}

func TestBucketAccuracyByEnergy_HalfOpenRangesWithPythonStyleLabels(t *testing.T) {
	directions := []float64{1, 1, -1, 1}
	returns := []float64{0.01, -0.01, -0.01, 0.01}
	energies := []float64{0.3, 0.7, 1.5, 6.0}

	out := BucketAccuracyByEnergy(directions, returns, energies, []float64{0.5, 1.0, 2.0, 5.0})

	assert.Equal(t, 1.0, out["<= 0.5"])
	assert.Equal(t, 0.0, out["0.5 - 1.0"])
	assert.Equal(t, 1.0, out["1.0 - 2.0"])
	assert.Equal(t, 1.0, out["> 5.0"])
}

func TestSharpeRatio_FlatSeriesIsZero(t *testing.T) {
	assert.Equal(t, 0.0, SharpeRatio([]float64{1, 1, 1, 1}, 0))
	assert.Equal(t, 0.0, SharpeRatio(nil, 0))
}

func TestMaxDrawdown_TracksPeakToTroughOnCumulativeSeries(t *testing.T) {
	dd := MaxDrawdown([]float64{10, -5, -10, 20})
	assert.Equal(t, 15.0, dd)
}

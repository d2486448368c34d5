package scanner

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/directive-engine/internal/adapters"
	"github.com/aristath/directive-engine/internal/domain"
	"github.com/aristath/directive-engine/internal/engines/elasticity"
	"github.com/aristath/directive-engine/internal/engines/hedge"
	"github.com/aristath/directive-engine/internal/engines/liquidity"
	"github.com/aristath/directive-engine/internal/sentiment"
)

func barsFixture(symbol string, closes []float64, volume float64, start time.Time) []domain.Bar {
	out := make([]domain.Bar, len(closes))
	for i, c := range closes {
		out[i] = domain.Bar{Timestamp: start.Add(time.Duration(i) * time.Minute), Symbol: symbol, Close: c, Open: c, High: c + 1, Low: c - 1, Volume: volume}
	}
	return out
}

func newTestScanner(t *testing.T, a *adapters.StaticAdapter, config Config) *Scanner {
	t.Helper()
	hedgeEngine := hedge.New(a, hedge.Config{})
	liquidityEngine := liquidity.New(a, a, liquidity.Config{})
	elasticityEngine := elasticity.New(a, elasticity.Config{})
	sentimentCore := sentiment.New(a, a, nil, nil, sentiment.NewDefaultConfig())
	return New(a, a, hedgeEngine, liquidityEngine, elasticityEngine, sentimentCore, config, zerolog.Nop())
}

func TestScan_PrefilterRejectsOutOfBoundSymbols(t *testing.T) {
	a := adapters.NewStaticAdapter()
	now := time.Now()
	closes := make([]float64, 60)
	for i := range closes {
		closes[i] = 100
	}
	a.OHLCV["GOOD"] = barsFixture("GOOD", closes, 2_000_000, now.Add(-60*time.Minute))
	a.OHLCV["PENNY"] = barsFixture("PENNY", closes, 2_000_000, now.Add(-60*time.Minute))
	for i := range a.OHLCV["PENNY"] {
		a.OHLCV["PENNY"][i].Close = 1
	}
	a.OHLCV["THIN"] = barsFixture("THIN", closes, 100, now.Add(-60*time.Minute))

	s := newTestScanner(t, a, Config{})
	result := s.Scan(context.Background(), []string{"GOOD", "PENNY", "THIN", "MISSING"}, now)

	require.Equal(t, 4, result.SymbolsScanned)
	var symbols []string
	for _, o := range result.Opportunities {
		symbols = append(symbols, o.Symbol)
	}
	assert.Contains(t, symbols, "GOOD")
	assert.NotContains(t, symbols, "PENNY")
	assert.NotContains(t, symbols, "THIN")
	assert.NotContains(t, symbols, "MISSING")
}

func TestScan_RanksDescendingAndTruncatesToTopN(t *testing.T) {
	a := adapters.NewStaticAdapter()
	now := time.Now()
	closes := make([]float64, 60)
	for i := range closes {
		closes[i] = 100
	}

	universe := []string{"A", "B", "C", "D", "E"}
	for _, sym := range universe {
		a.OHLCV[sym] = barsFixture(sym, closes, 2_000_000, now.Add(-60*time.Minute))
	}
	a.Chains["A"] = []domain.OptionContract{{Strike: 100, Gamma: 0.05, OpenInterest: 2000, UnderlyingSpot: 100, Right: domain.Call}}

	s := newTestScanner(t, a, Config{TopN: 2})
	result := s.Scan(context.Background(), universe, now)

	require.Len(t, result.Opportunities, 2)
	assert.Equal(t, 1, result.Opportunities[0].Rank)
	assert.Equal(t, 2, result.Opportunities[1].Rank)
	assert.GreaterOrEqual(t, result.Opportunities[0].Score, result.Opportunities[1].Score)
}

func TestScoreEnergy_SaturatesAtOne(t *testing.T) {
	score := scoreEnergy(map[string]float64{"energy_asymmetry": 100, "movement_energy": 5000})
	assert.Equal(t, 1.0, score)
}

func TestClassifyOpportunity_PicksDirectionalForHighAsymmetry(t *testing.T) {
	assert.Equal(t, "directional", classifyOpportunity(15, 100, "neutral"))
	assert.Equal(t, "volatility", classifyOpportunity(2, 900, "neutral"))
	assert.Equal(t, "range_bound", classifyOpportunity(1, 100, "neutral"))
	assert.Equal(t, "gamma_squeeze", classifyOpportunity(1, 400, "gamma_squeeze"))
	assert.Equal(t, "mixed", classifyOpportunity(1, 400, "neutral"))
}

package pipeline

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/directive-engine/internal/adapters"
	"github.com/aristath/directive-engine/internal/agents"
	"github.com/aristath/directive-engine/internal/composer"
	"github.com/aristath/directive-engine/internal/domain"
	"github.com/aristath/directive-engine/internal/engines/elasticity"
	"github.com/aristath/directive-engine/internal/engines/hedge"
	"github.com/aristath/directive-engine/internal/engines/liquidity"
	"github.com/aristath/directive-engine/internal/ledger"
	"github.com/aristath/directive-engine/internal/sentiment"
	"github.com/rs/zerolog"
)

func barsFixture(symbol string, closes []float64, start time.Time) []domain.Bar {
	out := make([]domain.Bar, len(closes))
	for i, c := range closes {
		out[i] = domain.Bar{Timestamp: start.Add(time.Duration(i) * time.Minute), Symbol: symbol, Close: c, High: c + 1, Low: c - 1, Open: c, Volume: 1000}
	}
	return out
}

func newTestRunner(t *testing.T, ledgerPath string) *Runner {
	t.Helper()
	a := adapters.NewStaticAdapter()
	now := time.Now()

	closes := make([]float64, 60)
	for i := range closes {
		closes[i] = 100 + float64(i)*0.1
	}
	a.OHLCV["SPY"] = barsFixture("SPY", closes, now.Add(-60*time.Minute))
	a.Chains["SPY"] = []domain.OptionContract{
		{Strike: 100, Gamma: 0.01, OpenInterest: 1000, UnderlyingSpot: 105, Right: domain.Call},
		{Strike: 110, Gamma: 0.01, OpenInterest: 500, UnderlyingSpot: 105, Right: domain.Put},
	}

	hedgeEngine := hedge.New(a, hedge.Config{})
	liquidityEngine := liquidity.New(a, a, liquidity.Config{})
	elasticityEngine := elasticity.New(a, elasticity.Config{})
	sentimentCore := sentiment.New(a, a, nil, nil, sentiment.NewDefaultConfig())

	var ledgerWriter *ledger.Writer
	if ledgerPath != "" {
		w, err := ledger.Open(ledgerPath, nil)
		require.NoError(t, err)
		ledgerWriter = w
	}

	return New(
		hedgeEngine, liquidityEngine, elasticityEngine, sentimentCore,
		agents.NewHedgeAgent(agents.HedgeConfig{}),
		agents.NewLiquidityAgent(agents.LiquidityConfig{}),
		agents.NewElasticityAgent(agents.ElasticityConfig{}),
		agents.NewSentimentAgent(agents.SentimentConfig{}),
		composer.New(composer.Config{}),
		ledgerWriter,
		zerolog.Nop(),
	)
}

func TestTick_AssemblesSnapshotAndComposite(t *testing.T) {
	runner := newTestRunner(t, "")

	result, err := runner.Tick(context.Background(), "SPY", time.Now())

	require.NoError(t, err)
	assert.Equal(t, "SPY", result.Snapshot.Symbol)
	assert.NotEmpty(t, result.Snapshot.Hedge)
	assert.NotEmpty(t, result.Snapshot.Liquidity)
	assert.Len(t, result.Suggestions, 4)
	assert.NotEmpty(t, result.Composite.Forecast)
}

func TestTick_DegradedSymbolStillCompletes(t *testing.T) {
	runner := newTestRunner(t, "")

	result, err := runner.Tick(context.Background(), "UNKNOWN", time.Now())

	require.NoError(t, err)
	assert.Equal(t, domain.StyleFlat, result.Composite.TradeStyle)
	assert.NotEmpty(t, result.Snapshot.Degraded)
}

func TestTick_AppendsLedgerRecordWhenConfigured(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.bin")
	runner := newTestRunner(t, path)

	_, err := runner.Tick(context.Background(), "SPY", time.Now())
	require.NoError(t, err)
	require.NoError(t, runner.ledger.Close())

	records, err := ledger.ReadAll(path)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "SPY", records[0].Symbol)
}

func TestTick_FatalWhenAgentOutputNeverSet(t *testing.T) {
	runner := newTestRunner(t, "")
	runner.hedgeAgent = &brokenAgent{}

	_, err := runner.Tick(context.Background(), "SPY", time.Now())

	require.Error(t, err)
}

// brokenAgent never caches an engine output, forcing Output() to return
// ErrOutputUnavailable so the fatal-abort path can be exercised.
type brokenAgent struct{}

func (brokenAgent) Step(domain.StandardSnapshot) domain.Suggestion { return domain.Suggestion{} }
func (brokenAgent) SetEngineOutput(domain.EngineOutput)            {}
func (brokenAgent) Output() (domain.EngineDirective, error) {
	return domain.EngineDirective{}, agents.ErrOutputUnavailable
}

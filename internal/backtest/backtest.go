package backtest

import (
	"context"
	"math"
	"strconv"
	"time"

	"github.com/aristath/directive-engine/internal/agents"
	"github.com/aristath/directive-engine/internal/composer"
	"github.com/aristath/directive-engine/internal/domain"
)

// PriceGetter fetches symbol's price at t. An error or a non-positive/NaN
// price skips that tick rather than failing the whole replay.
type PriceGetter func(symbol string, t time.Time) (float64, error)

// EngineRunner produces one engine's output for (symbol, t). A non-nil
// error skips the tick, mirroring the reference harness's
// try/except-continue policy around each engine call.
type EngineRunner func(ctx context.Context, symbol string, t time.Time) (domain.EngineOutput, error)

// EngineRunners supplies the three directionally-weighted engines plus
// elasticity; a nil runner degrades that engine's contribution to an
// empty EngineOutput rather than skipping the tick (elasticity has no
// composer weight, so a caller not wired with a dedicated source for it
// can safely leave Elasticity nil).
type EngineRunners struct {
	Hedge      EngineRunner
	Liquidity  EngineRunner
	Elasticity EngineRunner
	Sentiment  EngineRunner
}

// Config tunes the replay horizon and the metric thresholds computed
// after it.
type Config struct {
	HorizonSteps    int
	Notional        float64
	ReturnThreshold float64
	EnergyBuckets   []float64
}

func (c Config) withDefaults() Config {
	if c.HorizonSteps == 0 {
		c.HorizonSteps = 1
	}
	if c.Notional == 0 {
		c.Notional = 1.0
	}
	if c.EnergyBuckets == nil {
		c.EnergyBuckets = []float64{0.5, 1.0, 2.0, 5.0}
	}
	return c
}

// Record is one replayed tick's composed directive alongside the price
// move it was scored against.
type Record struct {
	Timestamp      time.Time
	Price          float64
	FuturePrice    float64
	RealizedReturn float64
	Direction      float64
	Strength       float64
	Confidence     float64
	EnergyCost     float64
	TradeStyle     domain.TradeStyle
	Volatility     float64
	Rationale      string
}

// Result is the full replay log plus its aggregate metrics.
type Result struct {
	Records              []Record
	DirectionalAccuracy  float64
	NaivePnL             float64
	Sharpe               float64
	MaxDrawdown          float64
	WinRate              float64
	EnergyBucketAccuracy map[string]float64
	TotalTrades          int
	NeutralCount         int
}

// Run walks timestamps, scoring each (t, t+horizon) pair against a
// composed directive built from the supplied engine runners and agents.
// It never returns an error: every failure mode the reference harness
// guards with try/except here just skips that tick and continues the
// replay, since a partial backtest is still useful and a full abort
// would throw away every prior tick's work.
func Run(
	ctx context.Context,
	cfg Config,
	symbol string,
	timestamps []time.Time,
	priceGetter PriceGetter,
	runners EngineRunners,
	hedgeAgent, liquidityAgent, elasticityAgent, sentimentAgent agents.Agent,
	compose *composer.Composer,
) Result {
	cfg = cfg.withDefaults()
	n := len(timestamps)

	var records []Record
	for i, t := range timestamps {
		j := i + cfg.HorizonSteps
		if j >= n {
			break
		}
		tNext := timestamps[j]

		priceNow, err := priceGetter(symbol, t)
		if err != nil {
			continue
		}
		priceFuture, err := priceGetter(symbol, tNext)
		if err != nil {
			continue
		}
		if priceNow <= 0 || priceFuture <= 0 || math.IsNaN(priceNow) || math.IsNaN(priceFuture) {
			continue
		}
		realizedReturn := (priceFuture - priceNow) / priceNow

		hedgeOut, liquidityOut, elasticityOut, sentimentOut, ok := runEngines(ctx, runners, symbol, t)
		if !ok {
			continue
		}

		snapshot := assembleSnapshot(symbol, t, hedgeOut, liquidityOut, elasticityOut, sentimentOut)
		snapshot.Metadata = map[string]string{"current_price": strconv.FormatFloat(priceNow, 'f', -1, 64)}

		directives, suggestions, ok := runAgents(snapshot, hedgeOut, liquidityOut, elasticityOut, sentimentOut, hedgeAgent, liquidityAgent, elasticityAgent, sentimentAgent)
		if !ok {
			continue
		}

		directive := compose.Compose(snapshot, directives, suggestions)

		records = append(records, Record{
			Timestamp:      t,
			Price:          priceNow,
			FuturePrice:    priceFuture,
			RealizedReturn: realizedReturn,
			Direction:      directive.Direction,
			Strength:       directive.Strength,
			Confidence:     directive.Confidence,
			EnergyCost:     directive.EnergyCost,
			TradeStyle:     directive.TradeStyle,
			Volatility:     directive.Volatility,
			Rationale:      directive.Rationale,
		})
	}

	if len(records) == 0 {
		return Result{EnergyBucketAccuracy: map[string]float64{}}
	}

	return summarize(records, cfg)
}

func runEngines(ctx context.Context, runners EngineRunners, symbol string, t time.Time) (hedge, liquidity, elasticity, sentiment domain.EngineOutput, ok bool) {
	var err error
	if runners.Hedge != nil {
		if hedge, err = runners.Hedge(ctx, symbol, t); err != nil {
			return
		}
	}
	if runners.Liquidity != nil {
		if liquidity, err = runners.Liquidity(ctx, symbol, t); err != nil {
			return
		}
	}
	if runners.Elasticity != nil {
		if elasticity, err = runners.Elasticity(ctx, symbol, t); err != nil {
			return
		}
	}
	if runners.Sentiment != nil {
		if sentiment, err = runners.Sentiment(ctx, symbol, t); err != nil {
			return
		}
	}
	return hedge, liquidity, elasticity, sentiment, true
}

func assembleSnapshot(symbol string, t time.Time, hedge, liquidity, elasticity, sentiment domain.EngineOutput) domain.StandardSnapshot {
	return domain.StandardSnapshot{
		Symbol:     symbol,
		Timestamp:  t,
		Hedge:      hedge.Features,
		Liquidity:  liquidity.Features,
		Elasticity: elasticity.Features,
		Sentiment:  sentiment.Features,
		Regime:     hedge.Regime,
		Degraded:   map[string]string{},
	}
}

func runAgents(
	snapshot domain.StandardSnapshot,
	hedgeOut, liquidityOut, elasticityOut, sentimentOut domain.EngineOutput,
	hedgeAgent, liquidityAgent, elasticityAgent, sentimentAgent agents.Agent,
) ([]domain.EngineDirective, []domain.Suggestion, bool) {
	suggestions := []domain.Suggestion{
		hedgeAgent.Step(snapshot),
		liquidityAgent.Step(snapshot),
		elasticityAgent.Step(snapshot),
		sentimentAgent.Step(snapshot),
	}

	hedgeAgent.SetEngineOutput(hedgeOut)
	liquidityAgent.SetEngineOutput(liquidityOut)
	elasticityAgent.SetEngineOutput(elasticityOut)
	sentimentAgent.SetEngineOutput(sentimentOut)

	var directives []domain.EngineDirective
	for _, a := range []agents.Agent{hedgeAgent, liquidityAgent, elasticityAgent, sentimentAgent} {
		d, err := a.Output()
		if err != nil {
			return nil, nil, false
		}
		directives = append(directives, d)
	}
	return directives, suggestions, true
}

func summarize(records []Record, cfg Config) Result {
	directions := make([]float64, len(records))
	returns := make([]float64, len(records))
	energies := make([]float64, len(records))
	for i, r := range records {
		directions[i] = r.Direction
		returns[i] = r.RealizedReturn
		energies[i] = r.EnergyCost
	}

	pnlSeries := PnLSeries(directions, returns, cfg.Notional)

	var totalTrades, neutralCount int
	for _, d := range directions {
		if d == 0 {
			neutralCount++
		} else {
			totalTrades++
		}
	}

	return Result{
		Records:              records,
		DirectionalAccuracy:  DirectionalAccuracy(directions, returns, cfg.ReturnThreshold),
		NaivePnL:             NaivePnL(directions, returns, cfg.Notional),
		Sharpe:               SharpeRatio(pnlSeries, 0),
		MaxDrawdown:          MaxDrawdown(pnlSeries),
		WinRate:              WinRate(directions, returns),
		EnergyBucketAccuracy: BucketAccuracyByEnergy(directions, returns, energies, cfg.EnergyBuckets),
		TotalTrades:          totalTrades,
		NeutralCount:         neutralCount,
	}
}

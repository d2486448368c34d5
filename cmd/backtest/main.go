// Command backtest walks a synthetic OHLCV fixture through the
// composer and prints the resulting accuracy/PnL/risk metrics. It's a
// runnable demonstration of internal/backtest, not a production
// replay against recorded market data.
package main

import (
	"context"
	"flag"
	"time"

	"github.com/aristath/directive-engine/internal/adapters"
	"github.com/aristath/directive-engine/internal/agents"
	"github.com/aristath/directive-engine/internal/backtest"
	"github.com/aristath/directive-engine/internal/composer"
	"github.com/aristath/directive-engine/internal/config"
	"github.com/aristath/directive-engine/internal/demodata"
	"github.com/aristath/directive-engine/internal/domain"
	"github.com/aristath/directive-engine/internal/engines"
	"github.com/aristath/directive-engine/internal/engines/elasticity"
	"github.com/aristath/directive-engine/internal/engines/hedge"
	"github.com/aristath/directive-engine/internal/engines/liquidity"
	"github.com/aristath/directive-engine/internal/sentiment"
	"github.com/aristath/directive-engine/pkg/logger"
)

func main() {
	symbol := flag.String("symbol", "DEMO", "symbol to backtest")
	bars := flag.Int("bars", 240, "number of synthetic bars to replay")
	horizon := flag.Int("horizon", 5, "steps ahead to score each tick against")
	engineConfigPath := flag.String("engine-config", "", "path to a YAML per-engine threshold file")
	flag.Parse()

	cfg, err := config.Load(*engineConfigPath)
	log := logger.New(logger.Config{Level: "info", Pretty: true})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}
	log = logger.New(logger.Config{Level: cfg.LogLevel, Pretty: cfg.LogPretty})

	now := time.Now()
	adapter := adapters.NewStaticAdapter()
	demodata.Seed(adapter, *symbol, now, *bars, 150.0)

	hedgeEngine := hedge.New(adapter, hedge.Config{
		GammaSqueezeThreshold: cfg.Engines.Hedge.GammaSqueezeThreshold,
		VannaFlowThreshold:    cfg.Engines.Hedge.VannaFlowThreshold,
		PinThreshold:          cfg.Engines.Hedge.PinThreshold,
		MaxChainSize:          cfg.Engines.Hedge.MaxChainSize,
	})
	liquidityEngine := liquidity.New(adapter, adapter, liquidity.Config{
		LookbackBars:      cfg.Engines.Liquidity.LookbackBars,
		IntradayMinutes:   cfg.Engines.Liquidity.IntradayMinutes,
		ThinThreshold:     cfg.Engines.Liquidity.ThinThreshold,
		HighThreshold:     cfg.Engines.Liquidity.HighThreshold,
		OneSidedThreshold: cfg.Engines.Liquidity.OneSidedThreshold,
	})
	elasticityEngine := elasticity.New(adapter, elasticity.Config{
		LookbackBars:     cfg.Engines.Elasticity.LookbackBars,
		BaselineMoveCost: cfg.Engines.Elasticity.BaselineMoveCost,
	})
	sentimentCore := sentiment.New(adapter, adapter, adapter, sentiment.HeuristicNewsScorer{}, sentiment.NewDefaultConfig())

	compose := composer.New(composer.Config{
		Weights:             cfg.Engines.Composer.Weights,
		ActionThreshold:     cfg.Engines.Composer.ActionThreshold,
		ConfidenceThreshold: cfg.Engines.Composer.ConfidenceThreshold,
	})

	wrap := func(e engines.Engine) backtest.EngineRunner {
		return func(ctx context.Context, symbol string, t time.Time) (domain.EngineOutput, error) {
			return e.Run(ctx, symbol, t), nil
		}
	}

	history := adapter.OHLCV[*symbol]
	timestamps := make([]time.Time, len(history))
	prices := make(map[time.Time]float64, len(history))
	for i, bar := range history {
		timestamps[i] = bar.Timestamp
		prices[bar.Timestamp] = bar.Close
	}
	priceGetter := func(symbol string, t time.Time) (float64, error) {
		return prices[t], nil
	}

	result := backtest.Run(
		context.Background(),
		backtest.Config{HorizonSteps: *horizon, Notional: 1000, ReturnThreshold: 0.0005},
		*symbol,
		timestamps,
		priceGetter,
		backtest.EngineRunners{
			Hedge:      wrap(hedgeEngine),
			Liquidity:  wrap(liquidityEngine),
			Elasticity: wrap(elasticityEngine),
			Sentiment:  wrap(sentimentCore),
		},
		agents.NewHedgeAgent(agents.HedgeConfig{}),
		agents.NewLiquidityAgent(agents.LiquidityConfig{}),
		agents.NewElasticityAgent(agents.ElasticityConfig{}),
		agents.NewSentimentAgent(agents.SentimentConfig{}),
		compose,
	)

	log.Info().
		Int("ticks", len(result.Records)).
		Float64("directional_accuracy", result.DirectionalAccuracy).
		Float64("naive_pnl", result.NaivePnL).
		Float64("sharpe", result.Sharpe).
		Float64("max_drawdown", result.MaxDrawdown).
		Float64("win_rate", result.WinRate).
		Int("total_trades", result.TotalTrades).
		Int("neutral_ticks", result.NeutralCount).
		Msg("backtest complete")

	for bucket, accuracy := range result.EnergyBucketAccuracy {
		log.Debug().Str("bucket", bucket).Float64("accuracy", accuracy).Msg("energy bucket accuracy")
	}
}

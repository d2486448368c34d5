// Command directive runs one pipeline tick for a symbol against the
// bundled synthetic fixture and prints the composed directive. It's a
// runnable demonstration of internal/pipeline, not a production data
// feed.
package main

import (
	"context"
	"flag"
	"time"

	"github.com/aristath/directive-engine/internal/adapters"
	"github.com/aristath/directive-engine/internal/agents"
	"github.com/aristath/directive-engine/internal/composer"
	"github.com/aristath/directive-engine/internal/config"
	"github.com/aristath/directive-engine/internal/demodata"
	"github.com/aristath/directive-engine/internal/engines/elasticity"
	"github.com/aristath/directive-engine/internal/engines/hedge"
	"github.com/aristath/directive-engine/internal/engines/liquidity"
	"github.com/aristath/directive-engine/internal/ledger"
	"github.com/aristath/directive-engine/internal/pipeline"
	"github.com/aristath/directive-engine/internal/sentiment"
	"github.com/aristath/directive-engine/pkg/logger"
)

func main() {
	symbol := flag.String("symbol", "DEMO", "symbol to run the pipeline for")
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
	demodata.Seed(adapter, *symbol, now, 120, 150.0)

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

	ledgerWriter, err := ledger.Open(cfg.LedgerPath, nil)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open ledger")
	}
	defer ledgerWriter.Close()

	runner := pipeline.New(
		hedgeEngine, liquidityEngine, elasticityEngine, sentimentCore,
		agents.NewHedgeAgent(agents.HedgeConfig{}),
		agents.NewLiquidityAgent(agents.LiquidityConfig{}),
		agents.NewElasticityAgent(agents.ElasticityConfig{}),
		agents.NewSentimentAgent(agents.SentimentConfig{}),
		compose,
		ledgerWriter,
		log,
	)

	result, err := runner.Tick(context.Background(), *symbol, now)
	if err != nil {
		log.Fatal().Err(err).Msg("pipeline tick failed")
	}

	log.Info().
		Str("symbol", result.Composite.Symbol).
		Float64("direction", result.Composite.Direction).
		Float64("confidence", result.Composite.Confidence).
		Str("regime", result.Composite.Regime).
		Str("trade_style", string(result.Composite.TradeStyle)).
		Str("rationale", result.Composite.Rationale).
		Msg("composite directive")
}

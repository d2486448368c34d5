// Command scan runs the opportunity scanner once over a small
// synthetic universe and prints the ranked result. It's a runnable
// demonstration of internal/scanner, not a production data feed.
package main

import (
	"context"
	"flag"
	"strings"
	"time"

	"github.com/aristath/directive-engine/internal/adapters"
	"github.com/aristath/directive-engine/internal/config"
	"github.com/aristath/directive-engine/internal/demodata"
	"github.com/aristath/directive-engine/internal/engines/elasticity"
	"github.com/aristath/directive-engine/internal/engines/hedge"
	"github.com/aristath/directive-engine/internal/engines/liquidity"
	"github.com/aristath/directive-engine/internal/scanner"
	"github.com/aristath/directive-engine/internal/sentiment"
	"github.com/aristath/directive-engine/pkg/logger"
)

func main() {
	universeFlag := flag.String("universe", "AAPL,MSFT,TSLA,NVDA,AMZN", "comma-separated symbol universe")
	topN := flag.Int("top-n", 5, "number of ranked opportunities to print")
	engineConfigPath := flag.String("engine-config", "", "path to a YAML per-engine threshold file")
	flag.Parse()

	cfg, err := config.Load(*engineConfigPath)
	log := logger.New(logger.Config{Level: "info", Pretty: true})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}
	log = logger.New(logger.Config{Level: cfg.LogLevel, Pretty: cfg.LogPretty})

	universe := strings.Split(*universeFlag, ",")
	now := time.Now()

	adapter := adapters.NewStaticAdapter()
	for i, symbol := range universe {
		demodata.Seed(adapter, symbol, now, 120, 100.0+float64(i)*37.0)
	}

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

	s := scanner.New(adapter, adapter, hedgeEngine, liquidityEngine, elasticityEngine, sentimentCore, scanner.Config{TopN: *topN}, log)

	result := s.Scan(context.Background(), universe, now)

	log.Info().
		Int("symbols_scanned", result.SymbolsScanned).
		Int("opportunities", len(result.Opportunities)).
		Dur("duration", result.ScanDuration).
		Msg("scan complete")

	for _, opp := range result.Opportunities {
		log.Info().
			Int("rank", opp.Rank).
			Str("symbol", opp.Symbol).
			Float64("score", opp.Score).
			Str("type", opp.OpportunityType).
			Str("direction", opp.Direction).
			Str("reasoning", opp.Reasoning).
			Msg("opportunity")
	}
}

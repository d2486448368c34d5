// Package pipeline orchestrates one tick: fan the four engines out, fold
// their outputs into a StandardSnapshot, run the primary agents, compose
// the final directive, and persist the result to a ledger.
package pipeline

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/directive-engine/internal/agents"
	"github.com/aristath/directive-engine/internal/composer"
	"github.com/aristath/directive-engine/internal/domain"
	"github.com/aristath/directive-engine/internal/engines"
	"github.com/aristath/directive-engine/internal/ledger"
)

// Result is one tick's full output, mirroring what gets written to the
// ledger.
type Result struct {
	Snapshot    domain.StandardSnapshot
	Suggestions []domain.Suggestion
	Composite   domain.CompositeMarketDirective
}

// Runner wires one instance each of the four engines, their matching
// primary agents, and a composer into a single per-symbol tick. A Runner
// is not safe for concurrent Tick calls on the same symbol — callers
// serialize by symbol, matching the one-engine-instance-per-symbol
// resource model.
type Runner struct {
	hedgeEngine      engines.Engine
	liquidityEngine  engines.Engine
	elasticityEngine engines.Engine
	sentimentEngine  engines.Engine

	hedgeAgent      agents.Agent
	liquidityAgent  agents.Agent
	elasticityAgent agents.Agent
	sentimentAgent  agents.Agent

	composer *composer.Composer
	ledger   *ledger.Writer

	log zerolog.Logger
}

// New constructs a Runner. ledgerWriter may be nil, in which case Tick
// does not persist anything.
func New(
	hedgeEngine, liquidityEngine, elasticityEngine, sentimentEngine engines.Engine,
	hedgeAgent, liquidityAgent, elasticityAgent, sentimentAgent agents.Agent,
	compose *composer.Composer,
	ledgerWriter *ledger.Writer,
	log zerolog.Logger,
) *Runner {
	return &Runner{
		hedgeEngine:      hedgeEngine,
		liquidityEngine:  liquidityEngine,
		elasticityEngine: elasticityEngine,
		sentimentEngine:  sentimentEngine,
		hedgeAgent:       hedgeAgent,
		liquidityAgent:   liquidityAgent,
		elasticityAgent:  elasticityAgent,
		sentimentAgent:   sentimentAgent,
		composer:         compose,
		ledger:           ledgerWriter,
		log:              log.With().Str("component", "pipeline").Logger(),
	}
}

// engineSlot names the four fan-out outputs by position, so the fan-out
// goroutines can write into a fixed-size slice instead of a channel.
type engineSlot int

const (
	slotHedge engineSlot = iota
	slotLiquidity
	slotElasticity
	slotSentiment
	slotCount
)

// Tick runs one full pass for symbol at now: engine fan-out, snapshot
// assembly, agent suggestions, composition, and a ledger append.
func (r *Runner) Tick(ctx context.Context, symbol string, now time.Time) (Result, error) {
	outputs := r.runEngines(ctx, symbol, now)

	snapshot := buildSnapshot(symbol, now, outputs)

	suggestions := []domain.Suggestion{
		r.hedgeAgent.Step(snapshot),
		r.liquidityAgent.Step(snapshot),
		r.elasticityAgent.Step(snapshot),
		r.sentimentAgent.Step(snapshot),
	}

	directives, err := r.collectDirectives(outputs)
	if err != nil {
		r.log.Error().Err(err).Str("symbol", symbol).Msg("agent output unavailable, aborting tick")
		return Result{}, err
	}

	composite := r.composer.Compose(snapshot, directives, suggestions)

	result := Result{Snapshot: snapshot, Suggestions: suggestions, Composite: composite}

	if r.ledger != nil {
		record := ledger.Record{Timestamp: now, Symbol: symbol, Snapshot: snapshot, Suggestions: suggestions, Composite: composite}
		if err := r.ledger.Append(record); err != nil {
			r.log.Error().Err(err).Str("symbol", symbol).Msg("ledger append failed")
			return result, err
		}
	}

	return result, nil
}

// runEngines fans the four engines out over goroutines joined by a
// WaitGroup; engine failure (confidence 0) degrades the slot rather than
// aborting the join, matching the pipeline's failure policy.
func (r *Runner) runEngines(ctx context.Context, symbol string, now time.Time) [slotCount]domain.EngineOutput {
	var outputs [slotCount]domain.EngineOutput
	var wg sync.WaitGroup

	run := func(slot engineSlot, engine engines.Engine) {
		defer wg.Done()
		outputs[slot] = engine.Run(ctx, symbol, now)
	}

	wg.Add(4)
	go run(slotHedge, r.hedgeEngine)
	go run(slotLiquidity, r.liquidityEngine)
	go run(slotElasticity, r.elasticityEngine)
	go run(slotSentiment, r.sentimentEngine)
	wg.Wait()

	return outputs
}

// buildSnapshot folds the four engine outputs into a StandardSnapshot.
// The snapshot's regime is the hedge engine's; the composer uses it for
// its regime weight overrides and its substring-keyed confidence
// modifiers, which of the hedge labels only the degraded
// "illiquid_gamma" matches. Degraded engines contribute their reason to
// Degraded instead of polluting Metadata.
func buildSnapshot(symbol string, now time.Time, outputs [slotCount]domain.EngineOutput) domain.StandardSnapshot {
	snapshot := domain.StandardSnapshot{
		Symbol:    symbol,
		Timestamp: now,
		Hedge:     outputs[slotHedge].Features,
		Liquidity: outputs[slotLiquidity].Features,
		Elasticity: outputs[slotElasticity].Features,
		Sentiment: outputs[slotSentiment].Features,
		Regime:    outputs[slotHedge].Regime,
		Metadata:  map[string]string{},
		Degraded:  map[string]string{},
	}

	for _, out := range outputs {
		if out.Degraded() {
			snapshot.Degraded[string(out.Kind)] = out.Metadata["degraded"]
		}
	}

	return snapshot
}

// collectDirectives caches each engine's raw output into its matching
// agent and pulls back the normalized EngineDirective. An
// ErrOutputUnavailable here is a programmer error (SetEngineOutput always
// runs first) and is fatal to the tick, per the pipeline's error policy.
func (r *Runner) collectDirectives(outputs [slotCount]domain.EngineOutput) ([]domain.EngineDirective, error) {
	r.hedgeAgent.SetEngineOutput(outputs[slotHedge])
	r.liquidityAgent.SetEngineOutput(outputs[slotLiquidity])
	r.elasticityAgent.SetEngineOutput(outputs[slotElasticity])
	r.sentimentAgent.SetEngineOutput(outputs[slotSentiment])

	var directives []domain.EngineDirective
	for _, agent := range []agents.Agent{r.hedgeAgent, r.liquidityAgent, r.elasticityAgent, r.sentimentAgent} {
		directive, err := agent.Output()
		if err != nil {
			return nil, fmt.Errorf("pipeline: %w", err)
		}
		directives = append(directives, directive)
	}
	return directives, nil
}

// Package scanner ranks a symbol universe by trading opportunity: a
// cheap prefilter, then four engines per surviving symbol scored across
// five components, combined into one composite score, and ranked to the
// top N.
package scanner

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/directive-engine/internal/adapters"
	"github.com/aristath/directive-engine/internal/domain"
	"github.com/aristath/directive-engine/internal/engines"
)

// Config tunes the prefilter bounds, result size, and worker pool width.
type Config struct {
	MinPrice  float64
	MaxPrice  float64
	MinVolume float64
	TopN      int
	Workers   int
}

func (c Config) withDefaults() Config {
	if c.MinPrice == 0 {
		c.MinPrice = 10.0
	}
	if c.MaxPrice == 0 {
		c.MaxPrice = 1000.0
	}
	if c.MinVolume == 0 {
		c.MinVolume = 1_000_000
	}
	if c.TopN == 0 {
		c.TopN = 25
	}
	if c.Workers == 0 {
		c.Workers = 8
	}
	return c
}

// Opportunity is one symbol's scored, classified result.
type Opportunity struct {
	Symbol           string
	Rank             int
	Score            float64
	EnergyScore      float64
	LiquidityScore   float64
	VolatilityScore  float64
	SentimentScore   float64
	OptionsScore     float64
	Direction        string
	Confidence       float64
	OpportunityType  string
	Reasoning        string
}

// Result is one full scan's output.
type Result struct {
	Opportunities   []Opportunity
	SymbolsScanned  int
	ScanDuration    time.Duration
}

// Scanner runs the four engines across a symbol universe and ranks the
// results.
type Scanner struct {
	ohlcv      adapters.OHLCVAdapter
	chain      adapters.ChainAdapter
	hedge      engines.Engine
	liquidity  engines.Engine
	elasticity engines.Engine
	sentiment  engines.Engine
	config     Config
	log        zerolog.Logger
}

// New constructs a Scanner. The four engines must be safe to call
// concurrently across symbols — per-symbol engine instantiation (the
// pipeline's own convention) satisfies this automatically since each
// call only touches that one symbol's adapter data.
func New(ohlcv adapters.OHLCVAdapter, chain adapters.ChainAdapter, hedge, liquidity, elasticity, sentiment engines.Engine, config Config, log zerolog.Logger) *Scanner {
	return &Scanner{
		ohlcv:      ohlcv,
		chain:      chain,
		hedge:      hedge,
		liquidity:  liquidity,
		elasticity: elasticity,
		sentiment:  sentiment,
		config:     config.withDefaults(),
		log:        log.With().Str("component", "scanner").Logger(),
	}
}

// Scan prefilters and scores universe, returning the top N opportunities
// by composite score. Symbols are scored concurrently across a bounded
// worker pool; each symbol's own four-engine run is sequential.
func (s *Scanner) Scan(ctx context.Context, universe []string, now time.Time) Result {
	start := time.Now()

	jobs := make(chan string)
	results := make(chan *Opportunity, len(universe))

	var wg sync.WaitGroup
	for i := 0; i < s.config.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for symbol := range jobs {
				if opp := s.scoreSymbol(ctx, symbol, now); opp != nil {
					results <- opp
				}
			}
		}()
	}

	go func() {
		for _, symbol := range universe {
			if s.passesPrefilter(ctx, symbol, now) {
				jobs <- symbol
			}
		}
		close(jobs)
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	var opportunities []Opportunity
	for opp := range results {
		opportunities = append(opportunities, *opp)
	}

	sort.Slice(opportunities, func(i, j int) bool { return opportunities[i].Score > opportunities[j].Score })
	if len(opportunities) > s.config.TopN {
		opportunities = opportunities[:s.config.TopN]
	}
	for i := range opportunities {
		opportunities[i].Rank = i + 1
	}

	return Result{
		Opportunities:  opportunities,
		SymbolsScanned: len(universe),
		ScanDuration:   time.Since(start),
	}
}

// passesPrefilter rejects a symbol outside the configured price/volume
// bounds, using the most recent bar as the quote. A missing bar (no
// data, or an adapter failure surfaced as an empty frame) rejects too,
// matching the original's "any exception fails the prefilter" behavior.
func (s *Scanner) passesPrefilter(ctx context.Context, symbol string, now time.Time) bool {
	bars := s.ohlcv.FetchOHLCV(ctx, symbol, 1, now)
	if bars.Empty() {
		return false
	}
	last := bars.Items[len(bars.Items)-1]
	if last.Close < s.config.MinPrice || last.Close > s.config.MaxPrice {
		return false
	}
	if last.Volume < s.config.MinVolume {
		return false
	}
	return true
}

func (s *Scanner) scoreSymbol(ctx context.Context, symbol string, now time.Time) *Opportunity {
	hedgeOut := s.hedge.Run(ctx, symbol, now)
	liquidityOut := s.liquidity.Run(ctx, symbol, now)
	elasticityOut := s.elasticity.Run(ctx, symbol, now)
	sentimentOut := s.sentiment.Run(ctx, symbol, now)

	energyAsymmetry := hedgeOut.Features["energy_asymmetry"]
	movementEnergy := hedgeOut.Features["movement_energy"]
	liquidityQuality := liquidityOut.Features["liquidity_score"]
	sentimentScore := sentimentOut.Features["sentiment_score"]

	energyScore := scoreEnergy(hedgeOut.Features)
	liquidityScore := scoreLiquidity(liquidityOut.Features)
	volatilityScore := scoreVolatility(hedgeOut.Features, elasticityOut.Features)
	sentimentComponent := scoreSentiment(sentimentOut.Features)
	optionsScore := s.scoreOptions(ctx, symbol, now)

	composite := 0.30*energyScore + 0.25*liquidityScore + 0.20*volatilityScore + 0.15*sentimentComponent + 0.10*optionsScore

	direction, confidence := determineDirection(sentimentScore, energyAsymmetry)
	opportunityType := classifyOpportunity(energyAsymmetry, movementEnergy, hedgeOut.Regime)
	reasoning := generateReasoning(opportunityType, energyAsymmetry, movementEnergy, liquidityQuality, sentimentScore)

	return &Opportunity{
		Symbol:          symbol,
		Score:           composite,
		EnergyScore:     energyScore,
		LiquidityScore:  liquidityScore,
		VolatilityScore: volatilityScore,
		SentimentScore:  sentimentComponent,
		OptionsScore:    optionsScore,
		Direction:       direction,
		Confidence:      confidence,
		OpportunityType: opportunityType,
		Reasoning:       reasoning,
	}
}

func scoreEnergy(hedgeFeatures map[string]float64) float64 {
	asymmetry := abs(hedgeFeatures["energy_asymmetry"])
	movementEnergy := hedgeFeatures["movement_energy"]
	return 0.7*min1(asymmetry/10.0) + 0.3*min1(movementEnergy/1000.0)
}

func scoreLiquidity(liquidityFeatures map[string]float64) float64 {
	return liquidityFeatures["liquidity_score"]
}

func scoreVolatility(hedgeFeatures, elasticityFeatures map[string]float64) float64 {
	gammaScore := 0.2
	if hedgeFeatures["dealer_gamma_sign"] < 0 {
		gammaScore = 0.5
	}
	elasticityUp := elasticityFeatures["elasticity_up"]
	if elasticityUp == 0 {
		elasticityUp = 1.0
	}
	elasticityScore := max0(1.0 - elasticityUp)
	return 0.6*gammaScore + 0.4*elasticityScore
}

func scoreSentiment(sentimentFeatures map[string]float64) float64 {
	return abs(sentimentFeatures["sentiment_score"]) * sentimentFeatures["sentiment_confidence"]
}

// scoreOptions scores options-chain activity for a symbol. A missing or
// empty chain scores 0 rather than failing the symbol's overall score.
func (s *Scanner) scoreOptions(ctx context.Context, symbol string, now time.Time) float64 {
	if s.chain == nil {
		return 0
	}
	chain := s.chain.FetchChain(ctx, symbol, now)
	if chain.Empty() {
		return 0
	}

	var totalOI, totalVolume float64
	for _, c := range chain.Items {
		totalOI += c.OpenInterest
		totalVolume += c.Volume
	}
	avgOI := totalOI / float64(chain.Len())
	avgVolume := totalVolume / float64(chain.Len())

	return 0.6*min1(avgOI/500.0) + 0.4*min1(avgVolume/200.0)
}

func determineDirection(sentimentScore, energyAsymmetry float64) (string, float64) {
	direction := "neutral"
	switch {
	case sentimentScore > 0.2:
		direction = "bullish"
	case sentimentScore < -0.2:
		direction = "bearish"
	}

	confidence := min1(abs(energyAsymmetry) / 15.0)
	if abs(sentimentScore) > 0.3 {
		confidence = min1(confidence * 1.2)
	}
	return direction, confidence
}

func classifyOpportunity(energyAsymmetry, movementEnergy float64, hedgeRegime string) string {
	asymmetry := abs(energyAsymmetry)
	switch {
	case asymmetry > 10.0:
		return "directional"
	case movementEnergy > 800 && asymmetry < 5.0:
		return "volatility"
	case movementEnergy < 300:
		return "range_bound"
	case strings.Contains(strings.ToLower(hedgeRegime), "squeeze"):
		return "gamma_squeeze"
	default:
		return "mixed"
	}
}

var opportunityTypeDescriptions = map[string]string{
	"directional":   "Strong directional bias detected",
	"volatility":    "Volatility expansion setup",
	"range_bound":   "Range-bound, low-energy conditions",
	"gamma_squeeze": "Dealer gamma squeeze pressure",
	"mixed":         "Mixed signals across engines",
}

func generateReasoning(opportunityType string, energyAsymmetry, movementEnergy, liquidityQuality, sentimentScore float64) string {
	parts := []string{opportunityTypeDescriptions[opportunityType]}

	biasDirection := "balanced"
	if energyAsymmetry > 0 {
		biasDirection = "upward"
	} else if energyAsymmetry < 0 {
		biasDirection = "downward"
	}
	parts = append(parts, strings.Join([]string{biasDirection, "energy bias"}, " "))

	if sentimentScore > 0.2 {
		parts = append(parts, "bullish sentiment alignment")
	} else if sentimentScore < -0.2 {
		parts = append(parts, "bearish sentiment alignment")
	}

	if liquidityQuality > 0.6 {
		parts = append(parts, "favorable liquidity")
	}
	if movementEnergy > 800 {
		parts = append(parts, "elevated movement energy")
	}

	return strings.Join(parts, "; ")
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

func min1(v float64) float64 {
	if v > 1 {
		return 1
	}
	return v
}

func max0(v float64) float64 {
	if v < 0 {
		return 0
	}
	return v
}

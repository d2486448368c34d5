package sentiment

import (
	"context"
	"time"

	"github.com/aristath/directive-engine/internal/adapters"
	"github.com/aristath/directive-engine/internal/domain"
	"github.com/aristath/directive-engine/internal/engines"
	"github.com/aristath/directive-engine/internal/sentiment/processors"
)

// NewsScorer turns recent news items into a sentiment value/confidence
// pair. The production scorer (an NLP entity-sentiment model) lives
// outside this module; HeuristicNewsScorer below is the local reference
// implementation used when no external scorer is wired in.
type NewsScorer interface {
	Score(items []domain.NewsItem) (value, confidence float64)
}

// HeuristicNewsScorer scores news purely by volume and press-release
// ratio: more press releases in a short window reads as more newsworthy
// (higher confidence) without attempting real sentiment extraction.
type HeuristicNewsScorer struct{}

func (HeuristicNewsScorer) Score(items []domain.NewsItem) (value, confidence float64) {
	if len(items) == 0 {
		return 0, 0
	}
	var pressReleases int
	for _, item := range items {
		if item.IsPressRelease {
			pressReleases++
		}
	}
	value = 0
	confidence = clamp(float64(pressReleases)/float64(len(items)), 0, 1) * 0.5
	return value, confidence
}

// Core orchestrates the six processors and the news scorer, fusing their
// output into one SentimentEnvelope per tick. It never returns an error:
// any processor that can't compute (insufficient bars) is simply absent
// from the fused signal set, and ApplyGracefulDegradation compensates.
type Core struct {
	ohlcv  adapters.OHLCVAdapter
	trades adapters.TradesAdapter
	news   adapters.NewsAdapter
	scorer NewsScorer
	config Config

	wyckoff    *processors.WyckoffProcessor
	oscillator *processors.OscillatorProcessor
	volatility *processors.VolatilityProcessor
	flow       *processors.FlowBiasProcessor
	breadth    *processors.BreadthRegimeProcessor
	energy     *processors.EnergyProcessor
}

// New constructs the sentiment Core. scorer may be nil, in which case
// HeuristicNewsScorer is used.
func New(ohlcv adapters.OHLCVAdapter, trades adapters.TradesAdapter, news adapters.NewsAdapter, scorer NewsScorer, config Config) *Core {
	config = config.withDefaults()
	if scorer == nil {
		scorer = HeuristicNewsScorer{}
	}
	return &Core{
		ohlcv:  ohlcv,
		trades: trades,
		news:   news,
		scorer: scorer,
		config: config,

		wyckoff:    processors.NewWyckoffProcessor(config.Wyckoff.Options),
		oscillator: processors.NewOscillatorProcessor(config.Oscillators.Options),
		volatility: processors.NewVolatilityProcessor(config.Volatility.Options),
		flow:       processors.NewFlowBiasProcessor(config.Flow.Options),
		breadth:    processors.NewBreadthRegimeProcessor(config.Breadth.Options),
		energy:     processors.NewEnergyProcessor(config.Energy.Options),
	}
}

const lookbackBuffer = 10

// Process computes the fused sentiment envelope for symbol at now.
func (c *Core) Process(ctx context.Context, symbol string, now time.Time) domain.SentimentEnvelope {
	lookback := c.maxLookback() + lookbackBuffer
	bars := c.ohlcv.FetchOHLCV(ctx, symbol, lookback, now)
	if bars.Empty() {
		return domain.SentimentEnvelope{Bias: domain.Neutral}
	}

	var signals []domain.SentimentSignal
	var energyLevel float64
	var regime string

	if c.config.Wyckoff.Enabled {
		if v, conf, _ := c.wyckoff.Compute(bars.Items); conf > 0 {
			signals = append(signals, domain.SentimentSignal{Value: v, Confidence: conf, Weight: 1.0, Driver: "wyckoff"})
		}
	}

	if c.config.Oscillators.Enabled {
		if v, conf := c.oscillator.Compute(bars.Items); conf > 0 {
			signals = append(signals, domain.SentimentSignal{Value: v, Confidence: conf, Weight: 1.0, Driver: "oscillators"})
		}
	}

	if c.config.Volatility.Enabled {
		if v, conf, _ := c.volatility.Compute(bars.Items); conf > 0 {
			signals = append(signals, domain.SentimentSignal{Value: v, Confidence: conf, Weight: 1.0, Driver: "volatility"})
		}
	}

	if c.config.Flow.Enabled && c.trades != nil {
		trades := c.trades.FetchTrades(ctx, symbol, 120, now)
		if v, conf := c.flow.Compute(trades.Items); conf > 0 {
			signals = append(signals, domain.SentimentSignal{Value: v, Confidence: conf, Weight: 1.0, Driver: "flow"})
		}
	}

	if c.config.Breadth.Enabled {
		if v, conf, r := c.breadth.Compute(bars.Items); conf > 0 {
			signals = append(signals, domain.SentimentSignal{Value: v, Confidence: conf, Weight: 1.0, Driver: "breadth"})
			regime = r
		}
	}

	if c.config.Energy.Enabled {
		if v, conf, load := c.energy.Compute(bars.Items); conf > 0 {
			signals = append(signals, domain.SentimentSignal{Value: v, Confidence: conf, Weight: 1.0, Driver: "energy"})
			energyLevel = load
		}
	}

	if c.news != nil {
		newsItems := c.news.FetchNews(ctx, symbol, 24, now)
		if v, conf := c.scorer.Score(newsItems.Items); conf > 0 {
			signals = append(signals, domain.SentimentSignal{Value: v, Confidence: conf, Weight: 0.6, Driver: "news"})
		}
	}

	signals = ApplyGracefulDegradation(signals, c.config.RequiredMinimum)
	envelope := FuseSignals(signals, energyLevel, regime, c.config.BiasThreshold)
	if envelope.Conflict {
		envelope.Confidence *= 0.7
	}
	return envelope
}

// Run adapts Process to the engines.Engine contract so the sentiment
// sub-core can sit alongside hedge, liquidity, and elasticity as a
// fourth named engine in the pipeline orchestrator.
func (c *Core) Run(ctx context.Context, symbol string, now time.Time) domain.EngineOutput {
	envelope := c.Process(ctx, symbol, now)
	if envelope.Confidence <= 0 {
		return engines.Degraded(domain.KindSentiment, symbol, now, "neutral", "no_data")
	}

	features := map[string]float64{
		"bias_value":           biasValue(envelope.Bias),
		"strength":             envelope.Strength,
		"energy":               envelope.Energy,
		"sentiment_score":      biasValue(envelope.Bias) * envelope.Strength,
		"sentiment_confidence": envelope.Confidence,
	}
	for _, d := range envelope.Drivers {
		features["driver."+d.Driver] = d.Contribution
	}

	out := domain.EngineOutput{
		Kind:       domain.KindSentiment,
		Symbol:     symbol,
		Timestamp:  now,
		Features:   features,
		Confidence: envelope.Confidence,
		Regime:     string(envelope.Bias),
	}
	if envelope.Conflict {
		out.Metadata = map[string]string{"conflict": "true"}
	}
	return out
}

func biasValue(bias domain.SentimentBias) float64 {
	switch bias {
	case domain.Bullish:
		return 1
	case domain.Bearish:
		return -1
	default:
		return 0
	}
}

func (c *Core) maxLookback() int {
	max := 0
	candidates := []int{
		c.config.Wyckoff.Options.LookbackPeriods,
		c.config.Oscillators.Options.RSIPeriod,
		c.config.Oscillators.Options.MFIPeriod,
		c.config.Volatility.Options.BBPeriod,
		c.config.Volatility.Options.KCPeriod,
		c.config.Breadth.Options.RegimeWindow,
		c.config.Energy.Options.CoherenceWindow,
	}
	for _, v := range candidates {
		if v > max {
			max = v
		}
	}
	if max == 0 {
		max = 40
	}
	return max
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

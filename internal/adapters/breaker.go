package adapters

import (
	"context"
	"time"

	"github.com/sony/gobreaker"

	"github.com/aristath/directive-engine/internal/domain"
)

// newBreaker builds a gobreaker.CircuitBreaker tuned for per-tick adapter
// calls: three consecutive failures, or a majority-failure rate over a
// modest sample, trips it open for a cooldown window.
func newBreaker(name string) *gobreaker.CircuitBreaker {
	st := gobreaker.Settings{Name: name}
	st.Interval = 60 * time.Second
	st.Timeout = 30 * time.Second
	st.ReadyToTrip = func(counts gobreaker.Counts) bool {
		if counts.ConsecutiveFailures >= 3 {
			return true
		}
		if counts.Requests < 10 {
			return false
		}
		return float64(counts.TotalFailures)/float64(counts.Requests) > 0.5
	}
	return gobreaker.NewCircuitBreaker(st)
}

// Breaker wraps an OHLCVAdapter, TradesAdapter, ChainAdapter, or
// NewsAdapter with a circuit breaker so a persistently failing upstream
// trips open and starts returning empty frames immediately instead of
// paying a call cost per tick. The wrapped adapter already returns empty
// frames on error rather than an error value, so Breaker treats an empty
// frame as a failure for trip-counting purposes.
type Breaker struct {
	ohlcv  OHLCVAdapter
	trades TradesAdapter
	chain  ChainAdapter
	news   NewsAdapter
	cb     *gobreaker.CircuitBreaker
}

// WrapOHLCV returns a breaker-guarded OHLCVAdapter.
func WrapOHLCV(name string, a OHLCVAdapter) *Breaker {
	return &Breaker{ohlcv: a, cb: newBreaker(name)}
}

// WrapTrades returns a breaker-guarded TradesAdapter.
func WrapTrades(name string, a TradesAdapter) *Breaker {
	return &Breaker{trades: a, cb: newBreaker(name)}
}

// WrapChain returns a breaker-guarded ChainAdapter.
func WrapChain(name string, a ChainAdapter) *Breaker {
	return &Breaker{chain: a, cb: newBreaker(name)}
}

// WrapNews returns a breaker-guarded NewsAdapter.
func WrapNews(name string, a NewsAdapter) *Breaker {
	return &Breaker{news: a, cb: newBreaker(name)}
}

func (b *Breaker) FetchOHLCV(ctx context.Context, symbol string, lookbackBars int, now time.Time) domain.Frame[domain.Bar] {
	result, err := b.cb.Execute(func() (interface{}, error) {
		frame := b.ohlcv.FetchOHLCV(ctx, symbol, lookbackBars, now)
		if frame.Empty() {
			return frame, errEmptyFrame
		}
		return frame, nil
	})
	if err != nil {
		if result != nil {
			return result.(domain.Frame[domain.Bar])
		}
		return domain.Frame[domain.Bar]{Symbol: symbol}
	}
	return result.(domain.Frame[domain.Bar])
}

func (b *Breaker) FetchTrades(ctx context.Context, symbol string, lookbackMinutes int, now time.Time) domain.Frame[domain.Trade] {
	result, err := b.cb.Execute(func() (interface{}, error) {
		frame := b.trades.FetchTrades(ctx, symbol, lookbackMinutes, now)
		if frame.Empty() {
			return frame, errEmptyFrame
		}
		return frame, nil
	})
	if err != nil {
		if result != nil {
			return result.(domain.Frame[domain.Trade])
		}
		return domain.Frame[domain.Trade]{Symbol: symbol}
	}
	return result.(domain.Frame[domain.Trade])
}

func (b *Breaker) FetchChain(ctx context.Context, symbol string, now time.Time) domain.Frame[domain.OptionContract] {
	result, err := b.cb.Execute(func() (interface{}, error) {
		frame := b.chain.FetchChain(ctx, symbol, now)
		if frame.Empty() {
			return frame, errEmptyFrame
		}
		return frame, nil
	})
	if err != nil {
		if result != nil {
			return result.(domain.Frame[domain.OptionContract])
		}
		return domain.Frame[domain.OptionContract]{Symbol: symbol}
	}
	return result.(domain.Frame[domain.OptionContract])
}

func (b *Breaker) FetchNews(ctx context.Context, symbol string, lookbackHours int, now time.Time) domain.Frame[domain.NewsItem] {
	result, err := b.cb.Execute(func() (interface{}, error) {
		frame := b.news.FetchNews(ctx, symbol, lookbackHours, now)
		if frame.Empty() {
			return frame, errEmptyFrame
		}
		return frame, nil
	})
	if err != nil {
		if result != nil {
			return result.(domain.Frame[domain.NewsItem])
		}
		return domain.Frame[domain.NewsItem]{Symbol: symbol}
	}
	return result.(domain.Frame[domain.NewsItem])
}

// errEmptyFrame marks an empty upstream frame as a breaker failure so that
// a string of empty responses (the adapter's own failure signal) also
// counts toward tripping the breaker, not just transport errors.
var errEmptyFrame = emptyFrameError{}

type emptyFrameError struct{}

func (emptyFrameError) Error() string { return "adapter returned an empty frame" }

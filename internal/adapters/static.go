package adapters

import (
	"context"
	"time"

	"github.com/aristath/directive-engine/internal/domain"
)

// StaticAdapter serves preloaded frames keyed by symbol. It implements all
// four adapter interfaces from a single in-memory fixture set, for tests,
// the cmd/ demos, and the backtest harness's default data source.
type StaticAdapter struct {
	OHLCV map[string][]domain.Bar
	Trades map[string][]domain.Trade
	Chains map[string][]domain.OptionContract
	News   map[string][]domain.NewsItem
}

// NewStaticAdapter returns an adapter with empty fixture maps ready to
// populate.
func NewStaticAdapter() *StaticAdapter {
	return &StaticAdapter{
		OHLCV:  make(map[string][]domain.Bar),
		Trades: make(map[string][]domain.Trade),
		Chains: make(map[string][]domain.OptionContract),
		News:   make(map[string][]domain.NewsItem),
	}
}

// FetchOHLCV returns up to lookbackBars of the most recent preloaded bars
// at or before now. An unknown symbol yields an empty frame.
func (a *StaticAdapter) FetchOHLCV(_ context.Context, symbol string, lookbackBars int, now time.Time) domain.Frame[domain.Bar] {
	bars := a.OHLCV[symbol]
	var filtered []domain.Bar
	for _, b := range bars {
		if !b.Timestamp.After(now) {
			filtered = append(filtered, b)
		}
	}
	if lookbackBars > 0 && len(filtered) > lookbackBars {
		filtered = filtered[len(filtered)-lookbackBars:]
	}
	return domain.Frame[domain.Bar]{Symbol: symbol, Items: filtered}
}

// FetchTrades returns preloaded trades within lookbackMinutes of now.
func (a *StaticAdapter) FetchTrades(_ context.Context, symbol string, lookbackMinutes int, now time.Time) domain.Frame[domain.Trade] {
	cutoff := now.Add(-time.Duration(lookbackMinutes) * time.Minute)
	var filtered []domain.Trade
	for _, t := range a.Trades[symbol] {
		if !t.Timestamp.Before(cutoff) && !t.Timestamp.After(now) {
			filtered = append(filtered, t)
		}
	}
	return domain.Frame[domain.Trade]{Symbol: symbol, Items: filtered}
}

// FetchChain returns the preloaded chain snapshot for a symbol as-is; the
// fixture set carries one static chain per symbol rather than a history.
func (a *StaticAdapter) FetchChain(_ context.Context, symbol string, _ time.Time) domain.Frame[domain.OptionContract] {
	return domain.Frame[domain.OptionContract]{Symbol: symbol, Items: a.Chains[symbol]}
}

// FetchNews returns preloaded news items within lookbackHours of now.
func (a *StaticAdapter) FetchNews(_ context.Context, symbol string, lookbackHours int, now time.Time) domain.Frame[domain.NewsItem] {
	cutoff := now.Add(-time.Duration(lookbackHours) * time.Hour)
	var filtered []domain.NewsItem
	for _, n := range a.News[symbol] {
		if !n.Timestamp.Before(cutoff) && !n.Timestamp.After(now) {
			filtered = append(filtered, n)
		}
	}
	return domain.Frame[domain.NewsItem]{Symbol: symbol, Items: filtered}
}

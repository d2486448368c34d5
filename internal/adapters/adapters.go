// Package adapters defines the four polymorphic external-data sources the
// core consumes. Adapters are injected at construction; the core never
// opens a socket or a file directly. Adapters MUST NOT fail the
// pipeline — on error they return an empty frame and let the engine
// that consumes it degrade.
package adapters

import (
	"context"
	"time"

	"github.com/aristath/directive-engine/internal/domain"
)

// OHLCVAdapter fetches bar history for a symbol.
type OHLCVAdapter interface {
	FetchOHLCV(ctx context.Context, symbol string, lookbackBars int, now time.Time) domain.Frame[domain.Bar]
}

// TradesAdapter fetches recent intraday prints for a symbol.
type TradesAdapter interface {
	FetchTrades(ctx context.Context, symbol string, lookbackMinutes int, now time.Time) domain.Frame[domain.Trade]
}

// ChainAdapter fetches the current options chain for a symbol.
type ChainAdapter interface {
	FetchChain(ctx context.Context, symbol string, now time.Time) domain.Frame[domain.OptionContract]
}

// NewsAdapter fetches recent news items for a symbol.
type NewsAdapter interface {
	FetchNews(ctx context.Context, symbol string, lookbackHours int, now time.Time) domain.Frame[domain.NewsItem]
}

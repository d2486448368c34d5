// Package demodata seeds a StaticAdapter with a synthetic OHLCV/chain
// fixture for the cmd/ entrypoints, which have no live market-data
// feed to call.
package demodata

import (
	"math"
	"time"

	"github.com/aristath/directive-engine/internal/adapters"
	"github.com/aristath/directive-engine/internal/domain"
)

// Seed populates adapter with bars bars of symbol's synthetic OHLCV
// history (a gentle sine-wave walk around basePrice) ending at now,
// plus a small options chain so the hedge engine and scanner's
// options-activity score have something to read.
func Seed(adapter *adapters.StaticAdapter, symbol string, now time.Time, bars int, basePrice float64) {
	history := make([]domain.Bar, bars)
	for i := 0; i < bars; i++ {
		offset := float64(bars-1-i) * time.Minute.Seconds()
		ts := now.Add(-time.Duration(offset) * time.Second)
		drift := math.Sin(float64(i)/6.0) * basePrice * 0.01
		price := basePrice + drift + float64(i)*0.02
		history[i] = domain.Bar{
			Timestamp: ts,
			Symbol:    symbol,
			Open:      price - 0.1,
			High:      price + 0.3,
			Low:       price - 0.3,
			Close:     price,
			Volume:    1_500_000 + float64(i%5)*200_000,
		}
	}
	adapter.OHLCV[symbol] = history

	last := history[len(history)-1].Close
	adapter.Chains[symbol] = []domain.OptionContract{
		{Underlying: symbol, Expiry: now.Add(30 * 24 * time.Hour), Strike: math.Round(last), Right: domain.Call, Gamma: 0.06, OpenInterest: 3200, Volume: 800, UnderlyingSpot: last},
		{Underlying: symbol, Expiry: now.Add(30 * 24 * time.Hour), Strike: math.Round(last) + 5, Right: domain.Put, Gamma: -0.04, OpenInterest: 2100, Volume: 500, UnderlyingSpot: last},
	}
}

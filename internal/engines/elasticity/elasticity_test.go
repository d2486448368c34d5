package elasticity

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/aristath/directive-engine/internal/adapters"
	"github.com/aristath/directive-engine/internal/domain"
)

func TestRun_EmptyOHLCVDegrades(t *testing.T) {
	a := adapters.NewStaticAdapter()
	e := New(a, Config{})
	out := e.Run(context.Background(), "AAPL", time.Now())

	assert.Equal(t, 0.0, out.Confidence)
	assert.Equal(t, "low_resistance", out.Regime)
	assert.Equal(t, "no_data", out.Metadata["degraded"])
}

func TestRun_HighResistanceRegime(t *testing.T) {
	now := time.Now()
	a := adapters.NewStaticAdapter()
	var bars []domain.Bar
	closes := []float64{100, 90, 115, 80, 120, 70}
	for i, c := range closes {
		bars = append(bars, domain.Bar{Timestamp: now.Add(time.Duration(i-len(closes)) * time.Minute), Close: c, Volume: 10})
	}
	a.OHLCV["AAPL"] = bars

	e := New(a, Config{BaselineMoveCost: 1.0})
	out := e.Run(context.Background(), "AAPL", now)

	assert.Equal(t, "high_resistance", out.Regime)
	assert.Greater(t, out.Confidence, 0.0)
}

// Package engines defines the shared Engine contract the hedge, liquidity,
// and elasticity engines implement, and the degraded-output constructor
// they all share when their adapter returns no data.
package engines

import (
	"context"
	"time"

	"github.com/aristath/directive-engine/internal/domain"
)

// Engine computes one kind of market feature set for a symbol at a point
// in time. Implementations never return an error: a missing or malformed
// upstream frame degrades the output (confidence 0) instead of failing
// the tick.
type Engine interface {
	Run(ctx context.Context, symbol string, now time.Time) domain.EngineOutput
}

// Degraded builds the canonical degraded EngineOutput shared by every
// engine that can't compute features this tick: confidence 0, the
// engine's degraded regime label, and a metadata reason a caller can log
// without re-deriving it from confidence alone.
func Degraded(kind domain.EngineKind, symbol string, now time.Time, regime, reason string) domain.EngineOutput {
	return domain.EngineOutput{
		Kind:       kind,
		Symbol:     symbol,
		Timestamp:  now,
		Features:   map[string]float64{},
		Confidence: 0,
		Regime:     regime,
		Metadata:   map[string]string{"degraded": reason},
	}
}

// Package agents implements the four primary agents, one per engine:
// stateless interpreters that read a tick's StandardSnapshot and emit a
// Suggestion, and separately cache their engine's raw output so a
// composer can later pull a normalized EngineDirective from it.
package agents

import (
	"errors"
	"fmt"

	"github.com/aristath/directive-engine/internal/domain"
)

// ErrOutputUnavailable is returned by Output when SetEngineOutput has
// never been called for this tick. It's the one fatal error in the
// pipeline: the composer cannot proceed without every agent's directive.
var ErrOutputUnavailable = errors.New("agent has no cached engine output")

// Agent is implemented by every primary agent.
type Agent interface {
	// Step produces a Suggestion from the tick's standard snapshot.
	Step(snapshot domain.StandardSnapshot) domain.Suggestion
	// SetEngineOutput caches this tick's raw engine output for Output.
	SetEngineOutput(output domain.EngineOutput)
	// Output translates the cached engine output into the composer's
	// normalized EngineDirective form. Returns ErrOutputUnavailable if
	// SetEngineOutput hasn't been called yet this tick.
	Output() (domain.EngineDirective, error)
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

// namespaceFeatures copies a features map with each key prefixed
// "{engine}.{feature}", matching the composer's expected namespacing.
func namespaceFeatures(engine string, features map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(features))
	for k, v := range features {
		out[fmt.Sprintf("%s.%s", engine, k)] = v
	}
	return out
}

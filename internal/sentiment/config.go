package sentiment

import "github.com/aristath/directive-engine/internal/sentiment/processors"

// Config groups every processor's tuning knobs plus the fusion-level
// thresholds. Each processor sub-config carries an Enabled flag so any
// processor can be switched off without removing it from the build.
type Config struct {
	Wyckoff    ProcessorToggle[processors.WyckoffConfig]
	Oscillators ProcessorToggle[processors.OscillatorConfig]
	Volatility ProcessorToggle[processors.VolatilityConfig]
	Flow       ProcessorToggle[processors.FlowBiasConfig]
	Breadth    ProcessorToggle[processors.BreadthRegimeConfig]
	Energy     ProcessorToggle[processors.EnergyConfig]

	BiasThreshold    float64
	RequiredMinimum  int
}

// ProcessorToggle pairs a processor's options with whether it runs at
// all; disabling a processor is a config change, not a code change.
type ProcessorToggle[T any] struct {
	Enabled bool
	Options T
}

// NewDefaultConfig returns a Config with every processor enabled and the
// fusion thresholds set to their defaults. Callers disable individual
// processors or override thresholds on the returned value.
func NewDefaultConfig() Config {
	return Config{
		Wyckoff:     ProcessorToggle[processors.WyckoffConfig]{Enabled: true},
		Oscillators: ProcessorToggle[processors.OscillatorConfig]{Enabled: true},
		Volatility:  ProcessorToggle[processors.VolatilityConfig]{Enabled: true},
		Flow:        ProcessorToggle[processors.FlowBiasConfig]{Enabled: true},
		Breadth:     ProcessorToggle[processors.BreadthRegimeConfig]{Enabled: true},
		Energy:      ProcessorToggle[processors.EnergyConfig]{Enabled: true},

		BiasThreshold:   0.15,
		RequiredMinimum: 3,
	}
}

func (c Config) withDefaults() Config {
	if c.BiasThreshold == 0 {
		c.BiasThreshold = 0.15
	}
	if c.RequiredMinimum == 0 {
		c.RequiredMinimum = 3
	}
	return c
}

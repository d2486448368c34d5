package scheduler

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/directive-engine/internal/scanner"
)

// NowFunc supplies the current time; tests substitute a fixed clock.
type NowFunc func() time.Time

// ScanJob re-runs an opportunity scan over a fixed universe on each
// firing and logs the ranked result.
type ScanJob struct {
	scanner  *scanner.Scanner
	universe []string
	now      NowFunc
	log      zerolog.Logger
}

// NewScanJob constructs a ScanJob. now defaults to time.Now when nil.
func NewScanJob(s *scanner.Scanner, universe []string, now NowFunc, log zerolog.Logger) *ScanJob {
	if now == nil {
		now = time.Now
	}
	return &ScanJob{
		scanner:  s,
		universe: universe,
		now:      now,
		log:      log.With().Str("job", "scan").Logger(),
	}
}

func (j *ScanJob) Name() string { return "scan" }

func (j *ScanJob) Run() error {
	result := j.scanner.Scan(context.Background(), j.universe, j.now())

	j.log.Info().
		Int("symbols_scanned", result.SymbolsScanned).
		Int("opportunities", len(result.Opportunities)).
		Dur("duration", result.ScanDuration).
		Msg("scan complete")

	for _, opp := range result.Opportunities {
		j.log.Debug().
			Int("rank", opp.Rank).
			Str("symbol", opp.Symbol).
			Float64("score", opp.Score).
			Str("type", opp.OpportunityType).
			Msg("opportunity")
	}

	return nil
}

package ledger

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/directive-engine/internal/domain"
)

func TestWriter_AppendAndReadAll_RoundTrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.bin")

	w, err := Open(path, nil)
	require.NoError(t, err)

	now := time.Now().UTC().Truncate(time.Second)
	records := []Record{
		{
			Timestamp: now,
			Symbol:    "SPY",
			Snapshot:  domain.StandardSnapshot{Symbol: "SPY", Timestamp: now, Regime: "trending"},
			Suggestions: []domain.Suggestion{
				{ID: "s1", Layer: "primary_hedge", Symbol: "SPY", Action: domain.ActionLong, Confidence: 0.8},
			},
			Composite: domain.CompositeMarketDirective{Symbol: "SPY", Timestamp: now, Direction: 0.5, Confidence: 0.7},
		},
		{
			Timestamp: now.Add(time.Minute),
			Symbol:    "QQQ",
			Composite: domain.CompositeMarketDirective{Symbol: "QQQ", Timestamp: now.Add(time.Minute), Direction: -0.2},
		},
	}
	for _, r := range records {
		require.NoError(t, w.Append(r))
	}
	require.NoError(t, w.Close())

	got, err := ReadAll(path)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "SPY", got[0].Symbol)
	assert.Equal(t, domain.ActionLong, got[0].Suggestions[0].Action)
	assert.InDelta(t, 0.5, got[0].Composite.Direction, 1e-9)
	assert.Equal(t, "QQQ", got[1].Symbol)
}

func TestWriter_Rotate_RenamesAndReopens(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ledger.bin")
	rotatedPath := filepath.Join(dir, "ledger-rotated.bin")

	w, err := Open(path, nil)
	require.NoError(t, err)

	require.NoError(t, w.Append(Record{Symbol: "SPY"}))
	require.NoError(t, w.Rotate(nil, rotatedPath))
	require.NoError(t, w.Append(Record{Symbol: "QQQ"}))
	require.NoError(t, w.Close())

	rotated, err := ReadAll(rotatedPath)
	require.NoError(t, err)
	require.Len(t, rotated, 1)
	assert.Equal(t, "SPY", rotated[0].Symbol)

	fresh, err := ReadAll(path)
	require.NoError(t, err)
	require.Len(t, fresh, 1)
	assert.Equal(t, "QQQ", fresh[0].Symbol)
}

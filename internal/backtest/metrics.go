// Package backtest replays a composed directive against realized price
// moves over a timestamp sequence and computes the aggregate accuracy,
// PnL, and risk metrics that validate it.
package backtest

import (
	"math"
	"strconv"
	"strings"
)

// DirectionalAccuracy reports the fraction of records, among those whose
// realized return exceeds threshold in absolute value and whose
// direction is non-zero, where the predicted sign matches the realized
// return's sign.
func DirectionalAccuracy(directions []float64, returns []float64, threshold float64) float64 {
	var wins, total float64
	for i, d := range directions {
		r := returns[i]
		if math.Abs(r) <= threshold || d == 0 {
			continue
		}
		total++
		if (d > 0 && r > 0) || (d < 0 && r < 0) {
			wins++
		}
	}
	if total == 0 {
		return 0
	}
	return wins / total
}

// NaivePnL sums notional × direction × return across every record.
func NaivePnL(directions, returns []float64, notional float64) float64 {
	var pnl float64
	for i, d := range directions {
		pnl += notional * d * returns[i]
	}
	return pnl
}

// PnLSeries returns the per-record notional × direction × return values.
func PnLSeries(directions, returns []float64, notional float64) []float64 {
	series := make([]float64, len(directions))
	for i, d := range directions {
		series[i] = notional * d * returns[i]
	}
	return series
}

// SharpeRatio computes mean(excess)/std(excess) over a PnL series using
// population variance (divide by n, not n-1), returning 0 when the
// series is empty or its variance is below 1e-10 — a flat PnL series
// has no meaningful Sharpe, not an undefined one.
func SharpeRatio(pnlSeries []float64, riskFreeRate float64) float64 {
	n := len(pnlSeries)
	if n == 0 {
		return 0
	}

	excess := make([]float64, n)
	var sum float64
	for i, p := range pnlSeries {
		excess[i] = p - riskFreeRate
		sum += excess[i]
	}
	mean := sum / float64(n)

	var sumSquares float64
	for _, x := range excess {
		diff := x - mean
		sumSquares += diff * diff
	}
	variance := sumSquares / float64(n)
	if variance < 1e-10 {
		return 0
	}

	return mean / math.Sqrt(variance)
}

// MaxDrawdown computes the largest peak-to-trough decline of the
// cumulative PnL series (not the price series — see
// pkg/formulas.CalculateMaxDrawdown for that sibling), returned as a
// non-negative value.
func MaxDrawdown(pnlSeries []float64) float64 {
	if len(pnlSeries) == 0 {
		return 0
	}

	var cumulative float64
	var peak float64
	var maxDD float64
	first := true

	for _, pnl := range pnlSeries {
		cumulative += pnl
		if first {
			peak = cumulative
			first = false
		}
		if cumulative > peak {
			peak = cumulative
		}
		dd := peak - cumulative
		if dd > maxDD {
			maxDD = dd
		}
	}

	return maxDD
}

// WinRate is the fraction of non-neutral (direction != 0) records whose
// direction × return is positive.
func WinRate(directions, returns []float64) float64 {
	var wins, total float64
	for i, d := range directions {
		if d == 0 {
			continue
		}
		total++
		if d*returns[i] > 0 {
			wins++
		}
	}
	if total == 0 {
		return 0
	}
	return wins / total
}

// BucketAccuracyByEnergy stratifies directional accuracy by energy_cost
// bucket. edges defines the interior bucket boundaries; the implicit
// first bucket is (-inf, edges[0]] and the implicit last bucket is
// (edges[len-1], +inf). Ranges are half-open: low < energy <= high.
// Labels are formatted "<= X", "X - Y", and "> Z" to match the reference
// implementation's bucket report.
func BucketAccuracyByEnergy(directions, returns, energyCosts []float64, edges []float64) map[string]float64 {
	type bucketRange struct {
		low, high float64
		label     string
	}

	ranges := make([]bucketRange, 0, len(edges)+1)
	last := math.Inf(-1)
	for _, edge := range edges {
		ranges = append(ranges, bucketRange{low: last, high: edge})
		last = edge
	}
	ranges = append(ranges, bucketRange{low: last, high: math.Inf(1)})

	for i := range ranges {
		switch {
		case math.IsInf(ranges[i].low, -1):
			ranges[i].label = "<= " + formatBucketEdge(ranges[i].high)
		case math.IsInf(ranges[i].high, 1):
			ranges[i].label = "> " + formatBucketEdge(ranges[i].low)
		default:
			ranges[i].label = formatBucketEdge(ranges[i].low) + " - " + formatBucketEdge(ranges[i].high)
		}
	}

	wins := make(map[string]float64, len(ranges))
	totals := make(map[string]float64, len(ranges))
	for _, r := range ranges {
		wins[r.label] = 0
		totals[r.label] = 0
	}

	for i, d := range directions {
		if d == 0 {
			continue
		}
		energy := energyCosts[i]
		for _, r := range ranges {
			if r.low < energy && energy <= r.high {
				totals[r.label]++
				if (d > 0 && returns[i] > 0) || (d < 0 && returns[i] < 0) {
					wins[r.label]++
				}
				break
			}
		}
	}

	out := make(map[string]float64, len(ranges))
	for _, r := range ranges {
		if totals[r.label] == 0 {
			out[r.label] = 0
		} else {
			out[r.label] = wins[r.label] / totals[r.label]
		}
	}
	return out
}

// formatBucketEdge mirrors Python's default float-to-string formatting
// (always at least one decimal place), since bucket labels are meant to
// read like the reference implementation's report (e.g. "0.5", "5.0").
func formatBucketEdge(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}

package formulas

// DrawdownMetrics is a price-series drawdown snapshot: max and current
// drawdown from the running peak, and how long ago that peak was.
type DrawdownMetrics struct {
	MaxDrawdown     float64
	CurrentDrawdown float64
	StepsInDrawdown int
	PeakValue       float64
	CurrentValue    float64
}

// CalculateMaxDrawdown computes the largest peak-to-trough decline in a
// price series, as a positive fraction of the peak. Returns nil if there
// are fewer than two prices. This is the price-series sibling of
// internal/backtest.MaxDrawdown, which instead tracks cumulative PnL.
func CalculateMaxDrawdown(prices []float64) *float64 {
	if len(prices) < 2 {
		return nil
	}

	maxDrawdown := 0.0
	peak := prices[0]
	for _, price := range prices {
		if price > peak {
			peak = price
		}
		if peak > 0 {
			drawdown := (peak - price) / peak
			if drawdown > maxDrawdown {
				maxDrawdown = drawdown
			}
		}
	}

	return &maxDrawdown
}

// CalculateDrawdownMetrics computes the full drawdown snapshot for a price
// series: max drawdown, current drawdown from the running peak, and the
// number of steps since that peak.
func CalculateDrawdownMetrics(prices []float64) *DrawdownMetrics {
	if len(prices) < 2 {
		return nil
	}

	maxDrawdown := 0.0
	peak := prices[0]
	peakIndex := 0
	currentValue := prices[len(prices)-1]

	for i, price := range prices {
		if price > peak {
			peak = price
			peakIndex = i
		}
		if peak > 0 {
			drawdown := (peak - price) / peak
			if drawdown > maxDrawdown {
				maxDrawdown = drawdown
			}
		}
	}

	currentDrawdown := 0.0
	if peak > 0 {
		currentDrawdown = (peak - currentValue) / peak
	}

	return &DrawdownMetrics{
		MaxDrawdown:     maxDrawdown,
		CurrentDrawdown: currentDrawdown,
		StepsInDrawdown: len(prices) - 1 - peakIndex,
		PeakValue:       peak,
		CurrentValue:    currentValue,
	}
}

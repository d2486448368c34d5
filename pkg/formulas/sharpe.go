package formulas

import (
	"math"
)

// CalculateSharpeRatio calculates the annualized Sharpe ratio of a periodic
// return series: (mean excess return) / (stddev of returns), scaled by
// sqrt(periodsPerYear). Returns nil if there's insufficient data or the
// series has zero variance.
func CalculateSharpeRatio(returns []float64, riskFreeRate float64, periodsPerYear int) *float64 {
	if len(returns) < 2 {
		return nil
	}

	meanReturn := Mean(returns)
	stdDev := StdDev(returns)
	if stdDev == 0 {
		return nil
	}

	periodicRiskFree := riskFreeRate / float64(periodsPerYear)
	sharpe := (meanReturn - periodicRiskFree) / stdDev
	annualizedSharpe := sharpe * math.Sqrt(float64(periodsPerYear))

	return &annualizedSharpe
}

// CalculateSharpeFromPrices converts a price series to daily returns before
// computing the annualized Sharpe ratio (252 trading days per year).
func CalculateSharpeFromPrices(prices []float64, riskFreeRate float64) *float64 {
	if len(prices) < 2 {
		return nil
	}
	returns := CalculateReturns(prices)
	return CalculateSharpeRatio(returns, riskFreeRate, 252)
}

// CalculateSortinoRatio is the downside-deviation analog of
// CalculateSharpeRatio: only returns below targetReturn contribute to the
// denominator. Returns nil if there's no downside observation at all.
func CalculateSortinoRatio(returns []float64, riskFreeRate, targetReturn float64, periodsPerYear int) *float64 {
	if len(returns) < 2 {
		return nil
	}

	meanReturn := Mean(returns)
	periodicMAR := targetReturn / float64(periodsPerYear)

	var downsideSquaredSum float64
	downsideCount := 0
	for _, ret := range returns {
		if ret < periodicMAR {
			deviation := ret - periodicMAR
			downsideSquaredSum += deviation * deviation
			downsideCount++
		}
	}
	if downsideCount == 0 {
		return nil
	}

	downsideDeviation := math.Sqrt(downsideSquaredSum / float64(downsideCount))
	if downsideDeviation == 0 {
		return nil
	}

	periodicRiskFree := riskFreeRate / float64(periodsPerYear)
	sortino := (meanReturn - periodicRiskFree) / downsideDeviation
	annualizedSortino := sortino * math.Sqrt(float64(periodsPerYear))

	return &annualizedSortino
}

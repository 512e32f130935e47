// Package perf is the metrics engine for the paper-trading dashboard.
// It turns equity and trade series into performance and risk statistics:
// returns, volatility, Sharpe, Sortino, drawdowns, win rate, exposure.
//
// Every function is a pure transform of its inputs. Degenerate inputs
// (empty series, zero variance, zero denominators) always resolve to a
// defined value instead of an error or a panic, so the presentation layer
// can render "no data yet" without special cases. The single exception to
// the zero-default rule is Sortino on a series with no negative returns,
// which reports +Inf (all upside, no downside risk).
package perf

import (
	"math"

	"papertrade-dash/internal/common"
	"papertrade-dash/internal/store"

	"github.com/montanaflynn/stats"
)

// DailyReturns computes the percentage change between consecutive equity
// points. Fewer than two points yields an empty result. A zero previous
// equity has no defined change and is skipped.
func DailyReturns(series []store.EquityPoint) []float64 {
	if len(series) < 2 {
		return nil
	}

	returns := make([]float64, 0, len(series)-1)
	for i := 1; i < len(series); i++ {
		prev := series[i-1].Equity
		if prev == 0 {
			continue
		}
		returns = append(returns, series[i].Equity/prev-1)
	}
	return returns
}

// AnnualizedReturn compounds the returns and rescales them to a
// 252-trading-day year: (1+total)^(252/n) - 1. Empty input yields 0.
func AnnualizedReturn(returns []float64) float64 {
	n := len(returns)
	if n == 0 {
		return 0
	}

	total := 1.0
	for _, r := range returns {
		total *= 1 + r
	}
	return math.Pow(total, common.TradingDaysPerYear/float64(n)) - 1
}

// Volatility is the annualized sample standard deviation of the returns.
// Fewer than two points yields 0.
func Volatility(returns []float64) float64 {
	if len(returns) < 2 {
		return 0
	}

	stdev, err := stats.StandardDeviationSample(returns)
	if err != nil || stdev == 0 {
		return 0
	}
	return stdev * math.Sqrt(common.TradingDaysPerYear)
}

// SharpeRatio is the canonical risk-adjusted return used throughout the
// dashboard: mean/stdev * sqrt(252), with no risk-free subtraction.
// For the variant that nets out a risk-free rate see ExcessSharpeRatio.
// Empty input, fewer than two points, or zero variance all yield 0.
func SharpeRatio(returns []float64) float64 {
	if len(returns) < 2 {
		return 0
	}

	mean, err := stats.Mean(returns)
	if err != nil {
		return 0
	}
	stdev, err := stats.StandardDeviationSample(returns)
	if err != nil || stdev == 0 {
		return 0
	}

	return mean / stdev * math.Sqrt(common.TradingDaysPerYear)
}

// ExcessSharpeRatio subtracts an annual risk-free rate from the
// annualized mean return before dividing by annualized volatility:
// (mean*252 - rf) / (stdev*sqrt(252)). Same degenerate-input guards as
// SharpeRatio.
func ExcessSharpeRatio(returns []float64, riskFreeRate float64) float64 {
	if len(returns) < 2 {
		return 0
	}

	mean, err := stats.Mean(returns)
	if err != nil {
		return 0
	}
	stdev, err := stats.StandardDeviationSample(returns)
	if err != nil || stdev == 0 {
		return 0
	}

	return (mean*common.TradingDaysPerYear - riskFreeRate) / (stdev * math.Sqrt(common.TradingDaysPerYear))
}

// SortinoRatio is the Sharpe numerator over the annualized standard
// deviation of only the negative returns. A non-empty series with no
// negative returns yields +Inf; a downside subset with undefined or zero
// variance yields 0; an empty series yields 0.
func SortinoRatio(returns []float64, riskFreeRate float64) float64 {
	if len(returns) == 0 {
		return 0
	}

	var downside []float64
	for _, r := range returns {
		if r < 0 {
			downside = append(downside, r)
		}
	}
	if len(downside) == 0 {
		return math.Inf(1)
	}
	if len(downside) < 2 {
		return 0
	}

	downsideStdev, err := stats.StandardDeviationSample(downside)
	if err != nil || downsideStdev == 0 {
		return 0
	}

	mean, err := stats.Mean(returns)
	if err != nil {
		return 0
	}

	return (mean*common.TradingDaysPerYear - riskFreeRate) / (downsideStdev * math.Sqrt(common.TradingDaysPerYear))
}

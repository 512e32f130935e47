package perf

import (
	"time"

	"papertrade-dash/internal/store"
)

// DrawdownPoint is one entry of the running drawdown series used for
// charting.
type DrawdownPoint struct {
	Date     time.Time `json:"date"`
	Drawdown float64   `json:"drawdown"`
}

// MaxDrawdown returns the deepest decline from a running peak, as a
// negative fraction (-0.12 for a 12% drawdown). Empty input yields 0.
func MaxDrawdown(series []store.EquityPoint) float64 {
	if len(series) == 0 {
		return 0
	}

	peak := series[0].Equity
	maxDD := 0.0
	for _, point := range series {
		if point.Equity > peak {
			peak = point.Equity
		}
		if peak > 0 {
			if dd := (point.Equity - peak) / peak; dd < maxDD {
				maxDD = dd
			}
		}
	}
	return maxDD
}

// DrawdownSeries applies the running-peak drawdown formula pointwise,
// producing the full per-date sequence for the drawdown chart.
func DrawdownSeries(series []store.EquityPoint) []DrawdownPoint {
	if len(series) == 0 {
		return nil
	}

	points := make([]DrawdownPoint, 0, len(series))
	peak := series[0].Equity
	for _, p := range series {
		if p.Equity > peak {
			peak = p.Equity
		}
		dd := 0.0
		if peak > 0 {
			dd = (p.Equity - peak) / peak
		}
		points = append(points, DrawdownPoint{Date: p.Date, Drawdown: dd})
	}
	return points
}

// CurrentDrawdown measures how far the latest equity point sits below the
// peak within the trailing windowDays, reported as an absolute magnitude.
// The window is anchored at the last point's date, keeping the function a
// pure transform of its input. Empty input yields 0.
func CurrentDrawdown(series []store.EquityPoint, windowDays int) float64 {
	if len(series) == 0 {
		return 0
	}

	last := series[len(series)-1]

	var cutoff time.Time
	if windowDays > 0 {
		cutoff = last.Date.AddDate(0, 0, -windowDays)
	}

	peak := 0.0
	for _, p := range series {
		if !cutoff.IsZero() && p.Date.Before(cutoff) {
			continue
		}
		if p.Equity > peak {
			peak = p.Equity
		}
	}
	if peak <= 0 {
		return 0
	}

	dd := (last.Equity - peak) / peak
	if dd > 0 {
		dd = 0
	}
	return -dd
}

package perf

import (
	"math"
	"sort"
	"time"

	"papertrade-dash/internal/store"
)

// TradeStats aggregates realized trade results. Counting conventions:
// TotalTrades covers BUY and SELL; everything else is over closed (SELL)
// trades only, and a closed trade with exactly zero P&L counts as neither
// a win nor a loss.
type TradeStats struct {
	TotalTrades   int     `json:"total_trades"`
	ClosedTrades  int     `json:"closed_trades"`
	WinningTrades int     `json:"winning_trades"`
	LosingTrades  int     `json:"losing_trades"`
	WinRate       float64 `json:"win_rate"`
	TotalPnL      float64 `json:"total_pnl"`
	AvgPnL        float64 `json:"avg_pnl"`
	BestTrade     float64 `json:"best_trade"`
	WorstTrade    float64 `json:"worst_trade"`
}

// PnLPoint is one entry of the cumulative realized P&L series.
type PnLPoint struct {
	Date          time.Time `json:"date"`
	CumulativePnL float64   `json:"cumulative_pnl"`
}

// WinRate returns winning closed trades over all closed trades, in
// [0, 1]. No closed trades yields 0.
func WinRate(trades []store.Trade) float64 {
	closed, wins := 0, 0
	for _, t := range trades {
		if !t.Closed() {
			continue
		}
		closed++
		if t.PnL > 0 {
			wins++
		}
	}
	if closed == 0 {
		return 0
	}
	return float64(wins) / float64(closed)
}

// CalcTradeStats computes the full trade statistics block. An empty or
// BUY-only history yields the zero-value struct.
func CalcTradeStats(trades []store.Trade) TradeStats {
	s := TradeStats{TotalTrades: len(trades)}

	for _, t := range trades {
		if !t.Closed() {
			continue
		}

		if s.ClosedTrades == 0 {
			s.BestTrade = t.PnL
			s.WorstTrade = t.PnL
		}
		s.ClosedTrades++
		s.TotalPnL += t.PnL

		switch {
		case t.PnL > 0:
			s.WinningTrades++
		case t.PnL < 0:
			s.LosingTrades++
		}

		if t.PnL > s.BestTrade {
			s.BestTrade = t.PnL
		}
		if t.PnL < s.WorstTrade {
			s.WorstTrade = t.PnL
		}
	}

	if s.ClosedTrades > 0 {
		s.WinRate = float64(s.WinningTrades) / float64(s.ClosedTrades)
		s.AvgPnL = s.TotalPnL / float64(s.ClosedTrades)
	}
	return s
}

// ProfitFactor is gross profit over gross loss across closed trades.
// A zero gross loss yields 0 per the degenerate-denominator rule, even
// when profits exist.
func ProfitFactor(trades []store.Trade) float64 {
	var grossProfit, grossLoss float64
	for _, t := range trades {
		if !t.Closed() {
			continue
		}
		if t.PnL > 0 {
			grossProfit += t.PnL
		} else {
			grossLoss += math.Abs(t.PnL)
		}
	}
	if grossLoss == 0 {
		return 0
	}
	return grossProfit / grossLoss
}

// CumulativePnL returns the date-ordered running total of realized P&L.
// BUY trades appear in the series with no contribution, keeping one point
// per trade for the chart.
func CumulativePnL(trades []store.Trade) []PnLPoint {
	if len(trades) == 0 {
		return nil
	}

	ordered := make([]store.Trade, len(trades))
	copy(ordered, trades)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Date.Before(ordered[j].Date)
	})

	points := make([]PnLPoint, 0, len(ordered))
	total := 0.0
	for _, t := range ordered {
		if t.Closed() {
			total += t.PnL
		}
		points = append(points, PnLPoint{Date: t.Date, CumulativePnL: total})
	}
	return points
}

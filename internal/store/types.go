// Package store loads the persisted paper-trading state for the dashboard.
// It reads the portfolio snapshot, trade history and daily equity logs from
// the data directory, validating optional fields at this boundary so the
// metrics engine only ever sees well-formed records.
//
// A single bad record (corrupt JSON, unknown action, non-positive quantity)
// is skipped with a warning rather than aborting the whole load.
package store

import (
	"time"

	"papertrade-dash/internal/common"
)

// EquityPoint is one daily snapshot of total portfolio value.
type EquityPoint struct {
	Date   time.Time `json:"date"`
	Equity float64   `json:"equity"`
}

// Trade is a single executed paper trade. PnL is realized only on SELL;
// BUY trades always carry zero.
type Trade struct {
	Date     time.Time `json:"date"`
	Symbol   string    `json:"symbol"`
	Action   string    `json:"action"`
	Quantity int64     `json:"quantity"`
	Price    float64   `json:"price"`
	PnL      float64   `json:"pnl"`
}

// Closed reports whether the trade realized P&L.
func (t Trade) Closed() bool {
	return t.Action == common.ActionSell
}

// Position is an open holding inside the portfolio snapshot.
type Position struct {
	Quantity     int64   `json:"quantity"`
	AvgPrice     float64 `json:"avg_price"`
	CurrentPrice float64 `json:"current_price"`
}

// MarkPrice returns the price the position is valued at, falling back to
// the average entry price when no current price has been recorded.
func (p Position) MarkPrice() float64 {
	if p.CurrentPrice > 0 {
		return p.CurrentPrice
	}
	return p.AvgPrice
}

// Value returns the position's market value.
func (p Position) Value() float64 {
	return float64(p.Quantity) * p.MarkPrice()
}

// PortfolioState is the current paper-trading portfolio snapshot.
type PortfolioState struct {
	Cash           float64             `json:"cash"`
	InitialCapital float64             `json:"initial_capital"`
	Positions      map[string]Position `json:"positions"`
}

// Invested returns the total market value of all open positions.
func (s PortfolioState) Invested() float64 {
	invested := 0.0
	for _, p := range s.Positions {
		invested += p.Value()
	}
	return invested
}

// TotalEquity returns cash plus the market value of all positions.
func (s PortfolioState) TotalEquity() float64 {
	return s.Cash + s.Invested()
}

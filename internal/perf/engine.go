package perf

import (
	"encoding/json"
	"math"

	"papertrade-dash/internal/cfg"
	"papertrade-dash/internal/store"
)

// Engine bundles the configured parameters the individual metric
// functions need: the risk-free rate, the current-drawdown window and the
// risk limits. It holds no other state; calling any method twice with the
// same inputs yields identical output.
type Engine struct {
	RiskFreeRate       float64
	DrawdownWindowDays int
	MaxExposure        float64
	MaxPositions       int
	MaxDrawdownAlert   float64
}

// NewEngine builds an engine from the loaded settings.
func NewEngine(c cfg.Settings) *Engine {
	return &Engine{
		RiskFreeRate:       c.RiskFreeRate,
		DrawdownWindowDays: c.DrawdownWindowDays,
		MaxExposure:        c.MaxExposure,
		MaxPositions:       c.MaxPositions,
		MaxDrawdownAlert:   c.MaxDrawdownAlert,
	}
}

// PerformanceMetrics is the full performance block served to the
// presentation layer. Return figures are fractions, not percentages.
type PerformanceMetrics struct {
	TotalReturnPct  float64 `json:"total_return_pct"`
	AnnualReturnPct float64 `json:"annual_return_pct"`
	SharpeRatio     float64 `json:"sharpe_ratio"`
	SortinoRatio    float64 `json:"sortino_ratio"`
	MaxDrawdown     float64 `json:"max_drawdown"`
	Volatility      float64 `json:"volatility"`
	WinRate         float64 `json:"win_rate"`
	CalmarRatio     float64 `json:"calmar_ratio"`
}

// MarshalJSON saturates the Sortino +Inf sentinel to MaxFloat64, since
// JSON has no representation for infinity.
func (m PerformanceMetrics) MarshalJSON() ([]byte, error) {
	type alias PerformanceMetrics
	clamped := alias(m)
	if math.IsInf(clamped.SortinoRatio, 1) {
		clamped.SortinoRatio = math.MaxFloat64
	}
	return json.Marshal(clamped)
}

// RiskStatus pairs each observed risk figure with its configured limit.
// It is purely descriptive; whether to alert on a breach is the
// presentation layer's business.
type RiskStatus struct {
	PortfolioExposure float64 `json:"portfolio_exposure"`
	MaxExposure       float64 `json:"max_exposure"`
	NumPositions      int     `json:"num_positions"`
	MaxPositions      int     `json:"max_positions"`
	CurrentDrawdown   float64 `json:"current_drawdown"`
	MaxDrawdownLimit  float64 `json:"max_drawdown_limit"`
}

// PortfolioSummary is the headline portfolio block for the overview page.
type PortfolioSummary struct {
	TotalEquity    float64 `json:"total_equity"`
	Cash           float64 `json:"cash"`
	Invested       float64 `json:"invested"`
	NumPositions   int     `json:"num_positions"`
	TotalReturnPct float64 `json:"total_return_pct"`
	InitialCapital float64 `json:"initial_capital"`
}

// PortfolioExposure is invested value over total equity, in [0, 1] for a
// long-only cash-backed portfolio. Non-positive total equity yields 0.
func PortfolioExposure(state store.PortfolioState) float64 {
	total := state.TotalEquity()
	if total <= 0 {
		return 0
	}
	return state.Invested() / total
}

// Performance derives the complete performance block from an equity
// series and a trade list. Empty inputs yield the zero-value struct.
func (e *Engine) Performance(series []store.EquityPoint, trades []store.Trade) PerformanceMetrics {
	returns := DailyReturns(series)

	m := PerformanceMetrics{
		AnnualReturnPct: AnnualizedReturn(returns),
		SharpeRatio:     SharpeRatio(returns),
		SortinoRatio:    SortinoRatio(returns, e.RiskFreeRate),
		MaxDrawdown:     MaxDrawdown(series),
		Volatility:      Volatility(returns),
		WinRate:         WinRate(trades),
	}

	if len(series) >= 2 && series[0].Equity > 0 {
		m.TotalReturnPct = series[len(series)-1].Equity/series[0].Equity - 1
	}

	if m.MaxDrawdown != 0 {
		m.CalmarRatio = m.AnnualReturnPct / math.Abs(m.MaxDrawdown)
	}

	return m
}

// Risk compares the portfolio's exposure, position count and current
// drawdown against the configured limits.
func (e *Engine) Risk(state store.PortfolioState, series []store.EquityPoint) RiskStatus {
	return RiskStatus{
		PortfolioExposure: PortfolioExposure(state),
		MaxExposure:       e.MaxExposure,
		NumPositions:      len(state.Positions),
		MaxPositions:      e.MaxPositions,
		CurrentDrawdown:   CurrentDrawdown(series, e.DrawdownWindowDays),
		MaxDrawdownLimit:  e.MaxDrawdownAlert,
	}
}

// Summary derives the headline portfolio numbers from a snapshot.
func (e *Engine) Summary(state store.PortfolioState) PortfolioSummary {
	s := PortfolioSummary{
		TotalEquity:    state.TotalEquity(),
		Cash:           state.Cash,
		Invested:       state.Invested(),
		NumPositions:   len(state.Positions),
		InitialCapital: state.InitialCapital,
	}
	if state.InitialCapital > 0 {
		s.TotalReturnPct = s.TotalEquity/state.InitialCapital - 1
	}
	return s
}

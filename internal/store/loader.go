package store

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"sync/atomic"
	"time"

	"papertrade-dash/internal/common"

	"github.com/rs/zerolog/log"
)

// Loader reads paper-trading state files from the data directory.
// Every load returns a usable value: missing files degrade to zero-value
// defaults and malformed records are skipped, so a dashboard render never
// fails outright for lack of data.
type Loader struct {
	dataDir        string
	initialCapital float64
	skipped        atomic.Uint64

	// now is swapped out in tests to pin lookback cutoffs.
	now func() time.Time
}

// NewLoader creates a loader rooted at dataDir. initialCapital is the
// fallback used when the portfolio snapshot is absent or incomplete.
func NewLoader(dataDir string, initialCapital float64) *Loader {
	return &Loader{
		dataDir:        dataDir,
		initialCapital: initialCapital,
		now:            time.Now,
	}
}

// SkippedRecords returns the cumulative count of records skipped because
// they could not be parsed or validated.
func (l *Loader) SkippedRecords() uint64 {
	return l.skipped.Load()
}

func (l *Loader) skip(kind, detail string, err error) {
	l.skipped.Add(1)
	log.Warn().Err(err).Str("kind", kind).Str("detail", detail).Msg("Skipping malformed record")
}

// Wire representations: pointers distinguish absent optional fields so
// documented defaults can be applied here, at the boundary.
type portfolioRecord struct {
	Cash           *float64                  `json:"cash"`
	InitialCapital *float64                  `json:"initial_capital"`
	Positions      map[string]positionRecord `json:"positions"`
}

type positionRecord struct {
	Quantity     *int64   `json:"quantity"`
	AvgPrice     *float64 `json:"avg_price"`
	CurrentPrice *float64 `json:"current_price"`
}

type tradeRecord struct {
	Date     string   `json:"date"`
	Symbol   string   `json:"symbol"`
	Action   string   `json:"action"`
	Quantity *int64   `json:"quantity"`
	Price    *float64 `json:"price"`
	PnL      *float64 `json:"pnl"`
}

type dailyLogRecord struct {
	Date      string `json:"date"`
	Portfolio *struct {
		TotalEquity float64 `json:"total_equity"`
	} `json:"portfolio"`
}

// LoadPortfolio reads the current portfolio snapshot. A missing or
// unreadable file yields an all-cash portfolio at the configured initial
// capital, so the dashboard always has something to show.
func (l *Loader) LoadPortfolio() PortfolioState {
	path := filepath.Join(l.dataDir, common.PaperTradingDir, common.PortfolioStateFile)

	fallback := PortfolioState{
		Cash:           l.initialCapital,
		InitialCapital: l.initialCapital,
		Positions:      map[string]Position{},
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Warn().Err(err).Str("file", path).Msg("Failed to read portfolio state")
		}
		return fallback
	}

	var rec portfolioRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		log.Warn().Err(err).Str("file", path).Msg("Failed to parse portfolio state")
		return fallback
	}

	state := PortfolioState{
		InitialCapital: l.initialCapital,
		Positions:      make(map[string]Position, len(rec.Positions)),
	}
	if rec.InitialCapital != nil && *rec.InitialCapital > 0 {
		state.InitialCapital = *rec.InitialCapital
	}
	// Cash defaults to initial capital when absent, matching a portfolio
	// with no trades yet.
	state.Cash = state.InitialCapital
	if rec.Cash != nil {
		state.Cash = *rec.Cash
	}

	for symbol, p := range rec.Positions {
		pos := Position{}
		if p.Quantity != nil {
			pos.Quantity = *p.Quantity
		}
		if p.AvgPrice != nil {
			pos.AvgPrice = *p.AvgPrice
		}
		if p.CurrentPrice != nil {
			pos.CurrentPrice = *p.CurrentPrice
		}
		if pos.Quantity <= 0 {
			l.skip("position", symbol, nil)
			continue
		}
		state.Positions[symbol] = pos
	}

	return state
}

// LoadTrades reads the trade history, newest records last. lookbackDays
// bounds the window relative to now; zero or negative means no cutoff.
// Invalid records are skipped, never fatal.
func (l *Loader) LoadTrades(lookbackDays int) []Trade {
	path := filepath.Join(l.dataDir, common.PaperTradingDir, common.TradeHistoryFile)

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Warn().Err(err).Str("file", path).Msg("Failed to read trade history")
		}
		return nil
	}

	var records []tradeRecord
	if err := json.Unmarshal(data, &records); err != nil {
		log.Warn().Err(err).Str("file", path).Msg("Failed to parse trade history")
		return nil
	}

	var cutoff time.Time
	if lookbackDays > 0 {
		cutoff = l.now().AddDate(0, 0, -lookbackDays)
	}

	trades := make([]Trade, 0, len(records))
	for _, rec := range records {
		trade, err := rec.toTrade()
		if err != nil {
			l.skip("trade", rec.Date+" "+rec.Symbol, err)
			continue
		}
		if !cutoff.IsZero() && trade.Date.Before(cutoff) {
			continue
		}
		trades = append(trades, trade)
	}

	sort.SliceStable(trades, func(i, j int) bool {
		return trades[i].Date.Before(trades[j].Date)
	})
	return trades
}

func (r tradeRecord) toTrade() (Trade, error) {
	date, err := time.Parse(common.DateFormat, r.Date)
	if err != nil {
		return Trade{}, err
	}
	if r.Action != common.ActionBuy && r.Action != common.ActionSell {
		return Trade{}, errUnknownAction(r.Action)
	}
	if r.Quantity == nil || *r.Quantity <= 0 {
		return Trade{}, errBadQuantity
	}
	if r.Price == nil || *r.Price <= 0 {
		return Trade{}, errBadPrice
	}

	trade := Trade{
		Date:     date,
		Symbol:   r.Symbol,
		Action:   r.Action,
		Quantity: *r.Quantity,
		Price:    *r.Price,
	}
	// P&L is only realized on SELL; a BUY carries zero no matter what
	// the record says.
	if trade.Closed() && r.PnL != nil {
		trade.PnL = *r.PnL
	}
	return trade, nil
}

// LoadEquitySeries reads the daily equity logs, one JSON file per day,
// and returns them ordered by date. Duplicate dates resolve last-write
// wins. lookbackDays bounds the window relative to now; zero or negative
// means the full history.
func (l *Loader) LoadEquitySeries(lookbackDays int) []EquityPoint {
	dir := filepath.Join(l.dataDir, common.PaperTradingDir, common.DailyLogsDir)

	files, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		log.Warn().Err(err).Str("dir", dir).Msg("Failed to list daily logs")
		return nil
	}
	sort.Strings(files)

	byDate := make(map[time.Time]float64, len(files))
	for _, file := range files {
		data, err := os.ReadFile(file)
		if err != nil {
			l.skip("daily_log", file, err)
			continue
		}

		var rec dailyLogRecord
		if err := json.Unmarshal(data, &rec); err != nil {
			l.skip("daily_log", file, err)
			continue
		}
		if rec.Portfolio == nil {
			l.skip("daily_log", file, errMissingPortfolio)
			continue
		}

		date, err := time.Parse(common.DateFormat, rec.Date)
		if err != nil {
			l.skip("daily_log", file, err)
			continue
		}

		byDate[date] = rec.Portfolio.TotalEquity
	}

	if len(byDate) == 0 {
		return nil
	}

	var cutoff time.Time
	if lookbackDays > 0 {
		cutoff = l.now().AddDate(0, 0, -lookbackDays)
	}

	series := make([]EquityPoint, 0, len(byDate))
	for date, equity := range byDate {
		if !cutoff.IsZero() && date.Before(cutoff) {
			continue
		}
		series = append(series, EquityPoint{Date: date, Equity: equity})
	}

	sort.Slice(series, func(i, j int) bool {
		return series[i].Date.Before(series[j].Date)
	})
	return series
}

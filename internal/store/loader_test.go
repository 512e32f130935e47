package store

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"papertrade-dash/internal/common"
)

func writeDataFile(t *testing.T, dataDir, rel, content string) {
	t.Helper()
	path := filepath.Join(dataDir, rel)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("Failed to create %s: %v", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write %s: %v", path, err)
	}
}

func fixedLoader(dataDir string, now time.Time) *Loader {
	l := NewLoader(dataDir, 100000)
	l.now = func() time.Time { return now }
	return l
}

func TestLoadPortfolio(t *testing.T) {
	t.Parallel()
	dataDir := t.TempDir()

	writeDataFile(t, dataDir, filepath.Join(common.PaperTradingDir, common.PortfolioStateFile), `{
		"cash": 52000,
		"initial_capital": 100000,
		"positions": {
			"2330.TW": {"quantity": 100, "avg_price": 500, "current_price": 530},
			"stale":   {"quantity": 0, "avg_price": 10}
		}
	}`)

	l := NewLoader(dataDir, 100000)
	state := l.LoadPortfolio()

	if state.Cash != 52000 {
		t.Errorf("Expected cash 52000, got %.2f", state.Cash)
	}
	if state.InitialCapital != 100000 {
		t.Errorf("Expected initial capital 100000, got %.2f", state.InitialCapital)
	}
	if len(state.Positions) != 1 {
		t.Fatalf("Expected 1 position after skipping zero quantity, got %d", len(state.Positions))
	}
	pos := state.Positions["2330.TW"]
	if pos.Quantity != 100 || pos.AvgPrice != 500 || pos.CurrentPrice != 530 {
		t.Errorf("Unexpected position %+v", pos)
	}
	if pos.Value() != 53000 {
		t.Errorf("Expected position value 53000 at current price, got %.2f", pos.Value())
	}
	if l.SkippedRecords() != 1 {
		t.Errorf("Expected 1 skipped record, got %d", l.SkippedRecords())
	}
}

func TestLoadPortfolioMissing(t *testing.T) {
	t.Parallel()

	l := NewLoader(t.TempDir(), 100000)
	state := l.LoadPortfolio()

	if state.Cash != 100000 || state.InitialCapital != 100000 {
		t.Errorf("Expected all-cash fallback at 100000, got %+v", state)
	}
	if len(state.Positions) != 0 {
		t.Errorf("Expected no positions, got %d", len(state.Positions))
	}
	if state.TotalEquity() != 100000 {
		t.Errorf("Expected total equity 100000, got %.2f", state.TotalEquity())
	}
}

func TestLoadPortfolioCorrupt(t *testing.T) {
	t.Parallel()
	dataDir := t.TempDir()

	writeDataFile(t, dataDir, filepath.Join(common.PaperTradingDir, common.PortfolioStateFile), `{not json`)

	l := NewLoader(dataDir, 100000)
	state := l.LoadPortfolio()
	if state.Cash != 100000 || len(state.Positions) != 0 {
		t.Errorf("Expected fallback for corrupt file, got %+v", state)
	}
}

func TestLoadPortfolioDefaults(t *testing.T) {
	t.Parallel()
	dataDir := t.TempDir()

	// Cash absent defaults to initial capital, not zero
	writeDataFile(t, dataDir, filepath.Join(common.PaperTradingDir, common.PortfolioStateFile), `{
		"initial_capital": 50000
	}`)

	l := NewLoader(dataDir, 100000)
	state := l.LoadPortfolio()
	if state.InitialCapital != 50000 {
		t.Errorf("Expected initial capital 50000 from file, got %.2f", state.InitialCapital)
	}
	if state.Cash != 50000 {
		t.Errorf("Expected cash defaulted to initial capital, got %.2f", state.Cash)
	}
}

func TestLoadTrades(t *testing.T) {
	t.Parallel()
	dataDir := t.TempDir()

	writeDataFile(t, dataDir, filepath.Join(common.PaperTradingDir, common.TradeHistoryFile), `[
		{"date": "2025-06-10", "symbol": "2330.TW", "action": "SELL", "quantity": 100, "price": 610, "pnl": 3000},
		{"date": "2025-06-01", "symbol": "2330.TW", "action": "BUY", "quantity": 100, "price": 580, "pnl": 999},
		{"date": "2025-06-05", "symbol": "2330.TW", "action": "HOLD", "quantity": 100, "price": 600},
		{"date": "not-a-date", "symbol": "2330.TW", "action": "SELL", "quantity": 100, "price": 600},
		{"date": "2025-06-07", "symbol": "2330.TW", "action": "SELL", "quantity": -5, "price": 600},
		{"date": "2025-06-08", "symbol": "2330.TW", "action": "SELL", "quantity": 100, "price": 0}
	]`)

	l := fixedLoader(dataDir, time.Date(2025, 6, 30, 12, 0, 0, 0, time.UTC))
	trades := l.LoadTrades(0)

	if len(trades) != 2 {
		t.Fatalf("Expected 2 valid trades, got %d", len(trades))
	}
	if l.SkippedRecords() != 4 {
		t.Errorf("Expected 4 skipped records, got %d", l.SkippedRecords())
	}

	// Sorted by date: the BUY comes first
	if trades[0].Action != common.ActionBuy || trades[1].Action != common.ActionSell {
		t.Errorf("Expected BUY then SELL, got %s then %s", trades[0].Action, trades[1].Action)
	}

	// A BUY carries zero P&L no matter what the record says
	if trades[0].PnL != 0 {
		t.Errorf("Expected 0 PnL on BUY, got %.2f", trades[0].PnL)
	}
	if trades[1].PnL != 3000 {
		t.Errorf("Expected 3000 PnL on SELL, got %.2f", trades[1].PnL)
	}
}

func TestLoadTradesLookback(t *testing.T) {
	t.Parallel()
	dataDir := t.TempDir()

	writeDataFile(t, dataDir, filepath.Join(common.PaperTradingDir, common.TradeHistoryFile), `[
		{"date": "2025-01-05", "symbol": "A", "action": "SELL", "quantity": 1, "price": 10, "pnl": 1},
		{"date": "2025-05-20", "symbol": "A", "action": "SELL", "quantity": 1, "price": 10, "pnl": 2},
		{"date": "2025-06-10", "symbol": "A", "action": "SELL", "quantity": 1, "price": 10, "pnl": 3}
	]`)

	now := time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)
	l := fixedLoader(dataDir, now)

	if got := len(l.LoadTrades(0)); got != 3 {
		t.Errorf("Expected 3 trades with no cutoff, got %d", got)
	}
	if got := len(l.LoadTrades(30)); got != 2 {
		t.Errorf("Expected 2 trades within 30 days, got %d", got)
	}
	if got := len(l.LoadTrades(3)); got != 0 {
		t.Errorf("Expected 0 trades within 3 days, got %d", got)
	}
}

func TestLoadTradesMissing(t *testing.T) {
	t.Parallel()

	l := NewLoader(t.TempDir(), 100000)
	if got := l.LoadTrades(0); got != nil {
		t.Errorf("Expected nil for missing history, got %v", got)
	}
	if l.SkippedRecords() != 0 {
		t.Errorf("Missing file is not a skipped record, got %d", l.SkippedRecords())
	}
}

func TestLoadEquitySeries(t *testing.T) {
	t.Parallel()
	dataDir := t.TempDir()
	logs := filepath.Join(common.PaperTradingDir, common.DailyLogsDir)

	writeDataFile(t, dataDir, filepath.Join(logs, "2025-06-01.json"),
		`{"date": "2025-06-01", "portfolio": {"total_equity": 100000}}`)
	writeDataFile(t, dataDir, filepath.Join(logs, "2025-06-02.json"),
		`{"date": "2025-06-02", "portfolio": {"total_equity": 101500}}`)
	writeDataFile(t, dataDir, filepath.Join(logs, "2025-06-03.json"), `corrupt`)
	writeDataFile(t, dataDir, filepath.Join(logs, "2025-06-04.json"),
		`{"date": "2025-06-04"}`)
	// A later file for an existing date wins
	writeDataFile(t, dataDir, filepath.Join(logs, "2025-06-02_retry.json"),
		`{"date": "2025-06-02", "portfolio": {"total_equity": 102000}}`)

	l := fixedLoader(dataDir, time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC))
	series := l.LoadEquitySeries(0)

	if len(series) != 2 {
		t.Fatalf("Expected 2 points, got %d", len(series))
	}
	if l.SkippedRecords() != 2 {
		t.Errorf("Expected 2 skipped records, got %d", l.SkippedRecords())
	}
	if !series[0].Date.Before(series[1].Date) {
		t.Error("Series is not date-ordered")
	}
	if series[1].Equity != 102000 {
		t.Errorf("Expected last write to win with 102000, got %.2f", series[1].Equity)
	}
}

func TestLoadEquitySeriesLookback(t *testing.T) {
	t.Parallel()
	dataDir := t.TempDir()
	logs := filepath.Join(common.PaperTradingDir, common.DailyLogsDir)

	writeDataFile(t, dataDir, filepath.Join(logs, "2025-01-01.json"),
		`{"date": "2025-01-01", "portfolio": {"total_equity": 100000}}`)
	writeDataFile(t, dataDir, filepath.Join(logs, "2025-06-10.json"),
		`{"date": "2025-06-10", "portfolio": {"total_equity": 105000}}`)

	l := fixedLoader(dataDir, time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC))

	if got := len(l.LoadEquitySeries(0)); got != 2 {
		t.Errorf("Expected full history of 2 points, got %d", got)
	}
	series := l.LoadEquitySeries(90)
	if len(series) != 1 {
		t.Fatalf("Expected 1 point within 90 days, got %d", len(series))
	}
	if series[0].Equity != 105000 {
		t.Errorf("Expected the recent point, got %.2f", series[0].Equity)
	}
}

func TestLoadEquitySeriesMissing(t *testing.T) {
	t.Parallel()

	l := NewLoader(t.TempDir(), 100000)
	if got := l.LoadEquitySeries(0); got != nil {
		t.Errorf("Expected nil for missing logs, got %v", got)
	}
}

func TestDemoEquitySeries(t *testing.T) {
	t.Parallel()

	a := DemoEquitySeries(60, 100000)
	b := DemoEquitySeries(60, 100000)

	if len(a) != 60 {
		t.Fatalf("Expected 60 points, got %d", len(a))
	}
	if a[0].Equity != 100000 {
		t.Errorf("Expected first point at initial capital, got %.2f", a[0].Equity)
	}
	for i := range a {
		if a[i].Equity != b[i].Equity {
			t.Fatalf("Demo series is not deterministic at point %d", i)
		}
		if a[i].Equity <= 0 {
			t.Errorf("Point %d has non-positive equity %.2f", i, a[i].Equity)
		}
	}

	// Non-positive day count falls back to the default length
	if got := len(DemoEquitySeries(0, 100000)); got != 60 {
		t.Errorf("Expected default 60 points, got %d", got)
	}
}

func TestDemoTrades(t *testing.T) {
	t.Parallel()

	trades := DemoTrades()
	if len(trades) != 7 {
		t.Fatalf("Expected 7 demo trades, got %d", len(trades))
	}

	closed, total := 0, 0.0
	for _, tr := range trades {
		if tr.Closed() {
			closed++
			total += tr.PnL
		} else if tr.PnL != 0 {
			t.Errorf("BUY trade carries PnL %.2f", tr.PnL)
		}
	}
	if closed != 3 {
		t.Errorf("Expected 3 closed demo trades, got %d", closed)
	}
	if total != 5100 {
		t.Errorf("Expected demo total PnL 5100, got %.2f", total)
	}
}

// Package report generates file reports from the same loader and metrics
// engine the dashboard serves from: a human-readable summary, a CSV trade
// log, a CSV of daily metrics, and a JSON dump of the full snapshot.
package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	"papertrade-dash/internal/common"
	"papertrade-dash/internal/perf"
	"papertrade-dash/internal/store"

	"github.com/rs/zerolog/log"
)

// Reporter generates dashboard reports into an output directory.
type Reporter struct {
	loader       *store.Loader
	engine       *perf.Engine
	outputPath   string
	lookbackDays int
}

// NewReporter creates a reporter. lookbackDays bounds the reported
// window; zero means the full history.
func NewReporter(loader *store.Loader, engine *perf.Engine, outputPath string, lookbackDays int) *Reporter {
	return &Reporter{
		loader:       loader,
		engine:       engine,
		outputPath:   outputPath,
		lookbackDays: lookbackDays,
	}
}

// GenerateReport loads fresh state and writes all report formats.
func (r *Reporter) GenerateReport() error {
	if err := os.MkdirAll(r.outputPath, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	state := r.loader.LoadPortfolio()
	series := r.loader.LoadEquitySeries(r.lookbackDays)
	trades := r.loader.LoadTrades(r.lookbackDays)

	if err := r.generateSummary(state, series, trades); err != nil {
		return err
	}

	if err := r.generateTradeLog(trades); err != nil {
		return err
	}

	if err := r.generateJSONReport(state, series, trades); err != nil {
		return err
	}

	if err := r.generateDailyMetrics(series, trades); err != nil {
		return err
	}

	return nil
}

// generateSummary writes a human-readable summary
func (r *Reporter) generateSummary(state store.PortfolioState, series []store.EquityPoint, trades []store.Trade) error {
	summaryPath := filepath.Join(r.outputPath, "summary.txt")
	file, err := os.Create(summaryPath)
	if err != nil {
		return fmt.Errorf("failed to create summary file: %w", err)
	}
	defer file.Close()

	summary := r.engine.Summary(state)
	performance := r.engine.Performance(series, trades)
	stats := perf.CalcTradeStats(trades)
	risk := r.engine.Risk(state, series)

	fmt.Fprintf(file, "PAPER TRADING SUMMARY\n")
	fmt.Fprintf(file, "=====================\n\n")

	if len(series) > 0 {
		fmt.Fprintf(file, "Time Period: %s to %s (%d days)\n\n",
			series[0].Date.Format(common.DateFormat),
			series[len(series)-1].Date.Format(common.DateFormat),
			len(series))
	}

	fmt.Fprintf(file, "PORTFOLIO\n")
	fmt.Fprintf(file, "---------\n")
	fmt.Fprintf(file, "Initial Capital: $%.2f\n", summary.InitialCapital)
	fmt.Fprintf(file, "Total Equity: $%.2f\n", summary.TotalEquity)
	fmt.Fprintf(file, "Cash: $%.2f\n", summary.Cash)
	fmt.Fprintf(file, "Invested: $%.2f (%d positions)\n", summary.Invested, summary.NumPositions)
	fmt.Fprintf(file, "Total Return: %.2f%%\n\n", summary.TotalReturnPct*100)

	fmt.Fprintf(file, "PERFORMANCE\n")
	fmt.Fprintf(file, "-----------\n")
	fmt.Fprintf(file, "Annual Return: %.2f%%\n", performance.AnnualReturnPct*100)
	fmt.Fprintf(file, "Volatility: %.2f%%\n", performance.Volatility*100)
	fmt.Fprintf(file, "Sharpe Ratio: %.2f\n", performance.SharpeRatio)
	if math.IsInf(performance.SortinoRatio, 1) {
		fmt.Fprintf(file, "Sortino Ratio: inf (no downside)\n")
	} else {
		fmt.Fprintf(file, "Sortino Ratio: %.2f\n", performance.SortinoRatio)
	}
	fmt.Fprintf(file, "Max Drawdown: %.2f%%\n", performance.MaxDrawdown*100)
	fmt.Fprintf(file, "Calmar Ratio: %.2f\n\n", performance.CalmarRatio)

	fmt.Fprintf(file, "TRADING STATISTICS\n")
	fmt.Fprintf(file, "------------------\n")
	fmt.Fprintf(file, "Total Trades: %d (%d closed)\n", stats.TotalTrades, stats.ClosedTrades)
	fmt.Fprintf(file, "Winning Trades: %d\n", stats.WinningTrades)
	fmt.Fprintf(file, "Losing Trades: %d\n", stats.LosingTrades)
	fmt.Fprintf(file, "Win Rate: %.2f%%\n", stats.WinRate*100)
	fmt.Fprintf(file, "Total PnL: $%.2f\n", stats.TotalPnL)
	fmt.Fprintf(file, "Best Trade: $%.2f / Worst Trade: $%.2f\n", stats.BestTrade, stats.WorstTrade)
	fmt.Fprintf(file, "Profit Factor: %.2f\n\n", perf.ProfitFactor(trades))

	fmt.Fprintf(file, "RISK\n")
	fmt.Fprintf(file, "----\n")
	fmt.Fprintf(file, "Portfolio Exposure: %.2f%% (limit %.2f%%)\n", risk.PortfolioExposure*100, risk.MaxExposure*100)
	fmt.Fprintf(file, "Positions: %d (limit %d)\n", risk.NumPositions, risk.MaxPositions)
	fmt.Fprintf(file, "Current Drawdown: %.2f%% (alert at %.2f%%)\n", risk.CurrentDrawdown*100, risk.MaxDrawdownLimit*100)

	log.Info().Str("file", summaryPath).Msg("Summary report generated")
	return nil
}

// generateTradeLog writes a CSV log of all trades
func (r *Reporter) generateTradeLog(trades []store.Trade) error {
	csvPath := filepath.Join(r.outputPath, "trade_log.csv")
	file, err := os.Create(csvPath)
	if err != nil {
		return fmt.Errorf("failed to create trade log: %w", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	header := []string{"Date", "Symbol", "Action", "Quantity", "Price", "PnL"}
	if err := writer.Write(header); err != nil {
		return err
	}

	for _, trade := range trades {
		record := []string{
			trade.Date.Format(common.DateFormat),
			trade.Symbol,
			trade.Action,
			fmt.Sprintf("%d", trade.Quantity),
			fmt.Sprintf("%.2f", trade.Price),
			fmt.Sprintf("%.2f", trade.PnL),
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}

	log.Info().Str("file", csvPath).Msg("Trade log generated")
	return nil
}

// generateJSONReport writes the full snapshot as JSON
func (r *Reporter) generateJSONReport(state store.PortfolioState, series []store.EquityPoint, trades []store.Trade) error {
	jsonPath := filepath.Join(r.outputPath, "dashboard_report.json")

	report := map[string]interface{}{
		"summary":        r.engine.Summary(state),
		"performance":    r.engine.Performance(series, trades),
		"trade_stats":    perf.CalcTradeStats(trades),
		"risk":           r.engine.Risk(state, series),
		"equity":         series,
		"drawdowns":      perf.DrawdownSeries(series),
		"cumulative_pnl": perf.CumulativePnL(trades),
		"trades":         trades,
		"generated_at":   time.Now(),
	}

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if err := os.WriteFile(jsonPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write JSON report: %w", err)
	}

	log.Info().Str("file", jsonPath).Msg("JSON report generated")
	return nil
}

// generateDailyMetrics writes the per-day derived series for analysis
func (r *Reporter) generateDailyMetrics(series []store.EquityPoint, trades []store.Trade) error {
	metricsPath := filepath.Join(r.outputPath, "daily_metrics.csv")
	file, err := os.Create(metricsPath)
	if err != nil {
		return fmt.Errorf("failed to create daily metrics: %w", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	header := []string{"Date", "Equity", "Return", "Drawdown", "Cumulative PnL"}
	if err := writer.Write(header); err != nil {
		return err
	}

	drawdowns := perf.DrawdownSeries(series)
	pnl := perf.CumulativePnL(trades)

	// Realized P&L carried forward to each equity date
	runningPnL := 0.0
	pnlIdx := 0

	for i, point := range series {
		for pnlIdx < len(pnl) && !pnl[pnlIdx].Date.After(point.Date) {
			runningPnL = pnl[pnlIdx].CumulativePnL
			pnlIdx++
		}

		ret := 0.0
		if i > 0 && series[i-1].Equity > 0 {
			ret = point.Equity/series[i-1].Equity - 1
		}

		record := []string{
			point.Date.Format(common.DateFormat),
			fmt.Sprintf("%.2f", point.Equity),
			fmt.Sprintf("%.6f", ret),
			fmt.Sprintf("%.6f", drawdowns[i].Drawdown),
			fmt.Sprintf("%.2f", runningPnL),
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}

	log.Info().Str("file", metricsPath).Msg("Daily metrics generated")
	return nil
}

// PrintSummary prints the headline numbers to the console.
func (r *Reporter) PrintSummary() {
	state := r.loader.LoadPortfolio()
	series := r.loader.LoadEquitySeries(r.lookbackDays)
	trades := r.loader.LoadTrades(r.lookbackDays)

	summary := r.engine.Summary(state)
	performance := r.engine.Performance(series, trades)
	stats := perf.CalcTradeStats(trades)

	fmt.Println("\n=== PAPER TRADING RESULTS ===")
	fmt.Printf("Total Equity: $%.2f (%.2f%%)\n", summary.TotalEquity, summary.TotalReturnPct*100)
	fmt.Printf("Annual Return: %.2f%%\n", performance.AnnualReturnPct*100)
	fmt.Printf("Sharpe Ratio: %.2f\n", performance.SharpeRatio)
	fmt.Printf("Max Drawdown: %.2f%%\n", performance.MaxDrawdown*100)
	fmt.Printf("Total Trades: %d\n", stats.TotalTrades)
	fmt.Printf("Win Rate: %.2f%%\n", stats.WinRate*100)
	fmt.Printf("Total PnL: $%.2f\n", stats.TotalPnL)
	fmt.Println("=============================")
}

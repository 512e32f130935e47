package dashboard

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"papertrade-dash/internal/cfg"
	"papertrade-dash/internal/common"
	"papertrade-dash/internal/metrics"
	"papertrade-dash/internal/perf"
	"papertrade-dash/internal/store"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func writeFixture(t *testing.T, dataDir, rel, content string) {
	t.Helper()
	path := filepath.Join(dataDir, rel)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("Failed to create %s: %v", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write %s: %v", path, err)
	}
}

// testServer builds a dashboard over a populated temp data directory.
// Start is never called, so no listener or background goroutine runs;
// handlers are exercised through the router directly.
func testServer(t *testing.T) *Server {
	t.Helper()
	dataDir := t.TempDir()

	writeFixture(t, dataDir, filepath.Join(common.PaperTradingDir, common.PortfolioStateFile), `{
		"cash": 50000,
		"initial_capital": 100000,
		"positions": {"2330.TW": {"quantity": 100, "avg_price": 500}}
	}`)
	writeFixture(t, dataDir, filepath.Join(common.PaperTradingDir, common.TradeHistoryFile), `[
		{"date": "2025-06-02", "symbol": "2330.TW", "action": "BUY", "quantity": 100, "price": 500},
		{"date": "2025-06-05", "symbol": "2330.TW", "action": "SELL", "quantity": 100, "price": 530, "pnl": 3000}
	]`)

	logs := filepath.Join(common.PaperTradingDir, common.DailyLogsDir)
	writeFixture(t, dataDir, filepath.Join(logs, "2025-06-01.json"),
		`{"date": "2025-06-01", "portfolio": {"total_equity": 100000}}`)
	writeFixture(t, dataDir, filepath.Join(logs, "2025-06-02.json"),
		`{"date": "2025-06-02", "portfolio": {"total_equity": 110000}}`)
	writeFixture(t, dataDir, filepath.Join(logs, "2025-06-03.json"),
		`{"date": "2025-06-03", "portfolio": {"total_equity": 104500}}`)

	loader := store.NewLoader(dataDir, 100000)
	engine := perf.NewEngine(cfg.Settings{
		RiskFreeRate:       common.DefaultRiskFreeRate,
		DrawdownWindowDays: common.DefaultDrawdownWindowDays,
		MaxExposure:        common.DefaultMaxExposure,
		MaxPositions:       common.DefaultMaxPositions,
		MaxDrawdownAlert:   common.DefaultMaxDrawdownAlert,
	})
	m := metrics.NewWithRegistry(prometheus.NewRegistry())

	return New(loader, engine, nil, m, 0, 0, time.Minute)
}

func getJSON(t *testing.T, s *Server, url string, out interface{}) {
	t.Helper()
	req := httptest.NewRequest("GET", url, nil)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("GET %s: expected 200, got %d", url, rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("GET %s: expected JSON content type, got %q", url, ct)
	}
	if err := json.Unmarshal(rec.Body.Bytes(), out); err != nil {
		t.Fatalf("GET %s: bad JSON: %v", url, err)
	}
}

func TestHandleSummary(t *testing.T) {
	s := testServer(t)

	var summary perf.PortfolioSummary
	getJSON(t, s, "/api/summary", &summary)

	if summary.TotalEquity != 100000 {
		t.Errorf("Expected equity 100000, got %.2f", summary.TotalEquity)
	}
	if summary.Invested != 50000 || summary.Cash != 50000 {
		t.Errorf("Expected 50000/50000 split, got %.2f/%.2f", summary.Invested, summary.Cash)
	}
	if summary.NumPositions != 1 {
		t.Errorf("Expected 1 position, got %d", summary.NumPositions)
	}
}

func TestHandlePerformance(t *testing.T) {
	s := testServer(t)

	var m perf.PerformanceMetrics
	getJSON(t, s, "/api/performance?days=all", &m)

	if !floatNear(m.TotalReturnPct, 0.045) {
		t.Errorf("Expected total return 0.045, got %.6f", m.TotalReturnPct)
	}
	if !floatNear(m.MaxDrawdown, -0.05) {
		t.Errorf("Expected max drawdown -0.05, got %.6f", m.MaxDrawdown)
	}
	if m.WinRate != 1 {
		t.Errorf("Expected win rate 1, got %.6f", m.WinRate)
	}
}

func TestHandleTrades(t *testing.T) {
	s := testServer(t)

	var body struct {
		Trades        []store.Trade   `json:"trades"`
		Stats         perf.TradeStats `json:"stats"`
		ProfitFactor  float64         `json:"profit_factor"`
		CumulativePnL []perf.PnLPoint `json:"cumulative_pnl"`
	}
	getJSON(t, s, "/api/trades?days=all", &body)

	if len(body.Trades) != 2 {
		t.Fatalf("Expected 2 trades, got %d", len(body.Trades))
	}
	if body.Stats.ClosedTrades != 1 || body.Stats.TotalPnL != 3000 {
		t.Errorf("Unexpected stats %+v", body.Stats)
	}
	// One winner, no losers: profit factor degenerates to 0
	if body.ProfitFactor != 0 {
		t.Errorf("Expected profit factor 0, got %.6f", body.ProfitFactor)
	}
	if len(body.CumulativePnL) != 2 || body.CumulativePnL[1].CumulativePnL != 3000 {
		t.Errorf("Unexpected cumulative PnL %+v", body.CumulativePnL)
	}
}

func TestHandleRisk(t *testing.T) {
	s := testServer(t)

	var risk perf.RiskStatus
	getJSON(t, s, "/api/risk", &risk)

	if !floatNear(risk.PortfolioExposure, 0.5) {
		t.Errorf("Expected exposure 0.5, got %.6f", risk.PortfolioExposure)
	}
	if risk.MaxExposure != common.DefaultMaxExposure {
		t.Errorf("Expected limit 0.5, got %.2f", risk.MaxExposure)
	}
	if risk.NumPositions != 1 || risk.MaxPositions != common.DefaultMaxPositions {
		t.Errorf("Expected 1/3 positions, got %d/%d", risk.NumPositions, risk.MaxPositions)
	}
}

func TestHandleEquityAndDrawdown(t *testing.T) {
	s := testServer(t)

	var series []store.EquityPoint
	getJSON(t, s, "/api/equity?days=all", &series)
	if len(series) != 3 {
		t.Fatalf("Expected 3 equity points, got %d", len(series))
	}
	if series[0].Equity != 100000 || series[2].Equity != 104500 {
		t.Errorf("Unexpected series %+v", series)
	}

	var drawdowns []perf.DrawdownPoint
	getJSON(t, s, "/api/drawdown?days=all", &drawdowns)
	if len(drawdowns) != 3 {
		t.Fatalf("Expected 3 drawdown points, got %d", len(drawdowns))
	}
	if !floatNear(drawdowns[2].Drawdown, -0.05) {
		t.Errorf("Expected final drawdown -0.05, got %.6f", drawdowns[2].Drawdown)
	}
}

func TestHandleSnapshot(t *testing.T) {
	s := testServer(t)

	var snapshot Snapshot
	getJSON(t, s, "/api/snapshot?days=all", &snapshot)

	if snapshot.Summary.TotalEquity != 100000 {
		t.Errorf("Expected equity 100000, got %.2f", snapshot.Summary.TotalEquity)
	}
	if len(snapshot.Equity) != 3 || len(snapshot.Drawdowns) != 3 {
		t.Errorf("Expected 3-point chart series, got %d/%d", len(snapshot.Equity), len(snapshot.Drawdowns))
	}
	if snapshot.TradeStats.TotalTrades != 2 {
		t.Errorf("Expected 2 trades, got %d", snapshot.TradeStats.TotalTrades)
	}
	if snapshot.Timestamp.IsZero() {
		t.Error("Snapshot timestamp not set")
	}

	// Snapshot computation feeds the portfolio gauges
	if got := testutil.ToFloat64(s.metrics.Equity); got != 100000 {
		t.Errorf("Expected equity gauge 100000, got %v", got)
	}
}

func TestHandleSnapshotDemo(t *testing.T) {
	s := testServer(t)

	var snapshot Snapshot
	getJSON(t, s, "/api/snapshot?demo=1", &snapshot)

	// Demo swaps in the canned series but keeps the real portfolio
	if len(snapshot.Equity) == 0 {
		t.Fatal("Expected a demo equity series")
	}
	if snapshot.TradeStats.TotalTrades != 7 {
		t.Errorf("Expected 7 demo trades, got %d", snapshot.TradeStats.TotalTrades)
	}
	if snapshot.Summary.TotalEquity != 100000 {
		t.Errorf("Expected the real portfolio summary, got %.2f", snapshot.Summary.TotalEquity)
	}
}

func TestLookbackDaysParam(t *testing.T) {
	s := testServer(t)
	s.defaultLookback = 42

	cases := []struct {
		query string
		want  int
	}{
		{"", 42},
		{"days=all", 0},
		{"days=0", 0},
		{"days=30", 30},
		{"days=-5", 42},
		{"days=soon", 42},
	}
	for _, tc := range cases {
		req := httptest.NewRequest("GET", "/api/equity?"+tc.query, nil)
		if got := s.lookbackDays(req); got != tc.want {
			t.Errorf("Query %q: expected %d, got %d", tc.query, tc.want, got)
		}
	}
}

func TestHandleIndex(t *testing.T) {
	s := testServer(t)

	req := httptest.NewRequest("GET", "/", nil)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "text/html" {
		t.Errorf("Expected HTML content type, got %q", ct)
	}
	if !strings.Contains(rec.Body.String(), "<html") {
		t.Error("Expected an HTML document")
	}
}

func dialWS(t *testing.T, base, path string) *websocket.Conn {
	t.Helper()
	wsURL := "ws" + strings.TrimPrefix(base, "http") + path
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("WebSocket dial %s failed: %v", path, err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readSnapshot(t *testing.T, conn *websocket.Conn) Snapshot {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("Failed to read snapshot: %v", err)
	}
	var snapshot Snapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		t.Fatalf("Message is not a snapshot: %v", err)
	}
	return snapshot
}

func TestWebSocketInitialSnapshot(t *testing.T) {
	s := testServer(t)

	srv := httptest.NewServer(s.router)
	defer srv.Close()

	conn := dialWS(t, srv.URL, "/ws")
	snapshot := readSnapshot(t, conn)
	if snapshot.Summary.TotalEquity != 100000 {
		t.Errorf("Expected equity 100000 in initial snapshot, got %.2f", snapshot.Summary.TotalEquity)
	}
}

func TestWebSocketLookbackParam(t *testing.T) {
	s := testServer(t)

	srv := httptest.NewServer(s.router)
	defer srv.Close()

	// Default window covers the full fixture history
	full := readSnapshot(t, dialWS(t, srv.URL, "/ws"))
	if len(full.Equity) != 3 {
		t.Fatalf("Expected 3 equity points on the default window, got %d", len(full.Equity))
	}

	// A 1-day window excludes the fixture's dates entirely
	narrow := readSnapshot(t, dialWS(t, srv.URL, "/ws?days=1"))
	if len(narrow.Equity) != 0 {
		t.Errorf("Expected no equity points within 1 day, got %d", len(narrow.Equity))
	}
	if narrow.TradeStats.TotalTrades != 0 {
		t.Errorf("Expected no trades within 1 day, got %d", narrow.TradeStats.TotalTrades)
	}

	// Demo mode swaps in the canned series
	demo := readSnapshot(t, dialWS(t, srv.URL, "/ws?demo=1"))
	if demo.TradeStats.TotalTrades != 7 {
		t.Errorf("Expected 7 demo trades, got %d", demo.TradeStats.TotalTrades)
	}
}

func TestWebSocketBroadcastPerClientWindow(t *testing.T) {
	s := testServer(t)

	srv := httptest.NewServer(s.router)
	defer srv.Close()

	real := dialWS(t, srv.URL, "/ws")
	demo := dialWS(t, srv.URL, "/ws?demo=1")
	readSnapshot(t, real)
	readSnapshot(t, demo)

	// A broadcast tick must respect each client's window
	s.broadcastToClients(s.buildSnapshot(s.defaultLookback, false))

	fromReal := readSnapshot(t, real)
	if fromReal.TradeStats.TotalTrades != 2 {
		t.Errorf("Expected 2 real trades in broadcast, got %d", fromReal.TradeStats.TotalTrades)
	}
	fromDemo := readSnapshot(t, demo)
	if fromDemo.TradeStats.TotalTrades != 7 {
		t.Errorf("Expected 7 demo trades in broadcast, got %d", fromDemo.TradeStats.TotalTrades)
	}
}

func TestWebSocketConnectDuringBroadcasts(t *testing.T) {
	s := testServer(t)

	srv := httptest.NewServer(s.router)
	defer srv.Close()

	// Broadcast continuously while clients connect and receive their
	// initial snapshot; all connection writes must stay serialized.
	snapshot := s.buildSnapshot(s.defaultLookback, false)
	stop := make(chan struct{})
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			select {
			case <-stop:
				return
			default:
				s.broadcastToClients(snapshot)
				time.Sleep(time.Millisecond)
			}
		}
	}()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
			conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
			if err != nil {
				t.Errorf("WebSocket dial failed: %v", err)
				return
			}
			defer conn.Close()

			conn.SetReadDeadline(time.Now().Add(5 * time.Second))
			for j := 0; j < 3; j++ {
				if _, _, err := conn.ReadMessage(); err != nil {
					t.Errorf("Failed to read message %d: %v", j, err)
					return
				}
			}
		}()
	}
	wg.Wait()

	close(stop)
	<-done
}

func floatNear(a, b float64) bool {
	d := a - b
	if d < 0 {
		d = -d
	}
	return d < 1e-9
}

// Package dashboard is the presentation layer of the paper-trading
// monitor. It serves an HTML overview page, JSON APIs for each metrics
// block and chart series, and a WebSocket stream that pushes a fresh
// snapshot on every refresh tick.
//
// The server is wired by explicit dependency injection: the loader,
// metrics engine and optional quote client are constructed once at
// process start and passed in. Every request recomputes its answer from
// the data on disk at that moment; nothing is cached between requests.
package dashboard

import (
	"context"
	"encoding/json"
	"fmt"
	"html/template"
	"net/http"
	"strconv"
	"sync"
	"time"

	"papertrade-dash/internal/common"
	"papertrade-dash/internal/metrics"
	"papertrade-dash/internal/perf"
	"papertrade-dash/internal/quote"
	"papertrade-dash/internal/store"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// Snapshot is one full recomputation of every dashboard block, the unit
// broadcast to WebSocket clients and served by /api/snapshot.
type Snapshot struct {
	Timestamp time.Time `json:"timestamp"`

	Summary     perf.PortfolioSummary   `json:"summary"`
	Performance perf.PerformanceMetrics `json:"performance"`
	TradeStats  perf.TradeStats         `json:"trade_stats"`
	Risk        perf.RiskStatus         `json:"risk"`

	// Chart series
	Equity        []store.EquityPoint  `json:"equity"`
	Drawdowns     []perf.DrawdownPoint `json:"drawdowns"`
	CumulativePnL []perf.PnLPoint      `json:"cumulative_pnl"`

	Trades []store.Trade `json:"trades"`
}

// clientOptions is the snapshot window a WebSocket client asked for at
// connect time, carried through every broadcast to that client.
type clientOptions struct {
	days int
	demo bool
}

// Server hosts the dashboard HTTP endpoints and WebSocket streaming.
type Server struct {
	loader  *store.Loader
	engine  *perf.Engine
	quotes  *quote.Client // nil when no quote URL is configured
	metrics *metrics.Metrics

	server           *http.Server
	router           *mux.Router
	upgrader         websocket.Upgrader
	clients          map[*websocket.Conn]clientOptions
	clientsMu        sync.RWMutex
	broadcastChannel chan Snapshot
	stopChannel      chan struct{}
	isRunning        bool
	mu               sync.RWMutex

	defaultLookback int
	refreshInterval time.Duration
}

// New creates a dashboard server on the given port. quotes may be nil.
func New(loader *store.Loader, engine *perf.Engine, quotes *quote.Client, m *metrics.Metrics, port, defaultLookback int, refreshInterval time.Duration) *Server {
	s := &Server{
		loader:           loader,
		engine:           engine,
		quotes:           quotes,
		metrics:          m,
		upgrader:         websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }},
		clients:          make(map[*websocket.Conn]clientOptions),
		broadcastChannel: make(chan Snapshot, 16),
		stopChannel:      make(chan struct{}),
		defaultLookback:  defaultLookback,
		refreshInterval:  refreshInterval,
	}

	r := mux.NewRouter()
	r.HandleFunc("/", s.handleIndex).Methods("GET")
	r.HandleFunc("/api/snapshot", s.instrument("snapshot", s.handleSnapshot)).Methods("GET")
	r.HandleFunc("/api/summary", s.instrument("summary", s.handleSummary)).Methods("GET")
	r.HandleFunc("/api/performance", s.instrument("performance", s.handlePerformance)).Methods("GET")
	r.HandleFunc("/api/trades", s.instrument("trades", s.handleTrades)).Methods("GET")
	r.HandleFunc("/api/risk", s.instrument("risk", s.handleRisk)).Methods("GET")
	r.HandleFunc("/api/equity", s.instrument("equity", s.handleEquity)).Methods("GET")
	r.HandleFunc("/api/drawdown", s.instrument("drawdown", s.handleDrawdown)).Methods("GET")
	r.HandleFunc("/ws", s.handleWebSocket).Methods("GET")
	s.router = r

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	return s
}

// Start starts the dashboard server, the snapshot collector and the
// client broadcaster.
func (s *Server) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return fmt.Errorf("dashboard is already running")
	}

	go s.snapshotCollector()
	go s.clientBroadcaster()

	go func() {
		log.Info().
			Str("address", s.server.Addr).
			Msg("Starting dashboard server")

		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("Dashboard server failed")
		}
	}()

	s.isRunning = true
	log.Info().Msg("Dashboard started successfully")
	return nil
}

// Stop shuts the server down and drops all WebSocket clients.
func (s *Server) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return nil
	}

	close(s.stopChannel)

	s.clientsMu.Lock()
	for client := range s.clients {
		client.Close()
	}
	s.clients = make(map[*websocket.Conn]clientOptions)
	s.clientsMu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.server.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Failed to shutdown dashboard server")
		return err
	}

	s.isRunning = false
	log.Info().Msg("Dashboard stopped")
	return nil
}

// snapshotCollector recomputes a snapshot on every refresh tick and
// queues it for broadcasting.
func (s *Server) snapshotCollector() {
	ticker := time.NewTicker(s.refreshInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			snapshot := s.buildSnapshot(s.defaultLookback, false)
			select {
			case s.broadcastChannel <- snapshot:
			default:
				// Channel full, skip this update
			}
		case <-s.stopChannel:
			return
		}
	}
}

// clientBroadcaster fans snapshots out to all connected clients.
func (s *Server) clientBroadcaster() {
	for {
		select {
		case snapshot := <-s.broadcastChannel:
			s.broadcastToClients(snapshot)
		case <-s.stopChannel:
			return
		}
	}
}

// broadcastToClients sends the default snapshot to every client on the
// default window, and recomputes one snapshot per distinct requested
// window for the rest. All connection writes happen under clientsMu,
// which also serializes them against the initial write in
// handleWebSocket.
func (s *Server) broadcastToClients(snapshot Snapshot) {
	s.clientsMu.Lock()
	defer s.clientsMu.Unlock()

	defaultData, err := json.Marshal(snapshot)
	if err != nil {
		log.Error().Err(err).Msg("Failed to marshal snapshot for broadcast")
		return
	}
	defaultOpts := clientOptions{days: s.defaultLookback}

	custom := make(map[clientOptions][]byte)
	for client, opts := range s.clients {
		data := defaultData
		if opts != defaultOpts {
			cached, ok := custom[opts]
			if !ok {
				cached, err = json.Marshal(s.buildSnapshot(opts.days, opts.demo))
				if err != nil {
					log.Error().Err(err).Msg("Failed to marshal snapshot for broadcast")
					continue
				}
				custom[opts] = cached
			}
			data = cached
		}

		if err := client.WriteMessage(websocket.TextMessage, data); err != nil {
			log.Error().Err(err).Msg("Failed to send snapshot to WebSocket client")
			client.Close()
			delete(s.clients, client)
		}
	}
	s.metrics.WSClients.Set(float64(len(s.clients)))
}

// buildSnapshot loads fresh state and recomputes every block. demo swaps
// the equity and trade series for the canned preview data while keeping
// the real portfolio snapshot.
func (s *Server) buildSnapshot(lookbackDays int, demo bool) Snapshot {
	state := s.loader.LoadPortfolio()

	if s.quotes != nil {
		// The configured quote timeout bounds the request inside the
		// client; no extra deadline here.
		if err := s.quotes.Refresh(context.Background(), &state); err != nil {
			log.Warn().Err(err).Msg("Quote refresh failed, using persisted prices")
		}
	}

	var series []store.EquityPoint
	var trades []store.Trade
	if demo {
		days := lookbackDays
		if days <= 0 {
			days = 60
		}
		series = store.DemoEquitySeries(days, state.InitialCapital)
		trades = store.DemoTrades()
	} else {
		series = s.loader.LoadEquitySeries(lookbackDays)
		trades = s.loader.LoadTrades(lookbackDays)
	}

	snapshot := Snapshot{
		Timestamp:     time.Now(),
		Summary:       s.engine.Summary(state),
		Performance:   s.engine.Performance(series, trades),
		TradeStats:    perf.CalcTradeStats(trades),
		Risk:          s.engine.Risk(state, series),
		Equity:        series,
		Drawdowns:     perf.DrawdownSeries(series),
		CumulativePnL: perf.CumulativePnL(trades),
		Trades:        trades,
	}

	s.metrics.ObserveSnapshot(
		snapshot.Summary.TotalEquity,
		snapshot.Risk.CurrentDrawdown,
		snapshot.Risk.PortfolioExposure,
		s.loader.SkippedRecords(),
	)

	return snapshot
}

// lookbackDays parses the ?days= query parameter. Absent or invalid
// values fall back to the configured default; "0" or "all" disables the
// cutoff.
func (s *Server) lookbackDays(r *http.Request) int {
	v := r.URL.Query().Get("days")
	if v == "" {
		return s.defaultLookback
	}
	if v == "all" {
		return 0
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return s.defaultLookback
	}
	return n
}

func demoMode(r *http.Request) bool {
	return r.URL.Query().Get("demo") == "1"
}

// instrument wraps a handler with request counting and duration
// observation.
func (s *Server) instrument(route string, h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		s.metrics.RequestsTotal.WithLabelValues(route).Inc()
		h(w, r)
		s.metrics.RequestDuration.Observe(time.Since(start).Seconds())
	}
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("Failed to encode response")
	}
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.buildSnapshot(s.lookbackDays(r), demoMode(r)))
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	state := s.loader.LoadPortfolio()
	writeJSON(w, s.engine.Summary(state))
}

func (s *Server) handlePerformance(w http.ResponseWriter, r *http.Request) {
	days := s.lookbackDays(r)

	var series []store.EquityPoint
	var trades []store.Trade
	if demoMode(r) {
		series = store.DemoEquitySeries(days, common.DefaultInitialCapital)
		trades = store.DemoTrades()
	} else {
		series = s.loader.LoadEquitySeries(days)
		trades = s.loader.LoadTrades(days)
	}

	writeJSON(w, s.engine.Performance(series, trades))
}

func (s *Server) handleTrades(w http.ResponseWriter, r *http.Request) {
	days := s.lookbackDays(r)

	var trades []store.Trade
	if demoMode(r) {
		trades = store.DemoTrades()
	} else {
		trades = s.loader.LoadTrades(days)
	}

	writeJSON(w, map[string]interface{}{
		"trades":         trades,
		"stats":          perf.CalcTradeStats(trades),
		"profit_factor":  perf.ProfitFactor(trades),
		"cumulative_pnl": perf.CumulativePnL(trades),
	})
}

func (s *Server) handleRisk(w http.ResponseWriter, r *http.Request) {
	state := s.loader.LoadPortfolio()
	series := s.loader.LoadEquitySeries(s.engine.DrawdownWindowDays)
	writeJSON(w, s.engine.Risk(state, series))
}

func (s *Server) handleEquity(w http.ResponseWriter, r *http.Request) {
	days := s.lookbackDays(r)
	if demoMode(r) {
		writeJSON(w, store.DemoEquitySeries(days, common.DefaultInitialCapital))
		return
	}
	writeJSON(w, s.loader.LoadEquitySeries(days))
}

func (s *Server) handleDrawdown(w http.ResponseWriter, r *http.Request) {
	days := s.lookbackDays(r)

	var series []store.EquityPoint
	if demoMode(r) {
		series = store.DemoEquitySeries(days, common.DefaultInitialCapital)
	} else {
		series = s.loader.LoadEquitySeries(days)
	}

	writeJSON(w, perf.DrawdownSeries(series))
}

// handleWebSocket upgrades the connection, sends one snapshot
// immediately, and keeps the client registered for broadcasts on the
// window it asked for. The registration and the initial write share one
// clientsMu critical section so no broadcast can write to the connection
// concurrently.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("Failed to upgrade WebSocket connection")
		return
	}
	defer conn.Close()

	opts := clientOptions{days: s.lookbackDays(r), demo: demoMode(r)}
	snapshot := s.buildSnapshot(opts.days, opts.demo)
	data, err := json.Marshal(snapshot)
	if err != nil {
		log.Error().Err(err).Msg("Failed to marshal initial snapshot")
		return
	}

	s.clientsMu.Lock()
	s.clients[conn] = opts
	s.metrics.WSClients.Set(float64(len(s.clients)))
	conn.WriteMessage(websocket.TextMessage, data)
	s.clientsMu.Unlock()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	s.clientsMu.Lock()
	delete(s.clients, conn)
	s.metrics.WSClients.Set(float64(len(s.clients)))
	s.clientsMu.Unlock()
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	t, err := template.New("dashboard").Parse(indexTemplate)
	if err != nil {
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html")
	t.Execute(w, nil)
}

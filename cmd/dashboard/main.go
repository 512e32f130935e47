package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"papertrade-dash/internal/cfg"
	"papertrade-dash/internal/common"
	"papertrade-dash/internal/dashboard"
	"papertrade-dash/internal/metrics"
	"papertrade-dash/internal/perf"
	"papertrade-dash/internal/quote"
	"papertrade-dash/internal/store"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	_ = godotenv.Load()

	c, err := cfg.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config load failed")
	}

	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if os.Getenv(common.EnvLogLevel) != "" {
		level, err := zerolog.ParseLevel(os.Getenv(common.EnvLogLevel))
		if err != nil {
			log.Warn().Err(err).Msg("invalid LOG_LEVEL, using info")
		} else {
			zerolog.SetGlobalLevel(level)
		}
	}

	// Context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	m := metrics.New()
	loader := store.NewLoader(c.DataDir, c.InitialCapital)
	engine := perf.NewEngine(c)

	var quotes *quote.Client
	if c.QuoteURL != "" {
		quotes = quote.New(c.QuoteURL, c.QuoteTimeout)
		log.Info().Str("url", c.QuoteURL).Msg("quote refresh enabled")
	}

	startMetricsServer(ctx, c.MetricsPort)

	server := dashboard.New(loader, engine, quotes, m, c.ListenPort, c.LookbackDays, c.RefreshInterval)
	if err := server.Start(); err != nil {
		log.Fatal().Err(err).Msg("dashboard start failed")
	}

	log.Info().
		Int("port", c.ListenPort).
		Str("data_dir", c.DataDir).
		Int("lookback_days", c.LookbackDays).
		Msg("dashboard running")

	waitForShutdown(ctx, cancel)

	if err := server.Stop(); err != nil {
		log.Error().Err(err).Msg("dashboard stop failed")
	}
}

// startMetricsServer starts the Prometheus metrics HTTP server
func startMetricsServer(ctx context.Context, port int) {
	go func() {
		mux := http.NewServeMux()

		mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			w.Write([]byte("OK"))
		})

		mux.Handle("/metrics", promhttp.Handler())

		server := &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       30 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       60 * time.Second,
		}

		go func() {
			<-ctx.Done()
			if err := server.Shutdown(context.Background()); err != nil {
				log.Error().Err(err).Msg("failed to shutdown metrics server")
			}
		}()

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("metrics server failed")
		}
	}()
}

// waitForShutdown blocks until a shutdown signal arrives
func waitForShutdown(ctx context.Context, cancel context.CancelFunc) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case <-sigChan:
		log.Info().Msg("shutdown signal received")
	case <-ctx.Done():
		log.Info().Msg("context canceled")
	}

	log.Info().Msg("shutting down gracefully...")
	cancel()
}

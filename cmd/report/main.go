package main

import (
	"flag"
	"fmt"
	"os"

	"papertrade-dash/internal/cfg"
	"papertrade-dash/internal/perf"
	"papertrade-dash/internal/report"
	"papertrade-dash/internal/store"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	var (
		dataDir    = flag.String("data", "", "Path to data directory (overrides config)")
		outputPath = flag.String("out", "reports", "Output directory for reports")
		days       = flag.Int("days", -1, "Lookback window in days, 0 for full history (overrides config)")
		archive    = flag.Bool("archive", false, "Also snapshot equity and trades into the local BoltDB archive")
		logLevel   = flag.String("log-level", "info", "Log level: debug, info, warn, error")
	)
	flag.Parse()

	_ = godotenv.Load()

	level, err := zerolog.ParseLevel(*logLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	config, err := cfg.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}

	if *dataDir != "" {
		config.DataDir = *dataDir
	}
	if *days >= 0 {
		config.LookbackDays = *days
	}

	fmt.Println("=== Report Configuration ===")
	fmt.Printf("Data Directory: %s\n", config.DataDir)
	fmt.Printf("Output Directory: %s\n", *outputPath)
	fmt.Printf("Lookback Days: %d\n", config.LookbackDays)
	fmt.Println("============================")

	loader := store.NewLoader(config.DataDir, config.InitialCapital)
	engine := perf.NewEngine(config)

	if *archive {
		if err := snapshotArchive(loader, config.DataDir, config.LookbackDays); err != nil {
			log.Error().Err(err).Msg("Failed to archive snapshot")
		}
	}

	reporter := report.NewReporter(loader, engine, *outputPath, config.LookbackDays)
	if err := reporter.GenerateReport(); err != nil {
		log.Fatal().Err(err).Msg("Failed to generate reports")
	}

	reporter.PrintSummary()

	if skipped := loader.SkippedRecords(); skipped > 0 {
		log.Warn().Uint64("skipped", skipped).Msg("Some records were skipped while loading")
	}

	log.Info().
		Str("output", *outputPath).
		Msg("Report completed successfully")
}

// snapshotArchive persists the current equity series and trade history
// into the BoltDB archive next to the data directory.
func snapshotArchive(loader *store.Loader, dataDir string, lookbackDays int) error {
	archive, err := store.OpenArchive(dataDir)
	if err != nil {
		return fmt.Errorf("failed to open archive: %w", err)
	}
	defer archive.Close()

	series := loader.LoadEquitySeries(lookbackDays)
	trades := loader.LoadTrades(lookbackDays)

	if err := archive.IngestSnapshot(series, trades); err != nil {
		return err
	}

	log.Info().
		Int("equity_points", len(series)).
		Int("trades", len(trades)).
		Msg("Snapshot archived")
	return nil
}

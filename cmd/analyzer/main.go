package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Alias1177/matchminer/internal/catalog"
	"github.com/Alias1177/matchminer/internal/config"
	platformhttp "github.com/Alias1177/matchminer/internal/platform/http"
	"github.com/Alias1177/matchminer/internal/record"
	"github.com/Alias1177/matchminer/internal/source"
)

func main() {
	// Setup context with cancellation for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle interrupt signals
	setupSignalHandling(cancel)

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// setupSignalHandling configures signal handling for graceful shutdown
func setupSignalHandling(cancel context.CancelFunc) {
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-c
		log.Info().Msg("Shutdown signal received, stopping...")
		cancel()
	}()
}

// setupLogging configures the logger
func setupLogging(logLevel string) {
	output := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	log.Logger = log.Output(output)

	// Set log level from config
	level, err := zerolog.ParseLevel(logLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
}

// printConfig logs the effective configuration
func printConfig(cfg *config.Config) {
	ev := log.Info().
		Str("DataFile", cfg.DataFile).
		Str("SheetName", cfg.SheetName).
		Str("CatalogFile", cfg.CatalogFile).
		Int("Workers", cfg.Workers).
		Int("TopN", cfg.TopN).
		Bool("Persist", cfg.Persist)
	if cfg.MinSample != nil {
		ev = ev.Int("MinSample", *cfg.MinSample)
	}
	if cfg.MinPrecision != nil {
		ev = ev.Float64("MinPrecision", *cfg.MinPrecision)
	}
	ev.Msg("Configuration loaded")
}

// loadStore reads the match history named by the configuration, downloading
// it first when DataFile is a URL.
func loadStore(ctx context.Context, cfg *config.Config) (*record.Store, error) {
	opts := source.Options{
		Sheet:       cfg.SheetName,
		Categorical: catalog.Categorical,
	}

	var (
		store *record.Store
		err   error
	)
	if source.IsRemote(cfg.DataFile) {
		client := platformhttp.NewClient(platformhttp.ClientOptions{})
		store, _, err = source.Fetch(ctx, client, cfg.DataFile, opts)
	} else {
		store, _, err = source.Load(cfg.DataFile, opts)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load match history: %w", err)
	}
	return store, nil
}

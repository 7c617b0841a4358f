package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/quantfolio/cadence/internal/app"
	"github.com/quantfolio/cadence/internal/config"
	"github.com/quantfolio/cadence/internal/database"
	"github.com/quantfolio/cadence/internal/market"
	"github.com/quantfolio/cadence/internal/market/yahoo"
	"github.com/quantfolio/cadence/internal/scheduler"
	"github.com/quantfolio/cadence/internal/server"
	"github.com/quantfolio/cadence/pkg/logger"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.DevMode,
	})

	log.Info().Msg("Starting cadence")

	// Price cache database
	historyDB, err := database.New(database.Config{
		Path: cfg.DataDir + "/history.db",
		Name: "history",
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize history database")
	}
	defer historyDB.Close()

	historyRepo, err := market.NewHistoryRepository(historyDB, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize history repository")
	}

	// Watchlist: TradingView sync when configured, local symbol list
	// otherwise
	watchlist, err := loadWatchlist(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load watchlist")
	}
	log.Info().Int("codes", len(watchlist.Codes())).Msg("Watchlist loaded")

	// Market data provider
	provider, err := market.NewProvider(watchlist, yahoo.New(log), historyRepo, market.ProviderConfig{
		Benchmark:    cfg.Benchmark,
		Period:       cfg.Period,
		RiskFreeRate: cfg.RiskFreeRate,
	}, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize market data provider")
	}

	// Pipeline service
	service, err := app.New(cfg, provider, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize pipeline")
	}

	// Scheduler for periodic refreshes
	sched := scheduler.New(log)
	if err := sched.AddJob(cfg.RefreshCron, service); err != nil {
		log.Fatal().Err(err).Msg("Failed to register refresh job")
	}

	// Immediate first run so the API has data to serve
	if err := sched.RunNow(service); err != nil {
		log.Fatal().Err(err).Msg("Initial pipeline refresh failed")
	}

	sched.Start()
	defer sched.Stop()

	// HTTP server
	srv := server.New(server.Config{
		Log:     log,
		App:     service,
		Port:    cfg.Port,
		DevMode: cfg.DevMode,
	})

	go func() {
		if err := srv.Start(); err != nil {
			log.Error().Err(err).Msg("HTTP server stopped")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server stopped")
}

// loadWatchlist builds the instrument universe from TradingView when
// credentials are configured, falling back to a local symbol list file.
func loadWatchlist(cfg *config.Config, log zerolog.Logger) (*market.Watchlist, error) {
	if cfg.TradingViewWatchlistID != "" && cfg.TradingViewSessionID != "" {
		client := market.NewTradingViewClient(log)
		watchlist, err := client.FetchWatchlist(cfg.TradingViewWatchlistID, cfg.TradingViewSessionID)
		if err == nil {
			return watchlist, nil
		}
		log.Warn().Err(err).Msg("TradingView sync failed, falling back to local symbol list")
	}

	if cfg.SymbolsFile == "" {
		return nil, fmt.Errorf("no watchlist source configured")
	}
	data, err := os.ReadFile(cfg.SymbolsFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read symbol list: %w", err)
	}
	symbols := strings.Split(strings.TrimSpace(string(data)), ",")
	for i := range symbols {
		symbols[i] = strings.TrimSpace(symbols[i])
	}
	return market.ParseSymbolList(symbols), nil
}

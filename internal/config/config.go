// Package config reads application configuration from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"

	"github.com/quantfolio/cadence/internal/trader"
)

// Strategy selector values accepted by STRATEGY.
const (
	StrategyMaxSharpe  = "max_sharpe"
	StrategyLinearProg = "linear_programming"
)

// Config holds application configuration
type Config struct {
	DataDir  string // Base directory for the price cache database
	Port     int
	LogLevel string
	DevMode  bool

	// Backtest parameters
	InitialBalance    float64
	Strategy          string
	TopK              int
	MaxWeight         float64
	BetaConstraint    bool
	DrawdownThreshold float64
	Workers           int

	// Market data
	Benchmark    string
	Period       string
	RiskFreeRate float64

	// TradingView watchlist sync (optional; local symbol list otherwise)
	TradingViewWatchlistID string
	TradingViewSessionID   string
	SymbolsFile            string

	// Scheduler
	RefreshCron string
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	dataDir := getEnv("DATA_DIR", "")
	if dataDir == "" {
		if _, err := os.Stat("./data"); err == nil {
			dataDir = "./data"
		} else {
			dataDir = "../data"
		}
	}

	cfg := &Config{
		DataDir:  dataDir,
		Port:     getEnvAsInt("PORT", 8010),
		LogLevel: getEnv("LOG_LEVEL", "info"),
		DevMode:  getEnvAsBool("DEV_MODE", false),

		InitialBalance:    getEnvAsFloat("INITIAL_BALANCE", 10000),
		Strategy:          getEnv("STRATEGY", StrategyMaxSharpe),
		TopK:              getEnvAsInt("TOPK", 5),
		MaxWeight:         getEnvAsFloat("MAX_WEIGHT", 0.3),
		BetaConstraint:    getEnvAsBool("BETA_CONSTRAINT", false),
		DrawdownThreshold: getEnvAsFloat("DRAWDOWN_THRESHOLD", 0.15),
		Workers:           getEnvAsInt("WORKERS", 4),

		Benchmark:    getEnv("BENCHMARK", "^IXIC"),
		Period:       getEnv("PERIOD", "15y"),
		RiskFreeRate: getEnvAsFloat("RISK_FREE_RATE", 0.04),

		TradingViewWatchlistID: getEnv("TRADINGVIEW_WATCHLIST_ID", ""),
		TradingViewSessionID:   getEnv("TRADINGVIEW_SESSION_ID", ""),
		SymbolsFile:            getEnv("SYMBOLS_FILE", ""),

		RefreshCron: getEnv("REFRESH_CRON", "0 0 22 * * 1-5"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks that the configuration is usable before any component is
// constructed from it.
func (c *Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid PORT %d", c.Port)
	}
	if c.InitialBalance <= 0 {
		return fmt.Errorf("INITIAL_BALANCE must be positive, got %v", c.InitialBalance)
	}
	if c.Strategy != StrategyMaxSharpe && c.Strategy != StrategyLinearProg {
		return fmt.Errorf("unknown STRATEGY %q", c.Strategy)
	}
	if c.TopK < 1 {
		return fmt.Errorf("TOPK must be at least 1, got %d", c.TopK)
	}
	if c.MaxWeight <= 0 || c.MaxWeight > 1 {
		return fmt.Errorf("MAX_WEIGHT must be in (0, 1], got %v", c.MaxWeight)
	}
	if c.DrawdownThreshold <= 0 || c.DrawdownThreshold >= 1 {
		return fmt.Errorf("DRAWDOWN_THRESHOLD must be in (0, 1), got %v", c.DrawdownThreshold)
	}
	if c.Workers < 1 {
		return fmt.Errorf("WORKERS must be at least 1, got %d", c.Workers)
	}
	if c.RefreshCron == "" {
		return fmt.Errorf("REFRESH_CRON must not be empty")
	}
	if c.TradingViewWatchlistID == "" && c.SymbolsFile == "" {
		return fmt.Errorf("either TRADINGVIEW_WATCHLIST_ID or SYMBOLS_FILE must be set")
	}
	return nil
}

// Frequencies returns the cadences compared by the backtest sweep.
func (c *Config) Frequencies() []trader.Frequency {
	return trader.Frequencies
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

package market

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/quantfolio/cadence/internal/database"
)

// Bar is one day of price history for a symbol.
type Bar struct {
	Date  time.Time
	Close float64
}

// HistoryRepository persists daily closes so table rebuilds don't
// re-download the full history.
type HistoryRepository struct {
	db  *database.DB
	log zerolog.Logger
}

// NewHistoryRepository creates a repository and ensures its schema exists.
func NewHistoryRepository(db *database.DB, log zerolog.Logger) (*HistoryRepository, error) {
	repo := &HistoryRepository{
		db:  db,
		log: log.With().Str("component", "history_repository").Logger(),
	}
	if err := repo.initSchema(); err != nil {
		return nil, err
	}
	return repo, nil
}

func (r *HistoryRepository) initSchema() error {
	_, err := r.db.Conn().Exec(`
		CREATE TABLE IF NOT EXISTS daily_prices (
			symbol TEXT NOT NULL,
			date   TEXT NOT NULL,
			close  REAL NOT NULL,
			PRIMARY KEY (symbol, date)
		)`)
	if err != nil {
		return fmt.Errorf("failed to create daily_prices table: %w", err)
	}
	return nil
}

// SaveBars upserts price bars for a symbol.
func (r *HistoryRepository) SaveBars(symbol string, bars []Bar) error {
	if len(bars) == 0 {
		return nil
	}

	tx, err := r.db.Conn().Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO daily_prices (symbol, date, close)
		VALUES (?, ?, ?)
		ON CONFLICT (symbol, date) DO UPDATE SET close = excluded.close`)
	if err != nil {
		return fmt.Errorf("failed to prepare upsert: %w", err)
	}
	defer stmt.Close()

	for _, bar := range bars {
		if _, err := stmt.Exec(symbol, bar.Date.UTC().Format("2006-01-02"), bar.Close); err != nil {
			return fmt.Errorf("failed to upsert %s@%s: %w", symbol, bar.Date.Format("2006-01-02"), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit bars for %s: %w", symbol, err)
	}

	r.log.Debug().Str("symbol", symbol).Int("bars", len(bars)).Msg("Saved price history")
	return nil
}

// Bars returns the stored history for a symbol in ascending date order.
func (r *HistoryRepository) Bars(symbol string) ([]Bar, error) {
	rows, err := r.db.Conn().Query(`
		SELECT date, close FROM daily_prices
		WHERE symbol = ?
		ORDER BY date ASC`, symbol)
	if err != nil {
		return nil, fmt.Errorf("failed to query history for %s: %w", symbol, err)
	}
	defer rows.Close()

	var bars []Bar
	for rows.Next() {
		var dateStr string
		var bar Bar
		if err := rows.Scan(&dateStr, &bar.Close); err != nil {
			return nil, fmt.Errorf("failed to scan bar for %s: %w", symbol, err)
		}
		date, err := time.Parse("2006-01-02", dateStr)
		if err != nil {
			return nil, fmt.Errorf("invalid stored date %q for %s: %w", dateStr, symbol, err)
		}
		bar.Date = date
		bars = append(bars, bar)
	}
	return bars, rows.Err()
}

// LatestDate returns the most recent stored date for a symbol, or zero time
// when no history exists.
func (r *HistoryRepository) LatestDate(symbol string) (time.Time, error) {
	var dateStr *string
	err := r.db.Conn().QueryRow(
		`SELECT MAX(date) FROM daily_prices WHERE symbol = ?`, symbol).Scan(&dateStr)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to query latest date for %s: %w", symbol, err)
	}
	if dateStr == nil {
		return time.Time{}, nil
	}
	return time.Parse("2006-01-02", *dateStr)
}

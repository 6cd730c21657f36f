package store

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	apperrors "starkterm/internal/errors"
	"starkterm/internal/models"
)

// SQLiteStore implements DataStore using SQLite.
type SQLiteStore struct {
	db        *sql.DB
	mu        sync.RWMutex
	syncTimes map[string]time.Time
}

// NewSQLiteStore creates a new SQLite-based data store.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Configure connection pool for concurrent access
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	store := &SQLiteStore{
		db:        db,
		syncTimes: make(map[string]time.Time),
	}

	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return store, nil
}

// initSchema creates all required tables and indexes.
func (s *SQLiteStore) initSchema() error {
	schema := `
	-- Candles table for cached daily OHLCV history
	CREATE TABLE IF NOT EXISTS candles (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		symbol TEXT NOT NULL,
		date TEXT NOT NULL,
		open REAL NOT NULL,
		high REAL NOT NULL,
		low REAL NOT NULL,
		close REAL NOT NULL,
		adj_close REAL,
		volume INTEGER NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		UNIQUE(symbol, date)
	);

	-- Latest quote snapshot per symbol
	CREATE TABLE IF NOT EXISTS quotes (
		symbol TEXT PRIMARY KEY,
		price REAL NOT NULL,
		open REAL,
		high REAL,
		low REAL,
		volume INTEGER,
		market_cap REAL,
		pe_ratio REAL,
		dividend_yield REAL,
		fifty_two_week_high REAL,
		fifty_two_week_low REAL,
		updated_at DATETIME NOT NULL
	);

	-- Locally generated scan results
	CREATE TABLE IF NOT EXISTS scan_results (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		symbol TEXT NOT NULL,
		signal_type TEXT NOT NULL,
		indicator TEXT NOT NULL,
		strength REAL NOT NULL,
		value REAL NOT NULL,
		scanned_at DATETIME NOT NULL
	);

	-- Sync status table
	CREATE TABLE IF NOT EXISTS sync_status (
		data_type TEXT PRIMARY KEY,
		last_sync DATETIME NOT NULL,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	-- Create indexes for performance
	CREATE INDEX IF NOT EXISTS idx_candles_symbol ON candles(symbol);
	CREATE INDEX IF NOT EXISTS idx_candles_symbol_date ON candles(symbol, date);
	CREATE INDEX IF NOT EXISTS idx_scans_symbol ON scan_results(symbol);
	CREATE INDEX IF NOT EXISTS idx_scans_scanned_at ON scan_results(scanned_at);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// ============================================================================
// Candles Methods
// ============================================================================

// SaveCandles upserts candle history for a symbol and stamps the sync time.
func (s *SQLiteStore) SaveCandles(ctx context.Context, symbol string, candles []models.Candle) error {
	if len(candles) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR REPLACE INTO candles (symbol, date, open, high, low, close, adj_close, volume)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, c := range candles {
		_, err := stmt.ExecContext(ctx, symbol, c.Date, c.Open, c.High, c.Low, c.Close, c.AdjClose, c.Volume)
		if err != nil {
			return fmt.Errorf("failed to insert candle: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return s.SetLastSync(CandleSyncKey(symbol), time.Now())
}

// GetCandles retrieves cached candles ordered oldest first. A positive limit
// returns only the most recent candles.
func (s *SQLiteStore) GetCandles(ctx context.Context, symbol string, limit int) ([]models.Candle, error) {
	query := `
		SELECT date, open, high, low, close, adj_close, volume
		FROM candles
		WHERE symbol = ?
		ORDER BY date ASC
	`
	args := []interface{}{symbol}

	if limit > 0 {
		query = `
			SELECT date, open, high, low, close, adj_close, volume
			FROM (
				SELECT date, open, high, low, close, adj_close, volume
				FROM candles
				WHERE symbol = ?
				ORDER BY date DESC
				LIMIT ?
			)
			ORDER BY date ASC
		`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query candles: %w", err)
	}
	defer rows.Close()

	var candles []models.Candle
	for rows.Next() {
		var c models.Candle
		var adjClose sql.NullFloat64
		if err := rows.Scan(&c.Date, &c.Open, &c.High, &c.Low, &c.Close, &adjClose, &c.Volume); err != nil {
			return nil, fmt.Errorf("failed to scan candle: %w", err)
		}
		if adjClose.Valid {
			c.AdjClose = adjClose.Float64
		}
		candles = append(candles, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating candles: %w", err)
	}

	return candles, nil
}

// CandlesFreshness returns the date of the most recent cached candle.
func (s *SQLiteStore) CandlesFreshness(ctx context.Context, symbol string) (time.Time, error) {
	var date sql.NullString
	err := s.db.QueryRowContext(ctx, `
		SELECT MAX(date) FROM candles WHERE symbol = ?
	`, symbol).Scan(&date)
	if err != nil && err != sql.ErrNoRows {
		return time.Time{}, fmt.Errorf("failed to get candles freshness: %w", err)
	}
	if !date.Valid {
		return time.Time{}, nil
	}

	t, err := time.Parse("2006-01-02", date.String)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse candle date: %w", err)
	}
	return t, nil
}

// ============================================================================
// Quote Snapshot Methods
// ============================================================================

// SaveQuote upserts the latest quote snapshot for a symbol.
func (s *SQLiteStore) SaveQuote(ctx context.Context, quote *models.Quote) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO quotes (symbol, price, open, high, low, volume, market_cap, pe_ratio, dividend_yield, fifty_two_week_high, fifty_two_week_low, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, quote.Symbol, quote.Price, quote.Open, quote.High, quote.Low, quote.Volume,
		quote.MarketCap, quote.PERatio, quote.DividendYield, quote.FiftyTwoWeekHigh, quote.FiftyTwoWeekLow, time.Now())
	if err != nil {
		return fmt.Errorf("failed to save quote: %w", err)
	}
	return nil
}

// GetQuote returns the cached quote snapshot and when it was stored.
func (s *SQLiteStore) GetQuote(ctx context.Context, symbol string) (*models.Quote, time.Time, error) {
	var q models.Quote
	var updatedAt time.Time

	err := s.db.QueryRowContext(ctx, `
		SELECT symbol, price, open, high, low, volume, market_cap, pe_ratio, dividend_yield, fifty_two_week_high, fifty_two_week_low, updated_at
		FROM quotes WHERE symbol = ?
	`, symbol).Scan(&q.Symbol, &q.Price, &q.Open, &q.High, &q.Low, &q.Volume,
		&q.MarketCap, &q.PERatio, &q.DividendYield, &q.FiftyTwoWeekHigh, &q.FiftyTwoWeekLow, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, time.Time{}, apperrors.ErrQuoteNotFound
	}
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("failed to get quote: %w", err)
	}

	return &q, updatedAt, nil
}

// ============================================================================
// Scan Result Methods
// ============================================================================

// SaveScanResults stores the signals from one scan run.
func (s *SQLiteStore) SaveScanResults(ctx context.Context, symbol string, signals []models.Signal) error {
	if len(signals) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO scan_results (symbol, signal_type, indicator, strength, value, scanned_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	now := time.Now()
	for _, sig := range signals {
		_, err := stmt.ExecContext(ctx, symbol, sig.Type, sig.Indicator, sig.Strength, sig.Value, now)
		if err != nil {
			return fmt.Errorf("failed to insert scan result: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// GetScanResults retrieves stored scan results, newest first.
func (s *SQLiteStore) GetScanResults(ctx context.Context, filter ScanFilter) ([]ScanResult, error) {
	query := "SELECT symbol, signal_type, indicator, strength, value, scanned_at FROM scan_results WHERE 1=1"
	args := []interface{}{}

	if filter.Symbol != "" {
		query += " AND symbol = ?"
		args = append(args, filter.Symbol)
	}
	if filter.Type != "" {
		query += " AND signal_type = ?"
		args = append(args, filter.Type)
	}
	if !filter.Since.IsZero() {
		query += " AND scanned_at >= ?"
		args = append(args, filter.Since)
	}

	query += " ORDER BY scanned_at DESC, strength DESC"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query scan results: %w", err)
	}
	defer rows.Close()

	var results []ScanResult
	for rows.Next() {
		var r ScanResult
		if err := rows.Scan(&r.Symbol, &r.Signal.Type, &r.Signal.Indicator, &r.Signal.Strength, &r.Signal.Value, &r.ScannedAt); err != nil {
			return nil, fmt.Errorf("failed to scan result: %w", err)
		}
		results = append(results, r)
	}

	return results, rows.Err()
}

// ============================================================================
// Sync Methods
// ============================================================================

// GetLastSync returns the last sync time for a data type.
func (s *SQLiteStore) GetLastSync(dataType string) time.Time {
	s.mu.RLock()
	if t, ok := s.syncTimes[dataType]; ok {
		s.mu.RUnlock()
		return t
	}
	s.mu.RUnlock()

	var lastSync time.Time
	err := s.db.QueryRow(`
		SELECT last_sync FROM sync_status WHERE data_type = ?
	`, dataType).Scan(&lastSync)
	if err != nil {
		return time.Time{}
	}

	s.mu.Lock()
	s.syncTimes[dataType] = lastSync
	s.mu.Unlock()

	return lastSync
}

// SetLastSync sets the last sync time for a data type.
func (s *SQLiteStore) SetLastSync(dataType string, t time.Time) error {
	_, err := s.db.Exec(`
		INSERT OR REPLACE INTO sync_status (data_type, last_sync, updated_at)
		VALUES (?, ?, ?)
	`, dataType, t, time.Now())
	if err != nil {
		return fmt.Errorf("failed to set last sync: %w", err)
	}

	s.mu.Lock()
	s.syncTimes[dataType] = t
	s.mu.Unlock()

	return nil
}

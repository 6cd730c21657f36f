// Package store provides the local cache behind offline chart and scan
// workflows. Candle history, quote snapshots and scan results fetched from
// the backend are persisted so commands keep working when it is unreachable.
package store

import (
	"context"
	"time"

	"starkterm/internal/models"
)

// DataStore defines the interface for the local cache.
type DataStore interface {
	// Candles
	SaveCandles(ctx context.Context, symbol string, candles []models.Candle) error
	GetCandles(ctx context.Context, symbol string, limit int) ([]models.Candle, error)
	CandlesFreshness(ctx context.Context, symbol string) (time.Time, error)

	// Quote snapshots
	SaveQuote(ctx context.Context, quote *models.Quote) error
	GetQuote(ctx context.Context, symbol string) (*models.Quote, time.Time, error)

	// Scan results
	SaveScanResults(ctx context.Context, symbol string, signals []models.Signal) error
	GetScanResults(ctx context.Context, filter ScanFilter) ([]ScanResult, error)

	// Sync bookkeeping
	GetLastSync(dataType string) time.Time
	SetLastSync(dataType string, t time.Time) error

	// Lifecycle
	Close() error
}

// ScanFilter represents filters for querying stored scan results.
type ScanFilter struct {
	Symbol string
	Type   string
	Since  time.Time
	Limit  int
}

// ScanResult is one stored signal with its scan context.
type ScanResult struct {
	Symbol    string
	Signal    models.Signal
	ScannedAt time.Time
}

// CandleSyncKey returns the sync bookkeeping key for a symbol's candle cache.
func CandleSyncKey(symbol string) string {
	return "candles:" + symbol
}

// QuoteSyncKey returns the sync bookkeeping key for a symbol's quote snapshot.
func QuoteSyncKey(symbol string) string {
	return "quote:" + symbol
}

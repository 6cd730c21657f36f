package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"starkterm/internal/api"
	"starkterm/internal/config"
	"starkterm/internal/models"
	"starkterm/internal/store"
)

// newCacheTestApp builds an App backed by a temp SQLite cache and an
// httptest backend that serves candle history and counts its hits.
func newCacheTestApp(t *testing.T, ttl time.Duration, hits *int32, fail bool) *App {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/api/market/historical/AAPL", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(hits, 1)
		if fail {
			w.WriteHeader(http.StatusInternalServerError)
			fmt.Fprint(w, `{"detail":"database locked"}`)
			return
		}
		// Newest first, as the backend sends it
		json.NewEncoder(w).Encode(map[string]interface{}{
			"symbol": "AAPL",
			"data": []models.Candle{
				{Date: "2024-01-03", Open: 103, High: 104, Low: 102, Close: 103.5, Volume: 3000},
				{Date: "2024-01-02", Open: 102, High: 103, Low: 101, Close: 102.5, Volume: 2000},
				{Date: "2024-01-01", Open: 101, High: 102, Low: 100, Close: 101.5, Volume: 1000},
			},
		})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	dbPath := fmt.Sprintf("test_cache_%d.db", time.Now().UnixNano())
	t.Cleanup(func() { os.Remove(dbPath) })
	dataStore, err := store.NewSQLiteStore(dbPath)
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	t.Cleanup(func() { dataStore.Close() })

	cfg := &config.Config{
		Backend: config.BackendConfig{BaseURL: srv.URL, Timeout: 5 * time.Second, RetryAttempts: 1},
		Cache:   config.CacheConfig{Enabled: true, TTL: ttl},
	}

	return &App{
		Config: cfg,
		Logger: zerolog.Nop(),
		API:    api.NewClient(cfg.Backend, zerolog.Nop()),
		Store:  dataStore,
	}
}

// warmCache seeds candle history; SaveCandles stamps the sync time, so
// the cache is fresh relative to any sane TTL right after this returns.
func warmCache(t *testing.T, app *App) {
	t.Helper()
	candles := []models.Candle{
		{Date: "2024-01-01", Open: 101, High: 102, Low: 100, Close: 101.5, Volume: 1000},
		{Date: "2024-01-02", Open: 102, High: 103, Low: 101, Close: 102.5, Volume: 2000},
	}
	if err := app.Store.SaveCandles(context.Background(), "AAPL", candles); err != nil {
		t.Fatalf("Failed to seed cache: %v", err)
	}
}

func TestFetchCandlesPrefersFreshCache(t *testing.T) {
	var hits int32
	app := newCacheTestApp(t, 15*time.Minute, &hits, false)
	warmCache(t, app)

	// Synced seconds ago, TTL 15m: must be served from the cache even
	// though the candle dates themselves are old business days.
	fetch, err := fetchCandles(context.Background(), app, "AAPL", 0, 0, false)
	if err != nil {
		t.Fatalf("fetchCandles failed: %v", err)
	}
	if fetch.Source != SourceCache {
		t.Errorf("Expected source %s, got %s", SourceCache, fetch.Source)
	}
	if fetch.Stale {
		t.Error("Fresh cache must not be marked stale")
	}
	if n := atomic.LoadInt32(&hits); n != 0 {
		t.Errorf("Backend was hit %d time(s); fresh cache should avoid it", n)
	}
	if len(fetch.Candles) != 2 {
		t.Fatalf("Expected 2 cached candles, got %d", len(fetch.Candles))
	}
	if fetch.Candles[0].Date != "2024-01-01" {
		t.Errorf("Expected oldest-first order, got first date %s", fetch.Candles[0].Date)
	}
	if fetch.SyncedAt.IsZero() || time.Since(fetch.SyncedAt) > time.Minute {
		t.Errorf("Expected a recent sync time, got %v", fetch.SyncedAt)
	}
}

func TestFetchCandlesRefreshBypassesCache(t *testing.T) {
	var hits int32
	app := newCacheTestApp(t, 15*time.Minute, &hits, false)
	warmCache(t, app)

	fetch, err := fetchCandles(context.Background(), app, "AAPL", 0, 0, true)
	if err != nil {
		t.Fatalf("fetchCandles failed: %v", err)
	}
	if fetch.Source != SourceBackend {
		t.Errorf("Expected source %s, got %s", SourceBackend, fetch.Source)
	}
	if n := atomic.LoadInt32(&hits); n != 1 {
		t.Errorf("Expected exactly 1 backend hit with --refresh, got %d", n)
	}
	// The backend response (3 candles, reversed to oldest first) replaces
	// the cached 2 and restamps the sync time.
	if len(fetch.Candles) != 3 || fetch.Candles[0].Date != "2024-01-01" || fetch.Candles[2].Date != "2024-01-03" {
		t.Errorf("Unexpected candles after refresh: %+v", fetch.Candles)
	}
}

func TestFetchCandlesExpiredTTLRefetches(t *testing.T) {
	var hits int32
	app := newCacheTestApp(t, time.Nanosecond, &hits, false)
	warmCache(t, app)

	fetch, err := fetchCandles(context.Background(), app, "AAPL", 0, 0, false)
	if err != nil {
		t.Fatalf("fetchCandles failed: %v", err)
	}
	if fetch.Source != SourceBackend {
		t.Errorf("Expected expired cache to refetch from %s, got %s", SourceBackend, fetch.Source)
	}
	if n := atomic.LoadInt32(&hits); n != 1 {
		t.Errorf("Expected 1 backend hit after TTL expiry, got %d", n)
	}
}

func TestFetchCandlesServesStaleCacheWhenBackendDown(t *testing.T) {
	var hits int32
	app := newCacheTestApp(t, time.Nanosecond, &hits, true)
	warmCache(t, app)

	fetch, err := fetchCandles(context.Background(), app, "AAPL", 0, 0, false)
	if err != nil {
		t.Fatalf("Expected stale cache fallback, got error: %v", err)
	}
	if fetch.Source != SourceCache || !fetch.Stale {
		t.Errorf("Expected stale cache serve, got source=%s stale=%v", fetch.Source, fetch.Stale)
	}
	if len(fetch.Candles) != 2 {
		t.Errorf("Expected 2 cached candles, got %d", len(fetch.Candles))
	}
	// The staleness banner reports when the cache was synced, not the
	// business date of the newest candle.
	if fetch.SyncedAt.IsZero() || time.Since(fetch.SyncedAt) > time.Minute {
		t.Errorf("Expected a recent sync time on the stale serve, got %v", fetch.SyncedAt)
	}
	if want, _ := time.Parse("2006-01-02", "2024-01-02"); !fetch.Through.Equal(want) {
		t.Errorf("Expected data-through date %v, got %v", want, fetch.Through)
	}
	if n := atomic.LoadInt32(&hits); n != 1 {
		t.Errorf("Expected 1 failed backend attempt, got %d", n)
	}
}

func TestFetchCandlesColdCacheErrorsWhenBackendDown(t *testing.T) {
	var hits int32
	app := newCacheTestApp(t, 15*time.Minute, &hits, true)

	if _, err := fetchCandles(context.Background(), app, "AAPL", 0, 0, false); err == nil {
		t.Fatal("Expected an error with a down backend and an empty cache")
	}
}

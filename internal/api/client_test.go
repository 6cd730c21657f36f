package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"starkterm/internal/config"
	apperrors "starkterm/internal/errors"
	"starkterm/internal/models"
	"starkterm/internal/resilience"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := config.BackendConfig{
		BaseURL:       srv.URL,
		Timeout:       5 * time.Second,
		RetryAttempts: 3,
	}
	return NewClient(cfg, zerolog.Nop())
}

func TestGetQuote(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/market/quote/AAPL", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"symbol":"AAPL","price":231.5,"open":230.0,"high":233.1,"low":229.4,"volume":51230000,"pe_ratio":35.2}`)
	})
	mux.HandleFunc("/api/market/quote/ZZZZ", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `{"detail":"No quote data found for ZZZZ"}`)
	})

	client := newTestClient(t, mux)
	ctx := context.Background()

	// Test 1: Successful quote fetch
	quote, err := client.GetQuote(ctx, "AAPL")
	if err != nil {
		t.Fatalf("GetQuote failed: %v", err)
	}
	if quote.Symbol != "AAPL" {
		t.Errorf("Expected symbol AAPL, got %s", quote.Symbol)
	}
	if quote.Price != 231.5 {
		t.Errorf("Expected price 231.5, got %v", quote.Price)
	}
	if quote.PERatio != 35.2 {
		t.Errorf("Expected PE ratio 35.2, got %v", quote.PERatio)
	}

	// Test 2: Unknown symbol maps to the quote-not-found sentinel
	_, err = client.GetQuote(ctx, "ZZZZ")
	if !errors.Is(err, apperrors.ErrQuoteNotFound) {
		t.Errorf("Expected ErrQuoteNotFound, got %v", err)
	}

	// Test 3: The backend's detail text is preserved verbatim
	var apiErr *apperrors.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("Expected APIError in chain, got %v", err)
	}
	if apiErr.Detail != "No quote data found for ZZZZ" {
		t.Errorf("Expected verbatim detail, got %q", apiErr.Detail)
	}
	if !apiErr.IsNotFound() {
		t.Error("Expected IsNotFound to be true")
	}

	t.Logf("GetQuote test passed: quote decoded, 404 mapped with detail preserved")
}

func TestGetHistoryReversesToChronological(t *testing.T) {
	var gotQuery atomic.Value

	mux := http.NewServeMux()
	mux.HandleFunc("/api/market/historical/MSFT", func(w http.ResponseWriter, r *http.Request) {
		gotQuery.Store(r.URL.RawQuery)
		// Backend order: newest first
		fmt.Fprint(w, `{"symbol":"MSFT","data":[
			{"date":"2024-01-04","open":3,"high":3,"low":3,"close":3,"adj_close":3,"volume":30},
			{"date":"2024-01-03","open":2,"high":2,"low":2,"close":2,"adj_close":2,"volume":20},
			{"date":"2024-01-02","open":1,"high":1,"low":1,"close":1,"adj_close":1,"volume":10}
		]}`)
	})

	client := newTestClient(t, mux)

	// Test 1: Candles come back oldest first
	candles, err := client.GetHistory(context.Background(), HistoryRequest{
		Symbol: "MSFT",
		Start:  time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC),
		Limit:  100,
	})
	if err != nil {
		t.Fatalf("GetHistory failed: %v", err)
	}
	if len(candles) != 3 {
		t.Fatalf("Expected 3 candles, got %d", len(candles))
	}
	for i := 1; i < len(candles); i++ {
		if candles[i].Date <= candles[i-1].Date {
			t.Errorf("Candles not chronological at %d: %s after %s", i, candles[i].Date, candles[i-1].Date)
		}
	}

	// Test 2: Date range and limit are forwarded as query parameters
	query := gotQuery.Load().(string)
	if query != "limit=100&start_date=2024-01-02" {
		t.Errorf("Unexpected query string: %s", query)
	}

	t.Logf("GetHistory test passed: %d candles in chronological order", len(candles))
}

func TestEnvelopeUnwrapping(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/market/news", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"count":2,"articles":[{"id":1,"title":"Fed holds rates"},{"id":2,"title":"Chip rally continues"}]}`)
	})
	mux.HandleFunc("/api/market/sentiment", func(w http.ResponseWriter, r *http.Request) {
		// This endpoint returns a bare array, no envelope
		fmt.Fprint(w, `[{"symbol":"NVDA","subreddit":"stocks","mentions":42,"sentiment_score":0.31}]`)
	})
	mux.HandleFunc("/api/market/watchlist", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"count":1,"symbols":[{"symbol":"AAPL","notes":"core holding","added_at":"2024-01-02"}]}`)
	})
	mux.HandleFunc("/api/market/signals/TSLA", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"symbol":"TSLA","signals":[{"type":"BUY","indicator":"RSI_OVERSOLD","strength":66.7,"value":10.0}],"count":1}`)
	})

	client := newTestClient(t, mux)
	ctx := context.Background()

	// Test 1: {count, articles} envelope
	articles, err := client.GetNews(ctx, "", 10)
	if err != nil {
		t.Fatalf("GetNews failed: %v", err)
	}
	if len(articles) != 2 || articles[0].Title != "Fed holds rates" {
		t.Errorf("Unexpected articles: %+v", articles)
	}

	// Test 2: bare array
	rows, err := client.GetSentiment(ctx, "")
	if err != nil {
		t.Fatalf("GetSentiment failed: %v", err)
	}
	if len(rows) != 1 || rows[0].Mentions != 42 {
		t.Errorf("Unexpected sentiment rows: %+v", rows)
	}

	// Test 3: {count, symbols} envelope
	watchlist, err := client.GetWatchlist(ctx)
	if err != nil {
		t.Fatalf("GetWatchlist failed: %v", err)
	}
	if len(watchlist) != 1 || watchlist[0].Notes != "core holding" {
		t.Errorf("Unexpected watchlist: %+v", watchlist)
	}

	// Test 4: {symbol, signals, count} envelope
	signals, err := client.GetSignals(ctx, "TSLA")
	if err != nil {
		t.Fatalf("GetSignals failed: %v", err)
	}
	if len(signals) != 1 || signals[0].Indicator != "RSI_OVERSOLD" {
		t.Errorf("Unexpected signals: %+v", signals)
	}

	t.Logf("Envelope test passed: all four wire shapes unwrap to plain slices")
}

func TestGetRetriesTransientFailures(t *testing.T) {
	var hits int32

	mux := http.NewServeMux()
	mux.HandleFunc("/api/market/quote/AAPL", func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&hits, 1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			fmt.Fprint(w, `{"detail":"database is locked"}`)
			return
		}
		fmt.Fprint(w, `{"symbol":"AAPL","price":231.5}`)
	})

	client := newTestClient(t, mux)

	// Test 1: Two 500s then success should succeed within three attempts
	quote, err := client.GetQuote(context.Background(), "AAPL")
	if err != nil {
		t.Fatalf("Expected success after retries, got %v", err)
	}
	if quote.Price != 231.5 {
		t.Errorf("Expected price 231.5, got %v", quote.Price)
	}
	if got := atomic.LoadInt32(&hits); got != 3 {
		t.Errorf("Expected 3 attempts, got %d", got)
	}

	t.Logf("Retry test passed: recovered after %d attempts", atomic.LoadInt32(&hits))
}

func TestGetDoesNotRetryClientErrors(t *testing.T) {
	var hits int32

	mux := http.NewServeMux()
	mux.HandleFunc("/api/symbols/FAKE", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `{"detail":"Symbol FAKE not found"}`)
	})

	client := newTestClient(t, mux)

	// Test 1: A 404 is final, not transient
	_, err := client.GetSymbol(context.Background(), "FAKE")
	if !errors.Is(err, apperrors.ErrSymbolNotFound) {
		t.Errorf("Expected ErrSymbolNotFound, got %v", err)
	}
	if got := atomic.LoadInt32(&hits); got != 1 {
		t.Errorf("Expected exactly 1 attempt for 404, got %d", got)
	}

	t.Logf("Client error test passed: 404 returned after a single attempt")
}

func TestMutationsAreNeverRetried(t *testing.T) {
	var tradeHits, resetHits int32

	mux := http.NewServeMux()
	mux.HandleFunc("/api/portfolio/paper/trade", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&tradeHits, 1)
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, `{"detail":"Insufficient funds. Need $2315.00, have $500.00"}`)
	})
	mux.HandleFunc("/api/portfolio/paper/reset", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&resetHits, 1)
		w.WriteHeader(http.StatusInternalServerError)
		fmt.Fprint(w, `{"detail":"database is locked"}`)
	})

	client := newTestClient(t, mux)
	ctx := context.Background()

	// Test 1: Trade rejection maps to the funds sentinel with verbatim detail
	_, err := client.PlacePaperTrade(ctx, models.PaperTradeRequest{Symbol: "AAPL", Quantity: 10, OrderType: models.OrderSideBuy})
	if !errors.Is(err, apperrors.ErrInsufficientFunds) {
		t.Errorf("Expected ErrInsufficientFunds, got %v", err)
	}
	var apiErr *apperrors.APIError
	if errors.As(err, &apiErr) {
		if apiErr.Detail != "Insufficient funds. Need $2315.00, have $500.00" {
			t.Errorf("Expected verbatim rejection detail, got %q", apiErr.Detail)
		}
	} else {
		t.Errorf("Expected APIError in chain, got %v", err)
	}
	if got := atomic.LoadInt32(&tradeHits); got != 1 {
		t.Errorf("Expected exactly 1 trade request, got %d", got)
	}

	// Test 2: Even a transient failure does not replay a mutation
	_, err = client.ResetPaperAccount(ctx, 10000)
	if err == nil {
		t.Fatal("Expected error from failing reset")
	}
	if got := atomic.LoadInt32(&resetHits); got != 1 {
		t.Errorf("Expected exactly 1 reset request, got %d", got)
	}

	t.Logf("Mutation test passed: trade and reset each sent exactly once")
}

func TestCircuitOpensAndFailsFast(t *testing.T) {
	var hits int32

	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusInternalServerError)
		fmt.Fprint(w, `{"detail":"boom"}`)
	})

	client := newTestClient(t, mux)
	ctx := context.Background()

	// Test 1: First call burns three attempts (failures 1-3)
	if _, err := client.GetPortfolio(ctx); err == nil {
		t.Fatal("Expected error from failing backend")
	}

	// Test 2: Second call trips the breaker on failure 5 and aborts
	_, err := client.GetPortfolio(ctx)
	if !errors.Is(err, resilience.ErrCircuitOpen) {
		t.Errorf("Expected ErrCircuitOpen once the breaker trips, got %v", err)
	}
	if got := atomic.LoadInt32(&hits); got != 5 {
		t.Errorf("Expected 5 requests before the circuit opened, got %d", got)
	}

	// Test 3: Further calls fail fast without touching the backend
	_, err = client.GetPortfolio(ctx)
	if !errors.Is(err, resilience.ErrCircuitOpen) {
		t.Errorf("Expected ErrCircuitOpen on fast-fail, got %v", err)
	}
	if got := atomic.LoadInt32(&hits); got != 5 {
		t.Errorf("Expected no further requests while open, got %d", got)
	}
	if client.BreakerStats().State != resilience.CircuitOpen {
		t.Errorf("Expected breaker state open, got %s", client.BreakerStats().State)
	}

	t.Logf("Circuit test passed: opened after 5 failures, then failed fast")
}

func TestParseDetail(t *testing.T) {
	// Test 1: Plain string detail
	if got := parseDetail([]byte(`{"detail":"No position found for AMD"}`)); got != "No position found for AMD" {
		t.Errorf("Unexpected detail: %q", got)
	}

	// Test 2: Structured validation detail stays as raw JSON
	got := parseDetail([]byte(`{"detail":[{"loc":["query","q"],"msg":"field required"}]}`))
	if got != `[{"loc":["query","q"],"msg":"field required"}]` {
		t.Errorf("Unexpected validation detail: %q", got)
	}

	// Test 3: Non-JSON body falls back to trimmed text
	if got := parseDetail([]byte("  Bad Gateway\n")); got != "Bad Gateway" {
		t.Errorf("Unexpected fallback detail: %q", got)
	}

	t.Logf("parseDetail test passed")
}

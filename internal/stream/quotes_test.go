package stream

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"starkterm/internal/models"
)

var testUpgrader = websocket.Upgrader{}

func wsURL(t *testing.T, srv *httptest.Server, path string) string {
	t.Helper()
	return "ws" + strings.TrimPrefix(srv.URL, "http") + path
}

func TestQuoteStreamResubscribesAfterReconnect(t *testing.T) {
	var connCount int32
	subscribes := make(chan []string, 4)

	mux := http.NewServeMux()
	mux.HandleFunc("/ws/quotes", func(w http.ResponseWriter, r *http.Request) {
		conn, err := testUpgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		n := atomic.AddInt32(&connCount, 1)

		// The client sends its subscription right after connecting
		conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		var frame subscribeFrame
		if err := conn.ReadJSON(&frame); err != nil {
			return
		}
		subscribes <- frame.Symbols

		initial := map[string]interface{}{
			"type": "initial",
			"data": []map[string]interface{}{
				{"symbol": "AAPL", "price": 100.0 + float64(n)},
			},
		}
		payload, _ := json.Marshal(initial)
		conn.WriteMessage(websocket.TextMessage, payload)

		if n == 1 {
			// Drop the first connection to force a reconnect
			return
		}

		// Keep the second connection open until the client leaves
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	})

	srv := httptest.NewServer(mux)
	defer srv.Close()

	quotes := make(chan models.StreamQuote, 16)
	stream := NewQuoteStream(QuoteStreamConfig{
		URL:           wsURL(t, srv, "/ws/quotes"),
		ReconnectBase: 20 * time.Millisecond,
	}, zerolog.Nop())
	defer stream.Close()

	stream.OnQuotes(func(batch []models.StreamQuote) {
		for _, q := range batch {
			quotes <- q
		}
	})

	// Test 1: Subscription is sent on the first connection
	if err := stream.Subscribe([]string{"AAPL", "MSFT"}); err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}
	if err := stream.Connect(context.Background()); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}

	first := waitForSubscribe(t, subscribes)
	if len(first) != 2 || first[0] != "AAPL" || first[1] != "MSFT" {
		t.Errorf("Unexpected first subscription: %v", first)
	}

	// Test 2: The same subscription is resent after the reconnect
	second := waitForSubscribe(t, subscribes)
	if len(second) != 2 || second[0] != "AAPL" || second[1] != "MSFT" {
		t.Errorf("Unexpected resubscription: %v", second)
	}

	// Test 3: Quotes from both connections reached the handler and the
	// latest one wins in the snapshot
	sawReconnectQuote := false
	deadline := time.After(2 * time.Second)
	for !sawReconnectQuote {
		select {
		case q := <-quotes:
			if q.Symbol == "AAPL" && q.Price == 102.0 {
				sawReconnectQuote = true
			}
		case <-deadline:
			t.Fatal("Timed out waiting for post-reconnect quote")
		}
	}
	if q, ok := stream.LastQuote("AAPL"); !ok || q.Price != 102.0 {
		t.Errorf("Expected last AAPL quote 102.0, got %+v (ok=%v)", q, ok)
	}

	// Test 4: Close stops reconnection for good
	stream.Close()
	time.Sleep(100 * time.Millisecond)
	if got := atomic.LoadInt32(&connCount); got != 2 {
		t.Errorf("Expected exactly 2 connections, got %d", got)
	}

	t.Logf("Quote stream test passed: resubscribed after reconnect, %d connections", atomic.LoadInt32(&connCount))
}

func waitForSubscribe(t *testing.T, ch <-chan []string) []string {
	t.Helper()
	select {
	case symbols := <-ch:
		return symbols
	case <-time.After(2 * time.Second):
		t.Fatal("Timed out waiting for subscribe frame")
		return nil
	}
}

func TestQuoteStreamDispatchesFrames(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws/quotes", func(w http.ResponseWriter, r *http.Request) {
		conn, err := testUpgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		frames := []string{
			`{"type":"initial","data":[{"symbol":"AAPL","price":230.0},{"symbol":"MSFT","price":410.0}]}`,
			`{"type":"subscribed","symbols":["AAPL","MSFT"]}`,
			`{"type":"quotes","data":[{"symbol":"AAPL","price":231.5,"changePercent":0.65}]}`,
			`not json at all`,
			`{"type":"quotes","data":[]}`,
		}
		for _, f := range frames {
			conn.WriteMessage(websocket.TextMessage, []byte(f))
		}

		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	})

	srv := httptest.NewServer(mux)
	defer srv.Close()

	batches := make(chan []models.StreamQuote, 8)
	stream := NewQuoteStream(QuoteStreamConfig{
		URL:           wsURL(t, srv, "/ws/quotes"),
		ReconnectBase: 50 * time.Millisecond,
	}, zerolog.Nop())
	defer stream.Close()

	stream.OnQuotes(func(batch []models.StreamQuote) {
		batches <- batch
	})

	if err := stream.Connect(context.Background()); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}

	// Test 1: Initial snapshot arrives as the first batch
	first := waitForBatch(t, batches)
	if len(first) != 2 {
		t.Fatalf("Expected 2 quotes in initial batch, got %d", len(first))
	}

	// Test 2: Live update batch follows; ack, junk and empty frames are
	// not dispatched
	second := waitForBatch(t, batches)
	if len(second) != 1 || second[0].Price != 231.5 {
		t.Errorf("Unexpected update batch: %+v", second)
	}
	if second[0].ChangePercent != 0.65 {
		t.Errorf("Expected changePercent 0.65, got %v", second[0].ChangePercent)
	}

	// Test 3: Snapshot reflects the newest price per symbol
	snap := stream.Snapshot()
	if snap["AAPL"].Price != 231.5 {
		t.Errorf("Expected AAPL at 231.5 in snapshot, got %v", snap["AAPL"].Price)
	}
	if snap["MSFT"].Price != 410.0 {
		t.Errorf("Expected MSFT at 410.0 in snapshot, got %v", snap["MSFT"].Price)
	}

	t.Logf("Dispatch test passed: %d then %d quotes, snapshot current", len(first), len(second))
}

func waitForBatch(t *testing.T, ch <-chan []models.StreamQuote) []models.StreamQuote {
	t.Helper()
	select {
	case batch := <-ch:
		return batch
	case <-time.After(2 * time.Second):
		t.Fatal("Timed out waiting for quote batch")
		return nil
	}
}

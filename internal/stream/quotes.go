package stream

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	apperrors "starkterm/internal/errors"
	"starkterm/internal/logging"
	"starkterm/internal/models"
	"starkterm/pkg/utils"
)

// maxReconnectDelay caps the backoff between reconnection attempts.
const maxReconnectDelay = 30 * time.Second

// QuoteStreamConfig holds configuration for the quote socket.
type QuoteStreamConfig struct {
	URL           string        // full endpoint, e.g. ws://localhost:8000/ws/quotes
	ReconnectBase time.Duration // first backoff step
	ReconnectMax  int           // attempts before giving up, 0 retries forever
	PingInterval  time.Duration // 0 disables client pings
}

// QuoteStream is a reconnecting client for the backend's quote socket.
// It remembers the desired symbol set and resends the subscription
// after every reconnect, so consumers never notice a dropped socket
// beyond a gap in updates.
type QuoteStream struct {
	config QuoteStreamConfig
	logger zerolog.Logger

	conn    *websocket.Conn
	writeMu sync.Mutex // protects socket writes

	onQuotes     func([]models.StreamQuote)
	onConnect    func()
	onDisconnect func()
	onError      func(error)

	symbols      []string
	connected    bool
	closed       bool
	reconnecting bool
	mu           sync.RWMutex

	last   map[string]models.StreamQuote
	lastMu sync.RWMutex

	done chan struct{}
}

// subscribeFrame is the only message the client sends. The backend
// replaces its tracked symbol list with the one in the frame; an empty
// list is ignored server side.
type subscribeFrame struct {
	Type    string   `json:"type"`
	Symbols []string `json:"symbols"`
}

// serverFrame covers every message the quote socket sends.
type serverFrame struct {
	Type      string               `json:"type"`
	Data      []models.StreamQuote `json:"data"`
	Symbols   []string             `json:"symbols"`
	Timestamp string               `json:"timestamp"`
}

// NewQuoteStream creates a new quote stream client.
func NewQuoteStream(config QuoteStreamConfig, logger zerolog.Logger) *QuoteStream {
	if config.ReconnectBase <= 0 {
		config.ReconnectBase = time.Second
	}

	return &QuoteStream{
		config: config,
		logger: logger,
		last:   make(map[string]models.StreamQuote),
		done:   make(chan struct{}),
	}
}

// Connect dials the quote socket. The server pushes an initial quote
// snapshot immediately after the connection is established.
func (s *QuoteStream) Connect(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return apperrors.ErrStreamClosed
	}
	if s.connected {
		s.mu.Unlock()
		return nil
	}
	s.mu.Unlock()

	return s.dial(ctx)
}

func (s *QuoteStream) dial(ctx context.Context) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, s.config.URL, nil)
	if err != nil {
		return apperrors.NewStreamError("quotes", "dial "+s.config.URL, err)
	}

	if s.config.PingInterval > 0 {
		conn.SetReadDeadline(s.readDeadline())
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(s.readDeadline())
		})
	}

	s.mu.Lock()
	s.conn = conn
	s.connected = true
	symbols := append([]string(nil), s.symbols...)
	onConnect := s.onConnect
	s.mu.Unlock()

	s.startSession(ctx, conn)

	// Restore the desired subscription; without this the server keeps
	// streaming its default list after a reconnect.
	if len(symbols) > 0 {
		if err := s.sendSubscribe(conn, symbols); err != nil {
			s.logger.Warn().Err(err).Msg("Failed to send subscription")
		}
	}

	logging.LogStream(s.logger, "quotes", "connected", 0)
	if onConnect != nil {
		go onConnect()
	}

	return nil
}

// startSession runs the per-connection read and ping loops. The ping
// loop stops as soon as the read loop ends.
func (s *QuoteStream) startSession(ctx context.Context, conn *websocket.Conn) {
	stop := make(chan struct{})
	if s.config.PingInterval > 0 {
		go s.pingLoop(conn, stop)
	}
	go func() {
		s.readLoop(ctx, conn)
		close(stop)
	}()
}

func (s *QuoteStream) readLoop(ctx context.Context, conn *websocket.Conn) {
	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			break
		}
		s.dispatch(payload)
		if s.config.PingInterval > 0 {
			conn.SetReadDeadline(s.readDeadline())
		}
	}

	s.mu.Lock()
	wasConnected := s.connected
	s.connected = false
	closed := s.closed
	onDisconnect := s.onDisconnect
	s.mu.Unlock()

	if closed {
		return
	}

	logging.LogStream(s.logger, "quotes", "disconnected", 0)
	if wasConnected && onDisconnect != nil {
		go onDisconnect()
	}

	go s.reconnect(ctx)
}

// dispatch decodes one frame and routes it. Handlers run on the read
// loop and must not block.
func (s *QuoteStream) dispatch(payload []byte) {
	var frame serverFrame
	if err := json.Unmarshal(payload, &frame); err != nil {
		s.logger.Debug().Err(err).Msg("Discarding malformed frame")
		return
	}

	switch frame.Type {
	case "initial", "quotes":
		if len(frame.Data) == 0 {
			return
		}
		s.lastMu.Lock()
		for _, q := range frame.Data {
			s.last[q.Symbol] = q
		}
		s.lastMu.Unlock()

		s.mu.RLock()
		handler := s.onQuotes
		s.mu.RUnlock()
		if handler != nil {
			handler(frame.Data)
		}
	case "subscribed":
		s.logger.Debug().Strs("symbols", frame.Symbols).Msg("Subscription acknowledged")
	}
}

func (s *QuoteStream) pingLoop(conn *websocket.Conn, stop <-chan struct{}) {
	ticker := time.NewTicker(s.config.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-s.done:
			return
		case <-ticker.C:
			deadline := time.Now().Add(10 * time.Second)
			if err := conn.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
				// The read loop notices the broken socket
				return
			}
		}
	}
}

// reconnect retries the connection with exponential backoff until it
// succeeds, the stream is closed, or the attempt limit is reached.
func (s *QuoteStream) reconnect(ctx context.Context) {
	s.mu.Lock()
	if s.reconnecting || s.closed {
		s.mu.Unlock()
		return
	}
	s.reconnecting = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.reconnecting = false
		s.mu.Unlock()
	}()

	for attempt := 0; ; attempt++ {
		if s.config.ReconnectMax > 0 && attempt >= s.config.ReconnectMax {
			s.fireError(fmt.Errorf("quote stream: gave up after %d reconnection attempts", attempt))
			return
		}

		delay := utils.CalculateBackoff(attempt, s.config.ReconnectBase, maxReconnectDelay, 2.0)
		select {
		case <-ctx.Done():
			return
		case <-s.done:
			return
		case <-time.After(delay):
		}

		logging.LogStream(s.logger, "quotes", "reconnecting", attempt+1)

		if err := s.dial(ctx); err == nil {
			return
		}
	}
}

func (s *QuoteStream) fireError(err error) {
	s.mu.RLock()
	handler := s.onError
	s.mu.RUnlock()
	if handler != nil {
		handler(err)
	}
}

func (s *QuoteStream) readDeadline() time.Time {
	return time.Now().Add(3 * s.config.PingInterval)
}

// Subscribe replaces the tracked symbol set. The new set is remembered
// and resent after every reconnect.
func (s *QuoteStream) Subscribe(symbols []string) error {
	s.mu.Lock()
	s.symbols = append([]string(nil), symbols...)
	conn := s.conn
	connected := s.connected
	s.mu.Unlock()

	if !connected || len(symbols) == 0 {
		return nil
	}
	return s.sendSubscribe(conn, symbols)
}

// Unsubscribe drops symbols from the tracked set. The server keeps its
// previous list when the remainder is empty; orphaned quotes are simply
// not routed anywhere.
func (s *QuoteStream) Unsubscribe(symbols []string) error {
	drop := make(map[string]bool, len(symbols))
	for _, sym := range symbols {
		drop[sym] = true
	}

	s.mu.Lock()
	remainder := s.symbols[:0]
	for _, sym := range s.symbols {
		if !drop[sym] {
			remainder = append(remainder, sym)
		}
	}
	s.symbols = remainder
	keep := append([]string(nil), remainder...)
	conn := s.conn
	connected := s.connected
	s.mu.Unlock()

	if !connected || len(keep) == 0 {
		return nil
	}
	return s.sendSubscribe(conn, keep)
}

func (s *QuoteStream) sendSubscribe(conn *websocket.Conn, symbols []string) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
	if err := conn.WriteJSON(subscribeFrame{Type: "subscribe", Symbols: symbols}); err != nil {
		return apperrors.NewStreamError("quotes", "subscribe", err)
	}
	return nil
}

// LastQuote returns the most recent quote seen for a symbol.
func (s *QuoteStream) LastQuote(symbol string) (models.StreamQuote, bool) {
	s.lastMu.RLock()
	defer s.lastMu.RUnlock()
	q, ok := s.last[symbol]
	return q, ok
}

// Snapshot returns a copy of the most recent quote per symbol.
func (s *QuoteStream) Snapshot() map[string]models.StreamQuote {
	s.lastMu.RLock()
	defer s.lastMu.RUnlock()

	snap := make(map[string]models.StreamQuote, len(s.last))
	for sym, q := range s.last {
		snap[sym] = q
	}
	return snap
}

// OnQuotes sets the handler for quote batches. The handler runs on the
// read loop and must not block.
func (s *QuoteStream) OnQuotes(handler func([]models.StreamQuote)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onQuotes = handler
}

// OnConnect sets the connect handler. It fires on reconnects too.
func (s *QuoteStream) OnConnect(handler func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onConnect = handler
}

// OnDisconnect sets the disconnect handler.
func (s *QuoteStream) OnDisconnect(handler func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onDisconnect = handler
}

// OnError sets the error handler. It fires when reconnection gives up.
func (s *QuoteStream) OnError(handler func(error)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onError = handler
}

// IsConnected returns whether the socket is currently up.
func (s *QuoteStream) IsConnected() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.connected
}

// Close shuts the stream down permanently.
func (s *QuoteStream) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.connected = false
	conn := s.conn
	s.mu.Unlock()

	close(s.done)
	if conn != nil {
		conn.Close()
	}
	return nil
}

// Ensure QuoteStream implements the hub's Source interface
var _ Source = (*QuoteStream)(nil)

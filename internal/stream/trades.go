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

// TradeStreamConfig holds configuration for a trade tape socket.
type TradeStreamConfig struct {
	URL           string // full endpoint, e.g. ws://localhost:8000/ws/trades/AAPL
	ReconnectBase time.Duration
	ReconnectMax  int // attempts before giving up, 0 retries forever
}

// TradeStream is a reconnecting client for one symbol's trade tape.
// The tape socket is one way: the server pushes trades and the client
// never writes.
type TradeStream struct {
	config TradeStreamConfig
	symbol string
	logger zerolog.Logger

	conn *websocket.Conn

	onTrade      func(models.TradeTick)
	onConnect    func()
	onDisconnect func()
	onError      func(error)

	connected    bool
	closed       bool
	reconnecting bool
	mu           sync.RWMutex

	done chan struct{}
}

// tradeFrame is the flat message shape on the tape socket.
type tradeFrame struct {
	Type string `json:"type"`
	models.TradeTick
}

// NewTradeStream creates a tape client for one symbol.
func NewTradeStream(symbol string, config TradeStreamConfig, logger zerolog.Logger) *TradeStream {
	if config.ReconnectBase <= 0 {
		config.ReconnectBase = time.Second
	}

	return &TradeStream{
		config: config,
		symbol: symbol,
		logger: logger,
		done:   make(chan struct{}),
	}
}

// Connect dials the tape socket. Trades start flowing immediately.
func (s *TradeStream) Connect(ctx context.Context) error {
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

func (s *TradeStream) dial(ctx context.Context) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, s.config.URL, nil)
	if err != nil {
		return apperrors.NewStreamError("trades", "dial "+s.config.URL, err)
	}

	s.mu.Lock()
	s.conn = conn
	s.connected = true
	onConnect := s.onConnect
	s.mu.Unlock()

	go s.readLoop(ctx, conn)

	logging.LogStream(s.logger, "trades", "connected", 0)
	if onConnect != nil {
		go onConnect()
	}

	return nil
}

func (s *TradeStream) readLoop(ctx context.Context, conn *websocket.Conn) {
	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			break
		}

		var frame tradeFrame
		if err := json.Unmarshal(payload, &frame); err != nil || frame.Type != "trade" {
			continue
		}

		s.mu.RLock()
		handler := s.onTrade
		s.mu.RUnlock()
		if handler != nil {
			handler(frame.TradeTick)
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

	logging.LogStream(s.logger, "trades", "disconnected", 0)
	if wasConnected && onDisconnect != nil {
		go onDisconnect()
	}

	go s.reconnect(ctx)
}

func (s *TradeStream) reconnect(ctx context.Context) {
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
			s.mu.RLock()
			handler := s.onError
			s.mu.RUnlock()
			if handler != nil {
				handler(fmt.Errorf("trade stream %s: gave up after %d reconnection attempts", s.symbol, attempt))
			}
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

		logging.LogStream(s.logger, "trades", "reconnecting", attempt+1)

		if err := s.dial(ctx); err == nil {
			return
		}
	}
}

// Symbol returns the symbol this tape follows.
func (s *TradeStream) Symbol() string {
	return s.symbol
}

// OnTrade sets the trade handler. It runs on the read loop and must
// not block.
func (s *TradeStream) OnTrade(handler func(models.TradeTick)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onTrade = handler
}

// OnConnect sets the connect handler. It fires on reconnects too.
func (s *TradeStream) OnConnect(handler func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onConnect = handler
}

// OnDisconnect sets the disconnect handler.
func (s *TradeStream) OnDisconnect(handler func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onDisconnect = handler
}

// OnError sets the error handler. It fires when reconnection gives up.
func (s *TradeStream) OnError(handler func(error)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onError = handler
}

// IsConnected returns whether the socket is currently up.
func (s *TradeStream) IsConnected() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.connected
}

// Close shuts the stream down permanently.
func (s *TradeStream) Close() error {
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

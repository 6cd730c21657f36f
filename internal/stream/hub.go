// Package stream provides live quote streaming and fan-out distribution.
package stream

import (
	"context"
	"sync"
	"time"

	"starkterm/internal/models"
)

// Source feeds live quotes into the hub. It is implemented by
// QuoteStream and abstracted here so tests can inject their own feed.
type Source interface {
	Connect(ctx context.Context) error
	Close() error
	// Subscribe replaces the tracked symbol set. The backend's quote
	// socket has replace semantics, so the full desired list is sent
	// on every change.
	Subscribe(symbols []string) error
	OnQuotes(handler func([]models.StreamQuote))
	OnError(handler func(error))
}

// HubConfig holds configuration for the stream hub.
type HubConfig struct {
	// BufferSize is the size of the internal quote channel buffer.
	BufferSize int
	// SubscriberBufferSize is the size of each subscriber's channel buffer.
	SubscriberBufferSize int
	// BroadcastTimeout is the default wait used by PublishWithTimeout.
	BroadcastTimeout time.Duration
}

// DefaultHubConfig returns the default hub configuration.
func DefaultHubConfig() HubConfig {
	return HubConfig{
		BufferSize:           1000,
		SubscriberBufferSize: 100,
		BroadcastTimeout:     10 * time.Millisecond,
	}
}

// Hub distributes live quotes to multiple consumers. It implements a
// fan-out pattern where quotes from a single socket are distributed to
// multiple subscribers via channels.
type Hub struct {
	config      HubConfig
	source      Source
	mu          sync.RWMutex
	subscribers map[string][]*Subscriber
	quoteChan   chan models.StreamQuote
	done        chan struct{}
	started     bool
	consumers   []Consumer
	consumersMu sync.RWMutex

	// Metrics
	quotesReceived  uint64
	quotesBroadcast uint64
	quotesDropped   uint64
	metricsMu       sync.RWMutex
}

// Subscriber represents a channel subscriber with metadata.
type Subscriber struct {
	ID           string
	Channel      chan models.StreamQuote
	DroppedCount int
	CreatedAt    time.Time
}

// NewHub creates a new stream hub with default configuration.
func NewHub() *Hub {
	return NewHubWithConfig(DefaultHubConfig())
}

// NewHubWithConfig creates a new stream hub with custom configuration.
func NewHubWithConfig(config HubConfig) *Hub {
	return &Hub{
		config:      config,
		subscribers: make(map[string][]*Subscriber),
		quoteChan:   make(chan models.StreamQuote, config.BufferSize),
		done:        make(chan struct{}),
		consumers:   make([]Consumer, 0),
	}
}

// NewHubWithSource creates a new stream hub fed by a quote source.
func NewHubWithSource(source Source) *Hub {
	h := NewHub()
	h.source = source
	return h
}

// SetSource sets the quote source for the hub.
func (h *Hub) SetSource(source Source) {
	h.source = source
}

// Start begins the hub's distribution loop. It starts a goroutine that
// listens for quotes and broadcasts them to subscribers.
func (h *Hub) Start(ctx context.Context) error {
	h.mu.Lock()
	if h.started {
		h.mu.Unlock()
		return nil
	}
	h.started = true
	h.mu.Unlock()

	go h.broadcastLoop(ctx)

	// If we have a source, wire it up and connect
	if h.source != nil {
		h.source.OnQuotes(func(quotes []models.StreamQuote) {
			for _, q := range quotes {
				h.Publish(q)
			}
		})

		h.source.OnError(func(err error) {
			// The source handles reconnection itself
		})

		if err := h.source.Connect(ctx); err != nil {
			return err
		}
	}

	return nil
}

// broadcastLoop is the main loop that distributes quotes to subscribers.
func (h *Hub) broadcastLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-h.done:
			return
		case quote := <-h.quoteChan:
			h.metricsMu.Lock()
			h.quotesReceived++
			h.metricsMu.Unlock()

			h.broadcast(quote)
			h.notifyConsumers(quote)
		}
	}
}

// Stop stops the hub and closes all subscriber channels.
func (h *Hub) Stop() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.started {
		return
	}

	close(h.done)
	h.started = false

	for symbol, subs := range h.subscribers {
		for _, sub := range subs {
			close(sub.Channel)
		}
		delete(h.subscribers, symbol)
	}

	if h.source != nil {
		h.source.Close()
	}
}

// Subscribe adds a subscriber for a symbol and returns a channel to
// receive its quotes.
func (h *Hub) Subscribe(symbol string) <-chan models.StreamQuote {
	return h.SubscribeWithID(symbol, "")
}

// SubscribeWithID adds a subscriber with a specific ID for a symbol.
func (h *Hub) SubscribeWithID(symbol, id string) <-chan models.StreamQuote {
	ch := make(chan models.StreamQuote, h.config.SubscriberBufferSize)
	sub := &Subscriber{
		ID:        id,
		Channel:   ch,
		CreatedAt: time.Now(),
	}

	h.mu.Lock()
	h.subscribers[symbol] = append(h.subscribers[symbol], sub)
	symbols := h.subscribedSymbolsLocked()
	h.mu.Unlock()

	h.pushSubscription(symbols)

	return ch
}

// SubscribeMultiple subscribes to multiple symbols at once.
func (h *Hub) SubscribeMultiple(symbols []string) map[string]<-chan models.StreamQuote {
	result := make(map[string]<-chan models.StreamQuote)
	for _, symbol := range symbols {
		result[symbol] = h.Subscribe(symbol)
	}
	return result
}

// Unsubscribe removes a subscriber channel for a symbol.
func (h *Hub) Unsubscribe(symbol string, ch <-chan models.StreamQuote) {
	h.mu.Lock()

	subs := h.subscribers[symbol]
	for i, sub := range subs {
		if sub.Channel == ch {
			close(sub.Channel)
			h.subscribers[symbol] = append(subs[:i], subs[i+1:]...)
			break
		}
	}

	if len(h.subscribers[symbol]) == 0 {
		delete(h.subscribers, symbol)
	}
	symbols := h.subscribedSymbolsLocked()
	h.mu.Unlock()

	h.pushSubscription(symbols)
}

// UnsubscribeAll removes all subscribers for a symbol.
func (h *Hub) UnsubscribeAll(symbol string) {
	h.mu.Lock()

	subs := h.subscribers[symbol]
	for _, sub := range subs {
		close(sub.Channel)
	}
	delete(h.subscribers, symbol)
	symbols := h.subscribedSymbolsLocked()
	h.mu.Unlock()

	h.pushSubscription(symbols)
}

// pushSubscription sends the full desired symbol set to the source.
func (h *Hub) pushSubscription(symbols []string) {
	if h.source != nil && len(symbols) > 0 {
		h.source.Subscribe(symbols)
	}
}

// Publish sends a quote to the hub for distribution. This is
// non-blocking; if the internal buffer is full, the quote is dropped.
func (h *Hub) Publish(quote models.StreamQuote) {
	select {
	case h.quoteChan <- quote:
	default:
		h.metricsMu.Lock()
		h.quotesDropped++
		h.metricsMu.Unlock()
	}
}

// PublishWithTimeout sends a quote, waiting up to the given timeout
// (or the configured BroadcastTimeout when zero). Returns true if the
// quote was accepted.
func (h *Hub) PublishWithTimeout(quote models.StreamQuote, timeout time.Duration) bool {
	if timeout <= 0 {
		timeout = h.config.BroadcastTimeout
	}
	select {
	case h.quoteChan <- quote:
		return true
	case <-time.After(timeout):
		h.metricsMu.Lock()
		h.quotesDropped++
		h.metricsMu.Unlock()
		return false
	}
}

// broadcast sends a quote to all subscribers of that symbol. Uses
// non-blocking sends so slow consumers cannot block others.
func (h *Hub) broadcast(quote models.StreamQuote) {
	h.mu.RLock()
	subs := h.subscribers[quote.Symbol]
	h.mu.RUnlock()

	for _, sub := range subs {
		select {
		case sub.Channel <- quote:
			h.metricsMu.Lock()
			h.quotesBroadcast++
			h.metricsMu.Unlock()
		default:
			// Skip slow consumers - non-blocking
			sub.DroppedCount++
			h.metricsMu.Lock()
			h.quotesDropped++
			h.metricsMu.Unlock()
		}
	}
}

// BroadcastAll sends a quote to all subscribers regardless of symbol.
func (h *Hub) BroadcastAll(quote models.StreamQuote) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, subs := range h.subscribers {
		for _, sub := range subs {
			select {
			case sub.Channel <- quote:
			default:
				sub.DroppedCount++
			}
		}
	}
}

// GetSubscriberCount returns the number of subscribers for a symbol.
func (h *Hub) GetSubscriberCount(symbol string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers[symbol])
}

// GetTotalSubscriberCount returns the total number of subscribers
// across all symbols.
func (h *Hub) GetTotalSubscriberCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	count := 0
	for _, subs := range h.subscribers {
		count += len(subs)
	}
	return count
}

// GetSubscribedSymbols returns all symbols with active subscribers.
func (h *Hub) GetSubscribedSymbols() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.subscribedSymbolsLocked()
}

func (h *Hub) subscribedSymbolsLocked() []string {
	symbols := make([]string, 0, len(h.subscribers))
	for symbol := range h.subscribers {
		symbols = append(symbols, symbol)
	}
	return symbols
}

// GetMetrics returns hub metrics.
func (h *Hub) GetMetrics() HubMetrics {
	h.metricsMu.RLock()
	defer h.metricsMu.RUnlock()

	return HubMetrics{
		QuotesReceived:  h.quotesReceived,
		QuotesBroadcast: h.quotesBroadcast,
		QuotesDropped:   h.quotesDropped,
		Subscribers:     h.GetTotalSubscriberCount(),
		Symbols:         len(h.GetSubscribedSymbols()),
	}
}

// HubMetrics contains hub performance metrics.
type HubMetrics struct {
	QuotesReceived  uint64
	QuotesBroadcast uint64
	QuotesDropped   uint64
	Subscribers     int
	Symbols         int
}

// IsStarted returns whether the hub is running.
func (h *Hub) IsStarted() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.started
}

// Consumer represents a quote consumer that processes live quotes.
type Consumer interface {
	// OnQuote is called when a new quote is received.
	OnQuote(quote models.StreamQuote)
	// Symbols returns the symbols this consumer is interested in.
	// Return nil or an empty slice to receive all quotes.
	Symbols() []string
}

// RegisterConsumer adds a consumer to receive quotes.
func (h *Hub) RegisterConsumer(consumer Consumer) {
	h.consumersMu.Lock()
	h.consumers = append(h.consumers, consumer)
	h.consumersMu.Unlock()
}

// UnregisterConsumer removes a consumer.
func (h *Hub) UnregisterConsumer(consumer Consumer) {
	h.consumersMu.Lock()
	defer h.consumersMu.Unlock()

	for i, c := range h.consumers {
		if c == consumer {
			h.consumers = append(h.consumers[:i], h.consumers[i+1:]...)
			break
		}
	}
}

// notifyConsumers sends a quote to all registered consumers. Each
// consumer is notified in a separate goroutine to prevent blocking.
func (h *Hub) notifyConsumers(quote models.StreamQuote) {
	h.consumersMu.RLock()
	consumers := make([]Consumer, len(h.consumers))
	copy(consumers, h.consumers)
	h.consumersMu.RUnlock()

	for _, consumer := range consumers {
		symbols := consumer.Symbols()
		if len(symbols) == 0 || containsSymbol(symbols, quote.Symbol) {
			go consumer.OnQuote(quote)
		}
	}
}

// containsSymbol checks if a symbol is in the list.
func containsSymbol(symbols []string, symbol string) bool {
	for _, s := range symbols {
		if s == symbol {
			return true
		}
	}
	return false
}

// ConsumerFunc is a function adapter for the Consumer interface.
type ConsumerFunc struct {
	symbols   []string
	onQuoteFn func(models.StreamQuote)
}

// NewConsumerFunc creates a new ConsumerFunc.
func NewConsumerFunc(symbols []string, onQuote func(models.StreamQuote)) *ConsumerFunc {
	return &ConsumerFunc{
		symbols:   symbols,
		onQuoteFn: onQuote,
	}
}

// OnQuote implements Consumer.
func (c *ConsumerFunc) OnQuote(quote models.StreamQuote) {
	if c.onQuoteFn != nil {
		c.onQuoteFn(quote)
	}
}

// Symbols implements Consumer.
func (c *ConsumerFunc) Symbols() []string {
	return c.symbols
}

package stream

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"starkterm/internal/models"
)

// Property: For any number of subscribers and any quote burst, all
// subscribers should receive the quotes within a reasonable timeout,
// unless they are slow consumers (in which case quotes may be dropped
// to prevent blocking).
func TestProperty_AllSubscribersReceiveQuotesWithinTimeout(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 20
	parameters.Rng.Seed(time.Now().UnixNano())

	properties := gopter.NewProperties(parameters)

	symbols := []string{"AAPL", "MSFT", "NVDA", "TSLA", "SPY"}

	subscriberCountGen := gen.IntRange(1, 5)
	quoteCountGen := gen.IntRange(1, 20)
	symbolIdxGen := gen.IntRange(0, len(symbols)-1)
	priceGen := gen.Float64Range(10.0, 1000.0)

	properties.Property("All fast subscribers receive all quotes within timeout", prop.ForAll(
		func(subscriberCount int, quoteCount int, symbolIdx int, basePrice float64) bool {
			symbol := symbols[symbolIdx]

			// Large buffers to avoid drops
			config := HubConfig{
				BufferSize:           1000,
				SubscriberBufferSize: 100,
				BroadcastTimeout:     100 * time.Millisecond,
			}
			hub := NewHubWithConfig(config)

			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			hub.Start(ctx)
			defer hub.Stop()

			var wg sync.WaitGroup
			receivedCounts := make([]int64, subscriberCount)

			channels := make([]<-chan models.StreamQuote, subscriberCount)
			for i := 0; i < subscriberCount; i++ {
				channels[i] = hub.Subscribe(symbol)
			}

			for i := 0; i < subscriberCount; i++ {
				wg.Add(1)
				go func(idx int, ch <-chan models.StreamQuote) {
					defer wg.Done()
					timeout := time.After(5 * time.Second)
					for {
						select {
						case _, ok := <-ch:
							if !ok {
								return
							}
							atomic.AddInt64(&receivedCounts[idx], 1)
							if atomic.LoadInt64(&receivedCounts[idx]) >= int64(quoteCount) {
								return
							}
						case <-timeout:
							return
						}
					}
				}(i, channels[i])
			}

			// Give subscribers time to set up
			time.Sleep(10 * time.Millisecond)

			for i := 0; i < quoteCount; i++ {
				quote := models.StreamQuote{
					Symbol:    symbol,
					Price:     basePrice + float64(i)*0.05,
					High:      basePrice * 1.02,
					Low:       basePrice * 0.98,
					Volume:    10000,
					Timestamp: time.Now().Format(time.RFC3339),
				}
				hub.Publish(quote)
				time.Sleep(1 * time.Millisecond)
			}

			wg.Wait()

			for i := 0; i < subscriberCount; i++ {
				received := atomic.LoadInt64(&receivedCounts[i])
				if received != int64(quoteCount) {
					// Allow for some dropped quotes due to timing;
					// at least 90% should be received
					if float64(received)/float64(quoteCount) < 0.9 {
						return false
					}
				}
			}

			return true
		},
		subscriberCountGen,
		quoteCountGen,
		symbolIdxGen,
		priceGen,
	))

	properties.TestingRun(t)
}

// Property: A subscriber that never drains its channel must not stop a
// fast subscriber on the same symbol from receiving quotes.
func TestProperty_SlowConsumersDoNotBlockOthers(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 20
	parameters.Rng.Seed(time.Now().UnixNano())

	properties := gopter.NewProperties(parameters)

	symbols := []string{"AAPL", "MSFT", "NVDA"}

	properties.Property("Slow consumers do not block fast consumers", prop.ForAll(
		func(symbolIdx int, basePrice float64) bool {
			symbol := symbols[symbolIdx%len(symbols)]

			// Small subscriber buffer to trigger slow consumer drops
			config := HubConfig{
				BufferSize:           100,
				SubscriberBufferSize: 5,
				BroadcastTimeout:     1 * time.Millisecond,
			}
			hub := NewHubWithConfig(config)

			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			hub.Start(ctx)
			defer hub.Stop()

			fastCh := hub.Subscribe(symbol)
			var fastReceived int64

			// Slow subscriber that never reads from its channel
			_ = hub.Subscribe(symbol)

			var wg sync.WaitGroup
			wg.Add(1)
			go func() {
				defer wg.Done()
				timeout := time.After(2 * time.Second)
				for {
					select {
					case _, ok := <-fastCh:
						if !ok {
							return
						}
						atomic.AddInt64(&fastReceived, 1)
						if atomic.LoadInt64(&fastReceived) >= 10 {
							return
						}
					case <-timeout:
						return
					}
				}
			}()

			// Give subscriber time to set up
			time.Sleep(10 * time.Millisecond)

			for i := 0; i < 20; i++ {
				quote := models.StreamQuote{
					Symbol:    symbol,
					Price:     basePrice + float64(i)*0.05,
					Timestamp: time.Now().Format(time.RFC3339),
				}
				hub.Publish(quote)
			}

			wg.Wait()

			return atomic.LoadInt64(&fastReceived) > 0
		},
		gen.IntRange(0, 2),
		gen.Float64Range(10.0, 1000.0),
	))

	properties.TestingRun(t)
}

// Property: A subscriber only ever sees quotes for the symbol it
// subscribed to.
func TestProperty_SubscribersReceiveOnlyTheirSymbol(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 20
	parameters.Rng.Seed(time.Now().UnixNano())

	properties := gopter.NewProperties(parameters)

	symbols := []string{"AAPL", "MSFT", "NVDA", "TSLA", "SPY"}

	properties.Property("Subscribers only receive quotes for their subscribed symbol", prop.ForAll(
		func(subscribedSymbolIdx int, publishedSymbolIdx int) bool {
			subscribedSymbol := symbols[subscribedSymbolIdx%len(symbols)]
			publishedSymbol := symbols[publishedSymbolIdx%len(symbols)]

			hub := NewHub()
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			hub.Start(ctx)
			defer hub.Stop()

			ch := hub.Subscribe(subscribedSymbol)

			var received int64
			var receivedSymbol string
			var mu sync.Mutex

			var wg sync.WaitGroup
			wg.Add(1)
			go func() {
				defer wg.Done()
				timeout := time.After(500 * time.Millisecond)
				select {
				case quote, ok := <-ch:
					if ok {
						atomic.AddInt64(&received, 1)
						mu.Lock()
						receivedSymbol = quote.Symbol
						mu.Unlock()
					}
				case <-timeout:
				}
			}()

			// Give subscriber time to set up
			time.Sleep(10 * time.Millisecond)

			hub.Publish(models.StreamQuote{
				Symbol:    publishedSymbol,
				Price:     100.0,
				Timestamp: time.Now().Format(time.RFC3339),
			})

			wg.Wait()

			if atomic.LoadInt64(&received) > 0 {
				mu.Lock()
				defer mu.Unlock()
				return receivedSymbol == subscribedSymbol
			}

			// No quote received: only acceptable when symbols differ
			return subscribedSymbol != publishedSymbol
		},
		gen.IntRange(0, 4),
		gen.IntRange(0, 4),
	))

	properties.TestingRun(t)
}

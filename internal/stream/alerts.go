package stream

import (
	"strconv"
	"strings"
	"sync"
	"time"

	apperrors "starkterm/internal/errors"
	"starkterm/internal/models"
	"starkterm/internal/notify"
)

// AlertMonitor watches live quotes for armed price alerts.
// It implements the Consumer interface to receive quotes from the Hub.
//
// An alert fires once when its threshold is crossed and stays quiet while
// the price remains on the far side. It re-arms as soon as the price
// crosses back, so the next crossing fires again.
type AlertMonitor struct {
	notifier  notify.Notifier
	alerts    map[string][]*AlertState
	mu        sync.RWMutex
	onTrigger func(*models.PriceAlert, models.StreamQuote)
}

// AlertState holds the runtime state of one armed alert.
type AlertState struct {
	Alert       *models.PriceAlert
	LastChecked time.Time
	Triggers    int
}

// NewAlertMonitor creates a new alert monitor.
func NewAlertMonitor(notifier notify.Notifier) *AlertMonitor {
	return &AlertMonitor{
		notifier: notifier,
		alerts:   make(map[string][]*AlertState),
	}
}

// SetOnTrigger sets a callback invoked after each alert fires.
func (m *AlertMonitor) SetOnTrigger(fn func(*models.PriceAlert, models.StreamQuote)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onTrigger = fn
}

// Arm adds an alert to monitor.
func (m *AlertMonitor) Arm(alert *models.PriceAlert) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.alerts[alert.Symbol] = append(m.alerts[alert.Symbol], &AlertState{Alert: alert})
}

// Alerts returns all armed alerts.
func (m *AlertMonitor) Alerts() []*models.PriceAlert {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var alerts []*models.PriceAlert
	for _, states := range m.alerts {
		for _, state := range states {
			alerts = append(alerts, state.Alert)
		}
	}
	return alerts
}

// AlertCount returns the number of armed alerts.
func (m *AlertMonitor) AlertCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	count := 0
	for _, states := range m.alerts {
		count += len(states)
	}
	return count
}

// TriggerCount returns the total number of times any alert has fired.
func (m *AlertMonitor) TriggerCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	count := 0
	for _, states := range m.alerts {
		for _, state := range states {
			count += state.Triggers
		}
	}
	return count
}

// OnQuote implements the Consumer interface.
func (m *AlertMonitor) OnQuote(quote models.StreamQuote) {
	m.Check(quote)
}

// Symbols implements the Consumer interface. Only quotes for symbols
// with armed alerts are delivered.
func (m *AlertMonitor) Symbols() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	symbols := make([]string, 0, len(m.alerts))
	for symbol := range m.alerts {
		symbols = append(symbols, symbol)
	}
	return symbols
}

// Check evaluates all alerts for the quote's symbol.
func (m *AlertMonitor) Check(quote models.StreamQuote) {
	var fired []models.PriceAlert

	m.mu.Lock()
	onTrigger := m.onTrigger
	for _, state := range m.alerts[quote.Symbol] {
		state.LastChecked = time.Now()
		alert := state.Alert

		// A directionless alert arms against the first quote seen;
		// that quote only sets the direction.
		if alert.Condition == "" {
			if quote.Price < alert.Price {
				alert.Condition = models.AlertAbove
			} else {
				alert.Condition = models.AlertBelow
			}
			continue
		}

		if !alert.Triggered && alert.Check(quote.Price) {
			alert.Triggered = true
			now := time.Now()
			alert.TriggeredAt = &now
			state.Triggers++
			fired = append(fired, *alert)
			continue
		}

		// Re-arm once the price crosses back over the threshold
		if alert.Triggered && !alert.Check(quote.Price) {
			alert.Triggered = false
		}
	}
	m.mu.Unlock()

	for i := range fired {
		if m.notifier != nil {
			m.notifier.SendAlert(&fired[i], quote)
		}
		if onTrigger != nil {
			onTrigger(&fired[i], quote)
		}
	}
}

var _ Consumer = (*AlertMonitor)(nil)

// ParseAlertSpec parses a price alert flag value. "AAPL>250" and
// "AAPL<250" pin the trigger direction; "AAPL:250" leaves it to be
// inferred from the first live quote.
func ParseAlertSpec(spec string) (*models.PriceAlert, error) {
	spec = strings.TrimSpace(spec)

	var symbol, price string
	var condition models.AlertCondition

	switch {
	case strings.ContainsRune(spec, '>'):
		parts := strings.SplitN(spec, ">", 2)
		symbol, price = parts[0], parts[1]
		condition = models.AlertAbove
	case strings.ContainsRune(spec, '<'):
		parts := strings.SplitN(spec, "<", 2)
		symbol, price = parts[0], parts[1]
		condition = models.AlertBelow
	case strings.ContainsRune(spec, ':'):
		parts := strings.SplitN(spec, ":", 2)
		symbol, price = parts[0], parts[1]
	default:
		return nil, apperrors.NewValidationError("alert", spec, "expected SYMBOL>PRICE, SYMBOL<PRICE or SYMBOL:PRICE")
	}

	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return nil, apperrors.NewValidationError("alert", spec, "symbol is required")
	}

	target, err := strconv.ParseFloat(strings.TrimSpace(price), 64)
	if err != nil || target <= 0 {
		return nil, apperrors.NewValidationError("alert", spec, "price must be a positive number")
	}

	return &models.PriceAlert{
		Symbol:    symbol,
		Condition: condition,
		Price:     target,
		CreatedAt: time.Now(),
	}, nil
}

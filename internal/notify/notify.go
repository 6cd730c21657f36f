// Package notify raises terminal notifications for price alerts armed
// during a live watch session.
package notify

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"starkterm/internal/logging"
	"starkterm/internal/models"
)

// Notifier receives triggered price alerts.
type Notifier interface {
	SendAlert(alert *models.PriceAlert, quote models.StreamQuote)
}

// AlertEvent is one alert trigger together with the quote that tripped it.
type AlertEvent struct {
	Alert     models.PriceAlert
	Quote     models.StreamQuote
	Timestamp time.Time
}

// TerminalNotifier prints alert lines to the terminal and rings the bell
// so a trigger is noticed even when the session is in another window.
// With an overlay attached the line is rendered by the live view instead
// of being printed directly.
type TerminalNotifier struct {
	out     io.Writer
	logger  zerolog.Logger
	overlay *Overlay
	mu      sync.Mutex
	bell    bool
	color   bool
}

// NewTerminalNotifier creates a terminal notifier writing to out.
func NewTerminalNotifier(out io.Writer, logger zerolog.Logger) *TerminalNotifier {
	return &TerminalNotifier{
		out:    out,
		logger: logger,
		bell:   true,
		color:  true,
	}
}

// SetBellEnabled enables or disables the terminal bell.
func (tn *TerminalNotifier) SetBellEnabled(enabled bool) {
	tn.mu.Lock()
	defer tn.mu.Unlock()
	tn.bell = enabled
}

// SetColorEnabled enables or disables colored output.
func (tn *TerminalNotifier) SetColorEnabled(enabled bool) {
	tn.mu.Lock()
	defer tn.mu.Unlock()
	tn.color = enabled
}

// AttachOverlay routes triggered alerts into an overlay for live views.
func (tn *TerminalNotifier) AttachOverlay(overlay *Overlay) {
	tn.mu.Lock()
	defer tn.mu.Unlock()
	tn.overlay = overlay
}

// SendAlert implements the Notifier interface.
func (tn *TerminalNotifier) SendAlert(alert *models.PriceAlert, quote models.StreamQuote) {
	tn.mu.Lock()
	out, overlay := tn.out, tn.overlay
	bell, color := tn.bell, tn.color
	tn.mu.Unlock()

	event := AlertEvent{
		Alert:     *alert,
		Quote:     quote,
		Timestamp: time.Now(),
	}

	if bell {
		fmt.Fprint(out, "\a")
	}
	if overlay != nil {
		overlay.Add(event)
	} else {
		fmt.Fprintln(out, FormatAlertLine(event, color))
	}

	logging.LogAlert(tn.logger, alert.Symbol, string(alert.Condition), alert.Price)
}

// FormatAlertLine formats one alert trigger for terminal display.
func FormatAlertLine(event AlertEvent, colorEnabled bool) string {
	var color, reset string
	if colorEnabled {
		color = "\033[33m" // Yellow
		reset = "\033[0m"
	}

	var distance float64
	if event.Alert.Price != 0 {
		distance = (event.Quote.Price - event.Alert.Price) / event.Alert.Price * 100
	}

	return fmt.Sprintf("%s[%s] ALERT %s %s %s%s | last %s (%+.2f%%)",
		color,
		event.Timestamp.Format("15:04:05"),
		event.Alert.Symbol,
		event.Alert.Condition,
		dollars(event.Alert.Price),
		reset,
		dollars(event.Quote.Price),
		distance,
	)
}

// dollars formats a dollar amount with thousands grouping.
func dollars(v float64) string {
	negative := v < 0
	if negative {
		v = -v
	}

	str := fmt.Sprintf("%.2f", v)
	parts := strings.Split(str, ".")
	intPart := parts[0]
	for i := len(intPart) - 3; i > 0; i -= 3 {
		intPart = intPart[:i] + "," + intPart[i:]
	}

	result := "$" + intPart + "." + parts[1]
	if negative {
		result = "-" + result
	}
	return result
}

// NoOpNotifier discards alerts. Used when a session has none armed.
type NoOpNotifier struct{}

// NewNoOpNotifier creates a new NoOpNotifier.
func NewNoOpNotifier() *NoOpNotifier {
	return &NoOpNotifier{}
}

// SendAlert does nothing.
func (n *NoOpNotifier) SendAlert(alert *models.PriceAlert, quote models.StreamQuote) {}

var (
	_ Notifier = (*TerminalNotifier)(nil)
	_ Notifier = (*NoOpNotifier)(nil)
)

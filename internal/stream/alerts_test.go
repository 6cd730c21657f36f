package stream

import (
	"fmt"
	"sync"
	"testing"

	"starkterm/internal/models"
)

// recordingNotifier captures fired alerts for assertions.
type recordingNotifier struct {
	mu    sync.Mutex
	fired []string
}

func (r *recordingNotifier) SendAlert(alert *models.PriceAlert, quote models.StreamQuote) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fired = append(r.fired, fmt.Sprintf("%s %s %.2f at %.2f", alert.Symbol, alert.Condition, alert.Price, quote.Price))
}

func (r *recordingNotifier) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.fired)
}

func quoteAt(symbol string, price float64) models.StreamQuote {
	return models.StreamQuote{Symbol: symbol, Price: price}
}

func TestAlertFiresOncePerCrossing(t *testing.T) {
	notifier := &recordingNotifier{}
	monitor := NewAlertMonitor(notifier)
	monitor.Arm(&models.PriceAlert{Symbol: "AAPL", Condition: models.AlertAbove, Price: 250.0})

	// Test 1: No fire below the threshold
	monitor.Check(quoteAt("AAPL", 248.0))
	if notifier.count() != 0 {
		t.Errorf("Expected no fire at 248, got %d", notifier.count())
	}

	// Test 2: Crossing fires exactly once
	monitor.Check(quoteAt("AAPL", 251.0))
	monitor.Check(quoteAt("AAPL", 252.0))
	monitor.Check(quoteAt("AAPL", 255.0))
	if notifier.count() != 1 {
		t.Errorf("Expected 1 fire while above threshold, got %d", notifier.count())
	}

	// Test 3: Dropping back re-arms without firing
	monitor.Check(quoteAt("AAPL", 249.0))
	if notifier.count() != 1 {
		t.Errorf("Expected no fire on re-arm, got %d", notifier.count())
	}

	// Test 4: The next crossing fires again
	monitor.Check(quoteAt("AAPL", 250.5))
	if notifier.count() != 2 {
		t.Errorf("Expected 2 fires after second crossing, got %d", notifier.count())
	}
	if monitor.TriggerCount() != 2 {
		t.Errorf("Expected trigger count 2, got %d", monitor.TriggerCount())
	}

	t.Logf("Alert crossing test passed: %v", notifier.fired)
}

func TestAlertBelowCondition(t *testing.T) {
	notifier := &recordingNotifier{}
	monitor := NewAlertMonitor(notifier)
	monitor.Arm(&models.PriceAlert{Symbol: "TSLA", Condition: models.AlertBelow, Price: 200.0})

	monitor.Check(quoteAt("TSLA", 205.0))
	monitor.Check(quoteAt("TSLA", 199.5))
	monitor.Check(quoteAt("TSLA", 195.0))

	if notifier.count() != 1 {
		t.Errorf("Expected 1 fire below threshold, got %d", notifier.count())
	}

	t.Logf("Below condition test passed")
}

func TestAlertDirectionInference(t *testing.T) {
	notifier := &recordingNotifier{}
	monitor := NewAlertMonitor(notifier)

	// Test 1: Price below the target infers an above alert
	above := &models.PriceAlert{Symbol: "NVDA", Price: 130.0}
	monitor.Arm(above)
	monitor.Check(quoteAt("NVDA", 120.0))
	if above.Condition != models.AlertAbove {
		t.Errorf("Expected inferred condition above, got %q", above.Condition)
	}
	if notifier.count() != 0 {
		t.Errorf("Arming quote must not fire, got %d fires", notifier.count())
	}

	// Test 2: The inferred alert fires on crossing
	monitor.Check(quoteAt("NVDA", 131.0))
	if notifier.count() != 1 {
		t.Errorf("Expected inferred alert to fire, got %d", notifier.count())
	}

	// Test 3: Price above the target infers a below alert
	below := &models.PriceAlert{Symbol: "SPY", Price: 500.0}
	monitor.Arm(below)
	monitor.Check(quoteAt("SPY", 510.0))
	if below.Condition != models.AlertBelow {
		t.Errorf("Expected inferred condition below, got %q", below.Condition)
	}

	t.Logf("Direction inference test passed")
}

func TestAlertMonitorSymbols(t *testing.T) {
	notifier := &recordingNotifier{}
	monitor := NewAlertMonitor(notifier)
	monitor.Arm(&models.PriceAlert{Symbol: "AAPL", Condition: models.AlertAbove, Price: 250.0})
	monitor.Arm(&models.PriceAlert{Symbol: "MSFT", Condition: models.AlertBelow, Price: 400.0})
	monitor.Arm(&models.PriceAlert{Symbol: "AAPL", Condition: models.AlertBelow, Price: 230.0})

	symbols := monitor.Symbols()
	if len(symbols) != 2 {
		t.Errorf("Expected 2 symbols, got %v", symbols)
	}
	if monitor.AlertCount() != 3 {
		t.Errorf("Expected 3 armed alerts, got %d", monitor.AlertCount())
	}

	// Quotes for unrelated symbols are ignored
	monitor.Check(quoteAt("GOOGL", 99999.0))
	if notifier.count() != 0 {
		t.Errorf("Unrelated symbol must not fire, got %d", notifier.count())
	}

	t.Logf("Symbols test passed: monitoring %v", symbols)
}

func TestParseAlertSpec(t *testing.T) {
	// Test 1: Explicit directions
	alert, err := ParseAlertSpec("aapl>250.50")
	if err != nil {
		t.Fatalf("ParseAlertSpec failed: %v", err)
	}
	if alert.Symbol != "AAPL" || alert.Condition != models.AlertAbove || alert.Price != 250.50 {
		t.Errorf("Unexpected alert: %+v", alert)
	}

	alert, err = ParseAlertSpec("TSLA<200")
	if err != nil {
		t.Fatalf("ParseAlertSpec failed: %v", err)
	}
	if alert.Condition != models.AlertBelow || alert.Price != 200.0 {
		t.Errorf("Unexpected alert: %+v", alert)
	}

	// Test 2: Colon form leaves the direction open
	alert, err = ParseAlertSpec("NVDA:130")
	if err != nil {
		t.Fatalf("ParseAlertSpec failed: %v", err)
	}
	if alert.Condition != "" {
		t.Errorf("Expected open condition, got %q", alert.Condition)
	}

	// Test 3: Invalid specs are rejected
	invalid := []string{"AAPL", "AAPL>", ">250", "AAPL>-5", "AAPL>abc", ":250"}
	for _, spec := range invalid {
		if _, err := ParseAlertSpec(spec); err == nil {
			t.Errorf("Expected error for spec %q", spec)
		}
	}

	t.Logf("Alert spec parsing test passed")
}

package resilience

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestCircuitBreaker_OpensAfterFailures(t *testing.T) {
	cb := NewCircuitBreaker("backend", CircuitBreakerConfig{
		FailureThreshold: 3,
		SuccessThreshold: 1,
		Timeout:          100 * time.Millisecond,
	})

	ctx := context.Background()
	failing := errors.New("connection refused")

	// Test 1: Failures below the threshold keep the circuit closed
	for i := 0; i < 2; i++ {
		if err := cb.Execute(ctx, func() error { return failing }); !errors.Is(err, failing) {
			t.Fatalf("Expected wrapped failure, got %v", err)
		}
	}
	if cb.State() != CircuitClosed {
		t.Errorf("Expected CLOSED after 2 failures, got %s", cb.State())
	}

	// Test 2: Hitting the threshold opens the circuit
	if err := cb.Execute(ctx, func() error { return failing }); !errors.Is(err, failing) {
		t.Fatalf("Expected wrapped failure, got %v", err)
	}
	if cb.State() != CircuitOpen {
		t.Errorf("Expected OPEN after 3 failures, got %s", cb.State())
	}
	if cb.Cooldown() <= 0 {
		t.Error("Expected positive cooldown while open")
	}

	// Test 3: Requests are rejected without invoking the function
	called := false
	err := cb.Execute(ctx, func() error {
		called = true
		return nil
	})
	if !errors.Is(err, ErrCircuitOpen) {
		t.Errorf("Expected ErrCircuitOpen, got %v", err)
	}
	if called {
		t.Error("Function should not run while circuit is open")
	}

	// Test 4: After the timeout a probe is admitted and success closes the circuit
	time.Sleep(120 * time.Millisecond)
	if err := cb.Execute(ctx, func() error { return nil }); err != nil {
		t.Fatalf("Probe request failed: %v", err)
	}
	if cb.State() != CircuitClosed {
		t.Errorf("Expected CLOSED after successful probe, got %s", cb.State())
	}
	if cb.Cooldown() != 0 {
		t.Errorf("Expected zero cooldown when closed, got %v", cb.Cooldown())
	}

	stats := cb.Stats()
	if stats.TotalRejected != 1 {
		t.Errorf("Expected 1 rejected request, got %d", stats.TotalRejected)
	}
}

func TestCircuitBreaker_HalfOpenFailureReopens(t *testing.T) {
	cb := NewCircuitBreaker("backend", CircuitBreakerConfig{
		FailureThreshold: 1,
		SuccessThreshold: 2,
		Timeout:          50 * time.Millisecond,
	})

	ctx := context.Background()
	failing := errors.New("boom")

	cb.Execute(ctx, func() error { return failing })
	if cb.State() != CircuitOpen {
		t.Fatalf("Expected OPEN, got %s", cb.State())
	}

	time.Sleep(70 * time.Millisecond)

	// Probe fails: straight back to open
	cb.Execute(ctx, func() error { return failing })
	if cb.State() != CircuitOpen {
		t.Errorf("Expected OPEN after failed probe, got %s", cb.State())
	}
}

func TestExecuteWithResult(t *testing.T) {
	cb := NewCircuitBreaker("backend", DefaultCircuitBreakerConfig())
	ctx := context.Background()

	value, err := ExecuteWithResult(cb, ctx, func() (int, error) {
		return 42, nil
	})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if value != 42 {
		t.Errorf("Expected 42, got %d", value)
	}

	failing := errors.New("bad response")
	_, err = ExecuteWithResult(cb, ctx, func() (int, error) {
		return 0, failing
	})
	if !errors.Is(err, failing) {
		t.Errorf("Expected wrapped failure, got %v", err)
	}
}

func TestCircuitBreaker_ContextCancellation(t *testing.T) {
	cb := NewCircuitBreaker("backend", DefaultCircuitBreakerConfig())

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	err := cb.Execute(ctx, func() error {
		time.Sleep(200 * time.Millisecond)
		return nil
	})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Expected DeadlineExceeded, got %v", err)
	}

	stats := cb.Stats()
	if stats.TotalTimeouts != 1 {
		t.Errorf("Expected 1 timeout recorded, got %d", stats.TotalTimeouts)
	}
}

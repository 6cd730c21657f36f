package api

import (
	"encoding/json"
	"fmt"
	"reflect"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"starkterm/internal/models"
)

// Property tests for list envelope normalization. The backend answers
// list endpoints with a counted object, a bare array or null depending
// on the route; every shape must decode to the same slice.

func signalGen() gopter.Gen {
	return gen.Struct(reflect.TypeOf(models.Signal{}), map[string]gopter.Gen{
		"Type":      gen.OneConstOf("BUY", "SELL"),
		"Indicator": gen.OneConstOf("RSI_OVERSOLD", "RSI_OVERBOUGHT", "MACD_BULLISH_CROSS", "GOLDEN_CROSS", "BB_LOWER_TOUCH"),
		"Strength":  gen.Float64Range(0, 100),
		"Value":     gen.Float64Range(-500, 500),
	})
}

func TestListPayloadProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("wrapped and bare encodings decode to the same slice", prop.ForAll(
		func(signals []models.Signal) bool {
			items, err := json.Marshal(signals)
			if err != nil {
				return false
			}
			wrapped := []byte(fmt.Sprintf(`{"symbol":"AAPL","count":%d,"signals":%s}`, len(signals), items))

			var fromWrapped, fromBare listPayload[models.Signal]
			fromWrapped.Key, fromBare.Key = "signals", "signals"
			if err := json.Unmarshal(wrapped, &fromWrapped); err != nil {
				return false
			}
			if err := json.Unmarshal(items, &fromBare); err != nil {
				return false
			}
			return reflect.DeepEqual(fromWrapped.Items, fromBare.Items)
		},
		gen.SliceOf(signalGen()),
	))

	properties.Property("order is preserved", prop.ForAll(
		func(signals []models.Signal) bool {
			items, _ := json.Marshal(signals)
			payload := listPayload[models.Signal]{Key: "signals"}
			if err := json.Unmarshal(items, &payload); err != nil {
				return false
			}
			if len(payload.Items) != len(signals) {
				return false
			}
			for i := range signals {
				if payload.Items[i] != signals[i] {
					return false
				}
			}
			return true
		},
		gen.SliceOf(signalGen()),
	))

	properties.Property("decoded items are never nil", prop.ForAll(
		func(body string) bool {
			payload := listPayload[models.Signal]{Key: "signals"}
			if err := json.Unmarshal([]byte(body), &payload); err != nil {
				return false
			}
			return payload.Items != nil && len(payload.Items) == 0
		},
		gen.OneConstOf(
			`null`,
			`[]`,
			`{"count":0,"signals":[]}`,
			`{"count":0,"signals":null}`,
			`{"count":0}`,
			`{"symbol":"AAPL"}`,
		),
	))

	properties.TestingRun(t)
}

func TestListPayloadKeyedEnvelope(t *testing.T) {
	// Test 1: the per-endpoint key selects the right array
	payload := listPayload[models.WatchlistEntry]{Key: "symbols"}
	body := []byte(`{"count":2,"symbols":[{"symbol":"AAPL","notes":"a"},{"symbol":"MSFT","notes":"b"}],"signals":[{"type":"BUY"}]}`)
	if err := json.Unmarshal(body, &payload); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if len(payload.Items) != 2 || payload.Items[1].Symbol != "MSFT" {
		t.Errorf("Unexpected items: %+v", payload.Items)
	}

	// Test 2: a wrong-typed keyed value is an error, not silence
	payload = listPayload[models.WatchlistEntry]{Key: "symbols"}
	if err := json.Unmarshal([]byte(`{"symbols":"oops"}`), &payload); err == nil {
		t.Error("Expected error for non-array keyed value")
	}

	t.Logf("Keyed envelope test passed")
}

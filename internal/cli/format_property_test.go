// Package cli provides the command-line interface for the terminal client.
package cli

import (
	"math"
	"regexp"
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// For any amount, FormatUSCurrency should:
// 1. Start with $ (or -$ for negative)
// 2. Have exactly 2 decimal places
// 3. Group the integer part by threes with commas
// 4. Preserve the numeric value when parsed back
func TestProperty_USCurrencyFormatting(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	// Property: FormatUSCurrency produces valid grouped format
	properties.Property("FormatUSCurrency produces valid grouped format", prop.ForAll(
		func(amount float64) bool {
			// Skip NaN and Inf
			if math.IsNaN(amount) || math.IsInf(amount, 0) {
				return true
			}

			// Limit to reasonable range to avoid floating point issues
			if math.Abs(amount) > 1e15 {
				return true
			}

			formatted := FormatUSCurrency(amount)

			// 1. Must start with $ (or -$ for negative)
			if amount >= 0 {
				if !strings.HasPrefix(formatted, "$") {
					t.Logf("Expected $ prefix for %f, got %s", amount, formatted)
					return false
				}
			} else {
				if !strings.HasPrefix(formatted, "-$") {
					t.Logf("Expected -$ prefix for %f, got %s", amount, formatted)
					return false
				}
			}

			// 2. Must have exactly 2 decimal places
			parts := strings.Split(formatted, ".")
			if len(parts) != 2 {
				t.Logf("Expected decimal point for %f, got %s", amount, formatted)
				return false
			}
			if len(parts[1]) != 2 {
				t.Logf("Expected 2 decimal places for %f, got %s", amount, formatted)
				return false
			}

			// 3. Verify thousands grouping pattern
			numPart := strings.TrimPrefix(formatted, "-")
			numPart = strings.TrimPrefix(numPart, "$")
			numPart = strings.Split(numPart, ".")[0]

			groupedPattern := regexp.MustCompile(`^\d{1,3}(,\d{3})*$`)
			if !groupedPattern.MatchString(numPart) {
				t.Logf("Invalid grouping for %f: %s (numPart: %s)", amount, formatted, numPart)
				return false
			}

			return true
		},
		gen.Float64Range(-1e12, 1e12),
	))

	// Property: FormatUSCurrency preserves value (round-trip)
	properties.Property("FormatUSCurrency preserves value", prop.ForAll(
		func(amount float64) bool {
			// Skip NaN and Inf
			if math.IsNaN(amount) || math.IsInf(amount, 0) {
				return true
			}

			// Limit to reasonable range
			if math.Abs(amount) > 1e12 {
				return true
			}

			formatted := FormatUSCurrency(amount)

			// Parse back the value
			parsed := parseUSCurrency(formatted)

			// Should be equal within 2 decimal places (due to formatting)
			roundedAmount := math.Round(amount*100) / 100
			diff := math.Abs(parsed - roundedAmount)

			if diff > 0.01 {
				t.Logf("Value not preserved: original=%f, formatted=%s, parsed=%f", amount, formatted, parsed)
				return false
			}

			return true
		},
		gen.Float64Range(-1e9, 1e9),
	))

	// Property: FormatUSCurrency handles small amounts
	properties.Property("FormatUSCurrency handles small amounts", prop.ForAll(
		func(amount float64) bool {
			// Amounts less than 1000 need no comma
			formatted := FormatUSCurrency(amount)

			if amount >= 0 {
				if !strings.HasPrefix(formatted, "$") {
					return false
				}
			}
			if strings.Contains(formatted, ",") {
				t.Logf("Unexpected comma for %f: %s", amount, formatted)
				return false
			}

			parts := strings.Split(formatted, ".")
			return len(parts) == 2 && len(parts[1]) == 2
		},
		gen.Float64Range(0, 999.99),
	))

	// Property: FormatPercent produces correct format
	properties.Property("FormatPercent produces correct format", prop.ForAll(
		func(value float64) bool {
			if math.IsNaN(value) || math.IsInf(value, 0) {
				return true
			}

			formatted := FormatPercent(value)

			// Must end with %
			if !strings.HasSuffix(formatted, "%") {
				t.Logf("Expected %% suffix for %f, got %s", value, formatted)
				return false
			}

			// Positive values should have + prefix
			if value > 0 && !strings.HasPrefix(formatted, "+") {
				t.Logf("Expected + prefix for positive %f, got %s", value, formatted)
				return false
			}

			return true
		},
		gen.Float64Range(-100, 100),
	))

	// Property: FormatCompact uses correct units
	properties.Property("FormatCompact uses correct units", prop.ForAll(
		func(amount float64) bool {
			if math.IsNaN(amount) || math.IsInf(amount, 0) {
				return true
			}

			formatted := FormatCompact(amount)
			absAmount := math.Abs(amount)

			switch {
			case absAmount >= 1e12:
				if !strings.HasSuffix(formatted, "T") {
					t.Logf("Expected T for %f, got %s", amount, formatted)
					return false
				}
			case absAmount >= 1e9:
				if !strings.HasSuffix(formatted, "B") {
					t.Logf("Expected B for %f, got %s", amount, formatted)
					return false
				}
			case absAmount >= 1e6:
				if !strings.HasSuffix(formatted, "M") {
					t.Logf("Expected M for %f, got %s", amount, formatted)
					return false
				}
			default:
				// Should be regular currency format
				if !strings.HasPrefix(formatted, "$") && !strings.HasPrefix(formatted, "-$") {
					t.Logf("Expected $ for %f, got %s", amount, formatted)
					return false
				}
			}

			return true
		},
		gen.Float64Range(-1e13, 1e13),
	))

	// Property: FormatVolume uses correct units
	properties.Property("FormatVolume uses correct units", prop.ForAll(
		func(volume int64) bool {
			if volume < 0 {
				volume = -volume
			}

			formatted := FormatVolume(volume)

			switch {
			case volume >= 1e9:
				if !strings.HasSuffix(formatted, "B") {
					t.Logf("Expected B for %d, got %s", volume, formatted)
					return false
				}
			case volume >= 1e6:
				if !strings.HasSuffix(formatted, "M") {
					t.Logf("Expected M for %d, got %s", volume, formatted)
					return false
				}
			case volume >= 1e3:
				if !strings.HasSuffix(formatted, "K") {
					t.Logf("Expected K for %d, got %s", volume, formatted)
					return false
				}
			}

			return true
		},
		gen.Int64Range(0, 1e12),
	))

	// Property: TruncateString never exceeds the limit
	properties.Property("TruncateString never exceeds the limit", prop.ForAll(
		func(s string, maxLen int) bool {
			truncated := TruncateString(s, maxLen)
			if len(truncated) > len(s) {
				t.Logf("Truncation grew the string: %q -> %q", s, truncated)
				return false
			}
			if len(s) > maxLen && len(truncated) != maxLen {
				t.Logf("Expected length %d for %q, got %q", maxLen, s, truncated)
				return false
			}
			return true
		},
		gen.AlphaString(),
		gen.IntRange(0, 40),
	))

	// Property: padding helpers produce exact widths
	properties.Property("padding helpers produce exact widths", prop.ForAll(
		func(s string, length int) bool {
			if len(s) > length {
				return true
			}
			return len(PadLeft(s, length)) == length &&
				len(PadRight(s, length)) == length &&
				len(Center(s, length)) == length
		},
		gen.AlphaString(),
		gen.IntRange(0, 60),
	))

	properties.TestingRun(t)
}

// parseUSCurrency parses a formatted dollar string back to float64
func parseUSCurrency(s string) float64 {
	// Check for negative
	negative := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")

	// Remove $ symbol and commas
	s = strings.TrimPrefix(s, "$")
	s = strings.ReplaceAll(s, ",", "")

	// Parse the number
	var parsed float64
	for i, c := range s {
		if c == '.' {
			// Parse decimal part
			decPart := s[i+1:]
			for j, d := range decPart {
				if d >= '0' && d <= '9' {
					parsed += float64(d-'0') / math.Pow(10, float64(j+1))
				}
			}
			break
		}
		if c >= '0' && c <= '9' {
			parsed = parsed*10 + float64(c-'0')
		}
	}

	if negative {
		parsed = -parsed
	}

	return parsed
}

// TestUSCurrencyExamples tests specific examples of dollar formatting
func TestUSCurrencyExamples(t *testing.T) {
	testCases := []struct {
		amount   float64
		expected string
	}{
		{0, "$0.00"},
		{1, "$1.00"},
		{10, "$10.00"},
		{100, "$100.00"},
		{1000, "$1,000.00"},
		{10000, "$10,000.00"},
		{100000, "$100,000.00"},
		{1000000, "$1,000,000.00"},
		{-1234.56, "-$1,234.56"},
		{12345678.90, "$12,345,678.90"},
	}

	for _, tc := range testCases {
		t.Run(tc.expected, func(t *testing.T) {
			result := FormatUSCurrency(tc.amount)
			if result != tc.expected {
				t.Errorf("FormatUSCurrency(%f) = %s, want %s", tc.amount, result, tc.expected)
			}
		})
	}
}

// TestFormatPercentExamples tests specific examples of percentage formatting
func TestFormatPercentExamples(t *testing.T) {
	testCases := []struct {
		value    float64
		expected string
	}{
		{0, "0.00%"},
		{1.5, "+1.50%"},
		{-2.5, "-2.50%"},
		{100, "+100.00%"},
		{-100, "-100.00%"},
	}

	for _, tc := range testCases {
		t.Run(tc.expected, func(t *testing.T) {
			result := FormatPercent(tc.value)
			if result != tc.expected {
				t.Errorf("FormatPercent(%f) = %s, want %s", tc.value, result, tc.expected)
			}
		})
	}
}

// TestFormatVolumeExamples tests volume formatting boundaries
func TestFormatVolumeExamples(t *testing.T) {
	testCases := []struct {
		volume   int64
		expected string
	}{
		{0, "0"},
		{999, "999"},
		{1000, "1.00K"},
		{45200, "45.20K"},
		{1000000, "1.00M"},
		{52847392, "52.85M"},
		{1000000000, "1.00B"},
	}

	for _, tc := range testCases {
		t.Run(tc.expected, func(t *testing.T) {
			result := FormatVolume(tc.volume)
			if result != tc.expected {
				t.Errorf("FormatVolume(%d) = %s, want %s", tc.volume, result, tc.expected)
			}
		})
	}
}

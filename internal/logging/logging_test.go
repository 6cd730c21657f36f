package logging

import (
	"io"
	"os"
	"strings"
	"testing"
)

// Console logs must land on stderr: stdout carries command output and
// --json payloads, and a log line in the middle would corrupt them.
func TestConsoleLogsGoToStderr(t *testing.T) {
	origStdout, origStderr := os.Stdout, os.Stderr
	defer func() {
		os.Stdout = origStdout
		os.Stderr = origStderr
	}()

	outR, outW, err := os.Pipe()
	if err != nil {
		t.Fatalf("Failed to create stdout pipe: %v", err)
	}
	errR, errW, err := os.Pipe()
	if err != nil {
		t.Fatalf("Failed to create stderr pipe: %v", err)
	}
	os.Stdout = outW
	os.Stderr = errW

	logger := NewLoggerWithConfig(LogConfig{Level: "info", Console: true})
	logger.Info().Msg("quote stream connected")

	outW.Close()
	errW.Close()
	stdout, _ := io.ReadAll(outR)
	stderr, _ := io.ReadAll(errR)

	if len(stdout) != 0 {
		t.Errorf("Log output leaked to stdout: %q", stdout)
	}
	if !strings.Contains(string(stderr), "quote stream connected") {
		t.Errorf("Expected log line on stderr, got %q", stderr)
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]string{
		"debug":   "debug",
		"warn":    "warn",
		"ERROR":   "error",
		"unknown": "info",
		"":        "info",
	}
	for in, want := range cases {
		if got := parseLevel(in).String(); got != want {
			t.Errorf("parseLevel(%q) = %q, want %q", in, got, want)
		}
	}
}

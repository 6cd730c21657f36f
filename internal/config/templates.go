package config

import (
	"fmt"
	"os"
	"path/filepath"
)

const configTemplate = `# starkterm Configuration

[backend]
# Base URL of the StarkMatter trading API
base_url = "http://localhost:8000"
# WebSocket URL (derived from base_url when empty)
ws_url = ""
# Request timeout (e.g., "10s", "30s")
timeout = "10s"
# Retry attempts for idempotent requests
retry_attempts = 3

[cache]
# Enable the local SQLite cache
enabled = true
# How long cached candles stay fresh
ttl = "15m"
# Cache database path (default: <config dir>/starkterm.db)
path = ""

[stream]
# Base delay for reconnect backoff
reconnect_base = "1s"
# Maximum reconnect attempts (0 = retry forever)
reconnect_max = 0
# WebSocket ping interval
ping_interval = "30s"

[chart]
# Chart width in columns (0 = fit terminal)
width = 0
# Chart height in rows
height = 20
# Default overlays: sma20, sma50, ema12, ema26, bollinger
overlays = ["sma20", "sma50"]

[ui]
# Enable colored output
color_enabled = true
# Date format
date_format = "02-Jan-2006"
# Time format
time_format = "15:04:05"

[alerts]
# Enable price alerts during watch
enabled = true
# Ring the terminal bell on alert
bell = true
`

func createTemplateConfig(configDir, name string) error {
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	path := filepath.Join(configDir, name+".toml")
	if err := os.WriteFile(path, []byte(configTemplate), 0644); err != nil {
		return fmt.Errorf("writing config template: %w", err)
	}

	return fmt.Errorf("config file not found, created template at %s", path)
}

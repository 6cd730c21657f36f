package utils

import (
	"time"

	"starkterm/internal/models"
)

// EasternLocation is the timezone for US markets.
var EasternLocation *time.Location

func init() {
	var err error
	EasternLocation, err = time.LoadLocation("America/New_York")
	if err != nil {
		// Fallback to UTC-5
		EasternLocation = time.FixedZone("EST", -5*60*60)
	}
}

// GetMarketStatus returns the current US market status.
func GetMarketStatus() models.MarketStatus {
	now := time.Now().In(EasternLocation)

	// Check if weekend
	if now.Weekday() == time.Saturday || now.Weekday() == time.Sunday {
		return models.MarketClosed
	}

	hour := now.Hour()
	minute := now.Minute()
	timeMinutes := hour*60 + minute

	// Pre-market: 4:00 - 9:30
	if timeMinutes >= 240 && timeMinutes < 570 {
		return models.MarketPreMarket
	}

	// Regular session: 9:30 - 16:00
	if timeMinutes >= 570 && timeMinutes < 960 {
		return models.MarketOpen
	}

	// After-hours: 16:00 - 20:00
	if timeMinutes >= 960 && timeMinutes < 1200 {
		return models.MarketAfterHours
	}

	return models.MarketClosed
}

// GetNextMarketOpen returns the next regular session opening time.
func GetNextMarketOpen() time.Time {
	now := time.Now().In(EasternLocation)

	// Start with today at 9:30
	next := time.Date(now.Year(), now.Month(), now.Day(), 9, 30, 0, 0, EasternLocation)

	// If already past today's open, move to tomorrow
	if now.After(next) {
		next = next.AddDate(0, 0, 1)
	}

	// Skip weekends
	for next.Weekday() == time.Saturday || next.Weekday() == time.Sunday {
		next = next.AddDate(0, 0, 1)
	}

	return next
}

// GetMarketClose returns today's regular session close time.
func GetMarketClose() time.Time {
	now := time.Now().In(EasternLocation)
	return time.Date(now.Year(), now.Month(), now.Day(), 16, 0, 0, 0, EasternLocation)
}

// TimeUntilMarketClose returns the duration until the session close.
func TimeUntilMarketClose() time.Duration {
	return time.Until(GetMarketClose())
}

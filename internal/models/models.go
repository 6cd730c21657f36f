// Package models provides domain models for the terminal client.
package models

import (
	"time"
)

// OrderSide represents the side of a paper trade.
type OrderSide string

const (
	OrderSideBuy  OrderSide = "BUY"
	OrderSideSell OrderSide = "SELL"
)

// MarketStatus represents the current market status.
type MarketStatus string

const (
	MarketOpen       MarketStatus = "OPEN"
	MarketPreMarket  MarketStatus = "PRE_MARKET"
	MarketAfterHours MarketStatus = "AFTER_HOURS"
	MarketClosed     MarketStatus = "CLOSED"
)

// Candle represents one daily OHLCV bar as served by the backend.
// Date is an ISO date string (YYYY-MM-DD), which sorts lexically.
type Candle struct {
	Date     string  `json:"date"`
	Open     float64 `json:"open"`
	High     float64 `json:"high"`
	Low      float64 `json:"low"`
	Close    float64 `json:"close"`
	AdjClose float64 `json:"adj_close"`
	Volume   int64   `json:"volume"`
}

// Time parses the candle date. Returns the zero time on malformed input.
func (c Candle) Time() time.Time {
	t, err := time.Parse("2006-01-02", c.Date)
	if err != nil {
		return time.Time{}
	}
	return t
}

// Quote represents a REST quote snapshot (snake_case wire fields).
type Quote struct {
	Symbol           string  `json:"symbol"`
	Price            float64 `json:"price"`
	Open             float64 `json:"open"`
	High             float64 `json:"high"`
	Low              float64 `json:"low"`
	Volume           int64   `json:"volume"`
	MarketCap        float64 `json:"market_cap"`
	PERatio          float64 `json:"pe_ratio"`
	DividendYield    float64 `json:"dividend_yield"`
	FiftyTwoWeekHigh float64 `json:"fifty_two_week_high"`
	FiftyTwoWeekLow  float64 `json:"fifty_two_week_low"`
}

// StreamQuote represents a live quote frame from /ws/quotes.
// The stream uses camelCase field names, unlike the REST API.
type StreamQuote struct {
	Symbol        string  `json:"symbol"`
	Price         float64 `json:"price"`
	Change        float64 `json:"change"`
	ChangePercent float64 `json:"changePercent"`
	Volume        int64   `json:"volume"`
	Bid           float64 `json:"bid"`
	Ask           float64 `json:"ask"`
	High          float64 `json:"high"`
	Low           float64 `json:"low"`
	Timestamp     string  `json:"timestamp"`
}

// TradeTick represents one trade from /ws/trades/{symbol}.
type TradeTick struct {
	Symbol string  `json:"symbol"`
	Price  float64 `json:"price"`
	Size   int64   `json:"size"`
	Time   string  `json:"time"`
	Side   string  `json:"side"` // "buy" or "sell"
}

// NewsArticle represents a news item.
type NewsArticle struct {
	ID             int64   `json:"id"`
	Title          string  `json:"title"`
	Source         string  `json:"source"`
	URL            string  `json:"url"`
	Summary        string  `json:"summary"`
	Symbols        string  `json:"symbols"`
	SentimentScore float64 `json:"sentiment_score"`
	PublishedAt    string  `json:"published_at"`
}

// SentimentRow represents aggregated social sentiment for one
// symbol/subreddit pair.
type SentimentRow struct {
	ID             int64   `json:"id"`
	Symbol         string  `json:"symbol"`
	Subreddit      string  `json:"subreddit"`
	Mentions       int     `json:"mentions"`
	SentimentScore float64 `json:"sentiment_score"`
	BullishCount   int     `json:"bullish_count"`
	BearishCount   int     `json:"bearish_count"`
	CreatedAt      string  `json:"created_at"`
}

// Signal represents one technical buy/sell signal.
type Signal struct {
	Type      string  `json:"type"` // BUY or SELL
	Indicator string  `json:"indicator"`
	Strength  float64 `json:"strength"` // 0-100
	Value     float64 `json:"value"`
}

// WatchlistEntry represents one watchlist row.
type WatchlistEntry struct {
	Symbol  string `json:"symbol"`
	Notes   string `json:"notes"`
	AddedAt string `json:"added_at"`
}

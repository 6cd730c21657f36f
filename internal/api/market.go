package api

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	apperrors "starkterm/internal/errors"
	"starkterm/internal/models"
)

// HistoryRequest selects a slice of daily candle history.
type HistoryRequest struct {
	Symbol string
	Start  time.Time // zero value leaves the range open
	End    time.Time
	Limit  int // 0 uses the backend default of 100, capped at 1000
}

// GetQuote fetches the latest quote snapshot for a symbol.
func (c *Client) GetQuote(ctx context.Context, symbol string) (*models.Quote, error) {
	var quote models.Quote
	err := c.get(ctx, fmt.Sprintf("/api/market/quote/%s", symbol), nil, &quote)
	if err != nil {
		return nil, notFoundAs(err, apperrors.ErrQuoteNotFound)
	}
	return &quote, nil
}

// GetHistory fetches daily candles for a symbol, oldest first. The
// backend sends rows newest first; they are flipped into chronological
// order here so indicator math can consume them directly.
func (c *Client) GetHistory(ctx context.Context, req HistoryRequest) ([]models.Candle, error) {
	query := url.Values{}
	if !req.Start.IsZero() {
		query.Set("start_date", req.Start.Format("2006-01-02"))
	}
	if !req.End.IsZero() {
		query.Set("end_date", req.End.Format("2006-01-02"))
	}
	if req.Limit > 0 {
		query.Set("limit", strconv.Itoa(req.Limit))
	}

	payload := listPayload[models.Candle]{Key: "data"}
	err := c.get(ctx, fmt.Sprintf("/api/market/historical/%s", req.Symbol), query, &payload)
	if err != nil {
		return nil, notFoundAs(err, apperrors.ErrDataNotFound)
	}

	candles := payload.Items
	for i, j := 0, len(candles)-1; i < j; i, j = i+1, j-1 {
		candles[i], candles[j] = candles[j], candles[i]
	}
	return candles, nil
}

// GetNews fetches recent news articles, optionally filtered by symbol.
func (c *Client) GetNews(ctx context.Context, symbol string, limit int) ([]models.NewsArticle, error) {
	query := url.Values{}
	if symbol != "" {
		query.Set("symbol", symbol)
	}
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}

	payload := listPayload[models.NewsArticle]{Key: "articles"}
	if err := c.get(ctx, "/api/market/news", query, &payload); err != nil {
		return nil, err
	}
	return payload.Items, nil
}

// GetSentiment fetches aggregated social sentiment rows, optionally
// filtered by symbol. This endpoint returns a bare array.
func (c *Client) GetSentiment(ctx context.Context, symbol string) ([]models.SentimentRow, error) {
	query := url.Values{}
	if symbol != "" {
		query.Set("symbol", symbol)
	}

	payload := listPayload[models.SentimentRow]{Key: "sentiment"}
	if err := c.get(ctx, "/api/market/sentiment", query, &payload); err != nil {
		return nil, err
	}
	return payload.Items, nil
}

// GetSignals fetches the backend's technical signals for a symbol.
func (c *Client) GetSignals(ctx context.Context, symbol string) ([]models.Signal, error) {
	payload := listPayload[models.Signal]{Key: "signals"}
	err := c.get(ctx, fmt.Sprintf("/api/market/signals/%s", symbol), nil, &payload)
	if err != nil {
		return nil, err
	}
	return payload.Items, nil
}

// GetWatchlist fetches the watchlist, ordered by symbol.
func (c *Client) GetWatchlist(ctx context.Context) ([]models.WatchlistEntry, error) {
	payload := listPayload[models.WatchlistEntry]{Key: "symbols"}
	if err := c.get(ctx, "/api/market/watchlist", nil, &payload); err != nil {
		return nil, err
	}
	return payload.Items, nil
}

// AddToWatchlist adds a symbol to the watchlist with optional notes.
func (c *Client) AddToWatchlist(ctx context.Context, symbol, notes string) (*models.StatusReply, error) {
	query := url.Values{}
	if notes != "" {
		query.Set("notes", notes)
	}

	var reply models.StatusReply
	err := c.post(ctx, fmt.Sprintf("/api/market/watchlist/%s", symbol), query, nil, &reply)
	if err != nil {
		return nil, err
	}
	return &reply, nil
}

// RemoveFromWatchlist removes a symbol from the watchlist.
func (c *Client) RemoveFromWatchlist(ctx context.Context, symbol string) (*models.StatusReply, error) {
	var reply models.StatusReply
	err := c.del(ctx, fmt.Sprintf("/api/market/watchlist/%s", symbol), &reply)
	if err != nil {
		return nil, err
	}
	return &reply, nil
}

// ImportDaily triggers a daily market data import on the backend. With
// no symbols the backend falls back to its default list.
func (c *Client) ImportDaily(ctx context.Context, symbols []string) (*models.DailyImportResult, error) {
	query := url.Values{}
	for _, s := range symbols {
		query.Add("symbols", s)
	}

	var result models.DailyImportResult
	if err := c.post(ctx, "/api/market/import/daily", query, nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// ImportNews triggers a news feed import on the backend.
func (c *Client) ImportNews(ctx context.Context, limitPerSource int) (*models.NewsImportResult, error) {
	query := url.Values{}
	if limitPerSource > 0 {
		query.Set("limit_per_source", strconv.Itoa(limitPerSource))
	}

	var result models.NewsImportResult
	if err := c.post(ctx, "/api/market/import/news", query, nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// ImportReddit triggers a social sentiment import on the backend.
// Status is "skipped" when the backend has no Reddit credentials.
func (c *Client) ImportReddit(ctx context.Context, subreddits []string, limitPerSub int) (*models.RedditImportResult, error) {
	query := url.Values{}
	for _, s := range subreddits {
		query.Add("subreddits", s)
	}
	if limitPerSub > 0 {
		query.Set("limit_per_sub", strconv.Itoa(limitPerSub))
	}

	var result models.RedditImportResult
	if err := c.post(ctx, "/api/market/import/reddit", query, nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// ImportEconomic triggers an economic indicator import on the backend.
func (c *Client) ImportEconomic(ctx context.Context) (*models.EconomicImportResult, error) {
	var result models.EconomicImportResult
	if err := c.post(ctx, "/api/market/import/economic", nil, nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

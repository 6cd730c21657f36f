package api

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	apperrors "starkterm/internal/errors"
	"starkterm/internal/models"
)

// ListSymbolsRequest filters the symbol directory listing.
type ListSymbolsRequest struct {
	Exchange string
	Sector   string
	Offset   int
	Limit    int // 0 uses the backend default of 100, capped at 1000
}

// SearchSymbols searches the symbol directory by ticker or company name.
func (c *Client) SearchSymbols(ctx context.Context, q string, limit int) ([]models.SymbolInfo, error) {
	query := url.Values{}
	query.Set("q", q)
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}

	payload := listPayload[models.SymbolInfo]{Key: "symbols"}
	if err := c.get(ctx, "/api/symbols/search", query, &payload); err != nil {
		return nil, err
	}
	return payload.Items, nil
}

// ListSymbols fetches a filtered, paginated page of the symbol directory.
func (c *Client) ListSymbols(ctx context.Context, req ListSymbolsRequest) (*models.SymbolPage, error) {
	query := url.Values{}
	if req.Exchange != "" {
		query.Set("exchange", req.Exchange)
	}
	if req.Sector != "" {
		query.Set("sector", req.Sector)
	}
	if req.Offset > 0 {
		query.Set("offset", strconv.Itoa(req.Offset))
	}
	if req.Limit > 0 {
		query.Set("limit", strconv.Itoa(req.Limit))
	}

	var page models.SymbolPage
	if err := c.get(ctx, "/api/symbols/list", query, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// GetSectors fetches all known sectors.
func (c *Client) GetSectors(ctx context.Context) ([]string, error) {
	payload := listPayload[string]{Key: "sectors"}
	if err := c.get(ctx, "/api/symbols/sectors", nil, &payload); err != nil {
		return nil, err
	}
	return payload.Items, nil
}

// GetExchanges fetches all known exchanges.
func (c *Client) GetExchanges(ctx context.Context) ([]string, error) {
	payload := listPayload[string]{Key: "exchanges"}
	if err := c.get(ctx, "/api/symbols/exchanges", nil, &payload); err != nil {
		return nil, err
	}
	return payload.Items, nil
}

// GetSymbolStats fetches directory-wide symbol statistics.
func (c *Client) GetSymbolStats(ctx context.Context) (*models.SymbolStats, error) {
	var stats models.SymbolStats
	if err := c.get(ctx, "/api/symbols/stats", nil, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

// GetSymbol fetches details for one symbol.
func (c *Client) GetSymbol(ctx context.Context, symbol string) (*models.SymbolInfo, error) {
	var info models.SymbolInfo
	err := c.get(ctx, fmt.Sprintf("/api/symbols/%s", symbol), nil, &info)
	if err != nil {
		return nil, notFoundAs(err, apperrors.ErrSymbolNotFound)
	}
	return &info, nil
}

// ImportSymbols triggers a symbol universe import. Valid sources are
// sp500, nasdaq, dow and all.
func (c *Client) ImportSymbols(ctx context.Context, source string) (*models.SymbolImportResult, error) {
	var result models.SymbolImportResult
	err := c.post(ctx, fmt.Sprintf("/api/symbols/import/%s", source), nil, nil, &result)
	if err != nil {
		return nil, err
	}
	return &result, nil
}

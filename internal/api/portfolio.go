package api

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	apperrors "starkterm/internal/errors"
	"starkterm/internal/models"
)

// GetPortfolio fetches the complete portfolio with current valuations.
func (c *Client) GetPortfolio(ctx context.Context) (*models.PortfolioSummary, error) {
	var summary models.PortfolioSummary
	if err := c.get(ctx, "/api/portfolio/", nil, &summary); err != nil {
		return nil, err
	}
	return &summary, nil
}

// GetPositions fetches all portfolio positions.
func (c *Client) GetPositions(ctx context.Context) ([]models.Position, error) {
	payload := listPayload[models.Position]{Key: "positions"}
	if err := c.get(ctx, "/api/portfolio/positions", nil, &payload); err != nil {
		return nil, err
	}
	return payload.Items, nil
}

// GetPosition fetches one position with its current valuation.
func (c *Client) GetPosition(ctx context.Context, symbol string) (*models.Position, error) {
	var position models.Position
	err := c.get(ctx, fmt.Sprintf("/api/portfolio/positions/%s", symbol), nil, &position)
	if err != nil {
		return nil, notFoundAs(err, apperrors.ErrPositionNotFound)
	}
	return &position, nil
}

// AddPosition adds shares to a position, creating it if needed.
func (c *Client) AddPosition(ctx context.Context, req models.AddPositionRequest) (*models.AddPositionResult, error) {
	var result models.AddPositionResult
	if err := c.post(ctx, "/api/portfolio/positions", nil, req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// ClosePosition removes all shares of a position.
func (c *Client) ClosePosition(ctx context.Context, symbol string) (*models.ActionResult, error) {
	var result models.ActionResult
	err := c.del(ctx, fmt.Sprintf("/api/portfolio/positions/%s", symbol), &result)
	if err != nil {
		return nil, notFoundAs(err, apperrors.ErrPositionNotFound)
	}
	return &result, nil
}

// GetPaperAccount fetches the paper trading account.
func (c *Client) GetPaperAccount(ctx context.Context) (*models.PaperAccount, error) {
	var account models.PaperAccount
	if err := c.get(ctx, "/api/portfolio/paper/account", nil, &account); err != nil {
		return nil, err
	}
	return &account, nil
}

// GetPaperPerformance fetches paper trading performance metrics.
func (c *Client) GetPaperPerformance(ctx context.Context) (*models.PaperPerformance, error) {
	var perf models.PaperPerformance
	if err := c.get(ctx, "/api/portfolio/paper/performance", nil, &perf); err != nil {
		return nil, err
	}
	return &perf, nil
}

// PlacePaperTrade executes a simulated trade. The request is sent
// exactly once; a rejection carries the backend's reason verbatim and
// maps to ErrInsufficientFunds or ErrInsufficientShares where the
// reason is recognized.
func (c *Client) PlacePaperTrade(ctx context.Context, req models.PaperTradeRequest) (*models.PaperTradeResult, error) {
	var result models.PaperTradeResult
	if err := c.post(ctx, "/api/portfolio/paper/trade", nil, req, &result); err != nil {
		return nil, tradeError(err)
	}
	return &result, nil
}

// tradeError attaches a domain sentinel to a trade rejection based on
// the backend's reason. The detail text is preserved as sent.
func tradeError(err error) error {
	var apiErr *apperrors.APIError
	if apperrors.As(err, &apiErr) && apiErr.Status == 400 {
		switch {
		case strings.HasPrefix(apiErr.Detail, "Insufficient funds"):
			apiErr.Err = apperrors.ErrInsufficientFunds
		case strings.HasPrefix(apiErr.Detail, "Insufficient shares"):
			apiErr.Err = apperrors.ErrInsufficientShares
		default:
			apiErr.Err = apperrors.ErrTradeRejected
		}
	}
	return err
}

// GetPaperTrades fetches paper trade history, most recent first.
func (c *Client) GetPaperTrades(ctx context.Context, limit int) ([]models.TradeRecord, error) {
	query := url.Values{}
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}

	payload := listPayload[models.TradeRecord]{Key: "trades"}
	if err := c.get(ctx, "/api/portfolio/paper/trades", query, &payload); err != nil {
		return nil, err
	}
	return payload.Items, nil
}

// ResetPaperAccount wipes paper positions and trades and restores the
// balance. A non-positive starting balance uses the backend default.
func (c *Client) ResetPaperAccount(ctx context.Context, startingBalance float64) (*models.ActionResult, error) {
	query := url.Values{}
	if startingBalance > 0 {
		query.Set("starting_balance", strconv.FormatFloat(startingBalance, 'f', -1, 64))
	}

	var result models.ActionResult
	if err := c.post(ctx, "/api/portfolio/paper/reset", query, nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// ExportSummary fetches the portfolio summary as markdown, ready to
// paste into an external analysis prompt.
func (c *Client) ExportSummary(ctx context.Context) (string, error) {
	var env models.ExportSummary
	if err := c.get(ctx, "/api/portfolio/export/summary", nil, &env); err != nil {
		return "", err
	}
	return env.Markdown, nil
}

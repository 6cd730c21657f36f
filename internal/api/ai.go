package api

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	apperrors "starkterm/internal/errors"
	"starkterm/internal/models"
)

// ListTemplates fetches the analysis template catalog, optionally
// filtered by category.
func (c *Client) ListTemplates(ctx context.Context, category string) ([]models.PromptTemplate, error) {
	query := url.Values{}
	if category != "" {
		query.Set("category", category)
	}

	payload := listPayload[models.PromptTemplate]{Key: "templates"}
	if err := c.get(ctx, "/api/ai/templates", query, &payload); err != nil {
		return nil, err
	}
	return payload.Items, nil
}

// GetTemplate fetches full details for one template.
func (c *Client) GetTemplate(ctx context.Context, category, name string) (*models.TemplateInfo, error) {
	var info models.TemplateInfo
	err := c.get(ctx, fmt.Sprintf("/api/ai/templates/%s/%s", category, name), nil, &info)
	if err != nil {
		return nil, notFoundAs(err, apperrors.ErrDataNotFound)
	}
	return &info, nil
}

// RenderPrompt renders a template into a complete prompt, ready to
// paste into an external model.
func (c *Client) RenderPrompt(ctx context.Context, req models.RenderPromptRequest) (*models.RenderedPrompt, error) {
	var rendered models.RenderedPrompt
	err := c.post(ctx, "/api/ai/render-prompt", nil, req, &rendered)
	if err != nil {
		return nil, notFoundAs(err, apperrors.ErrDataNotFound)
	}
	return &rendered, nil
}

// ImportResponse stores a manually executed model response so the
// analysis lands in history alongside its prompt.
func (c *Client) ImportResponse(ctx context.Context, req models.ImportResponseRequest) (*models.ImportedAnalysis, error) {
	var imported models.ImportedAnalysis
	if err := c.post(ctx, "/api/ai/import-response", nil, req, &imported); err != nil {
		return nil, err
	}
	return &imported, nil
}

// GetAnalysisHistory fetches stored analyses, newest first, optionally
// filtered by symbol and category.
func (c *Client) GetAnalysisHistory(ctx context.Context, symbol, category string, limit int) ([]models.Analysis, error) {
	query := url.Values{}
	if symbol != "" {
		query.Set("symbol", symbol)
	}
	if category != "" {
		query.Set("category", category)
	}
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}

	payload := listPayload[models.Analysis]{Key: "analyses"}
	if err := c.get(ctx, "/api/ai/history", query, &payload); err != nil {
		return nil, err
	}
	return payload.Items, nil
}

// GetAnalysis fetches one stored analysis by ID.
func (c *Client) GetAnalysis(ctx context.Context, id int64) (*models.Analysis, error) {
	var analysis models.Analysis
	err := c.get(ctx, fmt.Sprintf("/api/ai/history/%d", id), nil, &analysis)
	if err != nil {
		return nil, notFoundAs(err, apperrors.ErrDataNotFound)
	}
	return &analysis, nil
}

// DeleteAnalysis deletes one stored analysis by ID.
func (c *Client) DeleteAnalysis(ctx context.Context, id int64) (*models.DeleteResult, error) {
	var result models.DeleteResult
	err := c.del(ctx, fmt.Sprintf("/api/ai/history/%d", id), &result)
	if err != nil {
		return nil, notFoundAs(err, apperrors.ErrDataNotFound)
	}
	return &result, nil
}

// GetAIHealth fetches the AI subsystem health report.
func (c *Client) GetAIHealth(ctx context.Context) (*models.AIHealth, error) {
	var health models.AIHealth
	if err := c.get(ctx, "/api/ai/health", nil, &health); err != nil {
		return nil, err
	}
	return &health, nil
}

package api

import (
	"context"

	"starkterm/internal/models"
)

// GetHealth checks backend liveness.
func (c *Client) GetHealth(ctx context.Context) (*models.Health, error) {
	var health models.Health
	if err := c.get(ctx, "/health", nil, &health); err != nil {
		return nil, err
	}
	return &health, nil
}

// GetInfo fetches the backend's root self-description.
func (c *Client) GetInfo(ctx context.Context) (*models.BackendInfo, error) {
	var info models.BackendInfo
	if err := c.get(ctx, "/", nil, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// GetDashboard fetches the combined dashboard view in one call.
func (c *Client) GetDashboard(ctx context.Context) (*models.Dashboard, error) {
	var dashboard models.Dashboard
	if err := c.get(ctx, "/api/dashboard", nil, &dashboard); err != nil {
		return nil, err
	}
	return &dashboard, nil
}

// GetSystemStatus fetches backend process information.
func (c *Client) GetSystemStatus(ctx context.Context) (*models.SystemStatus, error) {
	var status models.SystemStatus
	if err := c.get(ctx, "/api/system/status", nil, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// RestartServer asks the backend to restart itself.
func (c *Client) RestartServer(ctx context.Context) (*models.ServerAction, error) {
	var action models.ServerAction
	if err := c.post(ctx, "/api/system/restart", nil, nil, &action); err != nil {
		return nil, err
	}
	return &action, nil
}

// ShutdownServer asks the backend to shut down. There is no remote
// start; the reply from StartServer explains how to launch it.
func (c *Client) ShutdownServer(ctx context.Context) (*models.ServerAction, error) {
	var action models.ServerAction
	if err := c.post(ctx, "/api/system/shutdown", nil, nil, &action); err != nil {
		return nil, err
	}
	return &action, nil
}

// StartServer reports how to start the backend. Reaching this endpoint
// at all means the server is already running.
func (c *Client) StartServer(ctx context.Context) (*models.ServerAction, error) {
	var action models.ServerAction
	if err := c.post(ctx, "/api/system/start", nil, nil, &action); err != nil {
		return nil, err
	}
	return &action, nil
}

// Package api provides a typed client for the StarkMatter backend REST
// API. The backend wraps list payloads in inconsistent envelopes (bare
// arrays, {count, items} objects, keyed objects); each method unwraps
// its envelope and returns plain typed values so callers never deal
// with the wire shape.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"

	"starkterm/internal/config"
	apperrors "starkterm/internal/errors"
	"starkterm/internal/logging"
	"starkterm/internal/resilience"
	"starkterm/pkg/utils"
)

// Client is a StarkMatter backend client with retry and circuit breaker
// protection. Reads are retried with exponential backoff; mutations run
// exactly once so a trade or delete is never replayed.
type Client struct {
	rest    *resty.Client
	breaker *resilience.CircuitBreaker
	logger  zerolog.Logger
	retry   utils.RetryConfig
}

// NewClient creates a backend client from configuration.
func NewClient(cfg config.BackendConfig, logger zerolog.Logger) *Client {
	rest := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetTimeout(cfg.Timeout).
		SetHeader("Accept", "application/json")

	retryCfg := utils.DefaultRetryConfig()
	if cfg.RetryAttempts > 0 {
		retryCfg.MaxAttempts = cfg.RetryAttempts
	}

	return &Client{
		rest:    rest,
		breaker: resilience.NewCircuitBreaker("backend", resilience.DefaultCircuitBreakerConfig()),
		logger:  logger,
		retry:   retryCfg,
	}
}

// BreakerStats returns circuit breaker statistics for the status view.
func (c *Client) BreakerStats() resilience.CircuitBreakerStats {
	return c.breaker.Stats()
}

// get issues a GET request, retrying transient failures. Client errors
// (4xx) and an open circuit abort immediately.
func (c *Client) get(ctx context.Context, path string, query url.Values, out interface{}) error {
	var lastErr error
	for attempt := 0; attempt < c.retry.MaxAttempts; attempt++ {
		if attempt > 0 {
			delay := utils.CalculateBackoff(attempt-1, c.retry.InitialDelay, c.retry.MaxDelay, c.retry.BackoffFactor)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}

		lastErr = c.do(ctx, http.MethodGet, path, query, nil, out)
		if lastErr == nil {
			return nil
		}
		if !retryable(lastErr) {
			return lastErr
		}
	}
	return lastErr
}

// post issues a POST request exactly once. Backend verdicts such as a
// rejected paper trade must not be replayed.
func (c *Client) post(ctx context.Context, path string, query url.Values, body, out interface{}) error {
	return c.do(ctx, http.MethodPost, path, query, body, out)
}

// del issues a DELETE request exactly once.
func (c *Client) del(ctx context.Context, path string, out interface{}) error {
	return c.do(ctx, http.MethodDelete, path, nil, nil, out)
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out interface{}) error {
	start := time.Now()

	// A 4xx is a verdict from a healthy backend, so it must not count
	// toward the breaker's failure threshold. It is carried out of the
	// breaker separately.
	var verdict error

	err := c.breaker.Execute(ctx, func() error {
		req := c.rest.R().SetContext(ctx)
		if len(query) > 0 {
			req.SetQueryParamsFromValues(query)
		}
		if body != nil {
			req.SetHeader("Content-Type", "application/json").SetBody(body)
		}

		resp, err := req.Execute(method, path)
		if err != nil {
			return apperrors.Wrapf(apperrors.ErrBackendUnavailable, "%s %s: %v", method, path, err)
		}
		if resp.StatusCode() != http.StatusOK {
			apiErr := apperrors.NewAPIError(resp.StatusCode(), path, parseDetail(resp.Body()), nil)
			if resp.StatusCode() >= http.StatusInternalServerError {
				return apiErr
			}
			verdict = apiErr
			return nil
		}
		if out == nil {
			return nil
		}
		if err := json.Unmarshal(resp.Body(), out); err != nil {
			return fmt.Errorf("failed to decode %s response: %w", path, err)
		}
		return nil
	})

	if err == nil {
		err = verdict
	}

	logging.LogAPICall(c.logger, method, path, time.Since(start), err)
	return err
}

// parseDetail extracts the message from a FastAPI error body. The
// detail field is usually a string but validation errors carry a list,
// and a misrouted request may not be JSON at all.
func parseDetail(body []byte) string {
	var env struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(body, &env); err == nil && len(env.Detail) > 0 {
		var s string
		if json.Unmarshal(env.Detail, &s) == nil {
			return s
		}
		return string(env.Detail)
	}
	detail := strings.TrimSpace(string(body))
	if len(detail) > 300 {
		detail = detail[:300]
	}
	return detail
}

// retryable reports whether a failed GET is worth another attempt.
// Backend verdicts (4xx), an open circuit and cancelled contexts are
// final; connection failures and 5xx responses are transient.
func retryable(err error) bool {
	if apperrors.Is(err, resilience.ErrCircuitOpen) {
		return false
	}
	if apperrors.Is(err, context.Canceled) || apperrors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var apiErr *apperrors.APIError
	if apperrors.As(err, &apiErr) {
		return apiErr.Status >= 500
	}
	return true
}

// notFoundAs attaches a domain sentinel to a backend 404 so callers can
// match it with errors.Is. Other errors pass through unchanged.
func notFoundAs(err, sentinel error) error {
	var apiErr *apperrors.APIError
	if apperrors.As(err, &apiErr) && apiErr.IsNotFound() {
		apiErr.Err = sentinel
	}
	return err
}

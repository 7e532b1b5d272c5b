// Package backend is the typed HTTP client for the FreshPress backend
// API. All portal reads and writes go through it; it owns the auth
// header, the circuit breaker and retry policy, and the normalization
// of the backend's uneven response envelopes.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/freshpress/portal-bff-go/internal/domain"
	"github.com/freshpress/portal-bff-go/internal/infra/resilience"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("backend")

// Client talks to the backend API at a single base URL.
type Client struct {
	httpClient *http.Client
	baseURL    string
	cb         *gobreaker.CircuitBreaker
	cfg        resilience.Config
	bulkhead   *resilience.Bulkhead
	logger     *zap.Logger
}

// NewClient creates a backend API client.
func NewClient(httpClient *http.Client, baseURL string, cb *gobreaker.CircuitBreaker, cfg resilience.Config, logger *zap.Logger) *Client {
	maxConc := cfg.MaxConcurrency
	if maxConc <= 0 {
		maxConc = 50
	}
	return &Client{
		httpClient: httpClient,
		baseURL:    baseURL,
		cb:         cb,
		cfg:        cfg,
		bulkhead:   resilience.NewBulkhead(maxConc),
		logger:     logger,
	}
}

// BaseURL exposes the configured backend origin (the realtime channel
// connects to the same origin).
func (c *Client) BaseURL() string { return c.baseURL }

// Ping checks backend reachability for the readiness probe. It goes
// around the breaker so probes keep reporting while the breaker is
// open.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/health", nil)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)
	if resp.StatusCode >= 500 {
		return fmt.Errorf("backend health returned status %d", resp.StatusCode)
	}
	return nil
}

// ============================================================
// Request plumbing
// ============================================================

// getJSON performs an idempotent GET with retry + circuit breaker and
// decodes the canonical payload into out (out may be nil).
func (c *Client) getJSON(ctx context.Context, credential, path string, out any) (*Envelope, error) {
	var env *Envelope
	_, err := c.cb.Execute(func() (any, error) {
		return nil, resilience.RetryWithBackoff(ctx, c.cfg, func() error {
			e, err := c.do(ctx, http.MethodGet, credential, path, nil)
			if err != nil {
				return err
			}
			env = e
			return nil
		})
	})
	if err != nil {
		return nil, c.mapError("GET "+path, err)
	}
	if out != nil {
		if err := env.PayloadInto(out); err != nil {
			return nil, fmt.Errorf("decode %s: %w", path, err)
		}
	}
	return env, nil
}

// sendJSON performs a non-idempotent write (POST/PUT/PATCH/DELETE).
// Writes go through the circuit breaker but are never retried: the
// backend is the authority on duplicates.
func (c *Client) sendJSON(ctx context.Context, method, credential, path string, body, out any) (*Envelope, error) {
	var reqBody io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		reqBody = bytes.NewReader(raw)
	}

	var env *Envelope
	_, err := c.cb.Execute(func() (any, error) {
		e, err := c.do(ctx, method, credential, path, reqBody)
		if err != nil {
			return nil, err
		}
		env = e
		return nil, nil
	})
	if err != nil {
		return nil, c.mapError(method+" "+path, err)
	}
	if out != nil {
		if err := env.PayloadInto(out); err != nil {
			return nil, fmt.Errorf("decode %s: %w", path, err)
		}
	}
	return env, nil
}

// do issues one HTTP request and parses the response envelope.
// Non-2xx statuses are returned as typed domain errors so the callers
// and the handler layer can branch on them.
func (c *Client) do(ctx context.Context, method, credential, path string, body io.Reader) (*Envelope, error) {
	if err := c.bulkhead.Acquire(ctx); err != nil {
		return nil, err
	}
	defer c.bulkhead.Release()

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if credential != "" {
		req.Header.Set("Authorization", "Bearer "+credential)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("backend: request failed",
			zap.String("method", method),
			zap.String("path", path),
			zap.Error(err),
		)
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	env, envErr := ParseEnvelope(raw)

	if resp.StatusCode == http.StatusUnauthorized {
		return nil, &domain.ErrSessionExpired{}
	}
	if resp.StatusCode == http.StatusNotFound {
		return nil, &domain.ErrNotFound{Resource: "resource", ID: path}
	}
	if resp.StatusCode == http.StatusConflict {
		return nil, &domain.ErrConflict{Message: env.ErrMessage("resource already exists")}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Warn("backend: non-2xx",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", resp.StatusCode),
			zap.String("body", string(raw)),
		)
		// Business-rule rejections carry the server's message verbatim.
		return nil, &domain.ErrBackendRejected{Status: resp.StatusCode, Message: env.ErrMessage("")}
	}
	if envErr != nil {
		return nil, fmt.Errorf("parse response for %s: %w", path, envErr)
	}

	c.logger.Debug("backend: OK", zap.String("method", method), zap.String("path", path))
	return env, nil
}

// mapError wraps transport-level failures; typed domain errors pass
// through untouched so 401s still converge on a session logout.
func (c *Client) mapError(op string, err error) error {
	switch err.(type) {
	case *domain.ErrSessionExpired, *domain.ErrNotFound, *domain.ErrConflict, *domain.ErrBackendRejected:
		return err
	}
	if err == gobreaker.ErrOpenState || err == gobreaker.ErrTooManyRequests {
		return &domain.ErrCircuitOpen{Service: "backend"}
	}
	return &domain.ErrExternalService{Service: "backend", Err: fmt.Errorf("%s: %w", op, err)}
}

// Package backend is the REST client for the Rongsox backend API.
//
// Every call carries the bearer token found in its context (see
// auth.WithToken), passes through a circuit breaker and returns domain
// errors whose messages are safe to show in a toast.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/rotisserie/eris"
	"github.com/sony/gobreaker"

	"github.com/rongsox/dashboard/internal/auth"
	"github.com/rongsox/dashboard/internal/domain"
	"github.com/rongsox/dashboard/internal/metrics"
)

const maxResponseBytes = 8 << 20

// Config configures the client and its circuit breaker.
type Config struct {
	BaseURL string
	Timeout time.Duration

	// BreakerFailures consecutive failures open the breaker. It stays open
	// for BreakerTimeout, then lets BreakerMaxRequests trial requests through.
	BreakerFailures    uint32
	BreakerTimeout     time.Duration
	BreakerInterval    time.Duration
	BreakerMaxRequests uint32

	// HTTPClient overrides the default client; Timeout is ignored when set.
	HTTPClient *http.Client
}

// DefaultConfig returns sensible defaults for a backend at baseURL.
func DefaultConfig(baseURL string) Config {
	return Config{
		BaseURL:            baseURL,
		Timeout:            10 * time.Second,
		BreakerFailures:    5,
		BreakerTimeout:     30 * time.Second,
		BreakerInterval:    60 * time.Second,
		BreakerMaxRequests: 1,
	}
}

// Client talks to the backend API.
type Client struct {
	baseURL *url.URL
	http    *http.Client
	breaker *gobreaker.CircuitBreaker
	logger  *slog.Logger
}

// New creates a backend client.
func New(cfg Config, logger *slog.Logger) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, eris.New("backend base URL is required")
	}
	base, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, eris.Wrap(err, "parse backend base URL")
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, eris.New("backend base URL must be http or https")
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	failures := cfg.BreakerFailures
	if failures == 0 {
		failures = 5
	}

	c := &Client{
		baseURL: base,
		http:    httpClient,
		logger:  logger.With("component", "backend"),
	}

	c.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "backend",
		MaxRequests: cfg.BreakerMaxRequests,
		Interval:    cfg.BreakerInterval,
		Timeout:     cfg.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		IsSuccessful: countsAsSuccess,
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			c.logger.Warn("circuit breaker state changed",
				"breaker", name,
				"from", from.String(),
				"to", to.String(),
			)
			switch to {
			case gobreaker.StateClosed:
				metrics.SetBreakerState(metrics.BreakerClosed)
			case gobreaker.StateHalfOpen:
				metrics.SetBreakerState(metrics.BreakerHalfOpen)
			case gobreaker.StateOpen:
				metrics.SetBreakerState(metrics.BreakerOpen)
			}
		},
	})

	return c, nil
}

// countsAsSuccess keeps rejected requests (4xx) and cancelled callers from
// tripping the breaker. Only an unhealthy backend should.
func countsAsSuccess(err error) bool {
	if err == nil {
		return true
	}
	var se *StatusError
	if errors.As(err, &se) {
		return se.Status < http.StatusInternalServerError
	}
	return errors.Is(err, context.Canceled)
}

// request describes one backend call.
type request struct {
	method      string
	path        []string
	query       url.Values
	body        []byte
	contentType string
}

func get(path ...string) request {
	return request{method: http.MethodGet, path: path}
}

func jsonRequest(method string, payload any, path ...string) (request, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return request{}, eris.Wrap(err, "encode request body")
	}
	return request{method: method, path: path, body: body, contentType: "application/json"}, nil
}

// envelope is the success body shape: {data} or {data, paging}.
type envelope[T any] struct {
	Data T `json:"data"`
}

// do executes r and decodes the JSON body into out (when non-nil).
func (c *Client) do(ctx context.Context, op string, r request, out any) error {
	res, err := c.breaker.Execute(func() (interface{}, error) {
		return c.send(ctx, op, r)
	})
	if err != nil {
		return c.mapError(op, err)
	}
	if out == nil {
		return nil
	}
	payload, _ := res.([]byte)
	if len(bytes.TrimSpace(payload)) == 0 {
		return nil
	}
	if err := json.Unmarshal(payload, out); err != nil {
		c.logger.Error("backend response decode failed", "op", op, "error", err)
		return domain.Internal(eris.Wrap(err, "decode "+op+" response"), op, failureMessage(op))
	}
	return nil
}

func (c *Client) send(ctx context.Context, op string, r request) ([]byte, error) {
	escaped := make([]string, len(r.path))
	for i, seg := range r.path {
		escaped[i] = url.PathEscape(seg)
	}
	u := c.baseURL.JoinPath(escaped...)
	if len(r.query) > 0 {
		u.RawQuery = r.query.Encode()
	}

	var body io.Reader
	if r.body != nil {
		body = bytes.NewReader(r.body)
	}
	req, err := http.NewRequestWithContext(ctx, r.method, u.String(), body)
	if err != nil {
		return nil, eris.Wrap(err, "build "+op+" request")
	}
	req.Header.Set("Accept", "application/json")
	if r.contentType != "" {
		req.Header.Set("Content-Type", r.contentType)
	}
	if token := auth.BackendToken(ctx); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		metrics.ObserveBackendRequest(op, 0, time.Since(start))
		return nil, eris.Wrap(err, r.method+" "+u.Path)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	metrics.ObserveBackendRequest(op, resp.StatusCode, time.Since(start))
	if err != nil {
		return nil, eris.Wrap(err, "read "+op+" response")
	}

	c.logger.Debug("backend request",
		"op", op,
		"method", r.method,
		"path", u.Path,
		"status", resp.StatusCode,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, newStatusError(resp.StatusCode, payload)
	}
	return payload, nil
}

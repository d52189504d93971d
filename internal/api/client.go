package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"venezia-storefront/internal/cart"
	"venezia-storefront/internal/logger"
	"venezia-storefront/internal/metrics"

	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// TokenSource supplies the bearer credential for authenticated requests.
// The session store satisfies it; an empty token means anonymous.
type TokenSource interface {
	Token() string
}

// Client talks to the storefront backend. Outbound traffic is throttled and
// wrapped in a circuit breaker so a dead backend fails fast.
type Client struct {
	baseURL string
	http    *http.Client
	tokens  TokenSource
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker[*http.Response]
	stats   metrics.RequestStats
}

// Stats returns a snapshot of the client's traffic counters.
func (c *Client) Stats() metrics.Snapshot {
	return c.stats.Snapshot()
}

func NewClient(baseURL string, tokens TokenSource) *Client {
	cb := gobreaker.NewCircuitBreaker[*http.Response](gobreaker.Settings{
		Name:        "storefront-api",
		MaxRequests: 3,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.L().Warn("api circuit breaker state change",
				zap.String("name", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})

	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http: &http.Client{
			Timeout: 15 * time.Second,
		},
		tokens:  tokens,
		limiter: rate.NewLimiter(rate.Limit(20), 40),
		breaker: cb,
	}
}

// do issues one JSON request. 401 maps to ErrUnauthenticated, other non-2xx
// to *Error; 5xx responses also count as circuit breaker failures.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	raw, err := c.doRaw(ctx, method, path, body)
	if err != nil {
		return err
	}
	if out == nil || len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decoding %s %s response: %w", method, path, err)
	}
	return nil
}

// doList is do for list endpoints: the response body is normalized to a
// canonical array before decoding.
func (c *Client) doList(ctx context.Context, method, path string, body, out any) error {
	raw, err := c.doRaw(ctx, method, path, body)
	if err != nil {
		return err
	}
	list, err := normalizeList(raw)
	if err != nil {
		return fmt.Errorf("normalizing %s %s response: %w", method, path, err)
	}
	if err := json.Unmarshal(list, out); err != nil {
		return fmt.Errorf("decoding %s %s response: %w", method, path, err)
	}
	return nil
}

func (c *Client) doRaw(ctx context.Context, method, path string, body any) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	var reader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		reader = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.tokens.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	c.stats.Requests.Inc()
	timer := metrics.StartTimer()

	resp, err := c.breaker.Execute(func() (*http.Response, error) {
		resp, err := c.http.Do(req)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode >= http.StatusInternalServerError {
			defer resp.Body.Close()
			respBody, _ := io.ReadAll(resp.Body)
			return nil, newAPIError(resp.StatusCode, respBody)
		}
		return resp, nil
	})
	if err != nil {
		c.stats.Failures.Inc()
		logger.FromCtx(ctx).Error("api request failed",
			zap.String("method", method),
			zap.String("path", path),
			zap.Duration("duration", timer.Duration()),
			zap.Error(err),
		)
		return nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading %s %s response: %w", method, path, err)
	}

	if resp.StatusCode == http.StatusUnauthorized {
		c.stats.Rejected.Inc()
		return nil, ErrUnauthenticated
	}
	if resp.StatusCode >= http.StatusBadRequest {
		c.stats.Rejected.Inc()
		apiErr := newAPIError(resp.StatusCode, respBody)
		logger.FromCtx(ctx).Warn("api request rejected",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", apiErr.Status),
			zap.String("code", apiErr.Code),
		)
		return nil, apiErr
	}

	return respBody, nil
}

// The client is the concrete implementation behind the consumers'
// interfaces.
var _ cart.API = (*Client)(nil)

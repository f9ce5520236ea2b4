// Package polymarket provides clients for the two external collaborators:
// the data-API activity feed (wallet trades, funding, redemptions) and the
// Gamma market catalog (lifecycle and resolution metadata).
package polymarket

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

// ClientConfig holds the shared HTTP behavior of both API clients.
type ClientConfig struct {
	Timeout           time.Duration
	MaxRetries        int
	RetryDelayBase    time.Duration
	RequestsPerSecond float64
	PageSize          int
}

// apiClient is the shared request layer: rate-limited, retrying on server
// errors with linear backoff.
type apiClient struct {
	httpClient     *http.Client
	limiter        *rate.Limiter
	maxRetries     int
	retryDelayBase time.Duration
}

func newAPIClient(cfg ClientConfig) *apiClient {
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if cfg.RetryDelayBase <= 0 {
		cfg.RetryDelayBase = time.Second
	}
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = 5
	}
	burst := int(cfg.RequestsPerSecond)
	if burst < 1 {
		burst = 1
	}
	return &apiClient{
		httpClient:     &http.Client{Timeout: cfg.Timeout},
		limiter:        rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), burst),
		maxRetries:     cfg.MaxRetries,
		retryDelayBase: cfg.RetryDelayBase,
	}
}

// doRequest performs a rate-limited GET with retry on transient failures.
func (c *apiClient) doRequest(ctx context.Context, urlStr string) (*http.Response, error) {
	var lastErr error
	for i := 0; i < c.maxRetries; i++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, urlStr, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = err
			time.Sleep(c.retryDelayBase * time.Duration(i+1))
			continue
		}
		if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
			resp.Body.Close()
			lastErr = fmt.Errorf("server error: %d", resp.StatusCode)
			time.Sleep(c.retryDelayBase * time.Duration(i+1))
			continue
		}
		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			return nil, fmt.Errorf("unexpected status: %d", resp.StatusCode)
		}
		return resp, nil
	}
	return nil, fmt.Errorf("max retries exceeded: %w", lastErr)
}

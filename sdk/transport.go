package sdk

import (
	"context"
	"fmt"
	"io"
	"math"
	"math/rand"
	"net/http"
	"time"
)

// doRequestWithRetry performs an HTTP request with exponential backoff.
// Idempotent requests are retried on network errors and 5xx responses.
// POST is sent once so a lost response never creates a record twice.
func (c *Client) doRequestWithRetry(ctx context.Context, req *http.Request) (*http.Response, error) {
	attempts := c.RetryAttempts
	if !idempotent(req.Method) {
		attempts = 0
	}

	var resp *http.Response
	var err error

	for attempt := 0; attempt <= attempts; attempt++ {
		if attempt > 0 && req.GetBody != nil {
			body, berr := req.GetBody()
			if berr != nil {
				return nil, fmt.Errorf("failed to rewind request body: %w", berr)
			}
			req.Body = body
		}

		resp, err = c.HTTPClient.Do(req.WithContext(ctx))
		if err == nil && resp.StatusCode < 500 {
			return resp, nil
		}
		if attempt == attempts {
			break
		}

		drainAndCloseBody(resp)

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(c.calculateBackoff(attempt)):
		}
	}

	if err != nil {
		return nil, fmt.Errorf("request failed after %d attempts: %w", attempts+1, err)
	}

	// The caller decides whether a 5xx is final; the response is handed back open.
	return resp, fmt.Errorf("%w: status code %d", ErrServerError, resp.StatusCode)
}

// calculateBackoff calculates the backoff duration for a retry attempt.
// It uses exponential backoff with full jitter.
func (c *Client) calculateBackoff(attempt int) time.Duration {
	backoff := float64(c.RetryWaitMin) * math.Pow(2, float64(attempt))
	if backoff > float64(c.RetryWaitMax) {
		backoff = float64(c.RetryWaitMax)
	}
	return time.Duration(rand.Float64() * backoff)
}

func idempotent(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodPut, http.MethodDelete, http.MethodOptions:
		return true
	}
	return false
}

// drainAndCloseBody reads and closes the response body to ensure connection reuse.
func drainAndCloseBody(resp *http.Response) {
	if resp != nil && resp.Body != nil {
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
	}
}

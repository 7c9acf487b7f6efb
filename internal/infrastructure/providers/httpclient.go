package providers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/vitalink-io/vitalink/internal/shared/logger"
)

const (
	// requestTimeout bounds each individual provider call.
	requestTimeout = 30 * time.Second
	// maxRetries is the number of additional attempts after the first.
	maxRetries = 3
)

// APIError is a non-2xx provider response. 4xx responses are never retried;
// the caller classifies them (401 reconnect, 429 provider throttling, 404
// no data for the day).
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("provider API error: status %d", e.StatusCode)
}

// RetryingClient wraps outbound provider requests with bounded
// exponential-backoff retry. Only 5xx responses and timeouts are retried;
// context cancellation aborts immediately.
type RetryingClient struct {
	client      *http.Client
	maxRetries  int
	backoffUnit time.Duration
	logger      logger.Interface
}

// ClientOption customizes a RetryingClient.
type ClientOption func(*RetryingClient)

// WithBackoffUnit overrides the one-second backoff unit, for tests.
func WithBackoffUnit(d time.Duration) ClientOption {
	return func(c *RetryingClient) { c.backoffUnit = d }
}

// WithHTTPClient substitutes the underlying http.Client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *RetryingClient) { c.client = hc }
}

func NewRetryingClient(log logger.Interface, opts ...ClientOption) *RetryingClient {
	c := &RetryingClient{
		client:      &http.Client{Timeout: requestTimeout},
		maxRetries:  maxRetries,
		backoffUnit: time.Second,
		logger:      log,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Do executes the request, retrying on 5xx and timeouts with 2^attempt
// backoff. The returned response may still be a 4xx; callers classify those.
func (c *RetryingClient) Do(req *http.Request) (*http.Response, error) {
	ctx := req.Context()

	var lastErr error
	for attempt := 0; ; attempt++ {
		attemptReq := req
		if attempt > 0 {
			if req.GetBody != nil {
				body, err := req.GetBody()
				if err != nil {
					return nil, fmt.Errorf("failed to rewind request body: %w", err)
				}
				attemptReq = req.Clone(ctx)
				attemptReq.Body = body
			} else {
				attemptReq = req.Clone(ctx)
			}
		}

		resp, err := c.client.Do(attemptReq)
		switch {
		case err != nil:
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			if !isTimeout(err) || attempt >= c.maxRetries {
				return nil, err
			}
			lastErr = err
		case resp.StatusCode >= http.StatusInternalServerError && attempt < c.maxRetries:
			lastErr = &APIError{StatusCode: resp.StatusCode}
			drainBody(resp)
		default:
			return resp, nil
		}

		wait := c.backoffUnit << uint(attempt+1) // 2s, 4s, 8s
		c.logger.Warnw("provider call failed, retrying",
			"attempt", attempt+1,
			"wait", wait.String(),
			"error", lastErr,
		)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(wait):
		}
	}
}

// GetJSON issues an authenticated GET and decodes the JSON body. Non-2xx
// responses come back as *APIError.
func (c *RetryingClient) GetJSON(ctx context.Context, url, accessToken string, out interface{}) error {
	// The 30s per-call budget lives on the underlying http.Client so each
	// retry attempt gets its own window.
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := c.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &APIError{StatusCode: resp.StatusCode, Body: string(body)}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode provider response: %w", err)
	}
	return nil
}

func isTimeout(err error) bool {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	return errors.Is(err, context.DeadlineExceeded)
}

func drainBody(resp *http.Response) {
	io.Copy(io.Discard, io.LimitReader(resp.Body, 4096)) //nolint:errcheck
	resp.Body.Close()
}

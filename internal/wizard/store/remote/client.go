// Package remote implements the client for the authoritative step data
// store.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"

	"onboard/internal/wizard/models"
	"onboard/internal/wizard/store"
	"onboard/pkg/platform/circuit"
	"onboard/pkg/platform/sentinel"
)

// Client talks to the remote step store over HTTP:
//
//	GET  {base}/steps/{employeeID}/{stepID} -> {payload, has_content, certification?}
//	POST {base}/steps/{employeeID}/{stepID} <- {payload, certification?} -> {accepted}
type Client struct {
	baseURL string
	http    *http.Client
	logger  *slog.Logger
	// maxRetries bounds the backoff loop around a single Save call. Saves
	// are also retried at the next scheduled save, so this stays small.
	maxRetries uint64
	// breaker short-circuits Fetch while the store is down so page loads
	// fall back to the local cache without waiting on timeouts. Saves keep
	// dialing; their outcomes are what close the breaker again.
	breaker *circuit.Breaker
}

type Option func(*Client)

func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) {
		if c != nil {
			cl.http = c
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(cl *Client) { cl.logger = logger }
}

func WithMaxRetries(n uint64) Option {
	return func(cl *Client) { cl.maxRetries = n }
}

func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    baseURL,
		http:       &http.Client{Timeout: 10 * time.Second},
		logger:     slog.Default(),
		maxRetries: 2,
		breaker:    circuit.New("remote-store", circuit.WithFailureThreshold(5), circuit.WithSuccessThreshold(2)),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) stepURL(employeeID string, stepID models.StepID) string {
	return fmt.Sprintf("%s/steps/%s/%s", c.baseURL, employeeID, stepID)
}

// Fetch reads the remote snapshot for a step. While the circuit breaker is
// open, Fetch fails immediately without dialing.
func (c *Client) Fetch(ctx context.Context, employeeID string, stepID models.StepID) (*store.RemoteStep, error) {
	if c.breaker.IsOpen() {
		return nil, fmt.Errorf("fetch step %s: circuit open: %w", stepID, sentinel.ErrUnavailable)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.stepURL(employeeID, stepID), nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		c.recordFailure(ctx)
		return nil, fmt.Errorf("fetch step %s: %w: %w", stepID, sentinel.ErrUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		c.recordSuccess(ctx)
		return nil, sentinel.ErrNotFound
	case resp.StatusCode >= 500:
		c.recordFailure(ctx)
		return nil, fmt.Errorf("fetch step %s: status %d: %w", stepID, resp.StatusCode, sentinel.ErrUnavailable)
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("fetch step %s: unexpected status %d", stepID, resp.StatusCode)
	}
	c.recordSuccess(ctx)

	var remoteStep store.RemoteStep
	if err := json.NewDecoder(resp.Body).Decode(&remoteStep); err != nil {
		return nil, fmt.Errorf("decode step %s: %w", stepID, err)
	}
	return &remoteStep, nil
}

// Save writes a step to the remote store, retrying transient failures with
// exponential backoff. Client errors (4xx) are permanent.
func (c *Client) Save(ctx context.Context, employeeID string, stepID models.StepID, saveReq store.SaveRequest) error {
	body, err := json.Marshal(saveReq)
	if err != nil {
		return fmt.Errorf("marshal save request: %w", err)
	}

	operation := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.stepURL(employeeID, stepID), bytes.NewReader(body))
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.http.Do(req)
		if err != nil {
			c.recordFailure(ctx)
			return fmt.Errorf("save step %s: %w: %w", stepID, sentinel.ErrUnavailable, err)
		}
		defer resp.Body.Close()

		switch {
		case resp.StatusCode >= 500:
			c.recordFailure(ctx)
			return fmt.Errorf("save step %s: status %d: %w", stepID, resp.StatusCode, sentinel.ErrUnavailable)
		case resp.StatusCode >= 400:
			return backoff.Permanent(fmt.Errorf("save step %s: status %d", stepID, resp.StatusCode))
		}
		c.recordSuccess(ctx)

		var result struct {
			Accepted bool `json:"accepted"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
			return backoff.Permanent(fmt.Errorf("decode save response: %w", err))
		}
		if !result.Accepted {
			return backoff.Permanent(fmt.Errorf("save step %s: %w: rejected by remote store", stepID, sentinel.ErrInvalidState))
		}
		return nil
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), c.maxRetries), ctx)
	if err := backoff.Retry(operation, policy); err != nil {
		c.logger.WarnContext(ctx, "remote save failed",
			"employee_id", employeeID,
			"step_id", stepID,
			"error", err,
		)
		return err
	}
	return nil
}

func (c *Client) recordFailure(ctx context.Context) {
	if _, change := c.breaker.RecordFailure(); change.Opened {
		c.logger.WarnContext(ctx, "remote store circuit opened", "breaker", c.breaker.Name())
	}
}

func (c *Client) recordSuccess(ctx context.Context) {
	if _, change := c.breaker.RecordSuccess(); change.Closed {
		c.logger.InfoContext(ctx, "remote store circuit closed", "breaker", c.breaker.Name())
	}
}

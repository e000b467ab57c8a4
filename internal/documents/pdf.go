package documents

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/sync/singleflight"

	"onboard/internal/wizard/models"
	"onboard/pkg/platform/sentinel"
)

// PDFRenderer produces the filled-form PDF for a step.
type PDFRenderer interface {
	// Render regenerates and returns the PDF for the step's current signed
	// content.
	Render(ctx context.Context, employeeID string, stepID models.StepID) ([]byte, error)
}

// PDFClient talks to the PDF render service:
//
//	POST {base}/render/{employeeID}/{stepID} -> application/pdf
//
// Renders are deduplicated per (employee, step): concurrent preview requests
// and a post-signing regeneration share one in-flight render.
type PDFClient struct {
	baseURL string
	http    *http.Client
	logger  *slog.Logger
	group   singleflight.Group
}

type PDFOption func(*PDFClient)

func WithPDFHTTPClient(c *http.Client) PDFOption {
	return func(cl *PDFClient) {
		if c != nil {
			cl.http = c
		}
	}
}

func WithPDFLogger(logger *slog.Logger) PDFOption {
	return func(cl *PDFClient) { cl.logger = logger }
}

func NewPDFClient(baseURL string, opts ...PDFOption) *PDFClient {
	c := &PDFClient{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 30 * time.Second},
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *PDFClient) Render(ctx context.Context, employeeID string, stepID models.StepID) ([]byte, error) {
	key := employeeID + ":" + string(stepID)
	v, err, shared := c.group.Do(key, func() (any, error) {
		return c.render(ctx, employeeID, stepID)
	})
	if shared {
		c.logger.DebugContext(ctx, "pdf render shared with in-flight request",
			"employee_id", employeeID,
			"step_id", stepID,
		)
	}
	if err != nil {
		return nil, err
	}
	return v.([]byte), nil
}

func (c *PDFClient) render(ctx context.Context, employeeID string, stepID models.StepID) ([]byte, error) {
	url := fmt.Sprintf("%s/render/%s/%s", c.baseURL, employeeID, stepID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("render pdf for %s: %w: %w", stepID, sentinel.ErrUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, sentinel.ErrNotFound
	case resp.StatusCode >= 500:
		return nil, fmt.Errorf("render pdf for %s: status %d: %w", stepID, resp.StatusCode, sentinel.ErrUnavailable)
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("render pdf for %s: unexpected status %d", stepID, resp.StatusCode)
	}

	pdf, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read pdf for %s: %w", stepID, err)
	}
	return pdf, nil
}

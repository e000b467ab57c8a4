// Package documents holds the clients for the document collaborators: the
// field-extraction service and the PDF renderer.
package documents

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"onboard/internal/wizard/models"
	"onboard/pkg/platform/sentinel"
)

// Extractor pulls structured fields out of an uploaded document.
type Extractor interface {
	Extract(ctx context.Context, employeeID string, doc models.DocumentRef) (map[string]string, error)
}

// ExtractionClient talks to the extraction service:
//
//	POST {base}/extract <- {document_id, category} -> {fields}
type ExtractionClient struct {
	baseURL string
	http    *http.Client
	logger  *slog.Logger
}

type ExtractionOption func(*ExtractionClient)

func WithExtractionHTTPClient(c *http.Client) ExtractionOption {
	return func(cl *ExtractionClient) {
		if c != nil {
			cl.http = c
		}
	}
}

func WithExtractionLogger(logger *slog.Logger) ExtractionOption {
	return func(cl *ExtractionClient) { cl.logger = logger }
}

func NewExtractionClient(baseURL string, opts ...ExtractionOption) *ExtractionClient {
	c := &ExtractionClient{
		baseURL: baseURL,
		// Extraction runs OCR; it is slow.
		http:   &http.Client{Timeout: 30 * time.Second},
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Extract submits a document reference and returns the extracted field map.
// An empty map means the service found nothing usable, which is not an error.
func (c *ExtractionClient) Extract(ctx context.Context, employeeID string, doc models.DocumentRef) (map[string]string, error) {
	body, err := json.Marshal(struct {
		EmployeeID string `json:"employee_id"`
		DocumentID string `json:"document_id"`
		Category   string `json:"category"`
	}{EmployeeID: employeeID, DocumentID: doc.DocumentID, Category: doc.Category})
	if err != nil {
		return nil, fmt.Errorf("marshal extraction request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/extract", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("extract document %s: %w: %w", doc.DocumentID, sentinel.ErrUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, sentinel.ErrNotFound
	case resp.StatusCode >= 500:
		return nil, fmt.Errorf("extract document %s: status %d: %w", doc.DocumentID, resp.StatusCode, sentinel.ErrUnavailable)
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("extract document %s: unexpected status %d", doc.DocumentID, resp.StatusCode)
	}

	var result struct {
		Fields map[string]string `json:"fields"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode extraction response: %w", err)
	}
	return result.Fields, nil
}

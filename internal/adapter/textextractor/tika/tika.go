// Package tika provides Apache Tika integration for text detection.
//
// Documents are sent to a Tika server with OCR enabled, so scanned PDFs and
// images come back as text lines alongside documents with a text layer.
package tika

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/AbilashEG/smart-hr-intake/internal/adapter/observability"
	"github.com/AbilashEG/smart-hr-intake/pkg/textx"
)

const defaultBaseURL = "http://localhost:9998"

// maxResponseBytes caps how much extracted text is read back.
const maxResponseBytes = 8 << 20

// Client is a minimal Apache Tika HTTP client implementing domain.OCRService.
// It performs PUT /tika with Accept: text/plain.
// See: https://tika.apache.org/server/ for API details.
type Client struct {
	baseURL    string
	httpClient *http.Client
	breaker    *observability.CircuitBreaker
}

// New constructs a Tika client with the given request timeout.
func New(baseURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		breaker: observability.NewCircuitBreaker("tika", 5, 30*time.Second),
	}
}

// DetectText returns the non-empty text lines Tika found in data.
func (c *Client) DetectText(ctx context.Context, data []byte, mediaType string) ([]string, error) {
	var lines []string
	err := c.breaker.Call(func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPut, c.baseURL+"/tika", bytes.NewReader(data))
		if err != nil {
			return err
		}
		req.Header.Set("Accept", "text/plain")
		if mediaType != "" {
			req.Header.Set("Content-Type", mediaType)
		}
		// OCR the page images as well as any text layer
		req.Header.Set("X-Tika-PDFOcrStrategy", "ocr_and_text")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return err
		}
		defer func() { _ = resp.Body.Close() }()
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return fmt.Errorf("tika status %d", resp.StatusCode)
		}
		b, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
		if err != nil {
			return err
		}
		lines = textx.Lines(textx.SanitizeText(string(b)))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("op=tika.detect: %w", err)
	}
	return lines, nil
}

// Ping checks that the Tika server answers.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/version", nil)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("op=tika.ping: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("op=tika.ping: status %d", resp.StatusCode)
	}
	return nil
}

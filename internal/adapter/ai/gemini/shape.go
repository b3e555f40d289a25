// Package gemini provides a generation shape backed by the Gemini API.
package gemini

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"google.golang.org/genai"

	"github.com/AbilashEG/smart-hr-intake/internal/adapter/ai"
	"github.com/AbilashEG/smart-hr-intake/internal/domain"
)

// Options configures the Gemini shape.
type Options struct {
	Name   string
	APIKey string
	Model  string
	// BaseURL overrides the API endpoint; empty uses the SDK default.
	BaseURL string
}

// Shape implements domain.GenerationShape with the genai SDK.
type Shape struct {
	name    string
	model   string
	client  *genai.Client
	cleaner *ai.ResponseCleaner
}

// New creates the genai client.
func New(ctx context.Context, opts Options) (*Shape, error) {
	if opts.APIKey == "" {
		return nil, fmt.Errorf("op=gemini.new: %w: api key missing", domain.ErrInvalidArgument)
	}
	if opts.Name == "" {
		opts.Name = "gemini"
	}
	if opts.Model == "" {
		opts.Model = "gemini-2.5-flash"
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:      opts.APIKey,
		Backend:     genai.BackendGeminiAPI,
		HTTPClient:  &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)},
		HTTPOptions: genai.HTTPOptions{BaseURL: opts.BaseURL},
	})
	if err != nil {
		return nil, fmt.Errorf("op=gemini.new: %w", err)
	}
	return &Shape{name: opts.Name, model: opts.Model, client: client, cleaner: ai.NewResponseCleaner()}, nil
}

// Name returns the configured shape name.
func (s *Shape) Name() string { return s.name }

// Generate asks the model for text. A blocked or empty candidate yields "".
func (s *Shape) Generate(ctx context.Context, prompt string, opts domain.GenerationOptions) (string, error) {
	cfg := &genai.GenerateContentConfig{}
	if opts.Temperature > 0 {
		t := float32(opts.Temperature)
		cfg.Temperature = &t
	}
	if opts.MaxTokens > 0 {
		cfg.MaxOutputTokens = int32(opts.MaxTokens)
	}
	resp, err := s.client.Models.GenerateContent(ctx, s.model, genai.Text(prompt), cfg)
	if err != nil {
		return "", fmt.Errorf("op=gemini.generate: %w", err)
	}
	if resp == nil {
		return "", nil
	}
	return s.cleaner.Clean(strings.TrimSpace(resp.Text())), nil
}

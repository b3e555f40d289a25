// Package ai talks to the generation backend. ModelClient posts raw JSON
// bodies to the invoke endpoint; BodyShape turns a prompt into one of the
// configured request layouts and probes the reply for text.
package ai

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	backoff "github.com/cenkalti/backoff/v4"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/AbilashEG/smart-hr-intake/internal/adapter/observability"
	"github.com/AbilashEG/smart-hr-intake/internal/config"
	"github.com/AbilashEG/smart-hr-intake/internal/domain"
	"github.com/AbilashEG/smart-hr-intake/internal/service/ratelimiter"
)

// RateLimitKey is the limiter key for calls to modelID. Each model gets its
// own window.
func RateLimitKey(modelID string) string { return "generation:" + modelID }

const maxResponseBytes = 4 << 20

// ModelClient implements domain.ModelInvoker over HTTP.
type ModelClient struct {
	cfg       config.Config
	invokeURL string
	apiKey    string
	hc        *http.Client
	breaker   *observability.CircuitBreaker
	limiter   ratelimiter.Limiter
}

// NewModelClient builds a client for GENERATION_INVOKE_URL. The URL may carry a
// {model} placeholder. limiter may be nil.
func NewModelClient(cfg config.Config, limiter ratelimiter.Limiter) *ModelClient {
	timeout := cfg.GenerationTimeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &ModelClient{
		cfg:       cfg,
		invokeURL: cfg.GenerationInvokeURL,
		apiKey:    cfg.GenerationAPIKey,
		hc:        &http.Client{Timeout: timeout, Transport: otelhttp.NewTransport(http.DefaultTransport)},
		breaker: observability.NewCircuitBreakerWith(observability.BreakerSettings{
			Name:        "generation",
			MaxFailures: 5,
			Cooldown:    30 * time.Second,
			IsFailure:   backendFault,
		}),
		limiter: limiter,
	}
}

func (c *ModelClient) getBackoffConfig() *backoff.ExponentialBackOff {
	expo := backoff.NewExponentialBackOff()
	maxElapsedTime, initialInterval, maxInterval, multiplier := c.cfg.GetAIBackoffConfig()
	expo.MaxElapsedTime = maxElapsedTime
	expo.InitialInterval = initialInterval
	expo.MaxInterval = maxInterval
	expo.Multiplier = multiplier
	return expo
}

func (c *ModelClient) endpoint(modelID string) string {
	return strings.ReplaceAll(c.invokeURL, "{model}", url.PathEscape(modelID))
}

// Invoke posts body and returns the raw response. 4xx answers other than 429
// are not retried, since they usually mean the body shape was rejected.
func (c *ModelClient) Invoke(ctx context.Context, modelID string, body []byte) ([]byte, error) {
	if c.invokeURL == "" {
		return nil, fmt.Errorf("op=ai.invoke: %w: GENERATION_INVOKE_URL missing", domain.ErrInvalidArgument)
	}
	if c.limiter != nil {
		allowed, retryAfter, err := c.limiter.Allow(ctx, RateLimitKey(modelID), 1)
		if err != nil {
			slog.Warn("generation rate limiter unavailable", slog.String("model", modelID), slog.Any("error", err))
		}
		if !allowed {
			return nil, fmt.Errorf("op=ai.invoke: %w: retry after %s", domain.ErrRateLimited, retryAfter.Round(time.Second))
		}
	}

	endpoint := c.endpoint(modelID)
	var out []byte
	var lastStatus int
	op := func() error {
		r, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
		if err != nil {
			return backoff.Permanent(err)
		}
		r.Header.Set("Content-Type", "application/json")
		r.Header.Set("Accept", "application/json")
		if c.apiKey != "" {
			r.Header.Set("Authorization", "Bearer "+c.apiKey)
		}
		resp, err := c.hc.Do(r)
		if err != nil {
			return err
		}
		defer func() { _ = resp.Body.Close() }()
		b, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
		if err != nil {
			return err
		}
		lastStatus = resp.StatusCode
		switch {
		case resp.StatusCode == http.StatusTooManyRequests:
			slog.Warn("generation backend rate limited", slog.String("model", modelID))
			return fmt.Errorf("%w: status 429", domain.ErrUpstreamRateLimit)
		case resp.StatusCode >= 400 && resp.StatusCode < 500:
			return backoff.Permanent(&RejectedError{Status: resp.StatusCode, Body: snippet(b, 256)})
		case resp.StatusCode < 200 || resp.StatusCode >= 300:
			slog.Warn("generation backend non-2xx", slog.String("model", modelID), slog.Int("status", resp.StatusCode))
			return fmt.Errorf("invoke status %d", resp.StatusCode)
		}
		out = b
		return nil
	}

	err := c.breaker.Call(func() error {
		return backoff.Retry(op, backoff.WithContext(c.getBackoffConfig(), ctx))
	})
	var rejected *RejectedError
	switch {
	case errors.As(err, &rejected):
		return nil, fmt.Errorf("op=ai.invoke: %w", rejected)
	case err == nil:
		return out, nil
	case errors.Is(err, context.DeadlineExceeded):
		return nil, fmt.Errorf("op=ai.invoke: %w: %v", domain.ErrUpstreamTimeout, err)
	case lastStatus == http.StatusTooManyRequests && !errors.Is(err, domain.ErrUpstreamRateLimit):
		return nil, fmt.Errorf("op=ai.invoke: %w: %v", domain.ErrUpstreamRateLimit, err)
	default:
		return nil, fmt.Errorf("op=ai.invoke: %w", err)
	}
}

// backendFault keeps rejected bodies and caller cancellations off the breaker.
func backendFault(err error) bool {
	var rejected *RejectedError
	return !errors.As(err, &rejected) && !errors.Is(err, context.Canceled)
}

// RejectedError is a non-retryable 4xx answer from the backend.
type RejectedError struct {
	Status int
	Body   string
}

func (e *RejectedError) Error() string {
	return fmt.Sprintf("invoke status %d: %s", e.Status, e.Body)
}

func snippet(b []byte, n int) string {
	if len(b) > n {
		b = b[:n]
	}
	return string(b)
}

// Package observability provides logging, metrics, and tracing.
//
// Metrics are registered on the default Prometheus registry by InitMetrics.
// Tracing exports over OTLP/gRPC when an endpoint is configured.
package observability

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/AbilashEG/smart-hr-intake/internal/config"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
)

// Process roles. The server and the OCR worker export under one service name
// and are told apart by the intake.role resource attribute.
const (
	RoleServer = "server"
	RoleWorker = "worker"
)

// ShutdownFunc flushes and stops the tracer provider.
type ShutdownFunc func(context.Context) error

func noopShutdown(context.Context) error { return nil }

// SetupTracing installs a global tracer provider for role. Without an OTLP
// endpoint it leaves the no-op provider in place and returns a no-op shutdown.
func SetupTracing(ctx context.Context, cfg config.Config, role string) (ShutdownFunc, error) {
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{}))
	if cfg.OTLPEndpoint == "" {
		slog.Info("tracing disabled", slog.String("role", role))
		return noopShutdown, nil
	}

	exporter, err := otlptracegrpc.New(ctx,
		otlptracegrpc.WithEndpoint(cfg.OTLPEndpoint),
		otlptracegrpc.WithInsecure())
	if err != nil {
		return noopShutdown, fmt.Errorf("op=tracing.exporter: %w", err)
	}
	res, err := tracingResource(ctx, cfg, role)
	if err != nil {
		_ = exporter.Shutdown(ctx)
		return noopShutdown, fmt.Errorf("op=tracing.resource: %w", err)
	}

	ratio := cfg.SampleRatio()
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(ratio))),
	)
	otel.SetTracerProvider(tp)
	slog.Info("tracing configured",
		slog.String("endpoint", cfg.OTLPEndpoint),
		slog.String("role", role),
		slog.Float64("sampling_ratio", ratio))
	return tp.Shutdown, nil
}

func tracingResource(ctx context.Context, cfg config.Config, role string) (*resource.Resource, error) {
	return resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceNameKey.String(cfg.OTELServiceName),
			semconv.DeploymentEnvironmentKey.String(cfg.AppEnv),
			attribute.String("intake.role", role),
		),
		resource.WithHost(),
	)
}

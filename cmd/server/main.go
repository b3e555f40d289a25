// Command server runs the resume intake HTTP API.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/AbilashEG/smart-hr-intake/internal/adapter/ai"
	"github.com/AbilashEG/smart-hr-intake/internal/adapter/ai/tokencount"
	"github.com/AbilashEG/smart-hr-intake/internal/adapter/httpserver"
	"github.com/AbilashEG/smart-hr-intake/internal/adapter/observability"
	"github.com/AbilashEG/smart-hr-intake/internal/adapter/ocrjob"
	"github.com/AbilashEG/smart-hr-intake/internal/adapter/queue/redpanda"
	"github.com/AbilashEG/smart-hr-intake/internal/adapter/repo/postgres"
	"github.com/AbilashEG/smart-hr-intake/internal/adapter/textextractor/docxtext"
	"github.com/AbilashEG/smart-hr-intake/internal/adapter/textextractor/pdftext"
	"github.com/AbilashEG/smart-hr-intake/internal/adapter/textextractor/tika"
	"github.com/AbilashEG/smart-hr-intake/internal/app"
	"github.com/AbilashEG/smart-hr-intake/internal/config"
	"github.com/AbilashEG/smart-hr-intake/internal/domain"
	"github.com/AbilashEG/smart-hr-intake/internal/service/ratelimiter"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server exited", slog.Any("error", err))
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	slog.SetDefault(observability.SetupLogger(cfg, observability.RoleServer))
	observability.InitMetrics()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracer, err := observability.SetupTracing(ctx, cfg, observability.RoleServer)
	if err != nil {
		slog.Error("failed to setup tracing", slog.Any("error", err))
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownTracer(flushCtx)
	}()

	pool, err := postgres.NewPool(ctx, cfg.DBURL)
	if err != nil {
		return err
	}
	defer pool.Close()
	if err := postgres.EnsureSchema(ctx, pool); err != nil {
		return err
	}

	rdb, err := app.NewRedis(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = rdb.Close() }()

	blobs, err := app.NewBlobStore(ctx, cfg)
	if err != nil {
		return err
	}

	tikaClient := tika.New(cfg.TikaURL, 0)
	jobs := ocrjob.NewQueue(rdb, cfg.OCRJobTTL)
	if cfg.OCRWorkerInProcess {
		w := ocrjob.NewWorker(jobs, blobs, tikaClient)
		go func() {
			if err := w.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				slog.Error("ocr worker stopped", slog.Any("error", err))
			}
		}()
		slog.Info("ocr worker running in process")
	}

	var invoker domain.ModelInvoker
	if cfg.GenerationInvokeURL != "" {
		var limiter ratelimiter.Limiter
		if cfg.GenerationRatePerMin > 0 {
			limiter = ratelimiter.NewRedisWindowLimiter(rdb, ratelimiter.PerMinute(cfg.GenerationRatePerMin))
		}
		invoker = ai.NewModelClient(cfg, limiter)
	}
	shapes, err := app.BuildShapes(ctx, cfg, invoker)
	if err != nil {
		return err
	}

	var events domain.EventPublisher = redpanda.NoopPublisher{}
	if cfg.EventsEnabled() {
		producer, err := redpanda.NewProducer(ctx, cfg.KafkaBrokers, redpanda.CandidateEventsTopic(cfg.CandidateEventsTopic))
		if err != nil {
			return err
		}
		defer func() { _ = producer.Close() }()
		events = producer
	}

	svc := app.NewIntakeService(cfg, app.Adapters{
		Repo:   postgres.NewCandidateRepo(pool),
		Blobs:  blobs,
		OCR:    tikaClient,
		Jobs:   jobs,
		PDF:    pdftext.New(),
		DOCX:   docxtext.New(),
		Shapes: shapes,
		Events: events,
		Tokens: tokencount.NewCounter(cfg.GenerationModelID),
	})
	checks := app.BuildReadinessChecks(app.Dependencies{DB: pool, Redis: rdb, Blobs: blobs, Tika: tikaClient})
	handler := app.BuildRouter(cfg, httpserver.NewServer(cfg, svc, checks...))

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           handler,
		ReadTimeout:       cfg.HTTPReadTimeout,
		WriteTimeout:      cfg.HTTPWriteTimeout,
		IdleTimeout:       cfg.HTTPIdleTimeout,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		slog.Info("http server starting",
			slog.Int("port", cfg.Port),
			slog.Int("shapes", len(shapes)),
			slog.Bool("events", cfg.EventsEnabled()))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		slog.Info("shutdown signal received")
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ServerShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

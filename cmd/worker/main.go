// Command worker runs asynchronous OCR jobs outside the API process.
// Set OCR_WORKER_INPROCESS=false on the server when this runs.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/AbilashEG/smart-hr-intake/internal/adapter/observability"
	"github.com/AbilashEG/smart-hr-intake/internal/adapter/ocrjob"
	"github.com/AbilashEG/smart-hr-intake/internal/adapter/textextractor/tika"
	"github.com/AbilashEG/smart-hr-intake/internal/app"
	"github.com/AbilashEG/smart-hr-intake/internal/config"
)

const metricsAddr = ":9090"

func main() {
	if err := run(); err != nil {
		slog.Error("worker exited", slog.Any("error", err))
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	slog.SetDefault(observability.SetupLogger(cfg, observability.RoleWorker))
	observability.InitMetrics()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracer, err := observability.SetupTracing(ctx, cfg, observability.RoleWorker)
	if err != nil {
		slog.Error("failed to setup tracing", slog.Any("error", err))
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownTracer(flushCtx)
	}()

	rdb, err := app.NewRedis(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = rdb.Close() }()

	blobs, err := app.NewBlobStore(ctx, cfg)
	if err != nil {
		return err
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	metricsSrv := &http.Server{Addr: metricsAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("worker metrics server error", slog.Any("error", err))
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = metricsSrv.Shutdown(shutdownCtx)
	}()

	w := ocrjob.NewWorker(ocrjob.NewQueue(rdb, cfg.OCRJobTTL), blobs, tika.New(cfg.TikaURL, 0))
	slog.Info("ocr worker starting", slog.String("env", cfg.AppEnv), slog.String("tika", cfg.TikaURL))
	return w.Run(ctx)
}

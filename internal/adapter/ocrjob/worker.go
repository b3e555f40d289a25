package ocrjob

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/AbilashEG/smart-hr-intake/internal/domain"
	obsctx "github.com/AbilashEG/smart-hr-intake/internal/observability"
)

// Worker drains the job queue: it loads the stored object, runs OCR on it and
// writes the terminal state back to the job hash.
type Worker struct {
	Queue *Queue
	Blobs domain.BlobStore
	OCR   domain.OCRService
	// Wait is how long one BRPOP blocks before the loop rechecks ctx.
	Wait time.Duration
}

// NewWorker constructs a Worker.
func NewWorker(q *Queue, blobs domain.BlobStore, ocr domain.OCRService) *Worker {
	return &Worker{Queue: q, Blobs: blobs, OCR: ocr, Wait: 2 * time.Second}
}

// Run processes jobs until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) error {
	slog.Info("ocr worker started", slog.String("queue", w.Queue.queueKey))
	for {
		if ctx.Err() != nil {
			slog.Info("ocr worker stopped")
			return nil
		}
		id, err := w.Queue.next(ctx, w.Wait)
		if err != nil {
			if ctx.Err() != nil {
				slog.Info("ocr worker stopped")
				return nil
			}
			slog.Error("ocr queue read failed", slog.Any("error", err))
			select {
			case <-ctx.Done():
			case <-time.After(w.Wait):
			}
			continue
		}
		if id == "" {
			continue
		}
		if err := w.Process(ctx, id); err != nil {
			slog.Error("ocr job processing failed", slog.String("job_id", id), slog.Any("error", err))
		}
	}
}

// Process runs one job. OCR problems end the job as FAILED and are not
// returned; only bookkeeping errors are.
func (w *Worker) Process(ctx context.Context, jobID string) error {
	start := time.Now()
	src, err := w.Queue.source(ctx, jobID)
	if errors.Is(err, domain.ErrNotFound) {
		slog.Warn("ocr job expired before processing", slog.String("job_id", jobID))
		return nil
	}
	if err != nil {
		return fmt.Errorf("op=ocrjob.process: %w", err)
	}
	ctx = obsctx.WithLogAttrs(ctx, slog.String("job_id", jobID))
	if src.RequestID != "" {
		ctx = obsctx.ContextWithRequestID(ctx, src.RequestID)
		ctx = obsctx.WithLogAttrs(ctx, slog.String("request_id", src.RequestID))
	}
	lg := obsctx.LoggerFromContext(ctx)

	lines, ocrErr := w.detect(ctx, src.Blob)
	if ocrErr != nil {
		lg.Warn("ocr job failed", slog.String("blob", src.Blob.String()), slog.Any("error", ocrErr))
		if err := w.Queue.fail(ctx, jobID, ocrErr); err != nil {
			return fmt.Errorf("op=ocrjob.process: %w", err)
		}
		return nil
	}
	if err := w.Queue.complete(ctx, jobID, lines); err != nil {
		return fmt.Errorf("op=ocrjob.process: %w", err)
	}
	lg.Info("ocr job succeeded",
		slog.Int("lines", len(lines)),
		slog.Duration("took", time.Since(start)))
	return nil
}

func (w *Worker) detect(ctx context.Context, ref domain.BlobRef) ([]string, error) {
	data, err := w.Blobs.Get(ctx, ref)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", ref, err)
	}
	lines, err := w.OCR.DetectText(ctx, data, "application/pdf")
	if err != nil {
		return nil, err
	}
	return lines, nil
}

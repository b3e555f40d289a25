package usecase

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/AbilashEG/smart-hr-intake/internal/adapter/observability"
	"github.com/AbilashEG/smart-hr-intake/internal/domain"
	obsctx "github.com/AbilashEG/smart-hr-intake/internal/observability"
)

// GenerationInvoker tries each shape in order and returns the first
// non-empty output. It never returns an error; failure is a result value.
type GenerationInvoker struct {
	Shapes []domain.GenerationShape
}

// NewGenerationInvoker constructs a GenerationInvoker over an ordered shape list.
func NewGenerationInvoker(shapes ...domain.GenerationShape) GenerationInvoker {
	return GenerationInvoker{Shapes: shapes}
}

// Invoke always starts from the first shape.
func (g GenerationInvoker) Invoke(ctx context.Context, prompt string, opts domain.GenerationOptions) domain.GenerationResult {
	lg := obsctx.LoggerFromContext(ctx)
	for i, shape := range g.Shapes {
		if ctx.Err() != nil {
			lg.Warn("generation cancelled", slog.Int("shapes_tried", i), slog.Any("error", ctx.Err()))
			break
		}
		start := time.Now()
		out, err := shape.Generate(ctx, prompt, opts)
		out = strings.TrimSpace(out)
		switch {
		case err != nil:
			observability.RecordGenerationAttempt(shape.Name(), "error", time.Since(start))
			lg.Warn("generation shape failed",
				slog.String("shape", shape.Name()),
				slog.Int("position", i+1),
				slog.Any("error", err))
		case out == "":
			observability.RecordGenerationAttempt(shape.Name(), "empty", time.Since(start))
			lg.Warn("generation shape returned empty output",
				slog.String("shape", shape.Name()),
				slog.Int("position", i+1))
		default:
			observability.RecordGenerationAttempt(shape.Name(), "success", time.Since(start))
			lg.Info("generation succeeded",
				slog.String("shape", shape.Name()),
				slog.Int("position", i+1),
				slog.Int("output_chars", len(out)),
				slog.Duration("duration", time.Since(start)))
			return domain.GenerationResult{Success: true, Output: out, Shape: shape.Name()}
		}
	}
	lg.Warn("all generation shapes failed", slog.Int("shapes", len(g.Shapes)))
	return domain.GenerationResult{}
}

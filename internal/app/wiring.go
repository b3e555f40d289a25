package app

import (
	"context"
	"fmt"
	"time"

	"github.com/AbilashEG/smart-hr-intake/internal/adapter/ai"
	"github.com/AbilashEG/smart-hr-intake/internal/adapter/ai/gemini"
	"github.com/AbilashEG/smart-hr-intake/internal/config"
	"github.com/AbilashEG/smart-hr-intake/internal/domain"
	"github.com/AbilashEG/smart-hr-intake/internal/usecase"
)

// BuildShapes instantiates the configured generation shapes in order.
// Body shapes share invoker.
func BuildShapes(ctx context.Context, cfg config.Config, invoker domain.ModelInvoker) ([]domain.GenerationShape, error) {
	defs := cfg.Shapes()
	shapes := make([]domain.GenerationShape, 0, len(defs))
	for _, def := range defs {
		switch def.Kind {
		case config.ShapeKindBody:
			if invoker == nil {
				return nil, fmt.Errorf("op=app.shapes: %w: shape %q needs a model invoker", domain.ErrInvalidArgument, def.Name)
			}
			shapes = append(shapes, ai.NewBodyShape(def, cfg.GenerationModelID, invoker))
		case config.ShapeKindGemini:
			g, err := gemini.New(ctx, gemini.Options{Name: def.Name, APIKey: cfg.GeminiAPIKey, Model: cfg.GeminiModel})
			if err != nil {
				return nil, fmt.Errorf("op=app.shapes: %w", err)
			}
			shapes = append(shapes, g)
		default:
			return nil, fmt.Errorf("op=app.shapes: %w: unknown shape kind %q", domain.ErrInvalidArgument, def.Kind)
		}
	}
	return shapes, nil
}

// Adapters are the outbound ports the intake pipeline runs on. OCR, Jobs,
// PDF, DOCX, Events and Tokens may be nil.
type Adapters struct {
	Repo   domain.CandidateRepository
	Blobs  domain.BlobStore
	OCR    domain.OCRService
	Jobs   domain.OCRJobService
	PDF    domain.DocumentParser
	DOCX   domain.DocumentParser
	Shapes []domain.GenerationShape
	Events domain.EventPublisher
	Tokens domain.TokenCounter
}

// NewIntakeService assembles the pipeline from cfg and the adapters.
func NewIntakeService(cfg config.Config, a Adapters) usecase.IntakeService {
	now := time.Now
	norm := usecase.NewTextNormalizer(a.OCR, a.Jobs, a.PDF, a.DOCX, cfg.GetPollConfig())
	return usecase.IntakeService{
		Repo:       a.Repo,
		Blobs:      a.Blobs,
		Normalizer: norm,
		Fields:     usecase.FieldExtractor{Now: now},
		JD: usecase.JDProcessor{
			Blobs:          a.Blobs,
			Normalizer:     norm,
			MinChars:       cfg.JDMinChars,
			KnownCompanies: cfg.JDKnownCompanies,
			DefaultCompany: cfg.JDDefaultCompany,
			Now:            now,
		},
		Invoker:    usecase.NewGenerationInvoker(a.Shapes...),
		Policy:     usecase.QuestionPolicy{Mode: cfg.QuestionPolicy, MinAccepted: cfg.QuestionMinAccepted},
		Renderer:   usecase.Renderer{Location: cfg.DisplayLocation(), Now: now},
		GenOptions: domain.GenerationOptions{MaxTokens: cfg.GenerationMaxTokens, Temperature: cfg.GenerationTemperature},
		Events:     a.Events,
		Tokens:     a.Tokens,
		Now:        now,

		GenerationBudget: cfg.GenerationBudget,
	}
}

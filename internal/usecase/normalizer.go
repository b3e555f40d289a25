package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/cenkalti/backoff/v4"

	"github.com/AbilashEG/smart-hr-intake/internal/adapter/observability"
	"github.com/AbilashEG/smart-hr-intake/internal/config"
	"github.com/AbilashEG/smart-hr-intake/internal/domain"
	obsctx "github.com/AbilashEG/smart-hr-intake/internal/observability"
	"github.com/AbilashEG/smart-hr-intake/pkg/textx"
)

// Extraction strategy names, in chain order.
const (
	StrategyOCRSync  = "ocr_sync"
	StrategyOCRAsync = "ocr_async"
	StrategyPDFText  = "pdf_text"
	StrategyDOCXText = "docx_text"
	StrategyOCRRetry = "ocr_retry"
	StrategyPlain    = "plain_text"
)

var errJobInProgress = errors.New("ocr job in progress")

// NormalizeRequest is one document to turn into text.
type NormalizeRequest struct {
	Doc domain.RawDocument
	// Blob is where the document is stored; the async OCR branch needs it.
	Blob domain.BlobRef
	// MinChars is the exclusive lower bound OCR output must exceed to be accepted.
	MinChars int
}

// TextNormalizer turns raw documents into plain text through an ordered
// strategy chain that stops at the first accepted result.
type TextNormalizer struct {
	OCR  domain.OCRService
	Jobs domain.OCRJobService
	PDF  domain.DocumentParser
	DOCX domain.DocumentParser
	Poll config.PollConfig
}

type extractionStep struct {
	name    string
	applies func(kind domain.MediaKind, req NormalizeRequest) bool
	run     func(ctx context.Context, req NormalizeRequest) (string, error)
	// ocr steps must clear MinChars; parser steps accept any non-empty text.
	ocr bool
}

// NewTextNormalizer constructs a TextNormalizer. Any collaborator may be nil;
// the strategies that need it are skipped.
func NewTextNormalizer(ocr domain.OCRService, jobs domain.OCRJobService, pdf, docx domain.DocumentParser, poll config.PollConfig) TextNormalizer {
	return TextNormalizer{OCR: ocr, Jobs: jobs, PDF: pdf, DOCX: docx, Poll: poll}
}

// Steps returns the strategy names in the order they are tried.
func (n TextNormalizer) Steps() []string {
	steps := n.steps()
	out := make([]string, len(steps))
	for i, s := range steps {
		out[i] = s.name
	}
	return out
}

func (n TextNormalizer) steps() []extractionStep {
	return []extractionStep{
		{
			name:    StrategyOCRSync,
			applies: func(domain.MediaKind, NormalizeRequest) bool { return n.OCR != nil },
			run:     n.detect,
			ocr:     true,
		},
		{
			name: StrategyOCRAsync,
			applies: func(k domain.MediaKind, req NormalizeRequest) bool {
				return k == domain.MediaPDF && n.Jobs != nil && !req.Blob.IsZero()
			},
			run: n.runJob,
			ocr: true,
		},
		{
			name:    StrategyPDFText,
			applies: func(k domain.MediaKind, _ NormalizeRequest) bool { return k == domain.MediaPDF && n.PDF != nil },
			run: func(ctx context.Context, req NormalizeRequest) (string, error) {
				return n.PDF.ExtractText(ctx, req.Doc.Content)
			},
		},
		{
			name:    StrategyDOCXText,
			applies: func(k domain.MediaKind, _ NormalizeRequest) bool { return k == domain.MediaDOCX && n.DOCX != nil },
			run: func(ctx context.Context, req NormalizeRequest) (string, error) {
				return n.DOCX.ExtractText(ctx, req.Doc.Content)
			},
		},
		{
			// last attempt for images, so any text is kept
			name:    StrategyOCRRetry,
			applies: func(k domain.MediaKind, _ NormalizeRequest) bool { return k == domain.MediaImage && n.OCR != nil },
			run:     n.detect,
		},
		{
			name:    StrategyPlain,
			applies: func(k domain.MediaKind, _ NormalizeRequest) bool { return k == domain.MediaText },
			run: func(_ context.Context, req NormalizeRequest) (string, error) {
				return decodePlain(req.Doc.Content), nil
			},
		},
	}
}

// Normalize runs the chain. It returns domain.ErrNoText when every applicable
// strategy came back empty, and the context error if ctx ends first.
func (n TextNormalizer) Normalize(ctx context.Context, req NormalizeRequest) (domain.ExtractedText, error) {
	lg := obsctx.LoggerFromContext(ctx)
	kind := ClassifyMedia(req.Doc.MediaType, req.Doc.Filename, req.Doc.Content)
	for _, step := range n.steps() {
		if !step.applies(kind, req) {
			continue
		}
		if err := ctx.Err(); err != nil {
			return domain.ExtractedText{}, fmt.Errorf("op=normalize.%s: %w", step.name, err)
		}
		raw, err := step.run(ctx, req)
		text := textx.SanitizeText(raw)
		switch {
		case err != nil:
			observability.RecordExtraction(step.name, "error")
			lg.Warn("text extraction strategy failed",
				slog.String("strategy", step.name),
				slog.String("media_kind", string(kind)),
				slog.Any("error", err))
			if ctxErr := ctx.Err(); ctxErr != nil {
				return domain.ExtractedText{}, fmt.Errorf("op=normalize.%s: %w", step.name, ctxErr)
			}
			continue
		case !accepted(text, step.ocr, req.MinChars):
			observability.RecordExtraction(step.name, "insufficient")
			lg.Debug("text extraction below threshold",
				slog.String("strategy", step.name),
				slog.Int("chars", utf8.RuneCountInString(text)),
				slog.Int("min_chars", req.MinChars))
			continue
		}
		observability.RecordExtraction(step.name, "success")
		chars := utf8.RuneCountInString(text)
		lg.Info("text extracted",
			slog.String("strategy", step.name),
			slog.String("media_kind", string(kind)),
			slog.Int("chars", chars))
		return domain.ExtractedText{Text: text, Method: step.name, CharCount: chars}, nil
	}
	lg.Warn("no text extracted", slog.String("media_kind", string(kind)), slog.String("filename", req.Doc.Filename))
	return domain.ExtractedText{}, domain.ErrNoText
}

func accepted(text string, ocr bool, minChars int) bool {
	if text == "" {
		return false
	}
	if !ocr {
		return true
	}
	return utf8.RuneCountInString(text) > minChars
}

func (n TextNormalizer) detect(ctx context.Context, req NormalizeRequest) (string, error) {
	lines, err := n.OCR.DetectText(ctx, req.Doc.Content, req.Doc.MediaType)
	if err != nil {
		return "", err
	}
	return strings.Join(lines, "\n"), nil
}

func (n TextNormalizer) runJob(ctx context.Context, req NormalizeRequest) (string, error) {
	jobID, err := n.Jobs.StartJob(ctx, req.Blob)
	if err != nil {
		return "", fmt.Errorf("op=normalize.start_job: %w", err)
	}
	job, err := n.waitJob(ctx, jobID)
	if err != nil {
		return "", err
	}
	return strings.Join(job.Lines, "\n"), nil
}

// waitJob polls until the job is terminal, bounded by attempts and timeout.
func (n TextNormalizer) waitJob(ctx context.Context, jobID string) (domain.OCRJob, error) {
	p := n.Poll
	if p.MaxAttempts < 1 {
		p.MaxAttempts = 1
	}
	pollCtx, cancel := context.WithTimeout(ctx, p.Timeout)
	defer cancel()

	expo := backoff.NewExponentialBackOff()
	expo.InitialInterval = p.InitialInterval
	expo.MaxInterval = p.MaxInterval
	expo.Multiplier = p.Multiplier
	expo.RandomizationFactor = 0
	expo.MaxElapsedTime = 0
	expo.Reset()
	bo := backoff.WithContext(backoff.WithMaxRetries(expo, uint64(p.MaxAttempts-1)), pollCtx)

	var job domain.OCRJob
	attempts := 0
	op := func() error {
		attempts++
		j, err := n.Jobs.PollJob(pollCtx, jobID)
		if err != nil {
			return err
		}
		switch j.Status {
		case domain.OCRJobSucceeded:
			job = j
			return nil
		case domain.OCRJobFailed:
			return backoff.Permanent(fmt.Errorf("%w: %s", domain.ErrOCRJobFailed, j.Error))
		default:
			return errJobInProgress
		}
	}
	err := backoff.Retry(op, bo)
	switch {
	case err == nil:
		observability.RecordOCRJob("succeeded")
		return job, nil
	case errors.Is(err, domain.ErrOCRJobFailed):
		observability.RecordOCRJob("failed")
		return domain.OCRJob{}, fmt.Errorf("op=normalize.poll_job: %w", err)
	case ctx.Err() != nil:
		observability.RecordOCRJob("cancelled")
		return domain.OCRJob{}, fmt.Errorf("op=normalize.poll_job: %w", ctx.Err())
	case errors.Is(err, errJobInProgress), pollCtx.Err() != nil:
		observability.RecordOCRJob("timeout")
		return domain.OCRJob{}, fmt.Errorf("op=normalize.poll_job: %w after %d attempts", domain.ErrOCRTimeout, attempts)
	default:
		observability.RecordOCRJob("error")
		return domain.OCRJob{}, fmt.Errorf("op=normalize.poll_job: %w", err)
	}
}

func decodePlain(b []byte) string {
	if utf8.Valid(b) {
		return string(b)
	}
	return strings.ToValidUTF8(string(b), "")
}

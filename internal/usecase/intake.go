// Package usecase contains the intake pipeline: text extraction, field and
// profile analysis, question generation with deterministic fallback, and the
// HR review operations.
package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"strings"
	"time"

	"github.com/AbilashEG/smart-hr-intake/internal/adapter/observability"
	"github.com/AbilashEG/smart-hr-intake/internal/domain"
	obsctx "github.com/AbilashEG/smart-hr-intake/internal/observability"
)

// updateAttempts bounds optimistic-concurrency retries when the caller sent no version.
const updateAttempts = 3

const (
	// persistReserve is kept free of generation when the request has a deadline.
	persistReserve = 5 * time.Second
	persistTimeout = 10 * time.Second
)

// UploadInput is one intake request.
type UploadInput struct {
	Resume         domain.RawDocument
	JobDescription *domain.RawDocument
}

// IntakeService runs the resume pipeline and the HR review operations.
type IntakeService struct {
	Repo       domain.CandidateRepository
	Blobs      domain.BlobStore
	Normalizer TextNormalizer
	Fields     FieldExtractor
	JD         JDProcessor
	Invoker    GenerationInvoker
	Policy     QuestionPolicy
	Renderer   Renderer
	GenOptions domain.GenerationOptions
	// GenerationBudget caps one pass over the shapes; zero leaves only the
	// request deadline.
	GenerationBudget time.Duration
	// Events and Tokens are optional.
	Events domain.EventPublisher
	Tokens domain.TokenCounter
	Now    func() time.Time
}

// ProcessUpload extracts, generates and persists one candidate. AI failure
// never fails the upload; storage failures do.
func (s IntakeService) ProcessUpload(ctx context.Context, in UploadInput) (domain.Candidate, error) {
	if len(in.Resume.Content) == 0 {
		return domain.Candidate{}, fmt.Errorf("%w: resume is empty", domain.ErrInvalidArgument)
	}
	now := s.now()
	resumeRef, err := s.Blobs.Put(ctx, BlobKey(CategoryResumes, in.Resume.Filename, now), in.Resume.Content, ContentTypeFor(in.Resume.MediaType, in.Resume.Content))
	if err != nil {
		return domain.Candidate{}, fmt.Errorf("op=intake.store_resume: %w", err)
	}

	text, err := s.resumeText(ctx, in.Resume, resumeRef)
	if err != nil {
		return domain.Candidate{}, err
	}
	identity := s.Fields.Extract(text)
	identity.Email = NormalizeEmail(identity.Email)
	ctx = obsctx.WithLogAttrs(ctx, slog.String("candidate", identity.Email))
	lg := obsctx.LoggerFromContext(ctx)
	profile := AnalyzeProfile(text)

	var jd *domain.JobDescriptionRecord
	if in.JobDescription != nil && len(in.JobDescription.Content) > 0 {
		jd, err = s.JD.Process(ctx, *in.JobDescription)
		if err != nil {
			if ctx.Err() != nil {
				return domain.Candidate{}, err
			}
			lg.Warn("job description skipped", slog.Any("error", err))
			jd = nil
		}
	}

	task := QuestionTask(profile)
	prompt := BuildPrompt(PromptInput{Task: task, Candidate: identity, Profile: profile, JD: jd, ResumeText: text})
	s.observePrompt(task, prompt)
	result := s.generate(ctx, prompt)
	raw := ""
	if result.Success {
		raw = result.Output
	}
	set, source := s.Policy.Resolve(raw, FallbackQuestions(text, profile, jd))
	observability.RecordQuestionSet(source)
	lg.Info("question set resolved",
		slog.String("source", source),
		slog.String("variant", string(task)),
		slog.String("shape", result.Shape),
		slog.Bool("jd", jd != nil))

	html, err := s.Renderer.Questions(set)
	if err != nil {
		return domain.Candidate{}, err
	}

	c := domain.Candidate{
		Email:            identity.Email,
		Name:             identity.Name,
		Phone:            identity.Phone,
		Status:           domain.StatusPending,
		Attendance:       domain.AttendancePending,
		ResumeURL:        resumeRef.URL,
		ResumeKey:        resumeRef.Key,
		Questions:        html,
		AIUsed:           source != domain.SourceFallback,
		Personalized:     task == TaskPersonalizedQuestions,
		EnhancedMatching: jd != nil,
		UploadedAt:       now,
		UpdatedAt:        now,
	}
	if jd != nil {
		c.JDURL = jd.Location.URL
		c.JDKey = jd.Location.Key
		c.JDTitle = jd.Title
	}
	saveCtx, cancel := persistContext(ctx)
	defer cancel()
	version, err := s.Repo.Upsert(saveCtx, c)
	if err != nil {
		return domain.Candidate{}, fmt.Errorf("op=intake.save: %w", err)
	}
	c.Version = version
	s.publish(ctx, domain.EventCandidateUploaded, c)
	return c, nil
}

// GenerateTaskQuestions builds the post-shortlist assessment. It rejects
// candidates that are not shortlisted and returns stored content unchanged
// when it was already generated.
func (s IntakeService) GenerateTaskQuestions(ctx context.Context, email string) (domain.TaskQuestionsResult, error) {
	email = NormalizeEmail(email)
	if email == "" {
		return domain.TaskQuestionsResult{}, fmt.Errorf("%w: email required", domain.ErrInvalidArgument)
	}
	ctx = obsctx.WithLogAttrs(ctx, slog.String("candidate", email))
	lg := obsctx.LoggerFromContext(ctx)

	c, err := s.Repo.Get(ctx, email)
	if err != nil {
		return domain.TaskQuestionsResult{}, fmt.Errorf("op=intake.tasks_get: %w", err)
	}
	if res, done, err := taskGate(c); done {
		return res, err
	}

	text := ""
	if c.ResumeKey != "" {
		data, err := s.Blobs.Get(ctx, domain.BlobRef{Key: c.ResumeKey, URL: c.ResumeURL})
		if err != nil {
			return domain.TaskQuestionsResult{}, fmt.Errorf("op=intake.tasks_resume: %w", err)
		}
		doc := domain.RawDocument{Content: data, Filename: path.Base(c.ResumeKey), Size: int64(len(data))}
		text, err = s.resumeText(ctx, doc, domain.BlobRef{Key: c.ResumeKey, URL: c.ResumeURL})
		if err != nil {
			return domain.TaskQuestionsResult{}, err
		}
	}
	profile := AnalyzeProfile(text)
	prompt := BuildPrompt(PromptInput{
		Task:       TaskAssessment,
		Candidate:  domain.CandidateProfile{Name: c.Name, Email: c.Email, Phone: c.Phone},
		Profile:    profile,
		JDTitle:    c.JDTitle,
		ResumeText: text,
	})
	s.observePrompt(TaskAssessment, prompt)
	result := s.generate(ctx, prompt)

	tasks := FallbackTasks(text, profile, c.JDTitle)
	source := domain.SourceFallback
	if result.Success {
		if technical, scenario, ok := ParseTasks(result.Output); ok {
			tasks = AITasks(technical, scenario, c.JDTitle)
			source = domain.SourceAI
		}
	}
	observability.RecordQuestionSet("task_" + source)
	lg.Info("task questions resolved", slog.String("source", source), slog.String("shape", result.Shape))

	html, err := s.Renderer.Tasks(tasks)
	if err != nil {
		return domain.TaskQuestionsResult{}, err
	}

	saveCtx, cancel := persistContext(ctx)
	defer cancel()
	for attempt := 1; ; attempt++ {
		c.TaskQuestions = html
		c.TaskQuestionsGenerated = true
		c.UpdatedAt = s.now()
		expected := c.Version
		version, err := s.Repo.Update(saveCtx, c, &expected)
		if err == nil {
			c.Version = version
			break
		}
		if !errors.Is(err, domain.ErrConflict) || attempt == updateAttempts {
			return domain.TaskQuestionsResult{}, fmt.Errorf("op=intake.tasks_save: %w", err)
		}
		// someone else wrote first; re-check the gate against the fresh record
		if c, err = s.Repo.Get(saveCtx, email); err != nil {
			return domain.TaskQuestionsResult{}, fmt.Errorf("op=intake.tasks_get: %w", err)
		}
		if res, done, err := taskGate(c); done {
			return res, err
		}
	}
	s.publish(ctx, domain.EventCandidateTasksGenerated, c)
	return domain.TaskQuestionsResult{TaskQuestions: html, Generated: true}, nil
}

// taskGate reports done when generation must not run for c.
func taskGate(c domain.Candidate) (domain.TaskQuestionsResult, bool, error) {
	if c.Status != domain.StatusShortlisted {
		return domain.TaskQuestionsResult{}, true, &domain.NotShortlistedError{CurrentStatus: c.Status}
	}
	if c.TaskQuestionsGenerated && c.TaskQuestions != "" {
		return domain.TaskQuestionsResult{TaskQuestions: c.TaskQuestions, Generated: true, AlreadyGenerated: true}, true, nil
	}
	return domain.TaskQuestionsResult{}, false, nil
}

// resumeText runs the normalizer; no text is a soft failure that yields "".
func (s IntakeService) resumeText(ctx context.Context, doc domain.RawDocument, ref domain.BlobRef) (string, error) {
	extracted, err := s.Normalizer.Normalize(ctx, NormalizeRequest{Doc: doc, Blob: ref})
	switch {
	case err == nil:
		return extracted.Text, nil
	case errors.Is(err, domain.ErrNoText):
		obsctx.LoggerFromContext(ctx).Warn("resume yielded no text; continuing with defaults", slog.String("key", ref.Key))
		return "", nil
	default:
		return "", fmt.Errorf("op=intake.extract: %w", err)
	}
}

// generate runs the invoker inside the generation budget. The budget is
// also trimmed so persistReserve is left before the request deadline.
func (s IntakeService) generate(ctx context.Context, prompt string) domain.GenerationResult {
	budget, bounded := s.GenerationBudget, s.GenerationBudget > 0
	if deadline, ok := ctx.Deadline(); ok {
		left := max(time.Until(deadline)-persistReserve, 0)
		if !bounded || left < budget {
			budget, bounded = left, true
		}
	}
	if !bounded {
		return s.Invoker.Invoke(ctx, prompt, s.GenOptions)
	}
	genCtx, cancel := context.WithTimeout(ctx, budget)
	defer cancel()
	result := s.Invoker.Invoke(genCtx, prompt, s.GenOptions)
	if !result.Success && genCtx.Err() != nil && ctx.Err() == nil {
		obsctx.LoggerFromContext(ctx).Warn("generation budget exhausted", slog.Duration("budget", budget))
	}
	return result
}

// persistContext outlives the request deadline so a fallback result can
// still be stored after a slow generation pass.
func persistContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), persistTimeout)
}

func (s IntakeService) observePrompt(task PromptTask, prompt string) {
	if s.Tokens == nil {
		return
	}
	observability.ObservePromptTokens(string(task), s.Tokens.Count(prompt))
}

const publishTimeout = 5 * time.Second

func (s IntakeService) publish(ctx context.Context, typ string, c domain.Candidate) {
	if s.Events == nil {
		return
	}
	ev := domain.CandidateEvent{
		Type:       typ,
		Email:      c.Email,
		Status:     c.Status,
		AIUsed:     c.AIUsed,
		Version:    c.Version,
		OccurredAt: s.now(),
		RequestID:  obsctx.RequestIDFromContext(ctx),
	}
	// detached from the request deadline
	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()
	if err := s.Events.Publish(pubCtx, ev); err != nil {
		obsctx.LoggerFromContext(ctx).Warn("candidate event publish failed", slog.String("type", typ), slog.Any("error", err))
	}
}

func (s IntakeService) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

// BlobKey builds "{category}/{unix millis}_{base filename}".
func BlobKey(category, filename string, at time.Time) string {
	base := path.Base(strings.ReplaceAll(filename, "\\", "/"))
	if base == "." || base == "/" || base == "" {
		base = "upload"
	}
	base = strings.ReplaceAll(base, " ", "_")
	return fmt.Sprintf("%s/%d_%s", category, at.UnixMilli(), base)
}

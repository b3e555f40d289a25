package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"

	"github.com/AbilashEG/smart-hr-intake/internal/config"
	"github.com/AbilashEG/smart-hr-intake/internal/domain"
	"github.com/AbilashEG/smart-hr-intake/internal/usecase"
)

// Multipart field names of the upload form.
const (
	FieldResume         = "resume"
	FieldJobDescription = "jobDescription"
)

// IntakeAPI is the part of usecase.IntakeService the handlers call.
type IntakeAPI interface {
	ProcessUpload(ctx context.Context, in usecase.UploadInput) (domain.Candidate, error)
	GenerateTaskQuestions(ctx context.Context, email string) (domain.TaskQuestionsResult, error)
	ListCandidates(ctx context.Context) ([]domain.Candidate, error)
	GetCandidate(ctx context.Context, email string) (domain.Candidate, error)
	UpdateCandidate(ctx context.Context, email string, patch domain.CandidatePatch, version *int64) (domain.Candidate, error)
}

// ReadinessCheck is one named dependency probe for /readyz.
type ReadinessCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

// Server aggregates handler dependencies.
type Server struct {
	Cfg    config.Config
	Intake IntakeAPI
	Checks []ReadinessCheck
}

// NewServer constructs a Server.
func NewServer(cfg config.Config, intake IntakeAPI, checks ...ReadinessCheck) *Server {
	return &Server{Cfg: cfg, Intake: intake, Checks: checks}
}

type candidateResponse struct {
	Email                  string        `json:"email"`
	Name                   string        `json:"name"`
	Phone                  string        `json:"phone"`
	Status                 string        `json:"status"`
	Attendance             string        `json:"attendance"`
	Review                 domain.Review `json:"review"`
	ResumeURL              string        `json:"resume_url"`
	JDURL                  string        `json:"jd_url,omitempty"`
	JDTitle                string        `json:"jd_title,omitempty"`
	Questions              string        `json:"questions"`
	TaskQuestions          string        `json:"task_questions,omitempty"`
	AIUsed                 bool          `json:"ai_used"`
	Personalized           bool          `json:"personalized"`
	EnhancedMatching       bool          `json:"enhanced_matching"`
	TaskQuestionsGenerated bool          `json:"task_questions_generated"`
	UploadedAt             time.Time     `json:"uploaded_at"`
	UpdatedAt              time.Time     `json:"updated_at"`
	Version                int64         `json:"version"`
}

func toCandidateResponse(c domain.Candidate) candidateResponse {
	return candidateResponse{
		Email:                  c.Email,
		Name:                   c.Name,
		Phone:                  c.Phone,
		Status:                 c.Status,
		Attendance:             c.Attendance,
		Review:                 c.Review,
		ResumeURL:              c.ResumeURL,
		JDURL:                  c.JDURL,
		JDTitle:                c.JDTitle,
		Questions:              c.Questions,
		TaskQuestions:          c.TaskQuestions,
		AIUsed:                 c.AIUsed,
		Personalized:           c.Personalized,
		EnhancedMatching:       c.EnhancedMatching,
		TaskQuestionsGenerated: c.TaskQuestionsGenerated,
		UploadedAt:             c.UploadedAt,
		UpdatedAt:              c.UpdatedAt,
		Version:                c.Version,
	}
}

// errUnsupportedMedia marks a part that failed the extension or content allowlist.
type errUnsupportedMedia struct {
	field, filename, mime string
}

func (e *errUnsupportedMedia) Error() string {
	if e.mime != "" {
		return fmt.Sprintf("unsupported media type for %s (content %s)", e.field, e.mime)
	}
	return fmt.Sprintf("unsupported media type for %s (extension)", e.field)
}

// errTooLarge marks a part or body above the upload cap.
var errTooLarge = errors.New("payload too large")

// UploadHandler accepts a resume and an optional job description and returns the stored candidate.
func (s *Server) UploadHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !acceptsJSON(w, r) {
			return
		}
		if !strings.Contains(r.Header.Get("Content-Type"), "multipart/form-data") {
			writeError(w, r, fmt.Errorf("%w: content-type must be multipart/form-data", domain.ErrInvalidArgument), nil)
			return
		}
		maxBytes := s.Cfg.MaxUploadMB * 1024 * 1024
		// two files may arrive, each up to the cap
		r.Body = http.MaxBytesReader(w, r.Body, 2*maxBytes+64*1024)
		if err := r.ParseMultipartForm(maxBytes); err != nil {
			var mbe *http.MaxBytesError
			if errors.As(err, &mbe) || strings.Contains(err.Error(), "request body too large") {
				writeStatus(w, http.StatusRequestEntityTooLarge, "INVALID_ARGUMENT", errTooLarge.Error(), map[string]any{"max_mb": s.Cfg.MaxUploadMB})
				return
			}
			writeError(w, r, fmt.Errorf("%w: %v", domain.ErrInvalidArgument, err), nil)
			return
		}
		defer func() { _ = r.MultipartForm.RemoveAll() }()

		resume, err := readUploadPart(r, FieldResume, maxBytes)
		if err == nil && resume == nil {
			err = fmt.Errorf("%w: resume file required", domain.ErrInvalidArgument)
		}
		if err != nil {
			s.writeUploadError(w, r, FieldResume, err)
			return
		}
		jd, err := readUploadPart(r, FieldJobDescription, maxBytes)
		if err != nil {
			s.writeUploadError(w, r, FieldJobDescription, err)
			return
		}

		c, err := s.Intake.ProcessUpload(r.Context(), usecase.UploadInput{Resume: *resume, JobDescription: jd})
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		writeJSON(w, http.StatusOK, toCandidateResponse(c))
	}
}

func (s *Server) writeUploadError(w http.ResponseWriter, r *http.Request, field string, err error) {
	var um *errUnsupportedMedia
	switch {
	case errors.As(err, &um):
		details := map[string]any{"field": um.field, "filename": um.filename}
		if um.mime != "" {
			details["mime"] = um.mime
		}
		writeStatus(w, http.StatusUnsupportedMediaType, "INVALID_ARGUMENT", um.Error(), details)
	case errors.Is(err, errTooLarge):
		writeStatus(w, http.StatusRequestEntityTooLarge, "INVALID_ARGUMENT", err.Error(), map[string]any{"field": field, "max_mb": s.Cfg.MaxUploadMB})
	default:
		writeError(w, r, err, map[string]string{"field": field})
	}
}

// readUploadPart returns nil without error when the field is absent.
func readUploadPart(r *http.Request, field string, maxBytes int64) (*domain.RawDocument, error) {
	f, h, err := r.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", domain.ErrInvalidArgument, field, err)
	}
	defer func() { _ = f.Close() }()

	if !allowedExt(h.Filename) {
		return nil, &errUnsupportedMedia{field: field, filename: h.Filename}
	}
	if h.Size > maxBytes {
		return nil, fmt.Errorf("%s: %w", field, errTooLarge)
	}
	data, err := io.ReadAll(io.LimitReader(f, maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("%w: %s read: %v", domain.ErrInvalidArgument, field, err)
	}
	if int64(len(data)) > maxBytes {
		return nil, fmt.Errorf("%s: %w", field, errTooLarge)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: %s is empty", domain.ErrInvalidArgument, field)
	}
	detected := mimetype.Detect(data)
	if !allowedContent(detected, h.Filename) {
		return nil, &errUnsupportedMedia{field: field, filename: h.Filename, mime: detected.String()}
	}
	return &domain.RawDocument{
		Content:   data,
		MediaType: declaredType(h, detected),
		Filename:  filepath.Base(h.Filename),
		Size:      int64(len(data)),
	}, nil
}

// declaredType keeps a specific client-declared type and otherwise uses the sniffed one.
func declaredType(h *multipart.FileHeader, detected *mimetype.MIME) string {
	ct := strings.TrimSpace(h.Header.Get("Content-Type"))
	if ct == "" || strings.HasPrefix(ct, "application/octet-stream") {
		return detected.String()
	}
	return ct
}

// ListCandidatesHandler returns every candidate, newest upload first.
func (s *Server) ListCandidatesHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !acceptsJSON(w, r) {
			return
		}
		list, err := s.Intake.ListCandidates(r.Context())
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		out := make([]candidateResponse, 0, len(list))
		for _, c := range list {
			out = append(out, toCandidateResponse(c))
		}
		writeJSON(w, http.StatusOK, map[string]any{"candidates": out, "count": len(out)})
	}
}

// GetCandidateHandler returns one candidate by email.
func (s *Server) GetCandidateHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !acceptsJSON(w, r) {
			return
		}
		email, err := emailParam(r)
		if err != nil {
			writeError(w, r, err, map[string]string{"field": "email"})
			return
		}
		c, err := s.Intake.GetCandidate(r.Context(), email)
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		w.Header().Set("ETag", versionETag(c.Version))
		writeJSON(w, http.StatusOK, toCandidateResponse(c))
	}
}

// UpdateCandidateHandler applies an HR review patch. The expected version comes
// from the body or from If-Match. Without either, the patch is applied to the
// version just read and retried on conflict a bounded number of times.
func (s *Server) UpdateCandidateHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !acceptsJSON(w, r) {
			return
		}
		email, err := emailParam(r)
		if err != nil {
			writeError(w, r, err, map[string]string{"field": "email"})
			return
		}
		r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
		var req updateCandidateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, r, fmt.Errorf("%w: invalid json", domain.ErrInvalidArgument), nil)
			return
		}
		if verrs := validateStruct(req); verrs != nil {
			writeError(w, r, fmt.Errorf("%w: validation failed", domain.ErrInvalidArgument), verrs)
			return
		}
		version := req.Version
		if version == nil {
			if version, err = ifMatchVersion(r.Header.Get("If-Match")); err != nil {
				writeError(w, r, err, map[string]string{"header": "If-Match"})
				return
			}
		}
		c, err := s.Intake.UpdateCandidate(r.Context(), email, req.patch(), version)
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		w.Header().Set("ETag", versionETag(c.Version))
		writeJSON(w, http.StatusOK, toCandidateResponse(c))
	}
}

// GenerateTasksHandler builds the post-shortlist assessment for a candidate.
func (s *Server) GenerateTasksHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !acceptsJSON(w, r) {
			return
		}
		email, err := emailParam(r)
		if err != nil {
			writeError(w, r, err, map[string]string{"field": "email"})
			return
		}
		res, err := s.Intake.GenerateTaskQuestions(r.Context(), email)
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"task_questions":    res.TaskQuestions,
			"generated":         res.Generated,
			"already_generated": res.AlreadyGenerated,
		})
	}
}

type readinessResult struct {
	Name    string `json:"name"`
	OK      bool   `json:"ok"`
	Details string `json:"details,omitempty"`
}

// ReadyzHandler runs every configured check and answers 503 if any fails.
func (s *Server) ReadyzHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		results := make([]readinessResult, 0, len(s.Checks))
		st := http.StatusOK
		for _, c := range s.Checks {
			res := readinessResult{Name: c.Name, OK: true}
			if err := c.Check(ctx); err != nil {
				res.OK = false
				res.Details = err.Error()
				st = http.StatusServiceUnavailable
			}
			results = append(results, res)
		}
		writeJSON(w, st, map[string]any{"checks": results})
	}
}

// acceptsJSON answers 406 unless the client accepts JSON.
func acceptsJSON(w http.ResponseWriter, r *http.Request) bool {
	a := r.Header.Get("Accept")
	if a == "" || strings.Contains(a, "*/*") || strings.Contains(a, "application/json") || strings.Contains(a, "application/*") {
		return true
	}
	writeStatus(w, http.StatusNotAcceptable, "INVALID_ARGUMENT", "not acceptable", map[string]any{"accept": a})
	return false
}

package httpserver

import (
	"fmt"
	"net/http"
	"net/url"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/AbilashEG/smart-hr-intake/internal/domain"
	"github.com/AbilashEG/smart-hr-intake/internal/usecase"
)

var (
	vldOnce sync.Once
	vld     *validator.Validate
)

func getValidator() *validator.Validate {
	vldOnce.Do(func() { vld = validator.New(validator.WithRequiredStructEnabled()) })
	return vld
}

// uploadTypes maps each allowed extension to the sniffed type that must appear
// in the detected type or one of its parents.
var uploadTypes = map[string]string{
	".pdf":  "application/pdf",
	".docx": "application/zip",
	".doc":  "application/x-ole-storage",
	".txt":  "text/plain",
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
}

func allowedExt(name string) bool {
	_, ok := uploadTypes[strings.ToLower(filepath.Ext(name))]
	return ok
}

// allowedContent checks the sniffed type against the extension. Parents are
// walked so docx matches its zip container and html matches text/plain.
func allowedContent(m *mimetype.MIME, filename string) bool {
	want, ok := uploadTypes[strings.ToLower(filepath.Ext(filename))]
	if !ok {
		return false
	}
	for ; m != nil; m = m.Parent() {
		if m.Is(want) {
			return true
		}
	}
	return false
}

// updateCandidateRequest is the PUT body. Absent fields are left untouched.
type updateCandidateRequest struct {
	Name                 *string `json:"name" validate:"omitempty,max=200"`
	Phone                *string `json:"phone" validate:"omitempty,max=50"`
	Status               *string `json:"status" validate:"omitempty,max=50"`
	Attendance           *string `json:"attendance" validate:"omitempty,max=50"`
	Rating               *string `json:"rating" validate:"omitempty,max=20"`
	InterviewDate        *string `json:"interview_date" validate:"omitempty,max=50"`
	Notes                *string `json:"notes" validate:"omitempty,max=5000"`
	Feedback             *string `json:"feedback" validate:"omitempty,max=5000"`
	InterviewNotes       *string `json:"interview_notes" validate:"omitempty,max=5000"`
	NextSteps            *string `json:"next_steps" validate:"omitempty,max=2000"`
	TechnicalSkills      *string `json:"technical_skills" validate:"omitempty,max=2000"`
	CommunicationSkills  *string `json:"communication_skills" validate:"omitempty,max=2000"`
	ProblemSolvingSkills *string `json:"problem_solving_skills" validate:"omitempty,max=2000"`
	OverallImpression    *string `json:"overall_impression" validate:"omitempty,max=2000"`
	Version              *int64  `json:"version" validate:"omitempty,min=1"`
}

func (r updateCandidateRequest) patch() domain.CandidatePatch {
	return domain.CandidatePatch{
		Name:                 r.Name,
		Phone:                r.Phone,
		Status:               r.Status,
		Attendance:           r.Attendance,
		Rating:               r.Rating,
		InterviewDate:        r.InterviewDate,
		Notes:                r.Notes,
		Feedback:             r.Feedback,
		InterviewNotes:       r.InterviewNotes,
		NextSteps:            r.NextSteps,
		TechnicalSkills:      r.TechnicalSkills,
		CommunicationSkills:  r.CommunicationSkills,
		ProblemSolvingSkills: r.ProblemSolvingSkills,
		OverallImpression:    r.OverallImpression,
	}
}

// validateStruct returns field -> failed tag, or nil when v is valid.
func validateStruct(v any) map[string]string {
	err := getValidator().Struct(v)
	if err == nil {
		return nil
	}
	verrs := map[string]string{}
	if ve, ok := err.(validator.ValidationErrors); ok {
		for _, fe := range ve {
			verrs[strings.ToLower(fe.Field())] = fe.Tag()
		}
	}
	return verrs
}

// emailParam reads and normalizes the {email} path segment.
func emailParam(r *http.Request) (string, error) {
	raw := chi.URLParam(r, "email")
	email, err := url.PathUnescape(raw)
	if err != nil {
		return "", fmt.Errorf("%w: malformed email", domain.ErrInvalidArgument)
	}
	email = usecase.NormalizeEmail(email)
	if err := getValidator().Var(email, "required,max=254,email"); err != nil {
		return "", fmt.Errorf("%w: invalid email %q", domain.ErrInvalidArgument, email)
	}
	return email, nil
}

// ifMatchVersion parses an ETag written by versionETag. An empty header means no check.
func ifMatchVersion(h string) (*int64, error) {
	h = strings.TrimSpace(h)
	if h == "" || h == "*" {
		return nil, nil
	}
	h = strings.Trim(strings.TrimPrefix(h, "W/"), `"`)
	v, err := strconv.ParseInt(h, 10, 64)
	if err != nil || v < 1 {
		return nil, fmt.Errorf("%w: If-Match must be a candidate version", domain.ErrInvalidArgument)
	}
	return &v, nil
}

func versionETag(v int64) string { return `"` + strconv.FormatInt(v, 10) + `"` }

// Package domain holds the core types, sentinel errors and ports of the
// resume intake service. It has no dependencies on adapters.
package domain

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Error taxonomy (sentinels)
var (
	ErrInvalidArgument   = errors.New("invalid argument")
	ErrNotFound          = errors.New("not found")
	ErrConflict          = errors.New("conflict")
	ErrRateLimited       = errors.New("rate limited")
	ErrUpstreamTimeout   = errors.New("upstream timeout")
	ErrUpstreamRateLimit = errors.New("upstream rate limit")
	ErrInternal          = errors.New("internal error")

	// ErrNoText reports that every extraction strategy came back empty.
	ErrNoText = errors.New("no text extracted")
	// ErrOCRJobFailed reports a terminal FAILED state from the async OCR job.
	ErrOCRJobFailed = errors.New("ocr job failed")
	// ErrOCRTimeout reports that the async OCR job did not finish within the poll budget.
	ErrOCRTimeout = errors.New("ocr job timed out")
	// ErrNotShortlisted is a policy violation, not a system fault.
	ErrNotShortlisted = errors.New("not shortlisted")
)

// NotShortlistedError carries the status that blocked task generation.
type NotShortlistedError struct {
	CurrentStatus string
}

func (e *NotShortlistedError) Error() string {
	return fmt.Sprintf("not shortlisted: current status %q", e.CurrentStatus)
}

// Unwrap lets errors.Is match ErrNotShortlisted.
func (e *NotShortlistedError) Unwrap() error { return ErrNotShortlisted }

// Candidate status values used by the workflow.
const (
	StatusPending     = "Pending"
	StatusShortlisted = "Shortlisted"

	AttendancePending = "Pending"

	DefaultName  = "Unknown"
	DefaultPhone = "Not provided"
)

// MediaKind is the coarse document family used to pick extraction strategies.
type MediaKind string

// Known media kinds.
const (
	MediaPDF   MediaKind = "pdf"
	MediaDOCX  MediaKind = "docx"
	MediaDOC   MediaKind = "doc" // legacy binary Word, OCR only
	MediaImage MediaKind = "image"
	MediaText  MediaKind = "text"
	MediaOther MediaKind = "other"
)

// RawDocument is an uploaded file before text extraction. It is never persisted.
type RawDocument struct {
	Content   []byte
	MediaType string
	Filename  string
	Size      int64
}

// ExtractedText is the output of the text normalizer.
type ExtractedText struct {
	Text      string
	Method    string
	CharCount int
}

// Empty reports whether no usable text was produced.
func (e ExtractedText) Empty() bool { return strings.TrimSpace(e.Text) == "" }

// BlobRef locates a stored object.
type BlobRef struct {
	Bucket string
	Key    string
	URL    string
}

// IsZero reports whether the ref points nowhere.
func (r BlobRef) IsZero() bool { return r.Key == "" }

func (r BlobRef) String() string {
	if r.Bucket == "" {
		return r.Key
	}
	return r.Bucket + "/" + r.Key
}

// CandidateProfile holds the identity fields pulled from resume text.
type CandidateProfile struct {
	Name  string
	Email string
	Phone string
}

// Career levels.
const (
	CareerEntry       = "Entry-level"
	CareerMid         = "Mid-level"
	CareerSenior      = "Senior"
	CareerExperienced = "Experienced"
)

// Education tiers.
const (
	EducationAdvanced  = "Advanced Degree"
	EducationBachelor  = "Bachelor's Degree"
	EducationTechnical = "Technical Background"
)

// AnalyzedProfile is the secondary profile used to personalize prompts and
// fallback content. Every field is always populated.
type AnalyzedProfile struct {
	Projects        string
	Interests       []string
	CareerLevel     string
	Industry        string
	HasLeadership   bool
	Leadership      string
	Education       string
	Achievements    string
	SkillsMatched   bool
	ProjectsMatched bool
}

// InterestsText joins interests for display.
func (p AnalyzedProfile) InterestsText() string { return strings.Join(p.Interests, ", ") }

// HasSignal reports whether the resume yielded anything beyond defaults.
func (p AnalyzedProfile) HasSignal() bool { return p.SkillsMatched || p.ProjectsMatched }

// JobDescriptionRecord is produced whole or not at all.
type JobDescriptionRecord struct {
	Text       string
	Title      string
	Skills     string
	Experience string
	Company    string
	Location   BlobRef
}

// GenerationOptions are the sampling knobs passed to a generation shape.
type GenerationOptions struct {
	MaxTokens   int
	Temperature float64
}

// GenerationResult is always returned by the invoker; it never raises.
type GenerationResult struct {
	Success  bool
	Output   string
	Shape    string
	Enhanced bool
}

// QuestionsPerCategory is the fixed length of each question list.
const QuestionsPerCategory = 5

// QuestionSet holds exactly five technical and five behavioural questions.
type QuestionSet struct {
	Technical  []string
	Behavioral []string
}

// Question sources recorded on a generated set.
const (
	SourceAI       = "ai"
	SourceFallback = "fallback"
	SourceMixed    = "mixed"
)

// Review holds the HR reviewer fields of a candidate.
type Review struct {
	Rating               string `json:"rating"`
	InterviewDate        string `json:"interview_date"`
	Notes                string `json:"notes"`
	Feedback             string `json:"feedback"`
	InterviewNotes       string `json:"interview_notes"`
	NextSteps            string `json:"next_steps"`
	TechnicalSkills      string `json:"technical_skills"`
	CommunicationSkills  string `json:"communication_skills"`
	ProblemSolvingSkills string `json:"problem_solving_skills"`
	OverallImpression    string `json:"overall_impression"`
}

// Candidate is the persisted record keyed by email.
type Candidate struct {
	Email      string
	Name       string
	Phone      string
	Status     string
	Attendance string
	Review     Review

	ResumeURL string
	ResumeKey string
	JDURL     string
	JDKey     string
	JDTitle   string

	Questions     string
	TaskQuestions string

	AIUsed                 bool
	Personalized           bool
	EnhancedMatching       bool
	TaskQuestionsGenerated bool

	UploadedAt time.Time
	UpdatedAt  time.Time
	Version    int64
}

// CandidatePatch is a partial update; nil fields are left untouched.
type CandidatePatch struct {
	Name                 *string
	Phone                *string
	Status               *string
	Attendance           *string
	Rating               *string
	InterviewDate        *string
	Notes                *string
	Feedback             *string
	InterviewNotes       *string
	NextSteps            *string
	TechnicalSkills      *string
	CommunicationSkills  *string
	ProblemSolvingSkills *string
	OverallImpression    *string
}

// Apply copies the set fields of the patch onto c.
func (p CandidatePatch) Apply(c *Candidate) {
	set := func(dst *string, v *string) {
		if v != nil {
			*dst = *v
		}
	}
	set(&c.Name, p.Name)
	set(&c.Phone, p.Phone)
	set(&c.Status, p.Status)
	set(&c.Attendance, p.Attendance)
	set(&c.Review.Rating, p.Rating)
	set(&c.Review.InterviewDate, p.InterviewDate)
	set(&c.Review.Notes, p.Notes)
	set(&c.Review.Feedback, p.Feedback)
	set(&c.Review.InterviewNotes, p.InterviewNotes)
	set(&c.Review.NextSteps, p.NextSteps)
	set(&c.Review.TechnicalSkills, p.TechnicalSkills)
	set(&c.Review.CommunicationSkills, p.CommunicationSkills)
	set(&c.Review.ProblemSolvingSkills, p.ProblemSolvingSkills)
	set(&c.Review.OverallImpression, p.OverallImpression)
}

// TaskQuestionsResult is returned by task generation.
type TaskQuestionsResult struct {
	TaskQuestions    string
	Generated        bool
	AlreadyGenerated bool
}

// OCR job statuses.
const (
	OCRJobInProgress = "IN_PROGRESS"
	OCRJobSucceeded  = "SUCCEEDED"
	OCRJobFailed     = "FAILED"
)

// OCRJob is the polled state of an asynchronous OCR job.
type OCRJob struct {
	ID     string
	Status string
	Lines  []string
	Error  string
}

// Candidate event types.
const (
	EventCandidateUploaded       = "candidate.uploaded"
	EventCandidateUpdated        = "candidate.updated"
	EventCandidateTasksGenerated = "candidate.tasks_generated"
)

// CandidateEvent is published after candidate mutations.
type CandidateEvent struct {
	Type       string    `json:"type"`
	Email      string    `json:"email"`
	Status     string    `json:"status"`
	AIUsed     bool      `json:"ai_used"`
	Version    int64     `json:"version"`
	OccurredAt time.Time `json:"occurred_at"`
	// RequestID is the HTTP request that caused the event, when known.
	RequestID string `json:"request_id,omitempty"`
}

// Context is an alias to allow decoupling from std context in domain.
type Context = context.Context

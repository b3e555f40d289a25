package domain

// BlobStore persists raw uploads and returns where they live.
type BlobStore interface {
	Put(ctx Context, key string, data []byte, contentType string) (BlobRef, error)
	Get(ctx Context, ref BlobRef) ([]byte, error)
}

// OCRService detects text lines synchronously from raw bytes.
type OCRService interface {
	DetectText(ctx Context, data []byte, mediaType string) ([]string, error)
}

// OCRJobService runs OCR asynchronously against a stored object.
type OCRJobService interface {
	StartJob(ctx Context, ref BlobRef) (string, error)
	PollJob(ctx Context, jobID string) (OCRJob, error)
}

// DocumentParser extracts text from one document format.
type DocumentParser interface {
	ExtractText(ctx Context, data []byte) (string, error)
}

// ModelInvoker sends a raw request body to a generation model and returns the raw response body.
type ModelInvoker interface {
	Invoke(ctx Context, modelID string, body []byte) ([]byte, error)
}

// GenerationShape is one way of asking the generation backend for text.
type GenerationShape interface {
	Name() string
	Generate(ctx Context, prompt string, opts GenerationOptions) (string, error)
}

// CandidateRepository stores candidate records keyed by email.
type CandidateRepository interface {
	Get(ctx Context, email string) (Candidate, error)
	// Upsert creates or replaces the record and returns the new version.
	Upsert(ctx Context, c Candidate) (int64, error)
	// Update writes c when the stored version equals expectedVersion (nil skips the check).
	// It returns ErrConflict on a version mismatch and ErrNotFound when no record exists.
	Update(ctx Context, c Candidate, expectedVersion *int64) (int64, error)
	List(ctx Context) ([]Candidate, error)
}

// EventPublisher emits candidate lifecycle events.
type EventPublisher interface {
	Publish(ctx Context, ev CandidateEvent) error
}

// TokenCounter estimates the token size of a prompt.
type TokenCounter interface {
	Count(text string) int
}

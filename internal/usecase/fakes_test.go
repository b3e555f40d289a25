package usecase_test

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/AbilashEG/smart-hr-intake/internal/domain"
)

var fixedNow = time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

func clock() time.Time { return fixedNow }

type fakeBlobs struct {
	mu     sync.Mutex
	data   map[string][]byte
	putErr error
	getErr error
}

func newFakeBlobs() *fakeBlobs { return &fakeBlobs{data: map[string][]byte{}} }

func (b *fakeBlobs) Put(_ context.Context, key string, data []byte, _ string) (domain.BlobRef, error) {
	if b.putErr != nil {
		return domain.BlobRef{}, b.putErr
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.data[key] = append([]byte(nil), data...)
	return domain.BlobRef{Bucket: "test", Key: key, URL: "http://blob.local/test/" + key}, nil
}

func (b *fakeBlobs) Get(_ context.Context, ref domain.BlobRef) ([]byte, error) {
	if b.getErr != nil {
		return nil, b.getErr
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	d, ok := b.data[ref.Key]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return d, nil
}

func (b *fakeBlobs) keys() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]string, 0, len(b.data))
	for k := range b.data {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// fakeOCR returns its lines for every call, or err.
type fakeOCR struct {
	mu    sync.Mutex
	lines []string
	err   error
	calls int
}

func (o *fakeOCR) DetectText(context.Context, []byte, string) ([]string, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.calls++
	return o.lines, o.err
}

// fakeJobs reports IN_PROGRESS pending times, then final.
type fakeJobs struct {
	mu       sync.Mutex
	pending  int
	final    domain.OCRJob
	startErr error
	polls    int
	started  []domain.BlobRef
}

func (j *fakeJobs) StartJob(_ context.Context, ref domain.BlobRef) (string, error) {
	if j.startErr != nil {
		return "", j.startErr
	}
	j.mu.Lock()
	defer j.mu.Unlock()
	j.started = append(j.started, ref)
	return "job-1", nil
}

func (j *fakeJobs) PollJob(_ context.Context, id string) (domain.OCRJob, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.polls++
	if j.polls <= j.pending {
		return domain.OCRJob{ID: id, Status: domain.OCRJobInProgress}, nil
	}
	out := j.final
	out.ID = id
	return out, nil
}

type fakeParser struct {
	text  string
	err   error
	calls int
}

func (p *fakeParser) ExtractText(context.Context, []byte) (string, error) {
	p.calls++
	return p.text, p.err
}

type fakeShape struct {
	name  string
	out   string
	err   error
	mu    sync.Mutex
	calls int
}

func (s *fakeShape) Name() string { return s.name }

func (s *fakeShape) Generate(context.Context, string, domain.GenerationOptions) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	return s.out, s.err
}

func (s *fakeShape) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

// hangingShape blocks until its context ends, like a backend that never answers.
type hangingShape struct {
	name  string
	calls atomic.Int32
}

func (s *hangingShape) Name() string { return s.name }

func (s *hangingShape) Generate(ctx context.Context, _ string, _ domain.GenerationOptions) (string, error) {
	s.calls.Add(1)
	<-ctx.Done()
	return "", ctx.Err()
}

// deadlineRepo fails writes on a finished context the way pgx does.
type deadlineRepo struct{ *memRepo }

func (r deadlineRepo) Get(ctx context.Context, email string) (domain.Candidate, error) {
	if err := ctx.Err(); err != nil {
		return domain.Candidate{}, err
	}
	return r.memRepo.Get(ctx, email)
}

func (r deadlineRepo) Upsert(ctx context.Context, c domain.Candidate) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	return r.memRepo.Upsert(ctx, c)
}

func (r deadlineRepo) Update(ctx context.Context, c domain.Candidate, expected *int64) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	return r.memRepo.Update(ctx, c, expected)
}

// memRepo is a versioned in-memory candidate store.
type memRepo struct {
	mu      sync.Mutex
	rows    map[string]domain.Candidate
	updates int
	// conflicts makes the next N Update calls fail with ErrConflict after bumping the stored version.
	conflicts int
	getErr    error
}

func newMemRepo() *memRepo { return &memRepo{rows: map[string]domain.Candidate{}} }

func (r *memRepo) Get(_ context.Context, email string) (domain.Candidate, error) {
	if r.getErr != nil {
		return domain.Candidate{}, r.getErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.rows[email]
	if !ok {
		return domain.Candidate{}, fmt.Errorf("%w: candidate %s", domain.ErrNotFound, email)
	}
	return c, nil
}

func (r *memRepo) Upsert(_ context.Context, c domain.Candidate) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c.Version = r.rows[c.Email].Version + 1
	r.rows[c.Email] = c
	return c.Version, nil
}

func (r *memRepo) Update(_ context.Context, c domain.Candidate, expected *int64) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.updates++
	cur, ok := r.rows[c.Email]
	if !ok {
		return 0, domain.ErrNotFound
	}
	if r.conflicts > 0 {
		r.conflicts--
		cur.Version++
		r.rows[c.Email] = cur
		return 0, domain.ErrConflict
	}
	if expected != nil && *expected != cur.Version {
		return 0, domain.ErrConflict
	}
	c.Version = cur.Version + 1
	r.rows[c.Email] = c
	return c.Version, nil
}

func (r *memRepo) List(context.Context) ([]domain.Candidate, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.Candidate, 0, len(r.rows))
	for _, c := range r.rows {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Email < out[j].Email })
	return out, nil
}

type fakeEvents struct {
	mu     sync.Mutex
	events []domain.CandidateEvent
	err    error
}

func (e *fakeEvents) Publish(_ context.Context, ev domain.CandidateEvent) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.events = append(e.events, ev)
	return e.err
}

func (e *fakeEvents) types() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]string, len(e.events))
	for i, ev := range e.events {
		out[i] = ev.Type
	}
	return out
}

type wordCounter struct{}

func (wordCounter) Count(s string) int { return len(s) / 4 }

var errBoom = errors.New("boom")

package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/AbilashEG/smart-hr-intake/internal/domain"
)

var candidateColumns = []string{
	"email", "name", "phone", "status", "attendance", "review",
	"resume_url", "resume_key", "jd_url", "jd_key", "jd_title",
	"questions", "task_questions",
	"ai_used", "personalized", "enhanced_matching", "task_questions_generated",
	"uploaded_at", "updated_at",
}

var selectCandidate = `SELECT ` + strings.Join(candidateColumns, ", ") + `, version FROM candidates`

// CandidateRepo implements domain.CandidateRepository. Every write bumps version.
type CandidateRepo struct{ Pool PgxPool }

// NewCandidateRepo constructs a CandidateRepo with the given pool.
func NewCandidateRepo(p PgxPool) *CandidateRepo { return &CandidateRepo{Pool: p} }

func (r *CandidateRepo) span(ctx context.Context, name, op string) (context.Context, trace.Span) {
	ctx, span := otel.Tracer("repo.candidates").Start(ctx, "candidates."+name)
	span.SetAttributes(
		attribute.String("db.system", "postgresql"),
		attribute.String("db.operation", op),
		attribute.String("db.sql.table", "candidates"),
	)
	return ctx, span
}

func writeArgs(c domain.Candidate) ([]any, error) {
	review, err := json.Marshal(c.Review)
	if err != nil {
		return nil, err
	}
	return []any{
		c.Email, c.Name, c.Phone, c.Status, c.Attendance, review,
		c.ResumeURL, c.ResumeKey, c.JDURL, c.JDKey, c.JDTitle,
		c.Questions, c.TaskQuestions,
		c.AIUsed, c.Personalized, c.EnhancedMatching, c.TaskQuestionsGenerated,
		c.UploadedAt.UTC(), c.UpdatedAt.UTC(),
	}, nil
}

// Upsert inserts the record at version 1, or replaces it and increments the version.
func (r *CandidateRepo) Upsert(ctx domain.Context, c domain.Candidate) (int64, error) {
	ctx, span := r.span(ctx, "Upsert", "UPSERT")
	defer span.End()

	args, err := writeArgs(c)
	if err != nil {
		return 0, fmt.Errorf("op=candidate.upsert: %w", err)
	}
	placeholders := make([]string, len(candidateColumns))
	updates := make([]string, 0, len(candidateColumns)-1)
	for i, col := range candidateColumns {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		if col != "email" {
			updates = append(updates, col+" = EXCLUDED."+col)
		}
	}
	q := `INSERT INTO candidates (` + strings.Join(candidateColumns, ", ") + `, version) VALUES (` +
		strings.Join(placeholders, ", ") + `, 1) ON CONFLICT (email) DO UPDATE SET ` +
		strings.Join(updates, ", ") + `, version = candidates.version + 1 RETURNING version`

	var version int64
	if err := r.Pool.QueryRow(ctx, q, args...).Scan(&version); err != nil {
		return 0, fmt.Errorf("op=candidate.upsert: %w", err)
	}
	return version, nil
}

// Update writes every column but email when the stored version matches expectedVersion.
func (r *CandidateRepo) Update(ctx domain.Context, c domain.Candidate, expectedVersion *int64) (int64, error) {
	ctx, span := r.span(ctx, "Update", "UPDATE")
	defer span.End()

	args, err := writeArgs(c)
	if err != nil {
		return 0, fmt.Errorf("op=candidate.update: %w", err)
	}
	sets := make([]string, 0, len(candidateColumns)-1)
	for i, col := range candidateColumns[1:] {
		sets = append(sets, fmt.Sprintf("%s = $%d", col, i+2))
	}
	versionArg := len(args) + 1
	q := fmt.Sprintf(`UPDATE candidates SET %s, version = version + 1 WHERE email = $1 AND ($%d::bigint IS NULL OR version = $%d) RETURNING version`,
		strings.Join(sets, ", "), versionArg, versionArg)
	args = append(args, expectedVersion)

	var version int64
	err = r.Pool.QueryRow(ctx, q, args...).Scan(&version)
	if err == nil {
		return version, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return 0, fmt.Errorf("op=candidate.update: %w", err)
	}
	// nothing matched: either the row is gone or the version moved on
	var current int64
	err = r.Pool.QueryRow(ctx, `SELECT version FROM candidates WHERE email = $1`, c.Email).Scan(&current)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return 0, fmt.Errorf("op=candidate.update: %w: %s", domain.ErrNotFound, c.Email)
	case err != nil:
		return 0, fmt.Errorf("op=candidate.update: %w", err)
	default:
		span.SetAttributes(attribute.Int64("candidate.version", current))
		return 0, fmt.Errorf("op=candidate.update: %w: expected version %d, current %d", domain.ErrConflict, derefVersion(expectedVersion), current)
	}
}

// Get loads one candidate by email.
func (r *CandidateRepo) Get(ctx domain.Context, email string) (domain.Candidate, error) {
	ctx, span := r.span(ctx, "Get", "SELECT")
	defer span.End()

	c, err := scanCandidate(r.Pool.QueryRow(ctx, selectCandidate+` WHERE email = $1`, email))
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Candidate{}, fmt.Errorf("op=candidate.get: %w: %s", domain.ErrNotFound, email)
	}
	if err != nil {
		return domain.Candidate{}, fmt.Errorf("op=candidate.get: %w", err)
	}
	return c, nil
}

// List returns every candidate, newest upload first.
func (r *CandidateRepo) List(ctx domain.Context) ([]domain.Candidate, error) {
	ctx, span := r.span(ctx, "List", "SELECT")
	defer span.End()

	rows, err := r.Pool.Query(ctx, selectCandidate+` ORDER BY uploaded_at DESC, email`)
	if err != nil {
		return nil, fmt.Errorf("op=candidate.list: %w", err)
	}
	defer rows.Close()

	out := []domain.Candidate{}
	for rows.Next() {
		c, err := scanCandidate(rows)
		if err != nil {
			return nil, fmt.Errorf("op=candidate.list: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("op=candidate.list: %w", err)
	}
	span.SetAttributes(attribute.Int("candidates.count", len(out)))
	return out, nil
}

func scanCandidate(row pgx.Row) (domain.Candidate, error) {
	var c domain.Candidate
	var review []byte
	err := row.Scan(
		&c.Email, &c.Name, &c.Phone, &c.Status, &c.Attendance, &review,
		&c.ResumeURL, &c.ResumeKey, &c.JDURL, &c.JDKey, &c.JDTitle,
		&c.Questions, &c.TaskQuestions,
		&c.AIUsed, &c.Personalized, &c.EnhancedMatching, &c.TaskQuestionsGenerated,
		&c.UploadedAt, &c.UpdatedAt, &c.Version,
	)
	if err != nil {
		return domain.Candidate{}, err
	}
	if len(review) > 0 {
		if err := json.Unmarshal(review, &c.Review); err != nil {
			return domain.Candidate{}, fmt.Errorf("decode review: %w", err)
		}
	}
	return c, nil
}

func derefVersion(v *int64) int64 {
	if v == nil {
		return 0
	}
	return *v
}

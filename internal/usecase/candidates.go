package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/AbilashEG/smart-hr-intake/internal/domain"
)

// ListCandidates returns every stored candidate.
func (s IntakeService) ListCandidates(ctx context.Context) ([]domain.Candidate, error) {
	list, err := s.Repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("op=intake.list: %w", err)
	}
	return list, nil
}

// GetCandidate returns one candidate by email.
func (s IntakeService) GetCandidate(ctx context.Context, email string) (domain.Candidate, error) {
	email = NormalizeEmail(email)
	if email == "" {
		return domain.Candidate{}, fmt.Errorf("%w: email required", domain.ErrInvalidArgument)
	}
	c, err := s.Repo.Get(ctx, email)
	if err != nil {
		return domain.Candidate{}, fmt.Errorf("op=intake.get: %w", err)
	}
	return c, nil
}

// UpdateCandidate applies an HR review patch. With a version the write fails
// with ErrConflict unless the stored version matches; without one the read
// version is used and the update is retried on conflict.
func (s IntakeService) UpdateCandidate(ctx context.Context, email string, patch domain.CandidatePatch, version *int64) (domain.Candidate, error) {
	email = NormalizeEmail(email)
	if email == "" {
		return domain.Candidate{}, fmt.Errorf("%w: email required", domain.ErrInvalidArgument)
	}
	if err := validatePatch(patch); err != nil {
		return domain.Candidate{}, err
	}
	attempts := updateAttempts
	if version != nil {
		attempts = 1
	}
	var lastErr error
	for i := 0; i < attempts; i++ {
		c, err := s.Repo.Get(ctx, email)
		if err != nil {
			return domain.Candidate{}, fmt.Errorf("op=intake.update_get: %w", err)
		}
		expected := c.Version
		if version != nil {
			if *version != c.Version {
				return domain.Candidate{}, fmt.Errorf("op=intake.update: %w: version %d is stale, current is %d", domain.ErrConflict, *version, c.Version)
			}
			expected = *version
		}
		patch.Apply(&c)
		c.UpdatedAt = s.now()
		newVersion, err := s.Repo.Update(ctx, c, &expected)
		if err == nil {
			c.Version = newVersion
			s.publish(ctx, domain.EventCandidateUpdated, c)
			return c, nil
		}
		if !errors.Is(err, domain.ErrConflict) {
			return domain.Candidate{}, fmt.Errorf("op=intake.update: %w", err)
		}
		lastErr = err
	}
	return domain.Candidate{}, fmt.Errorf("op=intake.update: %w", lastErr)
}

func validatePatch(p domain.CandidatePatch) error {
	if p.Status != nil && strings.TrimSpace(*p.Status) == "" {
		return fmt.Errorf("%w: status must not be empty", domain.ErrInvalidArgument)
	}
	if p.Name != nil && strings.TrimSpace(*p.Name) == "" {
		return fmt.Errorf("%w: name must not be empty", domain.ErrInvalidArgument)
	}
	return nil
}

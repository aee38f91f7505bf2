package numbering

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/gescom/backend/internal/domain/numbering"
	"github.com/gescom/backend/internal/domain/shared"
	"github.com/gescom/backend/internal/infrastructure/retry"
)

// Service allocates per-(type, year) document numbers. Uniqueness is enforced
// by the store's constraints plus re-derive-and-retry on conflict, not by
// in-process locks: concurrent callers may live in separate processes.
type Service struct {
	repo   numbering.Repository
	policy retry.Policy
	logger *zap.Logger
}

// NewService creates a numbering service.
func NewService(repo numbering.Repository, logger *zap.Logger) *Service {
	return &Service{
		repo:   repo,
		policy: retry.DefaultPolicy(shared.IsConflict),
		logger: logger,
	}
}

// GeneratePreview returns a non-binding best guess of the next number in a
// series, for display before save. No side effects; the previewed number may
// be taken by the time the entity is committed.
func (s *Service) GeneratePreview(ctx context.Context, t numbering.DocumentType, year int) (string, error) {
	if !t.IsValid() {
		return "", shared.NewDomainError(shared.CodeValidationFailed, "Unknown document type")
	}
	year = defaultYear(year)

	seq, err := s.repo.NextSequence(ctx, t, year)
	if err != nil {
		return "", err
	}
	return numbering.Format(t, year, seq), nil
}

// Generate atomically allocates a number bound to ownerID. Re-entry with the
// same owner returns the already-bound number. A uniqueness conflict
// re-derives the next candidate under bounded backoff before failing.
func (s *Service) Generate(ctx context.Context, t numbering.DocumentType, year int, ownerID uuid.UUID) (string, error) {
	if !t.IsValid() {
		return "", shared.NewDomainError(shared.CodeValidationFailed, "Unknown document type")
	}
	if ownerID == uuid.Nil {
		return "", shared.NewDomainError(shared.CodeValidationFailed, "Owner entity ID is required")
	}
	year = defaultYear(year)

	var number string
	err := retry.Do(ctx, s.policy, func(ctx context.Context) error {
		// Re-checked on every attempt: a concurrent call for the same owner
		// may have won the insert, and its binding must be returned rather
		// than burning attempts on the owner unique index.
		existing, err := s.repo.FindByOwner(ctx, ownerID)
		if err == nil {
			number = existing.Number
			return nil
		}
		if !shared.IsNotFound(err) {
			return err
		}

		seq, err := s.repo.NextSequence(ctx, t, year)
		if err != nil {
			return err
		}
		allocation := numbering.NewDocumentNumber(t, year, seq, ownerID)
		if err := s.repo.Insert(ctx, allocation); err != nil {
			return err
		}
		number = allocation.Number
		return nil
	})
	if err != nil {
		s.logger.Warn("document number allocation failed",
			zap.String("type", t.String()),
			zap.Int("year", year),
			zap.String("owner_id", ownerID.String()),
			zap.Error(err),
		)
		return "", err
	}
	return number, nil
}

// Validate looks up an allocation by formatted number.
func (s *Service) Validate(ctx context.Context, number string) (*numbering.DocumentNumber, error) {
	if _, _, _, ok := numbering.Parse(number); !ok {
		return nil, shared.NewDomainError(shared.CodeValidationFailed, "Malformed document number")
	}
	return s.repo.FindByNumber(ctx, number)
}

// GetByOwner looks up the allocation bound to an entity.
func (s *Service) GetByOwner(ctx context.Context, ownerID uuid.UUID) (*numbering.DocumentNumber, error) {
	return s.repo.FindByOwner(ctx, ownerID)
}

// Release removes the owner binding. The slot stays burned: the sequence scan
// includes released rows, so a released number is never reallocated.
func (s *Service) Release(ctx context.Context, number string) error {
	if _, _, _, ok := numbering.Parse(number); !ok {
		return shared.NewDomainError(shared.CodeValidationFailed, "Malformed document number")
	}
	return s.repo.Delete(ctx, number)
}

func defaultYear(year int) int {
	if year <= 0 {
		return time.Now().Year()
	}
	return year
}

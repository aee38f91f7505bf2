package journal

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/gescom/backend/internal/domain/shared"
)

// Repository persists sales journals. The store enforces the one-journal-per-
// date invariant with a unique constraint; Upsert surfaces a violation as
// shared.ErrConflict.
type Repository interface {
	// FindByID finds a journal by id
	FindByID(ctx context.Context, id uuid.UUID) (*SalesJournal, error)

	// FindByDate finds the journal for a calendar date, shared.ErrNotFound
	// when none exists
	FindByDate(ctx context.Context, date time.Time) (*SalesJournal, error)

	// FindContainingOrder finds every journal whose order list references
	// the given order
	FindContainingOrder(ctx context.Context, orderID uuid.UUID) ([]SalesJournal, error)

	// FindAll lists journals with filtering
	FindAll(ctx context.Context, filter shared.Filter) ([]SalesJournal, error)

	// Upsert creates or overwrites a journal, preserving its identity
	Upsert(ctx context.Context, j *SalesJournal) error

	// Delete removes a journal
	Delete(ctx context.Context, id uuid.UUID) error
}

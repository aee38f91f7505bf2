package numbering

import (
	"context"

	"github.com/google/uuid"
)

// Repository persists confirmed number allocations. The store enforces the
// hard invariants with unique constraints on (type, year, number) and on
// owner_id; Insert surfaces violations as shared.ErrConflict so callers can
// re-derive and retry.
type Repository interface {
	// NextSequence returns the next free sequence position for a series.
	// The scan includes released allocations so freed numbers are never
	// handed out again.
	NextSequence(ctx context.Context, t DocumentType, year int) (int64, error)

	// Insert durably commits an allocation
	Insert(ctx context.Context, number *DocumentNumber) error

	// FindByNumber looks up an allocation by its formatted number
	FindByNumber(ctx context.Context, number string) (*DocumentNumber, error)

	// FindByOwner looks up the allocation bound to an entity
	FindByOwner(ctx context.Context, ownerID uuid.UUID) (*DocumentNumber, error)

	// Delete releases a binding. The row is soft-deleted so the sequence
	// scan still sees it.
	Delete(ctx context.Context, number string) error
}

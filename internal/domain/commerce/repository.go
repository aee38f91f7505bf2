package commerce

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/gescom/backend/internal/domain/shared"
)

// OrderRepository persists the order mirror. Upsert semantics are
// last-write-wins keyed by (external id, account): the platform is the system
// of record.
type OrderRepository interface {
	// Upsert creates or overwrites the mirror row for (externalID, accountID)
	Upsert(ctx context.Context, order *Order) error

	// FindByExternalID finds the mirrored order for an account
	FindByExternalID(ctx context.Context, accountID uuid.UUID, externalID int64) (*Order, error)

	// FindByID finds a mirrored order by local id
	FindByID(ctx context.Context, id uuid.UUID) (*Order, error)

	// FindByCreationDate finds all orders whose upstream creation day equals
	// date, across accounts: journals aggregate the whole mirror
	FindByCreationDate(ctx context.Context, date time.Time) ([]Order, error)

	// FindByIDs loads orders by local ids
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]Order, error)

	// FindAllForAccount lists mirrored orders with filtering
	FindAllForAccount(ctx context.Context, accountID uuid.UUID, filter shared.Filter) ([]Order, error)

	// CountForAccount counts mirrored orders matching the filter
	CountForAccount(ctx context.Context, accountID uuid.UUID, filter shared.Filter) (int64, error)

	// Delete removes a mirrored order; explicit operator action only
	Delete(ctx context.Context, id uuid.UUID) error
}

// SyncState tracks the last successful sync per account.
type SyncState struct {
	AccountID    uuid.UUID
	LastSyncedAt time.Time
	UpdatedAt    time.Time
}

// SyncStateRepository persists sync watermarks.
type SyncStateRepository interface {
	// Get returns the state for an account, shared.ErrNotFound before first sync
	Get(ctx context.Context, accountID uuid.UUID) (*SyncState, error)

	// Save upserts the state for an account
	Save(ctx context.Context, state *SyncState) error
}

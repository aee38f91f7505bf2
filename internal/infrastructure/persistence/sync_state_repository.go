package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/gescom/backend/internal/domain/commerce"
	"github.com/gescom/backend/internal/domain/shared"
	"github.com/gescom/backend/internal/infrastructure/persistence/models"
)

// GormSyncStateRepository implements commerce.SyncStateRepository using GORM
type GormSyncStateRepository struct {
	db *gorm.DB
}

// NewGormSyncStateRepository creates a new GormSyncStateRepository
func NewGormSyncStateRepository(db *gorm.DB) *GormSyncStateRepository {
	return &GormSyncStateRepository{db: db}
}

// Get returns the sync state for an account, shared.ErrNotFound before the
// first successful cycle.
func (r *GormSyncStateRepository) Get(ctx context.Context, accountID uuid.UUID) (*commerce.SyncState, error) {
	var model models.SyncStateModel
	if err := r.db.WithContext(ctx).
		First(&model, "account_id = ?", accountID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// Save writes the sync state for an account.
func (r *GormSyncStateRepository) Save(ctx context.Context, state *commerce.SyncState) error {
	var model models.SyncStateModel
	model.FromDomain(state)
	model.UpdatedAt = time.Now()

	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "account_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"last_synced_at", "updated_at"}),
		}).
		Create(&model).Error
}

// Ensure GormSyncStateRepository implements commerce.SyncStateRepository
var _ commerce.SyncStateRepository = (*GormSyncStateRepository)(nil)

package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/gescom/backend/internal/domain/numbering"
	"github.com/gescom/backend/internal/domain/shared"
	"github.com/gescom/backend/internal/infrastructure/persistence/models"
)

// GormDocumentNumberRepository implements numbering.Repository using GORM.
// Released allocations are soft-deleted so the sequence scan keeps seeing
// them and freed numbers are never reissued.
type GormDocumentNumberRepository struct {
	db *gorm.DB
}

// NewGormDocumentNumberRepository creates a new GormDocumentNumberRepository
func NewGormDocumentNumberRepository(db *gorm.DB) *GormDocumentNumberRepository {
	return &GormDocumentNumberRepository{db: db}
}

// NextSequence returns the next free sequence position for a series. The
// Unscoped scan includes soft-deleted rows.
func (r *GormDocumentNumberRepository) NextSequence(ctx context.Context, t numbering.DocumentType, year int) (int64, error) {
	var max int64
	err := r.db.WithContext(ctx).
		Unscoped().
		Model(&models.DocumentNumberModel{}).
		Where("type = ? AND year = ?", string(t), year).
		Select("COALESCE(MAX(sequence), 0)").
		Scan(&max).Error
	if err != nil {
		return 0, err
	}
	return max + 1, nil
}

// Insert durably commits an allocation. A collision on the number or the
// owner surfaces as shared.ErrConflict.
func (r *GormDocumentNumberRepository) Insert(ctx context.Context, number *numbering.DocumentNumber) error {
	var model models.DocumentNumberModel
	model.FromDomain(number)

	err := r.db.WithContext(ctx).Create(&model).Error
	if isUniqueViolation(err) {
		return shared.ErrConflict
	}
	return err
}

// FindByNumber looks up an allocation by its formatted number
func (r *GormDocumentNumberRepository) FindByNumber(ctx context.Context, number string) (*numbering.DocumentNumber, error) {
	var model models.DocumentNumberModel
	if err := r.db.WithContext(ctx).
		First(&model, "number = ?", number).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByOwner looks up the allocation bound to an entity
func (r *GormDocumentNumberRepository) FindByOwner(ctx context.Context, ownerID uuid.UUID) (*numbering.DocumentNumber, error) {
	var model models.DocumentNumberModel
	if err := r.db.WithContext(ctx).
		First(&model, "owner_id = ?", ownerID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// Delete releases a binding by soft-deleting the row.
func (r *GormDocumentNumberRepository) Delete(ctx context.Context, number string) error {
	result := r.db.WithContext(ctx).
		Delete(&models.DocumentNumberModel{}, "number = ?", number)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Ensure GormDocumentNumberRepository implements numbering.Repository
var _ numbering.Repository = (*GormDocumentNumberRepository)(nil)

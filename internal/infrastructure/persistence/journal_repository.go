package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/gescom/backend/internal/domain/journal"
	"github.com/gescom/backend/internal/domain/shared"
	"github.com/gescom/backend/internal/infrastructure/persistence/models"
)

// GormJournalRepository implements journal.Repository using GORM
type GormJournalRepository struct {
	db *gorm.DB
}

// NewGormJournalRepository creates a new GormJournalRepository
func NewGormJournalRepository(db *gorm.DB) *GormJournalRepository {
	return &GormJournalRepository{db: db}
}

// FindByID finds a journal by its id
func (r *GormJournalRepository) FindByID(ctx context.Context, id uuid.UUID) (*journal.SalesJournal, error) {
	var model models.SalesJournalModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain()
}

// FindByDate finds the journal for a ledger day
func (r *GormJournalRepository) FindByDate(ctx context.Context, date time.Time) (*journal.SalesJournal, error) {
	var model models.SalesJournalModel
	if err := r.db.WithContext(ctx).
		First(&model, "date = ?", date.Format("2006-01-02")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain()
}

// FindContainingOrder lists journals whose order set includes the given order.
// Uses jsonb containment on the order_ids column.
func (r *GormJournalRepository) FindContainingOrder(ctx context.Context, orderID uuid.UUID) ([]journal.SalesJournal, error) {
	needle, err := json.Marshal([]string{orderID.String()})
	if err != nil {
		return nil, err
	}

	var modelList []models.SalesJournalModel
	if err := r.db.WithContext(ctx).
		Where("order_ids @> ?", string(needle)).
		Find(&modelList).Error; err != nil {
		return nil, err
	}
	return toDomainJournals(modelList)
}

// FindAll lists journals, newest ledger day first
func (r *GormJournalRepository) FindAll(ctx context.Context, filter shared.Filter) ([]journal.SalesJournal, error) {
	query := r.db.WithContext(ctx).Model(&models.SalesJournalModel{}).Order("date DESC")

	if filter.Page > 0 && filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}
	for key, value := range filter.Filters {
		switch key {
		case "status":
			query = query.Where("status = ?", value)
		case "date_from":
			query = query.Where("date >= ?", value)
		case "date_to":
			query = query.Where("date <= ?", value)
		}
	}

	var modelList []models.SalesJournalModel
	if err := query.Find(&modelList).Error; err != nil {
		return nil, err
	}
	return toDomainJournals(modelList)
}

// Upsert writes a journal. A violation of the one-journal-per-date constraint
// surfaces as shared.ErrConflict so the generator can re-read and retry.
func (r *GormJournalRepository) Upsert(ctx context.Context, j *journal.SalesJournal) error {
	var model models.SalesJournalModel
	if err := model.FromDomain(j); err != nil {
		return err
	}
	model.UpdatedAt = time.Now()

	err := r.db.WithContext(ctx).Save(&model).Error
	if isUniqueViolation(err) {
		return shared.ErrConflict
	}
	return err
}

// Delete removes a journal
func (r *GormJournalRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.SalesJournalModel{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func toDomainJournals(modelList []models.SalesJournalModel) ([]journal.SalesJournal, error) {
	journals := make([]journal.SalesJournal, 0, len(modelList))
	for i := range modelList {
		j, err := modelList[i].ToDomain()
		if err != nil {
			return nil, err
		}
		journals = append(journals, *j)
	}
	return journals, nil
}

// Ensure GormJournalRepository implements journal.Repository
var _ journal.Repository = (*GormJournalRepository)(nil)

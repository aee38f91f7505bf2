package persistence

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/gescom/backend/internal/domain/commerce"
	"github.com/gescom/backend/internal/domain/shared"
	"github.com/gescom/backend/internal/infrastructure/persistence/models"
)

// GormOrderRepository implements commerce.OrderRepository using GORM
type GormOrderRepository struct {
	db *gorm.DB
}

// NewGormOrderRepository creates a new GormOrderRepository
func NewGormOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db}
}

// Upsert writes an order, replacing any existing row for the same account and
// upstream id.
func (r *GormOrderRepository) Upsert(ctx context.Context, order *commerce.Order) error {
	var model models.OrderModel
	if err := model.FromDomain(order); err != nil {
		return err
	}
	model.UpdatedAt = time.Now()

	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "account_id"}, {Name: "external_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"number", "status", "currency", "customer_id",
				"total", "total_tax", "shipping_total", "shipping_tax",
				"billing", "shipping", "line_items", "tax_lines",
				"date_created", "date_modified", "creation_date", "updated_at",
			}),
		}).
		Create(&model).Error
	if isUniqueViolation(err) {
		return shared.ErrConflict
	}
	return err
}

// FindByExternalID finds the mirror of an upstream order.
func (r *GormOrderRepository) FindByExternalID(ctx context.Context, accountID uuid.UUID, externalID int64) (*commerce.Order, error) {
	var model models.OrderModel
	if err := r.db.WithContext(ctx).
		Where("account_id = ? AND external_id = ?", accountID, externalID).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain()
}

// FindByID finds an order by its local id
func (r *GormOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*commerce.Order, error) {
	var model models.OrderModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain()
}

// FindByCreationDate lists all orders created on the given ledger day,
// regardless of account.
func (r *GormOrderRepository) FindByCreationDate(ctx context.Context, date time.Time) ([]commerce.Order, error) {
	var modelList []models.OrderModel
	if err := r.db.WithContext(ctx).
		Where("creation_date = ?", date.Format("2006-01-02")).
		Order("date_created ASC, external_id ASC").
		Find(&modelList).Error; err != nil {
		return nil, err
	}
	return toDomainOrders(modelList)
}

// FindByIDs finds multiple orders by their local ids
func (r *GormOrderRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]commerce.Order, error) {
	if len(ids) == 0 {
		return []commerce.Order{}, nil
	}
	var modelList []models.OrderModel
	if err := r.db.WithContext(ctx).
		Where("id IN ?", ids).
		Find(&modelList).Error; err != nil {
		return nil, err
	}
	return toDomainOrders(modelList)
}

// FindAllForAccount lists orders for an account matching the filter
func (r *GormOrderRepository) FindAllForAccount(ctx context.Context, accountID uuid.UUID, filter shared.Filter) ([]commerce.Order, error) {
	var modelList []models.OrderModel
	query := r.applyFilter(
		r.db.WithContext(ctx).Model(&models.OrderModel{}).Where("account_id = ?", accountID),
		filter,
	)
	if err := query.Find(&modelList).Error; err != nil {
		return nil, err
	}
	return toDomainOrders(modelList)
}

// CountForAccount counts orders for an account matching the filter
func (r *GormOrderRepository) CountForAccount(ctx context.Context, accountID uuid.UUID, filter shared.Filter) (int64, error) {
	var count int64
	query := r.applyFilterWithoutPagination(
		r.db.WithContext(ctx).Model(&models.OrderModel{}).Where("account_id = ?", accountID),
		filter,
	)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Delete removes an order from the mirror
func (r *GormOrderRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.OrderModel{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// applyFilter applies filter options to the query
func (r *GormOrderRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	query = r.applyFilterWithoutPagination(query, filter)

	if filter.Page > 0 && filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}

	if filter.OrderBy != "" {
		orderDir := "ASC"
		if strings.ToLower(filter.OrderDir) == "desc" {
			orderDir = "DESC"
		}
		query = query.Order(filter.OrderBy + " " + orderDir)
	} else {
		query = query.Order("date_created DESC")
	}

	return query
}

// applyFilterWithoutPagination applies filter options without pagination
func (r *GormOrderRepository) applyFilterWithoutPagination(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if filter.Search != "" {
		searchPattern := "%" + filter.Search + "%"
		query = query.Where("number ILIKE ?", searchPattern)
	}

	for key, value := range filter.Filters {
		switch key {
		case "status":
			query = query.Where("status = ?", value)
		case "date_from":
			query = query.Where("date_created >= ?", value)
		case "date_to":
			query = query.Where("date_created <= ?", value)
		}
	}

	return query
}

func toDomainOrders(modelList []models.OrderModel) ([]commerce.Order, error) {
	orders := make([]commerce.Order, 0, len(modelList))
	for i := range modelList {
		order, err := modelList[i].ToDomain()
		if err != nil {
			return nil, err
		}
		orders = append(orders, *order)
	}
	return orders, nil
}

// Ensure GormOrderRepository implements commerce.OrderRepository
var _ commerce.OrderRepository = (*GormOrderRepository)(nil)

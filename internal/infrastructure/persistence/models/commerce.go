package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/gescom/backend/internal/domain/commerce"
)

// OrderModel is the persistence model for mirrored orders. Line items, tax
// lines and address snapshots are stored as JSON documents: the mirror never
// queries inside them, it always rewrites the whole order.
type OrderModel struct {
	BaseModel
	ExternalID    int64           `gorm:"not null;uniqueIndex:idx_orders_account_external,priority:2"`
	AccountID     uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_orders_account_external,priority:1"`
	Number        string          `gorm:"size:64;not null"`
	Status        string          `gorm:"size:32;not null;index"`
	Currency      string          `gorm:"size:8;not null"`
	CustomerID    int64           `gorm:"not null;default:0"`
	Total         decimal.Decimal `gorm:"type:numeric(14,2);not null"`
	TotalTax      decimal.Decimal `gorm:"type:numeric(14,2);not null"`
	ShippingTotal decimal.Decimal `gorm:"type:numeric(14,2);not null"`
	ShippingTax   decimal.Decimal `gorm:"type:numeric(14,2);not null"`
	Billing       string          `gorm:"type:jsonb"`
	Shipping      string          `gorm:"type:jsonb"`
	LineItems     string          `gorm:"type:jsonb;default:'[]'"`
	TaxLines      string          `gorm:"type:jsonb;default:'[]'"`
	DateCreated   time.Time       `gorm:"not null"`
	DateModified  time.Time       `gorm:"not null"`
	// CreationDate is DateCreated truncated to midnight UTC; journals group
	// orders by this column
	CreationDate time.Time `gorm:"type:date;not null;index"`
}

// TableName returns the table name for OrderModel
func (OrderModel) TableName() string {
	return "orders"
}

// FromDomain populates the model from a domain order.
func (m *OrderModel) FromDomain(o *commerce.Order) error {
	m.FromDomainBaseEntity(o.BaseEntity)
	m.ExternalID = o.ExternalID
	m.AccountID = o.AccountID
	m.Number = o.Number
	m.Status = o.Status.String()
	m.Currency = o.Currency
	m.CustomerID = o.CustomerID
	m.Total = o.Total
	m.TotalTax = o.TotalTax
	m.ShippingTotal = o.ShippingTotal
	m.ShippingTax = o.ShippingTax
	m.DateCreated = o.DateCreated
	m.DateModified = o.DateModified
	m.CreationDate = o.CreationDate()

	billing, err := json.Marshal(o.Billing)
	if err != nil {
		return err
	}
	m.Billing = string(billing)

	shipping, err := json.Marshal(o.Shipping)
	if err != nil {
		return err
	}
	m.Shipping = string(shipping)

	items, err := json.Marshal(o.LineItems)
	if err != nil {
		return err
	}
	m.LineItems = string(items)

	taxLines, err := json.Marshal(o.TaxLines)
	if err != nil {
		return err
	}
	m.TaxLines = string(taxLines)

	return nil
}

// ToDomain converts the model to a domain order.
func (m *OrderModel) ToDomain() (*commerce.Order, error) {
	order := &commerce.Order{
		BaseEntity:    m.BaseModel.ToDomain(),
		ExternalID:    m.ExternalID,
		AccountID:     m.AccountID,
		Number:        m.Number,
		Status:        commerce.ParseOrderStatus(m.Status),
		Currency:      m.Currency,
		CustomerID:    m.CustomerID,
		Total:         m.Total,
		TotalTax:      m.TotalTax,
		ShippingTotal: m.ShippingTotal,
		ShippingTax:   m.ShippingTax,
		DateCreated:   m.DateCreated,
		DateModified:  m.DateModified,
	}

	if m.Billing != "" {
		if err := json.Unmarshal([]byte(m.Billing), &order.Billing); err != nil {
			return nil, err
		}
	}
	if m.Shipping != "" {
		if err := json.Unmarshal([]byte(m.Shipping), &order.Shipping); err != nil {
			return nil, err
		}
	}
	if m.LineItems != "" {
		if err := json.Unmarshal([]byte(m.LineItems), &order.LineItems); err != nil {
			return nil, err
		}
	}
	if m.TaxLines != "" {
		if err := json.Unmarshal([]byte(m.TaxLines), &order.TaxLines); err != nil {
			return nil, err
		}
	}

	return order, nil
}

// SyncStateModel stores the last successful sync instant per account.
type SyncStateModel struct {
	AccountID    uuid.UUID `gorm:"type:uuid;primary_key"`
	LastSyncedAt time.Time `gorm:"not null"`
	UpdatedAt    time.Time `gorm:"not null"`
}

// TableName returns the table name for SyncStateModel
func (SyncStateModel) TableName() string {
	return "sync_states"
}

// FromDomain populates the model from domain sync state.
func (m *SyncStateModel) FromDomain(s *commerce.SyncState) {
	m.AccountID = s.AccountID
	m.LastSyncedAt = s.LastSyncedAt
	m.UpdatedAt = s.UpdatedAt
}

// ToDomain converts the model to domain sync state.
func (m *SyncStateModel) ToDomain() *commerce.SyncState {
	return &commerce.SyncState{
		AccountID:    m.AccountID,
		LastSyncedAt: m.LastSyncedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}

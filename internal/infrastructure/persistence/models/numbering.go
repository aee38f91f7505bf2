package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/gescom/backend/internal/domain/numbering"
)

// DocumentNumberModel is the persistence model for allocated document
// numbers. Rows are soft-deleted on release so a burned sequence slot is
// never handed out again.
type DocumentNumberModel struct {
	ID        uuid.UUID      `gorm:"type:uuid;primary_key"`
	Type      string         `gorm:"size:8;not null;index:idx_numbers_type_year,priority:1"`
	Year      int            `gorm:"not null;index:idx_numbers_type_year,priority:2"`
	Sequence  int64          `gorm:"not null"`
	Number    string         `gorm:"size:16;not null;uniqueIndex:idx_numbers_number"`
	OwnerID   uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex:idx_numbers_owner,where:deleted_at IS NULL"`
	CreatedAt time.Time      `gorm:"not null"`
	DeletedAt gorm.DeletedAt `gorm:"index"`
}

// TableName returns the table name for DocumentNumberModel
func (DocumentNumberModel) TableName() string {
	return "document_numbers"
}

// FromDomain populates the model from a domain document number.
func (m *DocumentNumberModel) FromDomain(n *numbering.DocumentNumber) {
	m.ID = n.ID
	m.Type = string(n.Type)
	m.Year = n.Year
	m.Sequence = n.Sequence
	m.Number = n.Number
	m.OwnerID = n.OwnerID
	m.CreatedAt = n.CreatedAt
}

// ToDomain converts the model to a domain document number.
func (m *DocumentNumberModel) ToDomain() *numbering.DocumentNumber {
	return &numbering.DocumentNumber{
		ID:        m.ID,
		Type:      numbering.DocumentType(m.Type),
		Year:      m.Year,
		Sequence:  m.Sequence,
		Number:    m.Number,
		OwnerID:   m.OwnerID,
		CreatedAt: m.CreatedAt,
	}
}

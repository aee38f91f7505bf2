package shared

import (
	"time"

	"github.com/google/uuid"
)

// BaseEntity provides common identity and timestamp fields for entities
type BaseEntity struct {
	ID        uuid.UUID
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewBaseEntity creates a new base entity with a generated ID
func NewBaseEntity() BaseEntity {
	now := time.Now()
	return BaseEntity{
		ID:        uuid.New(),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Touch updates the entity modification timestamp
func (e *BaseEntity) Touch() {
	e.UpdatedAt = time.Now()
}

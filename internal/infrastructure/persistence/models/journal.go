package models

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"

	"github.com/gescom/backend/internal/domain/journal"
	"github.com/gescom/backend/internal/domain/tax"
)

// SalesJournalModel is the persistence model for per-date sales journals.
// The unique index on Date enforces one journal per ledger day.
type SalesJournalModel struct {
	BaseModel
	Number       string          `gorm:"size:32;index"`
	Date         time.Time       `gorm:"type:date;not null;uniqueIndex:idx_journals_date"`
	Status       string          `gorm:"size:16;not null"`
	OrderIDs     string          `gorm:"type:jsonb;default:'[]'"`
	Lines        string          `gorm:"type:jsonb;default:'[]'"`
	TotalHT      decimal.Decimal `gorm:"type:numeric(14,2);not null"`
	TotalTTC     decimal.Decimal `gorm:"type:numeric(14,2);not null"`
	TaxBreakdown string          `gorm:"type:jsonb;default:'{}'"`
}

// TableName returns the table name for SalesJournalModel
func (SalesJournalModel) TableName() string {
	return "sales_journals"
}

// FromDomain populates the model from a domain journal.
func (m *SalesJournalModel) FromDomain(j *journal.SalesJournal) error {
	m.FromDomainBaseEntity(j.BaseEntity)
	m.Number = j.Number
	m.Date = j.Date
	m.Status = j.Status.String()
	m.TotalHT = j.TotalHT
	m.TotalTTC = j.TotalTTC

	orderIDs, err := json.Marshal(j.OrderIDs)
	if err != nil {
		return err
	}
	m.OrderIDs = string(orderIDs)

	lines, err := json.Marshal(j.Lines)
	if err != nil {
		return err
	}
	m.Lines = string(lines)

	breakdown, err := json.Marshal(j.TaxBreakdown)
	if err != nil {
		return err
	}
	m.TaxBreakdown = string(breakdown)

	return nil
}

// ToDomain converts the model to a domain journal.
func (m *SalesJournalModel) ToDomain() (*journal.SalesJournal, error) {
	j := &journal.SalesJournal{
		BaseEntity: m.BaseModel.ToDomain(),
		Number:     m.Number,
		Date:       journal.Day(m.Date),
		Status:     journal.Status(m.Status),
		TotalHT:    m.TotalHT,
		TotalTTC:   m.TotalTTC,
	}

	if m.OrderIDs != "" {
		if err := json.Unmarshal([]byte(m.OrderIDs), &j.OrderIDs); err != nil {
			return nil, err
		}
	}
	if m.Lines != "" {
		if err := json.Unmarshal([]byte(m.Lines), &j.Lines); err != nil {
			return nil, err
		}
	}
	if m.TaxBreakdown != "" {
		j.TaxBreakdown = make(map[tax.Rate]journal.RateBucket)
		if err := json.Unmarshal([]byte(m.TaxBreakdown), &j.TaxBreakdown); err != nil {
			return nil, err
		}
	}

	return j, nil
}

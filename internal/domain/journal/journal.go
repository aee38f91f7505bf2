package journal

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/gescom/backend/internal/domain/commerce"
	"github.com/gescom/backend/internal/domain/shared"
	"github.com/gescom/backend/internal/domain/tax"
)

// Status represents the lifecycle of a sales journal.
type Status string

const (
	StatusDraft     Status = "DRAFT"
	StatusValidated Status = "VALIDATED"
)

// IsValid checks if the status is a valid Status
func (s Status) IsValid() bool {
	return s == StatusDraft || s == StatusValidated
}

// String returns the string representation of Status
func (s Status) String() string {
	return string(s)
}

// Line is one journal row, derived from one order line item at generation
// time. Customer fields are copied, not live-joined.
type Line struct {
	OrderID      uuid.UUID
	OrderNumber  string
	CustomerName string
	ProductName  string
	Quantity     decimal.Decimal
	Rate         tax.Rate
	UnitHT       decimal.Decimal
	LineHT       decimal.Decimal
	LineTax      decimal.Decimal
	LineTTC      decimal.Decimal
}

// RateBucket aggregates the tax breakdown for one rate.
type RateBucket struct {
	Base decimal.Decimal `json:"base"`
	Tax  decimal.Decimal `json:"tax"`
}

// SalesJournal is the per-date aggregated sales ledger. At most one
// non-deleted journal exists per calendar date; the store enforces it with a
// unique constraint.
type SalesJournal struct {
	shared.BaseEntity

	Number       string
	Date         time.Time
	Status       Status
	OrderIDs     []uuid.UUID
	Lines        []Line
	TotalHT      decimal.Decimal
	TotalTTC     decimal.Decimal
	TaxBreakdown map[tax.Rate]RateBucket
}

// NewSalesJournal creates an empty draft journal for a date.
func NewSalesJournal(date time.Time) *SalesJournal {
	return &SalesJournal{
		BaseEntity:   shared.NewBaseEntity(),
		Date:         Day(date),
		Status:       StatusDraft,
		TaxBreakdown: make(map[tax.Rate]RateBucket),
	}
}

// NewLine derives a journal line from an order line. HT and tax are rounded
// to 2 decimals here, before any aggregation: journal totals must be
// reproducible by summing already-rounded line values.
func NewLine(order *commerce.Order, item *commerce.LineItem, rate tax.Rate) Line {
	ttc := item.Total.Add(item.TotalTax)
	ht := ttc.Div(rate.Divisor()).Round(2)
	taxAmount := ht.Mul(rate.Fraction()).Round(2)

	unitHT := ht
	if item.Quantity.IsPositive() {
		unitHT = ht.Div(item.Quantity).Round(2)
	}

	return Line{
		OrderID:      order.ID,
		OrderNumber:  order.Number,
		CustomerName: order.Billing.DisplayName(),
		ProductName:  item.Name,
		Quantity:     item.Quantity,
		Rate:         rate,
		UnitHT:       unitHT,
		LineHT:       ht,
		LineTax:      taxAmount,
		LineTTC:      ttc,
	}
}

// SetLines replaces the journal content and recomputes aggregates from the
// rounded line values (round-then-sum).
func (j *SalesJournal) SetLines(orderIDs []uuid.UUID, lines []Line) {
	j.OrderIDs = orderIDs
	j.Lines = lines

	totalHT := decimal.Zero
	totalTTC := decimal.Zero
	breakdown := make(map[tax.Rate]RateBucket)
	for _, line := range lines {
		totalHT = totalHT.Add(line.LineHT)
		totalTTC = totalTTC.Add(line.LineTTC)

		bucket := breakdown[line.Rate]
		bucket.Base = bucket.Base.Add(line.LineHT)
		bucket.Tax = bucket.Tax.Add(line.LineTax)
		breakdown[line.Rate] = bucket
	}
	// only rates with a positive base are kept
	for rate, bucket := range breakdown {
		if !bucket.Base.IsPositive() {
			delete(breakdown, rate)
		}
	}

	j.TotalHT = totalHT
	j.TotalTTC = totalTTC
	j.TaxBreakdown = breakdown
	j.Touch()
}

// ContainsOrder reports whether the journal summarizes the given order.
func (j *SalesJournal) ContainsOrder(orderID uuid.UUID) bool {
	for _, id := range j.OrderIDs {
		if id == orderID {
			return true
		}
	}
	return false
}

// Validate transitions the journal from draft to validated. Validated is
// terminal.
func (j *SalesJournal) Validate() error {
	if j.Status != StatusDraft {
		return shared.NewDomainError(shared.CodeValidationFailed, "Journal is not in draft status")
	}
	j.Status = StatusValidated
	j.Touch()
	return nil
}

// Day truncates a timestamp to its calendar date at midnight UTC, the
// granularity journals are keyed by.
func Day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

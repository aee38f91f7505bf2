package commerce

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/gescom/backend/internal/domain/shared"
	"github.com/gescom/backend/internal/domain/tax"
)

// OrderStatus mirrors the upstream order status vocabulary.
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusOnHold     OrderStatus = "on-hold"
	OrderStatusCompleted  OrderStatus = "completed"
	OrderStatusCancelled  OrderStatus = "cancelled"
	OrderStatusRefunded   OrderStatus = "refunded"
)

// IsValid checks if the status is a known OrderStatus
func (s OrderStatus) IsValid() bool {
	switch s {
	case OrderStatusPending, OrderStatusProcessing, OrderStatusOnHold,
		OrderStatusCompleted, OrderStatusCancelled, OrderStatusRefunded:
		return true
	}
	return false
}

// String returns the string representation of OrderStatus
func (s OrderStatus) String() string {
	return string(s)
}

// ParseOrderStatus maps an upstream status string to an OrderStatus,
// defaulting to pending for anything unknown.
func ParseOrderStatus(s string) OrderStatus {
	status := OrderStatus(strings.ToLower(strings.TrimSpace(s)))
	if status.IsValid() {
		return status
	}
	return OrderStatusPending
}

// Address is a point-in-time copy of a billing or shipping address, not a
// live reference into an address book.
type Address struct {
	FirstName string
	LastName  string
	Company   string
	Address1  string
	Address2  string
	City      string
	PostCode  string
	Country   string
	Email     string
	Phone     string
}

// DisplayName returns the customer-facing name of the address holder.
func (a Address) DisplayName() string {
	name := strings.TrimSpace(a.FirstName + " " + a.LastName)
	if name == "" {
		return a.Company
	}
	return name
}

// LineItem is an ordered product line. Immutable once mirrored, except for
// ResolvedRate which is derived and may be recomputed when the rate cache
// improves.
type LineItem struct {
	ExternalID   int64
	ProductID    int64
	Name         string
	SKU          string
	Quantity     decimal.Decimal
	UnitPrice    decimal.Decimal
	Subtotal     decimal.Decimal
	SubtotalTax  decimal.Decimal
	Total        decimal.Decimal
	TotalTax     decimal.Decimal
	TaxClass     string
	ResolvedRate tax.Rate
}

// TaxLine is an upstream tax summary row attached to an order.
type TaxLine struct {
	ExternalID  int64
	RateID      int64
	Label       string
	RatePercent decimal.Decimal
	TaxTotal    decimal.Decimal
	ShippingTax decimal.Decimal
}

// Order is the local mirror of an upstream commerce order. The upstream
// system is the system of record: the sync engine overwrites the mirror,
// nothing else mutates it.
type Order struct {
	shared.BaseEntity

	ExternalID     int64
	AccountID      uuid.UUID
	Number         string
	Status         OrderStatus
	Currency       string
	CustomerID     int64
	Total          decimal.Decimal
	TotalTax       decimal.Decimal
	ShippingTotal  decimal.Decimal
	ShippingTax    decimal.Decimal
	Billing        Address
	Shipping       Address
	LineItems      []LineItem
	TaxLines       []TaxLine
	DateCreated    time.Time
	DateModified   time.Time
}

// NewOrder creates a mirror order for an account.
func NewOrder(accountID uuid.UUID, externalID int64, number string) (*Order, error) {
	if accountID == uuid.Nil {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Account ID cannot be empty")
	}
	if externalID <= 0 {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "External order ID must be positive")
	}
	return &Order{
		BaseEntity: shared.NewBaseEntity(),
		ExternalID: externalID,
		AccountID:  accountID,
		Number:     number,
		Status:     OrderStatusPending,
		Currency:   "EUR",
	}, nil
}

// CreationDate returns the upstream creation day, truncated to midnight UTC.
// Journals aggregate orders by this value.
func (o *Order) CreationDate() time.Time {
	return time.Date(
		o.DateCreated.Year(), o.DateCreated.Month(), o.DateCreated.Day(),
		0, 0, 0, 0, time.UTC,
	)
}

// NormalizeRates recomputes the derived rate on every line item. When the
// upstream class is absent the rate is inferred from the reported amounts.
func (o *Order) NormalizeRates(cache *tax.RateCache) {
	for i := range o.LineItems {
		o.LineItems[i].ResolvedRate = ResolveLineRate(
			cache,
			o.LineItems[i].TaxClass,
			o.LineItems[i].Subtotal,
			o.LineItems[i].SubtotalTax,
		)
	}
}

// ResolveLineRate resolves a line's rate from its class string, falling back
// to amount-based inference when the class is absent.
func ResolveLineRate(cache *tax.RateCache, class string, subtotal, taxAmount decimal.Decimal) tax.Rate {
	if strings.TrimSpace(class) != "" {
		return cache.Resolve(class)
	}
	if rate, ok := tax.ImpliedRate(subtotal, taxAmount); ok {
		return rate
	}
	return cache.Default()
}

package commerce

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/gescom/backend/internal/domain/tax"
)

var (
	ErrPlatformUnavailable     = errors.New("commerce: platform temporarily unavailable")
	ErrPlatformRequestFailed   = errors.New("commerce: platform request failed")
	ErrPlatformInvalidResponse = errors.New("commerce: invalid platform response")
	ErrPlatformAuthFailed      = errors.New("commerce: platform authentication failed")
	ErrOrderNotFound           = errors.New("commerce: platform order not found")
	ErrProductNotFound         = errors.New("commerce: platform product not found")
)

// OrderQuery narrows an order listing request against the platform.
type OrderQuery struct {
	// Status filters by upstream status (optional)
	Status *OrderStatus
	// After limits to orders created after this instant (optional)
	After *time.Time
	// ModifiedAfter limits to orders modified after this instant (optional)
	ModifiedAfter *time.Time
	// Page is the page number (1-indexed)
	Page int
	// PerPage is the page size
	PerPage int
}

// Validate validates the query and applies paging defaults.
func (q *OrderQuery) Validate() error {
	if q.After != nil && q.ModifiedAfter != nil {
		return errors.New("commerce: after and modified_after are mutually exclusive")
	}
	if q.Page < 1 {
		q.Page = 1
	}
	if q.PerPage < 1 || q.PerPage > 100 {
		q.PerPage = 50
	}
	return nil
}

// Product is the subset of an upstream product the mirror cares about.
type Product struct {
	ExternalID    int64
	Name          string
	SKU           string
	Price         decimal.Decimal
	StockQuantity int64
	ManagesStock  bool
	TaxClass      string
}

// RefundRequest asks the platform to refund (part of) an order.
type RefundRequest struct {
	Amount decimal.Decimal
	Reason string
}

// Platform is the port to the external order-management system. The concrete
// adapter lives in the infrastructure layer; the sync engine and the tax cache
// consume it through this interface.
type Platform interface {
	tax.CatalogFetcher

	// FetchOrders lists orders matching the query, one page at a time
	FetchOrders(ctx context.Context, query OrderQuery) ([]Order, error)

	// GetOrder retrieves a single order by its upstream id
	GetOrder(ctx context.Context, externalID int64) (*Order, error)

	// UpdateOrderStatus pushes a status change to the platform
	UpdateOrderStatus(ctx context.Context, externalID int64, status OrderStatus) error

	// AddOrderNote attaches a note to the upstream order
	AddOrderNote(ctx context.Context, externalID int64, note string, customerVisible bool) error

	// CreateRefund creates a refund against the upstream order
	CreateRefund(ctx context.Context, externalID int64, req RefundRequest) error

	// GetProduct retrieves an upstream product
	GetProduct(ctx context.Context, productID int64) (*Product, error)

	// UpdateProductStock sets the stock quantity of an upstream product
	UpdateProductStock(ctx context.Context, productID int64, quantity int64) error
}

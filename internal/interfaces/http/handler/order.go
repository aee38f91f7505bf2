package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/gescom/backend/internal/domain/commerce"
	"github.com/gescom/backend/internal/domain/shared"
	"github.com/gescom/backend/internal/interfaces/http/dto"
)

// OrderHandler exposes read access to the order mirror.
type OrderHandler struct {
	BaseHandler
	orders commerce.OrderRepository
}

// NewOrderHandler creates a new order handler
func NewOrderHandler(orders commerce.OrderRepository) *OrderHandler {
	return &OrderHandler{orders: orders}
}

// OrderListRequest holds order listing query parameters
type OrderListRequest struct {
	dto.ListRequest
	AccountID string `form:"account_id" binding:"required,uuid"`
	Status    string `form:"status"`
	DateFrom  string `form:"date_from"`
	DateTo    string `form:"date_to"`
}

// LineItemResponse mirrors one order line
type LineItemResponse struct {
	ExternalID   int64  `json:"external_id"`
	ProductID    int64  `json:"product_id"`
	Name         string `json:"name"`
	SKU          string `json:"sku"`
	Quantity     string `json:"quantity"`
	UnitPrice    string `json:"unit_price"`
	Total        string `json:"total"`
	TotalTax     string `json:"total_tax"`
	TaxClass     string `json:"tax_class"`
	ResolvedRate int    `json:"resolved_rate"`
}

// OrderResponse is the API shape of a mirrored order
type OrderResponse struct {
	ID            uuid.UUID          `json:"id"`
	ExternalID    int64              `json:"external_id"`
	AccountID     uuid.UUID          `json:"account_id"`
	Number        string             `json:"number"`
	Status        string             `json:"status"`
	Currency      string             `json:"currency"`
	CustomerID    int64              `json:"customer_id"`
	CustomerName  string             `json:"customer_name"`
	Total         string             `json:"total"`
	TotalTax      string             `json:"total_tax"`
	ShippingTotal string             `json:"shipping_total"`
	ShippingTax   string             `json:"shipping_tax"`
	LineItems     []LineItemResponse `json:"line_items"`
	DateCreated   time.Time          `json:"date_created"`
	DateModified  time.Time          `json:"date_modified"`
	CreatedAt     time.Time          `json:"created_at"`
	UpdatedAt     time.Time          `json:"updated_at"`
}

func toOrderResponse(o *commerce.Order) OrderResponse {
	items := make([]LineItemResponse, 0, len(o.LineItems))
	for _, item := range o.LineItems {
		items = append(items, LineItemResponse{
			ExternalID:   item.ExternalID,
			ProductID:    item.ProductID,
			Name:         item.Name,
			SKU:          item.SKU,
			Quantity:     item.Quantity.String(),
			UnitPrice:    item.UnitPrice.String(),
			Total:        item.Total.String(),
			TotalTax:     item.TotalTax.String(),
			TaxClass:     item.TaxClass,
			ResolvedRate: int(item.ResolvedRate),
		})
	}

	return OrderResponse{
		ID:            o.ID,
		ExternalID:    o.ExternalID,
		AccountID:     o.AccountID,
		Number:        o.Number,
		Status:        o.Status.String(),
		Currency:      o.Currency,
		CustomerID:    o.CustomerID,
		CustomerName:  o.Billing.DisplayName(),
		Total:         o.Total.String(),
		TotalTax:      o.TotalTax.String(),
		ShippingTotal: o.ShippingTotal.String(),
		ShippingTax:   o.ShippingTax.String(),
		LineItems:     items,
		DateCreated:   o.DateCreated,
		DateModified:  o.DateModified,
		CreatedAt:     o.CreatedAt,
		UpdatedAt:     o.UpdatedAt,
	}
}

// List returns mirrored orders for an account.
// GET /api/v1/orders?account_id=&status=&date_from=&date_to=&page=&page_size=
func (h *OrderHandler) List(c *gin.Context) {
	req := OrderListRequest{ListRequest: dto.DefaultListRequest()}
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BadRequest(c, "Invalid list parameters: account_id is required, order_by must name a sortable column")
		return
	}

	accountID, err := uuid.Parse(req.AccountID)
	if err != nil {
		h.BadRequest(c, "account_id must be a UUID")
		return
	}

	filter := shared.DefaultFilter()
	filter.Page = req.Page
	filter.PageSize = req.PageSize
	if req.OrderBy != "" {
		filter.OrderBy = req.OrderBy
	}
	if req.OrderDir != "" {
		filter.OrderDir = req.OrderDir
	}
	if req.Status != "" {
		filter.Filters["status"] = req.Status
	}
	if req.DateFrom != "" {
		filter.Filters["date_from"] = req.DateFrom
	}
	if req.DateTo != "" {
		filter.Filters["date_to"] = req.DateTo
	}

	orders, err := h.orders.FindAllForAccount(c.Request.Context(), accountID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	total, err := h.orders.CountForAccount(c.Request.Context(), accountID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	responses := make([]OrderResponse, 0, len(orders))
	for i := range orders {
		responses = append(responses, toOrderResponse(&orders[i]))
	}

	h.SuccessWithMeta(c, responses, total, filter.Page, filter.PageSize)
}

// Get returns a single mirrored order.
// GET /api/v1/orders/:id
func (h *OrderHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "id must be a UUID")
		return
	}

	order, err := h.orders.FindByID(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, toOrderResponse(order))
}

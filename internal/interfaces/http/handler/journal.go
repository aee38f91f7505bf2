package handler

import (
	"context"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/gescom/backend/internal/domain/journal"
	"github.com/gescom/backend/internal/domain/shared"
)

const dateLayout = "2006-01-02"

// JournalService generates and manages daily sales journals.
type JournalService interface {
	Generate(ctx context.Context, date time.Time) (*journal.SalesJournal, bool, error)
	Validate(ctx context.Context, id uuid.UUID) (*journal.SalesJournal, error)
	GetByID(ctx context.Context, id uuid.UUID) (*journal.SalesJournal, error)
	GetByDate(ctx context.Context, date time.Time) (*journal.SalesJournal, error)
	List(ctx context.Context, filter shared.Filter) ([]journal.SalesJournal, error)
}

// JournalHandler exposes journal generation and lifecycle endpoints.
type JournalHandler struct {
	BaseHandler
	service JournalService
}

// NewJournalHandler creates a new journal handler
func NewJournalHandler(service JournalService) *JournalHandler {
	return &JournalHandler{service: service}
}

// GenerateJournalRequest is the journal generation payload
type GenerateJournalRequest struct {
	Date string `json:"date" binding:"required"`
}

// JournalLineResponse is one line of a journal
type JournalLineResponse struct {
	OrderID      uuid.UUID `json:"order_id"`
	OrderNumber  string    `json:"order_number"`
	CustomerName string    `json:"customer_name"`
	ProductName  string    `json:"product_name"`
	Quantity     string    `json:"quantity"`
	Rate         int       `json:"rate"`
	UnitHT       string    `json:"unit_ht"`
	LineHT       string    `json:"line_ht"`
	LineTax      string    `json:"line_tax"`
	LineTTC      string    `json:"line_ttc"`
}

// RateBucketResponse aggregates base and tax amounts for one rate
type RateBucketResponse struct {
	Base string `json:"base"`
	Tax  string `json:"tax"`
}

// JournalResponse is the API shape of a sales journal
type JournalResponse struct {
	ID           uuid.UUID                     `json:"id"`
	Number       string                        `json:"number"`
	Date         string                        `json:"date"`
	Status       string                        `json:"status"`
	OrderIDs     []uuid.UUID                   `json:"order_ids"`
	Lines        []JournalLineResponse         `json:"lines"`
	TotalHT      string                        `json:"total_ht"`
	TotalTTC     string                        `json:"total_ttc"`
	TaxBreakdown map[string]RateBucketResponse `json:"tax_breakdown"`
	CreatedAt    time.Time                     `json:"created_at"`
	UpdatedAt    time.Time                     `json:"updated_at"`
}

func toJournalResponse(j *journal.SalesJournal) JournalResponse {
	lines := make([]JournalLineResponse, 0, len(j.Lines))
	for _, l := range j.Lines {
		lines = append(lines, JournalLineResponse{
			OrderID:      l.OrderID,
			OrderNumber:  l.OrderNumber,
			CustomerName: l.CustomerName,
			ProductName:  l.ProductName,
			Quantity:     l.Quantity.String(),
			Rate:         int(l.Rate),
			UnitHT:       l.UnitHT.String(),
			LineHT:       l.LineHT.String(),
			LineTax:      l.LineTax.String(),
			LineTTC:      l.LineTTC.String(),
		})
	}

	breakdown := make(map[string]RateBucketResponse, len(j.TaxBreakdown))
	for rate, bucket := range j.TaxBreakdown {
		breakdown[strconv.Itoa(int(rate))] = RateBucketResponse{
			Base: bucket.Base.String(),
			Tax:  bucket.Tax.String(),
		}
	}

	return JournalResponse{
		ID:           j.ID,
		Number:       j.Number,
		Date:         j.Date.Format(dateLayout),
		Status:       j.Status.String(),
		OrderIDs:     j.OrderIDs,
		Lines:        lines,
		TotalHT:      j.TotalHT.String(),
		TotalTTC:     j.TotalTTC.String(),
		TaxBreakdown: breakdown,
		CreatedAt:    j.CreatedAt,
		UpdatedAt:    j.UpdatedAt,
	}
}

// Generate builds or rebuilds the journal for a date.
// POST /api/v1/journals/generate
func (h *JournalHandler) Generate(c *gin.Context) {
	var req GenerateJournalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "date is required")
		return
	}

	date, err := time.Parse(dateLayout, req.Date)
	if err != nil {
		h.BadRequest(c, "date must be formatted as YYYY-MM-DD")
		return
	}

	j, created, err := h.service.Generate(c.Request.Context(), date)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	if j == nil {
		h.NotFound(c, "No orders found for this date")
		return
	}

	if created {
		h.Created(c, toJournalResponse(j))
		return
	}
	h.Success(c, toJournalResponse(j))
}

// Validate transitions a draft journal to validated.
// POST /api/v1/journals/:id/validate
func (h *JournalHandler) Validate(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "id must be a UUID")
		return
	}

	j, err := h.service.Validate(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, toJournalResponse(j))
}

// Get returns a journal by id.
// GET /api/v1/journals/:id
func (h *JournalHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "id must be a UUID")
		return
	}

	j, err := h.service.GetByID(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, toJournalResponse(j))
}

// List returns journals, optionally narrowed to one date.
// GET /api/v1/journals?date=&status=&page=&page_size=
func (h *JournalHandler) List(c *gin.Context) {
	if dateStr := c.Query("date"); dateStr != "" {
		date, err := time.Parse(dateLayout, dateStr)
		if err != nil {
			h.BadRequest(c, "date must be formatted as YYYY-MM-DD")
			return
		}

		j, err := h.service.GetByDate(c.Request.Context(), date)
		if err != nil {
			h.HandleError(c, err)
			return
		}

		h.Success(c, []JournalResponse{toJournalResponse(j)})
		return
	}

	filter := shared.DefaultFilter()
	if page, err := strconv.Atoi(c.Query("page")); err == nil && page >= 1 {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.Query("page_size")); err == nil && size >= 1 && size <= 100 {
		filter.PageSize = size
	}
	if status := c.Query("status"); status != "" {
		filter.Filters["status"] = status
	}

	journals, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	responses := make([]JournalResponse, 0, len(journals))
	for i := range journals {
		responses = append(responses, toJournalResponse(&journals[i]))
	}

	h.Success(c, responses)
}

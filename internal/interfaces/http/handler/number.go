package handler

import (
	"context"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/gescom/backend/internal/domain/numbering"
)

// NumberingService allocates and manages document numbers.
type NumberingService interface {
	Generate(ctx context.Context, t numbering.DocumentType, year int, ownerID uuid.UUID) (string, error)
	GeneratePreview(ctx context.Context, t numbering.DocumentType, year int) (string, error)
	Validate(ctx context.Context, number string) (*numbering.DocumentNumber, error)
	Release(ctx context.Context, number string) error
}

// NumberHandler exposes document number allocation endpoints.
type NumberHandler struct {
	BaseHandler
	service NumberingService
}

// NewNumberHandler creates a new number handler
func NewNumberHandler(service NumberingService) *NumberHandler {
	return &NumberHandler{service: service}
}

// GenerateNumberRequest is the number allocation payload
type GenerateNumberRequest struct {
	Type    string `json:"type" binding:"required"`
	Year    int    `json:"year"`
	OwnerID string `json:"owner_id" binding:"required,uuid"`
}

// NumberResponse is the API shape of an allocated document number
type NumberResponse struct {
	Number    string    `json:"number"`
	Type      string    `json:"type"`
	Year      int       `json:"year"`
	Sequence  int64     `json:"sequence"`
	OwnerID   uuid.UUID `json:"owner_id"`
	CreatedAt time.Time `json:"created_at"`
}

// Generate allocates the next number in a series for an owner.
// POST /api/v1/numbers/generate
func (h *NumberHandler) Generate(c *gin.Context) {
	var req GenerateNumberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "type and owner_id are required")
		return
	}

	docType, ok := numbering.ParseDocumentType(req.Type)
	if !ok {
		h.BadRequest(c, "type must be one of INVOICE, QUOTE, DELIVERY, JOURNAL")
		return
	}

	ownerID, err := uuid.Parse(req.OwnerID)
	if err != nil {
		h.BadRequest(c, "owner_id must be a UUID")
		return
	}

	year := req.Year
	if year == 0 {
		year = time.Now().UTC().Year()
	}

	number, err := h.service.Generate(c.Request.Context(), docType, year, ownerID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, gin.H{"number": number})
}

// Preview returns the next number in a series without allocating it.
// GET /api/v1/numbers/preview?type=&year=
func (h *NumberHandler) Preview(c *gin.Context) {
	docType, ok := numbering.ParseDocumentType(c.Query("type"))
	if !ok {
		h.BadRequest(c, "type must be one of INVOICE, QUOTE, DELIVERY, JOURNAL")
		return
	}

	year := time.Now().UTC().Year()
	if yearStr := c.Query("year"); yearStr != "" {
		parsed, err := strconv.Atoi(yearStr)
		if err != nil {
			h.BadRequest(c, "year must be an integer")
			return
		}
		year = parsed
	}

	number, err := h.service.GeneratePreview(c.Request.Context(), docType, year)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, gin.H{"number": number})
}

// Lookup resolves an allocated number.
// GET /api/v1/numbers/:number
func (h *NumberHandler) Lookup(c *gin.Context) {
	dn, err := h.service.Validate(c.Request.Context(), c.Param("number"))
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, NumberResponse{
		Number:    dn.Number,
		Type:      dn.Type.String(),
		Year:      dn.Year,
		Sequence:  dn.Sequence,
		OwnerID:   dn.OwnerID,
		CreatedAt: dn.CreatedAt,
	})
}

// Release frees a number binding; the sequence itself is never reused.
// DELETE /api/v1/numbers/:number
func (h *NumberHandler) Release(c *gin.Context) {
	if err := h.service.Release(c.Request.Context(), c.Param("number")); err != nil {
		h.HandleError(c, err)
		return
	}

	h.NoContent(c)
}

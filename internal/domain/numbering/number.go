package numbering

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// DocumentType identifies a numbered document series.
type DocumentType string

const (
	DocumentTypeInvoice  DocumentType = "INVOICE"
	DocumentTypeQuote    DocumentType = "QUOTE"
	DocumentTypeDelivery DocumentType = "DELIVERY"
	DocumentTypeJournal  DocumentType = "JOURNAL"
)

// IsValid checks if the document type is known
func (t DocumentType) IsValid() bool {
	switch t {
	case DocumentTypeInvoice, DocumentTypeQuote, DocumentTypeDelivery, DocumentTypeJournal:
		return true
	}
	return false
}

// String returns the string representation of DocumentType
func (t DocumentType) String() string {
	return string(t)
}

// Prefix returns the series prefix used in formatted numbers.
func (t DocumentType) Prefix() string {
	switch t {
	case DocumentTypeInvoice:
		return "FA"
	case DocumentTypeQuote:
		return "DE"
	case DocumentTypeDelivery:
		return "BL"
	case DocumentTypeJournal:
		return "JV"
	default:
		return string(t)
	}
}

// ParseDocumentType maps a string to a DocumentType.
func ParseDocumentType(s string) (DocumentType, bool) {
	t := DocumentType(strings.ToUpper(strings.TrimSpace(s)))
	return t, t.IsValid()
}

// numberRe matches formatted document numbers: <prefix>-<year>-<sequence>
var numberRe = regexp.MustCompile(`^(FA|DE|BL|JV)-(\d{4})-(\d{5})$`)

// Format renders a document number for a series and sequence position.
// Format: <prefix>-<year>-NNNNN (e.g. FA-2026-00042).
func Format(t DocumentType, year int, sequence int64) string {
	return fmt.Sprintf("%s-%d-%05d", t.Prefix(), year, sequence)
}

// Parse splits a formatted number into its series components.
func Parse(number string) (DocumentType, int, int64, bool) {
	m := numberRe.FindStringSubmatch(strings.TrimSpace(number))
	if m == nil {
		return "", 0, 0, false
	}
	var t DocumentType
	switch m[1] {
	case "FA":
		t = DocumentTypeInvoice
	case "DE":
		t = DocumentTypeQuote
	case "BL":
		t = DocumentTypeDelivery
	case "JV":
		t = DocumentTypeJournal
	}
	year, _ := strconv.Atoi(m[2])
	seq, _ := strconv.ParseInt(m[3], 10, 64)
	return t, year, seq, true
}

// DocumentNumber is a confirmed allocation: a number durably bound to exactly
// one owning entity. Releasing the binding never recycles the slot.
type DocumentNumber struct {
	ID        uuid.UUID
	Type      DocumentType
	Year      int
	Sequence  int64
	Number    string
	OwnerID   uuid.UUID
	CreatedAt time.Time
}

// NewDocumentNumber creates a confirmed allocation for an owner.
func NewDocumentNumber(t DocumentType, year int, sequence int64, ownerID uuid.UUID) *DocumentNumber {
	return &DocumentNumber{
		ID:        uuid.New(),
		Type:      t,
		Year:      year,
		Sequence:  sequence,
		Number:    Format(t, year, sequence),
		OwnerID:   ownerID,
		CreatedAt: time.Now(),
	}
}

package journal

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/gescom/backend/internal/domain/commerce"
	"github.com/gescom/backend/internal/domain/journal"
	"github.com/gescom/backend/internal/domain/numbering"
	"github.com/gescom/backend/internal/domain/shared"
	"github.com/gescom/backend/internal/domain/tax"
	"github.com/gescom/backend/internal/infrastructure/retry"
)

// NumberAllocator is the slice of the numbering service the generator needs.
type NumberAllocator interface {
	Generate(ctx context.Context, t numbering.DocumentType, year int, ownerID uuid.UUID) (string, error)
}

// Service generates and validates per-date sales journals. Generation is a
// pure computation over already-persisted orders: it never fetches from the
// platform.
type Service struct {
	journals journal.Repository
	orders   commerce.OrderRepository
	numbers  NumberAllocator
	rates    *tax.RateCache
	policy   retry.Policy
	logger   *zap.Logger
}

// NewService creates a sales journal service.
func NewService(
	journals journal.Repository,
	orders commerce.OrderRepository,
	numbers NumberAllocator,
	rates *tax.RateCache,
	logger *zap.Logger,
) *Service {
	return &Service{
		journals: journals,
		orders:   orders,
		numbers:  numbers,
		rates:    rates,
		policy:   retry.DefaultPolicy(shared.IsConflict),
		logger:   logger,
	}
}

// Generate builds or regenerates the journal for a calendar date. Returns
// (nil, false, nil) when no order exists for the date: callers must not
// create an empty journal. The bool reports whether a new journal was
// created; regeneration preserves the existing journal's identity — same id,
// number, creation timestamp and status — and returns false.
//
// A unique-constraint collision with a concurrent generator retries the whole
// lookup-build-save sequence so the retry adopts the winner's identity.
func (s *Service) Generate(ctx context.Context, date time.Time) (*journal.SalesJournal, bool, error) {
	day := journal.Day(date)

	var result *journal.SalesJournal
	created := false
	err := retry.Do(ctx, s.policy, func(ctx context.Context) error {
		existing, err := s.journals.FindByDate(ctx, day)
		if err != nil && !shared.IsNotFound(err) {
			return err
		}

		orders, err := s.orders.FindByCreationDate(ctx, day)
		if err != nil {
			return err
		}
		if len(orders) == 0 {
			result = nil
			created = false
			return nil
		}
		created = existing == nil

		j := existing
		if j == nil {
			j = journal.NewSalesJournal(day)
		}

		orderIDs := make([]uuid.UUID, 0, len(orders))
		var lines []journal.Line
		for i := range orders {
			order := &orders[i]
			orderIDs = append(orderIDs, order.ID)
			for k := range order.LineItems {
				item := &order.LineItems[k]
				rate := commerce.ResolveLineRate(s.rates, item.TaxClass, item.Subtotal, item.SubtotalTax)
				lines = append(lines, journal.NewLine(order, item, rate))
			}
		}
		j.SetLines(orderIDs, lines)

		if j.Number == "" {
			number, err := s.numbers.Generate(ctx, numbering.DocumentTypeJournal, day.Year(), j.ID)
			if err != nil {
				return err
			}
			j.Number = number
		}

		if err := s.journals.Upsert(ctx, j); err != nil {
			return err
		}
		result = j
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	if result != nil {
		s.logger.Info("sales journal generated",
			zap.String("journal_id", result.ID.String()),
			zap.String("number", result.Number),
			zap.Time("date", day),
			zap.Int("orders", len(result.OrderIDs)),
			zap.Int("lines", len(result.Lines)),
		)
	}
	return result, created, nil
}

// Validate transitions a journal from draft to validated. Refused when the
// journal is not in draft, or when another journal already claims its date.
func (s *Service) Validate(ctx context.Context, id uuid.UUID) (*journal.SalesJournal, error) {
	j, err := s.journals.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	other, err := s.journals.FindByDate(ctx, j.Date)
	if err != nil && !shared.IsNotFound(err) {
		return nil, err
	}
	if other != nil && other.ID != j.ID {
		return nil, shared.NewDomainError(shared.CodeConflict, "Another journal already claims this date")
	}

	if err := j.Validate(); err != nil {
		return nil, err
	}
	if err := s.journals.Upsert(ctx, j); err != nil {
		return nil, err
	}
	s.logger.Info("sales journal validated",
		zap.String("journal_id", j.ID.String()),
		zap.String("number", j.Number),
	)
	return j, nil
}

// GetByID retrieves a journal.
func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (*journal.SalesJournal, error) {
	return s.journals.FindByID(ctx, id)
}

// GetByDate retrieves the journal for a date.
func (s *Service) GetByDate(ctx context.Context, date time.Time) (*journal.SalesJournal, error) {
	return s.journals.FindByDate(ctx, journal.Day(date))
}

// List lists journals.
func (s *Service) List(ctx context.Context, filter shared.Filter) ([]journal.SalesJournal, error) {
	return s.journals.FindAll(ctx, filter)
}

// RegenerateForOrder refreshes every journal affected by a change to the
// given order: the journal for the order's own date (created on first sight)
// and any journal still referencing the order under another date. Identity
// and status are preserved, journals are never duplicated.
func (s *Service) RegenerateForOrder(ctx context.Context, orderID uuid.UUID, orderDate time.Time) error {
	day := journal.Day(orderDate)
	if _, _, err := s.Generate(ctx, day); err != nil {
		return err
	}

	affected, err := s.journals.FindContainingOrder(ctx, orderID)
	if err != nil {
		return err
	}
	for i := range affected {
		if affected[i].Date.Equal(day) {
			continue
		}
		if _, _, err := s.Generate(ctx, affected[i].Date); err != nil {
			return err
		}
	}
	return nil
}

package sync

import (
	"context"
	"errors"
	stdsync "sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/gescom/backend/internal/domain/commerce"
	"github.com/gescom/backend/internal/domain/shared"
	"github.com/gescom/backend/internal/domain/tax"
	"github.com/gescom/backend/internal/infrastructure/retry"
)

var (
	// ErrSyncInProgress is returned when a cycle is requested while another
	// one still holds the permit. Callers drop the request, they never queue.
	ErrSyncInProgress = errors.New("sync: cycle already in progress")
)

const (
	defaultPageSize      = 50
	defaultInitialWindow = 30 * 24 * time.Hour
	sideEffectBatchSize  = 5
	defaultBatchPause    = 500 * time.Millisecond
)

// CustomerImporter creates or refreshes the local customer record behind an
// order. Implemented outside this package.
type CustomerImporter interface {
	ImportFromOrder(ctx context.Context, order *commerce.Order) error
}

// JournalRegenerator rebuilds the sales journal covering an order's creation
// date after the order changed.
type JournalRegenerator interface {
	RegenerateForOrder(ctx context.Context, orderID uuid.UUID, orderDate time.Time) error
}

// Listener is notified once per successful cycle with the processed orders.
// isNew is index-aligned with orders.
type Listener func(orders []commerce.Order, isNew []bool)

// Result summarizes one sync cycle.
type Result struct {
	StartedAt time.Time
	Duration  time.Duration
	Fetched   int
	Created   int
	Updated   int
	Failed    int
	// FailedExternalIDs lists upstream ids whose persistence or side effects
	// failed; the rest of the cycle proceeded without them.
	FailedExternalIDs []int64
}

// Service pulls orders from the commerce platform into the local mirror and
// runs the per-order side effects. At most one cycle runs at a time.
type Service struct {
	accountID uuid.UUID
	platform  commerce.Platform
	orders    commerce.OrderRepository
	state     commerce.SyncStateRepository
	rates     *tax.RateCache
	journals  JournalRegenerator
	customers CustomerImporter
	policy    retry.Policy
	logger    *zap.Logger

	permit chan struct{}

	mu        stdsync.Mutex
	listeners []Listener

	pageSize      int
	initialWindow time.Duration
	batchPause    time.Duration
	now           func() time.Time
}

// Option tweaks service tuning knobs at construction time.
type Option func(*Service)

// WithPageSize bounds how many orders each upstream page request asks for.
func WithPageSize(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.pageSize = n
		}
	}
}

// WithInitialWindow sets how far back the very first cycle looks when no
// sync state exists yet.
func WithInitialWindow(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.initialWindow = d
		}
	}
}

// WithBatchPause sets the pause between side-effect batches.
func WithBatchPause(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.batchPause = d
		}
	}
}

// NewService creates an order sync service. customers may be nil when no
// customer mirror is wired.
func NewService(
	accountID uuid.UUID,
	platform commerce.Platform,
	orders commerce.OrderRepository,
	state commerce.SyncStateRepository,
	rates *tax.RateCache,
	journals JournalRegenerator,
	customers CustomerImporter,
	logger *zap.Logger,
	opts ...Option,
) *Service {
	s := &Service{
		accountID:     accountID,
		platform:      platform,
		orders:        orders,
		state:         state,
		rates:         rates,
		journals:      journals,
		customers:     customers,
		policy:        retry.DefaultPolicy(shared.IsConflict),
		logger:        logger,
		permit:        make(chan struct{}, 1),
		pageSize:      defaultPageSize,
		initialWindow: defaultInitialWindow,
		batchPause:    defaultBatchPause,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Subscribe registers a listener for completed cycles.
func (s *Service) Subscribe(l Listener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, l)
}

// Running reports whether a cycle currently holds the permit.
func (s *Service) Running() bool {
	return len(s.permit) > 0
}

// SyncOnce runs a full pull cycle. A cycle already in flight makes it return
// ErrSyncInProgress immediately; overlapping requests are dropped, not queued.
func (s *Service) SyncOnce(ctx context.Context) (*Result, error) {
	select {
	case s.permit <- struct{}{}:
	default:
		s.logger.Warn("sync cycle requested while another is running, dropping",
			zap.String("account_id", s.accountID.String()),
		)
		return nil, ErrSyncInProgress
	}
	defer func() { <-s.permit }()

	started := s.now().UTC()
	result := &Result{StartedAt: started}

	query, err := s.buildQuery(ctx, started)
	if err != nil {
		return nil, err
	}

	processed, isNew, err := s.pull(ctx, query, result)
	if err != nil {
		if errors.Is(err, commerce.ErrPlatformAuthFailed) {
			s.logger.Error("platform rejected credentials, sync aborted",
				zap.String("account_id", s.accountID.String()),
			)
		}
		return nil, err
	}

	s.runSideEffects(ctx, processed, isNew, result)

	if err := s.state.Save(ctx, &commerce.SyncState{
		AccountID:    s.accountID,
		LastSyncedAt: started,
	}); err != nil {
		// next cycle re-pulls a window it already saw; upserts make that safe
		s.logger.Warn("failed to advance sync state", zap.Error(err))
	}

	s.notify(processed, isNew)

	result.Duration = s.now().UTC().Sub(started)
	s.logger.Info("sync cycle completed",
		zap.String("account_id", s.accountID.String()),
		zap.Int("fetched", result.Fetched),
		zap.Int("created", result.Created),
		zap.Int("updated", result.Updated),
		zap.Int("failed", result.Failed),
		zap.Duration("duration", result.Duration),
	)
	return result, nil
}

// buildQuery computes the fetch window: modified_after when the account has
// synced before, otherwise created after now minus the initial window.
func (s *Service) buildQuery(ctx context.Context, started time.Time) (commerce.OrderQuery, error) {
	query := commerce.OrderQuery{PerPage: s.pageSize}

	last, err := s.state.Get(ctx, s.accountID)
	switch {
	case err == nil:
		since := last.LastSyncedAt
		query.ModifiedAfter = &since
	case shared.IsNotFound(err):
		after := started.Add(-s.initialWindow)
		query.After = &after
	default:
		return commerce.OrderQuery{}, err
	}
	return query, nil
}

// pull fetches pages until a short page and upserts every order. A failed
// order is logged and skipped; the rest of the page proceeds.
func (s *Service) pull(ctx context.Context, query commerce.OrderQuery, result *Result) ([]commerce.Order, []bool, error) {
	var processed []commerce.Order
	var isNew []bool

	for page := 1; ; page++ {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}

		query.Page = page
		batch, err := s.platform.FetchOrders(ctx, query)
		if err != nil {
			return nil, nil, err
		}
		result.Fetched += len(batch)

		for i := range batch {
			order := batch[i]
			created, err := s.persist(ctx, &order)
			if err != nil {
				result.Failed++
				result.FailedExternalIDs = append(result.FailedExternalIDs, order.ExternalID)
				s.logger.Error("failed to persist order",
					zap.Int64("external_id", order.ExternalID),
					zap.Error(err),
				)
				continue
			}
			if created {
				result.Created++
			} else {
				result.Updated++
			}
			processed = append(processed, order)
			isNew = append(isNew, created)
		}

		if len(batch) < query.PerPage {
			break
		}
	}
	return processed, isNew, nil
}

// persist normalizes the order's tax rates and upserts it, preserving the
// local identity of an order seen in an earlier cycle. Reports whether the
// order is new to the mirror.
func (s *Service) persist(ctx context.Context, order *commerce.Order) (bool, error) {
	order.AccountID = s.accountID

	created := false
	existing, err := s.orders.FindByExternalID(ctx, s.accountID, order.ExternalID)
	switch {
	case err == nil:
		order.ID = existing.ID
		order.CreatedAt = existing.CreatedAt
	case shared.IsNotFound(err):
		created = true
		if order.ID == uuid.Nil {
			order.BaseEntity = shared.NewBaseEntity()
		}
	default:
		return false, err
	}

	order.NormalizeRates(s.rates)

	err = retry.Do(ctx, s.policy, func(ctx context.Context) error {
		return s.orders.Upsert(ctx, order)
	})
	if err != nil {
		return false, err
	}
	return created, nil
}

// runSideEffects imports customers and regenerates journals for the processed
// orders, in small batches with a pause in between so a large backfill does
// not hammer downstream storage. A failing order is logged and counted; its
// siblings proceed.
func (s *Service) runSideEffects(ctx context.Context, orders []commerce.Order, isNew []bool, result *Result) {
	for start := 0; start < len(orders); start += sideEffectBatchSize {
		if start > 0 && s.batchPause > 0 {
			select {
			case <-ctx.Done():
				return
			case <-time.After(s.batchPause):
			}
		}

		end := start + sideEffectBatchSize
		if end > len(orders) {
			end = len(orders)
		}
		for i := start; i < end; i++ {
			order := orders[i]
			if err := s.sideEffectsFor(ctx, &order, isNew[i]); err != nil {
				result.Failed++
				result.FailedExternalIDs = append(result.FailedExternalIDs, order.ExternalID)
				s.logger.Error("order side effects failed",
					zap.Int64("external_id", order.ExternalID),
					zap.String("order_id", order.ID.String()),
					zap.Error(err),
				)
			}
		}
	}
}

func (s *Service) sideEffectsFor(ctx context.Context, order *commerce.Order, created bool) error {
	if created && s.customers != nil {
		err := retry.Do(ctx, s.policy, func(ctx context.Context) error {
			return s.customers.ImportFromOrder(ctx, order)
		})
		if err != nil {
			return err
		}
	}
	if s.journals != nil {
		if err := s.journals.RegenerateForOrder(ctx, order.ID, order.DateCreated); err != nil {
			return err
		}
	}
	return nil
}

func (s *Service) notify(orders []commerce.Order, isNew []bool) {
	s.mu.Lock()
	listeners := make([]Listener, len(s.listeners))
	copy(listeners, s.listeners)
	s.mu.Unlock()

	for _, l := range listeners {
		l(orders, isNew)
	}
}

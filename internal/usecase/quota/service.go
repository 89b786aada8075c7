// Package quota gates searches by a lifetime per-client allowance.
package quota

import (
	"context"
	"fmt"
	"time"

	"github.com/kailas-cloud/speakerdex/internal/domain"
	domquota "github.com/kailas-cloud/speakerdex/internal/domain/quota"
)

// Service implements the search rate limiter.
type Service struct {
	store       Store
	maxSearches int64
	now         func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithClock overrides the time source used for last_updated.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// New creates a Service. maxSearches <= 0 uses domquota.DefaultMaxSearches.
func New(store Store, maxSearches int64, opts ...Option) *Service {
	if maxSearches <= 0 {
		maxSearches = domquota.DefaultMaxSearches
	}
	s := &Service{store: store, maxSearches: maxSearches, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// MaxSearches returns the configured allowance.
func (s *Service) MaxSearches() int64 { return s.maxSearches }

// Remaining returns how many searches clientID has left. Unseen clients get
// the full allowance.
func (s *Service) Remaining(ctx context.Context, clientID string) (int64, error) {
	e, err := s.Entry(ctx, clientID)
	if err != nil {
		return 0, err
	}
	return domquota.Remaining(s.maxSearches, e.Used()), nil
}

// Consume records one search for clientID and returns the new used count.
// It does not check capacity; see CheckAndConsume.
func (s *Service) Consume(ctx context.Context, clientID string) (int64, error) {
	used, err := s.store.Increment(ctx, clientID, s.now())
	if err != nil {
		return 0, fmt.Errorf("%w: consume: %w", domain.ErrStorageUnavailable, err)
	}
	return used, nil
}

// CheckAndConsume reserves one search for clientID if any remain and returns
// the new used count. A client at the allowance gets domain.ErrQuotaExceeded
// and its counter is left untouched. Concurrent callers never overshoot.
func (s *Service) CheckAndConsume(ctx context.Context, clientID string) (int64, error) {
	used, ok, err := s.store.TryIncrement(ctx, clientID, s.now(), s.maxSearches)
	if err != nil {
		return 0, fmt.Errorf("%w: consume: %w", domain.ErrStorageUnavailable, err)
	}
	if !ok {
		return used, domain.ErrQuotaExceeded
	}
	return used, nil
}

// Entry returns the stored entry for clientID.
func (s *Service) Entry(ctx context.Context, clientID string) (domquota.Entry, error) {
	e, err := s.store.Entry(ctx, clientID)
	if err != nil {
		return domquota.Entry{}, fmt.Errorf("%w: read quota: %w", domain.ErrStorageUnavailable, err)
	}
	return e, nil
}

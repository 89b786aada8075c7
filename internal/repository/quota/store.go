// Package quota persists per-client search counters as hashes
// ({prefix}quota:{clientID} -> used, last_updated).
package quota

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/kailas-cloud/speakerdex/internal/domain"
	domquota "github.com/kailas-cloud/speakerdex/internal/domain/quota"
)

const (
	fieldUsed        = "used"
	fieldLastUpdated = "last_updated"
)

// store is the consumer interface for quota operations (ISP).
type store interface {
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	HIncrByWithFields(ctx context.Context, key, field string, val int64, fields map[string]string) (int64, error)
	HIncrByCapped(ctx context.Context, key, field string, val, limit int64, fields map[string]string) (int64, bool, error)
}

// Store implements quota persistence on top of a hash store.
type Store struct {
	store  store
	prefix string
}

// New creates a quota store. An empty prefix falls back to domain.KeyPrefix.
func New(s store, prefix string) *Store {
	if prefix == "" {
		prefix = domain.KeyPrefix
	}
	return &Store{store: s, prefix: prefix + "quota:"}
}

func (s *Store) key(clientID string) string {
	return s.prefix + clientID
}

// Entry loads the entry for clientID. An unseen client yields a zero entry.
func (s *Store) Entry(ctx context.Context, clientID string) (domquota.Entry, error) {
	m, err := s.store.HGetAll(ctx, s.key(clientID))
	if err != nil {
		return domquota.Entry{}, fmt.Errorf("quota HGETALL %s: %w", clientID, err)
	}

	var used int64
	if raw, ok := m[fieldUsed]; ok {
		used, err = strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return domquota.Entry{}, fmt.Errorf("quota %s parse used: %w", clientID, err)
		}
	}

	var updated time.Time
	if raw, ok := m[fieldLastUpdated]; ok {
		updated, err = time.Parse(time.RFC3339Nano, raw)
		if err != nil {
			return domquota.Entry{}, fmt.Errorf("quota %s parse last_updated: %w", clientID, err)
		}
	}

	return domquota.NewEntry(clientID, used, updated), nil
}

// Increment adds one to the client's counter and stamps last_updated with at
// in a single write, and returns the new count. On error nothing is recorded.
func (s *Store) Increment(ctx context.Context, clientID string, at time.Time) (int64, error) {
	used, err := s.store.HIncrByWithFields(ctx, s.key(clientID), fieldUsed, 1, map[string]string{
		fieldLastUpdated: at.UTC().Format(time.RFC3339Nano),
	})
	if err != nil {
		return 0, fmt.Errorf("quota increment %s: %w", clientID, err)
	}
	return used, nil
}

// TryIncrement is Increment applied only while the counter is below limit.
// When the client is already at limit nothing is written and ok is false;
// used is the current count either way.
func (s *Store) TryIncrement(ctx context.Context, clientID string, at time.Time, limit int64) (used int64, ok bool, err error) {
	used, ok, err = s.store.HIncrByCapped(ctx, s.key(clientID), fieldUsed, 1, limit, map[string]string{
		fieldLastUpdated: at.UTC().Format(time.RFC3339Nano),
	})
	if err != nil {
		return 0, false, fmt.Errorf("quota try increment %s: %w", clientID, err)
	}
	return used, ok, nil
}

package quota

import (
	"context"
	"time"

	domquota "github.com/kailas-cloud/speakerdex/internal/domain/quota"
)

// Store persists per-client counters. Increment and TryIncrement must be
// atomic per client.
type Store interface {
	Entry(ctx context.Context, clientID string) (domquota.Entry, error)
	Increment(ctx context.Context, clientID string, at time.Time) (int64, error)
	TryIncrement(ctx context.Context, clientID string, at time.Time, limit int64) (used int64, ok bool, err error)
}

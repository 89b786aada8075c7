package db

import (
	"context"
	"time"
)

// Store is the database facade combining all sub-interfaces.
// Consumers depend on the narrow sub-interfaces they need.
type Store interface {
	Pinger
	HashStore
	KVStore
	Close()
	WaitForReady(ctx context.Context, timeout time.Duration) error
}

// Pinger checks database connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HashStore provides hash-based key-value operations.
type HashStore interface {
	HSet(ctx context.Context, key string, fields map[string]string) error
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	// HIncrBy atomically adds val to an integer hash field and returns the new value.
	HIncrBy(ctx context.Context, key, field string, val int64) (int64, error)
	// HIncrByWithFields adds val to an integer hash field and sets fields in
	// the same atomic write. Either both apply or neither does.
	HIncrByWithFields(ctx context.Context, key, field string, val int64, fields map[string]string) (int64, error)
	// HIncrByCapped is HIncrByWithFields applied only if the new value stays
	// within limit. Otherwise nothing is written and it returns the current
	// value with applied set to false.
	HIncrByCapped(
		ctx context.Context, key, field string, val, limit int64, fields map[string]string,
	) (n int64, applied bool, err error)
	Del(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
}

// KVStore provides simple key-value operations.
type KVStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

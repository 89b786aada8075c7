// Package badger implements db.Store on an embedded BadgerDB, either on disk
// or fully in memory. Hashes are stored as one JSON-encoded value per key.
package badger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"
	"go.uber.org/zap"

	"github.com/kailas-cloud/speakerdex/internal/db"
)

// Compile-time check: Store implements db.Store.
var _ db.Store = (*Store)(nil)

// maxTxnRetries bounds optimistic retries of a conflicting read-modify-write.
const maxTxnRetries = 1000

// Config holds BadgerDB options.
type Config struct {
	// Path is the data directory. Ignored when InMemory is set.
	Path     string
	InMemory bool
	Logger   *zap.Logger
}

// Store implements db.Store via BadgerDB.
type Store struct {
	db *badger.DB
}

// zapAdapter adapts zap to the badger.Logger interface.
type zapAdapter struct {
	s *zap.SugaredLogger
}

var _ badger.Logger = (*zapAdapter)(nil)

func (a *zapAdapter) Errorf(msg string, items ...any)   { a.s.Errorf(msg, items...) }
func (a *zapAdapter) Warningf(msg string, items ...any) { a.s.Warnf(msg, items...) }
func (a *zapAdapter) Infof(msg string, items ...any)    { a.s.Debugf(msg, items...) }
func (a *zapAdapter) Debugf(msg string, items ...any)   { a.s.Debugf(msg, items...) }

// NewStore opens a BadgerDB store. The data directory is created if missing.
func NewStore(cfg Config) (*Store, error) {
	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if cfg.Path == "" {
			return nil, fmt.Errorf("path is required")
		}
		if err := ensureDir(cfg.Path); err != nil {
			return nil, err
		}
		opts = badger.DefaultOptions(cfg.Path)
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	opts.Logger = &zapAdapter{s: logger.Named("badger").Sugar()}
	opts.Compression = options.None

	bdb, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger: %w", err)
	}
	return &Store{db: bdb}, nil
}

func ensureDir(path string) error {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return os.MkdirAll(path, 0o755)
	}
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", path)
	}
	return nil
}

// Ping reports ErrClosed once the store has been closed.
func (s *Store) Ping(_ context.Context) error {
	if s.db.IsClosed() {
		return &db.Error{Op: db.OpPing, Err: db.ErrClosed}
	}
	return nil
}

// Close closes the database. Errors are dropped to satisfy db.Store.
func (s *Store) Close() {
	_ = s.db.Close()
}

// WaitForReady returns immediately: an opened embedded store is ready.
func (s *Store) WaitForReady(ctx context.Context, _ time.Duration) error {
	return s.Ping(ctx)
}

// --- hash operations ---

func readHash(txn *badger.Txn, key string) (map[string]string, error) {
	item, err := txn.Get([]byte(key))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, err
	}
	m := map[string]string{}
	err = item.Value(func(val []byte) error {
		return json.Unmarshal(val, &m)
	})
	if err != nil {
		return nil, err
	}
	return m, nil
}

func writeHash(txn *badger.Txn, key string, m map[string]string) error {
	data, err := json.Marshal(m)
	if err != nil {
		return err
	}
	return txn.Set([]byte(key), data)
}

// update runs fn in a read-write transaction, retrying on write conflicts.
func (s *Store) update(ctx context.Context, fn func(txn *badger.Txn) error) error {
	var err error
	for i := 0; i < maxTxnRetries; i++ {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		err = s.db.Update(fn)
		if !errors.Is(err, badger.ErrConflict) {
			return err
		}
	}
	return err
}

// HSet merges fields into the hash at key.
func (s *Store) HSet(ctx context.Context, key string, fields map[string]string) error {
	err := s.update(ctx, func(txn *badger.Txn) error {
		m, err := readHash(txn, key)
		if err != nil {
			return err
		}
		for k, v := range fields {
			m[k] = v
		}
		return writeHash(txn, key, m)
	})
	if err != nil {
		return &db.Error{Op: db.OpHSet, Err: err}
	}
	return nil
}

// HGetAll returns all fields of a hash. A missing key yields an empty map.
func (s *Store) HGetAll(_ context.Context, key string) (map[string]string, error) {
	var m map[string]string
	err := s.db.View(func(txn *badger.Txn) error {
		var err error
		m, err = readHash(txn, key)
		return err
	})
	if err != nil {
		return nil, &db.Error{Op: db.OpHGetAll, Err: err}
	}
	return m, nil
}

// HIncrBy adds val to an integer field inside one transaction. Concurrent
// increments of the same key conflict at commit and are retried.
func (s *Store) HIncrBy(ctx context.Context, key, field string, val int64) (int64, error) {
	return s.HIncrByWithFields(ctx, key, field, val, nil)
}

// HIncrByWithFields increments field and merges fields in a single
// transaction. A failed increment leaves the whole hash untouched.
func (s *Store) HIncrByWithFields(
	ctx context.Context, key, field string, val int64, fields map[string]string,
) (int64, error) {
	n, _, err := s.incrementHash(ctx, key, field, val, 0, false, fields)
	return n, err
}

// HIncrByCapped checks the limit and writes inside the same transaction, so
// concurrent callers can never push the field past limit.
func (s *Store) HIncrByCapped(
	ctx context.Context, key, field string, val, limit int64, fields map[string]string,
) (int64, bool, error) {
	return s.incrementHash(ctx, key, field, val, limit, true, fields)
}

func (s *Store) incrementHash(
	ctx context.Context, key, field string, val, limit int64, capped bool, fields map[string]string,
) (int64, bool, error) {
	var (
		next    int64
		applied bool
	)
	err := s.update(ctx, func(txn *badger.Txn) error {
		m, err := readHash(txn, key)
		if err != nil {
			return err
		}
		var cur int64
		if raw, ok := m[field]; ok {
			cur, err = strconv.ParseInt(raw, 10, 64)
			if err != nil {
				return db.ErrNotInteger
			}
		}
		if capped && cur+val > limit {
			next, applied = cur, false
			return nil
		}
		for k, v := range fields {
			m[k] = v
		}
		next, applied = cur+val, true
		m[field] = strconv.FormatInt(next, 10)
		return writeHash(txn, key, m)
	})
	if err != nil {
		return 0, false, &db.Error{Op: db.OpHIncrBy, Err: err}
	}
	return next, applied, nil
}

// Del deletes a key. Deleting a missing key is not an error.
func (s *Store) Del(ctx context.Context, key string) error {
	err := s.update(ctx, func(txn *badger.Txn) error {
		return txn.Delete([]byte(key))
	})
	if err != nil {
		return &db.Error{Op: db.OpDel, Err: err}
	}
	return nil
}

// Exists checks if a key exists.
func (s *Store) Exists(_ context.Context, key string) (bool, error) {
	var found bool
	err := s.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get([]byte(key))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		found = true
		return nil
	})
	if err != nil {
		return false, &db.Error{Op: db.OpExists, Err: err}
	}
	return found, nil
}

// --- key-value operations ---

// Get retrieves a value by key.
func (s *Store) Get(_ context.Context, key string) ([]byte, error) {
	var data []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		data, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, db.ErrKeyNotFound
	}
	if err != nil {
		return nil, &db.Error{Op: db.OpGet, Err: err}
	}
	return data, nil
}

// Set stores a value at the given key.
func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	err := s.update(ctx, func(txn *badger.Txn) error {
		return txn.Set([]byte(key), value)
	})
	if err != nil {
		return &db.Error{Op: db.OpSet, Err: err}
	}
	return nil
}

// SetWithTTL stores a value that expires after ttl.
func (s *Store) SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	err := s.update(ctx, func(txn *badger.Txn) error {
		return txn.SetEntry(badger.NewEntry([]byte(key), value).WithTTL(ttl))
	})
	if err != nil {
		return &db.Error{Op: db.OpSet, Err: err}
	}
	return nil
}

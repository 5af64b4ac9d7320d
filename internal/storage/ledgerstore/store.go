// Package ledgerstore persists ledger state in a key-value database and
// serves it as a ledger.View with an LRU read cache.
package ledgerstore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/LeJamon/goFST/internal/core/ledger"
	"github.com/LeJamon/goFST/internal/core/ledger/keylet"
	"github.com/LeJamon/goFST/internal/observability"
	"github.com/LeJamon/goFST/internal/storage/database"
	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultCacheSize is the number of entries kept in the read cache.
const DefaultCacheSize = 4096

// entryPrefix namespaces state entries within the database.
var entryPrefix = []byte("e/")

// Config configures a Store.
type Config struct {
	CacheSize int
	Logger    *slog.Logger
	Metrics   *observability.Metrics
}

// cached is a cache slot; a nil data slice records a known-missing key.
type cached struct {
	data []byte
}

// Store is a ledger.View backed by a database.DB. Commits from an
// ApplyStateTable arrive through WriteBatch as one atomic batch.
type Store struct {
	mu      sync.RWMutex
	db      database.DB
	cache   *lru.Cache[[32]byte, cached]
	logger  *slog.Logger
	metrics *observability.Metrics
}

// New creates a store over db.
func New(db database.DB, cfg Config) (*Store, error) {
	if cfg.CacheSize <= 0 {
		cfg.CacheSize = DefaultCacheSize
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	cache, err := lru.New[[32]byte, cached](cfg.CacheSize)
	if err != nil {
		return nil, err
	}
	return &Store{
		db:      db,
		cache:   cache,
		logger:  cfg.Logger.With("component", "ledgerstore"),
		metrics: cfg.Metrics,
	}, nil
}

func dbKey(key [32]byte) []byte {
	k := make([]byte, 0, len(entryPrefix)+len(key))
	k = append(k, entryPrefix...)
	return append(k, key[:]...)
}

// Read returns the entry at k, or nil if it does not exist.
func (s *Store) Read(k keylet.Keylet) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.read(k.Key)
}

func (s *Store) read(key [32]byte) ([]byte, error) {
	if c, ok := s.cache.Get(key); ok {
		s.metrics.RecordCache(true)
		return bytes.Clone(c.data), nil
	}
	s.metrics.RecordCache(false)

	data, err := s.db.Read(context.Background(), dbKey(key))
	if errors.Is(err, database.ErrKeyNotFound) {
		s.cache.Add(key, cached{})
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %x: %w", key[:4], err)
	}
	s.cache.Add(key, cached{data: bytes.Clone(data)})
	return data, nil
}

func (s *Store) Exists(k keylet.Keylet) (bool, error) {
	data, err := s.Read(k)
	return data != nil, err
}

func (s *Store) Insert(k keylet.Keylet, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, err := s.read(k.Key)
	if err != nil {
		return err
	}
	if existing != nil {
		return ledger.ErrEntryExists
	}
	return s.put(k.Key, data)
}

func (s *Store) Update(k keylet.Keylet, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, err := s.read(k.Key)
	if err != nil {
		return err
	}
	if existing == nil {
		return ledger.ErrEntryNotFound
	}
	return s.put(k.Key, data)
}

func (s *Store) Erase(k keylet.Keylet) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, err := s.read(k.Key)
	if err != nil {
		return err
	}
	if existing == nil {
		return ledger.ErrEntryNotFound
	}
	if err := s.db.Delete(context.Background(), dbKey(k.Key)); err != nil {
		return err
	}
	s.cache.Add(k.Key, cached{})
	return nil
}

func (s *Store) put(key [32]byte, data []byte) error {
	if err := s.db.Write(context.Background(), dbKey(key), data); err != nil {
		return err
	}
	s.cache.Add(key, cached{data: bytes.Clone(data)})
	return nil
}

// ForEach iterates over all entries in key order.
func (s *Store) ForEach(fn func(key [32]byte, data []byte) bool) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	it, err := s.db.Iterator(context.Background(), entryPrefix, database.PrefixEnd(entryPrefix))
	if err != nil {
		return err
	}
	defer it.Close()

	for it.Next() {
		raw := it.Key()
		if len(raw) != len(entryPrefix)+32 {
			return fmt.Errorf("malformed state key %x", raw)
		}
		var key [32]byte
		copy(key[:], raw[len(entryPrefix):])
		if !fn(key, it.Value()) {
			break
		}
	}
	return it.Error()
}

// WriteBatch commits changes atomically.
func (s *Store) WriteBatch(changes []ledger.Change) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ops := make([]database.BatchOperation, 0, len(changes))
	for _, c := range changes {
		switch c.Action {
		case ledger.ActionInsert, ledger.ActionModify:
			ops = append(ops, database.BatchOperation{Type: database.BatchPut, Key: dbKey(c.Key.Key), Value: c.Data})
		case ledger.ActionErase:
			ops = append(ops, database.BatchOperation{Type: database.BatchDelete, Key: dbKey(c.Key.Key)})
		}
	}
	if err := s.db.Batch(context.Background(), ops); err != nil {
		// The cache may hold entries the batch would have replaced.
		s.cache.Purge()
		return fmt.Errorf("commit %d changes: %w", len(ops), err)
	}

	for _, c := range changes {
		if c.Action == ledger.ActionErase {
			s.cache.Add(c.Key.Key, cached{})
		} else {
			s.cache.Add(c.Key.Key, cached{data: bytes.Clone(c.Data)})
		}
	}
	s.metrics.RecordBatch(len(ops))
	s.logger.Debug("batch committed", "entries", len(ops))
	return nil
}

// Len counts the stored entries.
func (s *Store) Len() (int, error) {
	n := 0
	err := s.ForEach(func([32]byte, []byte) bool {
		n++
		return true
	})
	return n, err
}

// Close closes the underlying database.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache.Purge()
	return s.db.Close()
}

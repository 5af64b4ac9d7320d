// Package storage opens the key-value backends that hold ledger state.
package storage

import (
	"fmt"

	"github.com/LeJamon/goFST/internal/storage/database"
	"github.com/LeJamon/goFST/internal/storage/database/leveldb"
	"github.com/LeJamon/goFST/internal/storage/database/pebble"
)

// Backend names accepted by Open.
const (
	BackendMemory  = "memory"
	BackendPebble  = "pebble"
	BackendLevelDB = "leveldb"
)

// Config selects and configures a backend.
type Config struct {
	Backend   string
	Path      string
	CacheSize int
	NoSync    bool
}

// Open opens the configured backend. The memory backend is Pebble on an
// in-memory filesystem and ignores Path.
func Open(cfg Config) (database.DB, error) {
	switch cfg.Backend {
	case BackendMemory, "":
		return pebble.Open("", pebble.Options{InMemory: true, NoSync: true})
	case BackendPebble:
		return pebble.Open(cfg.Path, pebble.Options{CacheSize: int64(cfg.CacheSize), NoSync: cfg.NoSync})
	case BackendLevelDB:
		return leveldb.Open(cfg.Path, leveldb.Options{CacheSize: cfg.CacheSize, NoSync: cfg.NoSync})
	default:
		return nil, fmt.Errorf("%w: %q", database.ErrUnknownBackend, cfg.Backend)
	}
}

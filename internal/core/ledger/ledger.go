package ledger

import (
	"errors"

	"github.com/LeJamon/goFST/internal/core/ledger/keylet"
)

var (
	// ErrEntryExists is returned by Insert when the key is already present.
	ErrEntryExists = errors.New("entry already exists")

	// ErrEntryNotFound is returned by Update and Erase for missing keys.
	ErrEntryNotFound = errors.New("entry not found")
)

// View provides read/write access to ledger state.
// Read returns nil data with a nil error when the entry does not exist.
type View interface {
	// Read reads a ledger entry
	Read(k keylet.Keylet) ([]byte, error)

	// Exists checks if an entry exists
	Exists(k keylet.Keylet) (bool, error)

	// Insert adds a new entry
	Insert(k keylet.Keylet, data []byte) error

	// Update modifies an existing entry
	Update(k keylet.Keylet, data []byte) error

	// Erase removes an entry
	Erase(k keylet.Keylet) error

	// ForEach iterates over all state entries in key order.
	// If fn returns false, iteration stops early.
	ForEach(fn func(key [32]byte, data []byte) bool) error
}

// BatchWriter is implemented by views that can commit a set of changes
// atomically. ApplyStateTable uses it in preference to per-key writes.
type BatchWriter interface {
	WriteBatch(changes []Change) error
}

// Change is a single committed modification.
type Change struct {
	Key    keylet.Keylet
	Action Action
	Data   []byte // nil for erase
}

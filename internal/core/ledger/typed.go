package ledger

import (
	"github.com/LeJamon/goFST/internal/core/ledger/entry"
	"github.com/LeJamon/goFST/internal/core/ledger/keylet"
)

// Get reads and decodes the entry at k. It returns nil when absent.
func Get[T any](v View, k keylet.Keylet) (*T, error) {
	data, err := v.Read(k)
	if err != nil {
		return nil, err
	}
	if data == nil {
		return nil, nil
	}
	out := new(T)
	if err := entry.Decode(data, out); err != nil {
		return nil, err
	}
	return out, nil
}

// Put encodes val and inserts or updates it at k.
func Put(v View, k keylet.Keylet, val any) error {
	data, err := entry.Encode(val)
	if err != nil {
		return err
	}
	exists, err := v.Exists(k)
	if err != nil {
		return err
	}
	if exists {
		return v.Update(k, data)
	}
	return v.Insert(k, data)
}

// Delete erases k if present.
func Delete(v View, k keylet.Keylet) error {
	exists, err := v.Exists(k)
	if err != nil || !exists {
		return err
	}
	return v.Erase(k)
}

package ledger

import (
	"bytes"
	"fmt"
	"slices"

	"github.com/LeJamon/goFST/internal/core/ledger/entry"
	"github.com/LeJamon/goFST/internal/core/ledger/keylet"
)

// Action represents the type of modification to a ledger entry
type Action int

const (
	// ActionCache means the entry was read but not modified
	ActionCache Action = iota
	// ActionInsert means a new entry was created
	ActionInsert
	// ActionModify means an existing entry was modified
	ActionModify
	// ActionErase means an entry was deleted
	ActionErase
)

func (a Action) String() string {
	switch a {
	case ActionCache:
		return "cache"
	case ActionInsert:
		return "created"
	case ActionModify:
		return "modified"
	case ActionErase:
		return "deleted"
	default:
		return "unknown"
	}
}

// TrackedEntry represents a ledger entry being tracked for changes
type TrackedEntry struct {
	Keylet   keylet.Keylet
	Action   Action
	Original []byte // Original state (nil for inserts)
	Current  []byte // Current state
}

// AffectedEntry describes one entry changed by a committed table.
type AffectedEntry struct {
	Type     entry.Type
	Key      [32]byte
	Action   Action
	Original []byte
	Current  []byte
}

// ApplyStateTable wraps a View and buffers all modifications until Apply.
// Discarding the table leaves the base untouched. Tables nest: a table can
// wrap another table, and applying the inner one only lands in the outer.
type ApplyStateTable struct {
	base  View
	items map[[32]byte]*TrackedEntry
}

// NewApplyStateTable creates a new ApplyStateTable wrapping the given base view
func NewApplyStateTable(base View) *ApplyStateTable {
	return &ApplyStateTable{
		base:  base,
		items: make(map[[32]byte]*TrackedEntry),
	}
}

// Read reads a ledger entry, tracking it as cached
func (t *ApplyStateTable) Read(k keylet.Keylet) ([]byte, error) {
	if e, exists := t.items[k.Key]; exists {
		if e.Action == ActionErase {
			return nil, nil
		}
		return e.Current, nil
	}

	data, err := t.base.Read(k)
	if err != nil {
		return nil, err
	}

	// Only track entries that exist in the base
	if data != nil {
		t.items[k.Key] = &TrackedEntry{
			Keylet:   k,
			Action:   ActionCache,
			Original: data,
			Current:  data,
		}
	}

	return data, nil
}

// Exists checks if an entry exists
func (t *ApplyStateTable) Exists(k keylet.Keylet) (bool, error) {
	if e, exists := t.items[k.Key]; exists {
		return e.Action != ActionErase, nil
	}
	return t.base.Exists(k)
}

// Insert adds a new entry
func (t *ApplyStateTable) Insert(k keylet.Keylet, data []byte) error {
	if e, exists := t.items[k.Key]; exists {
		if e.Action != ActionErase {
			return ErrEntryExists
		}
		// Re-inserting a deleted entry becomes a modify
		e.Action = ActionModify
		e.Current = data
		return nil
	}

	exists, err := t.base.Exists(k)
	if err != nil {
		return err
	}
	if exists {
		return ErrEntryExists
	}

	t.items[k.Key] = &TrackedEntry{
		Keylet:  k,
		Action:  ActionInsert,
		Current: data,
	}
	return nil
}

// Update modifies an existing entry
func (t *ApplyStateTable) Update(k keylet.Keylet, data []byte) error {
	if e, exists := t.items[k.Key]; exists {
		if e.Action == ActionErase {
			return fmt.Errorf("%w (deleted)", ErrEntryNotFound)
		}
		if e.Action == ActionCache {
			e.Action = ActionModify
		}
		// For insert, keep it as insert with new data
		e.Current = data
		return nil
	}

	original, err := t.base.Read(k)
	if err != nil {
		return err
	}
	if original == nil {
		return ErrEntryNotFound
	}

	t.items[k.Key] = &TrackedEntry{
		Keylet:   k,
		Action:   ActionModify,
		Original: original,
		Current:  data,
	}
	return nil
}

// Erase removes an entry
func (t *ApplyStateTable) Erase(k keylet.Keylet) error {
	if e, exists := t.items[k.Key]; exists {
		switch e.Action {
		case ActionErase:
			return fmt.Errorf("%w (already deleted)", ErrEntryNotFound)
		case ActionInsert:
			// Inserting then deleting = no change
			delete(t.items, k.Key)
			return nil
		}
		e.Action = ActionErase
		return nil
	}

	original, err := t.base.Read(k)
	if err != nil {
		return err
	}
	if original == nil {
		return ErrEntryNotFound
	}

	t.items[k.Key] = &TrackedEntry{
		Keylet:   k,
		Action:   ActionErase,
		Original: original,
		Current:  original,
	}
	return nil
}

// ForEach iterates over base entries merged with pending changes, in key order.
func (t *ApplyStateTable) ForEach(fn func(key [32]byte, data []byte) bool) error {
	merged := make(map[[32]byte][]byte)
	err := t.base.ForEach(func(key [32]byte, data []byte) bool {
		if _, tracked := t.items[key]; !tracked {
			merged[key] = data
		}
		return true
	})
	if err != nil {
		return err
	}
	for key, e := range t.items {
		if e.Action != ActionErase {
			merged[key] = e.Current
		}
	}

	keys := make([][32]byte, 0, len(merged))
	for k := range merged {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, func(a, b [32]byte) int { return bytes.Compare(a[:], b[:]) })
	for _, k := range keys {
		if !fn(k, merged[k]) {
			return nil
		}
	}
	return nil
}

// Pending returns the number of entries with uncommitted changes.
func (t *ApplyStateTable) Pending() int {
	n := 0
	for _, e := range t.items {
		if e.Action != ActionCache {
			n++
		}
	}
	return n
}

// Discard drops all tracked changes.
func (t *ApplyStateTable) Discard() {
	t.items = make(map[[32]byte]*TrackedEntry)
}

// Apply commits all changes to the base view and returns the affected
// entries in key order. When the base implements BatchWriter the whole set
// is written in a single batch.
func (t *ApplyStateTable) Apply() ([]AffectedEntry, error) {
	keys := make([][32]byte, 0, len(t.items))
	for k, e := range t.items {
		if e.Action == ActionCache {
			continue
		}
		if e.Action == ActionModify && bytes.Equal(e.Original, e.Current) {
			continue
		}
		keys = append(keys, k)
	}
	slices.SortFunc(keys, func(a, b [32]byte) int { return bytes.Compare(a[:], b[:]) })

	affected := make([]AffectedEntry, 0, len(keys))
	changes := make([]Change, 0, len(keys))
	for _, k := range keys {
		e := t.items[k]
		affected = append(affected, AffectedEntry{
			Type:     e.Keylet.Type,
			Key:      k,
			Action:   e.Action,
			Original: e.Original,
			Current:  e.Current,
		})
		c := Change{Key: e.Keylet, Action: e.Action, Data: e.Current}
		if e.Action == ActionErase {
			c.Data = nil
		}
		changes = append(changes, c)
	}

	if bw, ok := t.base.(BatchWriter); ok {
		if err := bw.WriteBatch(changes); err != nil {
			return nil, err
		}
	} else {
		for _, c := range changes {
			if err := applyChange(t.base, c); err != nil {
				return nil, fmt.Errorf("apply %s %x: %w", c.Key.Type, c.Key.Key[:4], err)
			}
		}
	}

	t.Discard()
	return affected, nil
}

func applyChange(v View, c Change) error {
	switch c.Action {
	case ActionInsert:
		return v.Insert(c.Key, c.Data)
	case ActionModify:
		exists, err := v.Exists(c.Key)
		if err != nil {
			return err
		}
		if !exists {
			return v.Insert(c.Key, c.Data)
		}
		return v.Update(c.Key, c.Data)
	case ActionErase:
		return v.Erase(c.Key)
	}
	return nil
}

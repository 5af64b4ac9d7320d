package ledger

import (
	"testing"

	"github.com/LeJamon/goFST/internal/core/ledger/entry"
	"github.com/LeJamon/goFST/internal/core/ledger/keylet"
	"github.com/LeJamon/goFST/internal/core/types"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func account(name string, real uint64) (keylet.Keylet, *entry.AccountRoot) {
	addr := types.AddressFromName(name)
	return keylet.Account(addr), &entry.AccountRoot{Address: addr, Real: *uint256.NewInt(real)}
}

func TestApplyStateTableCommit(t *testing.T) {
	base := NewMemoryView()
	aliceKey, alice := account("alice", 10)
	require.NoError(t, Put(base, aliceKey, alice))

	table := NewApplyStateTable(base)
	alice.Real.SetUint64(7)
	require.NoError(t, Put(table, aliceKey, alice))

	bobKey, bob := account("bob", 3)
	require.NoError(t, Put(table, bobKey, bob))

	// base untouched before apply
	got, err := Get[entry.AccountRoot](base, aliceKey)
	require.NoError(t, err)
	assert.Equal(t, uint64(10), got.Real.Uint64())
	ok, err := base.Exists(bobKey)
	require.NoError(t, err)
	assert.False(t, ok)

	// table sees its own writes
	got, err = Get[entry.AccountRoot](table, aliceKey)
	require.NoError(t, err)
	assert.Equal(t, uint64(7), got.Real.Uint64())

	affected, err := table.Apply()
	require.NoError(t, err)
	assert.Len(t, affected, 2)

	got, err = Get[entry.AccountRoot](base, aliceKey)
	require.NoError(t, err)
	assert.Equal(t, uint64(7), got.Real.Uint64())
	assert.Equal(t, 2, base.Len())
}

func TestApplyStateTableDiscard(t *testing.T) {
	base := NewMemoryView()
	table := NewApplyStateTable(base)
	k, a := account("carol", 1)
	require.NoError(t, Put(table, k, a))
	assert.Equal(t, 1, table.Pending())

	table.Discard()
	affected, err := table.Apply()
	require.NoError(t, err)
	assert.Empty(t, affected)
	assert.Equal(t, 0, base.Len())
}

func TestApplyStateTableNested(t *testing.T) {
	base := NewMemoryView()
	outer := NewApplyStateTable(base)
	inner := NewApplyStateTable(outer)

	k, a := account("dave", 5)
	require.NoError(t, Put(inner, k, a))
	_, err := inner.Apply()
	require.NoError(t, err)

	ok, err := outer.Exists(k)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 0, base.Len())

	_, err = outer.Apply()
	require.NoError(t, err)
	assert.Equal(t, 1, base.Len())
}

func TestApplyStateTableEraseAndInsert(t *testing.T) {
	base := NewMemoryView()
	k, a := account("erin", 5)
	require.NoError(t, Put(base, k, a))

	table := NewApplyStateTable(base)
	require.NoError(t, table.Erase(k))
	data, err := table.Read(k)
	require.NoError(t, err)
	assert.Nil(t, data)
	assert.ErrorIs(t, table.Update(k, []byte{1}), ErrEntryNotFound)

	// insert then erase within a table is a no-op
	k2, b := account("frank", 1)
	require.NoError(t, Put(table, k2, b))
	require.NoError(t, table.Erase(k2))

	affected, err := table.Apply()
	require.NoError(t, err)
	require.Len(t, affected, 1)
	assert.Equal(t, ActionErase, affected[0].Action)
	assert.Equal(t, entry.TypeAccountRoot, affected[0].Type)
	assert.Equal(t, 0, base.Len())
}

func TestApplyStateTableForEach(t *testing.T) {
	base := NewMemoryView()
	k1, a := account("a", 1)
	k2, b := account("b", 2)
	require.NoError(t, Put(base, k1, a))
	require.NoError(t, Put(base, k2, b))

	table := NewApplyStateTable(base)
	require.NoError(t, table.Erase(k1))
	k3, c := account("c", 3)
	require.NoError(t, Put(table, k3, c))

	seen := map[[32]byte]bool{}
	require.NoError(t, table.ForEach(func(key [32]byte, _ []byte) bool {
		seen[key] = true
		return true
	}))
	assert.Equal(t, map[[32]byte]bool{k2.Key: true, k3.Key: true}, seen)
}

func TestMemoryViewErrors(t *testing.T) {
	v := NewMemoryView()
	k, _ := account("x", 0)
	assert.ErrorIs(t, v.Update(k, []byte{1}), ErrEntryNotFound)
	assert.ErrorIs(t, v.Erase(k), ErrEntryNotFound)
	require.NoError(t, v.Insert(k, []byte{1}))
	assert.ErrorIs(t, v.Insert(k, []byte{2}), ErrEntryExists)
	require.NoError(t, Delete(v, k))
	require.NoError(t, Delete(v, k))
}

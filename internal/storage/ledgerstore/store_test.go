package ledgerstore_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/LeJamon/goFST/internal/core/ledger"
	"github.com/LeJamon/goFST/internal/core/ledger/keylet"
	"github.com/LeJamon/goFST/internal/core/tx"
	"github.com/LeJamon/goFST/internal/core/tx/payment"
	"github.com/LeJamon/goFST/internal/core/types"
	"github.com/LeJamon/goFST/internal/logger"
	"github.com/LeJamon/goFST/internal/observability"
	"github.com/LeJamon/goFST/internal/storage/database"
	"github.com/LeJamon/goFST/internal/storage/database/pebble"
	"github.com/LeJamon/goFST/internal/storage/ledgerstore"
	jtx "github.com/LeJamon/goFST/internal/testing"
	"github.com/LeJamon/goFST/internal/token"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openDB(t *testing.T) database.DB {
	t.Helper()
	db, err := pebble.Open("", pebble.Options{InMemory: true, NoSync: true})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func newStore(t *testing.T, db database.DB, m *observability.Metrics) *ledgerstore.Store {
	t.Helper()
	s, err := ledgerstore.New(db, ledgerstore.Config{CacheSize: 16, Logger: logger.Discard(), Metrics: m})
	require.NoError(t, err)
	return s
}

func TestStoreView(t *testing.T) {
	s := newStore(t, openDB(t), nil)
	k := keylet.Account(types.AddressFromName("alice"))

	data, err := s.Read(k)
	require.NoError(t, err)
	assert.Nil(t, data)

	require.ErrorIs(t, s.Update(k, []byte("x")), ledger.ErrEntryNotFound)
	require.ErrorIs(t, s.Erase(k), ledger.ErrEntryNotFound)

	require.NoError(t, s.Insert(k, []byte("v1")))
	require.ErrorIs(t, s.Insert(k, []byte("v2")), ledger.ErrEntryExists)

	ok, err := s.Exists(k)
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, s.Update(k, []byte("v2")))
	data, err = s.Read(k)
	require.NoError(t, err)
	assert.Equal(t, []byte("v2"), data)

	require.NoError(t, s.Erase(k))
	ok, err = s.Exists(k)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStoreReadReturnsCopy(t *testing.T) {
	s := newStore(t, openDB(t), nil)
	k := keylet.Supply()
	require.NoError(t, s.Insert(k, []byte("abc")))

	data, err := s.Read(k)
	require.NoError(t, err)
	data[0] = 'z'

	again, err := s.Read(k)
	require.NoError(t, err)
	assert.Equal(t, []byte("abc"), again)
}

func TestStoreCacheMetrics(t *testing.T) {
	m := observability.NewMetrics("fst_store_test", nil)
	db := openDB(t)
	k := keylet.TokenInfo()
	require.NoError(t, db.Write(context.Background(), append([]byte("e/"), k.Key[:]...), []byte("info")))

	s := newStore(t, db, m)
	for range 3 {
		data, err := s.Read(k)
		require.NoError(t, err)
		assert.Equal(t, []byte("info"), data)
	}
	assert.Equal(t, 1.0, testutil.ToFloat64(m.StoreCache.WithLabelValues("miss")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.StoreCache.WithLabelValues("hit")))
}

func TestStoreWriteBatch(t *testing.T) {
	db := openDB(t)
	s := newStore(t, db, nil)
	a := keylet.Account(types.AddressFromName("a"))
	b := keylet.Account(types.AddressFromName("b"))
	require.NoError(t, s.Insert(a, []byte("old")))

	table := ledger.NewApplyStateTable(s)
	require.NoError(t, table.Erase(a))
	require.NoError(t, table.Insert(b, []byte("new")))
	affected, err := table.Apply()
	require.NoError(t, err)
	assert.Len(t, affected, 2)

	// A fresh store over the same database sees the committed batch.
	fresh := newStore(t, db, nil)
	data, err := fresh.Read(a)
	require.NoError(t, err)
	assert.Nil(t, data)
	data, err = fresh.Read(b)
	require.NoError(t, err)
	assert.Equal(t, []byte("new"), data)

	n, err := fresh.Len()
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestStoreForEachOrdered(t *testing.T) {
	s := newStore(t, openDB(t), nil)
	for _, name := range []string{"a", "b", "c", "d"} {
		require.NoError(t, s.Insert(keylet.Account(types.AddressFromName(name)), []byte(name)))
	}

	var keys [][32]byte
	require.NoError(t, s.ForEach(func(key [32]byte, _ []byte) bool {
		keys = append(keys, key)
		return true
	}))
	require.Len(t, keys, 4)
	for i := 1; i < len(keys); i++ {
		assert.Negative(t, bytes.Compare(keys[i-1][:], keys[i][:]))
	}

	seen := 0
	require.NoError(t, s.ForEach(func([32]byte, []byte) bool {
		seen++
		return false
	}))
	assert.Equal(t, 1, seen)
}

func deployOnStore(t *testing.T, s *ledgerstore.Store) (*tx.Engine, *token.Token) {
	t.Helper()
	engine, err := tx.NewEngine(s, tx.EngineConfig{
		Owner:    jtx.NewAccount(jtx.OwnerName).Address,
		Contract: jtx.ContractAddress,
		Pair:     jtx.NewAccount(jtx.PairName).Address,
		Clock:    jtx.NewClock(),
		Logger:   logger.Discard(),
	})
	require.NoError(t, err)
	tok, err := token.Deploy(context.Background(), engine, token.Options{})
	require.NoError(t, err)
	return engine, tok
}

func TestEngineOverStore(t *testing.T) {
	db := openDB(t)
	s := newStore(t, db, nil)
	engine, _ := deployOnStore(t, s)

	owner := jtx.NewAccount(jtx.OwnerName)
	alice := jtx.NewAccount("alice")
	res := engine.Apply(context.Background(), payment.NewTransfer(owner.Address, alice.Address, jtx.Whole(1_000)))
	jtx.RequireTxSuccess(t, res)

	// Reopen over the same database without the first store's cache.
	reopened, err := tx.NewEngine(newStore(t, db, nil), engine.Config())
	require.NoError(t, err)
	tok, err := token.Open(reopened)
	require.NoError(t, err)

	bal, err := tok.BalanceOf(alice.Address)
	require.NoError(t, err)
	assert.Equal(t, jtx.Whole(1_000), bal)
	total, err := tok.TotalSupply()
	require.NoError(t, err)
	assert.Equal(t, jtx.Whole(100_000), total)
}

func TestSnapshotRoundTrip(t *testing.T) {
	src := newStore(t, openDB(t), nil)
	engine, _ := deployOnStore(t, src)
	owner := jtx.NewAccount(jtx.OwnerName)
	for _, name := range []string{"alice", "bob"} {
		res := engine.Apply(context.Background(), payment.NewTransfer(owner.Address, jtx.NewAccount(name).Address, jtx.Whole(500)))
		jtx.RequireTxSuccess(t, res)
	}
	want, err := src.Len()
	require.NoError(t, err)

	var buf bytes.Buffer
	exported, err := src.Export(&buf)
	require.NoError(t, err)
	assert.Equal(t, want, exported)

	dst := newStore(t, openDB(t), nil)
	imported, err := dst.Import(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, want, imported)

	require.NoError(t, src.ForEach(func(key [32]byte, data []byte) bool {
		got, err := dst.Read(keylet.Keylet{Key: key})
		require.NoError(t, err)
		assert.Equal(t, data, got)
		return true
	}))

	_, err = dst.Import(bytes.NewReader(buf.Bytes()))
	assert.ErrorIs(t, err, ledgerstore.ErrStoreNotEmpty)
}

func TestSnapshotRejectsGarbage(t *testing.T) {
	s := newStore(t, openDB(t), nil)

	_, err := s.Import(bytes.NewReader([]byte("definitely not a snapshot")))
	assert.ErrorIs(t, err, ledgerstore.ErrBadSnapshot)

	_, err = s.Import(bytes.NewReader(nil))
	assert.ErrorIs(t, err, ledgerstore.ErrBadSnapshot)
}

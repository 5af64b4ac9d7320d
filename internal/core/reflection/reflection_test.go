package reflection

import (
	"testing"

	"github.com/LeJamon/goFST/internal/core/amount"
	"github.com/LeJamon/goFST/internal/core/ledger"
	"github.com/LeJamon/goFST/internal/core/types"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLedger(t *testing.T, owner types.Address) *Ledger {
	t.Helper()
	l := New(ledger.NewMemoryView())
	require.NoError(t, l.Genesis(owner, amount.Whole(100_000), nil))
	return l
}

func move(t *testing.T, l *Ledger, from, to types.Address, real *uint256.Int) {
	t.Helper()
	amt, err := l.Convert(real)
	require.NoError(t, err)
	require.NoError(t, l.DebitReflected(from, amt))
	require.NoError(t, l.CreditReflected(to, amt))
}

func balance(t *testing.T, l *Ledger, addr types.Address) *uint256.Int {
	t.Helper()
	b, err := l.BalanceOf(addr)
	require.NoError(t, err)
	return b
}

func TestGenesis(t *testing.T) {
	owner := types.AddressFromName("owner")
	l := newLedger(t, owner)

	assert.Equal(t, amount.Whole(100_000), balance(t, l, owner))
	r, err := l.Rate()
	require.NoError(t, err)
	assert.Equal(t, DefaultFactor, r)

	assert.ErrorIs(t, l.Genesis(owner, amount.Whole(1), nil), ErrAlreadyInitialized)
}

func TestNotInitialized(t *testing.T) {
	l := New(ledger.NewMemoryView())
	_, err := l.BalanceOf(types.AddressFromName("x"))
	assert.ErrorIs(t, err, ErrNotInitialized)
}

func TestRedistributionScenario(t *testing.T) {
	owner := types.AddressFromName("owner")
	holders := []types.Address{
		types.AddressFromName("h1"),
		types.AddressFromName("h2"),
		types.AddressFromName("h3"),
		types.AddressFromName("h4"),
		types.AddressFromName("h5"),
	}
	l := newLedger(t, owner)

	for i, n := range []uint64{10_000, 20_000, 30_000, 40_000} {
		move(t, l, owner, holders[i], amount.Whole(n))
	}

	// h4 sends 10,000 to h5; 5% is redistributed
	sent, err := l.Convert(amount.Whole(10_000))
	require.NoError(t, err)
	net, err := l.Convert(amount.Whole(9_500))
	require.NoError(t, err)
	fee, err := l.Convert(amount.Whole(500))
	require.NoError(t, err)
	require.NoError(t, l.DebitReflected(holders[3], sent))
	require.NoError(t, l.CreditReflected(holders[4], net))
	require.NoError(t, l.ReduceReflectedSupply(fee))

	want := []string{"10050", "20100", "30150", "30150", "9547.5"}
	for i, w := range want {
		got := balance(t, l, holders[i])
		assert.True(t, amount.Within(got, amount.MustParse(w), amount.Whole(1)),
			"holder %d: got %s want %s", i+1, amount.Format(got), w)
	}

	s, err := l.Supply()
	require.NoError(t, err)
	assert.Equal(t, amount.Whole(500), &s.Redistributed)
	assert.Equal(t, amount.Whole(100_000), &s.TotalReal)
}

func TestExcludedAccounts(t *testing.T) {
	owner := types.AddressFromName("owner")
	pair := types.AddressFromName("pair")
	holder := types.AddressFromName("holder")
	l := newLedger(t, owner)
	require.NoError(t, l.SetExcluded(pair, true))

	move(t, l, owner, holder, amount.Whole(50_000))
	move(t, l, owner, pair, amount.Whole(50_000))
	assert.Equal(t, amount.Whole(50_000), balance(t, l, pair))

	fee, err := l.Convert(amount.Whole(1_000))
	require.NoError(t, err)
	require.NoError(t, l.DebitReflected(holder, fee))
	require.NoError(t, l.ReduceReflectedSupply(fee))

	// the pair's real balance does not share in redistribution
	assert.Equal(t, amount.Whole(50_000), balance(t, l, pair))
	assert.True(t, amount.Within(balance(t, l, holder), amount.Whole(50_000), uint256.NewInt(1000)))

	// a debit from the excluded pair back to the holder keeps the rate
	before, err := l.Rate()
	require.NoError(t, err)
	move(t, l, pair, holder, amount.Whole(10_000))
	after, err := l.Rate()
	require.NoError(t, err)
	assert.True(t, amount.Within(before, after, uint256.NewInt(1)))
	assert.Equal(t, amount.Whole(40_000), balance(t, l, pair))

	require.NoError(t, l.SetExcluded(pair, false))
	assert.True(t, amount.Within(balance(t, l, pair), amount.Whole(40_000), uint256.NewInt(1)))
}

func TestDebitInsufficient(t *testing.T) {
	owner := types.AddressFromName("owner")
	pair := types.AddressFromName("pair")
	l := newLedger(t, owner)
	require.NoError(t, l.SetExcluded(pair, true))

	amt, err := l.Convert(amount.Whole(1))
	require.NoError(t, err)
	assert.ErrorIs(t, l.DebitReflected(types.AddressFromName("nobody"), amt), ErrInsufficientBalance)
	assert.ErrorIs(t, l.DebitReflected(pair, amt), ErrInsufficientBalance)
}

func TestReduceReflectedSupplyUnderflow(t *testing.T) {
	owner := types.AddressFromName("owner")
	l := New(ledger.NewMemoryView())
	require.NoError(t, l.Genesis(owner, amount.Whole(10), uint256.NewInt(2)))

	// rate 2: removing more than half of the reflected supply drops it below 1
	var amt Amounts
	amt.Real.Set(amount.Whole(6))
	amt.Reflected.Set(amount.Whole(12))
	assert.ErrorIs(t, l.ReduceReflectedSupply(amt), ErrRateUnderflow)

	s, err := l.Supply()
	require.NoError(t, err)
	assert.Equal(t, amount.Whole(20), &s.TotalReflected, "no clamping")
}

func TestMint(t *testing.T) {
	owner := types.AddressFromName("owner")
	staker := types.AddressFromName("staker")
	l := newLedger(t, owner)
	move(t, l, owner, staker, amount.Whole(1_000))

	_, err := l.Mint(staker, amount.Whole(30))
	require.NoError(t, err)

	assert.Equal(t, amount.Whole(1_030), balance(t, l, staker))
	assert.Equal(t, amount.Whole(99_000), balance(t, l, owner), "others are not diluted")
	total, err := l.TotalSupply()
	require.NoError(t, err)
	assert.Equal(t, amount.Whole(100_030), total)
}

func TestConvertOverflow(t *testing.T) {
	l := newLedger(t, types.AddressFromName("owner"))
	_, err := l.Convert(new(uint256.Int).SetAllOne())
	assert.ErrorIs(t, err, ErrOverflow)
}

package tx_test

import (
	"context"
	"errors"
	"testing"

	"github.com/LeJamon/goFST/internal/core/amount"
	"github.com/LeJamon/goFST/internal/core/ledger"
	"github.com/LeJamon/goFST/internal/core/ledger/entry"
	"github.com/LeJamon/goFST/internal/core/liquidity/mock"
	"github.com/LeJamon/goFST/internal/core/reflection"
	"github.com/LeJamon/goFST/internal/core/tax"
	"github.com/LeJamon/goFST/internal/core/tx"
	"github.com/LeJamon/goFST/internal/core/tx/payment"
	"github.com/LeJamon/goFST/internal/core/tx/stake"
	"github.com/LeJamon/goFST/internal/core/types"
	jtx "github.com/LeJamon/goFST/internal/testing"
	"github.com/golang/mock/gomock"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// snapshot copies every entry of the committed view.
func snapshot(t *testing.T, view ledger.View) map[[32]byte]string {
	t.Helper()
	out := make(map[[32]byte]string)
	require.NoError(t, view.ForEach(func(key [32]byte, data []byte) bool {
		out[key] = string(data)
		return true
	}))
	return out
}

func TestRedistributionScenario(t *testing.T) {
	env := jtx.NewTestEnv(t)
	users := []*jtx.Account{
		env.Account("user1"),
		env.Account("user2"),
		env.Account("user3"),
		env.Account("user4"),
		env.Account("user5"),
	}

	for i, amt := range []uint64{10_000, 20_000, 30_000, 40_000} {
		env.Fund(jtx.Whole(amt), users[i])
		jtx.RequireBalance(t, env, users[i], jtx.Whole(amt))
	}
	jtx.RequireBalance(t, env, env.Owner(), new(uint256.Int))

	res := env.Transfer(users[3], users[4], jtx.Whole(10_000))
	jtx.RequireTxSuccess(t, res)

	want := []string{"10050", "20100", "30150", "30150", "9547.5"}
	for i, w := range want {
		jtx.RequireBalanceApprox(t, env, users[i], jtx.Tokens(w), jtx.OneToken())
	}
	assert.Equal(t, jtx.Whole(100_000), env.TotalSupply())

	ev := res.Events[0]
	assert.Equal(t, tx.EventTransfer, ev.Type)
	assert.Equal(t, jtx.Whole(500), ev.Tax.Int())
	assert.Equal(t, jtx.Whole(500), ev.Redistribution.Int())
	assert.True(t, ev.Liquidity.Int().IsZero())
	assert.NotEmpty(t, ev.TxID)
}

func TestOwnerTransferUntaxed(t *testing.T) {
	env := jtx.NewTestEnv(t)
	alice := env.Account("alice")

	res := env.Transfer(env.Owner(), alice, jtx.Whole(1_000))
	jtx.RequireTxSuccess(t, res)
	jtx.RequireBalance(t, env, alice, jtx.Whole(1_000))
	assert.Nil(t, res.Events[0].Tax)
}

func TestTaxConservation(t *testing.T) {
	env := jtx.NewTestEnv(t)
	alice := env.Account("alice")
	bob := env.Account("bob")
	staker := env.Account("staker")
	env.Fund(jtx.Whole(5_000), alice, staker)
	jtx.RequireTxSuccess(t, env.Stake(staker, entry.StakeOneEightyDay))

	amounts := []*uint256.Int{jtx.Whole(1_000), jtx.Tokens("333.333333333333333333"), uint256.NewInt(199)}
	for _, amt := range amounts {
		before := env.Balance(bob)
		res := env.Transfer(alice, bob, amt)
		jtx.RequireTxSuccess(t, res)

		ev := res.Events[0]
		delta := new(uint256.Int).Sub(env.Balance(bob), before)
		parts, err := amount.Sum(ev.Redistribution.Int(), ev.Liquidity.Int(), new(uint256.Int).Sub(amt, ev.Tax.Int()))
		require.NoError(t, err)
		assert.Equal(t, amt, parts)

		// bob shares in the redistribution of his own transfer, so his
		// delta can only exceed the net amount.
		net := new(uint256.Int).Sub(amt, ev.Tax.Int())
		assert.False(t, delta.Lt(new(uint256.Int).Sub(net, uint256.NewInt(1))), "delta %s below net %s", delta, net)
	}
}

func TestRejectedTransferLeavesNoTrace(t *testing.T) {
	env := jtx.NewTestEnv(t)
	alice := env.Account("alice")
	bob := env.Account("bob")
	env.Fund(jtx.Whole(100), alice)

	before := snapshot(t, env.View())
	events := len(env.Events())

	res := env.Transfer(alice, bob, jtx.Whole(101))
	jtx.RequireTxFail(t, res, tx.TecINSUFFICIENT_BALANCE)

	assert.Equal(t, before, snapshot(t, env.View()))
	assert.Len(t, env.Events(), events)
	assert.ErrorIs(t, res.Err(), tx.TecINSUFFICIENT_BALANCE)
}

func TestPreflight(t *testing.T) {
	env := jtx.NewTestEnv(t)
	alice := env.Account("alice")
	bob := env.Account("bob")
	env.Fund(jtx.Whole(100), alice)

	tests := []struct {
		name string
		txn  tx.Transaction
		want tx.Result
	}{
		{name: "zero amount", txn: payment.NewTransfer(alice.Address, bob.Address, new(uint256.Int)), want: tx.TemBAD_AMOUNT},
		{name: "self transfer", txn: payment.NewTransfer(alice.Address, alice.Address, jtx.Whole(1)), want: tx.TemDST_IS_SRC},
		{name: "zero destination", txn: payment.NewTransfer(alice.Address, types.ZeroAddress, jtx.Whole(1)), want: tx.TemMALFORMED},
		{name: "missing account", txn: payment.NewTransfer(types.ZeroAddress, bob.Address, jtx.Whole(1)), want: tx.TemMALFORMED},
		{name: "bad stake duration", txn: &stake.Stake{BaseTx: *tx.NewBaseTx(tx.TypeStake, alice.Address), DurationDays: 90}, want: tx.TemBAD_DURATION},
		{name: "approve zero spender", txn: payment.NewApprove(alice.Address, types.ZeroAddress, jtx.Whole(1)), want: tx.TemMALFORMED},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			jtx.RequireTxFail(t, env.Submit(tt.txn), tt.want)
		})
	}
}

func TestGenesisOnce(t *testing.T) {
	env := jtx.NewTestEnv(t)

	res := env.Submit(tx.NewGenesis(env.Owner().Address, "Again", "AG", jtx.Whole(1)))
	jtx.RequireTxFail(t, res, tx.TefALREADY)

	res = env.Submit(tx.NewGenesis(env.Account("mallory").Address, "Fee Sharing Token", "FST", jtx.Whole(1)))
	jtx.RequireTxFail(t, res, tx.TecNO_PERMISSION)

	info, err := env.Token().Info()
	require.NoError(t, err)
	assert.Equal(t, tx.DefaultName, info.Name)
	assert.Equal(t, tx.DefaultSymbol, info.Symbol)
	assert.Equal(t, env.PairAddress(), info.Pair)
}

func TestNotDeployed(t *testing.T) {
	env := jtx.NewTestEnv(t, jtx.WithoutDeploy())
	alice := env.Account("alice")

	jtx.RequireTxFail(t, env.Transfer(env.Owner(), alice, jtx.Whole(1)), tx.TefNOT_DEPLOYED)
	jtx.RequireTxFail(t, env.Submit(tx.NewLiquidityFlush(alice.Address)), tx.TefNOT_DEPLOYED)
}

func TestStakeLocksTransfers(t *testing.T) {
	env := jtx.NewTestEnv(t)
	alice := env.Account("alice")
	bob := env.Account("bob")
	env.Fund(jtx.Whole(1_000), alice)

	res := env.Stake(alice, entry.StakeThirtyDay)
	jtx.RequireTxSuccess(t, res)
	require.NotNil(t, res.Events[0].Unlock)
	assert.Equal(t, jtx.DefaultStart.Add(jtx.Days(30)), *res.Events[0].Unlock)

	jtx.RequireTxFail(t, env.Transfer(alice, bob, jtx.Whole(1)), tx.TecSTAKE_LOCKED)
	jtx.RequireTxFail(t, env.Stake(alice, entry.StakeOneEightyDay), tx.TecSTAKE_ALREADY_ACTIVE)
	jtx.RequireTxFail(t, env.Redeem(alice), tx.TecSTAKE_NOT_MATURED)

	env.AdvanceTime(jtx.Days(30))

	// Matured but not redeemed: still locked.
	jtx.RequireTxFail(t, env.Transfer(alice, bob, jtx.Whole(1)), tx.TecSTAKE_LOCKED)

	res = env.Redeem(alice)
	jtx.RequireTxSuccess(t, res)
	assert.Equal(t, jtx.Whole(10), res.Events[0].Reward.Int())
	jtx.RequireBalance(t, env, alice, jtx.Whole(1_010))
	assert.Equal(t, jtx.Whole(100_010), env.TotalSupply())

	jtx.RequireTxSuccess(t, env.Transfer(alice, bob, jtx.Whole(1)))
	jtx.RequireTxFail(t, env.Redeem(alice), tx.TecNO_STAKE)
}

func TestStakeRewardMultiplier(t *testing.T) {
	env := jtx.NewTestEnv(t)
	short := env.Account("short")
	long := env.Account("long")
	env.Fund(jtx.Whole(5_000), short, long)

	jtx.RequireTxSuccess(t, env.Stake(short, entry.StakeThirtyDay))
	jtx.RequireTxSuccess(t, env.Stake(long, entry.StakeOneEightyDay))
	env.AdvanceTime(jtx.Days(180))

	shortRes := env.Redeem(short)
	longRes := env.Redeem(long)
	jtx.RequireTxSuccess(t, shortRes)
	jtx.RequireTxSuccess(t, longRes)

	shortReward := shortRes.Events[0].Reward.Int()
	longReward := longRes.Events[0].Reward.Int()
	assert.Equal(t, jtx.Whole(50), shortReward)
	assert.Equal(t, jtx.Whole(150), longReward)
	assert.Equal(t, new(uint256.Int).Mul(shortReward, uint256.NewInt(3)), longReward)
}

func TestStakeZeroBalance(t *testing.T) {
	env := jtx.NewTestEnv(t)
	jtx.RequireTxFail(t, env.Stake(env.Account("empty"), entry.StakeThirtyDay), tx.TecINSUFFICIENT_BALANCE)
}

func TestAllowance(t *testing.T) {
	env := jtx.NewTestEnv(t)
	alice := env.Account("alice")
	spender := env.Account("spender")
	carol := env.Account("carol")
	env.Fund(jtx.Whole(1_000), alice)

	jtx.RequireTxSuccess(t, env.Submit(payment.NewApprove(alice.Address, spender.Address, jtx.Whole(300))))
	al, err := env.Token().Allowance(alice.Address, spender.Address)
	require.NoError(t, err)
	assert.Equal(t, jtx.Whole(300), al)

	jtx.RequireTxFail(t,
		env.Submit(payment.NewTransferFrom(spender.Address, alice.Address, carol.Address, jtx.Whole(301))),
		tx.TecINSUFFICIENT_ALLOWANCE)

	jtx.RequireTxSuccess(t,
		env.Submit(payment.NewTransferFrom(spender.Address, alice.Address, carol.Address, jtx.Whole(200))))
	al, err = env.Token().Allowance(alice.Address, spender.Address)
	require.NoError(t, err)
	assert.Equal(t, jtx.Whole(100), al)
	jtx.RequireBalanceApprox(t, env, carol, jtx.Whole(190), jtx.OneToken())

	// A failing transfer keeps the allowance.
	jtx.RequireTxSuccess(t, env.Stake(alice, entry.StakeThirtyDay))
	jtx.RequireTxFail(t,
		env.Submit(payment.NewTransferFrom(spender.Address, alice.Address, carol.Address, jtx.Whole(50))),
		tx.TecSTAKE_LOCKED)
	al, err = env.Token().Allowance(alice.Address, spender.Address)
	require.NoError(t, err)
	assert.Equal(t, jtx.Whole(100), al)

	jtx.RequireTxSuccess(t, env.Submit(payment.NewApprove(alice.Address, spender.Address, new(uint256.Int))))
	al, err = env.Token().Allowance(alice.Address, spender.Address)
	require.NoError(t, err)
	assert.True(t, al.IsZero())
	assert.Len(t, env.EventsOf(tx.EventApproval), 2)
}

func TestExemptAccounts(t *testing.T) {
	treasury := jtx.NewAccount("treasury")
	cfg := tax.DefaultConfig()
	cfg.Exempt = []types.Address{treasury.Address}

	env := jtx.NewTestEnv(t, jtx.WithTax(cfg))
	alice := env.Account("alice")
	env.Fund(jtx.Whole(1_000), alice)

	jtx.RequireTxSuccess(t, env.Transfer(alice, treasury, jtx.Whole(400)))
	jtx.RequireBalance(t, env, env.Account("treasury"), jtx.Whole(400))
	jtx.RequireBalance(t, env, alice, jtx.Whole(600))
}

func TestLiquidityDepositWithMockPool(t *testing.T) {
	ctrl := gomock.NewController(t)
	pool := mock.NewMockPool(ctrl)

	env := jtx.NewTestEnv(t, jtx.WithPool(pool))
	alice := env.Account("alice")
	env.Fund(jtx.Whole(2_000), alice)
	pair := &jtx.Account{Name: "pair", Address: env.PairAddress()}

	gomock.InOrder(
		pool.EXPECT().AddLiquidity(gomock.Any(), jtx.Whole(50)).Return(errors.New("pool halted")),
		pool.EXPECT().AddLiquidity(gomock.Any(), jtx.Whole(100)).Return(nil),
	)

	res := env.Transfer(alice, pair, jtx.Whole(1_000))
	jtx.RequireTxSuccess(t, res)
	require.Len(t, res.Events, 2)
	assert.Equal(t, tx.EventLiquidityDepositFailed, res.Events[1].Type)
	assert.Equal(t, "pool halted", res.Events[1].Error)
	assert.Equal(t, jtx.Whole(950), env.BalanceOf(env.PairAddress()))
	assert.Equal(t, jtx.Whole(50), &env.Pending().Pending)

	res = env.Transfer(alice, pair, jtx.Whole(1_000))
	jtx.RequireTxSuccess(t, res)
	assert.Equal(t, tx.EventLiquidityDeposit, res.Events[1].Type)
	assert.Equal(t, jtx.Whole(2_000), env.BalanceOf(env.PairAddress()))

	acc := env.Pending()
	assert.True(t, acc.Pending.IsZero())
	assert.Equal(t, jtx.Whole(100), &acc.Deposited)
	assert.Equal(t, uint64(1), acc.Deposits)
	assert.Equal(t, uint64(1), acc.Failures)
}

func TestMinDepositAndFlush(t *testing.T) {
	env := jtx.NewTestEnv(t, jtx.WithMinDeposit(jtx.Whole(100)))
	alice := env.Account("alice")
	env.Fund(jtx.Whole(1_000), alice)
	pair := &jtx.Account{Name: "pair", Address: env.PairAddress()}

	jtx.RequireTxSuccess(t, env.Transfer(alice, pair, jtx.Whole(1_000)))
	assert.Equal(t, jtx.Whole(50), &env.Pending().Pending)
	assert.Empty(t, env.EventsOf(tx.EventLiquidityDeposit))

	res := env.Submit(tx.NewLiquidityFlush(alice.Address))
	jtx.RequireTxSuccess(t, res)
	require.Len(t, res.Events, 1)
	assert.Equal(t, jtx.Whole(50), res.Events[0].Amount.Int())
	assert.True(t, env.Pending().Pending.IsZero())
	assert.Equal(t, jtx.Whole(1_000), env.BalanceOf(env.PairAddress()))

	// Nothing pending: the flush is a no-op.
	res = env.Submit(tx.NewLiquidityFlush(alice.Address))
	jtx.RequireTxSuccess(t, res)
	assert.Empty(t, res.Events)
}

func TestHooksSeeOnlyCommittedEvents(t *testing.T) {
	env := jtx.NewTestEnv(t)
	alice := env.Account("alice")

	var applied, events int
	env.Engine().AddHooks(&tx.Hooks{
		OnApplied: func(tx.ApplyResult) { applied++ },
		OnEvent:   func(tx.Event) { events++ },
	})

	env.Transfer(alice, env.Owner(), jtx.Whole(1))
	env.Fund(jtx.Whole(1), alice)

	assert.Equal(t, 2, applied)
	assert.Equal(t, 1, events)
}

func TestSubmitFromJSON(t *testing.T) {
	env := jtx.NewTestEnv(t)
	bob := env.Account("bob")

	raw := `{"TransactionType":"Transfer","Account":"` + env.Owner().Address.String() +
		`","Destination":"` + bob.Address.String() + `","Amount":"12.5"}`
	txn, err := tx.FromJSON([]byte(raw))
	require.NoError(t, err)

	jtx.RequireTxSuccess(t, env.Engine().Apply(context.Background(), txn))
	jtx.RequireBalance(t, env, bob, jtx.Tokens("12.5"))
}

func TestEngineConfigDefaults(t *testing.T) {
	owner := types.AddressFromName("owner")
	alice := types.AddressFromName("alice")
	bob := types.AddressFromName("bob")

	engine, err := tx.NewEngine(ledger.NewMemoryView(), tx.EngineConfig{
		Owner:    owner,
		Contract: types.AddressFromName("contract"),
		Pair:     types.AddressFromName("pair"),
		Clock:    jtx.NewClock(),
	})
	require.NoError(t, err)

	cfg := engine.Config()
	assert.Equal(t, tax.DefaultConfig(), cfg.Tax)
	assert.Equal(t, uint64(3), cfg.Staking.OneEightyDayMultiplier)

	ctx := context.Background()
	jtx.RequireTxSuccess(t, engine.Apply(ctx, tx.NewGenesis(owner, tx.DefaultName, tx.DefaultSymbol, jtx.Whole(100_000))))
	jtx.RequireTxSuccess(t, engine.Apply(ctx, payment.NewTransfer(owner, alice, jtx.Whole(1_000))))
	jtx.RequireTxSuccess(t, engine.Apply(ctx, payment.NewTransfer(alice, bob, jtx.Whole(100))))

	var got *uint256.Int
	require.NoError(t, engine.Query(func(view ledger.View) error {
		got, err = reflection.New(view).BalanceOf(bob)
		return err
	}))
	assert.True(t, got.Lt(jtx.Whole(100)), "holder transfer was not taxed: %s", got)
	assert.True(t, amount.Within(got, jtx.Whole(95), jtx.OneToken()))
}

func TestApplyNilContext(t *testing.T) {
	ctrl := gomock.NewController(t)
	pool := mock.NewMockPool(ctrl)
	pool.EXPECT().AddLiquidity(gomock.Any(), jtx.Whole(50)).
		DoAndReturn(func(ctx context.Context, _ *uint256.Int) error {
			require.NotNil(t, ctx)
			return ctx.Err()
		})

	env := jtx.NewTestEnv(t, jtx.WithPool(pool))
	alice := env.Account("alice")
	env.Fund(jtx.Whole(1_000), alice)

	res := env.Engine().Apply(nil, payment.NewTransfer(alice.Address, env.PairAddress(), jtx.Whole(1_000)))
	jtx.RequireTxSuccess(t, res)
	assert.Equal(t, tx.EventLiquidityDeposit, res.Events[1].Type)
}

package testing

import (
	"context"
	"testing"
	"time"

	"github.com/LeJamon/goFST/internal/amm"
	"github.com/LeJamon/goFST/internal/core/ledger"
	"github.com/LeJamon/goFST/internal/core/ledger/entry"
	"github.com/LeJamon/goFST/internal/core/liquidity"
	"github.com/LeJamon/goFST/internal/core/staking"
	"github.com/LeJamon/goFST/internal/core/tax"
	"github.com/LeJamon/goFST/internal/core/tx"
	"github.com/LeJamon/goFST/internal/core/tx/payment"
	"github.com/LeJamon/goFST/internal/core/tx/stake"
	"github.com/LeJamon/goFST/internal/core/types"
	"github.com/LeJamon/goFST/internal/logger"
	"github.com/LeJamon/goFST/internal/observability"
	"github.com/LeJamon/goFST/internal/token"
	"github.com/holiman/uint256"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"
)

// Names of the accounts every TestEnv creates.
const (
	OwnerName = "owner"
	PairName  = "busd-pair"
)

// ContractAddress is the token's own holding account in every TestEnv.
var ContractAddress = types.AddressFromName("contract")

// TestEnv manages an in-memory token ledger for transaction testing.
// It provides named accounts, a fake clock, a reference pair as the
// liquidity pool, and helpers that submit transactions and read balances.
type TestEnv struct {
	t        *testing.T
	view     *ledger.MemoryView
	clock    *clockwork.FakeClock
	engine   *tx.Engine
	token    *token.Token
	accounts map[string]*Account

	quote  *amm.QuoteLedger
	pair   *amm.Pair
	router *amm.Router

	metrics *observability.Metrics
	events  []tx.Event
	results []tx.ApplyResult
}

type envConfig struct {
	tax        tax.Config
	staking    staking.Config
	minDeposit *uint256.Int
	pool       liquidity.Pool
	noPool     bool
	noDeploy   bool
	supply     *uint256.Int
	factor     *uint256.Int
}

// Option customizes NewTestEnv.
type Option func(*envConfig)

// WithTax replaces the default tax configuration.
func WithTax(cfg tax.Config) Option {
	return func(c *envConfig) { c.tax = cfg }
}

// WithStaking replaces the default staking configuration.
func WithStaking(cfg staking.Config) Option {
	return func(c *envConfig) { c.staking = cfg }
}

// WithMinDeposit sets the liquidity deposit threshold.
func WithMinDeposit(v *uint256.Int) Option {
	return func(c *envConfig) { c.minDeposit = v }
}

// WithPool uses pool instead of the reference pair for deposits.
func WithPool(pool liquidity.Pool) Option {
	return func(c *envConfig) { c.pool = pool }
}

// WithoutPool configures the engine with no pool; liquidity only
// accumulates.
func WithoutPool() Option {
	return func(c *envConfig) { c.noPool = true }
}

// WithSupply sets the genesis supply in base units.
func WithSupply(v *uint256.Int) Option {
	return func(c *envConfig) { c.supply = v }
}

// WithRateFactor sets the initial reflected units per real unit.
func WithRateFactor(v *uint256.Int) Option {
	return func(c *envConfig) { c.factor = v }
}

// WithoutDeploy leaves the ledger empty; genesis is not applied.
func WithoutDeploy() Option {
	return func(c *envConfig) { c.noDeploy = true }
}

// NewTestEnv creates a test environment with the token deployed to the
// "owner" account.
func NewTestEnv(t *testing.T, opts ...Option) *TestEnv {
	t.Helper()

	cfg := envConfig{
		tax:     tax.DefaultConfig(),
		staking: staking.DefaultConfig(),
	}
	for _, o := range opts {
		o(&cfg)
	}

	env := &TestEnv{
		t:        t,
		view:     ledger.NewMemoryView(),
		clock:    NewClock(),
		accounts: make(map[string]*Account),
		quote:    amm.NewQuoteLedger("BUSD"),
		metrics:  observability.NewMetrics("fst_test", nil),
	}
	owner := env.Account(OwnerName)
	pairAcc := env.Account(PairName)

	env.pair = amm.NewPair(pairAcc.Address, env.quote, amm.PairConfig{Logger: logger.Discard()})

	var pool liquidity.Pool = env.pair
	switch {
	case cfg.noPool:
		pool = nil
	case cfg.pool != nil:
		pool = cfg.pool
	}

	engine, err := tx.NewEngine(env.view, tx.EngineConfig{
		Owner:     owner.Address,
		Contract:  ContractAddress,
		Pair:      pairAcc.Address,
		Tax:       cfg.tax,
		Staking:   cfg.staking,
		Liquidity: liquidity.Config{MinDeposit: cfg.minDeposit},
		Pool:      pool,
		Clock:     env.clock,
		Logger:    logger.Discard(),
		Metrics:   env.metrics,
	})
	require.NoError(t, err, "create engine")
	env.engine = engine
	engine.AddHooks(&tx.Hooks{
		OnApplied: func(res tx.ApplyResult) { env.results = append(env.results, res) },
		OnEvent:   func(ev tx.Event) { env.events = append(env.events, ev) },
	})

	if cfg.noDeploy {
		return env
	}
	tok, err := token.Deploy(context.Background(), engine, token.Options{
		Supply:     cfg.supply,
		RateFactor: cfg.factor,
	})
	require.NoError(t, err, "deploy token")
	env.token = tok
	env.router = amm.NewRouter(tok, env.pair)
	return env
}

// Account returns the named account, creating it on first use.
func (e *TestEnv) Account(name string) *Account {
	if acc, ok := e.accounts[name]; ok {
		return acc
	}
	acc := NewAccount(name)
	e.accounts[name] = acc
	return acc
}

// Owner returns the token owner.
func (e *TestEnv) Owner() *Account {
	return e.Account(OwnerName)
}

// PairAddress returns the trading pair's account.
func (e *TestEnv) PairAddress() types.Address {
	return e.Account(PairName).Address
}

// Token returns the deployed token. It is nil with WithoutDeploy.
func (e *TestEnv) Token() *token.Token {
	return e.token
}

// Engine returns the transaction engine.
func (e *TestEnv) Engine() *tx.Engine {
	return e.engine
}

// View returns the committed ledger state.
func (e *TestEnv) View() *ledger.MemoryView {
	return e.view
}

// Clock returns the fake clock driving the engine.
func (e *TestEnv) Clock() *clockwork.FakeClock {
	return e.clock
}

// Metrics returns the engine's metrics.
func (e *TestEnv) Metrics() *observability.Metrics {
	return e.metrics
}

// Pair returns the reference trading pair.
func (e *TestEnv) Pair() *amm.Pair {
	return e.pair
}

// Quote returns the pair's quote ledger.
func (e *TestEnv) Quote() *amm.QuoteLedger {
	return e.quote
}

// Router returns a router trading through the reference pair.
func (e *TestEnv) Router() *amm.Router {
	return e.router
}

// Now returns the current engine time.
func (e *TestEnv) Now() time.Time {
	return e.clock.Now()
}

// AdvanceTime moves the engine clock forward.
func (e *TestEnv) AdvanceTime(d time.Duration) {
	e.clock.Advance(d)
}

// Events returns every event committed so far, in order.
func (e *TestEnv) Events() []tx.Event {
	return e.events
}

// EventsOf returns the committed events of type typ.
func (e *TestEnv) EventsOf(typ tx.EventType) []tx.Event {
	var out []tx.Event
	for _, ev := range e.events {
		if ev.Type == typ {
			out = append(out, ev)
		}
	}
	return out
}

// Results returns every processed transaction result, applied or not.
func (e *TestEnv) Results() []tx.ApplyResult {
	return e.results
}

// Submit applies a transaction.
func (e *TestEnv) Submit(txn tx.Transaction) tx.ApplyResult {
	return e.engine.Apply(context.Background(), txn)
}

// Transfer submits a transfer of amt from one account to another.
func (e *TestEnv) Transfer(from, to *Account, amt *uint256.Int) tx.ApplyResult {
	return e.Submit(payment.NewTransfer(from.Address, to.Address, amt))
}

// Fund sends amt from the owner, untaxed, to each account.
func (e *TestEnv) Fund(amt *uint256.Int, accounts ...*Account) {
	e.t.Helper()
	for _, acc := range accounts {
		res := e.Transfer(e.Owner(), acc, amt)
		require.Equal(e.t, tx.TesSUCCESS, res.Result, "fund %s: %s", acc, res.Message)
	}
}

// Stake submits a stake of acc's balance.
func (e *TestEnv) Stake(acc *Account, d entry.StakeDuration) tx.ApplyResult {
	return e.Submit(stake.NewStake(acc.Address, d))
}

// Redeem submits a redemption of acc's position.
func (e *TestEnv) Redeem(acc *Account) tx.ApplyResult {
	return e.Submit(stake.NewRedeem(acc.Address))
}

// Balance returns acc's token balance.
func (e *TestEnv) Balance(acc *Account) *uint256.Int {
	return e.BalanceOf(acc.Address)
}

// BalanceOf returns the token balance of addr.
func (e *TestEnv) BalanceOf(addr types.Address) *uint256.Int {
	e.t.Helper()
	bal, err := e.token.BalanceOf(addr)
	require.NoError(e.t, err)
	return bal
}

// TotalSupply returns the real supply.
func (e *TestEnv) TotalSupply() *uint256.Int {
	e.t.Helper()
	total, err := e.token.TotalSupply()
	require.NoError(e.t, err)
	return total
}

// Pending returns the liquidity accumulator.
func (e *TestEnv) Pending() *entry.LiquidityAccumulator {
	e.t.Helper()
	acc, err := e.token.LiquidityPending()
	require.NoError(e.t, err)
	return acc
}

// SeedPair deposits tokens from the owner and quote from a fresh
// "liquidity-provider" account so the pair can price swaps.
func (e *TestEnv) SeedPair(tokens, quote *uint256.Int) {
	e.t.Helper()
	require.NoError(e.t, e.token.AddLiquidityForBUSDPair(context.Background(), e.Owner().Address, tokens))

	lp := e.Account("liquidity-provider")
	require.NoError(e.t, e.quote.Mint(lp.Address, quote))
	require.NoError(e.t, e.pair.AddQuote(lp.Address, quote))
}

// Sell swaps amt of acc's tokens for quote through the router.
func (e *TestEnv) Sell(acc *Account, amt *uint256.Int) (*amm.SwapResult, error) {
	return e.router.SwapExactTokensForQuoteSupportingFeeOnTransfer(context.Background(), acc.Address, acc.Address, amt, nil)
}

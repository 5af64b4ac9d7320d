package liquidity

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/LeJamon/goFST/internal/core/amount"
	"github.com/LeJamon/goFST/internal/core/ledger"
	"github.com/LeJamon/goFST/internal/core/ledger/entry"
	"github.com/LeJamon/goFST/internal/core/ledger/keylet"
	"github.com/LeJamon/goFST/internal/core/reflection"
	"github.com/LeJamon/goFST/internal/core/types"
	"github.com/LeJamon/goFST/internal/observability"
	"github.com/holiman/uint256"
)

// ErrDepositFailed wraps a pool error on the manual seed path.
var ErrDepositFailed = errors.New("external deposit failed")

// Config configures a Trigger.
type Config struct {
	// MinDeposit is the pending amount below which transfers do not
	// attempt a deposit. Zero deposits on every taxed transfer.
	MinDeposit *uint256.Int
	Logger     *slog.Logger
	Metrics    *observability.Metrics
}

// Outcome reports what a deposit attempt did.
type Outcome struct {
	Attempted bool
	Amount    uint256.Int
	// Err is the pool's error when the deposit was rolled back.
	Err error
}

// Failed reports whether an attempted deposit was rolled back.
func (o Outcome) Failed() bool {
	return o.Attempted && o.Err != nil
}

// Trigger moves accrued liquidity tokens from the contract account into
// the pair.
type Trigger struct {
	pool       Pool
	contract   types.Address
	pair       types.Address
	minDeposit uint256.Int
	logger     *slog.Logger
	metrics    *observability.Metrics
}

// NewTrigger creates a trigger. A nil pool only accumulates.
func NewTrigger(pool Pool, contract, pair types.Address, cfg Config) *Trigger {
	t := &Trigger{
		pool:     pool,
		contract: contract,
		pair:     pair,
		logger:   cfg.Logger,
		metrics:  cfg.Metrics,
	}
	if cfg.MinDeposit != nil {
		t.minDeposit.Set(cfg.MinDeposit)
	}
	if t.logger == nil {
		t.logger = slog.Default()
	}
	return t
}

// Accumulator returns the current accumulator, zero-valued if absent.
func (t *Trigger) Accumulator(view ledger.View) (*entry.LiquidityAccumulator, error) {
	acc, err := ledger.Get[entry.LiquidityAccumulator](view, keylet.Liquidity())
	if err != nil {
		return nil, err
	}
	if acc == nil {
		acc = &entry.LiquidityAccumulator{}
	}
	return acc, nil
}

// OnLiquidityShareAccrued books amt as pending. The caller has already
// credited the tokens to the contract account.
func (t *Trigger) OnLiquidityShareAccrued(view ledger.View, amt *uint256.Int) error {
	if amt.IsZero() {
		return nil
	}
	acc, err := t.Accumulator(view)
	if err != nil {
		return err
	}
	if _, overflow := acc.Pending.AddOverflow(&acc.Pending, amt); overflow {
		return reflection.ErrOverflow
	}
	if err := ledger.Put(view, keylet.Liquidity(), acc); err != nil {
		return err
	}
	t.metrics.SetLiquidityPending(&acc.Pending)
	return nil
}

// MaybeDeposit deposits the pending amount once it reaches MinDeposit.
// A pool failure is absorbed: the transfer of tokens to the pair is rolled
// back, the failure is counted and the pending amount is kept for the
// next attempt. Only ledger faults are returned as errors.
func (t *Trigger) MaybeDeposit(ctx context.Context, view ledger.View, now time.Time) (Outcome, error) {
	return t.deposit(ctx, view, now, false)
}

// Flush deposits whatever is pending regardless of MinDeposit.
func (t *Trigger) Flush(ctx context.Context, view ledger.View, now time.Time) (Outcome, error) {
	return t.deposit(ctx, view, now, true)
}

func (t *Trigger) deposit(ctx context.Context, view ledger.View, now time.Time, force bool) (Outcome, error) {
	if t.pool == nil {
		return Outcome{}, nil
	}
	acc, err := t.Accumulator(view)
	if err != nil {
		return Outcome{}, err
	}
	if acc.Pending.IsZero() || (!force && acc.Pending.Lt(&t.minDeposit)) {
		return Outcome{}, nil
	}

	out := Outcome{Attempted: true}
	out.Amount.Set(&acc.Pending)

	nested := ledger.NewApplyStateTable(view)
	if err := move(nested, t.contract, t.pair, &acc.Pending); err != nil {
		return Outcome{}, fmt.Errorf("move pending liquidity: %w", err)
	}

	if err := t.pool.AddLiquidity(ctx, &out.Amount); err != nil {
		nested.Discard()
		acc.Failures++
		if perr := ledger.Put(view, keylet.Liquidity(), acc); perr != nil {
			return Outcome{}, perr
		}
		t.logger.Warn("liquidity deposit failed",
			"amount", amount.Format(&out.Amount),
			"failures", acc.Failures,
			"error", err,
		)
		t.metrics.RecordDeposit(false)
		out.Err = err
		return out, nil
	}

	if _, err := nested.Apply(); err != nil {
		return Outcome{}, err
	}
	acc.Deposited.Add(&acc.Deposited, &acc.Pending)
	acc.Pending.Clear()
	acc.Deposits++
	acc.LastDeposit = now.Unix()
	if err := ledger.Put(view, keylet.Liquidity(), acc); err != nil {
		return Outcome{}, err
	}

	t.logger.Debug("liquidity deposited", "amount", amount.Format(&out.Amount))
	t.metrics.RecordDeposit(true)
	t.metrics.SetLiquidityPending(&acc.Pending)
	return out, nil
}

// Seed moves amt from holder to the pair without tax and deposits it.
// Unlike the automatic path a pool failure is returned, wrapped in
// ErrDepositFailed, and nothing is written.
func (t *Trigger) Seed(ctx context.Context, view ledger.View, from types.Address, amt *uint256.Int) error {
	if t.pool == nil {
		return fmt.Errorf("%w: no pool configured", ErrDepositFailed)
	}
	nested := ledger.NewApplyStateTable(view)
	if err := move(nested, from, t.pair, amt); err != nil {
		return err
	}
	if err := t.pool.AddLiquidity(ctx, amt); err != nil {
		nested.Discard()
		t.metrics.RecordDeposit(false)
		return fmt.Errorf("%w: %v", ErrDepositFailed, err)
	}
	if _, err := nested.Apply(); err != nil {
		return err
	}
	t.metrics.RecordDeposit(true)
	return nil
}

func move(view ledger.View, from, to types.Address, real *uint256.Int) error {
	refl := reflection.New(view)
	amt, err := refl.Convert(real)
	if err != nil {
		return err
	}
	if err := refl.DebitReflected(from, amt); err != nil {
		return err
	}
	return refl.CreditReflected(to, amt)
}

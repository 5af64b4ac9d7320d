package tx

import (
	"context"
	"time"

	"github.com/LeJamon/goFST/internal/core/amount"
	"github.com/LeJamon/goFST/internal/core/ledger"
	"github.com/LeJamon/goFST/internal/core/liquidity"
	"github.com/LeJamon/goFST/internal/core/reflection"
	"github.com/LeJamon/goFST/internal/core/tax"
	"github.com/LeJamon/goFST/internal/core/types"
	"github.com/holiman/uint256"
)

// ApplyContext provides all the state and helpers needed to apply a transaction.
// It is passed to Appliable.Apply() instead of individual parameters.
type ApplyContext struct {
	// Ctx bounds external calls made while applying (pool deposits).
	Ctx context.Context

	// View provides read/write access to ledger state (the ApplyStateTable)
	View ledger.View

	// Account is the caller
	Account types.Address

	// TxID is the id assigned to the current transaction
	TxID string

	// Now is the engine clock reading for this transaction
	Now time.Time

	// Config holds engine configuration
	Config *EngineConfig

	// Engine provides access to the tax, staking and liquidity components
	Engine *Engine

	events []Event
	err    error
}

// Ledger returns the reflection ledger over the current view.
func (ctx *ApplyContext) Ledger() *reflection.Ledger {
	return reflection.New(ctx.View)
}

// Emit records an event to publish once the transaction commits.
func (ctx *ApplyContext) Emit(ev Event) {
	ev.TxID = ctx.TxID
	ev.Time = ctx.Now
	ctx.events = append(ctx.events, ev)
}

// Events returns the events emitted so far.
func (ctx *ApplyContext) Events() []Event {
	return ctx.events
}

// Fail records err as the cause of the rejection and maps it to a result.
func (ctx *ApplyContext) Fail(err error) Result {
	ctx.err = err
	return ResultFromError(err)
}

// Transfer moves amt from one account to another, applying tax, staking
// locks and the liquidity trigger. All amounts are converted at the rate
// in force when the transfer starts.
func (ctx *ApplyContext) Transfer(from, to types.Address, amt *uint256.Int) Result {
	e := ctx.Engine
	if err := e.staking.CheckTransfer(ctx.View, from); err != nil {
		return ctx.Fail(err)
	}

	refl := ctx.Ledger()
	balance, err := refl.BalanceOf(from)
	if err != nil {
		return ctx.Fail(err)
	}
	if amt.Gt(balance) {
		return ctx.Fail(reflection.ErrInsufficientBalance)
	}

	sender, err := refl.Account(from)
	if err != nil {
		return ctx.Fail(err)
	}
	recipient, err := refl.Account(to)
	if err != nil {
		return ctx.Fail(err)
	}
	active, err := e.staking.ActiveStakes(ctx.View)
	if err != nil {
		return ctx.Fail(err)
	}

	b, err := e.tax.Compute(tax.Input{
		Sender:          from,
		Recipient:       to,
		SenderExempt:    sender.TaxExempt,
		RecipientExempt: recipient.TaxExempt,
		Amount:          amt,
		StakersActive:   active > 0,
	})
	if err != nil {
		return ctx.Fail(err)
	}

	rate, err := refl.Rate()
	if err != nil {
		return ctx.Fail(err)
	}
	sent, err := reflection.ConvertAt(amt, rate)
	if err != nil {
		return ctx.Fail(err)
	}
	net, err := reflection.ConvertAt(&b.Net, rate)
	if err != nil {
		return ctx.Fail(err)
	}
	liq, err := reflection.ConvertAt(&b.Liquidity, rate)
	if err != nil {
		return ctx.Fail(err)
	}
	redist, err := reflection.ConvertAt(&b.Redistribution, rate)
	if err != nil {
		return ctx.Fail(err)
	}

	if err := refl.DebitReflected(from, sent); err != nil {
		return ctx.Fail(err)
	}
	if err := refl.CreditReflected(to, net); err != nil {
		return ctx.Fail(err)
	}
	if !liq.Real.IsZero() {
		if err := refl.CreditReflected(ctx.Config.Contract, liq); err != nil {
			return ctx.Fail(err)
		}
		if err := e.liquidity.OnLiquidityShareAccrued(ctx.View, &liq.Real); err != nil {
			return ctx.Fail(err)
		}
	}
	if !redist.Real.IsZero() {
		if err := refl.ReduceReflectedSupply(redist); err != nil {
			return ctx.Fail(err)
		}
	}

	ev := Event{Type: EventTransfer, From: from, To: to, Amount: amount.NewValue(amt)}
	if !b.Exempt {
		ev.Tax = valuePtr(&b.Tax)
		ev.Redistribution = valuePtr(&b.Redistribution)
		ev.Liquidity = valuePtr(&b.Liquidity)
	}
	ctx.Emit(ev)

	if !b.Exempt {
		if r := ctx.depositLiquidity(false); !r.IsSuccess() {
			return r
		}
	}
	return TesSUCCESS
}

// depositLiquidity runs the liquidity trigger and records its outcome.
func (ctx *ApplyContext) depositLiquidity(force bool) Result {
	trig := ctx.Engine.liquidity
	var (
		out liquidity.Outcome
		err error
	)
	if force {
		out, err = trig.Flush(ctx.Ctx, ctx.View, ctx.Now)
	} else {
		out, err = trig.MaybeDeposit(ctx.Ctx, ctx.View, ctx.Now)
	}
	if err != nil {
		return ctx.Fail(err)
	}
	if !out.Attempted {
		return TesSUCCESS
	}

	ev := Event{
		Type:   EventLiquidityDeposit,
		From:   ctx.Config.Contract,
		To:     ctx.Config.Pair,
		Amount: amount.NewValue(&out.Amount),
	}
	if out.Failed() {
		ev.Type = EventLiquidityDepositFailed
		ev.Error = out.Err.Error()
	}
	ctx.Emit(ev)
	return TesSUCCESS
}

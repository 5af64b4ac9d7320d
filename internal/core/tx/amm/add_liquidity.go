// Package amm implements the owner's manual liquidity seeding transaction.
package amm

import (
	"github.com/LeJamon/goFST/internal/core/amount"
	"github.com/LeJamon/goFST/internal/core/tx"
	"github.com/LeJamon/goFST/internal/core/types"
	"github.com/holiman/uint256"
)

func init() {
	tx.Register(tx.TypeAddLiquidity, func() tx.Transaction {
		return &AddLiquidity{BaseTx: *tx.NewBaseTx(tx.TypeAddLiquidity, types.ZeroAddress)}
	})
}

// AddLiquidity moves Amount untaxed from the owner to the pair and
// deposits it. Unlike the automatic trigger a pool failure aborts the
// transaction with tecDEPOSIT_FAILED.
type AddLiquidity struct {
	tx.BaseTx

	Amount amount.Value `json:"Amount"`
}

// NewAddLiquidity creates a new AddLiquidity transaction
func NewAddLiquidity(owner types.Address, amt *uint256.Int) *AddLiquidity {
	return &AddLiquidity{
		BaseTx: *tx.NewBaseTx(tx.TypeAddLiquidity, owner),
		Amount: amount.NewValue(amt),
	}
}

// Validate validates the AddLiquidity transaction
func (a *AddLiquidity) Validate() error {
	if err := a.BaseTx.Validate(); err != nil {
		return err
	}
	return tx.RequirePositive(a.Amount.Int())
}

// Apply seeds the pool.
func (a *AddLiquidity) Apply(ctx *tx.ApplyContext) tx.Result {
	if ctx.Account != ctx.Config.Owner {
		return tx.TecNO_PERMISSION
	}
	if err := ctx.Engine.Staking().CheckTransfer(ctx.View, ctx.Account); err != nil {
		return ctx.Fail(err)
	}
	if err := ctx.Engine.Liquidity().Seed(ctx.Ctx, ctx.View, ctx.Account, a.Amount.Int()); err != nil {
		return ctx.Fail(err)
	}

	ctx.Emit(tx.Event{
		Type:   tx.EventLiquidityDeposit,
		From:   ctx.Account,
		To:     ctx.Config.Pair,
		Amount: a.Amount,
	})
	return tx.TesSUCCESS
}

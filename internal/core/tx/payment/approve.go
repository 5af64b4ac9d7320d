package payment

import (
	"fmt"

	"github.com/LeJamon/goFST/internal/core/amount"
	"github.com/LeJamon/goFST/internal/core/ledger"
	"github.com/LeJamon/goFST/internal/core/ledger/entry"
	"github.com/LeJamon/goFST/internal/core/ledger/keylet"
	"github.com/LeJamon/goFST/internal/core/tx"
	"github.com/LeJamon/goFST/internal/core/types"
	"github.com/holiman/uint256"
)

func init() {
	tx.Register(tx.TypeApprove, func() tx.Transaction {
		return &Approve{BaseTx: *tx.NewBaseTx(tx.TypeApprove, types.ZeroAddress)}
	})
}

// Approve sets the amount Spender may move from the caller. A zero amount
// revokes the approval.
type Approve struct {
	tx.BaseTx

	Spender types.Address `json:"Spender"`
	Amount  amount.Value  `json:"Amount"`
}

// NewApprove creates a new Approve transaction
func NewApprove(owner, spender types.Address, amt *uint256.Int) *Approve {
	return &Approve{
		BaseTx:  *tx.NewBaseTx(tx.TypeApprove, owner),
		Spender: spender,
		Amount:  amount.NewValue(amt),
	}
}

// Validate validates the Approve transaction
func (a *Approve) Validate() error {
	if err := a.BaseTx.Validate(); err != nil {
		return err
	}
	if a.Spender.IsZero() {
		return fmt.Errorf("%w: Spender is required", tx.TemMALFORMED)
	}
	return nil
}

// Apply writes or removes the allowance entry.
func (a *Approve) Apply(ctx *tx.ApplyContext) tx.Result {
	if _, err := ctx.Ledger().Supply(); err != nil {
		return ctx.Fail(err)
	}

	k := keylet.Allowance(ctx.Account, a.Spender)
	if a.Amount.Int().IsZero() {
		if err := ledger.Delete(ctx.View, k); err != nil {
			return ctx.Fail(err)
		}
	} else {
		al := &entry.Allowance{Owner: ctx.Account, Spender: a.Spender}
		al.Amount.Set(a.Amount.Int())
		if err := ledger.Put(ctx.View, k, al); err != nil {
			return ctx.Fail(err)
		}
	}

	ctx.Emit(tx.Event{Type: tx.EventApproval, From: ctx.Account, To: a.Spender, Amount: a.Amount})
	return tx.TesSUCCESS
}

// AllowanceOf returns what spender may still move from owner.
func AllowanceOf(view ledger.View, owner, spender types.Address) (*uint256.Int, error) {
	al, err := ledger.Get[entry.Allowance](view, keylet.Allowance(owner, spender))
	if err != nil {
		return nil, err
	}
	if al == nil {
		return new(uint256.Int), nil
	}
	return new(uint256.Int).Set(&al.Amount), nil
}

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
	tx.Register(tx.TypeTransferFrom, func() tx.Transaction {
		return &TransferFrom{BaseTx: *tx.NewBaseTx(tx.TypeTransferFrom, types.ZeroAddress)}
	})
}

// TransferFrom moves tokens from Owner to Destination on the caller's
// allowance. Tax, locks and liquidity apply as for Owner's own transfer.
type TransferFrom struct {
	tx.BaseTx

	Owner       types.Address `json:"Owner"`
	Destination types.Address `json:"Destination"`
	Amount      amount.Value  `json:"Amount"`
}

// NewTransferFrom creates a new TransferFrom transaction
func NewTransferFrom(spender, owner, destination types.Address, amt *uint256.Int) *TransferFrom {
	return &TransferFrom{
		BaseTx:      *tx.NewBaseTx(tx.TypeTransferFrom, spender),
		Owner:       owner,
		Destination: destination,
		Amount:      amount.NewValue(amt),
	}
}

// Validate validates the TransferFrom transaction
func (t *TransferFrom) Validate() error {
	if err := t.BaseTx.Validate(); err != nil {
		return err
	}
	if t.Owner.IsZero() {
		return fmt.Errorf("%w: Owner is required", tx.TemMALFORMED)
	}
	if err := validateDestination(t.Owner, t.Destination); err != nil {
		return err
	}
	return tx.RequirePositive(t.Amount.Int())
}

// Apply spends the allowance and runs the transfer.
func (t *TransferFrom) Apply(ctx *tx.ApplyContext) tx.Result {
	amt := t.Amount.Int()
	k := keylet.Allowance(t.Owner, ctx.Account)
	al, err := ledger.Get[entry.Allowance](ctx.View, k)
	if err != nil {
		return ctx.Fail(err)
	}
	if al == nil || al.Amount.Lt(amt) {
		return tx.TecINSUFFICIENT_ALLOWANCE
	}

	al.Amount.Sub(&al.Amount, amt)
	if al.Amount.IsZero() {
		err = ctx.View.Erase(k)
	} else {
		err = ledger.Put(ctx.View, k, al)
	}
	if err != nil {
		return ctx.Fail(err)
	}

	return ctx.Transfer(t.Owner, t.Destination, amt)
}

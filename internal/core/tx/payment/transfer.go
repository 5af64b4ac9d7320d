// Package payment implements Transfer, Approve and TransferFrom transactions.
package payment

import (
	"fmt"

	"github.com/LeJamon/goFST/internal/core/amount"
	"github.com/LeJamon/goFST/internal/core/tx"
	"github.com/LeJamon/goFST/internal/core/types"
	"github.com/holiman/uint256"
)

func init() {
	tx.Register(tx.TypeTransfer, func() tx.Transaction {
		return &Transfer{BaseTx: *tx.NewBaseTx(tx.TypeTransfer, types.ZeroAddress)}
	})
}

// Transfer moves tokens from the caller to Destination.
type Transfer struct {
	tx.BaseTx

	// Destination is the receiving account (required)
	Destination types.Address `json:"Destination"`

	// Amount is the amount debited from the caller, before tax (required)
	Amount amount.Value `json:"Amount"`
}

// NewTransfer creates a new Transfer transaction
func NewTransfer(account, destination types.Address, amt *uint256.Int) *Transfer {
	return &Transfer{
		BaseTx:      *tx.NewBaseTx(tx.TypeTransfer, account),
		Destination: destination,
		Amount:      amount.NewValue(amt),
	}
}

// Validate validates the Transfer transaction
func (t *Transfer) Validate() error {
	if err := t.BaseTx.Validate(); err != nil {
		return err
	}
	if err := validateDestination(t.Account, t.Destination); err != nil {
		return err
	}
	return tx.RequirePositive(t.Amount.Int())
}

// Apply runs the transfer through the orchestrator.
func (t *Transfer) Apply(ctx *tx.ApplyContext) tx.Result {
	return ctx.Transfer(ctx.Account, t.Destination, t.Amount.Int())
}

func validateDestination(from, to types.Address) error {
	if to.IsZero() {
		return fmt.Errorf("%w: Destination is required", tx.TemMALFORMED)
	}
	if to == from {
		return tx.TemDST_IS_SRC
	}
	return nil
}

package tx

import (
	"errors"
	"fmt"

	"github.com/LeJamon/goFST/internal/core/types"
)

// Common errors
var (
	ErrMissingRequiredField   = errors.New("missing required field")
	ErrInvalidTransactionType = errors.New("invalid transaction type")
)

// Transaction is the interface that all transaction types must implement
type Transaction interface {
	// TxType returns the transaction type
	TxType() Type

	// GetCommon returns the common transaction fields
	GetCommon() *Common

	// Validate checks if the transaction is well-formed. Errors that wrap
	// a tem Result keep that code; others map to temMALFORMED.
	Validate() error
}

// Appliable is implemented by transaction types that can apply themselves to ledger state.
type Appliable interface {
	Apply(ctx *ApplyContext) Result
}

// Common contains fields common to all transaction types
type Common struct {
	// Account is the caller. Signatures are checked by the host.
	Account         types.Address `json:"Account"`
	TransactionType string        `json:"TransactionType"`

	// ID is assigned by the engine when the transaction is applied.
	ID string `json:"ID,omitempty"`

	Memo string `json:"Memo,omitempty"`
}

// Validate validates the common fields
func (c *Common) Validate() error {
	if c.Account.IsZero() {
		return fmt.Errorf("%w: Account", ErrMissingRequiredField)
	}
	return nil
}

// BaseTx provides the shared implementation of Transaction.
type BaseTx struct {
	Common
	txType Type
}

// NewBaseTx creates a BaseTx for the given type and account
func NewBaseTx(txType Type, account types.Address) *BaseTx {
	return &BaseTx{
		Common: Common{
			Account:         account,
			TransactionType: txType.String(),
		},
		txType: txType,
	}
}

// TxType returns the transaction type
func (b *BaseTx) TxType() Type {
	return b.txType
}

// GetCommon returns the common transaction fields
func (b *BaseTx) GetCommon() *Common {
	return &b.Common
}

// Validate validates the base transaction
func (b *BaseTx) Validate() error {
	return b.Common.Validate()
}

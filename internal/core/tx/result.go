package tx

import (
	"errors"
	"fmt"

	"github.com/LeJamon/goFST/internal/core/amount"
	"github.com/LeJamon/goFST/internal/core/liquidity"
	"github.com/LeJamon/goFST/internal/core/reflection"
	"github.com/LeJamon/goFST/internal/core/staking"
)

// Result represents a transaction result code
type Result int

// Transaction result codes, organized by category: tes, tec, tef, tem.
// Only tesSUCCESS changes ledger state; every other code leaves it
// untouched.
const (
	// tesSUCCESS
	TesSUCCESS Result = 0

	// tec codes (100-299): well-formed but rejected by ledger state
	TecNO_PERMISSION          Result = 139
	TecINSUFFICIENT_BALANCE   Result = 200
	TecINSUFFICIENT_ALLOWANCE Result = 201
	TecSTAKE_LOCKED           Result = 202
	TecSTAKE_ALREADY_ACTIVE   Result = 203
	TecSTAKE_NOT_MATURED      Result = 204
	TecNO_STAKE               Result = 205
	TecDEPOSIT_FAILED         Result = 206

	// tef codes (-199 to -100): failure that indicates a ledger fault
	TefALREADY        Result = -198
	TefINTERNAL       Result = -192
	TefRATE_UNDERFLOW Result = -170
	TefOVERFLOW       Result = -169
	TefNOT_DEPLOYED   Result = -168

	// tem codes (-299 to -200): malformed transaction
	TemMALFORMED    Result = -299
	TemBAD_AMOUNT   Result = -298
	TemDST_IS_SRC   Result = -279
	TemBAD_DURATION Result = -260
)

// String returns the string representation of the result code
func (r Result) String() string {
	switch r {
	case TesSUCCESS:
		return "tesSUCCESS"
	case TecNO_PERMISSION:
		return "tecNO_PERMISSION"
	case TecINSUFFICIENT_BALANCE:
		return "tecINSUFFICIENT_BALANCE"
	case TecINSUFFICIENT_ALLOWANCE:
		return "tecINSUFFICIENT_ALLOWANCE"
	case TecSTAKE_LOCKED:
		return "tecSTAKE_LOCKED"
	case TecSTAKE_ALREADY_ACTIVE:
		return "tecSTAKE_ALREADY_ACTIVE"
	case TecSTAKE_NOT_MATURED:
		return "tecSTAKE_NOT_MATURED"
	case TecNO_STAKE:
		return "tecNO_STAKE"
	case TecDEPOSIT_FAILED:
		return "tecDEPOSIT_FAILED"
	case TefALREADY:
		return "tefALREADY"
	case TefINTERNAL:
		return "tefINTERNAL"
	case TefRATE_UNDERFLOW:
		return "tefRATE_UNDERFLOW"
	case TefOVERFLOW:
		return "tefOVERFLOW"
	case TefNOT_DEPLOYED:
		return "tefNOT_DEPLOYED"
	case TemMALFORMED:
		return "temMALFORMED"
	case TemBAD_AMOUNT:
		return "temBAD_AMOUNT"
	case TemDST_IS_SRC:
		return "temDST_IS_SRC"
	case TemBAD_DURATION:
		return "temBAD_DURATION"
	default:
		return fmt.Sprintf("Unknown(%d)", r)
	}
}

// IsSuccess returns true if the result indicates success
func (r Result) IsSuccess() bool {
	return r == TesSUCCESS
}

// IsTec returns true if this is a tec (rejected by state) code
func (r Result) IsTec() bool {
	return r >= 100 && r < 300
}

// IsTef returns true if this is a tef (failure) code
func (r Result) IsTef() bool {
	return r >= -199 && r <= -100
}

// IsTem returns true if this is a tem (malformed) code
func (r Result) IsTem() bool {
	return r >= -299 && r <= -200
}

// Message returns a human-readable message for the result
func (r Result) Message() string {
	switch r {
	case TesSUCCESS:
		return "The transaction was applied."
	case TecNO_PERMISSION:
		return "No permission to perform requested operation."
	case TecINSUFFICIENT_BALANCE:
		return "Insufficient balance to send."
	case TecINSUFFICIENT_ALLOWANCE:
		return "Transfer amount exceeds allowance."
	case TecSTAKE_LOCKED:
		return "Balance is locked by an active stake."
	case TecSTAKE_ALREADY_ACTIVE:
		return "Account already has an active stake."
	case TecSTAKE_NOT_MATURED:
		return "Stake has not matured."
	case TecNO_STAKE:
		return "Account has no active stake."
	case TecDEPOSIT_FAILED:
		return "Liquidity pool rejected the deposit."
	case TefALREADY:
		return "The token has already been deployed."
	case TefINTERNAL:
		return "Internal error."
	case TefRATE_UNDERFLOW:
		return "Reflected supply would fall below real supply."
	case TefOVERFLOW:
		return "Arithmetic overflow."
	case TefNOT_DEPLOYED:
		return "The token has not been deployed."
	case TemMALFORMED:
		return "The transaction is ill-formed."
	case TemBAD_AMOUNT:
		return "Can only send positive amounts."
	case TemDST_IS_SRC:
		return "Destination may not be source."
	case TemBAD_DURATION:
		return "Stake duration must be 30 or 180 days."
	default:
		return r.String()
	}
}

// Error implements the error interface.
func (r Result) Error() string {
	return r.String() + ": " + r.Message()
}

// Err returns nil for tesSUCCESS and r otherwise.
func (r Result) Err() error {
	if r.IsSuccess() {
		return nil
	}
	return r
}

// ResultFromError maps a component error to a result code. Errors that
// already carry a Result keep it; unknown errors become tefINTERNAL.
func ResultFromError(err error) Result {
	if err == nil {
		return TesSUCCESS
	}
	var r Result
	if errors.As(err, &r) {
		return r
	}
	switch {
	case errors.Is(err, reflection.ErrInsufficientBalance):
		return TecINSUFFICIENT_BALANCE
	case errors.Is(err, reflection.ErrRateUnderflow):
		return TefRATE_UNDERFLOW
	case errors.Is(err, reflection.ErrOverflow), errors.Is(err, amount.ErrOverflow):
		return TefOVERFLOW
	case errors.Is(err, reflection.ErrNotInitialized):
		return TefNOT_DEPLOYED
	case errors.Is(err, reflection.ErrAlreadyInitialized):
		return TefALREADY
	case errors.Is(err, staking.ErrStakeLocked):
		return TecSTAKE_LOCKED
	case errors.Is(err, staking.ErrStakeAlreadyActive):
		return TecSTAKE_ALREADY_ACTIVE
	case errors.Is(err, staking.ErrStakeNotMatured):
		return TecSTAKE_NOT_MATURED
	case errors.Is(err, staking.ErrNoStake):
		return TecNO_STAKE
	case errors.Is(err, staking.ErrInvalidDuration):
		return TemBAD_DURATION
	case errors.Is(err, liquidity.ErrDepositFailed):
		return TecDEPOSIT_FAILED
	default:
		return TefINTERNAL
	}
}

// Package reflection keeps holder balances in reflected units so that tax
// redistribution is a single update to the reflected supply.
//
// An included holder's real balance is reflected / rate, where
// rate = TotalReflected / (TotalReal - ExcludedReal). Shrinking
// TotalReflected lowers the rate and raises every included balance in
// proportion, without touching any account.
package reflection

import (
	"errors"
	"fmt"

	"github.com/LeJamon/goFST/internal/core/ledger"
	"github.com/LeJamon/goFST/internal/core/ledger/entry"
	"github.com/LeJamon/goFST/internal/core/ledger/keylet"
	"github.com/LeJamon/goFST/internal/core/types"
	"github.com/holiman/uint256"
)

var (
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrRateUnderflow       = errors.New("reflected supply would fall below real supply")
	ErrOverflow            = errors.New("arithmetic overflow")
	ErrNotInitialized      = errors.New("supply not initialized")
	ErrAlreadyInitialized  = errors.New("supply already initialized")
)

// DefaultFactor is the initial reflected units per real unit.
var DefaultFactor = new(uint256.Int).Exp(uint256.NewInt(10), uint256.NewInt(40))

// Amounts is a quantity expressed in both unit systems at one rate.
type Amounts struct {
	Real      uint256.Int
	Reflected uint256.Int
}

// Ledger operates on balances stored in a ledger.View.
type Ledger struct {
	view ledger.View
}

// New binds a reflection ledger to view.
func New(view ledger.View) *Ledger {
	return &Ledger{view: view}
}

// Supply returns the current supply entry.
func (l *Ledger) Supply() (*entry.Supply, error) {
	s, err := ledger.Get[entry.Supply](l.view, keylet.Supply())
	if err != nil {
		return nil, err
	}
	if s == nil {
		return nil, ErrNotInitialized
	}
	return s, nil
}

func (l *Ledger) putSupply(s *entry.Supply) error {
	return ledger.Put(l.view, keylet.Supply(), s)
}

// Account returns the account root for addr, or a zero included account
// when none has been created yet.
func (l *Ledger) Account(addr types.Address) (*entry.AccountRoot, error) {
	a, err := ledger.Get[entry.AccountRoot](l.view, keylet.Account(addr))
	if err != nil {
		return nil, err
	}
	if a == nil {
		return &entry.AccountRoot{Address: addr}, nil
	}
	return a, nil
}

func (l *Ledger) putAccount(a *entry.AccountRoot) error {
	return ledger.Put(l.view, keylet.Account(a.Address), a)
}

func rateOf(s *entry.Supply) (*uint256.Int, error) {
	included := s.IncludedReal()
	if included.IsZero() {
		return new(uint256.Int).Set(&s.InitialRate), nil
	}
	r := new(uint256.Int).Div(&s.TotalReflected, included)
	if r.IsZero() {
		return nil, ErrRateUnderflow
	}
	return r, nil
}

// Rate returns reflected units per real unit.
func (l *Ledger) Rate() (*uint256.Int, error) {
	s, err := l.Supply()
	if err != nil {
		return nil, err
	}
	return rateOf(s)
}

// Convert expresses real in both unit systems at the current rate.
func (l *Ledger) Convert(real *uint256.Int) (Amounts, error) {
	r, err := l.Rate()
	if err != nil {
		return Amounts{}, err
	}
	return ConvertAt(real, r)
}

// ConvertAt expresses real in both unit systems at rate.
func ConvertAt(real, rate *uint256.Int) (Amounts, error) {
	var a Amounts
	a.Real.Set(real)
	if _, overflow := a.Reflected.MulOverflow(real, rate); overflow {
		return Amounts{}, ErrOverflow
	}
	return a, nil
}

// ToReal converts reflected units to real units, rounding down.
func (l *Ledger) ToReal(reflected *uint256.Int) (*uint256.Int, error) {
	r, err := l.Rate()
	if err != nil {
		return nil, err
	}
	return new(uint256.Int).Div(reflected, r), nil
}

// BalanceOf returns the real balance of addr.
func (l *Ledger) BalanceOf(addr types.Address) (*uint256.Int, error) {
	a, err := l.Account(addr)
	if err != nil {
		return nil, err
	}
	if a.Excluded {
		return new(uint256.Int).Set(&a.Real), nil
	}
	return l.ToReal(&a.Reflected)
}

// TotalSupply returns the real supply including minted rewards.
func (l *Ledger) TotalSupply() (*uint256.Int, error) {
	s, err := l.Supply()
	if err != nil {
		return nil, err
	}
	return new(uint256.Int).Set(&s.TotalReal), nil
}

// CreditReflected adds amt to addr. Excluded accounts receive real units
// and the reflected side leaves the included supply.
func (l *Ledger) CreditReflected(addr types.Address, amt Amounts) error {
	a, err := l.Account(addr)
	if err != nil {
		return err
	}
	if !a.Excluded {
		if _, overflow := a.Reflected.AddOverflow(&a.Reflected, &amt.Reflected); overflow {
			return ErrOverflow
		}
		return l.putAccount(a)
	}

	s, err := l.Supply()
	if err != nil {
		return err
	}
	if s.TotalReflected.Lt(&amt.Reflected) {
		return fmt.Errorf("credit excluded %s: %w", addr, ErrRateUnderflow)
	}
	s.TotalReflected.Sub(&s.TotalReflected, &amt.Reflected)
	s.ExcludedReal.Add(&s.ExcludedReal, &amt.Real)
	a.Real.Add(&a.Real, &amt.Real)
	if err := l.putSupply(s); err != nil {
		return err
	}
	return l.putAccount(a)
}

// DebitReflected removes amt from addr.
func (l *Ledger) DebitReflected(addr types.Address, amt Amounts) error {
	a, err := l.Account(addr)
	if err != nil {
		return err
	}
	if !a.Excluded {
		if a.Reflected.Lt(&amt.Reflected) {
			return ErrInsufficientBalance
		}
		a.Reflected.Sub(&a.Reflected, &amt.Reflected)
		return l.putAccount(a)
	}

	if a.Real.Lt(&amt.Real) {
		return ErrInsufficientBalance
	}
	s, err := l.Supply()
	if err != nil {
		return err
	}
	if _, overflow := s.TotalReflected.AddOverflow(&s.TotalReflected, &amt.Reflected); overflow {
		return ErrOverflow
	}
	s.ExcludedReal.Sub(&s.ExcludedReal, &amt.Real)
	a.Real.Sub(&a.Real, &amt.Real)
	if err := l.putSupply(s); err != nil {
		return err
	}
	return l.putAccount(a)
}

// ReduceReflectedSupply redistributes amt to all included holders by
// lowering the reflected supply. It never clamps.
func (l *Ledger) ReduceReflectedSupply(amt Amounts) error {
	s, err := l.Supply()
	if err != nil {
		return err
	}
	if s.TotalReflected.Lt(&amt.Reflected) {
		return ErrRateUnderflow
	}
	remaining := new(uint256.Int).Sub(&s.TotalReflected, &amt.Reflected)
	if remaining.Lt(s.IncludedReal()) {
		return ErrRateUnderflow
	}
	s.TotalReflected.Set(remaining)
	s.Redistributed.Add(&s.Redistributed, &amt.Real)
	return l.putSupply(s)
}

// Mint issues real new tokens to addr at the current rate, growing both
// supplies so existing holders keep their balances.
func (l *Ledger) Mint(addr types.Address, real *uint256.Int) (Amounts, error) {
	s, err := l.Supply()
	if err != nil {
		return Amounts{}, err
	}
	r, err := rateOf(s)
	if err != nil {
		return Amounts{}, err
	}
	amt, err := ConvertAt(real, r)
	if err != nil {
		return Amounts{}, err
	}
	a, err := l.Account(addr)
	if err != nil {
		return Amounts{}, err
	}

	if _, overflow := s.TotalReal.AddOverflow(&s.TotalReal, real); overflow {
		return Amounts{}, ErrOverflow
	}
	s.Minted.Add(&s.Minted, real)
	if a.Excluded {
		s.ExcludedReal.Add(&s.ExcludedReal, real)
		a.Real.Add(&a.Real, real)
	} else {
		if _, overflow := s.TotalReflected.AddOverflow(&s.TotalReflected, &amt.Reflected); overflow {
			return Amounts{}, ErrOverflow
		}
		a.Reflected.Add(&a.Reflected, &amt.Reflected)
	}

	if err := l.putSupply(s); err != nil {
		return Amounts{}, err
	}
	return amt, l.putAccount(a)
}

// Genesis creates the supply and credits all of it to owner.
func (l *Ledger) Genesis(owner types.Address, supply, factor *uint256.Int) error {
	exists, err := l.view.Exists(keylet.Supply())
	if err != nil {
		return err
	}
	if exists {
		return ErrAlreadyInitialized
	}
	if factor == nil || factor.IsZero() {
		factor = DefaultFactor
	}

	s := &entry.Supply{}
	s.TotalReal.Set(supply)
	s.InitialRate.Set(factor)
	if _, overflow := s.TotalReflected.MulOverflow(supply, factor); overflow {
		return ErrOverflow
	}
	if err := l.putSupply(s); err != nil {
		return err
	}

	a := &entry.AccountRoot{Address: owner}
	a.Reflected.Set(&s.TotalReflected)
	return l.putAccount(a)
}

// SetExcluded moves addr in or out of redistribution, keeping its real
// balance.
func (l *Ledger) SetExcluded(addr types.Address, excluded bool) error {
	a, err := l.Account(addr)
	if err != nil {
		return err
	}
	if a.Excluded == excluded {
		return l.putAccount(a)
	}
	s, err := l.Supply()
	if err != nil {
		return err
	}
	r, err := rateOf(s)
	if err != nil {
		return err
	}

	if excluded {
		real := new(uint256.Int).Div(&a.Reflected, r)
		s.TotalReflected.Sub(&s.TotalReflected, &a.Reflected)
		s.ExcludedReal.Add(&s.ExcludedReal, real)
		a.Real.Set(real)
		a.Reflected.Clear()
	} else {
		amt, err := ConvertAt(&a.Real, r)
		if err != nil {
			return err
		}
		if _, overflow := s.TotalReflected.AddOverflow(&s.TotalReflected, &amt.Reflected); overflow {
			return ErrOverflow
		}
		s.ExcludedReal.Sub(&s.ExcludedReal, &a.Real)
		a.Reflected.Set(&amt.Reflected)
		a.Real.Clear()
	}
	a.Excluded = excluded

	if err := l.putSupply(s); err != nil {
		return err
	}
	return l.putAccount(a)
}

// SetTaxExempt flags addr as exempt from transfer tax.
func (l *Ledger) SetTaxExempt(addr types.Address, exempt bool) error {
	a, err := l.Account(addr)
	if err != nil {
		return err
	}
	a.TaxExempt = exempt
	return l.putAccount(a)
}

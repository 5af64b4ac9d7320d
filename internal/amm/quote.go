// Package amm is a reference constant-product trading pair for the token
// and a quote asset (BUSD). It implements liquidity.Pool so the token can
// deposit its liquidity share, and a router that sells tokens through the
// pair while tolerating the transfer tax.
package amm

import (
	"errors"
	"fmt"
	"sync"

	"github.com/LeJamon/goFST/internal/core/types"
	"github.com/holiman/uint256"
)

var (
	// ErrInsufficientQuote is returned when a quote account cannot cover a
	// debit.
	ErrInsufficientQuote = errors.New("insufficient quote balance")
	// ErrQuoteOverflow is returned when a credit would overflow a balance.
	ErrQuoteOverflow = errors.New("quote balance overflows")
)

// QuoteLedger holds balances of the quote asset. It is a plain
// non-taxed ledger standing in for the BUSD token.
type QuoteLedger struct {
	mu       sync.RWMutex
	symbol   string
	balances map[types.Address]*uint256.Int
}

// NewQuoteLedger creates an empty quote ledger.
func NewQuoteLedger(symbol string) *QuoteLedger {
	return &QuoteLedger{
		symbol:   symbol,
		balances: make(map[types.Address]*uint256.Int),
	}
}

// Symbol returns the quote asset's ticker.
func (q *QuoteLedger) Symbol() string {
	return q.symbol
}

// Mint credits amt to addr.
func (q *QuoteLedger) Mint(addr types.Address, amt *uint256.Int) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	sum, err := q.credited(addr, amt)
	if err != nil {
		return err
	}
	q.balances[addr] = sum
	return nil
}

// BalanceOf returns addr's quote balance.
func (q *QuoteLedger) BalanceOf(addr types.Address) *uint256.Int {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if b, ok := q.balances[addr]; ok {
		return new(uint256.Int).Set(b)
	}
	return new(uint256.Int)
}

// Transfer moves amt between accounts. Neither balance changes when the
// transfer fails.
func (q *QuoteLedger) Transfer(from, to types.Address, amt *uint256.Int) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	b, ok := q.balances[from]
	if !ok || b.Lt(amt) {
		return fmt.Errorf("%w: %s", ErrInsufficientQuote, from)
	}
	if from == to {
		return nil
	}
	sum, err := q.credited(to, amt)
	if err != nil {
		return err
	}
	b.Sub(b, amt)
	q.balances[to] = sum
	return nil
}

// credited returns addr's balance plus amt without storing it.
func (q *QuoteLedger) credited(addr types.Address, amt *uint256.Int) (*uint256.Int, error) {
	sum := new(uint256.Int)
	if b, ok := q.balances[addr]; ok {
		sum.Set(b)
	}
	if _, overflow := sum.AddOverflow(sum, amt); overflow {
		return nil, fmt.Errorf("%w: %s", ErrQuoteOverflow, addr)
	}
	return sum, nil
}

package amm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/LeJamon/goFST/internal/core/amount"
	"github.com/LeJamon/goFST/internal/core/types"
	"github.com/holiman/uint256"
)

// Swap fee in basis points (0.3%).
const FeeBps = 30

var (
	ErrPaused                = errors.New("pair is paused")
	ErrInsufficientInput     = errors.New("insufficient input amount")
	ErrInsufficientOutput    = errors.New("insufficient output amount")
	ErrInsufficientLiquidity = errors.New("insufficient liquidity")
	ErrOverflow              = errors.New("pair arithmetic overflow")
)

// PairConfig holds optional pair settings.
type PairConfig struct {
	Logger *slog.Logger
}

// Pair is a token/quote constant-product pool.
//
// The token side is held by the pair's ledger account; tokenReserve is the
// part of that balance the pair has booked. Anything above the reserve is
// unbooked input for the next swap, which is how fee-on-transfer sells are
// measured.
type Pair struct {
	mu sync.Mutex

	address types.Address
	quote   *QuoteLedger
	logger  *slog.Logger

	tokenReserve uint256.Int
	quoteReserve uint256.Int

	// cumulative token liquidity booked through AddLiquidity
	liquidityAdded uint256.Int
	deposits       uint64

	paused bool
}

// NewPair creates an empty pair whose token side lives at address.
func NewPair(address types.Address, quote *QuoteLedger, cfg PairConfig) *Pair {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Pair{
		address: address,
		quote:   quote,
		logger:  cfg.Logger.With("component", "pair"),
	}
}

// Address returns the pair's token account.
func (p *Pair) Address() types.Address {
	return p.address
}

// Quote returns the quote ledger.
func (p *Pair) Quote() *QuoteLedger {
	return p.quote
}

// Reserves returns the booked token and quote reserves.
func (p *Pair) Reserves() (token, quote *uint256.Int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return new(uint256.Int).Set(&p.tokenReserve), new(uint256.Int).Set(&p.quoteReserve)
}

// LiquidityAdded returns the total token amount booked by deposits and
// how many deposits there were.
func (p *Pair) LiquidityAdded() (*uint256.Int, uint64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return new(uint256.Int).Set(&p.liquidityAdded), p.deposits
}

// Sync books the pair account's whole ledger balance as the token reserve.
// A node calls it at startup since reserves are not persisted.
func (p *Pair) Sync(tokenBalance *uint256.Int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.tokenReserve.Set(tokenBalance)
}

// SetPaused makes AddLiquidity fail while paused is true.
func (p *Pair) SetPaused(paused bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.paused = paused
}

// AddLiquidity books tokenAmount, already credited to the pair's account,
// into the token reserve.
func (p *Pair) AddLiquidity(ctx context.Context, tokenAmount *uint256.Int) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.paused {
		return ErrPaused
	}
	if tokenAmount == nil || tokenAmount.IsZero() {
		return ErrInsufficientInput
	}
	reserve, overflow := new(uint256.Int).AddOverflow(&p.tokenReserve, tokenAmount)
	if overflow {
		return ErrOverflow
	}
	p.tokenReserve.Set(reserve)
	p.liquidityAdded.Add(&p.liquidityAdded, tokenAmount)
	p.deposits++

	p.logger.Debug("liquidity booked",
		"amount", amount.Format(tokenAmount),
		"token_reserve", amount.Format(&p.tokenReserve),
	)
	return nil
}

// AddQuote moves amt of the quote asset from provider into the reserve.
func (p *Pair) AddQuote(provider types.Address, amt *uint256.Int) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.quote.Transfer(provider, p.address, amt); err != nil {
		return err
	}
	p.quoteReserve.Add(&p.quoteReserve, amt)
	return nil
}

// GetAmountOut returns the output for amountIn against the given reserves
// after the swap fee.
func GetAmountOut(amountIn, reserveIn, reserveOut *uint256.Int) (*uint256.Int, error) {
	if amountIn.IsZero() {
		return nil, ErrInsufficientInput
	}
	if reserveIn.IsZero() || reserveOut.IsZero() {
		return nil, ErrInsufficientLiquidity
	}

	withFee, overflow := new(uint256.Int).MulOverflow(amountIn, uint256.NewInt(10000-FeeBps))
	if overflow {
		return nil, ErrOverflow
	}
	num, overflow := new(uint256.Int).MulOverflow(withFee, reserveOut)
	if overflow {
		return nil, ErrOverflow
	}
	den, overflow := new(uint256.Int).MulOverflow(reserveIn, uint256.NewInt(10000))
	if overflow {
		return nil, ErrOverflow
	}
	if _, overflow = den.AddOverflow(den, withFee); overflow {
		return nil, ErrOverflow
	}
	return num.Div(num, den), nil
}

// swapTokensForQuote sells the unbooked part of tokenBalance and pays the
// quote output to `to`. It returns the input taken and the output paid.
func (p *Pair) swapTokensForQuote(tokenBalance *uint256.Int, to types.Address, minOut *uint256.Int) (in, out *uint256.Int, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !tokenBalance.Gt(&p.tokenReserve) {
		return nil, nil, ErrInsufficientInput
	}
	in = new(uint256.Int).Sub(tokenBalance, &p.tokenReserve)

	out, err = GetAmountOut(in, &p.tokenReserve, &p.quoteReserve)
	if err != nil {
		return nil, nil, err
	}
	if minOut != nil && out.Lt(minOut) {
		return nil, nil, fmt.Errorf("%w: %s < %s", ErrInsufficientOutput, amount.Format(out), amount.Format(minOut))
	}
	if err := p.quote.Transfer(p.address, to, out); err != nil {
		return nil, nil, err
	}

	p.tokenReserve.Set(tokenBalance)
	p.quoteReserve.Sub(&p.quoteReserve, out)
	return in, out, nil
}

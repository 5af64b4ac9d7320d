package amm

import (
	"context"
	"fmt"

	"github.com/LeJamon/goFST/internal/core/types"
	"github.com/holiman/uint256"
)

// Token is the token side of the pair as the router sees it.
type Token interface {
	BalanceOf(addr types.Address) (*uint256.Int, error)
	Transfer(ctx context.Context, from, to types.Address, amt *uint256.Int) error
}

// SwapResult describes a completed sell.
type SwapResult struct {
	// Sent is what the trader was debited.
	Sent *uint256.Int

	// Received is the growth of the pair's token balance, including any
	// liquidity deposited during the transfer.
	Received *uint256.Int

	// AmountIn is the unbooked input the pair priced the swap on.
	AmountIn *uint256.Int

	// AmountOut is the quote amount paid out.
	AmountOut *uint256.Int
}

// Router sells tokens through a pair.
type Router struct {
	token Token
	pair  *Pair
}

// NewRouter creates a router for pair.
func NewRouter(token Token, pair *Pair) *Router {
	return &Router{token: token, pair: pair}
}

// Pair returns the pair the router trades on.
func (r *Router) Pair() *Pair {
	return r.pair
}

// SwapExactTokensForQuoteSupportingFeeOnTransfer transfers amountIn from
// trader to the pair and pays the resulting quote output to `to`. The
// input is measured from the pair's balance, not from amountIn, so the
// transfer tax is honored. If pricing fails after the transfer, the
// tokens stay at the pair unbooked and count toward the next swap.
//
// The pair lock is not held across the token transfer: the transfer may
// call back into the pair to deposit liquidity.
func (r *Router) SwapExactTokensForQuoteSupportingFeeOnTransfer(ctx context.Context, trader, to types.Address, amountIn, amountOutMin *uint256.Int) (*SwapResult, error) {
	before, err := r.token.BalanceOf(r.pair.Address())
	if err != nil {
		return nil, fmt.Errorf("read pair balance: %w", err)
	}
	if err := r.token.Transfer(ctx, trader, r.pair.Address(), amountIn); err != nil {
		return nil, fmt.Errorf("transfer to pair: %w", err)
	}
	after, err := r.token.BalanceOf(r.pair.Address())
	if err != nil {
		return nil, fmt.Errorf("read pair balance: %w", err)
	}

	in, out, err := r.pair.swapTokensForQuote(after, to, amountOutMin)
	if err != nil {
		return nil, err
	}
	return &SwapResult{
		Sent:      new(uint256.Int).Set(amountIn),
		Received:  new(uint256.Int).Sub(after, before),
		AmountIn:  in,
		AmountOut: out,
	}, nil
}

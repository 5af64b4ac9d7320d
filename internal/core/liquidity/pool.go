// Package liquidity accumulates the liquidity share of transfer tax and
// deposits it into the trading pair.
package liquidity

import (
	"context"

	"github.com/holiman/uint256"
)

//go:generate mockgen -source=pool.go -destination=mock/mock_pool.go -package=mock

// Pool is the trading pair the token deposits into. Tokens have already
// been credited to the pair's account when AddLiquidity is called; the pool
// only books them against its reserves.
type Pool interface {
	AddLiquidity(ctx context.Context, tokenAmount *uint256.Int) error
}

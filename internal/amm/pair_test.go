package amm

import (
	"context"
	"testing"

	"github.com/LeJamon/goFST/internal/core/types"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetAmountOut(t *testing.T) {
	tests := []struct {
		name       string
		in         uint64
		reserveIn  uint64
		reserveOut uint64
		want       uint64
		wantErr    error
	}{
		{name: "balanced pool", in: 1000, reserveIn: 10000, reserveOut: 10000, want: 906},
		{name: "deep pool", in: 1, reserveIn: 1_000_000, reserveOut: 1_000_000, want: 0},
		{name: "zero input", in: 0, reserveIn: 10, reserveOut: 10, wantErr: ErrInsufficientInput},
		{name: "empty reserve", in: 10, reserveIn: 0, reserveOut: 10, wantErr: ErrInsufficientLiquidity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := GetAmountOut(uint256.NewInt(tt.in), uint256.NewInt(tt.reserveIn), uint256.NewInt(tt.reserveOut))
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, uint256.NewInt(tt.want), got)
		})
	}
}

func TestGetAmountOutOverflow(t *testing.T) {
	max := new(uint256.Int).SetAllOne()
	_, err := GetAmountOut(max, uint256.NewInt(1), uint256.NewInt(1))
	assert.ErrorIs(t, err, ErrOverflow)
}

func TestPairAddLiquidity(t *testing.T) {
	p := NewPair(types.AddressFromName("pair"), NewQuoteLedger("BUSD"), PairConfig{})

	require.NoError(t, p.AddLiquidity(context.Background(), uint256.NewInt(50)))
	require.NoError(t, p.AddLiquidity(context.Background(), uint256.NewInt(25)))

	token, quote := p.Reserves()
	assert.Equal(t, uint256.NewInt(75), token)
	assert.True(t, quote.IsZero())

	added, n := p.LiquidityAdded()
	assert.Equal(t, uint256.NewInt(75), added)
	assert.Equal(t, uint64(2), n)

	assert.ErrorIs(t, p.AddLiquidity(context.Background(), new(uint256.Int)), ErrInsufficientInput)

	p.SetPaused(true)
	assert.ErrorIs(t, p.AddLiquidity(context.Background(), uint256.NewInt(1)), ErrPaused)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	p.SetPaused(false)
	assert.ErrorIs(t, p.AddLiquidity(ctx, uint256.NewInt(1)), context.Canceled)
}

func TestPairSync(t *testing.T) {
	p := NewPair(types.AddressFromName("pair"), NewQuoteLedger("BUSD"), PairConfig{})
	require.NoError(t, p.AddLiquidity(context.Background(), uint256.NewInt(10)))

	p.Sync(uint256.NewInt(40))
	token, _ := p.Reserves()
	assert.Equal(t, uint256.NewInt(40), token)

	added, n := p.LiquidityAdded()
	assert.Equal(t, uint256.NewInt(10), added)
	assert.Equal(t, uint64(1), n)
}

func TestPairSwap(t *testing.T) {
	q := NewQuoteLedger("BUSD")
	p := NewPair(types.AddressFromName("pair"), q, PairConfig{})
	lp := types.AddressFromName("lp")
	trader := types.AddressFromName("trader")

	require.NoError(t, q.Mint(lp, uint256.NewInt(10000)))
	require.NoError(t, p.AddQuote(lp, uint256.NewInt(10000)))
	require.NoError(t, p.AddLiquidity(context.Background(), uint256.NewInt(10000)))

	// Nothing unbooked yet.
	_, _, err := p.swapTokensForQuote(uint256.NewInt(10000), trader, nil)
	require.ErrorIs(t, err, ErrInsufficientInput)

	_, _, err = p.swapTokensForQuote(uint256.NewInt(11000), trader, uint256.NewInt(907))
	require.ErrorIs(t, err, ErrInsufficientOutput)

	in, out, err := p.swapTokensForQuote(uint256.NewInt(11000), trader, uint256.NewInt(906))
	require.NoError(t, err)
	assert.Equal(t, uint256.NewInt(1000), in)
	assert.Equal(t, uint256.NewInt(906), out)
	assert.Equal(t, uint256.NewInt(906), q.BalanceOf(trader))

	token, quote := p.Reserves()
	assert.Equal(t, uint256.NewInt(11000), token)
	assert.Equal(t, uint256.NewInt(9094), quote)
}

func TestQuoteLedger(t *testing.T) {
	q := NewQuoteLedger("BUSD")
	a := types.AddressFromName("a")
	b := types.AddressFromName("b")

	assert.Equal(t, "BUSD", q.Symbol())
	require.NoError(t, q.Mint(a, uint256.NewInt(10)))
	require.NoError(t, q.Transfer(a, b, uint256.NewInt(4)))
	assert.Equal(t, uint256.NewInt(6), q.BalanceOf(a))
	assert.Equal(t, uint256.NewInt(4), q.BalanceOf(b))

	assert.ErrorIs(t, q.Transfer(b, a, uint256.NewInt(5)), ErrInsufficientQuote)
	assert.ErrorIs(t, q.Transfer(types.AddressFromName("nobody"), a, uint256.NewInt(1)), ErrInsufficientQuote)
	assert.Equal(t, uint256.NewInt(4), q.BalanceOf(b))

	require.NoError(t, q.Mint(a, new(uint256.Int).SetAllOne().Sub(new(uint256.Int).SetAllOne(), uint256.NewInt(6))))
	assert.ErrorIs(t, q.Mint(a, uint256.NewInt(1)), ErrQuoteOverflow)
}

func TestQuoteTransferOverflowLeavesBalances(t *testing.T) {
	q := NewQuoteLedger("BUSD")
	a := types.AddressFromName("a")
	b := types.AddressFromName("b")
	full := new(uint256.Int).SetAllOne()

	require.NoError(t, q.Mint(a, uint256.NewInt(10)))
	require.NoError(t, q.Mint(b, full))

	assert.ErrorIs(t, q.Transfer(a, b, uint256.NewInt(1)), ErrQuoteOverflow)
	assert.Equal(t, uint256.NewInt(10), q.BalanceOf(a))
	assert.Equal(t, full, q.BalanceOf(b))

	require.NoError(t, q.Transfer(a, a, uint256.NewInt(10)))
	assert.Equal(t, uint256.NewInt(10), q.BalanceOf(a))
}

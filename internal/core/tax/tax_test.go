package tax

import (
	"testing"

	"github.com/LeJamon/goFST/internal/core/amount"
	"github.com/LeJamon/goFST/internal/core/types"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	owner    = types.AddressFromName("owner")
	pair     = types.AddressFromName("pair")
	treasury = types.AddressFromName("treasury")
	alice    = types.AddressFromName("alice")
	bob      = types.AddressFromName("bob")
)

func TestCompute(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Exempt = []types.Address{treasury}
	p, err := NewPolicy(cfg, owner, pair)
	require.NoError(t, err)

	tests := []struct {
		name   string
		in     Input
		tax    string
		redist string
		liq    string
		net    string
		exempt bool
	}{
		{
			name: "owner sends untaxed",
			in:   Input{Sender: owner, Recipient: alice, Amount: amount.Whole(10_000)},
			tax:  "0", redist: "0", liq: "0", net: "10000", exempt: true,
		},
		{
			name: "configured exempt recipient",
			in:   Input{Sender: alice, Recipient: treasury, Amount: amount.Whole(100)},
			tax:  "0", redist: "0", liq: "0", net: "100", exempt: true,
		},
		{
			name: "flagged exempt sender",
			in:   Input{Sender: alice, Recipient: bob, SenderExempt: true, Amount: amount.Whole(100)},
			tax:  "0", redist: "0", liq: "0", net: "100", exempt: true,
		},
		{
			name: "wallet transfer redistributes base tax",
			in:   Input{Sender: alice, Recipient: bob, Amount: amount.Whole(10_000)},
			tax:  "500", redist: "500", liq: "0", net: "9500",
		},
		{
			name: "wallet transfer with stakers",
			in:   Input{Sender: alice, Recipient: bob, Amount: amount.Whole(10_000), StakersActive: true},
			tax:  "1000", redist: "1000", liq: "0", net: "9000",
		},
		{
			name: "sale sends base tax to liquidity",
			in:   Input{Sender: alice, Recipient: pair, Amount: amount.Whole(1_000)},
			tax:  "50", redist: "0", liq: "50", net: "950",
		},
		{
			name: "sale with stakers splits half and half",
			in:   Input{Sender: alice, Recipient: pair, Amount: amount.Whole(20_000), StakersActive: true},
			tax:  "2000", redist: "1000", liq: "1000", net: "18000",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := p.Compute(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.exempt, b.Exempt)
			assert.Equal(t, tt.tax, amount.Format(&b.Tax))
			assert.Equal(t, tt.redist, amount.Format(&b.Redistribution))
			assert.Equal(t, tt.liq, amount.Format(&b.Liquidity))
			assert.Equal(t, tt.net, amount.Format(&b.Net))

			sum := new(uint256.Int).Add(&b.Net, &b.Redistribution)
			sum.Add(sum, &b.Liquidity)
			assert.Equal(t, tt.in.Amount, sum)
		})
	}
}

func TestComputeRounding(t *testing.T) {
	p, err := NewPolicy(DefaultConfig(), owner, pair)
	require.NoError(t, err)

	b, err := p.Compute(Input{Sender: alice, Recipient: pair, Amount: uint256.NewInt(199), StakersActive: true})
	require.NoError(t, err)
	assert.Equal(t, uint64(18), b.Tax.Uint64())
	assert.Equal(t, uint64(181), b.Net.Uint64())
	assert.True(t, b.Sale)
}

func TestConfigValidate(t *testing.T) {
	cfg := DefaultConfig()
	cfg.BaseRateBps = 9_600
	_, err := NewPolicy(cfg, owner, pair)
	assert.ErrorIs(t, err, ErrInvalidConfig)

	cfg = DefaultConfig()
	cfg.SellLiquidityShareBps = 10_001
	assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
}

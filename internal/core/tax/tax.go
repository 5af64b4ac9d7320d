// Package tax computes the transfer tax and how it is split between
// redistribution and liquidity.
package tax

import (
	"errors"
	"fmt"

	"github.com/LeJamon/goFST/internal/core/amount"
	"github.com/LeJamon/goFST/internal/core/types"
	"github.com/holiman/uint256"
)

// ErrInvalidConfig is returned by Validate for out-of-range rates.
var ErrInvalidConfig = errors.New("invalid tax config")

// Config holds the tax rates in basis points.
type Config struct {
	// BaseRateBps applies to every taxed transfer.
	BaseRateBps uint64
	// StakerSurchargeBps is added while at least one stake is active and
	// always funds redistribution.
	StakerSurchargeBps uint64
	// SellLiquidityShareBps is the part of the base tax sent to liquidity
	// when the recipient is the pair.
	SellLiquidityShareBps uint64
	// TransferLiquidityShareBps is the same share for wallet transfers.
	TransferLiquidityShareBps uint64
	// Exempt lists extra addresses that neither pay nor trigger tax.
	Exempt []types.Address
}

// DefaultConfig returns 5% base tax, 5% staker surcharge, base tax to
// liquidity on sales and to holders otherwise.
func DefaultConfig() Config {
	return Config{
		BaseRateBps:               500,
		StakerSurchargeBps:        500,
		SellLiquidityShareBps:     amount.BpsBase,
		TransferLiquidityShareBps: 0,
	}
}

// IsZero reports whether c is the zero value.
func (c Config) IsZero() bool {
	return c.BaseRateBps == 0 && c.StakerSurchargeBps == 0 &&
		c.SellLiquidityShareBps == 0 && c.TransferLiquidityShareBps == 0 &&
		len(c.Exempt) == 0
}

// Validate checks rate bounds.
func (c Config) Validate() error {
	if c.BaseRateBps+c.StakerSurchargeBps > amount.BpsBase {
		return fmt.Errorf("%w: base + surcharge exceeds 100%%", ErrInvalidConfig)
	}
	if c.SellLiquidityShareBps > amount.BpsBase || c.TransferLiquidityShareBps > amount.BpsBase {
		return fmt.Errorf("%w: liquidity share exceeds 100%%", ErrInvalidConfig)
	}
	return nil
}

// Input describes one transfer.
type Input struct {
	Sender          types.Address
	Recipient       types.Address
	SenderExempt    bool
	RecipientExempt bool
	Amount          *uint256.Int
	StakersActive   bool
}

// Breakdown is the outcome of Compute. Net + Tax == Amount and
// Redistribution + Liquidity == Tax.
type Breakdown struct {
	Amount         uint256.Int
	Tax            uint256.Int
	Redistribution uint256.Int
	Liquidity      uint256.Int
	Net            uint256.Int
	Exempt         bool
	Sale           bool
}

// Policy applies a Config for a given owner and pair.
type Policy struct {
	cfg    Config
	owner  types.Address
	pair   types.Address
	exempt map[types.Address]struct{}
}

// NewPolicy creates a policy. The owner is always exempt.
func NewPolicy(cfg Config, owner, pair types.Address) (*Policy, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	p := &Policy{
		cfg:    cfg,
		owner:  owner,
		pair:   pair,
		exempt: make(map[types.Address]struct{}, len(cfg.Exempt)+1),
	}
	p.exempt[owner] = struct{}{}
	for _, a := range cfg.Exempt {
		p.exempt[a] = struct{}{}
	}
	return p, nil
}

// Config returns the rates in use.
func (p *Policy) Config() Config {
	return p.cfg
}

// IsExempt reports whether addr is exempt by configuration.
func (p *Policy) IsExempt(addr types.Address) bool {
	_, ok := p.exempt[addr]
	return ok
}

// Compute returns the tax breakdown for in.
func (p *Policy) Compute(in Input) (Breakdown, error) {
	if in.Amount == nil {
		return Breakdown{}, fmt.Errorf("%w: nil amount", ErrInvalidConfig)
	}
	var b Breakdown
	b.Amount.Set(in.Amount)
	b.Sale = in.Recipient == p.pair

	if in.Sender == p.owner || in.SenderExempt || in.RecipientExempt ||
		p.IsExempt(in.Sender) || p.IsExempt(in.Recipient) {
		b.Exempt = true
		b.Net.Set(in.Amount)
		return b, nil
	}

	base, err := amount.MulBps(in.Amount, p.cfg.BaseRateBps)
	if err != nil {
		return Breakdown{}, err
	}
	surcharge := new(uint256.Int)
	if in.StakersActive {
		if surcharge, err = amount.MulBps(in.Amount, p.cfg.StakerSurchargeBps); err != nil {
			return Breakdown{}, err
		}
	}

	share := p.cfg.TransferLiquidityShareBps
	if b.Sale {
		share = p.cfg.SellLiquidityShareBps
	}
	liquidity, err := amount.MulBps(base, share)
	if err != nil {
		return Breakdown{}, err
	}

	b.Tax.Add(base, surcharge)
	b.Liquidity.Set(liquidity)
	b.Redistribution.Sub(&b.Tax, liquidity)
	b.Net.Sub(in.Amount, &b.Tax)
	return b, nil
}

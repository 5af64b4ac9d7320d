package entry

import (
	"time"

	"github.com/LeJamon/goFST/internal/core/types"
	"github.com/holiman/uint256"
)

// AccountRoot holds one account's balance.
//
// Accounts that take part in redistribution keep their balance in
// Reflected; the real balance is derived from the supply rate. Excluded
// accounts (the pair and the contract itself) hold Real units directly and
// leave Reflected at zero.
type AccountRoot struct {
	Address   types.Address `codec:"address"`
	Reflected uint256.Int   `codec:"reflected"`
	Real      uint256.Int   `codec:"real"`
	Excluded  bool          `codec:"excluded"`
	TaxExempt bool          `codec:"tax_exempt"`
}

// Supply is the singleton tracking totals and the reflection rate.
//
// TotalReflected is the sum of Reflected over included accounts;
// TotalReal - ExcludedReal is the real supply those accounts hold.
type Supply struct {
	TotalReal      uint256.Int `codec:"total_real"`
	TotalReflected uint256.Int `codec:"total_reflected"`
	ExcludedReal   uint256.Int `codec:"excluded_real"`
	InitialRate    uint256.Int `codec:"initial_rate"`

	// Redistributed is the cumulative real tax handed to holders.
	Redistributed uint256.Int `codec:"redistributed"`

	// Minted is the cumulative real reward issued to stakers.
	Minted uint256.Int `codec:"minted"`
}

// IncludedReal returns the real supply held by accounts that share in
// redistribution.
func (s *Supply) IncludedReal() *uint256.Int {
	return new(uint256.Int).Sub(&s.TotalReal, &s.ExcludedReal)
}

// StakeDuration is the lock class chosen when staking.
type StakeDuration uint8

const (
	StakeThirtyDay    StakeDuration = 1
	StakeOneEightyDay StakeDuration = 2
)

// Period returns how long tokens stay locked.
func (d StakeDuration) Period() time.Duration {
	switch d {
	case StakeThirtyDay:
		return 30 * 24 * time.Hour
	case StakeOneEightyDay:
		return 180 * 24 * time.Hour
	default:
		return 0
	}
}

// Valid reports whether d is a known lock class.
func (d StakeDuration) Valid() bool {
	return d == StakeThirtyDay || d == StakeOneEightyDay
}

func (d StakeDuration) String() string {
	switch d {
	case StakeThirtyDay:
		return "30d"
	case StakeOneEightyDay:
		return "180d"
	default:
		return "unknown"
	}
}

// ParseStakeDuration maps a day count to a lock class.
func ParseStakeDuration(days int) (StakeDuration, bool) {
	switch days {
	case 30:
		return StakeThirtyDay, true
	case 180:
		return StakeOneEightyDay, true
	default:
		return 0, false
	}
}

// StakePosition is a holder's locked balance. At most one exists per holder.
type StakePosition struct {
	Owner      types.Address `codec:"owner"`
	Locked     uint256.Int   `codec:"locked"`
	Duration   StakeDuration `codec:"duration"`
	Start      int64         `codec:"start"`
	Unlock     int64         `codec:"unlock"`
	Multiplier uint64        `codec:"multiplier"`
}

// StartTime returns when the position was opened.
func (p *StakePosition) StartTime() time.Time {
	return time.Unix(p.Start, 0).UTC()
}

// UnlockTime returns when the position may be redeemed.
func (p *StakePosition) UnlockTime() time.Time {
	return time.Unix(p.Unlock, 0).UTC()
}

// Matured reports whether the lock has expired at now.
func (p *StakePosition) Matured(now time.Time) bool {
	return now.Unix() >= p.Unlock
}

// StakingSummary counts open positions system-wide.
type StakingSummary struct {
	Active      uint64      `codec:"active"`
	TotalLocked uint256.Int `codec:"total_locked"`
}

// LiquidityAccumulator tracks tokens earmarked for the pool that sit at the
// contract account until the next successful deposit.
type LiquidityAccumulator struct {
	Pending     uint256.Int `codec:"pending"`
	Deposited   uint256.Int `codec:"deposited"`
	Deposits    uint64      `codec:"deposits"`
	Failures    uint64      `codec:"failures"`
	LastDeposit int64       `codec:"last_deposit"`
}

// Allowance is the amount a spender may move on an owner's behalf.
type Allowance struct {
	Owner   types.Address `codec:"owner"`
	Spender types.Address `codec:"spender"`
	Amount  uint256.Int   `codec:"amount"`
}

// TokenInfo is the metadata written at genesis.
type TokenInfo struct {
	Name     string        `codec:"name"`
	Symbol   string        `codec:"symbol"`
	Decimals uint8         `codec:"decimals"`
	Owner    types.Address `codec:"owner"`
	Contract types.Address `codec:"contract"`
	Pair     types.Address `codec:"pair"`
	Genesis  int64         `codec:"genesis"`
}

// Package staking locks a holder's whole balance for a fixed period and
// mints a duration-scaled reward on redemption.
package staking

import (
	"errors"
	"fmt"
	"time"

	"github.com/LeJamon/goFST/internal/core/amount"
	"github.com/LeJamon/goFST/internal/core/ledger"
	"github.com/LeJamon/goFST/internal/core/ledger/entry"
	"github.com/LeJamon/goFST/internal/core/ledger/keylet"
	"github.com/LeJamon/goFST/internal/core/reflection"
	"github.com/LeJamon/goFST/internal/core/types"
	"github.com/holiman/uint256"
)

var (
	ErrStakeAlreadyActive = errors.New("stake already active")
	ErrStakeLocked        = errors.New("balance is locked by an active stake")
	ErrStakeNotMatured    = errors.New("stake has not matured")
	ErrNoStake            = errors.New("no active stake")
	ErrInvalidDuration    = errors.New("invalid stake duration")
	ErrInvalidConfig      = errors.New("invalid staking config")
)

// Config holds reward parameters.
type Config struct {
	// BaseRewardBps is the reward for a multiplier of 1.
	BaseRewardBps uint64
	// ThirtyDayMultiplier and OneEightyDayMultiplier scale the base reward.
	ThirtyDayMultiplier    uint64
	OneEightyDayMultiplier uint64
}

// DefaultConfig returns a 1% base reward, tripled for 180 days.
func DefaultConfig() Config {
	return Config{
		BaseRewardBps:          100,
		ThirtyDayMultiplier:    1,
		OneEightyDayMultiplier: 3,
	}
}

// Validate checks that multipliers are set.
func (c Config) Validate() error {
	if c.ThirtyDayMultiplier == 0 || c.OneEightyDayMultiplier == 0 {
		return fmt.Errorf("%w: multipliers must be positive", ErrInvalidConfig)
	}
	return nil
}

// Multiplier returns the reward multiplier for d.
func (c Config) Multiplier(d entry.StakeDuration) uint64 {
	switch d {
	case entry.StakeThirtyDay:
		return c.ThirtyDayMultiplier
	case entry.StakeOneEightyDay:
		return c.OneEightyDayMultiplier
	default:
		return 0
	}
}

// Redemption is the result of a successful Redeem.
type Redemption struct {
	Position entry.StakePosition
	Reward   uint256.Int
}

// Engine applies staking rules against a ledger view.
type Engine struct {
	cfg Config
}

// New creates a staking engine.
func New(cfg Config) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Engine{cfg: cfg}, nil
}

// Config returns the reward parameters.
func (e *Engine) Config() Config {
	return e.cfg
}

// Position returns holder's stake, or nil when there is none.
func (e *Engine) Position(view ledger.View, holder types.Address) (*entry.StakePosition, error) {
	return ledger.Get[entry.StakePosition](view, keylet.Stake(holder))
}

// Summary returns the system-wide staking summary.
func (e *Engine) Summary(view ledger.View) (*entry.StakingSummary, error) {
	s, err := ledger.Get[entry.StakingSummary](view, keylet.StakingSummary())
	if err != nil {
		return nil, err
	}
	if s == nil {
		s = &entry.StakingSummary{}
	}
	return s, nil
}

// ActiveStakes returns the number of open positions.
func (e *Engine) ActiveStakes(view ledger.View) (uint64, error) {
	s, err := e.Summary(view)
	if err != nil {
		return 0, err
	}
	return s.Active, nil
}

// CheckTransfer rejects transfers from any holder with a position,
// matured or not. Redemption releases the lock.
func (e *Engine) CheckTransfer(view ledger.View, sender types.Address) error {
	exists, err := view.Exists(keylet.Stake(sender))
	if err != nil {
		return err
	}
	if exists {
		return ErrStakeLocked
	}
	return nil
}

// Stake locks holder's entire current balance for d.
func (e *Engine) Stake(view ledger.View, holder types.Address, d entry.StakeDuration, now time.Time) (*entry.StakePosition, error) {
	if !d.Valid() {
		return nil, ErrInvalidDuration
	}
	k := keylet.Stake(holder)
	exists, err := view.Exists(k)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrStakeAlreadyActive
	}

	balance, err := reflection.New(view).BalanceOf(holder)
	if err != nil {
		return nil, err
	}
	if balance.IsZero() {
		return nil, reflection.ErrInsufficientBalance
	}

	p := &entry.StakePosition{
		Owner:      holder,
		Duration:   d,
		Start:      now.Unix(),
		Unlock:     now.Add(d.Period()).Unix(),
		Multiplier: e.cfg.Multiplier(d),
	}
	p.Locked.Set(balance)
	if err := ledger.Put(view, k, p); err != nil {
		return nil, err
	}

	s, err := e.Summary(view)
	if err != nil {
		return nil, err
	}
	s.Active++
	s.TotalLocked.Add(&s.TotalLocked, &p.Locked)
	if err := ledger.Put(view, keylet.StakingSummary(), s); err != nil {
		return nil, err
	}
	return p, nil
}

// Reward returns (Locked * BaseRewardBps / 10000) * Multiplier. The base
// reward is floored before scaling so rewards stay exact multiples of it.
func (e *Engine) Reward(p *entry.StakePosition) (*uint256.Int, error) {
	base, err := amount.MulBps(&p.Locked, e.cfg.BaseRewardBps)
	if err != nil {
		return nil, err
	}
	reward, overflow := new(uint256.Int).MulOverflow(base, uint256.NewInt(p.Multiplier))
	if overflow {
		return nil, amount.ErrOverflow
	}
	return reward, nil
}

// Redeem closes a matured position and mints the reward to holder.
func (e *Engine) Redeem(view ledger.View, holder types.Address, now time.Time) (*Redemption, error) {
	p, err := e.Position(view, holder)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, ErrNoStake
	}
	if !p.Matured(now) {
		return nil, ErrStakeNotMatured
	}

	reward, err := e.Reward(p)
	if err != nil {
		return nil, err
	}
	if !reward.IsZero() {
		if _, err := reflection.New(view).Mint(holder, reward); err != nil {
			return nil, err
		}
	}

	if err := view.Erase(keylet.Stake(holder)); err != nil {
		return nil, err
	}
	s, err := e.Summary(view)
	if err != nil {
		return nil, err
	}
	if s.Active > 0 {
		s.Active--
	}
	if s.TotalLocked.Lt(&p.Locked) {
		s.TotalLocked.Clear()
	} else {
		s.TotalLocked.Sub(&s.TotalLocked, &p.Locked)
	}
	if err := ledger.Put(view, keylet.StakingSummary(), s); err != nil {
		return nil, err
	}

	r := &Redemption{Position: *p}
	r.Reward.Set(reward)
	return r, nil
}

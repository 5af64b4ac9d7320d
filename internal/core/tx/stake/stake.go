// Package stake implements Stake and Redeem transactions.
package stake

import (
	"github.com/LeJamon/goFST/internal/core/amount"
	"github.com/LeJamon/goFST/internal/core/ledger/entry"
	"github.com/LeJamon/goFST/internal/core/tx"
	"github.com/LeJamon/goFST/internal/core/types"
)

func init() {
	tx.Register(tx.TypeStake, func() tx.Transaction {
		return &Stake{BaseTx: *tx.NewBaseTx(tx.TypeStake, types.ZeroAddress)}
	})
	tx.Register(tx.TypeRedeem, func() tx.Transaction {
		return &Redeem{BaseTx: *tx.NewBaseTx(tx.TypeRedeem, types.ZeroAddress)}
	})
}

// Stake locks the caller's entire balance for DurationDays (30 or 180).
type Stake struct {
	tx.BaseTx

	DurationDays int `json:"DurationDays"`
}

// NewStake creates a new Stake transaction
func NewStake(holder types.Address, d entry.StakeDuration) *Stake {
	s := &Stake{BaseTx: *tx.NewBaseTx(tx.TypeStake, holder)}
	switch d {
	case entry.StakeThirtyDay:
		s.DurationDays = 30
	case entry.StakeOneEightyDay:
		s.DurationDays = 180
	}
	return s
}

// Duration returns the lock class.
func (s *Stake) Duration() (entry.StakeDuration, bool) {
	return entry.ParseStakeDuration(s.DurationDays)
}

// Validate validates the Stake transaction
func (s *Stake) Validate() error {
	if err := s.BaseTx.Validate(); err != nil {
		return err
	}
	if _, ok := s.Duration(); !ok {
		return tx.TemBAD_DURATION
	}
	return nil
}

// Apply opens the position.
func (s *Stake) Apply(ctx *tx.ApplyContext) tx.Result {
	d, _ := s.Duration()
	p, err := ctx.Engine.Staking().Stake(ctx.View, ctx.Account, d, ctx.Now)
	if err != nil {
		return ctx.Fail(err)
	}

	unlock := p.UnlockTime()
	ctx.Emit(tx.Event{
		Type:     tx.EventStake,
		From:     ctx.Account,
		Amount:   amount.NewValue(&p.Locked),
		Duration: d.String(),
		Unlock:   &unlock,
	})
	return tx.TesSUCCESS
}

// Redeem closes the caller's matured position and mints the reward.
type Redeem struct {
	tx.BaseTx
}

// NewRedeem creates a new Redeem transaction
func NewRedeem(holder types.Address) *Redeem {
	return &Redeem{BaseTx: *tx.NewBaseTx(tx.TypeRedeem, holder)}
}

// Apply redeems the position.
func (r *Redeem) Apply(ctx *tx.ApplyContext) tx.Result {
	red, err := ctx.Engine.Staking().Redeem(ctx.View, ctx.Account, ctx.Now)
	if err != nil {
		return ctx.Fail(err)
	}

	reward := amount.NewValue(&red.Reward)
	ctx.Emit(tx.Event{
		Type:     tx.EventRedeem,
		To:       ctx.Account,
		Amount:   amount.NewValue(&red.Position.Locked),
		Duration: red.Position.Duration.String(),
		Reward:   &reward,
	})
	return tx.TesSUCCESS
}

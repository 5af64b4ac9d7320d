// Package token is the host-facing surface of the fee-sharing token. Each
// state-changing call is one transaction through the engine and either
// commits in full or returns an error and changes nothing.
package token

import (
	"context"
	"errors"

	"github.com/LeJamon/goFST/internal/core/amount"
	"github.com/LeJamon/goFST/internal/core/ledger"
	"github.com/LeJamon/goFST/internal/core/ledger/entry"
	"github.com/LeJamon/goFST/internal/core/ledger/keylet"
	"github.com/LeJamon/goFST/internal/core/reflection"
	"github.com/LeJamon/goFST/internal/core/tx"
	"github.com/LeJamon/goFST/internal/core/tx/amm"
	"github.com/LeJamon/goFST/internal/core/tx/payment"
	"github.com/LeJamon/goFST/internal/core/tx/stake"
	"github.com/LeJamon/goFST/internal/core/types"
	"github.com/holiman/uint256"
)

// Errors returned by Token methods. They are tx.Result values, so
// errors.Is works against either name.
var (
	ErrInsufficientBalance   error = tx.TecINSUFFICIENT_BALANCE
	ErrInsufficientAllowance error = tx.TecINSUFFICIENT_ALLOWANCE
	ErrStakeLocked           error = tx.TecSTAKE_LOCKED
	ErrStakeAlreadyActive    error = tx.TecSTAKE_ALREADY_ACTIVE
	ErrStakeNotMatured       error = tx.TecSTAKE_NOT_MATURED
	ErrNoStake               error = tx.TecNO_STAKE
	ErrNoPermission          error = tx.TecNO_PERMISSION
	ErrDepositFailed         error = tx.TecDEPOSIT_FAILED
	ErrRateUnderflow         error = tx.TefRATE_UNDERFLOW
	ErrAlreadyDeployed       error = tx.TefALREADY
	ErrNotDeployed           error = tx.TefNOT_DEPLOYED
	ErrBadAmount             error = tx.TemBAD_AMOUNT
)

// Options are the genesis parameters.
type Options struct {
	Name   string
	Symbol string

	// Supply in base units. Nil means tx.DefaultSupply whole tokens.
	Supply *uint256.Int

	// RateFactor is the initial reflected units per real unit. Nil uses
	// reflection.DefaultFactor.
	RateFactor *uint256.Int
}

// Token wraps an engine with the token's call surface.
type Token struct {
	engine *tx.Engine
}

// Deploy applies genesis on engine and returns the token. It fails with
// ErrAlreadyDeployed if the ledger already holds a token.
func Deploy(ctx context.Context, engine *tx.Engine, opts Options) (*Token, error) {
	if opts.Name == "" {
		opts.Name = tx.DefaultName
	}
	if opts.Symbol == "" {
		opts.Symbol = tx.DefaultSymbol
	}
	if opts.Supply == nil {
		opts.Supply = amount.Whole(tx.DefaultSupply)
	}

	g := tx.NewGenesis(engine.Config().Owner, opts.Name, opts.Symbol, opts.Supply)
	if opts.RateFactor != nil {
		g.RateFactor = opts.RateFactor.Dec()
	}
	if err := engine.Apply(ctx, g).Err(); err != nil {
		return nil, err
	}
	return &Token{engine: engine}, nil
}

// Open returns the token already deployed on engine's ledger.
func Open(engine *tx.Engine) (*Token, error) {
	t := &Token{engine: engine}
	if _, err := t.Info(); err != nil {
		return nil, err
	}
	return t, nil
}

// Engine returns the underlying transaction engine.
func (t *Token) Engine() *tx.Engine {
	return t.engine
}

// Submit applies an arbitrary transaction.
func (t *Token) Submit(ctx context.Context, txn tx.Transaction) tx.ApplyResult {
	return t.engine.Apply(ctx, txn)
}

// Info returns the genesis metadata.
func (t *Token) Info() (*entry.TokenInfo, error) {
	var info *entry.TokenInfo
	err := t.engine.Query(func(view ledger.View) error {
		var err error
		info, err = ledger.Get[entry.TokenInfo](view, keylet.TokenInfo())
		return err
	})
	if err != nil {
		return nil, err
	}
	if info == nil {
		return nil, ErrNotDeployed
	}
	return info, nil
}

// Name returns the token name.
func (t *Token) Name() (string, error) {
	info, err := t.Info()
	if err != nil {
		return "", err
	}
	return info.Name, nil
}

// Symbol returns the token symbol.
func (t *Token) Symbol() (string, error) {
	info, err := t.Info()
	if err != nil {
		return "", err
	}
	return info.Symbol, nil
}

// Decimals returns the number of decimal places of the token.
func (t *Token) Decimals() uint8 {
	return amount.Decimals
}

// BUSDPairAddress returns the trading pair's account.
func (t *Token) BUSDPairAddress() types.Address {
	return t.engine.Config().Pair
}

// TotalSupply returns the real supply in base units.
func (t *Token) TotalSupply() (*uint256.Int, error) {
	var total *uint256.Int
	err := t.engine.Query(func(view ledger.View) error {
		var err error
		total, err = reflection.New(view).TotalSupply()
		return err
	})
	return total, mapError(err)
}

// Supply returns the full supply entry.
func (t *Token) Supply() (*entry.Supply, error) {
	var s *entry.Supply
	err := t.engine.Query(func(view ledger.View) error {
		var err error
		s, err = reflection.New(view).Supply()
		return err
	})
	return s, mapError(err)
}

// BalanceOf returns addr's real balance in base units.
func (t *Token) BalanceOf(addr types.Address) (*uint256.Int, error) {
	var bal *uint256.Int
	err := t.engine.Query(func(view ledger.View) error {
		var err error
		bal, err = reflection.New(view).BalanceOf(addr)
		return err
	})
	return bal, mapError(err)
}

// Allowance returns what spender may move from owner.
func (t *Token) Allowance(owner, spender types.Address) (*uint256.Int, error) {
	var al *uint256.Int
	err := t.engine.Query(func(view ledger.View) error {
		var err error
		al, err = payment.AllowanceOf(view, owner, spender)
		return err
	})
	return al, err
}

// StakeOf returns holder's position, or nil if there is none.
func (t *Token) StakeOf(holder types.Address) (*entry.StakePosition, error) {
	var p *entry.StakePosition
	err := t.engine.Query(func(view ledger.View) error {
		var err error
		p, err = t.engine.Staking().Position(view, holder)
		return err
	})
	return p, err
}

// LiquidityPending returns the liquidity accumulator.
func (t *Token) LiquidityPending() (*entry.LiquidityAccumulator, error) {
	var acc *entry.LiquidityAccumulator
	err := t.engine.Query(func(view ledger.View) error {
		var err error
		acc, err = t.engine.Liquidity().Accumulator(view)
		return err
	})
	return acc, err
}

// Transfer moves amt from `from` to `to`, taxed unless either side is
// exempt.
func (t *Token) Transfer(ctx context.Context, from, to types.Address, amt *uint256.Int) error {
	return t.engine.Apply(ctx, payment.NewTransfer(from, to, amt)).Err()
}

// Approve sets spender's allowance over owner's tokens.
func (t *Token) Approve(ctx context.Context, owner, spender types.Address, amt *uint256.Int) error {
	return t.engine.Apply(ctx, payment.NewApprove(owner, spender, amt)).Err()
}

// TransferFrom moves amt from owner to `to` on spender's allowance.
func (t *Token) TransferFrom(ctx context.Context, spender, owner, to types.Address, amt *uint256.Int) error {
	return t.engine.Apply(ctx, payment.NewTransferFrom(spender, owner, to, amt)).Err()
}

// AddLiquidityForBUSDPair moves amt from the owner into the pair and
// deposits it. Only the owner may call it.
func (t *Token) AddLiquidityForBUSDPair(ctx context.Context, caller types.Address, amt *uint256.Int) error {
	return t.engine.Apply(ctx, amm.NewAddLiquidity(caller, amt)).Err()
}

// StakeFor30Days locks holder's whole balance for 30 days.
func (t *Token) StakeFor30Days(ctx context.Context, holder types.Address) error {
	return t.engine.Apply(ctx, stake.NewStake(holder, entry.StakeThirtyDay)).Err()
}

// StakeFor180Days locks holder's whole balance for 180 days.
func (t *Token) StakeFor180Days(ctx context.Context, holder types.Address) error {
	return t.engine.Apply(ctx, stake.NewStake(holder, entry.StakeOneEightyDay)).Err()
}

// RedeemStakedTokensAndRewards closes holder's matured position and
// returns the reward minted.
func (t *Token) RedeemStakedTokensAndRewards(ctx context.Context, holder types.Address) (*uint256.Int, error) {
	res := t.engine.Apply(ctx, stake.NewRedeem(holder))
	if err := res.Err(); err != nil {
		return nil, err
	}
	for _, ev := range res.Events {
		if ev.Type == tx.EventRedeem && ev.Reward != nil {
			return new(uint256.Int).Set(ev.Reward.Int()), nil
		}
	}
	return new(uint256.Int), nil
}

// FlushLiquidity deposits whatever liquidity is pending, regardless of
// the minimum deposit.
func (t *Token) FlushLiquidity(ctx context.Context, caller types.Address) error {
	return t.engine.Apply(ctx, tx.NewLiquidityFlush(caller)).Err()
}

func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, reflection.ErrNotInitialized) {
		return ErrNotDeployed
	}
	return err
}

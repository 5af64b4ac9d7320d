package tx

import (
	"fmt"
	"strings"

	"github.com/LeJamon/goFST/internal/core/amount"
	"github.com/LeJamon/goFST/internal/core/ledger"
	"github.com/LeJamon/goFST/internal/core/ledger/entry"
	"github.com/LeJamon/goFST/internal/core/ledger/keylet"
	"github.com/LeJamon/goFST/internal/core/types"
	"github.com/holiman/uint256"
)

func init() {
	Register(TypeGenesis, func() Transaction {
		return &Genesis{BaseTx: *NewBaseTx(TypeGenesis, types.ZeroAddress)}
	})
	Register(TypeLiquidityFlush, func() Transaction {
		return &LiquidityFlush{BaseTx: *NewBaseTx(TypeLiquidityFlush, types.ZeroAddress)}
	})
}

// DefaultSupply is the genesis supply in whole tokens.
const DefaultSupply = 100_000

// Genesis creates the token: supply, metadata and the special accounts.
// It can be applied once.
type Genesis struct {
	BaseTx

	Name   string       `json:"Name"`
	Symbol string       `json:"Symbol"`
	Supply amount.Value `json:"Supply"`

	// RateFactor is the initial reflected units per real unit, in base
	// units. Empty uses reflection.DefaultFactor.
	RateFactor string `json:"RateFactor,omitempty"`
}

// NewGenesis creates a Genesis pseudo-transaction signed by owner.
func NewGenesis(owner types.Address, name, symbol string, supply *uint256.Int) *Genesis {
	return &Genesis{
		BaseTx: *NewBaseTx(TypeGenesis, owner),
		Name:   name,
		Symbol: symbol,
		Supply: amount.NewValue(supply),
	}
}

// Validate validates the Genesis transaction
func (g *Genesis) Validate() error {
	if err := g.BaseTx.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(g.Name) == "" || strings.TrimSpace(g.Symbol) == "" {
		return fmt.Errorf("%w: name and symbol are required", TemMALFORMED)
	}
	if g.RateFactor != "" {
		if _, err := amount.ParseBaseUnits(g.RateFactor); err != nil {
			return fmt.Errorf("%w: rate factor: %v", TemMALFORMED, err)
		}
	}
	return RequirePositive(g.Supply.Int())
}

// Apply writes the supply and token metadata.
func (g *Genesis) Apply(ctx *ApplyContext) Result {
	if ctx.Account != ctx.Config.Owner {
		return TecNO_PERMISSION
	}
	exists, err := ctx.View.Exists(keylet.TokenInfo())
	if err != nil {
		return ctx.Fail(err)
	}
	if exists {
		return TefALREADY
	}

	var factor *uint256.Int
	if g.RateFactor != "" {
		if factor, err = amount.ParseBaseUnits(g.RateFactor); err != nil {
			return TemMALFORMED
		}
	}

	refl := ctx.Ledger()
	if err := refl.Genesis(ctx.Config.Owner, g.Supply.Int(), factor); err != nil {
		return ctx.Fail(err)
	}
	for _, addr := range []types.Address{ctx.Config.Pair, ctx.Config.Contract} {
		if err := refl.SetExcluded(addr, true); err != nil {
			return ctx.Fail(err)
		}
	}
	exempt := append([]types.Address{ctx.Config.Owner, ctx.Config.Contract}, ctx.Config.Tax.Exempt...)
	for _, addr := range exempt {
		if err := refl.SetTaxExempt(addr, true); err != nil {
			return ctx.Fail(err)
		}
	}

	info := &entry.TokenInfo{
		Name:     g.Name,
		Symbol:   g.Symbol,
		Decimals: amount.Decimals,
		Owner:    ctx.Config.Owner,
		Contract: ctx.Config.Contract,
		Pair:     ctx.Config.Pair,
		Genesis:  ctx.Now.Unix(),
	}
	if err := ledger.Put(ctx.View, keylet.TokenInfo(), info); err != nil {
		return ctx.Fail(err)
	}

	ctx.Emit(Event{Type: EventTransfer, To: ctx.Config.Owner, Amount: g.Supply})
	return TesSUCCESS
}

// LiquidityFlush deposits pending liquidity outside a transfer, ignoring
// the minimum deposit threshold. A pool failure is recorded, not returned.
type LiquidityFlush struct {
	BaseTx
}

// NewLiquidityFlush creates a flush requested by account.
func NewLiquidityFlush(account types.Address) *LiquidityFlush {
	return &LiquidityFlush{BaseTx: *NewBaseTx(TypeLiquidityFlush, account)}
}

// Apply runs the liquidity trigger.
func (f *LiquidityFlush) Apply(ctx *ApplyContext) Result {
	exists, err := ctx.View.Exists(keylet.TokenInfo())
	if err != nil {
		return ctx.Fail(err)
	}
	if !exists {
		return TefNOT_DEPLOYED
	}
	return ctx.depositLiquidity(true)
}

package tx

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/LeJamon/goFST/internal/core/amount"
	"github.com/LeJamon/goFST/internal/core/ledger"
	"github.com/LeJamon/goFST/internal/core/liquidity"
	"github.com/LeJamon/goFST/internal/core/reflection"
	"github.com/LeJamon/goFST/internal/core/staking"
	"github.com/LeJamon/goFST/internal/core/tax"
	"github.com/LeJamon/goFST/internal/core/types"
	"github.com/LeJamon/goFST/internal/observability"
	"github.com/google/uuid"
	"github.com/holiman/uint256"
	"github.com/jonboulle/clockwork"
)

// Default token metadata
const (
	DefaultName   = "Fee Sharing Token"
	DefaultSymbol = "FST"
)

// EngineConfig holds configuration for the transaction engine
type EngineConfig struct {
	// Owner is the privileged account that receives the genesis supply
	// and may seed liquidity.
	Owner types.Address

	// Contract is the token's own holding account for pending liquidity.
	Contract types.Address

	// Pair is the trading pair's account.
	Pair types.Address

	Tax       tax.Config
	Staking   staking.Config
	Liquidity liquidity.Config

	// Pool receives liquidity deposits. Nil disables deposits.
	Pool liquidity.Pool

	Clock   clockwork.Clock
	Logger  *slog.Logger
	Metrics *observability.Metrics
}

// Validate checks required fields and fills in defaults.
func (c *EngineConfig) Validate() error {
	if c.Owner.IsZero() {
		return errors.New("engine config: owner is required")
	}
	if c.Contract.IsZero() || c.Pair.IsZero() {
		return errors.New("engine config: contract and pair addresses are required")
	}
	if c.Owner == c.Contract || c.Owner == c.Pair || c.Contract == c.Pair {
		return errors.New("engine config: owner, contract and pair must differ")
	}
	if c.Tax.IsZero() {
		c.Tax = tax.DefaultConfig()
	}
	if c.Staking == (staking.Config{}) {
		c.Staking = staking.DefaultConfig()
	}
	if c.Clock == nil {
		c.Clock = clockwork.NewRealClock()
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	if c.Liquidity.Logger == nil {
		c.Liquidity.Logger = c.Logger
	}
	if c.Liquidity.Metrics == nil {
		c.Liquidity.Metrics = c.Metrics
	}
	return nil
}

// ApplyResult is the outcome of Engine.Apply.
type ApplyResult struct {
	ID       string
	Type     Type
	Result   Result
	Applied  bool
	Message  string
	Affected []ledger.AffectedEntry
	Events   []Event

	// cause is the component error behind a rejection, for logging.
	cause error
}

// Err returns the result as an error, nil on success.
func (r ApplyResult) Err() error {
	return r.Result.Err()
}

// Engine processes transactions against a ledger view. Every call is
// serialized; a transaction either commits in full or leaves no trace.
type Engine struct {
	mu sync.Mutex

	view      ledger.View
	config    EngineConfig
	tax       *tax.Policy
	staking   *staking.Engine
	liquidity *liquidity.Trigger
	hooks     []*Hooks
}

// NewEngine creates an engine over view.
func NewEngine(view ledger.View, config EngineConfig) (*Engine, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	policy, err := tax.NewPolicy(config.Tax, config.Owner, config.Pair)
	if err != nil {
		return nil, err
	}
	stakes, err := staking.New(config.Staking)
	if err != nil {
		return nil, err
	}
	return &Engine{
		view:      view,
		config:    config,
		tax:       policy,
		staking:   stakes,
		liquidity: liquidity.NewTrigger(config.Pool, config.Contract, config.Pair, config.Liquidity),
	}, nil
}

// Config returns the engine configuration.
func (e *Engine) Config() EngineConfig {
	return e.config
}

// Tax returns the tax policy.
func (e *Engine) Tax() *tax.Policy {
	return e.tax
}

// Staking returns the staking engine.
func (e *Engine) Staking() *staking.Engine {
	return e.staking
}

// Liquidity returns the liquidity trigger.
func (e *Engine) Liquidity() *liquidity.Trigger {
	return e.liquidity
}

// AddHooks registers subscribers for engine activity.
func (e *Engine) AddHooks(h *Hooks) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.hooks = append(e.hooks, h)
}

// Query runs fn against the committed state under the engine lock.
func (e *Engine) Query(fn func(view ledger.View) error) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return fn(e.view)
}

// Apply validates and applies t. A nil ctx is treated as
// context.Background.
func (e *Engine) Apply(ctx context.Context, t Transaction) ApplyResult {
	if ctx == nil {
		ctx = context.Background()
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	start := time.Now()
	common := t.GetCommon()
	common.ID = uuid.NewString()
	res := ApplyResult{ID: common.ID, Type: t.TxType()}

	res.Result = e.preflight(t)
	if res.Result.IsSuccess() {
		res.Result, res.Affected, res.Events, res.cause = e.doApply(ctx, t, common)
	}
	res.Applied = res.Result.IsSuccess()
	res.Message = res.Result.Message()

	e.logResult(t, res)
	e.config.Metrics.RecordTx(t.TxType().String(), res.Result.String(), time.Since(start))
	for _, h := range e.hooks {
		h.applied(res)
	}
	return res
}

// preflight checks that the transaction is well-formed.
func (e *Engine) preflight(t Transaction) Result {
	if err := t.Validate(); err != nil {
		var r Result
		if errors.As(err, &r) {
			return r
		}
		return TemMALFORMED
	}
	return TesSUCCESS
}

func (e *Engine) doApply(ctx context.Context, t Transaction, common *Common) (Result, []ledger.AffectedEntry, []Event, error) {
	appliable, ok := t.(Appliable)
	if !ok {
		return TemMALFORMED, nil, nil, nil
	}

	table := ledger.NewApplyStateTable(e.view)
	actx := &ApplyContext{
		Ctx:     ctx,
		View:    table,
		Account: common.Account,
		TxID:    common.ID,
		Now:     e.config.Clock.Now(),
		Config:  &e.config,
		Engine:  e,
	}

	result := appliable.Apply(actx)
	if !result.IsSuccess() {
		table.Discard()
		return result, nil, nil, actx.err
	}

	affected, err := table.Apply()
	if err != nil {
		return TefINTERNAL, nil, nil, fmt.Errorf("commit: %w", err)
	}
	e.recordCommitted(actx.events)
	return result, affected, actx.events, nil
}

func (e *Engine) logResult(t Transaction, res ApplyResult) {
	switch {
	case res.Applied:
		e.config.Logger.Debug("transaction applied",
			"type", t.TxType(),
			"id", res.ID,
			"account", t.GetCommon().Account,
			"entries", len(res.Affected),
		)
	case res.Result.IsTef():
		e.config.Logger.Error("transaction failed",
			"type", t.TxType(),
			"id", res.ID,
			"result", res.Result,
			"error", res.cause,
		)
	default:
		e.config.Logger.Debug("transaction rejected",
			"type", t.TxType(),
			"id", res.ID,
			"result", res.Result,
			"error", res.cause,
		)
	}
}

func (e *Engine) recordCommitted(events []Event) {
	if e.config.Metrics == nil {
		return
	}
	for _, ev := range events {
		switch {
		case ev.Type == EventTransfer && ev.Tax != nil:
			e.config.Metrics.RecordTax(ev.Redistribution.Int(), ev.Liquidity.Int())
		case ev.Type == EventRedeem && ev.Reward != nil:
			e.config.Metrics.RecordReward(ev.Reward.Int())
		}
	}
	if s, err := e.staking.Summary(e.view); err == nil {
		e.config.Metrics.SetActiveStakes(s.Active)
	}
	if acc, err := e.liquidity.Accumulator(e.view); err == nil {
		e.config.Metrics.SetLiquidityPending(&acc.Pending)
	}
	if s, err := reflection.New(e.view).Supply(); err == nil {
		e.config.Metrics.SetTotalSupply(&s.TotalReal)
	}
}

// RequirePositive returns temBAD_AMOUNT for nil or zero amounts.
func RequirePositive(v *uint256.Int) error {
	if v == nil || v.IsZero() {
		return fmt.Errorf("%w: %s", TemBAD_AMOUNT, amount.Format(v))
	}
	return nil
}

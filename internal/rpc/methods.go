package rpc

import (
	"encoding/json"
	"errors"

	"github.com/LeJamon/goFST/internal/core/amount"
	"github.com/LeJamon/goFST/internal/core/ledger/entry"
	"github.com/LeJamon/goFST/internal/core/tx"
	"github.com/LeJamon/goFST/internal/core/tx/amm"
	"github.com/LeJamon/goFST/internal/core/tx/payment"
	"github.com/LeJamon/goFST/internal/core/tx/stake"
	"github.com/LeJamon/goFST/internal/core/types"
	"github.com/LeJamon/goFST/internal/storage/eventlog"
)

// registerAllMethods registers every RPC method.
func (s *Server) registerAllMethods() {
	// Queries
	s.registry.Register("token_info", HandlerFunc(s.tokenInfo))
	s.registry.Register("balance_of", HandlerFunc(s.balanceOf))
	s.registry.Register("allowance", HandlerFunc(s.allowance))
	s.registry.Register("pair_address", HandlerFunc(s.pairAddress))
	s.registry.Register("stake_of", HandlerFunc(s.stakeOf))
	s.registry.Register("liquidity_pending", HandlerFunc(s.liquidityPending))
	s.registry.Register("events", HandlerFunc(s.queryEvents))

	// Transactions
	s.registry.Register("transfer", HandlerFunc(s.transfer))
	s.registry.Register("approve", HandlerFunc(s.approve))
	s.registry.Register("transfer_from", HandlerFunc(s.transferFrom))
	s.registry.Register("add_liquidity", HandlerFunc(s.addLiquidity))
	s.registry.Register("stake", HandlerFunc(s.stake))
	s.registry.Register("redeem", HandlerFunc(s.redeem))
	s.registry.Register("liquidity_flush", HandlerFunc(s.liquidityFlush))
	s.registry.Register("submit", HandlerFunc(s.submit))
}

type accountParams struct {
	Account types.Address `json:"account"`
}

type allowanceParams struct {
	Owner   types.Address `json:"owner"`
	Spender types.Address `json:"spender"`
}

type transferParams struct {
	From   types.Address `json:"from"`
	To     types.Address `json:"to"`
	Amount *amount.Value `json:"amount"`
}

type approveParams struct {
	Owner   types.Address `json:"owner"`
	Spender types.Address `json:"spender"`
	Amount  *amount.Value `json:"amount"`
}

type transferFromParams struct {
	Spender types.Address `json:"spender"`
	Owner   types.Address `json:"owner"`
	To      types.Address `json:"to"`
	Amount  *amount.Value `json:"amount"`
}

type amountParams struct {
	Account types.Address `json:"account"`
	Amount  *amount.Value `json:"amount"`
}

type stakeParams struct {
	Account types.Address `json:"account"`
	Days    int           `json:"days"`
}

type eventsParams struct {
	Type    tx.EventType  `json:"type"`
	Account types.Address `json:"account"`
	TxID    string        `json:"tx_id"`
	AfterID int64         `json:"after_id"`
	Limit   int           `json:"limit"`
}

type submitParams struct {
	TxJSON json.RawMessage `json:"tx_json"`
}

func requireAddress(field string, a types.Address) *Error {
	if a.IsZero() {
		return ErrorMissingField(field)
	}
	return nil
}

func requireAmount(v *amount.Value) *Error {
	if v == nil {
		return ErrorMissingField("amount")
	}
	return nil
}

func firstError(errs ...*Error) *Error {
	for _, e := range errs {
		if e != nil {
			return e
		}
	}
	return nil
}

func (s *Server) tokenInfo(_ *Context, _ json.RawMessage) (any, *Error) {
	info, err := s.token.Info()
	if err != nil {
		return nil, ErrorFrom(err)
	}
	supply, err := s.token.Supply()
	if err != nil {
		return nil, ErrorFrom(err)
	}
	return map[string]any{
		"name":          info.Name,
		"symbol":        info.Symbol,
		"decimals":      info.Decimals,
		"owner":         info.Owner,
		"contract":      info.Contract,
		"pair":          info.Pair,
		"total_supply":  amount.NewValue(&supply.TotalReal),
		"redistributed": amount.NewValue(&supply.Redistributed),
		"minted":        amount.NewValue(&supply.Minted),
	}, nil
}

func (s *Server) balanceOf(_ *Context, params json.RawMessage) (any, *Error) {
	var p accountParams
	if e := firstError(decodeParams(params, &p), requireAddress("account", p.Account)); e != nil {
		return nil, e
	}
	bal, err := s.token.BalanceOf(p.Account)
	if err != nil {
		return nil, ErrorFrom(err)
	}
	return map[string]any{"account": p.Account, "balance": amount.NewValue(bal)}, nil
}

func (s *Server) allowance(_ *Context, params json.RawMessage) (any, *Error) {
	var p allowanceParams
	if e := firstError(decodeParams(params, &p),
		requireAddress("owner", p.Owner), requireAddress("spender", p.Spender)); e != nil {
		return nil, e
	}
	v, err := s.token.Allowance(p.Owner, p.Spender)
	if err != nil {
		return nil, ErrorFrom(err)
	}
	return map[string]any{"owner": p.Owner, "spender": p.Spender, "allowance": amount.NewValue(v)}, nil
}

func (s *Server) pairAddress(_ *Context, _ json.RawMessage) (any, *Error) {
	return map[string]any{"pair": s.token.BUSDPairAddress()}, nil
}

func (s *Server) stakeOf(_ *Context, params json.RawMessage) (any, *Error) {
	var p accountParams
	if e := firstError(decodeParams(params, &p), requireAddress("account", p.Account)); e != nil {
		return nil, e
	}
	pos, err := s.token.StakeOf(p.Account)
	if err != nil {
		return nil, ErrorFrom(err)
	}
	if pos == nil {
		return map[string]any{"account": p.Account, "staked": false}, nil
	}
	return map[string]any{
		"account":    p.Account,
		"staked":     true,
		"locked":     amount.NewValue(&pos.Locked),
		"duration":   pos.Duration.String(),
		"multiplier": pos.Multiplier,
		"start":      pos.StartTime(),
		"unlock":     pos.UnlockTime(),
		"matured":    pos.Matured(s.token.Engine().Config().Clock.Now()),
	}, nil
}

func (s *Server) liquidityPending(_ *Context, _ json.RawMessage) (any, *Error) {
	acc, err := s.token.LiquidityPending()
	if err != nil {
		return nil, ErrorFrom(err)
	}
	return map[string]any{
		"pending":   amount.NewValue(&acc.Pending),
		"deposited": amount.NewValue(&acc.Deposited),
		"deposits":  acc.Deposits,
		"failures":  acc.Failures,
	}, nil
}

func (s *Server) queryEvents(ctx *Context, params json.RawMessage) (any, *Error) {
	if s.events == nil {
		return nil, ErrorNotSupported("event log is disabled")
	}
	var p eventsParams
	if e := decodeParams(params, &p); e != nil {
		return nil, e
	}
	records, err := s.events.Query(ctx.Context, eventlog.Filter{
		Type:    p.Type,
		Account: p.Account,
		TxID:    p.TxID,
		AfterID: p.AfterID,
		Limit:   p.Limit,
	})
	if err != nil {
		return nil, ErrorInternal(err.Error())
	}
	if records == nil {
		records = []eventlog.Record{}
	}
	return map[string]any{"events": records}, nil
}

// apply submits txn and converts its result.
func (s *Server) apply(ctx *Context, txn tx.Transaction) (map[string]any, *Error) {
	res := s.token.Submit(ctx.Context, txn)
	if !res.Applied {
		return nil, ErrorFromResult(res.Result)
	}
	events := res.Events
	if events == nil {
		events = []tx.Event{}
	}
	return map[string]any{
		"tx_id":         res.ID,
		"engine_result": res.Result.String(),
		"events":        events,
	}, nil
}

func (s *Server) transfer(ctx *Context, params json.RawMessage) (any, *Error) {
	var p transferParams
	if e := firstError(decodeParams(params, &p),
		requireAddress("from", p.From), requireAddress("to", p.To), requireAmount(p.Amount)); e != nil {
		return nil, e
	}
	return s.apply(ctx, payment.NewTransfer(p.From, p.To, p.Amount.Int()))
}

func (s *Server) approve(ctx *Context, params json.RawMessage) (any, *Error) {
	var p approveParams
	if e := firstError(decodeParams(params, &p),
		requireAddress("owner", p.Owner), requireAddress("spender", p.Spender), requireAmount(p.Amount)); e != nil {
		return nil, e
	}
	return s.apply(ctx, payment.NewApprove(p.Owner, p.Spender, p.Amount.Int()))
}

func (s *Server) transferFrom(ctx *Context, params json.RawMessage) (any, *Error) {
	var p transferFromParams
	if e := firstError(decodeParams(params, &p),
		requireAddress("spender", p.Spender), requireAddress("owner", p.Owner),
		requireAddress("to", p.To), requireAmount(p.Amount)); e != nil {
		return nil, e
	}
	return s.apply(ctx, payment.NewTransferFrom(p.Spender, p.Owner, p.To, p.Amount.Int()))
}

func (s *Server) addLiquidity(ctx *Context, params json.RawMessage) (any, *Error) {
	var p amountParams
	if e := firstError(decodeParams(params, &p),
		requireAddress("account", p.Account), requireAmount(p.Amount)); e != nil {
		return nil, e
	}
	return s.apply(ctx, amm.NewAddLiquidity(p.Account, p.Amount.Int()))
}

func (s *Server) stake(ctx *Context, params json.RawMessage) (any, *Error) {
	var p stakeParams
	if e := firstError(decodeParams(params, &p), requireAddress("account", p.Account)); e != nil {
		return nil, e
	}
	d, ok := entry.ParseStakeDuration(p.Days)
	if !ok {
		return nil, ErrorInvalidParams("days must be 30 or 180")
	}
	return s.apply(ctx, stake.NewStake(p.Account, d))
}

func (s *Server) redeem(ctx *Context, params json.RawMessage) (any, *Error) {
	var p accountParams
	if e := firstError(decodeParams(params, &p), requireAddress("account", p.Account)); e != nil {
		return nil, e
	}
	out, rpcErr := s.apply(ctx, stake.NewRedeem(p.Account))
	if rpcErr != nil {
		return nil, rpcErr
	}
	for _, ev := range out["events"].([]tx.Event) {
		if ev.Type == tx.EventRedeem && ev.Reward != nil {
			out["reward"] = *ev.Reward
		}
	}
	return out, nil
}

func (s *Server) liquidityFlush(ctx *Context, params json.RawMessage) (any, *Error) {
	var p accountParams
	if e := firstError(decodeParams(params, &p), requireAddress("account", p.Account)); e != nil {
		return nil, e
	}
	return s.apply(ctx, tx.NewLiquidityFlush(p.Account))
}

// submit applies a transaction given in its JSON form.
func (s *Server) submit(ctx *Context, params json.RawMessage) (any, *Error) {
	var p submitParams
	if e := decodeParams(params, &p); e != nil {
		return nil, e
	}
	if len(p.TxJSON) == 0 {
		return nil, ErrorMissingField("tx_json")
	}
	txn, err := tx.FromJSON(p.TxJSON)
	if err != nil {
		var r tx.Result
		if errors.As(err, &r) {
			return nil, ErrorFromResult(r)
		}
		return nil, ErrorInvalidParams(err.Error())
	}
	return s.apply(ctx, txn)
}

package grpc

import (
	"context"
	"errors"
	"time"

	"github.com/LeJamon/goFST/internal/core/amount"
	"github.com/LeJamon/goFST/internal/core/types"
	"github.com/LeJamon/goFST/internal/token"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// TokenInfoRequest requests the token metadata and supply counters.
type TokenInfoRequest struct{}

// TokenInfoResponse carries the token metadata and supply counters.
type TokenInfoResponse struct {
	Name          string        `json:"name"`
	Symbol        string        `json:"symbol"`
	Decimals      uint8         `json:"decimals"`
	Owner         types.Address `json:"owner"`
	Contract      types.Address `json:"contract"`
	Pair          types.Address `json:"pair"`
	TotalSupply   amount.Value  `json:"total_supply"`
	Redistributed amount.Value  `json:"redistributed"`
	Minted        amount.Value  `json:"minted"`
}

// AccountRequest names one account.
type AccountRequest struct {
	Account types.Address `json:"account"`
}

// BalanceResponse is an account's real balance.
type BalanceResponse struct {
	Account types.Address `json:"account"`
	Balance amount.Value  `json:"balance"`
}

// AllowanceRequest names an owner and a spender.
type AllowanceRequest struct {
	Owner   types.Address `json:"owner"`
	Spender types.Address `json:"spender"`
}

// AllowanceResponse is the amount spender may move from owner.
type AllowanceResponse struct {
	Owner     types.Address `json:"owner"`
	Spender   types.Address `json:"spender"`
	Allowance amount.Value  `json:"allowance"`
}

// PairAddressRequest requests the trading pair's address.
type PairAddressRequest struct{}

// PairAddressResponse carries the trading pair's address.
type PairAddressResponse struct {
	Pair types.Address `json:"pair"`
}

// StakeResponse describes an account's stake. Only Account and Staked are
// set when there is none.
type StakeResponse struct {
	Account    types.Address `json:"account"`
	Staked     bool          `json:"staked"`
	Locked     amount.Value  `json:"locked"`
	Duration   string        `json:"duration,omitempty"`
	Multiplier uint64        `json:"multiplier,omitempty"`
	Unlock     time.Time     `json:"unlock"`
	Matured    bool          `json:"matured"`
}

// TokenInfo returns the token metadata.
func (s *Server) TokenInfo(ctx context.Context, req *TokenInfoRequest) (*TokenInfoResponse, error) {
	info, err := s.token.Info()
	if err != nil {
		return nil, statusFrom(err)
	}
	supply, err := s.token.Supply()
	if err != nil {
		return nil, statusFrom(err)
	}
	return &TokenInfoResponse{
		Name:          info.Name,
		Symbol:        info.Symbol,
		Decimals:      info.Decimals,
		Owner:         info.Owner,
		Contract:      info.Contract,
		Pair:          info.Pair,
		TotalSupply:   amount.NewValue(&supply.TotalReal),
		Redistributed: amount.NewValue(&supply.Redistributed),
		Minted:        amount.NewValue(&supply.Minted),
	}, nil
}

// BalanceOf returns an account's balance.
func (s *Server) BalanceOf(ctx context.Context, req *AccountRequest) (*BalanceResponse, error) {
	if req.Account.IsZero() {
		return nil, status.Error(codes.InvalidArgument, "account is required")
	}
	bal, err := s.token.BalanceOf(req.Account)
	if err != nil {
		return nil, statusFrom(err)
	}
	return &BalanceResponse{Account: req.Account, Balance: amount.NewValue(bal)}, nil
}

// Allowance returns the approved amount for a spender.
func (s *Server) Allowance(ctx context.Context, req *AllowanceRequest) (*AllowanceResponse, error) {
	if req.Owner.IsZero() || req.Spender.IsZero() {
		return nil, status.Error(codes.InvalidArgument, "owner and spender are required")
	}
	v, err := s.token.Allowance(req.Owner, req.Spender)
	if err != nil {
		return nil, statusFrom(err)
	}
	return &AllowanceResponse{Owner: req.Owner, Spender: req.Spender, Allowance: amount.NewValue(v)}, nil
}

// PairAddress returns the trading pair's address.
func (s *Server) PairAddress(ctx context.Context, req *PairAddressRequest) (*PairAddressResponse, error) {
	return &PairAddressResponse{Pair: s.token.BUSDPairAddress()}, nil
}

// StakeOf returns an account's stake.
func (s *Server) StakeOf(ctx context.Context, req *AccountRequest) (*StakeResponse, error) {
	if req.Account.IsZero() {
		return nil, status.Error(codes.InvalidArgument, "account is required")
	}
	pos, err := s.token.StakeOf(req.Account)
	if err != nil {
		return nil, statusFrom(err)
	}
	resp := &StakeResponse{Account: req.Account}
	if pos == nil {
		return resp, nil
	}
	resp.Staked = true
	resp.Locked = amount.NewValue(&pos.Locked)
	resp.Duration = pos.Duration.String()
	resp.Multiplier = pos.Multiplier
	resp.Unlock = pos.UnlockTime()
	resp.Matured = pos.Matured(s.clock.Now())
	return resp, nil
}

// statusFrom maps a token error to a gRPC status.
func statusFrom(err error) error {
	switch {
	case errors.Is(err, token.ErrNotDeployed):
		return status.Error(codes.FailedPrecondition, err.Error())
	default:
		return status.Error(codes.Internal, err.Error())
	}
}

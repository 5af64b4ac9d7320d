package grpc

import (
	"context"

	"github.com/LeJamon/goFST/internal/core/types"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

// Dial opens a plaintext connection to a token node.
func Dial(target string) (*grpc.ClientConn, error) {
	return grpc.NewClient(target, grpc.WithTransportCredentials(insecure.NewCredentials()))
}

// Client calls the token service over conn.
type Client struct {
	conn grpc.ClientConnInterface
}

// NewClient creates a client over conn.
func NewClient(conn grpc.ClientConnInterface) *Client {
	return &Client{conn: conn}
}

func (c *Client) invoke(ctx context.Context, method string, req, resp any) error {
	return c.conn.Invoke(ctx, fullMethod(method), req, resp, grpc.CallContentSubtype(codecName))
}

// TokenInfo returns the token metadata.
func (c *Client) TokenInfo(ctx context.Context) (*TokenInfoResponse, error) {
	resp := new(TokenInfoResponse)
	if err := c.invoke(ctx, MethodTokenInfo, &TokenInfoRequest{}, resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// BalanceOf returns addr's balance.
func (c *Client) BalanceOf(ctx context.Context, addr types.Address) (*BalanceResponse, error) {
	resp := new(BalanceResponse)
	if err := c.invoke(ctx, MethodBalanceOf, &AccountRequest{Account: addr}, resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// Allowance returns what spender may move from owner.
func (c *Client) Allowance(ctx context.Context, owner, spender types.Address) (*AllowanceResponse, error) {
	resp := new(AllowanceResponse)
	if err := c.invoke(ctx, MethodAllowance, &AllowanceRequest{Owner: owner, Spender: spender}, resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// PairAddress returns the trading pair's address.
func (c *Client) PairAddress(ctx context.Context) (types.Address, error) {
	resp := new(PairAddressResponse)
	if err := c.invoke(ctx, MethodPairAddress, &PairAddressRequest{}, resp); err != nil {
		return types.Address{}, err
	}
	return resp.Pair, nil
}

// StakeOf returns addr's stake.
func (c *Client) StakeOf(ctx context.Context, addr types.Address) (*StakeResponse, error) {
	resp := new(StakeResponse)
	if err := c.invoke(ctx, MethodStakeOf, &AccountRequest{Account: addr}, resp); err != nil {
		return nil, err
	}
	return resp, nil
}

package grpc

import (
	"context"

	"google.golang.org/grpc"
)

// ServiceName is the gRPC service name of the token queries.
const ServiceName = "fst.v1.Token"

// Method names
const (
	MethodTokenInfo   = "TokenInfo"
	MethodBalanceOf   = "BalanceOf"
	MethodAllowance   = "Allowance"
	MethodPairAddress = "PairAddress"
	MethodStakeOf     = "StakeOf"
)

// TokenServer is the server side of the token service.
type TokenServer interface {
	TokenInfo(context.Context, *TokenInfoRequest) (*TokenInfoResponse, error)
	BalanceOf(context.Context, *AccountRequest) (*BalanceResponse, error)
	Allowance(context.Context, *AllowanceRequest) (*AllowanceResponse, error)
	PairAddress(context.Context, *PairAddressRequest) (*PairAddressResponse, error)
	StakeOf(context.Context, *AccountRequest) (*StakeResponse, error)
}

// tokenServiceDesc describes the token service to grpc.Server.
var tokenServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*TokenServer)(nil),
	Methods: []grpc.MethodDesc{
		unary(MethodTokenInfo, TokenServer.TokenInfo),
		unary(MethodBalanceOf, TokenServer.BalanceOf),
		unary(MethodAllowance, TokenServer.Allowance),
		unary(MethodPairAddress, TokenServer.PairAddress),
		unary(MethodStakeOf, TokenServer.StakeOf),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "fst/v1/token",
}

// fullMethod returns the wire name of method.
func fullMethod(method string) string {
	return "/" + ServiceName + "/" + method
}

// unary builds the method descriptor that decodes a Req and dispatches it
// through the server's interceptor.
func unary[Req, Resp any](method string, call func(TokenServer, context.Context, *Req) (*Resp, error)) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: method,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(TokenServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{
				Server:     srv,
				FullMethod: fullMethod(method),
			}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(srv.(TokenServer), ctx, req.(*Req))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

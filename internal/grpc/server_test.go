package grpc_test

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/LeJamon/goFST/internal/core/ledger/entry"
	"github.com/LeJamon/goFST/internal/core/types"
	fstgrpc "github.com/LeJamon/goFST/internal/grpc"
	"github.com/LeJamon/goFST/internal/logger"
	jtx "github.com/LeJamon/goFST/internal/testing"
	"github.com/LeJamon/goFST/internal/token"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
)

// startServer serves svc on a loopback port and returns a connected client.
func startServer(t *testing.T, svc fstgrpc.TokenService, opts ...fstgrpc.ServerOption) (*fstgrpc.Client, healthpb.HealthClient) {
	t.Helper()
	cfg := fstgrpc.DefaultServerConfig()
	cfg.Address = "127.0.0.1:0"
	opts = append([]fstgrpc.ServerOption{fstgrpc.WithLogger(logger.Discard())}, opts...)
	srv, err := fstgrpc.NewServer(cfg, svc, opts...)
	require.NoError(t, err)

	ln, err := net.Listen("tcp", cfg.Address)
	require.NoError(t, err)
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ln) }()
	t.Cleanup(func() {
		srv.Stop()
		require.NoError(t, <-done)
	})

	conn, err := fstgrpc.Dial(ln.Addr().String())
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return fstgrpc.NewClient(conn), healthpb.NewHealthClient(conn)
}

func callCtx(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func TestTokenQueries(t *testing.T) {
	env := jtx.NewTestEnv(t)
	alice := env.Account("alice")
	bob := env.Account("bob")
	env.Fund(jtx.Whole(1_000), alice)
	require.NoError(t, env.Token().Approve(context.Background(), alice.Address, bob.Address, jtx.Whole(25)))
	jtx.RequireTxSuccess(t, env.Stake(alice, entry.StakeOneEightyDay))

	client, _ := startServer(t, env.Token(), fstgrpc.WithClock(env.Clock()))
	ctx := callCtx(t)

	info, err := client.TokenInfo(ctx)
	require.NoError(t, err)
	assert.Equal(t, "FST", info.Symbol)
	assert.Equal(t, uint8(18), info.Decimals)
	assert.Equal(t, env.Owner().Address, info.Owner)
	assert.Equal(t, jtx.Whole(100_000), info.TotalSupply.Int())

	bal, err := client.BalanceOf(ctx, alice.Address)
	require.NoError(t, err)
	assert.Equal(t, alice.Address, bal.Account)
	assert.Equal(t, jtx.Whole(1_000), bal.Balance.Int())

	allowance, err := client.Allowance(ctx, alice.Address, bob.Address)
	require.NoError(t, err)
	assert.Equal(t, jtx.Whole(25), allowance.Allowance.Int())

	pair, err := client.PairAddress(ctx)
	require.NoError(t, err)
	assert.Equal(t, env.PairAddress(), pair)

	st, err := client.StakeOf(ctx, alice.Address)
	require.NoError(t, err)
	assert.True(t, st.Staked)
	assert.Equal(t, "180d", st.Duration)
	assert.Equal(t, uint64(3), st.Multiplier)
	assert.Equal(t, jtx.Whole(1_000), st.Locked.Int())
	assert.False(t, st.Matured)

	st, err = client.StakeOf(ctx, bob.Address)
	require.NoError(t, err)
	assert.False(t, st.Staked)
}

func TestQueryErrors(t *testing.T) {
	env := jtx.NewTestEnv(t)
	client, _ := startServer(t, env.Token())
	ctx := callCtx(t)

	_, err := client.BalanceOf(ctx, types.ZeroAddress)
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	_, err = client.Allowance(ctx, env.Owner().Address, types.ZeroAddress)
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	_, err = client.StakeOf(ctx, types.ZeroAddress)
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
}

// undeployed answers every query as a ledger without a token.
type undeployed struct{}

func (undeployed) Info() (*entry.TokenInfo, error) { return nil, token.ErrNotDeployed }
func (undeployed) Supply() (*entry.Supply, error)  { return nil, token.ErrNotDeployed }
func (undeployed) BalanceOf(types.Address) (*uint256.Int, error) {
	return nil, token.ErrNotDeployed
}
func (undeployed) Allowance(types.Address, types.Address) (*uint256.Int, error) {
	return nil, token.ErrNotDeployed
}
func (undeployed) BUSDPairAddress() types.Address { return types.ZeroAddress }
func (undeployed) StakeOf(types.Address) (*entry.StakePosition, error) {
	return nil, token.ErrNotDeployed
}

func TestNotDeployed(t *testing.T) {
	client, _ := startServer(t, undeployed{})
	ctx := callCtx(t)

	_, err := client.TokenInfo(ctx)
	assert.Equal(t, codes.FailedPrecondition, status.Code(err))

	_, err = client.BalanceOf(ctx, types.AddressFromName("alice"))
	assert.Equal(t, codes.FailedPrecondition, status.Code(err))
}

func TestHealth(t *testing.T) {
	env := jtx.NewTestEnv(t)
	_, health := startServer(t, env.Token())
	ctx := callCtx(t)

	for _, service := range []string{"", fstgrpc.ServiceName} {
		resp, err := health.Check(ctx, &healthpb.HealthCheckRequest{Service: service})
		require.NoError(t, err)
		assert.Equal(t, healthpb.HealthCheckResponse_SERVING, resp.GetStatus(), "service %q", service)
	}

	_, err := health.Check(ctx, &healthpb.HealthCheckRequest{Service: "unknown"})
	assert.Equal(t, codes.NotFound, status.Code(err))
}

func TestServerConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *fstgrpc.ServerConfig)
	}{
		{"empty address", func(c *fstgrpc.ServerConfig) { c.Address = "" }},
		{"no port", func(c *fstgrpc.ServerConfig) { c.Address = "localhost" }},
		{"empty host", func(c *fstgrpc.ServerConfig) { c.Address = ":50051" }},
		{"zero recv size", func(c *fstgrpc.ServerConfig) { c.MaxRecvMsgSize = 0 }},
		{"zero send size", func(c *fstgrpc.ServerConfig) { c.MaxSendMsgSize = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := fstgrpc.DefaultServerConfig()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
	assert.NoError(t, fstgrpc.DefaultServerConfig().Validate())
}

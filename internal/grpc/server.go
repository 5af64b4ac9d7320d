package grpc

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/LeJamon/goFST/internal/core/ledger/entry"
	"github.com/LeJamon/goFST/internal/core/types"
	"github.com/LeJamon/goFST/internal/observability"
	"github.com/holiman/uint256"
	"github.com/jonboulle/clockwork"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
)

// TokenService defines the token queries needed by the gRPC handlers.
// This interface is implemented by *token.Token.
type TokenService interface {
	Info() (*entry.TokenInfo, error)
	Supply() (*entry.Supply, error)
	BalanceOf(addr types.Address) (*uint256.Int, error)
	Allowance(owner, spender types.Address) (*uint256.Int, error)
	BUSDPairAddress() types.Address
	StakeOf(holder types.Address) (*entry.StakePosition, error)
}

// Server is the gRPC server for token queries.
type Server struct {
	mu sync.RWMutex

	grpcServer *grpc.Server
	health     *health.Server
	token      TokenService
	config     *ServerConfig

	clock   clockwork.Clock
	logger  *slog.Logger
	metrics *observability.Metrics

	listener net.Listener
	running  bool
}

// ServerOption is a function that configures a Server.
type ServerOption func(*Server)

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(l *slog.Logger) ServerOption {
	return func(s *Server) {
		s.logger = l
	}
}

// WithMetrics records every call in m.
func WithMetrics(m *observability.Metrics) ServerOption {
	return func(s *Server) {
		s.metrics = m
	}
}

// WithClock sets the clock used to report stake maturity.
func WithClock(c clockwork.Clock) ServerOption {
	return func(s *Server) {
		s.clock = c
	}
}

// NewServer creates a gRPC server exposing svc and the health service.
func NewServer(cfg *ServerConfig, svc TokenService, opts ...ServerOption) (*Server, error) {
	if cfg == nil {
		cfg = DefaultServerConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if svc == nil {
		return nil, errors.New("grpc: token service is required")
	}

	s := &Server{
		token:  svc,
		config: cfg,
		health: health.NewServer(),
		clock:  clockwork.NewRealClock(),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.grpcServer = grpc.NewServer(
		grpc.MaxRecvMsgSize(cfg.MaxRecvMsgSize),
		grpc.MaxSendMsgSize(cfg.MaxSendMsgSize),
		grpc.UnaryInterceptor(s.unaryInterceptor()),
		grpc.StreamInterceptor(s.streamInterceptor()),
	)
	s.grpcServer.RegisterService(&tokenServiceDesc, s)
	healthpb.RegisterHealthServer(s.grpcServer, s.health)
	s.health.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_SERVING)
	return s, nil
}

// Serve accepts connections on ln until Stop is called.
func (s *Server) Serve(ln net.Listener) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return errors.New("server is already running")
	}
	s.listener = ln
	s.running = true
	s.mu.Unlock()

	s.logger.Info("grpc listening", "addr", ln.Addr().String())
	err := s.grpcServer.Serve(ln)
	if errors.Is(err, grpc.ErrServerStopped) {
		return nil
	}
	return err
}

// Stop marks every service as not serving and waits for in-flight calls.
func (s *Server) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.health.Shutdown()
	s.grpcServer.GracefulStop()
	s.running = false
}

// Address returns the address the server is listening on, or "" before
// Serve.
func (s *Server) Address() string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// unaryInterceptor logs and records each call.
func (s *Server) unaryInterceptor() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		s.record(info.FullMethod, err, time.Since(start))
		return resp, err
	}
}

// streamInterceptor logs and records each stream, such as health watches.
func (s *Server) streamInterceptor() grpc.StreamServerInterceptor {
	return func(srv any, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
		start := time.Now()
		err := handler(srv, ss)
		s.record(info.FullMethod, err, time.Since(start))
		return err
	}
}

func (s *Server) record(method string, err error, elapsed time.Duration) {
	s.metrics.RecordRPC(method, err == nil, elapsed)
	if err != nil {
		s.logger.Debug("grpc call failed", "method", method, "code", status.Code(err).String(), "error", err)
		return
	}
	s.logger.Debug("grpc call", "method", method, "elapsed", elapsed)
}

package cli

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/LeJamon/goFST/internal/config"
	fstgrpc "github.com/LeJamon/goFST/internal/grpc"
	"github.com/LeJamon/goFST/internal/observability"
	"github.com/LeJamon/goFST/internal/rpc"
	"github.com/LeJamon/goFST/internal/storage/eventlog"
	"github.com/LeJamon/goFST/internal/token"
	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

var listenAddr string

// serverCmd represents the server command (default action)
var serverCmd = &cobra.Command{
	Use:     "serve",
	Aliases: []string{"server"},
	Short:   "Start the token node",
	Long: `Start the fstd node which provides:
- HTTP JSON-RPC API endpoint at /rpc
- WebSocket event stream at /ws
- Prometheus metrics at /metrics
- Health check endpoint at /health
- gRPC token queries and gRPC health, when server.grpc_listen is set

The token is deployed on first start if the ledger is empty. This is the
default command when no subcommand is specified.`,
	Args: cobra.NoArgs,
	RunE: runServer,
}

func init() {
	rootCmd.AddCommand(serverCmd)

	// Set server as the default command
	rootCmd.RunE = runServer

	serverCmd.Flags().StringVar(&listenAddr, "listen", "", "address to listen on (overrides server.listen)")
}

func runServer(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if listenAddr != "" {
		cfg.Server.Listen = listenAddr
	}
	ln, err := net.Listen("tcp", cfg.Server.Listen)
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}
	var grpcLn net.Listener
	if addr := cfg.Server.GRPCListen; addr != "" {
		if grpcLn, err = net.Listen("tcp", addr); err != nil {
			ln.Close()
			return fmt.Errorf("grpc listen: %w", err)
		}
	}
	return serve(ctx, cfg, ln, grpcLn)
}

// serve runs the node on ln, and the gRPC service on grpcLn when it is not
// nil, until ctx is done.
func serve(ctx context.Context, c *config.Config, ln, grpcLn net.Listener) error {
	closeListeners := func() {
		ln.Close()
		if grpcLn != nil {
			grpcLn.Close()
		}
	}

	metrics := observability.NewMetrics("fst", nil)
	n, err := openNode(c, log, metrics)
	if err != nil {
		closeListeners()
		return err
	}
	defer n.Close()

	t, err := n.token()
	if errors.Is(err, token.ErrNotDeployed) {
		t, err = deployWithAllocations(ctx, n, c.Token.GenesisFile)
	}
	if err != nil {
		closeListeners()
		return err
	}

	var events *eventlog.Log
	if c.EventLog.Driver != "" {
		events, err = eventlog.Open(ctx, eventlog.Config{
			Driver: c.EventLog.Driver,
			DSN:    c.EventLog.DSN,
			Logger: log,
		})
		if err != nil {
			closeListeners()
			return err
		}
		defer events.Close()
		n.engine.AddHooks(events.Hooks())
	}

	hub := rpc.NewHub(log, metrics)
	n.engine.AddHooks(hub.Hooks())

	rpcServer := rpc.NewServer(rpc.Config{
		Token:    t,
		EventLog: events,
		Hub:      hub,
		Metrics:  metrics,
		Logger:   log,
	})
	httpServer := &http.Server{
		Handler:           rpcServer.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	var grpcServer *fstgrpc.Server
	if grpcLn != nil {
		grpcCfg := fstgrpc.DefaultServerConfig()
		grpcCfg.Address = grpcLn.Addr().String()
		grpcServer, err = fstgrpc.NewServer(grpcCfg, t,
			fstgrpc.WithLogger(log),
			fstgrpc.WithMetrics(metrics),
			fstgrpc.WithClock(n.engine.Config().Clock),
		)
		if err != nil {
			closeListeners()
			return err
		}
	}

	sched, err := newScheduler(ctx, c, n, t)
	if err != nil {
		closeListeners()
		return err
	}
	sched.Start()
	defer func() { <-sched.Stop().Done() }()

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("fstd listening",
			"rpc", "http://"+ln.Addr().String()+"/rpc",
			"ws", "ws://"+ln.Addr().String()+"/ws",
		)
		if err := httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	if grpcServer != nil {
		g.Go(func() error {
			return grpcServer.Serve(grpcLn)
		})
	}
	g.Go(func() error {
		<-gCtx.Done()
		hub.Close()
		if grpcServer != nil {
			grpcServer.Stop()
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	err = g.Wait()
	log.Info("fstd stopped")
	return err
}

// deployWithAllocations deploys the token on an empty ledger and applies
// the allocations listed in the genesis file at path, if any.
func deployWithAllocations(ctx context.Context, n *node, path string) (*token.Token, error) {
	var allocs []config.Allocation
	if path != "" {
		var err error
		if allocs, err = config.LoadGenesisFile(path); err != nil {
			return nil, err
		}
	}
	t, err := n.deploy(ctx)
	if err != nil {
		return nil, err
	}
	return t, n.allocate(ctx, t, allocs)
}

// newScheduler registers the configured maintenance jobs.
func newScheduler(ctx context.Context, c *config.Config, n *node, t *token.Token) (*cron.Cron, error) {
	sched := cron.New()
	if schedule := c.Liquidity.FlushSchedule; schedule != "" {
		if _, err := sched.AddFunc(schedule, func() {
			if err := t.FlushLiquidity(ctx, n.owner); err != nil {
				log.Warn("scheduled liquidity flush failed", "error", err)
			}
		}); err != nil {
			return nil, fmt.Errorf("flush schedule: %w", err)
		}
		log.Info("liquidity flush scheduled", "schedule", schedule)
	}
	if schedule := c.Storage.SnapshotSchedule; schedule != "" {
		dir := c.Storage.SnapshotDir
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("snapshot dir: %w", err)
		}
		if _, err := sched.AddFunc(schedule, func() {
			path := snapshotPath(dir, time.Now())
			count, err := exportSnapshot(n.store, path)
			if err != nil {
				log.Warn("scheduled snapshot failed", "error", err)
				return
			}
			log.Info("snapshot written", "file", path, "entries", count)
		}); err != nil {
			return nil, fmt.Errorf("snapshot schedule: %w", err)
		}
		log.Info("snapshots scheduled", "schedule", schedule, "dir", dir)
	}
	return sched, nil
}

package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/LeJamon/goFST/internal/config"
	"github.com/LeJamon/goFST/internal/core/tx"
	fstgrpc "github.com/LeJamon/goFST/internal/grpc"
	"github.com/LeJamon/goFST/internal/logger"
	"github.com/LeJamon/goFST/internal/storage/ledgerstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// writeConfig writes a TOML configuration using a Pebble ledger under dir.
func writeConfig(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "fstd.toml")
	content := `
[storage]
backend = "pebble"
path = "` + filepath.ToSlash(filepath.Join(dir, "state")) + `"
no_sync = true
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

// run executes the root command and returns its standard output.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	allocationsFile = ""
	stakeDays = 30

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(io.Discard)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func runJSON(t *testing.T, args ...string) map[string]any {
	t.Helper()
	out, err := run(t, args...)
	require.NoError(t, err)
	var m map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &m), out)
	return m
}

func genesis(t *testing.T, conf string) {
	t.Helper()
	alloc := filepath.Join(filepath.Dir(conf), "genesis.yaml")
	require.NoError(t, os.WriteFile(alloc, []byte("allocations:\n  - address: alice\n    amount: \"1000\"\n"), 0o600))

	res := runJSON(t, "genesis", "--conf", conf, "--allocations", alloc)
	assert.Equal(t, "FST", res["symbol"])
	assert.Equal(t, "99000", res["owner_balance"])
}

func TestTokenCommands(t *testing.T) {
	conf := writeConfig(t, t.TempDir())

	_, err := run(t, "balance", "alice", "--conf", conf)
	require.Error(t, err)
	assert.ErrorIs(t, err, tx.TefNOT_DEPLOYED)

	genesis(t, conf)

	_, err = run(t, "genesis", "--conf", conf)
	assert.ErrorIs(t, err, tx.TefALREADY)

	res := runJSON(t, "balance", "alice", "--conf", conf)
	assert.Equal(t, "1000", res["balance"])
	assert.NotContains(t, res, "stake")

	res = runJSON(t, "transfer", "alice", "bob", "100", "--conf", conf)
	assert.Equal(t, "tesSUCCESS", res["engine_result"])
	assert.NotEmpty(t, res["tx_id"])

	_, err = run(t, "transfer", "bob", "carol", "1000000", "--conf", conf)
	assert.ErrorIs(t, err, tx.TecINSUFFICIENT_BALANCE)

	_, err = run(t, "stake", "alice", "--days", "90", "--conf", conf)
	assert.ErrorIs(t, err, tx.TemBAD_DURATION)

	res = runJSON(t, "stake", "alice", "--days", "180", "--conf", conf)
	assert.Equal(t, "tesSUCCESS", res["engine_result"])

	res = runJSON(t, "balance", "alice", "--conf", conf)
	stake, ok := res["stake"].(map[string]any)
	require.True(t, ok, "stake missing: %v", res)
	assert.Equal(t, "180d", stake["duration"])

	_, err = run(t, "redeem", "alice", "--conf", conf)
	assert.ErrorIs(t, err, tx.TecSTAKE_NOT_MATURED)

	res = runJSON(t, "info", "--conf", conf)
	assert.Equal(t, "Fee Sharing Token", res["name"])
	assert.Equal(t, "100000", res["total_supply"])
}

func TestAllowanceCommands(t *testing.T) {
	conf := writeConfig(t, t.TempDir())
	genesis(t, conf)

	runJSON(t, "approve", "owner", "spender", "50", "--conf", conf)
	runJSON(t, "transfer-from", "spender", "owner", "dave", "20", "--conf", conf)

	res := runJSON(t, "balance", "dave", "--conf", conf)
	assert.Equal(t, "20", res["balance"])

	_, err := run(t, "transfer-from", "spender", "owner", "dave", "31", "--conf", conf)
	assert.ErrorIs(t, err, tx.TecINSUFFICIENT_ALLOWANCE)
}

func TestLiquidityCommands(t *testing.T) {
	conf := writeConfig(t, t.TempDir())
	genesis(t, conf)

	res := runJSON(t, "seed-liquidity", "250", "--conf", conf)
	assert.Equal(t, "tesSUCCESS", res["engine_result"])

	res = runJSON(t, "balance", "busd-pair", "--conf", conf)
	assert.Equal(t, "250", res["balance"])

	res = runJSON(t, "flush-liquidity", "--conf", conf)
	assert.Equal(t, "tesSUCCESS", res["engine_result"])
}

func TestSnapshotCommands(t *testing.T) {
	src := writeConfig(t, t.TempDir())
	genesis(t, src)

	file := filepath.Join(t.TempDir(), "ledger.snap")
	res := runJSON(t, "snapshot", "export", file, "--conf", src)
	assert.Greater(t, res["entries"], float64(0))

	dst := writeConfig(t, t.TempDir())
	res = runJSON(t, "snapshot", "import", file, "--conf", dst)
	assert.Greater(t, res["entries"], float64(0))

	res = runJSON(t, "balance", "alice", "--conf", dst)
	assert.Equal(t, "1000", res["balance"])

	_, err := run(t, "snapshot", "import", file, "--conf", dst)
	assert.ErrorIs(t, err, ledgerstore.ErrStoreNotEmpty)
}

func TestVersionCommand(t *testing.T) {
	out, err := run(t, "version")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "fstd version "))
}

func TestServe(t *testing.T) {
	c, err := config.LoadConfig("")
	require.NoError(t, err)
	c.EventLog.Driver = "sqlite"
	c.EventLog.DSN = ":memory:"
	c.Liquidity.FlushSchedule = "@every 1h"
	log = logger.Discard()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	grpcLn, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- serve(ctx, c, ln, grpcLn) }()

	url := "http://" + ln.Addr().String()
	require.Eventually(t, func() bool {
		resp, err := http.Get(url + "/health")
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 5*time.Second, 20*time.Millisecond)

	resp, err := http.Post(url+"/rpc", "application/json",
		strings.NewReader(`{"method":"token_info","params":[{}]}`))
	require.NoError(t, err)
	var out struct {
		Result map[string]any `json:"result"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	resp.Body.Close()
	assert.Equal(t, "success", out.Result["status"])
	assert.Equal(t, "FST", out.Result["symbol"])

	conn, err := fstgrpc.Dial(grpcLn.Addr().String())
	require.NoError(t, err)
	defer conn.Close()
	callCtx, callCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer callCancel()

	health, err := healthpb.NewHealthClient(conn).Check(callCtx, &healthpb.HealthCheckRequest{Service: fstgrpc.ServiceName})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, health.GetStatus())

	info, err := fstgrpc.NewClient(conn).TokenInfo(callCtx)
	require.NoError(t, err)
	assert.Equal(t, "FST", info.Symbol)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(15 * time.Second):
		t.Fatal("serve did not stop")
	}
}

func TestScheduledSnapshot(t *testing.T) {
	c, err := config.LoadConfig("")
	require.NoError(t, err)
	c.Storage.SnapshotSchedule = "@every 1s"
	c.Storage.SnapshotDir = filepath.Join(t.TempDir(), "snapshots")
	log = logger.Discard()

	n, err := openNode(c, log, nil)
	require.NoError(t, err)
	defer n.Close()
	tok, err := n.deploy(context.Background())
	require.NoError(t, err)

	sched, err := newScheduler(context.Background(), c, n, tok)
	require.NoError(t, err)
	sched.Start()

	require.Eventually(t, func() bool {
		files, err := filepath.Glob(filepath.Join(c.Storage.SnapshotDir, "ledger-*.snap"))
		return err == nil && len(files) > 0
	}, 5*time.Second, 50*time.Millisecond)
	<-sched.Stop().Done()
}

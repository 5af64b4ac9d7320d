package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/LeJamon/goFST/internal/core/amount"
	"github.com/LeJamon/goFST/internal/core/reflection"
	"github.com/LeJamon/goFST/internal/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	config, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, "Fee Sharing Token", config.Token.Name)
	assert.Equal(t, "FST", config.Token.Symbol)
	assert.Equal(t, uint64(500), config.Tax.BaseRateBps)
	assert.Equal(t, uint64(10000), config.Tax.SellLiquidityShareBps)
	assert.Equal(t, uint64(3), config.Staking.OneEightyDayMultiplier)
	assert.Equal(t, "memory", config.Storage.Backend)
	assert.Empty(t, config.EventLog.Driver)

	supply, err := config.Token.Supply()
	require.NoError(t, err)
	assert.Equal(t, amount.Whole(100_000), supply)

	factor, err := config.Token.RateFactor()
	require.NoError(t, err)
	assert.Equal(t, reflection.DefaultFactor, factor)

	owner, contract, pair, err := config.Token.Addresses()
	require.NoError(t, err)
	assert.Equal(t, types.AddressFromName("owner"), owner)
	assert.Equal(t, types.AddressFromName("contract"), contract)
	assert.Equal(t, types.AddressFromName("busd-pair"), pair)
}

func TestLoadTOML(t *testing.T) {
	path := writeFile(t, "fstd.toml", `
[token]
name = "Test Token"
total_supply = "5000.5"
owner = "0x00000000000000000000000000000000000000aa"

[tax]
base_rate_bps = 300
exempt = ["treasury"]

[liquidity]
min_deposit = "10"
flush_schedule = "@every 1m"

[storage]
backend = "pebble"
path = "/tmp/fst"
`)
	config, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, path, config.GetConfigPath())
	assert.Equal(t, "Test Token", config.Token.Name)
	assert.Equal(t, "FST", config.Token.Symbol)

	supply, err := config.Token.Supply()
	require.NoError(t, err)
	assert.Equal(t, amount.MustParse("5000.5"), supply)

	owner, _, _, err := config.Token.Addresses()
	require.NoError(t, err)
	assert.Equal(t, types.MustParseAddress("0x00000000000000000000000000000000000000aa"), owner)

	policy, err := config.Tax.Policy()
	require.NoError(t, err)
	assert.Equal(t, uint64(300), policy.BaseRateBps)
	assert.Equal(t, []types.Address{types.AddressFromName("treasury")}, policy.Exempt)

	minDeposit, err := config.Liquidity.MinDepositAmount()
	require.NoError(t, err)
	assert.Equal(t, amount.Whole(10), minDeposit)

	db := config.Storage.DatabaseConfig()
	assert.Equal(t, "pebble", db.Backend)
	assert.Equal(t, "/tmp/fst", db.Path)
}

func TestLoadYAMLWithEnvOverride(t *testing.T) {
	path := writeFile(t, "fstd.yaml", "token:\n  symbol: YML\nserver:\n  listen: 0.0.0.0:9000\n")
	t.Setenv("FST_TOKEN_SYMBOL", "ENV")
	t.Setenv("FST_STAKING_BASE_REWARD_BPS", "250")

	config, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "ENV", config.Token.Symbol)
	assert.Equal(t, "0.0.0.0:9000", config.Server.Listen)
	assert.Equal(t, uint64(250), config.Staking.BaseRewardBps)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "absent.toml"))
	assert.Error(t, err)
}

func TestValidateConfig(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"empty name", func(c *Config) { c.Token.Name = "" }},
		{"zero supply", func(c *Config) { c.Token.TotalSupply = "0" }},
		{"bad supply", func(c *Config) { c.Token.TotalSupply = "lots" }},
		{"owner is pair", func(c *Config) { c.Token.Owner = c.Token.PairAddress }},
		{"bad owner hex", func(c *Config) { c.Token.Owner = "0x1234" }},
		{"zero rate factor", func(c *Config) { c.Token.InitialRateFactor = "0" }},
		{"tax over 100%", func(c *Config) { c.Tax.BaseRateBps = 9000; c.Tax.StakerSurchargeBps = 2000 }},
		{"zero multiplier", func(c *Config) { c.Staking.ThirtyDayMultiplier = 0 }},
		{"bad min deposit", func(c *Config) { c.Liquidity.MinDeposit = "-1" }},
		{"bad schedule", func(c *Config) { c.Liquidity.FlushSchedule = "whenever" }},
		{"unknown backend", func(c *Config) { c.Storage.Backend = "nudb" }},
		{"pebble without path", func(c *Config) { c.Storage.Backend = "pebble"; c.Storage.Path = "" }},
		{"bad snapshot schedule", func(c *Config) { c.Storage.SnapshotSchedule = "often" }},
		{"snapshot without dir", func(c *Config) { c.Storage.SnapshotSchedule = "@daily"; c.Storage.SnapshotDir = "" }},
		{"sqlite without dsn", func(c *Config) { c.EventLog.Driver = "sqlite" }},
		{"unknown driver", func(c *Config) { c.EventLog.Driver = "mysql"; c.EventLog.DSN = "x" }},
		{"no listen", func(c *Config) { c.Server.Listen = "" }},
		{"bad grpc listen", func(c *Config) { c.Server.GRPCListen = "50051" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config, err := LoadConfig("")
			require.NoError(t, err)
			tt.mutate(config)
			assert.Error(t, ValidateConfig(config))
		})
	}
}

func TestParseGenesis(t *testing.T) {
	allocs, err := ParseGenesis([]byte(`
allocations:
  - address: alice
    amount: "10000"
  - address: "0x00000000000000000000000000000000000000bb"
    amount: "2500.5"
`))
	require.NoError(t, err)
	require.Len(t, allocs, 2)
	assert.Equal(t, types.AddressFromName("alice"), allocs[0].Address)
	assert.Equal(t, amount.Whole(10_000), allocs[0].Amount)
	assert.Equal(t, amount.MustParse("2500.5"), allocs[1].Amount)

	_, err = ParseGenesis([]byte("allocations:\n  - address: a\n    amount: \"1\"\n  - address: a\n    amount: \"2\"\n"))
	assert.ErrorIs(t, err, ErrInvalidConfig)

	_, err = ParseGenesis([]byte("allocations:\n  - address: a\n    amount: \"0\"\n"))
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestLoadDotEnv(t *testing.T) {
	path := writeFile(t, ".env", "FST_TOKEN_NAME=From Dotenv\n")
	t.Setenv("FST_TOKEN_NAME", "")
	require.NoError(t, os.Unsetenv("FST_TOKEN_NAME"))

	require.NoError(t, LoadDotEnv(path, filepath.Join(t.TempDir(), "missing.env")))
	t.Cleanup(func() { _ = os.Unsetenv("FST_TOKEN_NAME") })

	config, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, "From Dotenv", config.Token.Name)
}

// Package config loads the fstd configuration from defaults, a TOML or
// YAML file and FST_ environment variables.
package config

import (
	"fmt"
	"strings"

	"github.com/LeJamon/goFST/internal/core/amount"
	"github.com/LeJamon/goFST/internal/core/reflection"
	"github.com/LeJamon/goFST/internal/core/staking"
	"github.com/LeJamon/goFST/internal/core/tax"
	"github.com/LeJamon/goFST/internal/core/types"
	"github.com/LeJamon/goFST/internal/storage"
	"github.com/holiman/uint256"
)

// Config represents the complete fstd configuration.
type Config struct {
	Token     TokenConfig     `toml:"token" mapstructure:"token"`
	Tax       TaxConfig       `toml:"tax" mapstructure:"tax"`
	Staking   StakingConfig   `toml:"staking" mapstructure:"staking"`
	Liquidity LiquidityConfig `toml:"liquidity" mapstructure:"liquidity"`
	Storage   StorageConfig   `toml:"storage" mapstructure:"storage"`
	EventLog  EventLogConfig  `toml:"eventlog" mapstructure:"eventlog"`
	Server    ServerConfig    `toml:"server" mapstructure:"server"`
	Log       LogConfig       `toml:"log" mapstructure:"log"`

	configPath string
}

// TokenConfig is the [token] section. Addresses are 0x-prefixed hex, or a
// label from which a stable system address is derived.
type TokenConfig struct {
	Name              string `toml:"name" mapstructure:"name"`
	Symbol            string `toml:"symbol" mapstructure:"symbol"`
	TotalSupply       string `toml:"total_supply" mapstructure:"total_supply"`
	Owner             string `toml:"owner" mapstructure:"owner"`
	ContractAddress   string `toml:"contract_address" mapstructure:"contract_address"`
	PairAddress       string `toml:"pair_address" mapstructure:"pair_address"`
	InitialRateFactor string `toml:"initial_rate_factor" mapstructure:"initial_rate_factor"`
	GenesisFile       string `toml:"genesis_file" mapstructure:"genesis_file"`
}

// TaxConfig is the [tax] section.
type TaxConfig struct {
	BaseRateBps               uint64   `toml:"base_rate_bps" mapstructure:"base_rate_bps"`
	StakerSurchargeBps        uint64   `toml:"staker_surcharge_bps" mapstructure:"staker_surcharge_bps"`
	SellLiquidityShareBps     uint64   `toml:"sell_liquidity_share_bps" mapstructure:"sell_liquidity_share_bps"`
	TransferLiquidityShareBps uint64   `toml:"transfer_liquidity_share_bps" mapstructure:"transfer_liquidity_share_bps"`
	Exempt                    []string `toml:"exempt" mapstructure:"exempt"`
}

// StakingConfig is the [staking] section.
type StakingConfig struct {
	BaseRewardBps          uint64 `toml:"base_reward_bps" mapstructure:"base_reward_bps"`
	ThirtyDayMultiplier    uint64 `toml:"thirty_day_multiplier" mapstructure:"thirty_day_multiplier"`
	OneEightyDayMultiplier uint64 `toml:"one_eighty_day_multiplier" mapstructure:"one_eighty_day_multiplier"`
}

// LiquidityConfig is the [liquidity] section. FlushSchedule is a cron
// expression; empty disables scheduled flushes.
type LiquidityConfig struct {
	MinDeposit    string `toml:"min_deposit" mapstructure:"min_deposit"`
	FlushSchedule string `toml:"flush_schedule" mapstructure:"flush_schedule"`
}

// StorageConfig is the [storage] section.
type StorageConfig struct {
	Backend        string `toml:"backend" mapstructure:"backend"`
	Path           string `toml:"path" mapstructure:"path"`
	CacheSize      int    `toml:"cache_size" mapstructure:"cache_size"`
	EntryCacheSize int    `toml:"entry_cache_size" mapstructure:"entry_cache_size"`
	NoSync         bool   `toml:"no_sync" mapstructure:"no_sync"`

	// SnapshotSchedule is a cron expression for periodic snapshots into
	// SnapshotDir; empty disables them.
	SnapshotSchedule string `toml:"snapshot_schedule" mapstructure:"snapshot_schedule"`
	SnapshotDir      string `toml:"snapshot_dir" mapstructure:"snapshot_dir"`
}

// EventLogConfig is the [eventlog] section. An empty driver disables the
// event log.
type EventLogConfig struct {
	Driver string `toml:"driver" mapstructure:"driver"`
	DSN    string `toml:"dsn" mapstructure:"dsn"`
}

// ServerConfig is the [server] section.
type ServerConfig struct {
	Listen string `toml:"listen" mapstructure:"listen"`
	// GRPCListen enables the gRPC query service when set.
	GRPCListen string `toml:"grpc_listen" mapstructure:"grpc_listen"`
}

// LogConfig is the [log] section.
type LogConfig struct {
	Verbose bool `toml:"verbose" mapstructure:"verbose"`
}

// GetConfigPath returns the file the configuration was read from.
func (c *Config) GetConfigPath() string {
	return c.configPath
}

// ResolveAddress parses a hex address, or derives one from a label.
func ResolveAddress(s string) (types.Address, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return types.ZeroAddress, fmt.Errorf("%w: empty", types.ErrInvalidAddress)
	}
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		return types.ParseAddress(s)
	}
	return types.AddressFromName(s), nil
}

// Addresses returns the owner, contract and pair accounts.
func (c *TokenConfig) Addresses() (owner, contract, pair types.Address, err error) {
	if owner, err = ResolveAddress(c.Owner); err != nil {
		return owner, contract, pair, fmt.Errorf("owner: %w", err)
	}
	if contract, err = ResolveAddress(c.ContractAddress); err != nil {
		return owner, contract, pair, fmt.Errorf("contract_address: %w", err)
	}
	if pair, err = ResolveAddress(c.PairAddress); err != nil {
		return owner, contract, pair, fmt.Errorf("pair_address: %w", err)
	}
	return owner, contract, pair, nil
}

// Supply returns the genesis supply in base units.
func (c *TokenConfig) Supply() (*uint256.Int, error) {
	return amount.Parse(c.TotalSupply)
}

// RateFactor returns the initial reflected units per real unit.
func (c *TokenConfig) RateFactor() (*uint256.Int, error) {
	if c.InitialRateFactor == "" {
		return new(uint256.Int).Set(reflection.DefaultFactor), nil
	}
	return uint256.FromDecimal(c.InitialRateFactor)
}

// Policy converts the section to a tax configuration.
func (c *TaxConfig) Policy() (tax.Config, error) {
	cfg := tax.Config{
		BaseRateBps:               c.BaseRateBps,
		StakerSurchargeBps:        c.StakerSurchargeBps,
		SellLiquidityShareBps:     c.SellLiquidityShareBps,
		TransferLiquidityShareBps: c.TransferLiquidityShareBps,
	}
	for _, s := range c.Exempt {
		addr, err := ResolveAddress(s)
		if err != nil {
			return cfg, fmt.Errorf("exempt %q: %w", s, err)
		}
		cfg.Exempt = append(cfg.Exempt, addr)
	}
	return cfg, cfg.Validate()
}

// Engine converts the section to a staking configuration.
func (c *StakingConfig) Engine() staking.Config {
	return staking.Config{
		BaseRewardBps:          c.BaseRewardBps,
		ThirtyDayMultiplier:    c.ThirtyDayMultiplier,
		OneEightyDayMultiplier: c.OneEightyDayMultiplier,
	}
}

// MinDepositAmount returns the deposit threshold in base units, nil when
// unset.
func (c *LiquidityConfig) MinDepositAmount() (*uint256.Int, error) {
	if c.MinDeposit == "" {
		return nil, nil
	}
	return amount.Parse(c.MinDeposit)
}

// DatabaseConfig converts the section to a storage configuration.
func (c *StorageConfig) DatabaseConfig() storage.Config {
	return storage.Config{
		Backend:   c.Backend,
		Path:      c.Path,
		CacheSize: c.CacheSize,
		NoSync:    c.NoSync,
	}
}

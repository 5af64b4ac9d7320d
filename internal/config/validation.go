package config

import (
	"errors"
	"fmt"
	"net"

	"github.com/LeJamon/goFST/internal/storage"
	"github.com/LeJamon/goFST/internal/storage/eventlog"
	"github.com/robfig/cron/v3"
)

// ErrInvalidConfig is wrapped by every validation failure.
var ErrInvalidConfig = errors.New("invalid configuration")

// ValidateConfig checks every section and the relations between them.
func ValidateConfig(config *Config) error {
	if err := config.Token.Validate(); err != nil {
		return fmt.Errorf("token config validation failed: %w", err)
	}
	if _, err := config.Tax.Policy(); err != nil {
		return fmt.Errorf("tax config validation failed: %w", err)
	}
	if err := config.Staking.Engine().Validate(); err != nil {
		return fmt.Errorf("staking config validation failed: %w", err)
	}
	if err := config.Liquidity.Validate(); err != nil {
		return fmt.Errorf("liquidity config validation failed: %w", err)
	}
	if err := config.Storage.Validate(); err != nil {
		return fmt.Errorf("storage config validation failed: %w", err)
	}
	if err := config.EventLog.Validate(); err != nil {
		return fmt.Errorf("eventlog config validation failed: %w", err)
	}
	if config.Server.Listen == "" {
		return fmt.Errorf("%w: server.listen is required", ErrInvalidConfig)
	}
	if addr := config.Server.GRPCListen; addr != "" {
		if _, _, err := net.SplitHostPort(addr); err != nil {
			return fmt.Errorf("%w: server.grpc_listen: %v", ErrInvalidConfig, err)
		}
	}
	return nil
}

// Validate checks the token section.
func (c *TokenConfig) Validate() error {
	if c.Name == "" || c.Symbol == "" {
		return fmt.Errorf("%w: name and symbol are required", ErrInvalidConfig)
	}
	supply, err := c.Supply()
	if err != nil {
		return fmt.Errorf("%w: total_supply: %v", ErrInvalidConfig, err)
	}
	if supply.IsZero() {
		return fmt.Errorf("%w: total_supply must be positive", ErrInvalidConfig)
	}
	owner, contract, pair, err := c.Addresses()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if owner == contract || owner == pair || contract == pair {
		return fmt.Errorf("%w: owner, contract_address and pair_address must differ", ErrInvalidConfig)
	}
	factor, err := c.RateFactor()
	if err != nil || factor.IsZero() {
		return fmt.Errorf("%w: initial_rate_factor must be a positive integer", ErrInvalidConfig)
	}
	return nil
}

// Validate checks the liquidity section.
func (c *LiquidityConfig) Validate() error {
	if _, err := c.MinDepositAmount(); err != nil {
		return fmt.Errorf("%w: min_deposit: %v", ErrInvalidConfig, err)
	}
	if c.FlushSchedule != "" {
		if _, err := cron.ParseStandard(c.FlushSchedule); err != nil {
			return fmt.Errorf("%w: flush_schedule: %v", ErrInvalidConfig, err)
		}
	}
	return nil
}

// Validate checks the storage section.
func (c *StorageConfig) Validate() error {
	switch c.Backend {
	case storage.BackendMemory:
	case storage.BackendPebble, storage.BackendLevelDB:
		if c.Path == "" {
			return fmt.Errorf("%w: %s backend requires a path", ErrInvalidConfig, c.Backend)
		}
	default:
		return fmt.Errorf("%w: unknown backend %q", ErrInvalidConfig, c.Backend)
	}
	if c.CacheSize < 0 || c.EntryCacheSize < 0 {
		return fmt.Errorf("%w: cache sizes must not be negative", ErrInvalidConfig)
	}
	if c.SnapshotSchedule != "" {
		if _, err := cron.ParseStandard(c.SnapshotSchedule); err != nil {
			return fmt.Errorf("%w: snapshot_schedule: %v", ErrInvalidConfig, err)
		}
		if c.SnapshotDir == "" {
			return fmt.Errorf("%w: snapshot_schedule requires snapshot_dir", ErrInvalidConfig)
		}
	}
	return nil
}

// Validate checks the eventlog section.
func (c *EventLogConfig) Validate() error {
	switch c.Driver {
	case "":
	case eventlog.DriverSQLite, eventlog.DriverPostgres:
		if c.DSN == "" {
			return fmt.Errorf("%w: %s event log requires a dsn", ErrInvalidConfig, c.Driver)
		}
	default:
		return fmt.Errorf("%w: unknown event log driver %q", ErrInvalidConfig, c.Driver)
	}
	return nil
}

package config

import "github.com/spf13/viper"

// setDefaults sets the default value of every key.
func setDefaults(v *viper.Viper) {
	// Token
	v.SetDefault("token.name", "Fee Sharing Token")
	v.SetDefault("token.symbol", "FST")
	v.SetDefault("token.total_supply", "100000")
	v.SetDefault("token.owner", "owner")
	v.SetDefault("token.contract_address", "contract")
	v.SetDefault("token.pair_address", "busd-pair")
	v.SetDefault("token.initial_rate_factor", "")
	v.SetDefault("token.genesis_file", "")

	// Tax: 5% base, 5% while anyone stakes, base to liquidity on sales
	v.SetDefault("tax.base_rate_bps", 500)
	v.SetDefault("tax.staker_surcharge_bps", 500)
	v.SetDefault("tax.sell_liquidity_share_bps", 10000)
	v.SetDefault("tax.transfer_liquidity_share_bps", 0)
	v.SetDefault("tax.exempt", []string{})

	// Staking: 1% per period, tripled for 180 days
	v.SetDefault("staking.base_reward_bps", 100)
	v.SetDefault("staking.thirty_day_multiplier", 1)
	v.SetDefault("staking.one_eighty_day_multiplier", 3)

	v.SetDefault("liquidity.min_deposit", "")
	v.SetDefault("liquidity.flush_schedule", "")

	v.SetDefault("storage.backend", "memory")
	v.SetDefault("storage.path", "data/state")
	v.SetDefault("storage.cache_size", 64<<20)
	v.SetDefault("storage.entry_cache_size", 4096)
	v.SetDefault("storage.no_sync", false)
	v.SetDefault("storage.snapshot_schedule", "")
	v.SetDefault("storage.snapshot_dir", "data/snapshots")

	v.SetDefault("eventlog.driver", "")
	v.SetDefault("eventlog.dsn", "")

	v.SetDefault("server.listen", "127.0.0.1:8645")
	v.SetDefault("server.grpc_listen", "")

	v.SetDefault("log.verbose", false)
}

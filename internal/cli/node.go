package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/LeJamon/goFST/internal/amm"
	"github.com/LeJamon/goFST/internal/config"
	"github.com/LeJamon/goFST/internal/core/liquidity"
	"github.com/LeJamon/goFST/internal/core/tx"
	"github.com/LeJamon/goFST/internal/core/types"
	"github.com/LeJamon/goFST/internal/observability"
	"github.com/LeJamon/goFST/internal/storage"
	"github.com/LeJamon/goFST/internal/storage/ledgerstore"
	"github.com/LeJamon/goFST/internal/token"
)

// quoteSymbol names the pair's quote asset.
const quoteSymbol = "BUSD"

// node is the engine stack built from a configuration.
type node struct {
	cfg     *config.Config
	logger  *slog.Logger
	metrics *observability.Metrics

	store  *ledgerstore.Store
	engine *tx.Engine
	pair   *amm.Pair
	owner  types.Address
}

// openNode opens storage and builds an engine over it. The token may or
// may not be deployed yet.
func openNode(c *config.Config, logger *slog.Logger, metrics *observability.Metrics) (*node, error) {
	owner, contract, pairAddr, err := c.Token.Addresses()
	if err != nil {
		return nil, fmt.Errorf("token addresses: %w", err)
	}
	taxCfg, err := c.Tax.Policy()
	if err != nil {
		return nil, fmt.Errorf("tax policy: %w", err)
	}
	minDeposit, err := c.Liquidity.MinDepositAmount()
	if err != nil {
		return nil, fmt.Errorf("liquidity min_deposit: %w", err)
	}

	db, err := storage.Open(c.Storage.DatabaseConfig())
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}
	store, err := ledgerstore.New(db, ledgerstore.Config{
		CacheSize: c.Storage.EntryCacheSize,
		Logger:    logger,
		Metrics:   metrics,
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	pair := amm.NewPair(pairAddr, amm.NewQuoteLedger(quoteSymbol), amm.PairConfig{Logger: logger})
	engine, err := tx.NewEngine(store, tx.EngineConfig{
		Owner:     owner,
		Contract:  contract,
		Pair:      pairAddr,
		Tax:       taxCfg,
		Staking:   c.Staking.Engine(),
		Liquidity: liquidity.Config{MinDeposit: minDeposit},
		Pool:      pair,
		Logger:    logger,
		Metrics:   metrics,
	})
	if err != nil {
		store.Close()
		return nil, err
	}

	n := &node{
		cfg:     c,
		logger:  logger,
		metrics: metrics,
		store:   store,
		engine:  engine,
		pair:    pair,
		owner:   owner,
	}
	if t, err := token.Open(engine); err == nil {
		n.syncPair(t)
	}
	return n, nil
}

// syncPair books the pair's persisted token balance as its reserve.
func (n *node) syncPair(t *token.Token) {
	bal, err := t.BalanceOf(n.pair.Address())
	if err != nil {
		n.logger.Warn("pair balance unavailable", "error", err)
		return
	}
	n.pair.Sync(bal)
}

// token opens the deployed token.
func (n *node) token() (*token.Token, error) {
	t, err := token.Open(n.engine)
	if errors.Is(err, token.ErrNotDeployed) {
		return nil, fmt.Errorf("%w: run \"fstd genesis\" first", err)
	}
	return t, err
}

// deploy applies genesis from the token section.
func (n *node) deploy(ctx context.Context) (*token.Token, error) {
	supply, err := n.cfg.Token.Supply()
	if err != nil {
		return nil, fmt.Errorf("total_supply: %w", err)
	}
	factor, err := n.cfg.Token.RateFactor()
	if err != nil {
		return nil, fmt.Errorf("initial_rate_factor: %w", err)
	}
	t, err := token.Deploy(ctx, n.engine, token.Options{
		Name:       n.cfg.Token.Name,
		Symbol:     n.cfg.Token.Symbol,
		Supply:     supply,
		RateFactor: factor,
	})
	if err != nil {
		return nil, err
	}
	n.logger.Info("token deployed",
		"name", n.cfg.Token.Name,
		"symbol", n.cfg.Token.Symbol,
		"supply", n.cfg.Token.TotalSupply,
	)
	return t, nil
}

// allocate hands out the genesis allocations from the owner account.
func (n *node) allocate(ctx context.Context, t *token.Token, allocs []config.Allocation) error {
	for _, a := range allocs {
		if err := t.Transfer(ctx, n.owner, a.Address, a.Amount); err != nil {
			return fmt.Errorf("allocate to %s: %w", a.Address, err)
		}
	}
	return nil
}

func (n *node) Close() error {
	return n.store.Close()
}

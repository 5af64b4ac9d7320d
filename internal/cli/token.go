package cli

import (
	"context"
	"fmt"

	"github.com/LeJamon/goFST/internal/config"
	"github.com/LeJamon/goFST/internal/core/amount"
	"github.com/LeJamon/goFST/internal/core/ledger/entry"
	"github.com/LeJamon/goFST/internal/core/tx"
	"github.com/LeJamon/goFST/internal/core/tx/amm"
	"github.com/LeJamon/goFST/internal/core/tx/payment"
	"github.com/LeJamon/goFST/internal/core/tx/stake"
	"github.com/LeJamon/goFST/internal/core/types"
	"github.com/LeJamon/goFST/internal/token"
	"github.com/holiman/uint256"
	"github.com/spf13/cobra"
)

var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show token metadata and supply",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withToken(cmd, func(ctx context.Context, n *node, t *token.Token) error {
			info, err := t.Info()
			if err != nil {
				return err
			}
			supply, err := t.Supply()
			if err != nil {
				return err
			}
			pending, err := t.LiquidityPending()
			if err != nil {
				return err
			}
			return printJSON(cmd, map[string]any{
				"name":              info.Name,
				"symbol":            info.Symbol,
				"decimals":          t.Decimals(),
				"total_supply":      amount.Format(&supply.TotalReal),
				"redistributed":     amount.Format(&supply.Redistributed),
				"minted":            amount.Format(&supply.Minted),
				"liquidity_pending": amount.Format(&pending.Pending),
				"pair":              t.BUSDPairAddress(),
			})
		})
	},
}

var balanceCmd = &cobra.Command{
	Use:   "balance <account>",
	Short: "Show an account's balance and stake",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		addr, err := config.ResolveAddress(args[0])
		if err != nil {
			return err
		}
		return withToken(cmd, func(ctx context.Context, n *node, t *token.Token) error {
			bal, err := t.BalanceOf(addr)
			if err != nil {
				return err
			}
			out := map[string]any{
				"account": addr,
				"balance": amount.Format(bal),
			}
			pos, err := t.StakeOf(addr)
			if err != nil {
				return err
			}
			if pos != nil {
				out["stake"] = map[string]any{
					"locked":     amount.Format(&pos.Locked),
					"duration":   pos.Duration.String(),
					"unlock":     pos.UnlockTime().UTC(),
					"multiplier": pos.Multiplier,
				}
			}
			return printJSON(cmd, out)
		})
	},
}

var transferCmd = &cobra.Command{
	Use:   "transfer <from> <to> <amount>",
	Short: "Transfer tokens between accounts",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		from, to, amt, err := parseTriple(args)
		if err != nil {
			return err
		}
		return submit(cmd, payment.NewTransfer(from, to, amt))
	},
}

var approveCmd = &cobra.Command{
	Use:   "approve <owner> <spender> <amount>",
	Short: "Set a spender's allowance",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		owner, spender, amt, err := parseTriple(args)
		if err != nil {
			return err
		}
		return submit(cmd, payment.NewApprove(owner, spender, amt))
	},
}

var transferFromCmd = &cobra.Command{
	Use:   "transfer-from <spender> <owner> <to> <amount>",
	Short: "Transfer tokens on an owner's behalf",
	Args:  cobra.ExactArgs(4),
	RunE: func(cmd *cobra.Command, args []string) error {
		spender, err := config.ResolveAddress(args[0])
		if err != nil {
			return fmt.Errorf("spender: %w", err)
		}
		owner, to, amt, err := parseTriple(args[1:])
		if err != nil {
			return err
		}
		return submit(cmd, payment.NewTransferFrom(spender, owner, to, amt))
	},
}

var stakeDays int

var stakeCmd = &cobra.Command{
	Use:   "stake <account>",
	Short: "Lock an account's balance for 30 or 180 days",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		holder, err := config.ResolveAddress(args[0])
		if err != nil {
			return err
		}
		d, ok := entry.ParseStakeDuration(stakeDays)
		if !ok {
			return fmt.Errorf("%w: %d days", tx.TemBAD_DURATION, stakeDays)
		}
		return submit(cmd, stake.NewStake(holder, d))
	},
}

var redeemCmd = &cobra.Command{
	Use:   "redeem <account>",
	Short: "Unlock a matured stake and mint its reward",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		holder, err := config.ResolveAddress(args[0])
		if err != nil {
			return err
		}
		return submit(cmd, stake.NewRedeem(holder))
	},
}

var seedLiquidityCmd = &cobra.Command{
	Use:   "seed-liquidity <amount>",
	Short: "Move owner tokens into the trading pair",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		amt, err := amount.Parse(args[0])
		if err != nil {
			return err
		}
		owner, _, _, err := cfg.Token.Addresses()
		if err != nil {
			return err
		}
		return submit(cmd, amm.NewAddLiquidity(owner, amt))
	},
}

var flushCmd = &cobra.Command{
	Use:   "flush-liquidity",
	Short: "Deposit pending liquidity into the pair",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		owner, _, _, err := cfg.Token.Addresses()
		if err != nil {
			return err
		}
		return submit(cmd, tx.NewLiquidityFlush(owner))
	},
}

func init() {
	stakeCmd.Flags().IntVar(&stakeDays, "days", 30, "lock duration in days (30 or 180)")

	rootCmd.AddCommand(infoCmd, balanceCmd, transferCmd, approveCmd, transferFromCmd,
		stakeCmd, redeemCmd, seedLiquidityCmd, flushCmd)
}

// withToken opens the node, runs fn against the deployed token and closes
// the node again.
func withToken(cmd *cobra.Command, fn func(ctx context.Context, n *node, t *token.Token) error) error {
	n, err := openNode(cfg, log, nil)
	if err != nil {
		return err
	}
	defer n.Close()

	t, err := n.token()
	if err != nil {
		return err
	}
	return fn(cmd.Context(), n, t)
}

// submit applies txn and prints the engine result.
func submit(cmd *cobra.Command, txn tx.Transaction) error {
	return withToken(cmd, func(ctx context.Context, n *node, t *token.Token) error {
		res := t.Submit(ctx, txn)
		if !res.Applied {
			return fmt.Errorf("%s: %w", res.Type, res.Result)
		}
		events := res.Events
		if events == nil {
			events = []tx.Event{}
		}
		return printJSON(cmd, map[string]any{
			"tx_id":         res.ID,
			"engine_result": res.Result.String(),
			"events":        events,
		})
	})
}

// parseTriple parses the <account> <account> <amount> arguments shared by
// transfer and approve.
func parseTriple(args []string) (a, b types.Address, amt *uint256.Int, err error) {
	if a, err = config.ResolveAddress(args[0]); err != nil {
		return a, b, nil, fmt.Errorf("%q: %w", args[0], err)
	}
	if b, err = config.ResolveAddress(args[1]); err != nil {
		return a, b, nil, fmt.Errorf("%q: %w", args[1], err)
	}
	if amt, err = amount.Parse(args[2]); err != nil {
		return a, b, nil, fmt.Errorf("amount %q: %w", args[2], err)
	}
	return a, b, amt, nil
}

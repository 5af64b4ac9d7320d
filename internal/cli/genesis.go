package cli

import (
	"github.com/LeJamon/goFST/internal/core/amount"
	"github.com/spf13/cobra"
)

var allocationsFile string

var genesisCmd = &cobra.Command{
	Use:   "genesis",
	Short: "Deploy the token on an empty ledger",
	Long: `Deploy the token with the parameters of the [token] section. The whole
supply goes to the owner, who then hands out the allocations listed in the
genesis YAML file, if one is configured.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path := allocationsFile
		if path == "" {
			path = cfg.Token.GenesisFile
		}

		n, err := openNode(cfg, log, nil)
		if err != nil {
			return err
		}
		defer n.Close()

		t, err := deployWithAllocations(cmd.Context(), n, path)
		if err != nil {
			return err
		}
		ownerBal, err := t.BalanceOf(n.owner)
		if err != nil {
			return err
		}
		return printJSON(cmd, map[string]any{
			"name":          cfg.Token.Name,
			"symbol":        cfg.Token.Symbol,
			"owner":         n.owner,
			"owner_balance": amount.Format(ownerBal),
		})
	},
}

func init() {
	genesisCmd.Flags().StringVar(&allocationsFile, "allocations", "", "genesis allocation YAML file (overrides token.genesis_file)")
	rootCmd.AddCommand(genesisCmd)
}

package cli

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/LeJamon/goFST/internal/config"
	"github.com/LeJamon/goFST/internal/logger"
	"github.com/spf13/cobra"
)

var (
	// Global flags
	configFile string
	envFile    string
	verbose    bool

	cfg *config.Config
	log *slog.Logger
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "fstd",
	Short: "fstd - fee-sharing token node",
	Long: `fstd hosts a reflection-based fee-sharing token: taxed transfers that
redistribute to every holder, time-locked staking with rewards, and automatic
liquidity deposits into the token's trading pair.`,
	Version:           "0.1.0-dev",
	SilenceUsage:      true,
	PersistentPreRunE: initConfig,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "conf", "", "configuration file path")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file loaded before the configuration")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose logging")
}

// initConfig loads the dotenv file, the configuration and the logger.
func initConfig(cmd *cobra.Command, args []string) error {
	if err := config.LoadDotEnv(envFile); err != nil {
		return err
	}
	c, err := config.LoadConfig(configFile)
	if err != nil {
		return err
	}
	cfg = c
	log = logger.NewWithWriter(cmd.ErrOrStderr(), verbose || cfg.Log.Verbose, false)
	slog.SetDefault(log)
	return nil
}

// printJSON writes v to the command's output as indented JSON.
func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/warp/charge-rate-engine/config"
	"github.com/warp/charge-rate-engine/logging"
)

var (
	cfgFile string
	verbose bool

	// Set by PersistentPreRunE before any subcommand runs.
	cfg    *config.Config
	logger *zap.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "charge-rate-engine",
	Short: "Employer charge rates for apprentices",
	Long: `charge-rate-engine turns award pay rates into fully loaded employer
charge rates and quotes.

Examples:
  charge-rate-engine serve --db memory
  charge-rate-engine rate --award MA000025 --year 2025 --level 2
  charge-rate-engine estimate --pay-rate 25`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("error loading config: %w", err)
		}
		if verbose {
			loaded.Logging.Level = "debug"
		}

		l, err := logging.New(loaded.Logging)
		if err != nil {
			return fmt.Errorf("error initializing logging: %w", err)
		}
		cfg, logger = loaded, l
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

// Execute runs the CLI
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (YAML)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(rateCmd)
	rootCmd.AddCommand(estimateCmd)
}

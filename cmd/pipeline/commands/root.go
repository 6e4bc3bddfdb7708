package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"bank_reviews/internal/adapters/observability"
	"bank_reviews/internal/shared"
)

var (
	flagConfig  string
	flagDataDir string
	flagCount   int
	flagWorkers int
)

// cfg and logger are populated by the root pre-run hook.
var (
	cfg    shared.Config
	logger zerolog.Logger
)

var rootCmd = &cobra.Command{
	Use:           "pipeline",
	Short:         "Batch pipeline for bank app store reviews",
	Long:          "pipeline scrapes bank app reviews, cleans them, enriches them with NLP signals, aggregates sentiment and themes, and persists the result.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg = shared.Load()
		if flagConfig != "" {
			pf, err := shared.LoadPipelineFile(flagConfig)
			if err != nil {
				return err
			}
			cfg.Pipeline = pf
		}
		if cmd.Flags().Changed("data-dir") {
			cfg.DataDir = flagDataDir
		}
		if cmd.Flags().Changed("count") {
			cfg.ReviewCount = flagCount
		}
		if cmd.Flags().Changed("workers") && flagWorkers > 0 {
			cfg.EnrichWorkers = flagWorkers
		}

		logger = observability.NewLogger(cfg.AppEnv, "pipeline")
		log.Logger = logger
		observability.Serve(cfg.MetricsAddr)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "path to the banks/themes YAML file (default: embedded)")
	rootCmd.PersistentFlags().StringVar(&flagDataDir, "data-dir", "", "directory for the CSV artifacts (default $DATA_DIR or ./data)")
	rootCmd.PersistentFlags().IntVar(&flagCount, "count", 0, "reviews to request per bank")
	rootCmd.PersistentFlags().IntVar(&flagWorkers, "workers", 0, "concurrent enrichment workers")

	rootCmd.AddCommand(scrapeCmd, cleanCmd, analyzeCmd, persistCmd, runCmd, scheduleCmd)
}

func ExecuteContext(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

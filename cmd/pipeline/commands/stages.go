package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"bank_reviews/internal/adapters/observability"
)

var scrapeCmd = &cobra.Command{
	Use:   "scrape",
	Short: "Fetch reviews for every configured bank into {bank}_reviews.csv",
	RunE: func(cmd *cobra.Command, args []string) error {
		l, _ := observability.WithRun(logger)
		p, d, err := newPipeline(cmd.Context(), cfg, l, "scrape")
		if err != nil {
			return err
		}
		defer d.close()

		byBank := p.Scraper.ScrapeAll(cmd.Context(), p.Banks, p.ReviewCount)
		total := 0
		for _, rows := range byBank {
			total += len(rows)
		}
		l.Info().Int("banks", len(byBank)).Int("reviews", total).Msg("scrape finished")
		return nil
	},
}

var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Consolidate and clean the per-bank raw files into clean_reviews.csv",
	RunE: func(cmd *cobra.Command, args []string) error {
		l, _ := observability.WithRun(logger)
		p, d, err := newPipeline(cmd.Context(), cfg, l)
		if err != nil {
			return err
		}
		defer d.close()

		clean, rep, err := p.CleanFromFiles()
		if err != nil {
			return err
		}
		l.Info().Int("rows", len(clean)).Int("date_fallbacks", rep.DateFallbacks).Msg("clean finished")
		return nil
	},
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Enrich clean_reviews.csv and write the analysis and aggregation files",
	RunE: func(cmd *cobra.Command, args []string) error {
		l, _ := observability.WithRun(logger)
		p, d, err := newPipeline(cmd.Context(), cfg, l, "analyze")
		if err != nil {
			return err
		}
		defer d.close()

		enriched, sent, _, err := p.AnalyzeFromFile(cmd.Context())
		if err != nil {
			return err
		}
		l.Info().Int("rows", len(enriched)).Int("groups", len(sent)).Msg("analysis finished")
		return nil
	},
}

var persistCmd = &cobra.Command{
	Use:   "persist",
	Short: "Replace the banks and reviews tables with analysis_results.csv",
	RunE: func(cmd *cobra.Command, args []string) error {
		l, _ := observability.WithRun(logger)
		p, d, err := newPipeline(cmd.Context(), cfg, l, "persist")
		if err != nil {
			return err
		}
		defer d.close()
		return p.PersistFromFile(cmd.Context())
	},
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run scrape, clean, analyze and persist in sequence",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, err := runOnce(cmd)
		return err
	},
}

func runOnce(cmd *cobra.Command) (string, error) {
	l, runID := observability.WithRun(logger)
	p, d, err := newPipeline(cmd.Context(), cfg, l, "scrape", "analyze", "persist")
	if err != nil {
		return runID, err
	}
	defer d.close()

	res, err := p.Run(cmd.Context())
	if err != nil {
		return runID, fmt.Errorf("run %s: %w", runID, err)
	}
	l.Info().
		Int("scraped", res.Scraped).
		Int("clean", len(res.Enriched)).
		Int("sentiment_groups", len(res.Sentiment)).
		Msg("run finished")
	return runID, nil
}

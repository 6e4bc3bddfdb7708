package app

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"bank_reviews/internal/adapters/observability"
	"bank_reviews/internal/dataset"
	"bank_reviews/internal/domain"
)

// Artifact file names under the data directory.
const (
	CleanFile     = "clean_reviews.csv"
	AnalysisFile  = "analysis_results.csv"
	SentimentFile = "sentiment_aggregation.csv"
)

// ErrNothingScraped stops a run before persist would wipe both tables.
var ErrNothingScraped = errors.New("no reviews scraped for any bank")

// Pipeline wires the five stages. Each stage fully materializes its output,
// in memory and on disk, before the next one starts.
type Pipeline struct {
	Banks       []domain.Bank
	ReviewCount int
	DataDir     string

	Scraper  *ScrapeService
	Enricher *Enricher
	Persist  *PersistService

	Log zerolog.Logger
}

// Result summarizes a full run.
type Result struct {
	Scraped    int
	Clean      CleanReport
	Enriched   []domain.EnrichedReview
	Sentiment  []domain.SentimentAggregate
	ThemeCount domain.ThemeCounts
}

func (p *Pipeline) path(name string) string { return filepath.Join(p.DataDir, name) }

// Run executes scrape -> clean -> enrich -> aggregate -> persist.
func (p *Pipeline) Run(ctx context.Context) (Result, error) {
	var res Result

	byBank := p.Scraper.ScrapeAll(ctx, p.Banks, p.ReviewCount)
	for _, rows := range byBank {
		res.Scraped += len(rows)
	}
	if res.Scraped == 0 {
		return res, ErrNothingScraped
	}

	clean, rep, err := p.CleanRows(Consolidate(p.Banks, byBank))
	if err != nil {
		return res, err
	}
	res.Clean = rep

	res.Enriched, res.Sentiment, res.ThemeCount, err = p.Analyze(ctx, clean)
	if err != nil {
		return res, err
	}

	if err := p.Persist.Persist(ctx, dataset.FromEnriched(res.Enriched)); err != nil {
		return res, err
	}
	p.Log.Info().Int("scraped", res.Scraped).Int("persisted", len(res.Enriched)).Msg("pipeline completed")
	return res, nil
}

// CleanRows cleans consolidated rows and writes the clean dataset.
func (p *Pipeline) CleanRows(rows []domain.RawReview) ([]domain.Review, CleanReport, error) {
	start := time.Now()
	clean, rep := Clean(rows, p.Log.With().Str("stage", "clean").Logger())
	if err := dataset.WriteCSV(p.path(CleanFile), dataset.FromClean(clean)); err != nil {
		return nil, rep, err
	}
	observability.ObserveStage("clean", time.Since(start))
	p.Log.Info().Str("file", p.path(CleanFile)).Int("rows", len(clean)).Msg("saved clean dataset")
	return clean, rep, nil
}

// CleanFromFiles reads the per-bank raw files; a missing file is fatal.
func (p *Pipeline) CleanFromFiles() ([]domain.Review, CleanReport, error) {
	byBank, err := LoadRaw(p.DataDir, p.Banks)
	if err != nil {
		return nil, CleanReport{}, fmt.Errorf("load raw reviews: %w", err)
	}
	return p.CleanRows(Consolidate(p.Banks, byBank))
}

// Analyze enriches and aggregates, writing the analysis and sentiment files.
func (p *Pipeline) Analyze(ctx context.Context, clean []domain.Review) ([]domain.EnrichedReview, []domain.SentimentAggregate, domain.ThemeCounts, error) {
	enriched, err := p.Enricher.EnrichAll(ctx, clean)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("enrich: %w", err)
	}
	if err := dataset.WriteCSV(p.path(AnalysisFile), dataset.FromEnriched(enriched)); err != nil {
		return nil, nil, nil, err
	}
	p.Log.Info().Str("file", p.path(AnalysisFile)).Msg("saved analysis results")

	start := time.Now()
	sent := AggregateSentiment(enriched)
	themes := AggregateThemes(enriched)
	observability.ObserveStage("aggregate", time.Since(start))

	if err := dataset.WriteCSV(p.path(SentimentFile), dataset.FromAggregates(sent)); err != nil {
		return nil, nil, nil, err
	}
	p.Log.Info().Str("file", p.path(SentimentFile)).Int("groups", len(sent)).Msg("saved sentiment aggregation")
	p.logThemes(themes)
	return enriched, sent, themes, nil
}

// AnalyzeFromFile runs enrichment and aggregation over the clean file.
func (p *Pipeline) AnalyzeFromFile(ctx context.Context) ([]domain.EnrichedReview, []domain.SentimentAggregate, domain.ThemeCounts, error) {
	f, err := dataset.ReadCSV(p.path(CleanFile))
	if err != nil {
		return nil, nil, nil, err
	}
	clean, err := dataset.ToClean(f)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("clean dataset: %w", err)
	}
	return p.Analyze(ctx, clean)
}

// PersistFromFile loads the analysis file and writes both tables.
func (p *Pipeline) PersistFromFile(ctx context.Context) error {
	f, err := dataset.ReadCSV(p.path(AnalysisFile))
	if err != nil {
		return err
	}
	return p.Persist.Persist(ctx, f)
}

func (p *Pipeline) logThemes(tc domain.ThemeCounts) {
	banks := make([]string, 0, len(tc))
	for b := range tc {
		banks = append(banks, b)
	}
	sort.Strings(banks)
	for _, b := range banks {
		d := zerolog.Dict()
		for th, n := range tc[b] {
			d = d.Int(th, n)
		}
		p.Log.Info().Str("bank", b).Dict("themes", d).Msg("theme counts")
	}
}

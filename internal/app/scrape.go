package app

import (
	"context"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"bank_reviews/internal/adapters/observability"
	"bank_reviews/internal/dataset"
	"bank_reviews/internal/domain"
)

// ScrapeService retrieves reviews per bank and writes one raw file per bank.
type ScrapeService struct {
	src     domain.ReviewSource
	query   domain.ReviewQuery
	dataDir string
	delay   time.Duration
	log     zerolog.Logger

	// sleep is swapped in tests; it returns false if ctx ended first.
	sleep func(ctx context.Context, d time.Duration) bool
}

func NewScrapeService(src domain.ReviewSource, q domain.ReviewQuery, dataDir string, delay time.Duration, l zerolog.Logger) *ScrapeService {
	return &ScrapeService{src: src, query: q, dataDir: dataDir, delay: delay, log: l, sleep: sleepCtx}
}

// RawPath is the per-bank raw export location.
func RawPath(dataDir, bank string) string {
	return filepath.Join(dataDir, bank+"_reviews.csv")
}

// ScrapeBank fetches up to count reviews for one bank. Any failure is logged
// and yields no rows; it never aborts the run.
func (s *ScrapeService) ScrapeBank(ctx context.Context, b domain.Bank, count int) []domain.RawReview {
	l := s.log.With().Str("bank", b.Name).Str("app_id", b.AppID).Logger()
	l.Info().Int("count", count).Msg("fetching reviews")

	q := s.query
	q.Count = count
	items, err := s.src.FetchReviews(ctx, b.AppID, q)
	if err != nil {
		l.Error().Err(err).Msg("fetch reviews failed")
		observability.ObserveFallback("source")
		return nil
	}
	if len(items) == 0 {
		l.Warn().Msg("no reviews found")
		return nil
	}

	rows := mapReviews(b.Name, items)
	path := RawPath(s.dataDir, b.Name)
	if err := dataset.WriteCSV(path, dataset.FromRaw(rows)); err != nil {
		l.Error().Err(err).Msg("write raw reviews failed")
		return nil
	}
	l.Info().Int("rows", len(rows)).Str("file", path).Msg("saved raw reviews")

	// rate-limit courtesy delay between banks
	s.sleep(ctx, s.delay)
	return rows
}

// ScrapeAll returns bank name -> rows. Banks that yielded nothing are absent.
func (s *ScrapeService) ScrapeAll(ctx context.Context, banks []domain.Bank, count int) map[string][]domain.RawReview {
	start := time.Now()
	out := make(map[string][]domain.RawReview, len(banks))
	for _, b := range banks {
		if ctx.Err() != nil {
			s.log.Warn().Err(ctx.Err()).Msg("scrape interrupted")
			break
		}
		if rows := s.ScrapeBank(ctx, b, count); len(rows) > 0 {
			out[b.Name] = rows
			observability.ObserveRows("scrape", b.Name, len(rows))
		}
	}
	observability.ObserveStage("scrape", time.Since(start))
	return out
}

// sleepCtx waits for d or returns early if ctx is done.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

package commands

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"bank_reviews/internal/adapters/nlp"
	"bank_reviews/internal/adapters/playstore"
	redisad "bank_reviews/internal/adapters/redis"
	"bank_reviews/internal/app"
	"bank_reviews/internal/domain"
	"bank_reviews/internal/shared"
	"bank_reviews/internal/storage"
)

// deps owns whatever a stage opened; close releases it.
type deps struct {
	closers []func() error
}

func (d *deps) close() {
	for i := len(d.closers) - 1; i >= 0; i-- {
		_ = d.closers[i]()
	}
}

// newPipeline builds a Pipeline carrying only the collaborators the stage
// needs, so offline stages never dial remote services.
func newPipeline(ctx context.Context, c shared.Config, l zerolog.Logger, stages ...string) (*app.Pipeline, *deps, error) {
	d := &deps{}
	p := &app.Pipeline{
		Banks:       c.Pipeline.Banks,
		ReviewCount: c.ReviewCount,
		DataDir:     c.DataDir,
		Log:         l,
	}
	for _, s := range stages {
		switch s {
		case "scrape":
			src, err := playstore.New(c.SourceBase, c.SourceRPS)
			if err != nil {
				d.close()
				return nil, nil, err
			}
			q := domain.ReviewQuery{Lang: c.Lang, Country: c.Country, Sort: "newest", Count: c.ReviewCount}
			p.Scraper = app.NewScrapeService(src, q, c.DataDir, c.BankDelay, l.With().Str("stage", "scrape").Logger())

		case "analyze":
			var sm domain.SentimentModel = nlp.NewSentimentClient(c.SentimentURL, c.SentimentToken)
			if cache := openCache(ctx, c, l, d, redisad.PrefixPipeline); cache != nil {
				sm = app.NewCachedSentimentModel(sm, cache, c.CacheTTL, l.With().Str("stage", "enrich").Logger())
			}
			p.Enricher = app.NewEnricher(
				nlp.NewLinguisticClient(c.NLPURL),
				sm,
				c.Pipeline.Themes,
				c.EnrichWorkers,
				l.With().Str("stage", "enrich").Logger(),
			)

		case "persist":
			st, err := storage.Open(ctx, c.DB)
			if err != nil {
				d.close()
				return nil, nil, err
			}
			d.closers = append(d.closers, st.Close)
			p.Persist = app.NewPersistService(st, l.With().Str("stage", "persist").Logger())
			if cache := openCache(ctx, c, l, d, redisad.PrefixAPI); cache != nil {
				p.Persist.WithQueryCache(cache)
			}
		}
	}
	return p, d, nil
}

// openCache returns nil when Redis is not configured or unreachable.
func openCache(ctx context.Context, c shared.Config, l zerolog.Logger, d *deps, prefix string) domain.Cache {
	if c.RedisAddr == "" {
		return nil
	}
	rc := redisad.New(c.RedisAddr, c.RedisPass, c.RedisDB, prefix)
	pctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := rc.Ping(pctx); err != nil {
		l.Warn().Err(err).Str("prefix", prefix).Msg("redis unavailable, continuing uncached")
		_ = rc.Close()
		return nil
	}
	d.closers = append(d.closers, rc.Close)
	return rc
}

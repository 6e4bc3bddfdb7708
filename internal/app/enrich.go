package app

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"bank_reviews/internal/adapters/observability"
	"bank_reviews/internal/domain"
)

// Enricher derives tokens, keywords, sentiment and themes for cleaned reviews.
type Enricher struct {
	lang     domain.LinguisticModel
	sent     domain.SentimentModel
	taxonomy domain.Taxonomy
	workers  int
	log      zerolog.Logger
}

func NewEnricher(lm domain.LinguisticModel, sm domain.SentimentModel, tax domain.Taxonomy, workers int, l zerolog.Logger) *Enricher {
	if workers < 1 {
		workers = 1
	}
	return &Enricher{lang: lm, sent: sm, taxonomy: tax, workers: workers, log: l}
}

// EnrichAll keeps input order and never adds or drops rows. With one worker
// records are processed strictly sequentially.
func (e *Enricher) EnrichAll(ctx context.Context, rows []domain.Review) ([]domain.EnrichedReview, error) {
	start := time.Now()
	e.log.Info().Int("rows", len(rows)).Int("workers", e.workers).Msg("processing reviews")

	out := make([]domain.EnrichedReview, len(rows))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)
	for i := range rows {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			out[i] = e.Enrich(gctx, rows[i])
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	observability.ObserveRows("enrich", "enriched", len(out))
	observability.ObserveStage("enrich", time.Since(start))
	return out, nil
}

// Enrich never fails: model errors degrade to empty tokens/keywords and the
// neutral sentiment.
func (e *Enricher) Enrich(ctx context.Context, r domain.Review) domain.EnrichedReview {
	tokens := e.PreprocessText(ctx, r.Text)
	keywords := e.ExtractKeywords(ctx, r.Text)
	s := e.ClassifySentiment(ctx, r.Text)
	return domain.EnrichedReview{
		Review:    r,
		Tokens:    tokens,
		Keywords:  keywords,
		Sentiment: s.Value,
		Themes:    AssignThemes(keywords, e.taxonomy),
	}
}

// PreprocessText lowercases, drops stopwords, punctuation and non-alphabetic
// tokens, and returns lemmas.
func (e *Enricher) PreprocessText(ctx context.Context, text string) []string {
	doc, err := e.lang.Analyze(ctx, strings.ToLower(text))
	if err != nil {
		e.log.Warn().Err(err).Msg("tokenization failed")
		observability.ObserveFallback("nlp")
		return []string{}
	}
	tokens := make([]string, 0, len(doc.Tokens))
	for _, t := range doc.Tokens {
		if t.IsStop || t.IsPunct || !t.IsAlpha {
			continue
		}
		tokens = append(tokens, t.Lemma)
	}
	return tokens
}

// ExtractKeywords keeps noun phrases of at most three words, lowercased.
func (e *Enricher) ExtractKeywords(ctx context.Context, text string) []string {
	doc, err := e.lang.Analyze(ctx, text)
	if err != nil {
		e.log.Warn().Err(err).Msg("keyword extraction failed")
		observability.ObserveFallback("nlp")
		return []string{}
	}
	keywords := make([]string, 0, len(doc.NounChunks))
	for _, chunk := range doc.NounChunks {
		if len(strings.Fields(chunk)) <= 3 {
			keywords = append(keywords, strings.ToLower(chunk))
		}
	}
	return keywords
}

// ClassifySentiment falls back to neutral/0.0 on any model error.
func (e *Enricher) ClassifySentiment(ctx context.Context, text string) domain.Outcome[domain.Sentiment] {
	s, err := e.sent.Classify(ctx, text)
	if err != nil {
		e.log.Warn().Err(err).Int("chars", len(text)).Msg("error processing review")
		observability.ObserveFallback("sentiment")
		return domain.FallbackTo(domain.NeutralSentiment, err)
	}
	s.Label = strings.ToLower(s.Label)
	return domain.Ok(s)
}

/********** classifier cache **********/

// CachedSentimentModel memoizes successful classifications by text hash.
type CachedSentimentModel struct {
	next  domain.SentimentModel
	cache domain.Cache
	ttl   time.Duration
	log   zerolog.Logger
}

// NewCachedSentimentModel wraps next. Cache errors are logged and treated
// as misses.
func NewCachedSentimentModel(next domain.SentimentModel, c domain.Cache, ttl time.Duration, l zerolog.Logger) *CachedSentimentModel {
	return &CachedSentimentModel{next: next, cache: c, ttl: ttl, log: l}
}

func (m *CachedSentimentModel) Classify(ctx context.Context, text string) (domain.Sentiment, error) {
	key := sentimentKey(text)
	var s domain.Sentiment
	ok, err := m.cache.Get(ctx, key, &s)
	if err != nil {
		m.log.Warn().Err(err).Str("key", key).Msg("sentiment cache get failed")
	} else if ok {
		return s, nil
	}
	s, err = m.next.Classify(ctx, text)
	if err != nil {
		return domain.Sentiment{}, err // fallbacks are never cached
	}
	if err := m.cache.Set(ctx, key, s, int(m.ttl.Seconds())); err != nil {
		m.log.Warn().Err(err).Str("key", key).Msg("sentiment cache set failed")
	}
	return s, nil
}

func sentimentKey(text string) string {
	sum := sha1.Sum([]byte(text))
	return "sentiment:" + hex.EncodeToString(sum[:])
}

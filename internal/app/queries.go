package app

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"time"

	"bank_reviews/internal/domain"
)

// GenerationKey names the cache entry persist rewrites after every table
// swap. Query keys are scoped by its value, so a new generation makes every
// earlier entry unreachable.
const GenerationKey = "generation"

// QueryService serves the persisted tables, read-through cached when a
// cache is configured.
type QueryService struct {
	repo     domain.ReviewRepository
	cache    domain.Cache
	cacheTTL time.Duration
}

func NewQueryService(r domain.ReviewRepository, c domain.Cache, ttl time.Duration) *QueryService {
	return &QueryService{repo: r, cache: c, cacheTTL: ttl}
}

func (s *QueryService) ListBanks(ctx context.Context) ([]string, error) {
	var out []string
	if s.cacheGet(ctx, "banks", &out) {
		return out, nil
	}
	out, err := s.repo.ListBanks(ctx)
	if err != nil {
		return nil, err
	}
	s.cacheSet(ctx, "banks", out)
	return out, nil
}

// ListReviews returns up to pg.Limit reviews of bank, newest first.
// Unknown banks yield domain.ErrNotFound.
func (s *QueryService) ListReviews(ctx context.Context, bank string, pg domain.PageQuery) (domain.ReviewsPage, error) {
	if err := s.requireBank(ctx, bank); err != nil {
		return domain.ReviewsPage{}, err
	}
	key := fmt.Sprintf("reviews:%s:%d", bank, pg.Limit)
	var out domain.ReviewsPage
	if s.cacheGet(ctx, key, &out) {
		return out, nil
	}

	rs, err := s.repo.ListReviews(ctx, bank, pg)
	if err != nil {
		return domain.ReviewsPage{}, err
	}

	// copy slice to avoid aliasing the repo's backing array
	copyRS := deepCopyReviewsPage(rs)

	// optional size guard
	if b, _ := json.Marshal(copyRS); len(b) < 1_000_000 {
		s.cacheSet(ctx, key, copyRS)
	}
	return copyRS, nil
}

func (s *QueryService) SentimentByRating(ctx context.Context, bank string) ([]domain.SentimentAggregate, error) {
	if err := s.requireBank(ctx, bank); err != nil {
		return nil, err
	}
	key := "sentiment:" + bank
	var out []domain.SentimentAggregate
	if s.cacheGet(ctx, key, &out) {
		return out, nil
	}
	out, err := s.repo.SentimentByRating(ctx, bank)
	if err != nil {
		return nil, err
	}
	s.cacheSet(ctx, key, out)
	return out, nil
}

func (s *QueryService) requireBank(ctx context.Context, bank string) error {
	banks, err := s.ListBanks(ctx)
	if err != nil {
		return err
	}
	if !slices.Contains(banks, bank) {
		return domain.ErrNotFound
	}
	return nil
}

func (s *QueryService) cacheGet(ctx context.Context, key string, dst any) bool {
	if s.cache == nil {
		return false
	}
	ok, _ := s.cache.Get(ctx, s.scoped(ctx, key), dst)
	return ok
}

func (s *QueryService) cacheSet(ctx context.Context, key string, v any) {
	if s.cache == nil {
		return
	}
	_ = s.cache.Set(ctx, s.scoped(ctx, key), v, int(s.cacheTTL.Seconds()))
}

// scoped prefixes key with the current data generation; "0" before the
// first persist.
func (s *QueryService) scoped(ctx context.Context, key string) string {
	gen := "0"
	if ok, err := s.cache.Get(ctx, GenerationKey, &gen); err != nil || !ok {
		gen = "0"
	}
	return gen + ":" + key
}

func deepCopyReviewsPage(in domain.ReviewsPage) domain.ReviewsPage {
	var out domain.ReviewsPage
	if n := len(in.Items); n > 0 {
		out.Items = make([]domain.StoredReview, n)
		copy(out.Items, in.Items)
	}
	return out
}

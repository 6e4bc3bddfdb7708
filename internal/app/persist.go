package app

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"bank_reviews/internal/adapters/observability"
	"bank_reviews/internal/dataset"
	"bank_reviews/internal/domain"
)

// PersistService writes the bank dimension and the reviews fact table.
type PersistService struct {
	repo    domain.ReviewRepository
	queries domain.Cache
	log     zerolog.Logger
}

func NewPersistService(r domain.ReviewRepository, l zerolog.Logger) *PersistService {
	return &PersistService{repo: r, log: l}
}

// WithQueryCache makes every successful swap start a new query cache
// generation, so API reads never outlive the tables they were built from.
func (s *PersistService) WithQueryCache(c domain.Cache) *PersistService {
	s.queries = c
	return s
}

// Persist decodes every row before touching storage, then replaces both
// tables in one repository call. A bad frame writes nothing.
func (s *PersistService) Persist(ctx context.Context, f *dataset.Frame) error {
	start := time.Now()
	if err := f.Require(dataset.StoredColumns...); err != nil {
		return fmt.Errorf("persist: %w", err)
	}
	rows, err := dataset.ToStored(f)
	if err != nil {
		return fmt.Errorf("persist: %w", err)
	}
	names := distinctBanks(f)
	if err := s.repo.ReplaceAll(ctx, names, rows); err != nil {
		return fmt.Errorf("persist: %w", err)
	}
	observability.ObserveRows("persist", "banks", len(names))
	observability.ObserveRows("persist", "reviews", len(rows))
	observability.ObserveStage("persist", time.Since(start))
	s.log.Info().Int("banks", len(names)).Int("reviews", len(rows)).Msg("banks and reviews tables replaced")
	s.bumpGeneration(ctx)
	return nil
}

func (s *PersistService) bumpGeneration(ctx context.Context) {
	if s.queries == nil {
		return
	}
	gen := uuid.NewString()
	if err := s.queries.Set(ctx, GenerationKey, gen, 0); err != nil {
		s.log.Warn().Err(err).Msg("query cache generation not bumped, API may serve stale reads until TTL")
		return
	}
	s.log.Debug().Str("generation", gen).Msg("query cache generation bumped")
}

// WriteBanks replaces the banks table with the distinct bank names in f.
func (s *PersistService) WriteBanks(ctx context.Context, f *dataset.Frame) error {
	if err := f.Require(dataset.ColBank); err != nil {
		return fmt.Errorf("write banks: %w", err)
	}
	names := distinctBanks(f)
	if err := s.repo.ReplaceBanks(ctx, names); err != nil {
		return fmt.Errorf("write banks: %w", err)
	}
	observability.ObserveRows("persist", "banks", len(names))
	s.log.Info().Int("banks", len(names)).Msg("banks table replaced")
	s.bumpGeneration(ctx)
	return nil
}

// InsertReviews replaces the reviews table with f's fact columns.
func (s *PersistService) InsertReviews(ctx context.Context, f *dataset.Frame) error {
	rows, err := dataset.ToStored(f)
	if err != nil {
		return fmt.Errorf("insert reviews: %w", err)
	}
	if err := s.repo.ReplaceReviews(ctx, rows); err != nil {
		return fmt.Errorf("insert reviews: %w", err)
	}
	observability.ObserveRows("persist", "reviews", len(rows))
	s.log.Info().Int("reviews", len(rows)).Msg("reviews table replaced")
	s.bumpGeneration(ctx)
	return nil
}

// distinctBanks returns bank names in first-seen order.
func distinctBanks(f *dataset.Frame) []string {
	seen := make(map[string]struct{})
	var names []string
	for i := range f.Rows {
		n := f.Get(i, dataset.ColBank)
		if _, dup := seen[n]; dup {
			continue
		}
		seen[n] = struct{}{}
		names = append(names, n)
	}
	return names
}

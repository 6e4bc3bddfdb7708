package app

import (
	"cmp"
	"slices"

	"bank_reviews/internal/domain"
)

type ratingKey struct {
	bank   string
	rating int
}

// AggregateSentiment groups by (bank, rating) and returns the mean score and
// count per observed group, sorted by bank then rating.
func AggregateSentiment(rows []domain.EnrichedReview) []domain.SentimentAggregate {
	sums := make(map[ratingKey]float64)
	counts := make(map[ratingKey]int)
	for _, r := range rows {
		k := ratingKey{r.Bank, r.Rating}
		sums[k] += r.Sentiment.Score
		counts[k]++
	}

	out := make([]domain.SentimentAggregate, 0, len(counts))
	for k, n := range counts {
		out = append(out, domain.SentimentAggregate{
			Bank:      k.bank,
			Rating:    k.rating,
			MeanScore: sums[k] / float64(n),
			Count:     n,
		})
	}
	slices.SortFunc(out, func(a, b domain.SentimentAggregate) int {
		if c := cmp.Compare(a.Bank, b.Bank); c != 0 {
			return c
		}
		return cmp.Compare(a.Rating, b.Rating)
	})
	return out
}

// AggregateThemes counts theme memberships per bank; a review with two
// themes increments both counters.
func AggregateThemes(rows []domain.EnrichedReview) domain.ThemeCounts {
	out := make(domain.ThemeCounts)
	for _, r := range rows {
		byTheme, ok := out[r.Bank]
		if !ok {
			byTheme = make(map[string]int)
			out[r.Bank] = byTheme
		}
		for _, th := range r.Themes {
			byTheme[th]++
		}
	}
	return out
}

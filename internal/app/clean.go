package app

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/rs/zerolog"

	"bank_reviews/internal/adapters/observability"
	"bank_reviews/internal/dataset"
	"bank_reviews/internal/domain"
)

// CleanStep is one before/after row count.
type CleanStep struct {
	Name   string
	Before int
	After  int
}

// CleanReport records every step plus how many dates fell back to the epoch.
type CleanReport struct {
	Steps         []CleanStep
	DateFallbacks int
}

func (r *CleanReport) step(l zerolog.Logger, name string, before, after int) {
	r.Steps = append(r.Steps, CleanStep{Name: name, Before: before, After: after})
	observability.ObserveRows("clean", name, after)
	l.Info().Str("step", name).Int("before", before).Int("after", after).Msg("clean step")
}

// LoadRaw reads every configured bank's raw file. A missing or malformed
// file is fatal.
func LoadRaw(dataDir string, banks []domain.Bank) (map[string][]domain.RawReview, error) {
	out := make(map[string][]domain.RawReview, len(banks))
	for _, b := range banks {
		f, err := dataset.ReadCSV(RawPath(dataDir, b.Name))
		if err != nil {
			return nil, err
		}
		rows, err := dataset.ToRaw(f)
		if err != nil {
			return nil, fmt.Errorf("%s raw reviews: %w", b.Name, err)
		}
		out[b.Name] = rows
	}
	return out, nil
}

// Consolidate concatenates per-bank rows in configured bank order.
func Consolidate(banks []domain.Bank, byBank map[string][]domain.RawReview) []domain.RawReview {
	var out []domain.RawReview
	for _, b := range banks {
		out = append(out, byBank[b.Name]...)
	}
	return out
}

type dedupeKey struct{ review, date, bank string }

// Clean runs dedupe, required-field drop, date fill and normalization, and
// rating coercion, in that order. Bad individual rows never fail the stage.
func Clean(rows []domain.RawReview, l zerolog.Logger) ([]domain.Review, CleanReport) {
	var rep CleanReport
	l.Info().Int("rows", len(rows)).Msg("initial rows")

	// 1) dedupe on (review, date, bank), keep first. The date part of the key
	// is the canonical day so a second pass over clean output removes nothing.
	seen := make(map[dedupeKey]struct{}, len(rows))
	deduped := make([]domain.RawReview, 0, len(rows))
	for _, r := range rows {
		k := dedupeKey{r.Review, canonicalDate(r.Date), r.Bank}
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		deduped = append(deduped, r)
	}
	rep.step(l, "dedupe", len(rows), len(deduped))

	// 2) drop missing review or rating
	type candidate struct {
		raw    domain.RawReview
		rating float64
	}
	present := make([]candidate, 0, len(deduped))
	for _, r := range deduped {
		if strings.TrimSpace(r.Review) == "" {
			continue
		}
		rating, ok := parseRating(r.Rating)
		if !ok {
			continue
		}
		present = append(present, candidate{raw: r, rating: rating})
	}
	rep.step(l, "drop_missing", len(deduped), len(present))

	// 3+4) fill and normalize dates
	out := make([]domain.Review, 0, len(present))
	for _, c := range present {
		date := fillDate(c.raw.Date)
		d := NormalizeDate(date)
		if d.Fallback {
			rep.DateFallbacks++
			observability.ObserveFallback("date")
			l.Warn().Str("date", date).Err(d.Err).Msg("invalid date encountered")
		}

		// 5) integer rating in [1,5]
		rating, ok := CoerceRating(c.rating)
		if !ok {
			continue
		}
		out = append(out, domain.Review{
			ReviewID:      c.raw.ReviewID,
			UserName:      c.raw.UserName,
			Bank:          c.raw.Bank,
			Text:          c.raw.Review,
			Rating:        rating,
			Date:          d.Value,
			Source:        c.raw.Source,
			AppVersion:    c.raw.AppVersion,
			ThumbsUpCount: c.raw.ThumbsUpCount,
		})
	}
	rep.step(l, "rating_range", len(present), len(out))
	l.Info().Int("rows", len(out)).Int("date_fallbacks", rep.DateFallbacks).Msg("clean dataset ready")
	return out, rep
}

// NormalizeDate parses s in any common layout and truncates it to a UTC
// calendar day. Unparseable input falls back to the epoch placeholder.
func NormalizeDate(s string) domain.Outcome[time.Time] {
	t, err := dateparse.ParseIn(strings.TrimSpace(s), time.UTC)
	if err != nil {
		return domain.FallbackTo(epoch, err)
	}
	return domain.Ok(time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC))
}

var epoch = time.Date(1970, 1, 1, 0, 0, 0, 0, time.UTC)

func fillDate(s string) string {
	if isMissing(s) {
		return domain.EpochDate
	}
	return s
}

func canonicalDate(s string) string {
	return NormalizeDate(fillDate(s)).Value.Format(domain.DateLayout)
}

// CoerceRating truncates to an integer and checks the [1,5] range.
func CoerceRating(v float64) (int, bool) {
	n := int(math.Trunc(v))
	if n < 1 || n > 5 {
		return 0, false
	}
	return n, true
}

func parseRating(s string) (float64, bool) {
	if isMissing(s) {
		return 0, false
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// isMissing treats blanks and the usual NA spellings as absent.
func isMissing(s string) bool {
	switch strings.TrimSpace(s) {
	case "", domain.MissingTimestamp, "NA", "NaN", "nan", "null", "None":
		return true
	}
	return false
}

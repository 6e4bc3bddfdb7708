package dataset

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"bank_reviews/internal/domain"
)

// Column names shared by every artifact.
const (
	ColReviewID       = "review_id"
	ColUserName       = "user_name"
	ColRating         = "rating"
	ColDate           = "date"
	ColReview         = "review"
	ColAppVersion     = "app_version"
	ColRepliedAt      = "replied_at"
	ColReplyContent   = "reply_content"
	ColThumbsUp       = "thumbs_up_count"
	ColUserImage      = "user_image_url"
	ColBank           = "bank"
	ColSource         = "source"
	ColTokens         = "tokens"
	ColKeywords       = "keywords"
	ColSentimentLabel = "sentiment_label"
	ColSentimentScore = "sentiment_score"
	ColThemes         = "themes"
	ColCount          = "count"
)

var RawColumns = []string{
	ColReviewID, ColUserName, ColRating, ColDate, ColReview, ColAppVersion,
	ColRepliedAt, ColReplyContent, ColThumbsUp, ColUserImage, ColBank, ColSource,
}

var CleanColumns = []string{
	ColReviewID, ColUserName, ColReview, ColRating, ColDate, ColBank, ColSource, ColAppVersion, ColThumbsUp,
}

var EnrichedColumns = []string{
	ColReviewID, ColBank, ColReview, ColRating, ColDate, ColSource,
	ColTokens, ColKeywords, ColSentimentLabel, ColSentimentScore, ColThemes,
}

var AggregateColumns = []string{ColBank, ColRating, ColSentimentScore, ColCount}

// ---- raw ----

func FromRaw(rows []domain.RawReview) *Frame {
	f := NewFrame(RawColumns...)
	for _, r := range rows {
		f.Append(r.ReviewID, r.UserName, r.Rating, r.Date, r.Review, r.AppVersion,
			r.RepliedAt, r.ReplyContent, r.ThumbsUpCount, r.UserImageURL, r.Bank, r.Source)
	}
	return f
}

// ToRaw needs review, rating, date and bank; other columns default to "".
func ToRaw(f *Frame) ([]domain.RawReview, error) {
	if err := f.Require(ColReview, ColRating, ColDate, ColBank); err != nil {
		return nil, err
	}
	out := make([]domain.RawReview, 0, f.Len())
	for i := range f.Rows {
		out = append(out, domain.RawReview{
			ReviewID:      f.Get(i, ColReviewID),
			UserName:      f.Get(i, ColUserName),
			Rating:        f.Get(i, ColRating),
			Date:          f.Get(i, ColDate),
			Review:        f.Get(i, ColReview),
			AppVersion:    f.Get(i, ColAppVersion),
			RepliedAt:     f.Get(i, ColRepliedAt),
			ReplyContent:  f.Get(i, ColReplyContent),
			ThumbsUpCount: f.Get(i, ColThumbsUp),
			UserImageURL:  f.Get(i, ColUserImage),
			Bank:          f.Get(i, ColBank),
			Source:        f.Get(i, ColSource),
		})
	}
	return out, nil
}

// ---- clean ----

func FromClean(rows []domain.Review) *Frame {
	f := NewFrame(CleanColumns...)
	for _, r := range rows {
		f.Append(r.ReviewID, r.UserName, r.Text, strconv.Itoa(r.Rating), r.DateString(),
			r.Bank, r.Source, r.AppVersion, r.ThumbsUpCount)
	}
	return f
}

// ToClean decodes a cleaned artifact. Values are expected to be valid
// already; a bad rating or date is reported with its line number.
func ToClean(f *Frame) ([]domain.Review, error) {
	if err := f.Require(ColReview, ColRating, ColDate, ColBank); err != nil {
		return nil, err
	}
	out := make([]domain.Review, 0, f.Len())
	for i := range f.Rows {
		r, err := decodeReview(f, i)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}

func decodeReview(f *Frame, i int) (domain.Review, error) {
	rating, err := strconv.Atoi(f.Get(i, ColRating))
	if err != nil {
		return domain.Review{}, fmt.Errorf("line %d: rating: %w", i+2, err)
	}
	date, err := time.Parse(domain.DateLayout, f.Get(i, ColDate))
	if err != nil {
		return domain.Review{}, fmt.Errorf("line %d: date: %w", i+2, err)
	}
	return domain.Review{
		ReviewID:      f.Get(i, ColReviewID),
		UserName:      f.Get(i, ColUserName),
		Bank:          f.Get(i, ColBank),
		Text:          f.Get(i, ColReview),
		Rating:        rating,
		Date:          date,
		Source:        f.Get(i, ColSource),
		AppVersion:    f.Get(i, ColAppVersion),
		ThumbsUpCount: f.Get(i, ColThumbsUp),
	}, nil
}

// ---- enriched ----

func FromEnriched(rows []domain.EnrichedReview) *Frame {
	f := NewFrame(EnrichedColumns...)
	for _, r := range rows {
		f.Append(r.ReviewID, r.Bank, r.Text, strconv.Itoa(r.Rating), r.DateString(), r.Source,
			jsonList(r.Tokens), jsonList(r.Keywords), r.Sentiment.Label,
			strconv.FormatFloat(r.Sentiment.Score, 'f', -1, 64), jsonList(r.Themes))
	}
	return f
}

func ToEnriched(f *Frame) ([]domain.EnrichedReview, error) {
	if err := f.Require(ColReview, ColRating, ColDate, ColBank, ColSentimentLabel, ColSentimentScore, ColThemes); err != nil {
		return nil, err
	}
	out := make([]domain.EnrichedReview, 0, f.Len())
	for i := range f.Rows {
		r, err := decodeReview(f, i)
		if err != nil {
			return nil, err
		}
		score, err := strconv.ParseFloat(f.Get(i, ColSentimentScore), 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: sentiment_score: %w", i+2, err)
		}
		er := domain.EnrichedReview{
			Review:    r,
			Sentiment: domain.Sentiment{Label: f.Get(i, ColSentimentLabel), Score: score},
		}
		for col, dst := range map[string]*[]string{ColTokens: &er.Tokens, ColKeywords: &er.Keywords, ColThemes: &er.Themes} {
			if *dst, err = parseList(f.Get(i, col)); err != nil {
				return nil, fmt.Errorf("line %d: %s: %w", i+2, col, err)
			}
		}
		out = append(out, er)
	}
	return out, nil
}

// ---- aggregates ----

func FromAggregates(rows []domain.SentimentAggregate) *Frame {
	f := NewFrame(AggregateColumns...)
	for _, a := range rows {
		f.Append(a.Bank, strconv.Itoa(a.Rating), strconv.FormatFloat(a.MeanScore, 'f', -1, 64), strconv.Itoa(a.Count))
	}
	return f
}

func jsonList(v []string) string {
	if v == nil {
		v = []string{}
	}
	b, _ := json.Marshal(v)
	return string(b)
}

func parseList(s string) ([]string, error) {
	if s == "" {
		return nil, nil
	}
	var out []string
	if err := json.Unmarshal([]byte(s), &out); err != nil {
		return nil, err
	}
	return out, nil
}

// StoredColumns are the frame columns the reviews fact table is built from.
var StoredColumns = []string{ColBank, ColReview, ColRating, ColDate, ColSource, ColSentimentLabel, ColSentimentScore}

// ToStored projects a frame onto the fact-table columns. It fails with
// *MissingColumnsError before decoding anything if a column is absent.
func ToStored(f *Frame) ([]domain.StoredReview, error) {
	if err := f.Require(StoredColumns...); err != nil {
		return nil, err
	}
	out := make([]domain.StoredReview, 0, f.Len())
	for i := range f.Rows {
		rating, err := strconv.Atoi(f.Get(i, ColRating))
		if err != nil {
			return nil, fmt.Errorf("line %d: rating: %w", i+2, err)
		}
		date, err := time.Parse(domain.DateLayout, f.Get(i, ColDate))
		if err != nil {
			return nil, fmt.Errorf("line %d: date: %w", i+2, err)
		}
		score, err := strconv.ParseFloat(f.Get(i, ColSentimentScore), 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: sentiment_score: %w", i+2, err)
		}
		out = append(out, domain.StoredReview{
			Bank:           f.Get(i, ColBank),
			Review:         f.Get(i, ColReview),
			Rating:         rating,
			ReviewDate:     date,
			Source:         f.Get(i, ColSource),
			SentimentLabel: f.Get(i, ColSentimentLabel),
			SentimentScore: score,
		})
	}
	return out, nil
}

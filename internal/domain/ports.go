package domain

import (
	"context"
	"errors"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
)

// ReviewQuery holds the review-source request parameters.
type ReviewQuery struct {
	Lang    string
	Country string
	Sort    string
	Count   int
}

type ReviewSource interface {
	FetchReviews(ctx context.Context, appID string, q ReviewQuery) ([]map[string]any, error)
}

// Token is one linguistic token as produced by the language model.
type Token struct {
	Text    string `json:"text"`
	Lemma   string `json:"lemma"`
	IsStop  bool   `json:"is_stop"`
	IsPunct bool   `json:"is_punct"`
	IsAlpha bool   `json:"is_alpha"`
}

type Doc struct {
	Tokens     []Token  `json:"tokens"`
	NounChunks []string `json:"noun_chunks"`
}

type LinguisticModel interface {
	Analyze(ctx context.Context, text string) (Doc, error)
}

type SentimentModel interface {
	Classify(ctx context.Context, text string) (Sentiment, error)
}

type ReviewRepository interface {
	// Write paths, all full replace. ReplaceAll swaps both tables atomically.
	ReplaceBanks(ctx context.Context, names []string) error
	ReplaceReviews(ctx context.Context, rs []StoredReview) error
	ReplaceAll(ctx context.Context, names []string, rs []StoredReview) error

	// Read paths
	ListBanks(ctx context.Context) ([]string, error)
	ListReviews(ctx context.Context, bank string, pg PageQuery) (ReviewsPage, error)
	SentimentByRating(ctx context.Context, bank string) ([]SentimentAggregate, error)
}

type Cache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any, ttlSec int) error
	Del(ctx context.Context, key string) error
}

type PageQuery struct {
	Limit int
}

type ReviewsPage struct {
	Items []StoredReview `json:"items"`
}

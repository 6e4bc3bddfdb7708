package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bank_reviews/internal/domain"
)

func TestMapReview_FullItem(t *testing.T) {
	item := map[string]any{
		"reviewId":      "gp:1",
		"userName":      "Abebe",
		"score":         float64(4),
		"at":            "2024-05-01T10:11:12Z",
		"content":       "works well",
		"appVersion":    "5.1.0",
		"repliedAt":     float64(1714600000),
		"replyContent":  "thanks",
		"thumbsUpCount": float64(3),
		"userImage":     "https://img/1",
	}

	got := mapReview("CBE", item)
	assert.Equal(t, domain.RawReview{
		ReviewID:      "gp:1",
		UserName:      "Abebe",
		Rating:        "4",
		Date:          "2024-05-01 10:11:12",
		Review:        "works well",
		AppVersion:    "5.1.0",
		RepliedAt:     "2024-05-01 21:46:40",
		ReplyContent:  "thanks",
		ThumbsUpCount: "3",
		UserImageURL:  "https://img/1",
		Bank:          "CBE",
		Source:        domain.SourceGooglePlay,
	}, got)
}

func TestMapReview_MissingFieldsUsePlaceholders(t *testing.T) {
	got := mapReview("BOA", map[string]any{"content": "ok", "score": float64(3)})

	assert.Equal(t, domain.MissingTimestamp, got.Date)
	assert.Equal(t, domain.MissingReply, got.RepliedAt)
	assert.Equal(t, domain.MissingReply, got.ReplyContent)
	assert.Equal(t, "", got.UserName)
	assert.Equal(t, "", got.AppVersion)
	assert.Equal(t, "BOA", got.Bank)
	assert.Equal(t, domain.SourceGooglePlay, got.Source)
}

func TestMapReview_Aliases(t *testing.T) {
	got := mapReview("X", map[string]any{
		"text":   "alias text",
		"rating": "5",
		"user":   map[string]any{"name": "nested"},
		"reply":  map[string]any{"content": "nested reply"},
	})
	assert.Equal(t, "alias text", got.Review)
	assert.Equal(t, "5", got.Rating)
	assert.Equal(t, "nested", got.UserName)
	assert.Equal(t, "nested reply", got.ReplyContent)
}

type stubSource struct{ err error }

func (s stubSource) FetchReviews(context.Context, string, domain.ReviewQuery) ([]map[string]any, error) {
	if s.err != nil {
		return nil, s.err
	}
	return []map[string]any{{"content": "x", "score": float64(5)}}, nil
}

func TestScrapeBank_SleepsOnlyAfterSave(t *testing.T) {
	var slept []time.Duration
	newSvc := func(src domain.ReviewSource) *ScrapeService {
		s := NewScrapeService(src, domain.ReviewQuery{}, t.TempDir(), 2*time.Second, zerolog.Nop())
		s.sleep = func(_ context.Context, d time.Duration) bool {
			slept = append(slept, d)
			return true
		}
		return s
	}

	rows := newSvc(stubSource{}).ScrapeBank(context.Background(), domain.Bank{Name: "CBE", AppID: "a"}, 10)
	require.Len(t, rows, 1)
	assert.Equal(t, []time.Duration{2 * time.Second}, slept)

	rows = newSvc(stubSource{err: errors.New("boom")}).ScrapeBank(context.Background(), domain.Bank{Name: "CBE", AppID: "a"}, 10)
	assert.Empty(t, rows)
	assert.Len(t, slept, 1)
}

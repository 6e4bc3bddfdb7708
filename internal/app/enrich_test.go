package app_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bank_reviews/internal/app"
	"bank_reviews/internal/domain"
	"bank_reviews/internal/shared"
)

func defaultTaxonomy(t *testing.T) domain.Taxonomy {
	t.Helper()
	pf, err := shared.LoadPipelineFile("")
	require.NoError(t, err)
	return pf.Themes
}

func review(bank, text string, rating int) domain.Review {
	return domain.Review{Bank: bank, Text: text, Rating: rating, Date: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), Source: domain.SourceGooglePlay}
}

func TestAssignThemes_LoginTrigger(t *testing.T) {
	got := app.AssignThemes([]string{"slow login page"}, defaultTaxonomy(t))
	assert.Contains(t, got, "Account Access Issues")
}

func TestAssignThemes_TaxonomyOrderAndOther(t *testing.T) {
	tax := defaultTaxonomy(t)

	got := app.AssignThemes([]string{"customer support", "failed transfer"}, tax)
	assert.Equal(t, []string{"Transaction Performance", "Customer Support"}, got)

	assert.Equal(t, []string{domain.OtherTheme}, app.AssignThemes([]string{"nice colors"}, tax))
	assert.Equal(t, []string{domain.OtherTheme}, app.AssignThemes(nil, tax))
}

func TestAssignThemes_LiteralSubstringMatch(t *testing.T) {
	tax := domain.Taxonomy{{Name: "App", Triggers: []string{"app"}}}
	// "app" inside "happy" matches; kept literal on purpose
	assert.Equal(t, []string{"App"}, app.AssignThemes([]string{"happy customer"}, tax))
}

func TestEnrich_Signals(t *testing.T) {
	text := "the login is slow"
	lm := &fakeLang{chunks: map[string][]string{text: {"The Login", "a very long noun phrase here"}}}
	sm := &fakeSentiment{byText: map[string]domain.Sentiment{text: {Label: "NEGATIVE", Score: 0.93}}}
	e := app.NewEnricher(lm, sm, defaultTaxonomy(t), 1, zerolog.Nop())

	got := e.Enrich(context.Background(), review("CBE", text, 1))

	assert.Equal(t, []string{"login", "slow"}, got.Tokens)
	assert.Equal(t, []string{"the login"}, got.Keywords)
	assert.Equal(t, domain.Sentiment{Label: domain.LabelNegative, Score: 0.93}, got.Sentiment)
	assert.Equal(t, []string{"Account Access Issues"}, got.Themes)
	assert.Equal(t, "CBE", got.Bank)
}

func TestEnrich_SentimentErrorFallsBackToNeutral(t *testing.T) {
	sm := &fakeSentiment{fail: map[string]bool{"boom": true}}
	e := app.NewEnricher(&fakeLang{}, sm, defaultTaxonomy(t), 1, zerolog.Nop())

	out := e.ClassifySentiment(context.Background(), "boom")
	assert.True(t, out.Fallback)
	assert.Error(t, out.Err)

	got := e.Enrich(context.Background(), review("CBE", "boom", 3))
	assert.Equal(t, domain.LabelNeutral, got.Sentiment.Label)
	assert.Equal(t, 0.0, got.Sentiment.Score)
}

func TestEnrich_LinguisticErrorYieldsEmptyListsAndOther(t *testing.T) {
	e := app.NewEnricher(&fakeLang{fail: true}, &fakeSentiment{}, defaultTaxonomy(t), 1, zerolog.Nop())

	got := e.Enrich(context.Background(), review("CBE", "anything", 4))
	assert.NotNil(t, got.Tokens)
	assert.Empty(t, got.Tokens)
	assert.NotNil(t, got.Keywords)
	assert.Empty(t, got.Keywords)
	assert.Equal(t, []string{domain.OtherTheme}, got.Themes)
}

func TestEnrichAll_KeepsOrderWithWorkers(t *testing.T) {
	var rows []domain.Review
	for i := 0; i < 50; i++ {
		rows = append(rows, review("CBE", fmt.Sprintf("review %d", i), i%5+1))
	}
	e := app.NewEnricher(&fakeLang{}, &fakeSentiment{}, defaultTaxonomy(t), 8, zerolog.Nop())

	got, err := e.EnrichAll(context.Background(), rows)
	require.NoError(t, err)
	require.Len(t, got, len(rows))
	for i := range rows {
		assert.Equal(t, rows[i].Text, got[i].Text)
		assert.NotEmpty(t, got[i].Themes)
	}
}

func TestEnrichAll_Canceled(t *testing.T) {
	e := app.NewEnricher(&fakeLang{}, &fakeSentiment{}, nil, 2, zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := e.EnrichAll(ctx, []domain.Review{review("CBE", "x", 5)})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCachedSentimentModel(t *testing.T) {
	sm := &fakeSentiment{
		byText: map[string]domain.Sentiment{"great": {Label: "POSITIVE", Score: 0.99}},
		fail:   map[string]bool{"down": true},
	}
	cache := &fakeCache{}
	m := app.NewCachedSentimentModel(sm, cache, time.Hour, zerolog.Nop())
	ctx := context.Background()

	first, err := m.Classify(ctx, "great")
	require.NoError(t, err)
	second, err := m.Classify(ctx, "great")
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, sm.calls)

	// failures are not cached
	_, err = m.Classify(ctx, "down")
	assert.Error(t, err)
	_, err = m.Classify(ctx, "down")
	assert.Error(t, err)
	assert.Equal(t, 3, sm.calls)
	assert.Equal(t, 1, cache.sets)
}

func TestCachedSentimentModel_CacheErrorsAreLoggedMisses(t *testing.T) {
	sm := &fakeSentiment{byText: map[string]domain.Sentiment{"great": {Label: "POSITIVE", Score: 0.99}}}
	cache := &fakeCache{getErr: errors.New("redis down"), setErr: errors.New("redis down")}
	var buf bytes.Buffer
	m := app.NewCachedSentimentModel(sm, cache, time.Hour, zerolog.New(&buf))

	got, err := m.Classify(context.Background(), "great")
	require.NoError(t, err)
	assert.Equal(t, 0.99, got.Score)
	assert.Equal(t, 1, sm.calls)
	assert.Contains(t, buf.String(), "sentiment cache get failed")
	assert.Contains(t, buf.String(), "sentiment cache set failed")
	assert.Contains(t, buf.String(), "redis down")
}

package app_test

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"bank_reviews/internal/domain"
)

// ---- repository ----

type fakeRepo struct {
	mu      sync.Mutex
	banks   []string
	reviews []domain.StoredReview
	writes  int

	listCalls int
}

func (f *fakeRepo) ReplaceBanks(_ context.Context, names []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.writes++
	f.banks = append([]string(nil), names...)
	return nil
}

func (f *fakeRepo) ReplaceReviews(_ context.Context, rs []domain.StoredReview) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.writes++
	f.reviews = append([]domain.StoredReview(nil), rs...)
	return nil
}

func (f *fakeRepo) ReplaceAll(_ context.Context, names []string, rs []domain.StoredReview) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.writes++
	f.banks = append([]string(nil), names...)
	f.reviews = append([]domain.StoredReview(nil), rs...)
	return nil
}

func (f *fakeRepo) ListBanks(context.Context) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.banks...), nil
}

func (f *fakeRepo) ListReviews(_ context.Context, bank string, pg domain.PageQuery) (domain.ReviewsPage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls++
	var out []domain.StoredReview
	for _, r := range f.reviews {
		if r.Bank == bank && len(out) < pg.Limit {
			out = append(out, r)
		}
	}
	return domain.ReviewsPage{Items: out}, nil
}

func (f *fakeRepo) SentimentByRating(_ context.Context, bank string) ([]domain.SentimentAggregate, error) {
	return nil, nil
}

// ---- cache ----

// fakeCache round-trips through JSON like the Redis adapter does.
type fakeCache struct {
	mu    sync.Mutex
	store map[string][]byte
	gets  int
	sets  int

	getErr error
	setErr error
}

func (c *fakeCache) Get(_ context.Context, key string, dst any) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gets++
	if c.getErr != nil {
		return false, c.getErr
	}
	b, ok := c.store[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(b, dst)
}

func (c *fakeCache) Set(_ context.Context, key string, v any, _ int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.setErr != nil {
		return c.setErr
	}
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if c.store == nil {
		c.store = map[string][]byte{}
	}
	c.sets++
	c.store[key] = b
	return nil
}

func (c *fakeCache) Del(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.store, key)
	return nil
}

// ---- review source ----

type fakeSource struct {
	items map[string][]map[string]any // app id -> items
	errs  map[string]error
	calls []string
}

func (s *fakeSource) FetchReviews(_ context.Context, appID string, q domain.ReviewQuery) ([]map[string]any, error) {
	s.calls = append(s.calls, appID)
	if err := s.errs[appID]; err != nil {
		return nil, err
	}
	items := s.items[appID]
	if len(items) > q.Count {
		items = items[:q.Count]
	}
	return items, nil
}

// ---- models ----

// fakeLang tokenizes on spaces: every word is alpha, "the"/"is" are stop
// words, and the noun chunks are given per text.
type fakeLang struct {
	chunks map[string][]string
	fail   bool
}

func (m *fakeLang) Analyze(_ context.Context, text string) (domain.Doc, error) {
	if m.fail {
		return domain.Doc{}, errors.New("model offline")
	}
	var doc domain.Doc
	for _, w := range splitWords(text) {
		doc.Tokens = append(doc.Tokens, domain.Token{
			Text:    w,
			Lemma:   w,
			IsStop:  w == "the" || w == "is",
			IsAlpha: true,
		})
	}
	doc.NounChunks = m.chunks[text]
	return doc, nil
}

func splitWords(s string) []string {
	var out []string
	word := ""
	for _, r := range s {
		if r == ' ' {
			if word != "" {
				out = append(out, word)
			}
			word = ""
			continue
		}
		word += string(r)
	}
	if word != "" {
		out = append(out, word)
	}
	return out
}

type fakeSentiment struct {
	mu     sync.Mutex
	byText map[string]domain.Sentiment
	fail   map[string]bool
	calls  int
}

func (m *fakeSentiment) Classify(_ context.Context, text string) (domain.Sentiment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.fail[text] {
		return domain.Sentiment{}, errors.New("inference endpoint returned 503")
	}
	if s, ok := m.byText[text]; ok {
		return s, nil
	}
	return domain.Sentiment{Label: "POSITIVE", Score: 0.5}, nil
}

package nlp

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"

	"bank_reviews/internal/adapters/observability"
	"bank_reviews/internal/domain"
)

// LinguisticClient calls a spaCy-style parsing service:
// POST {base}/parse {"text": "..."} -> {"tokens": [...], "noun_chunks": [...]}.
type LinguisticClient struct {
	rc *resty.Client
}

func NewLinguisticClient(base string) *LinguisticClient {
	return &LinguisticClient{
		rc: resty.New().
			SetBaseURL(base).
			SetTimeout(60*time.Second).
			SetHeader("Accept", "application/json").
			SetRetryCount(2).
			SetRetryWaitTime(200 * time.Millisecond),
	}
}

func (c *LinguisticClient) Analyze(ctx context.Context, text string) (domain.Doc, error) {
	var doc domain.Doc
	start := time.Now()
	resp, err := c.rc.R().
		SetContext(ctx).
		SetBody(map[string]string{"text": text}).
		SetResult(&doc).
		Post("/parse")
	if err != nil {
		observability.ObserveExternal("nlp", "parse", 0, time.Since(start))
		return domain.Doc{}, fmt.Errorf("nlp request: %w", err)
	}
	observability.ObserveExternal("nlp", "parse", resp.StatusCode(), time.Since(start))
	if resp.IsError() {
		return domain.Doc{}, fmt.Errorf("nlp status %d: %s", resp.StatusCode(), truncate(resp.String(), 256))
	}
	return doc, nil
}

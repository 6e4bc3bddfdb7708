package nlp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"bank_reviews/internal/adapters/observability"
	"bank_reviews/internal/domain"
)

// SentimentClient calls a hosted text-classification model using the
// Hugging Face inference request shape: {"inputs": "..."}.
type SentimentClient struct {
	rc *resty.Client
}

type labelScore struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

type inferenceRequest struct {
	Inputs string `json:"inputs"`
}

// NewSentimentClient targets the model endpoint url; token is optional.
func NewSentimentClient(url, token string) *SentimentClient {
	rc := resty.New().
		SetBaseURL(url).
		SetTimeout(60*time.Second).
		SetHeader("Accept", "application/json").
		SetRetryCount(0)
	if token != "" {
		rc.SetAuthToken(token)
	}
	return &SentimentClient{rc: rc}
}

// Classify returns the top-scoring label, lowercased. Oversized inputs are
// rejected by the model with a non-2xx status and surface as an error.
func (c *SentimentClient) Classify(ctx context.Context, text string) (domain.Sentiment, error) {
	start := time.Now()
	resp, err := c.rc.R().
		SetContext(ctx).
		SetBody(inferenceRequest{Inputs: text}).
		Post("")
	if err != nil {
		observability.ObserveExternal("sentiment", "classify", 0, time.Since(start))
		return domain.Sentiment{}, fmt.Errorf("sentiment request: %w", err)
	}
	observability.ObserveExternal("sentiment", "classify", resp.StatusCode(), time.Since(start))
	if resp.IsError() {
		return domain.Sentiment{}, fmt.Errorf("sentiment model status %d: %s", resp.StatusCode(), truncate(resp.String(), 256))
	}
	return parseClassification(resp.Body())
}

// parseClassification accepts [[{label,score}...]] or [{label,score}...].
func parseClassification(body []byte) (domain.Sentiment, error) {
	var nested [][]labelScore
	if err := json.Unmarshal(body, &nested); err == nil && len(nested) > 0 {
		return best(nested[0])
	}
	var flat []labelScore
	if err := json.Unmarshal(body, &flat); err != nil {
		return domain.Sentiment{}, fmt.Errorf("decode sentiment response: %w", err)
	}
	return best(flat)
}

func best(ls []labelScore) (domain.Sentiment, error) {
	if len(ls) == 0 {
		return domain.Sentiment{}, errors.New("sentiment model returned no labels")
	}
	top := ls[0]
	for _, l := range ls[1:] {
		if l.Score > top.Score {
			top = l
		}
	}
	return domain.Sentiment{Label: strings.ToLower(top.Label), Score: top.Score}, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

package nlp_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bank_reviews/internal/adapters/nlp"
	"bank_reviews/internal/domain"
)

func TestSentimentClient_NestedResponse(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		var body map[string]string
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "great app", body["inputs"])
		_, _ = io.WriteString(w, `[[{"label":"NEGATIVE","score":0.02},{"label":"POSITIVE","score":0.98}]]`)
	}))
	defer ts.Close()

	got, err := nlp.NewSentimentClient(ts.URL, "secret").Classify(context.Background(), "great app")
	require.NoError(t, err)
	require.Equal(t, domain.Sentiment{Label: "positive", Score: 0.98}, got)
}

func TestSentimentClient_FlatResponse(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `[{"label":"NEGATIVE","score":0.91}]`)
	}))
	defer ts.Close()

	got, err := nlp.NewSentimentClient(ts.URL, "").Classify(context.Background(), "slow")
	require.NoError(t, err)
	require.Equal(t, "negative", got.Label)
	require.InDelta(t, 0.91, got.Score, 1e-9)
}

func TestSentimentClient_OversizedInputIsError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, `{"error":"input too long"}`)
	}))
	defer ts.Close()

	_, err := nlp.NewSentimentClient(ts.URL, "").Classify(context.Background(), strings.Repeat("x ", 5000))
	require.Error(t, err)
	require.Contains(t, err.Error(), "400")
}

func TestLinguisticClient_Analyze(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/parse", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"tokens":[{"text":"apps","lemma":"app","is_stop":false,"is_punct":false,"is_alpha":true}],"noun_chunks":["the apps"]}`)
	}))
	defer ts.Close()

	doc, err := nlp.NewLinguisticClient(ts.URL).Analyze(context.Background(), "the apps")
	require.NoError(t, err)
	require.Len(t, doc.Tokens, 1)
	require.Equal(t, "app", doc.Tokens[0].Lemma)
	require.True(t, doc.Tokens[0].IsAlpha)
	require.Equal(t, []string{"the apps"}, doc.NounChunks)
}

func TestLinguisticClient_ServerError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer ts.Close()

	_, err := nlp.NewLinguisticClient(ts.URL).Analyze(context.Background(), "x")
	require.Error(t, err)
}

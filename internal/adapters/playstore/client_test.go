package playstore_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"bank_reviews/internal/adapters/playstore"
	"bank_reviews/internal/domain"
)

func reviewsOf(n, offset int) []map[string]any {
	out := make([]map[string]any, n)
	for i := range out {
		out[i] = map[string]any{"reviewId": fmt.Sprintf("r-%d", offset+i), "score": 5.0}
	}
	return out
}

func TestClient_FetchReviews_PagesUntilCount(t *testing.T) {
	var calls int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := int(atomic.AddInt32(&calls, 1))
		if r.URL.Path != "/apps/com.example.bank/reviews" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.URL.Query().Get("sort") != "newest" || r.URL.Query().Get("country") != "et" {
			t.Errorf("unexpected query %s", r.URL.RawQuery)
		}
		if n > 1 && r.URL.Query().Get("token") != "t"+strconv.Itoa(n-1) {
			t.Errorf("page %d: missing continuation token", n)
		}
		size, _ := strconv.Atoi(r.URL.Query().Get("count"))
		_ = json.NewEncoder(w).Encode(map[string]any{
			"reviews":   reviewsOf(size, (n-1)*playstore.MaxPageSize),
			"nextToken": "t" + strconv.Itoa(n),
		})
	}))
	defer ts.Close()

	cl, err := playstore.New(ts.URL, 100) // high RPS for tests
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	got, err := cl.FetchReviews(ctx, "com.example.bank", domain.ReviewQuery{Lang: "en", Country: "et", Count: 450})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if len(got) != 450 {
		t.Fatalf("got %d reviews, want 450", len(got))
	}
	if c := atomic.LoadInt32(&calls); c != 3 {
		t.Fatalf("expected 3 pages (200+200+50), got %d", c)
	}
}

func TestClient_FetchReviews_StopsWhenExhausted(t *testing.T) {
	var calls int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		_ = json.NewEncoder(w).Encode(map[string]any{"reviews": reviewsOf(7, 0)})
	}))
	defer ts.Close()

	cl, _ := playstore.New(ts.URL, 100)
	got, err := cl.FetchReviews(context.Background(), "app", domain.ReviewQuery{Count: 400})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if len(got) != 7 || atomic.LoadInt32(&calls) != 1 {
		t.Fatalf("expected a single page of 7, got %d reviews over %d calls", len(got), calls)
	}
}

func TestClient_FetchReviews_RetriesThenSuccess(t *testing.T) {
	var hits int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch atomic.AddInt32(&hits, 1) {
		case 1, 2:
			// two transient failures
			w.WriteHeader(500)
		default:
			_ = json.NewEncoder(w).Encode(map[string]any{"reviews": reviewsOf(1, 0)})
		}
	}))
	defer ts.Close()

	cl, _ := playstore.New(ts.URL, 100)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	got, err := cl.FetchReviews(ctx, "app", domain.ReviewQuery{Count: 1})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if len(got) != 1 || got[0]["reviewId"] != "r-0" {
		t.Fatalf("unexpected payload: %+v", got)
	}
	if atomic.LoadInt32(&hits) < 3 {
		t.Fatalf("expected at least 3 calls due to retries, got %d", hits)
	}
}

func TestClient_FetchReviews_404(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	defer ts.Close()

	cl, _ := playstore.New(ts.URL, 100)
	_, err := cl.FetchReviews(context.Background(), "missing", domain.ReviewQuery{Count: 10})
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestClient_FetchReviews_ClientErrorsAreNotRetried(t *testing.T) {
	var hits int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		http.Error(w, "bad app id", http.StatusBadRequest)
	}))
	defer ts.Close()

	cl, _ := playstore.New(ts.URL, 100)
	_, err := cl.FetchReviews(context.Background(), "app", domain.ReviewQuery{Count: 10})
	if err == nil {
		t.Fatalf("expected error for 400")
	}
	if n := atomic.LoadInt32(&hits); n != 1 {
		t.Fatalf("expected a single call, got %d", n)
	}
}

func TestClient_FetchReviews_MalformedBody(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html>nope</html>"))
	}))
	defer ts.Close()

	cl, _ := playstore.New(ts.URL, 100)
	if _, err := cl.FetchReviews(context.Background(), "app", domain.ReviewQuery{Count: 10}); err == nil {
		t.Fatalf("expected decode error")
	}
}

func TestNew_RequiresBase(t *testing.T) {
	if _, err := playstore.New("", 1); err == nil {
		t.Fatalf("expected error for empty base")
	}
}

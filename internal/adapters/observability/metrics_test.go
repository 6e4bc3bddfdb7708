package observability_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"bank_reviews/internal/adapters/observability"
)

func TestMetricsRegistryAndHandler(t *testing.T) {
	reg := observability.InitRegistry()

	// record one sample so counters are non-zero
	observability.ObserveHTTP("/v1/banks", "GET", 200, 12*time.Millisecond)

	mh := observability.MetricsHandler(reg)
	req := httptest.NewRequest("GET", "/metrics", nil)
	rr := httptest.NewRecorder()
	mh.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("metrics status: %d", rr.Code)
	}
	body, _ := io.ReadAll(rr.Body)
	out := string(body)
	if !strings.Contains(out, "reviews_http_requests_total") {
		t.Fatalf("expected reviews_http_requests_total in output")
	}
}

func TestObserveRows(t *testing.T) {
	observability.ObserveRows("clean", "dedupe", 42)
	got := testutil.ToFloat64(observability.PipelineRows.WithLabelValues("clean", "dedupe"))
	if got != 42 {
		t.Fatalf("pipeline_rows: got %v want 42", got)
	}
}

func TestWithRun(t *testing.T) {
	l := observability.NewLogger("prod", "test")
	_, id := observability.WithRun(l)
	if len(id) != 36 {
		t.Fatalf("unexpected run id %q", id)
	}
}

package observability

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetricsCountOutcomes(t *testing.T) {
	m := New(prometheus.NewRegistry())
	m.IncPublishOutcome("published")
	m.IncPublishOutcome("published")
	m.IncPublishOutcome("failed")
	m.ObserveTask("sweep_publish", "ok", 20*time.Millisecond)

	if got := testutil.ToFloat64(m.publishOutcomes.WithLabelValues("published")); got != 2 {
		t.Fatalf("published: got %v", got)
	}
	if got := testutil.ToFloat64(m.taskRuns.WithLabelValues("sweep_publish", "ok")); got != 1 {
		t.Fatalf("task runs: got %v", got)
	}
}

func TestNilMetricsAreSafe(t *testing.T) {
	var m *Metrics
	m.IncPublishOutcome("failed")
	m.ObserveTask("x", "ok", time.Second)
	m.ObserveLLMRequest("gpt", "/v1/responses", "200", time.Second, 1, 2)
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	if rec.Code != 404 {
		t.Fatalf("nil metrics handler: got %d", rec.Code)
	}
}

func TestHandlerExposesCollectors(t *testing.T) {
	m := New(prometheus.NewRegistry())
	m.IncGenerationOutcome("scheduled", "created")
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)
	if !strings.Contains(string(body), "personapost_generation_outcomes_total") {
		t.Fatalf("expected generation counter in exposition")
	}
}

package observability

import (
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/yungbote/personapost-backend/internal/platform/logger"
)

const namespace = "personapost"

// Metrics owns every collector the service exports. All methods are nil-safe so callers can
// hold a nil *Metrics when metrics are disabled.
type Metrics struct {
	registry *prometheus.Registry

	apiRequests *prometheus.CounterVec
	apiLatency  *prometheus.HistogramVec

	taskRuns     *prometheus.CounterVec
	taskDuration *prometheus.HistogramVec

	publishOutcomes    *prometheus.CounterVec
	generationOutcomes *prometheus.CounterVec
	postTransitions    *prometheus.CounterVec

	externalCalls   *prometheus.CounterVec
	externalLatency *prometheus.HistogramVec

	llmRequests *prometheus.CounterVec
	llmLatency  *prometheus.HistogramVec
	llmTokens   *prometheus.CounterVec

	trendCandidates *prometheus.GaugeVec
}

var (
	initOnce sync.Once
	instance *Metrics
)

// Init builds the process-wide metrics set once and makes it available via Current.
func Init(log *logger.Logger) *Metrics {
	initOnce.Do(func() {
		instance = New(prometheus.NewRegistry())
		if log != nil {
			log.Info("metrics initialized")
		}
	})
	return instance
}

func Current() *Metrics {
	return instance
}

// New registers a fresh collector set on reg. Tests use it with their own registry.
func New(reg *prometheus.Registry) *Metrics {
	m := &Metrics{
		registry: reg,
		apiRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "api_requests_total", Help: "HTTP requests by route and status.",
		}, []string{"method", "route", "status"}),
		apiLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace, Name: "api_request_duration_seconds", Help: "HTTP request latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		taskRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "scheduler_task_runs_total", Help: "Scheduler task ticks by outcome.",
		}, []string{"task", "status"}),
		taskDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace, Name: "scheduler_task_duration_seconds", Help: "Scheduler task tick duration.",
			Buckets: []float64{0.05, 0.1, 0.5, 1, 5, 15, 30, 60, 180, 600},
		}, []string{"task"}),
		publishOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "publish_outcomes_total", Help: "Publish attempts by outcome.",
		}, []string{"outcome"}),
		generationOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "generation_outcomes_total", Help: "Generation cycles by origin and outcome.",
		}, []string{"origin", "outcome"}),
		postTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "post_transitions_total", Help: "Post status transitions.",
		}, []string{"from", "to"}),
		externalCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "external_calls_total", Help: "Calls to the publishing platform and trend feeds.",
		}, []string{"client", "operation", "status"}),
		externalLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace, Name: "external_call_duration_seconds", Help: "External call latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"client", "operation"}),
		llmRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "llm_requests_total", Help: "LLM provider requests.",
		}, []string{"model", "endpoint", "status"}),
		llmLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace, Name: "llm_request_duration_seconds", Help: "LLM provider latency.",
			Buckets: []float64{0.25, 0.5, 1, 2, 5, 10, 30, 60, 120},
		}, []string{"model", "endpoint"}),
		llmTokens: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "llm_tokens_total", Help: "LLM tokens by direction.",
		}, []string{"model", "direction"}),
		trendCandidates: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace, Name: "trend_candidates", Help: "Candidates returned by the last poll of each trend source.",
		}, []string{"source"}),
	}
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.apiRequests, m.apiLatency,
		m.taskRuns, m.taskDuration,
		m.publishOutcomes, m.generationOutcomes, m.postTransitions,
		m.externalCalls, m.externalLatency,
		m.llmRequests, m.llmLatency, m.llmTokens,
		m.trendCandidates,
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) ObserveAPI(method, route, status string, dur time.Duration) {
	if m == nil {
		return
	}
	m.apiRequests.WithLabelValues(method, route, status).Inc()
	m.apiLatency.WithLabelValues(method, route).Observe(dur.Seconds())
}

func (m *Metrics) ObserveTask(task, status string, dur time.Duration) {
	if m == nil {
		return
	}
	m.taskRuns.WithLabelValues(task, status).Inc()
	m.taskDuration.WithLabelValues(task).Observe(dur.Seconds())
}

func (m *Metrics) IncPublishOutcome(outcome string) {
	if m == nil {
		return
	}
	m.publishOutcomes.WithLabelValues(outcome).Inc()
}

func (m *Metrics) IncGenerationOutcome(origin, outcome string) {
	if m == nil {
		return
	}
	m.generationOutcomes.WithLabelValues(origin, outcome).Inc()
}

func (m *Metrics) IncPostTransition(from, to string) {
	if m == nil {
		return
	}
	m.postTransitions.WithLabelValues(from, to).Inc()
}

func (m *Metrics) ObserveExternalCall(client, operation, status string, dur time.Duration) {
	if m == nil {
		return
	}
	m.externalCalls.WithLabelValues(client, operation, status).Inc()
	m.externalLatency.WithLabelValues(client, operation).Observe(dur.Seconds())
}

func (m *Metrics) ObserveLLMRequest(model, endpoint, status string, dur time.Duration, inputTokens, outputTokens int) {
	if m == nil {
		return
	}
	m.llmRequests.WithLabelValues(model, endpoint, status).Inc()
	m.llmLatency.WithLabelValues(model, endpoint).Observe(dur.Seconds())
	if inputTokens > 0 {
		m.llmTokens.WithLabelValues(model, "input").Add(float64(inputTokens))
	}
	if outputTokens > 0 {
		m.llmTokens.WithLabelValues(model, "output").Add(float64(outputTokens))
	}
}

func (m *Metrics) SetTrendCandidates(source string, n int) {
	if m == nil {
		return
	}
	m.trendCandidates.WithLabelValues(source).Set(float64(n))
}

func parseFloat(raw string) (float64, error) {
	return strconv.ParseFloat(strings.TrimSpace(raw), 64)
}

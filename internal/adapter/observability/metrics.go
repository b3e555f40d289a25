package observability

import (
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"route", "method", "status"},
	)
	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 15, 30, 60},
		},
		[]string{"route", "method"},
	)

	TextExtractionTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "text_extraction_total",
			Help: "Text extraction attempts by strategy and outcome",
		},
		[]string{"strategy", "outcome"},
	)
	OCRJobsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ocr_jobs_total",
			Help: "Asynchronous OCR jobs by terminal outcome",
		},
		[]string{"outcome"},
	)

	GenerationAttemptsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "generation_attempts_total",
			Help: "Generation attempts by request shape and outcome",
		},
		[]string{"shape", "outcome"},
	)
	GenerationRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "generation_request_duration_seconds",
			Help:    "Generation request duration in seconds",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 60},
		},
		[]string{"shape"},
	)
	PromptTokens = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "generation_prompt_tokens",
			Help:    "Estimated prompt size in tokens",
			Buckets: prometheus.ExponentialBuckets(128, 2, 7),
		},
		[]string{"task"},
	)
	QuestionSetsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "question_sets_total",
			Help: "Question sets produced by source",
		},
		[]string{"source"},
	)

	CircuitBreakerStateGauge = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0 closed, 1 open, 2 half-open)",
		},
		[]string{"name"},
	)
)

var initOnce sync.Once

// InitMetrics registers all collectors once.
func InitMetrics() {
	initOnce.Do(func() {
		prometheus.MustRegister(
			HTTPRequestsTotal,
			HTTPRequestDuration,
			TextExtractionTotal,
			OCRJobsTotal,
			GenerationAttemptsTotal,
			GenerationRequestDuration,
			PromptTokens,
			QuestionSetsTotal,
			CircuitBreakerStateGauge,
		)
	})
}

// HTTPMetricsMiddleware records Prometheus metrics for each request.
func HTTPMetricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		dur := time.Since(start).Seconds()
		// Route pattern may be unavailable outside chi router; guard nil
		var route string
		if rc := chi.RouteContext(r.Context()); rc != nil {
			route = rc.RoutePattern()
		}
		if route == "" {
			route = r.URL.Path
		}
		HTTPRequestsTotal.WithLabelValues(route, r.Method, http.StatusText(ww.Status())).Inc()
		HTTPRequestDuration.WithLabelValues(route, r.Method).Observe(dur)
	})
}

// RecordExtraction counts one extraction strategy attempt.
func RecordExtraction(strategy, outcome string) {
	TextExtractionTotal.WithLabelValues(strategy, outcome).Inc()
}

// RecordOCRJob counts a terminal OCR job outcome.
func RecordOCRJob(outcome string) {
	OCRJobsTotal.WithLabelValues(outcome).Inc()
}

// RecordGenerationAttempt counts one shape attempt and its latency.
func RecordGenerationAttempt(shape, outcome string, d time.Duration) {
	GenerationAttemptsTotal.WithLabelValues(shape, outcome).Inc()
	GenerationRequestDuration.WithLabelValues(shape).Observe(d.Seconds())
}

// ObservePromptTokens records the estimated size of a prompt.
func ObservePromptTokens(task string, tokens int) {
	if tokens > 0 {
		PromptTokens.WithLabelValues(task).Observe(float64(tokens))
	}
}

// RecordQuestionSet counts a finished question set by source.
func RecordQuestionSet(source string) {
	QuestionSetsTotal.WithLabelValues(source).Inc()
}

// RecordCircuitBreakerStatus publishes the state of a named breaker.
func RecordCircuitBreakerStatus(name string, state int) {
	if state < 0 || state > 2 {
		return
	}
	CircuitBreakerStateGauge.WithLabelValues(name).Set(float64(state))
}

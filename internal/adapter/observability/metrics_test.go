package observability

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
)

func metricValue(c prometheus.Metric) float64 {
	var m dto.Metric
	_ = c.Write(&m)
	if m.Counter != nil {
		return m.GetCounter().GetValue()
	}
	return m.GetGauge().GetValue()
}

func TestInitMetrics_Idempotent(t *testing.T) {
	assert.NotPanics(t, InitMetrics)
	assert.NotPanics(t, InitMetrics)
}

func TestHTTPMetricsMiddleware_UsesRoutePattern(t *testing.T) {
	r := chi.NewRouter()
	r.Use(HTTPMetricsMiddleware)
	r.Get("/v1/candidates/{email}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	before := metricValue(HTTPRequestsTotal.WithLabelValues("/v1/candidates/{email}", "GET", http.StatusText(http.StatusTeapot)))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/candidates/a@b.com", nil))
	after := metricValue(HTTPRequestsTotal.WithLabelValues("/v1/candidates/{email}", "GET", http.StatusText(http.StatusTeapot)))
	assert.InDelta(t, 1, after-before, 0.001)
}

func TestRecorders(t *testing.T) {
	before := metricValue(TextExtractionTotal.WithLabelValues("pdf_text", "success"))
	RecordExtraction("pdf_text", "success")
	assert.InDelta(t, 1, metricValue(TextExtractionTotal.WithLabelValues("pdf_text", "success"))-before, 0.001)

	beforeGen := metricValue(GenerationAttemptsTotal.WithLabelValues("messages", "empty"))
	RecordGenerationAttempt("messages", "empty", 20*time.Millisecond)
	assert.InDelta(t, 1, metricValue(GenerationAttemptsTotal.WithLabelValues("messages", "empty"))-beforeGen, 0.001)

	RecordCircuitBreakerStatus("gen", 1)
	assert.InDelta(t, 1, metricValue(CircuitBreakerStateGauge.WithLabelValues("gen")), 0.001)
	RecordCircuitBreakerStatus("gen", 7)
	assert.InDelta(t, 1, metricValue(CircuitBreakerStateGauge.WithLabelValues("gen")), 0.001)

	assert.NotPanics(t, func() {
		RecordOCRJob("succeeded")
		RecordQuestionSet("fallback")
		ObservePromptTokens("initial", 0)
		ObservePromptTokens("initial", 900)
	})
}

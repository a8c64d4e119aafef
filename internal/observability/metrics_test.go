package observability

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsRecordAndExpose(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	m.ObserveAPI("POST", "/api/ai/answer", "200", 120*time.Millisecond)
	m.ObserveFlow("answer_data_questions", "", time.Second)
	m.ObserveFlow("answer_data_questions", "schema_mismatch", time.Second)
	m.IncBackendAttempt("mock", "ok")
	m.IncBackendAttempt("mock", "ok")
	m.IncSchemaRetry("answer_data_questions")
	m.IncBookmark("memory", "ok")
	m.ApiInflightInc()
	m.ApiInflightInc()
	m.ApiInflightDec()

	assert.Equal(t, 1.0, testutil.ToFloat64(m.apiRequests.WithLabelValues("POST", "/api/ai/answer", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.flowInvocations.WithLabelValues("answer_data_questions", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.flowInvocations.WithLabelValues("answer_data_questions", "schema_mismatch")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.backendAttempts.WithLabelValues("mock", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.apiInflight))

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body, _ := io.ReadAll(rec.Body)
	assert.Contains(t, string(body), "agenty_flow_invocations_total")
	assert.Contains(t, string(body), "agenty_bookmarks_total")
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveAPI("GET", "/", "200", time.Millisecond)
		m.ObserveFlow("x", "ok", time.Millisecond)
		m.IncBackendAttempt("mock", "ok")
		m.IncSchemaRetry("x")
		m.IncBookmark("memory", "ok")
		m.ApiInflightInc()
		m.ApiInflightDec()
	})
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

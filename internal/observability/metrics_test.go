package observability

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsCollectors(t *testing.T) {
	m := NewMetrics()

	m.ObserveAPI("GET", "/api/datasets", "200", 15*time.Millisecond)
	m.ObserveIngestBatch(500)
	m.ObserveIngestBatch(12)
	m.ObserveIngest("complete", 2048, time.Second)
	m.ObserveLLM("google", "ok", 300*time.Millisecond)
	m.ObserveRowMutation("add", "ok")

	assert.Equal(t, 1.0, testutil.ToFloat64(m.apiRequests.WithLabelValues("GET", "/api/datasets", "200")))
	assert.Equal(t, 512.0, testutil.ToFloat64(m.ingestRows))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.ingestBatches))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ingestTotal.WithLabelValues("complete")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.llmRequests.WithLabelValues("google", "ok")))

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "datagrid_ingest_rows_total 512")
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ApiInflightInc()
		m.ApiInflightDec()
		m.ObserveAPI("GET", "/", "200", time.Millisecond)
		m.ObserveIngestBatch(1)
		m.ObserveIngest("failed", 0, time.Millisecond)
		m.ObserveLLM("hf", "502", time.Millisecond)
		m.ObserveRowMutation("delete", "not_found")
	})
	assert.Nil(t, m.Registry())
}

package service

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsServiceCountsDocumentsAndJobs(t *testing.T) {
	m := NewMetricsService()

	m.RecordDocument("pdf", true, 20*time.Millisecond)
	m.RecordDocument("pdf", false, time.Millisecond)
	m.RecordDocument("html", true, time.Millisecond)
	assert.Equal(t, float64(1), testutil.ToFloat64(m.documents.WithLabelValues("pdf", "failure")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.documents.WithLabelValues("html", "success")))

	m.JobStarted()
	m.JobStarted()
	m.JobFinished("FINISHED")
	assert.Equal(t, float64(1), testutil.ToFloat64(m.jobsRunning))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.jobs.WithLabelValues("FINISHED")))
}

func TestMetricsServiceHandlerExposesCollectors(t *testing.T) {
	m := NewMetricsService()
	m.ObserveBackendRequest("/results/submitted", http.StatusOK, 10*time.Millisecond)
	m.RecordCacheOperation(true, time.Millisecond)

	w := httptest.NewRecorder()
	m.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "results_backend_request_duration_seconds")
	assert.Contains(t, w.Body.String(), "cache_hits_total")
}

func TestMetricsServiceNilSafe(t *testing.T) {
	var m *MetricsService
	assert.NotPanics(t, func() {
		m.RecordDocument("pdf", true, time.Millisecond)
		m.JobStarted()
		m.JobFinished("FAILED")
		m.ObserveHTTPRequest(http.MethodGet, "/health", http.StatusOK, time.Millisecond)
	})

	w := httptest.NewRecorder()
	m.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

package service

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsServiceObservations(t *testing.T) {
	m := NewMetricsService()
	m.ObserveHTTPRequest(http.MethodGet, "/api/v1/classes", http.StatusOK, 20*time.Millisecond)
	m.ObservePersist("students", time.Millisecond, nil)
	m.ObservePersist("students", time.Millisecond, errors.New("disk full"))
	m.ObserveExport("class_report", "pdf")

	assert.Equal(t, 1.0, testutil.ToFloat64(m.requestTotal.WithLabelValues("GET", "/api/v1/classes", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.persistFailures.WithLabelValues("students")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.exportsTotal.WithLabelValues("class_report", "pdf")))

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "gradebook_persist_duration_seconds")
}

func TestMetricsServiceNilSafe(t *testing.T) {
	var m *MetricsService
	m.ObserveHTTPRequest("GET", "/", 200, time.Millisecond)
	m.ObservePersist("classes", time.Millisecond, nil)
	m.ObserveExport("transcript", "pdf")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	return New(reg, reg)
}

// scrape renders the exposition text for m.
func scrape(t *testing.T, m *Metrics) string {
	t.Helper()
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	return string(body)
}

func TestMetrics_Recording(t *testing.T) {
	m := newTestMetrics()

	m.ObserveRequest(http.MethodGet, "/api/tasks", http.StatusOK, 20*time.Millisecond)
	m.ObserveRequest(http.MethodGet, "/api/tasks", http.StatusOK, 40*time.Millisecond)
	m.RateLimitHit("/api/auth/login")
	m.NotificationCreated("alert")
	m.Delivery(OutcomePushed)
	m.Delivery(OutcomeDeferred)
	m.Delivery(OutcomeDeferred)
	m.ConnectionOpened()
	m.ConnectionOpened()
	m.ConnectionClosed()

	out := scrape(t, m)
	assert.Contains(t, out, `taskflow_api_http_requests_total{method="GET",route="/api/tasks",status="200"} 2`)
	assert.Contains(t, out, `taskflow_api_http_request_duration_seconds_count{method="GET",route="/api/tasks",status="200"} 2`)
	assert.Contains(t, out, `taskflow_api_rate_limit_hits_total{route="/api/auth/login"} 1`)
	assert.Contains(t, out, `taskflow_notifications_created_total{type="alert"} 1`)
	assert.Contains(t, out, `taskflow_notifications_deliveries_total{outcome="pushed"} 1`)
	assert.Contains(t, out, `taskflow_notifications_deliveries_total{outcome="deferred"} 2`)
	assert.Contains(t, out, `taskflow_realtime_active_connections 1`)
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveRequest("GET", "/", 200, time.Millisecond)
		m.RateLimitHit("/")
		m.NotificationCreated("alert")
		m.Delivery(OutcomeFailed)
		m.ConnectionOpened()
		m.ConnectionClosed()
	})
}

func TestNew_ReusesRegisteredCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	first := New(reg, reg)
	second := New(reg, reg)

	first.Delivery(OutcomeFailed)
	second.Delivery(OutcomeFailed)

	assert.Same(t, first.deliveries, second.deliveries)
	assert.Contains(t, scrape(t, second), `taskflow_notifications_deliveries_total{outcome="failed"} 2`)
}

func TestMetrics_Handler(t *testing.T) {
	m := newTestMetrics()
	m.NotificationCreated("task_update")

	assert.Contains(t, scrape(t, m), `taskflow_notifications_created_total{type="task_update"} 1`)
}

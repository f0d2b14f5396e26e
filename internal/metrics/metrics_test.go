package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/fleetcert/internal/domain/model"
)

func TestObserveFleet(t *testing.T) {
	m := New()

	m.ObserveFleet(model.FleetStatus{
		Counts: map[model.Bucket]int{
			model.BucketExpired:  1,
			model.BucketExpiring: 2,
			model.BucketValid:    3,
		},
		Alerts: make([]model.Alert, 3),
		Health: 50,
		Total:  6,
	})

	assert.InDelta(t, 1, testutil.ToFloat64(m.Certificates.WithLabelValues("expired")), 0)
	assert.InDelta(t, 2, testutil.ToFloat64(m.Certificates.WithLabelValues("expiring")), 0)
	assert.InDelta(t, 3, testutil.ToFloat64(m.Certificates.WithLabelValues("valid")), 0)
	assert.InDelta(t, 0, testutil.ToFloat64(m.Certificates.WithLabelValues("no-date")), 0)
	assert.InDelta(t, 50, testutil.ToFloat64(m.FleetHealth), 0)
	assert.InDelta(t, 3, testutil.ToFloat64(m.FleetAlerts), 0)
	assert.Greater(t, testutil.ToFloat64(m.LastSweep), float64(0))
}

func TestObserveRequestAndLogin(t *testing.T) {
	m := New()

	m.ObserveRequest(http.MethodGet, "GET /{$}", 200, 10*time.Millisecond)
	m.ObserveRequest(http.MethodGet, "", 404, time.Millisecond)
	m.ObserveLogin("failure")
	m.ObserveLogin("failure")

	assert.InDelta(t, 1, testutil.ToFloat64(m.HTTPRequests.WithLabelValues("GET", "GET /{$}", "200")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.HTTPRequests.WithLabelValues("GET", "unmatched", "404")), 0)
	assert.InDelta(t, 2, testutil.ToFloat64(m.LoginAttempts.WithLabelValues("failure")), 0)
}

func TestHandler_Exposition(t *testing.T) {
	m := New()
	m.ObserveLogin("success")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `fleetcert_login_attempts_total{result="success"} 1`)
	assert.Contains(t, string(body), "go_goroutines")
}

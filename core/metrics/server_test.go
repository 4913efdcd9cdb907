package metrics

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
)

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestHealthz(t *testing.T) {
	rec := get(t, newMux(nil), "/healthz")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "ok", rec.Body.String())

	down := newMux(func(context.Context) error { return errors.New("bot not started") })
	rec = get(t, down, "/healthz")
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	require.Contains(t, rec.Body.String(), "bot not started")
}

func TestMetricsEndpoint(t *testing.T) {
	BotUpdates.Inc()
	require.NoError(t, RegisterGauge("test_sessions_active", "test gauge", func() float64 { return 3 }))

	rec := get(t, newMux(nil), "/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	require.True(t, strings.Contains(body, "placementbot_updates_total"))
	require.Contains(t, body, "placementbot_test_sessions_active 3")
}

func TestRegisterGaugeRebindsToLatestSource(t *testing.T) {
	require.NoError(t, RegisterGauge("test_rebound_gauge", "test gauge", func() float64 { return 1 }))
	require.NoError(t, RegisterGauge("test_rebound_gauge", "test gauge", func() float64 { return 7 }))

	body := get(t, newMux(nil), "/metrics").Body.String()
	require.Contains(t, body, "placementbot_test_rebound_gauge 7")
	require.NotContains(t, body, "placementbot_test_rebound_gauge 1")
}

func TestRegisterGaugeConflict(t *testing.T) {
	require.NoError(t, prometheus.Register(prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace, Name: "test_taken", Help: "taken",
	})))
	err := RegisterGauge("test_taken", "test gauge", func() float64 { return 0 })
	require.ErrorContains(t, err, "test_taken")
}

func TestWaitOnNilServer(t *testing.T) {
	var s *Server
	s.Wait()
}

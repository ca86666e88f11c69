package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestLedgerCounters(t *testing.T) {
	m := New()

	m.ObserveSupply(5)
	m.ObserveSupply(3)
	m.ObserveOfftake(false, 2)
	m.ObserveOfftake(true, 4)
	m.ObserveRejection("insufficient_stock")
	m.ObserveConflict()

	require.Equal(t, 2.0, testutil.ToFloat64(m.supplies))
	require.Equal(t, 8.0, testutil.ToFloat64(m.suppliedUnits))
	require.Equal(t, 1.0, testutil.ToFloat64(m.offtakes.WithLabelValues(KindConsumption)))
	require.Equal(t, 4.0, testutil.ToFloat64(m.offtakeUnits.WithLabelValues(KindDisposal)))
	require.Equal(t, 1.0, testutil.ToFloat64(m.rejections.WithLabelValues("insufficient_stock")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.txConflicts))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.ObserveSupply(1)
	m.ObserveOfftake(true, 1)
	m.ObserveConflict()

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})
	require.NotNil(t, m.Middleware(next))

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestMiddlewareRecordsRoutePattern(t *testing.T) {
	m := New()

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/items/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	handler := m.Middleware(mux)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/items/42", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Equal(t, 1.0, testutil.ToFloat64(m.requestsTotal.WithLabelValues("GET /api/items/{id}", "404")))

	rec = httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.True(t, strings.Contains(rec.Body.String(), "zaloga_http_requests_total"))
}

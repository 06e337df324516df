package metrics_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/fortest/myorders/internal/metrics"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMiddlewareUsesRoutePattern(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.NewHTTP(reg)

	router := chi.NewRouter()
	router.Use(m.Middleware)
	router.Get("/orders/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	for _, id := range []string{"1", "2", "3"} {
		router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/orders/"+id, nil))
	}

	expected := `
# HELP http_requests_total Total HTTP requests
# TYPE http_requests_total counter
http_requests_total{method="GET",path="/orders/{id}",status="404"} 3
`
	assert.NoError(t, testutil.CollectAndCompare(reg, strings.NewReader(expected), "http_requests_total"))
}

func TestChecks(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := metrics.NewChecks(reg)

	c.Observe("customer", "found")
	c.Observe("customer", "found")
	c.Observe("product", "unavailable")
	c.SetBreakerState("customer", 2)

	assert.Equal(t, 2, testutil.CollectAndCount(reg, "existence_checks_total"))
	assert.Equal(t, 1, testutil.CollectAndCount(reg, "circuit_breaker_state"))
}

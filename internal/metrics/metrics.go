package metrics

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
)

// HTTP instruments inbound requests (counter + histogram).
type HTTP struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

func NewHTTP(reg prometheus.Registerer) *HTTP {
	m := &HTTP{
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total HTTP requests",
			},
			[]string{"path", "method", "status"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"path", "method"},
		),
	}
	reg.MustRegister(m.requests, m.duration)
	return m
}

// Middleware labels requests by chi route pattern so ids don't explode the
// label space.
func (m *HTTP) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rw, r)

		path := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			path = rctx.RoutePattern()
		}

		m.requests.WithLabelValues(path, r.Method, fmt.Sprintf("%d", rw.status)).Inc()
		m.duration.WithLabelValues(path, r.Method).Observe(time.Since(start).Seconds())
	})
}

// statusRecorder captures the status code written by a handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Checks instruments outbound existence checks and breaker state per target.
type Checks struct {
	total   *prometheus.CounterVec
	breaker *prometheus.GaugeVec
}

func NewChecks(reg prometheus.Registerer) *Checks {
	c := &Checks{
		total: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "existence_checks_total",
				Help: "Remote existence checks by target and result",
			},
			[]string{"target", "result"},
		),
		breaker: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "circuit_breaker_state",
				Help: "Breaker state per target: 0 closed, 1 half-open, 2 open",
			},
			[]string{"target"},
		),
	}
	reg.MustRegister(c.total, c.breaker)
	return c
}

func (c *Checks) Observe(target, result string) {
	c.total.WithLabelValues(target, result).Inc()
}

func (c *Checks) SetBreakerState(target string, state int) {
	c.breaker.WithLabelValues(target).Set(float64(state))
}

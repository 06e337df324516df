// Package server holds the HTTP plumbing shared by every binary: the chi
// router with its middleware stack, /metrics, and the humacli lifecycle.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/danielgtaylor/huma/v2/humacli"
	"github.com/fortest/myorders/internal/metrics"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
)

// NewRouter returns a router with access logging, panic recovery and
// Prometheus instrumentation, with the collectors served on /metrics.
func NewRouter(reg *prometheus.Registry) chi.Router {
	router := chi.NewMux()

	router.Use(middleware.RequestID)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(metrics.NewHTTP(reg).Middleware)

	router.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	return router
}

// NewRegistry returns a registry carrying the Go and process collectors.
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// NewAPI attaches a huma API to router.
func NewAPI(router chi.Router, title string) huma.API {
	return humachi.New(router, huma.DefaultConfig(title, "1.0.0"))
}

// Run starts handler on the CLI port and runs cleanup, in order, after the
// server has drained.
func Run(hooks humacli.Hooks, port int, name string, handler http.Handler, logger *zap.Logger, cleanup ...func()) {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           otelhttp.NewHandler(handler, name),
		ReadHeaderTimeout: 5 * time.Second,
	}

	hooks.OnStart(func() {
		logger.Info("listening", zap.String("service", name), zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server failed", zap.Error(err))
		}
	})

	hooks.OnStop(func() {
		// Give the server 5 seconds to gracefully shut down, then give up.
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			logger.Warn("graceful shutdown failed", zap.Error(err))
		}
		for _, fn := range cleanup {
			fn()
		}
		_ = logger.Sync()
	})
}

// Package gateway forwards the public API to the service that owns each
// resource.
package gateway

import (
	"fmt"
	"net/http"
	"net/http/httputil"
	"net/url"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
)

// Route maps a resource prefix such as "/orders" to the base URL of the
// service that serves it.
type Route struct {
	Prefix  string
	BaseURL string
}

func newProxy(baseURL string, logger *zap.Logger) (*httputil.ReverseProxy, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse %q: %w", baseURL, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("base url %q needs a scheme and a host", baseURL)
	}
	// Services expose the same paths as the gateway, so only the origin is kept.
	origin := &url.URL{Scheme: u.Scheme, Host: u.Host}

	return &httputil.ReverseProxy{
		Rewrite: func(r *httputil.ProxyRequest) {
			r.SetURL(origin)
			r.SetXForwarded()
		},
		Transport: otelhttp.NewTransport(http.DefaultTransport),
		ErrorHandler: func(w http.ResponseWriter, r *http.Request, err error) {
			logger.Error("upstream request failed",
				zap.String("upstream", origin.String()),
				zap.String("path", r.URL.Path),
				zap.Error(err),
			)
			w.WriteHeader(http.StatusBadGateway)
		},
	}, nil
}

// Mount registers one proxy per route on r, for the prefix itself and
// everything below it.
func Mount(r chi.Router, logger *zap.Logger, routes ...Route) error {
	for _, rt := range routes {
		p, err := newProxy(rt.BaseURL, logger)
		if err != nil {
			return err
		}
		r.Handle(rt.Prefix, p)
		r.Handle(rt.Prefix+"/*", p)
		logger.Info("proxying", zap.String("prefix", rt.Prefix), zap.String("upstream", rt.BaseURL))
	}
	return nil
}

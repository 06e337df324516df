// Package remote answers "does entity id exist in service S?" over HTTP.
//
// Every target service gets its own circuit breaker. A check never returns an
// error: 2xx means the entity exists, 404 means it does not, and anything else
// (timeouts, refused connections, 5xx, an open breaker) is logged as a
// dependency outage and reported as "does not exist".
package remote

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/fortest/myorders/internal/config"
	"github.com/fortest/myorders/internal/metrics"
	"github.com/sony/gobreaker"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
)

var ErrDependencyUnavailable = errors.New("dependency unavailable")

// ExistenceChecker is what the order orchestrator depends on.
type ExistenceChecker interface {
	Exists(ctx context.Context, baseURL string, id uint) bool
}

// Target names a remote service for logs, metrics and its breaker.
type Target struct {
	Name    string
	BaseURL string
}

type Settings struct {
	Timeout      time.Duration
	MinRequests  uint32
	FailureRatio float64
	OpenTimeout  time.Duration
	HalfOpenMax  uint32
	Interval     time.Duration
}

func SettingsFromConfig(cfg *config.Config) Settings {
	return Settings{
		Timeout:      cfg.Services.CheckTimeout,
		MinRequests:  cfg.Breaker.MinRequests,
		FailureRatio: cfg.Breaker.FailureRatio,
		OpenTimeout:  cfg.Breaker.OpenTimeout,
		HalfOpenMax:  cfg.Breaker.HalfOpenMax,
		Interval:     cfg.Breaker.Interval,
	}
}

type Checker struct {
	client   *http.Client
	settings Settings
	logger   *zap.Logger
	metrics  *metrics.Checks

	mu       sync.Mutex
	breakers map[string]*gobreaker.CircuitBreaker
	names    map[string]string
}

// NewChecker builds a checker with one breaker per target. Base URLs that were
// not registered get a breaker on first use, named after the URL. m may be nil.
func NewChecker(settings Settings, logger *zap.Logger, m *metrics.Checks, targets ...Target) *Checker {
	c := &Checker{
		client: &http.Client{
			Timeout:   settings.Timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		settings: settings,
		logger:   logger,
		metrics:  m,
		breakers: make(map[string]*gobreaker.CircuitBreaker),
		names:    make(map[string]string),
	}

	for _, t := range targets {
		c.breaker(normalize(t.BaseURL), t.Name)
	}
	return c
}

func normalize(baseURL string) string {
	return strings.TrimRight(baseURL, "/")
}

func (c *Checker) breaker(baseURL, name string) (*gobreaker.CircuitBreaker, string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if cb, ok := c.breakers[baseURL]; ok {
		return cb, c.names[baseURL]
	}
	if name == "" {
		name = baseURL
	}

	s := c.settings
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: s.HalfOpenMax,
		Interval:    s.Interval,
		Timeout:     s.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= s.MinRequests && failureRatio >= s.FailureRatio
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			c.logger.Warn(
				"circuit breaker state changed",
				zap.String("name", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
			if c.metrics != nil {
				c.metrics.SetBreakerState(name, int(to))
			}
		},
	})

	c.breakers[baseURL] = cb
	c.names[baseURL] = name
	if c.metrics != nil {
		c.metrics.SetBreakerState(name, int(gobreaker.StateClosed))
	}
	return cb, name
}

// State exposes the breaker state of a target, mostly for tests and health.
func (c *Checker) State(baseURL string) gobreaker.State {
	cb, _ := c.breaker(normalize(baseURL), "")
	return cb.State()
}

// Exists issues GET <baseURL>/<id>. The inbound request's cancellation is not
// propagated; the check is bounded by the configured timeout instead.
func (c *Checker) Exists(ctx context.Context, baseURL string, id uint) bool {
	baseURL = normalize(baseURL)
	cb, name := c.breaker(baseURL, "")
	ctx = context.WithoutCancel(ctx)

	res, err := cb.Execute(func() (interface{}, error) {
		return c.fetch(ctx, baseURL, id)
	})
	if err != nil {
		return c.fallback(name, baseURL, id, err)
	}

	found := res.(bool)
	if c.metrics != nil {
		if found {
			c.metrics.Observe(name, "found")
		} else {
			c.metrics.Observe(name, "not_found")
		}
	}
	return found
}

func (c *Checker) fetch(ctx context.Context, baseURL string, id uint) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, c.settings.Timeout)
	defer cancel()

	url := fmt.Sprintf("%s/%d", baseURL, id)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return false, fmt.Errorf("%w: build request: %v", ErrDependencyUnavailable, err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrDependencyUnavailable, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return true, nil
	case resp.StatusCode == http.StatusNotFound:
		return false, nil
	default:
		return false, fmt.Errorf("%w: GET %s returned %d", ErrDependencyUnavailable, url, resp.StatusCode)
	}
}

func (c *Checker) fallback(name, baseURL string, id uint, err error) bool {
	result := "unavailable"
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		result = "short_circuited"
	}
	if c.metrics != nil {
		c.metrics.Observe(name, result)
	}

	c.logger.Error(
		name+" service is not available",
		zap.String("url", baseURL),
		zap.Uint("id", id),
		zap.String("result", result),
		zap.Error(err),
	)
	return false
}

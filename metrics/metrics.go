// Package metrics exposes prometheus counters for the auth, session and view
// pipelines. A *Metrics satisfies the observer hooks each of those packages
// accepts, so wiring is a matter of passing it in.
package metrics

import (
	"context"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/goliatone/go-blog/auth"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const DefaultNamespace = "blog"

type Metrics struct {
	registry *prometheus.Registry

	tokenRejections *prometheus.CounterVec
	sessions        *prometheus.CounterVec
	views           *prometheus.CounterVec
	authEvents      *prometheus.CounterVec
	requests        *prometheus.HistogramVec
}

// New creates a Metrics with its own registry. Go runtime and process
// collectors are registered alongside the service counters.
func New(namespace string) *Metrics {
	if namespace == "" {
		namespace = DefaultNamespace
	}

	m := &Metrics{
		registry: prometheus.NewRegistry(),
		tokenRejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "token_rejections_total",
			Help:      "Bearer tokens refused by the authorization gate, by reason.",
		}, []string{"reason"}),
		sessions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "db_sessions_total",
			Help:      "Database sessions by lifecycle event.",
		}, []string{"event"}),
		views: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "blog_views_total",
			Help:      "Blog view notifications by outcome.",
		}, []string{"outcome"}),
		authEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "auth_events_total",
			Help:      "Registration and login attempts by event type.",
		}, []string{"event"}),
		requests: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route and status.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
	}

	m.registry.MustRegister(
		m.tokenRejections,
		m.sessions,
		m.views,
		m.authEvents,
		m.requests,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return m
}

// Handler serves the registry in the prometheus text format
func (m *Metrics) Handler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))
}

// Middleware observes the latency of every request. Errors from the chain
// are rendered with the app error handler first so the recorded status is
// the one sent to the client. The route label is the matched pattern.
func (m *Metrics) Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		if err := c.Next(); err != nil {
			if herr := c.App().ErrorHandler(c, err); herr != nil {
				_ = c.SendStatus(fiber.StatusInternalServerError)
			}
		}

		m.requests.WithLabelValues(c.Method(), c.Route().Path, strconv.Itoa(c.Response().StatusCode())).
			Observe(time.Since(start).Seconds())
		return nil
	}
}

// TokenRejected counts a refused token. It has the shape of
// auth.RejectionRecorder.
func (m *Metrics) TokenRejected(reason string) {
	m.tokenRejections.WithLabelValues(reason).Inc()
}

func (m *Metrics) SessionOpened() {
	m.sessions.WithLabelValues("opened").Inc()
}

func (m *Metrics) SessionClosed(committed bool) {
	if committed {
		m.sessions.WithLabelValues("committed").Inc()
		return
	}
	m.sessions.WithLabelValues("rolled_back").Inc()
}

func (m *Metrics) SessionFailed() {
	m.sessions.WithLabelValues("unavailable").Inc()
}

func (m *Metrics) ViewQueued() {
	m.views.WithLabelValues("queued").Inc()
}

func (m *Metrics) ViewDropped() {
	m.views.WithLabelValues("dropped").Inc()
}

func (m *Metrics) ViewRecorded(err error) {
	if err != nil {
		m.views.WithLabelValues("failed").Inc()
		return
	}
	m.views.WithLabelValues("recorded").Inc()
}

// Record counts auth activity events
func (m *Metrics) Record(_ context.Context, event auth.ActivityEvent) error {
	m.authEvents.WithLabelValues(string(event.EventType)).Inc()
	return nil
}

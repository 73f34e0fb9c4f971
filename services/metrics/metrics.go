package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "janis"

// Metrics holds the application collectors on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	HTTPRequests     *prometheus.CounterVec
	HTTPDuration     *prometheus.HistogramVec
	MatchesComputed  prometheus.Counter
	WPSyncs          *prometheus.CounterVec
	WhatsAppMessages *prometheus.CounterVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		HTTPRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		MatchesComputed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "matches_computed_total",
			Help:      "Total number of requirement/property matches computed",
		}),
		WPSyncs: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "wp_sync_total",
				Help:      "WordPress listing syncs by result",
			},
			[]string{"result"},
		),
		WhatsAppMessages: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "whatsapp_messages_total",
				Help:      "WhatsApp messages by direction",
			},
			[]string{"direction"},
		),
	}
	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.HTTPRequests,
		m.HTTPDuration,
		m.MatchesComputed,
		m.WPSyncs,
		m.WhatsAppMessages,
	)
	return m
}

func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Middleware records the count and latency of requests by route.
func (m *Metrics) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)

			status := c.Response().Status
			if he, ok := err.(*echo.HTTPError); ok {
				status = he.Code
			}
			path := c.Path()
			if path == "" {
				path = "unmatched"
			}
			method := c.Request().Method
			m.HTTPRequests.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
			m.HTTPDuration.WithLabelValues(method, path).Observe(time.Since(start).Seconds())
			return err
		}
	}
}

// DirectionCounter adapts WhatsAppMessages to the lead service.
type DirectionCounter struct {
	vec *prometheus.CounterVec
}

func (m *Metrics) WhatsAppCounter() DirectionCounter {
	return DirectionCounter{vec: m.WhatsAppMessages}
}

func (dc DirectionCounter) Inc(direction string) {
	dc.vec.WithLabelValues(direction).Inc()
}

// SyncResult records a WordPress sync outcome ("ok" or "error").
func (m *Metrics) SyncResult(err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.WPSyncs.WithLabelValues(result).Inc()
}

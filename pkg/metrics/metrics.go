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

// Metrics holds the Prometheus registry plus HTTP and workflow collectors.
type Metrics struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	approvalsTotal  *prometheus.CounterVec
	pushDeliveries  *prometheus.CounterVec
	mapCacheLookups *prometheus.CounterVec
}

func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "fuelpricing_http_requests_total",
		Help: "HTTP requests by route, method and status code.",
	}, []string{"route", "method", "code"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "fuelpricing_http_request_duration_seconds",
		Help:    "HTTP request latency per route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route"})
	approvals := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "fuelpricing_suggestion_actions_total",
		Help: "Price suggestion workflow actions by action name.",
	}, []string{"action"})
	pushes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "fuelpricing_push_deliveries_total",
		Help: "Push notification delivery attempts by result.",
	}, []string{"result"})
	mapCache := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "fuelpricing_map_cache_lookups_total",
		Help: "Map layer cache lookups by result.",
	}, []string{"result"})
	registry.MustRegister(requests, duration, approvals, pushes, mapCache,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return &Metrics{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestsTotal:   requests,
		requestDuration: duration,
		approvalsTotal:  approvals,
		pushDeliveries:  pushes,
		mapCacheLookups: mapCache,
	}
}

func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// Middleware records count and latency keyed by the echo route pattern.
func (m *Metrics) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		if m == nil {
			return next
		}
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)

			status := c.Response().Status
			if err != nil {
				if he, ok := err.(*echo.HTTPError); ok {
					status = he.Code
				}
			}
			route := c.Path()
			if route == "" {
				route = "unknown"
			}
			m.requestsTotal.WithLabelValues(route, c.Request().Method, strconv.Itoa(status)).Inc()
			m.requestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
			return err
		}
	}
}

func (m *Metrics) SuggestionAction(action string) {
	if m == nil {
		return
	}
	m.approvalsTotal.WithLabelValues(action).Inc()
}

func (m *Metrics) PushDelivery(result string) {
	if m == nil {
		return
	}
	m.pushDeliveries.WithLabelValues(result).Inc()
}

func (m *Metrics) MapCache(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.mapCacheLookups.WithLabelValues(result).Inc()
}

func (m *Metrics) Registerer() prometheus.Registerer {
	if m == nil {
		return prometheus.DefaultRegisterer
	}
	return m.registry
}

package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the HTTP collectors for one registry.
type Metrics struct {
	duration *prometheus.HistogramVec
	total    *prometheus.CounterVec
	active   prometheus.Gauge
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "blueprint_cms",
			Name:      "http_request_duration_seconds",
			Help:      "Duration of HTTP requests",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"method", "route"}),
		total: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "blueprint_cms",
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		}, []string{"method", "route", "status"}),
		active: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "blueprint_cms",
			Name:      "http_requests_active",
			Help:      "Number of HTTP requests currently being processed",
		}),
	}
	reg.MustRegister(m.duration, m.total, m.active)
	return m
}

// Handler measures every request. Routes are labelled by their gin pattern
// so ids in paths do not explode cardinality.
func (m *Metrics) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		m.active.Inc()
		defer m.active.Dec()

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.duration.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
		m.total.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
	}
}

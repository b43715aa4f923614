package prometheus

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type PrometheusAdapter struct {
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	bookingEvents   *prometheus.CounterVec
}

// NewPrometheusAdapter registers the collectors on the default registry.
func NewPrometheusAdapter() *PrometheusAdapter {
	return NewPrometheusAdapterWith(prometheus.DefaultRegisterer)
}

func NewPrometheusAdapterWith(reg prometheus.Registerer) *PrometheusAdapter {
	factory := promauto.With(reg)

	return &PrometheusAdapter{
		requestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		requestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request latency",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path", "status"},
		),
		bookingEvents: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rental_booking_events_total",
				Help: "Booking lifecycle events",
			},
			[]string{"event"},
		),
	}
}

func (p *PrometheusAdapter) RecordMetrics(c *gin.Context, start time.Time) {
	path := c.FullPath()
	if path == "" {
		path = "unmatched"
	}
	status := strconv.Itoa(c.Writer.Status())

	p.requestsTotal.WithLabelValues(c.Request.Method, path, status).Inc()
	p.requestDuration.WithLabelValues(c.Request.Method, path, status).Observe(time.Since(start).Seconds())
}

func (p *PrometheusAdapter) RecordBookingEvent(event string) {
	p.bookingEvents.WithLabelValues(event).Inc()
}

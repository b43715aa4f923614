package prometheus

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordMetrics(t *testing.T) {
	gin.SetMode(gin.TestMode)
	metrics := NewPrometheusAdapterWith(prometheus.NewRegistry())

	router := gin.New()
	router.GET("/bikes/:id", func(c *gin.Context) {
		defer metrics.RecordMetrics(c, time.Now())
		c.Status(http.StatusNotFound)
	})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/bikes/abc", nil))

	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.requestsTotal.WithLabelValues("GET", "/bikes/:id", "404")))
}

func TestRecordBookingEvent(t *testing.T) {
	metrics := NewPrometheusAdapterWith(prometheus.NewRegistry())

	metrics.RecordBookingEvent("created")
	metrics.RecordBookingEvent("created")
	metrics.RecordBookingEvent("cancelled")

	assert.Equal(t, float64(2), testutil.ToFloat64(metrics.bookingEvents.WithLabelValues("created")))
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.bookingEvents.WithLabelValues("cancelled")))
}

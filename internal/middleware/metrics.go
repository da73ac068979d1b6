package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/impresahub/impresa_backend/internal/platform/metrics"
)

// Metrics records request count, latency and in-flight requests per route template.
func Metrics() gin.HandlerFunc {
	m := metrics.HTTP()
	return func(c *gin.Context) {
		m.InFlight.Inc()
		start := time.Now()

		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		status := strconv.Itoa(c.Writer.Status())
		m.RequestDuration.WithLabelValues(c.Request.Method, path, status).Observe(time.Since(start).Seconds())
		m.RequestsTotal.WithLabelValues(c.Request.Method, path, status).Inc()
		m.InFlight.Dec()
	}
}

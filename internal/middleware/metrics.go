package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"spectrum-keeper/services"
)

/**
 * MetricsMiddleware counts requests, durations and error responses per
 * route, feeding both the prometheus registry and the healthz summary.
 */
func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		duration := time.Since(start).Seconds()
		statusCode := c.Writer.Status()

		route := c.FullPath()
		if route == "" {
			route = "unknown"
		}

		services.IncrementRequestCount(route)
		services.RecordRequestDuration(route, duration)

		if statusCode >= 400 {
			services.IncrementErrorCount(route)
		}
	}
}

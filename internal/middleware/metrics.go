package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/farewellhq/event-pass-api/internal/service"
)

// Metrics returns middleware that records request duration and count.
// The scrape endpoint itself is not instrumented.
func Metrics(metricsSvc *service.MetricsService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if metricsSvc == nil || c.Request.URL.Path == "/metrics" {
			c.Next()
			return
		}
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		metricsSvc.ObserveHTTPRequest(c.Request.Method, path, c.Writer.Status(), time.Since(start))
	}
}

package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/finalproject-api/internal/service"
)

const unmatchedRoute = "unmatched"

// Metrics observes every request under its route template, so /projects/:id is one
// series no matter which project was asked for. Requests that match no route share
// a single label, and scrapes of skipPaths are not counted.
func Metrics(metricsSvc *service.MetricsService, skipPaths ...string) gin.HandlerFunc {
	skip := make(map[string]struct{}, len(skipPaths))
	for _, p := range skipPaths {
		skip[p] = struct{}{}
	}
	return func(c *gin.Context) {
		if metricsSvc == nil {
			c.Next()
			return
		}
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if _, ok := skip[route]; ok {
			return
		}
		if route == "" {
			route = unmatchedRoute
		}
		metricsSvc.ObserveHTTPRequest(c.Request.Method, route, c.Writer.Status(), time.Since(start))
	}
}

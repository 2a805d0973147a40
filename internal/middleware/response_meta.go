package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
)

const responseMetaKey = "response_meta"

// Keys rendered under "meta" in the response envelope.
const (
	MetaCacheHit       = "cache_hit"
	MetaProcessingTime = "processing_time_ms"
)

// WithResponseMeta gives every request an empty metadata map. Handlers serving cached
// aggregates fill it in before writing the response.
func WithResponseMeta() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(responseMetaKey, map[string]interface{}{})
		c.Next()
	}
}

// SetCacheHit records whether the dashboard snapshot was served from the cache.
func SetCacheHit(c *gin.Context, hit bool) {
	metaFor(c)[MetaCacheHit] = hit
}

// SetProcessingTime records how long the handler spent building the payload.
func SetProcessingTime(c *gin.Context, elapsed time.Duration) {
	metaFor(c)[MetaProcessingTime] = elapsed.Milliseconds()
}

// ResponseMeta returns the metadata collected for the request. It is never nil.
func ResponseMeta(c *gin.Context) map[string]interface{} {
	return metaFor(c)
}

func metaFor(c *gin.Context) map[string]interface{} {
	if c == nil {
		return map[string]interface{}{}
	}
	if meta, exists := c.Get(responseMetaKey); exists {
		if typed, ok := meta.(map[string]interface{}); ok {
			return typed
		}
	}
	meta := map[string]interface{}{}
	c.Set(responseMetaKey, meta)
	return meta
}

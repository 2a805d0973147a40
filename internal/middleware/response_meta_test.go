package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestResponseMetaCollectsDashboardFields(t *testing.T) {
	gin.SetMode(gin.TestMode)
	var meta map[string]interface{}
	r := gin.New()
	r.Use(WithResponseMeta())
	r.GET("/dashboard", func(c *gin.Context) {
		SetCacheHit(c, true)
		SetProcessingTime(c, 1500*time.Millisecond)
		meta = ResponseMeta(c)
		c.Status(http.StatusOK)
	})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/dashboard", nil))
	assert.Equal(t, map[string]interface{}{MetaCacheHit: true, MetaProcessingTime: int64(1500)}, meta)
}

func TestResponseMetaWithoutMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())

	assert.Empty(t, ResponseMeta(c))
	SetCacheHit(c, false)
	assert.Equal(t, false, ResponseMeta(c)[MetaCacheHit])
	assert.NotNil(t, ResponseMeta(nil))
}

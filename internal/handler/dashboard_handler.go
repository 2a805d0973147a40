package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/finalproject-api/internal/dto"
	"github.com/noah-isme/finalproject-api/internal/middleware"
	"github.com/noah-isme/finalproject-api/internal/policy"
	appErrors "github.com/noah-isme/finalproject-api/pkg/errors"
	"github.com/noah-isme/finalproject-api/pkg/export"
	"github.com/noah-isme/finalproject-api/pkg/response"
)

type dashboardService interface {
	Summary(ctx context.Context, actor policy.Actor) (*dto.DashboardSummary, bool, error)
	Export(ctx context.Context, actor policy.Actor, format string) (*export.File, error)
}

// DashboardHandler wires dashboard service to HTTP endpoints.
type DashboardHandler struct {
	service dashboardService
}

// NewDashboardHandler constructs the handler.
func NewDashboardHandler(service dashboardService) *DashboardHandler {
	return &DashboardHandler{service: service}
}

// Summary godoc
// @Summary Record counts and advisor quota usage
// @Tags Dashboard
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /dashboard [get]
func (h *DashboardHandler) Summary(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	start := time.Now()
	summary, cacheHit, err := h.service.Summary(c.Request.Context(), actor)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, cacheHit)
	middleware.SetProcessingTime(c, time.Since(start))
	response.JSON(c, http.StatusOK, summary, nil, middleware.ResponseMeta(c))
}

// Export godoc
// @Summary Download advisor quota usage
// @Tags Dashboard
// @Produce octet-stream
// @Param format query string false "csv, pdf or xlsx"
// @Success 200 {file} file
// @Router /dashboard/export [get]
func (h *DashboardHandler) Export(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	file, err := h.service.Export(c.Request.Context(), actor, c.Query("format"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, file.Name, file.ContentType, file.Body)
}

package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/finalproject-api/internal/dto"
	"github.com/noah-isme/finalproject-api/internal/models"
	"github.com/noah-isme/finalproject-api/internal/policy"
	"github.com/noah-isme/finalproject-api/pkg/response"
)

type advisorService interface {
	List(ctx context.Context, actor policy.Actor, filter models.AdvisorFilter) ([]models.Advisor, *models.Pagination, error)
	Get(ctx context.Context, actor policy.Actor, id string) (*models.Advisor, error)
	Create(ctx context.Context, actor policy.Actor, payload dto.AdvisorPayload) (*models.Advisor, error)
	Update(ctx context.Context, actor policy.Actor, id string, payload dto.AdvisorPayload, full bool) (*models.Advisor, error)
	SetRoles(ctx context.Context, actor policy.Actor, id string, req dto.AdvisorRolesAssignment) (*models.Advisor, error)
	Delete(ctx context.Context, actor policy.Actor, id string) error
}

// AdvisorHandler exposes advisor endpoints.
type AdvisorHandler struct {
	advisors advisorService
}

// NewAdvisorHandler constructs AdvisorHandler.
func NewAdvisorHandler(advisors advisorService) *AdvisorHandler {
	return &AdvisorHandler{advisors: advisors}
}

// List godoc
// @Summary List advisors
// @Tags Advisors
// @Produce json
// @Param search query string false "Search by name or email"
// @Param department query string false "Filter by department"
// @Success 200 {object} response.Envelope
// @Router /advisors [get]
func (h *AdvisorHandler) List(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	filter := models.AdvisorFilter{
		ListQuery:  listQuery(c),
		Department: strings.TrimSpace(c.Query("department")),
	}
	advisors, pagination, err := h.advisors.List(c.Request.Context(), actor, filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, advisors, pagination)
}

// Get returns one advisor with its roles.
func (h *AdvisorHandler) Get(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	advisor, err := h.advisors.Get(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, advisor, nil)
}

// Create adds an advisor.
func (h *AdvisorHandler) Create(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	var req dto.AdvisorPayload
	if !bindJSON(c, &req, "invalid payload") {
		return
	}
	advisor, err := h.advisors.Create(c.Request.Context(), actor, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, advisor)
}

// Update handles PUT.
func (h *AdvisorHandler) Update(c *gin.Context) {
	h.update(c, true)
}

// Patch handles PATCH.
func (h *AdvisorHandler) Patch(c *gin.Context) {
	h.update(c, false)
}

func (h *AdvisorHandler) update(c *gin.Context, full bool) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	var req dto.AdvisorPayload
	if !bindJSON(c, &req, "invalid payload") {
		return
	}
	advisor, err := h.advisors.Update(c.Request.Context(), actor, c.Param("id"), req, full)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, advisor, nil)
}

// SetRoles godoc
// @Summary Replace advisor roles
// @Tags Advisors
// @Accept json
// @Produce json
// @Param id path string true "Advisor ID"
// @Param payload body dto.AdvisorRolesAssignment true "Role ids"
// @Success 200 {object} response.Envelope
// @Router /advisors/{id}/roles [put]
func (h *AdvisorHandler) SetRoles(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	var req dto.AdvisorRolesAssignment
	if !bindJSON(c, &req, "invalid payload") {
		return
	}
	advisor, err := h.advisors.SetRoles(c.Request.Context(), actor, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, advisor, nil)
}

// Delete removes an advisor.
func (h *AdvisorHandler) Delete(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	if err := h.advisors.Delete(c.Request.Context(), actor, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/finalproject-api/internal/dto"
	"github.com/noah-isme/finalproject-api/internal/models"
	"github.com/noah-isme/finalproject-api/internal/policy"
	"github.com/noah-isme/finalproject-api/pkg/response"
)

type advisorRoleService interface {
	List(ctx context.Context, actor policy.Actor) ([]models.AdvisorRole, error)
	Get(ctx context.Context, actor policy.Actor, id string) (*models.AdvisorRole, error)
	Create(ctx context.Context, actor policy.Actor, payload dto.AdvisorRolePayload) (*models.AdvisorRole, error)
	Update(ctx context.Context, actor policy.Actor, id string, payload dto.AdvisorRolePayload) (*models.AdvisorRole, error)
	Delete(ctx context.Context, actor policy.Actor, id string) error
}

// AdvisorRoleHandler exposes the advisor role catalogue.
type AdvisorRoleHandler struct {
	roles advisorRoleService
}

// NewAdvisorRoleHandler constructs AdvisorRoleHandler.
func NewAdvisorRoleHandler(roles advisorRoleService) *AdvisorRoleHandler {
	return &AdvisorRoleHandler{roles: roles}
}

func (h *AdvisorRoleHandler) List(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	roles, err := h.roles.List(c.Request.Context(), actor)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, roles, nil)
}

func (h *AdvisorRoleHandler) Get(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	role, err := h.roles.Get(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, role, nil)
}

func (h *AdvisorRoleHandler) Create(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	var req dto.AdvisorRolePayload
	if !bindJSON(c, &req, "invalid payload") {
		return
	}
	role, err := h.roles.Create(c.Request.Context(), actor, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, role)
}

func (h *AdvisorRoleHandler) Update(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	var req dto.AdvisorRolePayload
	if !bindJSON(c, &req, "invalid payload") {
		return
	}
	role, err := h.roles.Update(c.Request.Context(), actor, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, role, nil)
}

func (h *AdvisorRoleHandler) Delete(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	if err := h.roles.Delete(c.Request.Context(), actor, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

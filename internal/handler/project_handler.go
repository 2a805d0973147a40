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

type projectService interface {
	List(ctx context.Context, actor policy.Actor, filter models.ProjectFilter) ([]models.FinalProject, *models.Pagination, error)
	Get(ctx context.Context, actor policy.Actor, id string) (*models.FinalProject, error)
	Create(ctx context.Context, actor policy.Actor, payload dto.ProjectPayload) (*models.FinalProject, error)
	Update(ctx context.Context, actor policy.Actor, id string, payload dto.ProjectPayload, full bool) (*models.FinalProject, error)
	Delete(ctx context.Context, actor policy.Actor, id string) error
}

// ProjectHandler exposes final project endpoints.
type ProjectHandler struct {
	projects projectService
}

// NewProjectHandler constructs ProjectHandler.
func NewProjectHandler(projects projectService) *ProjectHandler {
	return &ProjectHandler{projects: projects}
}

// List godoc
// @Summary List the projects visible to the caller
// @Tags Projects
// @Produce json
// @Param search query string false "Search by title"
// @Param status query string false "Filter by status"
// @Param advisor_id query string false "Filter by lead advisor"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /projects [get]
func (h *ProjectHandler) List(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	filter := models.ProjectFilter{
		ListQuery: listQuery(c),
		Status:    models.ProjectStatus(strings.TrimSpace(c.Query("status"))),
		AdvisorID: strings.TrimSpace(c.Query("advisor_id")),
	}
	projects, pagination, err := h.projects.List(c.Request.Context(), actor, filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, projects, pagination)
}

// Get godoc
// @Summary Get project detail
// @Tags Projects
// @Produce json
// @Param id path string true "Project ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /projects/{id} [get]
func (h *ProjectHandler) Get(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	project, err := h.projects.Get(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, project, nil)
}

// Create godoc
// @Summary Create project
// @Tags Projects
// @Accept json
// @Produce json
// @Param payload body dto.ProjectPayload true "Project payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /projects [post]
func (h *ProjectHandler) Create(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	var req dto.ProjectPayload
	if !bindJSON(c, &req, "invalid payload") {
		return
	}
	project, err := h.projects.Create(c.Request.Context(), actor, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, project)
}

// Update godoc
// @Summary Replace project
// @Tags Projects
// @Accept json
// @Produce json
// @Param id path string true "Project ID"
// @Param payload body dto.ProjectPayload true "Project payload"
// @Success 200 {object} response.Envelope
// @Router /projects/{id} [put]
func (h *ProjectHandler) Update(c *gin.Context) {
	h.update(c, true)
}

// Patch godoc
// @Summary Partially update project
// @Tags Projects
// @Accept json
// @Produce json
// @Param id path string true "Project ID"
// @Param payload body dto.ProjectPayload true "Project payload"
// @Success 200 {object} response.Envelope
// @Router /projects/{id} [patch]
func (h *ProjectHandler) Patch(c *gin.Context) {
	h.update(c, false)
}

func (h *ProjectHandler) update(c *gin.Context, full bool) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	var req dto.ProjectPayload
	if !bindJSON(c, &req, "invalid payload") {
		return
	}
	project, err := h.projects.Update(c.Request.Context(), actor, c.Param("id"), req, full)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, project, nil)
}

// Delete godoc
// @Summary Delete project
// @Tags Projects
// @Param id path string true "Project ID"
// @Success 204
// @Router /projects/{id} [delete]
func (h *ProjectHandler) Delete(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	if err := h.projects.Delete(c.Request.Context(), actor, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

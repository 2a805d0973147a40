package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/finalproject-api/internal/middleware"
	"github.com/noah-isme/finalproject-api/internal/models"
	"github.com/noah-isme/finalproject-api/internal/policy"
	appErrors "github.com/noah-isme/finalproject-api/pkg/errors"
	"github.com/noah-isme/finalproject-api/pkg/response"
)

// actorFromContext returns the caller resolved by the JWT middleware, writing a 401 when absent.
func actorFromContext(c *gin.Context) (policy.Actor, bool) {
	actor, ok := middleware.ActorFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return policy.Actor{}, false
	}
	return actor, true
}

// bindJSON decodes the request body, writing a 400 when it is not valid JSON for dst.
func bindJSON(c *gin.Context, dst interface{}, message string) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, message))
		return false
	}
	return true
}

func listQuery(c *gin.Context) models.ListQuery {
	q := models.ListQuery{
		Search:    strings.TrimSpace(c.Query("search")),
		SortBy:    c.Query("sort"),
		SortOrder: c.Query("order"),
	}
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		q.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		q.PageSize = size
	}
	return q
}

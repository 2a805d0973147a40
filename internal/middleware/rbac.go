package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/finalproject-api/internal/models"
	appErrors "github.com/noah-isme/finalproject-api/pkg/errors"
	"github.com/noah-isme/finalproject-api/pkg/response"
)

// RequireRoles rejects callers whose role is not listed. It must run after JWT.
func RequireRoles(roles ...models.UserRole) gin.HandlerFunc {
	allowed := make(map[models.UserRole]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}
	return func(c *gin.Context) {
		actor, ok := ActorFromContext(c)
		if !ok {
			response.AbortWithError(c, appErrors.ErrUnauthorized)
			return
		}
		if _, ok := allowed[actor.Role]; !ok {
			response.AbortWithError(c, appErrors.ErrForbidden)
			return
		}
		c.Next()
	}
}

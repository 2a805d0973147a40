package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/finalproject-api/internal/models"
	"github.com/noah-isme/finalproject-api/internal/policy"
	appErrors "github.com/noah-isme/finalproject-api/pkg/errors"
	"github.com/noah-isme/finalproject-api/pkg/logger"
	"github.com/noah-isme/finalproject-api/pkg/response"
)

const (
	// ContextUserKey is the gin context key storing JWT claims.
	ContextUserKey = "currentUser"
	// ContextActorKey is the gin context key storing the resolved policy.Actor.
	ContextActorKey = "currentActor"
)

// TokenAuthenticator verifies access tokens and resolves the caller behind them.
type TokenAuthenticator interface {
	ValidateToken(token string) (*models.JWTClaims, error)
	ResolveActor(ctx context.Context, claims *models.JWTClaims) (policy.Actor, error)
}

// JWT protects routes by requiring a valid access token for an active user.
func JWT(auth TokenAuthenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			response.AbortWithError(c, appErrors.Clone(appErrors.ErrUnauthorized, "authentication credentials were not provided"))
			return
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			response.AbortWithError(c, appErrors.Clone(appErrors.ErrUnauthorized, "invalid authorization header"))
			return
		}

		claims, err := auth.ValidateToken(strings.TrimSpace(parts[1]))
		if err != nil {
			response.AbortWithError(c, err)
			return
		}

		actor, err := auth.ResolveActor(c.Request.Context(), claims)
		if err != nil {
			response.AbortWithError(c, err)
			return
		}

		c.Set(ContextUserKey, claims)
		c.Set(ContextActorKey, actor)
		c.Set(logger.UserIDKey, actor.UserID)
		c.Next()
	}
}

// ActorFromContext returns the actor stored by JWT.
func ActorFromContext(c *gin.Context) (policy.Actor, bool) {
	value, exists := c.Get(ContextActorKey)
	if !exists {
		return policy.Actor{}, false
	}
	actor, ok := value.(policy.Actor)
	return actor, ok
}

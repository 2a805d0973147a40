package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/finalproject-api/internal/models"
	"github.com/noah-isme/finalproject-api/internal/policy"
	appErrors "github.com/noah-isme/finalproject-api/pkg/errors"
)

type stubAuthenticator struct {
	claims     *models.JWTClaims
	validErr   error
	actor      policy.Actor
	resolveErr error
	lastToken  string
}

func (s *stubAuthenticator) ValidateToken(token string) (*models.JWTClaims, error) {
	s.lastToken = token
	return s.claims, s.validErr
}

func (s *stubAuthenticator) ResolveActor(context.Context, *models.JWTClaims) (policy.Actor, error) {
	return s.actor, s.resolveErr
}

func protectedRouter(auth TokenAuthenticator, roles ...models.UserRole) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	chain := []gin.HandlerFunc{JWT(auth)}
	if len(roles) > 0 {
		chain = append(chain, RequireRoles(roles...))
	}
	chain = append(chain, func(c *gin.Context) {
		actor, ok := ActorFromContext(c)
		if !ok {
			c.Status(http.StatusTeapot)
			return
		}
		c.String(http.StatusOK, actor.Username)
	})
	r.GET("/protected", chain...)
	return r
}

func TestJWTRejectsMissingAndMalformedHeaders(t *testing.T) {
	r := protectedRouter(&stubAuthenticator{})

	for _, header := range []string{"", "Token abc", "Bearer"} {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		r.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, header)
	}
}

func TestJWTPropagatesValidationErrors(t *testing.T) {
	auth := &stubAuthenticator{validErr: appErrors.Clone(appErrors.ErrUnauthorized, "token is invalid or expired")}
	r := protectedRouter(auth)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer expired")
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "expired", auth.lastToken)
}

func TestJWTRejectsInactiveUser(t *testing.T) {
	auth := &stubAuthenticator{claims: &models.JWTClaims{UserID: "u-1"}, resolveErr: appErrors.ErrUnauthorized}
	r := protectedRouter(auth)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer good")
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestJWTStoresActor(t *testing.T) {
	auth := &stubAuthenticator{
		claims: &models.JWTClaims{UserID: "u-1"},
		actor:  policy.Actor{UserID: "u-1", Username: "ani", Role: models.RoleStudent},
	}
	r := protectedRouter(auth)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "bearer good")
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ani", rec.Body.String())
}

func TestRequireRoles(t *testing.T) {
	auth := &stubAuthenticator{claims: &models.JWTClaims{UserID: "u-1"}}

	cases := []struct {
		role   models.UserRole
		status int
	}{
		{models.RoleAdmin, http.StatusOK},
		{models.RoleStaff, http.StatusOK},
		{models.RoleLecturer, http.StatusForbidden},
		{models.RoleStudent, http.StatusForbidden},
	}
	for _, tc := range cases {
		auth.actor = policy.Actor{UserID: "u-1", Username: "x", Role: tc.role}
		r := protectedRouter(auth, models.RoleAdmin, models.RoleStaff)

		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		req.Header.Set("Authorization", "Bearer good")
		r.ServeHTTP(rec, req)
		assert.Equal(t, tc.status, rec.Code, string(tc.role))
	}
}

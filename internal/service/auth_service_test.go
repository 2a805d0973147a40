package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/finalproject-api/internal/models"
	appErrors "github.com/noah-isme/finalproject-api/pkg/errors"
)

type mockAuthRepo struct {
	users            map[string]*models.User
	profiles         map[string]*models.Profile
	lastLoginUpdated bool
}

func (m *mockAuthRepo) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	for _, u := range m.users {
		if u.Username == username {
			return u, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockAuthRepo) FindByID(ctx context.Context, id string) (*models.User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return u, nil
}

func (m *mockAuthRepo) FindProfile(ctx context.Context, userID string) (*models.Profile, error) {
	p, ok := m.profiles[userID]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return p, nil
}

func (m *mockAuthRepo) UpdateLastLogin(ctx context.Context, id string, ts time.Time) error {
	m.lastLoginUpdated = true
	return nil
}

func newAuthFixture(t *testing.T) (*AuthService, *mockAuthRepo) {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret-pass"), bcrypt.MinCost)
	require.NoError(t, err)

	repo := &mockAuthRepo{
		users: map[string]*models.User{
			"u-ani":  {ID: "u-ani", Username: "ani", PasswordHash: string(hash), Role: models.RoleStudent, Active: true},
			"u-gone": {ID: "u-gone", Username: "gone", PasswordHash: string(hash), Role: models.RoleStudent, Active: false},
		},
		profiles: map[string]*models.Profile{
			"u-ani":  {UserID: "u-ani", Username: "ani", Role: models.RoleStudent, Active: true, StudentID: strRef(studentAni)},
			"u-gone": {UserID: "u-gone", Username: "gone", Role: models.RoleStudent, Active: false},
		},
	}
	svc := NewAuthService(repo, nil, nil, AuthConfig{
		Secret:             "test-secret",
		Issuer:             "finalproject-api",
		AccessTokenExpiry:  time.Minute,
		RefreshTokenExpiry: time.Hour,
	})
	return svc, repo
}

func TestAuthServiceLogin(t *testing.T) {
	svc, repo := newAuthFixture(t)

	pair, err := svc.Login(context.Background(), models.LoginRequest{Username: "ani", Password: "s3cret-pass"})
	require.NoError(t, err)
	assert.NotEmpty(t, pair.AccessToken)
	assert.NotEmpty(t, pair.RefreshToken)
	assert.Equal(t, int64(60), pair.ExpiresIn)
	assert.True(t, repo.lastLoginUpdated)

	claims, err := svc.ValidateToken(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "u-ani", claims.UserID)
	assert.Equal(t, models.TokenTypeAccess, claims.TokenType)
}

func TestAuthServiceLoginFailures(t *testing.T) {
	svc, _ := newAuthFixture(t)

	_, err := svc.Login(context.Background(), models.LoginRequest{Username: "ani", Password: "wrong"})
	requireCode(t, err, appErrors.ErrInvalidCredentials)

	_, err = svc.Login(context.Background(), models.LoginRequest{Username: "nobody", Password: "s3cret-pass"})
	requireCode(t, err, appErrors.ErrInvalidCredentials)

	_, err = svc.Login(context.Background(), models.LoginRequest{Username: "gone", Password: "s3cret-pass"})
	requireCode(t, err, appErrors.ErrInactiveAccount)

	_, err = svc.Login(context.Background(), models.LoginRequest{})
	requireCode(t, err, appErrors.ErrValidation)
}

func TestAuthServiceRefresh(t *testing.T) {
	svc, _ := newAuthFixture(t)
	pair, err := svc.Login(context.Background(), models.LoginRequest{Username: "ani", Password: "s3cret-pass"})
	require.NoError(t, err)

	refreshed, err := svc.Refresh(context.Background(), models.RefreshTokenRequest{RefreshToken: pair.RefreshToken})
	require.NoError(t, err)
	assert.NotEmpty(t, refreshed.AccessToken)
	assert.Empty(t, refreshed.RefreshToken)

	// an access token is not accepted where a refresh token is expected, and vice versa
	_, err = svc.Refresh(context.Background(), models.RefreshTokenRequest{RefreshToken: pair.AccessToken})
	requireCode(t, err, appErrors.ErrUnauthorized)
	_, err = svc.ValidateToken(pair.RefreshToken)
	requireCode(t, err, appErrors.ErrUnauthorized)
}

func TestAuthServiceRejectsExpiredToken(t *testing.T) {
	svc, _ := newAuthFixture(t)
	pair, err := svc.Login(context.Background(), models.LoginRequest{Username: "ani", Password: "s3cret-pass"})
	require.NoError(t, err)

	svc.now = func() time.Time { return time.Now().Add(2 * time.Minute) }
	_, err = svc.ValidateToken(pair.AccessToken)
	requireCode(t, err, appErrors.ErrUnauthorized)
}

func TestAuthServiceResolveActor(t *testing.T) {
	svc, _ := newAuthFixture(t)

	actor, err := svc.ResolveActor(context.Background(), &models.JWTClaims{UserID: "u-ani"})
	require.NoError(t, err)
	assert.Equal(t, models.RoleStudent, actor.Role)
	assert.Equal(t, studentAni, actor.StudentID)
	assert.Empty(t, actor.AdvisorID)

	_, err = svc.ResolveActor(context.Background(), &models.JWTClaims{UserID: "u-gone"})
	requireCode(t, err, appErrors.ErrUnauthorized)

	_, err = svc.ResolveActor(context.Background(), &models.JWTClaims{UserID: "u-missing"})
	requireCode(t, err, appErrors.ErrUnauthorized)
}

func TestAuthServiceMe(t *testing.T) {
	svc, _ := newAuthFixture(t)

	me, err := svc.Me(context.Background(), aniActor)
	require.NoError(t, err)
	assert.Equal(t, "ani", me.User.Username)
	require.NotNil(t, me.StudentID)
	assert.Equal(t, studentAni, *me.StudentID)
	assert.Nil(t, me.AdvisorID)
}

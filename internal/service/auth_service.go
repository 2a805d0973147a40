package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/finalproject-api/internal/dto"
	"github.com/noah-isme/finalproject-api/internal/models"
	"github.com/noah-isme/finalproject-api/internal/policy"
	appErrors "github.com/noah-isme/finalproject-api/pkg/errors"
)

type authUserRepository interface {
	FindByUsername(ctx context.Context, username string) (*models.User, error)
	FindByID(ctx context.Context, id string) (*models.User, error)
	FindProfile(ctx context.Context, userID string) (*models.Profile, error)
	UpdateLastLogin(ctx context.Context, id string, ts time.Time) error
}

// AuthConfig defines configuration for authentication flows.
type AuthConfig struct {
	Secret             string
	Issuer             string
	AccessTokenExpiry  time.Duration
	RefreshTokenExpiry time.Duration
}

// AuthService issues and verifies signed tokens and resolves the caller behind them.
type AuthService struct {
	repo      authUserRepository
	validator *validator.Validate
	logger    *zap.Logger
	config    AuthConfig
	now       func() time.Time
}

// NewAuthService constructs an AuthService instance.
func NewAuthService(repo authUserRepository, validate *validator.Validate, logger *zap.Logger, config AuthConfig) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = NewValidator()
	}
	if config.AccessTokenExpiry <= 0 {
		config.AccessTokenExpiry = 5 * time.Minute
	}
	if config.RefreshTokenExpiry <= 0 {
		config.RefreshTokenExpiry = 24 * time.Hour
	}
	return &AuthService{repo: repo, validator: validate, logger: logger, config: config, now: time.Now}
}

// Login checks credentials and returns an access and refresh token.
func (s *AuthService) Login(ctx context.Context, req models.LoginRequest) (*models.TokenPair, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid login payload")
	}

	user, err := s.repo.FindByUsername(ctx, req.Username)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrInvalidCredentials, "")
		}
		return nil, internalError(err, "failed to fetch user")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, appErrors.Clone(appErrors.ErrInvalidCredentials, "")
	}
	if !user.Active {
		return nil, appErrors.Clone(appErrors.ErrInactiveAccount, "")
	}

	issuedAt := s.now().UTC()
	access, err := s.sign(user, models.TokenTypeAccess, issuedAt, s.config.AccessTokenExpiry)
	if err != nil {
		return nil, internalError(err, "failed to create access token")
	}
	refresh, err := s.sign(user, models.TokenTypeRefresh, issuedAt, s.config.RefreshTokenExpiry)
	if err != nil {
		return nil, internalError(err, "failed to create refresh token")
	}

	if err := s.repo.UpdateLastLogin(ctx, user.ID, issuedAt); err != nil {
		s.logger.Warn("failed to update last login", zap.String("user_id", user.ID), zap.Error(err))
	}

	return &models.TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    int64(s.config.AccessTokenExpiry.Seconds()),
		IssuedAt:     issuedAt,
	}, nil
}

// Refresh exchanges a refresh token for a new access token.
func (s *AuthService) Refresh(ctx context.Context, req models.RefreshTokenRequest) (*models.TokenPair, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid refresh payload")
	}

	claims, err := s.parse(req.RefreshToken, models.TokenTypeRefresh)
	if err != nil {
		return nil, err
	}

	user, err := s.repo.FindByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrUnauthorized, "user not found")
		}
		return nil, internalError(err, "failed to load user")
	}
	if !user.Active {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "user is inactive")
	}

	issuedAt := s.now().UTC()
	access, err := s.sign(user, models.TokenTypeAccess, issuedAt, s.config.AccessTokenExpiry)
	if err != nil {
		return nil, internalError(err, "failed to create access token")
	}
	return &models.TokenPair{
		AccessToken: access,
		ExpiresIn:   int64(s.config.AccessTokenExpiry.Seconds()),
		IssuedAt:    issuedAt,
	}, nil
}

// ValidateToken parses and validates an access token returning the claims.
func (s *AuthService) ValidateToken(tokenString string) (*models.JWTClaims, error) {
	return s.parse(tokenString, models.TokenTypeAccess)
}

// ResolveActor loads the caller's current role and profile links. Role and links are read
// from the database on every request so a stale token never widens access.
func (s *AuthService) ResolveActor(ctx context.Context, claims *models.JWTClaims) (policy.Actor, error) {
	profile, err := s.repo.FindProfile(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return policy.Actor{}, appErrors.Clone(appErrors.ErrUnauthorized, "user not found")
		}
		return policy.Actor{}, internalError(err, "failed to load user profile")
	}
	if !profile.Active {
		return policy.Actor{}, appErrors.Clone(appErrors.ErrUnauthorized, "user is inactive")
	}

	actor := policy.Actor{UserID: profile.UserID, Username: profile.Username, Role: profile.Role}
	if profile.StudentID != nil {
		actor.StudentID = *profile.StudentID
	}
	if profile.AdvisorID != nil {
		actor.AdvisorID = *profile.AdvisorID
	}
	return actor, nil
}

// Me describes the authenticated caller.
func (s *AuthService) Me(ctx context.Context, actor policy.Actor) (*dto.MeResponse, error) {
	user, err := s.repo.FindByID(ctx, actor.UserID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, notFound("user")
		}
		return nil, internalError(err, "failed to load user")
	}
	resp := &dto.MeResponse{User: *user}
	if actor.StudentID != "" {
		id := actor.StudentID
		resp.StudentID = &id
	}
	if actor.AdvisorID != "" {
		id := actor.AdvisorID
		resp.AdvisorID = &id
	}
	return resp, nil
}

func (s *AuthService) sign(user *models.User, tokenType models.TokenType, issuedAt time.Time, ttl time.Duration) (string, error) {
	claims := &models.JWTClaims{
		UserID:    user.ID,
		Username:  user.Username,
		Role:      user.Role,
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.config.Issuer,
			Subject:   user.ID,
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			NotBefore: jwt.NewNumericDate(issuedAt),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.config.Secret))
}

func (s *AuthService) parse(tokenString string, expected models.TokenType) (*models.JWTClaims, error) {
	options := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.now)}
	if s.config.Issuer != "" {
		options = append(options, jwt.WithIssuer(s.config.Issuer))
	}
	token, err := jwt.ParseWithClaims(tokenString, &models.JWTClaims{}, func(*jwt.Token) (interface{}, error) {
		return []byte(s.config.Secret), nil
	}, options...)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "token is invalid or expired")
	}

	claims, ok := token.Claims.(*models.JWTClaims)
	if !ok || !token.Valid {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token claims")
	}
	if claims.TokenType != expected {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "token has wrong type")
	}
	return claims, nil
}

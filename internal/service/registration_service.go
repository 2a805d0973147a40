package service

import (
	"context"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/finalproject-api/internal/dto"
	"github.com/noah-isme/finalproject-api/internal/models"
	appErrors "github.com/noah-isme/finalproject-api/pkg/errors"
)

type registrationRepository interface {
	ExistsByUsername(ctx context.Context, username string) (bool, error)
	CreateWithProfile(ctx context.Context, user *models.User, student *models.Student, advisor *models.Advisor) error
}

// RegistrationConfig tunes public sign-up.
type RegistrationConfig struct {
	// AllowPrivileged lets callers register themselves as admin or staff.
	AllowPrivileged bool
	BcryptCost      int
}

// RegistrationService creates accounts together with their role profile.
type RegistrationService struct {
	repo      registrationRepository
	validator *validator.Validate
	dashboard summaryInvalidator
	logger    *zap.Logger
	cfg       RegistrationConfig
}

// NewRegistrationService constructs the registration service.
func NewRegistrationService(repo registrationRepository, validate *validator.Validate, dashboard summaryInvalidator, logger *zap.Logger, cfg RegistrationConfig) *RegistrationService {
	if validate == nil {
		validate = NewValidator()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if dashboard == nil {
		dashboard = noopInvalidator{}
	}
	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = bcrypt.DefaultCost
	}
	return &RegistrationService{repo: repo, validator: validate, dashboard: dashboard, logger: logger, cfg: cfg}
}

const privilegedDisabledMessage = "Self-registration as admin or staff is disabled."

// Register validates the payload and writes the user and its profile in one transaction.
func (s *RegistrationService) Register(ctx context.Context, req dto.RegisterRequest) (*dto.RegisterResponse, error) {
	fields := appErrors.FieldErrors{}
	if err := s.validator.Struct(req); err != nil {
		if !addValidationErrors(fields, err) {
			return nil, validationError(err, "invalid registration payload")
		}
	}

	if req.Role.Privileged() && !s.cfg.AllowPrivileged {
		fields.Add("role", privilegedDisabledMessage)
	}
	switch req.Role {
	case models.RoleStudent:
		var missing []string
		if req.StudentID == "" {
			missing = append(missing, "student_id")
		}
		if req.Major == "" {
			missing = append(missing, "major")
		}
		if req.YearEnrolled == nil {
			missing = append(missing, "year_enrolled")
		}
		requireFields(fields, missing)
	case models.RoleLecturer:
		var missing []string
		if req.Department == "" {
			missing = append(missing, "department")
		}
		if req.Position == "" {
			missing = append(missing, "position")
		}
		requireFields(fields, missing)
	}

	if req.Username != "" {
		taken, err := s.repo.ExistsByUsername(ctx, req.Username)
		if err != nil {
			return nil, internalError(err, "failed to validate username")
		}
		if taken {
			fields.Add("username", uniqueFields["users_username_key"].message)
		}
	}

	if !fields.Empty() {
		return nil, appErrors.WithFields(appErrors.ErrValidation, "invalid registration payload", fields)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.cfg.BcryptCost)
	if err != nil {
		return nil, internalError(err, "failed to hash password")
	}

	user := &models.User{
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: string(hash),
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Role:         req.Role,
		Active:       true,
	}

	var student *models.Student
	var advisor *models.Advisor
	switch req.Role {
	case models.RoleStudent:
		student = &models.Student{
			FirstName:    req.FirstName,
			LastName:     req.LastName,
			StudentID:    req.StudentID,
			Email:        req.Email,
			Major:        req.Major,
			YearEnrolled: *req.YearEnrolled,
			Status:       models.StudentStatusStudying,
		}
	case models.RoleLecturer:
		advisor = &models.Advisor{
			FirstName:  req.FirstName,
			LastName:   req.LastName,
			Email:      req.Email,
			Department: req.Department,
			Position:   req.Position,
		}
	}

	if err := s.repo.CreateWithProfile(ctx, user, student, advisor); err != nil {
		if conflict := conflictError(err); conflict != nil {
			return nil, appErrors.WithFields(appErrors.ErrValidation, "invalid registration payload", appErrors.FromError(conflict).Fields)
		}
		return nil, internalError(err, "failed to register user")
	}

	if student != nil || advisor != nil {
		s.dashboard.Invalidate(ctx)
	}
	s.logger.Info("user registered", zap.String("user_id", user.ID), zap.String("role", string(user.Role)))

	return &dto.RegisterResponse{User: *user, Student: student, Advisor: advisor}, nil
}

package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/finalproject-api/internal/dto"
	"github.com/noah-isme/finalproject-api/internal/models"
	"github.com/noah-isme/finalproject-api/internal/policy"
	"github.com/noah-isme/finalproject-api/internal/repository"
	appErrors "github.com/noah-isme/finalproject-api/pkg/errors"
)

type advisorRepository interface {
	List(ctx context.Context, filter models.AdvisorFilter) ([]models.Advisor, int, error)
	FindByID(ctx context.Context, id string) (*models.Advisor, error)
	Create(ctx context.Context, advisor *models.Advisor) error
	Update(ctx context.Context, id string, mutate repository.AdvisorMutation) (*models.Advisor, error)
	ReplaceRoles(ctx context.Context, advisorID string, roleIDs []string) ([]string, error)
	Delete(ctx context.Context, id string) error
}

// AdvisorService handles advisor use-cases.
type AdvisorService struct {
	repo      advisorRepository
	validator *validator.Validate
	dashboard summaryInvalidator
	logger    *zap.Logger
}

// NewAdvisorService constructs the advisor service.
func NewAdvisorService(repo advisorRepository, validate *validator.Validate, dashboard summaryInvalidator, logger *zap.Logger) *AdvisorService {
	if validate == nil {
		validate = NewValidator()
	}
	if dashboard == nil {
		dashboard = noopInvalidator{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AdvisorService{repo: repo, validator: validate, dashboard: dashboard, logger: logger}
}

// List returns advisors; every authenticated actor sees all of them.
func (s *AdvisorService) List(ctx context.Context, actor policy.Actor, filter models.AdvisorFilter) ([]models.Advisor, *models.Pagination, error) {
	if err := policy.Evaluate(actor, policy.ActionList, policy.ResourceAdvisors, nil).Err("advisor"); err != nil {
		return nil, nil, err
	}
	filter.Normalize()
	advisors, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, internalError(err, "failed to list advisors")
	}
	return advisors, &models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: total}, nil
}

// Get returns one advisor.
func (s *AdvisorService) Get(ctx context.Context, actor policy.Actor, id string) (*models.Advisor, error) {
	advisor, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := policy.Evaluate(actor, policy.ActionRetrieve, policy.ResourceAdvisors, policy.OwnedSubject(advisor.UserID)).Err("advisor"); err != nil {
		return nil, err
	}
	return advisor, nil
}

// Create adds an advisor.
func (s *AdvisorService) Create(ctx context.Context, actor policy.Actor, payload dto.AdvisorPayload) (*models.Advisor, error) {
	if err := policy.Evaluate(actor, policy.ActionCreate, policy.ResourceAdvisors, nil).Err("advisor"); err != nil {
		return nil, err
	}
	if err := s.validate(payload, true); err != nil {
		return nil, err
	}

	advisor := &models.Advisor{}
	payload.Apply(advisor)
	if err := s.repo.Create(ctx, advisor); err != nil {
		if conflict := conflictError(err); conflict != nil {
			return nil, conflict
		}
		return nil, internalError(err, "failed to create advisor")
	}
	s.dashboard.Invalidate(ctx)
	return advisor, nil
}

// Update changes the fields present in payload. A lowered quota must still cover the
// advisor's current assignments; the check and the write share one locked transaction.
func (s *AdvisorService) Update(ctx context.Context, actor policy.Actor, id string, payload dto.AdvisorPayload, full bool) (*models.Advisor, error) {
	existing, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := policy.Evaluate(actor, policy.ActionUpdate, policy.ResourceAdvisors, policy.OwnedSubject(existing.UserID)).Err("advisor"); err != nil {
		return nil, err
	}
	if err := policy.CheckAdvisorFields(actor, payload.Present()).Err("advisor"); err != nil {
		return nil, err
	}
	if err := s.validate(payload, full); err != nil {
		return nil, err
	}

	updated, err := s.repo.Update(ctx, id, func(ctx context.Context, current *models.Advisor, counter policy.QuotaCounter) error {
		payload.Apply(current)
		if !payload.QuotaChanged() {
			return nil
		}
		fields, err := policy.ValidateQuotaFloor(ctx, counter, policy.QuotaHolder{
			ID:             current.ID,
			FirstName:      current.FirstName,
			LastName:       current.LastName,
			LeadingQuota:   current.LeadingQuota,
			CommitteeQuota: current.CommitteeQuota,
		})
		if err != nil {
			return internalError(err, "failed to count advisor assignments")
		}
		if !fields.Empty() {
			return appErrors.WithFields(appErrors.ErrValidation, "quota is below current usage", fields)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, notFound("advisor")
		}
		if conflict := conflictError(err); conflict != nil {
			return nil, conflict
		}
		var appErr *appErrors.Error
		if errors.As(err, &appErr) {
			return nil, appErr
		}
		return nil, internalError(err, "failed to update advisor")
	}
	updated.Roles = existing.Roles
	s.dashboard.Invalidate(ctx)
	return updated, nil
}

// SetRoles replaces the advisor's role assignments.
func (s *AdvisorService) SetRoles(ctx context.Context, actor policy.Actor, id string, req dto.AdvisorRolesAssignment) (*models.Advisor, error) {
	if err := policy.Evaluate(actor, policy.ActionUpdate, policy.ResourceAdvisorRoles, nil).Err("advisor"); err != nil {
		return nil, err
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid role assignment")
	}
	if !validID(id) {
		return nil, notFound("advisor")
	}

	missing, err := s.repo.ReplaceRoles(ctx, id, req.RoleIDs)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, notFound("advisor")
		}
		return nil, internalError(err, "failed to assign advisor roles")
	}
	if len(missing) > 0 {
		fields := appErrors.FieldErrors{}
		for _, roleID := range missing {
			fields.Add("role_ids", fmt.Sprintf("Invalid pk %q - object does not exist.", roleID))
		}
		return nil, appErrors.Validation(fields)
	}
	return s.load(ctx, id)
}

// Delete removes an advisor. Projects they led keep going without a lead advisor.
func (s *AdvisorService) Delete(ctx context.Context, actor policy.Actor, id string) error {
	if err := policy.Evaluate(actor, policy.ActionDelete, policy.ResourceAdvisors, nil).Err("advisor"); err != nil {
		return err
	}
	if !validID(id) {
		return notFound("advisor")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return notFound("advisor")
		}
		return internalError(err, "failed to delete advisor")
	}
	s.dashboard.Invalidate(ctx)
	return nil
}

func (s *AdvisorService) load(ctx context.Context, id string) (*models.Advisor, error) {
	if !validID(id) {
		return nil, notFound("advisor")
	}
	advisor, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, notFound("advisor")
		}
		return nil, internalError(err, "failed to load advisor")
	}
	return advisor, nil
}

func (s *AdvisorService) validate(payload dto.AdvisorPayload, requireAll bool) error {
	fields := appErrors.FieldErrors{}
	if err := s.validator.Struct(payload); err != nil {
		if !addValidationErrors(fields, err) {
			return validationError(err, "invalid advisor payload")
		}
	}
	if requireAll {
		requireFields(fields, dto.Missing(payload.Present(), dto.AdvisorRequiredFields))
	}
	if !fields.Empty() {
		return appErrors.WithFields(appErrors.ErrValidation, "invalid advisor payload", fields)
	}
	return nil
}

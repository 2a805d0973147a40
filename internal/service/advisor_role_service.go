package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"

	"github.com/noah-isme/finalproject-api/internal/dto"
	"github.com/noah-isme/finalproject-api/internal/models"
	"github.com/noah-isme/finalproject-api/internal/policy"
)

type advisorRoleRepository interface {
	List(ctx context.Context) ([]models.AdvisorRole, error)
	FindByID(ctx context.Context, id string) (*models.AdvisorRole, error)
	Create(ctx context.Context, role *models.AdvisorRole) error
	Update(ctx context.Context, role *models.AdvisorRole) error
	Delete(ctx context.Context, id string) error
}

// AdvisorRoleService manages the named advisor roles.
type AdvisorRoleService struct {
	repo      advisorRoleRepository
	validator *validator.Validate
}

// NewAdvisorRoleService constructs the service.
func NewAdvisorRoleService(repo advisorRoleRepository, validate *validator.Validate) *AdvisorRoleService {
	if validate == nil {
		validate = NewValidator()
	}
	return &AdvisorRoleService{repo: repo, validator: validate}
}

// List returns every role.
func (s *AdvisorRoleService) List(ctx context.Context, actor policy.Actor) ([]models.AdvisorRole, error) {
	if err := policy.Evaluate(actor, policy.ActionList, policy.ResourceAdvisorRoles, nil).Err("advisor role"); err != nil {
		return nil, err
	}
	roles, err := s.repo.List(ctx)
	if err != nil {
		return nil, internalError(err, "failed to list advisor roles")
	}
	return roles, nil
}

// Get returns one role.
func (s *AdvisorRoleService) Get(ctx context.Context, actor policy.Actor, id string) (*models.AdvisorRole, error) {
	if err := policy.Evaluate(actor, policy.ActionRetrieve, policy.ResourceAdvisorRoles, nil).Err("advisor role"); err != nil {
		return nil, err
	}
	return s.load(ctx, id)
}

// Create adds a role.
func (s *AdvisorRoleService) Create(ctx context.Context, actor policy.Actor, payload dto.AdvisorRolePayload) (*models.AdvisorRole, error) {
	if err := policy.Evaluate(actor, policy.ActionCreate, policy.ResourceAdvisorRoles, nil).Err("advisor role"); err != nil {
		return nil, err
	}
	if err := s.validator.Struct(payload); err != nil {
		return nil, validationError(err, "invalid advisor role payload")
	}
	role := &models.AdvisorRole{Role: payload.Role}
	if err := s.repo.Create(ctx, role); err != nil {
		if conflict := conflictError(err); conflict != nil {
			return nil, conflict
		}
		return nil, internalError(err, "failed to create advisor role")
	}
	return role, nil
}

// Update renames a role.
func (s *AdvisorRoleService) Update(ctx context.Context, actor policy.Actor, id string, payload dto.AdvisorRolePayload) (*models.AdvisorRole, error) {
	if err := policy.Evaluate(actor, policy.ActionUpdate, policy.ResourceAdvisorRoles, nil).Err("advisor role"); err != nil {
		return nil, err
	}
	if err := s.validator.Struct(payload); err != nil {
		return nil, validationError(err, "invalid advisor role payload")
	}
	role, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	role.Role = payload.Role
	if err := s.repo.Update(ctx, role); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, notFound("advisor role")
		}
		if conflict := conflictError(err); conflict != nil {
			return nil, conflict
		}
		return nil, internalError(err, "failed to update advisor role")
	}
	return role, nil
}

// Delete removes a role and unassigns it everywhere.
func (s *AdvisorRoleService) Delete(ctx context.Context, actor policy.Actor, id string) error {
	if err := policy.Evaluate(actor, policy.ActionDelete, policy.ResourceAdvisorRoles, nil).Err("advisor role"); err != nil {
		return err
	}
	if !validID(id) {
		return notFound("advisor role")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return notFound("advisor role")
		}
		return internalError(err, "failed to delete advisor role")
	}
	return nil
}

func (s *AdvisorRoleService) load(ctx context.Context, id string) (*models.AdvisorRole, error) {
	if !validID(id) {
		return nil, notFound("advisor role")
	}
	role, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, notFound("advisor role")
		}
		return nil, internalError(err, "failed to load advisor role")
	}
	return role, nil
}

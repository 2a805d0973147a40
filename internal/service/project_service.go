package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/finalproject-api/internal/dto"
	"github.com/noah-isme/finalproject-api/internal/models"
	"github.com/noah-isme/finalproject-api/internal/policy"
	"github.com/noah-isme/finalproject-api/internal/repository"
	appErrors "github.com/noah-isme/finalproject-api/pkg/errors"
)

const emptyListMessage = "This list may not be empty."

type projectRepository interface {
	List(ctx context.Context, filter models.ProjectFilter) ([]models.FinalProject, int, error)
	FindByID(ctx context.Context, id string) (*models.FinalProject, error)
	Create(ctx context.Context, project *models.FinalProject, change policy.AssignmentChange, check repository.AssignmentCheck) error
	Update(ctx context.Context, id string, mutate repository.ProjectMutation, check repository.AssignmentCheck) (*models.FinalProject, error)
	Delete(ctx context.Context, id string) error
}

// ProjectService handles final project use-cases and keeps advisor quotas intact.
type ProjectService struct {
	repo      projectRepository
	validator *validator.Validate
	dashboard summaryInvalidator
	metrics   *MetricsService
	logger    *zap.Logger
}

// NewProjectService constructs the project service.
func NewProjectService(repo projectRepository, validate *validator.Validate, dashboard summaryInvalidator, metrics *MetricsService, logger *zap.Logger) *ProjectService {
	if validate == nil {
		validate = NewValidator()
	}
	if dashboard == nil {
		dashboard = noopInvalidator{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProjectService{repo: repo, validator: validate, dashboard: dashboard, metrics: metrics, logger: logger}
}

// List returns the projects visible to actor.
func (s *ProjectService) List(ctx context.Context, actor policy.Actor, filter models.ProjectFilter) ([]models.FinalProject, *models.Pagination, error) {
	if err := policy.Evaluate(actor, policy.ActionList, policy.ResourceProjects, nil).Err("project"); err != nil {
		return nil, nil, err
	}
	if filter.AdvisorID != "" {
		fields := appErrors.FieldErrors{}
		invalidUUIDs(fields, "advisor_id", filter.AdvisorID)
		if !fields.Empty() {
			return nil, nil, appErrors.Validation(fields)
		}
	}
	policy.ApplyProjectScope(&filter, policy.ProjectScope(actor))
	filter.Normalize()

	projects, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, internalError(err, "failed to list projects")
	}
	return projects, &models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: total}, nil
}

// Get returns a project the actor can see. Projects outside the actor's visibility are reported missing.
func (s *ProjectService) Get(ctx context.Context, actor policy.Actor, id string) (*models.FinalProject, error) {
	project, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := policy.Evaluate(actor, policy.ActionRetrieve, policy.ResourceProjects, policy.ProjectSubject(project)).Err("project"); err != nil {
		return nil, err
	}
	return project, nil
}

// Create stores a new project. Students always become the only participant of the project they create.
func (s *ProjectService) Create(ctx context.Context, actor policy.Actor, payload dto.ProjectPayload) (*models.FinalProject, error) {
	if err := policy.Evaluate(actor, policy.ActionCreate, policy.ResourceProjects, nil).Err("project"); err != nil {
		return nil, err
	}

	selfAssigned := actor.Role == models.RoleStudent
	required := dto.ProjectRequiredFields
	if selfAssigned {
		required = []string{policy.FieldTitle}
	}
	fields, err := s.validate(payload, required)
	if err != nil {
		return nil, err
	}

	project := &models.FinalProject{Status: models.ProjectStatusInProgress}
	payload.Apply(project)
	if selfAssigned {
		project.StudentIDs = []string{actor.StudentID}
	}
	if len(project.StudentIDs) == 0 && len(fields[policy.FieldStudents]) == 0 {
		fields.Add(policy.FieldStudents, emptyListMessage)
	}
	if !fields.Empty() {
		return nil, appErrors.WithFields(appErrors.ErrValidation, "invalid project payload", fields)
	}

	change := policy.AssignmentChange{
		AdvisorSet:   project.AdvisorID != nil,
		AdvisorID:    deref(project.AdvisorID),
		CommitteeSet: len(project.CommitteeMembers) > 0,
		Committee:    project.CommitteeMembers,
	}
	studentsToCheck := project.StudentIDs
	if selfAssigned {
		studentsToCheck = nil
	}

	start := time.Now()
	err = s.repo.Create(ctx, project, change, s.checkAssignments(&studentsToCheck))
	s.metrics.ObserveDBQuery("project_create", time.Since(start))
	if err != nil {
		return nil, s.writeError(err, "failed to create project")
	}
	s.dashboard.Invalidate(ctx)
	s.logger.Info("project created", zap.String("project_id", project.ID), zap.String("user_id", actor.UserID))
	return project, nil
}

// Update changes the fields present in payload. full additionally requires every required field.
// Permission and field rules are checked again against the locked row before anything is written.
func (s *ProjectService) Update(ctx context.Context, actor policy.Actor, id string, payload dto.ProjectPayload, full bool) (*models.FinalProject, error) {
	present := payload.Present()

	existing, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authorizeUpdate(actor, existing, present); err != nil {
		return nil, err
	}

	var required []string
	if full {
		required = dto.ProjectRequiredFields
	}
	fields, err := s.validate(payload, required)
	if err != nil {
		return nil, err
	}
	if payload.Students != nil && len(*payload.Students) == 0 && len(fields[policy.FieldStudents]) == 0 {
		fields.Add(policy.FieldStudents, emptyListMessage)
	}
	if !fields.Empty() {
		return nil, appErrors.WithFields(appErrors.ErrValidation, "invalid project payload", fields)
	}

	var studentsToCheck []string
	mutate := func(current *models.FinalProject) (*models.FinalProject, policy.AssignmentChange, error) {
		if err := s.authorizeUpdate(actor, current, present); err != nil {
			return nil, policy.AssignmentChange{}, err
		}

		next := *current
		next.StudentIDs = append([]string(nil), current.StudentIDs...)
		next.CommitteeMembers = append([]string(nil), current.CommitteeMembers...)
		payload.Apply(&next)
		if payload.Students != nil {
			studentsToCheck = next.StudentIDs
		}

		change := policy.AssignmentChange{
			Existing:          true,
			PreviousAdvisorID: deref(current.AdvisorID),
			PreviousCommittee: current.CommitteeMembers,
			AdvisorSet:        payload.Advisor.Set,
			AdvisorID:         deref(next.AdvisorID),
			CommitteeSet:      payload.CommitteeMembers != nil,
			Committee:         next.CommitteeMembers,
		}
		return &next, change, nil
	}

	start := time.Now()
	updated, err := s.repo.Update(ctx, id, mutate, s.checkAssignments(&studentsToCheck))
	s.metrics.ObserveDBQuery("project_update", time.Since(start))
	if err != nil {
		return nil, s.writeError(err, "failed to update project")
	}
	s.dashboard.Invalidate(ctx)
	return updated, nil
}

// Delete removes a project.
func (s *ProjectService) Delete(ctx context.Context, actor policy.Actor, id string) error {
	if err := policy.Evaluate(actor, policy.ActionDelete, policy.ResourceProjects, nil).Err("project"); err != nil {
		return err
	}
	if !validID(id) {
		return notFound("project")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return notFound("project")
		}
		return internalError(err, "failed to delete project")
	}
	s.dashboard.Invalidate(ctx)
	return nil
}

func (s *ProjectService) authorizeUpdate(actor policy.Actor, project *models.FinalProject, present []string) error {
	subject := policy.ProjectSubject(project)
	if err := policy.Evaluate(actor, policy.ActionUpdate, policy.ResourceProjects, subject).Err("project"); err != nil {
		return err
	}
	return policy.CheckProjectFields(policy.ProjectUpdateScope(actor, subject), present).Err("project")
}

// checkAssignments builds the in-transaction check. students points at the ids whose
// existence must be verified; it is read when the check runs, after mutation.
func (s *ProjectService) checkAssignments(students *[]string) repository.AssignmentCheck {
	return func(ctx context.Context, reader repository.AssignmentReader, advisors map[string]policy.QuotaHolder, change policy.AssignmentChange) error {
		references := appErrors.FieldErrors{}

		if len(*students) > 0 {
			missing, err := reader.MissingStudents(ctx, *students)
			if err != nil {
				return internalError(err, "failed to verify students")
			}
			for _, id := range missing {
				references.Add(policy.FieldStudents, invalidPK(id))
			}
		}
		if lead := change.NewLead(); lead != "" {
			if _, ok := advisors[lead]; !ok {
				references.Add(policy.FieldAdvisor, invalidPK(lead))
			}
		}
		for _, id := range change.NewCommitteeMembers() {
			if _, ok := advisors[id]; !ok {
				references.Add(policy.FieldCommitteeMembers, invalidPK(id))
			}
		}
		if !references.Empty() {
			return appErrors.WithFields(appErrors.ErrValidation, "invalid project payload", references)
		}

		quota, err := policy.ValidateQuotas(ctx, reader, advisors, change)
		if err != nil {
			return internalError(err, "failed to count advisor assignments")
		}
		if !quota.Empty() {
			for _, field := range quota.Keys() {
				s.metrics.RecordQuotaRejection(field)
			}
			s.logger.Info("advisor quota exceeded", zap.Strings("fields", quota.Keys()))
			return appErrors.WithFields(appErrors.ErrQuotaExceeded, "", quota)
		}
		return nil
	}
}

func (s *ProjectService) load(ctx context.Context, id string) (*models.FinalProject, error) {
	if !validID(id) {
		return nil, notFound("project")
	}
	project, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, notFound("project")
		}
		return nil, internalError(err, "failed to load project")
	}
	return project, nil
}

// validate returns field problems that do not depend on stored state.
func (s *ProjectService) validate(payload dto.ProjectPayload, required []string) (appErrors.FieldErrors, error) {
	fields := appErrors.FieldErrors{}
	if err := s.validator.Struct(payload); err != nil {
		if !addValidationErrors(fields, err) {
			return nil, validationError(err, "invalid project payload")
		}
	}
	requireFields(fields, dto.Missing(payload.Present(), required))
	if payload.Advisor.Valid {
		invalidUUIDs(fields, policy.FieldAdvisor, payload.Advisor.Value)
	}
	return fields, nil
}

func (s *ProjectService) writeError(err error, message string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return notFound("project")
	}
	var appErr *appErrors.Error
	if errors.As(err, &appErr) {
		return appErr
	}
	return internalError(err, message)
}

func invalidPK(id string) string {
	return fmt.Sprintf("Invalid pk %q - object does not exist.", id)
}

func deref(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}

package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/finalproject-api/internal/dto"
	"github.com/noah-isme/finalproject-api/internal/models"
	"github.com/noah-isme/finalproject-api/internal/policy"
	appErrors "github.com/noah-isme/finalproject-api/pkg/errors"
)

type studentRepository interface {
	List(ctx context.Context, filter models.StudentFilter) ([]models.Student, int, error)
	FindByID(ctx context.Context, id string) (*models.Student, error)
	ExistsByStudentID(ctx context.Context, studentID string, excludeID string) (bool, error)
	ExistsByEmail(ctx context.Context, email string, excludeID string) (bool, error)
	Create(ctx context.Context, student *models.Student) error
	Update(ctx context.Context, student *models.Student) error
	Delete(ctx context.Context, id string) error
}

// StudentService handles student use-cases.
type StudentService struct {
	repo      studentRepository
	validator *validator.Validate
	dashboard summaryInvalidator
	logger    *zap.Logger
}

// NewStudentService constructs the student service.
func NewStudentService(repo studentRepository, validate *validator.Validate, dashboard summaryInvalidator, logger *zap.Logger) *StudentService {
	if validate == nil {
		validate = NewValidator()
	}
	if dashboard == nil {
		dashboard = noopInvalidator{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StudentService{repo: repo, validator: validate, dashboard: dashboard, logger: logger}
}

// List returns the students visible to actor.
func (s *StudentService) List(ctx context.Context, actor policy.Actor, filter models.StudentFilter) ([]models.Student, *models.Pagination, error) {
	if err := policy.Evaluate(actor, policy.ActionList, policy.ResourceStudents, nil).Err("student"); err != nil {
		return nil, nil, err
	}
	policy.ApplyStudentScope(&filter, policy.StudentScope(actor))
	filter.Normalize()

	students, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, internalError(err, "failed to list students")
	}
	return students, &models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: total}, nil
}

// Get returns a student the actor may see.
func (s *StudentService) Get(ctx context.Context, actor policy.Actor, id string) (*models.Student, error) {
	student, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := policy.Evaluate(actor, policy.ActionRetrieve, policy.ResourceStudents, policy.OwnedSubject(student.UserID)).Err("student"); err != nil {
		return nil, err
	}
	return student, nil
}

// Create registers a new student.
func (s *StudentService) Create(ctx context.Context, actor policy.Actor, payload dto.StudentPayload) (*models.Student, error) {
	if err := policy.Evaluate(actor, policy.ActionCreate, policy.ResourceStudents, nil).Err("student"); err != nil {
		return nil, err
	}

	student := &models.Student{Status: models.StudentStatusStudying}
	if err := s.validate(ctx, payload, true, "", student); err != nil {
		return nil, err
	}
	payload.Apply(student)

	if err := s.repo.Create(ctx, student); err != nil {
		if conflict := conflictError(err); conflict != nil {
			return nil, conflict
		}
		return nil, internalError(err, "failed to create student")
	}
	s.dashboard.Invalidate(ctx)
	return student, nil
}

// Update changes the fields present in payload. full additionally requires every required field.
func (s *StudentService) Update(ctx context.Context, actor policy.Actor, id string, payload dto.StudentPayload, full bool) (*models.Student, error) {
	student, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := policy.Evaluate(actor, policy.ActionUpdate, policy.ResourceStudents, policy.OwnedSubject(student.UserID)).Err("student"); err != nil {
		return nil, err
	}

	if err := s.validate(ctx, payload, full, id, student); err != nil {
		return nil, err
	}
	payload.Apply(student)

	if err := s.repo.Update(ctx, student); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, notFound("student")
		}
		if conflict := conflictError(err); conflict != nil {
			return nil, conflict
		}
		return nil, internalError(err, "failed to update student")
	}
	s.dashboard.Invalidate(ctx)
	return student, nil
}

// Delete removes a student record.
func (s *StudentService) Delete(ctx context.Context, actor policy.Actor, id string) error {
	if err := policy.Evaluate(actor, policy.ActionDelete, policy.ResourceStudents, nil).Err("student"); err != nil {
		return err
	}
	if !validID(id) {
		return notFound("student")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return notFound("student")
		}
		return internalError(err, "failed to delete student")
	}
	s.dashboard.Invalidate(ctx)
	return nil
}

func (s *StudentService) load(ctx context.Context, id string) (*models.Student, error) {
	if !validID(id) {
		return nil, notFound("student")
	}
	student, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, notFound("student")
		}
		return nil, internalError(err, "failed to load student")
	}
	return student, nil
}

// validate collects every payload problem before anything is written.
func (s *StudentService) validate(ctx context.Context, payload dto.StudentPayload, requireAll bool, excludeID string, current *models.Student) error {
	fields := appErrors.FieldErrors{}
	if err := s.validator.Struct(payload); err != nil {
		if !addValidationErrors(fields, err) {
			return validationError(err, "invalid student payload")
		}
	}
	if requireAll {
		requireFields(fields, dto.Missing(payload.Present(), dto.StudentRequiredFields))
	}
	if gpa := payload.GPA.Ptr(); gpa != nil && (*gpa < 0 || *gpa > 4) {
		fields.Add("gpa", "Ensure this value is between 0.00 and 4.00.")
	}
	if year := payload.GraduationYearEstimate.Ptr(); year != nil {
		enrolled := current.YearEnrolled
		if payload.YearEnrolled != nil {
			enrolled = *payload.YearEnrolled
		}
		if *year < enrolled {
			fields.Add("graduation_year_estimate", "Graduation year cannot be before the enrolment year.")
		}
	}

	if payload.StudentID != nil && *payload.StudentID != current.StudentID {
		taken, err := s.repo.ExistsByStudentID(ctx, *payload.StudentID, excludeID)
		if err != nil {
			return internalError(err, "failed to validate student id")
		}
		if taken {
			fields.Add("student_id", uniqueFields["students_student_id_key"].message)
		}
	}
	if payload.Email != nil && *payload.Email != current.Email {
		taken, err := s.repo.ExistsByEmail(ctx, *payload.Email, excludeID)
		if err != nil {
			return internalError(err, "failed to validate email")
		}
		if taken {
			fields.Add("email", uniqueFields["students_email_key"].message)
		}
	}

	if !fields.Empty() {
		return appErrors.WithFields(appErrors.ErrValidation, "invalid student payload", fields)
	}
	return nil
}

package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/finalproject-api/internal/models"
	"github.com/noah-isme/finalproject-api/internal/policy"
	appErrors "github.com/noah-isme/finalproject-api/pkg/errors"
)

var projectRowColumns = []string{"id", "title", "description", "submission_date", "status", "advisor_id", "created_at", "updated_at"}

const lockAdvisorsQuery = "SELECT id, first_name, last_name, leading_quota, committee_quota FROM advisors WHERE id = ANY($1) ORDER BY id FOR UPDATE"

func strPtr(v string) *string { return &v }

func TestProjectRepositoryListForStudent(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewProjectRepository(db)

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("FROM final_projects p WHERE 1=1 AND EXISTS (SELECT 1 FROM project_students ps WHERE ps.project_id = p.id AND ps.student_id = $1) AND p.status = $2 ORDER BY p.created_at DESC LIMIT 20 OFFSET 0")).
		WithArgs("s1", models.ProjectStatusInProgress).
		WillReturnRows(sqlmock.NewRows(projectRowColumns).AddRow("p1", "Thesis", "", nil, "in_progress", "a1", now, now))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM final_projects p WHERE 1=1 AND EXISTS")).
		WithArgs("s1", models.ProjectStatusInProgress).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery(regexp.QuoteMeta("FROM project_students WHERE project_id = ANY($1)")).
		WillReturnRows(sqlmock.NewRows([]string{"project_id", "member_id"}).AddRow("p1", "s1").AddRow("p1", "s2"))
	mock.ExpectQuery(regexp.QuoteMeta("FROM project_committee_members WHERE project_id = ANY($1)")).
		WillReturnRows(sqlmock.NewRows([]string{"project_id", "member_id"}).AddRow("p1", "a2"))

	filter := models.ProjectFilter{Status: models.ProjectStatusInProgress}
	policy.ApplyProjectScope(&filter, policy.Scope{StudentID: "s1"})
	projects, total, err := repo.List(context.Background(), filter)
	require.NoError(t, err)
	require.Len(t, projects, 1)
	assert.Equal(t, 1, total)
	assert.Equal(t, []string{"s1", "s2"}, projects[0].StudentIDs)
	assert.Equal(t, []string{"a2"}, projects[0].CommitteeMembers)
	require.NotNil(t, projects[0].AdvisorID)
	assert.Equal(t, "a1", *projects[0].AdvisorID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProjectRepositoryListForAdvisorMatchesLeadOrCommittee(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewProjectRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("(p.advisor_id = $1 OR EXISTS (SELECT 1 FROM project_committee_members pc WHERE pc.project_id = p.id AND pc.advisor_id = $1))")).
		WithArgs("a1").
		WillReturnRows(sqlmock.NewRows(projectRowColumns))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM final_projects p")).
		WithArgs("a1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	projects, total, err := repo.List(context.Background(), models.ProjectFilter{VisibleToAdvisor: "a1"})
	require.NoError(t, err)
	assert.Empty(t, projects)
	assert.Zero(t, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProjectRepositoryCreateLocksAdvisorsBeforeCheck(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewProjectRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(lockAdvisorsQuery)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "first_name", "last_name", "leading_quota", "committee_quota"}).
			AddRow("a1", "Budi", "Santoso", 2, 3).
			AddRow("a2", "Citra", "Dewi", 1, 1))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM final_projects WHERE advisor_id = $1")).
		WithArgs("a1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM project_committee_members WHERE advisor_id = $1")).
		WithArgs("a2").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectExec("INSERT INTO final_projects").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO project_students").WithArgs(sqlmock.AnyArg(), "s1").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO project_committee_members").WithArgs(sqlmock.AnyArg(), "a2").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	project := &models.FinalProject{Title: "Thesis", AdvisorID: strPtr("a1"), StudentIDs: []string{"s1"}, CommitteeMembers: []string{"a2"}}
	change := policy.AssignmentChange{AdvisorSet: true, AdvisorID: "a1", CommitteeSet: true, Committee: []string{"a2"}}

	var holders map[string]policy.QuotaHolder
	err := repo.Create(context.Background(), project, change, func(ctx context.Context, reader AssignmentReader, advisors map[string]policy.QuotaHolder, change policy.AssignmentChange) error {
		holders = advisors
		fields, err := policy.ValidateQuotas(ctx, reader, advisors, change)
		if err != nil {
			return err
		}
		if !fields.Empty() {
			return appErrors.WithFields(appErrors.ErrQuotaExceeded, "", fields)
		}
		return nil
	})
	require.NoError(t, err)
	assert.Len(t, holders, 2)
	assert.Equal(t, models.ProjectStatusInProgress, project.Status)
	assert.NotEmpty(t, project.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProjectRepositoryCreateRollsBackWhenQuotaFull(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewProjectRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(lockAdvisorsQuery)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "first_name", "last_name", "leading_quota", "committee_quota"}).
			AddRow("a1", "Budi", "Santoso", 1, 3))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM final_projects WHERE advisor_id = $1")).
		WithArgs("a1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectRollback()

	project := &models.FinalProject{Title: "Thesis", AdvisorID: strPtr("a1"), StudentIDs: []string{"s1"}}
	change := policy.AssignmentChange{AdvisorSet: true, AdvisorID: "a1"}

	err := repo.Create(context.Background(), project, change, func(ctx context.Context, reader AssignmentReader, advisors map[string]policy.QuotaHolder, change policy.AssignmentChange) error {
		fields, err := policy.ValidateQuotas(ctx, reader, advisors, change)
		if err != nil {
			return err
		}
		if !fields.Empty() {
			return appErrors.WithFields(appErrors.ErrQuotaExceeded, "", fields)
		}
		return nil
	})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrQuotaExceeded.Code, appErr.Code)
	assert.Equal(t, []string{"Advisor Budi Santoso has reached their leading project limit of 1."}, appErr.Fields["advisor"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProjectRepositoryUpdateReplacesMembers(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewProjectRepository(db)

	now := time.Now()
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FROM final_projects p WHERE p.id = $1 FOR UPDATE")).
		WithArgs("p1").
		WillReturnRows(sqlmock.NewRows(projectRowColumns).AddRow("p1", "Thesis", "", nil, "in_progress", "a1", now, now))
	mock.ExpectQuery(regexp.QuoteMeta("FROM project_students")).
		WillReturnRows(sqlmock.NewRows([]string{"project_id", "member_id"}).AddRow("p1", "s1"))
	mock.ExpectQuery(regexp.QuoteMeta("FROM project_committee_members")).
		WillReturnRows(sqlmock.NewRows([]string{"project_id", "member_id"}))
	mock.ExpectExec("UPDATE final_projects SET").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM project_students WHERE project_id = $1")).WithArgs("p1").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM project_committee_members WHERE project_id = $1")).WithArgs("p1").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("INSERT INTO project_students").WithArgs("p1", "s1").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	updated, err := repo.Update(context.Background(), "p1", func(current *models.FinalProject) (*models.FinalProject, policy.AssignmentChange, error) {
		next := *current
		next.Status = models.ProjectStatusCompleted
		return &next, policy.AssignmentChange{Existing: true, PreviousAdvisorID: "a1"}, nil
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, models.ProjectStatusCompleted, updated.Status)
	assert.Equal(t, []string{"s1"}, updated.StudentIDs)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProjectRepositoryUpdateStopsOnMutationError(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewProjectRepository(db)

	now := time.Now()
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FOR UPDATE")).
		WillReturnRows(sqlmock.NewRows(projectRowColumns).AddRow("p1", "Thesis", "", nil, "in_progress", nil, now, now))
	mock.ExpectQuery(regexp.QuoteMeta("FROM project_students")).
		WillReturnRows(sqlmock.NewRows([]string{"project_id", "member_id"}))
	mock.ExpectQuery(regexp.QuoteMeta("FROM project_committee_members")).
		WillReturnRows(sqlmock.NewRows([]string{"project_id", "member_id"}))
	mock.ExpectRollback()

	_, err := repo.Update(context.Background(), "p1", func(*models.FinalProject) (*models.FinalProject, policy.AssignmentChange, error) {
		return nil, policy.AssignmentChange{}, appErrors.Clone(appErrors.ErrForbidden, "committee members cannot update projects")
	}, nil)
	assert.ErrorIs(t, err, appErrors.ErrForbidden)
	assert.NoError(t, mock.ExpectationsWereMet())
}

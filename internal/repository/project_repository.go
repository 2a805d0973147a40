package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/finalproject-api/internal/models"
	"github.com/noah-isme/finalproject-api/internal/policy"
)

const projectColumns = `p.id, p.title, p.description, p.submission_date, p.status, p.advisor_id, p.created_at, p.updated_at`

// AssignmentReader answers quota and reference questions inside a project write.
type AssignmentReader interface {
	policy.QuotaCounter
	MissingStudents(ctx context.Context, ids []string) ([]string, error)
}

// AssignmentCheck validates a staged project write once the affected advisors are locked.
// advisors holds the locked rows by id; ids that do not exist are absent from the map.
type AssignmentCheck func(ctx context.Context, reader AssignmentReader, advisors map[string]policy.QuotaHolder, change policy.AssignmentChange) error

// ProjectMutation derives the next state of a locked project.
type ProjectMutation func(current *models.FinalProject) (*models.FinalProject, policy.AssignmentChange, error)

// ProjectRepository persists final projects with their students and committee.
type ProjectRepository struct {
	db *sqlx.DB
}

// NewProjectRepository constructs a ProjectRepository.
func NewProjectRepository(db *sqlx.DB) *ProjectRepository {
	return &ProjectRepository{db: db}
}

// List returns projects matching the filter, narrowed by its visibility fields.
func (r *ProjectRepository) List(ctx context.Context, filter models.ProjectFilter) ([]models.FinalProject, int, error) {
	if filter.None {
		return []models.FinalProject{}, 0, nil
	}
	filter.Normalize()

	args := []interface{}{}
	conditions := []string{"1=1"}

	if filter.VisibleToStudent != "" {
		args = append(args, filter.VisibleToStudent)
		conditions = append(conditions, fmt.Sprintf("EXISTS (SELECT 1 FROM project_students ps WHERE ps.project_id = p.id AND ps.student_id = $%d)", len(args)))
	}
	if filter.VisibleToAdvisor != "" {
		args = append(args, filter.VisibleToAdvisor)
		conditions = append(conditions, fmt.Sprintf("(p.advisor_id = $%d OR EXISTS (SELECT 1 FROM project_committee_members pc WHERE pc.project_id = p.id AND pc.advisor_id = $%d))", len(args), len(args)))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		conditions = append(conditions, fmt.Sprintf("p.status = $%d", len(args)))
	}
	if filter.AdvisorID != "" {
		args = append(args, filter.AdvisorID)
		conditions = append(conditions, fmt.Sprintf("p.advisor_id = $%d", len(args)))
	}
	if filter.Search != "" {
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
		conditions = append(conditions, fmt.Sprintf("(LOWER(p.title) LIKE $%d OR LOWER(p.description) LIKE $%d)", len(args), len(args)))
	}

	base := fmt.Sprintf("FROM final_projects p WHERE %s", strings.Join(conditions, " AND "))
	column := sortColumn(filter.SortBy, map[string]string{
		"title":           "p.title",
		"submission_date": "p.submission_date",
		"status":          "p.status",
		"created_at":      "p.created_at",
	}, "p.created_at")

	query := fmt.Sprintf("SELECT %s %s ORDER BY %s %s LIMIT %d OFFSET %d", projectColumns, base, column, sortOrder(filter.SortOrder), filter.PageSize, filter.Offset())

	var projects []models.FinalProject
	if err := r.db.SelectContext(ctx, &projects, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list projects: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) "+base, args...); err != nil {
		return nil, 0, fmt.Errorf("count projects: %w", err)
	}

	if err := attachMembers(ctx, r.db, projects); err != nil {
		return nil, 0, err
	}
	return projects, total, nil
}

// FindByID fetches a project with its members.
func (r *ProjectRepository) FindByID(ctx context.Context, id string) (*models.FinalProject, error) {
	return findProject(ctx, r.db, id, false)
}

func findProject(ctx context.Context, q sqlx.QueryerContext, id string, lock bool) (*models.FinalProject, error) {
	query := "SELECT " + projectColumns + " FROM final_projects p WHERE p.id = $1"
	if lock {
		query += " FOR UPDATE"
	}
	var project models.FinalProject
	if err := sqlx.GetContext(ctx, q, &project, query, id); err != nil {
		return nil, err
	}
	list := []models.FinalProject{project}
	if err := attachMembers(ctx, q, list); err != nil {
		return nil, err
	}
	return &list[0], nil
}

func attachMembers(ctx context.Context, q sqlx.QueryerContext, projects []models.FinalProject) error {
	if len(projects) == 0 {
		return nil
	}
	ids := make([]string, len(projects))
	index := make(map[string]int, len(projects))
	for i := range projects {
		ids[i] = projects[i].ID
		index[projects[i].ID] = i
		projects[i].StudentIDs = []string{}
		projects[i].CommitteeMembers = []string{}
	}

	type membership struct {
		ProjectID string `db:"project_id"`
		MemberID  string `db:"member_id"`
	}

	var students []membership
	if err := sqlx.SelectContext(ctx, q, &students, `SELECT project_id, student_id AS member_id FROM project_students WHERE project_id = ANY($1) ORDER BY student_id`, pq.Array(ids)); err != nil {
		return fmt.Errorf("load project students: %w", err)
	}
	for _, m := range students {
		if i, ok := index[m.ProjectID]; ok {
			projects[i].StudentIDs = append(projects[i].StudentIDs, m.MemberID)
		}
	}

	var committee []membership
	if err := sqlx.SelectContext(ctx, q, &committee, `SELECT project_id, advisor_id AS member_id FROM project_committee_members WHERE project_id = ANY($1) ORDER BY advisor_id`, pq.Array(ids)); err != nil {
		return fmt.Errorf("load project committee: %w", err)
	}
	for _, m := range committee {
		if i, ok := index[m.ProjectID]; ok {
			projects[i].CommitteeMembers = append(projects[i].CommitteeMembers, m.MemberID)
		}
	}
	return nil
}

// Create inserts project after check accepts change. The advisors change can consume are
// locked for the rest of the transaction, so concurrent writers see each other's counts.
func (r *ProjectRepository) Create(ctx context.Context, project *models.FinalProject, change policy.AssignmentChange, check AssignmentCheck) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin project transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = lockAndCheck(ctx, tx, change, check); err != nil {
		return err
	}

	if project.ID == "" {
		project.ID = uuid.NewString()
	}
	if project.Status == "" {
		project.Status = models.ProjectStatusInProgress
	}
	now := time.Now().UTC()
	project.CreatedAt = now
	project.UpdatedAt = now

	const query = `INSERT INTO final_projects (id, title, description, submission_date, status, advisor_id, created_at, updated_at)
        VALUES (:id, :title, :description, :submission_date, :status, :advisor_id, :created_at, :updated_at)`
	if _, err = tx.NamedExecContext(ctx, query, project); err != nil {
		return fmt.Errorf("create project: %w", err)
	}
	if err = writeMembers(ctx, tx, project); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit project: %w", err)
	}
	return nil
}

// Update locks the project, lets mutate derive its next state, checks the resulting
// assignment change under advisor locks and writes it, all in one transaction.
func (r *ProjectRepository) Update(ctx context.Context, id string, mutate ProjectMutation, check AssignmentCheck) (project *models.FinalProject, err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin project transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	current, err := findProject(ctx, tx, id, true)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("lock project: %w", err)
	}

	next, change, err := mutate(current)
	if err != nil {
		return nil, err
	}

	if err = lockAndCheck(ctx, tx, change, check); err != nil {
		return nil, err
	}

	next.ID = id
	next.CreatedAt = current.CreatedAt
	next.UpdatedAt = time.Now().UTC()
	const query = `UPDATE final_projects SET title = :title, description = :description, submission_date = :submission_date,
        status = :status, advisor_id = :advisor_id, updated_at = :updated_at WHERE id = :id`
	if _, err = tx.NamedExecContext(ctx, query, next); err != nil {
		return nil, fmt.Errorf("update project: %w", err)
	}

	if _, err = tx.ExecContext(ctx, `DELETE FROM project_students WHERE project_id = $1`, id); err != nil {
		return nil, fmt.Errorf("clear project students: %w", err)
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM project_committee_members WHERE project_id = $1`, id); err != nil {
		return nil, fmt.Errorf("clear project committee: %w", err)
	}
	if err = writeMembers(ctx, tx, next); err != nil {
		return nil, err
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit project: %w", err)
	}
	return next, nil
}

// Delete removes a project; memberships cascade.
func (r *ProjectRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM final_projects WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete project: %w", err)
	}
	return expectAffected(res)
}

func lockAndCheck(ctx context.Context, tx *sqlx.Tx, change policy.AssignmentChange, check AssignmentCheck) error {
	advisors := map[string]policy.QuotaHolder{}
	if ids := change.LockSet(); len(ids) > 0 {
		var rows []struct {
			ID             string `db:"id"`
			FirstName      string `db:"first_name"`
			LastName       string `db:"last_name"`
			LeadingQuota   int    `db:"leading_quota"`
			CommitteeQuota int    `db:"committee_quota"`
		}
		const query = `SELECT id, first_name, last_name, leading_quota, committee_quota FROM advisors WHERE id = ANY($1) ORDER BY id FOR UPDATE`
		if err := tx.SelectContext(ctx, &rows, query, pq.Array(ids)); err != nil {
			return fmt.Errorf("lock advisors: %w", err)
		}
		for _, row := range rows {
			advisors[row.ID] = policy.QuotaHolder{
				ID:             row.ID,
				FirstName:      row.FirstName,
				LastName:       row.LastName,
				LeadingQuota:   row.LeadingQuota,
				CommitteeQuota: row.CommitteeQuota,
			}
		}
	}
	if check == nil {
		return nil
	}
	return check(ctx, quotaReader{q: tx}, advisors, change)
}

func writeMembers(ctx context.Context, tx *sqlx.Tx, project *models.FinalProject) error {
	for _, studentID := range project.StudentIDs {
		if _, err := tx.ExecContext(ctx, `INSERT INTO project_students (project_id, student_id) VALUES ($1, $2)`, project.ID, studentID); err != nil {
			return fmt.Errorf("add project student: %w", err)
		}
	}
	for _, advisorID := range project.CommitteeMembers {
		if _, err := tx.ExecContext(ctx, `INSERT INTO project_committee_members (project_id, advisor_id) VALUES ($1, $2)`, project.ID, advisorID); err != nil {
			return fmt.Errorf("add committee member: %w", err)
		}
	}
	return nil
}

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

const advisorColumns = `a.id, a.user_id, a.first_name, a.last_name, a.position, a.department, a.phone_number, a.email,
        a.leading_quota, a.committee_quota, a.created_at, a.updated_at`

// AdvisorMutation edits the locked advisor in place. counter sees the same transaction.
type AdvisorMutation func(ctx context.Context, current *models.Advisor, counter policy.QuotaCounter) error

// AdvisorRepository manages advisors and their role assignments.
type AdvisorRepository struct {
	db *sqlx.DB
}

// NewAdvisorRepository constructs an AdvisorRepository.
func NewAdvisorRepository(db *sqlx.DB) *AdvisorRepository {
	return &AdvisorRepository{db: db}
}

// List returns advisors matching the filter with their roles loaded.
func (r *AdvisorRepository) List(ctx context.Context, filter models.AdvisorFilter) ([]models.Advisor, int, error) {
	filter.Normalize()

	args := []interface{}{}
	conditions := []string{"1=1"}
	if filter.Department != "" {
		conditions = append(conditions, fmt.Sprintf("LOWER(a.department) = $%d", len(args)+1))
		args = append(args, strings.ToLower(filter.Department))
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(LOWER(a.first_name || ' ' || a.last_name) LIKE $%d OR LOWER(a.email) LIKE $%d)", len(args)+1, len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}

	base := fmt.Sprintf("FROM advisors a WHERE %s", strings.Join(conditions, " AND "))
	column := sortColumn(filter.SortBy, map[string]string{
		"last_name":  "a.last_name",
		"department": "a.department",
		"created_at": "a.created_at",
	}, "a.created_at")

	query := fmt.Sprintf("SELECT %s %s ORDER BY %s %s LIMIT %d OFFSET %d", advisorColumns, base, column, sortOrder(filter.SortOrder), filter.PageSize, filter.Offset())

	var advisors []models.Advisor
	if err := r.db.SelectContext(ctx, &advisors, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list advisors: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) "+base, args...); err != nil {
		return nil, 0, fmt.Errorf("count advisors: %w", err)
	}

	if err := r.attachRoles(ctx, advisors); err != nil {
		return nil, 0, err
	}
	return advisors, total, nil
}

// FindByID fetches an advisor with roles.
func (r *AdvisorRepository) FindByID(ctx context.Context, id string) (*models.Advisor, error) {
	var advisor models.Advisor
	if err := r.db.GetContext(ctx, &advisor, "SELECT "+advisorColumns+" FROM advisors a WHERE a.id = $1", id); err != nil {
		return nil, err
	}
	list := []models.Advisor{advisor}
	if err := r.attachRoles(ctx, list); err != nil {
		return nil, err
	}
	return &list[0], nil
}

func (r *AdvisorRepository) attachRoles(ctx context.Context, advisors []models.Advisor) error {
	if len(advisors) == 0 {
		return nil
	}
	ids := make([]string, len(advisors))
	for i := range advisors {
		ids[i] = advisors[i].ID
		advisors[i].Roles = []models.AdvisorRoleName{}
	}

	var rows []struct {
		AdvisorID string                 `db:"advisor_id"`
		Role      models.AdvisorRoleName `db:"role"`
	}
	const query = `SELECT ara.advisor_id, ar.role FROM advisor_role_assignments ara
        JOIN advisor_roles ar ON ar.id = ara.role_id WHERE ara.advisor_id = ANY($1) ORDER BY ar.role`
	if err := r.db.SelectContext(ctx, &rows, query, pq.Array(ids)); err != nil {
		return fmt.Errorf("load advisor roles: %w", err)
	}

	index := make(map[string]int, len(advisors))
	for i := range advisors {
		index[advisors[i].ID] = i
	}
	for _, row := range rows {
		if i, ok := index[row.AdvisorID]; ok {
			advisors[i].Roles = append(advisors[i].Roles, row.Role)
		}
	}
	return nil
}

// Create inserts a new advisor.
func (r *AdvisorRepository) Create(ctx context.Context, advisor *models.Advisor) error {
	return insertAdvisor(ctx, r.db, advisor)
}

func insertAdvisor(ctx context.Context, exec sqlx.ExtContext, advisor *models.Advisor) error {
	if advisor.ID == "" {
		advisor.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if advisor.CreatedAt.IsZero() {
		advisor.CreatedAt = now
	}
	advisor.UpdatedAt = now
	if advisor.Roles == nil {
		advisor.Roles = []models.AdvisorRoleName{}
	}
	const query = `INSERT INTO advisors (id, user_id, first_name, last_name, position, department, phone_number, email, leading_quota, committee_quota, created_at, updated_at)
        VALUES (:id, :user_id, :first_name, :last_name, :position, :department, :phone_number, :email, :leading_quota, :committee_quota, :created_at, :updated_at)`
	if _, err := sqlx.NamedExecContext(ctx, exec, query, advisor); err != nil {
		return fmt.Errorf("create advisor: %w", err)
	}
	return nil
}

// Update locks the advisor row, lets mutate edit it, and writes the result in the same transaction.
// Project writes lock the same row, so quota checks made by mutate hold until commit.
func (r *AdvisorRepository) Update(ctx context.Context, id string, mutate AdvisorMutation) (advisor *models.Advisor, err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin advisor transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var current models.Advisor
	if err = tx.GetContext(ctx, &current, "SELECT "+advisorColumns+" FROM advisors a WHERE a.id = $1 FOR UPDATE", id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("lock advisor: %w", err)
	}

	if err = mutate(ctx, &current, quotaReader{q: tx}); err != nil {
		return nil, err
	}

	current.ID = id
	current.UpdatedAt = time.Now().UTC()
	const query = `UPDATE advisors SET first_name = :first_name, last_name = :last_name, position = :position, department = :department,
        phone_number = :phone_number, email = :email, leading_quota = :leading_quota, committee_quota = :committee_quota, updated_at = :updated_at
        WHERE id = :id`
	if _, err = tx.NamedExecContext(ctx, query, &current); err != nil {
		return nil, fmt.Errorf("update advisor: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit advisor: %w", err)
	}
	return &current, nil
}

// ReplaceRoles swaps the advisor's role assignments for roleIDs.
// It returns the ids from roleIDs that do not name an existing role; nothing is written in that case.
func (r *AdvisorRepository) ReplaceRoles(ctx context.Context, advisorID string, roleIDs []string) (missing []string, err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin advisor roles transaction: %w", err)
	}
	defer func() {
		if err != nil || len(missing) > 0 {
			_ = tx.Rollback()
		}
	}()

	var locked string
	if err = tx.GetContext(ctx, &locked, `SELECT id FROM advisors WHERE id = $1 FOR UPDATE`, advisorID); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("lock advisor: %w", err)
	}

	missing, err = missingIDs(ctx, tx, "advisor_roles", roleIDs)
	if err != nil || len(missing) > 0 {
		return missing, err
	}

	if _, err = tx.ExecContext(ctx, `DELETE FROM advisor_role_assignments WHERE advisor_id = $1`, advisorID); err != nil {
		return nil, fmt.Errorf("clear advisor roles: %w", err)
	}
	for _, roleID := range roleIDs {
		if _, err = tx.ExecContext(ctx, `INSERT INTO advisor_role_assignments (advisor_id, role_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`, advisorID, roleID); err != nil {
			return nil, fmt.Errorf("assign advisor role: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit advisor roles: %w", err)
	}
	return nil, nil
}

// Delete removes an advisor; led projects keep existing without a lead.
func (r *AdvisorRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM advisors WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete advisor: %w", err)
	}
	return expectAffected(res)
}

// quotaReader counts assignments through whichever handle it wraps.
type quotaReader struct {
	q sqlx.QueryerContext
}

func (r quotaReader) LeadProjectCount(ctx context.Context, advisorID string) (int, error) {
	var count int
	if err := sqlx.GetContext(ctx, r.q, &count, `SELECT COUNT(*) FROM final_projects WHERE advisor_id = $1`, advisorID); err != nil {
		return 0, err
	}
	return count, nil
}

func (r quotaReader) CommitteeProjectCount(ctx context.Context, advisorID string) (int, error) {
	var count int
	if err := sqlx.GetContext(ctx, r.q, &count, `SELECT COUNT(*) FROM project_committee_members WHERE advisor_id = $1`, advisorID); err != nil {
		return 0, err
	}
	return count, nil
}

// MissingStudents returns the ids in ids without a student row.
func (r quotaReader) MissingStudents(ctx context.Context, ids []string) ([]string, error) {
	return missingIDs(ctx, r.q, "students", ids)
}

// missingIDs reports which ids have no row in table, preserving input order.
func missingIDs(ctx context.Context, q sqlx.QueryerContext, table string, ids []string) ([]string, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var found []string
	query := fmt.Sprintf("SELECT id FROM %s WHERE id = ANY($1)", table)
	if err := sqlx.SelectContext(ctx, q, &found, query, pq.Array(ids)); err != nil {
		return nil, fmt.Errorf("lookup %s: %w", table, err)
	}
	have := make(map[string]struct{}, len(found))
	for _, id := range found {
		have[id] = struct{}{}
	}
	var missing []string
	for _, id := range ids {
		if _, ok := have[id]; !ok {
			missing = append(missing, id)
		}
	}
	return missing, nil
}

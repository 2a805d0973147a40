package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/finalproject-api/internal/dto"
	"github.com/noah-isme/finalproject-api/internal/models"
)

// DashboardRepository computes the aggregate summary.
type DashboardRepository struct {
	db *sqlx.DB
}

// NewDashboardRepository constructs the repository.
func NewDashboardRepository(db *sqlx.DB) *DashboardRepository {
	return &DashboardRepository{db: db}
}

type statusCount struct {
	Status string `db:"status"`
	Count  int    `db:"count"`
}

// Summary reads every figure from a single snapshot so the totals agree with each other.
func (r *DashboardRepository) Summary(ctx context.Context) (summary *dto.DashboardSummary, err error) {
	tx, err := r.db.BeginTxx(ctx, &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true})
	if err != nil {
		return nil, fmt.Errorf("begin dashboard snapshot: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	summary = &dto.DashboardSummary{
		StudentsByStatus:  make(map[string]int, len(models.StudentStatuses)),
		ProjectsByStatus:  make(map[string]int, len(models.ProjectStatuses)),
		AdvisorQuotaUsage: []models.AdvisorQuotaUsage{},
	}
	for _, status := range models.StudentStatuses {
		summary.StudentsByStatus[string(status)] = 0
	}
	for _, status := range models.ProjectStatuses {
		summary.ProjectsByStatus[string(status)] = 0
	}

	var students []statusCount
	if err = tx.SelectContext(ctx, &students, `SELECT status, COUNT(*) AS count FROM students GROUP BY status`); err != nil {
		return nil, fmt.Errorf("count students by status: %w", err)
	}
	for _, row := range students {
		summary.StudentsByStatus[row.Status] = row.Count
		summary.TotalStudents += row.Count
	}

	if err = tx.GetContext(ctx, &summary.TotalAdvisors, `SELECT COUNT(*) FROM advisors`); err != nil {
		return nil, fmt.Errorf("count advisors: %w", err)
	}

	var projects []statusCount
	if err = tx.SelectContext(ctx, &projects, `SELECT status, COUNT(*) AS count FROM final_projects GROUP BY status`); err != nil {
		return nil, fmt.Errorf("count projects by status: %w", err)
	}
	for _, row := range projects {
		summary.ProjectsByStatus[row.Status] = row.Count
		summary.TotalProjects += row.Count
	}

	const usageQuery = `SELECT a.id AS advisor_id, a.first_name, a.last_name, a.leading_quota, a.committee_quota,
        (SELECT COUNT(*) FROM final_projects p WHERE p.advisor_id = a.id) AS leading_count,
        (SELECT COUNT(*) FROM project_committee_members pc WHERE pc.advisor_id = a.id) AS committee_count
        FROM advisors a ORDER BY a.last_name ASC, a.first_name ASC`
	if err = tx.SelectContext(ctx, &summary.AdvisorQuotaUsage, usageQuery); err != nil {
		return nil, fmt.Errorf("advisor quota usage: %w", err)
	}

	summary.GeneratedAt = time.Now().UTC()
	return summary, nil
}

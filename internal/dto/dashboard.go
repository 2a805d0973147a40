package dto

import (
	"time"

	"github.com/noah-isme/finalproject-api/internal/models"
)

// DashboardSummary aggregates record counts and advisor load.
type DashboardSummary struct {
	TotalStudents     int                        `json:"total_students"`
	StudentsByStatus  map[string]int             `json:"students_by_status"`
	TotalAdvisors     int                        `json:"total_advisors"`
	TotalProjects     int                        `json:"total_projects"`
	ProjectsByStatus  map[string]int             `json:"projects_by_status"`
	AdvisorQuotaUsage []models.AdvisorQuotaUsage `json:"advisor_quota_usage"`
	GeneratedAt       time.Time                  `json:"generated_at"`
}

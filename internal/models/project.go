package models

import "time"

// ProjectStatus enumerates the lifecycle of a final project.
type ProjectStatus string

const (
	ProjectStatusInProgress    ProjectStatus = "in_progress"
	ProjectStatusCompleted     ProjectStatus = "completed"
	ProjectStatusPendingReview ProjectStatus = "pending_review"
)

// ProjectStatuses lists every status in display order.
var ProjectStatuses = []ProjectStatus{ProjectStatusInProgress, ProjectStatusCompleted, ProjectStatusPendingReview}

// FinalProject is a thesis project with its participants and supervisors.
type FinalProject struct {
	ID               string        `db:"id" json:"id"`
	Title            string        `db:"title" json:"title"`
	Description      string        `db:"description" json:"description"`
	SubmissionDate   *Date         `db:"submission_date" json:"submission_date"`
	Status           ProjectStatus `db:"status" json:"status"`
	AdvisorID        *string       `db:"advisor_id" json:"advisor"`
	StudentIDs       []string      `db:"-" json:"students"`
	CommitteeMembers []string      `db:"-" json:"committee_members"`
	CreatedAt        time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time     `db:"updated_at" json:"updated_at"`
}

// ProjectFilter captures list filters. Visibility fields are set by the service, never by clients.
type ProjectFilter struct {
	ListQuery
	Status    ProjectStatus
	AdvisorID string

	VisibleToStudent string
	VisibleToAdvisor string
	None             bool
}

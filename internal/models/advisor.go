package models

import "time"

// AdvisorRoleName enumerates the named advisor roles.
type AdvisorRoleName string

const (
	AdvisorRoleAdvisor   AdvisorRoleName = "advisor"
	AdvisorRoleCommittee AdvisorRoleName = "committee"
)

// Advisor represents a lecturer who can lead or sit on project committees.
type Advisor struct {
	ID             string            `db:"id" json:"id"`
	UserID         *string           `db:"user_id" json:"user_id,omitempty"`
	FirstName      string            `db:"first_name" json:"first_name"`
	LastName       string            `db:"last_name" json:"last_name"`
	Position       string            `db:"position" json:"position"`
	Department     string            `db:"department" json:"department"`
	PhoneNumber    string            `db:"phone_number" json:"phone_number"`
	Email          string            `db:"email" json:"email"`
	LeadingQuota   int               `db:"leading_quota" json:"leading_quota"`
	CommitteeQuota int               `db:"committee_quota" json:"committee_quota"`
	Roles          []AdvisorRoleName `db:"-" json:"roles"`
	CreatedAt      time.Time         `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time         `db:"updated_at" json:"updated_at"`
}

// FullName joins first and last name.
func (a Advisor) FullName() string {
	return joinName(a.FirstName, a.LastName)
}

// AdvisorFilter captures list filters.
type AdvisorFilter struct {
	ListQuery
	Department string
}

// AdvisorRole is a named role an advisor may hold.
type AdvisorRole struct {
	ID        string          `db:"id" json:"id"`
	Role      AdvisorRoleName `db:"role" json:"role"`
	CreatedAt time.Time       `db:"created_at" json:"created_at"`
}

// AdvisorQuotaUsage reports current assignments against the advisor's quotas.
type AdvisorQuotaUsage struct {
	AdvisorID      string `db:"advisor_id" json:"advisor_id"`
	FirstName      string `db:"first_name" json:"first_name"`
	LastName       string `db:"last_name" json:"last_name"`
	LeadingQuota   int    `db:"leading_quota" json:"leading_quota"`
	CommitteeQuota int    `db:"committee_quota" json:"committee_quota"`
	LeadingCount   int    `db:"leading_count" json:"leading_count"`
	CommitteeCount int    `db:"committee_count" json:"committee_count"`
}

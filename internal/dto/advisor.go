package dto

import "github.com/noah-isme/finalproject-api/internal/models"

// AdvisorPayload is the body of advisor create and update requests.
type AdvisorPayload struct {
	FirstName      *string `json:"first_name" validate:"omitnil,min=1,max=100"`
	LastName       *string `json:"last_name" validate:"omitnil,min=1,max=100"`
	Position       *string `json:"position" validate:"omitnil,max=100"`
	Department     *string `json:"department" validate:"omitnil,max=100"`
	PhoneNumber    *string `json:"phone_number" validate:"omitnil,max=15"`
	Email          *string `json:"email" validate:"omitnil,email,max=254"`
	LeadingQuota   *int    `json:"leading_quota" validate:"omitnil,min=0"`
	CommitteeQuota *int    `json:"committee_quota" validate:"omitnil,min=0"`
}

// AdvisorRequiredFields must be present on create and full update.
var AdvisorRequiredFields = []string{"first_name", "last_name", "email"}

// Present lists the json names of fields carried by the payload.
func (p AdvisorPayload) Present() []string {
	return present(map[string]bool{
		"first_name":      p.FirstName != nil,
		"last_name":       p.LastName != nil,
		"position":        p.Position != nil,
		"department":      p.Department != nil,
		"phone_number":    p.PhoneNumber != nil,
		"email":           p.Email != nil,
		"leading_quota":   p.LeadingQuota != nil,
		"committee_quota": p.CommitteeQuota != nil,
	})
}

// Apply copies present fields onto a.
func (p AdvisorPayload) Apply(a *models.Advisor) {
	setString(&a.FirstName, p.FirstName)
	setString(&a.LastName, p.LastName)
	setString(&a.Position, p.Position)
	setString(&a.Department, p.Department)
	setString(&a.PhoneNumber, p.PhoneNumber)
	setString(&a.Email, p.Email)
	if p.LeadingQuota != nil {
		a.LeadingQuota = *p.LeadingQuota
	}
	if p.CommitteeQuota != nil {
		a.CommitteeQuota = *p.CommitteeQuota
	}
}

// QuotaChanged reports whether the payload touches either quota.
func (p AdvisorPayload) QuotaChanged() bool {
	return p.LeadingQuota != nil || p.CommitteeQuota != nil
}

// AdvisorRolePayload creates or renames an advisor role.
type AdvisorRolePayload struct {
	Role models.AdvisorRoleName `json:"role" validate:"required,oneof=advisor committee"`
}

// AdvisorRolesAssignment replaces the roles held by an advisor.
type AdvisorRolesAssignment struct {
	RoleIDs []string `json:"role_ids" validate:"dive,uuid"`
}

package dto

import (
	"github.com/noah-isme/finalproject-api/internal/models"
	"github.com/noah-isme/finalproject-api/internal/policy"
)

// ProjectPayload is the body of project create and update requests.
type ProjectPayload struct {
	Title            *string               `json:"title" validate:"omitnil,min=1,max=200"`
	Description      *string               `json:"description"`
	SubmissionDate   Nullable[models.Date] `json:"submission_date"`
	Status           *models.ProjectStatus `json:"status" validate:"omitnil,oneof=in_progress completed pending_review"`
	Students         *[]string             `json:"students" validate:"omitnil,dive,uuid"`
	Advisor          Nullable[string]      `json:"advisor"`
	CommitteeMembers *[]string             `json:"committee_members" validate:"omitnil,dive,uuid"`
}

// ProjectRequiredFields must be present on create and full update.
var ProjectRequiredFields = []string{policy.FieldTitle, policy.FieldStudents}

// Present lists the json names of fields carried by the payload.
func (p ProjectPayload) Present() []string {
	return present(map[string]bool{
		policy.FieldTitle:            p.Title != nil,
		policy.FieldDescription:      p.Description != nil,
		policy.FieldSubmissionDate:   p.SubmissionDate.Set,
		policy.FieldStatus:           p.Status != nil,
		policy.FieldStudents:         p.Students != nil,
		policy.FieldAdvisor:          p.Advisor.Set,
		policy.FieldCommitteeMembers: p.CommitteeMembers != nil,
	})
}

// Apply copies present fields onto project.
func (p ProjectPayload) Apply(project *models.FinalProject) {
	setString(&project.Title, p.Title)
	setString(&project.Description, p.Description)
	if p.SubmissionDate.Set {
		project.SubmissionDate = p.SubmissionDate.Ptr()
	}
	if p.Status != nil {
		project.Status = *p.Status
	}
	if p.Students != nil {
		project.StudentIDs = dedupe(*p.Students)
	}
	if p.Advisor.Set {
		project.AdvisorID = p.Advisor.Ptr()
	}
	if p.CommitteeMembers != nil {
		project.CommitteeMembers = dedupe(*p.CommitteeMembers)
	}
}

package dto

import "github.com/noah-isme/finalproject-api/internal/models"

// MeResponse describes the authenticated caller.
type MeResponse struct {
	User      models.User `json:"user"`
	StudentID *string     `json:"student_id"`
	AdvisorID *string     `json:"advisor_id"`
}

package dto

import "github.com/noah-isme/finalproject-api/internal/models"

// RegisterRequest is the public sign-up payload.
type RegisterRequest struct {
	Username  string          `json:"username" validate:"required,max=150"`
	Password  string          `json:"password" validate:"required,min=8,max=128"`
	Email     string          `json:"email" validate:"required,email,max=254"`
	FirstName string          `json:"first_name" validate:"required,max=100"`
	LastName  string          `json:"last_name" validate:"required,max=100"`
	Role      models.UserRole `json:"role" validate:"required,oneof=admin staff lecturer student"`

	// student
	StudentID    string `json:"student_id" validate:"max=20"`
	Major        string `json:"major" validate:"max=100"`
	YearEnrolled *int   `json:"year_enrolled" validate:"omitempty,min=1900,max=2100"`

	// lecturer
	Department string `json:"department" validate:"max=100"`
	Position   string `json:"position" validate:"max=100"`
}

// RegisterResponse describes the created account.
type RegisterResponse struct {
	User    models.User     `json:"user"`
	Student *models.Student `json:"student,omitempty"`
	Advisor *models.Advisor `json:"advisor,omitempty"`
}

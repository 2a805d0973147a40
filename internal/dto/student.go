package dto

import "github.com/noah-isme/finalproject-api/internal/models"

// StudentPayload is the body of student create and update requests.
// Absent fields are left untouched on update.
type StudentPayload struct {
	FirstName              *string               `json:"first_name" validate:"omitnil,min=1,max=100"`
	LastName               *string               `json:"last_name" validate:"omitnil,min=1,max=100"`
	StudentID              *string               `json:"student_id" validate:"omitnil,min=1,max=20"`
	DateOfBirth            Nullable[models.Date] `json:"date_of_birth"`
	PhoneNumber            *string               `json:"phone_number" validate:"omitnil,max=15"`
	Email                  *string               `json:"email" validate:"omitnil,email,max=254"`
	Address                *string               `json:"address"`
	Major                  *string               `json:"major" validate:"omitnil,min=1,max=100"`
	YearEnrolled           *int                  `json:"year_enrolled" validate:"omitnil,min=1900,max=2100"`
	GraduationYearEstimate Nullable[int]         `json:"graduation_year_estimate"`
	GPA                    Nullable[float64]     `json:"gpa"`
	Status                 *models.StudentStatus `json:"status" validate:"omitnil,oneof=studying graduated leave"`
}

// StudentRequiredFields must be present on create and full update.
var StudentRequiredFields = []string{"first_name", "last_name", "student_id", "email", "major", "year_enrolled"}

// Present lists the json names of fields carried by the payload.
func (p StudentPayload) Present() []string {
	return present(map[string]bool{
		"first_name":               p.FirstName != nil,
		"last_name":                p.LastName != nil,
		"student_id":               p.StudentID != nil,
		"date_of_birth":            p.DateOfBirth.Set,
		"phone_number":             p.PhoneNumber != nil,
		"email":                    p.Email != nil,
		"address":                  p.Address != nil,
		"major":                    p.Major != nil,
		"year_enrolled":            p.YearEnrolled != nil,
		"graduation_year_estimate": p.GraduationYearEstimate.Set,
		"gpa":                      p.GPA.Set,
		"status":                   p.Status != nil,
	})
}

// Apply copies present fields onto s.
func (p StudentPayload) Apply(s *models.Student) {
	setString(&s.FirstName, p.FirstName)
	setString(&s.LastName, p.LastName)
	setString(&s.StudentID, p.StudentID)
	setString(&s.PhoneNumber, p.PhoneNumber)
	setString(&s.Email, p.Email)
	setString(&s.Address, p.Address)
	setString(&s.Major, p.Major)
	if p.YearEnrolled != nil {
		s.YearEnrolled = *p.YearEnrolled
	}
	if p.DateOfBirth.Set {
		s.DateOfBirth = p.DateOfBirth.Ptr()
	}
	if p.GraduationYearEstimate.Set {
		s.GraduationYearEstimate = p.GraduationYearEstimate.Ptr()
	}
	if p.GPA.Set {
		s.GPA = p.GPA.Ptr()
	}
	if p.Status != nil {
		s.Status = *p.Status
	}
}

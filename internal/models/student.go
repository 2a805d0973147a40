package models

import "time"

// StudentStatus enumerates the academic states of a student.
type StudentStatus string

const (
	StudentStatusStudying  StudentStatus = "studying"
	StudentStatusGraduated StudentStatus = "graduated"
	StudentStatusLeave     StudentStatus = "leave"
)

// StudentStatuses lists every status in display order.
var StudentStatuses = []StudentStatus{StudentStatusStudying, StudentStatusGraduated, StudentStatusLeave}

// Student represents a student profile.
type Student struct {
	ID                     string        `db:"id" json:"id"`
	UserID                 *string       `db:"user_id" json:"user_id,omitempty"`
	FirstName              string        `db:"first_name" json:"first_name"`
	LastName               string        `db:"last_name" json:"last_name"`
	StudentID              string        `db:"student_id" json:"student_id"`
	DateOfBirth            *Date         `db:"date_of_birth" json:"date_of_birth"`
	PhoneNumber            string        `db:"phone_number" json:"phone_number"`
	Email                  string        `db:"email" json:"email"`
	Address                string        `db:"address" json:"address"`
	Major                  string        `db:"major" json:"major"`
	YearEnrolled           int           `db:"year_enrolled" json:"year_enrolled"`
	GraduationYearEstimate *int          `db:"graduation_year_estimate" json:"graduation_year_estimate"`
	GPA                    *float64      `db:"gpa" json:"gpa"`
	Status                 StudentStatus `db:"status" json:"status"`
	CreatedAt              time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt              time.Time     `db:"updated_at" json:"updated_at"`
}

// FullName joins first and last name.
func (s Student) FullName() string {
	return joinName(s.FirstName, s.LastName)
}

// StudentFilter captures list filters.
type StudentFilter struct {
	ListQuery
	Status StudentStatus
	Major  string
	// OwnerUserID restricts the list to the row linked to this user.
	OwnerUserID string
	// None forces an empty result.
	None bool
}

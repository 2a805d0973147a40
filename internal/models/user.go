package models

import "time"

// UserRole represents the available roles for the RBAC system.
type UserRole string

const (
	RoleAdmin    UserRole = "admin"
	RoleStaff    UserRole = "staff"
	RoleLecturer UserRole = "lecturer"
	RoleStudent  UserRole = "student"
)

// Valid reports whether the role is one of the known roles.
func (r UserRole) Valid() bool {
	switch r {
	case RoleAdmin, RoleStaff, RoleLecturer, RoleStudent:
		return true
	}
	return false
}

// Privileged reports whether the role carries administrative rights.
func (r UserRole) Privileged() bool {
	return r == RoleAdmin || r == RoleStaff
}

// User represents an application user stored in the users table.
type User struct {
	ID           string     `db:"id" json:"id"`
	Username     string     `db:"username" json:"username"`
	Email        string     `db:"email" json:"email"`
	PasswordHash string     `db:"password_hash" json:"-"`
	FirstName    string     `db:"first_name" json:"first_name"`
	LastName     string     `db:"last_name" json:"last_name"`
	Role         UserRole   `db:"role" json:"role"`
	Active       bool       `db:"active" json:"active"`
	LastLogin    *time.Time `db:"last_login" json:"last_login,omitempty"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updated_at"`
}

// Profile links a user to its student and advisor rows.
type Profile struct {
	UserID    string   `db:"user_id" json:"user_id"`
	Username  string   `db:"username" json:"username"`
	Role      UserRole `db:"role" json:"role"`
	Active    bool     `db:"active" json:"active"`
	StudentID *string  `db:"student_id" json:"student_id,omitempty"`
	AdvisorID *string  `db:"advisor_id" json:"advisor_id,omitempty"`
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}

// ListQuery holds the paging and sorting knobs shared by every collection.
type ListQuery struct {
	Search    string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

// Normalize clamps paging to sane defaults.
func (q *ListQuery) Normalize() {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.PageSize <= 0 || q.PageSize > 100 {
		q.PageSize = 20
	}
}

// Offset returns the SQL offset for the page.
func (q ListQuery) Offset() int {
	return (q.Page - 1) * q.PageSize
}

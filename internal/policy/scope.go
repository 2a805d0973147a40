package policy

import "github.com/noah-isme/finalproject-api/internal/models"

// Scope is the visibility set of a collection, translated to SQL by repositories.
type Scope struct {
	All  bool
	None bool

	OwnerUserID string
	StudentID   string
	AdvisorID   string
}

// StudentScope returns the student rows actor can see: everything for admin/staff, otherwise their own row.
func StudentScope(actor Actor) Scope {
	switch {
	case !actor.Authenticated():
		return Scope{None: true}
	case actor.Privileged():
		return Scope{All: true}
	default:
		return Scope{OwnerUserID: actor.UserID}
	}
}

// ProjectScope returns the projects actor can see.
func ProjectScope(actor Actor) Scope {
	switch {
	case !actor.Authenticated():
		return Scope{None: true}
	case actor.Privileged():
		return Scope{All: true}
	case actor.Role == models.RoleStudent && actor.StudentID != "":
		return Scope{StudentID: actor.StudentID}
	case actor.Role == models.RoleLecturer && actor.AdvisorID != "":
		return Scope{AdvisorID: actor.AdvisorID}
	}
	return Scope{None: true}
}

// ApplyStudentScope narrows filter to the scope.
func ApplyStudentScope(filter *models.StudentFilter, scope Scope) {
	if scope.All {
		return
	}
	filter.None = scope.None
	filter.OwnerUserID = scope.OwnerUserID
}

// ApplyProjectScope narrows filter to the scope.
func ApplyProjectScope(filter *models.ProjectFilter, scope Scope) {
	if scope.All {
		return
	}
	filter.None = scope.None
	filter.VisibleToStudent = scope.StudentID
	filter.VisibleToAdvisor = scope.AdvisorID
}

// Package policy decides who may do what to which record and validates advisor quotas.
// Nothing in here touches HTTP or SQL; callers pass the actor and the record explicitly.
package policy

import (
	"github.com/noah-isme/finalproject-api/internal/models"
	appErrors "github.com/noah-isme/finalproject-api/pkg/errors"
)

// Actor is the authenticated caller a decision is made for.
type Actor struct {
	UserID   string
	Username string
	Role     models.UserRole
	// StudentID and AdvisorID are the caller's linked profile rows, empty when absent.
	StudentID string
	AdvisorID string
}

// Authenticated reports whether the actor carries an identity.
func (a Actor) Authenticated() bool {
	return a.UserID != "" && a.Role.Valid()
}

// Privileged reports whether the actor is admin or staff.
func (a Actor) Privileged() bool {
	return a.Role.Privileged()
}

// Action is an operation on a resource.
type Action string

const (
	ActionList     Action = "list"
	ActionCreate   Action = "create"
	ActionRetrieve Action = "retrieve"
	ActionUpdate   Action = "update"
	ActionDelete   Action = "delete"
)

// Resource is a collection exposed by the API.
type Resource string

const (
	ResourceStudents     Resource = "students"
	ResourceAdvisors     Resource = "advisors"
	ResourceAdvisorRoles Resource = "advisorroles"
	ResourceProjects     Resource = "projects"
	ResourceDashboard    Resource = "dashboard"
)

// Effect is the outcome of an evaluation.
type Effect int

const (
	// Deny rejects the action; the caller may know the record exists.
	Deny Effect = iota
	// Allow permits the action.
	Allow
	// Hide rejects the action as if the record did not exist.
	Hide
)

// Decision is the result of Evaluate.
type Decision struct {
	Effect Effect
	Reason string
}

// Allowed reports whether the action may proceed.
func (d Decision) Allowed() bool {
	return d.Effect == Allow
}

// Err converts a rejection into the API error. noun names the resource in not-found messages.
func (d Decision) Err(noun string) error {
	switch d.Effect {
	case Allow:
		return nil
	case Hide:
		return appErrors.Clone(appErrors.ErrNotFound, noun+" not found")
	default:
		return appErrors.Clone(appErrors.ErrForbidden, d.Reason)
	}
}

// Subject describes the record an instance action targets.
type Subject struct {
	// OwnerUserID is the user linked to a student or advisor row.
	OwnerUserID string

	// Project membership.
	StudentIDs   []string
	AdvisorID    string
	CommitteeIDs []string
}

// ProjectSubject builds the subject for a project record.
func ProjectSubject(p *models.FinalProject) *Subject {
	if p == nil {
		return nil
	}
	s := &Subject{StudentIDs: p.StudentIDs, CommitteeIDs: p.CommitteeMembers}
	if p.AdvisorID != nil {
		s.AdvisorID = *p.AdvisorID
	}
	return s
}

// OwnedSubject builds the subject for a student or advisor row.
func OwnedSubject(userID *string) *Subject {
	s := &Subject{}
	if userID != nil {
		s.OwnerUserID = *userID
	}
	return s
}

var (
	allow           = Decision{Effect: Allow}
	hide            = Decision{Effect: Hide}
	denyAnonymous   = Decision{Effect: Deny, Reason: "authentication credentials were not provided"}
	denyPrivileged  = Decision{Effect: Deny, Reason: "only admin or staff users can perform this action"}
	denyNotOwner    = Decision{Effect: Deny, Reason: "you can only modify your own profile"}
	denyCommittee   = Decision{Effect: Deny, Reason: "committee members cannot update projects"}
	denyNoStudentID = Decision{Effect: Deny, Reason: "a student profile is required to create a project"}
)

// Evaluate decides whether actor may perform action on resource. subject is nil for list and create.
//
// Rules are tried in order: admin/staff, then resource owner, then the role default.
// Anything not matched is denied.
func Evaluate(actor Actor, action Action, resource Resource, subject *Subject) Decision {
	if !actor.Authenticated() {
		return denyAnonymous
	}
	if actor.Privileged() {
		return allow
	}

	switch resource {
	case ResourceStudents:
		return evaluateStudent(actor, action, subject)
	case ResourceAdvisors:
		return evaluateAdvisor(actor, action, subject)
	case ResourceAdvisorRoles:
		if action == ActionList || action == ActionRetrieve {
			return allow
		}
		return denyPrivileged
	case ResourceProjects:
		return evaluateProject(actor, action, subject)
	}
	return denyPrivileged
}

func evaluateStudent(actor Actor, action Action, subject *Subject) Decision {
	switch action {
	case ActionList:
		// filtered down to the caller's own row by StudentScope
		return allow
	case ActionRetrieve, ActionUpdate:
		if subject != nil && subject.OwnerUserID != "" && subject.OwnerUserID == actor.UserID {
			return allow
		}
		return hide
	}
	return denyPrivileged
}

func evaluateAdvisor(actor Actor, action Action, subject *Subject) Decision {
	switch action {
	case ActionList, ActionRetrieve:
		return allow
	case ActionUpdate:
		if subject != nil && subject.OwnerUserID != "" && subject.OwnerUserID == actor.UserID {
			return allow
		}
		return denyNotOwner
	}
	return denyPrivileged
}

func evaluateProject(actor Actor, action Action, subject *Subject) Decision {
	switch action {
	case ActionList:
		return allow
	case ActionCreate:
		if actor.Role != models.RoleStudent {
			return denyPrivileged
		}
		if actor.StudentID == "" {
			return denyNoStudentID
		}
		return allow
	case ActionRetrieve:
		if projectVisible(actor, subject) {
			return allow
		}
		return hide
	case ActionUpdate:
		if !projectVisible(actor, subject) {
			return hide
		}
		if isParticipant(actor, subject) || isLead(actor, subject) {
			return allow
		}
		return denyCommittee
	}
	return denyPrivileged
}

func projectVisible(actor Actor, subject *Subject) bool {
	if subject == nil {
		return false
	}
	switch actor.Role {
	case models.RoleStudent:
		return isParticipant(actor, subject)
	case models.RoleLecturer:
		return isLead(actor, subject) || isCommittee(actor, subject)
	}
	return false
}

func isParticipant(actor Actor, subject *Subject) bool {
	return actor.StudentID != "" && contains(subject.StudentIDs, actor.StudentID)
}

func isLead(actor Actor, subject *Subject) bool {
	return actor.AdvisorID != "" && subject.AdvisorID == actor.AdvisorID
}

func isCommittee(actor Actor, subject *Subject) bool {
	return actor.AdvisorID != "" && contains(subject.CommitteeIDs, actor.AdvisorID)
}

func contains(ids []string, id string) bool {
	for _, candidate := range ids {
		if candidate == id {
			return true
		}
	}
	return false
}

package policy

import "fmt"

// Project payload field names.
const (
	FieldTitle            = "title"
	FieldDescription      = "description"
	FieldSubmissionDate   = "submission_date"
	FieldStatus           = "status"
	FieldStudents         = "students"
	FieldAdvisor          = "advisor"
	FieldCommitteeMembers = "committee_members"
)

// Advisor payload field names guarded from self-service edits.
const (
	FieldLeadingQuota   = "leading_quota"
	FieldCommitteeQuota = "committee_quota"
)

// UpdateScope is the set of project fields an actor may change.
type UpdateScope int

const (
	ScopeNoFields UpdateScope = iota
	ScopeAllFields
	// ScopeParticipant allows everything except advisor and status.
	ScopeParticipant
	// ScopeStatusOnly allows only the status field.
	ScopeStatusOnly
)

// ProjectUpdateScope resolves which fields actor may touch on the project. Priority follows Evaluate.
func ProjectUpdateScope(actor Actor, subject *Subject) UpdateScope {
	if !actor.Authenticated() || subject == nil {
		return ScopeNoFields
	}
	if actor.Privileged() {
		return ScopeAllFields
	}
	if isParticipant(actor, subject) {
		return ScopeParticipant
	}
	if isLead(actor, subject) {
		return ScopeStatusOnly
	}
	return ScopeNoFields
}

// CheckProjectFields denies the first submitted field outside scope.
func CheckProjectFields(scope UpdateScope, fields []string) Decision {
	switch scope {
	case ScopeAllFields:
		return allow
	case ScopeParticipant:
		for _, field := range fields {
			if field == FieldAdvisor || field == FieldStatus {
				return Decision{Effect: Deny, Reason: fmt.Sprintf("Students cannot change the %s of a project", field)}
			}
		}
		return allow
	case ScopeStatusOnly:
		for _, field := range fields {
			if field != FieldStatus {
				return Decision{Effect: Deny, Reason: fmt.Sprintf("Advisors can only update the status, not %s", field)}
			}
		}
		return allow
	}
	return denyCommittee
}

// CheckAdvisorFields keeps quota fields in the hands of admin and staff.
func CheckAdvisorFields(actor Actor, fields []string) Decision {
	if actor.Privileged() {
		return allow
	}
	for _, field := range fields {
		if field == FieldLeadingQuota || field == FieldCommitteeQuota {
			return Decision{Effect: Deny, Reason: fmt.Sprintf("only admin or staff users can change %s", field)}
		}
	}
	return allow
}

package policy

import (
	"context"
	"fmt"
	"sort"
	"strings"

	appErrors "github.com/noah-isme/finalproject-api/pkg/errors"
)

// QuotaCounter reports current assignment counts for an advisor.
type QuotaCounter interface {
	LeadProjectCount(ctx context.Context, advisorID string) (int, error)
	CommitteeProjectCount(ctx context.Context, advisorID string) (int, error)
}

// QuotaHolder is the advisor data a quota decision needs.
type QuotaHolder struct {
	ID             string
	FirstName      string
	LastName       string
	LeadingQuota   int
	CommitteeQuota int
}

// Name returns the display name used in rejection messages.
func (h QuotaHolder) Name() string {
	return strings.TrimSpace(h.FirstName + " " + h.LastName)
}

// AssignmentChange describes the advisor links of a staged project write.
type AssignmentChange struct {
	// Existing is false for a project being created.
	Existing          bool
	PreviousAdvisorID string
	PreviousCommittee []string

	// AdvisorSet is true when the payload carries the advisor field; an empty AdvisorID clears it.
	AdvisorSet   bool
	AdvisorID    string
	CommitteeSet bool
	Committee    []string
}

// NewLead returns the advisor id whose leading quota must be checked, or "".
// Keeping or removing the current lead never needs a check.
func (c AssignmentChange) NewLead() string {
	if !c.AdvisorSet || c.AdvisorID == "" {
		return ""
	}
	if c.Existing && c.AdvisorID == c.PreviousAdvisorID {
		return ""
	}
	return c.AdvisorID
}

// NewCommitteeMembers returns submitted committee members not already on the project, deduplicated in order.
func (c AssignmentChange) NewCommitteeMembers() []string {
	if !c.CommitteeSet {
		return nil
	}
	previous := make(map[string]struct{}, len(c.PreviousCommittee))
	if c.Existing {
		for _, id := range c.PreviousCommittee {
			previous[id] = struct{}{}
		}
	}
	seen := make(map[string]struct{}, len(c.Committee))
	added := make([]string, 0, len(c.Committee))
	for _, id := range c.Committee {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		if _, ok := previous[id]; ok {
			continue
		}
		added = append(added, id)
	}
	return added
}

// LockSet lists, sorted, every advisor whose quota the change can consume.
// Locking in a fixed order keeps concurrent writers from deadlocking.
func (c AssignmentChange) LockSet() []string {
	set := make(map[string]struct{})
	if lead := c.NewLead(); lead != "" {
		set[lead] = struct{}{}
	}
	for _, id := range c.NewCommitteeMembers() {
		set[id] = struct{}{}
	}
	ids := make([]string, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// LeadLimitMessage is the rejection for a saturated leading quota.
func LeadLimitMessage(h QuotaHolder) string {
	return fmt.Sprintf("Advisor %s has reached their leading project limit of %d.", h.Name(), h.LeadingQuota)
}

// CommitteeLimitMessage is the rejection for a saturated committee quota.
func CommitteeLimitMessage(h QuotaHolder) string {
	return fmt.Sprintf("Advisor %s has reached their committee limit of %d.", h.Name(), h.CommitteeQuota)
}

func unknownAdvisorMessage(id string) string {
	return fmt.Sprintf("Invalid pk %q - object does not exist.", id)
}

// ValidateQuotas checks every new assignment in change against the advisors' quotas.
// All failures are collected and keyed by payload field; the returned error is reserved for counter failures.
// The caller must hold whatever lock makes the counts stable until it commits.
func ValidateQuotas(ctx context.Context, counter QuotaCounter, advisors map[string]QuotaHolder, change AssignmentChange) (appErrors.FieldErrors, error) {
	fields := appErrors.FieldErrors{}

	if lead := change.NewLead(); lead != "" {
		holder, ok := advisors[lead]
		if !ok {
			fields.Add(FieldAdvisor, unknownAdvisorMessage(lead))
		} else {
			count, err := counter.LeadProjectCount(ctx, lead)
			if err != nil {
				return nil, fmt.Errorf("count projects led by %s: %w", lead, err)
			}
			if count >= holder.LeadingQuota {
				fields.Add(FieldAdvisor, LeadLimitMessage(holder))
			}
		}
	}

	for _, id := range change.NewCommitteeMembers() {
		holder, ok := advisors[id]
		if !ok {
			fields.Add(FieldCommitteeMembers, unknownAdvisorMessage(id))
			continue
		}
		count, err := counter.CommitteeProjectCount(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("count committee seats of %s: %w", id, err)
		}
		if count >= holder.CommitteeQuota {
			fields.Add(FieldCommitteeMembers, CommitteeLimitMessage(holder))
		}
	}

	return fields, nil
}

// ValidateQuotaFloor rejects quotas lowered below what the advisor already carries.
func ValidateQuotaFloor(ctx context.Context, counter QuotaCounter, holder QuotaHolder) (appErrors.FieldErrors, error) {
	fields := appErrors.FieldErrors{}

	leading, err := counter.LeadProjectCount(ctx, holder.ID)
	if err != nil {
		return nil, fmt.Errorf("count projects led by %s: %w", holder.ID, err)
	}
	if holder.LeadingQuota < leading {
		fields.Add(FieldLeadingQuota, fmt.Sprintf("Advisor %s already leads %d projects; quota cannot be lower.", holder.Name(), leading))
	}

	committee, err := counter.CommitteeProjectCount(ctx, holder.ID)
	if err != nil {
		return nil, fmt.Errorf("count committee seats of %s: %w", holder.ID, err)
	}
	if holder.CommitteeQuota < committee {
		fields.Add(FieldCommitteeQuota, fmt.Sprintf("Advisor %s already sits on %d committees; quota cannot be lower.", holder.Name(), committee))
	}

	return fields, nil
}

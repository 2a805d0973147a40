package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/finalproject-api/internal/dto"
	"github.com/noah-isme/finalproject-api/internal/models"
	"github.com/noah-isme/finalproject-api/internal/policy"
	"github.com/noah-isme/finalproject-api/internal/repository"
	appErrors "github.com/noah-isme/finalproject-api/pkg/errors"
)

type stubCounter struct {
	leading   map[string]int
	committee map[string]int
}

func (c stubCounter) LeadProjectCount(_ context.Context, id string) (int, error) {
	return c.leading[id], nil
}

func (c stubCounter) CommitteeProjectCount(_ context.Context, id string) (int, error) {
	return c.committee[id], nil
}

type mockAdvisorRepo struct {
	advisors map[string]models.Advisor
	roles    map[string]models.AdvisorRoleName
	counter  stubCounter
}

func newMockAdvisorRepo() *mockAdvisorRepo {
	return &mockAdvisorRepo{
		advisors: map[string]models.Advisor{
			advisorBudi: {ID: advisorBudi, UserID: strRef("u-budi"), FirstName: "Budi", LastName: "Santoso", Email: "budi@example.com", LeadingQuota: 3, CommitteeQuota: 3},
			advisorSari: {ID: advisorSari, UserID: strRef("u-sari"), FirstName: "Sari", LastName: "Wulandari", Email: "sari@example.com", LeadingQuota: 3, CommitteeQuota: 3},
		},
		roles: map[string]models.AdvisorRoleName{"r-advisor": models.AdvisorRoleAdvisor},
		counter: stubCounter{
			leading:   map[string]int{advisorBudi: 2},
			committee: map[string]int{advisorBudi: 1},
		},
	}
}

func (m *mockAdvisorRepo) List(ctx context.Context, filter models.AdvisorFilter) ([]models.Advisor, int, error) {
	out := make([]models.Advisor, 0, len(m.advisors))
	for _, a := range m.advisors {
		out = append(out, a)
	}
	return out, len(out), nil
}

func (m *mockAdvisorRepo) FindByID(ctx context.Context, id string) (*models.Advisor, error) {
	a, ok := m.advisors[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &a, nil
}

func (m *mockAdvisorRepo) Create(ctx context.Context, advisor *models.Advisor) error {
	advisor.ID = "a-new"
	m.advisors[advisor.ID] = *advisor
	return nil
}

func (m *mockAdvisorRepo) Update(ctx context.Context, id string, mutate repository.AdvisorMutation) (*models.Advisor, error) {
	a, ok := m.advisors[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	if err := mutate(ctx, &a, m.counter); err != nil {
		return nil, err
	}
	m.advisors[id] = a
	return &a, nil
}

func (m *mockAdvisorRepo) ReplaceRoles(ctx context.Context, advisorID string, roleIDs []string) ([]string, error) {
	a, ok := m.advisors[advisorID]
	if !ok {
		return nil, sql.ErrNoRows
	}
	var missing []string
	var names []models.AdvisorRoleName
	for _, id := range roleIDs {
		name, ok := m.roles[id]
		if !ok {
			missing = append(missing, id)
			continue
		}
		names = append(names, name)
	}
	if len(missing) > 0 {
		return missing, nil
	}
	a.Roles = names
	m.advisors[advisorID] = a
	return nil, nil
}

func (m *mockAdvisorRepo) Delete(ctx context.Context, id string) error {
	if _, ok := m.advisors[id]; !ok {
		return sql.ErrNoRows
	}
	delete(m.advisors, id)
	return nil
}

func intRef(v int) *int { return &v }

func TestAdvisorServiceListIsOpenToEveryRole(t *testing.T) {
	svc := NewAdvisorService(newMockAdvisorRepo(), nil, nil, nil)
	for _, actor := range []policy.Actor{adminActor, aniActor, budiActor} {
		items, _, err := svc.List(context.Background(), actor, models.AdvisorFilter{})
		require.NoError(t, err)
		assert.Len(t, items, 2)
	}
}

func TestAdvisorServiceSelfUpdate(t *testing.T) {
	repo := newMockAdvisorRepo()
	svc := NewAdvisorService(repo, nil, nil, nil)

	updated, err := svc.Update(context.Background(), budiActor, advisorBudi, dto.AdvisorPayload{Position: strRef("Lektor")}, false)
	require.NoError(t, err)
	assert.Equal(t, "Lektor", updated.Position)

	_, err = svc.Update(context.Background(), budiActor, advisorBudi, dto.AdvisorPayload{LeadingQuota: intRef(9)}, false)
	requireCode(t, err, appErrors.ErrForbidden)

	_, err = svc.Update(context.Background(), budiActor, advisorSari, dto.AdvisorPayload{Position: strRef("x")}, false)
	requireCode(t, err, appErrors.ErrForbidden)
}

func TestAdvisorServiceQuotaFloor(t *testing.T) {
	repo := newMockAdvisorRepo()
	invalidator := &countingInvalidator{}
	svc := NewAdvisorService(repo, nil, invalidator, nil)

	_, err := svc.Update(context.Background(), adminActor, advisorBudi, dto.AdvisorPayload{LeadingQuota: intRef(1), CommitteeQuota: intRef(0)}, false)
	appErr := requireCode(t, err, appErrors.ErrValidation)
	assert.Contains(t, appErr.Fields, "leading_quota")
	assert.Contains(t, appErr.Fields, "committee_quota")
	assert.Equal(t, 3, repo.advisors[advisorBudi].LeadingQuota)
	assert.Zero(t, invalidator.calls)

	updated, err := svc.Update(context.Background(), adminActor, advisorBudi, dto.AdvisorPayload{LeadingQuota: intRef(2)}, false)
	require.NoError(t, err)
	assert.Equal(t, 2, updated.LeadingQuota)
	assert.Equal(t, 1, invalidator.calls)
}

func TestAdvisorServiceCreate(t *testing.T) {
	svc := NewAdvisorService(newMockAdvisorRepo(), nil, nil, nil)

	_, err := svc.Create(context.Background(), budiActor, dto.AdvisorPayload{FirstName: strRef("x")})
	requireCode(t, err, appErrors.ErrForbidden)

	_, err = svc.Create(context.Background(), adminActor, dto.AdvisorPayload{FirstName: strRef("Eko")})
	appErr := requireCode(t, err, appErrors.ErrValidation)
	assert.Contains(t, appErr.Fields, "last_name")
	assert.Contains(t, appErr.Fields, "email")

	advisor, err := svc.Create(context.Background(), adminActor, dto.AdvisorPayload{
		FirstName:    strRef("Eko"),
		LastName:     strRef("Prasetyo"),
		Email:        strRef("eko@example.com"),
		LeadingQuota: intRef(4),
	})
	require.NoError(t, err)
	assert.Equal(t, 4, advisor.LeadingQuota)
}

func TestAdvisorServiceSetRoles(t *testing.T) {
	repo := newMockAdvisorRepo()
	svc := NewAdvisorService(repo, nil, nil, nil)
	unknown := "5e0b9c1a-2d3f-4a5b-8c7d-9e0f1a2b3c4d"

	_, err := svc.SetRoles(context.Background(), budiActor, advisorBudi, dto.AdvisorRolesAssignment{RoleIDs: []string{"r-advisor"}})
	requireCode(t, err, appErrors.ErrForbidden)

	_, err = svc.SetRoles(context.Background(), adminActor, advisorBudi, dto.AdvisorRolesAssignment{RoleIDs: []string{unknown}})
	appErr := requireCode(t, err, appErrors.ErrValidation)
	assert.Contains(t, appErr.Fields["role_ids"][0], unknown)
}

func TestAdvisorServiceDelete(t *testing.T) {
	svc := NewAdvisorService(newMockAdvisorRepo(), nil, nil, nil)

	requireCode(t, svc.Delete(context.Background(), budiActor, advisorBudi), appErrors.ErrForbidden)
	require.NoError(t, svc.Delete(context.Background(), adminActor, advisorBudi))
	requireCode(t, svc.Delete(context.Background(), adminActor, advisorBudi), appErrors.ErrNotFound)
}

func TestAdvisorServiceMalformedIDIsNotFound(t *testing.T) {
	svc := NewAdvisorService(newMockAdvisorRepo(), nil, nil, nil)
	ctx := context.Background()

	_, err := svc.Get(ctx, adminActor, "abc")
	requireCode(t, err, appErrors.ErrNotFound)

	_, err = svc.Update(ctx, adminActor, "abc", dto.AdvisorPayload{Position: strRef("Lektor")}, false)
	requireCode(t, err, appErrors.ErrNotFound)

	_, err = svc.SetRoles(ctx, adminActor, "abc", dto.AdvisorRolesAssignment{RoleIDs: []string{}})
	requireCode(t, err, appErrors.ErrNotFound)

	requireCode(t, svc.Delete(ctx, adminActor, "abc"), appErrors.ErrNotFound)
}

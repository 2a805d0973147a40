package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/finalproject-api/internal/dto"
	"github.com/noah-isme/finalproject-api/internal/models"
	"github.com/noah-isme/finalproject-api/internal/policy"
	appErrors "github.com/noah-isme/finalproject-api/pkg/errors"
	"github.com/noah-isme/finalproject-api/pkg/export"
)

type memoryCacheRepo struct {
	mu      sync.Mutex
	values  map[string][]byte
	gens    map[string]int64
	bumpErr error
}

func newMemoryCacheRepo() *memoryCacheRepo {
	return &memoryCacheRepo{values: map[string][]byte{}, gens: map[string]int64{}}
}

func (m *memoryCacheRepo) Get(_ context.Context, key string, dest interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	raw, ok := m.values[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (m *memoryCacheRepo) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.values[key] = raw
	m.mu.Unlock()
	return nil
}

func (m *memoryCacheRepo) Generation(_ context.Context, key string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.gens[key], nil
}

func (m *memoryCacheRepo) Bump(_ context.Context, key string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.bumpErr != nil {
		return 0, m.bumpErr
	}
	m.gens[key]++
	return m.gens[key], nil
}

type mockDashboardRepo struct {
	calls   int
	summary dto.DashboardSummary
}

func (m *mockDashboardRepo) Summary(ctx context.Context) (*dto.DashboardSummary, error) {
	m.calls++
	s := m.summary
	s.TotalProjects += m.calls - 1
	return &s, nil
}

func newDashboardFixture() (*DashboardService, *mockDashboardRepo, *memoryCacheRepo) {
	repo := &mockDashboardRepo{summary: dto.DashboardSummary{
		TotalStudents:    2,
		StudentsByStatus: map[string]int{"studying": 2, "graduated": 0, "leave": 0},
		TotalAdvisors:    1,
		TotalProjects:    1,
		ProjectsByStatus: map[string]int{"in_progress": 1, "completed": 0, "pending_review": 0},
		AdvisorQuotaUsage: []models.AdvisorQuotaUsage{
			{AdvisorID: advisorBudi, FirstName: "Budi", LastName: "Santoso", LeadingQuota: 3, CommitteeQuota: 3, LeadingCount: 1},
		},
	}}
	cacheRepo := newMemoryCacheRepo()
	cache := NewCacheService(cacheRepo, NewMetricsService(), time.Minute, nil, true)
	return NewDashboardService(repo, cache, nil, DashboardServiceConfig{}), repo, cacheRepo
}

func TestDashboardServiceRequiresPrivilegedRole(t *testing.T) {
	svc, repo, _ := newDashboardFixture()

	for _, actor := range []policy.Actor{aniActor, budiActor} {
		_, _, err := svc.Summary(context.Background(), actor)
		requireCode(t, err, appErrors.ErrForbidden)
	}
	assert.Zero(t, repo.calls)
}

func TestDashboardServiceCachesUntilInvalidated(t *testing.T) {
	svc, repo, _ := newDashboardFixture()
	ctx := context.Background()

	first, hit, err := svc.Summary(ctx, adminActor)
	require.NoError(t, err)
	assert.False(t, hit)
	assert.False(t, first.GeneratedAt.IsZero())

	second, hit, err := svc.Summary(ctx, adminActor)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, first.TotalProjects, second.TotalProjects)
	assert.Equal(t, 1, repo.calls)

	svc.Invalidate(ctx)

	third, hit, err := svc.Summary(ctx, adminActor)
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, 2, third.TotalProjects)
}

func TestDashboardServiceSuspendsCacheWhenInvalidationFails(t *testing.T) {
	svc, repo, cacheRepo := newDashboardFixture()
	ctx := context.Background()

	_, _, err := svc.Summary(ctx, adminActor)
	require.NoError(t, err)

	cacheRepo.bumpErr = errors.New("redis down")
	svc.Invalidate(ctx)

	_, hit, err := svc.Summary(ctx, adminActor)
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, 2, repo.calls)

	cacheRepo.bumpErr = nil
	svc.Invalidate(ctx)
	_, hit, err = svc.Summary(ctx, adminActor)
	require.NoError(t, err)
	assert.False(t, hit)
	_, hit, err = svc.Summary(ctx, adminActor)
	require.NoError(t, err)
	assert.True(t, hit)
}

func TestDashboardServiceWithoutCache(t *testing.T) {
	repo := &mockDashboardRepo{}
	svc := NewDashboardService(repo, nil, nil, DashboardServiceConfig{})

	_, hit, err := svc.Summary(context.Background(), adminActor)
	require.NoError(t, err)
	assert.False(t, hit)
	svc.Invalidate(context.Background())

	var nilService *DashboardService
	assert.NotPanics(t, func() { nilService.Invalidate(context.Background()) })
}

func TestDashboardServiceExport(t *testing.T) {
	svc, _, _ := newDashboardFixture()

	file, err := svc.Export(context.Background(), adminActor, "csv")
	require.NoError(t, err)
	assert.Equal(t, "text/csv", file.ContentType)
	assert.True(t, strings.HasSuffix(file.Name, ".csv"))
	assert.Contains(t, string(file.Body), "Budi Santoso")

	_, err = svc.Export(context.Background(), adminActor, "docx")
	appErr := requireCode(t, err, appErrors.ErrValidation)
	assert.Contains(t, appErr.Fields, "format")

	_, err = svc.Export(context.Background(), aniActor, string(export.FormatPDF))
	requireCode(t, err, appErrors.ErrForbidden)
}

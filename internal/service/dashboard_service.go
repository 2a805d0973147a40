package service

import (
	"context"
	"fmt"
	"strconv"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/finalproject-api/internal/dto"
	"github.com/noah-isme/finalproject-api/internal/policy"
	appErrors "github.com/noah-isme/finalproject-api/pkg/errors"
	"github.com/noah-isme/finalproject-api/pkg/export"
)

const (
	dashboardGenerationKey = "dashboard:summary:gen"
	dashboardSummaryPrefix = "dashboard:summary:"
)

// summaryInvalidator is notified after every write that can change the dashboard figures.
type summaryInvalidator interface {
	Invalidate(ctx context.Context)
}

type noopInvalidator struct{}

func (noopInvalidator) Invalidate(context.Context) {}

type dashboardRepository interface {
	Summary(ctx context.Context) (*dto.DashboardSummary, error)
}

// DashboardServiceConfig tunes dashboard behaviour.
type DashboardServiceConfig struct {
	CacheTTL time.Duration
}

// DashboardService computes the aggregate summary for admin and staff users.
type DashboardService struct {
	repo   dashboardRepository
	cache  *CacheService
	logger *zap.Logger
	now    func() time.Time
	cfg    DashboardServiceConfig
	stale  atomic.Bool
}

// NewDashboardService constructs the dashboard service. cache may be nil.
func NewDashboardService(repo dashboardRepository, cache *CacheService, logger *zap.Logger, cfg DashboardServiceConfig) *DashboardService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 5 * time.Minute
	}
	return &DashboardService{repo: repo, cache: cache, logger: logger, now: time.Now, cfg: cfg}
}

// Summary returns the current figures and whether they were served from cache.
func (s *DashboardService) Summary(ctx context.Context, actor policy.Actor) (*dto.DashboardSummary, bool, error) {
	if err := policy.Evaluate(actor, policy.ActionRetrieve, policy.ResourceDashboard, nil).Err("dashboard"); err != nil {
		return nil, false, err
	}

	key, cacheable := s.cacheKey(ctx)
	if cacheable {
		if summary, hit := s.tryCache(ctx, key); hit {
			return summary, true, nil
		}
	}

	summary, err := s.repo.Summary(ctx)
	if err != nil {
		return nil, false, internalError(err, "failed to build dashboard summary")
	}
	if summary.GeneratedAt.IsZero() {
		summary.GeneratedAt = s.now().UTC()
	}
	if cacheable {
		s.persistCache(ctx, key, summary)
	}
	return summary, false, nil
}

// Export renders the advisor quota usage table in the requested format.
func (s *DashboardService) Export(ctx context.Context, actor policy.Actor, rawFormat string) (*export.File, error) {
	format, err := export.ParseFormat(rawFormat)
	if err != nil {
		fields := appErrors.FieldErrors{}
		fields.Add("format", fmt.Sprintf("%q is not a valid choice.", rawFormat))
		return nil, appErrors.Validation(fields)
	}
	summary, _, err := s.Summary(ctx, actor)
	if err != nil {
		return nil, err
	}

	dataset := export.Dataset{
		Title:   "Advisor quota usage",
		Headers: []string{"Advisor", "Leading", "Leading quota", "Committee", "Committee quota"},
	}
	for _, usage := range summary.AdvisorQuotaUsage {
		dataset.Rows = append(dataset.Rows, map[string]string{
			"Advisor":         usage.FirstName + " " + usage.LastName,
			"Leading":         strconv.Itoa(usage.LeadingCount),
			"Leading quota":   strconv.Itoa(usage.LeadingQuota),
			"Committee":       strconv.Itoa(usage.CommitteeCount),
			"Committee quota": strconv.Itoa(usage.CommitteeQuota),
		})
	}

	file, err := export.Render(format, dataset, "advisor-quota-usage-"+summary.GeneratedAt.Format("20060102"))
	if err != nil {
		return nil, internalError(err, "failed to render export")
	}
	return file, nil
}

// Invalidate retires the cached summary. When the generation cannot be advanced
// cached reads stay off until a later invalidation succeeds.
func (s *DashboardService) Invalidate(ctx context.Context) {
	if s == nil || !s.cache.Enabled() {
		return
	}
	if err := s.cache.Invalidate(ctx, dashboardGenerationKey); err != nil {
		s.stale.Store(true)
		s.logger.Warn("dashboard cache suspended", zap.Error(err))
		return
	}
	s.stale.Store(false)
}

func (s *DashboardService) cacheKey(ctx context.Context) (string, bool) {
	if !s.cache.Enabled() || s.stale.Load() {
		return "", false
	}
	gen, err := s.cache.Generation(ctx, dashboardGenerationKey)
	if err != nil {
		s.logger.Warn("dashboard cache generation unavailable", zap.Error(err))
		return "", false
	}
	return dashboardSummaryPrefix + strconv.FormatInt(gen, 10), true
}

func (s *DashboardService) tryCache(ctx context.Context, key string) (*dto.DashboardSummary, bool) {
	var cached dto.DashboardSummary
	hit, err := s.cache.Get(ctx, key, &cached)
	if err != nil || !hit {
		return nil, false
	}
	return &cached, true
}

func (s *DashboardService) persistCache(ctx context.Context, key string, value *dto.DashboardSummary) {
	if err := s.cache.Set(ctx, key, value, s.cfg.CacheTTL); err != nil {
		s.logger.Warn("dashboard cache write failed", zap.String("key", key), zap.Error(err))
	}
}

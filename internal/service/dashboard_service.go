package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/nss-vignan/nss-portal-api/internal/models"
	appErrors "github.com/nss-vignan/nss-portal-api/pkg/errors"
)

const dashboardCacheKey = "dashboard:stats"

type dashboardUserSource interface {
	CountStudents(ctx context.Context) (int, error)
	CountStudentsByTeamRole(ctx context.Context, teamRole models.TeamRole) (int, error)
	CountEligibleForFinalCertificate(ctx context.Context, minHours float64) (int, error)
	SumStudentHours(ctx context.Context) (float64, error)
	TopVolunteers(ctx context.Context, limit int) ([]models.TopVolunteer, error)
}

type dashboardEventSource interface {
	CountAll(ctx context.Context) (int, error)
	CountByStatus(ctx context.Context, status models.EventStatus) (int, error)
}

type dashboardParticipationSource interface {
	CountByStatus(ctx context.Context, status models.ParticipationStatus) (int, error)
}

type statsCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// DashboardService aggregates portal statistics with a short-lived cache in
// front of the counting queries.
type DashboardService struct {
	users          dashboardUserSource
	events         dashboardEventSource
	participations dashboardParticipationSource
	cache          statsCache
	cacheTTL       time.Duration
	minHours       float64
	logger         *zap.Logger
}

// NewDashboardService constructs DashboardService.
func NewDashboardService(users dashboardUserSource, events dashboardEventSource, participations dashboardParticipationSource, cache statsCache, cacheTTL time.Duration, minHours float64, logger *zap.Logger) *DashboardService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cacheTTL <= 0 {
		cacheTTL = 5 * time.Minute
	}
	if minHours <= 0 {
		minHours = 60
	}
	return &DashboardService{
		users:          users,
		events:         events,
		participations: participations,
		cache:          cache,
		cacheTTL:       cacheTTL,
		minHours:       minHours,
		logger:         logger,
	}
}

// Stats returns dashboard statistics, served from cache when fresh.
func (s *DashboardService) Stats(ctx context.Context) (*models.DashboardStats, error) {
	if s.cache != nil {
		var cached models.DashboardStats
		err := s.cache.Get(ctx, dashboardCacheKey, &cached)
		if err == nil {
			return &cached, nil
		}
		if !errors.Is(err, appErrors.ErrCacheMiss) {
			s.logger.Warn("dashboard cache read failed", zap.Error(err))
		}
	}

	stats, err := s.compute(ctx)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, dashboardCacheKey, stats, s.cacheTTL); err != nil {
			s.logger.Warn("dashboard cache write failed", zap.Error(err))
		}
	}
	return stats, nil
}

// Invalidate drops the cached statistics.
func (s *DashboardService) Invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, dashboardCacheKey); err != nil {
		s.logger.Warn("dashboard cache invalidation failed", zap.Error(err))
	}
}

func (s *DashboardService) compute(ctx context.Context) (*models.DashboardStats, error) {
	wrap := func(err error, msg string) error {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, msg)
	}

	totalEvents, err := s.events.CountAll(ctx)
	if err != nil {
		return nil, wrap(err, "failed to count events")
	}
	upcoming, err := s.events.CountByStatus(ctx, models.EventStatusUpcoming)
	if err != nil {
		return nil, wrap(err, "failed to count upcoming events")
	}
	totalStudents, err := s.users.CountStudents(ctx)
	if err != nil {
		return nil, wrap(err, "failed to count students")
	}
	approved, err := s.participations.CountByStatus(ctx, models.ParticipationApproved)
	if err != nil {
		return nil, wrap(err, "failed to count approved participations")
	}
	totalHours, err := s.users.SumStudentHours(ctx)
	if err != nil {
		return nil, wrap(err, "failed to sum hours")
	}
	topVolunteers, err := s.users.TopVolunteers(ctx, 5)
	if err != nil {
		return nil, wrap(err, "failed to list top volunteers")
	}
	coordinators, err := s.users.CountStudentsByTeamRole(ctx, models.TeamRoleCoordinator)
	if err != nil {
		return nil, wrap(err, "failed to count coordinators")
	}
	coreTeam, err := s.users.CountStudentsByTeamRole(ctx, models.TeamRoleCoreTeam)
	if err != nil {
		return nil, wrap(err, "failed to count core team")
	}
	volunteers, err := s.users.CountStudentsByTeamRole(ctx, models.TeamRoleVolunteer)
	if err != nil {
		return nil, wrap(err, "failed to count volunteers")
	}
	eligible, err := s.users.CountEligibleForFinalCertificate(ctx, s.minHours)
	if err != nil {
		return nil, wrap(err, "failed to count eligible students")
	}

	return &models.DashboardStats{
		TotalEvents:            totalEvents,
		UpcomingEvents:         upcoming,
		TotalStudents:          totalStudents,
		ApprovedParticipations: approved,
		TotalHours:             totalHours,
		TopVolunteers:          topVolunteers,
		Team: models.TeamCounts{
			Coordinators: coordinators,
			CoreTeam:     coreTeam,
			Volunteers:   volunteers,
		},
		EligibleForCertificate: eligible,
	}, nil
}

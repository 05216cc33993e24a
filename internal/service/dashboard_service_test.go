package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/nss-vignan/nss-portal-api/internal/models"
	appErrors "github.com/nss-vignan/nss-portal-api/pkg/errors"
)

type mockDashboardUsers struct {
	calls int
}

func (m *mockDashboardUsers) CountStudents(ctx context.Context) (int, error) {
	m.calls++
	return 120, nil
}

func (m *mockDashboardUsers) CountStudentsByTeamRole(ctx context.Context, teamRole models.TeamRole) (int, error) {
	switch teamRole {
	case models.TeamRoleCoordinator:
		return 4, nil
	case models.TeamRoleCoreTeam:
		return 16, nil
	default:
		return 100, nil
	}
}

func (m *mockDashboardUsers) CountEligibleForFinalCertificate(ctx context.Context, minHours float64) (int, error) {
	return 9, nil
}

func (m *mockDashboardUsers) SumStudentHours(ctx context.Context) (float64, error) {
	return 1840.5, nil
}

func (m *mockDashboardUsers) TopVolunteers(ctx context.Context, limit int) ([]models.TopVolunteer, error) {
	return []models.TopVolunteer{{ID: "s1", Name: "Asha", TotalHours: 92}}, nil
}

type mockDashboardEvents struct{}

func (mockDashboardEvents) CountAll(ctx context.Context) (int, error) { return 32, nil }

func (mockDashboardEvents) CountByStatus(ctx context.Context, status models.EventStatus) (int, error) {
	return 5, nil
}

type mockDashboardParticipations struct{}

func (mockDashboardParticipations) CountByStatus(ctx context.Context, status models.ParticipationStatus) (int, error) {
	return 240, nil
}

type mockStatsCache struct {
	stored  *models.DashboardStats
	hit     *models.DashboardStats
	deleted []string
}

func (m *mockStatsCache) Get(ctx context.Context, key string, dest interface{}) error {
	if m.hit == nil {
		return appErrors.ErrCacheMiss
	}
	*dest.(*models.DashboardStats) = *m.hit
	return nil
}

func (m *mockStatsCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	m.stored = value.(*models.DashboardStats)
	return nil
}

func (m *mockStatsCache) Delete(ctx context.Context, key string) error {
	m.deleted = append(m.deleted, key)
	return nil
}

func newDashboardFixture(cache *mockStatsCache) (*DashboardService, *mockDashboardUsers) {
	users := &mockDashboardUsers{}
	svc := NewDashboardService(users, mockDashboardEvents{}, mockDashboardParticipations{}, cache, time.Minute, 60, zap.NewNop())
	return svc, users
}

func TestDashboardServiceStatsComputesAndCaches(t *testing.T) {
	cache := &mockStatsCache{}
	svc, _ := newDashboardFixture(cache)

	stats, err := svc.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 32, stats.TotalEvents)
	assert.Equal(t, 120, stats.TotalStudents)
	assert.Equal(t, 240, stats.ApprovedParticipations)
	assert.Equal(t, 1840.5, stats.TotalHours)
	assert.Equal(t, 4, stats.Team.Coordinators)
	assert.Equal(t, 16, stats.Team.CoreTeam)
	assert.Equal(t, 9, stats.EligibleForCertificate)
	require.Len(t, stats.TopVolunteers, 1)
	require.NotNil(t, cache.stored)
	assert.Equal(t, stats, cache.stored)
}

func TestDashboardServiceStatsServesFromCache(t *testing.T) {
	cache := &mockStatsCache{hit: &models.DashboardStats{TotalEvents: 7}}
	svc, users := newDashboardFixture(cache)

	stats, err := svc.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 7, stats.TotalEvents)
	assert.Zero(t, users.calls)
}

func TestDashboardServiceInvalidate(t *testing.T) {
	cache := &mockStatsCache{}
	svc, _ := newDashboardFixture(cache)

	svc.Invalidate(context.Background())
	assert.Equal(t, []string{dashboardCacheKey}, cache.deleted)
}

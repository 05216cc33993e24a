package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/nss-vignan/nss-portal-api/internal/models"
	"github.com/nss-vignan/nss-portal-api/internal/service"
)

type fakeDashboardUsers struct{}

func (fakeDashboardUsers) CountStudents(ctx context.Context) (int, error) { return 50, nil }

func (fakeDashboardUsers) CountStudentsByTeamRole(ctx context.Context, teamRole models.TeamRole) (int, error) {
	return 10, nil
}

func (fakeDashboardUsers) CountEligibleForFinalCertificate(ctx context.Context, minHours float64) (int, error) {
	return 3, nil
}

func (fakeDashboardUsers) SumStudentHours(ctx context.Context) (float64, error) { return 400, nil }

func (fakeDashboardUsers) TopVolunteers(ctx context.Context, limit int) ([]models.TopVolunteer, error) {
	return nil, nil
}

type fakeDashboardEvents struct {
	countErr error
}

func (f fakeDashboardEvents) CountAll(ctx context.Context) (int, error) {
	return 12, f.countErr
}

func (f fakeDashboardEvents) CountByStatus(ctx context.Context, status models.EventStatus) (int, error) {
	return 2, nil
}

type fakeDashboardParticipations struct{}

func (fakeDashboardParticipations) CountByStatus(ctx context.Context, status models.ParticipationStatus) (int, error) {
	return 30, nil
}

func newDashboardTestHandler(events fakeDashboardEvents) *DashboardHandler {
	svc := service.NewDashboardService(fakeDashboardUsers{}, events, fakeDashboardParticipations{}, nil, 0, 60, zap.NewNop())
	return NewDashboardHandler(svc)
}

func TestDashboardHandlerStats(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newDashboardTestHandler(fakeDashboardEvents{})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/dashboard/stats", nil)

	handler.Stats(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	var envelope struct {
		Data models.DashboardStats `json:"data"`
	}
	_ = json.Unmarshal(rec.Body.Bytes(), &envelope)
	assert.Equal(t, 12, envelope.Data.TotalEvents)
	assert.Equal(t, 50, envelope.Data.TotalStudents)
	assert.Equal(t, 400.0, envelope.Data.TotalHours)
}

func TestDashboardHandlerStatsError(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newDashboardTestHandler(fakeDashboardEvents{countErr: errors.New("db down")})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/dashboard/stats", nil)

	handler.Stats(c)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

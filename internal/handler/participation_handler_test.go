package handler

import (
	"bytes"
	"context"
	"database/sql"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/nss-vignan/nss-portal-api/internal/middleware"
	"github.com/nss-vignan/nss-portal-api/internal/models"
	"github.com/nss-vignan/nss-portal-api/internal/service"
	"github.com/nss-vignan/nss-portal-api/pkg/storage"
)

type fakeParticipationRepo struct {
	participation models.Participation
	reportPhotos  []string
}

func (f *fakeParticipationRepo) List(ctx context.Context, filter models.ParticipationFilter) ([]models.ParticipationDetail, int, error) {
	return nil, 0, nil
}

func (f *fakeParticipationRepo) FindByID(ctx context.Context, id string) (*models.Participation, error) {
	if id == f.participation.ID {
		p := f.participation
		return &p, nil
	}
	return nil, sql.ErrNoRows
}

func (f *fakeParticipationRepo) FindDetailByID(ctx context.Context, id string) (*models.ParticipationDetail, error) {
	return &models.ParticipationDetail{Participation: f.participation}, nil
}

func (f *fakeParticipationRepo) FindByStudentAndEvent(ctx context.Context, studentID, eventID string) (*models.Participation, error) {
	return nil, sql.ErrNoRows
}

func (f *fakeParticipationRepo) Create(ctx context.Context, participation *models.Participation) error {
	return nil
}

func (f *fakeParticipationRepo) Delete(ctx context.Context, id string) error { return nil }

func (f *fakeParticipationRepo) UpdateReport(ctx context.Context, id, reportText, feedback string, photos []string) error {
	f.reportPhotos = photos
	f.participation.ReportText = reportText
	f.participation.Status = models.ParticipationAttended
	return nil
}

func (f *fakeParticipationRepo) UpdateDecision(ctx context.Context, id string, status models.ParticipationStatus, hours float64, feedback, reviewerID string, at time.Time) error {
	return nil
}

type fakeParticipationEvents struct {
	event models.Event
}

func (f fakeParticipationEvents) FindByID(ctx context.Context, id string) (*models.Event, error) {
	e := f.event
	return &e, nil
}

func (f fakeParticipationEvents) CountRegistrations(ctx context.Context, eventID string) (int, error) {
	return 0, nil
}

type fakeParticipationUsers struct{}

func (fakeParticipationUsers) FindByID(ctx context.Context, id string) (*models.User, error) {
	return &models.User{ID: id}, nil
}

func (fakeParticipationUsers) IncrementTotalHours(ctx context.Context, id string, delta float64) error {
	return nil
}

func (fakeParticipationUsers) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	return nil
}

func newReportTestContext(t *testing.T, rec *httptest.ResponseRecorder, photos ...string) *gin.Context {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	require.NoError(t, writer.WriteField("report_text", "Planted 40 saplings"))
	for _, name := range photos {
		part, err := writer.CreateFormFile("photos", name)
		require.NoError(t, err)
		_, err = part.Write([]byte("jpeg-bytes"))
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())

	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPut, "/participations/p1/report", body)
	c.Request.Header.Set("Content-Type", writer.FormDataContentType())
	c.Params = gin.Params{{Key: "id", Value: "p1"}}
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "s1", Role: models.RoleStudent})
	return c
}

func newReportTestHandler(repo *fakeParticipationRepo, store *storage.LocalStorage) *ParticipationHandler {
	events := fakeParticipationEvents{event: models.Event{
		ID:     "e1",
		Title:  "Blood Donation Camp",
		Date:   time.Date(2024, time.March, 10, 6, 0, 0, 0, time.UTC),
		Status: models.EventStatusCompleted,
	}}
	svc := service.NewParticipationService(repo, events, fakeParticipationUsers{}, nil, validator.New(), zap.NewNop())
	return NewParticipationHandler(svc, store, zap.NewNop())
}

func TestParticipationHandlerSubmitReportWithPhotos(t *testing.T) {
	gin.SetMode(gin.TestMode)
	store, err := storage.NewLocalStorage(t.TempDir(), "/uploads")
	require.NoError(t, err)
	repo := &fakeParticipationRepo{participation: models.Participation{
		ID: "p1", StudentID: "s1", EventID: "e1", Status: models.ParticipationPending,
	}}
	handler := newReportTestHandler(repo, store)

	rec := httptest.NewRecorder()
	handler.SubmitReport(newReportTestContext(t, rec, "camp.jpg"))

	assert.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, repo.reportPhotos, 1)
	assert.Contains(t, repo.reportPhotos[0], "/uploads/")
}

func TestParticipationHandlerSubmitReportPhotoStoreUnavailable(t *testing.T) {
	gin.SetMode(gin.TestMode)
	repo := &fakeParticipationRepo{participation: models.Participation{
		ID: "p1", StudentID: "s1", EventID: "e1", Status: models.ParticipationPending,
	}}
	handler := newReportTestHandler(repo, nil)

	rec := httptest.NewRecorder()
	handler.SubmitReport(newReportTestContext(t, rec, "camp.jpg", "group.jpg"))

	// Photos that cannot be stored are dropped; the report still lands.
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, repo.reportPhotos)
	assert.Equal(t, "Planted 40 saplings", repo.participation.ReportText)
}

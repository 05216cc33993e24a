package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/nss-vignan/nss-portal-api/internal/models"
	appErrors "github.com/nss-vignan/nss-portal-api/pkg/errors"
)

type mockParticipationRepo struct {
	participations map[string]models.Participation
	created        *models.Participation
	createErr      error
	deleted        []string
	reports        map[string]string
	decisions      map[string]models.ParticipationStatus
	decisionHours  map[string]float64
}

func (m *mockParticipationRepo) key(studentID, eventID string) string {
	return studentID + "/" + eventID
}

func (m *mockParticipationRepo) List(ctx context.Context, filter models.ParticipationFilter) ([]models.ParticipationDetail, int, error) {
	return nil, 0, nil
}

func (m *mockParticipationRepo) FindByID(ctx context.Context, id string) (*models.Participation, error) {
	if p, ok := m.participations[id]; ok {
		return &p, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockParticipationRepo) FindDetailByID(ctx context.Context, id string) (*models.ParticipationDetail, error) {
	if p, ok := m.participations[id]; ok {
		return &models.ParticipationDetail{Participation: p}, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockParticipationRepo) FindByStudentAndEvent(ctx context.Context, studentID, eventID string) (*models.Participation, error) {
	for _, p := range m.participations {
		if p.StudentID == studentID && p.EventID == eventID {
			return &p, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockParticipationRepo) Create(ctx context.Context, participation *models.Participation) error {
	if m.createErr != nil {
		return m.createErr
	}
	if m.participations == nil {
		m.participations = make(map[string]models.Participation)
	}
	if participation.ID == "" {
		participation.ID = "new-participation"
	}
	m.participations[participation.ID] = *participation
	m.created = participation
	return nil
}

func (m *mockParticipationRepo) Delete(ctx context.Context, id string) error {
	delete(m.participations, id)
	m.deleted = append(m.deleted, id)
	return nil
}

func (m *mockParticipationRepo) UpdateReport(ctx context.Context, id, reportText, feedback string, photos []string) error {
	if m.reports == nil {
		m.reports = make(map[string]string)
	}
	m.reports[id] = reportText
	if p, ok := m.participations[id]; ok {
		p.ReportText = reportText
		p.Status = models.ParticipationAttended
		m.participations[id] = p
	}
	return nil
}

func (m *mockParticipationRepo) UpdateDecision(ctx context.Context, id string, status models.ParticipationStatus, hours float64, feedback, reviewerID string, at time.Time) error {
	if m.decisions == nil {
		m.decisions = make(map[string]models.ParticipationStatus)
		m.decisionHours = make(map[string]float64)
	}
	m.decisions[id] = status
	m.decisionHours[id] = hours
	if p, ok := m.participations[id]; ok {
		p.Status = status
		p.HoursContributed = hours
		m.participations[id] = p
	}
	return nil
}

type mockEventReader struct {
	events   map[string]models.Event
	regCount int
}

func (m *mockEventReader) FindByID(ctx context.Context, id string) (*models.Event, error) {
	if e, ok := m.events[id]; ok {
		return &e, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockEventReader) CountRegistrations(ctx context.Context, eventID string) (int, error) {
	return m.regCount, nil
}

type mockUserStore struct {
	users      map[string]models.User
	hourDeltas map[string]float64
	audits     []string
}

func (m *mockUserStore) FindByID(ctx context.Context, id string) (*models.User, error) {
	if u, ok := m.users[id]; ok {
		return &u, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockUserStore) IncrementTotalHours(ctx context.Context, id string, delta float64) error {
	if m.hourDeltas == nil {
		m.hourDeltas = make(map[string]float64)
	}
	m.hourDeltas[id] += delta
	return nil
}

func (m *mockUserStore) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	m.audits = append(m.audits, log.Action)
	return nil
}

type mockDecisionNotifier struct {
	statuses []models.ParticipationStatus
	hours    []float64
}

func (m *mockDecisionNotifier) NotifyDecision(student *models.User, eventTitle string, status models.ParticipationStatus, hours float64) {
	m.statuses = append(m.statuses, status)
	m.hours = append(m.hours, hours)
}

func fixedNow() time.Time {
	return time.Date(2024, time.March, 11, 10, 0, 0, 0, time.UTC)
}

func newParticipationFixture(repo *mockParticipationRepo, events *mockEventReader, users *mockUserStore, notifier *mockDecisionNotifier) *ParticipationService {
	var n decisionNotifier
	if notifier != nil {
		n = notifier
	}
	svc := NewParticipationService(repo, events, users, n, validator.New(), zap.NewNop())
	svc.now = fixedNow
	return svc
}

func futureEvent() models.Event {
	return models.Event{
		ID:     "e-future",
		Title:  "Tree Plantation Drive",
		Date:   time.Date(2024, time.March, 12, 6, 0, 0, 0, time.UTC),
		Hours:  4,
		Status: models.EventStatusUpcoming,
	}
}

func pastEvent() models.Event {
	return models.Event{
		ID:     "e-past",
		Title:  "Blood Donation Camp",
		Date:   time.Date(2024, time.March, 10, 6, 0, 0, 0, time.UTC),
		Hours:  6,
		Status: models.EventStatusCompleted,
	}
}

func TestParticipationServiceRegister(t *testing.T) {
	repo := &mockParticipationRepo{}
	events := &mockEventReader{events: map[string]models.Event{"e-future": futureEvent()}}
	users := &mockUserStore{}
	svc := newParticipationFixture(repo, events, users, nil)

	participation, err := svc.Register(context.Background(), "s1", "e-future")
	require.NoError(t, err)
	assert.Equal(t, models.ParticipationPending, participation.Status)
	assert.Equal(t, "s1", participation.StudentID)
	assert.Contains(t, users.audits, models.AuditActionParticipationJoin)
}

func TestParticipationServiceRegisterDuplicate(t *testing.T) {
	repo := &mockParticipationRepo{participations: map[string]models.Participation{
		"p1": {ID: "p1", StudentID: "s1", EventID: "e-future", Status: models.ParticipationPending},
	}}
	events := &mockEventReader{events: map[string]models.Event{"e-future": futureEvent()}}
	svc := newParticipationFixture(repo, events, &mockUserStore{}, nil)

	_, err := svc.Register(context.Background(), "s1", "e-future")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestParticipationServiceRegisterPastEvent(t *testing.T) {
	events := &mockEventReader{events: map[string]models.Event{"e-past": pastEvent()}}
	svc := newParticipationFixture(&mockParticipationRepo{}, events, &mockUserStore{}, nil)

	_, err := svc.Register(context.Background(), "s1", "e-past")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidState.Code, appErrors.FromError(err).Code)
}

func TestParticipationServiceRegisterConcurrentDuplicate(t *testing.T) {
	repo := &mockParticipationRepo{createErr: &pq.Error{Code: pqUniqueViolation}}
	events := &mockEventReader{events: map[string]models.Event{"e-future": futureEvent()}}
	svc := newParticipationFixture(repo, events, &mockUserStore{}, nil)

	// The duplicate lookup saw nothing, the unique constraint caught it.
	_, err := svc.Register(context.Background(), "s1", "e-future")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestParticipationServiceRegisterCancelledEvent(t *testing.T) {
	event := futureEvent()
	event.Status = models.EventStatusCancelled
	events := &mockEventReader{events: map[string]models.Event{"e-future": event}}
	svc := newParticipationFixture(&mockParticipationRepo{}, events, &mockUserStore{}, nil)

	_, err := svc.Register(context.Background(), "s1", "e-future")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidState.Code, appErrors.FromError(err).Code)
}

func TestParticipationServiceRegisterDeadlinePassed(t *testing.T) {
	event := futureEvent()
	deadline := fixedNow().Add(-time.Hour)
	event.RegistrationDeadline = &deadline
	events := &mockEventReader{events: map[string]models.Event{"e-future": event}}
	svc := newParticipationFixture(&mockParticipationRepo{}, events, &mockUserStore{}, nil)

	_, err := svc.Register(context.Background(), "s1", "e-future")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestParticipationServiceRegisterEventFull(t *testing.T) {
	event := futureEvent()
	capacity := 2
	event.MaxParticipants = &capacity
	events := &mockEventReader{events: map[string]models.Event{"e-future": event}, regCount: 2}
	svc := newParticipationFixture(&mockParticipationRepo{}, events, &mockUserStore{}, nil)

	_, err := svc.Register(context.Background(), "s1", "e-future")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestParticipationServiceMarkAttended(t *testing.T) {
	events := &mockEventReader{events: map[string]models.Event{"e-past": pastEvent(), "e-future": futureEvent()}}
	repo := &mockParticipationRepo{}
	users := &mockUserStore{}
	svc := newParticipationFixture(repo, events, users, nil)

	_, err := svc.MarkAttended(context.Background(), "s1", "e-future")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidState.Code, appErrors.FromError(err).Code)

	participation, err := svc.MarkAttended(context.Background(), "s1", "e-past")
	require.NoError(t, err)
	assert.Equal(t, models.ParticipationPending, participation.Status)
	assert.Contains(t, users.audits, models.AuditActionParticipationAttend)
	assert.NotContains(t, users.audits, models.AuditActionParticipationJoin)
}

func TestParticipationServiceCancel(t *testing.T) {
	repo := &mockParticipationRepo{participations: map[string]models.Participation{
		"p1": {ID: "p1", StudentID: "s1", EventID: "e-future", Status: models.ParticipationPending},
	}}
	events := &mockEventReader{events: map[string]models.Event{"e-future": futureEvent()}}
	svc := newParticipationFixture(repo, events, &mockUserStore{}, nil)

	err := svc.Cancel(context.Background(), "s1", "e-future")
	require.NoError(t, err)
	assert.Contains(t, repo.deleted, "p1")

	// The record is gone, re-registering is allowed again.
	_, err = svc.Register(context.Background(), "s1", "e-future")
	require.NoError(t, err)
}

func TestParticipationServiceCancelProcessed(t *testing.T) {
	repo := &mockParticipationRepo{participations: map[string]models.Participation{
		"p1": {ID: "p1", StudentID: "s1", EventID: "e-future", Status: models.ParticipationApproved},
	}}
	events := &mockEventReader{events: map[string]models.Event{"e-future": futureEvent()}}
	svc := newParticipationFixture(repo, events, &mockUserStore{}, nil)

	err := svc.Cancel(context.Background(), "s1", "e-future")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidState.Code, appErrors.FromError(err).Code)
}

func TestParticipationServiceCancelPastEvent(t *testing.T) {
	repo := &mockParticipationRepo{participations: map[string]models.Participation{
		"p1": {ID: "p1", StudentID: "s1", EventID: "e-past", Status: models.ParticipationPending},
	}}
	events := &mockEventReader{events: map[string]models.Event{"e-past": pastEvent()}}
	svc := newParticipationFixture(repo, events, &mockUserStore{}, nil)

	err := svc.Cancel(context.Background(), "s1", "e-past")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidState.Code, appErrors.FromError(err).Code)
}

func TestParticipationServiceSubmitReport(t *testing.T) {
	repo := &mockParticipationRepo{participations: map[string]models.Participation{
		"p1": {ID: "p1", StudentID: "s1", EventID: "e-past", Status: models.ParticipationPending},
	}}
	events := &mockEventReader{events: map[string]models.Event{"e-past": pastEvent()}}
	svc := newParticipationFixture(repo, events, &mockUserStore{}, nil)

	updated, err := svc.SubmitReport(context.Background(), "s1", "p1", models.SubmitReportRequest{ReportText: "Planted 40 saplings"})
	require.NoError(t, err)
	assert.Equal(t, models.ParticipationAttended, updated.Status)
	assert.Equal(t, "Planted 40 saplings", repo.reports["p1"])
}

func TestParticipationServiceSubmitReportNotOwner(t *testing.T) {
	repo := &mockParticipationRepo{participations: map[string]models.Participation{
		"p1": {ID: "p1", StudentID: "s1", EventID: "e-past", Status: models.ParticipationPending},
	}}
	events := &mockEventReader{events: map[string]models.Event{"e-past": pastEvent()}}
	svc := newParticipationFixture(repo, events, &mockUserStore{}, nil)

	_, err := svc.SubmitReport(context.Background(), "s2", "p1", models.SubmitReportRequest{ReportText: "text"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestParticipationServiceSubmitReportAlreadyReviewed(t *testing.T) {
	repo := &mockParticipationRepo{participations: map[string]models.Participation{
		"p1": {ID: "p1", StudentID: "s1", EventID: "e-past", Status: models.ParticipationApproved},
	}}
	events := &mockEventReader{events: map[string]models.Event{"e-past": pastEvent()}}
	svc := newParticipationFixture(repo, events, &mockUserStore{}, nil)

	_, err := svc.SubmitReport(context.Background(), "s1", "p1", models.SubmitReportRequest{ReportText: "text"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidState.Code, appErrors.FromError(err).Code)
}

func TestParticipationServiceSubmitReportBeforeEvent(t *testing.T) {
	repo := &mockParticipationRepo{participations: map[string]models.Participation{
		"p1": {ID: "p1", StudentID: "s1", EventID: "e-future", Status: models.ParticipationPending},
	}}
	events := &mockEventReader{events: map[string]models.Event{"e-future": futureEvent()}}
	svc := newParticipationFixture(repo, events, &mockUserStore{}, nil)

	_, err := svc.SubmitReport(context.Background(), "s1", "p1", models.SubmitReportRequest{ReportText: "text"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidState.Code, appErrors.FromError(err).Code)
}

func TestParticipationServiceReviewApprove(t *testing.T) {
	repo := &mockParticipationRepo{participations: map[string]models.Participation{
		"p1": {ID: "p1", StudentID: "s1", EventID: "e-past", Status: models.ParticipationAttended},
	}}
	events := &mockEventReader{events: map[string]models.Event{"e-past": pastEvent()}}
	users := &mockUserStore{users: map[string]models.User{"s1": {ID: "s1", Name: "Asha", Email: "asha@vignan.ac.in"}}}
	notifier := &mockDecisionNotifier{}
	svc := newParticipationFixture(repo, events, users, notifier)

	detail, err := svc.Review(context.Background(), "f1", "p1", models.ReviewRequest{Approve: true, Hours: 6})
	require.NoError(t, err)
	assert.Equal(t, models.ParticipationApproved, detail.Status)
	assert.Equal(t, 6.0, detail.HoursContributed)
	assert.Equal(t, 6.0, users.hourDeltas["s1"])
	require.Len(t, notifier.statuses, 1)
	assert.Equal(t, models.ParticipationApproved, notifier.statuses[0])
}

func TestParticipationServiceReviewApproveWithoutHours(t *testing.T) {
	repo := &mockParticipationRepo{participations: map[string]models.Participation{
		"p1": {ID: "p1", StudentID: "s1", EventID: "e-past", Status: models.ParticipationAttended},
	}}
	events := &mockEventReader{events: map[string]models.Event{"e-past": pastEvent()}}
	users := &mockUserStore{}
	svc := newParticipationFixture(repo, events, users, nil)

	// An approval must state the credited hours explicitly.
	_, err := svc.Review(context.Background(), "f1", "p1", models.ReviewRequest{Approve: true})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	assert.Empty(t, repo.decisions)
	assert.Empty(t, users.hourDeltas)
}

func TestParticipationServiceReviewBeforeEventEnds(t *testing.T) {
	repo := &mockParticipationRepo{participations: map[string]models.Participation{
		"p1": {ID: "p1", StudentID: "s1", EventID: "e-future", Status: models.ParticipationAttended},
	}}
	events := &mockEventReader{events: map[string]models.Event{"e-future": futureEvent()}}
	svc := newParticipationFixture(repo, events, &mockUserStore{}, nil)

	_, err := svc.Review(context.Background(), "f1", "p1", models.ReviewRequest{Approve: true})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidState.Code, appErrors.FromError(err).Code)
}

func TestParticipationServiceReviewMultiDayEvent(t *testing.T) {
	event := pastEvent()
	end := time.Date(2024, time.March, 12, 18, 0, 0, 0, time.UTC)
	event.EndDate = &end
	repo := &mockParticipationRepo{participations: map[string]models.Participation{
		"p1": {ID: "p1", StudentID: "s1", EventID: "e-past", Status: models.ParticipationAttended},
	}}
	events := &mockEventReader{events: map[string]models.Event{"e-past": event}}
	svc := newParticipationFixture(repo, events, &mockUserStore{}, nil)

	// Started in the past but still running until March 12.
	_, err := svc.Review(context.Background(), "f1", "p1", models.ReviewRequest{Approve: true})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidState.Code, appErrors.FromError(err).Code)
}

func TestParticipationServiceReviewAdjustsLedgerOnReReview(t *testing.T) {
	repo := &mockParticipationRepo{participations: map[string]models.Participation{
		"p1": {ID: "p1", StudentID: "s1", EventID: "e-past", Status: models.ParticipationApproved, HoursContributed: 6},
	}}
	events := &mockEventReader{events: map[string]models.Event{"e-past": pastEvent()}}
	users := &mockUserStore{users: map[string]models.User{"s1": {ID: "s1"}}}
	svc := newParticipationFixture(repo, events, users, nil)

	detail, err := svc.Review(context.Background(), "f1", "p1", models.ReviewRequest{Approve: true, Hours: 4})
	require.NoError(t, err)
	assert.Equal(t, 4.0, detail.HoursContributed)
	// Previously credited 6, now 4. The ledger moves by the difference only.
	assert.Equal(t, -2.0, users.hourDeltas["s1"])
}

func TestParticipationServiceReviewRejectRemovesCredit(t *testing.T) {
	repo := &mockParticipationRepo{participations: map[string]models.Participation{
		"p1": {ID: "p1", StudentID: "s1", EventID: "e-past", Status: models.ParticipationApproved, HoursContributed: 6},
	}}
	events := &mockEventReader{events: map[string]models.Event{"e-past": pastEvent()}}
	users := &mockUserStore{users: map[string]models.User{"s1": {ID: "s1"}}}
	svc := newParticipationFixture(repo, events, users, nil)

	detail, err := svc.Review(context.Background(), "f1", "p1", models.ReviewRequest{Approve: false, Feedback: "report incomplete"})
	require.NoError(t, err)
	assert.Equal(t, models.ParticipationRejected, detail.Status)
	assert.Equal(t, -6.0, users.hourDeltas["s1"])
}

func TestParticipationServiceReviewRejectPendingNoLedgerChange(t *testing.T) {
	repo := &mockParticipationRepo{participations: map[string]models.Participation{
		"p1": {ID: "p1", StudentID: "s1", EventID: "e-past", Status: models.ParticipationAttended},
	}}
	events := &mockEventReader{events: map[string]models.Event{"e-past": pastEvent()}}
	users := &mockUserStore{}
	svc := newParticipationFixture(repo, events, users, nil)

	_, err := svc.Review(context.Background(), "f1", "p1", models.ReviewRequest{Approve: false})
	require.NoError(t, err)
	assert.Empty(t, users.hourDeltas)
}

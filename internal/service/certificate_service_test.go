package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/nss-vignan/nss-portal-api/internal/models"
	appErrors "github.com/nss-vignan/nss-portal-api/pkg/errors"
	"github.com/nss-vignan/nss-portal-api/pkg/export"
)

type mockCertUserStore struct {
	users     map[string]models.User
	eligible  []string
	generated []string
	audits    []string
}

func (m *mockCertUserStore) FindByID(ctx context.Context, id string) (*models.User, error) {
	if u, ok := m.users[id]; ok {
		return &u, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockCertUserStore) ListEligibleForFinalCertificate(ctx context.Context, minHours float64) ([]models.User, error) {
	var list []models.User
	for _, u := range m.users {
		if u.TotalHours >= minHours && !u.FinalCertificateGenerated {
			list = append(list, u)
		}
	}
	return list, nil
}

func (m *mockCertUserStore) MarkEligible(ctx context.Context, id string, rating models.PerformanceRating, remarks string) error {
	m.eligible = append(m.eligible, id)
	if u, ok := m.users[id]; ok {
		u.FinalCertificateEligible = true
		u.PerformanceRating = &rating
		m.users[id] = u
	}
	return nil
}

func (m *mockCertUserStore) MarkFinalCertificateGenerated(ctx context.Context, id, generatedBy string, at time.Time) error {
	m.generated = append(m.generated, id)
	return nil
}

func (m *mockCertUserStore) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	m.audits = append(m.audits, log.Action)
	return nil
}

type mockCertParticipationStore struct {
	details  map[string]models.ParticipationDetail
	approved map[string][]models.ParticipationDetail
	issued   []string
}

func (m *mockCertParticipationStore) FindDetailByID(ctx context.Context, id string) (*models.ParticipationDetail, error) {
	if d, ok := m.details[id]; ok {
		return &d, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockCertParticipationStore) MarkCertificateIssued(ctx context.Context, id string) error {
	m.issued = append(m.issued, id)
	return nil
}

func (m *mockCertParticipationStore) ListApprovedByStudent(ctx context.Context, studentID string) ([]models.ParticipationDetail, error) {
	return m.approved[studentID], nil
}

type fakeRenderer struct{}

func (fakeRenderer) RenderParticipation(data export.ParticipationCertificate) ([]byte, error) {
	return []byte("%PDF participation"), nil
}

func (fakeRenderer) RenderCompletion(data export.CompletionCertificate) ([]byte, error) {
	return []byte("%PDF completion"), nil
}

func newCertificateFixture(users *mockCertUserStore, participations *mockCertParticipationStore) *CertificateService {
	cfg := CertificateConfig{Institution: "Vignan University", Unit: "National Service Scheme", MinHours: 60}
	return NewCertificateService(users, participations, fakeRenderer{}, cfg, validator.New(), zap.NewNop())
}

func studentClaims(id string) *models.JWTClaims {
	return &models.JWTClaims{UserID: id, Role: models.RoleStudent}
}

func adminClaims() *models.JWTClaims {
	return &models.JWTClaims{UserID: "admin-1", Role: models.RoleAdmin}
}

func TestCertificateServiceGenerateParticipation(t *testing.T) {
	participations := &mockCertParticipationStore{details: map[string]models.ParticipationDetail{
		"p1": {
			Participation: models.Participation{ID: "p1", StudentID: "s1", Status: models.ParticipationApproved, HoursContributed: 6},
			StudentName:   "Asha",
			EventTitle:    "Blood Donation Camp",
		},
	}}
	svc := newCertificateFixture(&mockCertUserStore{}, participations)

	pdf, filename, err := svc.GenerateParticipation(context.Background(), studentClaims("s1"), "p1")
	require.NoError(t, err)
	assert.NotEmpty(t, pdf)
	assert.Equal(t, "NSS-Certificate-p1.pdf", filename)
	assert.Contains(t, participations.issued, "p1")
}

func TestCertificateServiceGenerateParticipationNotApproved(t *testing.T) {
	participations := &mockCertParticipationStore{details: map[string]models.ParticipationDetail{
		"p1": {Participation: models.Participation{ID: "p1", StudentID: "s1", Status: models.ParticipationPending}},
	}}
	svc := newCertificateFixture(&mockCertUserStore{}, participations)

	_, _, err := svc.GenerateParticipation(context.Background(), studentClaims("s1"), "p1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidState.Code, appErrors.FromError(err).Code)
}

func TestCertificateServiceGenerateParticipationNotOwner(t *testing.T) {
	participations := &mockCertParticipationStore{details: map[string]models.ParticipationDetail{
		"p1": {Participation: models.Participation{ID: "p1", StudentID: "s1", Status: models.ParticipationApproved}},
	}}
	svc := newCertificateFixture(&mockCertUserStore{}, participations)

	_, _, err := svc.GenerateParticipation(context.Background(), studentClaims("s2"), "p1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)

	// Staff can fetch any student's certificate.
	_, _, err = svc.GenerateParticipation(context.Background(), adminClaims(), "p1")
	require.NoError(t, err)
}

func TestCertificateServiceMarkEligible(t *testing.T) {
	users := &mockCertUserStore{users: map[string]models.User{
		"s1": {ID: "s1", Name: "Asha", TotalHours: 72},
	}}
	svc := newCertificateFixture(users, &mockCertParticipationStore{})

	updated, err := svc.MarkEligible(context.Background(), "admin-1", "s1", models.MarkEligibleRequest{PerformanceRating: models.RatingExcellent})
	require.NoError(t, err)
	assert.True(t, updated.FinalCertificateEligible)
	assert.Contains(t, users.audits, models.AuditActionMarkEligible)
}

func TestCertificateServiceMarkEligibleBelowThreshold(t *testing.T) {
	users := &mockCertUserStore{users: map[string]models.User{
		"s1": {ID: "s1", TotalHours: 40},
	}}
	svc := newCertificateFixture(users, &mockCertParticipationStore{})

	_, err := svc.MarkEligible(context.Background(), "admin-1", "s1", models.MarkEligibleRequest{PerformanceRating: models.RatingGood})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidState.Code, appErrors.FromError(err).Code)
}

func TestCertificateServiceMarkEligibleAlreadyGenerated(t *testing.T) {
	users := &mockCertUserStore{users: map[string]models.User{
		"s1": {ID: "s1", TotalHours: 80, FinalCertificateGenerated: true},
	}}
	svc := newCertificateFixture(users, &mockCertParticipationStore{})

	_, err := svc.MarkEligible(context.Background(), "admin-1", "s1", models.MarkEligibleRequest{PerformanceRating: models.RatingGood})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidState.Code, appErrors.FromError(err).Code)
}

func TestCertificateServiceGenerateCompletion(t *testing.T) {
	// Hours past the threshold are sufficient on their own; the student has
	// not been marked eligible for the final certificate.
	roll := "20BCE1234"
	users := &mockCertUserStore{users: map[string]models.User{
		"s1": {ID: "s1", Name: "Asha", RollNumber: &roll, TotalHours: 72},
	}}
	participations := &mockCertParticipationStore{approved: map[string][]models.ParticipationDetail{
		"s1": {{}, {}, {}},
	}}
	svc := newCertificateFixture(users, participations)

	pdf, filename, err := svc.GenerateCompletion(context.Background(), studentClaims("s1"), "s1")
	require.NoError(t, err)
	assert.NotEmpty(t, pdf)
	assert.Equal(t, "NSS-Year-Completion-20BCE1234.pdf", filename)
	// Downloading the year completion certificate leaves the final
	// certificate untouched.
	assert.Empty(t, users.generated)
}

func TestCertificateServiceGenerateCompletionBelowThreshold(t *testing.T) {
	users := &mockCertUserStore{users: map[string]models.User{
		"s1": {ID: "s1", TotalHours: 30},
	}}
	svc := newCertificateFixture(users, &mockCertParticipationStore{})

	_, _, err := svc.GenerateCompletion(context.Background(), adminClaims(), "s1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidState.Code, appErrors.FromError(err).Code)
}

func TestCertificateServiceGenerateCompletionOtherStudent(t *testing.T) {
	svc := newCertificateFixture(&mockCertUserStore{}, &mockCertParticipationStore{})

	_, _, err := svc.GenerateCompletion(context.Background(), studentClaims("s2"), "s1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestCertificateServiceGenerateFinal(t *testing.T) {
	roll := "20BCE1234"
	rating := models.RatingExcellent
	users := &mockCertUserStore{users: map[string]models.User{
		"s1": {ID: "s1", Name: "Asha", RollNumber: &roll, TotalHours: 72,
			FinalCertificateEligible: true, PerformanceRating: &rating},
	}}
	participations := &mockCertParticipationStore{approved: map[string][]models.ParticipationDetail{
		"s1": {{}, {}},
	}}
	svc := newCertificateFixture(users, participations)

	pdf, filename, err := svc.GenerateFinal(context.Background(), "admin-1", "s1")
	require.NoError(t, err)
	assert.NotEmpty(t, pdf)
	assert.Equal(t, "NSS-Final-Certificate-20BCE1234.pdf", filename)
	assert.Contains(t, users.generated, "s1")
	assert.Contains(t, users.audits, models.AuditActionCertificateIssue)
}

func TestCertificateServiceGenerateFinalNotMarkedEligible(t *testing.T) {
	users := &mockCertUserStore{users: map[string]models.User{
		"s1": {ID: "s1", TotalHours: 90},
	}}
	svc := newCertificateFixture(users, &mockCertParticipationStore{})

	// Hours alone are not enough, the MarkEligible decision is missing.
	_, _, err := svc.GenerateFinal(context.Background(), "admin-1", "s1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidState.Code, appErrors.FromError(err).Code)
	assert.Empty(t, users.generated)
}

func TestCertificateServiceGenerateFinalBelowThreshold(t *testing.T) {
	users := &mockCertUserStore{users: map[string]models.User{
		"s1": {ID: "s1", TotalHours: 30, FinalCertificateEligible: true},
	}}
	svc := newCertificateFixture(users, &mockCertParticipationStore{})

	_, _, err := svc.GenerateFinal(context.Background(), "admin-1", "s1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidState.Code, appErrors.FromError(err).Code)
}

func TestCertificateServiceGenerateFinalRegenerate(t *testing.T) {
	users := &mockCertUserStore{users: map[string]models.User{
		"s1": {ID: "s1", Name: "Asha", TotalHours: 72,
			FinalCertificateEligible: true, FinalCertificateGenerated: true},
	}}
	svc := newCertificateFixture(users, &mockCertParticipationStore{})

	// Re-downloading an already issued certificate stays possible.
	pdf, _, err := svc.GenerateFinal(context.Background(), "admin-1", "s1")
	require.NoError(t, err)
	assert.NotEmpty(t, pdf)
}

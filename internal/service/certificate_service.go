package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/nss-vignan/nss-portal-api/internal/models"
	appErrors "github.com/nss-vignan/nss-portal-api/pkg/errors"
	"github.com/nss-vignan/nss-portal-api/pkg/export"
)

type certificateUserStore interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
	ListEligibleForFinalCertificate(ctx context.Context, minHours float64) ([]models.User, error)
	MarkEligible(ctx context.Context, id string, rating models.PerformanceRating, remarks string) error
	MarkFinalCertificateGenerated(ctx context.Context, id, generatedBy string, at time.Time) error
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

type certificateParticipationStore interface {
	FindDetailByID(ctx context.Context, id string) (*models.ParticipationDetail, error)
	MarkCertificateIssued(ctx context.Context, id string) error
	ListApprovedByStudent(ctx context.Context, studentID string) ([]models.ParticipationDetail, error)
}

type certificateRenderer interface {
	RenderParticipation(data export.ParticipationCertificate) ([]byte, error)
	RenderCompletion(data export.CompletionCertificate) ([]byte, error)
}

// CertificateConfig carries branding and the eligibility threshold.
type CertificateConfig struct {
	Institution string
	Unit        string
	MinHours    float64
}

// CertificateService issues event certificates, the hours-gated year
// completion certificate, and the admin-issued final certificate behind the
// MarkEligible decision.
type CertificateService struct {
	users          certificateUserStore
	participations certificateParticipationStore
	renderer       certificateRenderer
	cfg            CertificateConfig
	validator      *validator.Validate
	logger         *zap.Logger
}

// NewCertificateService constructs CertificateService.
func NewCertificateService(users certificateUserStore, participations certificateParticipationStore, renderer certificateRenderer, cfg CertificateConfig, validate *validator.Validate, logger *zap.Logger) *CertificateService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.MinHours <= 0 {
		cfg.MinHours = 60
	}
	return &CertificateService{
		users:          users,
		participations: participations,
		renderer:       renderer,
		cfg:            cfg,
		validator:      validate,
		logger:         logger,
	}
}

// GenerateParticipation renders the appreciation certificate for an approved
// participation. Students may only fetch their own.
func (s *CertificateService) GenerateParticipation(ctx context.Context, caller *models.JWTClaims, participationID string) ([]byte, string, error) {
	detail, err := s.participations.FindDetailByID(ctx, participationID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, "", appErrors.Clone(appErrors.ErrNotFound, "participation not found")
		}
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load participation")
	}
	if caller.Role == models.RoleStudent && detail.StudentID != caller.UserID {
		return nil, "", appErrors.Clone(appErrors.ErrForbidden, "not your participation")
	}
	if detail.Status != models.ParticipationApproved {
		return nil, "", appErrors.Clone(appErrors.ErrInvalidState, "participation is not approved")
	}

	data := export.ParticipationCertificate{
		CertificateID: detail.ID,
		StudentName:   detail.StudentName,
		RollNumber:    derefOrNA(detail.StudentRollNumber),
		Department:    detail.StudentDepartment,
		EventTitle:    detail.EventTitle,
		EventDate:     detail.EventDate,
		Venue:         detail.EventVenue,
		Category:      "NSS Activity",
		Hours:         detail.HoursContributed,
		Institution:   s.cfg.Institution,
		Unit:          s.cfg.Unit,
	}
	pdf, err := s.renderer.RenderParticipation(data)
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render certificate")
	}

	if err := s.participations.MarkCertificateIssued(ctx, participationID); err != nil {
		s.logger.Warn("failed to flag issued certificate", zap.String("participation_id", participationID), zap.Error(err))
	}

	filename := fmt.Sprintf("NSS-Certificate-%s.pdf", detail.ID)
	return pdf, filename, nil
}

// ListEligible returns students who cleared the hour threshold and still
// await their final certificate.
func (s *CertificateService) ListEligible(ctx context.Context) ([]models.User, error) {
	students, err := s.users.ListEligibleForFinalCertificate(ctx, s.cfg.MinHours)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list eligible students")
	}
	return students, nil
}

// MarkEligible records the admin decision that a student may receive the
// year completion certificate.
func (s *CertificateService) MarkEligible(ctx context.Context, actorID, studentID string, req models.MarkEligibleRequest) (*models.User, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid eligibility payload")
	}

	student, err := s.loadStudent(ctx, studentID)
	if err != nil {
		return nil, err
	}
	if student.TotalHours < s.cfg.MinHours {
		return nil, appErrors.Clone(appErrors.ErrInvalidState,
			fmt.Sprintf("student has not completed %g hours yet", s.cfg.MinHours))
	}
	if student.FinalCertificateGenerated {
		return nil, appErrors.Clone(appErrors.ErrInvalidState, "final certificate already generated")
	}

	if err := s.users.MarkEligible(ctx, studentID, req.PerformanceRating, req.AdminRemarks); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to mark eligible")
	}

	s.audit(ctx, actorID, models.AuditActionMarkEligible, studentID)

	updated, err := s.users.FindByID(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reload student")
	}
	return updated, nil
}

// GenerateCompletion renders the year completion certificate. Crossing the
// hour threshold is the only gate; no staff action is required.
func (s *CertificateService) GenerateCompletion(ctx context.Context, caller *models.JWTClaims, studentID string) ([]byte, string, error) {
	if caller.Role == models.RoleStudent && caller.UserID != studentID {
		return nil, "", appErrors.Clone(appErrors.ErrForbidden, "not your certificate")
	}

	student, err := s.loadStudent(ctx, studentID)
	if err != nil {
		return nil, "", err
	}
	if student.TotalHours < s.cfg.MinHours {
		return nil, "", appErrors.Clone(appErrors.ErrInvalidState,
			fmt.Sprintf("student has not completed %g hours yet", s.cfg.MinHours))
	}

	pdf, err := s.renderCompletion(ctx, student, "")
	if err != nil {
		return nil, "", err
	}

	s.audit(ctx, caller.UserID, models.AuditActionCertificateIssue, studentID)

	filename := fmt.Sprintf("NSS-Year-Completion-%s.pdf", rollOrFallback(student))
	return pdf, filename, nil
}

// GenerateFinal renders the final service certificate. It sits behind the
// two-phase gate: the hour threshold plus an explicit MarkEligible decision.
// Regeneration of an already issued certificate is allowed.
func (s *CertificateService) GenerateFinal(ctx context.Context, actorID, studentID string) ([]byte, string, error) {
	student, err := s.loadStudent(ctx, studentID)
	if err != nil {
		return nil, "", err
	}
	if student.TotalHours < s.cfg.MinHours {
		return nil, "", appErrors.Clone(appErrors.ErrInvalidState,
			fmt.Sprintf("student has not completed %g hours yet", s.cfg.MinHours))
	}
	if !student.FinalCertificateEligible {
		return nil, "", appErrors.Clone(appErrors.ErrInvalidState, "student has not been marked eligible")
	}

	rating := ""
	if student.PerformanceRating != nil {
		rating = string(*student.PerformanceRating)
	}
	pdf, err := s.renderCompletion(ctx, student, rating)
	if err != nil {
		return nil, "", err
	}

	if err := s.users.MarkFinalCertificateGenerated(ctx, studentID, actorID, time.Now().UTC()); err != nil {
		s.logger.Warn("failed to flag final certificate", zap.String("student_id", studentID), zap.Error(err))
	}

	s.audit(ctx, actorID, models.AuditActionCertificateIssue, studentID)

	filename := fmt.Sprintf("NSS-Final-Certificate-%s.pdf", rollOrFallback(student))
	return pdf, filename, nil
}

func (s *CertificateService) renderCompletion(ctx context.Context, student *models.User, rating string) ([]byte, error) {
	approved, err := s.participations.ListApprovedByStudent(ctx, student.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load participations")
	}

	data := export.CompletionCertificate{
		CertificateID:     student.ID,
		StudentName:       student.Name,
		RollNumber:        derefOrNA(student.RollNumber),
		Department:        student.Department,
		TotalHours:        student.TotalHours,
		TotalEvents:       len(approved),
		PerformanceRating: rating,
		Institution:       s.cfg.Institution,
		Unit:              s.cfg.Unit,
	}
	pdf, err := s.renderer.RenderCompletion(data)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render certificate")
	}
	return pdf, nil
}

func rollOrFallback(student *models.User) string {
	if student.RollNumber != nil && *student.RollNumber != "" {
		return *student.RollNumber
	}
	return "student"
}

func (s *CertificateService) loadStudent(ctx context.Context, studentID string) (*models.User, error) {
	student, err := s.users.FindByID(ctx, studentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	return student, nil
}

func (s *CertificateService) audit(ctx context.Context, userID, action, resourceID string) {
	if err := s.users.CreateAuditLog(ctx, &models.AuditLog{
		UserID:     &userID,
		Action:     action,
		Resource:   "certificate",
		ResourceID: &resourceID,
	}); err != nil {
		s.logger.Warn("failed to record certificate audit log", zap.Error(err))
	}
}

func derefOrNA(s *string) string {
	if s == nil || *s == "" {
		return "N/A"
	}
	return *s
}

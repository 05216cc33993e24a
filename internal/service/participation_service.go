package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/nss-vignan/nss-portal-api/internal/models"
	appErrors "github.com/nss-vignan/nss-portal-api/pkg/errors"
)

const pqUniqueViolation = "23505"

type participationRepository interface {
	List(ctx context.Context, filter models.ParticipationFilter) ([]models.ParticipationDetail, int, error)
	FindByID(ctx context.Context, id string) (*models.Participation, error)
	FindDetailByID(ctx context.Context, id string) (*models.ParticipationDetail, error)
	FindByStudentAndEvent(ctx context.Context, studentID, eventID string) (*models.Participation, error)
	Create(ctx context.Context, participation *models.Participation) error
	Delete(ctx context.Context, id string) error
	UpdateReport(ctx context.Context, id, reportText, feedback string, photos []string) error
	UpdateDecision(ctx context.Context, id string, status models.ParticipationStatus, hours float64, feedback, reviewerID string, at time.Time) error
}

type participationEventReader interface {
	FindByID(ctx context.Context, id string) (*models.Event, error)
	CountRegistrations(ctx context.Context, eventID string) (int, error)
}

type participationUserStore interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
	IncrementTotalHours(ctx context.Context, id string, delta float64) error
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

type decisionNotifier interface {
	NotifyDecision(student *models.User, eventTitle string, status models.ParticipationStatus, hours float64)
}

// ParticipationService orchestrates the volunteering lifecycle from
// registration through report review and the hour ledger.
type ParticipationService struct {
	repo      participationRepository
	events    participationEventReader
	users     participationUserStore
	notifier  decisionNotifier
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewParticipationService constructs ParticipationService.
func NewParticipationService(repo participationRepository, events participationEventReader, users participationUserStore, notifier decisionNotifier, validate *validator.Validate, logger *zap.Logger) *ParticipationService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ParticipationService{
		repo:      repo,
		events:    events,
		users:     users,
		notifier:  notifier,
		validator: validate,
		logger:    logger,
		now:       time.Now,
	}
}

// startOfDay truncates a timestamp to midnight UTC. All date comparisons in
// the lifecycle are whole-day comparisons.
func startOfDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// List returns participations with pagination metadata.
func (s *ParticipationService) List(ctx context.Context, filter models.ParticipationFilter) ([]models.ParticipationDetail, *models.Pagination, error) {
	participations, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list participations")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	pagination := &models.Pagination{Page: page, PageSize: size, TotalCount: total}
	return participations, pagination, nil
}

// CheckRegistration returns the participation linking the student to the event.
func (s *ParticipationService) CheckRegistration(ctx context.Context, studentID, eventID string) (*models.Participation, error) {
	participation, err := s.repo.FindByStudentAndEvent(ctx, studentID, eventID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "not registered for this event")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check registration")
	}
	return participation, nil
}

// Register creates a pending participation for an upcoming or ongoing event.
func (s *ParticipationService) Register(ctx context.Context, studentID, eventID string) (*models.Participation, error) {
	event, err := s.loadEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}

	today := startOfDay(s.now())
	if startOfDay(event.Date).Before(today) {
		return nil, appErrors.Clone(appErrors.ErrInvalidState, "cannot register for past events")
	}
	if event.Status.Terminal() {
		return nil, appErrors.Clone(appErrors.ErrInvalidState, "cannot register for completed or cancelled events")
	}
	if event.RegistrationDeadline != nil && s.now().UTC().After(*event.RegistrationDeadline) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "registration deadline has passed")
	}
	if event.MaxParticipants != nil {
		count, err := s.events.CountRegistrations(ctx, eventID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count registrations")
		}
		if count >= *event.MaxParticipants {
			return nil, appErrors.Clone(appErrors.ErrConflict, "event is full")
		}
	}

	return s.createPending(ctx, studentID, eventID, models.AuditActionParticipationJoin)
}

// MarkAttended creates a pending participation for a past event the student
// attended without registering beforehand.
func (s *ParticipationService) MarkAttended(ctx context.Context, studentID, eventID string) (*models.Participation, error) {
	event, err := s.loadEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}

	today := startOfDay(s.now())
	if !startOfDay(event.Date).Before(today) {
		return nil, appErrors.Clone(appErrors.ErrInvalidState, "can only mark attendance for past events")
	}

	return s.createPending(ctx, studentID, eventID, models.AuditActionParticipationAttend)
}

// Cancel removes a pending registration for an event that has not started.
func (s *ParticipationService) Cancel(ctx context.Context, studentID, eventID string) error {
	participation, err := s.repo.FindByStudentAndEvent(ctx, studentID, eventID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "registration not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load registration")
	}

	event, err := s.loadEvent(ctx, eventID)
	if err != nil {
		return err
	}

	today := startOfDay(s.now())
	if startOfDay(event.Date).Before(today) {
		return appErrors.Clone(appErrors.ErrInvalidState, "cannot cancel registration for past events")
	}
	if participation.Status != models.ParticipationPending {
		return appErrors.Clone(appErrors.ErrInvalidState, "participation already processed")
	}

	if err := s.repo.Delete(ctx, participation.ID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to cancel registration")
	}

	s.audit(ctx, studentID, models.AuditActionParticipationCancel, participation.ID)
	return nil
}

// SubmitReport stores a student's activity report and marks them attended.
func (s *ParticipationService) SubmitReport(ctx context.Context, studentID, participationID string, req models.SubmitReportRequest) (*models.Participation, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid report payload")
	}

	participation, err := s.repo.FindByID(ctx, participationID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "participation not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load participation")
	}
	if participation.StudentID != studentID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "not your participation")
	}
	if participation.Status == models.ParticipationApproved || participation.Status == models.ParticipationRejected {
		return nil, appErrors.Clone(appErrors.ErrInvalidState, "participation already reviewed")
	}

	event, err := s.loadEvent(ctx, participation.EventID)
	if err != nil {
		return nil, err
	}

	today := startOfDay(s.now())
	if !startOfDay(event.Date).Before(today) {
		return nil, appErrors.Clone(appErrors.ErrInvalidState, "cannot submit report before event date")
	}

	if err := s.repo.UpdateReport(ctx, participationID, req.ReportText, "", req.Photos); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store report")
	}

	s.audit(ctx, studentID, models.AuditActionReportSubmit, participationID)

	updated, err := s.repo.FindByID(ctx, participationID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reload participation")
	}
	return updated, nil
}

// Review approves or rejects a submitted report. The student's hour ledger is
// adjusted by the signed difference against whatever a previous review
// credited, so re-reviews never double count.
func (s *ParticipationService) Review(ctx context.Context, reviewerID, participationID string, req models.ReviewRequest) (*models.ParticipationDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid review payload")
	}

	participation, err := s.repo.FindByID(ctx, participationID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "participation not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load participation")
	}

	event, err := s.loadEvent(ctx, participation.EventID)
	if err != nil {
		return nil, err
	}

	today := startOfDay(s.now())
	if !startOfDay(event.EndBoundary()).Before(today) {
		return nil, appErrors.Clone(appErrors.ErrInvalidState, "event has not ended yet")
	}

	status := models.ParticipationRejected
	hours := 0.0
	if req.Approve {
		if req.Hours <= 0 {
			return nil, appErrors.Clone(appErrors.ErrValidation, "approval requires a positive number of hours")
		}
		status = models.ParticipationApproved
		hours = req.Hours
	}

	previouslyCounted := 0.0
	if participation.Status == models.ParticipationApproved {
		previouslyCounted = participation.HoursContributed
	}
	delta := hours - previouslyCounted

	if err := s.repo.UpdateDecision(ctx, participationID, status, hours, req.Feedback, reviewerID, s.now().UTC()); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record decision")
	}

	if delta != 0 {
		if err := s.users.IncrementTotalHours(ctx, participation.StudentID, delta); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update hour ledger")
		}
	}

	s.audit(ctx, reviewerID, models.AuditActionReportReview, participationID)

	if s.notifier != nil {
		if student, err := s.users.FindByID(ctx, participation.StudentID); err == nil {
			s.notifier.NotifyDecision(student, event.Title, status, hours)
		} else {
			s.logger.Warn("failed to load student for decision email", zap.Error(err))
		}
	}

	detail, err := s.repo.FindDetailByID(ctx, participationID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load participation detail")
	}
	return detail, nil
}

func (s *ParticipationService) loadEvent(ctx context.Context, eventID string) (*models.Event, error) {
	event, err := s.events.FindByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "event not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load event")
	}
	return event, nil
}

func (s *ParticipationService) createPending(ctx context.Context, studentID, eventID, auditAction string) (*models.Participation, error) {
	if _, err := s.repo.FindByStudentAndEvent(ctx, studentID, eventID); err == nil {
		return nil, appErrors.Clone(appErrors.ErrConflict, "already registered for this event")
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check registration")
	}

	participation := &models.Participation{
		EventID:   eventID,
		StudentID: studentID,
		Status:    models.ParticipationPending,
	}
	if err := s.repo.Create(ctx, participation); err != nil {
		// A concurrent register can slip past the lookup above and trip
		// the student/event unique constraint.
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == pqUniqueViolation {
			return nil, appErrors.Clone(appErrors.ErrConflict, "already registered for this event")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create participation")
	}

	s.audit(ctx, studentID, auditAction, participation.ID)
	return participation, nil
}

func (s *ParticipationService) audit(ctx context.Context, userID, action, resourceID string) {
	if err := s.users.CreateAuditLog(ctx, &models.AuditLog{
		UserID:     &userID,
		Action:     action,
		Resource:   "participation",
		ResourceID: &resourceID,
	}); err != nil {
		s.logger.Warn("failed to record participation audit log", zap.Error(err))
	}
}

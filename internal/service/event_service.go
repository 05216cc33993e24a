package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/nss-vignan/nss-portal-api/internal/models"
	appErrors "github.com/nss-vignan/nss-portal-api/pkg/errors"
)

type eventRepository interface {
	List(ctx context.Context, filter models.EventFilter) ([]models.EventDetail, int, error)
	FindByID(ctx context.Context, id string) (*models.Event, error)
	FindDetailByID(ctx context.Context, id string) (*models.EventDetail, error)
	Create(ctx context.Context, event *models.Event) error
	Update(ctx context.Context, event *models.Event) error
	Delete(ctx context.Context, id string) error
}

type eventUserStore interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
	ListActiveStudents(ctx context.Context) ([]models.User, error)
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

type registrationLister interface {
	ListRegisteredStudentIDs(ctx context.Context, eventID string) ([]string, error)
}

type announcementNotifier interface {
	NotifyAnnouncement(recipients []models.User, eventTitle, subject, message string)
}

// EventService orchestrates event management workflows.
type EventService struct {
	repo           eventRepository
	users          eventUserStore
	registrations  registrationLister
	notifier       announcementNotifier
	validator      *validator.Validate
	logger         *zap.Logger
}

// NewEventService constructs EventService.
func NewEventService(repo eventRepository, users eventUserStore, registrations registrationLister, notifier announcementNotifier, validate *validator.Validate, logger *zap.Logger) *EventService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EventService{
		repo:          repo,
		users:         users,
		registrations: registrations,
		notifier:      notifier,
		validator:     validate,
		logger:        logger,
	}
}

// List returns events with pagination metadata.
func (s *EventService) List(ctx context.Context, filter models.EventFilter) ([]models.EventDetail, *models.Pagination, error) {
	events, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list events")
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
	return events, pagination, nil
}

// Get returns an event with coordinator and registration info.
func (s *EventService) Get(ctx context.Context, id string) (*models.EventDetail, error) {
	detail, err := s.repo.FindDetailByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "event not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load event")
	}
	return detail, nil
}

// Create persists a new event and notifies students about it.
func (s *EventService) Create(ctx context.Context, coordinatorID string, req models.CreateEventRequest, imagePath *string) (*models.EventDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid event payload")
	}
	if req.EndDate != nil && req.EndDate.Before(req.Date) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "end date before start date")
	}

	event := &models.Event{
		Title:                req.Title,
		Description:          req.Description,
		Category:             req.Category,
		Date:                 req.Date,
		EndDate:              req.EndDate,
		Venue:                req.Venue,
		MaxParticipants:      req.MaxParticipants,
		Hours:                req.Hours,
		CoordinatorID:        coordinatorID,
		FacultyInChargeID:    req.FacultyInChargeID,
		Status:               models.EventStatusUpcoming,
		Image:                imagePath,
		RegistrationDeadline: req.RegistrationDeadline,
	}
	if err := s.repo.Create(ctx, event); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create event")
	}

	s.audit(ctx, coordinatorID, models.AuditActionEventCreate, event.ID)

	if s.notifier != nil {
		students, err := s.users.ListActiveStudents(ctx)
		if err != nil {
			s.logger.Warn("failed to load students for event notification", zap.Error(err))
		} else {
			message := fmt.Sprintf("A new NSS event has been posted:\n\n%s\n%s\nDate: %s\nVenue: %s",
				event.Title, event.Description, event.Date.Format("2 January 2006"), event.Venue)
			s.notifier.NotifyAnnouncement(students, event.Title, "New NSS Event", message)
		}
	}

	detail, err := s.repo.FindDetailByID(ctx, event.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load event detail")
	}
	return detail, nil
}

// Update applies partial changes to an event.
func (s *EventService) Update(ctx context.Context, actorID, id string, req models.UpdateEventRequest) (*models.EventDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid event payload")
	}

	event, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "event not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load event")
	}

	if req.Title != nil {
		event.Title = *req.Title
	}
	if req.Description != nil {
		event.Description = *req.Description
	}
	if req.Category != nil {
		event.Category = *req.Category
	}
	if req.Date != nil {
		event.Date = *req.Date
	}
	if req.EndDate != nil {
		event.EndDate = req.EndDate
	}
	if req.Venue != nil {
		event.Venue = *req.Venue
	}
	if req.MaxParticipants != nil {
		event.MaxParticipants = req.MaxParticipants
	}
	if req.Hours != nil {
		event.Hours = *req.Hours
	}
	if req.FacultyInChargeID != nil {
		event.FacultyInChargeID = req.FacultyInChargeID
	}
	if req.Status != nil {
		event.Status = *req.Status
	}
	if req.RegistrationDeadline != nil {
		event.RegistrationDeadline = req.RegistrationDeadline
	}
	if event.EndDate != nil && event.EndDate.Before(event.Date) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "end date before start date")
	}

	if err := s.repo.Update(ctx, event); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update event")
	}

	s.audit(ctx, actorID, models.AuditActionEventUpdate, id)

	detail, err := s.repo.FindDetailByID(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load event detail")
	}
	return detail, nil
}

// SetImage stores the uploaded image path on an event.
func (s *EventService) SetImage(ctx context.Context, actorID, id, imagePath string) error {
	event, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "event not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load event")
	}
	event.Image = &imagePath
	if err := s.repo.Update(ctx, event); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update event image")
	}
	s.audit(ctx, actorID, models.AuditActionEventUpdate, id)
	return nil
}

// Delete removes an event entirely.
func (s *EventService) Delete(ctx context.Context, actorID, id string) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "event not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load event")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete event")
	}
	s.audit(ctx, actorID, models.AuditActionEventDelete, id)
	return nil
}

// Announce broadcasts a message to every student registered for the event.
func (s *EventService) Announce(ctx context.Context, actorID, id string, req models.AnnouncementRequest) (int, error) {
	if err := s.validator.Struct(req); err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid announcement payload")
	}

	event, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, appErrors.Clone(appErrors.ErrNotFound, "event not found")
		}
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load event")
	}

	studentIDs, err := s.registrations.ListRegisteredStudentIDs(ctx, id)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load registered students")
	}

	recipients := make([]models.User, 0, len(studentIDs))
	for _, studentID := range studentIDs {
		student, err := s.users.FindByID(ctx, studentID)
		if err != nil {
			s.logger.Warn("failed to load announcement recipient", zap.String("student_id", studentID), zap.Error(err))
			continue
		}
		if student.Active {
			recipients = append(recipients, *student)
		}
	}

	if s.notifier != nil {
		s.notifier.NotifyAnnouncement(recipients, event.Title, req.Subject, req.Message)
	}

	s.audit(ctx, actorID, models.AuditActionEventAnnounce, id)
	return len(recipients), nil
}

func (s *EventService) audit(ctx context.Context, userID, action, resourceID string) {
	if err := s.users.CreateAuditLog(ctx, &models.AuditLog{
		UserID:     &userID,
		Action:     action,
		Resource:   "event",
		ResourceID: &resourceID,
	}); err != nil {
		s.logger.Warn("failed to record event audit log", zap.Error(err))
	}
}

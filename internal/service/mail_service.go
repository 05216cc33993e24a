package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/nss-vignan/nss-portal-api/internal/models"
	"github.com/nss-vignan/nss-portal-api/pkg/jobs"
	"github.com/nss-vignan/nss-portal-api/pkg/mailer"
)

// MailService composes notification emails and dispatches them through a
// background queue so request handlers never block on delivery.
type MailService struct {
	mailer mailer.Mailer
	queue  *jobs.Queue
	logger *zap.Logger
}

// NewMailService constructs the service and its delivery queue.
func NewMailService(m mailer.Mailer, cfg jobs.QueueConfig, logger *zap.Logger) *MailService {
	if logger == nil {
		logger = zap.NewNop()
	}
	svc := &MailService{mailer: m, logger: logger}
	cfg.Logger = logger
	svc.queue = jobs.NewQueue("mail", svc.deliver, cfg)
	return svc
}

// Start begins background delivery workers.
func (s *MailService) Start(ctx context.Context) {
	s.queue.Start(ctx)
}

// Stop drains the delivery workers.
func (s *MailService) Stop() {
	s.queue.Stop()
}

func (s *MailService) deliver(ctx context.Context, job jobs.Job) error {
	msg, ok := job.Payload.(mailer.Message)
	if !ok {
		s.logger.Error("mail job carries unexpected payload", zap.String("job_id", job.ID))
		return nil
	}
	return s.mailer.Send(ctx, msg)
}

func (s *MailService) enqueue(jobType string, msg mailer.Message) {
	err := s.queue.Enqueue(jobs.Job{
		ID:      uuid.NewString(),
		Type:    jobType,
		Payload: msg,
	})
	if err != nil {
		s.logger.Warn("failed to enqueue mail", zap.String("type", jobType), zap.Error(err))
	}
}

// NotifyDecision emails a student about the outcome of their report review.
func (s *MailService) NotifyDecision(student *models.User, eventTitle string, status models.ParticipationStatus, hours float64) {
	verdict := "rejected"
	if status == models.ParticipationApproved {
		verdict = "approved"
	}
	text := fmt.Sprintf("Hi %s,\n\nYour participation in %q has been %s.\n", student.Name, eventTitle, verdict)
	html := fmt.Sprintf("<h2>Participation Update</h2><p>Hi %s,</p><p>Your participation in <strong>%s</strong> has been %s.</p>",
		student.Name, eventTitle, verdict)
	if status == models.ParticipationApproved && hours > 0 {
		text += fmt.Sprintf("Hours contributed: %g\n", hours)
		html += fmt.Sprintf("<p>Hours contributed: %g</p>", hours)
	}

	s.enqueue("participation_decision", mailer.Message{
		ToName:    student.Name,
		ToAddress: student.Email,
		Subject:   fmt.Sprintf("Participation %s - %s", verdict, eventTitle),
		TextBody:  text,
		HTMLBody:  html,
	})
}

// NotifyAnnouncement broadcasts an event announcement to the given users.
// Each recipient is queued separately so one bad address never blocks the rest.
func (s *MailService) NotifyAnnouncement(recipients []models.User, eventTitle, subject, message string) {
	for _, user := range recipients {
		s.enqueue("event_announcement", mailer.Message{
			ToName:    user.Name,
			ToAddress: user.Email,
			Subject:   fmt.Sprintf("%s - %s", subject, eventTitle),
			TextBody:  fmt.Sprintf("Hi %s,\n\n%s\n", user.Name, message),
			HTMLBody:  fmt.Sprintf("<p>Hi %s,</p><p>%s</p>", user.Name, message),
		})
	}
}

// NotifyReminder emails a student that an event starts tomorrow.
func (s *MailService) NotifyReminder(user models.User, event models.Event) {
	s.enqueue("event_reminder", mailer.Message{
		ToName:    user.Name,
		ToAddress: user.Email,
		Subject:   fmt.Sprintf("Reminder: %s is tomorrow", event.Title),
		TextBody: fmt.Sprintf("Hi %s,\n\n%s takes place tomorrow (%s) at %s. See you there!\n",
			user.Name, event.Title, event.Date.Format("2 January 2006"), event.Venue),
		HTMLBody: fmt.Sprintf("<p>Hi %s,</p><p><strong>%s</strong> takes place tomorrow (%s) at %s. See you there!</p>",
			user.Name, event.Title, event.Date.Format("2 January 2006"), event.Venue),
	})
}

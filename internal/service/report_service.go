package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/nss-vignan/nss-portal-api/internal/models"
	appErrors "github.com/nss-vignan/nss-portal-api/pkg/errors"
	"github.com/nss-vignan/nss-portal-api/pkg/export"
)

type reportEventReader interface {
	FindDetailByID(ctx context.Context, id string) (*models.EventDetail, error)
}

type reportParticipationLister interface {
	ListByEvent(ctx context.Context, eventID string) ([]models.ParticipationDetail, error)
}

type annualSummarySource interface {
	AnnualSummary(ctx context.Context) ([]models.AnnualSummaryRow, error)
}

type tabularPDFRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

type tabularCSVRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

// ReportService renders event rosters and the yearly activity export.
type ReportService struct {
	events         reportEventReader
	participations reportParticipationLister
	users          annualSummarySource
	pdf            tabularPDFRenderer
	csv            tabularCSVRenderer
	logger         *zap.Logger
}

// NewReportService constructs ReportService.
func NewReportService(events reportEventReader, participations reportParticipationLister, users annualSummarySource, pdf tabularPDFRenderer, csv tabularCSVRenderer, logger *zap.Logger) *ReportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReportService{
		events:         events,
		participations: participations,
		users:          users,
		pdf:            pdf,
		csv:            csv,
		logger:         logger,
	}
}

// EventReport renders a printable participant roster for an event.
func (s *ReportService) EventReport(ctx context.Context, eventID string) ([]byte, string, error) {
	event, participations, err := s.loadEventWithParticipants(ctx, eventID)
	if err != nil {
		return nil, "", err
	}

	data := export.Dataset{
		Headers: []string{"S.No", "Name", "Roll No", "Department", "Status"},
	}
	for i, p := range participations {
		data.Rows = append(data.Rows, map[string]string{
			"S.No":       strconv.Itoa(i + 1),
			"Name":       p.StudentName,
			"Roll No":    derefOrNA(p.StudentRollNumber),
			"Department": orNA(p.StudentDepartment),
			"Status":     string(p.Status),
		})
	}

	title := fmt.Sprintf("NSS Event Report - %s", event.Title)
	pdf, err := s.pdf.Render(data, title)
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render event report")
	}
	filename := fmt.Sprintf("NSS-Event-Report-%s.pdf", slugify(event.Title))
	return pdf, filename, nil
}

// AttendanceSheet renders a signable attendance list for an event.
func (s *ReportService) AttendanceSheet(ctx context.Context, eventID string) ([]byte, string, error) {
	event, participations, err := s.loadEventWithParticipants(ctx, eventID)
	if err != nil {
		return nil, "", err
	}

	data := export.Dataset{
		Headers: []string{"S.No", "Name", "Roll No", "Department", "Status", "Signature"},
	}
	for i, p := range participations {
		data.Rows = append(data.Rows, map[string]string{
			"S.No":       strconv.Itoa(i + 1),
			"Name":       p.StudentName,
			"Roll No":    derefOrNA(p.StudentRollNumber),
			"Department": orNA(p.StudentDepartment),
			"Status":     string(p.Status),
			"Signature":  "",
		})
	}

	title := fmt.Sprintf("Event Attendance List - %s", event.Title)
	pdf, err := s.pdf.Render(data, title)
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render attendance sheet")
	}
	filename := fmt.Sprintf("NSS-Attendance-%s.pdf", slugify(event.Title))
	return pdf, filename, nil
}

// AnnualSummary renders the per-student yearly activity export as CSV.
func (s *ReportService) AnnualSummary(ctx context.Context) ([]byte, string, error) {
	rows, err := s.users.AnnualSummary(ctx)
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load annual summary")
	}

	data := export.Dataset{
		Headers: []string{"Name", "Roll No", "Department", "Events Attended", "Total Hours"},
	}
	for _, row := range rows {
		data.Rows = append(data.Rows, map[string]string{
			"Name":            row.Name,
			"Roll No":         derefOrNA(row.RollNumber),
			"Department":      orNA(row.Department),
			"Events Attended": strconv.Itoa(row.EventsAttended),
			"Total Hours":     strconv.FormatFloat(row.TotalHours, 'f', -1, 64),
		})
	}

	csv, err := s.csv.Render(data)
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render annual summary")
	}
	return csv, "NSS-Annual-Summary.csv", nil
}

func (s *ReportService) loadEventWithParticipants(ctx context.Context, eventID string) (*models.EventDetail, []models.ParticipationDetail, error) {
	event, err := s.events.FindDetailByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, appErrors.Clone(appErrors.ErrNotFound, "event not found")
		}
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load event")
	}
	participations, err := s.participations.ListByEvent(ctx, eventID)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load participations")
	}
	return event, participations, nil
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}

func slugify(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ' || r == '-' || r == '_':
			b.WriteRune('-')
		}
	}
	return strings.Trim(b.String(), "-")
}

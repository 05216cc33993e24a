package models

import (
	"time"

	"github.com/lib/pq"
)

// ParticipationStatus represents the lifecycle of a participation record.
type ParticipationStatus string

// Possible participation statuses.
const (
	ParticipationPending  ParticipationStatus = "PENDING"
	ParticipationAttended ParticipationStatus = "ATTENDED"
	ParticipationApproved ParticipationStatus = "APPROVED"
	ParticipationRejected ParticipationStatus = "REJECTED"
	ParticipationAbsent   ParticipationStatus = "ABSENT"
)

// Participation links a student to an event and tracks the approval flow.
type Participation struct {
	ID               string              `db:"id" json:"id"`
	EventID          string              `db:"event_id" json:"event_id"`
	StudentID        string              `db:"student_id" json:"student_id"`
	Status           ParticipationStatus `db:"status" json:"status"`
	ReportText       string              `db:"report_text" json:"report_text"`
	Photos           pq.StringArray      `db:"photos" json:"photos"`
	HoursContributed float64             `db:"hours_contributed" json:"hours_contributed"`
	Feedback         string              `db:"feedback" json:"feedback"`
	SubmittedAt      time.Time           `db:"submitted_at" json:"submitted_at"`
	ApprovedBy       *string             `db:"approved_by" json:"approved_by,omitempty"`
	ApprovedAt       *time.Time          `db:"approved_at" json:"approved_at,omitempty"`
	CertificateIssued bool               `db:"certificate_issued" json:"certificate_issued"`
	CreatedAt        time.Time           `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time           `db:"updated_at" json:"updated_at"`
}

// ParticipationDetail enriches Participation with student and event info.
type ParticipationDetail struct {
	Participation
	StudentName       string    `db:"student_name" json:"student_name"`
	StudentRollNumber *string   `db:"student_roll_number" json:"student_roll_number,omitempty"`
	StudentDepartment string    `db:"student_department" json:"student_department"`
	EventTitle        string    `db:"event_title" json:"event_title"`
	EventDate         time.Time `db:"event_date" json:"event_date"`
	EventVenue        string    `db:"event_venue" json:"event_venue"`
	EventHours        float64   `db:"event_hours" json:"event_hours"`
}

// SubmitReportRequest carries a student's activity report.
type SubmitReportRequest struct {
	ReportText string   `json:"report_text" validate:"required"`
	Photos     []string `json:"photos" validate:"omitempty,dive,max=500"`
}

// ReviewRequest records a faculty decision on a submitted report.
type ReviewRequest struct {
	Approve  bool    `json:"approve"`
	Hours    float64 `json:"hours" validate:"omitempty,gte=0"`
	Feedback string  `json:"feedback" validate:"omitempty,max=1000"`
}

// ParticipationFilter provides filters for listing participations.
type ParticipationFilter struct {
	EventID   string
	StudentID string
	Status    ParticipationStatus
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

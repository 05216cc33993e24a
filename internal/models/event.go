package models

import "time"

// EventStatus represents the lifecycle of an event.
type EventStatus string

// Possible event statuses.
const (
	EventStatusUpcoming  EventStatus = "UPCOMING"
	EventStatusOngoing   EventStatus = "ONGOING"
	EventStatusCompleted EventStatus = "COMPLETED"
	EventStatusCancelled EventStatus = "CANCELLED"
)

// Terminal reports whether the status can no longer change automatically.
func (s EventStatus) Terminal() bool {
	return s == EventStatusCompleted || s == EventStatusCancelled
}

// EventCategory classifies the kind of service activity.
type EventCategory string

// Possible event categories.
const (
	CategoryTreePlantation EventCategory = "TREE_PLANTATION"
	CategoryBloodDonation  EventCategory = "BLOOD_DONATION"
	CategoryCleanliness    EventCategory = "CLEANLINESS"
	CategoryAwareness      EventCategory = "AWARENESS"
	CategoryWorkshop       EventCategory = "WORKSHOP"
	CategoryOther          EventCategory = "OTHER"
)

// Event captures a scheduled service activity.
type Event struct {
	ID                   string        `db:"id" json:"id"`
	Title                string        `db:"title" json:"title"`
	Description          string        `db:"description" json:"description"`
	Category             EventCategory `db:"category" json:"category"`
	Date                 time.Time     `db:"date" json:"date"`
	EndDate              *time.Time    `db:"end_date" json:"end_date,omitempty"`
	Venue                string        `db:"venue" json:"venue"`
	MaxParticipants      *int          `db:"max_participants" json:"max_participants,omitempty"`
	Hours                float64       `db:"hours" json:"hours"`
	CoordinatorID        string        `db:"coordinator_id" json:"coordinator_id"`
	FacultyInChargeID    *string       `db:"faculty_in_charge_id" json:"faculty_in_charge_id,omitempty"`
	Status               EventStatus   `db:"status" json:"status"`
	Image                *string       `db:"image" json:"image,omitempty"`
	RegistrationDeadline *time.Time    `db:"registration_deadline" json:"registration_deadline,omitempty"`
	CreatedAt            time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt            time.Time     `db:"updated_at" json:"updated_at"`
}

// EndBoundary returns the moment after which the event counts as over.
// Falls back to the start date for single-day events.
func (e *Event) EndBoundary() time.Time {
	if e.EndDate != nil {
		return *e.EndDate
	}
	return e.Date
}

// EventDetail enriches Event with coordinator info and registration counts.
type EventDetail struct {
	Event
	CoordinatorName string `db:"coordinator_name" json:"coordinator_name"`
	RegisteredCount int    `db:"registered_count" json:"registered_count"`
}

// CreateEventRequest is the payload for creating an event.
type CreateEventRequest struct {
	Title                string        `json:"title" validate:"required,max=200"`
	Description          string        `json:"description" validate:"required"`
	Category             EventCategory `json:"category" validate:"required,oneof=TREE_PLANTATION BLOOD_DONATION CLEANLINESS AWARENESS WORKSHOP OTHER"`
	Date                 time.Time     `json:"date" validate:"required"`
	EndDate              *time.Time    `json:"end_date"`
	Venue                string        `json:"venue" validate:"required,max=200"`
	MaxParticipants      *int          `json:"max_participants" validate:"omitempty,gt=0"`
	Hours                float64       `json:"hours" validate:"required,gt=0"`
	FacultyInChargeID    *string       `json:"faculty_in_charge_id" validate:"omitempty,uuid"`
	RegistrationDeadline *time.Time    `json:"registration_deadline"`
}

// UpdateEventRequest is the payload for updating an event.
type UpdateEventRequest struct {
	Title                *string        `json:"title" validate:"omitempty,max=200"`
	Description          *string        `json:"description"`
	Category             *EventCategory `json:"category" validate:"omitempty,oneof=TREE_PLANTATION BLOOD_DONATION CLEANLINESS AWARENESS WORKSHOP OTHER"`
	Date                 *time.Time     `json:"date"`
	EndDate              *time.Time     `json:"end_date"`
	Venue                *string        `json:"venue" validate:"omitempty,max=200"`
	MaxParticipants      *int           `json:"max_participants" validate:"omitempty,gt=0"`
	Hours                *float64       `json:"hours" validate:"omitempty,gt=0"`
	FacultyInChargeID    *string        `json:"faculty_in_charge_id" validate:"omitempty,uuid"`
	Status               *EventStatus   `json:"status" validate:"omitempty,oneof=UPCOMING ONGOING COMPLETED CANCELLED"`
	RegistrationDeadline *time.Time     `json:"registration_deadline"`
}

// AnnouncementRequest is the payload for broadcasting an event announcement.
type AnnouncementRequest struct {
	Subject string `json:"subject" validate:"required,max=200"`
	Message string `json:"message" validate:"required"`
}

// EventFilter provides filters for listing events.
type EventFilter struct {
	Status    EventStatus
	Category  EventCategory
	From      *time.Time
	To        *time.Time
	Search    string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

package models

// TeamCounts breaks students down by their unit position.
type TeamCounts struct {
	Coordinators int `json:"coordinators"`
	CoreTeam     int `json:"core_team"`
	Volunteers   int `json:"volunteers"`
}

// DashboardStats aggregates portal-wide numbers for the admin dashboard.
type DashboardStats struct {
	TotalEvents             int            `json:"total_events"`
	UpcomingEvents          int            `json:"upcoming_events"`
	TotalStudents           int            `json:"total_students"`
	ApprovedParticipations  int            `json:"approved_participations"`
	TotalHours              float64        `json:"total_hours"`
	TopVolunteers           []TopVolunteer `json:"top_volunteers"`
	Team                    TeamCounts     `json:"team"`
	EligibleForCertificate  int            `json:"eligible_for_certificate"`
}

// AnnualSummaryRow is one student line of the yearly activity export.
type AnnualSummaryRow struct {
	StudentID      string  `db:"student_id"`
	Name           string  `db:"name"`
	RollNumber     *string `db:"roll_number"`
	Department     string  `db:"department"`
	EventsAttended int     `db:"events_attended"`
	TotalHours     float64 `db:"total_hours"`
}

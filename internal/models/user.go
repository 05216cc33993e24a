package models

import "time"

// UserRole represents the available roles for the RBAC system.
type UserRole string

const (
	RoleAdmin   UserRole = "ADMIN"
	RoleFaculty UserRole = "FACULTY"
	RoleStudent UserRole = "STUDENT"
)

// TeamRole represents a volunteer's position within the NSS unit.
type TeamRole string

const (
	TeamRoleCoordinator TeamRole = "COORDINATOR"
	TeamRoleCoreTeam    TeamRole = "CORE_TEAM"
	TeamRoleVolunteer   TeamRole = "VOLUNTEER"
	TeamRoleMember      TeamRole = "MEMBER"
)

// PerformanceRating grades a volunteer's year of service.
type PerformanceRating string

const (
	RatingExcellent    PerformanceRating = "EXCELLENT"
	RatingGood         PerformanceRating = "GOOD"
	RatingSatisfactory PerformanceRating = "SATISFACTORY"
)

// User represents an application user stored in the users table.
type User struct {
	ID           string   `db:"id" json:"id"`
	Name         string   `db:"name" json:"name"`
	Email        string   `db:"email" json:"email"`
	PasswordHash string   `db:"password_hash" json:"-"`
	Role         UserRole `db:"role" json:"role"`
	RollNumber   *string  `db:"roll_number" json:"roll_number,omitempty"`
	Department   string   `db:"department" json:"department"`
	Year         string   `db:"year" json:"year"`
	Phone        string   `db:"phone" json:"phone"`
	TotalHours   float64  `db:"total_hours" json:"total_hours"`
	TeamRole     *TeamRole `db:"team_role" json:"team_role,omitempty"`
	Active       bool     `db:"active" json:"active"`
	Reminders    bool     `db:"reminders" json:"reminders"`

	FinalCertificateEligible    bool               `db:"final_cert_eligible" json:"final_certificate_eligible"`
	FinalCertificateGenerated   bool               `db:"final_cert_generated" json:"final_certificate_generated"`
	FinalCertificateGeneratedAt *time.Time         `db:"final_cert_generated_at" json:"final_certificate_generated_at,omitempty"`
	FinalCertificateGeneratedBy *string            `db:"final_cert_generated_by" json:"final_certificate_generated_by,omitempty"`
	PerformanceRating           *PerformanceRating `db:"performance_rating" json:"performance_rating,omitempty"`
	AdminRemarks                string             `db:"admin_remarks" json:"admin_remarks"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// IsStudent reports whether the user holds the student role.
func (u *User) IsStudent() bool {
	return u.Role == RoleStudent
}

// StudentProfile pairs a student with their participation history.
type StudentProfile struct {
	Student        User                  `json:"student"`
	Participations []ParticipationDetail `json:"participations"`
}

// TopVolunteer is a leaderboard row on the dashboard.
type TopVolunteer struct {
	ID         string  `db:"id" json:"id"`
	Name       string  `db:"name" json:"name"`
	RollNumber *string `db:"roll_number" json:"roll_number,omitempty"`
	Department string  `db:"department" json:"department"`
	TotalHours float64 `db:"total_hours" json:"total_hours"`
}

// UpdateProfileRequest is the self-service profile update payload.
type UpdateProfileRequest struct {
	Name       string `json:"name" validate:"required"`
	Phone      string `json:"phone" validate:"omitempty,max=20"`
	Department string `json:"department" validate:"omitempty,max=100"`
	Year       string `json:"year" validate:"omitempty,max=20"`
}

// UpdateTeamRoleRequest assigns a unit position to a volunteer.
type UpdateTeamRoleRequest struct {
	TeamRole TeamRole `json:"team_role" validate:"required,oneof=COORDINATOR CORE_TEAM VOLUNTEER MEMBER"`
}

// MarkEligibleRequest records the final certificate eligibility decision.
type MarkEligibleRequest struct {
	PerformanceRating PerformanceRating `json:"performance_rating" validate:"required,oneof=EXCELLENT GOOD SATISFACTORY"`
	AdminRemarks      string            `json:"admin_remarks" validate:"omitempty,max=500"`
}

// UserFilter captures filtering criteria for listing users.
type UserFilter struct {
	Role      *UserRole
	TeamRole  *TeamRole
	Active    *bool
	Search    string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}

package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/nss-vignan/nss-portal-api/internal/models"
)

const userColumns = `id, name, email, password_hash, role, roll_number, department, year, phone,
        total_hours, team_role, active, reminders,
        final_cert_eligible, final_cert_generated, final_cert_generated_at, final_cert_generated_by,
        performance_rating, admin_remarks, created_at, updated_at`

// UserRepository provides database access for user management.
type UserRepository struct {
	db *sqlx.DB
}

// NewUserRepository creates a new instance of UserRepository.
func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

// FindByEmail returns a user by email address.
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	query := fmt.Sprintf(`SELECT %s FROM users WHERE email = $1 LIMIT 1`, userColumns)
	var user models.User
	if err := r.db.GetContext(ctx, &user, query, email); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find user by email: %w", err)
	}
	return &user, nil
}

// FindByID returns a user by identifier.
func (r *UserRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	query := fmt.Sprintf(`SELECT %s FROM users WHERE id = $1 LIMIT 1`, userColumns)
	var user models.User
	if err := r.db.GetContext(ctx, &user, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find user by id: %w", err)
	}
	return &user, nil
}

// Create inserts a new user record.
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now

	const query = `INSERT INTO users (id, name, email, password_hash, role, roll_number, department, year, phone,
        total_hours, team_role, active, reminders,
        final_cert_eligible, final_cert_generated, final_cert_generated_at, final_cert_generated_by,
        performance_rating, admin_remarks, created_at, updated_at)
        VALUES (:id, :name, :email, :password_hash, :role, :roll_number, :department, :year, :phone,
        :total_hours, :team_role, :active, :reminders,
        :final_cert_eligible, :final_cert_generated, :final_cert_generated_at, :final_cert_generated_by,
        :performance_rating, :admin_remarks, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, user); err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

// UpdateProfile updates the self-editable fields of a user.
func (r *UserRepository) UpdateProfile(ctx context.Context, id, name, phone, department, year string) error {
	const query = `UPDATE users SET name = $2, phone = $3, department = $4, year = $5, updated_at = $6 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, name, phone, department, year, time.Now().UTC()); err != nil {
		return fmt.Errorf("update profile: %w", err)
	}
	return nil
}

// UpdatePassword updates the stored password hash.
func (r *UserRepository) UpdatePassword(ctx context.Context, id, passwordHash string, updatedAt time.Time) error {
	const query = `UPDATE users SET password_hash = $2, updated_at = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, passwordHash, updatedAt); err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	return nil
}

// UpdateTeamRole assigns a unit position to a student.
func (r *UserRepository) UpdateTeamRole(ctx context.Context, id string, teamRole models.TeamRole) error {
	const query = `UPDATE users SET team_role = $2, updated_at = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, teamRole, time.Now().UTC()); err != nil {
		return fmt.Errorf("update team role: %w", err)
	}
	return nil
}

// IncrementTotalHours applies a signed delta to the hour ledger. The total
// is clamped at zero so a correction can never drive it negative.
func (r *UserRepository) IncrementTotalHours(ctx context.Context, id string, delta float64) error {
	const query = `UPDATE users SET total_hours = GREATEST(total_hours + $2, 0), updated_at = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, delta, time.Now().UTC()); err != nil {
		return fmt.Errorf("increment total hours: %w", err)
	}
	return nil
}

// List returns users based on filters with total count.
func (r *UserRepository) List(ctx context.Context, filter models.UserFilter) ([]models.User, int, error) {
	baseQuery := `FROM users WHERE 1=1`
	var conditions []string
	var args []interface{}

	if filter.Role != nil {
		conditions = append(conditions, fmt.Sprintf("role = $%d", len(args)+1))
		args = append(args, *filter.Role)
	}
	if filter.TeamRole != nil {
		conditions = append(conditions, fmt.Sprintf("team_role = $%d", len(args)+1))
		args = append(args, *filter.TeamRole)
	}
	if filter.Active != nil {
		conditions = append(conditions, fmt.Sprintf("active = $%d", len(args)+1))
		args = append(args, *filter.Active)
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(LOWER(email) LIKE $%d OR LOWER(name) LIKE $%d OR LOWER(COALESCE(roll_number, '')) LIKE $%d)", len(args)+1, len(args)+1, len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}

	if len(conditions) > 0 {
		baseQuery += " AND " + strings.Join(conditions, " AND ")
	}

	sortBy := filter.SortBy
	if sortBy == "" {
		sortBy = "total_hours"
	}
	allowedSorts := map[string]bool{
		"email":       true,
		"name":        true,
		"total_hours": true,
		"created_at":  true,
	}
	if !allowedSorts[sortBy] {
		sortBy = "total_hours"
	}

	sortOrder := strings.ToUpper(filter.SortOrder)
	if sortOrder != "ASC" && sortOrder != "DESC" {
		sortOrder = "DESC"
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	listQuery := fmt.Sprintf("SELECT %s %s ORDER BY %s %s LIMIT %d OFFSET %d", userColumns, baseQuery, sortBy, sortOrder, pageSize, offset)

	var users []models.User
	if err := r.db.SelectContext(ctx, &users, listQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("list users: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", baseQuery)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count users: %w", err)
	}

	return users, total, nil
}

// ListEligibleForFinalCertificate returns active students at or above the hour
// threshold whose final certificate has not been generated yet.
func (r *UserRepository) ListEligibleForFinalCertificate(ctx context.Context, minHours float64) ([]models.User, error) {
	query := fmt.Sprintf(`SELECT %s FROM users
        WHERE role = $1 AND active = TRUE AND total_hours >= $2 AND final_cert_generated = FALSE
        ORDER BY total_hours DESC`, userColumns)
	var users []models.User
	if err := r.db.SelectContext(ctx, &users, query, models.RoleStudent, minHours); err != nil {
		return nil, fmt.Errorf("list eligible students: %w", err)
	}
	return users, nil
}

// MarkEligible records the admin decision that a student may receive the
// final certificate.
func (r *UserRepository) MarkEligible(ctx context.Context, id string, rating models.PerformanceRating, remarks string) error {
	const query = `UPDATE users SET final_cert_eligible = TRUE, performance_rating = $2, admin_remarks = $3, updated_at = $4 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, rating, remarks, time.Now().UTC()); err != nil {
		return fmt.Errorf("mark eligible: %w", err)
	}
	return nil
}

// MarkFinalCertificateGenerated flags the final certificate as issued.
func (r *UserRepository) MarkFinalCertificateGenerated(ctx context.Context, id, generatedBy string, at time.Time) error {
	const query = `UPDATE users SET final_cert_generated = TRUE, final_cert_generated_at = $2, final_cert_generated_by = $3, updated_at = $2 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, at, generatedBy); err != nil {
		return fmt.Errorf("mark final certificate generated: %w", err)
	}
	return nil
}

// CountStudents returns the number of active students.
func (r *UserRepository) CountStudents(ctx context.Context) (int, error) {
	const query = `SELECT COUNT(*) FROM users WHERE role = $1 AND active = TRUE`
	var count int
	if err := r.db.GetContext(ctx, &count, query, models.RoleStudent); err != nil {
		return 0, fmt.Errorf("count students: %w", err)
	}
	return count, nil
}

// CountStudentsByTeamRole returns the number of active students holding a position.
func (r *UserRepository) CountStudentsByTeamRole(ctx context.Context, teamRole models.TeamRole) (int, error) {
	const query = `SELECT COUNT(*) FROM users WHERE role = $1 AND active = TRUE AND team_role = $2`
	var count int
	if err := r.db.GetContext(ctx, &count, query, models.RoleStudent, teamRole); err != nil {
		return 0, fmt.Errorf("count students by team role: %w", err)
	}
	return count, nil
}

// CountEligibleForFinalCertificate counts students above the threshold without
// a generated final certificate.
func (r *UserRepository) CountEligibleForFinalCertificate(ctx context.Context, minHours float64) (int, error) {
	const query = `SELECT COUNT(*) FROM users WHERE role = $1 AND active = TRUE AND total_hours >= $2 AND final_cert_generated = FALSE`
	var count int
	if err := r.db.GetContext(ctx, &count, query, models.RoleStudent, minHours); err != nil {
		return 0, fmt.Errorf("count eligible students: %w", err)
	}
	return count, nil
}

// SumStudentHours totals the hour ledgers of all active students.
func (r *UserRepository) SumStudentHours(ctx context.Context) (float64, error) {
	const query = `SELECT COALESCE(SUM(total_hours), 0) FROM users WHERE role = $1 AND active = TRUE`
	var total float64
	if err := r.db.GetContext(ctx, &total, query, models.RoleStudent); err != nil {
		return 0, fmt.Errorf("sum student hours: %w", err)
	}
	return total, nil
}

// TopVolunteers returns the highest ranked students by contributed hours.
func (r *UserRepository) TopVolunteers(ctx context.Context, limit int) ([]models.TopVolunteer, error) {
	if limit <= 0 {
		limit = 5
	}
	query := fmt.Sprintf(`SELECT id, name, roll_number, department, total_hours FROM users
        WHERE role = $1 AND active = TRUE ORDER BY total_hours DESC LIMIT %d`, limit)
	var volunteers []models.TopVolunteer
	if err := r.db.SelectContext(ctx, &volunteers, query, models.RoleStudent); err != nil {
		return nil, fmt.Errorf("list top volunteers: %w", err)
	}
	return volunteers, nil
}

// AnnualSummary aggregates approved participation per student for the export.
func (r *UserRepository) AnnualSummary(ctx context.Context) ([]models.AnnualSummaryRow, error) {
	const query = `SELECT u.id AS student_id, u.name, u.roll_number, u.department,
        COUNT(p.id) AS events_attended, u.total_hours
        FROM users u
        LEFT JOIN participations p ON p.student_id = u.id AND p.status = $1
        WHERE u.role = $2 AND u.active = TRUE
        GROUP BY u.id, u.name, u.roll_number, u.department, u.total_hours
        ORDER BY u.total_hours DESC`
	var rows []models.AnnualSummaryRow
	if err := r.db.SelectContext(ctx, &rows, query, models.ParticipationApproved, models.RoleStudent); err != nil {
		return nil, fmt.Errorf("annual summary: %w", err)
	}
	return rows, nil
}

// ListActiveStudents returns every active student account.
func (r *UserRepository) ListActiveStudents(ctx context.Context) ([]models.User, error) {
	query := fmt.Sprintf(`SELECT %s FROM users WHERE role = $1 AND active = TRUE`, userColumns)
	var users []models.User
	if err := r.db.SelectContext(ctx, &users, query, models.RoleStudent); err != nil {
		return nil, fmt.Errorf("list active students: %w", err)
	}
	return users, nil
}

// CreateRefreshToken persists a refresh token entry.
func (r *UserRepository) CreateRefreshToken(ctx context.Context, token *models.RefreshToken) error {
	if token.ID == "" {
		token.ID = uuid.NewString()
	}
	if token.CreatedAt.IsZero() {
		token.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO refresh_tokens (id, user_id, token, expires_at, created_at, revoked, revoked_at, ip_address, user_agent) VALUES (:id, :user_id, :token, :expires_at, :created_at, :revoked, :revoked_at, :ip_address, :user_agent)`
	if _, err := r.db.NamedExecContext(ctx, query, token); err != nil {
		return fmt.Errorf("create refresh token: %w", err)
	}
	return nil
}

// FindRefreshToken returns a refresh token by token string.
func (r *UserRepository) FindRefreshToken(ctx context.Context, token string) (*models.RefreshToken, error) {
	const query = `SELECT id, user_id, token, expires_at, created_at, revoked, revoked_at, ip_address, user_agent FROM refresh_tokens WHERE token = $1 LIMIT 1`
	var rt models.RefreshToken
	if err := r.db.GetContext(ctx, &rt, query, token); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find refresh token: %w", err)
	}
	return &rt, nil
}

// RevokeRefreshToken marks a token as revoked.
func (r *UserRepository) RevokeRefreshToken(ctx context.Context, id string, revokedAt time.Time) error {
	const query = `UPDATE refresh_tokens SET revoked = TRUE, revoked_at = $2 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, revokedAt); err != nil {
		return fmt.Errorf("revoke refresh token: %w", err)
	}
	return nil
}

// RevokeUserRefreshTokens revokes all refresh tokens for a user.
func (r *UserRepository) RevokeUserRefreshTokens(ctx context.Context, userID string) error {
	const query = `UPDATE refresh_tokens SET revoked = TRUE, revoked_at = $2 WHERE user_id = $1 AND revoked = FALSE`
	if _, err := r.db.ExecContext(ctx, query, userID, time.Now().UTC()); err != nil {
		return fmt.Errorf("revoke user refresh tokens: %w", err)
	}
	return nil
}

// CreateAuditLog stores an audit log entry.
func (r *UserRepository) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	if log.ID == "" {
		log.ID = uuid.NewString()
	}
	if log.CreatedAt.IsZero() {
		log.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO audit_logs (id, user_id, action, resource, resource_id, old_values, new_values, ip_address, user_agent, created_at) VALUES (:id, :user_id, :action, :resource, :resource_id, :old_values, :new_values, :ip_address, :user_agent, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, log); err != nil {
		return fmt.Errorf("create audit log: %w", err)
	}
	return nil
}

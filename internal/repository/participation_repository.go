package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/nss-vignan/nss-portal-api/internal/models"
)

const participationColumns = `p.id, p.event_id, p.student_id, p.status, p.report_text, p.photos,
        p.hours_contributed, p.feedback, p.submitted_at, p.approved_by, p.approved_at,
        p.certificate_issued, p.created_at, p.updated_at`

const participationDetailColumns = participationColumns + `,
        u.name AS student_name, u.roll_number AS student_roll_number, u.department AS student_department,
        e.title AS event_title, e.date AS event_date, e.venue AS event_venue, e.hours AS event_hours`

const participationJoins = ` FROM participations p
        LEFT JOIN users u ON u.id = p.student_id
        LEFT JOIN events e ON e.id = p.event_id`

// ParticipationRepository handles persistence of participation records.
type ParticipationRepository struct {
	db *sqlx.DB
}

// NewParticipationRepository constructs the repository.
func NewParticipationRepository(db *sqlx.DB) *ParticipationRepository {
	return &ParticipationRepository{db: db}
}

// List returns participations filtered by the provided criteria.
func (r *ParticipationRepository) List(ctx context.Context, filter models.ParticipationFilter) ([]models.ParticipationDetail, int, error) {
	var conditions []string
	var args []interface{}

	if filter.EventID != "" {
		conditions = append(conditions, fmt.Sprintf("p.event_id = $%d", len(args)+1))
		args = append(args, filter.EventID)
	}
	if filter.StudentID != "" {
		conditions = append(conditions, fmt.Sprintf("p.student_id = $%d", len(args)+1))
		args = append(args, filter.StudentID)
	}
	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("p.status = $%d", len(args)+1))
		args = append(args, filter.Status)
	}

	clause := ""
	if len(conditions) > 0 {
		clause = " WHERE " + strings.Join(conditions, " AND ")
	}

	allowedSorts := map[string]string{
		"submitted_at": "p.submitted_at",
		"event_date":   "e.date",
		"student_name": "u.name",
	}
	sortBy := filter.SortBy
	if sortBy == "" {
		sortBy = "submitted_at"
	}
	orderBy := allowedSorts[sortBy]
	if orderBy == "" {
		orderBy = "p.submitted_at"
	}
	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "DESC"
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf(`SELECT %s %s %s ORDER BY %s %s LIMIT %d OFFSET %d`,
		participationDetailColumns, participationJoins, clause, orderBy, order, size, offset)

	var participations []models.ParticipationDetail
	if err := r.db.SelectContext(ctx, &participations, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list participations: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*)%s%s", participationJoins, clause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count participations: %w", err)
	}
	return participations, total, nil
}

// FindByID returns a participation by its ID.
func (r *ParticipationRepository) FindByID(ctx context.Context, id string) (*models.Participation, error) {
	query := fmt.Sprintf(`SELECT %s FROM participations p WHERE p.id = $1`, participationColumns)
	var participation models.Participation
	if err := r.db.GetContext(ctx, &participation, query, id); err != nil {
		return nil, err
	}
	return &participation, nil
}

// FindDetailByID returns a participation with student and event info.
func (r *ParticipationRepository) FindDetailByID(ctx context.Context, id string) (*models.ParticipationDetail, error) {
	query := fmt.Sprintf(`SELECT %s%s WHERE p.id = $1`, participationDetailColumns, participationJoins)
	var detail models.ParticipationDetail
	if err := r.db.GetContext(ctx, &detail, query, id); err != nil {
		return nil, err
	}
	return &detail, nil
}

// FindByStudentAndEvent returns the participation linking a student to an event.
func (r *ParticipationRepository) FindByStudentAndEvent(ctx context.Context, studentID, eventID string) (*models.Participation, error) {
	query := fmt.Sprintf(`SELECT %s FROM participations p WHERE p.student_id = $1 AND p.event_id = $2 LIMIT 1`, participationColumns)
	var participation models.Participation
	if err := r.db.GetContext(ctx, &participation, query, studentID, eventID); err != nil {
		return nil, err
	}
	return &participation, nil
}

// Create persists a new participation record.
func (r *ParticipationRepository) Create(ctx context.Context, participation *models.Participation) error {
	if participation.ID == "" {
		participation.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if participation.SubmittedAt.IsZero() {
		participation.SubmittedAt = now
	}
	if participation.CreatedAt.IsZero() {
		participation.CreatedAt = now
	}
	participation.UpdatedAt = now
	if participation.Status == "" {
		participation.Status = models.ParticipationPending
	}
	if participation.Photos == nil {
		participation.Photos = pq.StringArray{}
	}
	const query = `INSERT INTO participations (id, event_id, student_id, status, report_text, photos,
        hours_contributed, feedback, submitted_at, approved_by, approved_at, certificate_issued, created_at, updated_at)
        VALUES (:id, :event_id, :student_id, :status, :report_text, :photos,
        :hours_contributed, :feedback, :submitted_at, :approved_by, :approved_at, :certificate_issued, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, participation); err != nil {
		return fmt.Errorf("create participation: %w", err)
	}
	return nil
}

// Delete removes a participation record. Cancellations drop the row entirely.
func (r *ParticipationRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM participations WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("delete participation: %w", err)
	}
	return nil
}

// UpdateReport stores a student's report and moves the record to attended.
func (r *ParticipationRepository) UpdateReport(ctx context.Context, id, reportText, feedback string, photos []string) error {
	const query = `UPDATE participations SET report_text = $2, feedback = $3, photos = $4,
        status = $5, submitted_at = $6, updated_at = $6 WHERE id = $1`
	now := time.Now().UTC()
	if _, err := r.db.ExecContext(ctx, query, id, reportText, feedback, pq.StringArray(photos),
		models.ParticipationAttended, now); err != nil {
		return fmt.Errorf("update report: %w", err)
	}
	return nil
}

// UpdateDecision records the review outcome for a participation.
func (r *ParticipationRepository) UpdateDecision(ctx context.Context, id string, status models.ParticipationStatus, hours float64, feedback, reviewerID string, at time.Time) error {
	const query = `UPDATE participations SET status = $2, hours_contributed = $3, feedback = $4,
        approved_by = $5, approved_at = $6, updated_at = $6 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, status, hours, feedback, reviewerID, at); err != nil {
		return fmt.Errorf("update decision: %w", err)
	}
	return nil
}

// MarkCertificateIssued flags that an event certificate was generated.
func (r *ParticipationRepository) MarkCertificateIssued(ctx context.Context, id string) error {
	const query = `UPDATE participations SET certificate_issued = TRUE, updated_at = $2 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, time.Now().UTC()); err != nil {
		return fmt.Errorf("mark certificate issued: %w", err)
	}
	return nil
}

// ListApprovedByStudent returns a student's approved participations with event info.
func (r *ParticipationRepository) ListApprovedByStudent(ctx context.Context, studentID string) ([]models.ParticipationDetail, error) {
	query := fmt.Sprintf(`SELECT %s%s WHERE p.student_id = $1 AND p.status = $2 ORDER BY e.date ASC`,
		participationDetailColumns, participationJoins)
	var participations []models.ParticipationDetail
	if err := r.db.SelectContext(ctx, &participations, query, studentID, models.ParticipationApproved); err != nil {
		return nil, fmt.Errorf("list approved participations: %w", err)
	}
	return participations, nil
}

// ListByEvent returns every participation for an event with student info.
func (r *ParticipationRepository) ListByEvent(ctx context.Context, eventID string) ([]models.ParticipationDetail, error) {
	query := fmt.Sprintf(`SELECT %s%s WHERE p.event_id = $1 ORDER BY u.name ASC`,
		participationDetailColumns, participationJoins)
	var participations []models.ParticipationDetail
	if err := r.db.SelectContext(ctx, &participations, query, eventID); err != nil {
		return nil, fmt.Errorf("list event participations: %w", err)
	}
	return participations, nil
}

// ListReminderRecipientsByEvent returns students holding a pending registration
// for the event who opted in to reminder emails.
func (r *ParticipationRepository) ListReminderRecipientsByEvent(ctx context.Context, eventID string) ([]models.User, error) {
	const query = `SELECT u.id, u.name, u.email, u.reminders, u.active
        FROM participations p
        JOIN users u ON u.id = p.student_id
        WHERE p.event_id = $1 AND p.status = $2 AND u.reminders = TRUE AND u.active = TRUE`
	var users []models.User
	if err := r.db.SelectContext(ctx, &users, query, eventID, models.ParticipationPending); err != nil {
		return nil, fmt.Errorf("list reminder recipients: %w", err)
	}
	return users, nil
}

// ListRegisteredStudentIDs returns the student IDs registered for an event.
func (r *ParticipationRepository) ListRegisteredStudentIDs(ctx context.Context, eventID string) ([]string, error) {
	const query = `SELECT student_id FROM participations WHERE event_id = $1`
	var ids []string
	if err := r.db.SelectContext(ctx, &ids, query, eventID); err != nil {
		return nil, fmt.Errorf("list registered students: %w", err)
	}
	return ids, nil
}

// CountByStatus returns the number of participations in a given status.
func (r *ParticipationRepository) CountByStatus(ctx context.Context, status models.ParticipationStatus) (int, error) {
	const query = `SELECT COUNT(*) FROM participations WHERE status = $1`
	var count int
	if err := r.db.GetContext(ctx, &count, query, status); err != nil {
		return 0, fmt.Errorf("count participations by status: %w", err)
	}
	return count, nil
}

// IsRegistered reports whether the student already holds a record for the event.
func (r *ParticipationRepository) IsRegistered(ctx context.Context, studentID, eventID string) (bool, error) {
	const query = `SELECT 1 FROM participations WHERE student_id = $1 AND event_id = $2 LIMIT 1`
	var exists int
	if err := r.db.GetContext(ctx, &exists, query, studentID, eventID); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check registration: %w", err)
	}
	return true, nil
}

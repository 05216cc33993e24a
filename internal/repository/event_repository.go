package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/nss-vignan/nss-portal-api/internal/models"
)

const eventColumns = `e.id, e.title, e.description, e.category, e.date, e.end_date, e.venue,
        e.max_participants, e.hours, e.coordinator_id, e.faculty_in_charge_id, e.status, e.image,
        e.registration_deadline, e.created_at, e.updated_at`

// EventRepository handles persistence of events.
type EventRepository struct {
	db *sqlx.DB
}

// NewEventRepository constructs the repository.
func NewEventRepository(db *sqlx.DB) *EventRepository {
	return &EventRepository{db: db}
}

// List returns events filtered by the provided criteria.
func (r *EventRepository) List(ctx context.Context, filter models.EventFilter) ([]models.EventDetail, int, error) {
	base := `FROM events e LEFT JOIN users u ON u.id = e.coordinator_id`
	var conditions []string
	var args []interface{}

	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("e.status = $%d", len(args)+1))
		args = append(args, filter.Status)
	}
	if filter.Category != "" {
		conditions = append(conditions, fmt.Sprintf("e.category = $%d", len(args)+1))
		args = append(args, filter.Category)
	}
	if filter.From != nil {
		conditions = append(conditions, fmt.Sprintf("e.date >= $%d", len(args)+1))
		args = append(args, *filter.From)
	}
	if filter.To != nil {
		conditions = append(conditions, fmt.Sprintf("e.date < $%d", len(args)+1))
		args = append(args, *filter.To)
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(LOWER(e.title) LIKE $%d OR LOWER(e.venue) LIKE $%d)", len(args)+1, len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}

	clause := ""
	if len(conditions) > 0 {
		clause = " WHERE " + strings.Join(conditions, " AND ")
	}

	allowedSorts := map[string]string{
		"date":       "e.date",
		"title":      "e.title",
		"created_at": "e.created_at",
	}
	sortBy := filter.SortBy
	if sortBy == "" {
		sortBy = "date"
	}
	orderBy := allowedSorts[sortBy]
	if orderBy == "" {
		orderBy = "e.date"
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

	query := fmt.Sprintf(`SELECT %s, u.name AS coordinator_name,
        (SELECT COUNT(*) FROM participations p WHERE p.event_id = e.id) AS registered_count
        %s ORDER BY %s %s LIMIT %d OFFSET %d`, eventColumns, base+clause, orderBy, order, size, offset)

	var events []models.EventDetail
	if err := r.db.SelectContext(ctx, &events, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list events: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base+clause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count events: %w", err)
	}
	return events, total, nil
}

// FindByID returns an event by its ID.
func (r *EventRepository) FindByID(ctx context.Context, id string) (*models.Event, error) {
	query := fmt.Sprintf(`SELECT %s FROM events e WHERE e.id = $1`, eventColumns)
	var event models.Event
	if err := r.db.GetContext(ctx, &event, query, id); err != nil {
		return nil, err
	}
	return &event, nil
}

// FindDetailByID returns an event with coordinator info and registrations.
func (r *EventRepository) FindDetailByID(ctx context.Context, id string) (*models.EventDetail, error) {
	query := fmt.Sprintf(`SELECT %s, u.name AS coordinator_name,
        (SELECT COUNT(*) FROM participations p WHERE p.event_id = e.id) AS registered_count
        FROM events e LEFT JOIN users u ON u.id = e.coordinator_id
        WHERE e.id = $1`, eventColumns)
	var detail models.EventDetail
	if err := r.db.GetContext(ctx, &detail, query, id); err != nil {
		return nil, err
	}
	return &detail, nil
}

// Create persists a new event record.
func (r *EventRepository) Create(ctx context.Context, event *models.Event) error {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if event.CreatedAt.IsZero() {
		event.CreatedAt = now
	}
	event.UpdatedAt = now
	if event.Status == "" {
		event.Status = models.EventStatusUpcoming
	}
	const query = `INSERT INTO events (id, title, description, category, date, end_date, venue,
        max_participants, hours, coordinator_id, faculty_in_charge_id, status, image,
        registration_deadline, created_at, updated_at)
        VALUES (:id, :title, :description, :category, :date, :end_date, :venue,
        :max_participants, :hours, :coordinator_id, :faculty_in_charge_id, :status, :image,
        :registration_deadline, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, event); err != nil {
		return fmt.Errorf("create event: %w", err)
	}
	return nil
}

// Update persists mutable fields of an event.
func (r *EventRepository) Update(ctx context.Context, event *models.Event) error {
	event.UpdatedAt = time.Now().UTC()
	const query = `UPDATE events SET title = :title, description = :description, category = :category,
        date = :date, end_date = :end_date, venue = :venue, max_participants = :max_participants,
        hours = :hours, faculty_in_charge_id = :faculty_in_charge_id, status = :status, image = :image,
        registration_deadline = :registration_deadline, updated_at = :updated_at
        WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, event); err != nil {
		return fmt.Errorf("update event: %w", err)
	}
	return nil
}

// Delete removes an event record.
func (r *EventRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM events WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("delete event: %w", err)
	}
	return nil
}

// CountRegistrations returns the number of participations for an event.
func (r *EventRepository) CountRegistrations(ctx context.Context, eventID string) (int, error) {
	const query = `SELECT COUNT(*) FROM participations WHERE event_id = $1`
	var count int
	if err := r.db.GetContext(ctx, &count, query, eventID); err != nil {
		return 0, fmt.Errorf("count registrations: %w", err)
	}
	return count, nil
}

// MarkCompletedBefore completes events whose end boundary fell before the
// cutoff. Terminal events are never touched.
func (r *EventRepository) MarkCompletedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	const query = `UPDATE events SET status = $1, updated_at = $2
        WHERE status IN ($3, $4) AND COALESCE(end_date, date) < $5`
	res, err := r.db.ExecContext(ctx, query, models.EventStatusCompleted, time.Now().UTC(),
		models.EventStatusUpcoming, models.EventStatusOngoing, cutoff)
	if err != nil {
		return 0, fmt.Errorf("mark events completed: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("mark events completed: %w", err)
	}
	return affected, nil
}

// MarkOngoingBetween moves upcoming events starting within the window to ongoing.
func (r *EventRepository) MarkOngoingBetween(ctx context.Context, from, to time.Time) (int64, error) {
	const query = `UPDATE events SET status = $1, updated_at = $2
        WHERE status = $3 AND date >= $4 AND date < $5`
	res, err := r.db.ExecContext(ctx, query, models.EventStatusOngoing, time.Now().UTC(),
		models.EventStatusUpcoming, from, to)
	if err != nil {
		return 0, fmt.Errorf("mark events ongoing: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("mark events ongoing: %w", err)
	}
	return affected, nil
}

// ListUpcomingBetween returns live events starting within the window, used
// by the reminder scheduler. Multi-day events already running still count.
func (r *EventRepository) ListUpcomingBetween(ctx context.Context, from, to time.Time) ([]models.Event, error) {
	query := fmt.Sprintf(`SELECT %s FROM events e
        WHERE e.status IN ($1, $2) AND e.date >= $3 AND e.date < $4 ORDER BY e.date ASC`, eventColumns)
	var events []models.Event
	if err := r.db.SelectContext(ctx, &events, query, models.EventStatusUpcoming, models.EventStatusOngoing, from, to); err != nil {
		return nil, fmt.Errorf("list upcoming events: %w", err)
	}
	return events, nil
}

// CountAll returns the total number of events.
func (r *EventRepository) CountAll(ctx context.Context) (int, error) {
	const query = `SELECT COUNT(*) FROM events`
	var count int
	if err := r.db.GetContext(ctx, &count, query); err != nil {
		return 0, fmt.Errorf("count events: %w", err)
	}
	return count, nil
}

// CountByStatus returns the number of events in a given status.
func (r *EventRepository) CountByStatus(ctx context.Context, status models.EventStatus) (int, error) {
	const query = `SELECT COUNT(*) FROM events WHERE status = $1`
	var count int
	if err := r.db.GetContext(ctx, &count, query, status); err != nil {
		return 0, fmt.Errorf("count events by status: %w", err)
	}
	return count, nil
}

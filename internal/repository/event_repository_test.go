package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/nss-vignan/nss-portal-api/internal/models"
)

func newRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestEventRepositoryFindByID(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewEventRepository(db)

	rows := sqlmock.NewRows([]string{"id", "title", "description", "category", "date", "end_date", "venue",
		"max_participants", "hours", "coordinator_id", "faculty_in_charge_id", "status", "image",
		"registration_deadline", "created_at", "updated_at"}).
		AddRow("evt-1", "Tree Plantation Drive", "desc", models.CategoryTreePlantation, time.Now(), nil, "Campus Grounds",
			nil, 4.0, "fac-1", nil, models.EventStatusUpcoming, nil, nil, time.Now(), time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("FROM events e WHERE e.id = $1")).
		WithArgs("evt-1").
		WillReturnRows(rows)

	event, err := repo.FindByID(context.Background(), "evt-1")
	require.NoError(t, err)
	require.Equal(t, "Tree Plantation Drive", event.Title)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEventRepositoryMarkCompletedBefore(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewEventRepository(db)

	cutoff := time.Date(2024, time.March, 11, 0, 0, 0, 0, time.UTC)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE events SET status = $1")).
		WithArgs(models.EventStatusCompleted, sqlmock.AnyArg(), models.EventStatusUpcoming, models.EventStatusOngoing, cutoff).
		WillReturnResult(sqlmock.NewResult(0, 3))

	affected, err := repo.MarkCompletedBefore(context.Background(), cutoff)
	require.NoError(t, err)
	require.Equal(t, int64(3), affected)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEventRepositoryMarkOngoingBetween(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewEventRepository(db)

	from := time.Date(2024, time.March, 11, 0, 0, 0, 0, time.UTC)
	to := from.Add(24 * time.Hour)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE events SET status = $1")).
		WithArgs(models.EventStatusOngoing, sqlmock.AnyArg(), models.EventStatusUpcoming, from, to).
		WillReturnResult(sqlmock.NewResult(0, 1))

	affected, err := repo.MarkOngoingBetween(context.Background(), from, to)
	require.NoError(t, err)
	require.Equal(t, int64(1), affected)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEventRepositoryCountRegistrations(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewEventRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM participations WHERE event_id = $1")).
		WithArgs("evt-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(12))

	count, err := repo.CountRegistrations(context.Background(), "evt-1")
	require.NoError(t, err)
	require.Equal(t, 12, count)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEventRepositoryListUpcomingBetween(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewEventRepository(db)

	from := time.Date(2024, time.March, 12, 0, 0, 0, 0, time.UTC)
	to := from.Add(24 * time.Hour)
	rows := sqlmock.NewRows([]string{"id", "title", "description", "category", "date", "end_date", "venue",
		"max_participants", "hours", "coordinator_id", "faculty_in_charge_id", "status", "image",
		"registration_deadline", "created_at", "updated_at"}).
		AddRow("evt-1", "Cleanliness Drive", "desc", models.CategoryCleanliness, from.Add(7*time.Hour), nil, "Ward 12",
			nil, 3.0, "fac-1", nil, models.EventStatusUpcoming, nil, nil, time.Now(), time.Now()).
		AddRow("evt-2", "Health Camp", "desc", models.CategoryAwareness, from.Add(9*time.Hour), nil, "Ward 3",
			nil, 5.0, "fac-1", nil, models.EventStatusOngoing, nil, nil, time.Now(), time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("WHERE e.status IN ($1, $2) AND e.date >= $3 AND e.date < $4")).
		WithArgs(models.EventStatusUpcoming, models.EventStatusOngoing, from, to).
		WillReturnRows(rows)

	events, err := repo.ListUpcomingBetween(context.Background(), from, to)
	require.NoError(t, err)
	require.Len(t, events, 2)
	require.NoError(t, mock.ExpectationsWereMet())
}

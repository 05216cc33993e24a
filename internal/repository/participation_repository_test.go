package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/nss-vignan/nss-portal-api/internal/models"
)

func TestParticipationRepositoryFindByStudentAndEvent(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewParticipationRepository(db)

	rows := sqlmock.NewRows([]string{"id", "event_id", "student_id", "status", "report_text", "photos",
		"hours_contributed", "feedback", "submitted_at", "approved_by", "approved_at", "certificate_issued",
		"created_at", "updated_at"}).
		AddRow("p1", "evt-1", "stu-1", models.ParticipationPending, "", "{}", 0.0, "", time.Now(), nil, nil, false, time.Now(), time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("WHERE p.student_id = $1 AND p.event_id = $2 LIMIT 1")).
		WithArgs("stu-1", "evt-1").
		WillReturnRows(rows)

	participation, err := repo.FindByStudentAndEvent(context.Background(), "stu-1", "evt-1")
	require.NoError(t, err)
	require.Equal(t, models.ParticipationPending, participation.Status)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestParticipationRepositoryUpdateDecision(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewParticipationRepository(db)

	at := time.Date(2024, time.March, 11, 10, 0, 0, 0, time.UTC)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE participations SET status = $2, hours_contributed = $3")).
		WithArgs("p1", models.ParticipationApproved, 6.0, "well done", "fac-1", at).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.UpdateDecision(context.Background(), "p1", models.ParticipationApproved, 6, "well done", "fac-1", at)
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestParticipationRepositoryDelete(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewParticipationRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM participations WHERE id = $1")).
		WithArgs("p1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Delete(context.Background(), "p1"))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestParticipationRepositoryListReminderRecipientsByEvent(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewParticipationRepository(db)

	rows := sqlmock.NewRows([]string{"id", "name", "email", "reminders", "active"}).
		AddRow("stu-1", "Asha", "asha@vignan.ac.in", true, true)
	mock.ExpectQuery(regexp.QuoteMeta("WHERE p.event_id = $1 AND p.status = $2 AND u.reminders = TRUE AND u.active = TRUE")).
		WithArgs("evt-1", models.ParticipationPending).
		WillReturnRows(rows)

	users, err := repo.ListReminderRecipientsByEvent(context.Background(), "evt-1")
	require.NoError(t, err)
	require.Len(t, users, 1)
	require.Equal(t, "asha@vignan.ac.in", users[0].Email)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestParticipationRepositoryCountByStatus(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewParticipationRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM participations WHERE status = $1")).
		WithArgs(models.ParticipationApproved).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(7))

	count, err := repo.CountByStatus(context.Background(), models.ParticipationApproved)
	require.NoError(t, err)
	require.Equal(t, 7, count)
	require.NoError(t, mock.ExpectationsWereMet())
}

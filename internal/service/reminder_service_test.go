package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/nss-vignan/nss-portal-api/internal/models"
)

type mockReminderEvents struct {
	events []models.Event
	from   time.Time
	to     time.Time
}

func (m *mockReminderEvents) ListUpcomingBetween(ctx context.Context, from, to time.Time) ([]models.Event, error) {
	m.from = from
	m.to = to
	return m.events, nil
}

type mockReminderRecipients struct {
	byEvent map[string][]models.User
}

func (m *mockReminderRecipients) ListReminderRecipientsByEvent(ctx context.Context, eventID string) ([]models.User, error) {
	return m.byEvent[eventID], nil
}

type mockReminderNotifier struct {
	sent []string
}

func (m *mockReminderNotifier) NotifyReminder(user models.User, event models.Event) {
	m.sent = append(m.sent, user.Email+"/"+event.ID)
}

func TestReminderServiceDispatchTomorrow(t *testing.T) {
	events := &mockReminderEvents{events: []models.Event{
		{ID: "e1", Title: "Cleanliness Drive", Date: time.Date(2024, time.March, 12, 7, 0, 0, 0, time.UTC)},
	}}
	recipients := &mockReminderRecipients{byEvent: map[string][]models.User{
		"e1": {
			{ID: "s1", Email: "asha@vignan.ac.in"},
			{ID: "s2", Email: "ravi@vignan.ac.in"},
		},
	}}
	notifier := &mockReminderNotifier{}
	svc := NewReminderService(events, recipients, notifier, 9, zap.NewNop())
	svc.now = fixedNow

	require.NoError(t, svc.DispatchTomorrow(context.Background()))

	tomorrow := time.Date(2024, time.March, 12, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, tomorrow, events.from)
	assert.Equal(t, tomorrow.Add(24*time.Hour), events.to)
	assert.ElementsMatch(t, []string{"asha@vignan.ac.in/e1", "ravi@vignan.ac.in/e1"}, notifier.sent)
}

func TestReminderServiceDispatchNoEvents(t *testing.T) {
	events := &mockReminderEvents{}
	notifier := &mockReminderNotifier{}
	svc := NewReminderService(events, &mockReminderRecipients{}, notifier, 9, zap.NewNop())
	svc.now = fixedNow

	require.NoError(t, svc.DispatchTomorrow(context.Background()))
	assert.Empty(t, notifier.sent)
}

func TestReminderServiceUntilNextRun(t *testing.T) {
	svc := NewReminderService(&mockReminderEvents{}, &mockReminderRecipients{}, &mockReminderNotifier{}, 9, zap.NewNop())
	// 10:00, past today's 09:00 run, so the next run is tomorrow morning.
	svc.now = fixedNow

	assert.Equal(t, 23*time.Hour, svc.untilNextRun())
}

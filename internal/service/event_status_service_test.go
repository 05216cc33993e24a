package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type mockStatusRepo struct {
	completedCutoff time.Time
	ongoingFrom     time.Time
	ongoingTo       time.Time
	completeErr     error
}

func (m *mockStatusRepo) MarkCompletedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	if m.completeErr != nil {
		return 0, m.completeErr
	}
	m.completedCutoff = cutoff
	return 2, nil
}

func (m *mockStatusRepo) MarkOngoingBetween(ctx context.Context, from, to time.Time) (int64, error) {
	m.ongoingFrom = from
	m.ongoingTo = to
	return 1, nil
}

func TestEventStatusServiceRecompute(t *testing.T) {
	repo := &mockStatusRepo{}
	svc := NewEventStatusService(repo, time.Hour, zap.NewNop())
	svc.now = fixedNow

	require.NoError(t, svc.Recompute(context.Background()))

	today := time.Date(2024, time.March, 11, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, today, repo.completedCutoff)
	assert.Equal(t, today, repo.ongoingFrom)
	assert.Equal(t, today.Add(24*time.Hour), repo.ongoingTo)
}

func TestEventStatusServiceRecomputeError(t *testing.T) {
	repo := &mockStatusRepo{completeErr: errors.New("db down")}
	svc := NewEventStatusService(repo, time.Hour, zap.NewNop())
	svc.now = fixedNow

	err := svc.Recompute(context.Background())
	require.Error(t, err)
	// The ongoing pass never runs when the completion pass fails.
	assert.True(t, repo.ongoingFrom.IsZero())
}

package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cookseyplate/tipping-system/models"
	"github.com/cookseyplate/tipping-system/squiggle"
)

func newTestScheduler(fetcher squiggle.Fetcher, importRepo *fakeImportRepo) SchedulerService {
	squiggleRepo := newFakeSquiggleRepo()
	gameRepo := newFakeGameRepo()
	roundRepo := newFakeRoundRepo()
	rounds := NewRoundService(roundRepo, gameRepo, testLogger())
	scoring := NewScoringService(newFakeTipRepo(), squiggleRepo, gameRepo, roundRepo, newFakeFinalsRepo(), newFakeWinnerRepo(), testLogger())
	syncService := NewSyncService(fetcher, squiggleRepo, gameRepo, roundRepo, newFakeTeamRepo(), importRepo,
		rounds, scoring, nil, nil, testLogger())
	return NewSchedulerService(syncService, rounds, scoring, importRepo, true, testLogger())
}

func TestIsAFLSeason(t *testing.T) {
	tests := []struct {
		month time.Month
		want  bool
	}{
		{time.January, false},
		{time.February, false},
		{time.March, true},
		{time.June, true},
		{time.September, true},
		{time.October, false},
		{time.December, false},
	}
	for _, tt := range tests {
		now := time.Date(2026, tt.month, 15, 12, 0, 0, 0, time.UTC)
		assert.Equalf(t, tt.want, isAFLSeason(now), "month %s", tt.month)
	}
}

func TestScheduler_Status(t *testing.T) {
	s := newTestScheduler(&fakeFetcher{}, &fakeImportRepo{})

	statuses := s.Status()
	require.Len(t, statuses, 4)

	byID := make(map[string]JobStatus)
	for _, st := range statuses {
		byID[st.ID] = st
	}

	assert.Equal(t, "30m0s", byID[JobLiveScores].Interval)
	assert.True(t, byID[JobLiveScores].SeasonOnly)
	assert.Equal(t, "12h0m0s", byID[JobFullSync].Interval)
	assert.False(t, byID[JobFullSync].SeasonOnly)
	assert.Equal(t, "2h0m0s", byID[JobRoundStatus].Interval)
	assert.Equal(t, "1h0m0s", byID[JobTipCorrectness].Interval)
	assert.True(t, byID[JobTipCorrectness].SeasonOnly)

	for _, st := range statuses {
		assert.Zero(t, st.RunCount)
		assert.Nil(t, st.LastRun)
	}
}

func TestScheduler_TriggerJob(t *testing.T) {
	s := newTestScheduler(&fakeFetcher{}, &fakeImportRepo{})

	err := s.TriggerJob(context.Background(), JobRoundStatus)
	require.NoError(t, err)

	for _, st := range s.Status() {
		if st.ID == JobRoundStatus {
			assert.Equal(t, 1, st.RunCount)
			assert.NotNil(t, st.LastRun)
			assert.Nil(t, st.LastError)
		}
	}
}

func TestScheduler_TriggerJob_Unknown(t *testing.T) {
	s := newTestScheduler(&fakeFetcher{}, &fakeImportRepo{})
	err := s.TriggerJob(context.Background(), "defrag_disk")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestScheduler_TriggerJob_FailureIsRecorded(t *testing.T) {
	importRepo := &fakeImportRepo{}
	s := newTestScheduler(&fakeFetcher{err: errors.New("connection refused")}, importRepo)

	err := s.TriggerJob(context.Background(), JobLiveScores)
	require.Error(t, err)

	for _, st := range s.Status() {
		if st.ID == JobLiveScores {
			assert.Equal(t, 1, st.RunCount)
			require.NotNil(t, st.LastError)
		}
	}

	// One entry from the sync pass itself, one from the scheduler.
	found := false
	for _, entry := range importRepo.entries {
		if entry.ImportType == "scheduler_"+JobLiveScores {
			found = true
			assert.Equal(t, models.ImportStatusError, entry.Status)
		}
	}
	assert.True(t, found, "a failed run must land in the operations log")
}

func TestScheduler_RunAll(t *testing.T) {
	s := newTestScheduler(&fakeFetcher{}, &fakeImportRepo{})

	require.NoError(t, s.RunAll(context.Background()))
	for _, st := range s.Status() {
		assert.Equalf(t, 1, st.RunCount, "job %s", st.ID)
	}
}

func TestScheduler_Enabled(t *testing.T) {
	s := newTestScheduler(&fakeFetcher{}, &fakeImportRepo{})
	assert.True(t, s.Enabled())
	s.SetEnabled(false)
	assert.False(t, s.Enabled())
	s.SetEnabled(true)
	assert.True(t, s.Enabled())
}

func TestScheduler_StartStopsOnCancel(t *testing.T) {
	s := newTestScheduler(&fakeFetcher{}, &fakeImportRepo{})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Start(ctx) }()

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("scheduler did not stop on context cancellation")
	}
}

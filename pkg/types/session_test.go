package types

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransitionSession(t *testing.T) {
	tests := []struct {
		name    string
		from    SessionStatus
		to      SessionStatus
		wantErr error
	}{
		{name: "pending to in_progress", from: SessionPending, to: SessionInProgress},
		{name: "pending to skipped", from: SessionPending, to: SessionSkipped},
		{name: "pending to cancelled", from: SessionPending, to: SessionCancelled},
		{name: "in_progress to completed", from: SessionInProgress, to: SessionCompleted},
		{name: "in_progress to skipped", from: SessionInProgress, to: SessionSkipped},
		{name: "in_progress to cancelled", from: SessionInProgress, to: SessionCancelled},
		{name: "pending to completed is rejected", from: SessionPending, to: SessionCompleted, wantErr: ErrInvalidTransition},
		{name: "in_progress back to pending is rejected", from: SessionInProgress, to: SessionPending, wantErr: ErrInvalidTransition},
		{name: "completed twice is a finished error", from: SessionCompleted, to: SessionCompleted, wantErr: ErrSessionFinished},
		{name: "completed to cancelled is rejected", from: SessionCompleted, to: SessionCancelled, wantErr: ErrInvalidTransition},
		{name: "cancelled to in_progress is rejected", from: SessionCancelled, to: SessionInProgress, wantErr: ErrInvalidTransition},
		{name: "skipped to completed is rejected", from: SessionSkipped, to: SessionCompleted, wantErr: ErrInvalidTransition},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := TransitionSession(tt.from, tt.to)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
			assert.ErrorIs(t, err, ErrState)
		})
	}
}

func TestScheduledSessionLifecycle(t *testing.T) {
	now := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	s := &ScheduledSession{Status: SessionPending, CreatedAt: now.Add(-time.Hour)}

	assert.Equal(t, now.Add(-time.Hour), s.LastActivity())

	require.NoError(t, s.Start(now))
	assert.Equal(t, SessionInProgress, s.Status)
	require.NotNil(t, s.StartedAt)
	assert.Equal(t, now, *s.StartedAt)

	later := now.Add(20 * time.Minute)
	s.Touch(later)
	assert.Equal(t, later, s.LastActivity())

	done := now.Add(time.Hour)
	require.NoError(t, s.Finish(done))
	assert.Equal(t, SessionCompleted, s.Status)
	require.NotNil(t, s.CompletedAt)
	assert.Equal(t, done, *s.CompletedAt)

	err := s.Finish(done.Add(time.Minute))
	assert.ErrorIs(t, err, ErrSessionFinished)
	assert.Equal(t, done, *s.CompletedAt, "second finish must not rewrite completion")

	assert.ErrorIs(t, s.Cancel(done), ErrInvalidTransition)
}

func TestScheduledSessionCancelFromPending(t *testing.T) {
	now := time.Now()
	s := &ScheduledSession{Status: SessionPending}
	require.NoError(t, s.Cancel(now))
	assert.Equal(t, SessionCancelled, s.Status)
	assert.Nil(t, s.CompletedAt)
}

func TestExerciseAssignmentSettle(t *testing.T) {
	tests := []struct {
		name       string
		status     SessionStatus
		series     int
		wantSeries int
		wantErr    error
	}{
		{name: "completed keeps supplied series", status: SessionCompleted, series: 3, wantSeries: 3},
		{name: "skipped forces zero series", status: SessionSkipped, series: 4, wantSeries: 0},
		{name: "cancelled forces zero series", status: SessionCancelled, series: 2, wantSeries: 0},
		{name: "negative series clamps to zero", status: SessionCompleted, series: -1, wantSeries: 0},
		{name: "non terminal status is rejected", status: SessionInProgress, series: 1, wantErr: ErrInvalidExerciseStatus},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := &ExerciseAssignment{Status: SessionInProgress}
			err := a.Settle(tt.status, tt.series)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Equal(t, SessionInProgress, a.Status)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.status, a.Status)
			assert.Equal(t, tt.wantSeries, a.SeriesCompleted)
		})
	}

	t.Run("terminal entry cannot settle again", func(t *testing.T) {
		a := &ExerciseAssignment{Status: SessionSkipped}
		assert.ErrorIs(t, a.Settle(SessionCompleted, 3), ErrInvalidTransition)
	})
}

func TestExerciseAssignmentClose(t *testing.T) {
	tests := []struct {
		name        string
		entry       SessionStatus
		series      int
		session     SessionStatus
		wantStatus  SessionStatus
		wantSeries  int
		wantChanged bool
	}{
		{"finish completes started entry", SessionInProgress, 2, SessionCompleted, SessionCompleted, 2, true},
		{"finish skips untouched entry", SessionPending, 0, SessionCompleted, SessionSkipped, 0, true},
		{"cancel passes down", SessionInProgress, 2, SessionCancelled, SessionCancelled, 0, true},
		{"skip passes down", SessionPending, 0, SessionSkipped, SessionSkipped, 0, true},
		{"terminal entry untouched", SessionCompleted, 3, SessionCancelled, SessionCompleted, 3, false},
		{"open session does nothing", SessionPending, 0, SessionInProgress, SessionPending, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := &ExerciseAssignment{Status: tt.entry, SeriesCompleted: tt.series}
			assert.Equal(t, tt.wantChanged, a.Close(tt.session))
			assert.Equal(t, tt.wantStatus, a.Status)
			assert.Equal(t, tt.wantSeries, a.SeriesCompleted)
		})
	}
}

func TestCheckOrder(t *testing.T) {
	ok := []ExerciseAssignment{{Type: ExerciseMulti}, {Type: ExerciseMulti}, {Type: ExerciseUni}, {Type: ExerciseAnalytic}}
	assert.NoError(t, CheckOrder(ok))

	bad := []ExerciseAssignment{{Type: ExerciseMulti}, {Type: ExerciseAnalytic}, {Type: ExerciseUni}}
	assert.ErrorIs(t, CheckOrder(bad), ErrValidation)
}

func TestActiveSessionError(t *testing.T) {
	var err error = &ActiveSessionError{SessionID: "s-1"}
	assert.ErrorIs(t, err, ErrSessionAlreadyActive)
	assert.ErrorIs(t, err, ErrConflict)
	assert.Contains(t, err.Error(), "s-1")

	var active *ActiveSessionError
	require.True(t, errors.As(err, &active))
	assert.Equal(t, "s-1", active.SessionID)
}

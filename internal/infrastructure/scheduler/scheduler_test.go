package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type funcExecutor func(ctx context.Context, job *Job) error

func (f funcExecutor) Execute(ctx context.Context, job *Job) error {
	return f(ctx, job)
}

func TestParseCronSchedule(t *testing.T) {
	tests := []struct {
		name       string
		cronExpr   string
		wantHour   int
		wantMinute int
		wantErr    bool
	}{
		{"default", "", 3, 0, false},
		{"half past three", "30 3 * * *", 3, 30, false},
		{"midnight", "0 0 * * *", 0, 0, false},
		{"extra whitespace", "  15   4   *   *   *  ", 4, 15, false},
		{"wildcard hour keeps default", "45 * * * *", 3, 45, false},
		{"hour out of range", "0 24 * * *", 3, 0, true},
		{"not a number", "x 2 * * *", 3, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hour, minute, err := ParseCronSchedule(tt.cronExpr)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidSchedule)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.wantHour, hour, "hour mismatch")
			assert.Equal(t, tt.wantMinute, minute, "minute mismatch")
		})
	}
}

func TestJob_Lifecycle(t *testing.T) {
	job := NewJob(nil, 2)
	assert.Equal(t, JobStatusPending, job.Status)
	assert.Equal(t, "all", job.Scope())

	job.Start()
	assert.Equal(t, JobStatusRunning, job.Status)
	assert.NotNil(t, job.StartedAt)

	job.Fail("database unavailable")
	assert.True(t, job.ShouldRetry())

	job.ScheduleRetry(time.Minute)
	assert.Equal(t, 1, job.RetryCount)
	assert.Equal(t, JobStatusPending, job.Status)
	assert.Empty(t, job.Error)
	require.NotNil(t, job.NextRetryAt)

	job.RetryCount = 2
	job.Fail("still down")
	assert.False(t, job.ShouldRetry())

	scoped := NewJob([]uuid.UUID{uuid.New()}, 0)
	assert.Equal(t, "items", scoped.Scope())
}

func TestScheduler_SubmitWhenStopped(t *testing.T) {
	s := NewScheduler(DefaultSchedulerConfig(), funcExecutor(func(context.Context, *Job) error { return nil }), zap.NewNop())

	_, err := s.ScheduleAudit()
	assert.ErrorIs(t, err, ErrSchedulerNotRunning)
	assert.False(t, s.IsRunning())
}

func TestScheduler_RunsSubmittedJobs(t *testing.T) {
	done := make(chan *Job, 1)
	s := NewScheduler(DefaultSchedulerConfig(), funcExecutor(func(_ context.Context, job *Job) error {
		job.Result = &AuditResult{Checked: 3}
		done <- job
		return nil
	}), zap.NewNop())

	require.NoError(t, s.Start(context.Background()))
	t.Cleanup(func() { _ = s.Stop(context.Background()) })

	itemID := uuid.New()
	submitted, err := s.ScheduleAudit(itemID)
	require.NoError(t, err)

	select {
	case job := <-done:
		assert.Equal(t, submitted.ID, job.ID)
		assert.Equal(t, []uuid.UUID{itemID}, job.ItemIDs)
	case <-time.After(2 * time.Second):
		t.Fatal("job was not executed")
	}
}

func TestScheduler_RetriesFailedJobs(t *testing.T) {
	var calls atomic.Int32
	succeeded := make(chan struct{})
	cfg := DefaultSchedulerConfig()
	cfg.RetryDelay = 0

	s := NewScheduler(cfg, funcExecutor(func(context.Context, *Job) error {
		if calls.Add(1) == 1 {
			return errors.New("connection reset")
		}
		close(succeeded)
		return nil
	}), zap.NewNop())

	require.NoError(t, s.Start(context.Background()))
	t.Cleanup(func() { _ = s.Stop(context.Background()) })

	_, err := s.ScheduleAudit()
	require.NoError(t, err)

	select {
	case <-succeeded:
		assert.Equal(t, int32(2), calls.Load())
	case <-time.After(2 * time.Second):
		t.Fatal("job was not retried")
	}
}

func TestCronTrigger_RunsOncePerDay(t *testing.T) {
	var runs atomic.Int32
	s := NewScheduler(DefaultSchedulerConfig(), funcExecutor(func(context.Context, *Job) error {
		runs.Add(1)
		return nil
	}), zap.NewNop())
	require.NoError(t, s.Start(context.Background()))
	t.Cleanup(func() { _ = s.Stop(context.Background()) })

	trigger := NewCronTrigger(CronTriggerConfig{DailyHour: 3, DailyMinute: 30}, s, zap.NewNop())

	assert.False(t, trigger.checkAndTrigger(time.Date(2026, 10, 16, 3, 29, 0, 0, time.UTC)), "too early")
	assert.True(t, trigger.checkAndTrigger(time.Date(2026, 10, 16, 3, 30, 0, 0, time.UTC)))
	assert.False(t, trigger.checkAndTrigger(time.Date(2026, 10, 16, 3, 30, 40, 0, time.UTC)), "same day")
	assert.True(t, trigger.checkAndTrigger(time.Date(2026, 10, 17, 3, 30, 0, 0, time.UTC)), "next day")

	assert.Eventually(t, func() bool { return runs.Load() == 2 }, 2*time.Second, 10*time.Millisecond)
}

package cron

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRecomputer struct {
	mu     sync.Mutex
	dates  []string
	failOn string
}

func (f *fakeRecomputer) RecomputeDate(_ context.Context, date time.Time) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	day := date.Format("2006-01-02")
	f.dates = append(f.dates, day)
	if day == f.failOn {
		return 1, errors.New("summary upsert failed")
	}
	return 2, nil
}

func (f *fakeRecomputer) calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.dates...)
}

func TestAttendanceJobs_RecomputeDailySummaries(t *testing.T) {
	recomputer := &fakeRecomputer{}
	jobs := NewAttendanceJobs(recomputer, time.Hour)
	jobs.now = func() time.Time {
		// 06:30 in Jakarta is still the previous UTC day.
		return time.Date(2024, 1, 16, 6, 30, 0, 0, time.FixedZone("WIB", 7*3600))
	}

	err := jobs.RecomputeDailySummaries(context.Background())

	require.NoError(t, err)
	assert.Equal(t, []string{"2024-01-14", "2024-01-15"}, recomputer.calls())
}

func TestAttendanceJobs_RecomputeDailySummaries_ContinuesAfterFailure(t *testing.T) {
	recomputer := &fakeRecomputer{failOn: "2024-01-14"}
	jobs := NewAttendanceJobs(recomputer, time.Hour)
	jobs.now = func() time.Time { return time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC) }

	err := jobs.RecomputeDailySummaries(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "recompute 2024-01-14")
	assert.Equal(t, []string{"2024-01-14", "2024-01-15"}, recomputer.calls())
}

func TestScheduler_RunJob(t *testing.T) {
	recomputer := &fakeRecomputer{}
	scheduler := NewScheduler()
	NewAttendanceJobs(recomputer, time.Hour).RegisterJobs(scheduler)

	require.NoError(t, scheduler.RunJob(context.Background(), RecomputeDailySummariesJob))
	assert.Len(t, recomputer.calls(), 2)

	assert.Error(t, scheduler.RunJob(context.Background(), "unknown_job"))
}

func TestScheduler_IgnoresNonPositiveInterval(t *testing.T) {
	scheduler := NewScheduler()
	scheduler.AddJob("never", 0, func(ctx context.Context) error { return nil })

	assert.Error(t, scheduler.RunJob(context.Background(), "never"))
}

func TestScheduler_StartRunsImmediatelyAndStops(t *testing.T) {
	ran := make(chan struct{}, 1)
	scheduler := NewScheduler()
	scheduler.AddJob("tick", time.Hour, func(ctx context.Context) error {
		select {
		case ran <- struct{}{}:
		default:
		}
		return nil
	})

	scheduler.Start(context.Background())

	select {
	case <-ran:
	case <-time.After(time.Second):
		t.Fatal("job did not run on start")
	}

	scheduler.Stop()
}

package cron

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

const RecomputeDailySummariesJob = "recompute_daily_summaries"

// SummaryRecomputer rebuilds every stored daily summary of one calendar date.
type SummaryRecomputer interface {
	RecomputeDate(ctx context.Context, date time.Time) (int, error)
}

type AttendanceJobs struct {
	recomputer SummaryRecomputer
	interval   time.Duration
	now        func() time.Time
}

func NewAttendanceJobs(recomputer SummaryRecomputer, interval time.Duration) *AttendanceJobs {
	return &AttendanceJobs{
		recomputer: recomputer,
		interval:   interval,
		now:        time.Now,
	}
}

func (j *AttendanceJobs) RegisterJobs(scheduler *Scheduler) {
	scheduler.AddJob(RecomputeDailySummariesJob, j.interval, j.RecomputeDailySummaries)
}

// RecomputeDailySummaries repairs the summaries of the current and the previous UTC day.
// A failing date does not stop the other.
func (j *AttendanceJobs) RecomputeDailySummaries(ctx context.Context) error {
	today := j.now().UTC()
	dates := []time.Time{today.AddDate(0, 0, -1), today}

	slog.Info("Cron: Starting recompute daily summaries job")

	var errs []error
	total := 0
	for _, date := range dates {
		count, err := j.recomputer.RecomputeDate(ctx, date)
		total += count
		if err != nil {
			errs = append(errs, fmt.Errorf("recompute %s: %w", date.Format("2006-01-02"), err))
		}
	}

	slog.Info("Cron: Recomputed daily summaries", "count", total)
	return errors.Join(errs...)
}

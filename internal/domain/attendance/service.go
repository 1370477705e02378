package attendance

import (
	"context"
	"time"
)

// AttendanceService is the command layer around the validation engine.
type AttendanceService interface {
	// SubmitCheckEvent validates and stores one check-in or check-out and refreshes the day's summary.
	// Location and time failures are returned as a stored event with an INVALID_* outcome, not as an error.
	SubmitCheckEvent(ctx context.Context, req SubmitCheckEventRequest) (CheckEventResponse, error)

	// GetCheckInStatus reports whether the employee may check in or out on the given day.
	GetCheckInStatus(ctx context.Context, req DayRequest) (CheckInStatusResponse, error)

	// ListDayEvents returns the day's events oldest first.
	ListDayEvents(ctx context.Context, req DayRequest) ([]CheckEventResponse, error)

	GetDailySummary(ctx context.Context, req DayRequest) (DailySummaryResponse, error)

	// RecomputeDailySummary rebuilds and stores the summary from the stored events.
	RecomputeDailySummary(ctx context.Context, req DayRequest) (DailySummaryResponse, error)

	ListDailySummaries(ctx context.Context, filter SummaryFilter) (ListDailySummaryResponse, error)

	GetStats(ctx context.Context, filter StatsFilter) (StatsResponse, error)

	// GetOvertimeReport measures each present day against the standard working day.
	GetOvertimeReport(ctx context.Context, filter StatsFilter) (OvertimeReportResponse, error)

	// RecomputeDate rebuilds the summary of every key with events on date and returns how many were written.
	RecomputeDate(ctx context.Context, date time.Time) (int, error)
}

package attendance

import (
	"slices"
	"time"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/attendance"
	"github.com/shopspring/decimal"
)

var secondsPerHour = decimal.NewFromInt(3600)

// Recompute derives the daily summary of one employee, group and date from all events
// submitted for that key. Invalid events are counted but never open or close a session.
// The result depends only on the arguments.
func Recompute(employeeID, groupID string, date time.Time, events []attendance.CheckEvent) attendance.DailySummary {
	sorted := sortedByTimestamp(events)

	summary := attendance.DailySummary{
		EmployeeID:       employeeID,
		GroupID:          groupID,
		Date:             attendance.CalendarDate(date),
		TotalHoursWorked: decimal.Zero,
		TotalEventCount:  len(sorted),
	}

	for _, ev := range sorted {
		if !ev.IsValid() {
			continue
		}
		id := ev.ID
		switch ev.Type {
		case attendance.EventTypeIn:
			if summary.FirstCheckInID == nil {
				summary.FirstCheckInID = &id
			}
			summary.IsPresent = true
			if ev.Outcome == attendance.OutcomeLate {
				summary.IsLate = true
			}
		case attendance.EventTypeOut:
			summary.LastCheckOutID = &id
		}
	}

	var worked time.Duration
	walkSessions(sorted, func(in, out attendance.CheckEvent) {
		worked += out.Timestamp.Sub(in.Timestamp)
	})
	summary.TotalHoursWorked = decimal.NewFromInt(int64(worked / time.Second)).
		Div(secondsPerHour).
		Round(2)

	return summary
}

// walkSessions pairs valid check-ins with later valid check-outs first-to-first and
// returns the check-ins left open. events must be ordered by timestamp.
func walkSessions(events []attendance.CheckEvent, onPair func(in, out attendance.CheckEvent)) []attendance.CheckEvent {
	var pending []attendance.CheckEvent
	for _, ev := range events {
		if !ev.IsValid() {
			continue
		}
		switch ev.Type {
		case attendance.EventTypeIn:
			pending = append(pending, ev)
		case attendance.EventTypeOut:
			if len(pending) == 0 {
				continue
			}
			if onPair != nil {
				onPair(pending[0], ev)
			}
			pending = pending[1:]
		}
	}
	return pending
}

func sortedByTimestamp(events []attendance.CheckEvent) []attendance.CheckEvent {
	sorted := slices.Clone(events)
	slices.SortStableFunc(sorted, func(a, b attendance.CheckEvent) int {
		return a.Timestamp.Compare(b.Timestamp)
	})
	return sorted
}

package attendance

import (
	"time"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/attendance"
)

const (
	// earlyArrivalMinutes is the courtesy margin before start_time that still counts as on time.
	earlyArrivalMinutes = 5
	// lateCheckoutMinutes is how long after end_time a check-out stays on time.
	lateCheckoutMinutes = 60
)

// Resolve picks the window that applies at the local time at. Windows are matched on
// weekday and on the interval [start - lateGrace, end]; the lower bound does not wrap
// into the previous day. Among several matches the earliest start wins, then the lowest ID.
func Resolve(windows []attendance.ShiftWindow, at time.Time) (attendance.ShiftWindow, bool) {
	weekday := attendance.ISOWeekday(at)
	clock := attendance.ClockOf(at)

	var (
		best  attendance.ShiftWindow
		found bool
	)
	for _, w := range windows {
		if !w.Active || !w.AppliesOn(weekday) {
			continue
		}
		if clock < checkInOpensAt(w) || clock > w.EndTime {
			continue
		}
		if !found || w.StartTime < best.StartTime || (w.StartTime == best.StartTime && w.ID < best.ID) {
			best = w
			found = true
		}
	}
	return best, found
}

// ClassifyTimeliness grades an event against a window it was resolved to.
func ClassifyTimeliness(w attendance.ShiftWindow, at time.Time, eventType attendance.EventType) attendance.Outcome {
	clock := attendance.ClockOf(at)

	switch eventType {
	case attendance.EventTypeIn:
		if clock > w.StartTime.AddMinutes(w.LateGraceMinutes) {
			return attendance.OutcomeLate
		}
		if clock < w.StartTime.AddMinutes(-earlyArrivalMinutes) {
			return attendance.OutcomeEarly
		}
		return attendance.OutcomeOnTime
	case attendance.EventTypeOut:
		if clock < w.EndTime.AddMinutes(-w.EarlyGraceMinutes) {
			return attendance.OutcomeEarly
		}
		if clock > w.EndTime.AddMinutes(lateCheckoutMinutes) {
			return attendance.OutcomeLate
		}
		return attendance.OutcomeOnTime
	default:
		return attendance.OutcomeInvalidTime
	}
}

// withinGraceBounds reports whether at falls inside [start - lateGrace, end + earlyGrace].
func withinGraceBounds(w attendance.ShiftWindow, at time.Time) bool {
	clock := attendance.ClockOf(at)
	return clock >= checkInOpensAt(w) && clock <= w.EndTime.AddMinutes(w.EarlyGraceMinutes)
}

func checkInOpensAt(w attendance.ShiftWindow) attendance.TimeOfDay {
	opens := w.StartTime.AddMinutes(-w.LateGraceMinutes)
	if opens < 0 {
		return 0
	}
	return opens
}

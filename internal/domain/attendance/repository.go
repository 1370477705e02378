package attendance

import (
	"context"
	"time"
)

// GroupRepository reads the configuration of attendance groups.
type GroupRepository interface {
	// GetGeoFencedLocation returns ErrGroupNotFound when the group is missing or inactive.
	GetGeoFencedLocation(ctx context.Context, groupID string) (GeoFencedLocation, error)

	// GetActiveShiftWindows returns the group's active windows ordered by start time.
	GetActiveShiftWindows(ctx context.Context, groupID string) ([]ShiftWindow, error)
}

// CheckEventRepository stores submitted check events.
type CheckEventRepository interface {
	Create(ctx context.Context, event CheckEvent) (CheckEvent, error)

	// GetEventsForDay returns the events of one employee, group and local date, oldest first.
	GetEventsForDay(ctx context.Context, employeeID, groupID string, date time.Time) ([]CheckEvent, error)

	// ListKeysForDate returns every (employee, group) pair with at least one event on date.
	ListKeysForDate(ctx context.Context, date time.Time) ([]DayKey, error)

	// CountByType counts the group's events between start and end inclusive, per event type.
	// Types without events are absent from the map.
	CountByType(ctx context.Context, groupID string, start, end time.Time) (map[EventType]int, error)

	// LockDay serializes writers of the same (employee, group, date) until the surrounding
	// transaction ends. It must be called inside a transaction.
	LockDay(ctx context.Context, key DayKey) error
}

// DailySummaryRepository stores derived daily summaries.
type DailySummaryRepository interface {
	Upsert(ctx context.Context, summary DailySummary) (DailySummary, error)
	Get(ctx context.Context, key DayKey) (DailySummary, error)
	List(ctx context.Context, filter SummaryFilter) ([]DailySummary, int64, error)

	// ListForGroup returns every summary of the group between start and end inclusive.
	ListForGroup(ctx context.Context, groupID string, start, end time.Time) ([]DailySummary, error)
}

// DayKey identifies one employee's attendance day in one group.
type DayKey struct {
	EmployeeID string
	GroupID    string
	Date       time.Time
}

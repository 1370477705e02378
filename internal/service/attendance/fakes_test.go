package attendance

import (
	"context"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/attendance"
)

type stubClock struct {
	now time.Time
}

func (s stubClock) Now() time.Time {
	return s.now
}

type fakeGroupRepo struct {
	locations map[string]attendance.GeoFencedLocation
	windows   map[string][]attendance.ShiftWindow
	err       error
}

func newFakeGroupRepo() *fakeGroupRepo {
	return &fakeGroupRepo{
		locations: make(map[string]attendance.GeoFencedLocation),
		windows:   make(map[string][]attendance.ShiftWindow),
	}
}

func (r *fakeGroupRepo) GetGeoFencedLocation(_ context.Context, groupID string) (attendance.GeoFencedLocation, error) {
	if r.err != nil {
		return attendance.GeoFencedLocation{}, r.err
	}
	location, ok := r.locations[groupID]
	if !ok {
		return attendance.GeoFencedLocation{}, attendance.ErrGroupNotFound
	}
	return location, nil
}

func (r *fakeGroupRepo) GetActiveShiftWindows(_ context.Context, groupID string) ([]attendance.ShiftWindow, error) {
	if r.err != nil {
		return nil, r.err
	}
	var active []attendance.ShiftWindow
	for _, w := range r.windows[groupID] {
		if w.Active {
			active = append(active, w)
		}
	}
	return active, nil
}

type fakeEventRepo struct {
	events    []attendance.CheckEvent
	locked    []attendance.DayKey
	createErr error
	lockErr   error
}

func (r *fakeEventRepo) Create(_ context.Context, event attendance.CheckEvent) (attendance.CheckEvent, error) {
	if r.createErr != nil {
		return attendance.CheckEvent{}, r.createErr
	}
	event.CreatedAt = event.Timestamp
	r.events = append(r.events, event)
	return event, nil
}

func (r *fakeEventRepo) GetEventsForDay(_ context.Context, employeeID, groupID string, date time.Time) ([]attendance.CheckEvent, error) {
	var out []attendance.CheckEvent
	for _, ev := range r.events {
		if ev.EmployeeID == employeeID && ev.GroupID == groupID && ev.Date.Equal(attendance.CalendarDate(date)) {
			out = append(out, ev)
		}
	}
	return sortedByTimestamp(out), nil
}

func (r *fakeEventRepo) ListKeysForDate(_ context.Context, date time.Time) ([]attendance.DayKey, error) {
	seen := make(map[attendance.DayKey]bool)
	var keys []attendance.DayKey
	for _, ev := range r.events {
		if !ev.Date.Equal(attendance.CalendarDate(date)) {
			continue
		}
		key := attendance.DayKey{EmployeeID: ev.EmployeeID, GroupID: ev.GroupID, Date: ev.Date}
		if !seen[key] {
			seen[key] = true
			keys = append(keys, key)
		}
	}
	return keys, nil
}

func (r *fakeEventRepo) CountByType(_ context.Context, groupID string, start, end time.Time) (map[attendance.EventType]int, error) {
	counts := make(map[attendance.EventType]int)
	for _, ev := range r.events {
		if ev.GroupID == groupID && !ev.Date.Before(attendance.CalendarDate(start)) && !ev.Date.After(attendance.CalendarDate(end)) {
			counts[ev.Type]++
		}
	}
	return counts, nil
}

func (r *fakeEventRepo) LockDay(_ context.Context, key attendance.DayKey) error {
	if r.lockErr != nil {
		return r.lockErr
	}
	r.locked = append(r.locked, key)
	return nil
}

type fakeSummaryRepo struct {
	summaries map[string]attendance.DailySummary
	upserts   int
}

func newFakeSummaryRepo() *fakeSummaryRepo {
	return &fakeSummaryRepo{summaries: make(map[string]attendance.DailySummary)}
}

func summaryKey(employeeID, groupID string, date time.Time) string {
	return strings.Join([]string{employeeID, groupID, date.Format("2006-01-02")}, "|")
}

func (r *fakeSummaryRepo) Upsert(_ context.Context, summary attendance.DailySummary) (attendance.DailySummary, error) {
	r.upserts++
	r.summaries[summaryKey(summary.EmployeeID, summary.GroupID, summary.Date)] = summary
	return summary, nil
}

func (r *fakeSummaryRepo) Get(_ context.Context, key attendance.DayKey) (attendance.DailySummary, error) {
	summary, ok := r.summaries[summaryKey(key.EmployeeID, key.GroupID, key.Date)]
	if !ok {
		return attendance.DailySummary{}, attendance.ErrSummaryNotFound
	}
	return summary, nil
}

func (r *fakeSummaryRepo) sorted() []attendance.DailySummary {
	keys := slices.Sorted(maps.Keys(r.summaries))
	out := make([]attendance.DailySummary, 0, len(keys))
	for _, k := range keys {
		out = append(out, r.summaries[k])
	}
	return out
}

func (r *fakeSummaryRepo) List(_ context.Context, filter attendance.SummaryFilter) ([]attendance.DailySummary, int64, error) {
	var matched []attendance.DailySummary
	for _, s := range r.sorted() {
		if filter.GroupID != nil && s.GroupID != *filter.GroupID {
			continue
		}
		if filter.EmployeeID != nil && s.EmployeeID != *filter.EmployeeID {
			continue
		}
		matched = append(matched, s)
	}

	start := min((filter.Page-1)*filter.Limit, len(matched))
	end := min(start+filter.Limit, len(matched))
	return matched[start:end], int64(len(matched)), nil
}

func (r *fakeSummaryRepo) ListForGroup(_ context.Context, groupID string, start, end time.Time) ([]attendance.DailySummary, error) {
	var out []attendance.DailySummary
	for _, s := range r.sorted() {
		if s.GroupID == groupID && !s.Date.Before(start) && !s.Date.After(end) {
			out = append(out, s)
		}
	}
	return out, nil
}

// fakeTransactor restores both repositories when fn fails.
type fakeTransactor struct {
	events    *fakeEventRepo
	summaries *fakeSummaryRepo
	calls     int
}

func (f *fakeTransactor) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	f.calls++
	events := slices.Clone(f.events.events)
	summaries := maps.Clone(f.summaries.summaries)

	if err := fn(ctx); err != nil {
		f.events.events = events
		f.summaries.summaries = summaries
		return err
	}
	return nil
}

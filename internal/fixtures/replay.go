package fixtures

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/attendance"
	service "github.com/cmlabs-hris/attendance-engine/internal/service/attendance"
	"github.com/shopspring/decimal"
)

// Decision is the outcome of one replayed event. Error is set when the event was refused
// before evaluation, e.g. for an out-of-range coordinate.
type Decision struct {
	Index          int     `json:"index"`
	EventID        string  `json:"event_id,omitempty"`
	EmployeeID     string  `json:"employee_id"`
	Type           string  `json:"type"`
	Timestamp      string  `json:"timestamp"`
	Date           string  `json:"date,omitempty"`
	Outcome        string  `json:"outcome,omitempty"`
	Accepted       bool    `json:"accepted"`
	Reason         string  `json:"reason,omitempty"`
	WindowID       *string `json:"window_id,omitempty"`
	DistanceMeters float64 `json:"distance_meters"`
	Error          string  `json:"error,omitempty"`
}

type Summary struct {
	EmployeeID       string          `json:"employee_id"`
	Date             string          `json:"date"`
	FirstCheckInID   *string         `json:"first_check_in_id,omitempty"`
	LastCheckOutID   *string         `json:"last_check_out_id,omitempty"`
	TotalHoursWorked decimal.Decimal `json:"total_hours_worked"`
	TotalEventCount  int             `json:"total_event_count"`
	IsPresent        bool            `json:"is_present"`
	IsLate           bool            `json:"is_late"`
}

type Report struct {
	GroupID   string     `json:"group_id"`
	Timezone  string     `json:"timezone"`
	Decisions []Decision `json:"decisions"`
	Summaries []Summary  `json:"summaries"`
}

// Options tune a replay the way the service configuration tunes live submissions.
type Options struct {
	// DefaultZone applies to groups without a time zone. Nil means UTC.
	DefaultZone           *time.Location
	AllowMultipleSessions bool
}

// Replay evaluates the fixture's events in order against its group, keeping every decided
// event so later events see the same day history a live submission would, then aggregates
// each employee's days. A check-in blocked by an earlier one is refused with
// attendance.ErrAlreadyCheckedIn and not stored, as in the service.
func Replay(ctx context.Context, fixture GroupFixture, opts Options) (Report, error) {
	windows, err := fixture.ShiftWindows()
	if err != nil {
		return Report{}, err
	}

	groups := &groupStore{location: fixture.Group, windows: windows}
	events := newEventStore()
	processor := service.NewProcessor(groups, events, opts.DefaultZone)

	group, err := processor.LoadGroup(ctx, fixture.Group.GroupID)
	if err != nil {
		return Report{}, err
	}

	report := Report{
		GroupID:   fixture.Group.GroupID,
		Timezone:  group.Zone.String(),
		Decisions: make([]Decision, 0, len(fixture.Events)),
	}

	for i, ev := range fixture.Events {
		decision := Decision{
			Index:      i,
			EmployeeID: ev.EmployeeID,
			Type:       strings.ToUpper(ev.Type),
			Timestamp:  ev.At.UTC().Format(time.RFC3339),
		}

		if attendance.EventType(decision.Type) == attendance.EventTypeIn {
			dayEvents, err := events.GetEventsForDay(ctx, ev.EmployeeID, fixture.Group.GroupID, group.LocalDate(ev.At))
			if err != nil {
				return Report{}, err
			}
			if err := service.CheckDuplicateCheckIn(dayEvents, opts.AllowMultipleSessions); err != nil {
				decision.Error = err.Error()
				report.Decisions = append(report.Decisions, decision)
				continue
			}
		}

		event, err := processor.Submit(ctx, service.SubmitInput{
			EmployeeID: ev.EmployeeID,
			GroupID:    fixture.Group.GroupID,
			Type:       attendance.EventType(decision.Type),
			Coordinate: attendance.Coordinate{Latitude: ev.Latitude, Longitude: ev.Longitude},
			Timestamp:  ev.At,
			Notes:      ev.Notes,
		})
		if err != nil {
			decision.Error = err.Error()
			report.Decisions = append(report.Decisions, decision)
			continue
		}

		if _, err := events.Create(ctx, event); err != nil {
			return Report{}, err
		}

		decision.EventID = event.ID
		decision.Date = event.Date.Format("2006-01-02")
		decision.Outcome = string(event.Outcome)
		decision.Accepted = event.IsValid()
		decision.Reason = event.Outcome.Reason()
		decision.WindowID = event.WindowID
		decision.DistanceMeters = event.DistanceMeters
		report.Decisions = append(report.Decisions, decision)
	}

	for _, key := range events.keys() {
		dayEvents, err := events.GetEventsForDay(ctx, key.EmployeeID, key.GroupID, key.Date)
		if err != nil {
			return Report{}, err
		}
		s := service.Recompute(key.EmployeeID, key.GroupID, key.Date, dayEvents)
		report.Summaries = append(report.Summaries, Summary{
			EmployeeID:       s.EmployeeID,
			Date:             s.Date.Format("2006-01-02"),
			FirstCheckInID:   s.FirstCheckInID,
			LastCheckOutID:   s.LastCheckOutID,
			TotalHoursWorked: s.TotalHoursWorked,
			TotalEventCount:  s.TotalEventCount,
			IsPresent:        s.IsPresent,
			IsLate:           s.IsLate,
		})
	}

	return report, nil
}

// groupStore serves a single fixture group.
type groupStore struct {
	location attendance.GeoFencedLocation
	windows  []attendance.ShiftWindow
}

func (s *groupStore) GetGeoFencedLocation(_ context.Context, groupID string) (attendance.GeoFencedLocation, error) {
	if groupID != s.location.GroupID {
		return attendance.GeoFencedLocation{}, attendance.ErrGroupNotFound
	}
	return s.location, nil
}

func (s *groupStore) GetActiveShiftWindows(_ context.Context, groupID string) ([]attendance.ShiftWindow, error) {
	if groupID != s.location.GroupID {
		return nil, attendance.ErrGroupNotFound
	}
	var active []attendance.ShiftWindow
	for _, w := range s.windows {
		if w.Active {
			active = append(active, w)
		}
	}
	return active, nil
}

// eventStore keeps replayed events in memory, grouped by day key.
type eventStore struct {
	mu     sync.Mutex
	byDay  map[attendance.DayKey][]attendance.CheckEvent
	sorted []attendance.DayKey
}

func newEventStore() *eventStore {
	return &eventStore{byDay: make(map[attendance.DayKey][]attendance.CheckEvent)}
}

func dayKey(employeeID, groupID string, date time.Time) attendance.DayKey {
	return attendance.DayKey{EmployeeID: employeeID, GroupID: groupID, Date: attendance.CalendarDate(date)}
}

func (s *eventStore) Create(_ context.Context, event attendance.CheckEvent) (attendance.CheckEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := dayKey(event.EmployeeID, event.GroupID, event.Date)
	if _, ok := s.byDay[key]; !ok {
		s.sorted = append(s.sorted, key)
	}
	event.CreatedAt = event.Timestamp
	s.byDay[key] = append(s.byDay[key], event)
	return event, nil
}

func (s *eventStore) GetEventsForDay(_ context.Context, employeeID, groupID string, date time.Time) ([]attendance.CheckEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	events := slices.Clone(s.byDay[dayKey(employeeID, groupID, date)])
	slices.SortStableFunc(events, func(a, b attendance.CheckEvent) int {
		return a.Timestamp.Compare(b.Timestamp)
	})
	return events, nil
}

func (s *eventStore) ListKeysForDate(_ context.Context, date time.Time) ([]attendance.DayKey, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	day := attendance.CalendarDate(date)
	var keys []attendance.DayKey
	for _, key := range s.sorted {
		if key.Date.Equal(day) {
			keys = append(keys, key)
		}
	}
	return keys, nil
}

func (s *eventStore) CountByType(_ context.Context, groupID string, start, end time.Time) (map[attendance.EventType]int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	from, to := attendance.CalendarDate(start), attendance.CalendarDate(end)
	counts := make(map[attendance.EventType]int)
	for key, events := range s.byDay {
		if key.GroupID != groupID || key.Date.Before(from) || key.Date.After(to) {
			continue
		}
		for _, ev := range events {
			counts[ev.Type]++
		}
	}
	return counts, nil
}

func (s *eventStore) LockDay(context.Context, attendance.DayKey) error {
	return nil
}

// keys returns every day key ordered by employee then date.
func (s *eventStore) keys() []attendance.DayKey {
	s.mu.Lock()
	defer s.mu.Unlock()

	keys := slices.Clone(s.sorted)
	slices.SortFunc(keys, func(a, b attendance.DayKey) int {
		if c := strings.Compare(a.EmployeeID, b.EmployeeID); c != 0 {
			return c
		}
		return a.Date.Compare(b.Date)
	})
	return keys
}

var (
	_ attendance.GroupRepository      = (*groupStore)(nil)
	_ attendance.CheckEventRepository = (*eventStore)(nil)
)

func (d Decision) String() string {
	if d.Error != "" {
		return fmt.Sprintf("#%d %s %s %s: error: %s", d.Index, d.EmployeeID, d.Type, d.Timestamp, d.Error)
	}
	return fmt.Sprintf("#%d %s %s %s: %s", d.Index, d.EmployeeID, d.Type, d.Timestamp, d.Outcome)
}

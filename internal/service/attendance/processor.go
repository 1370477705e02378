package attendance

import (
	"context"
	"fmt"
	"time"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/attendance"
	"github.com/google/uuid"
)

// Group is the validated configuration of one attendance group.
type Group struct {
	Location attendance.GeoFencedLocation
	Windows  []attendance.ShiftWindow
	Zone     *time.Location
}

// LocalDate is the group's calendar day of t.
func (g Group) LocalDate(t time.Time) time.Time {
	return attendance.CalendarDate(t.In(g.Zone))
}

// SubmitInput is one raw check event as received from a device.
type SubmitInput struct {
	EmployeeID string
	GroupID    string
	Type       attendance.EventType
	Coordinate attendance.Coordinate
	Timestamp  time.Time
	Notes      string
	IPAddress  *string
	UserAgent  string
}

// EvaluateInput carries everything the validation needs, with no storage behind it.
type EvaluateInput struct {
	Location   attendance.GeoFencedLocation
	Windows    []attendance.ShiftWindow
	Zone       *time.Location
	Type       attendance.EventType
	Coordinate attendance.Coordinate
	Timestamp  time.Time

	// AnchorWindowID pins a check-out to the window of the check-in it closes.
	AnchorWindowID *string
}

// Processor validates check events against a group's geofence and shift windows.
type Processor struct {
	groups      attendance.GroupRepository
	events      attendance.CheckEventRepository
	defaultZone *time.Location
	newID       func() (uuid.UUID, error)
}

func NewProcessor(groups attendance.GroupRepository, events attendance.CheckEventRepository, defaultZone *time.Location) *Processor {
	if defaultZone == nil {
		defaultZone = time.UTC
	}
	return &Processor{
		groups:      groups,
		events:      events,
		defaultZone: defaultZone,
		newID:       uuid.NewV7,
	}
}

// LoadGroup reads and validates the group's location and active windows.
func (p *Processor) LoadGroup(ctx context.Context, groupID string) (Group, error) {
	location, err := p.groups.GetGeoFencedLocation(ctx, groupID)
	if err != nil {
		return Group{}, fmt.Errorf("failed to get geofenced location: %w", err)
	}
	if err := location.Validate(); err != nil {
		return Group{}, err
	}

	windows, err := p.groups.GetActiveShiftWindows(ctx, groupID)
	if err != nil {
		return Group{}, fmt.Errorf("failed to get shift windows: %w", err)
	}
	if len(windows) == 0 {
		return Group{}, fmt.Errorf("%w: %s", attendance.ErrNoShiftWindows, groupID)
	}
	for _, w := range windows {
		if err := w.Validate(); err != nil {
			return Group{}, err
		}
	}

	return Group{
		Location: location,
		Windows:  windows,
		Zone:     p.zoneOf(location),
	}, nil
}

func (p *Processor) zoneOf(location attendance.GeoFencedLocation) *time.Location {
	if location.Timezone == "" {
		return p.defaultZone
	}
	zone, err := time.LoadLocation(location.Timezone)
	if err != nil {
		return p.defaultZone
	}
	return zone
}

// Submit validates one event against the group's current configuration and the employee's
// events of the same day. The returned event carries a fresh ID and is not yet stored.
func (p *Processor) Submit(ctx context.Context, in SubmitInput) (attendance.CheckEvent, error) {
	if err := in.Coordinate.Validate(); err != nil {
		return attendance.CheckEvent{}, err
	}

	group, err := p.LoadGroup(ctx, in.GroupID)
	if err != nil {
		return attendance.CheckEvent{}, err
	}

	dayEvents, err := p.events.GetEventsForDay(ctx, in.EmployeeID, in.GroupID, group.LocalDate(in.Timestamp))
	if err != nil {
		return attendance.CheckEvent{}, fmt.Errorf("failed to get events for day: %w", err)
	}

	return p.Decide(group, in, dayEvents)
}

// Decide is Submit for a group and day that the caller has already loaded.
func (p *Processor) Decide(group Group, in SubmitInput, dayEvents []attendance.CheckEvent) (attendance.CheckEvent, error) {
	if _, err := attendance.ParseEventType(string(in.Type)); err != nil {
		return attendance.CheckEvent{}, err
	}
	if err := in.Coordinate.Validate(); err != nil {
		return attendance.CheckEvent{}, err
	}

	var anchor *string
	if in.Type == attendance.EventTypeOut {
		if open, ok := firstOpenCheckIn(dayEvents); ok {
			anchor = open.WindowID
		}
	}

	event := Evaluate(EvaluateInput{
		Location:       group.Location,
		Windows:        group.Windows,
		Zone:           group.Zone,
		Type:           in.Type,
		Coordinate:     in.Coordinate,
		Timestamp:      in.Timestamp,
		AnchorWindowID: anchor,
	})

	id, err := p.newID()
	if err != nil {
		return attendance.CheckEvent{}, fmt.Errorf("failed to generate event id: %w", err)
	}
	event.ID = id.String()
	event.EmployeeID = in.EmployeeID
	event.Notes = in.Notes
	event.IPAddress = in.IPAddress
	event.UserAgent = in.UserAgent

	return event, nil
}

// Evaluate decides the outcome of a single event. Location is checked first; an event outside
// the fence is never matched to a window.
func Evaluate(in EvaluateInput) attendance.CheckEvent {
	zone := in.Zone
	if zone == nil {
		zone = time.UTC
	}
	local := in.Timestamp.In(zone)

	event := attendance.CheckEvent{
		GroupID:        in.Location.GroupID,
		Timestamp:      in.Timestamp.UTC(),
		Date:           attendance.CalendarDate(local),
		Coordinate:     in.Coordinate,
		Type:           in.Type,
		DistanceMeters: DistanceMeters(in.Location.Center, in.Coordinate),
	}

	if !IsWithin(in.Location, in.Coordinate) {
		event.Outcome = attendance.OutcomeInvalidLocation
		return event
	}

	window, ok := anchoredWindow(in.Windows, in.AnchorWindowID, local)
	if !ok {
		window, ok = Resolve(in.Windows, local)
	}
	if !ok {
		event.Outcome = attendance.OutcomeInvalidTime
		return event
	}

	windowID := window.ID
	event.WindowID = &windowID
	event.Outcome = ClassifyTimeliness(window, local, in.Type)
	if !withinGraceBounds(window, local) {
		event.Outcome = attendance.OutcomeInvalidTime
	}

	return event
}

// anchoredWindow returns the window with the given ID if it is still active and scheduled on
// the weekday of at.
func anchoredWindow(windows []attendance.ShiftWindow, id *string, at time.Time) (attendance.ShiftWindow, bool) {
	if id == nil {
		return attendance.ShiftWindow{}, false
	}
	weekday := attendance.ISOWeekday(at)
	for _, w := range windows {
		if w.ID == *id && w.Active && w.AppliesOn(weekday) {
			return w, true
		}
	}
	return attendance.ShiftWindow{}, false
}

// HasOpenCheckIn reports whether the employee has a valid check-in on date that no valid
// check-out has closed yet.
func (p *Processor) HasOpenCheckIn(ctx context.Context, employeeID, groupID string, date time.Time) (bool, error) {
	events, err := p.events.GetEventsForDay(ctx, employeeID, groupID, attendance.CalendarDate(date))
	if err != nil {
		return false, fmt.Errorf("failed to get events for day: %w", err)
	}
	_, open := firstOpenCheckIn(events)
	return open, nil
}

// HasCheckedIn reports whether the employee has any valid check-in on date.
func (p *Processor) HasCheckedIn(ctx context.Context, employeeID, groupID string, date time.Time) (bool, error) {
	events, err := p.events.GetEventsForDay(ctx, employeeID, groupID, attendance.CalendarDate(date))
	if err != nil {
		return false, fmt.Errorf("failed to get events for day: %w", err)
	}
	return hasValidCheckIn(events), nil
}

// CheckDuplicateCheckIn rejects a new check-in when the day already has one that blocks it:
// any valid check-in in single-session mode, only an open one when multiple sessions are allowed.
func CheckDuplicateCheckIn(dayEvents []attendance.CheckEvent, allowMultipleSessions bool) error {
	if allowMultipleSessions {
		if _, open := firstOpenCheckIn(dayEvents); open {
			return attendance.ErrAlreadyCheckedIn
		}
		return nil
	}
	if hasValidCheckIn(dayEvents) {
		return attendance.ErrAlreadyCheckedIn
	}
	return nil
}

// firstOpenCheckIn returns the check-in the next valid check-out would close.
func firstOpenCheckIn(events []attendance.CheckEvent) (attendance.CheckEvent, bool) {
	pending := walkSessions(sortedByTimestamp(events), nil)
	if len(pending) == 0 {
		return attendance.CheckEvent{}, false
	}
	return pending[0], true
}

func hasValidCheckIn(events []attendance.CheckEvent) bool {
	for _, ev := range events {
		if ev.Type == attendance.EventTypeIn && ev.IsValid() {
			return true
		}
	}
	return false
}

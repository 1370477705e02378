package fixtures

import (
	"fmt"
	"io"
	"time"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/attendance"
	"gopkg.in/yaml.v3"
)

// GroupFixture is one attendance group with its windows and a sequence of check events to
// replay, as written in a YAML fixture file.
type GroupFixture struct {
	Group   attendance.GeoFencedLocation `yaml:"group"`
	Windows []WindowFixture              `yaml:"windows"`
	Events  []EventFixture               `yaml:"events"`
}

type WindowFixture struct {
	ID                string `yaml:"id"`
	Name              string `yaml:"name"`
	Start             string `yaml:"start"` // HH:MM or HH:MM:SS
	End               string `yaml:"end"`
	Weekdays          []int  `yaml:"weekdays"`
	LateGraceMinutes  *int   `yaml:"late_grace_minutes"` // attendance.DefaultGraceMinutes when omitted
	EarlyGraceMinutes *int   `yaml:"early_grace_minutes"`
	Inactive          bool   `yaml:"inactive"`
}

type EventFixture struct {
	EmployeeID string    `yaml:"employee_id"`
	Type       string    `yaml:"type"`
	At         time.Time `yaml:"at"` // RFC3339
	Latitude   float64   `yaml:"latitude"`
	Longitude  float64   `yaml:"longitude"`
	Notes      string    `yaml:"notes"`
}

// Decode reads a GroupFixture from YAML. Unknown keys are rejected.
func Decode(r io.Reader) (GroupFixture, error) {
	var fixture GroupFixture

	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&fixture); err != nil {
		return GroupFixture{}, fmt.Errorf("failed to decode fixture: %w", err)
	}

	if fixture.Group.GroupID == "" {
		return GroupFixture{}, fmt.Errorf("fixture group id is required")
	}
	for i, ev := range fixture.Events {
		if ev.At.IsZero() {
			return GroupFixture{}, fmt.Errorf("event %d: at is required", i)
		}
	}

	return fixture, nil
}

// ShiftWindows converts the fixture windows into domain windows of the fixture's group.
func (f GroupFixture) ShiftWindows() ([]attendance.ShiftWindow, error) {
	windows := make([]attendance.ShiftWindow, 0, len(f.Windows))
	for i, w := range f.Windows {
		start, err := attendance.ParseTimeOfDay(w.Start)
		if err != nil {
			return nil, fmt.Errorf("window %d start: %w", i, err)
		}
		end, err := attendance.ParseTimeOfDay(w.End)
		if err != nil {
			return nil, fmt.Errorf("window %d end: %w", i, err)
		}

		id := w.ID
		if id == "" {
			id = fmt.Sprintf("window-%d", i+1)
		}

		windows = append(windows, attendance.ShiftWindow{
			ID:                id,
			GroupID:           f.Group.GroupID,
			Name:              w.Name,
			StartTime:         start,
			EndTime:           end,
			Weekdays:          w.Weekdays,
			LateGraceMinutes:  graceOrDefault(w.LateGraceMinutes),
			EarlyGraceMinutes: graceOrDefault(w.EarlyGraceMinutes),
			Active:            !w.Inactive,
		})
	}
	return windows, nil
}

func graceOrDefault(minutes *int) int {
	if minutes == nil {
		return attendance.DefaultGraceMinutes
	}
	return *minutes
}

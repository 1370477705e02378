package attendance

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Coordinate is a WGS84 point in decimal degrees.
type Coordinate struct {
	Latitude  float64 `json:"latitude" yaml:"latitude" validate:"gte=-90,lte=90"`
	Longitude float64 `json:"longitude" yaml:"longitude" validate:"gte=-180,lte=180"`
}

// GeoFencedLocation is the circular check-in area of an attendance group.
type GeoFencedLocation struct {
	GroupID      string     `json:"group_id" yaml:"id" validate:"required"`
	Name         string     `json:"name" yaml:"name"`
	Center       Coordinate `json:"center" yaml:"center"`
	RadiusMeters int        `json:"radius_meters" yaml:"radius_meters" validate:"gte=10,lte=5000"`
	Timezone     string     `json:"timezone,omitempty" yaml:"timezone"`
}

// TimeOfDay is a wall-clock time expressed as seconds since local midnight.
type TimeOfDay int

const (
	secondsPerMinute = 60
	secondsPerDay    = 24 * 60 * 60
)

// ParseTimeOfDay accepts "HH:MM" or "HH:MM:SS".
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, fmt.Errorf("invalid time of day %q", s)
	}

	limits := []int{23, 59, 59}
	var values [3]int
	for i, part := range parts {
		v, err := strconv.Atoi(part)
		if err != nil || len(part) != 2 || v < 0 || v > limits[i] {
			return 0, fmt.Errorf("invalid time of day %q", s)
		}
		values[i] = v
	}

	return TimeOfDay(values[0]*3600 + values[1]*60 + values[2]), nil
}

// ClockOf returns the wall-clock time of t in t's own location, truncated to the second.
func ClockOf(t time.Time) TimeOfDay {
	h, m, s := t.Clock()
	return TimeOfDay(h*3600 + m*60 + s)
}

// AddMinutes shifts the time by n minutes without wrapping past midnight.
func (t TimeOfDay) AddMinutes(n int) TimeOfDay {
	return t + TimeOfDay(n*secondsPerMinute)
}

func (t TimeOfDay) String() string {
	v := int(t)
	sign := ""
	if v < 0 {
		sign = "-"
		v = -v
	}
	return fmt.Sprintf("%s%02d:%02d:%02d", sign, v/3600, (v%3600)/60, v%60)
}

// DefaultGraceMinutes applies to both grace bounds of a window that does not set them.
const DefaultGraceMinutes = 15

// ShiftWindow is a recurring period in which check-ins are accepted.
type ShiftWindow struct {
	ID                string    `json:"id" validate:"required"`
	GroupID           string    `json:"group_id"`
	Name              string    `json:"name"`
	StartTime         TimeOfDay `json:"start_time" validate:"gte=0,lt=86400"`
	EndTime           TimeOfDay `json:"end_time" validate:"gte=0,lt=86400"`
	Weekdays          []int     `json:"weekdays" validate:"min=1,dive,min=1,max=7"` // 1=Monday, ..., 7=Sunday
	LateGraceMinutes  int       `json:"late_grace_minutes" validate:"gte=0"`
	EarlyGraceMinutes int       `json:"early_grace_minutes" validate:"gte=0"`
	Active            bool      `json:"active"`
}

// AppliesOn reports whether the window is scheduled on the given ISO weekday.
func (w ShiftWindow) AppliesOn(isoWeekday int) bool {
	for _, d := range w.Weekdays {
		if d == isoWeekday {
			return true
		}
	}
	return false
}

// ISOWeekday maps time.Weekday to 1=Monday ... 7=Sunday.
func ISOWeekday(t time.Time) int {
	wd := int(t.Weekday())
	if wd == 0 {
		return 7
	}
	return wd
}

// CheckEvent is one submitted check-in or check-out, valid or not.
type CheckEvent struct {
	ID             string
	EmployeeID     string
	GroupID        string
	WindowID       *string
	Timestamp      time.Time // UTC
	Date           time.Time // local calendar day of Timestamp, midnight UTC
	Coordinate     Coordinate
	Type           EventType
	Outcome        Outcome
	DistanceMeters float64
	Notes          string
	IPAddress      *string
	UserAgent      string
	CreatedAt      time.Time
}

// IsValid reports whether the event passed location and time validation.
func (e CheckEvent) IsValid() bool {
	return e.Outcome.IsValid()
}

// DailySummary is the derived attendance aggregate for one employee, group and day.
type DailySummary struct {
	EmployeeID       string
	GroupID          string
	Date             time.Time
	FirstCheckInID   *string
	LastCheckOutID   *string
	TotalHoursWorked decimal.Decimal
	TotalEventCount  int
	IsPresent        bool
	IsLate           bool
	UpdatedAt        time.Time
}

// CalendarDate truncates t to its civil date, represented at midnight UTC.
func CalendarDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

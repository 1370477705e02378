package fixtures

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/attendance"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	employeeA = "11111111-1111-4111-8111-111111111111"
	employeeB = "22222222-2222-4222-8222-222222222222"
)

func loadFixture(t *testing.T, path string) GroupFixture {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	fixture, err := Decode(f)
	require.NoError(t, err)
	return fixture
}

func TestDecode(t *testing.T) {
	fixture := loadFixture(t, "testdata/jakarta_office.yaml")

	assert.Equal(t, "0b6f3c0e-7f43-4d3a-9a53-0d6f3d7c2a10", fixture.Group.GroupID)
	assert.Equal(t, 100, fixture.Group.RadiusMeters)
	assert.Equal(t, attendance.Coordinate{Latitude: -6.2088, Longitude: 106.8456}, fixture.Group.Center)
	require.Len(t, fixture.Events, 6)
	assert.Equal(t, time.Date(2024, 1, 15, 2, 5, 0, 0, time.UTC), fixture.Events[0].At.UTC())

	windows, err := fixture.ShiftWindows()
	require.NoError(t, err)
	require.Len(t, windows, 2)
	assert.Equal(t, "09:00:00", windows[0].StartTime.String())
	assert.True(t, windows[0].Active)
	assert.False(t, windows[1].Active)
}

func TestDecode_Errors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{name: "unknown key", yaml: "group:\n  id: g1\nshifts: []\n"},
		{name: "missing group id", yaml: "group:\n  name: HQ\n"},
		{name: "event without time", yaml: "group:\n  id: g1\nevents:\n  - type: IN\n"},
		{name: "not yaml", yaml: "group: [\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(strings.NewReader(tt.yaml))
			assert.Error(t, err)
		})
	}
}

func TestShiftWindows_InvalidTime(t *testing.T) {
	fixture := GroupFixture{
		Group:   attendance.GeoFencedLocation{GroupID: "g1"},
		Windows: []WindowFixture{{Start: "9am", End: "17:00"}},
	}

	_, err := fixture.ShiftWindows()

	assert.ErrorContains(t, err, "window 0 start")
}

func TestReplay(t *testing.T) {
	fixture := loadFixture(t, "testdata/jakarta_office.yaml")

	report, err := Replay(context.Background(), fixture, Options{DefaultZone: time.UTC})

	require.NoError(t, err)
	assert.Equal(t, "Asia/Jakarta", report.Timezone)
	require.Len(t, report.Decisions, 6)

	outcomes := make([]string, len(report.Decisions))
	for i, d := range report.Decisions {
		outcomes[i] = d.Outcome
	}
	assert.Equal(t, []string{"ON_TIME", "LATE", "INVALID_LOCATION", "ON_TIME", "", ""}, outcomes)

	assert.Equal(t, "2024-01-15", report.Decisions[0].Date)
	assert.Equal(t, "window-office", *report.Decisions[0].WindowID)
	assert.True(t, report.Decisions[1].Accepted)
	assert.False(t, report.Decisions[2].Accepted)
	assert.Greater(t, report.Decisions[2].DistanceMeters, 1000.0)
	// B's late check-in still counts, so the evening one is a duplicate.
	assert.Equal(t, attendance.ErrAlreadyCheckedIn.Error(), report.Decisions[4].Error)
	assert.Empty(t, report.Decisions[4].EventID)
	assert.Contains(t, report.Decisions[5].Error, "invalid check event type")
	assert.Empty(t, report.Decisions[5].EventID)

	require.Len(t, report.Summaries, 2)

	a := report.Summaries[0]
	assert.Equal(t, employeeA, a.EmployeeID)
	assert.True(t, decimal.NewFromInt(8).Equal(a.TotalHoursWorked), a.TotalHoursWorked.String())
	assert.True(t, a.IsPresent)
	assert.False(t, a.IsLate)
	assert.Equal(t, 2, a.TotalEventCount)
	assert.Equal(t, report.Decisions[0].EventID, *a.FirstCheckInID)
	assert.Equal(t, report.Decisions[3].EventID, *a.LastCheckOutID)

	b := report.Summaries[1]
	assert.Equal(t, employeeB, b.EmployeeID)
	assert.True(t, b.TotalHoursWorked.IsZero())
	assert.True(t, b.IsPresent)
	assert.True(t, b.IsLate)
	assert.Equal(t, 2, b.TotalEventCount)
	assert.Nil(t, b.LastCheckOutID)
}

func TestReplay_DefaultZone(t *testing.T) {
	fixture := loadFixture(t, "testdata/jakarta_office.yaml")
	fixture.Group.Timezone = ""
	fixture.Events = fixture.Events[:1]

	jakarta, err := time.LoadLocation("Asia/Jakarta")
	require.NoError(t, err)

	report, err := Replay(context.Background(), fixture, Options{DefaultZone: jakarta})
	require.NoError(t, err)
	assert.Equal(t, "ON_TIME", report.Decisions[0].Outcome)

	// Read as UTC, 02:05 is long before the window opens.
	report, err = Replay(context.Background(), fixture, Options{DefaultZone: time.UTC})
	require.NoError(t, err)
	assert.Equal(t, "INVALID_TIME", report.Decisions[0].Outcome)
}

func TestReplay_NoActiveWindows(t *testing.T) {
	fixture := loadFixture(t, "testdata/jakarta_office.yaml")
	fixture.Windows = fixture.Windows[1:]

	_, err := Replay(context.Background(), fixture, Options{DefaultZone: time.UTC})

	assert.ErrorIs(t, err, attendance.ErrNoShiftWindows)
}

func TestReplay_MultipleSessions(t *testing.T) {
	fixture := loadFixture(t, "testdata/jakarta_office.yaml")
	fixture.Events = []EventFixture{
		{EmployeeID: employeeA, Type: "IN", At: jakartaTime(t, "09:05"), Latitude: -6.2088, Longitude: 106.8456},
		{EmployeeID: employeeA, Type: "IN", At: jakartaTime(t, "09:10"), Latitude: -6.2088, Longitude: 106.8456},
		{EmployeeID: employeeA, Type: "OUT", At: jakartaTime(t, "12:00"), Latitude: -6.2088, Longitude: 106.8456},
		{EmployeeID: employeeA, Type: "IN", At: jakartaTime(t, "13:00"), Latitude: -6.2088, Longitude: 106.8456},
	}

	single, err := Replay(context.Background(), fixture, Options{DefaultZone: time.UTC})
	require.NoError(t, err)
	assert.Equal(t, attendance.ErrAlreadyCheckedIn.Error(), single.Decisions[1].Error)
	assert.Equal(t, attendance.ErrAlreadyCheckedIn.Error(), single.Decisions[3].Error)

	multi, err := Replay(context.Background(), fixture, Options{DefaultZone: time.UTC, AllowMultipleSessions: true})
	require.NoError(t, err)
	// The open morning session blocks the second check-in; the afternoon one reopens the day.
	assert.Equal(t, attendance.ErrAlreadyCheckedIn.Error(), multi.Decisions[1].Error)
	assert.Empty(t, multi.Decisions[3].Error)
	assert.NotEmpty(t, multi.Decisions[3].EventID)
	require.Len(t, multi.Summaries, 1)
	assert.Equal(t, 3, multi.Summaries[0].TotalEventCount)
}

func TestShiftWindows_DefaultGrace(t *testing.T) {
	fixture, err := Decode(strings.NewReader(`
group:
  id: 0b6f3c0e-7f43-4d3a-9a53-0d6f3d7c2a10
  center: {latitude: -6.2088, longitude: 106.8456}
  radius_meters: 100
  timezone: Asia/Jakarta
windows:
  - id: window-default
    start: "09:00"
    end: "17:00"
    weekdays: [1, 2, 3, 4, 5]
  - id: window-strict
    start: "19:00"
    end: "23:00"
    weekdays: [1, 2, 3, 4, 5]
    late_grace_minutes: 0
    early_grace_minutes: 0
events:
  - employee_id: 11111111-1111-4111-8111-111111111111
    type: IN
    at: 2024-01-15T09:12:00+07:00
    latitude: -6.2088
    longitude: 106.8456
  - employee_id: 11111111-1111-4111-8111-111111111111
    type: OUT
    at: 2024-01-15T16:50:00+07:00
    latitude: -6.2088
    longitude: 106.8456
`))
	require.NoError(t, err)

	windows, err := fixture.ShiftWindows()
	require.NoError(t, err)
	assert.Equal(t, attendance.DefaultGraceMinutes, windows[0].LateGraceMinutes)
	assert.Equal(t, attendance.DefaultGraceMinutes, windows[0].EarlyGraceMinutes)
	assert.Equal(t, 0, windows[1].LateGraceMinutes)
	assert.Equal(t, 0, windows[1].EarlyGraceMinutes)

	report, err := Replay(context.Background(), fixture, Options{})
	require.NoError(t, err)
	assert.Equal(t, "ON_TIME", report.Decisions[0].Outcome)
	assert.Equal(t, "ON_TIME", report.Decisions[1].Outcome)
}

func jakartaTime(t *testing.T, hhmm string) time.Time {
	t.Helper()
	at, err := time.Parse(time.RFC3339, "2024-01-15T"+hhmm+":00+07:00")
	require.NoError(t, err)
	return at
}

package postgresql

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/attendance"
	"github.com/jackc/pgx/v5"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	repoGroupID    = "0b6f3c0e-7f43-4d3a-9a53-0d6f3d7c2a10"
	repoEmployeeID = "5a1d2c3b-8e9f-4a6b-b7c8-d9e0f1a2b3c4"
)

func TestGroupRepository_GetGeoFencedLocation(t *testing.T) {
	mock := newMockPool(t)
	repo := NewGroupRepository(mock)

	rows := pgxmock.NewRows([]string{"id", "name", "latitude", "longitude", "radius_meters", "timezone"}).
		AddRow(repoGroupID, "Jakarta HQ", -6.2088, 106.8456, 100, "Asia/Jakarta")
	mock.ExpectQuery(regexp.QuoteMeta("FROM attendance_groups")).
		WithArgs(repoGroupID).
		WillReturnRows(rows)

	location, err := repo.GetGeoFencedLocation(context.Background(), repoGroupID)

	require.NoError(t, err)
	assert.Equal(t, attendance.GeoFencedLocation{
		GroupID:      repoGroupID,
		Name:         "Jakarta HQ",
		Center:       attendance.Coordinate{Latitude: -6.2088, Longitude: 106.8456},
		RadiusMeters: 100,
		Timezone:     "Asia/Jakarta",
	}, location)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGroupRepository_GetGeoFencedLocation_Errors(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		wantErr error
	}{
		{name: "missing or inactive", err: pgx.ErrNoRows, wantErr: attendance.ErrGroupNotFound},
		{name: "database failure", err: errors.New("connection reset")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := newMockPool(t)
			repo := NewGroupRepository(mock)

			mock.ExpectQuery(regexp.QuoteMeta("FROM attendance_groups")).
				WithArgs(repoGroupID).
				WillReturnError(tt.err)

			_, err := repo.GetGeoFencedLocation(context.Background(), repoGroupID)

			require.Error(t, err)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NotErrorIs(t, err, attendance.ErrGroupNotFound)
			}
		})
	}
}

func TestGroupRepository_GetActiveShiftWindows(t *testing.T) {
	mock := newMockPool(t)
	repo := NewGroupRepository(mock)

	rows := pgxmock.NewRows([]string{
		"id", "group_id", "name", "start_time", "end_time", "weekdays",
		"late_grace_minutes", "early_grace_minutes", "is_active",
	}).
		AddRow("window-morning", repoGroupID, "Morning", "09:00:00", "17:00:00", []int32{1, 2, 3, 4, 5}, 15, 0, true).
		AddRow("window-night", repoGroupID, "Night", "18:30:00", "23:59:00", []int32{6, 7}, 0, 10, true)
	mock.ExpectQuery(regexp.QuoteMeta("FROM attendance_periods")).
		WithArgs(repoGroupID).
		WillReturnRows(rows)

	windows, err := repo.GetActiveShiftWindows(context.Background(), repoGroupID)

	require.NoError(t, err)
	require.Len(t, windows, 2)

	assert.Equal(t, attendance.ShiftWindow{
		ID:               "window-morning",
		GroupID:          repoGroupID,
		Name:             "Morning",
		StartTime:        attendance.TimeOfDay(9 * 3600),
		EndTime:          attendance.TimeOfDay(17 * 3600),
		Weekdays:         []int{1, 2, 3, 4, 5},
		LateGraceMinutes: 15,
		Active:           true,
	}, windows[0])
	assert.Equal(t, "18:30:00", windows[1].StartTime.String())
	assert.Equal(t, "23:59:00", windows[1].EndTime.String())
	assert.Equal(t, []int{6, 7}, windows[1].Weekdays)
	assert.Equal(t, 10, windows[1].EarlyGraceMinutes)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGroupRepository_GetActiveShiftWindows_None(t *testing.T) {
	mock := newMockPool(t)
	repo := NewGroupRepository(mock)

	mock.ExpectQuery(regexp.QuoteMeta("FROM attendance_periods")).
		WithArgs(repoGroupID).
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "group_id", "name", "start_time", "end_time", "weekdays",
			"late_grace_minutes", "early_grace_minutes", "is_active",
		}))

	windows, err := repo.GetActiveShiftWindows(context.Background(), repoGroupID)

	require.NoError(t, err)
	assert.Empty(t, windows)
}

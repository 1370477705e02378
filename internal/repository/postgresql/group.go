package postgresql

import (
	"context"
	"errors"
	"fmt"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/database"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

type groupRepository struct {
	db database.Querier
}

// GetGeoFencedLocation implements attendance.GroupRepository.
func (r *groupRepository) GetGeoFencedLocation(ctx context.Context, groupID string) (attendance.GeoFencedLocation, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT id, name, latitude, longitude, radius_meters, timezone
		FROM attendance_groups
		WHERE id = $1
		  AND is_active = TRUE
	`

	var location attendance.GeoFencedLocation
	err := q.QueryRow(ctx, query, groupID).Scan(
		&location.GroupID, &location.Name,
		&location.Center.Latitude, &location.Center.Longitude,
		&location.RadiusMeters, &location.Timezone,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return attendance.GeoFencedLocation{}, attendance.ErrGroupNotFound
		}
		return attendance.GeoFencedLocation{}, fmt.Errorf("failed to get attendance group: %w", err)
	}

	return location, nil
}

// GetActiveShiftWindows implements attendance.GroupRepository.
func (r *groupRepository) GetActiveShiftWindows(ctx context.Context, groupID string) ([]attendance.ShiftWindow, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT id, group_id, name, start_time, end_time, weekdays,
			   late_grace_minutes, early_grace_minutes, is_active
		FROM attendance_periods
		WHERE group_id = $1
		  AND is_active = TRUE
		ORDER BY start_time, id
	`

	rows, err := q.Query(ctx, query, groupID)
	if err != nil {
		return nil, fmt.Errorf("failed to query shift windows: %w", err)
	}
	defer rows.Close()

	var windows []attendance.ShiftWindow
	for rows.Next() {
		var (
			w          attendance.ShiftWindow
			start, end pgtype.Time
			weekdays   []int32
		)
		err := rows.Scan(
			&w.ID, &w.GroupID, &w.Name, &start, &end, &weekdays,
			&w.LateGraceMinutes, &w.EarlyGraceMinutes, &w.Active,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan shift window: %w", err)
		}

		w.StartTime = timeOfDay(start)
		w.EndTime = timeOfDay(end)
		w.Weekdays = make([]int, len(weekdays))
		for i, d := range weekdays {
			w.Weekdays[i] = int(d)
		}
		windows = append(windows, w)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating shift windows: %w", err)
	}

	return windows, nil
}

func timeOfDay(t pgtype.Time) attendance.TimeOfDay {
	return attendance.TimeOfDay(t.Microseconds / 1_000_000)
}

func NewGroupRepository(db database.Querier) attendance.GroupRepository {
	return &groupRepository{
		db: db,
	}
}

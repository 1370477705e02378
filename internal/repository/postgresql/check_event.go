package postgresql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

var errLockOutsideTransaction = errors.New("day lock requires a transaction")

type checkEventRepository struct {
	db database.Querier
}

const checkEventColumns = `
	id, employee_id, group_id, window_id, event_type, outcome,
	occurred_at, event_date, latitude, longitude, distance_meters,
	notes, ip_address, user_agent, created_at
`

// Create implements attendance.CheckEventRepository.
func (r *checkEventRepository) Create(ctx context.Context, event attendance.CheckEvent) (attendance.CheckEvent, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO check_events (
			id, employee_id, group_id, window_id, event_type, outcome,
			occurred_at, event_date, latitude, longitude, distance_meters,
			notes, ip_address, user_agent
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14
		) RETURNING created_at
	`

	err := q.QueryRow(ctx, query,
		event.ID,
		event.EmployeeID,
		event.GroupID,
		event.WindowID,
		string(event.Type),
		string(event.Outcome),
		event.Timestamp,
		event.Date,
		event.Coordinate.Latitude,
		event.Coordinate.Longitude,
		event.DistanceMeters,
		event.Notes,
		event.IPAddress,
		event.UserAgent,
	).Scan(&event.CreatedAt)

	if err != nil {
		return attendance.CheckEvent{}, fmt.Errorf("failed to create check event: %w", err)
	}

	return event, nil
}

// GetEventsForDay implements attendance.CheckEventRepository.
func (r *checkEventRepository) GetEventsForDay(ctx context.Context, employeeID, groupID string, date time.Time) ([]attendance.CheckEvent, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT ` + checkEventColumns + `
		FROM check_events
		WHERE employee_id = $1
		  AND group_id = $2
		  AND event_date = $3
		ORDER BY occurred_at ASC, created_at ASC
	`

	rows, err := q.Query(ctx, query, employeeID, groupID, attendance.CalendarDate(date))
	if err != nil {
		return nil, fmt.Errorf("failed to query check events: %w", err)
	}
	defer rows.Close()

	var events []attendance.CheckEvent
	for rows.Next() {
		event, err := scanCheckEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, event)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating check events: %w", err)
	}

	return events, nil
}

// ListKeysForDate implements attendance.CheckEventRepository.
func (r *checkEventRepository) ListKeysForDate(ctx context.Context, date time.Time) ([]attendance.DayKey, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT DISTINCT employee_id, group_id
		FROM check_events
		WHERE event_date = $1
		ORDER BY employee_id, group_id
	`

	day := attendance.CalendarDate(date)
	rows, err := q.Query(ctx, query, day)
	if err != nil {
		return nil, fmt.Errorf("failed to query day keys: %w", err)
	}
	defer rows.Close()

	var keys []attendance.DayKey
	for rows.Next() {
		key := attendance.DayKey{Date: day}
		if err := rows.Scan(&key.EmployeeID, &key.GroupID); err != nil {
			return nil, fmt.Errorf("failed to scan day key: %w", err)
		}
		keys = append(keys, key)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating day keys: %w", err)
	}

	return keys, nil
}

// CountByType implements attendance.CheckEventRepository.
func (r *checkEventRepository) CountByType(ctx context.Context, groupID string, start, end time.Time) (map[attendance.EventType]int, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT event_type, COUNT(*)
		FROM check_events
		WHERE group_id = $1
		  AND event_date BETWEEN $2 AND $3
		GROUP BY event_type
	`

	rows, err := q.Query(ctx, query, groupID, attendance.CalendarDate(start), attendance.CalendarDate(end))
	if err != nil {
		return nil, fmt.Errorf("failed to count check events: %w", err)
	}
	defer rows.Close()

	counts := make(map[attendance.EventType]int)
	for rows.Next() {
		var (
			eventType string
			count     int64
		)
		if err := rows.Scan(&eventType, &count); err != nil {
			return nil, fmt.Errorf("failed to scan check event count: %w", err)
		}
		parsed, err := attendance.ParseEventType(eventType)
		if err != nil {
			return nil, err
		}
		counts[parsed] = int(count)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating check event counts: %w", err)
	}

	return counts, nil
}

// LockDay implements attendance.CheckEventRepository.
func (r *checkEventRepository) LockDay(ctx context.Context, key attendance.DayKey) error {
	tx, ok := txFromContext(ctx)
	if !ok {
		return errLockOutsideTransaction
	}

	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, dayLockKey(key)); err != nil {
		return fmt.Errorf("failed to lock attendance day: %w", err)
	}

	return nil
}

func dayLockKey(key attendance.DayKey) string {
	return fmt.Sprintf("check_events:%s:%s:%s", key.EmployeeID, key.GroupID, key.Date.Format("2006-01-02"))
}

func scanCheckEvent(row pgx.Row) (attendance.CheckEvent, error) {
	var (
		event            attendance.CheckEvent
		eventType, state string
	)
	err := row.Scan(
		&event.ID, &event.EmployeeID, &event.GroupID, &event.WindowID, &eventType, &state,
		&event.Timestamp, &event.Date, &event.Coordinate.Latitude, &event.Coordinate.Longitude, &event.DistanceMeters,
		&event.Notes, &event.IPAddress, &event.UserAgent, &event.CreatedAt,
	)
	if err != nil {
		return attendance.CheckEvent{}, fmt.Errorf("failed to scan check event: %w", err)
	}

	if event.Type, err = attendance.ParseEventType(eventType); err != nil {
		return attendance.CheckEvent{}, err
	}
	if event.Outcome, err = attendance.ParseOutcome(state); err != nil {
		return attendance.CheckEvent{}, err
	}
	event.Timestamp = event.Timestamp.UTC()

	return event, nil
}

func NewCheckEventRepository(db database.Querier) attendance.CheckEventRepository {
	return &checkEventRepository{
		db: db,
	}
}

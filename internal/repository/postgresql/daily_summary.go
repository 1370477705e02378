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

type dailySummaryRepository struct {
	db database.Querier
}

const dailySummaryColumns = `
	employee_id, group_id, summary_date, first_check_in_id, last_check_out_id,
	total_hours_worked, total_event_count, is_present, is_late, updated_at
`

// Upsert implements attendance.DailySummaryRepository.
func (r *dailySummaryRepository) Upsert(ctx context.Context, summary attendance.DailySummary) (attendance.DailySummary, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO daily_summaries (
			employee_id, group_id, summary_date, first_check_in_id, last_check_out_id,
			total_hours_worked, total_event_count, is_present, is_late, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, NOW()
		)
		ON CONFLICT (employee_id, group_id, summary_date) DO UPDATE SET
			first_check_in_id = EXCLUDED.first_check_in_id,
			last_check_out_id = EXCLUDED.last_check_out_id,
			total_hours_worked = EXCLUDED.total_hours_worked,
			total_event_count = EXCLUDED.total_event_count,
			is_present = EXCLUDED.is_present,
			is_late = EXCLUDED.is_late,
			updated_at = NOW()
		RETURNING updated_at
	`

	err := q.QueryRow(ctx, query,
		summary.EmployeeID,
		summary.GroupID,
		summary.Date,
		summary.FirstCheckInID,
		summary.LastCheckOutID,
		summary.TotalHoursWorked,
		summary.TotalEventCount,
		summary.IsPresent,
		summary.IsLate,
	).Scan(&summary.UpdatedAt)

	if err != nil {
		return attendance.DailySummary{}, fmt.Errorf("failed to upsert daily summary: %w", err)
	}

	return summary, nil
}

// Get implements attendance.DailySummaryRepository.
func (r *dailySummaryRepository) Get(ctx context.Context, key attendance.DayKey) (attendance.DailySummary, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT ` + dailySummaryColumns + `
		FROM daily_summaries
		WHERE employee_id = $1
		  AND group_id = $2
		  AND summary_date = $3
	`

	summary, err := scanDailySummary(q.QueryRow(ctx, query, key.EmployeeID, key.GroupID, attendance.CalendarDate(key.Date)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return attendance.DailySummary{}, attendance.ErrSummaryNotFound
		}
		return attendance.DailySummary{}, fmt.Errorf("failed to get daily summary: %w", err)
	}

	return summary, nil
}

// List implements attendance.DailySummaryRepository.
func (r *dailySummaryRepository) List(ctx context.Context, filter attendance.SummaryFilter) ([]attendance.DailySummary, int64, error) {
	q := GetQuerier(ctx, r.db)

	// Build WHERE clause
	baseWhere := "1 = 1"
	args := []any{}
	argIdx := 1

	if filter.GroupID != nil && *filter.GroupID != "" {
		baseWhere += fmt.Sprintf(" AND group_id = $%d", argIdx)
		args = append(args, *filter.GroupID)
		argIdx++
	}

	if filter.EmployeeID != nil && *filter.EmployeeID != "" {
		baseWhere += fmt.Sprintf(" AND employee_id = $%d", argIdx)
		args = append(args, *filter.EmployeeID)
		argIdx++
	}

	// Date range filters
	if filter.StartDate != nil && *filter.StartDate != "" {
		baseWhere += fmt.Sprintf(" AND summary_date >= $%d", argIdx)
		args = append(args, *filter.StartDate)
		argIdx++
	}
	if filter.EndDate != nil && *filter.EndDate != "" {
		baseWhere += fmt.Sprintf(" AND summary_date <= $%d", argIdx)
		args = append(args, *filter.EndDate)
		argIdx++
	}

	if filter.IsLate != nil {
		baseWhere += fmt.Sprintf(" AND is_late = $%d", argIdx)
		args = append(args, *filter.IsLate)
		argIdx++
	}

	countQuery := "SELECT COUNT(*) FROM daily_summaries WHERE " + baseWhere
	var total int64
	if err := q.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count daily summaries: %w", err)
	}

	selectQuery := fmt.Sprintf(`
		SELECT %s
		FROM daily_summaries
		WHERE %s
		ORDER BY summary_date DESC, employee_id ASC, group_id ASC
		LIMIT $%d OFFSET $%d
	`, dailySummaryColumns, baseWhere, argIdx, argIdx+1)

	limit := filter.Limit
	if limit == 0 {
		limit = 20
	}
	page := max(filter.Page, 1)
	offset := (page - 1) * limit
	args = append(args, limit, offset)

	rows, err := q.Query(ctx, selectQuery, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query daily summaries: %w", err)
	}
	defer rows.Close()

	summaries, err := collectDailySummaries(rows)
	if err != nil {
		return nil, 0, err
	}

	return summaries, total, nil
}

// ListForGroup implements attendance.DailySummaryRepository.
func (r *dailySummaryRepository) ListForGroup(ctx context.Context, groupID string, start, end time.Time) ([]attendance.DailySummary, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT ` + dailySummaryColumns + `
		FROM daily_summaries
		WHERE group_id = $1
		  AND summary_date BETWEEN $2 AND $3
		ORDER BY summary_date ASC, employee_id ASC
	`

	rows, err := q.Query(ctx, query, groupID, attendance.CalendarDate(start), attendance.CalendarDate(end))
	if err != nil {
		return nil, fmt.Errorf("failed to query daily summaries: %w", err)
	}
	defer rows.Close()

	return collectDailySummaries(rows)
}

func collectDailySummaries(rows pgx.Rows) ([]attendance.DailySummary, error) {
	var summaries []attendance.DailySummary
	for rows.Next() {
		summary, err := scanDailySummary(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan daily summary: %w", err)
		}
		summaries = append(summaries, summary)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating daily summaries: %w", err)
	}

	return summaries, nil
}

func scanDailySummary(row pgx.Row) (attendance.DailySummary, error) {
	var summary attendance.DailySummary
	err := row.Scan(
		&summary.EmployeeID, &summary.GroupID, &summary.Date,
		&summary.FirstCheckInID, &summary.LastCheckOutID,
		&summary.TotalHoursWorked, &summary.TotalEventCount,
		&summary.IsPresent, &summary.IsLate, &summary.UpdatedAt,
	)
	return summary, err
}

func NewDailySummaryRepository(db database.Querier) attendance.DailySummaryRepository {
	return &dailySummaryRepository{
		db: db,
	}
}

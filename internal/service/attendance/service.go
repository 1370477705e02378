package attendance

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/attendance"
	"github.com/shopspring/decimal"
)

// Transactor runs fn in a single database transaction.
type Transactor interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// Clock provides the current time.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time {
	return time.Now()
}

// Config holds the command-layer policy.
type Config struct {
	// AllowMultipleSessions lets an employee check in again after closing a session.
	AllowMultipleSessions bool
	// DefaultZone applies to groups without a usable time zone.
	DefaultZone *time.Location
}

type AttendanceServiceImpl struct {
	tx Transactor
	attendance.GroupRepository
	attendance.CheckEventRepository
	attendance.DailySummaryRepository
	processor             *Processor
	clock                 Clock
	allowMultipleSessions bool
}

// SubmitCheckEvent implements attendance.AttendanceService.
func (a *AttendanceServiceImpl) SubmitCheckEvent(ctx context.Context, req attendance.SubmitCheckEventRequest) (attendance.CheckEventResponse, error) {
	if err := req.Validate(); err != nil {
		return attendance.CheckEventResponse{}, err
	}

	eventType, err := attendance.ParseEventType(req.Type)
	if err != nil {
		return attendance.CheckEventResponse{}, err
	}

	occurredAt := a.clock.Now().UTC()
	if req.Timestamp != nil && *req.Timestamp != "" {
		occurredAt, _ = parseTimestamp(*req.Timestamp)
	}

	group, err := a.processor.LoadGroup(ctx, req.GroupID)
	if err != nil {
		return attendance.CheckEventResponse{}, err
	}

	input := SubmitInput{
		EmployeeID: req.EmployeeID,
		GroupID:    req.GroupID,
		Type:       eventType,
		Coordinate: attendance.Coordinate{Latitude: req.Latitude, Longitude: req.Longitude},
		Timestamp:  occurredAt,
		Notes:      req.Notes,
		IPAddress:  req.IPAddress,
		UserAgent:  req.UserAgent,
	}
	key := attendance.DayKey{
		EmployeeID: req.EmployeeID,
		GroupID:    req.GroupID,
		Date:       group.LocalDate(occurredAt),
	}

	var (
		created attendance.CheckEvent
		summary attendance.DailySummary
	)
	err = a.tx.WithTransaction(ctx, func(ctx context.Context) error {
		if err := a.CheckEventRepository.LockDay(ctx, key); err != nil {
			return err
		}

		dayEvents, err := a.CheckEventRepository.GetEventsForDay(ctx, key.EmployeeID, key.GroupID, key.Date)
		if err != nil {
			return fmt.Errorf("failed to get events for day: %w", err)
		}

		if eventType == attendance.EventTypeIn {
			if err := CheckDuplicateCheckIn(dayEvents, a.allowMultipleSessions); err != nil {
				return err
			}
		}

		event, err := a.processor.Decide(group, input, dayEvents)
		if err != nil {
			return err
		}

		created, err = a.CheckEventRepository.Create(ctx, event)
		if err != nil {
			return fmt.Errorf("failed to create check event: %w", err)
		}

		computed := Recompute(key.EmployeeID, key.GroupID, key.Date, append(dayEvents, created))
		summary, err = a.DailySummaryRepository.Upsert(ctx, computed)
		if err != nil {
			return fmt.Errorf("failed to upsert daily summary: %w", err)
		}

		return nil
	})
	if err != nil {
		return attendance.CheckEventResponse{}, err
	}

	slog.Info("Check event recorded",
		"event_id", created.ID,
		"employee_id", created.EmployeeID,
		"group_id", created.GroupID,
		"type", created.Type,
		"outcome", created.Outcome,
		"distance_meters", created.DistanceMeters,
	)

	response := mapCheckEventToResponse(created)
	summaryResponse := mapSummaryToResponse(summary)
	response.Summary = &summaryResponse

	return response, nil
}

// GetCheckInStatus implements attendance.AttendanceService.
func (a *AttendanceServiceImpl) GetCheckInStatus(ctx context.Context, req attendance.DayRequest) (attendance.CheckInStatusResponse, error) {
	if err := req.Validate(false); err != nil {
		return attendance.CheckInStatusResponse{}, err
	}

	date, err := a.resolveDate(ctx, req)
	if err != nil {
		return attendance.CheckInStatusResponse{}, err
	}

	hasCheckedIn, err := a.processor.HasCheckedIn(ctx, req.EmployeeID, req.GroupID, date)
	if err != nil {
		return attendance.CheckInStatusResponse{}, err
	}

	hasOpenSession, err := a.processor.HasOpenCheckIn(ctx, req.EmployeeID, req.GroupID, date)
	if err != nil {
		return attendance.CheckInStatusResponse{}, err
	}

	canCheckIn := !hasCheckedIn || (a.allowMultipleSessions && !hasOpenSession)

	var message string
	switch {
	case !hasCheckedIn:
		message = "You have not checked in today"
	case hasOpenSession:
		message = "You are currently checked in"
	case canCheckIn:
		message = "Your last session is closed, you may check in again"
	default:
		message = "You have completed attendance for today"
	}

	return attendance.CheckInStatusResponse{
		Date:           date.Format("2006-01-02"),
		HasCheckedIn:   hasCheckedIn,
		HasOpenSession: hasOpenSession,
		CanCheckIn:     canCheckIn,
		CanCheckOut:    hasOpenSession,
		Message:        message,
	}, nil
}

// resolveDate returns the requested date, or today in the group's time zone.
func (a *AttendanceServiceImpl) resolveDate(ctx context.Context, req attendance.DayRequest) (time.Time, error) {
	if req.Date != "" {
		date, _ := parseDate(req.Date)
		return date, nil
	}

	location, err := a.GroupRepository.GetGeoFencedLocation(ctx, req.GroupID)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to get geofenced location: %w", err)
	}

	return attendance.CalendarDate(a.clock.Now().In(a.processor.zoneOf(location))), nil
}

// ListDayEvents implements attendance.AttendanceService.
func (a *AttendanceServiceImpl) ListDayEvents(ctx context.Context, req attendance.DayRequest) ([]attendance.CheckEventResponse, error) {
	if err := req.Validate(true); err != nil {
		return nil, err
	}

	date, _ := parseDate(req.Date)
	events, err := a.CheckEventRepository.GetEventsForDay(ctx, req.EmployeeID, req.GroupID, date)
	if err != nil {
		return nil, fmt.Errorf("failed to list check events: %w", err)
	}

	responses := make([]attendance.CheckEventResponse, 0, len(events))
	for _, ev := range events {
		responses = append(responses, mapCheckEventToResponse(ev))
	}

	return responses, nil
}

// GetDailySummary implements attendance.AttendanceService.
func (a *AttendanceServiceImpl) GetDailySummary(ctx context.Context, req attendance.DayRequest) (attendance.DailySummaryResponse, error) {
	if err := req.Validate(true); err != nil {
		return attendance.DailySummaryResponse{}, err
	}

	date, _ := parseDate(req.Date)
	summary, err := a.DailySummaryRepository.Get(ctx, attendance.DayKey{
		EmployeeID: req.EmployeeID,
		GroupID:    req.GroupID,
		Date:       date,
	})
	if err != nil {
		if errors.Is(err, attendance.ErrSummaryNotFound) {
			return attendance.DailySummaryResponse{}, attendance.ErrSummaryNotFound
		}
		return attendance.DailySummaryResponse{}, fmt.Errorf("failed to get daily summary: %w", err)
	}

	return mapSummaryToResponse(summary), nil
}

// RecomputeDailySummary implements attendance.AttendanceService.
func (a *AttendanceServiceImpl) RecomputeDailySummary(ctx context.Context, req attendance.DayRequest) (attendance.DailySummaryResponse, error) {
	if err := req.Validate(true); err != nil {
		return attendance.DailySummaryResponse{}, err
	}

	date, _ := parseDate(req.Date)
	summary, err := a.recompute(ctx, attendance.DayKey{
		EmployeeID: req.EmployeeID,
		GroupID:    req.GroupID,
		Date:       date,
	})
	if err != nil {
		return attendance.DailySummaryResponse{}, err
	}

	return mapSummaryToResponse(summary), nil
}

// RecomputeDate implements attendance.AttendanceService.
func (a *AttendanceServiceImpl) RecomputeDate(ctx context.Context, date time.Time) (int, error) {
	keys, err := a.CheckEventRepository.ListKeysForDate(ctx, date)
	if err != nil {
		return 0, fmt.Errorf("failed to list day keys: %w", err)
	}

	var (
		written int
		errs    []error
	)
	for _, key := range keys {
		if err := ctx.Err(); err != nil {
			return written, err
		}
		if _, err := a.recompute(ctx, key); err != nil {
			slog.Error("Failed to recompute daily summary",
				"employee_id", key.EmployeeID,
				"group_id", key.GroupID,
				"date", key.Date.Format("2006-01-02"),
				"error", err,
			)
			errs = append(errs, err)
			continue
		}
		written++
	}

	return written, errors.Join(errs...)
}

// recompute rebuilds one summary from the stored events under the day lock.
func (a *AttendanceServiceImpl) recompute(ctx context.Context, key attendance.DayKey) (attendance.DailySummary, error) {
	var summary attendance.DailySummary
	err := a.tx.WithTransaction(ctx, func(ctx context.Context) error {
		if err := a.CheckEventRepository.LockDay(ctx, key); err != nil {
			return err
		}

		events, err := a.CheckEventRepository.GetEventsForDay(ctx, key.EmployeeID, key.GroupID, key.Date)
		if err != nil {
			return fmt.Errorf("failed to get events for day: %w", err)
		}

		summary, err = a.DailySummaryRepository.Upsert(ctx, Recompute(key.EmployeeID, key.GroupID, key.Date, events))
		if err != nil {
			return fmt.Errorf("failed to upsert daily summary: %w", err)
		}

		return nil
	})
	return summary, err
}

// ListDailySummaries implements attendance.AttendanceService.
func (a *AttendanceServiceImpl) ListDailySummaries(ctx context.Context, filter attendance.SummaryFilter) (attendance.ListDailySummaryResponse, error) {
	if err := filter.Validate(); err != nil {
		return attendance.ListDailySummaryResponse{}, err
	}

	summaries, total, err := a.DailySummaryRepository.List(ctx, filter)
	if err != nil {
		return attendance.ListDailySummaryResponse{}, fmt.Errorf("failed to list daily summaries: %w", err)
	}

	// Map to response
	responses := make([]attendance.DailySummaryResponse, 0, len(summaries))
	for _, s := range summaries {
		responses = append(responses, mapSummaryToResponse(s))
	}

	totalPages := int(math.Ceil(float64(total) / float64(filter.Limit)))
	showing := fmt.Sprintf("%d-%d of %d", (filter.Page-1)*filter.Limit+1, min(filter.Page*filter.Limit, int(total)), total)
	if total == 0 {
		showing = "0 of 0"
	}

	return attendance.ListDailySummaryResponse{
		TotalCount: total,
		Page:       filter.Page,
		Limit:      filter.Limit,
		TotalPages: totalPages,
		Showing:    showing,
		Summaries:  responses,
	}, nil
}

// GetStats implements attendance.AttendanceService.
func (a *AttendanceServiceImpl) GetStats(ctx context.Context, filter attendance.StatsFilter) (attendance.StatsResponse, error) {
	if err := filter.Validate(); err != nil {
		return attendance.StatsResponse{}, err
	}

	start, _ := parseDate(filter.StartDate)
	end, _ := parseDate(filter.EndDate)

	summaries, err := a.DailySummaryRepository.ListForGroup(ctx, filter.GroupID, start, end)
	if err != nil {
		return attendance.StatsResponse{}, fmt.Errorf("failed to list daily summaries: %w", err)
	}

	counts, err := a.CheckEventRepository.CountByType(ctx, filter.GroupID, start, end)
	if err != nil {
		return attendance.StatsResponse{}, fmt.Errorf("failed to count check events: %w", err)
	}

	stats := ComputeStats(summaries)
	stats.CheckEventsByType = make(map[string]int, 2)
	for _, t := range []attendance.EventType{attendance.EventTypeIn, attendance.EventTypeOut} {
		stats.CheckEventsByType[string(t)] = counts[t]
		stats.TotalCheckEvents += counts[t]
	}
	stats.GroupID = filter.GroupID
	stats.StartDate = filter.StartDate
	stats.EndDate = filter.EndDate

	return stats, nil
}

var hundred = decimal.NewFromInt(100)

// ComputeStats aggregates summaries into presence and lateness figures. The late rate is a
// percentage of present days.
func ComputeStats(summaries []attendance.DailySummary) attendance.StatsResponse {
	stats := attendance.StatsResponse{
		TotalSummaries:          len(summaries),
		LateRate:                decimal.Zero,
		TotalHoursWorked:        decimal.Zero,
		AverageHoursPerPresence: decimal.Zero,
	}

	for _, s := range summaries {
		stats.TotalHoursWorked = stats.TotalHoursWorked.Add(s.TotalHoursWorked)
		if s.IsPresent {
			stats.PresentDays++
		}
		if s.IsLate {
			stats.LateDays++
		}
	}

	if stats.PresentDays > 0 {
		present := decimal.NewFromInt(int64(stats.PresentDays))
		stats.LateRate = decimal.NewFromInt(int64(stats.LateDays)).Mul(hundred).Div(present).Round(1)
		stats.AverageHoursPerPresence = stats.TotalHoursWorked.Div(present).Round(2)
	}

	return stats
}

// mapCheckEventToResponse converts a CheckEvent entity to CheckEventResponse
func mapCheckEventToResponse(ev attendance.CheckEvent) attendance.CheckEventResponse {
	return attendance.CheckEventResponse{
		ID:             ev.ID,
		EmployeeID:     ev.EmployeeID,
		GroupID:        ev.GroupID,
		WindowID:       ev.WindowID,
		Type:           string(ev.Type),
		Outcome:        string(ev.Outcome),
		Accepted:       ev.IsValid(),
		Reason:         ev.Outcome.Reason(),
		Timestamp:      ev.Timestamp.UTC().Format(time.RFC3339),
		Date:           ev.Date.Format("2006-01-02"),
		Latitude:       ev.Coordinate.Latitude,
		Longitude:      ev.Coordinate.Longitude,
		DistanceMeters: math.Round(ev.DistanceMeters*100) / 100,
		Notes:          ev.Notes,
		IPAddress:      ev.IPAddress,
	}
}

func mapSummaryToResponse(s attendance.DailySummary) attendance.DailySummaryResponse {
	return attendance.DailySummaryResponse{
		EmployeeID:       s.EmployeeID,
		GroupID:          s.GroupID,
		Date:             s.Date.Format("2006-01-02"),
		FirstCheckInID:   s.FirstCheckInID,
		LastCheckOutID:   s.LastCheckOutID,
		TotalHoursWorked: s.TotalHoursWorked,
		TotalEventCount:  s.TotalEventCount,
		IsPresent:        s.IsPresent,
		IsLate:           s.IsLate,
	}
}

func parseDate(s string) (time.Time, error) {
	return time.Parse("2006-01-02", s)
}

func parseTimestamp(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}

func NewAttendanceService(
	tx Transactor,
	groupRepo attendance.GroupRepository,
	checkEventRepo attendance.CheckEventRepository,
	dailySummaryRepo attendance.DailySummaryRepository,
	clock Clock,
	cfg Config,
) attendance.AttendanceService {
	if clock == nil {
		clock = realClock{}
	}
	return &AttendanceServiceImpl{
		tx:                     tx,
		GroupRepository:        groupRepo,
		CheckEventRepository:   checkEventRepo,
		DailySummaryRepository: dailySummaryRepo,
		processor:              NewProcessor(groupRepo, checkEventRepo, cfg.DefaultZone),
		clock:                  clock,
		allowMultipleSessions:  cfg.AllowMultipleSessions,
	}
}

package attendance

import (
	"strings"

	"github.com/cmlabs-hris/attendance-engine/internal/pkg/validator"
	"github.com/shopspring/decimal"
)

// ========================================
// CHECK EVENT DTOs
// ========================================

type SubmitCheckEventRequest struct {
	GroupID    string  `json:"-"`
	EmployeeID string  `json:"employee_id"`
	Type       string  `json:"type"`
	Latitude   float64 `json:"latitude"`
	Longitude  float64 `json:"longitude"`
	Timestamp  *string `json:"timestamp,omitempty"` // RFC3339, defaults to server time
	Notes      string  `json:"notes,omitempty"`
	IPAddress  *string `json:"-"`
	UserAgent  string  `json:"-"`
}

func (r *SubmitCheckEventRequest) Validate() error {
	var errs validator.ValidationErrors

	if !validator.IsValidUUID(r.GroupID) {
		errs = append(errs, validator.ValidationError{
			Field:   "group_id",
			Message: "group_id must be a valid UUID",
		})
	}

	if validator.IsEmpty(r.EmployeeID) {
		errs = append(errs, validator.ValidationError{
			Field:   "employee_id",
			Message: "employee_id is required",
		})
	} else if !validator.IsValidUUID(r.EmployeeID) {
		errs = append(errs, validator.ValidationError{
			Field:   "employee_id",
			Message: "employee_id must be a valid UUID",
		})
	}

	r.Type = strings.ToUpper(strings.TrimSpace(r.Type))
	if !validator.IsInSlice(r.Type, EventTypeValues) {
		errs = append(errs, validator.ValidationError{
			Field:   "type",
			Message: "type must be one of: IN, OUT",
		})
	}

	if r.Latitude < -90 || r.Latitude > 90 {
		errs = append(errs, validator.ValidationError{
			Field:   "latitude",
			Message: "latitude must be between -90 and 90",
		})
	}

	if r.Longitude < -180 || r.Longitude > 180 {
		errs = append(errs, validator.ValidationError{
			Field:   "longitude",
			Message: "longitude must be between -180 and 180",
		})
	}

	if r.Timestamp != nil && *r.Timestamp != "" {
		if _, valid := validator.IsValidDateTime(*r.Timestamp); !valid {
			errs = append(errs, validator.ValidationError{
				Field:   "timestamp",
				Message: "timestamp must be an RFC3339 date-time",
			})
		}
	}

	if len(r.Notes) > 1000 {
		errs = append(errs, validator.ValidationError{
			Field:   "notes",
			Message: "notes must not exceed 1000 characters",
		})
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

type CheckEventResponse struct {
	ID             string                `json:"id"`
	EmployeeID     string                `json:"employee_id"`
	GroupID        string                `json:"group_id"`
	WindowID       *string               `json:"window_id,omitempty"`
	Type           string                `json:"type"`
	Outcome        string                `json:"outcome"`
	Accepted       bool                  `json:"accepted"`
	Reason         string                `json:"reason"`
	Timestamp      string                `json:"timestamp"`
	Date           string                `json:"date"`
	Latitude       float64               `json:"latitude"`
	Longitude      float64               `json:"longitude"`
	DistanceMeters float64               `json:"distance_meters"`
	Notes          string                `json:"notes,omitempty"`
	IPAddress      *string               `json:"ip_address,omitempty"`
	Summary        *DailySummaryResponse `json:"summary,omitempty"`
}

// ========================================
// DAY DTOs
// ========================================

// DayRequest addresses one employee's attendance day in a group.
type DayRequest struct {
	GroupID    string `json:"group_id"`
	EmployeeID string `json:"employee_id"`
	Date       string `json:"date"` // YYYY-MM-DD, optional for status queries
}

func (r *DayRequest) Validate(dateRequired bool) error {
	var errs validator.ValidationErrors

	if !validator.IsValidUUID(r.GroupID) {
		errs = append(errs, validator.ValidationError{
			Field:   "group_id",
			Message: "group_id must be a valid UUID",
		})
	}

	if !validator.IsValidUUID(r.EmployeeID) {
		errs = append(errs, validator.ValidationError{
			Field:   "employee_id",
			Message: "employee_id must be a valid UUID",
		})
	}

	if r.Date == "" {
		if dateRequired {
			errs = append(errs, validator.ValidationError{
				Field:   "date",
				Message: "date is required",
			})
		}
	} else if _, valid := validator.IsValidDate(r.Date); !valid {
		errs = append(errs, validator.ValidationError{
			Field:   "date",
			Message: "date must be in YYYY-MM-DD format",
		})
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

type CheckInStatusResponse struct {
	Date           string `json:"date"`
	HasCheckedIn   bool   `json:"has_checked_in"`
	HasOpenSession bool   `json:"has_open_session"`
	CanCheckIn     bool   `json:"can_check_in"`
	CanCheckOut    bool   `json:"can_check_out"`
	Message        string `json:"message"`
}

// ========================================
// SUMMARY DTOs
// ========================================

type DailySummaryResponse struct {
	EmployeeID       string          `json:"employee_id"`
	GroupID          string          `json:"group_id"`
	Date             string          `json:"date"`
	FirstCheckInID   *string         `json:"first_check_in_id,omitempty"`
	LastCheckOutID   *string         `json:"last_check_out_id,omitempty"`
	TotalHoursWorked decimal.Decimal `json:"total_hours_worked"`
	TotalEventCount  int             `json:"total_event_count"`
	IsPresent        bool            `json:"is_present"`
	IsLate           bool            `json:"is_late"`
}

type SummaryFilter struct {
	GroupID    *string `json:"group_id,omitempty"`
	EmployeeID *string `json:"employee_id,omitempty"`
	StartDate  *string `json:"start_date,omitempty"` // YYYY-MM-DD
	EndDate    *string `json:"end_date,omitempty"`   // YYYY-MM-DD
	IsLate     *bool   `json:"is_late,omitempty"`

	// Pagination
	Page  int `json:"page"`
	Limit int `json:"limit"`
}

func (f *SummaryFilter) Validate() error {
	var errs validator.ValidationErrors

	// Page validation
	if f.Page < 0 {
		errs = append(errs, validator.ValidationError{
			Field:   "page",
			Message: "page must be a positive number",
		})
	}
	if f.Page == 0 {
		f.Page = 1 // Default page
	}

	// Limit validation
	if f.Limit < 0 {
		errs = append(errs, validator.ValidationError{
			Field:   "limit",
			Message: "limit must be a positive number",
		})
	}
	if f.Limit == 0 {
		f.Limit = 20 // Default limit
	}
	if f.Limit > 100 {
		errs = append(errs, validator.ValidationError{
			Field:   "limit",
			Message: "limit must not exceed 100",
		})
	}

	if f.GroupID != nil && !validator.IsValidUUID(*f.GroupID) {
		errs = append(errs, validator.ValidationError{
			Field:   "group_id",
			Message: "group_id must be a valid UUID",
		})
	}

	if f.EmployeeID != nil && !validator.IsValidUUID(*f.EmployeeID) {
		errs = append(errs, validator.ValidationError{
			Field:   "employee_id",
			Message: "employee_id must be a valid UUID",
		})
	}

	errs = append(errs, validateDateRange(f.StartDate, f.EndDate)...)

	if len(errs) > 0 {
		return errs
	}

	return nil
}

type ListDailySummaryResponse struct {
	TotalCount int64                  `json:"total_count"`
	Page       int                    `json:"page"`
	Limit      int                    `json:"limit"`
	TotalPages int                    `json:"total_pages"`
	Showing    string                 `json:"showing"`
	Summaries  []DailySummaryResponse `json:"summaries"`
}

// ========================================
// STATS DTOs
// ========================================

type StatsFilter struct {
	GroupID   string `json:"group_id"`
	StartDate string `json:"start_date"` // YYYY-MM-DD
	EndDate   string `json:"end_date"`   // YYYY-MM-DD
}

func (f *StatsFilter) Validate() error {
	var errs validator.ValidationErrors

	if !validator.IsValidUUID(f.GroupID) {
		errs = append(errs, validator.ValidationError{
			Field:   "group_id",
			Message: "group_id must be a valid UUID",
		})
	}

	if f.StartDate == "" {
		errs = append(errs, validator.ValidationError{
			Field:   "start_date",
			Message: "start_date is required",
		})
	}
	if f.EndDate == "" {
		errs = append(errs, validator.ValidationError{
			Field:   "end_date",
			Message: "end_date is required",
		})
	}
	if f.StartDate != "" && f.EndDate != "" {
		errs = append(errs, validateDateRange(&f.StartDate, &f.EndDate)...)
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

type StatsResponse struct {
	GroupID                 string          `json:"group_id"`
	StartDate               string          `json:"start_date"`
	EndDate                 string          `json:"end_date"`
	TotalSummaries          int             `json:"total_summaries"`
	PresentDays             int             `json:"present_days"`
	LateDays                int             `json:"late_days"`
	LateRate                decimal.Decimal `json:"late_rate"`
	TotalHoursWorked        decimal.Decimal `json:"total_hours_worked"`
	AverageHoursPerPresence decimal.Decimal `json:"average_hours_per_presence"`
	TotalCheckEvents        int             `json:"total_check_events"`
	CheckEventsByType       map[string]int  `json:"check_events_by_type"` // every type, zero when absent
}

// OvertimeReportResponse breaks the group's hours over the standard day down per employee.
type OvertimeReportResponse struct {
	GroupID            string             `json:"group_id"`
	StartDate          string             `json:"start_date"`
	EndDate            string             `json:"end_date"`
	StandardDailyHours decimal.Decimal    `json:"standard_daily_hours"`
	TotalOvertimeHours decimal.Decimal    `json:"total_overtime_hours"`
	Employees          []EmployeeOvertime `json:"employees"`               // most overtime first
	HighOvertime       []EmployeeOvertime `json:"high_overtime_employees"` // over the high overtime threshold
	Days               []DailyOvertime    `json:"days"`
}

type EmployeeOvertime struct {
	EmployeeID    string          `json:"employee_id"`
	TotalHours    decimal.Decimal `json:"total_hours"`
	TotalOvertime decimal.Decimal `json:"total_overtime"`
	DaysWorked    int             `json:"days_worked"`
	OvertimeDays  int             `json:"overtime_days"`
	AverageHours  decimal.Decimal `json:"average_hours"`
	OvertimeRate  decimal.Decimal `json:"overtime_rate"` // percent of days worked
}

type DailyOvertime struct {
	EmployeeID    string          `json:"employee_id"`
	Date          string          `json:"date"`
	HoursWorked   decimal.Decimal `json:"hours_worked"`
	OvertimeHours decimal.Decimal `json:"overtime_hours"`
}

func validateDateRange(start, end *string) validator.ValidationErrors {
	var errs validator.ValidationErrors

	var startOK, endOK bool
	if start != nil && *start != "" {
		if _, startOK = validator.IsValidDate(*start); !startOK {
			errs = append(errs, validator.ValidationError{
				Field:   "start_date",
				Message: "start_date must be in YYYY-MM-DD format",
			})
		}
	}

	if end != nil && *end != "" {
		if _, endOK = validator.IsValidDate(*end); !endOK {
			errs = append(errs, validator.ValidationError{
				Field:   "end_date",
				Message: "end_date must be in YYYY-MM-DD format",
			})
		}
	}

	// YYYY-MM-DD compares lexically
	if startOK && endOK && *end < *start {
		errs = append(errs, validator.ValidationError{
			Field:   "end_date",
			Message: "end_date must not be before start_date",
		})
	}

	return errs
}

package attendance

import (
	"cmp"
	"context"
	"fmt"
	"slices"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/attendance"
	"github.com/shopspring/decimal"
)

var (
	// StandardDailyHours is the working day overtime is measured against.
	StandardDailyHours = decimal.NewFromInt(8)

	// HighOvertimeHours flags employees whose overtime over the period exceeds it.
	HighOvertimeHours = decimal.NewFromInt(40)
)

// GetOvertimeReport implements attendance.AttendanceService.
func (a *AttendanceServiceImpl) GetOvertimeReport(ctx context.Context, filter attendance.StatsFilter) (attendance.OvertimeReportResponse, error) {
	if err := filter.Validate(); err != nil {
		return attendance.OvertimeReportResponse{}, err
	}

	start, _ := parseDate(filter.StartDate)
	end, _ := parseDate(filter.EndDate)

	summaries, err := a.DailySummaryRepository.ListForGroup(ctx, filter.GroupID, start, end)
	if err != nil {
		return attendance.OvertimeReportResponse{}, fmt.Errorf("failed to list daily summaries: %w", err)
	}

	report := ComputeOvertime(summaries)
	report.GroupID = filter.GroupID
	report.StartDate = filter.StartDate
	report.EndDate = filter.EndDate

	return report, nil
}

// ComputeOvertime measures every present day against StandardDailyHours. Daily overtime and
// the per-employee figures are rounded to one decimal; absent days are ignored.
func ComputeOvertime(summaries []attendance.DailySummary) attendance.OvertimeReportResponse {
	report := attendance.OvertimeReportResponse{
		StandardDailyHours: StandardDailyHours,
		TotalOvertimeHours: decimal.Zero,
		Employees:          []attendance.EmployeeOvertime{},
		HighOvertime:       []attendance.EmployeeOvertime{},
		Days:               []attendance.DailyOvertime{},
	}

	byEmployee := make(map[string]*attendance.EmployeeOvertime)
	for _, s := range sortedSummaries(summaries) {
		if !s.IsPresent {
			continue
		}

		overtime := decimal.Max(decimal.Zero, s.TotalHoursWorked.Sub(StandardDailyHours)).Round(1)
		report.Days = append(report.Days, attendance.DailyOvertime{
			EmployeeID:    s.EmployeeID,
			Date:          s.Date.Format("2006-01-02"),
			HoursWorked:   s.TotalHoursWorked,
			OvertimeHours: overtime,
		})

		emp, ok := byEmployee[s.EmployeeID]
		if !ok {
			emp = &attendance.EmployeeOvertime{
				EmployeeID:    s.EmployeeID,
				TotalHours:    decimal.Zero,
				TotalOvertime: decimal.Zero,
			}
			byEmployee[s.EmployeeID] = emp
		}
		emp.TotalHours = emp.TotalHours.Add(s.TotalHoursWorked)
		emp.TotalOvertime = emp.TotalOvertime.Add(overtime)
		emp.DaysWorked++
		if overtime.IsPositive() {
			emp.OvertimeDays++
		}
	}

	for _, emp := range byEmployee {
		worked := decimal.NewFromInt(int64(emp.DaysWorked))
		emp.AverageHours = emp.TotalHours.Div(worked).Round(1)
		emp.OvertimeRate = decimal.NewFromInt(int64(emp.OvertimeDays)).Mul(hundred).Div(worked).Round(1)
		emp.TotalHours = emp.TotalHours.Round(1)
		emp.TotalOvertime = emp.TotalOvertime.Round(1)

		report.TotalOvertimeHours = report.TotalOvertimeHours.Add(emp.TotalOvertime)
		report.Employees = append(report.Employees, *emp)
	}

	slices.SortFunc(report.Employees, func(a, b attendance.EmployeeOvertime) int {
		if c := b.TotalOvertime.Cmp(a.TotalOvertime); c != 0 {
			return c
		}
		return cmp.Compare(a.EmployeeID, b.EmployeeID)
	})

	for _, emp := range report.Employees {
		if emp.TotalOvertime.GreaterThan(HighOvertimeHours) {
			report.HighOvertime = append(report.HighOvertime, emp)
		}
	}

	return report
}

// sortedSummaries orders summaries by employee then date.
func sortedSummaries(summaries []attendance.DailySummary) []attendance.DailySummary {
	sorted := slices.Clone(summaries)
	slices.SortFunc(sorted, func(a, b attendance.DailySummary) int {
		if c := cmp.Compare(a.EmployeeID, b.EmployeeID); c != 0 {
			return c
		}
		return a.Date.Compare(b.Date)
	})
	return sorted
}

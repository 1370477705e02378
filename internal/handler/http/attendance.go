package http

import (
	"encoding/json"
	"log/slog"
	"net"
	"net/http"
	"strconv"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-engine/internal/handler/http/response"
	"github.com/go-chi/chi/v5"
)

type AttendanceHandler interface {
	SubmitEvent(w http.ResponseWriter, r *http.Request)
	GetStatus(w http.ResponseWriter, r *http.Request)
	ListDayEvents(w http.ResponseWriter, r *http.Request)
	GetSummary(w http.ResponseWriter, r *http.Request)
	RecomputeSummary(w http.ResponseWriter, r *http.Request)
	ListSummaries(w http.ResponseWriter, r *http.Request)
	GetStats(w http.ResponseWriter, r *http.Request)
	GetOvertimeReport(w http.ResponseWriter, r *http.Request)
}

type attendanceHandlerImpl struct {
	attendanceService attendance.AttendanceService
}

func NewAttendanceHandler(attendanceService attendance.AttendanceService) AttendanceHandler {
	return &attendanceHandlerImpl{
		attendanceService: attendanceService,
	}
}

// SubmitEvent implements AttendanceHandler.
func (h *attendanceHandlerImpl) SubmitEvent(w http.ResponseWriter, r *http.Request) {
	var req attendance.SubmitCheckEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Error("Failed to decode check event", "error", err)
		response.BadRequest(w, "Invalid request body", nil)
		return
	}
	req.GroupID = chi.URLParam(r, "groupID")
	req.IPAddress = clientIP(r)
	req.UserAgent = r.UserAgent()

	result, err := h.attendanceService.SubmitCheckEvent(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	message := "Check event accepted"
	if !result.Accepted {
		message = "Check event rejected: " + result.Reason
	}
	response.Created(w, message, result)
}

// GetStatus implements AttendanceHandler.
func (h *attendanceHandlerImpl) GetStatus(w http.ResponseWriter, r *http.Request) {
	req := attendance.DayRequest{
		GroupID:    chi.URLParam(r, "groupID"),
		EmployeeID: chi.URLParam(r, "employeeID"),
		Date:       r.URL.Query().Get("date"),
	}

	result, err := h.attendanceService.GetCheckInStatus(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// ListDayEvents implements AttendanceHandler.
func (h *attendanceHandlerImpl) ListDayEvents(w http.ResponseWriter, r *http.Request) {
	result, err := h.attendanceService.ListDayEvents(r.Context(), dayRequestFromPath(r))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// GetSummary implements AttendanceHandler.
func (h *attendanceHandlerImpl) GetSummary(w http.ResponseWriter, r *http.Request) {
	result, err := h.attendanceService.GetDailySummary(r.Context(), dayRequestFromPath(r))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// RecomputeSummary implements AttendanceHandler.
func (h *attendanceHandlerImpl) RecomputeSummary(w http.ResponseWriter, r *http.Request) {
	result, err := h.attendanceService.RecomputeDailySummary(r.Context(), dayRequestFromPath(r))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Daily summary recomputed successfully", result)
}

// ListSummaries implements AttendanceHandler.
func (h *attendanceHandlerImpl) ListSummaries(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	query := r.URL.Query()

	// Parse query parameters
	filter := attendance.SummaryFilter{}

	if groupID := query.Get("group_id"); groupID != "" {
		filter.GroupID = &groupID
	}

	if employeeID := query.Get("employee_id"); employeeID != "" {
		filter.EmployeeID = &employeeID
	}

	// Date range filters
	if startDate := query.Get("start_date"); startDate != "" {
		filter.StartDate = &startDate
	}

	if endDate := query.Get("end_date"); endDate != "" {
		filter.EndDate = &endDate
	}

	if isLate := query.Get("is_late"); isLate != "" {
		if v, err := strconv.ParseBool(isLate); err == nil {
			filter.IsLate = &v
		}
	}

	// Pagination
	page := 1
	if p := query.Get("page"); p != "" {
		if pageNum, err := strconv.Atoi(p); err == nil && pageNum > 0 {
			page = pageNum
		}
	}
	filter.Page = page

	limit := 20
	if l := query.Get("limit"); l != "" {
		if limitNum, err := strconv.Atoi(l); err == nil && limitNum > 0 {
			limit = limitNum
		}
	}
	filter.Limit = limit

	// Get data from service
	results, err := h.attendanceService.ListDailySummaries(ctx, filter)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMeta(w, results, &response.Meta{
		Page:       results.Page,
		Limit:      results.Limit,
		TotalItems: results.TotalCount,
		TotalPages: results.TotalPages,
	})
}

// GetStats implements AttendanceHandler.
func (h *attendanceHandlerImpl) GetStats(w http.ResponseWriter, r *http.Request) {
	result, err := h.attendanceService.GetStats(r.Context(), statsFilterFromQuery(r))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// GetOvertimeReport implements AttendanceHandler.
func (h *attendanceHandlerImpl) GetOvertimeReport(w http.ResponseWriter, r *http.Request) {
	result, err := h.attendanceService.GetOvertimeReport(r.Context(), statsFilterFromQuery(r))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

func statsFilterFromQuery(r *http.Request) attendance.StatsFilter {
	query := r.URL.Query()
	return attendance.StatsFilter{
		GroupID:   query.Get("group_id"),
		StartDate: query.Get("start_date"),
		EndDate:   query.Get("end_date"),
	}
}

func dayRequestFromPath(r *http.Request) attendance.DayRequest {
	return attendance.DayRequest{
		GroupID:    chi.URLParam(r, "groupID"),
		EmployeeID: chi.URLParam(r, "employeeID"),
		Date:       chi.URLParam(r, "date"),
	}
}

// clientIP returns the request's remote host. RealIP middleware has already applied
// X-Forwarded-For when present.
func clientIP(r *http.Request) *string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	if host == "" {
		return nil
	}
	return &host
}

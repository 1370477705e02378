package response

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/validator"
)

// HandleError maps domain errors to HTTP responses
func HandleError(w http.ResponseWriter, err error) {
	var validationErrs validator.ValidationErrors
	hasDetails := errors.As(err, &validationErrs)

	// Coordinate errors carry field details but are still bad input rather than a failed form.
	if errors.Is(err, attendance.ErrInvalidCoordinate) {
		var details map[string]string
		if hasDetails {
			details = validationErrs.ToMap()
		}
		BadRequest(w, "Coordinate out of range", details)
		return
	}

	// Check if it's a validation error
	if hasDetails {
		switch {
		case errors.Is(err, attendance.ErrInvalidGeoFence), errors.Is(err, attendance.ErrInvalidShiftWindow):
			UnprocessableEntity(w, "GROUP_MISCONFIGURED", err.Error(), validationErrs.ToMap())
		default:
			ValidationError(w, validationErrs.ToMap())
		}
		return
	}

	switch {
	// Input errors
	case errors.Is(err, attendance.ErrInvalidEventType):
		BadRequest(w, "Type must be one of: IN, OUT", nil)
	case errors.Is(err, attendance.ErrNoShiftWindows):
		UnprocessableEntity(w, "GROUP_MISCONFIGURED", "Attendance group has no active shift windows", nil)

	// Not found errors
	case errors.Is(err, attendance.ErrGroupNotFound):
		NotFound(w, "Attendance group not found")
	case errors.Is(err, attendance.ErrSummaryNotFound):
		NotFound(w, "Daily summary not found")

	// Command layer errors
	case errors.Is(err, attendance.ErrAlreadyCheckedIn):
		Conflict(w, "You have already checked in today")

	// Default
	default:
		slog.Error("Unhandled error", "error", err)
		InternalServerError(w, "An unexpected error occurred")
	}
}

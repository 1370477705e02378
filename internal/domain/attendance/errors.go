package attendance

import "errors"

// Attendance domain errors
var (
	// Input errors: misconfiguration or malformed input, reported before any evaluation
	ErrInvalidCoordinate  = errors.New("coordinate out of range")
	ErrInvalidGeoFence    = errors.New("invalid geofenced location")
	ErrInvalidShiftWindow = errors.New("invalid shift window")
	ErrNoShiftWindows     = errors.New("attendance group has no active shift windows")
	ErrInvalidEventType   = errors.New("invalid check event type")

	// Not found errors
	ErrGroupNotFound   = errors.New("attendance group not found or inactive")
	ErrSummaryNotFound = errors.New("daily summary not found")

	// Command layer errors
	ErrAlreadyCheckedIn = errors.New("you have already checked in today")
)

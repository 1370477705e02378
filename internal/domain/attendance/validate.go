package attendance

import (
	"fmt"

	"github.com/cmlabs-hris/attendance-engine/internal/pkg/validator"
)

// Validate rejects coordinates outside the WGS84 ranges. Values are never clamped.
func (c Coordinate) Validate() error {
	if errs := validator.Struct(c); len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidCoordinate, errs)
	}
	return nil
}

func (l GeoFencedLocation) Validate() error {
	errs := validator.Struct(l)
	if l.Timezone != "" && !validator.IsValidTimezone(l.Timezone) {
		errs = append(errs, validator.ValidationError{
			Field:   "timezone",
			Message: "must be a valid IANA time zone",
		})
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w %s: %w", ErrInvalidGeoFence, l.GroupID, errs)
	}
	return nil
}

func (w ShiftWindow) Validate() error {
	errs := validator.Struct(w)
	if w.StartTime >= w.EndTime {
		errs = append(errs, validator.ValidationError{
			Field:   "end_time",
			Message: "end_time must be after start_time",
		})
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w %s: %w", ErrInvalidShiftWindow, w.ID, errs)
	}
	return nil
}

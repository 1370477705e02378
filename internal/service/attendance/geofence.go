package attendance

import (
	"github.com/cmlabs-hris/attendance-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/utils"
)

// DistanceMeters is the haversine distance between a and b. Both must already be range-checked.
func DistanceMeters(a, b attendance.Coordinate) float64 {
	return utils.CalculateHaversineDistance(a.Latitude, a.Longitude, b.Latitude, b.Longitude)
}

// IsWithin reports whether point lies inside the fence, boundary included.
func IsWithin(location attendance.GeoFencedLocation, point attendance.Coordinate) bool {
	return DistanceMeters(location.Center, point) <= float64(location.RadiusMeters)
}

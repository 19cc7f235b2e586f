// Package geodist provides great-circle distance and walking-time
// estimation. All functions are pure.
package geodist

import (
	"fmt"
	"math"

	"github.com/guiaurbana/geocore/internal/model"
)

const (
	// earthRadiusMeters is the mean Earth radius used by the haversine
	// formula.
	earthRadiusMeters = 6371000.0

	// walkingMetersPerMinute is the pedestrian speed the ETA labels assume.
	walkingMetersPerMinute = 80.0
)

// PendingETALabel marks a place whose distance could not be computed yet.
var PendingETALabel = "A calcular"

// HaversineMeters returns the great-circle distance between two coordinates
// in meters. Walking distance is approximated from this straight-line
// figure; no street-network routing is attempted.
func HaversineMeters(a, b model.Coordinate) float64 {
	lat1 := radians(a.Lat)
	lat2 := radians(b.Lat)
	dLat := radians(b.Lat - a.Lat)
	dLng := radians(b.Lng - a.Lng)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	return 2 * earthRadiusMeters * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

// WalkingETALabel renders a walking-time estimate for a distance in meters.
// Minutes are rounded to the nearest whole minute; anything at or past one
// hour collapses to a fixed label rather than an exact breakdown.
func WalkingETALabel(distanceMeters float64) string {
	minutes := math.Round(distanceMeters / walkingMetersPerMinute)
	if minutes >= 60 {
		return "+1 hr a pie"
	}
	return fmt.Sprintf("%d min caminando", int(minutes))
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}

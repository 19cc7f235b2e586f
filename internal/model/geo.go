package model

import "math"

// Coordinate is a WGS84 point in decimal degrees.
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Valid reports whether the coordinate is finite and inside the WGS84
// range (-90..90, -180..180). Out-of-range provider output is treated as a
// geocoding failure upstream, never clamped.
func (c Coordinate) Valid() bool {
	if math.IsNaN(c.Lat) || math.IsInf(c.Lat, 0) || math.IsNaN(c.Lng) || math.IsInf(c.Lng, 0) {
		return false
	}
	return c.Lat >= -90 && c.Lat <= 90 && c.Lng >= -180 && c.Lng <= 180
}

// RoutePolyline is one contiguous path segment of a transit route, in
// drawing order. A route may own several disconnected segments; an empty
// polyline is never produced.
type RoutePolyline struct {
	Points []Coordinate `json:"points"`
}

package maplayer

import "github.com/guiaurbana/geocore/internal/model"

// Marker is one styled, popup-ready map point.
type Marker struct {
	POI   model.PointOfInterest `json:"poi"`
	Color string                `json:"color"`
	Popup string                `json:"popup"`
}

// RouteOverlay is the optional active-route layer: the segments of one
// transit line plus its stroke color.
type RouteOverlay struct {
	Line     string                `json:"line"`
	Color    string                `json:"color"`
	Segments []model.RoutePolyline `json:"segments"`
}

// View is the snapshot handed to a rendering surface. Each build produces
// fresh slices; surfaces receive immutable data and this core never
// requires in-place mutation of previously delivered collections.
type View struct {
	Markers     []Marker      `json:"markers"`
	ActiveRoute *RouteOverlay `json:"active_route,omitempty"`
}

// BuildView assembles a snapshot from aggregated POIs and an optional
// active route overlay.
func BuildView(pois []model.PointOfInterest, active *RouteOverlay) View {
	markers := make([]Marker, 0, len(pois))
	for _, p := range pois {
		markers = append(markers, Marker{
			POI:   p,
			Color: MarkerColor(p.Category),
			Popup: Popup(p),
		})
	}

	view := View{Markers: markers}
	if active != nil {
		overlay := RouteOverlay{
			Line:     active.Line,
			Color:    active.Color,
			Segments: make([]model.RoutePolyline, len(active.Segments)),
		}
		copy(overlay.Segments, active.Segments)
		view.ActiveRoute = &overlay
	}
	return view
}

// Package maplayer defines the contract the rendering surfaces consume:
// per-category marker styling, popup text, and immutable map-view
// snapshots. The desktop and mobile surfaces both draw from this package;
// neither re-implements styling or geometry handling.
package maplayer

import (
	"fmt"
	"strings"

	"github.com/guiaurbana/geocore/internal/model"
)

// DefaultMarkerColor is used for any category the styling switch does not
// map. An unmapped category must still render; silently missing markers are
// worse than off-palette ones.
const DefaultMarkerColor = "#7f8c8d"

// MarkerColor returns the marker color for a category. The switch is
// exhaustive over the known enum so that adding a category is a
// compile-time-visible decision here rather than a silently-defaulted
// runtime one.
func MarkerColor(c model.Category) string {
	switch c {
	case model.CategoryUniversity:
		return "#2980b9"
	case model.CategoryHealth:
		return "#c0392b"
	case model.CategoryHousing:
		return "#8e44ad"
	case model.CategoryFood:
		return "#e67e22"
	case model.CategoryTransport:
		return "#27ae60"
	case model.CategoryOther:
		return "#34495e"
	}
	return DefaultMarkerColor
}

// Popup renders the textual marker popup for a point of interest.
func Popup(p model.PointOfInterest) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n%s", p.Name, p.Category.Label())
	if p.Description != "" {
		fmt.Fprintf(&b, "\n%s", p.Description)
	}
	return b.String()
}

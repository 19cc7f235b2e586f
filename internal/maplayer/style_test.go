package maplayer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/guiaurbana/geocore/internal/model"
)

func TestMarkerColor_EveryCategoryMapped(t *testing.T) {
	seen := make(map[string]model.Category)
	for _, c := range model.Categories() {
		color := MarkerColor(c)
		assert.NotEmpty(t, color, "category %s must render with a color", c)
		assert.NotEqual(t, DefaultMarkerColor, color, "known category %s should have its own color", c)
		if prev, dup := seen[color]; dup {
			t.Errorf("categories %s and %s share color %s", prev, c, color)
		}
		seen[color] = c
	}
}

func TestMarkerColor_UnmappedFallsBackToDefault(t *testing.T) {
	assert.Equal(t, DefaultMarkerColor, MarkerColor(model.Category("museums")))
}

func TestPopup(t *testing.T) {
	p := model.PointOfInterest{
		Name:        "Hospital San José",
		Description: "Liniers 950 | 02477-412000",
		Category:    model.CategoryHealth,
	}
	popup := Popup(p)
	assert.Contains(t, popup, "Hospital San José")
	assert.Contains(t, popup, "Salud")
	assert.Contains(t, popup, "Liniers 950 | 02477-412000")

	bare := Popup(model.PointOfInterest{Name: "Parada 12", Category: model.CategoryTransport})
	assert.Equal(t, "Parada 12\nTransporte", bare)
}

func TestBuildView_FreshSlices(t *testing.T) {
	pois := []model.PointOfInterest{
		{ID: "1", Name: "Sede Monteagudo", Category: model.CategoryUniversity, Coordinate: model.Coordinate{Lat: -33.91, Lng: -60.58}},
	}
	segments := []model.RoutePolyline{
		{Points: []model.Coordinate{{Lat: -33.88, Lng: -60.58}, {Lat: -33.91, Lng: -60.59}}},
	}
	overlay := &RouteOverlay{Line: "linea-a", Color: "#27ae60", Segments: segments}

	view := BuildView(pois, overlay)
	require.Len(t, view.Markers, 1)
	assert.Equal(t, MarkerColor(model.CategoryUniversity), view.Markers[0].Color)
	require.NotNil(t, view.ActiveRoute)

	// Mutating the caller's overlay slice must not reach the snapshot.
	segments[0] = model.RoutePolyline{}
	assert.Len(t, view.ActiveRoute.Segments[0].Points, 2)
}

func TestBuildView_NoActiveRoute(t *testing.T) {
	view := BuildView(nil, nil)
	assert.Empty(t, view.Markers)
	assert.Nil(t, view.ActiveRoute)
}

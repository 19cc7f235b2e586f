package geodist

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/guiaurbana/geocore/internal/model"
)

func TestHaversineMeters_Identity(t *testing.T) {
	for _, c := range []model.Coordinate{
		{Lat: 0, Lng: 0},
		{Lat: -33.8821, Lng: -60.5843},
		{Lat: 89.9, Lng: 179.9},
	} {
		assert.Zero(t, HaversineMeters(c, c))
	}
}

func TestHaversineMeters_Symmetry(t *testing.T) {
	a := model.Coordinate{Lat: -33.8821, Lng: -60.5843}
	b := model.Coordinate{Lat: -33.9137, Lng: -60.5868}
	assert.Equal(t, HaversineMeters(a, b), HaversineMeters(b, a))
}

func TestHaversineMeters_PergaminoCampus(t *testing.T) {
	// Downtown Pergamino to the UNNOBA campus, a known ~3.5 km walk.
	a := model.Coordinate{Lat: -33.8821, Lng: -60.5843}
	b := model.Coordinate{Lat: -33.9137, Lng: -60.5868}
	assert.InDelta(t, 3520, HaversineMeters(a, b), 50)
}

func TestWalkingETALabel(t *testing.T) {
	tests := []struct {
		meters float64
		want   string
	}{
		{0, "0 min caminando"},
		{80, "1 min caminando"},
		{119, "1 min caminando"},  // 1.49 min rounds down
		{121, "2 min caminando"},  // 1.51 min rounds up
		{4720, "59 min caminando"},
		{4800, "+1 hr a pie"}, // exactly 60 min crosses the threshold
		{12000, "+1 hr a pie"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, WalkingETALabel(tt.meters), "distance %.0f m", tt.meters)
	}
}

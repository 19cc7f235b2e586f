package model

import "time"

// PlaceRecord is a raw place row as maintained by the city-guide store:
// a display name and a free-text street address, plus whatever listing
// metadata already exists. The enrichment core reads these, never mutates
// them.
type PlaceRecord struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Street   string `json:"street"`
	Category string `json:"category,omitempty"`
	Rating   int    `json:"rating,omitempty"`
}

// Enrichable reports whether the record carries enough data to geocode.
// Records missing a name or street are skipped, not failed.
func (p PlaceRecord) Enrichable() bool {
	return p.Name != "" && p.Street != ""
}

// EnrichedPlace is a PlaceRecord plus the geocoding output. Coordinate and
// DistanceMeters are set together or not at all; ETALabel is always set,
// falling back to the pending sentinel when geocoding failed.
type EnrichedPlace struct {
	PlaceRecord
	Coordinate     *Coordinate `json:"coordinate,omitempty"`
	DistanceMeters *int        `json:"distance_meters,omitempty"`
	ETALabel       string      `json:"eta_label"`
}

// RunSummary describes one enrichment run so an operator can decide
// whether to re-run.
type RunSummary struct {
	Attempted             int           `json:"attempted"`
	Succeeded             int           `json:"succeeded"`
	Failed                int           `json:"failed"`
	Skipped               int           `json:"skipped"`
	UsedFallbackReference bool          `json:"used_fallback_reference"`
	Duration              time.Duration `json:"duration"`
}

// Run is a persisted enrichment run record.
type Run struct {
	ID        string     `json:"id"`
	Summary   RunSummary `json:"summary"`
	CreatedAt time.Time  `json:"created_at"`
}

// Package store persists the city guide's relational data: raw and
// enriched places, POI source rows, the transit-line registry, and
// enrichment run records.
package store

import (
	"context"

	"github.com/guiaurbana/geocore/internal/model"
	"github.com/guiaurbana/geocore/internal/poi"
	"github.com/guiaurbana/geocore/internal/routes"
)

// Store defines the persistence interface consumed by the enrichment job
// and the map-data server.
type Store interface {
	// Places
	ListPlaces(ctx context.Context) ([]model.PlaceRecord, error)
	SaveEnrichment(ctx context.Context, places []model.EnrichedPlace) error

	// POI sources. Category selects which independently-maintained record
	// set to read; lat/lng come back as strings, "0" meaning unset.
	ListPOISource(ctx context.Context, category model.Category) ([]poi.SourceRecord, error)

	// Transit lines
	ListLines(ctx context.Context) ([]routes.Line, error)
	UpsertLine(ctx context.Context, line routes.Line) error
	SaveLineGeometry(ctx context.Context, slug string, wkb []byte) error
	GetLineGeometry(ctx context.Context, slug string) ([]byte, error)

	// Runs
	RecordRun(ctx context.Context, summary model.RunSummary) (*model.Run, error)
	ListRuns(ctx context.Context, limit int) ([]model.Run, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}

// poiSourceTables maps each category with its own record set to the table
// that holds it. An allowlist, never interpolated from user input.
var poiSourceTables = map[model.Category]string{
	model.CategoryUniversity: "university_sites",
	model.CategoryHealth:     "health_services",
}

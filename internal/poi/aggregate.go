// Package poi merges heterogeneous category sources into one uniform
// point-of-interest collection for the map layer.
package poi

import (
	"strconv"
	"strings"

	"github.com/guiaurbana/geocore/internal/model"
)

// unsetCoordinate is the literal upstream sources store when a coordinate
// is unknown. It means "unset" in this domain, not the equator/prime-
// meridian intersection; the convention predates this core and is
// preserved for data still using it.
const unsetCoordinate = "0"

// SourceRecord is one raw row from an independently-maintained POI source.
// Latitude and longitude arrive as strings.
type SourceRecord struct {
	ID     string
	Name   string
	Street string
	Phone  string
	Email  string
	Lat    string
	Lng    string
}

// Source is one category's record set. Sources are handed to Aggregate as
// a slice because the supplied category order determines output order.
type Source struct {
	Category model.Category
	Records  []SourceRecord
}

// Aggregate builds a fresh POI collection from the given sources. Records
// without a usable coordinate are excluded. No deduplication is performed
// across categories; a place listed under two categories legitimately
// appears twice. Output is stable: sources in the order supplied, records
// in input order within each source.
func Aggregate(sources []Source) []model.PointOfInterest {
	var pois []model.PointOfInterest
	for _, src := range sources {
		for _, rec := range src.Records {
			coord, ok := parseCoordinate(rec.Lat, rec.Lng)
			if !ok {
				continue
			}
			pois = append(pois, model.PointOfInterest{
				ID:          rec.ID,
				Name:        rec.Name,
				Description: buildDescription(rec),
				Coordinate:  coord,
				Category:    src.Category,
			})
		}
	}
	return pois
}

// parseCoordinate accepts a lat/lng string pair only when both are present,
// parse as finite in-range numbers, and neither is the "0" unset sentinel.
func parseCoordinate(latStr, lngStr string) (model.Coordinate, bool) {
	latStr = strings.TrimSpace(latStr)
	lngStr = strings.TrimSpace(lngStr)
	if latStr == "" || lngStr == "" || latStr == unsetCoordinate || lngStr == unsetCoordinate {
		return model.Coordinate{}, false
	}
	lat, latErr := strconv.ParseFloat(latStr, 64)
	lng, lngErr := strconv.ParseFloat(lngStr, 64)
	if latErr != nil || lngErr != nil {
		return model.Coordinate{}, false
	}
	coord := model.Coordinate{Lat: lat, Lng: lng}
	if !coord.Valid() {
		return model.Coordinate{}, false
	}
	return coord, true
}

// buildDescription joins the available address and contact fields with a
// fixed separator, omitting absent fields.
func buildDescription(rec SourceRecord) string {
	var parts []string
	for _, f := range []string{rec.Street, rec.Phone, rec.Email} {
		if f = strings.TrimSpace(f); f != "" {
			parts = append(parts, f)
		}
	}
	return strings.Join(parts, " | ")
}

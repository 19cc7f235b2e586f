// Package kml extracts transit-route geometry from KML-style documents.
package kml

import (
	"encoding/xml"
	"io"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/text/encoding/htmlindex"

	"github.com/guiaurbana/geocore/internal/model"
)

// ParseRoute extracts every <coordinates> block from the document as one
// polyline each. A route drawn as several disconnected segments yields
// several polylines; their order and the point order within each are
// preserved exactly as encountered.
//
// Parsing is tolerant at the tuple level: a token that does not parse as
// two finite in-range numbers is dropped, and a block that yields no valid
// point is omitted entirely. Only a malformed document structure is an
// error.
func ParseRoute(r io.Reader) ([]model.RoutePolyline, error) {
	decoder := xml.NewDecoder(r)
	// Municipal KML exports frequently declare latin-1.
	decoder.CharsetReader = func(charset string, input io.Reader) (io.Reader, error) {
		enc, err := htmlindex.Get(charset)
		if err != nil {
			return nil, eris.Wrapf(err, "kml: unsupported charset %q", charset)
		}
		return enc.NewDecoder().Reader(input), nil
	}

	var polylines []model.RoutePolyline
	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			return polylines, nil
		}
		if err != nil {
			return polylines, eris.Wrap(err, "kml: read token")
		}

		se, ok := tok.(xml.StartElement)
		if !ok || se.Name.Local != "coordinates" {
			continue
		}

		var raw string
		if err := decoder.DecodeElement(&raw, &se); err != nil {
			return polylines, eris.Wrap(err, "kml: decode coordinates block")
		}

		points := parseTuples(raw)
		if len(points) == 0 {
			continue
		}
		polylines = append(polylines, model.RoutePolyline{Points: points})
	}
}

// ParseRouteString is a convenience wrapper for documents already in memory.
func ParseRouteString(doc string) ([]model.RoutePolyline, error) {
	return ParseRoute(strings.NewReader(doc))
}

// parseTuples splits a coordinates block into points. Tuples come as
// whitespace-separated "lon,lat[,alt]" with longitude first in the source
// format, swapped here to the latitude-first Coordinate convention.
func parseTuples(raw string) []model.Coordinate {
	var points []model.Coordinate
	for _, tuple := range strings.Fields(raw) {
		parts := strings.Split(tuple, ",")
		if len(parts) < 2 {
			zap.L().Debug("kml: dropping malformed tuple", zap.String("tuple", tuple))
			continue
		}
		lng, lngErr := strconv.ParseFloat(parts[0], 64)
		lat, latErr := strconv.ParseFloat(parts[1], 64)
		if lngErr != nil || latErr != nil {
			zap.L().Debug("kml: dropping unparseable tuple", zap.String("tuple", tuple))
			continue
		}
		coord := model.Coordinate{Lat: lat, Lng: lng}
		if !coord.Valid() {
			zap.L().Debug("kml: dropping out-of-range tuple", zap.String("tuple", tuple))
			continue
		}
		points = append(points, coord)
	}
	return points
}

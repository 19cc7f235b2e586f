package kml

import (
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/ewkb"

	"github.com/guiaurbana/geocore/internal/model"
)

// MultiLineString converts parsed polylines to a go-geom MultiLineString
// with SRID 4326, X/Y in lon/lat order per geometry convention.
func MultiLineString(polylines []model.RoutePolyline) (*geom.MultiLineString, error) {
	mls := geom.NewMultiLineString(geom.XY).SetSRID(4326)
	for _, pl := range polylines {
		flat := make([]float64, 0, len(pl.Points)*2)
		for _, p := range pl.Points {
			flat = append(flat, p.Lng, p.Lat)
		}
		ls := geom.NewLineStringFlat(geom.XY, flat)
		if err := mls.Push(ls); err != nil {
			return nil, eris.Wrap(err, "kml: push linestring")
		}
	}
	return mls, nil
}

// EncodeWKB serializes polylines as EWKB for relational persistence.
func EncodeWKB(polylines []model.RoutePolyline) ([]byte, error) {
	mls, err := MultiLineString(polylines)
	if err != nil {
		return nil, err
	}
	data, err := ewkb.Marshal(mls, ewkb.NDR)
	if err != nil {
		return nil, eris.Wrap(err, "kml: encode WKB")
	}
	return data, nil
}

// DecodeWKB restores polylines from their EWKB form.
func DecodeWKB(data []byte) ([]model.RoutePolyline, error) {
	g, err := ewkb.Unmarshal(data)
	if err != nil {
		return nil, eris.Wrap(err, "kml: decode WKB")
	}
	mls, ok := g.(*geom.MultiLineString)
	if !ok {
		return nil, eris.Errorf("kml: expected MultiLineString, got %T", g)
	}

	var polylines []model.RoutePolyline
	for i := 0; i < mls.NumLineStrings(); i++ {
		ls := mls.LineString(i)
		points := make([]model.Coordinate, 0, ls.NumCoords())
		for j := 0; j < ls.NumCoords(); j++ {
			c := ls.Coord(j)
			points = append(points, model.Coordinate{Lat: c[1], Lng: c[0]})
		}
		if len(points) == 0 {
			continue
		}
		polylines = append(polylines, model.RoutePolyline{Points: points})
	}
	return polylines, nil
}

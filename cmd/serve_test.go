package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/guiaurbana/geocore/internal/kml"
	"github.com/guiaurbana/geocore/internal/maplayer"
	"github.com/guiaurbana/geocore/internal/model"
	"github.com/guiaurbana/geocore/internal/poi"
	"github.com/guiaurbana/geocore/internal/routes"
)

// fakeStore serves canned data to the router under test.
type fakeStore struct {
	sources map[model.Category][]poi.SourceRecord
	lines   []routes.Line
	geoms   map[string][]byte
}

func (f *fakeStore) ListPlaces(ctx context.Context) ([]model.PlaceRecord, error) { return nil, nil }
func (f *fakeStore) SaveEnrichment(ctx context.Context, places []model.EnrichedPlace) error {
	return nil
}
func (f *fakeStore) ListPOISource(ctx context.Context, c model.Category) ([]poi.SourceRecord, error) {
	return f.sources[c], nil
}
func (f *fakeStore) ListLines(ctx context.Context) ([]routes.Line, error) { return f.lines, nil }
func (f *fakeStore) UpsertLine(ctx context.Context, line routes.Line) error {
	return nil
}
func (f *fakeStore) SaveLineGeometry(ctx context.Context, slug string, wkb []byte) error {
	return nil
}
func (f *fakeStore) GetLineGeometry(ctx context.Context, slug string) ([]byte, error) {
	wkb, ok := f.geoms[slug]
	if !ok {
		return nil, eris.Errorf("line not found: %s", slug)
	}
	return wkb, nil
}
func (f *fakeStore) RecordRun(ctx context.Context, s model.RunSummary) (*model.Run, error) {
	return &model.Run{Summary: s}, nil
}
func (f *fakeStore) ListRuns(ctx context.Context, limit int) ([]model.Run, error) { return nil, nil }
func (f *fakeStore) Migrate(ctx context.Context) error                            { return nil }
func (f *fakeStore) Close() error                                                 { return nil }

func newTestStore(t *testing.T) *fakeStore {
	t.Helper()
	wkb, err := kml.EncodeWKB([]model.RoutePolyline{
		{Points: []model.Coordinate{{Lat: -33.89, Lng: -60.57}, {Lat: -33.90, Lng: -60.58}}},
	})
	require.NoError(t, err)

	return &fakeStore{
		sources: map[model.Category][]poi.SourceRecord{
			model.CategoryUniversity: {
				{ID: "u1", Name: "Edificio Reforma", Street: "Monteagudo 2772", Lat: "-33.9137", Lng: "-60.5868"},
			},
			model.CategoryHealth: {
				{ID: "h1", Name: "Hospital San José", Street: "Liniers 950", Lat: "-33.896", Lng: "-60.573"},
				{ID: "h2", Name: "Sin Coordenada", Lat: "0", Lng: "0"},
			},
		},
		lines: []routes.Line{
			{Slug: "linea-a", Name: "Línea A", Color: "#27ae60", KMLURL: "https://example.com/a.kml"},
		},
		geoms: map[string][]byte{"linea-a": wkb},
	}
}

func doGet(t *testing.T, handler http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestServeHealthz(t *testing.T) {
	rec := doGet(t, newRouter(newTestStore(t)), "/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestServePOIView(t *testing.T) {
	rec := doGet(t, newRouter(newTestStore(t)), "/api/map/pois")
	require.Equal(t, http.StatusOK, rec.Code)

	var view maplayer.View
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))

	// The "0" sentinel row is excluded; university rows come first.
	require.Len(t, view.Markers, 2)
	assert.Equal(t, "Edificio Reforma", view.Markers[0].POI.Name)
	assert.Equal(t, model.CategoryUniversity, view.Markers[0].POI.Category)
	assert.Equal(t, "#c0392b", view.Markers[1].Color)
	assert.Nil(t, view.ActiveRoute)
}

func TestServeLines(t *testing.T) {
	rec := doGet(t, newRouter(newTestStore(t)), "/api/map/lines")
	require.Equal(t, http.StatusOK, rec.Code)

	var lines []routes.Line
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &lines))
	require.Len(t, lines, 1)
	assert.Equal(t, "linea-a", lines[0].Slug)
}

func TestServeLineOverlay(t *testing.T) {
	rec := doGet(t, newRouter(newTestStore(t)), "/api/map/lines/linea-a")
	require.Equal(t, http.StatusOK, rec.Code)

	var view maplayer.View
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))

	require.NotNil(t, view.ActiveRoute)
	assert.Equal(t, "Línea A", view.ActiveRoute.Line)
	assert.Equal(t, "#27ae60", view.ActiveRoute.Color)
	require.Len(t, view.ActiveRoute.Segments, 1)
	require.Len(t, view.ActiveRoute.Segments[0].Points, 2)
	assert.InDelta(t, -33.89, view.ActiveRoute.Segments[0].Points[0].Lat, 1e-6)
	assert.Len(t, view.Markers, 2)
}

func TestServeLineNotFound(t *testing.T) {
	rec := doGet(t, newRouter(newTestStore(t)), "/api/map/lines/linea-x")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

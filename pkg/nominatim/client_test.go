package nominatim

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGeocode_FirstCandidateUsed(t *testing.T) {
	var calls atomic.Int32

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		assert.Equal(t, "json", r.URL.Query().Get("format"))
		assert.Equal(t, "1", r.URL.Query().Get("limit"))
		assert.Equal(t, "Av. Presidente Frondizi 2650, Pergamino, Buenos Aires", r.URL.Query().Get("q"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `[
			{"lat": "-33.9137", "lon": "-60.5868", "display_name": "UNNOBA, Pergamino"},
			{"lat": "0", "lon": "0", "display_name": "decoy"}
		]`)
	}))
	defer srv.Close()

	c := NewClient(WithBaseURL(srv.URL))
	coord, err := c.Geocode(context.Background(), "Av. Presidente Frondizi 2650, Pergamino, Buenos Aires")
	require.NoError(t, err)
	assert.InDelta(t, -33.9137, coord.Lat, 1e-9)
	assert.InDelta(t, -60.5868, coord.Lng, 1e-9)
	assert.Equal(t, int32(1), calls.Load(), "exactly one outbound lookup per call")
}

func TestGeocode_UserAgentSent(t *testing.T) {
	var gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		_, _ = io.WriteString(w, `[{"lat": "-33.9", "lon": "-60.5"}]`)
	}))
	defer srv.Close()

	c := NewClient(WithBaseURL(srv.URL), WithUserAgent("test-tag/0.1"))
	_, err := c.Geocode(context.Background(), "Calle Falsa 123")
	require.NoError(t, err)
	assert.Equal(t, "test-tag/0.1", gotUA)
}

func TestGeocode_EmptyArrayIsNoResult(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `[]`)
	}))
	defer srv.Close()

	c := NewClient(WithBaseURL(srv.URL))
	_, err := c.Geocode(context.Background(), "Calle Inexistente 999")
	require.Error(t, err)
	assert.True(t, IsNoResult(err))
}

func TestGeocode_TransientFailures(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{
			name: "server error",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusBadGateway)
			},
		},
		{
			name: "malformed json",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				_, _ = io.WriteString(w, `{"not":"an array"`)
			},
		},
		{
			name: "unparseable lat",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				_, _ = io.WriteString(w, `[{"lat": "abc", "lon": "-60.5"}]`)
			},
		},
		{
			name: "latitude out of range",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				_, _ = io.WriteString(w, `[{"lat": "91.5", "lon": "-60.5"}]`)
			},
		},
		{
			name: "longitude out of range",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				_, _ = io.WriteString(w, `[{"lat": "-33.9", "lon": "-190.0"}]`)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			c := NewClient(WithBaseURL(srv.URL))
			_, err := c.Geocode(context.Background(), "Calle Falsa 123")
			require.Error(t, err)
			assert.False(t, IsNoResult(err), "transient failures must be distinguishable from no-result")
		})
	}
}

func TestGeocode_NetworkErrorIsTransient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {}))
	srv.Close() // connection refused from here on

	c := NewClient(WithBaseURL(srv.URL))
	_, err := c.Geocode(context.Background(), "Calle Falsa 123")
	require.Error(t, err)
	assert.False(t, IsNoResult(err))
}

// Package nominatim provides forward geocoding against a Nominatim-style
// search endpoint.
package nominatim

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rotisserie/eris"

	"github.com/guiaurbana/geocore/internal/model"
)

const (
	defaultBaseURL   = "https://nominatim.openstreetmap.org"
	defaultUserAgent = "guiaurbana-geocore/1.0 (contacto@guiaurbana.ar)"
)

// ErrNoResult is returned when the provider answers successfully but has no
// candidate for the address. Distinct from transient failures: both leave
// the place pending, but only transient causes are worth logging.
var ErrNoResult = eris.New("nominatim: no result for address")

// IsNoResult reports whether err means the provider had no candidate.
func IsNoResult(err error) bool {
	return eris.Is(err, ErrNoResult)
}

// Client geocodes a free-text address into a coordinate.
//
// Implementations issue exactly one outbound lookup per call and perform no
// retries; retry and pacing policy belong to the caller. The public
// Nominatim service requires requests from one client to be spaced at least
// 1.5 s apart, so callers that loop over addresses must serialize calls and
// honor that interval or risk having their network identity blocked.
type Client interface {
	Geocode(ctx context.Context, address string) (model.Coordinate, error)
}

// Option configures the client.
type Option func(*client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *client) {
		c.httpClient = hc
	}
}

// WithBaseURL overrides the search endpoint base URL.
func WithBaseURL(base string) Option {
	return func(c *client) {
		c.baseURL = base
	}
}

// WithUserAgent sets the identifying client tag sent on every request.
// The provider's usage policy requires one; anonymous requests get refused.
func WithUserAgent(ua string) Option {
	return func(c *client) {
		c.userAgent = ua
	}
}

type client struct {
	httpClient *http.Client
	baseURL    string
	userAgent  string
}

// NewClient creates a geocoding Client with the given options.
func NewClient(opts ...Option) Client {
	c := &client{
		httpClient: &http.Client{Timeout: 15 * time.Second},
		baseURL:    defaultBaseURL,
		userAgent:  defaultUserAgent,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// searchResult is one element of the provider's JSON array response.
// Latitude and longitude arrive as strings.
type searchResult struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
}

// Geocode resolves a single address. The caller is responsible for
// appending locality/region context to the address before calling; the
// client does not guess missing context.
func (c *client) Geocode(ctx context.Context, address string) (model.Coordinate, error) {
	params := url.Values{
		"format": {"json"},
		"q":      {address},
		"limit":  {"1"},
	}
	reqURL := c.baseURL + "/search?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return model.Coordinate{}, eris.Wrap(err, "nominatim: build request")
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return model.Coordinate{}, eris.Wrap(err, "nominatim: request")
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		return model.Coordinate{}, eris.Errorf("nominatim: status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return model.Coordinate{}, eris.Wrap(err, "nominatim: read body")
	}

	var results []searchResult
	if err := json.Unmarshal(body, &results); err != nil {
		return model.Coordinate{}, eris.Wrap(err, "nominatim: parse response")
	}

	if len(results) == 0 {
		return model.Coordinate{}, ErrNoResult
	}

	first := results[0]
	lat, err := strconv.ParseFloat(first.Lat, 64)
	if err != nil {
		return model.Coordinate{}, eris.Wrapf(err, "nominatim: parse lat %q", first.Lat)
	}
	lng, err := strconv.ParseFloat(first.Lon, 64)
	if err != nil {
		return model.Coordinate{}, eris.Wrapf(err, "nominatim: parse lon %q", first.Lon)
	}

	coord := model.Coordinate{Lat: lat, Lng: lng}
	if !coord.Valid() {
		return model.Coordinate{}, eris.Errorf("nominatim: coordinates out of range (%s, %s)", first.Lat, first.Lon)
	}
	return coord, nil
}

package locale

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/chrissnell/ephem/internal/types"
	"golang.org/x/time/rate"
)

// DefaultGeoIPURL answers with the caller's approximate position as JSON
const DefaultGeoIPURL = "http://ip-api.com/json/?fields=status,message,lat,lon"

// HTTPGeolocator asks an IP geolocation service where this host is
type HTTPGeolocator struct {
	url    string
	client *http.Client
}

// geoIPResponse matches the ip-api.com JSON shape
type geoIPResponse struct {
	Status  string  `json:"status"`
	Message string  `json:"message"`
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
}

// NewHTTPGeolocator creates a geolocator for url, or DefaultGeoIPURL if empty
func NewHTTPGeolocator(url string, timeout time.Duration) *HTTPGeolocator {
	if url == "" {
		url = DefaultGeoIPURL
	}
	return &HTTPGeolocator{
		url:    url,
		client: &http.Client{Timeout: timeout},
	}
}

// Locate performs a single lookup; there are no retries
func (g *HTTPGeolocator) Locate(ctx context.Context) (types.Coordinate, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.url, nil)
	if err != nil {
		return types.Coordinate{}, fmt.Errorf("error creating geolocation request: %w", err)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return types.Coordinate{}, fmt.Errorf("error querying %s: %w", g.url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return types.Coordinate{}, fmt.Errorf("geolocation service returned %s", resp.Status)
	}

	var body geoIPResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return types.Coordinate{}, fmt.Errorf("error decoding geolocation response: %w", err)
	}

	if body.Status != "success" {
		return types.Coordinate{}, fmt.Errorf("geolocation service reported %q: %s", body.Status, body.Message)
	}

	return types.Coordinate{Latitude: body.Lat, Longitude: body.Lon}, nil
}

// RateLimitedGeolocator wraps a Geolocator with rate limiting so a long-running
// server stays inside the lookup service's free quota
type RateLimitedGeolocator struct {
	geo     Geolocator
	limiter *rate.Limiter
}

// NewRateLimitedGeolocator creates a limited geolocator.
// rps is the maximum lookups per second allowed (can be fractional)
// burst is the maximum burst size allowed
func NewRateLimitedGeolocator(geo Geolocator, rps float64, burst int) *RateLimitedGeolocator {
	return &RateLimitedGeolocator{
		geo:     geo,
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
	}
}

// Locate fails fast instead of queueing when the limit is exhausted, letting
// the resolver fall back to its default
func (r *RateLimitedGeolocator) Locate(ctx context.Context) (types.Coordinate, error) {
	if !r.limiter.Allow() {
		return types.Coordinate{}, fmt.Errorf("geolocation rate limit exceeded")
	}
	return r.geo.Locate(ctx)
}

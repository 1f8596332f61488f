package locale

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/chrissnell/ephem/internal/types"
	"github.com/chrissnell/ephem/pkg/config"
)

func f(v float64) *float64 { return &v }

type fakeGeolocator struct {
	coord types.Coordinate
	err   error
	calls int
}

func (g *fakeGeolocator) Locate(ctx context.Context) (types.Coordinate, error) {
	g.calls++
	return g.coord, g.err
}

func TestResolveExplicit(t *testing.T) {
	tests := []struct {
		name     string
		lat, lng float64
	}{
		{"origin", 0, 0},
		{"north pole", 90, 0},
		{"south pole", -90, 0},
		{"date line east", 12.5, 180},
		{"date line west", -33.9, -180},
		{"new york", 40.7128, -74.006},
	}

	// Saved location must not override explicit input
	r := NewResolver(config.LocationData{Lat: f(51.5), Lng: f(-0.1)}, nil)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loc, err := r.Resolve(context.Background(), Request{Lat: f(tt.lat), Lng: f(tt.lng)})
			if err != nil {
				t.Fatalf("Resolve() error = %v", err)
			}
			if loc.Latitude != tt.lat || loc.Longitude != tt.lng {
				t.Errorf("Resolve() = %v, %v; expected %v, %v", loc.Latitude, loc.Longitude, tt.lat, tt.lng)
			}
			if loc.Approximate || loc.FromConfig || loc.FromGeoIP {
				t.Errorf("Resolve() flags = %+v, expected all false", loc)
			}
		})
	}
}

func TestResolveOutOfRange(t *testing.T) {
	tests := []struct {
		name     string
		lat, lng float64
	}{
		{"lat 91", 91, 0},
		{"lat -91", -91, 0},
		{"lng 181", 0, 181},
		{"lng -181", 0, -181},
	}

	r := NewResolver(config.LocationData{}, nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := r.Resolve(context.Background(), Request{Lat: f(tt.lat), Lng: f(tt.lng)})
			if !errors.Is(err, ErrInvalidCoordinates) {
				t.Errorf("Resolve() error = %v, expected ErrInvalidCoordinates", err)
			}
		})
	}
}

func TestResolveIncomplete(t *testing.T) {
	r := NewResolver(config.LocationData{Lat: f(1), Lng: f(2)}, nil)

	if _, err := r.Resolve(context.Background(), Request{Lat: f(45)}); !errors.Is(err, ErrIncompleteCoordinates) {
		t.Errorf("latitude only: error = %v, expected ErrIncompleteCoordinates", err)
	}
	if _, err := r.Resolve(context.Background(), Request{Lng: f(45)}); !errors.Is(err, ErrIncompleteCoordinates) {
		t.Errorf("longitude only: error = %v, expected ErrIncompleteCoordinates", err)
	}
}

func TestResolveFromConfig(t *testing.T) {
	r := NewResolver(config.LocationData{Lat: f(47.6), Lng: f(-122.3)}, nil)

	loc, err := r.Resolve(context.Background(), Request{})
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if loc.Latitude != 47.6 || loc.Longitude != -122.3 {
		t.Errorf("Resolve() = %v; expected config location", loc.Coordinate)
	}
	if !loc.FromConfig || loc.Approximate {
		t.Errorf("flags = %+v, expected FromConfig only", loc)
	}
}

func TestResolveDefault(t *testing.T) {
	tests := []struct {
		name  string
		prefs config.LocationData
	}{
		{"no config", config.LocationData{}},
		{"partial config", config.LocationData{Lat: f(10)}},
		{"invalid config", config.LocationData{Lat: f(100), Lng: f(10)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loc, err := NewResolver(tt.prefs, nil).Resolve(context.Background(), Request{})
			if err != nil {
				t.Fatalf("Resolve() error = %v", err)
			}
			if loc.Latitude != 0 || loc.Longitude != 0 || !loc.Approximate || loc.FromConfig {
				t.Errorf("Resolve() = %+v, expected approximate 0, 0", loc)
			}
		})
	}
}

func TestResolveGeolocation(t *testing.T) {
	geo := &fakeGeolocator{coord: types.Coordinate{Latitude: 35.68, Longitude: 139.69}}

	loc, err := NewResolver(config.LocationData{}, geo).Resolve(context.Background(), Request{})
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if !loc.FromGeoIP || loc.Approximate || loc.Latitude != 35.68 {
		t.Errorf("Resolve() = %+v, expected geolocated position", loc)
	}

	// Config wins over lookup, and the lookup isn't attempted
	geo.calls = 0
	loc, _ = NewResolver(config.LocationData{Lat: f(1), Lng: f(2)}, geo).Resolve(context.Background(), Request{})
	if !loc.FromConfig || geo.calls != 0 {
		t.Errorf("expected config location without lookup, got %+v after %d calls", loc, geo.calls)
	}
}

func TestResolveGeolocationFailure(t *testing.T) {
	geo := &fakeGeolocator{err: errors.New("network unreachable")}

	loc, err := NewResolver(config.LocationData{}, geo).Resolve(context.Background(), Request{})
	if err != nil {
		t.Fatalf("geolocation failure must not be fatal, got %v", err)
	}
	if !loc.Approximate || loc.FromGeoIP {
		t.Errorf("Resolve() = %+v, expected approximate fallback", loc)
	}
	if geo.calls != 1 {
		t.Errorf("expected exactly one lookup attempt, got %d", geo.calls)
	}
}

func TestParseCoordinate(t *testing.T) {
	if v, err := ParseCoordinate(" -74.006 "); err != nil || v != -74.006 {
		t.Errorf("ParseCoordinate() = %v, %v", v, err)
	}
	if _, err := ParseCoordinate("north"); !errors.Is(err, ErrInvalidCoordinates) {
		t.Errorf("ParseCoordinate(north) error = %v, expected ErrInvalidCoordinates", err)
	}
}

func TestHTTPGeolocator(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"success","lat":52.52,"lon":13.405}`))
	}))
	defer ts.Close()

	c, err := NewHTTPGeolocator(ts.URL, time.Second).Locate(context.Background())
	if err != nil {
		t.Fatalf("Locate() error = %v", err)
	}
	if c.Latitude != 52.52 || c.Longitude != 13.405 {
		t.Errorf("Locate() = %v, expected 52.52 13.405", c)
	}
}

func TestHTTPGeolocatorFailures(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		payload string
	}{
		{"server error", http.StatusInternalServerError, ``},
		{"service failure", http.StatusOK, `{"status":"fail","message":"reserved range"}`},
		{"garbage", http.StatusOK, `not json`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.payload))
			}))
			defer ts.Close()

			if _, err := NewHTTPGeolocator(ts.URL, time.Second).Locate(context.Background()); err == nil {
				t.Error("Locate() expected an error")
			}
		})
	}
}

func TestRateLimitedGeolocator(t *testing.T) {
	geo := &fakeGeolocator{coord: types.Coordinate{Latitude: 1, Longitude: 1}}
	limited := NewRateLimitedGeolocator(geo, 0.001, 1)

	if _, err := limited.Locate(context.Background()); err != nil {
		t.Fatalf("first Locate() error = %v", err)
	}
	if _, err := limited.Locate(context.Background()); err == nil {
		t.Error("second Locate() expected rate limit error")
	}
	if geo.calls != 1 {
		t.Errorf("underlying geolocator called %d times, expected 1", geo.calls)
	}
}

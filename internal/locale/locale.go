// Package locale resolves the observer location for a chart from, in order,
// explicit input, saved preferences, an optional geolocation lookup, and
// finally Null Island (0, 0) marked approximate.
package locale

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/chrissnell/ephem/internal/log"
	"github.com/chrissnell/ephem/internal/types"
	"github.com/chrissnell/ephem/pkg/config"
)

var (
	// ErrInvalidCoordinates covers non-numeric or out-of-range values
	ErrInvalidCoordinates = errors.New("invalid coordinates")

	// ErrIncompleteCoordinates is returned when only one of lat/lng is given
	ErrIncompleteCoordinates = errors.New("both latitude and longitude must be provided together")

	// ErrGeolocationFailure is logged, never returned, by Resolve
	ErrGeolocationFailure = errors.New("geolocation lookup failed")
)

// Locale is a resolved observer location and where it came from
type Locale struct {
	types.Coordinate
	Approximate bool `json:"approximate"`
	FromConfig  bool `json:"from_config"`
	FromGeoIP   bool `json:"from_geoip"`
}

// Request carries the optional explicit coordinates from the caller
type Request struct {
	Lat *float64
	Lng *float64
}

// Geolocator looks up an approximate position for the current host
type Geolocator interface {
	Locate(ctx context.Context) (types.Coordinate, error)
}

// Resolver applies the location precedence chain
type Resolver struct {
	prefs config.LocationData
	geo   Geolocator
}

// NewResolver creates a resolver over the saved location preferences. geo may
// be nil, in which case no lookup is attempted.
func NewResolver(prefs config.LocationData, geo Geolocator) *Resolver {
	return &Resolver{
		prefs: prefs,
		geo:   geo,
	}
}

// Resolve returns the first location source that yields a value
func (r *Resolver) Resolve(ctx context.Context, req Request) (Locale, error) {
	switch {
	case req.Lat != nil && req.Lng != nil:
		c, err := ValidateCoordinates(*req.Lat, *req.Lng)
		if err != nil {
			return Locale{}, err
		}
		return Locale{Coordinate: c}, nil

	case req.Lat != nil || req.Lng != nil:
		return Locale{}, ErrIncompleteCoordinates
	}

	if lat, lng, ok := r.prefs.Coordinates(); ok {
		c, err := ValidateCoordinates(lat, lng)
		if err == nil {
			return Locale{Coordinate: c, FromConfig: true}, nil
		}
		log.Warnf("ignoring saved location: %v", err)
	}

	if r.geo != nil {
		c, err := r.geo.Locate(ctx)
		if err == nil {
			c, err = ValidateCoordinates(c.Latitude, c.Longitude)
		}
		if err == nil {
			return Locale{Coordinate: c, FromGeoIP: true}, nil
		}
		log.Warnf("%v: %v; using 0, 0", ErrGeolocationFailure, err)
	}

	return Locale{Approximate: true}, nil
}

// ValidateCoordinates checks latitude is within [-90, 90] and longitude
// within [-180, 180]
func ValidateCoordinates(lat, lng float64) (types.Coordinate, error) {
	if math.IsNaN(lat) || lat < -90 || lat > 90 {
		return types.Coordinate{}, fmt.Errorf("%w: latitude must be between -90° and +90°, got %v°", ErrInvalidCoordinates, lat)
	}
	if math.IsNaN(lng) || lng < -180 || lng > 180 {
		return types.Coordinate{}, fmt.Errorf("%w: longitude must be between -180° and +180°, got %v°", ErrInvalidCoordinates, lng)
	}
	return types.Coordinate{Latitude: lat, Longitude: lng}, nil
}

// ParseCoordinate parses one decimal-degree value from user input
func ParseCoordinate(s string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, fmt.Errorf("%w: latitude and longitude must be numeric values, got %q", ErrInvalidCoordinates, s)
	}
	return v, nil
}

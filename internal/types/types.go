// Package types holds the value types shared by the resolvers, the chart
// assembler and the storage backends.
package types

import "fmt"

// Coordinate is a geographic position in decimal degrees, east and north positive
type Coordinate struct {
	Latitude  float64 `json:"latitude" msgpack:"latitude"`
	Longitude float64 `json:"longitude" msgpack:"longitude"`
}

func (c Coordinate) String() string {
	return fmt.Sprintf("%g %g", c.Latitude, c.Longitude)
}

// SavedChart is a named chart in the chart database. Timestamps are
// RFC 3339 strings; the location is optional.
type SavedChart struct {
	ID             int64    `json:"id" msgpack:"id"`
	Name           string   `json:"name" msgpack:"name"`
	TimestampUTC   string   `json:"timestamp_utc" msgpack:"timestamp_utc"`
	TimestampLocal string   `json:"timestamp_local" msgpack:"timestamp_local"`
	Latitude       *float64 `json:"latitude,omitempty" msgpack:"latitude,omitempty"`
	Longitude      *float64 `json:"longitude,omitempty" msgpack:"longitude,omitempty"`
}

// Coordinate returns the saved location if both halves are present
func (s SavedChart) Coordinate() (Coordinate, bool) {
	if s.Latitude == nil || s.Longitude == nil {
		return Coordinate{}, false
	}
	return Coordinate{Latitude: *s.Latitude, Longitude: *s.Longitude}, true
}

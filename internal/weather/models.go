package weather

import (
	"encoding/json"
	"time"
)

// Location is a named point on the map with fixed coordinates, the unit
// of tracking. Rows are owned by the location loader; the sync pipeline
// and the read side treat them as read-only.
type Location struct {
	Name      string  `json:"name"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Key returns the canonical string key observations are indexed by.
func (l Location) Key() string {
	return l.Name
}

// GeoPoint is a GeoJSON point. Coordinates are [longitude, latitude].
type GeoPoint struct {
	Type        string     `json:"type" bson:"type"`
	Coordinates [2]float64 `json:"coordinates" bson:"coordinates"`
}

// NewGeoPoint builds a point from a longitude/latitude pair.
func NewGeoPoint(lon, lat float64) *GeoPoint {
	return &GeoPoint{
		Type:        "Point",
		Coordinates: [2]float64{lon, lat},
	}
}

// Longitude returns the first coordinate.
func (p *GeoPoint) Longitude() float64 { return p.Coordinates[0] }

// Latitude returns the second coordinate.
func (p *GeoPoint) Latitude() float64 { return p.Coordinates[1] }

// Observation is one time-stamped weather reading for a location.
// Observations are append-only: created once by the sink, never updated
// or deleted. FetchedAt is assigned by the transformer from the caller's
// clock, not from anything inside the provider payload.
type Observation struct {
	LocationKey  string    `json:"locationKey" bson:"location_key"`
	FetchedAt    time.Time `json:"fetchedAt" bson:"fetched_at"`
	TemperatureC float64   `json:"temperatureC" bson:"temperature_c"`
	Condition    string    `json:"condition,omitempty" bson:"condition,omitempty"`
	Point        *GeoPoint `json:"point,omitempty" bson:"point,omitempty"`

	// Raw is the verbatim provider payload. Opaque to downstream
	// consumers beyond the named fields above.
	Raw json.RawMessage `json:"-" bson:"raw,omitempty"`
}

// SnapshotEntry pairs a location with its most recent observation.
type SnapshotEntry struct {
	Location    Location    `json:"location"`
	Observation Observation `json:"observation"`
}

package weather

import "time"

// Transform enriches a decoded provider payload into a storable
// observation. It is pure: deterministic given its three inputs, and it
// never fails. FetchedAt comes from the caller's clock reading; the
// point is derived from the payload's own coordinates when present and
// left unset otherwise, never fabricated from the location row.
func Transform(p ProviderPayload, locationKey string, fetchedAt time.Time) Observation {
	obs := Observation{
		LocationKey:  locationKey,
		FetchedAt:    fetchedAt.UTC(),
		TemperatureC: p.TemperatureC,
		Condition:    p.Condition,
		Raw:          p.Raw,
	}

	if p.HasCoords {
		obs.Point = NewGeoPoint(p.Longitude, p.Latitude)
	}

	return obs
}

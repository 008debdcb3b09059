package weather

import (
	"context"
	"encoding/json"
)

// ProviderPayload is a provider response decoded once at the fetch
// boundary. Optional fields that the provider omitted degrade to zero
// values here so downstream code never re-derives presence checks.
type ProviderPayload struct {
	TemperatureC float64
	Condition    string

	// HasCoords reports whether the payload carried its own coordinate
	// pair. When false, Longitude/Latitude are meaningless.
	HasCoords bool
	Longitude float64
	Latitude  float64

	// Raw is the verbatim response body.
	Raw json.RawMessage
}

// Provider abstracts the external weather source. Implementations must
// return a *FetchError for any non-success response, network failure or
// malformed body, and must not retry beyond their own transport
// resilience; retry policy belongs to the caller.
type Provider interface {
	Name() string
	Fetch(ctx context.Context, loc Location) (ProviderPayload, error)
}

// LocationStore is the relational side: canonical location rows with
// derived point geometry, upserted by name.
type LocationStore interface {
	// UpsertBatch persists the rows in a single transaction. Either the
	// whole batch commits or none of it does.
	UpsertBatch(ctx context.Context, locs []Location) error

	// List returns all known locations in a deterministic order.
	List(ctx context.Context) ([]Location, error)
}

// ObservationStore is the document side: an append-only observation log
// with the two read patterns the presentation layer needs.
type ObservationStore interface {
	// Append stores one observation. It never touches prior documents.
	Append(ctx context.Context, obs Observation) error

	// LatestPerLocation returns, for every location key present in the
	// log, the observation with the maximum FetchedAt, tie-broken by
	// most recent insertion. Ordered by key ascending. An empty log
	// yields an empty slice, not an error.
	LatestPerLocation(ctx context.Context) ([]Observation, error)

	// History returns all observations for the key ascending by
	// FetchedAt. Unknown keys yield an empty slice, not an error.
	History(ctx context.Context, locationKey string) ([]Observation, error)

	// DistinctKeys returns the sorted set of keys present in the log.
	DistinctKeys(ctx context.Context) ([]string, error)
}

package store

import (
	"context"
	"sort"
	"sync"

	"github.com/geoweather/tracker/internal/weather"
)

// MemoryLocationStore is a concurrency-safe in-memory implementation of
// weather.LocationStore, used in tests and when running without a
// relational store.
type MemoryLocationStore struct {
	mu   sync.RWMutex
	rows map[string]weather.Location
}

func NewMemoryLocationStore() *MemoryLocationStore {
	return &MemoryLocationStore{
		rows: make(map[string]weather.Location),
	}
}

// UpsertBatch inserts or replaces rows by name. The in-memory map gives
// the same idempotency as the SQL upsert: re-loading the same batch
// leaves the same set of rows.
func (s *MemoryLocationStore) UpsertBatch(_ context.Context, locs []weather.Location) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, loc := range locs {
		s.rows[loc.Name] = loc
	}
	return nil
}

// List returns all rows ordered by name.
func (s *MemoryLocationStore) List(_ context.Context) ([]weather.Location, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]weather.Location, 0, len(s.rows))
	for _, loc := range s.rows {
		out = append(out, loc)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// MemoryObservationStore is a concurrency-safe in-memory observation
// log. Appends preserve insertion order, which supplies the tie-break
// for equal fetch timestamps.
type MemoryObservationStore struct {
	mu  sync.RWMutex
	log []weather.Observation
}

func NewMemoryObservationStore() *MemoryObservationStore {
	return &MemoryObservationStore{}
}

// Append adds one observation to the log. Prior entries are never
// touched.
func (s *MemoryObservationStore) Append(_ context.Context, obs weather.Observation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.log = append(s.log, obs)
	return nil
}

// LatestPerLocation selects the observation with the maximum FetchedAt
// per key; on equal timestamps the most recently inserted wins. Output
// is ordered by key ascending.
func (s *MemoryObservationStore) LatestPerLocation(_ context.Context) ([]weather.Observation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	latest := make(map[string]weather.Observation)
	for _, obs := range s.log {
		cur, ok := latest[obs.LocationKey]
		if !ok || !obs.FetchedAt.Before(cur.FetchedAt) {
			latest[obs.LocationKey] = obs
		}
	}

	keys := make([]string, 0, len(latest))
	for k := range latest {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]weather.Observation, 0, len(keys))
	for _, k := range keys {
		out = append(out, latest[k])
	}
	return out, nil
}

// History returns all observations for the key ascending by FetchedAt,
// insertion order on ties. Unknown keys yield an empty slice.
func (s *MemoryObservationStore) History(_ context.Context, locationKey string) ([]weather.Observation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]weather.Observation, 0)
	for _, obs := range s.log {
		if obs.LocationKey == locationKey {
			out = append(out, obs)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].FetchedAt.Before(out[j].FetchedAt)
	})
	return out, nil
}

// DistinctKeys returns the sorted set of keys present in the log.
func (s *MemoryObservationStore) DistinctKeys(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[string]struct{})
	keys := make([]string, 0)
	for _, obs := range s.log {
		if _, ok := seen[obs.LocationKey]; ok {
			continue
		}
		seen[obs.LocationKey] = struct{}{}
		keys = append(keys, obs.LocationKey)
	}
	sort.Strings(keys)
	return keys, nil
}

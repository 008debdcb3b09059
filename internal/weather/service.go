package weather

import "context"

// Service is the read side over the observation log. The two stores are
// independently available; entries are reconciled by key at read time,
// never by a cross-store transaction.
type Service struct {
	locations    LocationStore
	observations ObservationStore
}

// NewService creates a new Service.
func NewService(locations LocationStore, observations ObservationStore) *Service {
	return &Service{
		locations:    locations,
		observations: observations,
	}
}

// LatestSnapshot returns the most recent observation for every tracked
// location key, paired with its location row. Keys with no matching row
// (the stores converge eventually) still appear, with the location
// synthesized from the key and the observation's own point. An empty
// log is an empty snapshot, not an error.
func (s *Service) LatestSnapshot(ctx context.Context) ([]SnapshotEntry, error) {
	latest, err := s.observations.LatestPerLocation(ctx)
	if err != nil {
		return nil, err
	}
	if len(latest) == 0 {
		return []SnapshotEntry{}, nil
	}

	locs, err := s.locations.List(ctx)
	if err != nil {
		return nil, err
	}
	byName := make(map[string]Location, len(locs))
	for _, loc := range locs {
		byName[loc.Name] = loc
	}

	entries := make([]SnapshotEntry, 0, len(latest))
	for _, obs := range latest {
		loc, ok := byName[obs.LocationKey]
		if !ok {
			loc = Location{Name: obs.LocationKey}
			if obs.Point != nil {
				loc.Longitude = obs.Point.Longitude()
				loc.Latitude = obs.Point.Latitude()
			}
		}
		entries = append(entries, SnapshotEntry{Location: loc, Observation: obs})
	}

	return entries, nil
}

// History returns all observations for one location key, ascending by
// fetch time. Unknown keys yield an empty slice.
func (s *Service) History(ctx context.Context, locationKey string) ([]Observation, error) {
	return s.observations.History(ctx, locationKey)
}

// LocationKeys returns the distinct set of tracked keys, queried on
// demand so the selector never renders a stale cached copy.
func (s *Service) LocationKeys(ctx context.Context) ([]string, error) {
	return s.observations.DistinctKeys(ctx)
}

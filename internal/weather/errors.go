package weather

import "fmt"

// FetchError wraps a per-location provider failure: network error,
// non-success status or malformed response body. Non-fatal to a sync
// run; the orchestrator records it and moves on.
type FetchError struct {
	LocationKey string
	Cause       error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch failed for %q: %v", e.LocationKey, e.Cause)
}

func (e *FetchError) Unwrap() error { return e.Cause }

// SinkError wraps a per-location observation store failure. Non-fatal
// to a sync run.
type SinkError struct {
	LocationKey string
	Cause       error
}

func (e *SinkError) Error() string {
	return fmt.Sprintf("sink failed for %q: %v", e.LocationKey, e.Cause)
}

func (e *SinkError) Unwrap() error { return e.Cause }

package locations

import "fmt"

// SourceReadError means the batch input could not be read at all. Fatal
// to the load run.
type SourceReadError struct {
	Source string
	Cause  error
}

func (e *SourceReadError) Error() string {
	return fmt.Sprintf("cannot read location source %q: %v", e.Source, e.Cause)
}

func (e *SourceReadError) Unwrap() error { return e.Cause }

// StoreWriteError means persistence of the cleaned batch failed. The
// batch is rolled back in full; nothing is partially loaded.
type StoreWriteError struct {
	Cause error
}

func (e *StoreWriteError) Error() string {
	return fmt.Sprintf("location batch write failed: %v", e.Cause)
}

func (e *StoreWriteError) Unwrap() error { return e.Cause }

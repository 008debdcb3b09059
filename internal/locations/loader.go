// Package locations implements the batch path that turns raw tabular
// records into canonical location rows with derived point geometry.
package locations

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/geoweather/tracker/internal/weather"
)

// RawRow is one projected record from the source: a display name and
// two coordinate fields, all still strings.
type RawRow struct {
	Name      string
	Latitude  string
	Longitude string
}

// Columns maps the source's header names onto the three required
// fields.
type Columns struct {
	Name      string
	Latitude  string
	Longitude string
}

// DefaultColumns matches the Kaggle world-cities export the tracker was
// originally fed with.
var DefaultColumns = Columns{
	Name:      "AccentCity",
	Latitude:  "Latitude",
	Longitude: "Longitude",
}

// LoadReport accounts for every input row: persisted plus the three
// drop buckets always sums to the input count.
type LoadReport struct {
	Input             int `json:"input"`
	MissingDropped    int `json:"missingDropped"`
	InvalidDropped    int `json:"invalidDropped"`
	DuplicatesDropped int `json:"duplicatesDropped"`
	Persisted         int `json:"persisted"`
}

// Loader cleans raw rows and upserts them as canonical location rows.
type Loader struct {
	store  weather.LocationStore
	logger zerolog.Logger
}

// NewLoader creates a new Loader.
func NewLoader(store weather.LocationStore, logger zerolog.Logger) *Loader {
	return &Loader{store: store, logger: logger}
}

// Load runs the clean-and-persist pipeline: drop rows with missing
// fields, coerce coordinates (non-numeric or out-of-range values drop
// the row, never the batch), dedupe by name keeping the first
// occurrence, then upsert everything in a single transaction. A
// persistence failure rolls the whole batch back and surfaces as a
// *StoreWriteError.
func (l *Loader) Load(ctx context.Context, rows []RawRow) (LoadReport, error) {
	report := LoadReport{Input: len(rows)}

	seen := make(map[string]struct{}, len(rows))
	cleaned := make([]weather.Location, 0, len(rows))

	for _, row := range rows {
		name := strings.TrimSpace(row.Name)
		latStr := strings.TrimSpace(row.Latitude)
		lonStr := strings.TrimSpace(row.Longitude)

		if name == "" || latStr == "" || lonStr == "" {
			report.MissingDropped++
			continue
		}

		lat, latErr := strconv.ParseFloat(latStr, 64)
		lon, lonErr := strconv.ParseFloat(lonStr, 64)
		if latErr != nil || lonErr != nil || lat < -90 || lat > 90 || lon < -180 || lon > 180 {
			report.InvalidDropped++
			continue
		}

		if _, dup := seen[name]; dup {
			report.DuplicatesDropped++
			continue
		}
		seen[name] = struct{}{}

		cleaned = append(cleaned, weather.Location{
			Name:      name,
			Latitude:  lat,
			Longitude: lon,
		})
	}

	l.logger.Info().
		Int("input", report.Input).
		Int("cleaned", len(cleaned)).
		Msg("location batch cleaned")

	if len(cleaned) > 0 {
		if err := l.store.UpsertBatch(ctx, cleaned); err != nil {
			return report, &StoreWriteError{Cause: err}
		}
	}

	report.Persisted = len(cleaned)
	return report, nil
}

// ReadCSVFile opens and parses a CSV source. Any failure to read or
// parse the file is a *SourceReadError: the batch never starts.
func ReadCSVFile(path string, cols Columns) ([]RawRow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &SourceReadError{Source: path, Cause: err}
	}
	defer f.Close()

	rows, err := ReadCSV(f, cols)
	if err != nil {
		return nil, &SourceReadError{Source: path, Cause: err}
	}
	return rows, nil
}

// ReadCSV projects the three configured columns out of a CSV stream.
// Short records yield rows with empty fields, which the loader counts
// as missing-field drops.
func ReadCSV(r io.Reader, cols Columns) ([]RawRow, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	idx := map[string]int{}
	for i, name := range header {
		idx[strings.TrimSpace(name)] = i
	}

	nameIdx, ok := idx[cols.Name]
	if !ok {
		return nil, fmt.Errorf("missing column %q", cols.Name)
	}
	latIdx, ok := idx[cols.Latitude]
	if !ok {
		return nil, fmt.Errorf("missing column %q", cols.Latitude)
	}
	lonIdx, ok := idx[cols.Longitude]
	if !ok {
		return nil, fmt.Errorf("missing column %q", cols.Longitude)
	}

	var rows []RawRow
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read record: %w", err)
		}

		rows = append(rows, RawRow{
			Name:      field(record, nameIdx),
			Latitude:  field(record, latIdx),
			Longitude: field(record, lonIdx),
		})
	}
	return rows, nil
}

func field(record []string, i int) string {
	if i < len(record) {
		return record[i]
	}
	return ""
}

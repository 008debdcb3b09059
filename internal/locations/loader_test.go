package locations

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/geoweather/tracker/internal/store"
	"github.com/geoweather/tracker/internal/weather"
)

func TestLoadAccountsForEveryRow(t *testing.T) {
	ctx := context.Background()
	locStore := store.NewMemoryLocationStore()
	loader := NewLoader(locStore, zerolog.Nop())

	rows := []RawRow{
		{Name: "Lagos", Latitude: "6.45", Longitude: "3.39"},
		{Name: "", Latitude: "1.0", Longitude: "1.0"},          // missing name
		{Name: "Oslo", Latitude: "", Longitude: "10.75"},       // missing latitude
		{Name: "Atlantis", Latitude: "abc", Longitude: "3.39"}, // non-numeric
		{Name: "Nowhere", Latitude: "95.0", Longitude: "3.39"}, // out of range
		{Name: "Lagos", Latitude: "99.0", Longitude: "99.0"},   // duplicate name
		{Name: "Accra", Latitude: "5.55", Longitude: "-0.19"},
	}

	report, err := loader.Load(ctx, rows)
	require.NoError(t, err)

	assert.Equal(t, 7, report.Input)
	assert.Equal(t, 2, report.MissingDropped)
	assert.Equal(t, 2, report.InvalidDropped)
	assert.Equal(t, 1, report.DuplicatesDropped)
	assert.Equal(t, 2, report.Persisted)
	assert.Equal(t, report.Input,
		report.MissingDropped+report.InvalidDropped+report.DuplicatesDropped+report.Persisted)

	persisted, err := locStore.List(ctx)
	require.NoError(t, err)
	require.Len(t, persisted, 2)

	// First occurrence wins for duplicates.
	assert.Equal(t, weather.Location{Name: "Lagos", Latitude: 6.45, Longitude: 3.39}, persisted[1])
}

func TestLoadIsIdempotent(t *testing.T) {
	ctx := context.Background()
	locStore := store.NewMemoryLocationStore()
	loader := NewLoader(locStore, zerolog.Nop())

	rows := []RawRow{
		{Name: "Lagos", Latitude: "6.45", Longitude: "3.39"},
		{Name: "Oslo", Latitude: "59.91", Longitude: "10.75"},
	}

	first, err := loader.Load(ctx, rows)
	require.NoError(t, err)
	second, err := loader.Load(ctx, rows)
	require.NoError(t, err)

	assert.Equal(t, first, second)

	persisted, err := locStore.List(ctx)
	require.NoError(t, err)
	assert.Len(t, persisted, 2, "re-running the same batch must not duplicate rows")
}

type failingLocationStore struct{}

func (failingLocationStore) UpsertBatch(context.Context, []weather.Location) error {
	return errors.New("connection refused")
}

func (failingLocationStore) List(context.Context) ([]weather.Location, error) {
	return nil, errors.New("connection refused")
}

func TestLoadWrapsPersistenceFailure(t *testing.T) {
	loader := NewLoader(failingLocationStore{}, zerolog.Nop())

	report, err := loader.Load(context.Background(), []RawRow{
		{Name: "Lagos", Latitude: "6.45", Longitude: "3.39"},
	})

	var writeErr *StoreWriteError
	require.ErrorAs(t, err, &writeErr)
	assert.Zero(t, report.Persisted, "a failed batch persists nothing")
}

func TestReadCSVProjectsConfiguredColumns(t *testing.T) {
	src := strings.NewReader(
		"Country,AccentCity,Latitude,Longitude\n" +
			"ng,Lagos,6.45,3.39\n" +
			"no,Oslo,59.91,10.75\n" +
			"xx,Short\n")

	rows, err := ReadCSV(src, DefaultColumns)
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, RawRow{Name: "Lagos", Latitude: "6.45", Longitude: "3.39"}, rows[0])
	// Short records surface as missing fields, to be dropped by Load.
	assert.Equal(t, RawRow{Name: "Short", Latitude: "", Longitude: ""}, rows[2])
}

func TestReadCSVMissingColumn(t *testing.T) {
	src := strings.NewReader("City,Lat\nLagos,6.45\n")

	_, err := ReadCSV(src, DefaultColumns)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "AccentCity")
}

func TestReadCSVFileUnreadableSource(t *testing.T) {
	_, err := ReadCSVFile("/nonexistent/cities.csv", DefaultColumns)

	var srcErr *SourceReadError
	require.ErrorAs(t, err, &srcErr)
	assert.Equal(t, "/nonexistent/cities.csv", srcErr.Source)
}

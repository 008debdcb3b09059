package providers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/geoweather/tracker/internal/weather"
)

func newTestProvider(t *testing.T, handler http.HandlerFunc) *OpenWeatherProvider {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	p := NewOpenWeatherProvider(&http.Client{Timeout: time.Second}, "test-key")
	p.baseURL = srv.URL
	p.http.backoff = BackoffConfig{
		MaxRetries:      0,
		InitialInterval: time.Millisecond,
		MaxInterval:     time.Millisecond,
	}
	return p
}

var lagos = weather.Location{Name: "Lagos", Latitude: 6.45, Longitude: 3.39}

func TestFetchDecodesPayloadOnce(t *testing.T) {
	body := `{"coord":{"lon":3.39,"lat":6.45},"weather":[{"main":"Clear","description":"clear sky"}],"main":{"temp":30.2}}`
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "3.39", r.URL.Query().Get("lon"))
		assert.Equal(t, "6.45", r.URL.Query().Get("lat"))
		assert.Equal(t, "metric", r.URL.Query().Get("units"))
		w.Write([]byte(body))
	})

	payload, err := p.Fetch(context.Background(), lagos)
	require.NoError(t, err)

	assert.Equal(t, 30.2, payload.TemperatureC)
	assert.Equal(t, "clear sky", payload.Condition)
	assert.True(t, payload.HasCoords)
	assert.Equal(t, 3.39, payload.Longitude)
	assert.Equal(t, 6.45, payload.Latitude)
	assert.JSONEq(t, body, string(payload.Raw), "raw payload is kept verbatim")
}

func TestFetchWithoutPayloadCoords(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"main":{"temp":12.0}}`))
	})

	payload, err := p.Fetch(context.Background(), lagos)
	require.NoError(t, err)

	assert.False(t, payload.HasCoords)
	assert.Empty(t, payload.Condition)
}

func TestFetchMalformedBodyIsFetchError(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`<html>not json</html>`))
	})

	_, err := p.Fetch(context.Background(), lagos)

	var fetchErr *weather.FetchError
	require.ErrorAs(t, err, &fetchErr)
	assert.Equal(t, "Lagos", fetchErr.LocationKey)
}

func TestFetchServerErrorIsFetchError(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	_, err := p.Fetch(context.Background(), lagos)

	var fetchErr *weather.FetchError
	require.ErrorAs(t, err, &fetchErr)
}

func TestFetchMissingAPIKey(t *testing.T) {
	p := NewOpenWeatherProvider(&http.Client{}, "")

	_, err := p.Fetch(context.Background(), lagos)

	var fetchErr *weather.FetchError
	require.ErrorAs(t, err, &fetchErr)
}

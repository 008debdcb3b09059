package weather

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTransformAssignsCallerClockNotPayloadTime(t *testing.T) {
	fetchedAt := time.Date(2024, 3, 1, 12, 0, 0, 0, time.FixedZone("CET", 3600))

	obs := Transform(ProviderPayload{TemperatureC: 21.5}, "Lagos", fetchedAt)

	assert.Equal(t, "Lagos", obs.LocationKey)
	assert.Equal(t, fetchedAt.UTC(), obs.FetchedAt)
	assert.Equal(t, time.UTC, obs.FetchedAt.Location())
}

func TestTransformDerivesPointFromPayloadCoords(t *testing.T) {
	p := ProviderPayload{
		TemperatureC: 30,
		Condition:    "clear sky",
		HasCoords:    true,
		Longitude:    3.39,
		Latitude:     6.45,
	}

	obs := Transform(p, "Lagos", time.Now())

	if assert.NotNil(t, obs.Point) {
		assert.Equal(t, "Point", obs.Point.Type)
		assert.Equal(t, 3.39, obs.Point.Longitude())
		assert.Equal(t, 6.45, obs.Point.Latitude())
	}
}

func TestTransformLeavesPointUnsetWithoutCoords(t *testing.T) {
	obs := Transform(ProviderPayload{TemperatureC: 30}, "Lagos", time.Now())
	assert.Nil(t, obs.Point, "point must not be fabricated when the payload has no coordinates")
}

func TestTransformDegradesMissingOptionalFields(t *testing.T) {
	obs := Transform(ProviderPayload{}, "Lagos", time.Now())
	assert.Empty(t, obs.Condition)
	assert.Zero(t, obs.TemperatureC)
	assert.False(t, obs.FetchedAt.IsZero())
}

func TestTransformIsDeterministic(t *testing.T) {
	p := ProviderPayload{
		TemperatureC: 30,
		Condition:    "haze",
		Raw:          json.RawMessage(`{"main":{"temp":30}}`),
	}
	at := time.Unix(1700000000, 0)

	a := Transform(p, "Lagos", at)
	b := Transform(p, "Lagos", at)

	assert.Equal(t, a, b)
	assert.Equal(t, json.RawMessage(`{"main":{"temp":30}}`), a.Raw)
}

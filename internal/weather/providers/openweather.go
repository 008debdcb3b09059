// Package providers contains implementations of the weather.Provider
// contract for external weather sources.
package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/geoweather/tracker/internal/weather"
)

// OpenWeatherProvider fetches current conditions from OpenWeatherMap,
// keyed by the location's coordinate pair.
type OpenWeatherProvider struct {
	name    string
	apiKey  string
	baseURL string
	http    *resilientClient
}

func NewOpenWeatherProvider(client *http.Client, apiKey string) *OpenWeatherProvider {
	return &OpenWeatherProvider{
		name:    "openweathermap",
		apiKey:  apiKey,
		baseURL: "https://api.openweathermap.org/data/2.5/weather",
		http:    newResilientClient(client, "openweather"),
	}
}

func (p *OpenWeatherProvider) Name() string {
	return p.name
}

// openWeatherPayload mirrors the consumed subset of the OpenWeatherMap
// current-weather response. Decoded exactly once, here at the boundary.
type openWeatherPayload struct {
	Coord *struct {
		Lon float64 `json:"lon"`
		Lat float64 `json:"lat"`
	} `json:"coord"`
	Weather []struct {
		Main        string `json:"main"`
		Description string `json:"description"`
	} `json:"weather"`
	Main struct {
		Temp float64 `json:"temp"`
	} `json:"main"`
}

// Fetch calls the provider with the location's coordinates. Any network
// failure, non-success status or malformed body comes back as a
// *weather.FetchError carrying the location key.
func (p *OpenWeatherProvider) Fetch(ctx context.Context, loc weather.Location) (weather.ProviderPayload, error) {
	if p.apiKey == "" {
		return weather.ProviderPayload{}, &weather.FetchError{
			LocationKey: loc.Key(),
			Cause:       fmt.Errorf("openweather api key is not configured"),
		}
	}

	buildRequest := func() (*http.Request, error) {
		values := url.Values{}
		values.Set("appid", p.apiKey)
		values.Set("units", "metric")
		values.Set("lat", strconv.FormatFloat(loc.Latitude, 'f', -1, 64))
		values.Set("lon", strconv.FormatFloat(loc.Longitude, 'f', -1, 64))

		u := fmt.Sprintf("%s?%s", p.baseURL, values.Encode())
		return http.NewRequest(http.MethodGet, u, nil)
	}

	resp, err := p.http.do(ctx, buildRequest)
	if err != nil {
		return weather.ProviderPayload{}, &weather.FetchError{LocationKey: loc.Key(), Cause: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return weather.ProviderPayload{}, &weather.FetchError{LocationKey: loc.Key(), Cause: err}
	}

	var payload openWeatherPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return weather.ProviderPayload{}, &weather.FetchError{
			LocationKey: loc.Key(),
			Cause:       fmt.Errorf("malformed response body: %w", err),
		}
	}

	out := weather.ProviderPayload{
		TemperatureC: payload.Main.Temp,
		Condition:    conditionText(payload.Weather),
		Raw:          json.RawMessage(body),
	}
	if payload.Coord != nil {
		out.HasCoords = true
		out.Longitude = payload.Coord.Lon
		out.Latitude = payload.Coord.Lat
	}

	return out, nil
}

// conditionText picks the short description; missing weather entries
// degrade to an empty condition rather than an error.
func conditionText(items []struct {
	Main        string `json:"main"`
	Description string `json:"description"`
}) string {
	if len(items) == 0 {
		return ""
	}
	if items[0].Description != "" {
		return items[0].Description
	}
	return items[0].Main
}

package tools

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
)

// WeatherTool reports current conditions for a city via Open-Meteo.
type WeatherTool struct {
	http        httpDoer
	geocodeURL  string
	forecastURL string
}

// NewWeatherTool creates a weather tool
func NewWeatherTool(opts HTTPOptions) *WeatherTool {
	return &WeatherTool{
		http:        newHTTPDoer(opts),
		geocodeURL:  "https://geocoding-api.open-meteo.com/v1/search",
		forecastURL: "https://api.open-meteo.com/v1/forecast",
	}
}

func (t *WeatherTool) Name() string {
	return "weather_tool"
}

func (t *WeatherTool) Description() string {
	return "Fetches current weather for a given city name. Args: city (str)"
}

func (t *WeatherTool) Parameters() []ParameterDef {
	return []ParameterDef{
		{
			Name:        "city",
			Type:        "string",
			Description: "The name of the city to get weather for",
			Required:    true,
		},
	}
}

type geocodeResponse struct {
	Results []struct {
		Name      string  `json:"name"`
		Latitude  float64 `json:"latitude"`
		Longitude float64 `json:"longitude"`
	} `json:"results"`
}

type forecastResponse struct {
	CurrentWeather *struct {
		Temperature float64 `json:"temperature"`
		WindSpeed   float64 `json:"windspeed"`
	} `json:"current_weather"`
}

func (t *WeatherTool) Invoke(ctx context.Context, args map[string]any) (string, error) {
	city := stringArg(args, "city")
	if city == "" {
		return "", fmt.Errorf("missing required parameter: city")
	}

	params := url.Values{}
	params.Set("name", city)
	params.Set("count", "1")
	params.Set("language", "en")
	params.Set("format", "json")

	var geo geocodeResponse
	status, body, err := t.http.getJSON(ctx, t.geocodeURL+"?"+params.Encode(), nil, &geo)
	if err != nil {
		return "", fmt.Errorf("geocoding failed: %w", err)
	}
	if status != 200 {
		return fmt.Sprintf("Error: geocoding service returned %d - %s", status, snippet(body)), nil
	}
	if len(geo.Results) == 0 {
		return fmt.Sprintf("Error: Could not find coordinates for city: %s", city), nil
	}
	loc := geo.Results[0]

	params = url.Values{}
	params.Set("latitude", formatFloat(loc.Latitude))
	params.Set("longitude", formatFloat(loc.Longitude))
	params.Set("current_weather", "true")

	var forecast forecastResponse
	status, body, err = t.http.getJSON(ctx, t.forecastURL+"?"+params.Encode(), nil, &forecast)
	if err != nil {
		return "", fmt.Errorf("forecast failed: %w", err)
	}
	if status != 200 {
		return fmt.Sprintf("Error: weather service returned %d - %s", status, snippet(body)), nil
	}
	if forecast.CurrentWeather == nil {
		return fmt.Sprintf("Error: Could not fetch weather data for %s", loc.Name), nil
	}

	return fmt.Sprintf("Current weather in %s: %s°C, Wind: %s km/h",
		loc.Name,
		formatFloat(forecast.CurrentWeather.Temperature),
		formatFloat(forecast.CurrentWeather.WindSpeed),
	), nil
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

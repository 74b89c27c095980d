package external

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"lumera/internal/types"
)

// DefaultOpenMeteoURL is the public Open-Meteo API root.
const DefaultOpenMeteoURL = "https://api.open-meteo.com"

// OpenMeteoClient implements types.WeatherProvider against the Open-Meteo
// forecast endpoint.
type OpenMeteoClient struct {
	base    *BaseClient
	baseURL string
	logger  *slog.Logger
}

// OpenMeteoConfig configures an OpenMeteoClient.
type OpenMeteoConfig struct {
	BaseURL    string
	Timeout    time.Duration
	UserAgent  string
	HTTPClient *http.Client
	Options    []BaseClientOption
	Logger     *slog.Logger
}

// NewOpenMeteoClient builds a weather client. Zero fields fall back to the
// public endpoint and a 10 second timeout.
func NewOpenMeteoClient(cfg OpenMeteoConfig) *OpenMeteoClient {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultOpenMeteoURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &OpenMeteoClient{
		base:    NewBaseClient(cfg.HTTPClient, "openmeteo", DefaultRetryPolicy(), cfg.UserAgent, cfg.Options...),
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		logger:  cfg.Logger,
	}
}

type openMeteoResponse struct {
	Current *struct {
		Temperature *float64 `json:"temperature_2m"`
		WeatherCode *int     `json:"weather_code"`
	} `json:"current"`
}

// ForLocation returns the current temperature and a condition label for c.
// Every failure is reported as ErrCodeUpstreamWeather so callers can apply
// types.DefaultWeather.
func (c *OpenMeteoClient) ForLocation(ctx context.Context, coords types.Coordinates) (types.WeatherSnapshot, error) {
	q := url.Values{}
	q.Set("latitude", strconv.FormatFloat(coords.Latitude, 'f', 4, 64))
	q.Set("longitude", strconv.FormatFloat(coords.Longitude, 'f', 4, 64))
	q.Set("current", "temperature_2m,weather_code")
	endpoint := c.baseURL + "/v1/forecast?" + q.Encode()

	var body openMeteoResponse
	if err := c.base.GetJSON(ctx, endpoint, &body); err != nil {
		c.logger.WarnContext(ctx, "weather lookup failed", "error", err)
		return types.WeatherSnapshot{}, types.NewAppError(types.ErrCodeUpstreamWeather, types.ErrWeatherUnavailable.Message, err)
	}
	if body.Current == nil || body.Current.Temperature == nil || body.Current.WeatherCode == nil {
		return types.WeatherSnapshot{}, types.NewAppError(types.ErrCodeUpstreamWeather, "weather response missing current conditions", nil)
	}

	return types.WeatherSnapshot{
		TemperatureC: *body.Current.Temperature,
		Condition:    WeatherCodeText(*body.Current.WeatherCode),
	}, nil
}

// WeatherCodeText converts a WMO weather interpretation code to a short label.
func WeatherCodeText(code int) string {
	switch code {
	case 0:
		return "Clear Sky"
	case 1:
		return "Mainly Clear"
	case 2:
		return "Partly Cloudy"
	case 3:
		return "Overcast"
	case 45, 48:
		return "Fog"
	case 51, 53, 55:
		return "Drizzle"
	case 56, 57:
		return "Freezing Drizzle"
	case 61, 63, 65:
		return "Rain"
	case 66, 67:
		return "Freezing Rain"
	case 71, 73, 75, 77:
		return "Snow"
	case 80, 81, 82:
		return "Rain Showers"
	case 85, 86:
		return "Snow Showers"
	case 95:
		return "Thunderstorm"
	case 96, 99:
		return "Thunderstorm with Hail"
	default:
		return fmt.Sprintf("Unknown (%d)", code)
	}
}

package external

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"lumera/internal/types"
)

// StaticLocationProvider always reports the same coordinates. Used in local
// mode and on devices without a location source.
type StaticLocationProvider struct {
	coords types.Coordinates
}

// NewStaticLocationProvider validates coords and returns a provider for them.
func NewStaticLocationProvider(coords types.Coordinates) (*StaticLocationProvider, error) {
	if err := types.ValidateCoordinates(coords); err != nil {
		return nil, err
	}
	return &StaticLocationProvider{coords: coords}, nil
}

// Current implements types.LocationProvider.
func (p *StaticLocationProvider) Current(context.Context) (types.Coordinates, error) {
	return p.coords, nil
}

// DefaultIPLocationURL returns the caller's approximate position as JSON.
const DefaultIPLocationURL = "https://ipapi.co/json/"

// IPLocationProvider resolves the host's approximate position from a geo-IP
// JSON endpoint.
type IPLocationProvider struct {
	base     *BaseClient
	endpoint string
	logger   *slog.Logger
}

// NewIPLocationProvider builds an IPLocationProvider. An empty endpoint uses
// DefaultIPLocationURL.
func NewIPLocationProvider(endpoint string, timeout time.Duration, userAgent string, logger *slog.Logger, opts ...BaseClientOption) *IPLocationProvider {
	if endpoint == "" {
		endpoint = DefaultIPLocationURL
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &IPLocationProvider{
		base:     NewBaseClient(&http.Client{Timeout: timeout}, "iplocation", DefaultRetryPolicy(), userAgent, opts...),
		endpoint: endpoint,
		logger:   logger,
	}
}

// ipLocationResponse accepts both the latitude/longitude and the lat/lon
// spellings used by common geo-IP services.
type ipLocationResponse struct {
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
	Lat       *float64 `json:"lat"`
	Lon       *float64 `json:"lon"`
}

func (r ipLocationResponse) coordinates() (types.Coordinates, bool) {
	switch {
	case r.Latitude != nil && r.Longitude != nil:
		return types.Coordinates{Latitude: *r.Latitude, Longitude: *r.Longitude}, true
	case r.Lat != nil && r.Lon != nil:
		return types.Coordinates{Latitude: *r.Lat, Longitude: *r.Lon}, true
	default:
		return types.Coordinates{}, false
	}
}

// Current implements types.LocationProvider.
func (p *IPLocationProvider) Current(ctx context.Context) (types.Coordinates, error) {
	var body ipLocationResponse
	if err := p.base.GetJSON(ctx, p.endpoint, &body); err != nil {
		p.logger.WarnContext(ctx, "ip location lookup failed", "error", err)
		return types.Coordinates{}, types.NewAppError(types.ErrCodeUpstreamLocation, types.ErrLocationUnavailable.Message, err)
	}

	coords, ok := body.coordinates()
	if !ok {
		return types.Coordinates{}, types.NewAppError(types.ErrCodeUpstreamLocation, "location response missing coordinates", nil)
	}
	if err := types.ValidateCoordinates(coords); err != nil {
		return types.Coordinates{}, types.NewAppError(types.ErrCodeUpstreamLocation, "location response out of range", err)
	}
	return coords, nil
}

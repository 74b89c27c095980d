package external

import (
	"fmt"
	"log/slog"

	"lumera/internal/config"
	"lumera/internal/types"
)

// Provider names accepted in configuration.
const (
	ProviderStub      = "stub"
	ProviderStatic    = "static"
	ProviderIP        = "ip"
	ProviderOpenMeteo = "openmeteo"
	ProviderOpenAI    = "openai"
)

// ClientRegistry holds the collaborator implementations selected by
// configuration.
type ClientRegistry struct {
	Location  types.LocationProvider
	Weather   types.WeatherProvider
	Inference types.InferenceService
}

// NewClientRegistry builds each collaborator from cfg. Unknown provider names
// are rejected so a typo cannot silently fall back to a stub.
func NewClientRegistry(cfg *config.Config, logger *slog.Logger) (*ClientRegistry, error) {
	if logger == nil {
		logger = slog.Default()
	}
	userAgent := "lumera/" + cfg.Build.Version
	reg := &ClientRegistry{}

	switch cfg.Location.Provider {
	case ProviderStatic:
		p, err := NewStaticLocationProvider(types.Coordinates{
			Latitude:  cfg.Location.StaticLatitude,
			Longitude: cfg.Location.StaticLongitude,
		})
		if err != nil {
			return nil, fmt.Errorf("location: %w", err)
		}
		reg.Location = p
	case ProviderIP:
		reg.Location = NewIPLocationProvider(cfg.Location.IPEndpoint, cfg.Location.Timeout, userAgent, logger)
	default:
		return nil, fmt.Errorf("location: unknown provider %q", cfg.Location.Provider)
	}

	switch cfg.Weather.Provider {
	case ProviderStub:
		reg.Weather = NewStubWeather(logger)
	case ProviderOpenMeteo:
		reg.Weather = NewOpenMeteoClient(OpenMeteoConfig{
			BaseURL:   cfg.Weather.BaseURL,
			Timeout:   cfg.Weather.Timeout,
			UserAgent: userAgent,
			Logger:    logger,
		})
	default:
		return nil, fmt.Errorf("weather: unknown provider %q", cfg.Weather.Provider)
	}

	switch cfg.Inference.Provider {
	case ProviderStub:
		reg.Inference = NewStubInference(logger)
	case ProviderOpenAI:
		inf, err := NewLLMInference(LLMConfig{
			BaseURL: cfg.Inference.BaseURL,
			APIKey:  cfg.Inference.APIKey,
			Model:   cfg.Inference.Model,
			Timeout: cfg.Inference.Timeout,
			Logger:  logger,
		})
		if err != nil {
			return nil, err
		}
		reg.Inference = inf
	default:
		return nil, fmt.Errorf("inference: unknown provider %q", cfg.Inference.Provider)
	}

	logger.Info("external clients initialized",
		"location", cfg.Location.Provider,
		"weather", cfg.Weather.Provider,
		"inference", cfg.Inference.Provider,
	)
	return reg, nil
}

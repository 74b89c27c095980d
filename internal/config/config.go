// Package config defines the process configuration for the Lumera engine.
// Configuration is loaded once at startup and is immutable thereafter.
//
// Values are resolved via a priority chain:
//
//	OS Environment (Highest) -> Dotenv File -> *_FILE secret files (Lowest)
//
// Any missing required value or invalid format fails startup.
package config

import (
	"time"

	"lumera/internal/types"
)

// SecretString is an alias for types.SecretString so secrets never reach logs.
type SecretString = types.SecretString

// Config is the top-level configuration struct. Components receive only the
// sub-config they need.
type Config struct {
	Environment string `envconfig:"APP_ENV" default:"local" validate:"required,oneof=local dev staging prod"`
	Service     string `envconfig:"SERVICE_NAME" default:"lumera"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info" validate:"oneof=debug info warn error"`

	Server        ServerConfig
	Engine        EngineConfig
	Storage       StorageConfig
	Location      LocationConfig
	Weather       WeatherConfig
	Inference     InferenceConfig
	Notify        NotifyConfig
	Observability ObservabilityConfig
	AWS           AWSConfig

	// Injected via ldflags, not Env
	Build BuildInfo
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port            string        `envconfig:"PORT" default:"8080" validate:"required,numeric"`
	ReadTimeout     time.Duration `envconfig:"HTTP_READ_TIMEOUT" default:"15s"`
	WriteTimeout    time.Duration `envconfig:"HTTP_WRITE_TIMEOUT" default:"60s"`
	ShutdownTimeout time.Duration `envconfig:"HTTP_SHUTDOWN_TIMEOUT" default:"10s"`
	// A prediction request can wait on two inference calls.
	RequestTimeout     time.Duration `envconfig:"HTTP_REQUEST_TIMEOUT" default:"45s"`
	CorsAllowedOrigins []string      `envconfig:"CORS_ALLOWED_ORIGINS" default:"*"`
}

// EngineConfig holds the proactive trigger tuning and locale settings.
type EngineConfig struct {
	TickInterval            time.Duration `envconfig:"ENGINE_TICK_INTERVAL" default:"30s" validate:"gt=0"`
	SignificantLogCount     int           `envconfig:"ENGINE_SIGNIFICANT_LOG_COUNT" default:"3" validate:"gte=1"`
	SignificantRadiusMeters float64       `envconfig:"ENGINE_SIGNIFICANT_RADIUS_METERS" default:"150" validate:"gt=0"`
	DebounceWindow          time.Duration `envconfig:"ENGINE_DEBOUNCE_WINDOW" default:"5m" validate:"gte=0"`
	MinManualHistory        int           `envconfig:"ENGINE_MIN_MANUAL_HISTORY" default:"3" validate:"gte=1"`
	Timezone                string        `envconfig:"ENGINE_TIMEZONE" default:"Local"`
	Use24HourClock          bool          `envconfig:"ENGINE_24H_CLOCK" default:"false"`
	ProactiveEnabled        bool          `envconfig:"ENGINE_PROACTIVE_ENABLED" default:"true"`
}

// StorageConfig selects and configures the blob store behind the ledgers.
type StorageConfig struct {
	Driver      string       `envconfig:"STORAGE_DRIVER" default:"sqlite" validate:"oneof=memory sqlite postgres"`
	SQLitePath  string       `envconfig:"STORAGE_SQLITE_PATH" default:"lumera.db" validate:"required_if=Driver sqlite"`
	DatabaseURL SecretString `envconfig:"DATABASE_URL" validate:"required_if=Driver postgres"`
	Compress    bool         `envconfig:"STORAGE_COMPRESS" default:"false"`
}

// LocationConfig selects the location provider.
type LocationConfig struct {
	Provider        string        `envconfig:"LOCATION_PROVIDER" default:"static" validate:"oneof=static ip"`
	StaticLatitude  float64       `envconfig:"LOCATION_STATIC_LAT" default:"40.7128" validate:"latitude"`
	StaticLongitude float64       `envconfig:"LOCATION_STATIC_LON" default:"-74.0060" validate:"longitude"`
	IPEndpoint      string        `envconfig:"LOCATION_IP_ENDPOINT" validate:"omitempty,url"`
	Timeout         time.Duration `envconfig:"LOCATION_TIMEOUT" default:"5s"`
}

// WeatherConfig selects the weather provider.
type WeatherConfig struct {
	Provider string        `envconfig:"WEATHER_PROVIDER" default:"openmeteo" validate:"oneof=openmeteo stub"`
	BaseURL  string        `envconfig:"WEATHER_BASE_URL" validate:"omitempty,url"`
	Timeout  time.Duration `envconfig:"WEATHER_TIMEOUT" default:"10s"`
}

// InferenceConfig selects the inference backend. Any OpenAI-compatible chat
// completions endpoint works with the openai provider.
type InferenceConfig struct {
	Provider string        `envconfig:"INFERENCE_PROVIDER" default:"stub" validate:"oneof=openai stub"`
	BaseURL  string        `envconfig:"INFERENCE_BASE_URL" validate:"omitempty,url"`
	Model    string        `envconfig:"INFERENCE_MODEL" default:"gpt-4o-mini"`
	APIKey   SecretString  `envconfig:"INFERENCE_API_KEY" validate:"required_if=Provider openai"`
	Timeout  time.Duration `envconfig:"INFERENCE_TIMEOUT" default:"30s"`
}

// NotifyConfig controls where new prediction records are published.
type NotifyConfig struct {
	SQSQueueURL     string `envconfig:"NOTIFY_SQS_QUEUE_URL" validate:"omitempty,url"`
	WebSocketEnable bool   `envconfig:"NOTIFY_WEBSOCKET_ENABLE" default:"true"`
}

// ObservabilityConfig holds telemetry settings.
type ObservabilityConfig struct {
	CloudWatchEnable bool   `envconfig:"CLOUDWATCH_ENABLE" default:"false"`
	MetricNamespace  string `envconfig:"METRIC_NAMESPACE" default:"Lumera"`
}

// AWSConfig holds AWS regional configuration shared by the SQS and
// CloudWatch clients.
type AWSConfig struct {
	Region string `envconfig:"AWS_REGION" default:"us-east-1"`
	// LocalStack support (empty in prod)
	EndpointURL string `envconfig:"AWS_ENDPOINT_URL" validate:"omitempty,url"`
}

// NeedsAWS reports whether any AWS-backed component is enabled.
func (c *Config) NeedsAWS() bool {
	return c.Notify.SQSQueueURL != "" || c.Observability.CloudWatchEnable
}

// BuildInfo holds build-time metadata injected via ldflags.
type BuildInfo struct {
	Version   string
	Commit    string
	BuildTime string
}

// ConfigErrorType categorizes configuration loading failures.
type ConfigErrorType string

const (
	// ErrSecretResolution indicates a *_FILE secret could not be read.
	ErrSecretResolution ConfigErrorType = "SECRET_FAILURE"
	// ErrValidation indicates the configuration failed struct validation rules.
	ErrValidation ConfigErrorType = "VALIDATION_FAILED"
	// ErrParsing indicates an environment value could not be parsed into its
	// target type.
	ErrParsing ConfigErrorType = "PARSING_FAILED"
)

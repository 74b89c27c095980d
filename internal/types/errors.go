package types

import (
	"fmt"
	"net/http"
	"strings"
)

// ErrorCode is a typed string for categorizing application errors.
type ErrorCode string

// Error code constants. Handlers and services use these instead of literals.
const (
	// Validation (400, 422)
	ErrCodeValidationMissingField     ErrorCode = "validation_missing_required_field"
	ErrCodeValidationInvalidEmotion   ErrorCode = "validation_invalid_emotion"
	ErrCodeValidationInvalidFeedback  ErrorCode = "validation_invalid_feedback"
	ErrCodeValidationInvalidKind      ErrorCode = "validation_invalid_kind"
	ErrCodeValidationInvalidRequest   ErrorCode = "validation_invalid_request"
	ErrCodeValidationInvalidJSON      ErrorCode = "validation_invalid_json"
	ErrCodeValidationNotEnoughHistory ErrorCode = "validation_not_enough_history"

	// Not Found (404)
	ErrCodeNotFoundPrediction ErrorCode = "not_found_prediction"
	ErrCodeNotFoundAlert      ErrorCode = "not_found_live_alert"

	// Conflict (409)
	ErrCodeConflictBusy               ErrorCode = "conflict_prediction_in_flight"
	ErrCodeConflictContextUnavailable ErrorCode = "conflict_context_unavailable"

	// Internal/Upstream (500/502)
	ErrCodeInternalStorage     ErrorCode = "internal_storage_error"
	ErrCodeInternalUnexpected  ErrorCode = "internal_unexpected_error"
	ErrCodeUpstreamLocation    ErrorCode = "upstream_location_unavailable"
	ErrCodeUpstreamWeather     ErrorCode = "upstream_weather_unavailable"
	ErrCodeUpstreamInference   ErrorCode = "upstream_inference_unavailable"
	ErrCodeUpstreamUnavailable ErrorCode = "upstream_unavailable"
	ErrCodeUpstreamRateLimited ErrorCode = "upstream_rate_limited"
)

// HTTPStatus maps an ErrorCode to its corresponding HTTP status code.
// Returns 500 for unrecognized error codes.
func (c ErrorCode) HTTPStatus() int {
	s := string(c)
	switch {
	case c == ErrCodeValidationNotEnoughHistory:
		return http.StatusUnprocessableEntity // 422
	case strings.HasPrefix(s, "validation_"):
		return http.StatusBadRequest // 400
	case strings.HasPrefix(s, "not_found_"):
		return http.StatusNotFound // 404
	case strings.HasPrefix(s, "conflict_"):
		return http.StatusConflict // 409
	case c == ErrCodeUpstreamRateLimited:
		return http.StatusServiceUnavailable // 503
	case strings.HasPrefix(s, "upstream_"):
		return http.StatusBadGateway // 502
	default:
		return http.StatusInternalServerError // 500
	}
}

// AppError is the standard application error type. All domain and handler
// errors are expressed as AppError so they format and map to HTTP uniformly.
type AppError struct {
	Code    ErrorCode      `json:"code"`
	Message string         `json:"message"`
	Err     error          `json:"-"`
	Details map[string]any `json:"details,omitempty"`
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error for errors.Is/errors.As support.
func (e *AppError) Unwrap() error {
	return e.Err
}

// Is matches any AppError carrying the same code, so the sentinel values
// below work with errors.Is regardless of message or cause.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// HTTPStatus returns the HTTP status code corresponding to this error's code.
func (e *AppError) HTTPStatus() int {
	return e.Code.HTTPStatus()
}

// WithDetails returns a copy of the error with the provided details merged in.
func (e *AppError) WithDetails(details map[string]any) *AppError {
	merged := make(map[string]any, len(e.Details)+len(details))
	for k, v := range e.Details {
		merged[k] = v
	}
	for k, v := range details {
		merged[k] = v
	}
	return &AppError{
		Code:    e.Code,
		Message: e.Message,
		Err:     e.Err,
		Details: merged,
	}
}

// NewAppError creates a new AppError with the given code, message, and optional
// underlying error.
func NewAppError(code ErrorCode, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// NewAppErrorWithDetails creates a new AppError with structured details.
func NewAppErrorWithDetails(code ErrorCode, message string, err error, details map[string]any) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
		Details: details,
	}
}

// Sentinels for errors.Is checks.
var (
	ErrBusy                = &AppError{Code: ErrCodeConflictBusy, Message: "a prediction is already in progress"}
	ErrContextUnavailable  = &AppError{Code: ErrCodeConflictContextUnavailable, Message: "location and weather are not available yet"}
	ErrNotEnoughHistory    = &AppError{Code: ErrCodeValidationNotEnoughHistory, Message: "not enough mood history to predict"}
	ErrNotFound            = &AppError{Code: ErrCodeNotFoundPrediction, Message: "prediction not found"}
	ErrInvalidFeedback     = &AppError{Code: ErrCodeValidationInvalidFeedback, Message: "invalid feedback"}
	ErrPredictionFailed    = &AppError{Code: ErrCodeUpstreamInference, Message: "could not get an emotion prediction at this time"}
	ErrLocationUnavailable = &AppError{Code: ErrCodeUpstreamLocation, Message: "current location is unavailable"}
	ErrWeatherUnavailable  = &AppError{Code: ErrCodeUpstreamWeather, Message: "weather is unavailable"}
	ErrStorage             = &AppError{Code: ErrCodeInternalStorage, Message: "storage failure"}
)

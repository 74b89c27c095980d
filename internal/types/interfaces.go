package types

import (
	"context"
	"time"
)

// Clock abstracts time for testability.
type Clock interface {
	Now() time.Time
}

// RealClock implements Clock using the real system time.
type RealClock struct{}

// Now returns the current time.
func (RealClock) Now() time.Time { return time.Now() }

// LocationProvider reports the device's current position.
// Failures are returned as ErrCodeUpstreamLocation.
type LocationProvider interface {
	Current(ctx context.Context) (Coordinates, error)
}

// WeatherProvider looks up current conditions for a point.
// Callers substitute DefaultWeather on any error.
type WeatherProvider interface {
	ForLocation(ctx context.Context, at Coordinates) (WeatherSnapshot, error)
}

// InferenceService is the external model that predicts emotions and proposes
// coping strategies. Implementations must not retain the digest slices.
type InferenceService interface {
	// PredictEmotion estimates how the user is likely to feel given the
	// current context, their recent moods, and their past accuracy votes.
	PredictEmotion(ctx context.Context, current ContextSnapshot, moods []MoodDigestItem, feedback []EmotionFeedbackItem) (EmotionEstimate, error)

	// SuggestCoping proposes a short strategy for a challenging emotion.
	SuggestCoping(ctx context.Context, emotion Emotion, current ContextSnapshot, feedback []SuggestionFeedbackItem) (CopingAdvice, error)
}

// Store is a durable key to blob map. A missing key is reported with
// found=false and a nil error.
type Store interface {
	Get(ctx context.Context, key string) (data []byte, found bool, err error)
	Set(ctx context.Context, key string, data []byte) error
}

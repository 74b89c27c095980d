package external

import (
	"context"
	"fmt"
	"log/slog"

	"lumera/internal/types"
)

// Stub collaborators let the engine boot in local mode without network
// access or credentials. They log each call and return predictable values.

// StubWeather implements types.WeatherProvider with a fixed snapshot.
type StubWeather struct {
	Snapshot types.WeatherSnapshot
	logger   *slog.Logger
}

// NewStubWeather returns a stub reporting 18°C and clear skies.
func NewStubWeather(logger *slog.Logger) *StubWeather {
	if logger == nil {
		logger = slog.Default()
	}
	return &StubWeather{
		Snapshot: types.WeatherSnapshot{TemperatureC: 18, Condition: "Clear Sky"},
		logger:   logger,
	}
}

func (s *StubWeather) ForLocation(ctx context.Context, c types.Coordinates) (types.WeatherSnapshot, error) {
	s.logger.DebugContext(ctx, "stub: ForLocation called", "lat", c.Latitude, "lon", c.Longitude)
	return s.Snapshot, nil
}

// StubInference implements types.InferenceService by predicting the most
// frequent emotion in the supplied history.
type StubInference struct {
	logger *slog.Logger
}

// NewStubInference creates a StubInference.
func NewStubInference(logger *slog.Logger) *StubInference {
	if logger == nil {
		logger = slog.Default()
	}
	return &StubInference{logger: logger}
}

func (s *StubInference) PredictEmotion(ctx context.Context, snap types.ContextSnapshot, moods []types.MoodDigestItem, _ []types.EmotionFeedbackItem) (types.EmotionEstimate, error) {
	s.logger.InfoContext(ctx, "stub: PredictEmotion called", "history", len(moods))
	if len(moods) == 0 {
		return types.EmotionEstimate{
			PredictedEmotion: types.EmotionCalm,
			Probability:      0.5,
			Reasoning:        "No history yet.",
		}, nil
	}

	counts := make(map[types.Emotion]int, len(types.AllEmotions))
	for _, m := range moods {
		counts[m.Emotion]++
	}
	// Ties go to the emotion that appears first in AllEmotions.
	best := types.AllEmotions[0]
	for _, e := range types.AllEmotions {
		if counts[e] > counts[best] {
			best = e
		}
	}
	return types.EmotionEstimate{
		PredictedEmotion: best,
		Probability:      float64(counts[best]) / float64(len(moods)),
		Reasoning:        fmt.Sprintf("You most often felt %s, and it is %s %s.", best, snap.DayOfWeek, snap.TimeOfDay),
	}, nil
}

func (s *StubInference) SuggestCoping(ctx context.Context, emotion types.Emotion, _ types.ContextSnapshot, _ []types.SuggestionFeedbackItem) (types.CopingAdvice, error) {
	s.logger.InfoContext(ctx, "stub: SuggestCoping called", "emotion", emotion)
	return types.CopingAdvice{Suggestion: "Take a short walk to a nearby park and focus on your steps."}, nil
}

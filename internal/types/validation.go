package types

import (
	"fmt"
	"strings"
)

// Coordinate bounds.
const (
	MinLat = -90.0
	MaxLat = 90.0
	MinLon = -180.0
	MaxLon = 180.0
)

// ValidateCoordinates checks that c lies within WGS84 bounds.
func ValidateCoordinates(c Coordinates) error {
	if c.Latitude < MinLat || c.Latitude > MaxLat {
		return NewAppError(ErrCodeValidationInvalidRequest,
			fmt.Sprintf("latitude %.6f outside [%v, %v]", c.Latitude, MinLat, MaxLat), nil)
	}
	if c.Longitude < MinLon || c.Longitude > MaxLon {
		return NewAppError(ErrCodeValidationInvalidRequest,
			fmt.Sprintf("longitude %.6f outside [%v, %v]", c.Longitude, MinLon, MaxLon), nil)
	}
	return nil
}

// ParseEmotion converts client input to an Emotion. Matching is exact on the
// canonical capitalized form.
func ParseEmotion(s string) (Emotion, error) {
	e := Emotion(strings.TrimSpace(s))
	if !e.Valid() {
		return "", NewAppErrorWithDetails(ErrCodeValidationInvalidEmotion,
			fmt.Sprintf("unknown emotion %q", s), nil,
			map[string]any{"allowed": AllEmotions})
	}
	return e, nil
}

// ParsePredictionKind converts client input to a PredictionKind.
func ParsePredictionKind(s string) (PredictionKind, error) {
	k := PredictionKind(s)
	if !k.Valid() {
		return "", NewAppErrorWithDetails(ErrCodeValidationInvalidKind,
			fmt.Sprintf("unknown prediction kind %q", s), nil,
			map[string]any{"allowed": []PredictionKind{KindProactive, KindManual}})
	}
	return k, nil
}

// NormalizeNote trims a free-form note and drops it when blank.
func NormalizeNote(note *string) *string {
	if note == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*note)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

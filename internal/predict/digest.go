package predict

import (
	"strconv"

	"lumera/internal/types"
)

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', 3, 64)
}

// MoodDigest reduces mood entries to the form sent to inference.
func MoodDigest(entries []types.MoodEntry) []types.MoodDigestItem {
	out := make([]types.MoodDigestItem, 0, len(entries))
	for _, e := range entries {
		item := types.MoodDigestItem{
			Emotion:   e.Emotion,
			DayOfWeek: e.DayOfWeek,
			TimeOfDay: e.TimeOfDay,
			Weather:   e.Weather.Condition,
			Lat:       formatCoord(e.Coordinates.Latitude),
			Lon:       formatCoord(e.Coordinates.Longitude),
		}
		if e.Note != nil {
			item.Note = *e.Note
		}
		out = append(out, item)
	}
	return out
}

// EmotionFeedbackDigest pairs each record's predicted emotion with the
// user's accuracy vote. Records without one are skipped.
func EmotionFeedbackDigest(records []types.PredictionRecord) []types.EmotionFeedbackItem {
	out := make([]types.EmotionFeedbackItem, 0, len(records))
	for _, r := range records {
		if !r.HasEmotionVote() {
			continue
		}
		out = append(out, types.EmotionFeedbackItem{
			PredictedEmotion: r.Prediction.PredictedEmotion,
			Feedback:         *r.Prediction.Feedback.Emotion,
		})
	}
	return out
}

// SuggestionFeedbackDigest pairs each past suggestion with its helpfulness vote.
func SuggestionFeedbackDigest(records []types.PredictionRecord) []types.SuggestionFeedbackItem {
	out := make([]types.SuggestionFeedbackItem, 0, len(records))
	for _, r := range records {
		if !r.HasSuggestionVote() || r.Prediction.Suggestion == nil {
			continue
		}
		out = append(out, types.SuggestionFeedbackItem{
			PredictedEmotion: r.Prediction.PredictedEmotion,
			Suggestion:       *r.Prediction.Suggestion,
			Feedback:         *r.Prediction.Feedback.Suggestion,
		})
	}
	return out
}

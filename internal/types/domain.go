package types

// Coordinates is a geographic point in decimal degrees.
type Coordinates struct {
	Latitude  float64 `json:"latitude" validate:"latitude"`
	Longitude float64 `json:"longitude" validate:"longitude"`
}

// WeatherSnapshot is the weather observed at a location at a point in time.
type WeatherSnapshot struct {
	TemperatureC float64 `json:"temperature"`
	Condition    string  `json:"condition"`
}

// DefaultWeather is substituted whenever the weather provider fails.
var DefaultWeather = WeatherSnapshot{
	TemperatureC: 20,
	Condition:    "Partly Cloudy (Default)",
}

// ContextSnapshot captures where and when something happened. It is built
// once by a SnapshotFactory and never mutated afterwards.
type ContextSnapshot struct {
	Coordinates Coordinates     `json:"coordinates"`
	Weather     WeatherSnapshot `json:"weather"`
	TimestampMs int64           `json:"timestamp"`
	DayOfWeek   string          `json:"dayOfWeek"`
	TimeOfDay   string          `json:"timeOfDay"`
}

// MoodEntry is a self-reported emotion tagged with its context.
// Entries are immutable once appended to the mood ledger.
type MoodEntry struct {
	ContextSnapshot
	ID      string  `json:"id"`
	Emotion Emotion `json:"emotion"`
	Note    *string `json:"note,omitempty"`
}

// GroundingLink is a place reference returned alongside a coping suggestion.
type GroundingLink struct {
	URI   string `json:"uri"`
	Title string `json:"title"`
}

// Prediction is the inference result for a single request. Every field except
// Feedback is write-once.
type Prediction struct {
	PredictedEmotion Emotion         `json:"predictedEmotion"`
	Probability      float64         `json:"probability"`
	Reasoning        string          `json:"reasoning"`
	Suggestion       *string         `json:"suggestion,omitempty"`
	Grounding        []GroundingLink `json:"grounding,omitempty"`
	Feedback         *Feedback       `json:"feedback,omitempty"`
}

// Clone returns a deep copy so callers cannot alias ledger state.
func (p Prediction) Clone() Prediction {
	out := p
	if p.Suggestion != nil {
		s := *p.Suggestion
		out.Suggestion = &s
	}
	if p.Grounding != nil {
		out.Grounding = append([]GroundingLink(nil), p.Grounding...)
	}
	if p.Feedback != nil {
		fb := p.Feedback.Clone()
		out.Feedback = &fb
	}
	return out
}

// PredictionRecord is a completed prediction as stored in the prediction ledger.
type PredictionRecord struct {
	ID          string         `json:"id"`
	Kind        PredictionKind `json:"type"`
	Prediction  Prediction     `json:"prediction"`
	TimestampMs int64          `json:"timestamp"`
}

// Clone returns a deep copy of the record.
func (r PredictionRecord) Clone() PredictionRecord {
	out := r
	out.Prediction = r.Prediction.Clone()
	return out
}

// HasEmotionVote reports whether the user rated the predicted emotion.
func (r PredictionRecord) HasEmotionVote() bool {
	return r.Prediction.Feedback != nil && r.Prediction.Feedback.Emotion != nil
}

// HasSuggestionVote reports whether the user rated the coping suggestion.
func (r PredictionRecord) HasSuggestionVote() bool {
	return r.Prediction.Feedback != nil && r.Prediction.Feedback.Suggestion != nil
}

// MoodDigestItem is the reduced form of a MoodEntry sent to inference.
type MoodDigestItem struct {
	Emotion   Emotion `json:"emotion"`
	Note      string  `json:"note,omitempty"`
	DayOfWeek string  `json:"day"`
	TimeOfDay string  `json:"time"`
	Weather   string  `json:"weather"`
	Lat       string  `json:"lat"`
	Lon       string  `json:"lon"`
}

// EmotionFeedbackItem is a past prediction paired with the user's accuracy vote.
type EmotionFeedbackItem struct {
	PredictedEmotion Emotion     `json:"predictedEmotion"`
	Feedback         EmotionVote `json:"feedback"`
}

// SuggestionFeedbackItem is a past coping suggestion paired with the user's
// helpfulness vote.
type SuggestionFeedbackItem struct {
	PredictedEmotion Emotion        `json:"predictedEmotion"`
	Suggestion       string         `json:"suggestion"`
	Feedback         SuggestionVote `json:"feedback"`
}

// EmotionEstimate is the raw result of the predict-emotion inference call.
type EmotionEstimate struct {
	PredictedEmotion Emotion `json:"predictedEmotion"`
	Probability      float64 `json:"probability"`
	Reasoning        string  `json:"reasoning"`
}

// CopingAdvice is the raw result of the suggest-coping inference call.
type CopingAdvice struct {
	Suggestion string          `json:"suggestion"`
	Grounding  []GroundingLink `json:"grounding,omitempty"`
}

// MoodFilter narrows a mood history read. Zero values match everything.
type MoodFilter struct {
	Emotion   Emotion
	DayOfWeek string
}

// Matches reports whether the entry passes the filter.
func (f MoodFilter) Matches(e MoodEntry) bool {
	if f.Emotion != "" && e.Emotion != f.Emotion {
		return false
	}
	if f.DayOfWeek != "" && e.DayOfWeek != f.DayOfWeek {
		return false
	}
	return true
}

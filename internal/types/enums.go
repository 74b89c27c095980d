package types

// Emotion is the closed set of moods a user can log or the model can predict.
type Emotion string

const (
	EmotionHappy    Emotion = "Happy"
	EmotionCalm     Emotion = "Calm"
	EmotionSad      Emotion = "Sad"
	EmotionStressed Emotion = "Stressed"
	EmotionAnxious  Emotion = "Anxious"
	EmotionExcited  Emotion = "Excited"
)

// AllEmotions lists every Emotion in display order.
var AllEmotions = []Emotion{
	EmotionHappy,
	EmotionCalm,
	EmotionSad,
	EmotionStressed,
	EmotionAnxious,
	EmotionExcited,
}

// Valid reports whether e is one of the six known emotions.
func (e Emotion) Valid() bool {
	for _, known := range AllEmotions {
		if e == known {
			return true
		}
	}
	return false
}

// IsChallenging reports whether a prediction of e warrants a coping suggestion.
func (e Emotion) IsChallenging() bool {
	switch e {
	case EmotionStressed, EmotionAnxious, EmotionSad:
		return true
	default:
		return false
	}
}

// PredictionKind records what started a prediction.
type PredictionKind string

const (
	KindProactive PredictionKind = "proactive"
	KindManual    PredictionKind = "manual"
)

// Valid reports whether k is a known kind.
func (k PredictionKind) Valid() bool {
	return k == KindProactive || k == KindManual
}

// Storage keys for the persisted ledger snapshots.
const (
	MoodHistoryKey       = "moodHistory"
	PredictionHistoryKey = "predictionHistory"
)

// Limits applied when assembling inference payloads.
const (
	MoodDigestLimit     = 20
	FeedbackDigestLimit = 5
)

// FallbackSuggestion is used when the coping-suggestion call fails.
const FallbackSuggestion = "Take a moment to breathe deeply."

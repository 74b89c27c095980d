package types

import "fmt"

// FeedbackType names the field of a Feedback that a vote targets.
type FeedbackType string

const (
	FeedbackEmotion    FeedbackType = "emotion"
	FeedbackSuggestion FeedbackType = "suggestion"
)

// EmotionVote rates whether the predicted emotion matched how the user felt.
type EmotionVote string

const (
	VoteAccurate   EmotionVote = "accurate"
	VoteInaccurate EmotionVote = "inaccurate"
)

// SuggestionVote rates whether the coping suggestion helped.
type SuggestionVote string

const (
	VoteHelpful    SuggestionVote = "helpful"
	VoteNotHelpful SuggestionVote = "not_helpful"
)

// Feedback holds the user's votes on a prediction. Each field is set
// independently; a later vote for the same field replaces the earlier one.
type Feedback struct {
	Emotion    *EmotionVote    `json:"emotion,omitempty"`
	Suggestion *SuggestionVote `json:"suggestion,omitempty"`
}

// Clone returns a copy that shares no pointers with f.
func (f Feedback) Clone() Feedback {
	var out Feedback
	if f.Emotion != nil {
		v := *f.Emotion
		out.Emotion = &v
	}
	if f.Suggestion != nil {
		v := *f.Suggestion
		out.Suggestion = &v
	}
	return out
}

// With returns a copy of f with the vote applied.
func (f Feedback) With(v FeedbackVote) Feedback {
	out := f.Clone()
	v.applyTo(&out)
	return out
}

// FeedbackVote is a vote bound to the field it targets. The only
// implementations are EmotionVote and SuggestionVote, so an emotion field can
// never receive a helpfulness value or vice versa.
type FeedbackVote interface {
	Type() FeedbackType
	Value() string
	applyTo(f *Feedback)
}

// Type implements FeedbackVote.
func (v EmotionVote) Type() FeedbackType { return FeedbackEmotion }

// Value implements FeedbackVote.
func (v EmotionVote) Value() string { return string(v) }

func (v EmotionVote) applyTo(f *Feedback) {
	vv := v
	f.Emotion = &vv
}

// Valid reports whether v is accurate or inaccurate.
func (v EmotionVote) Valid() bool {
	return v == VoteAccurate || v == VoteInaccurate
}

// Type implements FeedbackVote.
func (v SuggestionVote) Type() FeedbackType { return FeedbackSuggestion }

// Value implements FeedbackVote.
func (v SuggestionVote) Value() string { return string(v) }

func (v SuggestionVote) applyTo(f *Feedback) {
	vv := v
	f.Suggestion = &vv
}

// Valid reports whether v is helpful or not_helpful.
func (v SuggestionVote) Valid() bool {
	return v == VoteHelpful || v == VoteNotHelpful
}

// ParseFeedbackVote builds a typed vote from the loosely typed pair sent by a
// client. Mismatched combinations such as ("emotion", "helpful") are rejected
// with ErrCodeValidationInvalidFeedback.
func ParseFeedbackVote(feedbackType, value string) (FeedbackVote, error) {
	switch FeedbackType(feedbackType) {
	case FeedbackEmotion:
		if v := EmotionVote(value); v.Valid() {
			return v, nil
		}
	case FeedbackSuggestion:
		if v := SuggestionVote(value); v.Valid() {
			return v, nil
		}
	}
	return nil, NewAppErrorWithDetails(
		ErrCodeValidationInvalidFeedback,
		fmt.Sprintf("value %q is not valid for feedback type %q", value, feedbackType),
		nil,
		map[string]any{"type": feedbackType, "value": value},
	)
}

// NewEmotionVote returns v as a FeedbackVote, rejecting unknown values.
func NewEmotionVote(v EmotionVote) (FeedbackVote, error) {
	return ParseFeedbackVote(string(FeedbackEmotion), string(v))
}

// NewSuggestionVote returns v as a FeedbackVote, rejecting unknown values.
func NewSuggestionVote(v SuggestionVote) (FeedbackVote, error) {
	return ParseFeedbackVote(string(FeedbackSuggestion), string(v))
}

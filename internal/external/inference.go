package external

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	openaigo "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"lumera/internal/types"
)

// Defaults for LLMInference.
const (
	DefaultInferenceModel   = "gpt-4o-mini"
	DefaultInferenceTimeout = 30 * time.Second
	DefaultInferenceRetries = 2
)

// LLMConfig configures LLMInference. Any OpenAI-compatible chat completions
// endpoint works.
type LLMConfig struct {
	BaseURL    string
	APIKey     types.SecretString
	Model      string
	Timeout    time.Duration
	MaxRetries *int
	HTTPClient *http.Client
	Logger     *slog.Logger
}

// LLMInference implements types.InferenceService with chat completions and
// JSON-only prompts.
type LLMInference struct {
	client openaigo.Client
	model  string
	logger *slog.Logger
}

// NewLLMInference builds an inference client. An API key is required.
func NewLLMInference(cfg LLMConfig) (*LLMInference, error) {
	if !cfg.APIKey.IsSet() {
		return nil, fmt.Errorf("inference: api key is required")
	}
	if cfg.Model == "" {
		cfg.Model = DefaultInferenceModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultInferenceTimeout
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	retries := DefaultInferenceRetries
	if cfg.MaxRetries != nil {
		retries = *cfg.MaxRetries
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey.Unmask()),
		option.WithHTTPClient(cfg.HTTPClient),
		option.WithMaxRetries(retries),
		option.WithRequestTimeout(cfg.Timeout),
	}
	if base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"); base != "" {
		opts = append(opts, option.WithBaseURL(base+"/"))
	}

	return &LLMInference{
		client: openaigo.NewClient(opts...),
		model:  cfg.Model,
		logger: cfg.Logger,
	}, nil
}

const predictSystemPrompt = `You are a digital phenotyping expert. You predict a user's likely emotional state from their historical mood logs and their current context.
Look for patterns across place, time, day and weather. Notes attached to past logs carry important context.
Respond ONLY with a single valid JSON object, no prose and no code fences.`

const copingSystemPrompt = `You give short, practical coping advice. Do not be conversational.
Respond ONLY with a single valid JSON object, no prose and no code fences.`

type contextDigest struct {
	Day     string `json:"day"`
	Time    string `json:"time"`
	Weather string `json:"weather"`
	Lat     string `json:"lat"`
	Lon     string `json:"lon"`
}

func digestContext(snap types.ContextSnapshot) contextDigest {
	return contextDigest{
		Day:     snap.DayOfWeek,
		Time:    snap.TimeOfDay,
		Weather: snap.Weather.Condition,
		Lat:     strconv.FormatFloat(snap.Coordinates.Latitude, 'f', 3, 64),
		Lon:     strconv.FormatFloat(snap.Coordinates.Longitude, 'f', 3, 64),
	}
}

func emotionList() string {
	names := make([]string, len(types.AllEmotions))
	for i, e := range types.AllEmotions {
		names[i] = string(e)
	}
	return strings.Join(names, ", ")
}

func buildPredictPrompt(snap types.ContextSnapshot, moods []types.MoodDigestItem, feedback []types.EmotionFeedbackItem) (string, error) {
	history, err := json.Marshal(moods)
	if err != nil {
		return "", err
	}
	current, err := json.Marshal(digestContext(snap))
	if err != nil {
		return "", err
	}

	var b strings.Builder
	if len(feedback) > 0 {
		b.WriteString("User feedback on past predictions:\n")
		for _, f := range feedback {
			fmt.Fprintf(&b, "- For a prediction of '%s', the user feedback was: '%s'.\n", f.PredictedEmotion, f.Feedback)
		}
		b.WriteString("If the user consistently marks predictions in a certain context as 'inaccurate', adjust your analysis.\n\n")
	}
	b.WriteString("User's mood history (most recent first):\n")
	b.Write(history)
	b.WriteString("\n\nUser's current context:\n")
	b.Write(current)
	fmt.Fprintf(&b, "\n\nPredict the most likely emotion from this list: %s.\n", emotionList())
	b.WriteString(`Return a JSON object with exactly these fields:
{"predictedEmotion": "<one emotion from the list>", "probability": <number between 0 and 1>, "reasoning": "<one sentence explaining the pattern you found>"}`)
	return b.String(), nil
}

func buildCopingPrompt(emotion types.Emotion, snap types.ContextSnapshot, feedback []types.SuggestionFeedbackItem) string {
	var b strings.Builder
	fmt.Fprintf(&b, "A user is predicted to feel '%s'. Their current context is:\n", emotion)
	fmt.Fprintf(&b, "- Time: %s on a %s\n- Weather: %s\n", snap.TimeOfDay, snap.DayOfWeek, snap.Weather.Condition)
	fmt.Fprintf(&b, "- Location: %.3f, %.3f\n", snap.Coordinates.Latitude, snap.Coordinates.Longitude)
	if len(feedback) > 0 {
		b.WriteString("\nFeedback on previous suggestions. Avoid suggestions the user found \"not_helpful\":\n")
		for _, f := range feedback {
			fmt.Fprintf(&b, "- Emotion: %s, Suggestion: %q, User Feedback: %s\n", f.PredictedEmotion, f.Suggestion, f.Feedback)
		}
	}
	fmt.Fprintf(&b, "\nProvide a single, simple, actionable coping mechanism in one or two sentences.\n")
	fmt.Fprintf(&b, "If relevant for '%s', also suggest a quiet public place nearby such as a park, library, or cafe.\n", emotion)
	b.WriteString(`Return a JSON object: {"suggestion": "<text>", "places": [{"title": "<name>", "uri": "<link>"}]}. "places" may be empty.`)
	return b.String()
}

func (l *LLMInference) complete(ctx context.Context, system, user string) (string, error) {
	resp, err := l.client.Chat.Completions.New(ctx, openaigo.ChatCompletionNewParams{
		Model: openaigo.ChatModel(l.model),
		Messages: []openaigo.ChatCompletionMessageParamUnion{
			openaigo.SystemMessage(system),
			openaigo.UserMessage(user),
		},
	})
	if err != nil {
		return "", err
	}
	if resp == nil || len(resp.Choices) == 0 {
		return "", fmt.Errorf("llm returned empty choices")
	}
	return resp.Choices[0].Message.Content, nil
}

// PredictEmotion implements types.InferenceService.
func (l *LLMInference) PredictEmotion(ctx context.Context, snap types.ContextSnapshot, moods []types.MoodDigestItem, feedback []types.EmotionFeedbackItem) (types.EmotionEstimate, error) {
	prompt, err := buildPredictPrompt(snap, moods, feedback)
	if err != nil {
		return types.EmotionEstimate{}, types.NewAppError(types.ErrCodeInternalUnexpected, "encode prediction prompt", err)
	}

	start := time.Now()
	content, err := l.complete(ctx, predictSystemPrompt, prompt)
	if err != nil {
		l.logger.WarnContext(ctx, "emotion prediction call failed", "error", err, "model", l.model)
		return types.EmotionEstimate{}, types.NewAppError(types.ErrCodeUpstreamInference, types.ErrPredictionFailed.Message, err)
	}

	raw := extractJSONFromText(content)
	var est types.EmotionEstimate
	if err := json.Unmarshal([]byte(raw), &est); err != nil {
		return types.EmotionEstimate{}, types.NewAppErrorWithDetails(types.ErrCodeUpstreamInference,
			types.ErrPredictionFailed.Message, err, map[string]any{"raw": raw})
	}
	est.PredictedEmotion = types.Emotion(strings.TrimSpace(string(est.PredictedEmotion)))
	est.Reasoning = strings.TrimSpace(est.Reasoning)

	l.logger.DebugContext(ctx, "emotion prediction received",
		"emotion", est.PredictedEmotion,
		"probability", est.Probability,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return est, nil
}

type copingResponse struct {
	Suggestion string                `json:"suggestion"`
	Places     []types.GroundingLink `json:"places"`
}

// SuggestCoping implements types.InferenceService. A reply that is not JSON
// is used verbatim as the suggestion.
func (l *LLMInference) SuggestCoping(ctx context.Context, emotion types.Emotion, snap types.ContextSnapshot, feedback []types.SuggestionFeedbackItem) (types.CopingAdvice, error) {
	content, err := l.complete(ctx, copingSystemPrompt, buildCopingPrompt(emotion, snap, feedback))
	if err != nil {
		l.logger.WarnContext(ctx, "coping suggestion call failed", "error", err, "model", l.model)
		return types.CopingAdvice{}, types.NewAppError(types.ErrCodeUpstreamInference, "coping suggestion unavailable", err)
	}

	var parsed copingResponse
	if err := json.Unmarshal([]byte(extractJSONFromText(content)), &parsed); err != nil {
		parsed = copingResponse{Suggestion: content}
	}
	parsed.Suggestion = strings.TrimSpace(parsed.Suggestion)
	if parsed.Suggestion == "" {
		return types.CopingAdvice{}, types.NewAppError(types.ErrCodeUpstreamInference, "empty coping suggestion", nil)
	}

	advice := types.CopingAdvice{Suggestion: parsed.Suggestion}
	for _, p := range parsed.Places {
		if strings.TrimSpace(p.Title) == "" {
			continue
		}
		advice.Grounding = append(advice.Grounding, p)
	}
	return advice, nil
}

// extractJSONFromText strips code fences and surrounding prose from a model
// reply, returning the outermost JSON object or array.
func extractJSONFromText(s string) string {
	raw := strings.TrimSpace(s)
	if raw == "" {
		return ""
	}
	if strings.HasPrefix(raw, "```") {
		rest := strings.TrimSpace(strings.TrimPrefix(raw, "```"))
		if i := strings.Index(rest, "\n"); i >= 0 {
			rest = rest[i+1:]
		}
		if j := strings.LastIndex(rest, "```"); j >= 0 {
			rest = rest[:j]
		}
		raw = strings.TrimSpace(rest)
	}
	if strings.HasPrefix(raw, "{") || strings.HasPrefix(raw, "[") {
		return raw
	}
	if i := strings.Index(raw, "{"); i >= 0 {
		if j := strings.LastIndex(raw, "}"); j > i {
			return strings.TrimSpace(raw[i : j+1])
		}
	}
	return raw
}

package core

import (
	"errors"
	"log/slog"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"lumera/internal/types"
)

// Validator wraps go-playground/validator with the domain tags used by
// request bodies.
type Validator struct {
	validate *validator.Validate
	logger   *slog.Logger
}

// NewValidator creates a Validator and registers the custom tags:
//   - emotion: one of the six known emotions.
//   - feedback_type: "emotion" or "suggestion".
func NewValidator(logger *slog.Logger) *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("emotion", func(fl validator.FieldLevel) bool {
		return types.Emotion(fl.Field().String()).Valid()
	})
	_ = v.RegisterValidation("feedback_type", func(fl validator.FieldLevel) bool {
		switch types.FeedbackType(fl.Field().String()) {
		case types.FeedbackEmotion, types.FeedbackSuggestion:
			return true
		}
		return false
	})
	return &Validator{validate: v, logger: logger}
}

// ValidateStruct validates s and converts the first failure into an AppError
// whose code reflects the failing tag.
func (v *Validator) ValidateStruct(s any) error {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		v.logger.Error("validator misuse", "error", err)
		return types.NewAppError(types.ErrCodeInternalUnexpected, "request validation failed", err)
	}

	fe := verrs[0]
	details := map[string]any{"field": fe.Field(), "rule": fe.Tag()}
	switch fe.Tag() {
	case "required":
		return types.NewAppErrorWithDetails(types.ErrCodeValidationMissingField,
			"missing required field: "+fe.Field(), nil, details)
	case "emotion":
		details["allowed"] = types.AllEmotions
		return types.NewAppErrorWithDetails(types.ErrCodeValidationInvalidEmotion,
			"unknown emotion", nil, details)
	case "feedback_type":
		return types.NewAppErrorWithDetails(types.ErrCodeValidationInvalidFeedback,
			"feedback type must be emotion or suggestion", nil, details)
	default:
		return types.NewAppErrorWithDetails(types.ErrCodeValidationInvalidRequest,
			"invalid value for field: "+fe.Field(), nil, details)
	}
}

package service

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"

	"github.com/vibewear/api/internal/model"
)

// MaxPromptLength is counted in characters, not bytes.
const MaxPromptLength = 1000

var blockedTerms = []string{
	"nsfw",
	"explicit",
	"nude",
	"sexual",
	"violence",
	"gore",
	"hate",
}

// ValidationError is a local prompt rejection. It never reaches the network
// and is never recorded as a generation attempt.
type ValidationError struct {
	Kind    model.RejectionReason
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// ValidatePrompt returns nil for an acceptable prompt or a *ValidationError.
func ValidatePrompt(prompt string) error {
	if strings.TrimSpace(prompt) == "" {
		return &ValidationError{
			Kind:    model.RejectEmptyPrompt,
			Message: "Please enter a description for your design",
		}
	}

	if utf8.RuneCountInString(prompt) > MaxPromptLength {
		return &ValidationError{
			Kind:    model.RejectPromptTooLong,
			Message: "Prompt is too long. Please keep it under 1000 characters.",
		}
	}

	folded := cases.Fold().String(prompt)
	for _, term := range blockedTerms {
		if strings.Contains(folded, term) {
			return &ValidationError{
				Kind:    model.RejectDisallowedContent,
				Message: "Please use appropriate content for your design",
			}
		}
	}

	return nil
}

// Package validation holds the shared validator instance and input
// sanitization for request payloads.
package validation

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"

	"github.com/noted-app/noted-api/internal/models"
)

// Validate is the shared validator instance with custom enum validators
// registered.
var Validate *validator.Validate

func init() {
	Validate = validator.New()

	if err := Validate.RegisterValidation("urgency_level", validateUrgencyLevel); err != nil {
		panic(fmt.Sprintf("failed to register urgency_level validator: %v", err))
	}
	if err := Validate.RegisterValidation("entry_format", validateEntryFormat); err != nil {
		panic(fmt.Sprintf("failed to register entry_format validator: %v", err))
	}
}

func validateUrgencyLevel(fl validator.FieldLevel) bool {
	switch models.UrgencyLevel(fl.Field().String()) {
	case models.UrgencyNone, models.UrgencyLow, models.UrgencyMedium, models.UrgencyHigh:
		return true
	default:
		return false
	}
}

func validateEntryFormat(fl validator.FieldLevel) bool {
	switch models.EntryFormat(fl.Field().String()) {
	case models.FormatNote, models.FormatTask, models.FormatProject, models.FormatGoal:
		return true
	default:
		return false
	}
}

// SanitizeText trims whitespace and removes control characters except
// newline and tab. Hashtag extraction runs on the sanitized text, so tags
// never carry control characters.
func SanitizeText(text string) string {
	text = strings.TrimSpace(text)
	var sanitized strings.Builder
	for _, r := range text {
		if unicode.IsControl(r) && r != '\n' && r != '\t' {
			continue
		}
		sanitized.WriteRune(r)
	}
	return sanitized.String()
}

// ValidateUrgencyLevel checks an urgency enum value from a request.
func ValidateUrgencyLevel(value string) error {
	switch models.UrgencyLevel(value) {
	case models.UrgencyNone, models.UrgencyLow, models.UrgencyMedium, models.UrgencyHigh:
		return nil
	default:
		return fmt.Errorf("invalid urgency: %s (must be 'none', 'low', 'medium', or 'high')", value)
	}
}

// ValidateEntryFormat checks an entry format enum value from a request.
func ValidateEntryFormat(value string) error {
	switch models.EntryFormat(value) {
	case models.FormatNote, models.FormatTask, models.FormatProject, models.FormatGoal:
		return nil
	default:
		return fmt.Errorf("invalid format: %s (must be 'note', 'task', 'project', or 'goal')", value)
	}
}

// ValidateImportance checks the importance scale bound.
func ValidateImportance(value int) error {
	if value < 0 || value > 10 {
		return fmt.Errorf("invalid importance: %d (must be between 0 and 10)", value)
	}
	return nil
}

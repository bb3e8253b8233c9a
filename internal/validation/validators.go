// Package validation holds the shared validator instance and input
// sanitizers used at the API boundary.
package validation

import (
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/go-playground/validator/v10"
)

// Validate is the shared validator instance
var Validate *validator.Validate

func init() {
	Validate = validator.New()

	if err := Validate.RegisterValidation("timezone_name", validateTimezone); err != nil {
		panic(fmt.Sprintf("failed to register timezone_name validator: %v", err))
	}
}

// validateTimezone checks that a string names a loadable IANA timezone
func validateTimezone(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return false
	}
	_, err := time.LoadLocation(value)
	return err == nil
}

// ValidateTimezone validates an IANA timezone name
func ValidateTimezone(value string) error {
	if value == "" {
		return fmt.Errorf("timezone is required")
	}
	if _, err := time.LoadLocation(value); err != nil {
		return fmt.Errorf("invalid timezone: %s", value)
	}
	return nil
}

// SanitizeText trims whitespace and strips control characters except
// newline and tab
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

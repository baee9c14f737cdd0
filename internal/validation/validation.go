package validation

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// Field limits for player-supplied text.
const (
	MaxInputLength = 500
	MaxTitleLength = 100
)

// ValidationError represents a single field validation failure.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Collector accumulates validation errors without failing on first.
type Collector struct {
	errors []ValidationError
}

// Add appends a validation error to the collector if non-nil.
func (c *Collector) Add(err *ValidationError) {
	if err != nil {
		c.errors = append(c.errors, *err)
	}
}

// HasErrors returns true if the collector has accumulated any errors.
func (c *Collector) HasErrors() bool {
	return len(c.errors) > 0
}

// Errors returns all accumulated validation errors.
func (c *Collector) Errors() []ValidationError {
	return c.errors
}

// ValidateUTF8 returns an error if the value is not valid UTF-8.
func ValidateUTF8(field, value string) *ValidationError {
	if !utf8.ValidString(value) {
		return &ValidationError{
			Field:   field,
			Message: "must be valid UTF-8",
		}
	}
	return nil
}

// ValidateNoNullBytes returns an error if the value contains null bytes.
func ValidateNoNullBytes(field, value string) *ValidationError {
	if strings.Contains(value, "\x00") {
		return &ValidationError{
			Field:   field,
			Message: "must not contain null bytes",
		}
	}
	return nil
}

// ValidateMaxLength returns an error if the value exceeds max runes.
func ValidateMaxLength(field, value string, max int) *ValidationError {
	if utf8.RuneCountInString(value) > max {
		return &ValidationError{
			Field:   field,
			Message: fmt.Sprintf("exceeds maximum length of %d characters", max),
		}
	}
	return nil
}

// ValidateRequired returns an error if the value is empty or whitespace-only.
func ValidateRequired(field, value string) *ValidationError {
	if strings.TrimSpace(value) == "" {
		return &ValidationError{
			Field:   field,
			Message: "is required",
		}
	}
	return nil
}

// ValidateEnum returns an error if the value is not in the allowed list.
func ValidateEnum(field, value string, allowed []string) *ValidationError {
	for _, a := range allowed {
		if value == a {
			return nil
		}
	}
	return &ValidationError{
		Field:   field,
		Message: fmt.Sprintf("must be one of: %s", strings.Join(allowed, ", ")),
	}
}

// ValidateInvestigation checks a question or deduction before it reaches
// the game. Blank input is allowed through: the game answers it in-band.
func ValidateInvestigation(input string) []ValidationError {
	var c Collector
	c.Add(ValidateUTF8("input", input))
	c.Add(ValidateNoNullBytes("input", input))
	c.Add(ValidateMaxLength("input", input, MaxInputLength))
	return c.Errors()
}

// ValidateEpisodeTitle checks an episode selection request.
func ValidateEpisodeTitle(title string) []ValidationError {
	var c Collector
	c.Add(ValidateRequired("title", title))
	c.Add(ValidateUTF8("title", title))
	c.Add(ValidateNoNullBytes("title", title))
	c.Add(ValidateMaxLength("title", title, MaxTitleLength))
	return c.Errors()
}

package common

import (
	"fmt"
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/reelbites/recipe-extractor/constants"
)

// FieldError represents a single field validation failure
type FieldError struct {
	Field   string
	Value   interface{}
	Message string
}

func (e FieldError) Error() string {
	return fmt.Sprintf("validation failed for field '%s' with value '%v': %s", e.Field, e.Value, e.Message)
}

// Validator provides validation utilities
type Validator struct {
	errors []FieldError
}

// NewValidator creates a new validator instance
func NewValidator() *Validator {
	return &Validator{
		errors: make([]FieldError, 0),
	}
}

// Field validates a field and collects errors
func (v *Validator) Field(fieldName string, value interface{}, rules ...ValidationRule) *Validator {
	for _, rule := range rules {
		if err := rule(fieldName, value); err != nil {
			v.errors = append(v.errors, *err)
		}
	}
	return v
}

// HasErrors returns true if there are validation errors
func (v *Validator) HasErrors() bool {
	return len(v.errors) > 0
}

// Errors returns all validation errors
func (v *Validator) Errors() []FieldError {
	return v.errors
}

// Error returns a combined ValidationError, or nil
func (v *Validator) Error() error {
	if !v.HasErrors() {
		return nil
	}
	return ValidationError(v.ErrorMessage())
}

// ErrorMessage returns a combined error message as string
func (v *Validator) ErrorMessage() string {
	if !v.HasErrors() {
		return ""
	}

	var messages []string
	for _, err := range v.errors {
		messages = append(messages, err.Error())
	}
	return strings.Join(messages, "; ")
}

// ValidationRule represents a single validation rule
type ValidationRule func(fieldName string, value interface{}) *FieldError

// Required - Common validation rules
func Required(fieldName string, value interface{}) *FieldError {
	if value == nil {
		return &FieldError{Field: fieldName, Value: value, Message: "is required"}
	}

	switch v := value.(type) {
	case string:
		if strings.TrimSpace(v) == "" {
			return &FieldError{Field: fieldName, Value: value, Message: "is required"}
		}
	case *string:
		if v == nil || strings.TrimSpace(*v) == "" {
			return &FieldError{Field: fieldName, Value: value, Message: "is required"}
		}
	}
	return nil
}

func MaxLength(fieldName string, value interface{}, max int) *FieldError {
	str, ok := value.(string)
	if !ok {
		if strPtr, ok := value.(*string); ok && strPtr != nil {
			str = *strPtr
		} else {
			return nil
		}
	}

	if utf8.RuneCountInString(str) > max {
		return &FieldError{
			Field:   fieldName,
			Value:   value,
			Message: fmt.Sprintf("must be at most %d characters", max),
		}
	}
	return nil
}

func UUID(fieldName string, value interface{}) *FieldError {
	str, ok := value.(string)
	if !ok {
		return &FieldError{Field: fieldName, Value: value, Message: "must be a string"}
	}

	if _, err := uuid.Parse(str); err != nil {
		return &FieldError{
			Field:   fieldName,
			Value:   value,
			Message: "must be a valid UUID",
		}
	}
	return nil
}

// SourceURL validates that the value is an http(s) URL on a supported host
// pointing at a supported post type (post, reel, tv).
func SourceURL(fieldName string, value interface{}) *FieldError {
	str, ok := value.(string)
	if !ok {
		return &FieldError{Field: fieldName, Value: value, Message: "must be a string"}
	}

	u, err := url.Parse(strings.TrimSpace(str))
	if err != nil {
		return &FieldError{Field: fieldName, Value: value, Message: "must be a valid URL"}
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return &FieldError{Field: fieldName, Value: value, Message: "must use http or https"}
	}
	if _, ok := constants.SupportedHosts[strings.ToLower(u.Host)]; !ok {
		return &FieldError{Field: fieldName, Value: value, Message: "host is not a supported source platform"}
	}
	if _, ok := constants.MapPathToPostType(u.Path); !ok {
		return &FieldError{Field: fieldName, Value: value, Message: "not a supported post type (expected /p/, /reel/ or /tv/)"}
	}
	return nil
}

// PositiveSeconds validates an int-ish duration field in seconds.
func PositiveSeconds(fieldName string, value interface{}) *FieldError {
	n, ok := value.(int)
	if !ok {
		return &FieldError{Field: fieldName, Value: value, Message: "must be an integer"}
	}
	if n <= 0 {
		return &FieldError{Field: fieldName, Value: value, Message: "must be positive"}
	}
	return nil
}

package errors

import (
	"fmt"
	"strings"
)

// ValidationError is returned when user-supplied input fails a field
// constraint before persistence. Fields maps a field name to its list
// of human-readable messages, which the boundary renders verbatim.
type ValidationError struct {
	Fields map[string][]string
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for field, messages := range e.Fields {
		parts = append(parts, fmt.Sprintf("%s: %s", field, strings.Join(messages, "; ")))
	}
	return "validation failed: " + strings.Join(parts, ", ")
}

// NewFieldError builds a ValidationError for a single field.
func NewFieldError(field string, messages ...string) *ValidationError {
	return &ValidationError{Fields: map[string][]string{field: messages}}
}

package domain

import "strings"

// FieldError is a single rejected input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError collects field-level problems found in caller input.
type ValidationError struct {
	Fields []FieldError
}

// NewValidationError is a shorthand for a single-field error.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Fields: []FieldError{{Field: field, Message: message}}}
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		parts[i] = f.Field + ": " + f.Message
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e *ValidationError) Add(field, message string) {
	e.Fields = append(e.Fields, FieldError{Field: field, Message: message})
}

// Merge appends the fields of err when it is a *ValidationError.
func (e *ValidationError) Merge(err error) {
	if ve, ok := err.(*ValidationError); ok && ve != nil {
		e.Fields = append(e.Fields, ve.Fields...)
	}
}

// Err returns nil when nothing was recorded.
func (e *ValidationError) Err() error {
	if len(e.Fields) == 0 {
		return nil
	}
	return e
}

func (e *ValidationError) check(field, message string) {
	if message != "" {
		e.Add(field, message)
	}
}

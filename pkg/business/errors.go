package business

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownMode is returned when a request names a mode the catalog does not define.
var ErrUnknownMode = errors.New("unknown generation mode")

// FieldError describes one rejected form field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError reports missing or invalid input. The model is never called when it occurs.
type ValidationError struct {
	Mode   string
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Message)
	}
	return fmt.Sprintf("invalid input for %s: %s", e.Mode, strings.Join(parts, "; "))
}

func (e *ValidationError) add(field, msg string) {
	e.Fields = append(e.Fields, FieldError{Field: field, Message: msg})
}

// ServiceError wraps any failure of the model call. Its message is the localized
// prefix of the mode followed by the underlying failure.
type ServiceError struct {
	Mode   string
	Prefix string
	Err    error
}

func (e *ServiceError) Error() string {
	return e.Prefix + ": " + e.Err.Error()
}

func (e *ServiceError) Unwrap() error { return e.Err }

package models

import (
	"errors"
	"fmt"
	"strings"
)

// ValidationError reports malformed or invariant-violating input: self-loops,
// duplicate edges, cycles, bad filter values, empty id sets, no-op updates.
type ValidationError struct {
	Reason string            // machine-checkable reason, e.g. "self_loop"
	Fields map[string]string // offending ids/values keyed by field name
}

func NewValidationError(reason string, fields map[string]string) *ValidationError {
	return &ValidationError{Reason: reason, Fields: fields}
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return fmt.Sprintf("validation failed: %s", e.Reason)
	}
	parts := make([]string, 0, len(e.Fields))
	for k, v := range e.Fields {
		parts = append(parts, fmt.Sprintf("%s=%q", k, v))
	}
	return fmt.Sprintf("validation failed: %s (%s)", e.Reason, strings.Join(parts, ", "))
}

// NotFoundError reports a referenced task or relationship id that does not exist.
type NotFoundError struct {
	Resource string // "task" or "relationship"
	IDs      []string
}

func NewNotFoundError(resource string, ids ...string) *NotFoundError {
	return &NotFoundError{Resource: resource, IDs: ids}
}

func (e *NotFoundError) Error() string {
	if len(e.IDs) == 1 {
		return fmt.Sprintf("%s not found: %s", e.Resource, e.IDs[0])
	}
	return fmt.Sprintf("%ss not found: %s", e.Resource, strings.Join(e.IDs, ", "))
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsNotFound reports whether err is (or wraps) a NotFoundError.
func IsNotFound(err error) bool {
	var nfe *NotFoundError
	return errors.As(err, &nfe)
}

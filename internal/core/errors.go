package core

import (
	"fmt"
	"strings"

	"manifestcore/pkg/domain"
)

// FieldError names a single offending field on a rejected signature event.
type FieldError struct {
	Name    string
	Message string
}

// ValidationError reports a malformed signature event: missing required
// fields, inconsistent quantity/status pairs, or a duplicate signature.
// Fully recoverable by resubmission.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return "invalid signature event"
	}
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, fmt.Sprintf("%s: %s", f.Name, f.Message))
	}
	return "invalid signature event: " + strings.Join(parts, "; ")
}

// NewValidationError builds a single-field validation error.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Fields: []FieldError{{Name: field, Message: message}}}
}

// AuthorizationError reports a well-formed event signed by a company that
// does not hold the role the attempted edge requires. Not retryable without
// a role change.
type AuthorizationError struct {
	OrgID    string
	Required domain.Role
	Event    string
}

func (e *AuthorizationError) Error() string {
	return fmt.Sprintf("company %s is not allowed to sign %s: requires role %s", e.OrgID, e.Event, e.Required)
}

// StateError reports that the manifest is not in a status from which the
// attempted edge exists. Not retryable without a state change.
type StateError struct {
	Status domain.Status
	Event  string
}

func (e *StateError) Error() string {
	return fmt.Sprintf("no %s transition from status %s", e.Event, e.Status)
}

// ErrNotFound is returned when a referenced record does not exist.
type ErrNotFound struct {
	Entity domain.EntityType
	ID     string
}

func (e ErrNotFound) Error() string {
	return fmt.Sprintf("%s %s not found", e.Entity, e.ID)
}

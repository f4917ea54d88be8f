package services

import (
	"errors"
	"strings"
)

var (
	// ErrValidation matches every *ValidationError.
	ErrValidation = errors.New("validation failed")
	// ErrInvalidCredentials is returned when a password does not match.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrConflict matches every *ConflictError.
	ErrConflict = errors.New("conflict")
)

// ValidationError reports a missing or malformed input field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

func invalid(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// ConflictError lists the unique fields that are already taken.
type ConflictError struct {
	Fields []string
}

func (e *ConflictError) Error() string {
	switch len(e.Fields) {
	case 0:
		return "already exists"
	case 1:
		return e.Fields[0] + " already exists"
	default:
		return strings.Join(e.Fields, " and ") + " already exist"
	}
}

func (e *ConflictError) Is(target error) bool {
	return target == ErrConflict
}

package store

import (
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"
)

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = errors.New("not found")

// ErrConflict is returned when a write violates a unique constraint.
var ErrConflict = errors.New("conflict")

const uniqueViolation = "23505"

// ConflictError names the column whose unique constraint was violated.
type ConflictError struct {
	Field string
}

func (e *ConflictError) Error() string {
	if e.Field == "" {
		return ErrConflict.Error()
	}
	return fmt.Sprintf("%s already exists", e.Field)
}

func (e *ConflictError) Is(target error) bool {
	return target == ErrConflict
}

// translateError maps driver errors onto the store's sentinels.
func translateError(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return &ConflictError{Field: conflictField(pqErr.Constraint)}
	}
	return err
}

// conflictField derives the column from constraint names of the form <table>_<column>_key.
func conflictField(constraint string) string {
	name := strings.TrimSuffix(constraint, "_key")
	if idx := strings.Index(name, "_"); idx >= 0 {
		return name[idx+1:]
	}
	return name
}

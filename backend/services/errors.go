package services

import (
	"fmt"

	"lms/backend/utils"

	"github.com/pkg/errors"
)

var (
	ErrNotFound  = errors.New("not found")
	ErrForbidden = errors.New("forbidden")
	ErrConflict  = errors.New("conflict")
	// ErrRejected marks a request that is well-formed but not allowed by a business rule
	// (submission window closed, attempt limit reached, ...).
	ErrRejected = errors.New("rejected")
)

// ValidationError carries per-field problems with a request payload.
type ValidationError struct {
	Fields []utils.FieldError
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return "validation failed"
	}
	return fmt.Sprintf("validation failed: %s: %s", e.Fields[0].Field, e.Fields[0].Error)
}

func newValidationError(field, msg string) *ValidationError {
	return &ValidationError{Fields: []utils.FieldError{{Field: field, Error: msg}}}
}

// validate runs the struct validator and converts its result into a *ValidationError.
func validate(v interface{}) error {
	if fields := utils.ValidateStruct(v); len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

func rejected(format string, args ...interface{}) error {
	return errors.Wrapf(ErrRejected, format, args...)
}

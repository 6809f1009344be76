// Package apperr holds the error taxonomy shared by the domain packages and
// the HTTP surface. Domain code returns these types; handlers map them to
// status codes with errors.As.
package apperr

import (
	"errors"
	"fmt"
)

// ValidationError means caller input broke a documented constraint.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// Validation builds a ValidationError. Package-level sentinels are built with
// it so callers can match them with errors.Is.
func Validation(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// NotFoundError means a referenced record is absent where it is required.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	if e.ID == "" {
		return e.Resource + " not found"
	}
	return fmt.Sprintf("%s %s not found", e.Resource, e.ID)
}

func NotFound(resource, id string) *NotFoundError {
	return &NotFoundError{Resource: resource, ID: id}
}

// ConflictError means the operation is valid input but the current state
// forbids it, e.g. deleting a member that still has expenses.
type ConflictError struct {
	Message string
}

func (e *ConflictError) Error() string {
	return e.Message
}

func Conflict(message string) *ConflictError {
	return &ConflictError{Message: message}
}

// StorageError wraps a failure of the persistent store. Op names the
// operation so logs can be traced back without exposing driver text.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return e.Op + ": " + e.Err.Error()
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// Storage wraps err as a StorageError unless it already belongs to the
// taxonomy, in which case it is returned untouched.
func Storage(op string, err error) error {
	if err == nil {
		return nil
	}
	if IsValidation(err) || IsNotFound(err) || IsConflict(err) {
		return err
	}
	return &StorageError{Op: op, Err: err}
}

func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

func IsConflict(err error) bool {
	var ce *ConflictError
	return errors.As(err, &ce)
}

package models

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrUnauthorized = errors.New("unauthorized")
	ErrConflict     = errors.New("already exists")
)

// Unauthorized returns an error that matches ErrUnauthorized and carries msg
// as its client-facing message.
func Unauthorized(msg string) error {
	return &unauthorizedError{msg: msg}
}

type unauthorizedError struct {
	msg string
}

func (e *unauthorizedError) Error() string {
	return e.msg
}

func (e *unauthorizedError) Is(target error) bool {
	return target == ErrUnauthorized
}

// ValidationError reports a malformed or missing request field.
type ValidationError struct {
	Field   string
	Message string
}

func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

func (e *ValidationError) Error() string {
	return e.Message
}

// StorageError wraps a failure of the underlying persistence layer.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage: %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// WrapStorage wraps err in a StorageError unless it is nil or already one of
// the domain errors.
func WrapStorage(op string, err error) error {
	if err == nil || errors.Is(err, ErrNotFound) || errors.Is(err, ErrConflict) {
		return err
	}
	var se *StorageError
	if errors.As(err, &se) {
		return err
	}
	return &StorageError{Op: op, Err: err}
}

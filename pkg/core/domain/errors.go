package domain

import (
	"errors"
	"fmt"
	"net/http"
)

// HTTPError is implemented by errors that know their HTTP status.
type HTTPError interface {
	error
	StatusCode() int
}

// Sentinel errors, use with errors.Is()
var (
	ErrValidation = errors.New("validation failed")
	ErrNotFound   = errors.New("not found")
	ErrStorage    = errors.New("storage failure")
)

type (
	// ValidationError indicates missing or malformed input
	ValidationError struct {
		Message string
	}

	// NotFoundError indicates the referenced id is not in the expected set
	NotFoundError struct {
		Resource string
		ID       string
	}

	// StorageError wraps a failure of the underlying store
	StorageError struct {
		Op  string
		Err error
	}
)

func NewValidationError(format string, args ...any) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

func NewNotFoundError(resource, id string) *NotFoundError {
	return &NotFoundError{Resource: resource, ID: id}
}

// NewStorageError wraps err, or returns nil when err is nil.
func NewStorageError(op string, err error) error {
	if err == nil {
		return nil
	}
	var se *StorageError
	if errors.As(err, &se) {
		return err
	}
	return &StorageError{Op: op, Err: err}
}

func (e *ValidationError) Error() string { return e.Message }
func (e *NotFoundError) Error() string   { return fmt.Sprintf("%s %s not found", e.Resource, e.ID) }
func (e *StorageError) Error() string    { return fmt.Sprintf("%s: %v", e.Op, e.Err) }

func (e *ValidationError) StatusCode() int { return http.StatusBadRequest }
func (e *NotFoundError) StatusCode() int   { return http.StatusNotFound }
func (e *StorageError) StatusCode() int    { return http.StatusInternalServerError }

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }
func (e *NotFoundError) Is(target error) bool   { return target == ErrNotFound }
func (e *StorageError) Is(target error) bool    { return target == ErrStorage }

func (e *StorageError) Unwrap() error { return e.Err }

// Package apperr defines the failure taxonomy shared by the post API and the web front.
package apperr

import (
	"errors"
	"fmt"
)

type Kind string

const (
	KindValidation Kind = "validation"
	KindAuth       Kind = "auth"
	KindNotFound   Kind = "not_found"
	KindUpload     Kind = "upload"
	KindUnknown    Kind = "unknown"
)

var (
	// ErrUnauthenticated is returned when an operation needs a session and has none.
	ErrUnauthenticated = errors.New("authentication required")
	// ErrNotFound is returned when an operation targets a post that does not exist.
	ErrNotFound = errors.New("post not found")
)

// ValidationError is a field-constraint violation the user can correct.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Invalid is shorthand for building a *ValidationError.
func Invalid(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// UploadError wraps a failed file transfer.
type UploadError struct {
	File string
	Err  error
}

func (e *UploadError) Error() string {
	return fmt.Sprintf("upload %q failed: %v", e.File, e.Err)
}

func (e *UploadError) Unwrap() error { return e.Err }

// KindOf classifies err. Upload failures win over their wrapped cause.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var uploadErr *UploadError
	if errors.As(err, &uploadErr) {
		return KindUpload
	}
	var validationErr *ValidationError
	if errors.As(err, &validationErr) {
		return KindValidation
	}
	switch {
	case errors.Is(err, ErrUnauthenticated):
		return KindAuth
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	}
	return KindUnknown
}

// Notice returns the transient, user-visible message for err.
func Notice(err error) string {
	switch KindOf(err) {
	case KindValidation:
		var validationErr *ValidationError
		errors.As(err, &validationErr)
		return validationErr.Error()
	case KindAuth:
		return "Please log in to continue."
	case KindNotFound:
		return "That memory no longer exists."
	case KindUpload:
		return "Failed to upload images. Please try again."
	case KindUnknown:
		return "Something went wrong!"
	}
	return ""
}

package workflow

import (
	"errors"
	"net/http"
)

// Kind classifies workflow failures.
type Kind string

const (
	KindNetwork       Kind = "network"
	KindValidation    Kind = "validation"
	KindUpload        Kind = "upload"
	KindTrainingStart Kind = "training_start"
	KindBusy          Kind = "busy"
)

// Human-readable messages shown to the user per failure kind.
const (
	msgNetwork       = "Failed to fetch models"
	msgValidation    = "Please select both a model and a dataset file"
	msgUpload        = "Failed to upload dataset"
	msgTrainingStart = "Failed to start training"
	msgBusy          = "A submission is already in progress"
)

// Error is the only error type the Controller returns; remote failures are
// wrapped in Err.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// StatusCode maps the kind to an HTTP status for the API layer.
func (e *Error) StatusCode() int {
	switch e.Kind {
	case KindValidation:
		return http.StatusBadRequest
	case KindBusy:
		return http.StatusTooManyRequests
	default:
		return http.StatusBadGateway
	}
}

func newError(kind Kind, msg string, err error) *Error {
	return &Error{Kind: kind, Message: msg, Err: err}
}

// KindOf returns the kind of a workflow error, or "" for any other error.
func KindOf(err error) Kind {
	var we *Error
	if errors.As(err, &we) {
		return we.Kind
	}
	return ""
}

// IsNetwork reports a failed model list fetch.
func IsNetwork(err error) bool { return KindOf(err) == KindNetwork }

// IsValidation reports a rejected command (missing selection, unknown model, bad value).
func IsValidation(err error) bool { return KindOf(err) == KindValidation }

// IsUpload reports a failed dataset upload.
func IsUpload(err error) bool { return KindOf(err) == KindUpload }

// IsTrainingStart reports a failed training start after a successful upload.
func IsTrainingStart(err error) bool { return KindOf(err) == KindTrainingStart }

// IsBusy reports a submission rejected because another is in flight.
func IsBusy(err error) bool { return KindOf(err) == KindBusy }

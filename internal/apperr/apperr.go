// Package apperr defines the error taxonomy shared by the services:
// validation failures, missing records, store failures and detection
// failures. Callers classify with the Is* helpers instead of matching
// error strings.
package apperr

import (
	"errors"
	"fmt"
)

// ValidationError reports malformed or out-of-range input.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + e.Reason
}

// Validation builds a ValidationError with a formatted reason.
func Validation(format string, args ...interface{}) error {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// NotFoundError reports an unknown sensor or alert ID.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

// NotFound builds a NotFoundError for the given resource and ID.
func NotFound(resource, id string) error {
	return &NotFoundError{Resource: resource, ID: id}
}

// IsNotFound reports whether err is a NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// StoreError reports a failed operation against the backing store.
// Write failures are surfaced to the caller; read failures degrade to
// empty results at the service layer.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store operation %s failed: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// Store wraps err as a StoreError for the named operation.
func Store(op string, err error) error {
	return &StoreError{Op: op, Err: err}
}

// IsStore reports whether err is a StoreError.
func IsStore(err error) bool {
	var se *StoreError
	return errors.As(err, &se)
}

// DetectionError reports a model fitting failure. The anomaly service
// degrades it to an empty detection result.
type DetectionError struct {
	Err error
}

func (e *DetectionError) Error() string {
	return fmt.Sprintf("anomaly detection failed: %v", e.Err)
}

func (e *DetectionError) Unwrap() error {
	return e.Err
}

// Detection wraps err as a DetectionError.
func Detection(err error) error {
	return &DetectionError{Err: err}
}

// IsDetection reports whether err is a DetectionError.
func IsDetection(err error) bool {
	var de *DetectionError
	return errors.As(err, &de)
}

package models

import (
	"errors"
	"fmt"
)

// ErrorKind classifies pipeline failures for callers and the HTTP boundary.
type ErrorKind string

const (
	KindValidation      ErrorKind = "validation_error"
	KindThrottled       ErrorKind = "upstream_throttled"
	KindUpstream        ErrorKind = "upstream_error"
	KindMalformedOutput ErrorKind = "malformed_output"
	KindPersistence     ErrorKind = "persistence_error"
	KindInternal        ErrorKind = "internal_error"
)

// KindedError is implemented by every error in the taxonomy.
type KindedError interface {
	error
	Kind() ErrorKind
}

// KindOf returns the kind of the first classified error in err's chain.
func KindOf(err error) ErrorKind {
	if err == nil {
		return ""
	}
	var ke KindedError
	if errors.As(err, &ke) {
		return ke.Kind()
	}
	return KindInternal
}

// RawPayload returns the raw upstream text attached to err, if any.
func RawPayload(err error) string {
	var malformed *MalformedOutputError
	if errors.As(err, &malformed) {
		return malformed.Raw
	}
	return ""
}

type ValidationError struct {
	Field  string
	Detail string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "invalid course request: " + e.Detail
	}
	return fmt.Sprintf("invalid course request field %s: %s", e.Field, e.Detail)
}

func (e *ValidationError) Kind() ErrorKind { return KindValidation }

// ThrottledError is a retryable rate-limit signal from a collaborator.
type ThrottledError struct {
	Service string
	Err     error
}

func (e *ThrottledError) Error() string {
	return fmt.Sprintf("%s throttled: %v", e.Service, e.Err)
}

func (e *ThrottledError) Unwrap() error   { return e.Err }
func (e *ThrottledError) Kind() ErrorKind { return KindThrottled }

// UpstreamError is a non-retryable collaborator failure.
type UpstreamError struct {
	Service string
	Err     error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s request failed: %v", e.Service, e.Err)
}

func (e *UpstreamError) Unwrap() error   { return e.Err }
func (e *UpstreamError) Kind() ErrorKind { return KindUpstream }

// GenerationError reports that the retry budget ran out while the
// text-generation service kept throttling.
type GenerationError struct {
	Model    string
	Attempts int
	Err      error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("generation with model %s failed after %d attempts: %v", e.Model, e.Attempts, e.Err)
}

func (e *GenerationError) Unwrap() error   { return e.Err }
func (e *GenerationError) Kind() ErrorKind { return KindThrottled }

// MalformedOutputError carries the offending model output for diagnosis.
type MalformedOutputError struct {
	Raw    string
	Detail string
}

func (e *MalformedOutputError) Error() string {
	return "malformed model output: " + e.Detail
}

func (e *MalformedOutputError) Kind() ErrorKind { return KindMalformedOutput }

type PersistenceError struct {
	Key string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("failed to persist course %s: %v", e.Key, e.Err)
}

func (e *PersistenceError) Unwrap() error   { return e.Err }
func (e *PersistenceError) Kind() ErrorKind { return KindPersistence }

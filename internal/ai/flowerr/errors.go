// Package flowerr defines the typed failures returned by the AI flows.
package flowerr

import (
	"context"
	"errors"
	"fmt"
)

// Stable codes surfaced to API clients.
const (
	CodeValidation         = "validation_error"
	CodeTemplate           = "template_error"
	CodeBackendUnavailable = "backend_unavailable"
	CodeSchemaMismatch     = "schema_mismatch"
	CodeEmptyResponse      = "empty_response"
	CodeSuperseded         = "superseded"
	CodeCancelled          = "cancelled"
	CodeInternal           = "internal_error"
)

// ErrSuperseded is returned when a newer request in the same session replaced this one.
var ErrSuperseded = errors.New("request superseded by a newer request")

// ValidationError means a request field was missing or malformed. It is always
// raised before any backend call.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("invalid %s", e.Field)
	}
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// Required is shorthand for the common "field is required" validation failure.
func Required(field string) *ValidationError {
	return &ValidationError{Field: field, Reason: "required"}
}

// TemplateError means a prompt template could not be rendered from the request.
type TemplateError struct {
	Prompt string
	Err    error
}

func (e *TemplateError) Error() string {
	return fmt.Sprintf("render prompt %s: %v", e.Prompt, e.Err)
}

func (e *TemplateError) Unwrap() error { return e.Err }

// BackendUnavailableError means the generative backend could not be reached,
// timed out, or kept failing after retries.
type BackendUnavailableError struct {
	Attempts int
	Err      error
}

func (e *BackendUnavailableError) Error() string {
	return fmt.Sprintf("generative backend unavailable after %d attempt(s): %v", e.Attempts, e.Err)
}

func (e *BackendUnavailableError) Unwrap() error { return e.Err }

// SchemaMismatchError means the backend replied but the payload did not satisfy
// the flow's output contract, even after the corrective retry. Raw holds the
// last payload as received.
type SchemaMismatchError struct {
	Attempts int
	Raw      string
	Err      error
}

func (e *SchemaMismatchError) Error() string {
	return fmt.Sprintf("backend output does not match schema after %d attempt(s): %v", e.Attempts, e.Err)
}

func (e *SchemaMismatchError) Unwrap() error { return e.Err }

// EmptyResponseError means the backend returned no usable output.
type EmptyResponseError struct {
	Attempts int
}

func (e *EmptyResponseError) Error() string {
	return fmt.Sprintf("backend returned an empty response after %d attempt(s)", e.Attempts)
}

// Code maps err onto a stable client-facing code.
func Code(err error) string {
	var (
		ve *ValidationError
		te *TemplateError
		be *BackendUnavailableError
		se *SchemaMismatchError
		ee *EmptyResponseError
	)
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrSuperseded):
		return CodeSuperseded
	// Output-side failures may wrap a ValidationError from the decoded reply;
	// they still belong to the backend, not the caller.
	case errors.As(err, &se):
		return CodeSchemaMismatch
	case errors.As(err, &ee):
		return CodeEmptyResponse
	case errors.As(err, &be):
		return CodeBackendUnavailable
	case errors.As(err, &te):
		return CodeTemplate
	case errors.As(err, &ve):
		return CodeValidation
	case errors.Is(err, context.Canceled):
		return CodeCancelled
	default:
		return CodeInternal
	}
}

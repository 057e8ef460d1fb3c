// Package domainerrors carries coded errors from domain and service layers to
// the transport edge.
//
// Services return *Error values; handlers translate the Code into a status via
// httputil.WriteError. Infrastructure facts (not found, conflict) are returned by
// stores as pkg/platform/sentinel errors and translated by services.
package domainerrors

import (
	"errors"
)

// Code identifies an error class. Values are stable wire identifiers.
type Code string

const (
	CodeBadRequest         Code = "bad_request"
	CodeValidation         Code = "validation_error"
	CodeInvalidInput       Code = "invalid_input"
	CodeNotFound           Code = "not_found"
	CodeConflict           Code = "conflict"
	CodeUnauthorized       Code = "unauthorized"
	CodeForbidden          Code = "forbidden"
	CodeTimeout            Code = "timeout"
	CodeUnavailable        Code = "unavailable"
	CodeInvariantViolation Code = "invariant_violation"
	CodeInternal           Code = "internal_error"

	// Review lifecycle
	CodeSelfReview        Code = "self_review"
	CodeDuplicateReview   Code = "duplicate_review"
	CodeInvalidTransition Code = "invalid_transition"

	// PII protection
	CodeMalformedToken Code = "malformed_token"
	CodeEncryption     Code = "encryption_error"

	// Internal only; never leaves the aggregation engine as a client-facing code.
	CodeAggregationInconsistency Code = "aggregation_inconsistency"
)

// Error is a coded domain error. Field names the offending input for
// validation failures and is empty otherwise.
type Error struct {
	Code    Code
	Message string
	Field   string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// New creates a coded error.
func New(code Code, msg string) *Error {
	return &Error{Code: code, Message: msg}
}

// Wrap attaches a code and message to an underlying cause.
func Wrap(err error, code Code, msg string) *Error {
	return &Error{Code: code, Message: msg, Err: err}
}

// Validation creates a CodeValidation error naming the offending field.
func Validation(field, msg string) *Error {
	return &Error{Code: CodeValidation, Message: msg, Field: field}
}

// HasCode reports whether any *Error in err's chain carries code.
func HasCode(err error, code Code) bool {
	for err != nil {
		var de *Error
		if !errors.As(err, &de) {
			return false
		}
		if de.Code == code {
			return true
		}
		err = de.Err
	}
	return false
}

// Is is shorthand for HasCode.
func Is(err error, code Code) bool {
	return HasCode(err, code)
}

// GetCode returns the outermost code in err's chain, or CodeInternal when err
// carries no domain code.
func GetCode(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}

// FieldOf returns the field recorded on the outermost *Error, if any.
func FieldOf(err error) string {
	var de *Error
	if errors.As(err, &de) {
		return de.Field
	}
	return ""
}

package resolve

import (
	"errors"
	"fmt"
)

// Error is returned by Resolve when no record can be produced.
//
// Ordinary absence never surfaces as an error from an individual step;
// only the cascade's final verdict and transport failures do.
type Error struct {
	// Code identifies the error category.
	Code ErrorCode

	// ID is the identifier being resolved.
	ID string

	// Step names the cascade step that failed, for TRANSPORT errors.
	Step string

	// Message is a human-readable description.
	Message string

	// Err is the underlying client error, for TRANSPORT errors.
	Err error
}

// ErrorCode categorizes resolution errors.
type ErrorCode string

const (
	// ErrCodeNotFound means no locator or scanner produced a candidate.
	ErrCodeNotFound ErrorCode = "NOT_FOUND"

	// ErrCodeFoundButUnavailable means an enumeration key or creation event
	// for the identifier exists but its payload could not be fetched or
	// decoded.
	ErrCodeFoundButUnavailable ErrorCode = "FOUND_BUT_UNAVAILABLE"

	// ErrCodeMalformedContainer means the registry's table attribute has no
	// recognizable handle. It fails the table path only and is reported in
	// Resolution steps, never returned from Resolve.
	ErrCodeMalformedContainer ErrorCode = "MALFORMED_CONTAINER"

	// ErrCodeTransport means a ledger call failed. The cascade aborts.
	ErrCodeTransport ErrorCode = "TRANSPORT"
)

// Error implements the error interface.
func (e *Error) Error() string {
	switch {
	case e.Err != nil && e.Step != "":
		return fmt.Sprintf("%s: %s (id=%s, step=%s): %v", e.Code, e.Message, e.ID, e.Step, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("%s: %s (id=%s): %v", e.Code, e.Message, e.ID, e.Err)
	case e.ID != "":
		return fmt.Sprintf("%s: %s (id=%s)", e.Code, e.Message, e.ID)
	default:
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
}

// Unwrap returns the underlying client error.
func (e *Error) Unwrap() error {
	return e.Err
}

// IsNotFound reports whether err is a NOT_FOUND resolution error.
func IsNotFound(err error) bool {
	return hasCode(err, ErrCodeNotFound)
}

// IsFoundButUnavailable reports whether err is a FOUND_BUT_UNAVAILABLE
// resolution error.
func IsFoundButUnavailable(err error) bool {
	return hasCode(err, ErrCodeFoundButUnavailable)
}

// IsMalformedContainer reports whether err is a MALFORMED_CONTAINER error.
func IsMalformedContainer(err error) bool {
	return hasCode(err, ErrCodeMalformedContainer)
}

// IsTransport reports whether err is a TRANSPORT resolution error.
func IsTransport(err error) bool {
	return hasCode(err, ErrCodeTransport)
}

func hasCode(err error, code ErrorCode) bool {
	var re *Error
	if errors.As(err, &re) {
		return re.Code == code
	}
	return false
}

// NewNotFoundError creates a NOT_FOUND error for id.
func NewNotFoundError(id string) *Error {
	return &Error{
		Code:    ErrCodeNotFound,
		ID:      id,
		Message: "no locator produced a record",
	}
}

// NewFoundButUnavailableError creates a FOUND_BUT_UNAVAILABLE error for id.
func NewFoundButUnavailableError(id, reason string) *Error {
	return &Error{
		Code:    ErrCodeFoundButUnavailable,
		ID:      id,
		Message: reason,
	}
}

// newMalformedContainerError describes a registry whose table attribute has
// no handle.
func newMalformedContainerError(registryID, reason string) *Error {
	return &Error{
		Code:    ErrCodeMalformedContainer,
		ID:      registryID,
		Message: reason,
	}
}

// newTransportError wraps a ledger client failure.
func newTransportError(id, step string, err error) *Error {
	return &Error{
		Code:    ErrCodeTransport,
		ID:      id,
		Step:    step,
		Message: "ledger call failed",
		Err:     err,
	}
}

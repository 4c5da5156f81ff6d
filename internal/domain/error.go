package domain

import (
	"errors"
	"fmt"
)

var (
	// Common domain errors
	ErrNotFound           = errors.New("entity not found")
	ErrInvalidArgument    = errors.New("invalid argument")
	ErrOperationFailed    = errors.New("operation failed")
	ErrGatewayUnavailable = errors.New("payment gateway not available")
	ErrSessionInFlight    = errors.New("a payment attempt is already in flight")
	ErrNoPackageSelected  = errors.New("no package selected")
)

// ValidationError reports a bad checkout input before any gateway or network
// call is made.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation: %s %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrInvalidArgument }

// VerificationErrorKind partitions verification failures by how the UI must
// treat them.
type VerificationErrorKind string

const (
	// VerificationRejected: the backend answered with an explicit error
	// payload. Terminal, shown with the server message.
	VerificationRejected VerificationErrorKind = "rejected"
	// VerificationTransport: no response reached the server. Retryable by the
	// user; never activates.
	VerificationTransport VerificationErrorKind = "transport"
	// VerificationMalformed: the server answered 2xx with an absent or
	// undecodable body. Terminal.
	VerificationMalformed VerificationErrorKind = "malformed"
)

// VerificationError is returned by the verification client when the backend
// could not authoritatively confirm a gateway reference.
type VerificationError struct {
	Kind      VerificationErrorKind
	Reference string
	Message   string // server-provided reason, when present
	Err       error
}

func (e *VerificationError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("verify %s: %s: %s", e.Reference, e.Kind, e.Message)
	}
	if e.Err != nil {
		return fmt.Sprintf("verify %s: %s: %v", e.Reference, e.Kind, e.Err)
	}
	return fmt.Sprintf("verify %s: %s", e.Reference, e.Kind)
}

func (e *VerificationError) Unwrap() error { return e.Err }

// Retryable reports whether the user may safely retry verification; only
// connectivity failures qualify.
func (e *VerificationError) Retryable() bool { return e.Kind == VerificationTransport }

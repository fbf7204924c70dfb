package domain

import (
	"errors"
	"fmt"
)

// DomainError is an error carrying a stable error code.
//
// Codes have the form AG-<AREA>-<NNNN>. The HTTP layer maps codes to
// response statuses through a fixed table, so a code must never change
// meaning once published.
type DomainError struct {
	Code    string // Error code (e.g., "AG-TXN-5000")
	Message string // Human-readable message
	Details string // Optional additional details
	Cause   error  // Underlying error (if any), never shown to callers
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("[%s] %s: %s", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// PublicMessage returns the message shown to API callers. It omits the
// code and the cause chain.
func (e *DomainError) PublicMessage() string {
	if e.Details != "" {
		return e.Message + ": " + e.Details
	}
	return e.Message
}

// Unwrap returns the underlying error for errors.Unwrap() support.
func (e *DomainError) Unwrap() error {
	return e.Cause
}

// Is reports whether target is a DomainError with the same code.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// NewDomainError creates a new DomainError with the given code and message.
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// WithDetails returns a copy of the error with additional details.
func (e *DomainError) WithDetails(details string) *DomainError {
	return &DomainError{
		Code:    e.Code,
		Message: e.Message,
		Details: details,
		Cause:   e.Cause,
	}
}

// WithDetailsf is WithDetails with fmt.Sprintf formatting.
func (e *DomainError) WithDetailsf(format string, args ...any) *DomainError {
	return e.WithDetails(fmt.Sprintf(format, args...))
}

// WithCause returns a copy of the error wrapping the given cause.
func (e *DomainError) WithCause(cause error) *DomainError {
	return &DomainError{
		Code:    e.Code,
		Message: e.Message,
		Details: e.Details,
		Cause:   cause,
	}
}

// Wrap wraps an error with this domain error as the cause.
func (e *DomainError) Wrap(cause error) *DomainError {
	return e.WithCause(cause)
}

// IsDomainError checks if an error is a DomainError with the given code.
// If code is empty, it only checks if the error is a DomainError.
func IsDomainError(err error, code string) bool {
	var de *DomainError
	if errors.As(err, &de) {
		if code == "" {
			return true
		}
		return de.Code == code
	}
	return false
}

// GetErrorCode extracts the error code from an error if it's a DomainError.
func GetErrorCode(err error) string {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}

// AsDomainError returns the outermost DomainError in err's chain.
func AsDomainError(err error) (*DomainError, bool) {
	var de *DomainError
	if errors.As(err, &de) {
		return de, true
	}
	return nil, false
}

// ============================================================================
// Identity Errors (IDEN)
// ============================================================================

var (
	// ErrIdentityNotFound indicates the named credential is absent from
	// the identity store. Not retryable.
	ErrIdentityNotFound = NewDomainError("AG-IDEN-4040", "identity not found")

	// ErrIdentityInvalid indicates the stored credential could not be used
	// (malformed certificate or key material).
	ErrIdentityInvalid = NewDomainError("AG-IDEN-5001", "identity material invalid")
)

// ============================================================================
// Channel Errors (CHAN)
// ============================================================================

var (
	// ErrChannelUnreachable indicates the network profile is misconfigured
	// or its endpoints cannot be reached.
	ErrChannelUnreachable = NewDomainError("AG-CHAN-5030", "ledger network unreachable")

	// ErrContractNotFound indicates the named channel or contract does not
	// exist on the network.
	ErrContractNotFound = NewDomainError("AG-CHAN-5020", "contract not found")
)

// ============================================================================
// Transaction Errors (TXN)
// ============================================================================

var (
	// ErrTransactionFailed indicates the ledger rejected the operation.
	// Details carry the ledger-provided reason verbatim.
	ErrTransactionFailed = NewDomainError("AG-TXN-5000", "transaction failed")

	// ErrTransactionUncertain indicates a mutating operation was handed to
	// the ordering service but its commit status could not be determined.
	// Blind resubmission may apply the change twice.
	ErrTransactionUncertain = NewDomainError("AG-TXN-5040", "transaction outcome unknown")
)

// ============================================================================
// Session Errors (SESS)
// ============================================================================

var (
	// ErrSessionRelease indicates a ledger session could not be closed
	// cleanly. It is logged and never returned to callers.
	ErrSessionRelease = NewDomainError("AG-SESS-5001", "session release failed")

	// ErrSessionClosed indicates use of a session after it was released.
	ErrSessionClosed = NewDomainError("AG-SESS-5002", "session closed")
)

// ============================================================================
// System Errors (SYS)
// ============================================================================

var (
	// ErrInternalServer indicates an internal server error.
	ErrInternalServer = NewDomainError("AG-SYS-5000", "internal server error")

	// ErrServiceUnavailable indicates the service is temporarily unavailable.
	ErrServiceUnavailable = NewDomainError("AG-SYS-5030", "service unavailable")

	// ErrBadRequest indicates a malformed request.
	ErrBadRequest = NewDomainError("AG-SYS-4000", "bad request")

	// ErrForbidden indicates the client address may not use the endpoint.
	ErrForbidden = NewDomainError("AG-SYS-4030", "forbidden")

	// ErrRateLimited indicates too many requests.
	ErrRateLimited = NewDomainError("AG-SYS-4290", "too many requests")
)

// ============================================================================
// Argument Errors (ARG)
// ============================================================================

var (
	// ErrInvalidArgument indicates an invalid argument.
	ErrInvalidArgument = NewDomainError("AG-ARG-4001", "invalid argument")

	// ErrMissingArgument indicates a required argument is missing.
	ErrMissingArgument = NewDomainError("AG-ARG-4002", "missing required argument")
)

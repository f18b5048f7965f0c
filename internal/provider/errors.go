package provider

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
)

// ErrorCode classifies provider failures. Callers branch on codes; the
// message-substring matching required by the provider's loosely specified
// error bodies lives in classifyBody below and nowhere else.
type ErrorCode string

const (
	// CodeInvalidCredentials covers wrong email/password pairs.
	CodeInvalidCredentials ErrorCode = "invalid_credentials"
	// CodeRefreshTokenInvalid covers not-found, already-used, revoked and
	// malformed refresh tokens. Terminal: resolved by cleanup, never retry.
	CodeRefreshTokenInvalid ErrorCode = "refresh_token_invalid"
	// CodeSessionMissing is the normal logged-out case, not a failure.
	CodeSessionMissing ErrorCode = "session_missing"
	// CodeForbidden is a 403 from the provider.
	CodeForbidden ErrorCode = "forbidden"
	// CodeNetwork covers transport failures and timeouts. Transient.
	CodeNetwork ErrorCode = "network"
	// CodeUnknown is everything else.
	CodeUnknown ErrorCode = "unknown"
)

// Error is a classified provider failure.
type Error struct {
	Code    ErrorCode
	Status  int
	Message string
}

func (e *Error) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("provider: %s (%d): %s", e.Code, e.Status, e.Message)
	}

	return fmt.Sprintf("provider: %s: %s", e.Code, e.Message)
}

// Terminal reports whether the failure can only be resolved by purging
// local state (corrupted or revoked token material).
func (e *Error) Terminal() bool {
	return e.Code == CodeRefreshTokenInvalid
}

// Transient reports whether the failure is worth retrying.
func (e *Error) Transient() bool {
	return e.Code == CodeNetwork
}

// AsError unwraps err into a classified *Error.
func AsError(err error) (*Error, bool) {
	var pe *Error
	if errors.As(err, &pe) {
		return pe, true
	}

	return nil, false
}

// CodeOf returns the classified code of err, or CodeUnknown.
func CodeOf(err error) ErrorCode {
	if pe, ok := AsError(err); ok {
		return pe.Code
	}

	return CodeUnknown
}

// classifyTransport maps transport-level failures (no HTTP response at all)
// onto a classified error.
func classifyTransport(err error) *Error {
	var netErr net.Error
	if errors.As(err, &netErr) || errors.Is(err, context.DeadlineExceeded) {
		return &Error{Code: CodeNetwork, Message: err.Error()}
	}

	// fasthttp/net errors without a net.Error shape still mean the
	// round-trip never completed.
	return &Error{Code: CodeNetwork, Message: err.Error()}
}

// classifyBody maps a provider HTTP status plus error body onto a
// classified error. This is the single place allowed to look at the
// provider's error strings.
func classifyBody(status int, errCode, message string) *Error {
	lower := strings.ToLower(errCode + " " + message)

	switch {
	case strings.Contains(lower, "refresh_token_not_found"),
		strings.Contains(lower, "refresh token not found"),
		strings.Contains(lower, "invalid refresh token"),
		strings.Contains(lower, "refresh_token_already_used"),
		strings.Contains(lower, "token has been revoked"):
		return &Error{Code: CodeRefreshTokenInvalid, Status: status, Message: message}
	case strings.Contains(lower, "invalid login credentials"),
		strings.Contains(lower, "invalid_credentials"),
		strings.Contains(lower, "invalid_grant"):
		return &Error{Code: CodeInvalidCredentials, Status: status, Message: message}
	case strings.Contains(lower, "session_not_found"),
		strings.Contains(lower, "session not found"):
		return &Error{Code: CodeSessionMissing, Status: status, Message: message}
	case status == http.StatusForbidden:
		return &Error{Code: CodeForbidden, Status: status, Message: message}
	case status >= http.StatusInternalServerError:
		// provider-side failures are retried like network errors
		return &Error{Code: CodeNetwork, Status: status, Message: message}
	default:
		return &Error{Code: CodeUnknown, Status: status, Message: message}
	}
}

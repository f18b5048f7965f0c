package auth

import "errors"

var (
	// ErrMissingCredentials is returned when email or password is empty.
	// Checked before any provider round-trip.
	ErrMissingCredentials = errors.New("email and password are required")

	// ErrInvalidCredentials is returned when the provider rejects the
	// email/password pair.
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrProducerAccessDenied is returned when the producer login path is
	// used by an identity that is not an active producer. The session
	// created during authentication has already been torn down again.
	ErrProducerAccessDenied = errors.New("access restricted to active producers")

	// ErrNotAuthenticated is returned by operations that require a live
	// session when there is none.
	ErrNotAuthenticated = errors.New("not authenticated")
)

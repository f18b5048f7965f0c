// Package login provides the HTTP surface for password authentication and
// registration.
//
// This file defines exported error values used throughout the login flow.
package login

import "errors"

var (
	// ErrInvalidBody is returned when the submitted login payload cannot be
	// parsed or fails validation.
	ErrInvalidBody = errors.New("invalid request body")

	// ErrInvalidCredentials is returned when the provided email and/or
	// password are not valid.
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrProducerOnly is returned when a producer-portal login is attempted
	// by an identity that is not an active producer.
	ErrProducerOnly = errors.New("producer access required")

	// ErrInternalServerError is returned for unexpected failures during the
	// login process.
	ErrInternalServerError = errors.New("internal server error")
)

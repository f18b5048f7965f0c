// Package provider implements the identity provider binding.
//
// The provider is the external authority for credentials and sessions: it
// issues opaque bearer token pairs, refreshes them, and invalidates them.
// This package exposes that surface as the Client interface, implemented by
// an HTTP adapter speaking the provider's REST auth API.
//
// Two boundaries are enforced here and nowhere else:
//
//   - Raw HTTP. No other package performs provider round-trips.
//   - Error classification. Provider failures are mapped onto a typed
//     ErrorCode enum (invalid credentials, revoked refresh token, network,
//     ...) so callers never match on message substrings.
//
// The Client also owns the persisted session artifact (via a TokenStore)
// and emits auth state change events (SignedIn, SignedOut, TokenRefreshed,
// InitialSession) that the engine's state handler consumes.
package provider

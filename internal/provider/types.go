package provider

import (
	"time"
)

// Identity is the provider-issued user record. It is immutable from the
// engine's perspective except for metadata patches applied through
// UpdateUser (e.g. writing back a resolved role).
type Identity struct {
	// ID is the provider's stable identifier (a UUID).
	ID string `json:"id"`
	// Email the identity was registered with.
	Email string `json:"email"`
	// Metadata is the provider-side free-form user metadata map.
	Metadata map[string]interface{} `json:"user_metadata"`
	// CreatedAt is the provider-side creation timestamp.
	CreatedAt time.Time `json:"created_at"`
}

// MetadataString returns a string metadata value or "" when absent.
func (i *Identity) MetadataString(key string) string {
	if i == nil || i.Metadata == nil {
		return ""
	}

	if v, ok := i.Metadata[key].(string); ok {
		return v
	}

	return ""
}

// Session is an opaque bearer credential pair with its expiry and the
// identity it was issued for. Sessions are replaced wholesale on every
// successful refresh, never merged.
type Session struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	TokenType    string    `json:"token_type"`
	ExpiresAt    time.Time `json:"expires_at"`
	User         Identity  `json:"user"`
}

// HasTokens reports whether both credential halves are present.
// A session missing either token is structurally broken and can only be
// resolved by cleanup, never by refresh.
func (s *Session) HasTokens() bool {
	return s != nil && s.AccessToken != "" && s.RefreshToken != ""
}

// SignOutScope selects how far a provider-side sign-out reaches.
type SignOutScope string

const (
	// ScopeGlobal invalidates every session of the identity.
	ScopeGlobal SignOutScope = "global"
	// ScopeLocal invalidates only the session behind the presented token.
	ScopeLocal SignOutScope = "local"
)

// UserAttributes is the patch payload for UpdateUser. Nil/empty fields are
// left untouched provider-side.
type UserAttributes struct {
	Password string                 `json:"password,omitempty"`
	Metadata map[string]interface{} `json:"data,omitempty"`
}

package provider

import (
	"context"
)

// Client is the identity provider surface the engine consumes. All methods
// return classified *Error values for expected failure modes.
type Client interface {
	// SignInWithPassword authenticates with an email/password pair. On
	// success the returned session becomes the client's current session
	// and SignedIn is emitted.
	SignInWithPassword(ctx context.Context, email, password string) (*Session, error)

	// SignUp registers a new identity with optional metadata. Providers
	// configured without email confirmation return a live session.
	SignUp(ctx context.Context, email, password string, metadata map[string]interface{}) (*Session, error)

	// RevokeSession invalidates a session provider-side. Purely remote: no
	// local effects, so the sign-out orchestrator controls ordering.
	RevokeSession(ctx context.Context, accessToken string, scope SignOutScope) error

	// ClearLocalSession drops the held session and the persisted artifact
	// and emits SignedOut. Never fails from the caller's perspective.
	ClearLocalSession()

	// GetSession returns the current session: the held one, or the
	// persisted one on first call. A nil session with a nil error is the
	// normal logged-out case. A corrupt persisted artifact returns a
	// terminal classified error.
	GetSession(ctx context.Context) (*Session, error)

	// RefreshSession exchanges the current refresh token for a new session,
	// replacing the held one wholesale and emitting TokenRefreshed.
	RefreshSession(ctx context.Context) (*Session, error)

	// UpdateUser patches the current identity (password and/or metadata).
	UpdateUser(ctx context.Context, attrs UserAttributes) (*Identity, error)

	// ResetPasswordForEmail triggers the provider's recovery email flow.
	ResetPasswordForEmail(ctx context.Context, email, redirectTo string) error

	// AdminCreateUser provisions an identity with the privileged service
	// key, bypassing email confirmation. Used for account linking.
	AdminCreateUser(ctx context.Context, email, password string, metadata map[string]interface{}) (*Identity, error)

	// OnAuthStateChange subscribes to auth events; the returned func
	// unsubscribes.
	OnAuthStateChange(cb Callback) func()

	// EmitInitialSession loads the persisted session (if any) and emits
	// InitialSession. Called once at engine startup.
	EmitInitialSession(ctx context.Context)
}

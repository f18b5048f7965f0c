package auth

import (
	"context"
	"time"

	"github.com/alexandrevcalmon/authcore/internal/provider"
)

// RefreshBuffer is how long before hard expiry a session already counts as
// needing refresh, so refreshes happen proactively.
const RefreshBuffer = 5 * time.Minute

// Validator decides valid / needs-refresh / invalid for a session. When a
// session is supplied and not near expiry, no network call is made: the
// check is cheap enough to run on every request.
type Validator struct {
	provider provider.Client
	cleaner  *Cleaner
	buffer   time.Duration

	// now is injectable for expiry tests.
	now func() time.Time
}

// NewValidator creates a Validator with the standard refresh buffer.
func NewValidator(p provider.Client, cleaner *Cleaner) *Validator {
	return &Validator{
		provider: p,
		cleaner:  cleaner,
		buffer:   RefreshBuffer,
		now:      time.Now,
	}
}

// Validate checks the supplied session, or fetches the current one from the
// provider when session is nil (forcing a fresh check).
func (v *Validator) Validate(ctx context.Context, session *provider.Session) ValidationResult {
	if session != nil {
		return v.validateLocal(ctx, session)
	}

	fetched, err := v.provider.GetSession(ctx)
	if err != nil {
		if pe, ok := provider.AsError(err); ok && pe.Terminal() {
			// invalid/expired/revoked token material: purge, don't retry
			v.cleaner.Run(ctx)

			return ValidationResult{RequiresCleanup: true, Err: err}
		}

		return ValidationResult{Err: err}
	}

	if fetched == nil {
		// normal logged-out case, not a failure
		return ValidationResult{}
	}

	// single code path for expiry logic
	return v.validateLocal(ctx, fetched)
}

// validateLocal applies the expiry rules to a known session.
func (v *Validator) validateLocal(ctx context.Context, session *provider.Session) ValidationResult {
	if !session.HasTokens() || session.ExpiresAt.IsZero() {
		v.cleaner.Run(ctx)

		return ValidationResult{RequiresCleanup: true, Session: session}
	}

	now := v.now()

	if !now.Before(session.ExpiresAt) {
		return ValidationResult{NeedsRefresh: true, Session: session, User: &session.User}
	}

	if !now.Before(session.ExpiresAt.Add(-v.buffer)) {
		// inside the buffer: refresh proactively before hard expiry
		return ValidationResult{NeedsRefresh: true, Session: session, User: &session.User}
	}

	return ValidationResult{IsValid: true, Session: session, User: &session.User}
}

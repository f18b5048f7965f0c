package auth

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/alexandrevcalmon/authcore/internal/provider"
)

// revokeTimeout bounds the provider-side revocation call so sign-out can
// never hang on a slow network.
const revokeTimeout = 3 * time.Second

// SignOut ends the current session. The contract is deliberately lopsided:
// local teardown is unconditional and the provider-side revocation is
// best-effort, so SignOut always returns nil. A user asking to leave must
// always end up logged out locally, whatever the network thinks.
//
// Concurrent calls are single-flighted per engine instance: the second
// caller returns nil immediately without doing any work, because the
// first call's teardown covers it.
func (e *Engine) SignOut(ctx context.Context) error {
	if !e.signingOut.CompareAndSwap(false, true) {
		log.Debug().Msg("sign-out already in progress, skipping")

		return nil
	}
	defer e.signingOut.Store(false)

	e.metrics.signOuts.Inc()

	// capture the session before local teardown drops it
	session, err := e.provider.GetSession(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("could not read session before sign-out, proceeding with teardown")

		session = nil
	}

	// 1. local state first: clears artifacts and emits SignedOut
	e.provider.ClearLocalSession()

	// 2. cached roles, best-effort
	if e.cache != nil {
		if err := e.cache.PurgeAll(ctx); err != nil {
			log.Warn().Err(err).Msg("failed to purge role cache during sign-out")
		}
	}

	// 3. provider-side revocation, skipped for sessions that cannot be
	// revoked anyway
	if session == nil || !session.HasTokens() {
		log.Debug().Msg("no revocable session, sign-out is local only")

		return nil
	}

	revokeCtx, cancel := context.WithTimeout(ctx, revokeTimeout)
	defer cancel()

	if err := e.provider.RevokeSession(revokeCtx, session.AccessToken, provider.ScopeGlobal); err != nil {
		// a 403 means the provider no longer recognizes the session,
		// which is exactly the end state sign-out wants
		if provider.CodeOf(err) == provider.CodeForbidden {
			log.Debug().Msg("provider already considered the session gone")

			return nil
		}

		log.Warn().Err(err).Msg("provider-side sign-out failed, local teardown already done")
	}

	return nil
}

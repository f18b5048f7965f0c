package auth

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/alexandrevcalmon/authcore/internal/provider"
)

const (
	// maxRefreshRetries bounds retries after the initial attempt.
	maxRefreshRetries = 2

	networkBackoffStep  = time.Second
	criticalBackoffStep = 2 * time.Second
)

// Refresher performs the refresh round-trip with bounded retry. Terminal
// token errors skip retry entirely and route to the Cleaner; transient
// errors back off linearly up to the retry ceiling.
type Refresher struct {
	provider provider.Client
	cleaner  *Cleaner
	metrics  *metrics

	// sleep is injectable so tests don't wait out the backoff.
	sleep func(context.Context, time.Duration)
}

// NewRefresher creates a Refresher.
func NewRefresher(p provider.Client, cleaner *Cleaner) *Refresher {
	return &Refresher{
		provider: p,
		cleaner:  cleaner,
		metrics:  newMetrics(),
		sleep:    sleepCtx,
	}
}

// Refresh exchanges the current refresh token for a new session. On success
// the new session fully replaces the old one. Exhausted retries and
// terminal errors both end in a cleanup run and RequiresCleanup.
func (r *Refresher) Refresh(ctx context.Context) ValidationResult {
	for attempt := 0; ; attempt++ {
		r.metrics.refreshAttempts.Inc()

		session, err := r.provider.RefreshSession(ctx)
		if err == nil {
			return ValidationResult{IsValid: true, Session: session, User: &session.User}
		}

		pe, _ := provider.AsError(err)

		if pe != nil && pe.Terminal() {
			log.Warn().Err(err).Msg("refresh token invalid, purging local state")
			r.cleaner.Run(ctx)

			return ValidationResult{RequiresCleanup: true, Err: err}
		}

		if attempt >= maxRefreshRetries {
			log.Error().Err(err).Int("attempts", attempt+1).Msg("session refresh retries exhausted")
			r.cleaner.Run(ctx)

			return ValidationResult{RequiresCleanup: true, Err: err}
		}

		// transient: provider unreachable, or no session surfaced at all
		step := criticalBackoffStep
		if pe != nil && (pe.Transient() || pe.Code == provider.CodeSessionMissing) {
			step = networkBackoffStep
		}

		backoff := time.Duration(attempt+1) * step

		log.Debug().Err(err).Int("attempt", attempt).Dur("backoff", backoff).
			Msg("session refresh failed, retrying")
		r.metrics.refreshRetries.Inc()
		r.sleep(ctx, backoff)
	}
}

// sleepCtx sleeps for d or until ctx is done.
func sleepCtx(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

package auth

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"
)

// Monitor periodically checks the current session and refreshes it before
// it expires, so long-lived idle processes never hand out a stale token.
//
// The alive flag is checked before every mutation: once Stop is called a
// tick that is already in flight may finish its network call, but it will
// not touch any shared state afterwards.
type Monitor struct {
	validator *Validator
	refresher *Refresher
	metrics   *metrics

	interval time.Duration
	alive    atomic.Bool
	done     chan struct{}
}

// NewMonitor creates a monitor that checks every interval. Cleanup of
// corrupt sessions is the validator's job; the monitor only reacts.
func NewMonitor(v *Validator, r *Refresher, interval time.Duration) *Monitor {
	return &Monitor{
		validator: v,
		refresher: r,
		metrics:   newMetrics(),
		interval:  interval,
		done:      make(chan struct{}),
	}
}

// Start runs the monitor loop until ctx is canceled or Stop is called.
// Blocks; run it on its own goroutine or under an errgroup.
func (m *Monitor) Start(ctx context.Context) error {
	m.alive.Store(true)

	log.Info().Dur("interval", m.interval).Msg("session monitor started")

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			m.alive.Store(false)

			log.Info().Msg("session monitor stopped")

			return nil
		case <-m.done:
			return nil
		case <-ticker.C:
			m.tick(ctx)
		}
	}
}

// Stop ends the loop and drops the alive flag. Idempotent.
func (m *Monitor) Stop() {
	if m.alive.CompareAndSwap(true, false) {
		close(m.done)

		log.Info().Msg("session monitor stopped")
	}
}

func (m *Monitor) tick(ctx context.Context) {
	if !m.alive.Load() {
		return
	}

	m.metrics.monitorTicks.Inc()

	res := m.validator.Validate(ctx, nil)

	switch {
	case res.RequiresCleanup:
		// the validator already routed to the cleaner; nothing to refresh
		log.Warn().Msg("monitor found a corrupt session, cleaned up")
	case res.NeedsRefresh:
		if !m.alive.Load() {
			return
		}

		log.Debug().Msg("monitor refreshing session ahead of expiry")

		refreshed := m.refresher.Refresh(ctx)
		if !refreshed.IsValid && m.alive.Load() {
			log.Warn().Err(refreshed.Err).Msg("monitor refresh failed")
		}
	case res.Err != nil:
		log.Warn().Err(res.Err).Msg("monitor session check failed")
	}
}

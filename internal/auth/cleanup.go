package auth

import (
	"context"
	"sync/atomic"

	"github.com/gofiber/storage"
	"github.com/rs/zerolog/log"

	"github.com/alexandrevcalmon/authcore/internal/cache"
	"github.com/alexandrevcalmon/authcore/internal/provider"
)

// artifactKeys are the storage keys this engine persists. Cleanup iterates
// them individually so one failing delete never blocks the rest.
var artifactKeys = []string{ //nolint:gochecknoglobals
	provider.SessionKey,
	"authcore.role",
	"authcore.profile",
}

// Cleaner purges every locally persisted auth artifact: the provider's
// token artifact, the engine's own storage keys, and the role cache
// entries. Invoked by sign-out and by every recoverable-by-cleanup failure
// path.
type Cleaner struct {
	provider provider.Client
	storage  storage.Storage
	cache    *cache.RoleCache
	metrics  *metrics

	running atomic.Bool
}

// NewCleaner creates a Cleaner over the given stores.
func NewCleaner(p provider.Client, st storage.Storage, rc *cache.RoleCache) *Cleaner {
	return &Cleaner{provider: p, storage: st, cache: rc, metrics: newMetrics()}
}

// Run clears all persisted auth state and drops the held session, returning
// the process to the unauthenticated baseline. Per-key failures are
// tolerated; Run itself never fails. Re-entrant calls (a cleanup triggered
// while one is already running) are no-ops.
func (c *Cleaner) Run(ctx context.Context) {
	if !c.running.CompareAndSwap(false, true) {
		return
	}
	defer c.running.Store(false)

	c.metrics.cleanupRuns.Inc()

	for _, key := range artifactKeys {
		if err := c.storage.Delete(key); err != nil {
			log.Warn().Err(err).Str("key", key).Msg("cleanup: failed to delete artifact key")
		}
	}

	if err := c.cache.PurgeAll(ctx); err != nil {
		log.Warn().Err(err).Msg("cleanup: failed to purge role cache")
	}

	// drops the held session and announces SignedOut so the state handler
	// clears local state on the same pass
	c.provider.ClearLocalSession()
}

// Emergency clears everything unconditionally, including keys this engine
// does not know it wrote. Last resort for when normal cleanup itself
// misbehaves; the storage backend is reset wholesale.
func (c *Cleaner) Emergency(ctx context.Context) {
	log.Error().Msg("cleanup: emergency reset of all persisted auth state")

	if err := c.storage.Reset(); err != nil {
		log.Error().Err(err).Msg("cleanup: emergency storage reset failed")
	}

	if err := c.cache.PurgeAll(ctx); err != nil {
		log.Error().Err(err).Msg("cleanup: emergency cache purge failed")
	}

	c.provider.ClearLocalSession()
}

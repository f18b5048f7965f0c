package auth

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/gofiber/storage"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/alexandrevcalmon/authcore/internal/cache"
	"github.com/alexandrevcalmon/authcore/internal/provider"
)

// Config carries the engine's collaborators and tunables.
type Config struct {
	// Provider is the identity provider binding.
	Provider provider.Client
	// DB is the relational store holding producers, companies, company
	// members and profiles.
	DB *gorm.DB
	// Cache is the optional role cache; nil disables caching.
	Cache *cache.RoleCache
	// Storage persists local auth artifacts.
	Storage storage.Storage
	// MonitorInterval is how often the session monitor checks; zero
	// disables the monitor.
	MonitorInterval time.Duration
	// PasswordRedirectURL is where password recovery emails send users.
	PasswordRedirectURL string
}

// Engine is the authentication session lifecycle engine: it owns the state
// machine, the session monitor and the sign-in/sign-out orchestration, all
// driven by provider auth events.
type Engine struct {
	provider  provider.Client
	db        *gorm.DB
	cache     *cache.RoleCache
	resolver  *RoleResolver
	validator *Validator
	refresher *Refresher
	cleaner   *Cleaner
	handler   *StateHandler
	monitor   *Monitor
	metrics   *metrics

	redirectURL string

	// signingOut single-flights sign-out per engine instance.
	signingOut  atomic.Bool
	unsubscribe func()
}

// New wires an engine from its collaborators. ctx bounds background role
// cascades and should be the daemon's run context.
func New(ctx context.Context, cfg Config) *Engine {
	cleaner := NewCleaner(cfg.Provider, cfg.Storage, cfg.Cache)
	resolver := NewRoleResolver(cfg.DB, cfg.Cache)
	validator := NewValidator(cfg.Provider, cleaner)
	refresher := NewRefresher(cfg.Provider, cleaner)

	e := &Engine{
		provider:    cfg.Provider,
		db:          cfg.DB,
		cache:       cfg.Cache,
		resolver:    resolver,
		validator:   validator,
		refresher:   refresher,
		cleaner:     cleaner,
		handler:     NewStateHandler(ctx, resolver),
		metrics:     newMetrics(),
		redirectURL: cfg.PasswordRedirectURL,
	}

	if cfg.MonitorInterval > 0 {
		e.monitor = NewMonitor(validator, refresher, cfg.MonitorInterval)
	}

	return e
}

// Start subscribes to provider auth events and replays the persisted
// session. Returns immediately; call RunMonitor for the periodic check
// loop.
func (e *Engine) Start(ctx context.Context) {
	e.unsubscribe = e.provider.OnAuthStateChange(e.handler.HandleEvent)
	e.provider.EmitInitialSession(ctx)
}

// RunMonitor runs the session monitor until ctx is canceled. No-op when
// the monitor is disabled.
func (e *Engine) RunMonitor(ctx context.Context) error {
	if e.monitor == nil {
		log.Info().Msg("session monitor disabled")

		<-ctx.Done()

		return nil
	}

	return e.monitor.Start(ctx)
}

// Close unsubscribes from provider events and stops the monitor.
func (e *Engine) Close() {
	if e.monitor != nil {
		e.monitor.Stop()
	}

	if e.unsubscribe != nil {
		e.unsubscribe()
		e.unsubscribe = nil
	}
}

// State returns a snapshot of the current auth state.
func (e *Engine) State() Snapshot {
	return e.handler.State()
}

// WaitSettled blocks until in-flight role cascades finish.
func (e *Engine) WaitSettled() {
	e.handler.WaitSettled()
}

// Validate checks the current session and refreshes it when it is inside
// the expiry buffer.
func (e *Engine) Validate(ctx context.Context) ValidationResult {
	res := e.validator.Validate(ctx, nil)
	if res.NeedsRefresh {
		return e.refresher.Refresh(ctx)
	}

	return res
}

// RefreshUserRole re-runs the role resolution cascade for the current
// user and installs the outcome.
func (e *Engine) RefreshUserRole(ctx context.Context) (Snapshot, error) {
	state := e.handler.State()
	if state.User == nil {
		return state, ErrNotAuthenticated
	}

	if e.cache != nil {
		if err := e.cache.Purge(ctx, state.User.ID); err != nil {
			log.Warn().Err(err).Msg("failed to purge cached role before re-resolution")
		}
	}

	res := e.resolver.Resolve(ctx, state.User)
	e.handler.ApplyResolution(res)

	return e.handler.State(), nil
}

// ResetPassword triggers the provider's password recovery email flow.
func (e *Engine) ResetPassword(ctx context.Context, email string) error {
	if email == "" {
		return ErrMissingCredentials
	}

	return e.provider.ResetPasswordForEmail(ctx, email, e.redirectURL)
}

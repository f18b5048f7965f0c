package auth

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/alexandrevcalmon/authcore/internal/provider"
)

// Phase is the explicit lifecycle state of the auth engine.
type Phase string

const (
	// PhaseUnauthenticated means no session is held.
	PhaseUnauthenticated Phase = "unauthenticated"
	// PhaseAuthenticating means a credential exchange is in flight.
	PhaseAuthenticating Phase = "authenticating"
	// PhaseRolePending means a session is held and the role resolution
	// cascade has not settled yet.
	PhaseRolePending Phase = "role_pending"
	// PhaseReady means session and role are both settled.
	PhaseReady Phase = "ready"
)

// transitions is the handler's transition table. A provider event received
// in a phase with no entry here is ignored (and logged), never applied.
var transitions = map[Phase]map[provider.Event]Phase{
	PhaseUnauthenticated: {
		provider.SignedIn:       PhaseRolePending,
		provider.InitialSession: PhaseRolePending,
		provider.SignedOut:      PhaseUnauthenticated,
	},
	PhaseAuthenticating: {
		provider.SignedIn:  PhaseRolePending,
		provider.SignedOut: PhaseUnauthenticated,
	},
	PhaseRolePending: {
		provider.SignedIn:       PhaseRolePending,
		provider.TokenRefreshed: PhaseRolePending,
		provider.SignedOut:      PhaseUnauthenticated,
	},
	PhaseReady: {
		provider.SignedIn:       PhaseRolePending,
		provider.TokenRefreshed: PhaseReady,
		provider.SignedOut:      PhaseUnauthenticated,
	},
}

// Snapshot is a point-in-time copy of the auth state. Everything a caller
// needs to render is in here; no field references handler internals.
type Snapshot struct {
	User                *provider.Identity
	Session             *provider.Session
	Role                Role
	CompanyData         *CompanyUserData
	NeedsPasswordChange bool
	// Initialized flips true after the first provider event has been
	// handled and stays true forever.
	Initialized bool
	// Loading is true from a session-bearing event until the role cascade
	// settles.
	Loading bool
	Phase   Phase
}

// IsProducer reports whether the resolved role is producer.
func (s Snapshot) IsProducer() bool { return s.Role == RoleProducer }

// IsCompany reports whether the resolved role is company owner.
func (s Snapshot) IsCompany() bool { return s.Role == RoleCompany }

// IsStudent reports whether the resolved role is the student fallback.
func (s Snapshot) IsStudent() bool { return s.Role == RoleStudent }

// Authenticated reports whether a session is currently held.
func (s Snapshot) Authenticated() bool { return s.Session != nil }

// Resolver is the role cascade surface the state handler depends on.
// Satisfied by *RoleResolver.
type Resolver interface {
	Resolve(ctx context.Context, identity *provider.Identity) Resolution
}

// StateHandler owns the auth state machine. It consumes provider events,
// applies the session part synchronously, and runs the role resolution
// cascade on a spawned goroutine so event delivery never blocks on the
// database. Loading flips false only after the cascade settles.
type StateHandler struct {
	resolver Resolver

	mu    sync.Mutex
	wg    sync.WaitGroup
	state Snapshot

	// pending* hold a resolution deferred behind a forced password change.
	pendingRole    Role
	pendingCompany *CompanyUserData

	ctx context.Context
}

// NewStateHandler creates a handler in the unauthenticated phase. The
// resolver runs the role cascade; ctx bounds the spawned cascade work and
// is usually the daemon's run context.
func NewStateHandler(ctx context.Context, resolver Resolver) *StateHandler {
	if ctx == nil {
		ctx = context.Background()
	}

	return &StateHandler{
		resolver: resolver,
		state:    Snapshot{Phase: PhaseUnauthenticated},
		ctx:      ctx,
	}
}

// State returns a copy of the current state.
func (h *StateHandler) State() Snapshot {
	h.mu.Lock()
	defer h.mu.Unlock()

	return h.state
}

// BeginAuthenticating marks a credential exchange in flight. Called by the
// sign-in orchestrator before it touches the provider.
func (h *StateHandler) BeginAuthenticating() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.state.Phase == PhaseUnauthenticated {
		h.state.Phase = PhaseAuthenticating
		h.state.Loading = true
	}
}

// EndAuthenticating reverts a failed credential exchange. A successful one
// is ended by the SignedIn event instead.
func (h *StateHandler) EndAuthenticating() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.state.Phase == PhaseAuthenticating {
		h.state.Phase = PhaseUnauthenticated
		h.state.Loading = false
		h.state.Initialized = true
	}
}

// HandleEvent consumes one provider event. Safe to call from any
// goroutine; the session part of the state is updated before it returns.
func (h *StateHandler) HandleEvent(event provider.Event, session *provider.Session) {
	// an unauthenticated InitialSession carries no session and clears
	if session == nil && event != provider.SignedOut && event != provider.InitialSession {
		log.Warn().Str("event", string(event)).Msg("auth event without a session, ignoring")
		return
	}

	h.mu.Lock()

	next, ok := transitions[h.state.Phase][event]
	if !ok || session == nil {
		if !ok {
			log.Debug().Str("event", string(event)).Str("phase", string(h.state.Phase)).
				Msg("auth event not valid in current phase")
		}

		if event == provider.SignedOut || (event == provider.InitialSession && session == nil) {
			h.clearLocked()
		}

		h.mu.Unlock()

		return
	}

	switch event {
	case provider.TokenRefreshed:
		// rotated tokens only, the resolved role stays untouched
		h.state.Session = session
		h.state.User = &session.User
		h.state.Phase = next
		h.mu.Unlock()

		return
	case provider.SignedIn, provider.InitialSession:
		if h.sameSessionLocked(session) {
			h.mu.Unlock()
			return
		}

		h.state.Session = session
		h.state.User = &session.User
		h.state.Loading = true
		h.state.Phase = next

		user := &session.User
		h.wg.Add(1)
		h.mu.Unlock()

		// resolution is deliberately deferred off the event path
		go h.runCascade(user)

		return
	case provider.SignedOut:
		h.clearLocked()
		h.mu.Unlock()

		return
	default:
		h.mu.Unlock()
	}
}

// sameSessionLocked reports whether session is the one already applied and
// resolved, making the event a duplicate.
func (h *StateHandler) sameSessionLocked(session *provider.Session) bool {
	return h.state.Session != nil &&
		h.state.Session.AccessToken == session.AccessToken &&
		h.state.Phase == PhaseReady
}

func (h *StateHandler) runCascade(user *provider.Identity) {
	defer h.wg.Done()

	res := h.resolver.Resolve(h.ctx, user)

	h.mu.Lock()
	defer h.mu.Unlock()

	// the session may have been torn down while the cascade ran
	if h.state.Session == nil || h.state.User == nil || h.state.User.ID != user.ID {
		return
	}

	h.applyResolutionLocked(res)
	h.state.Loading = false
	h.state.Initialized = true
	h.state.Phase = PhaseReady
}

// applyResolutionLocked installs a cascade outcome. A forced password
// change defers role population until the change completes.
func (h *StateHandler) applyResolutionLocked(res Resolution) {
	if res.NeedsPasswordChange {
		h.state.NeedsPasswordChange = true
		h.state.Role = ""
		h.state.CompanyData = nil
		h.pendingRole = res.Role
		h.pendingCompany = res.CompanyData

		return
	}

	h.state.NeedsPasswordChange = false
	h.state.Role = res.Role
	h.state.CompanyData = res.CompanyData
	h.pendingRole = ""
	h.pendingCompany = nil
}

// CompletePasswordChange installs the resolution that was deferred behind
// a forced password change. No-op when nothing was deferred.
func (h *StateHandler) CompletePasswordChange() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.state.NeedsPasswordChange = false

	if h.pendingRole != "" {
		h.state.Role = h.pendingRole
		h.state.CompanyData = h.pendingCompany
		h.pendingRole = ""
		h.pendingCompany = nil
	}
}

// ApplyResolution installs a fresh cascade outcome outside the event path,
// for explicit role re-resolution.
func (h *StateHandler) ApplyResolution(res Resolution) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.state.Session == nil {
		return
	}

	h.applyResolutionLocked(res)
}

func (h *StateHandler) clearLocked() {
	h.state = Snapshot{
		Phase:       PhaseUnauthenticated,
		Initialized: true,
	}
	h.pendingRole = ""
	h.pendingCompany = nil
}

// WaitSettled blocks until every spawned role cascade has finished.
// Intended for orchestrators and tests that need the post-cascade state.
func (h *StateHandler) WaitSettled() {
	h.wg.Wait()
}

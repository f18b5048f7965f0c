package provider

import (
	"sync"
)

// Event identifies an auth state change emitted by the provider binding.
type Event string

const (
	// SignedIn is emitted after a successful password or sign-up auth.
	SignedIn Event = "SIGNED_IN"
	// SignedOut is emitted after sign-out, local or provider-side.
	SignedOut Event = "SIGNED_OUT"
	// TokenRefreshed is emitted after a successful session refresh.
	TokenRefreshed Event = "TOKEN_REFRESHED"
	// InitialSession is emitted once at startup with the persisted session,
	// or with a nil session when nothing was persisted.
	InitialSession Event = "INITIAL_SESSION"
)

// Callback receives an event and the session it applies to. The session is
// nil for SignedOut and for an unauthenticated InitialSession.
type Callback func(event Event, session *Session)

// dispatcher fans auth state changes out to subscribers. Callbacks run
// synchronously in subscription order; subscribers defer their own slow
// work.
type dispatcher struct {
	mu     sync.Mutex
	nextID int
	subs   map[int]Callback
}

func newDispatcher() *dispatcher {
	return &dispatcher{subs: make(map[int]Callback)}
}

// subscribe registers cb and returns an unsubscribe func.
func (d *dispatcher) subscribe(cb Callback) func() {
	d.mu.Lock()
	id := d.nextID
	d.nextID++
	d.subs[id] = cb
	d.mu.Unlock()

	return func() {
		d.mu.Lock()
		delete(d.subs, id)
		d.mu.Unlock()
	}
}

// emit delivers the event to every subscriber.
func (d *dispatcher) emit(event Event, session *Session) {
	d.mu.Lock()
	cbs := make([]Callback, 0, len(d.subs))
	for _, cb := range d.subs {
		cbs = append(cbs, cb)
	}
	d.mu.Unlock()

	for _, cb := range cbs {
		cb(event, session)
	}
}

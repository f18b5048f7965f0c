// Package auth implements the authentication session lifecycle engine.
//
// The engine orchestrates everything between the identity provider and the
// application: it validates and refreshes bearer sessions, derives the one
// authoritative application role for the current identity from the
// relational store, reacts to provider auth events without blocking
// callers, and performs an idempotent sign-out that cannot fail from the
// caller's perspective.
//
// # Components
//
// Validator decides valid / needs-refresh / invalid for a session, without
// network calls when the session is supplied and not near expiry.
//
// Refresher performs the refresh round-trip with bounded linear-backoff
// retry and terminal-error classification.
//
// RoleResolver runs the role resolution cascade: producer registry, company
// ownership, stored profile, company membership, then the student fallback.
// The first matching branch wins.
//
// StateHandler is the hub: a finite-state machine over provider events
// that applies identity/session updates synchronously and runs role
// resolution in a background task, so callers observing Loading == false
// can assume role data has settled.
//
// Monitor re-validates the session on a timer and forces a clean logout
// when refresh is terminally impossible.
//
// Cleaner purges every locally persisted auth artifact; it is the single
// answer to corrupted or revoked token material.
//
// The sign-in and sign-out orchestration lives on Engine, which wires the
// components together and exposes the surface the rest of the platform
// consumes.
package auth

// Package auth provides authentication middleware for the web surface.
//
// The middleware validates the web session cookie against the session
// store and rejects unauthenticated requests to protected endpoints with
// a JSON 401. The login, signup, logout and password recovery endpoints
// stay reachable without a session; logout in particular must work for a
// client holding only broken cookies.
//
// Usage:
//
//	app.Use(authmiddleware.Middleware)
package auth

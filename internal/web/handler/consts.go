package handler

const (
	// RootPath is the root path of the route group.
	RootPath = "/"

	// SessionCookie is the name of the web session cookie.
	SessionCookie = "authcore_session"

	// ErrNilACEFatalLogMsg is used if the app, cfg or engine pointer is nil.
	ErrNilACEFatalLogMsg = "app, cfg or engine is nil"
)

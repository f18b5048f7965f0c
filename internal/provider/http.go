package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

const defaultTimeout = 10 * time.Second

// HTTPConfig configures the HTTP provider adapter.
type HTTPConfig struct {
	// BaseURL of the provider's auth API, without trailing slash.
	BaseURL string
	// AnonKey is sent as the api key on every request.
	AnonKey string
	// ServiceKey authorizes admin user provisioning.
	ServiceKey string
	// JWTSecret verifies access token signatures locally when set.
	JWTSecret string
	// Timeout bounds each round-trip. Defaults to 10s.
	Timeout time.Duration
	// Client overrides the HTTP client, used in tests.
	Client *http.Client
	// Store persists the session artifact. Required.
	Store TokenStore
}

// HTTPClient is the Client implementation over the provider's REST API.
type HTTPClient struct {
	cfg    HTTPConfig
	http   *http.Client
	store  TokenStore
	events *dispatcher

	mu      sync.Mutex
	current *Session
	loaded  bool
}

var _ Client = (*HTTPClient)(nil)

// NewHTTPClient creates a provider client for the given config.
func NewHTTPClient(cfg HTTPConfig) *HTTPClient {
	hc := cfg.Client
	if hc == nil {
		timeout := cfg.Timeout
		if timeout == 0 {
			timeout = defaultTimeout
		}

		hc = &http.Client{Timeout: timeout}
	}

	return &HTTPClient{
		cfg:    cfg,
		http:   hc,
		store:  cfg.Store,
		events: newDispatcher(),
	}
}

// OnAuthStateChange subscribes to auth events.
func (c *HTTPClient) OnAuthStateChange(cb Callback) func() {
	return c.events.subscribe(cb)
}

// EmitInitialSession loads the persisted session and announces it. A corrupt
// artifact is dropped and announced as logged out; the validator path will
// route the terminal error to cleanup on its next check.
func (c *HTTPClient) EmitInitialSession(ctx context.Context) {
	s, err := c.GetSession(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("persisted session unusable at startup")
		s = nil
	}

	c.events.emit(InitialSession, s)
}

// GetSession returns the current session, loading the persisted artifact on
// first call. (nil, nil) is the normal logged-out case.
func (c *HTTPClient) GetSession(_ context.Context) (*Session, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.loaded {
		return c.current, nil
	}

	s, err := c.store.Load()
	if err != nil {
		c.loaded = true
		return nil, err
	}

	c.current = s
	c.loaded = true

	return c.current, nil
}

// SignInWithPassword authenticates with the password grant.
func (c *HTTPClient) SignInWithPassword(ctx context.Context, email, password string) (*Session, error) {
	body := map[string]string{"email": email, "password": password}

	var wire sessionResponse
	if err := c.do(ctx, http.MethodPost, "/token?grant_type=password", c.cfg.AnonKey, "", body, &wire); err != nil {
		return nil, err
	}

	s := c.sessionFromWire(&wire)
	c.setSession(s)
	c.events.emit(SignedIn, s)

	return s, nil
}

// SignUp registers a new identity. Providers requiring email confirmation
// return an identity without tokens; only a live session is held.
func (c *HTTPClient) SignUp(ctx context.Context, email, password string, metadata map[string]interface{}) (*Session, error) {
	body := map[string]interface{}{"email": email, "password": password}
	if len(metadata) > 0 {
		body["data"] = metadata
	}

	var wire sessionResponse
	if err := c.do(ctx, http.MethodPost, "/signup", c.cfg.AnonKey, "", body, &wire); err != nil {
		return nil, err
	}

	s := c.sessionFromWire(&wire)
	if s.HasTokens() {
		c.setSession(s)
		c.events.emit(SignedIn, s)
	}

	return s, nil
}

// RefreshSession exchanges the current refresh token for a fresh pair.
func (c *HTTPClient) RefreshSession(ctx context.Context) (*Session, error) {
	cur, err := c.GetSession(ctx)
	if err != nil {
		return nil, err
	}

	if cur == nil || cur.RefreshToken == "" {
		return nil, &Error{Code: CodeSessionMissing, Message: "no refresh token held"}
	}

	body := map[string]string{"refresh_token": cur.RefreshToken}

	var wire sessionResponse
	if err := c.do(ctx, http.MethodPost, "/token?grant_type=refresh_token", c.cfg.AnonKey, "", body, &wire); err != nil {
		return nil, err
	}

	// new session fully replaces the old one, no partial merge
	s := c.sessionFromWire(&wire)
	c.setSession(s)
	c.events.emit(TokenRefreshed, s)

	return s, nil
}

// RevokeSession invalidates a session provider-side. No local effects.
func (c *HTTPClient) RevokeSession(ctx context.Context, accessToken string, scope SignOutScope) error {
	path := "/logout"
	if scope != "" {
		path += "?scope=" + url.QueryEscape(string(scope))
	}

	return c.do(ctx, http.MethodPost, path, c.cfg.AnonKey, accessToken, nil, nil)
}

// ClearLocalSession drops held and persisted session state and emits
// SignedOut. Store failures are logged, not surfaced: the in-memory clear
// already happened and the artifact will be overwritten on next sign-in.
func (c *HTTPClient) ClearLocalSession() {
	c.mu.Lock()
	c.current = nil
	c.loaded = true
	c.mu.Unlock()

	if err := c.store.Clear(); err != nil {
		log.Warn().Err(err).Msg("failed to clear persisted session artifact")
	}

	c.events.emit(SignedOut, nil)
}

// UpdateUser patches the current identity.
func (c *HTTPClient) UpdateUser(ctx context.Context, attrs UserAttributes) (*Identity, error) {
	cur, err := c.GetSession(ctx)
	if err != nil {
		return nil, err
	}

	if cur == nil || cur.AccessToken == "" {
		return nil, &Error{Code: CodeSessionMissing, Message: "no session to update"}
	}

	var updated Identity
	if err := c.do(ctx, http.MethodPut, "/user", c.cfg.AnonKey, cur.AccessToken, attrs, &updated); err != nil {
		return nil, err
	}

	// keep the held identity in sync
	c.mu.Lock()
	if c.current != nil {
		c.current.User = updated
	}
	cur = c.current
	c.mu.Unlock()

	if cur != nil {
		if err := c.store.Save(cur); err != nil {
			log.Warn().Err(err).Msg("failed to persist updated identity")
		}
	}

	return &updated, nil
}

// ResetPasswordForEmail triggers the provider's recovery email flow.
func (c *HTTPClient) ResetPasswordForEmail(ctx context.Context, email, redirectTo string) error {
	path := "/recover"
	if redirectTo != "" {
		path += "?redirect_to=" + url.QueryEscape(redirectTo)
	}

	return c.do(ctx, http.MethodPost, path, c.cfg.AnonKey, "", map[string]string{"email": email}, nil)
}

// AdminCreateUser provisions a confirmed identity with the service key.
func (c *HTTPClient) AdminCreateUser(ctx context.Context, email, password string, metadata map[string]interface{}) (*Identity, error) {
	if c.cfg.ServiceKey == "" {
		return nil, &Error{Code: CodeForbidden, Message: "no service key configured"}
	}

	body := map[string]interface{}{
		"email":         email,
		"password":      password,
		"email_confirm": true,
	}
	if len(metadata) > 0 {
		body["user_metadata"] = metadata
	}

	var created Identity
	if err := c.do(ctx, http.MethodPost, "/admin/users", c.cfg.ServiceKey, c.cfg.ServiceKey, body, &created); err != nil {
		return nil, err
	}

	return &created, nil
}

// sessionResponse is the provider's token endpoint wire format.
type sessionResponse struct {
	AccessToken  string   `json:"access_token"`
	TokenType    string   `json:"token_type"`
	ExpiresIn    int64    `json:"expires_in"`
	ExpiresAt    int64    `json:"expires_at"`
	RefreshToken string   `json:"refresh_token"`
	User         Identity `json:"user"`

	// /signup without auto-confirm returns a bare identity
	ID    string `json:"id"`
	Email string `json:"email"`
}

// sessionFromWire normalizes a token response. Expiry preference: explicit
// expires_at, then the access token's own exp claim, then now+expires_in.
func (c *HTTPClient) sessionFromWire(wire *sessionResponse) *Session {
	s := &Session{
		AccessToken:  wire.AccessToken,
		RefreshToken: wire.RefreshToken,
		TokenType:    wire.TokenType,
		User:         wire.User,
	}

	if s.User.ID == "" && wire.ID != "" {
		s.User = Identity{ID: wire.ID, Email: wire.Email}
	}

	switch {
	case wire.ExpiresAt > 0:
		s.ExpiresAt = time.Unix(wire.ExpiresAt, 0)
	case s.AccessToken != "":
		if claims, err := ParseAccessToken(s.AccessToken, c.cfg.JWTSecret); err == nil {
			s.ExpiresAt = claims.ExpiresAt
		} else if wire.ExpiresIn > 0 {
			s.ExpiresAt = time.Now().Add(time.Duration(wire.ExpiresIn) * time.Second)
		}
	case wire.ExpiresIn > 0:
		s.ExpiresAt = time.Now().Add(time.Duration(wire.ExpiresIn) * time.Second)
	}

	return s
}

func (c *HTTPClient) setSession(s *Session) {
	c.mu.Lock()
	c.current = s
	c.loaded = true
	c.mu.Unlock()

	if err := c.store.Save(s); err != nil {
		log.Warn().Err(err).Msg("failed to persist session artifact")
	}
}

// errorResponse covers the provider's error body variants.
type errorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
	ErrorCode        string `json:"error_code"`
	Msg              string `json:"msg"`
	Message          string `json:"message"`
}

func (e *errorResponse) text() string {
	for _, s := range []string{e.ErrorDescription, e.Msg, e.Message, e.Error} {
		if s != "" {
			return s
		}
	}

	return ""
}

// do performs one provider round-trip with classified errors.
func (c *HTTPClient) do(ctx context.Context, method, path, apiKey, bearer string, body, out interface{}) error {
	var reader io.Reader

	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return &Error{Code: CodeUnknown, Message: "request encode failed: " + err.Error()}
		}

		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.cfg.BaseURL+path, reader)
	if err != nil {
		return &Error{Code: CodeUnknown, Message: err.Error()}
	}

	req.Header.Set("apikey", apiKey)
	req.Header.Set("Content-Type", "application/json")

	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return classifyTransport(err)
	}
	defer resp.Body.Close() //nolint:errcheck

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return classifyTransport(err)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		var eresp errorResponse
		_ = json.Unmarshal(raw, &eresp) //nolint:errcheck // body may be empty

		return classifyBody(resp.StatusCode, eresp.ErrorCode+" "+eresp.Error, eresp.text())
	}

	if out != nil && len(raw) > 0 {
		if err := json.Unmarshal(raw, out); err != nil {
			return &Error{Code: CodeUnknown, Message: "response decode failed: " + err.Error()}
		}
	}

	return nil
}

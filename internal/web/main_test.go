package web

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/storage/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/alexandrevcalmon/authcore/internal/auth"
	"github.com/alexandrevcalmon/authcore/internal/config"
	"github.com/alexandrevcalmon/authcore/internal/db/models"
	"github.com/alexandrevcalmon/authcore/internal/provider"
	"github.com/alexandrevcalmon/authcore/internal/web/handler"
	"github.com/alexandrevcalmon/authcore/internal/web/session"
)

// stubProvider implements provider.Client with one accepted credential
// pair.
type stubProvider struct {
	email    string
	password string
	userID   string

	events []provider.Callback

	session *provider.Session
}

func (s *stubProvider) emit(event provider.Event, sess *provider.Session) {
	for _, cb := range s.events {
		cb(event, sess)
	}
}

func (s *stubProvider) SignInWithPassword(_ context.Context, email, password string) (*provider.Session, error) {
	if email != s.email || password != s.password {
		return nil, &provider.Error{Code: provider.CodeInvalidCredentials, Message: "invalid login credentials"}
	}

	s.session = &provider.Session{
		AccessToken:  "access",
		RefreshToken: "refresh",
		TokenType:    "bearer",
		ExpiresAt:    time.Now().Add(time.Hour),
		User:         provider.Identity{ID: s.userID, Email: email},
	}
	s.emit(provider.SignedIn, s.session)

	return s.session, nil
}

func (s *stubProvider) SignUp(_ context.Context, email, _ string, metadata map[string]interface{}) (*provider.Session, error) {
	s.session = &provider.Session{
		AccessToken:  "access",
		RefreshToken: "refresh",
		TokenType:    "bearer",
		ExpiresAt:    time.Now().Add(time.Hour),
		User:         provider.Identity{ID: "new-user", Email: email, Metadata: metadata},
	}
	s.emit(provider.SignedIn, s.session)

	return s.session, nil
}

func (s *stubProvider) RevokeSession(_ context.Context, _ string, _ provider.SignOutScope) error {
	return nil
}

func (s *stubProvider) ClearLocalSession() {
	s.session = nil
	s.emit(provider.SignedOut, nil)
}

func (s *stubProvider) GetSession(_ context.Context) (*provider.Session, error) {
	return s.session, nil
}

func (s *stubProvider) RefreshSession(_ context.Context) (*provider.Session, error) {
	if s.session == nil {
		return nil, &provider.Error{Code: provider.CodeSessionMissing, Message: "session not found"}
	}

	s.emit(provider.TokenRefreshed, s.session)

	return s.session, nil
}

func (s *stubProvider) UpdateUser(_ context.Context, _ provider.UserAttributes) (*provider.Identity, error) {
	if s.session == nil {
		return nil, &provider.Error{Code: provider.CodeSessionMissing, Message: "session not found"}
	}

	return &s.session.User, nil
}

func (s *stubProvider) ResetPasswordForEmail(_ context.Context, _, _ string) error { return nil }

func (s *stubProvider) AdminCreateUser(_ context.Context, email, _ string, metadata map[string]interface{}) (*provider.Identity, error) {
	return &provider.Identity{ID: "admin-" + email, Email: email, Metadata: metadata}, nil
}

func (s *stubProvider) OnAuthStateChange(cb provider.Callback) func() {
	s.events = append(s.events, cb)

	return func() {}
}

func (s *stubProvider) EmitInitialSession(_ context.Context) {
	s.emit(provider.InitialSession, s.session)
}

func testConfig() *config.Config {
	return &config.Config{
		DevMode: true,
		Title:   "authcore-test",
		Webserver: config.Webserver{
			Port: 8080,
			Session: config.Session{
				ExpiryTime: time.Hour,
			},
		},
	}
}

func newTestService(t *testing.T, stub *stubProvider) *Service {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.Producer{},
		&models.Company{},
		&models.CompanyUser{},
		&models.Profile{},
	))

	session.Init(memory.New())

	engine := auth.New(context.Background(), auth.Config{
		Provider: stub,
		DB:       db,
		Storage:  memory.New(),
	})
	engine.Start(context.Background())
	t.Cleanup(engine.Close)

	svc, err := New(testConfig(), engine)
	require.NoError(t, err)
	svc.alive.Store(true)

	return svc
}

func postJSON(t *testing.T, app *fiber.App, path string, body map[string]string, cookies ...*http.Cookie) *http.Response {
	t.Helper()

	payload, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")

	for _, c := range cookies {
		req.AddCookie(c)
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)

	return resp
}

func decodeState(t *testing.T, resp *http.Response) handler.StateResponse {
	t.Helper()

	var state handler.StateResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&state))

	return state
}

func sessionCookie(resp *http.Response) *http.Cookie {
	for _, c := range resp.Cookies() {
		if c.Name == handler.SessionCookie {
			return c
		}
	}

	return nil
}

func TestLoginSuccess(t *testing.T) {
	stub := &stubProvider{email: "user@example.com", password: "secret", userID: "user-1"}
	svc := newTestService(t, stub)

	resp := postJSON(t, svc.App, "/auth/login", map[string]string{
		"email":    "user@example.com",
		"password": "secret",
	})

	require.Equal(t, http.StatusOK, resp.StatusCode)

	state := decodeState(t, resp)
	assert.True(t, state.Authenticated)
	assert.Equal(t, "user-1", state.UserID)
	assert.Equal(t, "student", state.Role)
	assert.False(t, state.Loading)

	cookie := sessionCookie(resp)
	require.NotNil(t, cookie, "login must set the session cookie")
	assert.NotEmpty(t, cookie.Value)
	assert.True(t, cookie.HttpOnly)
}

func TestLoginInvalidCredentials(t *testing.T) {
	stub := &stubProvider{email: "user@example.com", password: "secret", userID: "user-1"}
	svc := newTestService(t, stub)

	resp := postJSON(t, svc.App, "/auth/login", map[string]string{
		"email":    "user@example.com",
		"password": "wrong",
	})

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Nil(t, sessionCookie(resp))
}

func TestLoginMissingFields(t *testing.T) {
	svc := newTestService(t, &stubProvider{})

	resp := postJSON(t, svc.App, "/auth/login", map[string]string{"email": "user@example.com"})

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestSessionInfoRequiresAuth(t *testing.T) {
	svc := newTestService(t, &stubProvider{})

	req := httptest.NewRequest(http.MethodGet, "/auth/session", nil)
	resp, err := svc.App.Test(req, -1)
	require.NoError(t, err)

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestSessionInfoAfterLogin(t *testing.T) {
	stub := &stubProvider{email: "user@example.com", password: "secret", userID: "user-1"}
	svc := newTestService(t, stub)

	login := postJSON(t, svc.App, "/auth/login", map[string]string{
		"email":    "user@example.com",
		"password": "secret",
	})
	cookie := sessionCookie(login)
	require.NotNil(t, cookie)

	req := httptest.NewRequest(http.MethodGet, "/auth/session", nil)
	req.AddCookie(&http.Cookie{Name: cookie.Name, Value: cookie.Value})

	resp, err := svc.App.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	state := decodeState(t, resp)
	assert.True(t, state.Authenticated)
	assert.Equal(t, "user-1", state.UserID)
}

func TestLogoutClearsSession(t *testing.T) {
	stub := &stubProvider{email: "user@example.com", password: "secret", userID: "user-1"}
	svc := newTestService(t, stub)

	login := postJSON(t, svc.App, "/auth/login", map[string]string{
		"email":    "user@example.com",
		"password": "secret",
	})
	cookie := sessionCookie(login)
	require.NotNil(t, cookie)

	resp := postJSON(t, svc.App, "/auth/logout", nil,
		&http.Cookie{Name: cookie.Name, Value: cookie.Value})

	require.Equal(t, http.StatusOK, resp.StatusCode)

	state := decodeState(t, resp)
	assert.False(t, state.Authenticated)

	cleared := sessionCookie(resp)
	require.NotNil(t, cleared)
	assert.Empty(t, cleared.Value)

	// the web session must be gone from the store
	req := httptest.NewRequest(http.MethodGet, "/auth/session", nil)
	req.AddCookie(&http.Cookie{Name: cookie.Name, Value: cookie.Value})

	after, err := svc.App.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, after.StatusCode)
}

func TestLogoutWithoutSessionSucceeds(t *testing.T) {
	svc := newTestService(t, &stubProvider{})

	resp := postJSON(t, svc.App, "/auth/logout", nil)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestResetPasswordOpenEndpoint(t *testing.T) {
	svc := newTestService(t, &stubProvider{})

	resp := postJSON(t, svc.App, "/auth/reset-password", map[string]string{
		"email": "user@example.com",
	})

	assert.Equal(t, http.StatusAccepted, resp.StatusCode)
}

func TestProducerLoginRejected(t *testing.T) {
	stub := &stubProvider{email: "user@example.com", password: "secret", userID: "user-1"}
	svc := newTestService(t, stub)

	// the user exists but is not a producer
	resp := postJSON(t, svc.App, "/auth/login", map[string]string{
		"email":    "user@example.com",
		"password": "secret",
		"role":     "producer",
	})

	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestHealthzTracksLiveness(t *testing.T) {
	svc := newTestService(t, &stubProvider{})

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	resp, err := svc.App.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	svc.alive.Store(false)

	resp, err = svc.App.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

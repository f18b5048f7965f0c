package provider

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memTokenStore is an in-memory TokenStore for client tests.
type memTokenStore struct {
	mu  sync.Mutex
	raw []byte
}

func (m *memTokenStore) Load() (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.raw) == 0 {
		return nil, nil
	}

	var s Session
	if err := json.Unmarshal(m.raw, &s); err != nil {
		return nil, &Error{Code: CodeRefreshTokenInvalid, Message: "persisted session corrupt"}
	}

	return &s, nil
}

func (m *memTokenStore) Save(s *Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	raw, err := json.Marshal(s)
	if err != nil {
		return err
	}

	m.raw = raw

	return nil
}

func (m *memTokenStore) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.raw = nil

	return nil
}

func newTestClient(t *testing.T, handler http.HandlerFunc) (*HTTPClient, *memTokenStore) {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	store := &memTokenStore{}

	return NewHTTPClient(HTTPConfig{
		BaseURL: srv.URL,
		AnonKey: "anon-key",
		Store:   store,
	}), store
}

func writeJSON(w http.ResponseWriter, status int, body map[string]interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func tokenResponse(access, refresh string, expiresAt int64) map[string]interface{} {
	return map[string]interface{}{
		"access_token":  access,
		"refresh_token": refresh,
		"token_type":    "bearer",
		"expires_at":    expiresAt,
		"user": map[string]interface{}{
			"id":    "user-1",
			"email": "user@example.com",
		},
	}
}

func TestSignInWithPassword(t *testing.T) {
	expiresAt := time.Now().Add(time.Hour).Unix()

	client, store := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/token", r.URL.Path)
		require.Equal(t, "password", r.URL.Query().Get("grant_type"))
		require.Equal(t, "anon-key", r.Header.Get("apikey"))

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, "user@example.com", body["email"])

		writeJSON(w, http.StatusOK, tokenResponse("acc-1", "ref-1", expiresAt))
	})

	var events []Event

	client.OnAuthStateChange(func(event Event, _ *Session) {
		events = append(events, event)
	})

	session, err := client.SignInWithPassword(context.Background(), "user@example.com", "secret")

	require.NoError(t, err)
	assert.Equal(t, "acc-1", session.AccessToken)
	assert.Equal(t, "user-1", session.User.ID)
	assert.Equal(t, expiresAt, session.ExpiresAt.Unix())
	assert.Equal(t, []Event{SignedIn}, events)

	// artifact persisted
	persisted, err := store.Load()
	require.NoError(t, err)
	require.NotNil(t, persisted)
	assert.Equal(t, "acc-1", persisted.AccessToken)
}

func TestSignInWithPasswordRejected(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{
			"error":             "invalid_grant",
			"error_description": "Invalid login credentials",
		})
	})

	_, err := client.SignInWithPassword(context.Background(), "user@example.com", "wrong")

	require.Error(t, err)
	assert.Equal(t, CodeInvalidCredentials, CodeOf(err))
}

func TestRefreshSessionReplacesWholesale(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("grant_type") {
		case "password":
			writeJSON(w, http.StatusOK, tokenResponse("acc-1", "ref-1", time.Now().Add(time.Hour).Unix()))
		case "refresh_token":
			var body map[string]string
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			require.Equal(t, "ref-1", body["refresh_token"])

			writeJSON(w, http.StatusOK, tokenResponse("acc-2", "ref-2", time.Now().Add(2*time.Hour).Unix()))
		default:
			t.Errorf("unexpected request %s", r.URL.String())
		}
	})

	var events []Event

	client.OnAuthStateChange(func(event Event, _ *Session) {
		events = append(events, event)
	})

	_, err := client.SignInWithPassword(context.Background(), "user@example.com", "secret")
	require.NoError(t, err)

	refreshed, err := client.RefreshSession(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "acc-2", refreshed.AccessToken)
	assert.Equal(t, "ref-2", refreshed.RefreshToken)
	assert.Equal(t, []Event{SignedIn, TokenRefreshed}, events)

	current, err := client.GetSession(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "acc-2", current.AccessToken)
}

func TestRefreshSessionWithoutTokens(t *testing.T) {
	client, _ := newTestClient(t, func(_ http.ResponseWriter, r *http.Request) {
		t.Errorf("unexpected request %s", r.URL.String())
	})

	_, err := client.RefreshSession(context.Background())

	require.Error(t, err)
	assert.Equal(t, CodeSessionMissing, CodeOf(err))
}

func TestRefreshSessionRevokedToken(t *testing.T) {
	client, store := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{
			"error_code": "refresh_token_not_found",
			"msg":        "Invalid Refresh Token: Refresh Token Not Found",
		})
	})

	require.NoError(t, store.Save(&Session{
		AccessToken:  "acc",
		RefreshToken: "ref",
		ExpiresAt:    time.Now().Add(-time.Minute),
	}))

	_, err := client.RefreshSession(context.Background())

	require.Error(t, err)
	pe, ok := AsError(err)
	require.True(t, ok)
	assert.True(t, pe.Terminal())
}

func TestRevokeSessionForbidden(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/logout", r.URL.Path)
		require.Equal(t, "global", r.URL.Query().Get("scope"))
		require.Equal(t, "Bearer acc", r.Header.Get("Authorization"))

		writeJSON(w, http.StatusForbidden, map[string]interface{}{
			"message": "invalid claim: missing sub claim",
		})
	})

	err := client.RevokeSession(context.Background(), "acc", ScopeGlobal)

	require.Error(t, err)
	assert.Equal(t, CodeForbidden, CodeOf(err))
}

func TestGetSessionLoadsPersistedArtifact(t *testing.T) {
	client, store := newTestClient(t, func(_ http.ResponseWriter, r *http.Request) {
		t.Errorf("unexpected request %s", r.URL.String())
	})

	require.NoError(t, store.Save(&Session{
		AccessToken:  "acc",
		RefreshToken: "ref",
		ExpiresAt:    time.Now().Add(time.Hour),
	}))

	session, err := client.GetSession(context.Background())

	require.NoError(t, err)
	require.NotNil(t, session)
	assert.Equal(t, "acc", session.AccessToken)
}

func TestGetSessionCorruptArtifact(t *testing.T) {
	client, store := newTestClient(t, func(_ http.ResponseWriter, r *http.Request) {
		t.Errorf("unexpected request %s", r.URL.String())
	})

	store.raw = []byte("{not json")

	_, err := client.GetSession(context.Background())

	require.Error(t, err)
	pe, ok := AsError(err)
	require.True(t, ok)
	assert.True(t, pe.Terminal())
}

func TestEmitInitialSessionWithCorruptArtifact(t *testing.T) {
	client, store := newTestClient(t, func(_ http.ResponseWriter, r *http.Request) {
		t.Errorf("unexpected request %s", r.URL.String())
	})

	store.raw = []byte("{not json")

	var (
		gotEvent   Event
		gotSession *Session
		called     bool
	)

	client.OnAuthStateChange(func(event Event, session *Session) {
		gotEvent = event
		gotSession = session
		called = true
	})

	client.EmitInitialSession(context.Background())

	require.True(t, called)
	assert.Equal(t, InitialSession, gotEvent)
	assert.Nil(t, gotSession, "a corrupt artifact starts logged out")
}

func TestClearLocalSessionEmitsSignedOut(t *testing.T) {
	client, store := newTestClient(t, func(_ http.ResponseWriter, r *http.Request) {
		t.Errorf("unexpected request %s", r.URL.String())
	})

	require.NoError(t, store.Save(&Session{AccessToken: "acc", RefreshToken: "ref"}))

	var events []Event

	client.OnAuthStateChange(func(event Event, _ *Session) {
		events = append(events, event)
	})

	client.ClearLocalSession()

	assert.Equal(t, []Event{SignedOut}, events)

	persisted, err := store.Load()
	require.NoError(t, err)
	assert.Nil(t, persisted)

	session, err := client.GetSession(context.Background())
	require.NoError(t, err)
	assert.Nil(t, session)
}

func TestAdminCreateUserRequiresServiceKey(t *testing.T) {
	client, _ := newTestClient(t, func(_ http.ResponseWriter, r *http.Request) {
		t.Errorf("unexpected request %s", r.URL.String())
	})

	_, err := client.AdminCreateUser(context.Background(), "x@example.com", "pw", nil)

	require.Error(t, err)
	assert.Equal(t, CodeForbidden, CodeOf(err))
}

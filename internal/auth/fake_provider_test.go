package auth

import (
	"context"
	"sync"
	"time"

	"github.com/alexandrevcalmon/authcore/internal/provider"
)

// fakeClient is a scriptable provider.Client for engine tests.
type fakeClient struct {
	mu sync.Mutex

	session *provider.Session
	getErr  error

	signInFunc  func(email, password string) (*provider.Session, error)
	refreshFunc func() (*provider.Session, error)

	refreshCalls int
	revokeCalls  int
	revokeErr    error
	revokeFunc   func() error
	clearCalls   int

	updatedAttrs []provider.UserAttributes
	adminCreated []string
	resetEmails  []string

	cbs []provider.Callback
}

func (f *fakeClient) emit(event provider.Event, session *provider.Session) {
	f.mu.Lock()
	cbs := append([]provider.Callback(nil), f.cbs...)
	f.mu.Unlock()

	for _, cb := range cbs {
		cb(event, session)
	}
}

func (f *fakeClient) SignInWithPassword(_ context.Context, email, password string) (*provider.Session, error) {
	f.mu.Lock()
	fn := f.signInFunc
	f.mu.Unlock()

	if fn == nil {
		return nil, &provider.Error{Code: provider.CodeInvalidCredentials, Message: "invalid login credentials"}
	}

	session, err := fn(email, password)
	if err != nil {
		return nil, err
	}

	f.mu.Lock()
	f.session = session
	f.mu.Unlock()

	f.emit(provider.SignedIn, session)

	return session, nil
}

func (f *fakeClient) SignUp(_ context.Context, email, _ string, metadata map[string]interface{}) (*provider.Session, error) {
	session := liveSession("signup-user", email)
	session.User.Metadata = metadata

	f.mu.Lock()
	f.session = session
	f.mu.Unlock()

	f.emit(provider.SignedIn, session)

	return session, nil
}

func (f *fakeClient) RevokeSession(_ context.Context, _ string, _ provider.SignOutScope) error {
	f.mu.Lock()
	f.revokeCalls++
	err := f.revokeErr
	fn := f.revokeFunc
	f.mu.Unlock()

	if fn != nil {
		return fn()
	}

	return err
}

func (f *fakeClient) ClearLocalSession() {
	f.mu.Lock()
	f.session = nil
	f.clearCalls++
	f.mu.Unlock()

	f.emit(provider.SignedOut, nil)
}

func (f *fakeClient) GetSession(_ context.Context) (*provider.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.getErr != nil {
		return nil, f.getErr
	}

	return f.session, nil
}

func (f *fakeClient) RefreshSession(_ context.Context) (*provider.Session, error) {
	f.mu.Lock()
	f.refreshCalls++
	fn := f.refreshFunc
	f.mu.Unlock()

	if fn == nil {
		return nil, &provider.Error{Code: provider.CodeSessionMissing, Message: "session not found"}
	}

	session, err := fn()
	if err != nil {
		return nil, err
	}

	f.mu.Lock()
	f.session = session
	f.mu.Unlock()

	f.emit(provider.TokenRefreshed, session)

	return session, nil
}

func (f *fakeClient) UpdateUser(_ context.Context, attrs provider.UserAttributes) (*provider.Identity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.updatedAttrs = append(f.updatedAttrs, attrs)

	if f.session != nil {
		return &f.session.User, nil
	}

	return &provider.Identity{}, nil
}

func (f *fakeClient) ResetPasswordForEmail(_ context.Context, email, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.resetEmails = append(f.resetEmails, email)

	return nil
}

func (f *fakeClient) AdminCreateUser(_ context.Context, email, _ string, metadata map[string]interface{}) (*provider.Identity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.adminCreated = append(f.adminCreated, email)

	return &provider.Identity{ID: "linked-" + email, Email: email, Metadata: metadata}, nil
}

func (f *fakeClient) OnAuthStateChange(cb provider.Callback) func() {
	f.mu.Lock()
	f.cbs = append(f.cbs, cb)
	f.mu.Unlock()

	return func() {}
}

func (f *fakeClient) EmitInitialSession(_ context.Context) {
	f.mu.Lock()
	session := f.session
	f.mu.Unlock()

	f.emit(provider.InitialSession, session)
}

// liveSession builds a session well outside the refresh buffer.
func liveSession(userID, email string) *provider.Session {
	return &provider.Session{
		AccessToken:  "access-" + userID,
		RefreshToken: "refresh-" + userID,
		TokenType:    "bearer",
		ExpiresAt:    time.Now().Add(time.Hour),
		User:         provider.Identity{ID: userID, Email: email},
	}
}

// memStorage is an in-memory gofiber storage for cleanup tests.
type memStorage struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newMemStorage() *memStorage {
	return &memStorage{data: make(map[string][]byte)}
}

func (m *memStorage) Get(key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.data[key], nil
}

func (m *memStorage) Set(key string, val []byte, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.data[key] = val

	return nil
}

func (m *memStorage) Delete(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.data, key)

	return nil
}

func (m *memStorage) Reset() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.data = make(map[string][]byte)

	return nil
}

func (m *memStorage) Close() error { return nil }

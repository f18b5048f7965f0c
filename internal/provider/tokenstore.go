package provider

import (
	"encoding/json"

	"github.com/gofiber/storage"
)

// SessionKey is the storage key holding the persisted session artifact.
const SessionKey = "authcore.session"

// TokenStore persists the session artifact between process runs.
type TokenStore interface {
	Load() (*Session, error)
	Save(s *Session) error
	Clear() error
}

// StorageTokenStore persists the session as JSON in a storage backend
// (mysql in production, memory in tests).
type StorageTokenStore struct {
	storage storage.Storage
}

// NewStorageTokenStore wraps a storage backend as a TokenStore.
func NewStorageTokenStore(s storage.Storage) *StorageTokenStore {
	return &StorageTokenStore{storage: s}
}

// Load reads the persisted session. A missing artifact returns (nil, nil);
// an unreadable one returns a terminal classified error so the caller
// routes it to cleanup instead of retrying.
func (t *StorageTokenStore) Load() (*Session, error) {
	raw, err := t.storage.Get(SessionKey)
	if err != nil {
		return nil, &Error{Code: CodeUnknown, Message: "token store read failed: " + err.Error()}
	}

	if len(raw) == 0 {
		return nil, nil
	}

	var s Session
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, &Error{Code: CodeRefreshTokenInvalid, Message: "persisted session corrupt"}
	}

	return &s, nil
}

// Save persists the session. Session expiry does not bound the storage TTL:
// the refresh token outlives the access token.
func (t *StorageTokenStore) Save(s *Session) error {
	raw, err := json.Marshal(s)
	if err != nil {
		return err
	}

	return t.storage.Set(SessionKey, raw, 0)
}

// Clear removes the persisted session.
func (t *StorageTokenStore) Clear() error {
	return t.storage.Delete(SessionKey)
}

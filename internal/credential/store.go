// Package credential owns the bearer token for the Study Helper API.
// A single Store instance is injected into everything that reads the
// token; readers never touch ambient storage directly.
package credential

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/sagehq/sage/internal/storage"
)

// Storage keys. The token lives under a single fixed key.
const (
	keyAccessToken = "access_token"
	keyClientID    = "client_id"
)

// Listener is notified whenever the stored token changes, including
// when it is cleared on logout.
type Listener func(token string)

// Store persists the bearer token and notifies dependents on change.
type Store struct {
	mu        sync.RWMutex
	token     string
	listeners []Listener
	db        *storage.Storage
}

// NewStore creates a Store backed by the local database. The persisted
// token, if any, is loaded immediately so Token() never blocks on IO.
func NewStore(ctx context.Context, db *storage.Storage) (*Store, error) {
	token, err := db.GetConfig(ctx, keyAccessToken)
	if err != nil {
		return nil, err
	}
	return &Store{token: token, db: db}, nil
}

// NewMemoryStore creates a Store with no persistence (for tests).
func NewMemoryStore(token string) *Store {
	return &Store{token: token}
}

// Token returns the current bearer token, or "" if logged out.
func (s *Store) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// Authenticated reports whether a token is present.
func (s *Store) Authenticated() bool {
	return s.Token() != ""
}

// Set persists a new token and notifies subscribers.
func (s *Store) Set(ctx context.Context, token string) error {
	if s.db != nil {
		if err := s.db.SetConfig(ctx, keyAccessToken, token); err != nil {
			return err
		}
	}

	s.mu.Lock()
	s.token = token
	listeners := make([]Listener, len(s.listeners))
	copy(listeners, s.listeners)
	s.mu.Unlock()

	for _, fn := range listeners {
		fn(token)
	}
	return nil
}

// Clear removes the token entirely. Subscribers see "".
func (s *Store) Clear(ctx context.Context) error {
	if s.db != nil {
		if err := s.db.DeleteConfig(ctx, keyAccessToken); err != nil {
			return err
		}
	}

	s.mu.Lock()
	s.token = ""
	listeners := make([]Listener, len(s.listeners))
	copy(listeners, s.listeners)
	s.mu.Unlock()

	for _, fn := range listeners {
		fn("")
	}
	return nil
}

// Subscribe registers a listener for token changes. Listeners are
// invoked synchronously after the store is updated.
func (s *Store) Subscribe(fn Listener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

// ClientID returns the stable per-install identifier, minting one on
// first use.
func (s *Store) ClientID(ctx context.Context) (string, error) {
	if s.db == nil {
		return uuid.NewString(), nil
	}

	id, err := s.db.GetConfig(ctx, keyClientID)
	if err != nil {
		return "", err
	}
	if id != "" {
		return id, nil
	}

	id = uuid.NewString()
	if err := s.db.SetConfig(ctx, keyClientID, id); err != nil {
		return "", err
	}
	return id, nil
}

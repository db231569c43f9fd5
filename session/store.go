package session

import (
	"context"
	"errors"
	"sync"

	"github.com/veylan/authgate/permission"
)

// ErrPartialCredential is returned by SetCredential when the pair is missing
// either half. The store never accepts a torn pair.
var ErrPartialCredential = errors.New("session: credential pair requires both access and refresh tokens")

// Store is the in-memory session state shared by every component of the
// client: the credential pair plus the cached identity. All methods are safe
// for concurrent use; the pair is read and replaced under one lock so readers
// never observe mixed halves.
type Store struct {
	storage Storage

	mu          sync.RWMutex
	cred        Credential
	hasCred     bool
	identity    permission.Identity
	hasIdentity bool
}

// NewStore returns a Store backed by the given storage. A nil storage falls
// back to in-process [Memory].
func NewStore(storage Storage) *Store {
	if storage == nil {
		storage = NewMemory()
	}
	return &Store{storage: storage}
}

// Hydrate loads any persisted credential pair into memory. It is called once
// during client construction; a missing pair is not an error.
func (s *Store) Hydrate(ctx context.Context) error {
	cred, ok, err := s.storage.Load(ctx)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}
	s.mu.Lock()
	s.cred = cred
	s.hasCred = true
	s.mu.Unlock()
	return nil
}

// Credential returns the current pair. The boolean is false when no session
// is active.
func (s *Store) Credential() (Credential, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cred, s.hasCred
}

// AccessToken returns the current access token, or "" when logged out.
func (s *Store) AccessToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.hasCred {
		return ""
	}
	return s.cred.AccessToken
}

// SetCredential replaces the pair in memory and persists it. A pair missing
// either half is rejected with [ErrPartialCredential] and leaves state
// untouched. Persistence happens under the same lock as the memory swap so
// concurrent readers and writers serialize against whole pairs. When the
// backend write fails the in-memory pair is still updated, so the live
// session keeps working, and the storage error is returned for the caller to
// log.
func (s *Store) SetCredential(ctx context.Context, cred Credential) error {
	if !cred.Complete() {
		return ErrPartialCredential
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cred = cred
	s.hasCred = true
	return s.storage.Store(ctx, cred)
}

// Clear drops the pair and identity from memory and from storage. Memory is
// always cleared even when the backend delete fails; the error is returned
// so the caller can log it. Clearing an empty store is a no-op.
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cred = Credential{}
	s.hasCred = false
	s.identity = permission.Identity{}
	s.hasIdentity = false
	return s.storage.Clear(ctx)
}

// Identity returns the cached identity. The boolean is false when none has
// been fetched since login or hydration.
func (s *Store) Identity() (permission.Identity, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.identity, s.hasIdentity
}

// SetIdentity caches the identity reported by the login or profile endpoint.
func (s *Store) SetIdentity(id permission.Identity) {
	s.mu.Lock()
	s.identity = id
	s.hasIdentity = true
	s.mu.Unlock()
}

// LoggedIn reports whether a complete credential pair is held.
func (s *Store) LoggedIn() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.hasCred
}

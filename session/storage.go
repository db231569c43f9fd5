package session

import (
	"context"
	"sync"
)

// Credential is the access/refresh token pair issued at login. A valid
// credential has both halves; partial pairs are rejected at the Store
// boundary and treated as absent by storage backends.
type Credential struct {
	AccessToken  string
	RefreshToken string
}

// Complete reports whether both halves of the pair are present.
func (c Credential) Complete() bool {
	return c.AccessToken != "" && c.RefreshToken != ""
}

// Storage persists a credential pair across process restarts. Implementations
// must store and clear the pair atomically with respect to their own Load:
// Load never observes one half of a pair without the other.
type Storage interface {
	// Load returns the persisted pair. The boolean is false when no complete
	// pair is stored; a partial pair counts as absent.
	Load(ctx context.Context) (Credential, bool, error)

	// Store persists the pair, replacing any previous one.
	Store(ctx context.Context, cred Credential) error

	// Clear removes the persisted pair. Clearing an empty storage is not an
	// error.
	Clear(ctx context.Context) error
}

// Memory is an in-process Storage. It is the default backend when none is
// configured and the usual choice in tests.
type Memory struct {
	mu   sync.Mutex
	cred Credential
	set  bool
}

// NewMemory returns an empty in-process storage.
func NewMemory() *Memory {
	return &Memory{}
}

func (m *Memory) Load(context.Context) (Credential, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.set || !m.cred.Complete() {
		return Credential{}, false, nil
	}
	return m.cred, true, nil
}

func (m *Memory) Store(_ context.Context, cred Credential) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cred = cred
	m.set = true
	return nil
}

func (m *Memory) Clear(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cred = Credential{}
	m.set = false
	return nil
}

// Package credentials provides credential store backends: process memory
// and a JSON file shared across restarts, plus a watcher for changes made
// by other processes.
package credentials

import (
	"context"
	"sync"

	talent "github.com/goliatone/go-talent-session"
)

var (
	_ talent.CredentialStore = (*MemoryStore)(nil)
	_ talent.CredentialStore = (*FileStore)(nil)
)

// MemoryStore keeps the credential in process memory
type MemoryStore struct {
	mu    sync.RWMutex
	token string
	set   bool
}

// NewMemoryStore returns an empty store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Save(_ context.Context, token string) error {
	s.mu.Lock()
	s.token = token
	s.set = true
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Read(_ context.Context) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token, s.set, nil
}

func (s *MemoryStore) Clear(_ context.Context) error {
	s.mu.Lock()
	s.token = ""
	s.set = false
	s.mu.Unlock()
	return nil
}

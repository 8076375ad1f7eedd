package session

import (
	"fmt"
	"sync"

	"github.com/dmitrijs2005/tumordetect/internal/common"
)

const sessionIDBytes = 32

// Manager keeps live sessions in memory, keyed by id. Sessions are never
// persisted and never expire.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	newID    func() (string, error)
}

func NewManager() *Manager {
	return &Manager{
		sessions: make(map[string]*Session),
		newID:    func() (string, error) { return common.MakeRandHexString(sessionIDBytes) },
	}
}

// Create registers a fresh anonymous session.
func (m *Manager) Create() (*Session, error) {
	id, err := m.newID()
	if err != nil {
		return nil, fmt.Errorf("failed to generate session ID: %w", err)
	}

	s := New(id)

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.sessions[id]; exists {
		return nil, fmt.Errorf("session id collision")
	}
	m.sessions[id] = s
	return s, nil
}

// Get returns the session registered under id.
func (m *Manager) Get(id string) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	return s, ok
}

// Delete forgets the session. Unknown ids are ignored.
func (m *Manager) Delete(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
}

// Len returns the number of live sessions.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

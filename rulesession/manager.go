package rulesession

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// Manager tracks the open edit sessions of a server process. Sessions are
// keyed by an opaque session ID handed to the client when the edit starts.
type Manager struct {
	svc      RuleService
	sessions map[string]*Session
	mu       sync.RWMutex
}

// NewManager creates a session manager over the given persistence service.
func NewManager(svc RuleService) *Manager {
	return &Manager{
		svc:      svc,
		sessions: make(map[string]*Session),
	}
}

// Open starts a create-mode session and returns its ID.
func (m *Manager) Open() (string, *Session) {
	session := New(m.svc)
	id := uuid.New().String()

	m.mu.Lock()
	m.sessions[id] = session
	m.mu.Unlock()

	return id, session
}

// OpenExisting starts an edit-mode session for the given rule, loading it
// before the session is registered.
func (m *Manager) OpenExisting(ctx context.Context, ruleID string) (string, *Session, error) {
	session := New(m.svc)
	if err := session.Load(ctx, ruleID); err != nil {
		return "", nil, fmt.Errorf("failed to load rule %s: %w", ruleID, err)
	}

	id := uuid.New().String()
	m.mu.Lock()
	m.sessions[id] = session
	m.mu.Unlock()

	return id, session, nil
}

// Get retrieves an open session.
func (m *Manager) Get(id string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	session, exists := m.sessions[id]
	if !exists {
		return nil, fmt.Errorf("session %s not found", id)
	}
	return session, nil
}

// Close discards a session. In-memory form state is dropped; nothing is
// persisted.
func (m *Manager) Close(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.sessions[id]; !exists {
		return fmt.Errorf("session %s not found", id)
	}
	delete(m.sessions, id)
	return nil
}

// List returns the IDs of all open sessions.
func (m *Manager) List() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ids := make([]string, 0, len(m.sessions))
	for id := range m.sessions {
		ids = append(ids, id)
	}
	return ids
}

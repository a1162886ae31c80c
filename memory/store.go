package memory

import "sync"

// SessionStore keeps an independent History per session id. Histories are
// created on first access and live until Delete. Safe for concurrent use.
type SessionStore struct {
	mu       sync.Mutex
	sessions map[string]*History
}

// NewSessionStore creates an empty store.
func NewSessionStore() *SessionStore {
	return &SessionStore{sessions: make(map[string]*History)}
}

// Get returns the history for the session, creating it if absent.
func (s *SessionStore) Get(sessionID string) *History {
	s.mu.Lock()
	defer s.mu.Unlock()
	h, ok := s.sessions[sessionID]
	if !ok {
		h = NewHistory()
		s.sessions[sessionID] = h
	}
	return h
}

// Delete discards the session's history.
func (s *SessionStore) Delete(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, sessionID)
}

// Sessions returns the ids of all live sessions.
func (s *SessionStore) Sessions() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]string, 0, len(s.sessions))
	for id := range s.sessions {
		ids = append(ids, id)
	}
	return ids
}

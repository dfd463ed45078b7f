package server

import (
	"sync"

	"github.com/google/uuid"

	"github.com/chazu/garnet/compiler"
)

// Session is an interactive evaluation session. Its Frame is the runtime
// scope every evaluation compiles against; the locals evaluations create
// are defined on it so later evaluations resolve them by name.
type Session struct {
	ID    string
	Name  string
	Frame *compiler.RuntimeScope

	// Evaluations counts successful evaluation compiles.
	Evaluations int
}

// SessionStore manages evaluation sessions.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewSessionStore creates a new session store.
func NewSessionStore() *SessionStore {
	return &SessionStore{
		sessions: make(map[string]*Session),
	}
}

// Create creates a new session with an optional name. When locals is
// non-empty the session's frame sits inside an enclosing frame whose slots
// are named by locals, the way an evaluation inside a running method sees
// that method's variables.
func (s *SessionStore) Create(name string, locals []string) *Session {
	var outer *compiler.RuntimeScope
	if len(locals) > 0 {
		outer = compiler.NewRuntimeScope(nil, locals)
	}

	session := &Session{
		ID:    uuid.New().String(),
		Name:  name,
		Frame: compiler.NewEvalRuntimeScope(outer),
	}

	s.mu.Lock()
	s.sessions[session.ID] = session
	s.mu.Unlock()

	return session
}

// Get retrieves a session by ID.
func (s *SessionStore) Get(id string) (*Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, ok := s.sessions[id]
	return session, ok
}

// Destroy removes a session. It reports whether the session existed.
func (s *SessionStore) Destroy(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.sessions[id]
	delete(s.sessions, id)
	return ok
}

// Len returns the number of live sessions.
func (s *SessionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

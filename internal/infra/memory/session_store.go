package memory

import (
	"sync"

	"livequiz-service/internal/app"
)

// SessionStore is an in-memory implementation of app.SessionRepository.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*app.Session
}

func NewSessionStore() *SessionStore {
	return &SessionStore{
		sessions: make(map[string]*app.Session),
	}
}

func (s *SessionStore) GetOrCreate(quizID string) *app.Session {
	session, _ := s.Open(quizID)
	return session
}

// Open returns the session for quizID and whether this call created it.
func (s *SessionStore) Open(quizID string) (*app.Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if session, ok := s.sessions[quizID]; ok {
		return session, false
	}
	session := app.NewSession(quizID)
	s.sessions[quizID] = session
	return session, true
}

func (s *SessionStore) Get(quizID string) (*app.Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[quizID]
	return session, ok
}

func (s *SessionStore) DeleteIfEmpty(quizID string) {
	s.Drop(quizID)
}

// Drop removes the session if it has no subscribers and reports whether it did.
func (s *SessionStore) Drop(quizID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[quizID]
	if !ok || !session.IsEmpty() {
		return false
	}
	delete(s.sessions, quizID)
	return true
}

// Count returns the number of live rooms held by this process.
func (s *SessionStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

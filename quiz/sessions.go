package quiz

import (
	"math/rand"
	"sync"
	"time"

	"github.com/lordjav/use-your-brains/models"
	"github.com/lordjav/use-your-brains/utils"
)

// idleExpiry is how long an untouched session survives before cleanup.
// An abandoned session is simply discarded; nothing gets persisted.
const idleExpiry = 2 * time.Hour

// SessionStore holds the live sessions in memory, keyed by session ID.
type SessionStore struct {
	sessions map[string]*Session
	mutex    sync.RWMutex
}

func NewSessionStore() *SessionStore {
	store := &SessionStore{
		sessions: make(map[string]*Session),
	}

	// Start a cleanup goroutine
	go store.cleanupIdleSessions()

	return store
}

func (s *SessionStore) Create(questionnaire *models.Questionnaire, requestedCount int, rng *rand.Rand) (*Session, error) {
	session, err := NewSession(questionnaire, requestedCount, rng)
	if err != nil {
		return nil, err
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.sessions[session.ID()] = session
	return session, nil
}

func (s *SessionStore) Get(sessionID string) (*Session, bool) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	session, exists := s.sessions[sessionID]
	return session, exists
}

func (s *SessionStore) Delete(sessionID string) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	delete(s.sessions, sessionID)
}

func (s *SessionStore) cleanupIdleSessions() {
	ticker := time.NewTicker(15 * time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		if cleaned := s.removeIdleBefore(time.Now().Add(-idleExpiry)); cleaned > 0 {
			utils.LogInfo("Cleaned up %d idle quiz sessions", cleaned)
		}
	}
}

// removeIdleBefore drops every session last touched before the cutoff and
// returns how many were removed.
func (s *SessionStore) removeIdleBefore(cutoff time.Time) int {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	cleaned := 0
	for id, session := range s.sessions {
		if session.LastActive().Before(cutoff) {
			delete(s.sessions, id)
			cleaned++
		}
	}
	return cleaned
}

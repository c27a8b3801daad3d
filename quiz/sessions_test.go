package quiz

import (
	"testing"
	"time"

	"github.com/lordjav/use-your-brains/models"
)

func TestSessionStoreLifecycle(t *testing.T) {
	store := NewSessionStore()
	qn := testQuestionnaire(choiceQuestion("capital", "Madrid", 5, models.Easy))

	session, err := store.Create(qn, 1, testRand())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	got, exists := store.Get(session.ID())
	if !exists || got != session {
		t.Fatalf("Get(%s) = %v exists=%t", session.ID(), got, exists)
	}

	if _, exists := store.Get("no-such-id"); exists {
		t.Errorf("Get on unknown id reported a session")
	}

	store.Delete(session.ID())
	if _, exists := store.Get(session.ID()); exists {
		t.Errorf("session still present after Delete")
	}
}

func TestSessionStoreExpiresIdleSessions(t *testing.T) {
	store := NewSessionStore()
	qn := testQuestionnaire(choiceQuestion("capital", "Madrid", 5, models.Easy))

	idle, err := store.Create(qn, 1, testRand())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	active, err := store.Create(qn, 1, testRand())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	// Age one session past the expiry window.
	idle.mu.Lock()
	idle.lastActive = time.Now().Add(-idleExpiry - time.Minute)
	idle.mu.Unlock()

	if cleaned := store.removeIdleBefore(time.Now().Add(-idleExpiry)); cleaned != 1 {
		t.Fatalf("cleaned %d sessions, want 1", cleaned)
	}

	if _, exists := store.Get(idle.ID()); exists {
		t.Errorf("idle session survived cleanup")
	}
	if _, exists := store.Get(active.ID()); !exists {
		t.Errorf("active session was cleaned up")
	}
}

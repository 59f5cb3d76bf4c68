package memory

import "testing"

func TestSessionStoreLifecycle(t *testing.T) {
	store := NewSessionStore()

	session, created := store.Open("quiz-1")
	if session == nil || !created {
		t.Fatalf("expected new session")
	}
	if again := store.GetOrCreate("quiz-1"); again != session {
		t.Fatalf("expected the same session back")
	}
	if store.Count() != 1 {
		t.Fatalf("expected one room, got %d", store.Count())
	}

	store.DeleteIfEmpty("quiz-1")
	if _, ok := store.Get("quiz-1"); ok {
		t.Fatalf("expected session removed when empty")
	}
	if store.Drop("quiz-1") {
		t.Fatalf("dropping a missing session should report false")
	}
}

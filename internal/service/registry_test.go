package service

import (
	"duelquiz/internal/model"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestCreateInitialState(t *testing.T) {
	r := NewSessionRegistry()
	s, err := r.Create(model.QuizSettings{Title: "Quiz", TimePerQuestionSeconds: 20, ReadDelaySeconds: 3})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if s.Status != model.SessionLobby {
		t.Errorf("status = %q, want lobby", s.Status)
	}
	if s.CurrentIndex != -1 {
		t.Errorf("currentIndex = %d, want -1", s.CurrentIndex)
	}
	if len(s.Participants) != 0 || len(s.History) != 0 || len(s.PendingAnswers) != 0 {
		t.Errorf("session not empty: %+v", s)
	}
	if got, ok := r.Get(s.ID); !ok || got != s {
		t.Errorf("Get(%q) did not return the created session", s.ID)
	}
}

func TestCreateRetriesOnCollision(t *testing.T) {
	r := NewSessionRegistry()
	ids := []string{"AAAAAA", "AAAAAA", "AAAAAA", "BBBBBB"}
	r.newID = func() (string, error) {
		id := ids[0]
		ids = ids[1:]
		return id, nil
	}

	first, err := r.Create(model.QuizSettings{})
	if err != nil {
		t.Fatalf("first Create: %v", err)
	}
	second, err := r.Create(model.QuizSettings{})
	if err != nil {
		t.Fatalf("second Create: %v", err)
	}
	if first.ID != "AAAAAA" || second.ID != "BBBBBB" {
		t.Fatalf("ids = %q, %q; want AAAAAA, BBBBBB", first.ID, second.ID)
	}
}

func TestCreateGivesUpAfterRepeatedCollisions(t *testing.T) {
	r := NewSessionRegistry()
	r.newID = func() (string, error) { return "AAAAAA", nil }

	if _, err := r.Create(model.QuizSettings{}); err != nil {
		t.Fatalf("first Create: %v", err)
	}
	if _, err := r.Create(model.QuizSettings{}); err == nil {
		t.Fatalf("Create succeeded with a colliding id")
	}
	if r.Len() != 1 {
		t.Fatalf("Len = %d, want 1", r.Len())
	}
}

func TestCreatePropagatesGeneratorError(t *testing.T) {
	r := NewSessionRegistry()
	boom := errors.New("entropy exhausted")
	r.newID = func() (string, error) { return "", boom }

	if _, err := r.Create(model.QuizSettings{}); !errors.Is(err, boom) {
		t.Fatalf("Create error = %v, want %v", err, boom)
	}
}

func TestGenerateSessionID(t *testing.T) {
	for i := 0; i < 100; i++ {
		id, err := generateSessionID()
		if err != nil {
			t.Fatalf("generateSessionID: %v", err)
		}
		if len(id) != sessionIDLen {
			t.Fatalf("id %q has length %d, want %d", id, len(id), sessionIDLen)
		}
		for _, c := range id {
			if !strings.ContainsRune(sessionIDChars, c) {
				t.Fatalf("id %q contains %q", id, c)
			}
		}
	}
}

func TestWithUnknownSession(t *testing.T) {
	r := NewSessionRegistry()
	called := false
	err := r.With("NOPE00", func(*model.Session) error {
		called = true
		return nil
	})
	if !errors.Is(err, ErrSessionNotFound) || called {
		t.Fatalf("With = %v (called=%v), want ErrSessionNotFound", err, called)
	}
}

func TestRemoveDropsConnectionIndex(t *testing.T) {
	r := NewSessionRegistry()
	s, _ := r.Create(model.QuizSettings{})
	r.bindConnection("c1", s.ID, model.Slot1)

	if !r.Remove(s.ID) {
		t.Fatalf("Remove = false, want true")
	}
	if _, ok := r.connection("c1"); ok {
		t.Fatalf("connection index still holds c1")
	}
	if r.Remove(s.ID) {
		t.Fatalf("second Remove = true, want false")
	}
}

func TestExpired(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	r := NewSessionRegistry()
	r.now = clock.Now

	idle, _ := r.Create(model.QuizSettings{})
	clock.Advance(30 * time.Minute)
	busy, _ := r.Create(model.QuizSettings{})
	done, _ := r.Create(model.QuizSettings{})
	_ = r.With(done.ID, func(s *model.Session) error {
		finished := clock.Now()
		s.Status = model.SessionDone
		s.FinishedAt = &finished
		return nil
	})

	clock.Advance(45 * time.Minute)
	_ = r.With(busy.ID, func(*model.Session) error { return nil })

	got := r.Expired(clock.Now(), time.Hour, 10*time.Minute)
	want := map[string]bool{idle.ID: true, done.ID: true}
	if len(got) != len(want) {
		t.Fatalf("Expired = %v, want %v", got, want)
	}
	for _, id := range got {
		if !want[id] {
			t.Fatalf("Expired returned %q unexpectedly", id)
		}
	}

	if got := r.Expired(clock.Now(), 0, 0); len(got) != 0 {
		t.Fatalf("Expired with rules disabled = %v, want none", got)
	}
}

func TestRemoveIf(t *testing.T) {
	r := NewSessionRegistry()
	s, _ := r.Create(model.QuizSettings{})
	r.bindConnection("c1", s.ID, model.Slot1)

	if r.RemoveIf(s.ID, func(*model.Session) bool { return false }) {
		t.Fatalf("RemoveIf removed a session the predicate kept")
	}
	if _, ok := r.Get(s.ID); !ok {
		t.Fatalf("session dropped by a rejected RemoveIf")
	}

	if !r.RemoveIf(s.ID, func(got *model.Session) bool { return got == s }) {
		t.Fatalf("RemoveIf = false, want true")
	}
	if _, ok := r.connection("c1"); ok {
		t.Fatalf("connection index still holds c1")
	}
	if r.RemoveIf(s.ID, func(*model.Session) bool { return true }) {
		t.Fatalf("RemoveIf on a removed session = true")
	}
}

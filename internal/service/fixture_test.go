package service

import (
	"context"
	"duelquiz/internal/model"
	"sync"
	"testing"
	"time"
)

type sentEvent struct {
	Room    string
	ConnID  string
	Type    string
	Payload interface{}
}

type recordingBroadcaster struct {
	mu           sync.Mutex
	events       []sentEvent
	disconnected []string
}

func (b *recordingBroadcaster) BroadcastToRoom(room string, msgType string, payload interface{}) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, sentEvent{Room: room, Type: msgType, Payload: payload})
}

func (b *recordingBroadcaster) SendToConnection(connID string, msgType string, payload interface{}) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, sentEvent{ConnID: connID, Type: msgType, Payload: payload})
}

func (b *recordingBroadcaster) DisconnectRoom(room string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.disconnected = append(b.disconnected, room)
}

func (b *recordingBroadcaster) ofType(msgType string) []sentEvent {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []sentEvent
	for _, e := range b.events {
		if e.Type == msgType {
			out = append(out, e)
		}
	}
	return out
}

func (b *recordingBroadcaster) reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = nil
}

type stubStore struct {
	mu      sync.Mutex
	quizzes map[string]*model.Quiz
	putErr  error
	getErr  error
	gets    int
	deleted []string
}

func newStubStore() *stubStore {
	return &stubStore{quizzes: make(map[string]*model.Quiz)}
}

func (s *stubStore) Put(ctx context.Context, sessionID string, quiz *model.Quiz) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.putErr != nil {
		return s.putErr
	}
	s.quizzes[sessionID] = quiz
	return nil
}

func (s *stubStore) Get(ctx context.Context, sessionID string) (*model.Quiz, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gets++
	if s.getErr != nil {
		return nil, s.getErr
	}
	return s.quizzes[sessionID], nil
}

func (s *stubStore) Delete(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.quizzes, sessionID)
	s.deleted = append(s.deleted, sessionID)
	return nil
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func intPtr(v int) *int { return &v }

// sampleQuiz has two questions; the answers are choice 1 then choice 0
func sampleQuiz() *model.Quiz {
	return &model.Quiz{
		Title: "Capitals",
		Settings: model.QuizDocumentSettings{
			TimePerQuestionSec: intPtr(15),
		},
		Questions: []model.QuizQuestion{
			{Prompt: "Capital of France?", Choices: []string{"Lyon", "Paris", "Nice"}, AnswerIndex: intPtr(1)},
			{Prompt: "Capital of Japan?", Choices: []string{"Tokyo", "Osaka"}, AnswerIndex: intPtr(0)},
		},
	}
}

type fixture struct {
	clock    *fakeClock
	registry *SessionRegistry
	store    *stubStore
	bc       *recordingBroadcaster
	slots    *SlotManager
	rounds   *RoundCoordinator
	sessions *SessionService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	clock := &fakeClock{now: time.Date(2026, 1, 2, 15, 4, 5, 0, time.UTC)}
	registry := NewSessionRegistry()
	registry.now = clock.Now

	store := newStubStore()
	bc := &recordingBroadcaster{}
	slots := NewSlotManager(registry)
	rounds := NewRoundCoordinator(registry, store, slots)
	slots.SetBroadcaster(bc)
	rounds.SetBroadcaster(bc)

	return &fixture{
		clock:    clock,
		registry: registry,
		store:    store,
		bc:       bc,
		slots:    slots,
		rounds:   rounds,
		sessions: NewSessionService(registry, store, slots),
	}
}

// createSession creates a session from sampleQuiz
func (f *fixture) createSession(t *testing.T) string {
	t.Helper()
	s, err := f.sessions.CreateSession(context.Background(), sampleQuiz())
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	return s.ID
}

// startDuel creates a session, attaches c1/c2 to both slots and starts it
func (f *fixture) startDuel(t *testing.T) string {
	t.Helper()
	id := f.createSession(t)
	for i, slot := range model.Slots {
		if _, err := f.slots.AttachConnection(id, slot, connName(i), ""); err != nil {
			t.Fatalf("AttachConnection(%s): %v", slot, err)
		}
	}
	if err := f.rounds.Start(context.Background(), id); err != nil {
		t.Fatalf("Start: %v", err)
	}
	return id
}

func (f *fixture) session(t *testing.T, id string) *model.Session {
	t.Helper()
	s, ok := f.registry.Get(id)
	if !ok {
		t.Fatalf("session %s not registered", id)
	}
	return s
}

func (f *fixture) submit(t *testing.T, id string, slot model.SlotID, index, choice int, timeLeft float64) SubmitOutcome {
	t.Helper()
	outcome, err := f.rounds.SubmitAnswer(context.Background(), id, slot, index, choice, timeLeft)
	if err != nil {
		t.Fatalf("SubmitAnswer(%s, %d): %v", slot, index, err)
	}
	return outcome
}

func connName(i int) string {
	return []string{"c1", "c2", "c3", "c4"}[i]
}

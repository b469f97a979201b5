package service

import (
	"context"
	"duelquiz/internal/model"
	"fmt"
	"log"
)

// SessionService is the create/join boundary in front of the registry
type SessionService struct {
	registry *SessionRegistry
	quizzes  QuizStore
	slots    *SlotManager
}

// NewSessionService creates a new session service
func NewSessionService(registry *SessionRegistry, quizzes QuizStore, slots *SlotManager) *SessionService {
	return &SessionService{
		registry: registry,
		quizzes:  quizzes,
		slots:    slots,
	}
}

// CreateSession validates and stores the quiz, then registers a lobby session.
// When the store write fails the session is rolled back.
func (s *SessionService) CreateSession(ctx context.Context, quiz *model.Quiz) (*model.Session, error) {
	if res := ValidateQuiz(quiz); !res.Valid {
		return nil, &ValidationError{Msg: res.Error}
	}

	session, err := s.registry.Create(quiz.SessionSettings())
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	if err := s.quizzes.Put(ctx, session.ID, quiz); err != nil {
		s.registry.Remove(session.ID)
		return nil, &StorageError{Op: "put", Err: err}
	}

	log.Printf("Session %s created (%q, %d questions)", session.ID, session.Settings.Title, len(quiz.Questions))
	return session, nil
}

// JoinSession reserves the next free slot for displayName
func (s *SessionService) JoinSession(ctx context.Context, sessionID, displayName string) (*model.JoinSessionResponse, error) {
	p, err := s.slots.ReserveSlot(sessionID, displayName)
	if err != nil {
		return nil, err
	}
	return &model.JoinSessionResponse{
		SessionID:   sessionID,
		SlotID:      p.SlotID,
		DisplayName: p.DisplayName,
	}, nil
}

// Snapshot returns the current roster of a session
func (s *SessionService) Snapshot(ctx context.Context, sessionID string) (*model.RosterState, error) {
	session, ok := s.registry.Get(sessionID)
	if !ok {
		return nil, ErrSessionNotFound
	}
	session.Lock()
	defer session.Unlock()
	roster := session.Roster()
	return &roster, nil
}

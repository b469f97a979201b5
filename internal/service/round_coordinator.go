package service

import (
	"context"
	"duelquiz/internal/model"
	"log"
	"math"
)

// maxTimeLeftSec caps the remaining time a client may claim
const maxTimeLeftSec = 999

// SubmitOutcome describes what happened to a submitted answer
type SubmitOutcome int

const (
	// SubmitIgnored means the answer was stale (wrong index, round already
	// revealed, or game not active) and nothing changed
	SubmitIgnored SubmitOutcome = iota
	// SubmitAccepted means the answer is pending; the other slot has not answered
	SubmitAccepted
	// SubmitRoundComplete means both slots have answered and the round was scored
	SubmitRoundComplete
)

func (o SubmitOutcome) String() string {
	switch o {
	case SubmitAccepted:
		return "accepted"
	case SubmitRoundComplete:
		return "round_complete"
	default:
		return "ignored"
	}
}

// RoundCoordinator drives a session through Lobby -> Active -> Done
type RoundCoordinator struct {
	registry    *SessionRegistry
	quizzes     QuizStore
	slots       *SlotManager
	broadcaster Broadcaster
}

// NewRoundCoordinator creates a new round coordinator
func NewRoundCoordinator(registry *SessionRegistry, quizzes QuizStore, slots *SlotManager) *RoundCoordinator {
	return &RoundCoordinator{
		registry: registry,
		quizzes:  quizzes,
		slots:    slots,
	}
}

// SetBroadcaster sets the broadcaster for round events
func (c *RoundCoordinator) SetBroadcaster(b Broadcaster) {
	c.broadcaster = b
}

// Start opens the first round
func (c *RoundCoordinator) Start(ctx context.Context, sessionID string) error {
	return c.registry.With(sessionID, func(s *model.Session) error {
		if s.Status != model.SessionLobby {
			return ErrWrongStatus
		}

		quiz, err := c.loadQuiz(ctx, s)
		if err != nil {
			return err
		}
		if len(quiz.Questions) == 0 {
			return &ValidationError{Msg: "Quiz needs at least one question"}
		}

		s.Status = model.SessionActive
		s.CurrentIndex = 0
		log.Printf("Session %s started", s.ID)

		c.showQuestion(s, quiz)
		return nil
	})
}

// SubmitAnswer records a slot's answer for the current round and scores the
// round once both slots have answered. Resubmitting before the round closes
// replaces the earlier answer. Late, stale and unknown-slot submissions are
// ignored without an error.
func (c *RoundCoordinator) SubmitAnswer(ctx context.Context, sessionID string, slot model.SlotID, questionIndex, choiceIndex int, timeLeftSec float64) (SubmitOutcome, error) {
	outcome := SubmitIgnored
	err := c.registry.With(sessionID, func(s *model.Session) error {
		if !slot.Valid() || s.Participants[slot] == nil {
			return nil
		}
		if s.Status != model.SessionActive || questionIndex != s.CurrentIndex || s.Revealed() {
			return nil
		}

		s.PendingAnswers[slot] = model.Answer{
			ChosenChoiceIndex: choiceIndex,
			TimeLeftSeconds:   clampTimeLeft(timeLeftSec),
		}
		if !s.BothAnswered() {
			outcome = SubmitAccepted
			return nil
		}

		quiz, err := c.loadQuiz(ctx, s)
		if err != nil {
			// keep the answer pending; a later resubmission retries the reveal
			outcome = SubmitAccepted
			return err
		}
		c.reveal(s, quiz)
		outcome = SubmitRoundComplete
		return nil
	})
	return outcome, err
}

// Advance moves to the next question, or finishes the game after the last one
func (c *RoundCoordinator) Advance(ctx context.Context, sessionID string) error {
	return c.registry.With(sessionID, func(s *model.Session) error {
		if s.Status != model.SessionActive {
			return ErrWrongStatus
		}

		quiz, err := c.loadQuiz(ctx, s)
		if err != nil {
			return err
		}

		s.CurrentIndex++
		clear(s.PendingAnswers)

		if s.CurrentIndex >= len(quiz.Questions) {
			c.finish(s)
			return nil
		}

		c.showQuestion(s, quiz)
		if c.slots != nil {
			c.slots.broadcastRoster(s)
		}
		return nil
	})
}

// TogglePause records the pause flag and tells the room
func (c *RoundCoordinator) TogglePause(ctx context.Context, sessionID string, paused bool) error {
	return c.registry.With(sessionID, func(s *model.Session) error {
		if s.Status == model.SessionDone {
			return ErrWrongStatus
		}
		s.Paused = paused
		c.broadcast(s.ID, model.EventPauseState, model.PauseState{Paused: paused})
		return nil
	})
}

func (c *RoundCoordinator) loadQuiz(ctx context.Context, s *model.Session) (*model.Quiz, error) {
	if s.Quiz != nil {
		return s.Quiz, nil
	}
	quiz, err := c.quizzes.Get(ctx, s.ID)
	if err != nil {
		return nil, &StorageError{Op: "get", Err: err}
	}
	if quiz == nil {
		return nil, ErrQuizNotFound
	}
	s.Quiz = quiz
	return quiz, nil
}

func (c *RoundCoordinator) showQuestion(s *model.Session, quiz *model.Quiz) {
	c.broadcast(s.ID, model.EventQuestionShown, model.QuestionShown{
		Index:    s.CurrentIndex,
		Question: quiz.Questions[s.CurrentIndex].Scrub(),
		Settings: s.Settings,
	})
}

// reveal scores the round, appends it to history and clears the pending answers
func (c *RoundCoordinator) reveal(s *model.Session, quiz *model.Quiz) {
	correctIndex := quiz.Questions[s.CurrentIndex].CorrectIndex()

	result := model.RoundResult{
		QuestionIndex: s.CurrentIndex,
		CorrectIndex:  correctIndex,
		Choices:       make(map[model.SlotID]int, len(model.Slots)),
		Points:        make(map[model.SlotID]int, len(model.Slots)),
	}
	perSlot := make([]model.SlotReveal, 0, len(model.Slots))

	for _, id := range model.Slots {
		answer := s.PendingAnswers[id]
		correct := answer.ChosenChoiceIndex == correctIndex
		points := roundPoints(correct, answer.TimeLeftSeconds)

		s.Participants[id].Score += points

		result.Choices[id] = answer.ChosenChoiceIndex
		result.Points[id] = points
		perSlot = append(perSlot, model.SlotReveal{
			SlotID:        id,
			Choice:        answer.ChosenChoiceIndex,
			Correct:       correct,
			PointsAwarded: points,
		})
	}

	s.History = append(s.History, result)
	clear(s.PendingAnswers)

	log.Printf("Session %s revealed question %d", s.ID, s.CurrentIndex)
	c.broadcast(s.ID, model.EventAnswerRevealed, model.AnswerRevealed{
		Index:         s.CurrentIndex,
		CorrectIndex:  correctIndex,
		PerSlot:       perSlot,
		RunningTotals: s.Totals(),
	})
}

func (c *RoundCoordinator) finish(s *model.Session) {
	now := c.registry.now()
	s.Status = model.SessionDone
	s.FinishedAt = &now

	history := make([]model.RoundResult, len(s.History))
	copy(history, s.History)

	log.Printf("Session %s finished after %d rounds", s.ID, len(history))
	c.broadcast(s.ID, model.EventGameFinished, model.GameFinished{
		Totals:  s.Totals(),
		History: history,
	})
}

func (c *RoundCoordinator) broadcast(room, msgType string, payload interface{}) {
	if c.broadcaster == nil {
		return
	}
	c.broadcaster.BroadcastToRoom(room, msgType, payload)
}

func clampTimeLeft(sec float64) float64 {
	if math.IsNaN(sec) || sec < 0 {
		return 0
	}
	return math.Min(sec, maxTimeLeftSec)
}

// roundPoints awards the whole seconds left for a correct answer, nothing otherwise
func roundPoints(correct bool, timeLeftSec float64) int {
	if !correct {
		return 0
	}
	return int(math.Floor(timeLeftSec))
}

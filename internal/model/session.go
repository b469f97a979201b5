package model

import (
	"sync"
	"time"
)

// SessionStatus is the lifecycle phase of a duel. It only moves forward.
type SessionStatus string

const (
	SessionLobby  SessionStatus = "lobby"
	SessionActive SessionStatus = "active"
	SessionDone   SessionStatus = "done"
)

// SlotID names one of the two participant positions in a session.
type SlotID string

const (
	Slot1 SlotID = "slot1"
	Slot2 SlotID = "slot2"
)

// Slots lists the valid slot names in assignment order.
var Slots = [2]SlotID{Slot1, Slot2}

// Valid reports whether id is one of the two slot names.
func (id SlotID) Valid() bool {
	return id == Slot1 || id == Slot2
}

// DefaultName is the display name given to a participant that supplied none.
func (id SlotID) DefaultName() string {
	if id == Slot2 {
		return "Player 2"
	}
	return "Player 1"
}

// MaxNameLength is the maximum display name length, in characters.
const MaxNameLength = 24

// QuizSettings is fixed when the session is created
type QuizSettings struct {
	Title                  string `json:"title"`
	TimePerQuestionSeconds int    `json:"timePerQuestionSec"`
	ReadDelaySeconds       int    `json:"readDelaySec"`
}

// Participant occupies a slot. ConnectionRef is empty while offline; the
// participant and its score survive disconnects.
type Participant struct {
	SlotID        SlotID `json:"slotId"`
	DisplayName   string `json:"name"`
	ConnectionRef string `json:"-"`
	Score         int    `json:"score"`
}

// Online reports whether a connection is currently attached.
func (p *Participant) Online() bool {
	return p.ConnectionRef != ""
}

// Answer is a pending submission for the current round
type Answer struct {
	ChosenChoiceIndex int     `json:"choiceIndex"`
	TimeLeftSeconds   float64 `json:"timeLeftSec"`
}

// RoundResult records one completed round. Never modified after it is appended.
type RoundResult struct {
	QuestionIndex int            `json:"index"`
	CorrectIndex  int            `json:"correctIndex"`
	Choices       map[SlotID]int `json:"choices"`
	Points        map[SlotID]int `json:"points"`
}

// Session is one live duel. All fields are guarded by the session lock;
// callers obtain it through the registry.
type Session struct {
	ID             string
	Status         SessionStatus
	Settings       QuizSettings
	CurrentIndex   int
	Participants   map[SlotID]*Participant
	PendingAnswers map[SlotID]Answer
	History        []RoundResult
	Paused         bool
	CreatedAt      time.Time
	LastActiveAt   time.Time
	FinishedAt     *time.Time

	// Quiz is loaded from the store on start and kept for the rest of the game.
	Quiz *Quiz

	mu sync.Mutex
}

// NewSession returns a session in the lobby with both slots empty.
func NewSession(id string, settings QuizSettings, now time.Time) *Session {
	return &Session{
		ID:             id,
		Status:         SessionLobby,
		Settings:       settings,
		CurrentIndex:   -1,
		Participants:   make(map[SlotID]*Participant, len(Slots)),
		PendingAnswers: make(map[SlotID]Answer, len(Slots)),
		CreatedAt:      now,
		LastActiveAt:   now,
	}
}

// Lock acquires exclusive access to the session.
func (s *Session) Lock() { s.mu.Lock() }

// Unlock releases exclusive access to the session.
func (s *Session) Unlock() { s.mu.Unlock() }

// Touch records activity for idle eviction.
func (s *Session) Touch(now time.Time) {
	s.LastActiveAt = now
}

// Revealed reports whether the round for the current index is already in history.
func (s *Session) Revealed() bool {
	n := len(s.History)
	return n > 0 && s.History[n-1].QuestionIndex == s.CurrentIndex
}

// BothAnswered reports whether every slot has a pending answer.
func (s *Session) BothAnswered() bool {
	for _, id := range Slots {
		if _, ok := s.PendingAnswers[id]; !ok {
			return false
		}
	}
	return true
}

// Totals returns the cumulative score of every slot, zero for empty slots.
func (s *Session) Totals() map[SlotID]int {
	totals := make(map[SlotID]int, len(Slots))
	for _, id := range Slots {
		totals[id] = 0
		if p := s.Participants[id]; p != nil {
			totals[id] = p.Score
		}
	}
	return totals
}

// Roster builds the snapshot broadcast after slot changes.
func (s *Session) Roster() RosterState {
	players := make([]RosterEntry, 0, len(Slots))
	for _, id := range Slots {
		p := s.Participants[id]
		if p == nil {
			continue
		}
		players = append(players, RosterEntry{
			SlotID: id,
			Name:   p.DisplayName,
			Score:  p.Score,
			Online: p.Online(),
		})
	}
	return RosterState{
		Participants: players,
		Status:       s.Status,
		CurrentIndex: s.CurrentIndex,
		Settings:     s.Settings,
		Paused:       s.Paused,
	}
}

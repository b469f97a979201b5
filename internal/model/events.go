package model

// Event names exchanged with room members
const (
	// inbound
	EventJoinRoom     = "join-room"
	EventHostStart    = "host-start"
	EventSubmitAnswer = "submit-answer"
	EventAdvance      = "advance"
	EventTogglePause  = "toggle-pause"

	// outbound
	EventRosterState    = "roster-state"
	EventQuestionShown  = "question-shown"
	EventAnswerRevealed = "answer-revealed"
	EventGameFinished   = "game-finished"
	EventPauseState     = "pause-state"
	EventError          = "error"
)

// RosterEntry describes one participant in a roster snapshot
type RosterEntry struct {
	SlotID SlotID `json:"slotId"`
	Name   string `json:"name"`
	Score  int    `json:"score"`
	Online bool   `json:"online"`
}

// RosterState is broadcast after any slot change
type RosterState struct {
	Participants []RosterEntry `json:"participants"`
	Status       SessionStatus `json:"status"`
	CurrentIndex int           `json:"currentIndex"`
	Settings     QuizSettings  `json:"settings"`
	Paused       bool          `json:"paused"`
}

// QuestionShown is broadcast on start and advance
type QuestionShown struct {
	Index    int              `json:"index"`
	Question ScrubbedQuestion `json:"question"`
	Settings QuizSettings     `json:"settings"`
}

// SlotReveal is one slot's outcome for a round
type SlotReveal struct {
	SlotID        SlotID `json:"slotId"`
	Choice        int    `json:"choice"`
	Correct       bool   `json:"correct"`
	PointsAwarded int    `json:"pointsAwarded"`
}

// AnswerRevealed is broadcast when both slots have answered
type AnswerRevealed struct {
	Index         int            `json:"index"`
	CorrectIndex  int            `json:"correctIndex"`
	PerSlot       []SlotReveal   `json:"perSlot"`
	RunningTotals map[SlotID]int `json:"runningTotals"`
}

// GameFinished is broadcast once, after the last question
type GameFinished struct {
	Totals  map[SlotID]int `json:"totals"`
	History []RoundResult  `json:"history"`
}

// PauseState is broadcast when the host toggles pause
type PauseState struct {
	Paused bool `json:"paused"`
}

// ErrorEvent is sent to a single connection when one of its events fails
type ErrorEvent struct {
	Error string `json:"error"`
}

// Inbound payloads

type JoinRoomRequest struct {
	Room   string `json:"room"`
	SlotID SlotID `json:"slotId"`
	Name   string `json:"name,omitempty"`
}

type RoomRequest struct {
	Room string `json:"room"`
}

type SubmitAnswerRequest struct {
	Room            string  `json:"room"`
	Index           int     `json:"index"`
	SlotID          SlotID  `json:"slotId"`
	ChoiceIndex     int     `json:"choiceIndex"`
	TimeLeftSeconds float64 `json:"timeLeftSec"`
}

type TogglePauseRequest struct {
	Room   string `json:"room"`
	Paused bool   `json:"paused"`
}

package model

// CreateSessionResponse is returned when a host creates a session
type CreateSessionResponse struct {
	SessionID string       `json:"sessionId"`
	JoinURL   string       `json:"joinUrl,omitempty"`
	Settings  QuizSettings `json:"settings"`
}

// JoinSessionRequest is the body of a join request
type JoinSessionRequest struct {
	SessionID   string `json:"sessionId"`
	DisplayName string `json:"displayName"`
}

// JoinSessionResponse is returned when a participant reserves a slot
type JoinSessionResponse struct {
	SessionID   string `json:"sessionId"`
	SlotID      SlotID `json:"slotId"`
	DisplayName string `json:"displayName"`
}

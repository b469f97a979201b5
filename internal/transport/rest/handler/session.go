package handler

import (
	"duelquiz/internal/model"
	"duelquiz/internal/service"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/gorilla/mux"
	"github.com/skip2/go-qrcode"
)

const (
	// maxQuizBytes limits the size of a quiz document upload
	maxQuizBytes = 2 << 20
	qrSize       = 320
)

// SessionHandler handles session endpoints
type SessionHandler struct {
	sessionSvc *service.SessionService
}

// NewSessionHandler creates a new session handler
func NewSessionHandler(sessionSvc *service.SessionService) *SessionHandler {
	return &SessionHandler{
		sessionSvc: sessionSvc,
	}
}

// createSessionRequest accepts either {"quiz": {...}} or the bare quiz document
type createSessionRequest struct {
	Quiz *model.Quiz `json:"quiz"`
}

// Create handles POST /v1/sessions
func (h *SessionHandler) Create(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxQuizBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	quiz, err := decodeQuiz(body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	session, err := h.sessionSvc.CreateSession(r.Context(), quiz)
	if err != nil {
		writeServiceError(w, err, "Failed to create session")
		return
	}

	writeJSON(w, http.StatusCreated, model.CreateSessionResponse{
		SessionID: session.ID,
		JoinURL:   joinURL(r, session.ID),
		Settings:  session.Settings,
	})
}

// Join handles POST /v1/join and POST /v1/sessions/{id}/join
func (h *SessionHandler) Join(w http.ResponseWriter, r *http.Request) {
	var req model.JoinSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && err != io.EOF {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if id := mux.Vars(r)["id"]; id != "" {
		req.SessionID = id
	}
	if req.SessionID == "" {
		writeError(w, http.StatusBadRequest, "Missing sessionId")
		return
	}

	resp, err := h.sessionSvc.JoinSession(r.Context(), req.SessionID, req.DisplayName)
	if err != nil {
		writeServiceError(w, err, "Join failed")
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// Get handles GET /v1/sessions/{id}
func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	roster, err := h.sessionSvc.Snapshot(r.Context(), id)
	if err != nil {
		writeServiceError(w, err, "Failed to load session")
		return
	}

	writeJSON(w, http.StatusOK, roster)
}

// QR handles GET /v1/sessions/{id}/qr, a PNG of the session's join link
func (h *SessionHandler) QR(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if _, err := h.sessionSvc.Snapshot(r.Context(), id); err != nil {
		writeServiceError(w, err, "Failed to load session")
		return
	}

	png, err := qrcode.Encode(joinURL(r, id), qrcode.Medium, qrSize)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "QR generation failed")
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Write(png)
}

func decodeQuiz(body []byte) (*model.Quiz, error) {
	var wrapped createSessionRequest
	if err := json.Unmarshal(body, &wrapped); err != nil {
		return nil, err
	}
	if wrapped.Quiz != nil {
		return wrapped.Quiz, nil
	}

	var quiz model.Quiz
	if err := json.Unmarshal(body, &quiz); err != nil {
		return nil, err
	}
	return &quiz, nil
}

func joinURL(r *http.Request, sessionID string) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if fwd := r.Header.Get("X-Forwarded-Proto"); fwd != "" {
		scheme = fwd
	}
	return fmt.Sprintf("%s://%s/join.html?c=%s", scheme, r.Host, url.QueryEscape(sessionID))
}

package rest

import (
	"bytes"
	"duelquiz/internal/model"
	"duelquiz/internal/repository"
	"duelquiz/internal/service"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

const quizBody = `{"title":"Rivers","questions":[{"prompt":"Longest?","choices":["Nile","Thames"],"answerIndex":0}]}`

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	registry := service.NewSessionRegistry()
	quizzes := repository.NewMemoryQuizRepo()
	slots := service.NewSlotManager(registry)
	return NewRouter(&Container{
		SessionService: service.NewSessionService(registry, quizzes, slots),
		CORSOrigin:     "https://host.example",
	})
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(rec.Body).Decode(v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

func createSession(t *testing.T, h http.Handler, body string) model.CreateSessionResponse {
	t.Helper()
	rec := do(t, h, http.MethodPost, "/v1/sessions", body)
	if rec.Code != http.StatusCreated {
		t.Fatalf("POST /v1/sessions = %d: %s", rec.Code, rec.Body)
	}
	var resp model.CreateSessionResponse
	decode(t, rec, &resp)
	return resp
}

func TestCreateSession(t *testing.T) {
	h := newTestRouter(t)

	for name, body := range map[string]string{
		"bare":    quizBody,
		"wrapped": `{"quiz":` + quizBody + `}`,
	} {
		t.Run(name, func(t *testing.T) {
			resp := createSession(t, h, body)
			if len(resp.SessionID) != 6 {
				t.Fatalf("sessionId = %q", resp.SessionID)
			}
			if resp.Settings.Title != "Rivers" || resp.Settings.TimePerQuestionSeconds != 20 {
				t.Fatalf("settings = %+v", resp.Settings)
			}
			if want := "http://example.com/join.html?c=" + resp.SessionID; resp.JoinURL != want {
				t.Fatalf("joinUrl = %q, want %q", resp.JoinURL, want)
			}
		})
	}
}

func TestCreateSessionRejectsBadInput(t *testing.T) {
	h := newTestRouter(t)

	tests := []struct {
		name string
		body string
		want string
	}{
		{"not json", `{"title":`, "invalid request body"},
		{"no questions", `{"title":"Empty","questions":[]}`, "Quiz needs at least one question"},
		{"bad answer", `{"questions":[{"prompt":"p","choices":["a","b"],"answerIndex":4}]}`, "Question 0 has invalid answerIndex"},
		{"missing answer", `{"questions":[{"prompt":"p","choices":["a","b"]}]}`, "Question 0 has invalid answerIndex"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, h, http.MethodPost, "/v1/sessions", tt.body)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400", rec.Code)
			}
			var body map[string]string
			decode(t, rec, &body)
			if body["error"] != tt.want {
				t.Fatalf("error = %q, want %q", body["error"], tt.want)
			}
		})
	}
}

func TestJoinSession(t *testing.T) {
	h := newTestRouter(t)
	id := createSession(t, h, quizBody).SessionID

	rec := do(t, h, http.MethodPost, "/v1/join", `{"sessionId":"`+id+`","displayName":"Ada"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("POST /v1/join = %d: %s", rec.Code, rec.Body)
	}
	var joined model.JoinSessionResponse
	decode(t, rec, &joined)
	if joined.SlotID != model.Slot1 || joined.DisplayName != "Ada" {
		t.Fatalf("join response = %+v", joined)
	}

	rec = do(t, h, http.MethodPost, "/v1/sessions/"+id+"/join", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("POST /v1/sessions/{id}/join = %d: %s", rec.Code, rec.Body)
	}
	decode(t, rec, &joined)
	if joined.SlotID != model.Slot2 || joined.DisplayName != "Player 2" {
		t.Fatalf("join response = %+v", joined)
	}

	tests := []struct {
		name   string
		path   string
		body   string
		status int
	}{
		{"full", "/v1/join", `{"sessionId":"` + id + `"}`, http.StatusConflict},
		{"unknown", "/v1/join", `{"sessionId":"NOPE00"}`, http.StatusNotFound},
		{"missing id", "/v1/join", `{"displayName":"Eve"}`, http.StatusBadRequest},
		{"bad body", "/v1/join", `[`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if rec := do(t, h, http.MethodPost, tt.path, tt.body); rec.Code != tt.status {
				t.Fatalf("status = %d, want %d: %s", rec.Code, tt.status, rec.Body)
			}
		})
	}
}

func TestGetSession(t *testing.T) {
	h := newTestRouter(t)
	id := createSession(t, h, quizBody).SessionID
	do(t, h, http.MethodPost, "/v1/join", `{"sessionId":"`+id+`","displayName":"Ada"}`)

	rec := do(t, h, http.MethodGet, "/v1/sessions/"+id, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /v1/sessions/{id} = %d", rec.Code)
	}
	var roster model.RosterState
	decode(t, rec, &roster)
	if roster.Status != model.SessionLobby || roster.CurrentIndex != -1 || len(roster.Participants) != 1 {
		t.Fatalf("roster = %+v", roster)
	}

	if rec := do(t, h, http.MethodGet, "/v1/sessions/NOPE00", ""); rec.Code != http.StatusNotFound {
		t.Fatalf("unknown session status = %d, want 404", rec.Code)
	}
}

func TestHealthAndCORS(t *testing.T) {
	h := newTestRouter(t)

	rec := do(t, h, http.MethodGet, "/health", "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"ok"`) {
		t.Fatalf("GET /health = %d %s", rec.Code, rec.Body)
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "https://host.example" {
		t.Fatalf("Allow-Origin = %q", got)
	}

	rec = do(t, h, http.MethodOptions, "/v1/sessions", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("preflight status = %d, want 200", rec.Code)
	}
}

func TestSessionQR(t *testing.T) {
	h := newTestRouter(t)
	id := createSession(t, h, quizBody).SessionID

	rec := do(t, h, http.MethodGet, "/v1/sessions/"+id+"/qr", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /v1/sessions/{id}/qr = %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "image/png" {
		t.Fatalf("Content-Type = %q, want image/png", ct)
	}
	if !bytes.HasPrefix(rec.Body.Bytes(), []byte("\x89PNG")) {
		t.Fatalf("body is not a PNG")
	}

	if rec := do(t, h, http.MethodGet, "/v1/sessions/NOPE00/qr", ""); rec.Code != http.StatusNotFound {
		t.Fatalf("unknown session status = %d, want 404", rec.Code)
	}
}

package service

import (
	"crypto/rand"
	"duelquiz/internal/model"
	"fmt"
	"sync"
	"time"
)

const (
	sessionIDChars    = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	sessionIDLen      = 6
	sessionIDAttempts = 10
)

// connBinding is the slot a connection is attached to
type connBinding struct {
	SessionID string
	Slot      model.SlotID
}

// SessionRegistry owns every live session and the connection index.
// Each session is guarded by its own lock; the registry lock only covers the maps.
type SessionRegistry struct {
	mu       sync.RWMutex
	sessions map[string]*model.Session
	conns    map[string]connBinding

	newID func() (string, error)
	now   func() time.Time
}

// NewSessionRegistry creates an empty registry
func NewSessionRegistry() *SessionRegistry {
	return &SessionRegistry{
		sessions: make(map[string]*model.Session),
		conns:    make(map[string]connBinding),
		newID:    generateSessionID,
		now:      time.Now,
	}
}

// Create registers a new lobby session under an unused identifier
func (r *SessionRegistry) Create(settings model.QuizSettings) (*model.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for attempts := 0; attempts < sessionIDAttempts; attempts++ {
		id, err := r.newID()
		if err != nil {
			return nil, err
		}
		if _, taken := r.sessions[id]; taken {
			continue
		}
		s := model.NewSession(id, settings, r.now())
		r.sessions[id] = s
		return s, nil
	}

	return nil, fmt.Errorf("failed to generate unique session id")
}

// Get returns the session with the given id
func (r *SessionRegistry) Get(id string) (*model.Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[id]
	return s, ok
}

// With runs fn while holding the session's lock. Every read-then-write of a
// session goes through here.
func (r *SessionRegistry) With(id string, fn func(s *model.Session) error) error {
	s, ok := r.Get(id)
	if !ok {
		return ErrSessionNotFound
	}

	s.Lock()
	defer s.Unlock()

	// evicted while we waited for the lock
	if current, ok := r.Get(id); !ok || current != s {
		return ErrSessionNotFound
	}

	s.Touch(r.now())
	return fn(s)
}

// Remove drops a session and every connection bound to it
func (r *SessionRegistry) Remove(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.removeLocked(id)
}

// RemoveIf drops a session only if remove reports true for it. remove runs
// under the session's lock and no event can touch the session before it is dropped.
func (r *SessionRegistry) RemoveIf(id string, remove func(s *model.Session) bool) bool {
	s, ok := r.Get(id)
	if !ok {
		return false
	}

	s.Lock()
	defer s.Unlock()
	if !remove(s) {
		return false
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if current, ok := r.sessions[id]; !ok || current != s {
		return false
	}
	return r.removeLocked(id)
}

func (r *SessionRegistry) removeLocked(id string) bool {
	if _, ok := r.sessions[id]; !ok {
		return false
	}
	delete(r.sessions, id)
	for connID, b := range r.conns {
		if b.SessionID == id {
			delete(r.conns, connID)
		}
	}
	return true
}

// Len returns the number of live sessions
func (r *SessionRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Expired lists sessions idle for longer than idle, or finished for longer
// than doneRetention. A zero duration disables that rule.
func (r *SessionRegistry) Expired(now time.Time, idle, doneRetention time.Duration) []string {
	r.mu.RLock()
	snapshot := make([]*model.Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		snapshot = append(snapshot, s)
	}
	r.mu.RUnlock()

	var expired []string
	for _, s := range snapshot {
		s.Lock()
		if isExpired(s, now, idle, doneRetention) {
			expired = append(expired, s.ID)
		}
		s.Unlock()
	}
	return expired
}

// isExpired applies the eviction rules to a locked session
func isExpired(s *model.Session, now time.Time, idle, doneRetention time.Duration) bool {
	if doneRetention > 0 && s.Status == model.SessionDone && s.FinishedAt != nil && now.Sub(*s.FinishedAt) > doneRetention {
		return true
	}
	return idle > 0 && now.Sub(s.LastActiveAt) > idle
}

// bindConnection points connID at a slot, replacing any earlier binding
func (r *SessionRegistry) bindConnection(connID, sessionID string, slot model.SlotID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.conns[connID] = connBinding{SessionID: sessionID, Slot: slot}
}

// unbindConnection removes connID only while it still points at the given slot
func (r *SessionRegistry) unbindConnection(connID string, b connBinding) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if current, ok := r.conns[connID]; ok && current == b {
		delete(r.conns, connID)
	}
}

func (r *SessionRegistry) connection(connID string) (connBinding, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.conns[connID]
	return b, ok
}

// generateSessionID creates a 6-char code without ambiguous characters
func generateSessionID() (string, error) {
	b := make([]byte, sessionIDLen)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}

	code := make([]byte, sessionIDLen)
	for i := range code {
		code[i] = sessionIDChars[int(b[i])%len(sessionIDChars)]
	}
	return string(code), nil
}

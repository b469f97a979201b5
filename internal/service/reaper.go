package service

import (
	"context"
	"duelquiz/internal/model"
	"log"
	"time"
)

// Reaper evicts idle and long-finished sessions
type Reaper struct {
	registry      *SessionRegistry
	quizzes       QuizStore
	broadcaster   Broadcaster
	idleTimeout   time.Duration
	doneRetention time.Duration
}

// NewReaper creates a reaper. A zero timeout disables that eviction rule.
func NewReaper(registry *SessionRegistry, quizzes QuizStore, idleTimeout, doneRetention time.Duration) *Reaper {
	return &Reaper{
		registry:      registry,
		quizzes:       quizzes,
		idleTimeout:   idleTimeout,
		doneRetention: doneRetention,
	}
}

// SetBroadcaster sets the broadcaster used to close evicted rooms
func (r *Reaper) SetBroadcaster(b Broadcaster) {
	r.broadcaster = b
}

// Sweep removes every expired session and returns how many were evicted
func (r *Reaper) Sweep(ctx context.Context) int {
	evicted := 0
	for _, id := range r.registry.Expired(r.registry.now(), r.idleTimeout, r.doneRetention) {
		if r.evict(ctx, id) {
			evicted++
		}
	}
	return evicted
}

// evict removes a session if it is still expired once its lock is held
func (r *Reaper) evict(ctx context.Context, id string) bool {
	removed := r.registry.RemoveIf(id, func(s *model.Session) bool {
		return isExpired(s, r.registry.now(), r.idleTimeout, r.doneRetention)
	})
	if !removed {
		return false
	}

	if err := r.quizzes.Delete(ctx, id); err != nil {
		log.Printf("Failed to delete quiz for session %s: %v", id, err)
	}
	if r.broadcaster != nil {
		r.broadcaster.DisconnectRoom(id)
	}
	log.Printf("Session %s evicted", id)
	return true
}

package repository

import (
	"context"
	"duelquiz/internal/model"
	"sync"
)

type memoryQuizRepo struct {
	mu      sync.RWMutex
	quizzes map[string]*model.Quiz
}

// NewMemoryQuizRepo creates a process-local quiz repository
func NewMemoryQuizRepo() QuizRepo {
	return &memoryQuizRepo{
		quizzes: make(map[string]*model.Quiz),
	}
}

func (r *memoryQuizRepo) Put(ctx context.Context, sessionID string, quiz *model.Quiz) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.quizzes[sessionID] = quiz
	return nil
}

func (r *memoryQuizRepo) Get(ctx context.Context, sessionID string) (*model.Quiz, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.quizzes[sessionID], nil
}

func (r *memoryQuizRepo) Delete(ctx context.Context, sessionID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.quizzes, sessionID)
	return nil
}

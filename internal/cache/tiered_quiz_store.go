package cache

import (
	"context"
	"duelquiz/internal/model"
	"duelquiz/internal/repository"
	"log"
)

// TieredQuizStore keeps quizzes in the repository and serves reads from Redis
// first, refilling the cache on a miss
type TieredQuizStore struct {
	cache QuizCache
	repo  repository.QuizRepo
}

// NewTieredQuizStore creates a read-through store
func NewTieredQuizStore(cache QuizCache, repo repository.QuizRepo) *TieredQuizStore {
	return &TieredQuizStore{
		cache: cache,
		repo:  repo,
	}
}

func (s *TieredQuizStore) Put(ctx context.Context, sessionID string, quiz *model.Quiz) error {
	if err := s.repo.Put(ctx, sessionID, quiz); err != nil {
		return err
	}
	if err := s.cache.Put(ctx, sessionID, quiz); err != nil {
		log.Printf("Failed to cache quiz for session %s: %v", sessionID, err)
	}
	return nil
}

func (s *TieredQuizStore) Get(ctx context.Context, sessionID string) (*model.Quiz, error) {
	quiz, err := s.cache.Get(ctx, sessionID)
	if err != nil {
		log.Printf("Quiz cache read failed for session %s: %v", sessionID, err)
	}
	if quiz != nil {
		return quiz, nil
	}

	quiz, err = s.repo.Get(ctx, sessionID)
	if err != nil || quiz == nil {
		return quiz, err
	}
	if err := s.cache.Put(ctx, sessionID, quiz); err != nil {
		log.Printf("Failed to cache quiz for session %s: %v", sessionID, err)
	}
	return quiz, nil
}

func (s *TieredQuizStore) Delete(ctx context.Context, sessionID string) error {
	if err := s.cache.Delete(ctx, sessionID); err != nil {
		log.Printf("Failed to evict cached quiz for session %s: %v", sessionID, err)
	}
	return s.repo.Delete(ctx, sessionID)
}

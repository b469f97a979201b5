package cache

import (
	"context"
	"duelquiz/internal/model"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// QuizCache handles Redis operations for session quiz documents
type QuizCache interface {
	Put(ctx context.Context, sessionID string, quiz *model.Quiz) error
	Get(ctx context.Context, sessionID string) (*model.Quiz, error)
	Delete(ctx context.Context, sessionID string) error
}

type quizCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewQuizCache creates a new quiz cache. Entries expire after ttl.
func NewQuizCache(client *redis.Client, ttl time.Duration) QuizCache {
	return &quizCache{
		client: client,
		ttl:    ttl,
	}
}

func (c *quizCache) key(sessionID string) string {
	return fmt.Sprintf("quiz:%s", sessionID)
}

func (c *quizCache) Put(ctx context.Context, sessionID string, quiz *model.Quiz) error {
	data, err := json.Marshal(quiz)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, c.key(sessionID), data, c.ttl).Err()
}

func (c *quizCache) Get(ctx context.Context, sessionID string) (*model.Quiz, error) {
	data, err := c.client.Get(ctx, c.key(sessionID)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var quiz model.Quiz
	if err := json.Unmarshal([]byte(data), &quiz); err != nil {
		return nil, err
	}
	return &quiz, nil
}

func (c *quizCache) Delete(ctx context.Context, sessionID string) error {
	return c.client.Del(ctx, c.key(sessionID)).Err()
}

package service

import (
	"context"
	"duelquiz/internal/model"
)

// QuizStore holds the quiz document of each session. Get returns nil, nil
// when no document exists for the id.
type QuizStore interface {
	Put(ctx context.Context, sessionID string, quiz *model.Quiz) error
	Get(ctx context.Context, sessionID string) (*model.Quiz, error)
	Delete(ctx context.Context, sessionID string) error
}

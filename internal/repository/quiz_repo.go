package repository

import (
	"context"
	"duelquiz/internal/model"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// QuizRepo handles MongoDB operations for session quiz documents
type QuizRepo interface {
	Put(ctx context.Context, sessionID string, quiz *model.Quiz) error
	Get(ctx context.Context, sessionID string) (*model.Quiz, error)
	Delete(ctx context.Context, sessionID string) error
}

// quizRecord is the stored form of a quiz, keyed by session id
type quizRecord struct {
	SessionID string     `bson:"_id"`
	Quiz      model.Quiz `bson:"quiz"`
	CreatedAt time.Time  `bson:"createdAt"`
}

type quizRepo struct {
	collection *mongo.Collection
}

// NewQuizRepo creates a new quiz repository
func NewQuizRepo(db *mongo.Database) QuizRepo {
	return &quizRepo{
		collection: db.Collection("quizzes"),
	}
}

func (r *quizRepo) Put(ctx context.Context, sessionID string, quiz *model.Quiz) error {
	record := quizRecord{
		SessionID: sessionID,
		Quiz:      *quiz,
		CreatedAt: time.Now(),
	}
	_, err := r.collection.ReplaceOne(ctx, bson.M{"_id": sessionID}, record, options.Replace().SetUpsert(true))
	return err
}

func (r *quizRepo) Get(ctx context.Context, sessionID string) (*model.Quiz, error) {
	var record quizRecord
	err := r.collection.FindOne(ctx, bson.M{"_id": sessionID}).Decode(&record)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &record.Quiz, nil
}

func (r *quizRepo) Delete(ctx context.Context, sessionID string) error {
	_, err := r.collection.DeleteOne(ctx, bson.M{"_id": sessionID})
	return err
}

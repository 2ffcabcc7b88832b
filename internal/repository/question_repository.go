package repository

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"eduroom/internal/model"
)

type QuestionRepository struct {
	coll *mongo.Collection
}

func NewQuestionRepository(db *mongo.Database) *QuestionRepository {
	return &QuestionRepository{coll: db.Collection("questions")}
}

func (r *QuestionRepository) Create(ctx context.Context, record *model.QuestionRecord) error {
	res, err := r.coll.InsertOne(ctx, record)
	if err != nil {
		return fmt.Errorf("create question record failed: %w", err)
	}
	record.ID = res.InsertedID.(primitive.ObjectID)
	return nil
}

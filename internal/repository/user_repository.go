package repository

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"eduroom/internal/model"
)

type UserRepository struct {
	coll *mongo.Collection
}

func NewUserRepository(db *mongo.Database) *UserRepository {
	return &UserRepository{coll: db.Collection("users")}
}

func (r *UserRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*model.User, error) {
	var user model.User
	if err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&user); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("get user failed: %w", err)
	}
	return &user, nil
}

// AppendRoom adds the room to the user's list; $addToSet keeps the list
// duplicate-free under concurrent enrollments.
func (r *UserRepository) AppendRoom(ctx context.Context, userID, roomID primitive.ObjectID) error {
	update := bson.M{"$addToSet": bson.M{"rooms": roomID}}
	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": userID}, update)
	if err != nil {
		return fmt.Errorf("append room to user failed: %w", err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("append room: user %s not found", userID.Hex())
	}
	return nil
}

// RemoveRoomFromAll detaches the room from every user who references it.
func (r *UserRepository) RemoveRoomFromAll(ctx context.Context, roomID primitive.ObjectID) error {
	filter := bson.M{"rooms": roomID}
	update := bson.M{"$pull": bson.M{"rooms": roomID}}
	if _, err := r.coll.UpdateMany(ctx, filter, update); err != nil {
		return fmt.Errorf("remove room from users failed: %w", err)
	}
	return nil
}

package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"eduroom/internal/model"
)

type RoomRepository struct {
	coll *mongo.Collection
}

func NewRoomRepository(db *mongo.Database) *RoomRepository {
	return &RoomRepository{coll: db.Collection("rooms")}
}

func (r *RoomRepository) Create(ctx context.Context, room *model.Room) error {
	now := time.Now()
	room.CreatedAt = now
	room.UpdatedAt = now
	if room.TopicQuestionCount == nil {
		room.TopicQuestionCount = map[string]int{}
	}
	res, err := r.coll.InsertOne(ctx, room)
	if err != nil {
		return fmt.Errorf("create room failed: %w", err)
	}
	room.ID = res.InsertedID.(primitive.ObjectID)
	return nil
}

func (r *RoomRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*model.Room, error) {
	var room model.Room
	if err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&room); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("get room failed: %w", err)
	}
	return &room, nil
}

func (r *RoomRepository) List(ctx context.Context) ([]model.Room, error) {
	cur, err := r.coll.Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("list rooms failed: %w", err)
	}
	defer cur.Close(ctx)

	var rooms []model.Room
	if err := cur.All(ctx, &rooms); err != nil {
		return nil, fmt.Errorf("decode rooms failed: %w", err)
	}
	return rooms, nil
}

func (r *RoomRepository) ListByIDs(ctx context.Context, ids []primitive.ObjectID) ([]model.Room, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	cur, err := r.coll.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, fmt.Errorf("list rooms by ids failed: %w", err)
	}
	defer cur.Close(ctx)

	var rooms []model.Room
	if err := cur.All(ctx, &rooms); err != nil {
		return nil, fmt.Errorf("decode rooms failed: %w", err)
	}
	return rooms, nil
}

// SetTopicCounts replaces the room's topic counter map, used once at the end
// of ingestion to seed discovered topics with zero counts.
func (r *RoomRepository) SetTopicCounts(ctx context.Context, id primitive.ObjectID, counts map[string]int) error {
	update := bson.M{"$set": bson.M{
		"topicQuestionCount": counts,
		"updatedAt":          time.Now(),
	}}
	if _, err := r.coll.UpdateOne(ctx, bson.M{"_id": id}, update); err != nil {
		return fmt.Errorf("set room topic counts failed: %w", err)
	}
	return nil
}

// SetEmbeddingMetadata marks the room embedded and records processing details.
func (r *RoomRepository) SetEmbeddingMetadata(ctx context.Context, id primitive.ObjectID, meta model.EmbeddingMetadata) error {
	update := bson.M{"$set": bson.M{
		"isEmbedded":        true,
		"embeddingMetadata": meta,
		"updatedAt":         time.Now(),
	}}
	if _, err := r.coll.UpdateOne(ctx, bson.M{"_id": id}, update); err != nil {
		return fmt.Errorf("set room embedding metadata failed: %w", err)
	}
	return nil
}

// IncrementTopicCount bumps one topic counter with an atomic $inc so
// concurrent questions against the same room never lose an update. The key
// is created with value 1 when the topic was not seeded at ingestion.
func (r *RoomRepository) IncrementTopicCount(ctx context.Context, id primitive.ObjectID, topic string) error {
	update := bson.M{
		"$inc": bson.M{"topicQuestionCount." + topic: 1},
		"$set": bson.M{"updatedAt": time.Now()},
	}
	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return fmt.Errorf("increment topic count failed: %w", err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("increment topic count: room %s not found", id.Hex())
	}
	return nil
}

// Delete removes the room; deleting an already-absent room is not an error
// so compensating cleanup stays idempotent.
func (r *RoomRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	if _, err := r.coll.DeleteOne(ctx, bson.M{"_id": id}); err != nil {
		return fmt.Errorf("delete room failed: %w", err)
	}
	return nil
}
